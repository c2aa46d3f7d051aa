package data

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const fixtureCSV = `exp_id,exp_variant_id,unit_type,agg_type,goal,product,count,sum_sqr_count,sum_value,sum_sqr_value,count_unique
test-conversion,a,T,global,exposure,,21,21,0,0,0
test-conversion,b,T,global,exposure,,26,26,0,0,0
test-conversion,c,T,global,exposure,,30,30,0,0,0
test-conversion,a,T,unit,click,,5,5,0,0,0
test-conversion,b,T,unit,click,,7,7,0,0,0
test-conversion,c,T,unit,click,,9,9,0,0,0
`

func TestLoadCSVParsesKnownAndDimensionColumns(t *testing.T) {
	c, err := LoadCSV(strings.NewReader(fixtureCSV))
	require.NoError(t, err)

	rows, err := c.GetAggGoals(context.Background(), Query{ExpID: "test-conversion"})
	require.NoError(t, err)
	require.Len(t, rows, 6)

	for _, row := range rows {
		assert.Equal(t, "test-conversion", row.ExpID)
		assert.Contains(t, row.Dimensions, "product")
	}
}

func TestLoadCSVFiltersByExpID(t *testing.T) {
	c, err := LoadCSV(strings.NewReader(fixtureCSV))
	require.NoError(t, err)

	rows, err := c.GetAggGoals(context.Background(), Query{ExpID: "other-experiment"})
	require.NoError(t, err)
	assert.Empty(t, rows)
}

func TestGetAggGoalsAppliesExposureScopeFilter(t *testing.T) {
	csvWithProduct := strings.Replace(fixtureCSV, "exposure,,", "exposure,shoes,", 1)
	c, err := LoadCSV(strings.NewReader(csvWithProduct))
	require.NoError(t, err)

	rows, err := c.GetAggGoals(context.Background(), Query{
		ExpID: "test-conversion",
		Filters: []Filter{
			{Dimension: "product", Values: []string{"shoes"}, Scope: ScopeExposure},
		},
	})
	require.NoError(t, err)
	for _, row := range rows {
		if row.Goal == "exposure" {
			assert.Equal(t, "shoes", row.Dim("product"))
		} else {
			assert.NotEqual(t, "exposure", row.Goal)
		}
	}
}
