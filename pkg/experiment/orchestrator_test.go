package experiment

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/avast/epstats/pkg/data"
)

const ctrFixtureCSV = `exp_id,exp_variant_id,unit_type,agg_type,goal,count,sum_sqr_count,sum_value,sum_sqr_value,count_unique
test-conversion,a,T,global,exposure,21,21,0,0,0
test-conversion,b,T,global,exposure,26,26,0,0,0
test-conversion,c,T,global,exposure,30,30,0,0,0
test-conversion,a,T,unit,click,5,5,0,0,0
test-conversion,b,T,unit,click,7,7,0,0,0
test-conversion,c,T,unit,click,9,9,0,0,0
`

func newCTRExperiment(t *testing.T) (*Experiment, *data.CSVCollaborator) {
	t.Helper()
	collaborator, err := data.LoadCSV(strings.NewReader(ctrFixtureCSV))
	require.NoError(t, err)

	ctr, err := NewMetric("ctr", "CTR", "count(T.unit.click)", "count(T.global.exposure)", nil)
	require.NoError(t, err)

	exp, err := New("test-conversion", "a", "T", []*Metric{ctr}, nil)
	require.NoError(t, err)
	exp.Variants = []string{"a", "b", "c"}
	return exp, collaborator
}

func TestOrchestratorEvaluateCTREndToEnd(t *testing.T) {
	exp, collaborator := newCTRExperiment(t)
	orch := NewOrchestrator(collaborator)

	result, err := orch.Evaluate(context.Background(), exp)
	require.NoError(t, err)
	require.Len(t, result.Metrics, 1)

	statsByVariant := map[string]MetricStat{}
	for _, s := range result.Metrics[0].Stats {
		statsByVariant[s.ExpVariantID] = s
	}

	assert.InDelta(t, 0.23810, statsByVariant["a"].Mean, 1e-4)
	assert.InDelta(t, 0.26923, statsByVariant["b"].Mean, 1e-4)
	assert.InDelta(t, 0.30000, statsByVariant["c"].Mean, 1e-4)
	assert.InDelta(t, 0.13077, statsByVariant["b"].Diff, 1e-4)
	assert.InDelta(t, 0.26000, statsByVariant["c"].Diff, 1e-4)

	for _, id := range []string{"b", "c"} {
		p := statsByVariant[id].PValue
		assert.Greater(t, p, 0.0)
		assert.LessOrEqual(t, p, 1.0)
	}
	assert.InDelta(t, 0.95, statsByVariant["a"].ConfidenceLevel, 1e-9)

	require.Len(t, result.Exposure.Stats, 3)
}

func TestOrchestratorSRMCheckEndToEnd(t *testing.T) {
	exp, collaborator := newCTRExperiment(t)
	srm, err := NewSRMCheck("srm", "SRM", "count(T.global.exposure)", 0.999)
	require.NoError(t, err)
	exp.Checks = []*Check{srm}

	orch := NewOrchestrator(collaborator)
	result, err := orch.Evaluate(context.Background(), exp)
	require.NoError(t, err)
	require.Len(t, result.Checks, 1)

	byVar := map[string]float64{}
	for _, s := range result.Checks[0].Stats {
		byVar[s.VariableID] = s.Value
	}
	assert.InDelta(t, 1.584, byVar["test_stat"], 1e-3)
	assert.InDelta(t, 0.4528, byVar["p_value"], 1e-3)
	assert.Equal(t, 0.999, byVar["confidence_level"])
}

func TestOrchestratorSumRatioCheckEndToEnd(t *testing.T) {
	exp, collaborator := newCTRExperiment(t)
	sr, err := NewSumRatioCheck("sum_ratio", "SumRatio", "count(T.unit.click)", "count(T.global.exposure)", 0.5, 0.999)
	require.NoError(t, err)
	exp.Checks = []*Check{sr}

	orch := NewOrchestrator(collaborator)
	result, err := orch.Evaluate(context.Background(), exp)
	require.NoError(t, err)
	require.Len(t, result.Checks, 1)

	byVar := map[string]float64{}
	for _, s := range result.Checks[0].Stats {
		byVar[s.VariableID] = s.Value
	}
	assert.GreaterOrEqual(t, byVar["sum_ratio"], 0.0)
	assert.Equal(t, 0.5, byVar["max_sum_ratio"])
}

func TestNewExperimentRejectsDuplicateMetricIDs(t *testing.T) {
	a, err := NewMetric("dup", "A", "count(T.unit.click)", "count(T.global.exposure)", nil)
	require.NoError(t, err)
	b, err := NewMetric("dup", "B", "count(T.unit.click)", "count(T.global.exposure)", nil)
	require.NoError(t, err)

	_, err = New("exp", "a", "T", []*Metric{a, b}, nil)
	assert.Error(t, err)
}

func TestNewExperimentRequiresIdentity(t *testing.T) {
	_, err := New("", "a", "T", nil, nil)
	assert.Error(t, err)
	_, err = New("exp", "", "T", nil, nil)
	assert.Error(t, err)
	_, err = New("exp", "a", "", nil, nil)
	assert.Error(t, err)
}

func TestOrchestratorAbsentVariantStillEvaluates(t *testing.T) {
	exp, collaborator := newCTRExperiment(t)
	exp.Variants = []string{"a", "b", "c", "d"} // "d" has no rows at all

	orch := NewOrchestrator(collaborator)
	result, err := orch.Evaluate(context.Background(), exp)
	require.NoError(t, err)

	var dStat MetricStat
	for _, s := range result.Metrics[0].Stats {
		if s.ExpVariantID == "d" {
			dStat = s
		}
	}
	assert.Equal(t, 0.0, dStat.Count)
}
