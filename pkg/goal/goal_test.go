package goal

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCanonicalNonDimensional(t *testing.T) {
	g := New(FuncCount, "test_unit", "unit", "click", nil, nil)
	assert.Equal(t, "test_unit.unit.click", g.Canonical())
	assert.False(t, g.IsDimensional())
}

func TestCanonicalDimensionalSortsDimensions(t *testing.T) {
	a := New(FuncValue, "u", "global", "revenue", map[string]Predicate{
		"country": {Op: OpEq, Literal: "cz"},
		"product": {Op: OpEq, Literal: "shoes"},
	}, nil)
	b := New(FuncValue, "u", "global", "revenue", map[string]Predicate{
		"product": {Op: OpEq, Literal: "shoes"},
		"country": {Op: OpEq, Literal: "cz"},
	}, nil)
	require.Equal(t, a.Canonical(), b.Canonical())
	assert.Equal(t, "u.global.revenue[country=cz,product=shoes]", a.Canonical())
	assert.True(t, a.Equal(b))
}

func TestEqualIgnoresFunc(t *testing.T) {
	a := New(FuncCount, "u", "unit", "x", nil, nil)
	b := New(FuncValue, "u", "unit", "x", nil, nil)
	assert.True(t, a.Equal(b), "canonical form excludes the outer function")
}

func TestColumnSelection(t *testing.T) {
	cases := []struct {
		fn        Func
		col, sqr  string
	}{
		{FuncCount, "count", "sum_sqr_count"},
		{FuncValue, "sum_value", "sum_sqr_value"},
		{FuncUnique, "count_unique", "count_unique"},
	}
	for _, c := range cases {
		g := New(c.fn, "u", "unit", "x", nil, nil)
		col, sqr := g.Column()
		assert.Equal(t, c.col, col)
		assert.Equal(t, c.sqr, sqr)
	}
}

func TestMatchesRow(t *testing.T) {
	g := New(FuncValue, "u", "unit", "x", map[string]Predicate{
		"country": {Op: OpPrefix, Literal: "c"},
	}, nil)
	assert.True(t, g.MatchesRow("u", "unit", "x", map[string]string{"country": "cz"}))
	assert.False(t, g.MatchesRow("u", "unit", "x", map[string]string{"country": "sk"}))
	assert.False(t, g.MatchesRow("u", "global", "x", map[string]string{"country": "cz"}))
}

func TestUnifyDimensionsFillsMissingWithEmptyEquality(t *testing.T) {
	a := New(FuncCount, "u", "unit", "exposure", nil, nil)
	b := New(FuncCount, "u", "unit", "click", map[string]Predicate{
		"product": {Op: OpEq, Literal: "shoes"},
	}, nil)
	refs := []*GoalRef{a, b}
	UnifyDimensions(refs)

	require.Contains(t, a.Dimensions, "product")
	assert.Equal(t, Predicate{Op: OpEq, Literal: ""}, a.Dimensions["product"])
	assert.False(t, a.IsDimensional())
	assert.True(t, b.IsDimensional())
}

func TestAllDimensionNamesSorted(t *testing.T) {
	a := New(FuncCount, "u", "unit", "a", map[string]Predicate{"zeta": {Op: OpEq, Literal: "1"}}, nil)
	b := New(FuncCount, "u", "unit", "b", map[string]Predicate{"alpha": {Op: OpEq, Literal: "1"}}, nil)
	assert.Equal(t, []string{"alpha", "zeta"}, AllDimensionNames([]*GoalRef{a, b}))
}
