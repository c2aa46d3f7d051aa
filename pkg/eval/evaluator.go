// Package eval implements the expression evaluator and missing-cell filler:
// turning an expression tree plus an aggregated goal table into per-variant
// (count, value, valueSqr) vectors.
package eval

import (
	"github.com/avast/epstats/pkg/data"
	"github.com/avast/epstats/pkg/expr"
	"github.com/avast/epstats/pkg/goal"
)

// VariantIndex maps experiment variant ids to a dense, stable array index.
// The control variant is looked up by name elsewhere (pkg/experiment), never by
// position, but every per-variant vector produced by this package is aligned
// to this index.
type VariantIndex struct {
	order []string
	pos   map[string]int
}

// NewVariantIndex builds a VariantIndex over variants in the given order.
func NewVariantIndex(variants []string) *VariantIndex {
	pos := make(map[string]int, len(variants))
	for i, v := range variants {
		pos[v] = i
	}
	return &VariantIndex{order: append([]string(nil), variants...), pos: pos}
}

// Len returns the number of variants.
func (vi *VariantIndex) Len() int { return len(vi.order) }

// Order returns the variant ids in index order.
func (vi *VariantIndex) Order() []string { return vi.order }

// IndexOf returns the array index for a variant id, or -1 if unknown.
func (vi *VariantIndex) IndexOf(variantID string) int {
	idx, ok := vi.pos[variantID]
	if !ok {
		return -1
	}
	return idx
}

// Triple is the per-variant (count, value, valueSqr) result the evaluator
// produces for one metric.
type Triple struct {
	Count    []float64
	Value    []float64
	ValueSqr []float64
}

// Evaluate computes the (count, value, valueSqr) vectors for a metric's
// nominator and denominator expressions against an aggregated goal table:
// count = denominator.EvalAgg, value = nominator.EvalAgg,
// valueSqr = nominator.EvalSqr.
func Evaluate(nominator, denominator *expr.Node, table []data.Row, variants *VariantIndex) Triple {
	return Triple{
		Count:    EvalAgg(denominator, table, variants),
		Value:    EvalAgg(nominator, table, variants),
		ValueSqr: EvalSqr(nominator, table, variants),
	}
}

// EvalAgg evaluates a node's aggregate (value/count) vector, recursively
// combining child vectors per the operator's value-space semantics.
func EvalAgg(n *expr.Node, table []data.Row, variants *VariantIndex) []float64 {
	switch {
	case n.IsNumber:
		return broadcast(n.Number, variants.Len())
	case n.GoalRef != nil:
		column, _ := n.GoalRef.Column()
		return groupSum(n.GoalRef, column, table, variants)
	default:
		left := EvalAgg(n.Left, table, variants)
		right := EvalAgg(n.Right, table, variants)
		out := make([]float64, variants.Len())
		for i := range out {
			switch n.Op {
			case expr.OpAdd:
				out[i] = left[i] + right[i]
			case expr.OpSub, expr.OpXor:
				// '~' matches '-' in value/count space; they differ only in EvalSqr.
				out[i] = left[i] - right[i]
			case expr.OpMul:
				out[i] = left[i] * right[i]
			case expr.OpDiv:
				out[i] = left[i] / right[i] // IEEE-754 ±Inf/NaN preserved, never elided
			}
		}
		return out
	}
}

// EvalSqr evaluates a node's squared-value vector. GoalRef leaves read the
// squared counter column; binary operators propagate variance:
// '+' adds, '-' subtracts, '*' multiplies, '/' divides, and '~' adds
// (the "variance-preserving" combinator, opposite of '-').
func EvalSqr(n *expr.Node, table []data.Row, variants *VariantIndex) []float64 {
	switch {
	case n.IsNumber:
		return broadcast(n.Number*n.Number, variants.Len())
	case n.GoalRef != nil:
		_, columnSqr := n.GoalRef.Column()
		return groupSum(n.GoalRef, columnSqr, table, variants)
	default:
		left := EvalSqr(n.Left, table, variants)
		right := EvalSqr(n.Right, table, variants)
		out := make([]float64, variants.Len())
		for i := range out {
			switch n.Op {
			case expr.OpAdd, expr.OpXor:
				out[i] = left[i] + right[i]
			case expr.OpSub:
				out[i] = left[i] - right[i]
			case expr.OpMul:
				out[i] = left[i] * right[i]
			case expr.OpDiv:
				out[i] = left[i] / right[i]
			}
		}
		return out
	}
}

func broadcast(v float64, n int) []float64 {
	out := make([]float64, n)
	for i := range out {
		out[i] = v
	}
	return out
}

// groupSum selects rows matching g, groups them by exp_variant_id, and sums
// the named column into the variant-aligned output vector. Rows for a
// variant outside the requested set are ignored.
func groupSum(g *goal.GoalRef, column string, table []data.Row, variants *VariantIndex) []float64 {
	out := make([]float64, variants.Len())
	for _, row := range table {
		if !g.MatchesRow(row.UnitType, row.AggType, row.Goal, row.Dimensions) {
			continue
		}
		idx := variants.IndexOf(row.ExpVariantID)
		if idx < 0 {
			continue
		}
		out[idx] += row.Column(column)
	}
	return out
}
