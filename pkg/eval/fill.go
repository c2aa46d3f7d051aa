package eval

import (
	"github.com/avast/epstats/pkg/data"
	"github.com/avast/epstats/pkg/goal"
)

// Fill implements the missing-cell filler: a GoalRef with
// no matching rows for a given variant must still contribute a zero row, so
// that evaluating e.g. count(T.unit.checkout)/count(T.global.exposure) on a
// variant with zero checkouts divides zero by a real exposure count rather
// than silently dropping the variant from the result.
//
// Fill synthesizes one zero row per (variant, GoalRef) pair, concatenates it
// with the real rows already present for expID, then group-sums by the full
// key (unit_type, agg_type, goal, and every dimension column referenced by
// refs) so the synthesized zero rows merge into existing rows rather than
// duplicating them.
func Fill(expID string, refs []*goal.GoalRef, variants []string, rows []data.Row) []data.Row {
	dims := goal.AllDimensionNames(refs)

	type key struct {
		variant  string
		unitType string
		aggType  string
		goalName string
		dimKey   string
	}
	groups := make(map[key]*data.Row)
	order := make([]key, 0, len(rows))

	add := func(row data.Row) {
		k := key{
			variant:  row.ExpVariantID,
			unitType: row.UnitType,
			aggType:  row.AggType,
			goalName: row.Goal,
			dimKey:   dimKeyOf(dims, row.Dimensions),
		}
		if existing, ok := groups[k]; ok {
			existing.Count += row.Count
			existing.SumSqrCount += row.SumSqrCount
			existing.SumValue += row.SumValue
			existing.SumSqrValue += row.SumSqrValue
			existing.CountUnique += row.CountUnique
			return
		}
		cp := row
		cp.Dimensions = make(map[string]string, len(dims))
		for _, d := range dims {
			cp.Dimensions[d] = row.Dim(d)
		}
		groups[k] = &cp
		order = append(order, k)
	}

	for _, row := range rows {
		if row.ExpID == expID {
			add(row)
		}
	}
	for _, v := range variants {
		for _, g := range refs {
			zero := data.Row{
				ExpID:        expID,
				ExpVariantID: v,
				UnitType:     g.UnitType,
				AggType:      g.AggType,
				Goal:         g.Goal,
				Dimensions:   literalsOf(g),
			}
			add(zero)
		}
	}

	out := make([]data.Row, 0, len(order))
	for _, k := range order {
		out = append(out, *groups[k])
	}
	return out
}

func dimKeyOf(dims []string, values map[string]string) string {
	key := make([]byte, 0, 32)
	for _, d := range dims {
		key = append(key, []byte(d+"="+values[d]+"|")...)
	}
	return string(key)
}

// literalsOf returns the dimension-column values implied by a GoalRef's
// equality predicates, used when synthesizing a zero row: a predicate like
// product="shoes" pins the synthesized row's product column to "shoes" so it
// merges with real rows for that slice rather than a different one.
func literalsOf(g *goal.GoalRef) map[string]string {
	out := make(map[string]string, len(g.Dimensions))
	for name, p := range g.Dimensions {
		if p.Op == goal.OpEq {
			out[name] = p.Literal
		}
	}
	return out
}
