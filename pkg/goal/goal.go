// Package goal implements the data model for event-counter references used
// by the goal algebra: unit types, aggregation types, goals, dimension
// predicates, and the GoalRef value type plus its canonical string form.
package goal

import (
	"fmt"
	"sort"
	"strings"
)

// Func is the outer function wrapping a GoalRef in an expression, e.g.
// count(...), value(...), unique(...). It selects which aggregated columns
// the reference reads but, per the canonical string form, does not affect
// GoalRef identity.
type Func string

// Supported outer functions.
const (
	FuncCount  Func = "count"
	FuncValue  Func = "value"
	FuncUnique Func = "unique"
)

// Op is a dimension-predicate comparison operator.
type Op string

// Supported predicate operators.
const (
	OpEq     Op = "="
	OpNeq    Op = "!="
	OpLt     Op = "<"
	OpLte    Op = "<="
	OpGt     Op = ">"
	OpGte    Op = ">="
	OpPrefix Op = "=^"
)

// ValidOp reports whether op is one of the operators the grammar allows.
func ValidOp(op Op) bool {
	switch op {
	case OpEq, OpNeq, OpLt, OpLte, OpGt, OpGte, OpPrefix:
		return true
	default:
		return false
	}
}

// ValidFunc reports whether f is one of the outer functions the grammar allows.
func ValidFunc(f Func) bool {
	switch f {
	case FuncCount, FuncValue, FuncUnique:
		return true
	default:
		return false
	}
}

// ValidAggType reports whether the aggregation type is one of the closed set
// of aggregation scopes this package understands.
func ValidAggType(aggType string) bool {
	return aggType == "unit" || aggType == "global"
}

// Predicate is a single dimension comparison: dimension <op> literal.
type Predicate struct {
	Op      Op
	Literal string
}

// Matches reports whether value satisfies the predicate.
func (p Predicate) Matches(value string) bool {
	switch p.Op {
	case OpEq:
		return value == p.Literal
	case OpNeq:
		return value != p.Literal
	case OpLt:
		return value < p.Literal
	case OpLte:
		return value <= p.Literal
	case OpGt:
		return value > p.Literal
	case OpGte:
		return value >= p.Literal
	case OpPrefix:
		return strings.HasPrefix(value, p.Literal)
	default:
		return false
	}
}

// GoalRef is a reference to an event-counter slice: a goal scoped by unit
// type and aggregation type, with optional dimension predicates. Two
// GoalRefs are equal iff their canonical string form is equal -- the outer
// Func does not participate in identity, only in which columns Column()
// selects.
type GoalRef struct {
	Func         Func
	UnitType     string
	AggType      string
	Goal         string
	Dimensions   map[string]Predicate
	dimensionSeq []string // insertion order, used only to echo caller intent; canonical form sorts regardless
}

// New builds a GoalRef. predicates may be nil for a non-dimensional reference.
func New(fn Func, unitType, aggType, goalName string, predicates map[string]Predicate, order []string) *GoalRef {
	dims := make(map[string]Predicate, len(predicates))
	for k, v := range predicates {
		dims[k] = v
	}
	seq := make([]string, len(order))
	copy(seq, order)
	return &GoalRef{
		Func:         fn,
		UnitType:     unitType,
		AggType:      aggType,
		Goal:         goalName,
		Dimensions:   dims,
		dimensionSeq: seq,
	}
}

// Column returns the (value, squared-value) aggregated column names this
// reference reads, selected by the outer function:
// count -> (count, sum_sqr_count); value -> (sum_value, sum_sqr_value);
// unique -> (count_unique, count_unique).
func (g *GoalRef) Column() (column, columnSqr string) {
	switch g.Func {
	case FuncValue:
		return "sum_value", "sum_sqr_value"
	case FuncUnique:
		return "count_unique", "count_unique"
	default: // FuncCount and unset default to count semantics
		return "count", "sum_sqr_count"
	}
}

// IsDimensional reports whether at least one predicate carries a non-empty literal.
func (g *GoalRef) IsDimensional() bool {
	for _, p := range g.Dimensions {
		if p.Literal != "" {
			return true
		}
	}
	return false
}

// sortedDimensionNames returns the dimension names in a deterministic order
// so that canonical string form does not depend on parse or insertion order.
func (g *GoalRef) sortedDimensionNames() []string {
	names := make([]string, 0, len(g.Dimensions))
	for name := range g.Dimensions {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Canonical returns the canonical string form: "{unit_type}.{agg_type}.{goal}",
// plus, if the reference is dimensional, a bracketed comma-separated list of
// "dim<op>literal" pairs in sorted dimension order.
func (g *GoalRef) Canonical() string {
	base := fmt.Sprintf("%s.%s.%s", g.UnitType, g.AggType, g.Goal)
	if !g.IsDimensional() {
		return base
	}
	names := g.sortedDimensionNames()
	parts := make([]string, 0, len(names))
	for _, name := range names {
		p := g.Dimensions[name]
		parts = append(parts, fmt.Sprintf("%s%s%s", name, p.Op, p.Literal))
	}
	return fmt.Sprintf("%s[%s]", base, strings.Join(parts, ","))
}

// String implements fmt.Stringer using the canonical form.
func (g *GoalRef) String() string {
	return g.Canonical()
}

// Equal reports whether two GoalRefs have the same canonical string form.
func (g *GoalRef) Equal(other *GoalRef) bool {
	if g == nil || other == nil {
		return g == other
	}
	return g.Canonical() == other.Canonical()
}

// MatchesRow reports whether a table row with the given unit type, agg type,
// goal name, and dimension-column values satisfies this reference: the
// unit/agg/goal triple matches exactly, and every dimension predicate this
// reference carries matches the corresponding column value.
func (g *GoalRef) MatchesRow(unitType, aggType, goalName string, dimValues map[string]string) bool {
	if g.UnitType != unitType || g.AggType != aggType || g.Goal != goalName {
		return false
	}
	for dim, pred := range g.Dimensions {
		if !pred.Matches(dimValues[dim]) {
			return false
		}
	}
	return true
}

// WithDimension returns a shallow copy of g with an added or overwritten
// dimension predicate. Used by UnifyDimensions to fill in missing dimensions.
func (g *GoalRef) WithDimension(name string, p Predicate) *GoalRef {
	cp := *g
	cp.Dimensions = make(map[string]Predicate, len(g.Dimensions)+1)
	for k, v := range g.Dimensions {
		cp.Dimensions[k] = v
	}
	cp.Dimensions[name] = p
	return &cp
}

// UnifyDimensions extends every GoalRef in refs so that its Dimensions map
// contains an entry for every dimension referenced by any GoalRef in the
// set; dimensions a reference doesn't otherwise mention get predicate
// (=, "") meaning "this column must be empty in the input table" -- this is
// how non-dimensional rows stay separated from dimensional ones once all
// goal tables share one flat dimension schema. refs is mutated in place.
func UnifyDimensions(refs []*GoalRef) {
	all := make(map[string]struct{})
	for _, r := range refs {
		for dim := range r.Dimensions {
			all[dim] = struct{}{}
		}
	}
	for _, r := range refs {
		for dim := range all {
			if _, ok := r.Dimensions[dim]; !ok {
				r.Dimensions[dim] = Predicate{Op: OpEq, Literal: ""}
			}
		}
	}
}

// AllDimensionNames returns the sorted union of dimension names referenced
// across refs, useful for building the full set of dimension columns a
// synthesized row needs.
func AllDimensionNames(refs []*GoalRef) []string {
	all := make(map[string]struct{})
	for _, r := range refs {
		for dim := range r.Dimensions {
			all[dim] = struct{}{}
		}
	}
	names := make([]string, 0, len(all))
	for dim := range all {
		names = append(names, dim)
	}
	sort.Strings(names)
	return names
}
