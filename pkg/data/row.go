// Package data defines the aggregated-goal-row table schema the statistical
// core consumes, the Collaborator contract a deployment implements to supply
// it, and a CSV-fixture-backed Collaborator for tests and local runs.
package data

import "fmt"

// Row is one AggregatedGoalRow: a goal counter
// for one experiment variant, optionally sliced by dimension columns.
type Row struct {
	ExpID        string
	ExpVariantID string
	UnitType     string
	AggType      string
	Goal         string
	Dimensions   map[string]string

	Count       float64
	SumSqrCount float64
	SumValue    float64
	SumSqrValue float64
	CountUnique float64
}

// Column returns the value of the named aggregated counter column. name must
// be one of the five numeric columns goal.GoalRef.Column() can produce.
func (r Row) Column(name string) float64 {
	switch name {
	case "count":
		return r.Count
	case "sum_sqr_count":
		return r.SumSqrCount
	case "sum_value":
		return r.SumValue
	case "sum_sqr_value":
		return r.SumSqrValue
	case "count_unique":
		return r.CountUnique
	default:
		panic(fmt.Sprintf("data: unknown aggregated column %q", name))
	}
}

// AddColumn adds delta to the named aggregated counter column, in place.
func (r *Row) AddColumn(name string, delta float64) {
	switch name {
	case "count":
		r.Count += delta
	case "sum_sqr_count":
		r.SumSqrCount += delta
	case "sum_value":
		r.SumValue += delta
	case "sum_sqr_value":
		r.SumSqrValue += delta
	case "count_unique":
		r.CountUnique += delta
	default:
		panic(fmt.Sprintf("data: unknown aggregated column %q", name))
	}
}

// Dim returns the value of a dimension column, or "" if the row doesn't carry it.
func (r Row) Dim(name string) string {
	if r.Dimensions == nil {
		return ""
	}
	return r.Dimensions[name]
}

// FilterScope selects which half of a Filter applies to: exposure rows or
// (everything else) goal rows.
type FilterScope string

// Supported filter scopes.
const (
	ScopeExposure FilterScope = "exposure"
	ScopeGoal     FilterScope = "goal"
)

// Filter restricts the rows a Collaborator returns to those whose dimension
// column matches one of Values, applied only to rows in the given Scope.
type Filter struct {
	Dimension string
	Values    []string
	Scope     FilterScope
}
