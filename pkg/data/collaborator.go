package data

import (
	"context"
	"time"
)

// Query describes what slice of the aggregated-goal-row table a Collaborator
// should return: one experiment's rows, restricted by date range and filters.
// It deliberately carries only the fields a data collaborator needs rather
// than the full experiment definition, so this package has no dependency on
// pkg/experiment.
type Query struct {
	ExpID      string
	UnitType   string
	DateFrom   *time.Time
	DateTo     *time.Time
	DateFor    *time.Time
	Filters    []Filter
	Parameters map[string]interface{}
}

// Collaborator is the external data-access contract: given a
// Query it returns the matching aggregated goal rows, restricted to
// exp_id == Query.ExpID and filtered by date range and Filters (scope
// "exposure" filters rows where goal == "exposure", scope "goal" filters
// every other row). The core treats failures from GetAggGoals as
// apierrors.UpstreamError.
type Collaborator interface {
	GetAggGoals(ctx context.Context, q Query) ([]Row, error)
	Close() error
}
