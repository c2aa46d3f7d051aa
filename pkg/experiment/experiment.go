// Package experiment implements the experiment data model and the
// orchestrator that joins the goal algebra, evaluator, statistical kernel,
// and check evaluators into the three result tables of an evaluation.
package experiment

import (
	"time"

	"github.com/avast/epstats/pkg/apierrors"
	"github.com/avast/epstats/pkg/data"
	"github.com/avast/epstats/pkg/expr"
)

// Metric is a ratio of two goal expressions plus its identity and
// presentation hints. Format and ValueMultiplier do not
// affect evaluation; they pass through to the response for the caller's UI.
type Metric struct {
	ID              string
	Name            string
	Nominator       *expr.Node
	Denominator     *expr.Node
	MinimumEffect   *float64
	Format          string
	ValueMultiplier float64
}

// NewMetric parses nominator and denominator into expression trees and
// constructs a Metric, or returns the *apierrors.ParseError from whichever
// expression failed to parse.
func NewMetric(id, name, nominator, denominator string, minimumEffect *float64) (*Metric, error) {
	nom, err := expr.Parse(nominator)
	if err != nil {
		return nil, err
	}
	denom, err := expr.Parse(denominator)
	if err != nil {
		return nil, err
	}
	return &Metric{
		ID:              id,
		Name:            name,
		Nominator:       nom,
		Denominator:     denom,
		MinimumEffect:   minimumEffect,
		ValueMultiplier: 1,
	}, nil
}

// CheckKind selects which of the two supported data-quality checks a Check
// runs.
type CheckKind string

// Supported check kinds.
const (
	CheckKindSRM      CheckKind = "SRM"
	CheckKindSumRatio CheckKind = "SumRatio"
)

// Check is a data-quality test: SRM compares a denominator expression's
// per-variant counts against a uniform distribution; SumRatio compares the
// ratio of two summed expressions against MaxRatio. Checks run independently
// per variant set and carry no multi-comparison correction.
type Check struct {
	ID              string
	Name            string
	Kind            CheckKind
	Nominator       *expr.Node // nil for SRM
	Denominator     *expr.Node
	MaxRatio        float64
	ConfidenceLevel float64
}

// NewSRMCheck parses denominator and constructs an SRM check.
// confidenceLevel defaults to 0.999 when zero.
func NewSRMCheck(id, name, denominator string, confidenceLevel float64) (*Check, error) {
	denom, err := expr.Parse(denominator)
	if err != nil {
		return nil, err
	}
	if confidenceLevel == 0 {
		confidenceLevel = 0.999
	}
	return &Check{ID: id, Name: name, Kind: CheckKindSRM, Denominator: denom, ConfidenceLevel: confidenceLevel}, nil
}

// NewSumRatioCheck parses nominator and denominator and constructs a
// SumRatio check. maxRatio defaults to 0.01 and confidenceLevel to 0.999
// when zero.
func NewSumRatioCheck(id, name, nominator, denominator string, maxRatio, confidenceLevel float64) (*Check, error) {
	if nominator == "" {
		return nil, apierrors.NewValidationError("sum_ratio_requires_nominator", "SumRatio check requires a non-empty nominator").WithField("nominator")
	}
	nom, err := expr.Parse(nominator)
	if err != nil {
		return nil, err
	}
	denom, err := expr.Parse(denominator)
	if err != nil {
		return nil, err
	}
	if maxRatio == 0 {
		maxRatio = 0.01
	}
	if confidenceLevel == 0 {
		confidenceLevel = 0.999
	}
	return &Check{
		ID: id, Name: name, Kind: CheckKindSumRatio,
		Nominator: nom, Denominator: denom,
		MaxRatio: maxRatio, ConfidenceLevel: confidenceLevel,
	}, nil
}

// Experiment is the immutable, request-scoped definition of one evaluation.
type Experiment struct {
	ID              string
	ControlVariant  string
	UnitType        string
	Variants        []string
	DateFrom        *time.Time
	DateTo          *time.Time
	DateFor         *time.Time
	ConfidenceLevel float64
	Metrics         []*Metric
	Checks          []*Check
	Filters         []data.Filter
	QueryParameters map[string]interface{}
}

// New validates and constructs an Experiment. It requires non-empty id,
// control variant and unit type, and rejects duplicate metric ids outright.
// Dates are set on the returned value afterwards; the date-range invariant is
// checked by ValidateDateRange.
func New(id, controlVariant, unitType string, metrics []*Metric, checks []*Check) (*Experiment, error) {
	if id == "" {
		return nil, apierrors.NewValidationError("missing_id", "experiment id must not be empty").WithField("id")
	}
	if controlVariant == "" {
		return nil, apierrors.NewValidationError("missing_control_variant", "control_variant must not be empty").WithField("control_variant")
	}
	if unitType == "" {
		return nil, apierrors.NewValidationError("missing_unit_type", "unit_type must not be empty").WithField("unit_type")
	}

	seen := make(map[string]bool, len(metrics))
	for _, m := range metrics {
		if seen[m.ID] {
			return nil, apierrors.NewValidationError("duplicate_metric_id", "metric id "+m.ID+" is not unique").WithField("metrics")
		}
		seen[m.ID] = true
	}

	return &Experiment{
		ID:              id,
		ControlVariant:  controlVariant,
		UnitType:        unitType,
		Metrics:         metrics,
		Checks:          checks,
		ConfidenceLevel: 0.95,
	}, nil
}

// ValidateDateRange enforces DateFrom <= DateTo whenever both are set, and
// additionally that if DateFor is set, both DateFrom and DateTo must be set
// and DateFrom <= DateFor <= DateTo.
func (e *Experiment) ValidateDateRange() error {
	if e.DateFrom != nil && e.DateTo != nil && e.DateFrom.After(*e.DateTo) {
		return apierrors.NewValidationError("date_from_after_date_to", "date_from must not be after date_to").WithField("date_from")
	}
	if e.DateFor == nil {
		return nil
	}
	if e.DateFrom == nil || e.DateTo == nil {
		return apierrors.NewValidationError("date_for_requires_bounds", "date_for requires both date_from and date_to to be set").WithField("date_for")
	}
	if e.DateFor.Before(*e.DateFrom) || e.DateFor.After(*e.DateTo) {
		return apierrors.NewValidationError("date_for_out_of_range", "date_for must lie within [date_from, date_to]").WithField("date_for")
	}
	return nil
}
