package server

import (
	"time"

	"github.com/avast/epstats/pkg/apierrors"
	"github.com/avast/epstats/pkg/data"
	"github.com/avast/epstats/pkg/experiment"
)

const dateLayout = "2006-01-02"

// buildExperiment turns an already shape-validated EvaluateRequest into a
// *experiment.Experiment, running the semantic checks
// a JSON Schema can't express: date parsing and ordering, metric id
// uniqueness (delegated to experiment.New), expression parseability
// (delegated to experiment.NewMetric/NewSRMCheck/NewSumRatioCheck), and
// SumRatio's non-empty-nominator rule.
func buildExperiment(req *EvaluateRequest) (*experiment.Experiment, error) {
	metrics := make([]*experiment.Metric, 0, len(req.Metrics))
	for _, m := range req.Metrics {
		metric, err := experiment.NewMetric(m.ID, m.Name, m.Nominator, m.Denominator, m.MinimumEffect)
		if err != nil {
			return nil, err
		}
		if m.Format != "" {
			metric.Format = m.Format
		}
		if m.ValueMultiplier != nil {
			metric.ValueMultiplier = *m.ValueMultiplier
		}
		metrics = append(metrics, metric)
	}

	checks := make([]*experiment.Check, 0, len(req.Checks))
	for _, c := range req.Checks {
		kind := c.Type
		if kind == "" {
			kind = string(experiment.CheckKindSRM)
		}
		var (
			check *experiment.Check
			err   error
		)
		switch kind {
		case string(experiment.CheckKindSRM):
			check, err = experiment.NewSRMCheck(c.ID, c.Name, c.Denominator, c.ConfidenceLevel)
		case string(experiment.CheckKindSumRatio):
			check, err = experiment.NewSumRatioCheck(c.ID, c.Name, c.Nominator, c.Denominator, c.MaxRatio, c.ConfidenceLevel)
		default:
			err = apierrors.NewValidationError("unknown_check_type", "check type must be SRM or SumRatio").WithField("checks")
		}
		if err != nil {
			return nil, err
		}
		checks = append(checks, check)
	}

	exp, err := experiment.New(req.ID, req.ControlVariant, req.UnitType, metrics, checks)
	if err != nil {
		return nil, err
	}
	exp.Variants = req.Variants
	if req.ConfidenceLevel != 0 {
		exp.ConfidenceLevel = req.ConfidenceLevel
	}
	exp.QueryParameters = req.QueryParameters

	if req.DateFrom != "" {
		t, err := time.Parse(dateLayout, req.DateFrom)
		if err != nil {
			return nil, apierrors.NewValidationError("bad_date_from", err.Error()).WithField("date_from")
		}
		exp.DateFrom = &t
	}
	if req.DateTo != "" {
		t, err := time.Parse(dateLayout, req.DateTo)
		if err != nil {
			return nil, apierrors.NewValidationError("bad_date_to", err.Error()).WithField("date_to")
		}
		exp.DateTo = &t
	}
	if req.DateFor != "" {
		t, err := time.Parse(dateLayout, req.DateFor)
		if err != nil {
			return nil, apierrors.NewValidationError("bad_date_for", err.Error()).WithField("date_for")
		}
		exp.DateFor = &t
	}
	if err := exp.ValidateDateRange(); err != nil {
		return nil, err
	}

	for _, f := range req.Filters {
		scope := data.FilterScope(f.Scope)
		if scope != data.ScopeExposure && scope != data.ScopeGoal {
			return nil, apierrors.NewValidationError("bad_filter_scope", "filter scope must be exposure or goal").WithField("filters")
		}
		exp.Filters = append(exp.Filters, data.Filter{Dimension: f.Dimension, Values: f.Values, Scope: scope})
	}

	return exp, nil
}
