package experiment

import (
	"context"
	"math"
	"sort"

	"github.com/avast/epstats/pkg/apierrors"
	"github.com/avast/epstats/pkg/check"
	"github.com/avast/epstats/pkg/data"
	"github.com/avast/epstats/pkg/eval"
	"github.com/avast/epstats/pkg/goal"
	"github.com/avast/epstats/pkg/stats"
)

const targetPower = 0.8

// Orchestrator runs the full evaluation pipeline end to end, joining the
// goal algebra, evaluator, statistical kernel, and check evaluators
// against rows supplied by a data.Collaborator.
type Orchestrator struct {
	Collaborator data.Collaborator
}

// NewOrchestrator builds an Orchestrator over the given collaborator.
func NewOrchestrator(collaborator data.Collaborator) *Orchestrator {
	return &Orchestrator{Collaborator: collaborator}
}

// Evaluate runs the full pipeline for one experiment: collect referenced
// goals, fetch aggregated rows, fill missing cells, evaluate every metric
// and check, and assemble the result tables. The evaluation is a pure
// function of (exp, the rows the collaborator returns).
func (o *Orchestrator) Evaluate(ctx context.Context, exp *Experiment) (*Result, error) {
	if err := exp.ValidateDateRange(); err != nil {
		return nil, err
	}

	exposureRef := goal.New(goal.FuncCount, exp.UnitType, "global", "exposure", nil, nil)
	allRefs := collectGoalRefs(exp, exposureRef)
	goal.UnifyDimensions(allRefs)

	rows, err := o.Collaborator.GetAggGoals(ctx, data.Query{
		ExpID:      exp.ID,
		UnitType:   exp.UnitType,
		DateFrom:   exp.DateFrom,
		DateTo:     exp.DateTo,
		DateFor:    exp.DateFor,
		Filters:    exp.Filters,
		Parameters: exp.QueryParameters,
	})
	if err != nil {
		upstreamErr := apierrors.NewUpstreamError("data collaborator failed: " + err.Error())
		upstreamErr.WithCause(err)
		return nil, upstreamErr
	}

	variants := determineVariants(exp, rows)
	filled := eval.Fill(exp.ID, allRefs, variants, rows)
	variantIndex := eval.NewVariantIndex(variants)

	confidenceLevel := workingConfidenceLevel(exp)

	metricResults := make([]MetricResult, 0, len(exp.Metrics))
	for _, m := range exp.Metrics {
		mr, err := o.evaluateMetric(m, filled, variantIndex, exp.ControlVariant, confidenceLevel)
		if err != nil {
			return nil, err
		}
		metricResults = append(metricResults, mr)
	}

	checkResults := make([]CheckResult, 0, len(exp.Checks))
	var skipped []error
	for _, c := range exp.Checks {
		cr, err := evaluateCheck(c, filled, variantIndex)
		if err != nil {
			checkErr := apierrors.NewCheckError(c.ID, err.Error())
			checkErr.WithCause(err)
			skipped = append(skipped, checkErr)
			continue
		}
		checkResults = append(checkResults, cr)
	}

	exposure := computeExposures(exp.UnitType, filled)

	return &Result{
		ID:            exp.ID,
		Metrics:       metricResults,
		Checks:        checkResults,
		Exposure:      exposure,
		SkippedChecks: skipped,
	}, nil
}

func collectGoalRefs(exp *Experiment, exposureRef *goal.GoalRef) []*goal.GoalRef {
	refs := []*goal.GoalRef{exposureRef}
	for _, m := range exp.Metrics {
		refs = append(refs, m.Nominator.GoalRefs()...)
		refs = append(refs, m.Denominator.GoalRefs()...)
	}
	for _, c := range exp.Checks {
		if c.Nominator != nil {
			refs = append(refs, c.Nominator.GoalRefs()...)
		}
		refs = append(refs, c.Denominator.GoalRefs()...)
	}
	// Unify before deduplicating, so every GoalRef leaf of every expression
	// tree carries the full dimension schema, not only the representative
	// kept for the filler.
	goal.UnifyDimensions(refs)
	return dedupeGoalRefs(refs)
}

// dedupeGoalRefs collapses GoalRefs with the same canonical string to a
// single representative: deduplication across metrics is by canonical
// string equality, not by pointer identity.
func dedupeGoalRefs(refs []*goal.GoalRef) []*goal.GoalRef {
	seen := make(map[string]bool, len(refs))
	out := make([]*goal.GoalRef, 0, len(refs))
	for _, r := range refs {
		key := r.Canonical()
		if seen[key] {
			continue
		}
		seen[key] = true
		out = append(out, r)
	}
	return out
}

// determineVariants resolves the experiment's explicit variant list when
// provided, else the sorted-unique union of the data's exp_variant_id
// values and the control variant.
func determineVariants(exp *Experiment, rows []data.Row) []string {
	if len(exp.Variants) > 0 {
		return exp.Variants
	}
	set := map[string]bool{exp.ControlVariant: true}
	for _, r := range rows {
		set[r.ExpVariantID] = true
	}
	out := make([]string, 0, len(set))
	for v := range set {
		out = append(out, v)
	}
	sort.Strings(out)
	return out
}

// workingConfidenceLevel applies O'Brien-Fleming alpha spending when the
// experiment carries a date range.
func workingConfidenceLevel(exp *Experiment) float64 {
	confidenceLevel := exp.ConfidenceLevel
	if confidenceLevel == 0 {
		confidenceLevel = 0.95
	}
	if exp.DateFrom == nil || exp.DateTo == nil {
		return confidenceLevel
	}
	totalDays := int(exp.DateTo.Sub(*exp.DateFrom).Hours()/24) + 1
	elapsedDays := totalDays
	if exp.DateFor != nil {
		elapsedDays = int(exp.DateFor.Sub(*exp.DateFrom).Hours()/24) + 1
	}
	return stats.ObrienFlemingAlphaSpending(confidenceLevel, totalDays, elapsedDays)
}

func (o *Orchestrator) evaluateMetric(m *Metric, rows []data.Row, variantIndex *eval.VariantIndex, controlVariant string, confidenceLevel float64) (MetricResult, error) {
	triple := eval.Evaluate(m.Nominator, m.Denominator, rows, variantIndex)
	summaries := stats.Summarize(variantIndex.Order(), triple.Count, triple.Value, triple.ValueSqr)

	controlIdx := -1
	for i, s := range summaries {
		if s.VariantID == controlVariant {
			controlIdx = i
			break
		}
	}
	if controlIdx < 0 {
		return MetricResult{}, apierrors.NewEvaluationError(m.ID, "control variant "+controlVariant+" not present among evaluated variants")
	}
	control := summaries[controlIdx]
	alpha := 1 - confidenceLevel
	k := len(summaries)

	treatments := make([]stats.TreatmentResult, 0, k-1)
	treatmentIdx := make([]int, 0, k-1)
	for i, s := range summaries {
		if i == controlIdx {
			continue
		}
		treatments = append(treatments, stats.WelchTTest(control, s, confidenceLevel))
		treatmentIdx = append(treatmentIdx, i)
	}

	if k >= 3 {
		stats.HolmBonferroni(treatments, alpha)
	}

	metricStats := make([]MetricStat, k)
	metricStats[controlIdx] = MetricStat{
		ExpVariantID:    control.VariantID,
		Count:           control.Count,
		Mean:            control.Mean,
		Std:             control.Std,
		SumValue:        triple.Value[controlIdx],
		ConfidenceLevel: confidenceLevel,
		PValue:          1,
		MinimumEffect:   m.MinimumEffect,
		SampleSize:      control.Count,
	}

	for i, idx := range treatmentIdx {
		s := summaries[idx]
		r := treatments[i]
		ms := MetricStat{
			ExpVariantID:       s.VariantID,
			Count:              s.Count,
			Mean:               s.Mean,
			Std:                s.Std,
			SumValue:           triple.Value[idx],
			ConfidenceLevel:    confidenceLevel,
			Diff:               r.Diff,
			TestStat:           r.T,
			PValue:             r.AdjP,
			ConfidenceInterval: r.AdjConfInt,
			StandardError:      r.SE,
			DegreesOfFreedom:   r.DF,
			MinimumEffect:      m.MinimumEffect,
			SampleSize:         s.Count,
			Power:              math.NaN(),
		}
		if m.MinimumEffect != nil {
			n, err := stats.RequiredSampleSize(alpha, targetPower, k, control.Mean, control.Std, s.Std, *m.MinimumEffect)
			if err == nil {
				ms.RequiredSampleSize = n
				ms.Power = stats.AchievedPower(alpha, k, s.Count, n)
			}
		}
		metricStats[idx] = ms
	}

	return MetricResult{
		ID:              m.ID,
		Name:            m.Name,
		Format:          m.Format,
		ValueMultiplier: m.ValueMultiplier,
		Stats:           metricStats,
	}, nil
}

func evaluateCheck(c *Check, rows []data.Row, variantIndex *eval.VariantIndex) (CheckResult, error) {
	switch c.Kind {
	case CheckKindSRM:
		exposures := eval.EvalAgg(c.Denominator, rows, variantIndex)
		r := check.SRM(exposures, c.ConfidenceLevel)
		return CheckResult{
			ID:   c.ID,
			Name: c.Name,
			Stats: []CheckStat{
				{VariableID: "p_value", Value: r.PValue},
				{VariableID: "test_stat", Value: r.TestStat},
				{VariableID: "confidence_level", Value: r.ConfidenceLevel},
			},
		}, nil
	case CheckKindSumRatio:
		nominator := eval.EvalAgg(c.Nominator, rows, variantIndex)
		denominator := eval.EvalAgg(c.Denominator, rows, variantIndex)
		sumRatio, r := check.SumRatio(sumOf(nominator), sumOf(denominator), c.ConfidenceLevel)
		return CheckResult{
			ID:   c.ID,
			Name: c.Name,
			Stats: []CheckStat{
				{VariableID: "sum_ratio", Value: sumRatio},
				{VariableID: "max_sum_ratio", Value: c.MaxRatio},
				{VariableID: "p_value", Value: r.PValue},
				{VariableID: "test_stat", Value: r.TestStat},
				{VariableID: "confidence_level", Value: r.ConfidenceLevel},
			},
		}, nil
	default:
		return CheckResult{}, apierrors.NewEvaluationError(c.ID, "unknown check kind")
	}
}

func sumOf(vec []float64) float64 {
	total := 0.0
	for _, v := range vec {
		total += v
	}
	return total
}

func computeExposures(unitType string, rows []data.Row) ExposureResult {
	byVariant := make(map[string]float64)
	order := make([]string, 0)
	for _, r := range rows {
		if r.Goal != "exposure" || r.AggType != "global" {
			continue
		}
		if _, ok := byVariant[r.ExpVariantID]; !ok {
			order = append(order, r.ExpVariantID)
		}
		byVariant[r.ExpVariantID] += r.Count
	}
	sort.Strings(order)
	out := make([]ExposureStat, len(order))
	for i, v := range order {
		out[i] = ExposureStat{ExpVariantID: v, Count: byVariant[v]}
	}
	return ExposureResult{UnitType: unitType, Stats: out}
}
