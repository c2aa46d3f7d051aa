// Package stats implements the statistical kernel: Welch's
// t-test on relative difference of means, Welch–Satterthwaite degrees of
// freedom, Holm–Bonferroni multi-comparison correction, O'Brien–Fleming
// alpha spending, and required-sample-size / achieved-power formulas. All
// distribution quantile/CDF work goes through gonum.org/v1/gonum/stat/distuv
// rather than a hand-rolled implementation.
package stats

import (
	"math"
	"sort"

	"gonum.org/v1/gonum/stat/distuv"
)

// VariantSummary is the (count, mean, std) triple the kernel needs for one
// variant of one metric, derived from the evaluator's (count, value,
// valueSqr) vectors: mean = value/count,
// std = sqrt((valueSqr - value^2/count)/(count-1)).
type VariantSummary struct {
	VariantID string
	Count     float64
	Mean      float64
	Std       float64
}

// Summarize turns a metric's per-variant (count, value, valueSqr) vectors
// into VariantSummary values, aligned by index to the supplied variant ids.
func Summarize(variantIDs []string, count, value, valueSqr []float64) []VariantSummary {
	out := make([]VariantSummary, len(variantIDs))
	for i, id := range variantIDs {
		n := count[i]
		mean := value[i] / n
		std := math.Sqrt((valueSqr[i] - value[i]*value[i]/n) / (n - 1))
		out[i] = VariantSummary{VariantID: id, Count: n, Mean: mean, Std: std}
	}
	return out
}

// TreatmentResult is the inference outcome for one non-control variant.
type TreatmentResult struct {
	VariantID  string
	Diff       float64 // relative difference from control
	T          float64
	DF         float64
	SE         float64 // relative standard error used to build ConfInt
	P          float64
	ConfInt    float64
	AdjP       float64 // Holm-Bonferroni adjusted p-value; equals P when k<3
	AdjConfInt float64 // widened per AdjP/P ratio; equals ConfInt when k<3
}

// ControlResult is the trivial self-comparison result emitted for the
// control variant: diff=0, t=0, p=1, conf_int=0 by construction.
type ControlResult struct {
	VariantID string
}

// WelchTTest runs Welch's t-test on the relative difference of means between
// a treatment and the control.
func WelchTTest(control, treatment VariantSummary, confidenceLevel float64) TreatmentResult {
	mean0, std0, n0 := control.Mean, control.Std, control.Count
	meanI, stdI, nI := treatment.Mean, treatment.Std, treatment.Count

	relDiff := (meanI - mean0) / math.Abs(mean0)
	relSE := math.Sqrt((meanI*meanI*std0*std0)/(mean0*mean0*n0)+stdI*stdI/nI) / mean0
	t := relDiff / relSE

	dfRaw := math.Pow(std0*std0/n0+stdI*stdI/nI, 2) /
		(math.Pow(std0, 4)/(n0*n0*(n0-1)) + math.Pow(stdI, 4)/(nI*nI*(nI-1)))
	df := math.Trunc(roundTo(dfRaw, 5))

	dist := distuv.StudentsT{Mu: 0, Sigma: 1, Nu: df}
	p := 2 * (1 - dist.CDF(math.Abs(t)))

	alphaHalf := confidenceLevel + (1-confidenceLevel)/2
	confInt := relSE * dist.Quantile(alphaHalf)

	return TreatmentResult{
		VariantID:  treatment.VariantID,
		Diff:       relDiff,
		T:          t,
		DF:         df,
		SE:         relSE,
		P:          p,
		ConfInt:    confInt,
		AdjP:       p,
		AdjConfInt: confInt,
	}
}

// roundTo rounds v to n decimal digits, guarding the degrees-of-freedom
// truncation against floating-point roundoff near an integer boundary.
func roundTo(v float64, n int) float64 {
	scale := math.Pow(10, float64(n))
	return math.Round(v*scale) / scale
}

// HolmBonferroni applies the step-down Holm–Bonferroni correction across the
// k-1 treatment results of one metric, in place. It is a
// no-op when there are fewer than 2 treatments (k < 3 total variants).
func HolmBonferroni(results []TreatmentResult, alpha float64) {
	k := len(results) + 1
	if k < 3 {
		return
	}

	type indexed struct {
		idx int
		p   float64
	}
	sorted := make([]indexed, len(results))
	for i, r := range results {
		sorted[i] = indexed{idx: i, p: r.P}
	}
	sort.Slice(sorted, func(a, b int) bool { return sorted[a].p < sorted[b].p })

	m := len(results)
	adj := make([]float64, m)
	running := 0.0
	for rank, s := range sorted {
		candidate := float64(m-rank) * s.p
		if candidate > 1 {
			candidate = 1
		}
		if candidate < running {
			candidate = running // monotonic enforcement
		}
		running = candidate
		adj[s.idx] = candidate
	}

	for i := range results {
		r := &results[i]
		ratio := 1.0
		if adj[i] != 0 {
			ratio = r.P / adj[i]
		}
		alphaAdj := ratio * alpha
		d := distuv.StudentsT{Mu: 0, Sigma: 1, Nu: r.DF}
		r.AdjP = adj[i]
		r.AdjConfInt = r.SE * d.Quantile(1-alphaAdj/2)
	}
}

// ObrienFlemingAlphaSpending computes the working confidence level for a
// sequential look: with alpha = 1 - confidenceLevel and
// t_frac = clamp(elapsedDays, 1, totalDays)/totalDays,
// alpha_spent = 2 - 2*Phi(Phi^-1(1 - alpha/2) / sqrt(t_frac)); the function
// returns 1 - alpha_spent, the working confidence level to evaluate against.
// At t_frac == 1 (the final look) this returns confidenceLevel unchanged.
func ObrienFlemingAlphaSpending(confidenceLevel float64, totalDays, elapsedDays int) float64 {
	alpha := 1 - confidenceLevel
	t := clamp(float64(elapsedDays), 1, float64(totalDays)) / float64(totalDays)
	norm := distuv.Normal{Mu: 0, Sigma: 1}
	z := norm.Quantile(1 - alpha/2)
	alphaSpent := 2 - 2*norm.CDF(z/math.Sqrt(t))
	return 1 - alphaSpent
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

// RequiredSampleSize computes the per-variant sample size required to detect
// minimumEffect at the given power, using Bonferroni-adjusted alpha over
// k-1 treatments. stdTreatment defaults to stdControl when
// unknown (pass the same value).
func RequiredSampleSize(alpha float64, power float64, k int, meanControl, stdControl, stdTreatment, minimumEffect float64) (float64, error) {
	if minimumEffect <= 0 {
		return 0, errMinimumEffect
	}
	if k < 2 {
		return 0, errKTooSmall
	}
	alphaStar := alpha / float64(k-1)
	norm := distuv.Normal{Mu: 0, Sigma: 1}
	zAlpha := norm.Quantile(1 - alphaStar/2)
	zPower := norm.Quantile(power)
	n := math.Pow(zAlpha+zPower, 2) * (stdControl*stdControl + stdTreatment*stdTreatment) /
		math.Pow(meanControl*minimumEffect, 2)
	return n, nil
}

// RequiredSampleSizeBernoulli is the Bernoulli convenience form: proportions
// p (control) and p*(1+minimumEffect) (treatment) imply variances p(1-p) and
// p'(1-p').
func RequiredSampleSizeBernoulli(alpha, power float64, k int, p, minimumEffect float64) (float64, error) {
	if p < 0 || p > 1 {
		return 0, errProbabilityRange
	}
	pPrime := p * (1 + minimumEffect)
	return RequiredSampleSize(alpha, power, k, p, math.Sqrt(p*(1-p)), math.Sqrt(pPrime*(1-pPrime)), minimumEffect)
}

// AchievedPower inverts the sample-size formula to report the power actually
// achieved by N observed units against N_req required ones.
// Returns NaN when k < 2.
func AchievedPower(alpha float64, k int, n, nRequired float64) float64 {
	if k < 2 {
		return math.NaN()
	}
	alphaStar := alpha / float64(k-1)
	norm := distuv.Normal{Mu: 0, Sigma: 1}
	zAlpha := norm.Quantile(1 - alphaStar/2)
	zBeta := math.Sqrt(n/nRequired)*(zAlpha+norm.Quantile(0.8)) - zAlpha
	return norm.CDF(zBeta)
}
