// Package check implements the data-quality check evaluators: SRM
// (sample-ratio mismatch) and SumRatio, both backed by a
// chi-squared goodness-of-fit test via gonum.org/v1/gonum/stat/distuv.
package check

import (
	"gonum.org/v1/gonum/stat/distuv"
)

// Result is the chi-square outcome of one check evaluation: the p-value, the
// test statistic, and the confidence level the check was configured with.
type Result struct {
	PValue          float64
	TestStat        float64
	ConfidenceLevel float64
}

// SRM runs a chi-square goodness-of-fit test of observed exposure counts
// against a uniform expected distribution across variants.
// Divide-by-zero in expected counts is tolerated and surfaces as NaN/Inf in
// the result rather than an error.
func SRM(exposureCounts []float64, confidenceLevel float64) Result {
	k := float64(len(exposureCounts))
	total := 0.0
	for _, c := range exposureCounts {
		total += c
	}
	expected := total / k

	stat := 0.0
	for _, observed := range exposureCounts {
		d := observed - expected
		stat += d * d / expected
	}

	df := k - 1
	dist := distuv.ChiSquared{K: df}
	p := 1 - dist.CDF(stat)

	return Result{PValue: p, TestStat: stat, ConfidenceLevel: confidenceLevel}
}

// SumRatio computes the ratio of two summed goal counts across all variants
// and runs a chi-square test of [sumDenominator, sumDenominator-sumNominator]
// against a uniform expected distribution.
func SumRatio(sumNominator, sumDenominator, confidenceLevel float64) (sumRatio float64, result Result) {
	sumRatio = sumNominator / sumDenominator

	observed := []float64{sumDenominator, sumDenominator - sumNominator}
	total := observed[0] + observed[1]
	expected := total / 2

	stat := 0.0
	for _, o := range observed {
		d := o - expected
		stat += d * d / expected
	}

	dist := distuv.ChiSquared{K: 1}
	p := 1 - dist.CDF(stat)

	return sumRatio, Result{PValue: p, TestStat: stat, ConfidenceLevel: confidenceLevel}
}

// IsAboveMax reports whether an observed sum_ratio exceeds the check's
// configured maximum. The orchestrator does not call it: it reports
// sum_ratio and max_sum_ratio side by side and leaves the comparison to the
// caller.
func IsAboveMax(sumRatio, maxSumRatio float64) bool {
	return sumRatio > maxSumRatio
}
