package stats

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/stat/distuv"
)

func TestWelchTTestBasicSeparation(t *testing.T) {
	control := VariantSummary{VariantID: "a", Count: 1000, Mean: 1.0, Std: 0.5}
	treatment := VariantSummary{VariantID: "b", Count: 1000, Mean: 1.05, Std: 0.5}

	r := WelchTTest(control, treatment, 0.95)
	assert.InDelta(t, 0.05, r.Diff, 1e-9)
	assert.Greater(t, r.P, 0.0)
	assert.Less(t, r.P, 0.05)
	assert.Greater(t, r.ConfInt, 0.0)
	assert.GreaterOrEqual(t, r.DF, 1990.0)
	assert.LessOrEqual(t, r.DF, 2000.0)
}

func TestWelchTTestControlAgainstItself(t *testing.T) {
	self := VariantSummary{VariantID: "a", Count: 1000, Mean: 1.0, Std: 0.5}
	r := WelchTTest(self, self, 0.95)
	assert.InDelta(t, 0, r.Diff, 1e-12)
	assert.InDelta(t, 0, r.T, 1e-9)
	assert.InDelta(t, 1, r.P, 1e-9)
	// WelchTTest does not special-case identical inputs: the interval is still
	// relSE * t_{0.975, df=1998} = sqrt(0.0005) * 1.9612. The orchestrator
	// writes conf_int=0 for the control row itself.
	assert.InDelta(t, 0.04385, r.ConfInt, 1e-4)
}

func TestEndToEndCTRStatistics(t *testing.T) {
	// exposure counts 21/26/30, clicks 5/7/9 -> CTR means 0.23810/0.26923/0.30000
	a := VariantSummary{VariantID: "a", Count: 21, Mean: 5.0 / 21.0, Std: 0.1}
	b := VariantSummary{VariantID: "b", Count: 26, Mean: 7.0 / 26.0, Std: 0.1}
	c := VariantSummary{VariantID: "c", Count: 30, Mean: 9.0 / 30.0, Std: 0.1}

	assert.InDelta(t, 0.23810, a.Mean, 1e-4)
	assert.InDelta(t, 0.26923, b.Mean, 1e-4)
	assert.InDelta(t, 0.30000, c.Mean, 1e-4)

	rb := WelchTTest(a, b, 0.95)
	rc := WelchTTest(a, c, 0.95)
	assert.InDelta(t, 0.13077, rb.Diff, 1e-4)
	assert.InDelta(t, 0.26000, rc.Diff, 1e-4)
	for _, p := range []float64{rb.P, rc.P} {
		assert.Greater(t, p, 0.0)
		assert.LessOrEqual(t, p, 1.0)
	}
}

func TestHolmBonferroniNoOpBelowThreeVariants(t *testing.T) {
	results := []TreatmentResult{{VariantID: "b", P: 0.01, ConfInt: 1, AdjP: 0.01, AdjConfInt: 1}}
	before := results[0]
	HolmBonferroni(results, 0.05)
	assert.Equal(t, before, results[0])
}

func TestHolmBonferroniAdjustsAndEnforcesMonotonicity(t *testing.T) {
	results := []TreatmentResult{
		{VariantID: "b", P: 0.01, SE: 0.01, DF: 100},
		{VariantID: "c", P: 0.02, SE: 0.01, DF: 100},
		{VariantID: "d", P: 0.2, SE: 0.01, DF: 100},
	}
	HolmBonferroni(results, 0.05)

	// k=4 variants, m=3 treatments: multipliers are (m-rank) = 3,2,1 in sorted p order.
	assert.InDelta(t, 0.03, results[0].AdjP, 1e-9) // 3*0.01
	assert.InDelta(t, 0.04, results[1].AdjP, 1e-9) // 2*0.02
	assert.InDelta(t, 0.2, results[2].AdjP, 1e-9)  // 1*0.2
	for i := 1; i < len(results); i++ {
		assert.GreaterOrEqual(t, results[i].AdjP, results[i-1].AdjP)
	}
}

func TestHolmBonferroniWidensConfidenceIntervals(t *testing.T) {
	unadjusted := []TreatmentResult{
		{VariantID: "b", P: 0.01, SE: 0.01, DF: 100},
		{VariantID: "c", P: 0.02, SE: 0.01, DF: 100},
		{VariantID: "d", P: 0.2, SE: 0.01, DF: 100},
	}
	for i := range unadjusted {
		r := &unadjusted[i]
		d := distuv.StudentsT{Mu: 0, Sigma: 1, Nu: r.DF}
		r.ConfInt = r.SE * d.Quantile(1-0.05/2)
	}

	adjusted := make([]TreatmentResult, len(unadjusted))
	copy(adjusted, unadjusted)
	HolmBonferroni(adjusted, 0.05)

	// b and c are adjusted upward (3x and 2x), so their intervals widen; d has
	// multiplier 1 and no monotonic bump, so its interval stays as it was.
	assert.Greater(t, adjusted[0].AdjConfInt, unadjusted[0].ConfInt,
		"Holm-Bonferroni-adjusted confidence interval must widen, not shrink, the unadjusted interval")
	assert.Greater(t, adjusted[1].AdjConfInt, unadjusted[1].ConfInt,
		"Holm-Bonferroni-adjusted confidence interval must widen, not shrink, the unadjusted interval")
	assert.InDelta(t, unadjusted[2].ConfInt, adjusted[2].AdjConfInt, 1e-12)
}

func TestObrienFlemingAlphaSpendingMatchesFixtures(t *testing.T) {
	assert.InDelta(t, 0.95, ObrienFlemingAlphaSpending(0.95, 14, 14), 1e-9)
	assert.InDelta(t, 1.00, ObrienFlemingAlphaSpending(0.95, 14, 1), 1e-6)
	assert.InDelta(t, 0.95, ObrienFlemingAlphaSpending(0.95, 28, 28), 1e-9)
	assert.InDelta(t, 0.9998, ObrienFlemingAlphaSpending(0.95, 28, 8), 1e-4)
}

func TestRequiredSampleSizeEqualVariance(t *testing.T) {
	n, err := RequiredSampleSize(0.05, 0.8, 2, 0.2, 1.2, 1.2, 0.10)
	require.NoError(t, err)
	assert.InDelta(t, 56512, n, 200)
}

func TestRequiredSampleSizeBernoulli(t *testing.T) {
	n2, err := RequiredSampleSizeBernoulli(0.05, 0.8, 2, 0.4, 0.05)
	require.NoError(t, err)
	assert.InDelta(t, 9490, n2, 100)

	n3, err := RequiredSampleSizeBernoulli(0.05, 0.8, 3, 0.4, 0.05)
	require.NoError(t, err)
	assert.InDelta(t, 11455, n3, 150)
}

func TestRequiredSampleSizeValidatesInputs(t *testing.T) {
	_, err := RequiredSampleSize(0.05, 0.8, 2, 0.2, 1.2, 1.2, -0.1)
	assert.Error(t, err)
	_, err = RequiredSampleSize(0.05, 0.8, 1, 0.2, 1.2, 1.2, 0.1)
	assert.Error(t, err)
	_, err = RequiredSampleSizeBernoulli(0.05, 0.8, 2, 1.5, 0.1)
	assert.Error(t, err)
}

func TestAchievedPowerReturnsNaNBelowTwoVariants(t *testing.T) {
	assert.True(t, math.IsNaN(AchievedPower(0.05, 1, 1000, 2000)))
}

func TestAchievedPowerAtRequiredSampleSizeIsEightyPercent(t *testing.T) {
	nReq, err := RequiredSampleSize(0.05, 0.8, 2, 0.2, 1.2, 1.2, 0.10)
	require.NoError(t, err)
	p := AchievedPower(0.05, 2, nReq, nReq)
	assert.InDelta(t, 0.8, p, 1e-6)
}
