package fair

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/stat/distuv"
)

// sigmaFloor keeps fitted lognormal spreads strictly positive.
const sigmaFloor = 1e-6

// logFloor keeps values strictly positive before taking logs.
const logFloor = 1e-6

// LogNormalParams parameterizes a lognormal distribution by the mean and
// standard deviation of the underlying normal. The location shift is
// fixed at zero for all loss and frequency distributions.
type LogNormalParams struct {
	Mu    float64
	Sigma float64
}

// BetaParams parameterizes a Beta distribution on [0, 1].
type BetaParams struct {
	Alpha float64
	Beta  float64
}

// FitLogNormal fits a lognormal distribution from three percentiles.
//
// The median anchors mu (P50 = exp(mu)) and sigma is solved from the
// log-spread between the 10th and 90th percentiles using the standard
// normal quantiles at those probabilities.
func FitLogNormal(p10, p50, p90 float64) (LogNormalParams, error) {
	if p10 <= 0 || p50 <= 0 || p90 <= 0 {
		return LogNormalParams{}, fmt.Errorf("lognormal requires all percentiles > 0, got (%g, %g, %g)", p10, p50, p90)
	}
	if !(p10 < p50 && p50 < p90) {
		return LogNormalParams{}, fmt.Errorf("lognormal requires p10 < p50 < p90, got (%g, %g, %g)", p10, p50, p90)
	}

	z10 := distuv.UnitNormal.Quantile(0.10)
	z90 := distuv.UnitNormal.Quantile(0.90)

	return LogNormalParams{
		Mu:    math.Log(p50),
		Sigma: (math.Log(p90) - math.Log(p10)) / (z90 - z10),
	}, nil
}

// FitLogNormalFromQuantiles fits a lognormal from two arbitrary (value,
// probability) points. Used when an overall percentile pair has been
// remapped into conditional quantiles of a zero-inflated distribution's
// positive component.
//
// Values are floored at a small positive constant to avoid log(0), and
// sigma is clamped to a strictly positive floor.
func FitLogNormalFromQuantiles(x1, q1, x2, q2 float64) (LogNormalParams, error) {
	if q1 <= 0 || q1 >= 1 || q2 <= 0 || q2 >= 1 {
		return LogNormalParams{}, fmt.Errorf("quantile probabilities must lie in (0, 1), got %g and %g", q1, q2)
	}

	z1 := distuv.UnitNormal.Quantile(q1)
	z2 := distuv.UnitNormal.Quantile(q2)
	if z1 == z2 {
		return LogNormalParams{}, fmt.Errorf("quantile probabilities must differ, got %g and %g", q1, q2)
	}

	x1 = math.Max(logFloor, x1)
	x2 = math.Max(logFloor, x2)

	sigma := (math.Log(x2) - math.Log(x1)) / (z2 - z1)
	sigma = math.Max(sigmaFloor, sigma)

	return LogNormalParams{
		Mu:    math.Log(x1) - z1*sigma,
		Sigma: sigma,
	}, nil
}

// FitBetaPERT fits a Beta distribution from three percentiles using PERT
// assumptions: the scaled median is treated as the PERT mode, the PERT
// mean and variance follow from the standard formulas, and the Beta
// parameters come out of method-of-moments.
//
// Degenerate moment solutions (non-positive variance, mean outside
// (0, 1)) fall back to a near-uniform Beta(2, 2); alpha and beta are
// floored at 0.5 for numerical validity.
func FitBetaPERT(p10, p50, p90, lower, upper float64) (BetaParams, error) {
	if !(p10 < p50 && p50 < p90) {
		return BetaParams{}, fmt.Errorf("beta-PERT requires p10 < p50 < p90, got (%g, %g, %g)", p10, p50, p90)
	}
	if !(lower <= p10 && p90 <= upper) {
		return BetaParams{}, fmt.Errorf("percentiles must be within [%g, %g]", lower, upper)
	}

	// Scale the mode into [0, 1].
	mode := (p50 - lower) / (upper - lower)

	mean := (0 + 4*mode + 1) / 6
	variance := mean * (1 - mean) / 7

	if variance <= 0 || mean <= 0 || mean >= 1 {
		return BetaParams{Alpha: 2, Beta: 2}, nil
	}

	k := mean*(1-mean)/variance - 1
	return BetaParams{
		Alpha: math.Max(0.5, mean*k),
		Beta:  math.Max(0.5, (1-mean)*k),
	}, nil
}

// FitPoisson fits a Poisson rate from three percentiles by minimizing a
// weighted squared error between the target percentiles and those implied
// by a trial lambda. The median term is weighted 4x the tails. The search
// is a bounded scalar minimization over [0.1, max(100, 2*p90)] and the
// result is floored at 0.1.
func FitPoisson(p10, p50, p90 float64) (float64, error) {
	if p10 < 0 || p50 < 0 || p90 < 0 {
		return 0, fmt.Errorf("poisson requires non-negative percentiles, got (%g, %g, %g)", p10, p50, p90)
	}
	if !(p10 <= p50 && p50 <= p90) {
		return 0, fmt.Errorf("poisson requires p10 <= p50 <= p90, got (%g, %g, %g)", p10, p50, p90)
	}

	objective := func(lambda float64) float64 {
		if lambda <= 0 {
			return math.MaxFloat64
		}
		pred10 := poissonQuantile(lambda, 0.10)
		pred50 := poissonQuantile(lambda, 0.50)
		pred90 := poissonQuantile(lambda, 0.90)

		d10 := pred10 - p10
		d50 := pred50 - p50
		d90 := pred90 - p90
		return d10*d10 + 4*d50*d50 + d90*d90
	}

	upper := math.Max(100, 2*p90)
	lambda := minimizeScalar(objective, 0.1, upper, 1e-5)

	return math.Max(0.1, lambda), nil
}

// FitZeroInflatedPoisson derives the Poisson rate of a zero-inflated
// model given a user-specified structural-zero probability. When the
// median itself is zero the rate is approximated from p90; otherwise the
// median approximates the rate directly.
func FitZeroInflatedPoisson(p10, p50, p90, pZero float64) (float64, float64, error) {
	_ = p10 // the ZIP approximation only uses the median and p90

	if pZero < 0 || pZero >= 1 {
		return 0, 0, fmt.Errorf("p_zero must be in [0, 1), got %g", pZero)
	}

	if p50 == 0 {
		if p90 == 0 {
			// Degenerate structural-zero-dominant case.
			return pZero, 0.1, nil
		}
		return pZero, math.Max(0.1, p90/2), nil
	}

	return pZero, math.Max(0.1, p50), nil
}

// poissonQuantile returns the smallest integer k with CDF(k) >= q for a
// Poisson with the given rate.
func poissonQuantile(lambda, q float64) float64 {
	dist := distuv.Poisson{Lambda: lambda}

	// The scan cap sits far enough into the right tail that the CDF has
	// long since passed any q of interest.
	kMax := int(lambda + 20*math.Sqrt(lambda) + 100)
	for k := 0; k <= kMax; k++ {
		if dist.CDF(float64(k)) >= q {
			return float64(k)
		}
	}
	return float64(kMax)
}

// invPhi is the inverse golden ratio, used by minimizeScalar.
var invPhi = (math.Sqrt(5) - 1) / 2

// minimizeScalar runs a golden-section search for the minimum of f on
// [a, b]. The objectives here are cheap and low-curvature, so the plain
// bracketing scheme is sufficient.
func minimizeScalar(f func(float64) float64, a, b, tol float64) float64 {
	c := b - invPhi*(b-a)
	d := a + invPhi*(b-a)
	fc := f(c)
	fd := f(d)

	for b-a > tol {
		if fc < fd {
			b, d, fd = d, c, fc
			c = b - invPhi*(b-a)
			fc = f(c)
		} else {
			a, c, fc = c, d, fd
			d = a + invPhi*(b-a)
			fd = f(d)
		}
	}
	return (a + b) / 2
}
