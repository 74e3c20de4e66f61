package fair

import (
	"math"

	"gonum.org/v1/gonum/stat/distuv"
)

// lognormalZeroRateCap bounds the structural-zero probability for
// zero-inflated lognormal sampling, avoiding degenerate mostly-zero
// outputs.
const lognormalZeroRateCap = 0.49

// SampleLogNormal draws n samples from a lognormal distribution. A nil
// seed makes the draw nondeterministic.
func SampleLogNormal(p LogNormalParams, n int, seed *int64) []float64 {
	dist := distuv.LogNormal{Mu: p.Mu, Sigma: p.Sigma, Src: newSource(seed)}

	samples := make([]float64, n)
	for i := range samples {
		samples[i] = dist.Rand()
	}
	return samples
}

// SampleZeroInflatedLogNormal draws n samples from a mixture that is zero
// with probability zeroRate and lognormal otherwise.
//
// The Bernoulli mask is drawn first and the base distribution is drawn
// for all n entries before masking, so the number of draws from the
// source is independent of the mask and determinism is preserved.
func SampleZeroInflatedLogNormal(p LogNormalParams, zeroRate float64, n int, seed *int64) []float64 {
	zeroRate = math.Min(math.Max(zeroRate, 0), lognormalZeroRateCap)

	src := newSource(seed)
	bernoulli := distuv.Bernoulli{P: zeroRate, Src: src}

	isZero := make([]bool, n)
	for i := range isZero {
		isZero[i] = bernoulli.Rand() == 1
	}

	dist := distuv.LogNormal{Mu: p.Mu, Sigma: p.Sigma, Src: src}
	samples := make([]float64, n)
	for i := range samples {
		samples[i] = dist.Rand()
	}
	for i, zero := range isZero {
		if zero {
			samples[i] = 0
		}
	}
	return samples
}

// SampleBeta draws n samples from a Beta distribution and rescales them
// from [0, 1] to [lower, upper].
func SampleBeta(p BetaParams, lower, upper float64, n int, seed *int64) []float64 {
	dist := distuv.Beta{Alpha: p.Alpha, Beta: p.Beta, Src: newSource(seed)}

	samples := make([]float64, n)
	for i := range samples {
		samples[i] = lower + dist.Rand()*(upper-lower)
	}
	return samples
}

// SamplePoisson draws n samples from a Poisson distribution.
func SamplePoisson(lambda float64, n int, seed *int64) []float64 {
	dist := distuv.Poisson{Lambda: lambda, Src: newSource(seed)}

	samples := make([]float64, n)
	for i := range samples {
		samples[i] = dist.Rand()
	}
	return samples
}

// SampleZeroInflatedPoisson draws n samples from a mixture that is zero
// with probability pZero and Poisson otherwise. As with the lognormal
// variant, the mask and the full base array are both drawn so the draw
// count stays fixed.
func SampleZeroInflatedPoisson(pZero, lambda float64, n int, seed *int64) []float64 {
	src := newSource(seed)
	bernoulli := distuv.Bernoulli{P: pZero, Src: src}

	isZero := make([]bool, n)
	for i := range isZero {
		isZero[i] = bernoulli.Rand() == 1
	}

	dist := distuv.Poisson{Lambda: lambda, Src: src}
	samples := make([]float64, n)
	for i := range samples {
		samples[i] = dist.Rand()
	}
	for i, zero := range isZero {
		if zero {
			samples[i] = 0
		}
	}
	return samples
}

// sampleConstant returns n copies of a fixed value. Used when a
// percentile triple has zero spread and fitting a distribution would be
// degenerate.
func sampleConstant(value float64, n int) []float64 {
	samples := make([]float64, n)
	if value != 0 {
		for i := range samples {
			samples[i] = value
		}
	}
	return samples
}
