package fair

import "math"

// DefaultVariationPct is the perturbation size used by sensitivity
// analysis when none is requested.
const DefaultVariationPct = 20.0

// Sensitivity measures how the median ALE responds when one factor is
// perturbed by +/- variationPct percent while everything else is held
// fixed. The baseline and both perturbed runs reuse the calculator's
// base seed, so the deltas reflect the input change rather than sampling
// noise.
//
// Percentage-valued factors stay clamped to [0, 100] after perturbation;
// all others are floored at zero.
func (c *Calculator) Sensitivity(in ScenarioInputs, factor Factor, variationPct float64) (*SensitivityResult, error) {
	acc, ok := factorRegistry[factor]
	if !ok {
		return nil, newValidationError("factor", []string{"unknown factor: " + string(factor)})
	}
	if variationPct <= 0 {
		variationPct = DefaultVariationPct
	}

	baseline, err := c.Calculate(in)
	if err != nil {
		return nil, err
	}

	down := in.Clone()
	acc.set(&down, perturb(acc.get(&down), -variationPct, acc.percent))
	downResult, err := c.Calculate(down)
	if err != nil {
		return nil, err
	}

	up := in.Clone()
	acc.set(&up, perturb(acc.get(&up), variationPct, acc.percent))
	upResult, err := c.Calculate(up)
	if err != nil {
		return nil, err
	}

	result := &SensitivityResult{
		Factor:      factor,
		BaselineALE: baseline.ALE.P50,
		ALEDown:     downResult.ALE.P50,
		ALEUp:       upResult.ALE.P50,
	}

	// A zero baseline leaves relative change undefined; report zero
	// elasticities rather than infinities.
	if baseline.ALE.P50 != 0 {
		result.ElasticityDown = ((downResult.ALE.P50 - baseline.ALE.P50) / baseline.ALE.P50) / (-variationPct / 100.0)
		result.ElasticityUp = ((upResult.ALE.P50 - baseline.ALE.P50) / baseline.ALE.P50) / (variationPct / 100.0)
		result.AverageElasticity = (result.ElasticityDown + result.ElasticityUp) / 2
	}

	return result, nil
}

// perturb applies a relative change to a factor value and keeps it inside
// its valid range.
func perturb(value, variationPct float64, percent bool) float64 {
	v := value * (1 + variationPct/100.0)
	if percent {
		return clamp(v, 0, 100)
	}
	return math.Max(0, v)
}
