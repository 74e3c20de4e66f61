package fair

import (
	"math"
	"sort"

	"github.com/rs/zerolog"

	"github.com/quantrisk/fairsim/pkg/formulas"
)

// DefaultZeroRate is the structural-zero probability assumed for a loss
// form whose P10 is zero when no explicit zero-rate was supplied. This is
// a policy default, not a derived quantity; override it per loss form via
// LossEstimate.ZeroRate or globally via CalculatorConfig.
const DefaultZeroRate = 0.10

// DefaultSimulations is the simulation count used when none is configured.
const DefaultSimulations = 100000

// CalculatorConfig configures a Calculator.
type CalculatorConfig struct {
	// NSimulations is the Monte Carlo sample count per factor.
	NSimulations int
	// Seed is the base seed for all draws; nil means nondeterministic.
	// Each sampling site derives its own seed via DeriveSeed.
	Seed *int64
	// ZeroRate overrides DefaultZeroRate when positive.
	ZeroRate float64
	Log      zerolog.Logger
}

// Calculator runs the FAIR Monte Carlo pipeline for single scenarios:
//
//	LEF = TEF x Susceptibility
//	LM  = Primary + Secondary x SLEF
//	ALE = LEF x LM
//
// A Calculator is stateless between calls; two calls with identical
// inputs and the same base seed produce identical results.
type Calculator struct {
	nSims    int
	seed     *int64
	zeroRate float64
	log      zerolog.Logger
}

// NewCalculator creates a calculator.
func NewCalculator(cfg CalculatorConfig) *Calculator {
	nSims := cfg.NSimulations
	if nSims <= 0 {
		nSims = DefaultSimulations
	}
	zeroRate := cfg.ZeroRate
	if zeroRate <= 0 {
		zeroRate = DefaultZeroRate
	}
	return &Calculator{
		nSims:    nSims,
		seed:     cfg.Seed,
		zeroRate: zeroRate,
		log:      cfg.Log.With().Str("component", "fair_calculator").Logger(),
	}
}

// NSimulations returns the configured simulation count.
func (c *Calculator) NSimulations() int {
	return c.nSims
}

// Calculate runs the full simulation for one scenario.
//
// Stages run strictly in order: validate, sample TEF, sample
// susceptibility, compute LEF, sample the six loss forms, compute LM
// (secondary gated by SLEF), compute ALE, summarize. Validation failures
// surface as *ValidationError before any sampling; later stages only
// clamp numeric degeneracies and do not fail.
func (c *Calculator) Calculate(in ScenarioInputs) (*ScenarioResult, error) {
	if err := c.validateInputs(in); err != nil {
		return nil, err
	}

	tefSamples, err := c.sampleTEF(in)
	if err != nil {
		return nil, err
	}

	suscSamples, err := c.samplePercentage("susceptibility", in.Susceptibility, seedOffsetSusceptibility)
	if err != nil {
		return nil, err
	}

	// LEF = TEF x Susceptibility
	lefSamples := make([]float64, c.nSims)
	for i := range lefSamples {
		lefSamples[i] = tefSamples[i] * (suscSamples[i] / 100.0)
	}

	lossSamples, err := c.sampleLossForms(in)
	if err != nil {
		return nil, err
	}

	lmSamples, err := c.computeLM(lossSamples, in)
	if err != nil {
		return nil, err
	}

	// ALE = LEF x LM
	aleSamples := make([]float64, c.nSims)
	for i := range aleSamples {
		aleSamples[i] = lefSamples[i] * lmSamples[i]
	}

	// Scale frequency-derived outputs by the time horizon.
	if in.TimeHorizonYears != 1.0 && in.TimeHorizonYears > 0 {
		for i := range aleSamples {
			aleSamples[i] *= in.TimeHorizonYears
			lefSamples[i] *= in.TimeHorizonYears
		}
	}

	result := &ScenarioResult{
		ALE:        summarizeALE(aleSamples),
		LEF:        summarize(lefSamples),
		LM:         summarize(lmSamples),
		ALESamples: aleSamples,
		LossForms: LossFormBreakdown{
			Productivity:         formulas.Percentile(lossSamples.productivity, 50),
			Response:             formulas.Percentile(lossSamples.response, 50),
			Replacement:          formulas.Percentile(lossSamples.replacement, 50),
			Fines:                formulas.Percentile(lossSamples.fines, 50),
			CompetitiveAdvantage: formulas.Percentile(lossSamples.competitiveAdv, 50),
			Reputation:           formulas.Percentile(lossSamples.reputation, 50),
		},
		NSimulations:     c.nSims,
		TimeHorizonYears: in.TimeHorizonYears,
		Currency:         in.Currency,
	}

	c.log.Debug().
		Float64("ale_p50", result.ALE.P50).
		Float64("lef_mean", result.LEF.Mean).
		Int("n_simulations", c.nSims).
		Msg("Scenario calculation complete")

	return result, nil
}

// validateInputs checks each factor group in order and fails fast on the
// first invalid one, reporting every violated rule in that group.
func (c *Calculator) validateInputs(in ScenarioInputs) error {
	if problems := ValidatePercentiles(in.TEF.P10, in.TEF.P50, in.TEF.P90, nonNegativeBounds()); len(problems) > 0 {
		return newValidationError("tef", problems)
	}

	s := in.Susceptibility
	if problems := ValidatePercentiles(s.P10, s.P50, s.P90, probabilityBounds()); len(problems) > 0 {
		return newValidationError("susceptibility", problems)
	}

	// SLEF only matters when some secondary loss form has a positive
	// median.
	if in.HasSecondaryLosses() {
		if problems := ValidatePercentiles(in.SLEF.P10, in.SLEF.P50, in.SLEF.P90, probabilityBounds()); len(problems) > 0 {
			return newValidationError("slef", problems)
		}
	}

	return nil
}

// sampleTEF samples the threat event frequency distribution. Three paths:
// decomposition into contact frequency x probability of action,
// zero-inflated Poisson, or a direct Poisson/lognormal fit.
func (c *Calculator) sampleTEF(in ScenarioInputs) ([]float64, error) {
	tefSeed := DeriveSeed(c.seed, seedOffsetTEF)

	if in.TEF.Decompose {
		if in.TEF.ContactFrequency == nil || in.TEF.ProbOfAction == nil {
			return nil, newValidationError("tef", []string{"decomposed TEF requires contact frequency and probability of action"})
		}
		cf := *in.TEF.ContactFrequency

		var cfSamples []float64
		if in.TEF.Model == TEFLogNormal {
			params, err := FitLogNormal(cf.P10, cf.P50, cf.P90)
			if err != nil {
				return nil, fitError("contact_frequency", err)
			}
			cfSamples = SampleLogNormal(params, c.nSims, tefSeed)
		} else {
			lambda, err := FitPoisson(cf.P10, cf.P50, cf.P90)
			if err != nil {
				return nil, fitError("contact_frequency", err)
			}
			cfSamples = SamplePoisson(lambda, c.nSims, tefSeed)
		}

		poaSamples, err := c.samplePercentageSeeded("prob_action", *in.TEF.ProbOfAction, DeriveSeed(c.seed, seedOffsetProbOfAction))
		if err != nil {
			return nil, err
		}

		tefSamples := make([]float64, c.nSims)
		for i := range tefSamples {
			tefSamples[i] = cfSamples[i] * (poaSamples[i] / 100.0)
		}
		return tefSamples, nil
	}

	if in.TEF.ZeroInflation {
		pZero, lambda, err := FitZeroInflatedPoisson(in.TEF.P10, in.TEF.P50, in.TEF.P90, in.TEF.PZero)
		if err != nil {
			return nil, fitError("tef", err)
		}
		return SampleZeroInflatedPoisson(pZero, lambda, c.nSims, tefSeed), nil
	}

	if in.TEF.Model == TEFLogNormal {
		// Frequencies can legitimately be fractional but not zero; floor
		// before taking logs.
		params, err := FitLogNormal(
			math.Max(0.01, in.TEF.P10),
			math.Max(0.01, in.TEF.P50),
			math.Max(0.01, in.TEF.P90),
		)
		if err != nil {
			return nil, fitError("tef", err)
		}
		return SampleLogNormal(params, c.nSims, tefSeed), nil
	}

	lambda, err := FitPoisson(in.TEF.P10, in.TEF.P50, in.TEF.P90)
	if err != nil {
		return nil, fitError("tef", err)
	}
	return SamplePoisson(lambda, c.nSims, tefSeed), nil
}

// samplePercentage samples a percentage-valued factor (Beta-PERT over
// [0, 100]) at the given seed offset.
func (c *Calculator) samplePercentage(group string, e Estimate, offset int64) ([]float64, error) {
	return c.samplePercentageSeeded(group, e, DeriveSeed(c.seed, offset))
}

func (c *Calculator) samplePercentageSeeded(group string, e Estimate, seed *int64) ([]float64, error) {
	// A zero-spread triple cannot anchor a Beta fit; treat it as the
	// degenerate point distribution at the median.
	if e.P10 == e.P90 {
		return sampleConstant(e.P50, c.nSims), nil
	}

	params, err := FitBetaPERT(e.P10, e.P50, e.P90, 0, 100)
	if err != nil {
		return nil, fitError(group, err)
	}
	return SampleBeta(params, 0, 100, c.nSims, seed), nil
}

// lossFormSamples holds the per-form sample arrays for one scenario.
type lossFormSamples struct {
	productivity   []float64
	response       []float64
	replacement    []float64
	fines          []float64
	competitiveAdv []float64
	reputation     []float64
}

func (c *Calculator) sampleLossForms(in ScenarioInputs) (lossFormSamples, error) {
	var (
		ls  lossFormSamples
		err error
	)

	sample := func(name string, est LossEstimate, offset int64) []float64 {
		if err != nil {
			return nil
		}
		var samples []float64
		samples, err = c.sampleLossForm(name, est, offset)
		return samples
	}

	ls.productivity = sample("productivity", in.Productivity, seedOffsetProductivity)
	ls.response = sample("response", in.Response, seedOffsetResponse)
	ls.replacement = sample("replacement", in.Replacement, seedOffsetReplacement)
	ls.fines = sample("fines", in.Fines, seedOffsetFines)
	ls.competitiveAdv = sample("competitive_advantage", in.CompetitiveAdvantage, seedOffsetCompetitiveAdv)
	ls.reputation = sample("reputation", in.Reputation, seedOffsetReputation)

	return ls, err
}

// sampleLossForm samples one loss form. Policy:
//
//   - P50 = 0: the form never contributes; all-zero array, no fitting.
//   - P10 = 0: zero-inflated lognormal. The overall 50th/90th percentiles
//     are remapped into quantiles of the positive component via
//     q* = (q - pZero) / (1 - pZero), then a lognormal is fitted from the
//     two (value, q*) pairs.
//   - P10 > 0: standard three-percentile lognormal fit.
func (c *Calculator) sampleLossForm(group string, est LossEstimate, offset int64) ([]float64, error) {
	if est.P50 == 0 {
		return make([]float64, c.nSims), nil
	}

	seed := DeriveSeed(c.seed, offset)

	if est.P10 == 0 {
		zeroRate := c.zeroRate
		if est.ZeroRate != nil {
			zeroRate = *est.ZeroRate
		}

		denom := math.Max(1e-6, 1.0-zeroRate)
		q50 := (0.50 - zeroRate) / denom
		q90 := (0.90 - zeroRate) / denom

		// Keep the remapped quantiles inside a valid open interval.
		q50 = clamp(q50, 1e-6, 1-1e-6)
		q90 = clamp(q90, q50+1e-6, 1-1e-6)

		x50 := math.Max(1.0, est.P50)
		x90 := math.Max(1.0, est.P90)

		params, err := FitLogNormalFromQuantiles(x50, q50, x90, q90)
		if err != nil {
			return nil, fitError(group, err)
		}
		return SampleZeroInflatedLogNormal(params, zeroRate, c.nSims, seed), nil
	}

	params, err := FitLogNormal(
		math.Max(logFloor, est.P10),
		math.Max(logFloor, est.P50),
		math.Max(logFloor, est.P90),
	)
	if err != nil {
		return nil, fitError(group, err)
	}
	return SampleLogNormal(params, c.nSims, seed), nil
}

// computeLM combines loss form samples into per-event loss magnitude:
// LM = Primary + Secondary x SLEF. When SLEF's median is zero the
// secondary terms are fully gated out regardless of their own size.
func (c *Calculator) computeLM(ls lossFormSamples, in ScenarioInputs) ([]float64, error) {
	var slefSamples []float64
	if in.SLEF.P50 > 0 {
		samples, err := c.samplePercentage("slef", in.SLEF, seedOffsetSLEF)
		if err != nil {
			return nil, err
		}
		slefSamples = samples
	}

	lm := make([]float64, c.nSims)
	for i := range lm {
		primary := ls.productivity[i] + ls.response[i] + ls.replacement[i]
		secondary := ls.fines[i] + ls.competitiveAdv[i] + ls.reputation[i]

		slef := 0.0
		if slefSamples != nil {
			slef = slefSamples[i] / 100.0
		}
		lm[i] = primary + secondary*slef
	}
	return lm, nil
}

func summarize(samples []float64) DistributionStats {
	sorted := make([]float64, len(samples))
	copy(sorted, samples)
	sort.Float64s(sorted)

	return DistributionStats{
		Mean: formulas.Mean(samples),
		P10:  formulas.PercentileSorted(sorted, 10),
		P50:  formulas.PercentileSorted(sorted, 50),
		P90:  formulas.PercentileSorted(sorted, 90),
	}
}

func summarizeALE(samples []float64) ALEStats {
	sorted := make([]float64, len(samples))
	copy(sorted, samples)
	sort.Float64s(sorted)

	return ALEStats{
		DistributionStats: DistributionStats{
			Mean: formulas.Mean(samples),
			P10:  formulas.PercentileSorted(sorted, 10),
			P50:  formulas.PercentileSorted(sorted, 50),
			P90:  formulas.PercentileSorted(sorted, 90),
		},
		P95: formulas.PercentileSorted(sorted, 95),
		P99: formulas.PercentileSorted(sorted, 99),
	}
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
