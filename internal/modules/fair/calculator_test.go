package fair

import (
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// ransomwareInputs is a representative single-scenario input bundle used
// across the calculator tests.
func ransomwareInputs() ScenarioInputs {
	return ScenarioInputs{
		TEF: TEFInput{
			Estimate: Estimate{P10: 2, P50: 5, P90: 12},
			Model:    TEFPoisson,
		},
		Susceptibility: Estimate{P10: 10, P50: 30, P90: 60},
		Productivity:   LossEstimate{Estimate: Estimate{P10: 50000, P50: 200000, P90: 800000}},
		Response:       LossEstimate{Estimate: Estimate{P10: 25000, P50: 100000, P90: 400000}},
		Replacement:    LossEstimate{Estimate: Estimate{P10: 10000, P50: 50000, P90: 200000}},
		Fines:          LossEstimate{Estimate: Estimate{P10: 0, P50: 100000, P90: 1000000}},
		Reputation:     LossEstimate{Estimate: Estimate{P10: 0, P50: 250000, P90: 2000000}},
		SLEF:           Estimate{P10: 20, P50: 50, P90: 80},
		TimeHorizonYears: 1,
		Currency:         "USD",
	}
}

func testCalculator(n int, seed *int64) *Calculator {
	return NewCalculator(CalculatorConfig{
		NSimulations: n,
		Seed:         seed,
		Log:          zerolog.Nop(),
	})
}

func TestCalculateEndToEnd(t *testing.T) {
	calc := testCalculator(100000, SeedOf(42))

	result, err := calc.Calculate(ransomwareInputs())
	require.NoError(t, err)

	assert.Equal(t, 100000, result.NSimulations)
	assert.Equal(t, "USD", result.Currency)
	require.Len(t, result.ALESamples, 100000)

	// The ALE distribution must be positive and percentile-ordered.
	assert.Greater(t, result.ALE.P10, 0.0)
	assert.LessOrEqual(t, result.ALE.P10, result.ALE.P50)
	assert.LessOrEqual(t, result.ALE.P50, result.ALE.P90)
	assert.LessOrEqual(t, result.ALE.P90, result.ALE.P95)
	assert.LessOrEqual(t, result.ALE.P95, result.ALE.P99)

	// LEF must sit below TEF: susceptibility only ever thins events out.
	assert.Less(t, result.LEF.Mean, 12.0)
	assert.Greater(t, result.LEF.Mean, 0.0)

	// Every loss form with a positive median shows up in the breakdown.
	assert.Greater(t, result.LossForms.Productivity, 0.0)
	assert.Greater(t, result.LossForms.Response, 0.0)
	assert.Greater(t, result.LossForms.Replacement, 0.0)
	assert.Zero(t, result.LossForms.CompetitiveAdvantage)
}

func TestCalculateSeedReproducibility(t *testing.T) {
	a, err := testCalculator(20000, SeedOf(42)).Calculate(ransomwareInputs())
	require.NoError(t, err)

	b, err := testCalculator(20000, SeedOf(42)).Calculate(ransomwareInputs())
	require.NoError(t, err)

	// Identical seed, identical inputs: bit-identical output.
	assert.Equal(t, a.ALESamples, b.ALESamples)
	assert.Equal(t, a.ALE, b.ALE)
	assert.Equal(t, a.LEF, b.LEF)

	c, err := testCalculator(20000, SeedOf(43)).Calculate(ransomwareInputs())
	require.NoError(t, err)
	assert.NotEqual(t, a.ALESamples, c.ALESamples)
}

func TestCalculateZeroSusceptibilityYieldsZeroLoss(t *testing.T) {
	in := ransomwareInputs()
	in.Susceptibility = Estimate{P10: 0, P50: 0, P90: 0}

	result, err := testCalculator(50000, SeedOf(42)).Calculate(in)
	require.NoError(t, err)

	assert.Less(t, result.LEF.Mean, 1e-6)
	assert.Less(t, result.ALE.Mean, 1e-3)
}

func TestCalculateZeroSLEFGatesSecondaryLosses(t *testing.T) {
	gated := ransomwareInputs()
	gated.SLEF = Estimate{}

	stripped := ransomwareInputs()
	stripped.SLEF = Estimate{}
	stripped.Fines = LossEstimate{}
	stripped.Reputation = LossEstimate{}

	a, err := testCalculator(20000, SeedOf(42)).Calculate(gated)
	require.NoError(t, err)

	b, err := testCalculator(20000, SeedOf(42)).Calculate(stripped)
	require.NoError(t, err)

	// Secondary forms are fully gated by a zero SLEF, so the two runs
	// are the same distribution draw for draw.
	assert.InDelta(t, b.ALE.P50, a.ALE.P50, 1e-9)
	assert.InDelta(t, b.ALE.Mean, a.ALE.Mean, 1e-9)
}

func TestCalculateTimeHorizonScaling(t *testing.T) {
	oneYear, err := testCalculator(20000, SeedOf(42)).Calculate(ransomwareInputs())
	require.NoError(t, err)

	in := ransomwareInputs()
	in.TimeHorizonYears = 3
	threeYear, err := testCalculator(20000, SeedOf(42)).Calculate(in)
	require.NoError(t, err)

	// Frequency-derived outputs scale linearly with the horizon.
	assert.InEpsilon(t, 3*oneYear.ALE.Mean, threeYear.ALE.Mean, 1e-9)
	assert.InEpsilon(t, 3*oneYear.LEF.Mean, threeYear.LEF.Mean, 1e-9)
	// Loss magnitude is per-event and does not scale.
	assert.InEpsilon(t, oneYear.LM.Mean, threeYear.LM.Mean, 1e-9)
}

func TestCalculateLogNormalTEF(t *testing.T) {
	in := ransomwareInputs()
	in.TEF.Model = TEFLogNormal

	result, err := testCalculator(50000, SeedOf(42)).Calculate(in)
	require.NoError(t, err)

	// TEF median 5 thinned by ~30% susceptibility puts the LEF median in
	// the low single digits.
	assert.Greater(t, result.LEF.P50, 1.0)
	assert.Less(t, result.LEF.P50, 2.5)
	assert.Greater(t, result.ALE.P50, 0.0)
}

func TestCalculateZeroInflatedTEF(t *testing.T) {
	in := ransomwareInputs()
	in.TEF = TEFInput{
		Estimate:      Estimate{P10: 0, P50: 1, P90: 4},
		Model:         TEFPoisson,
		ZeroInflation: true,
		PZero:         0.5,
	}

	result, err := testCalculator(50000, SeedOf(42)).Calculate(in)
	require.NoError(t, err)

	// Half the years have no threat events at all, so the LEF 10th
	// percentile collapses to zero.
	assert.Zero(t, result.LEF.P10)
	assert.Greater(t, result.ALE.Mean, 0.0)
}

func TestCalculateDecomposedTEF(t *testing.T) {
	in := ransomwareInputs()
	in.TEF = TEFInput{
		Decompose:        true,
		Model:            TEFPoisson,
		ContactFrequency: &Estimate{P10: 10, P50: 25, P90: 60},
		ProbOfAction:     &Estimate{P10: 10, P50: 20, P90: 40},
	}

	result, err := testCalculator(50000, SeedOf(42)).Calculate(in)
	require.NoError(t, err)

	// TEF ~ 25 * 0.2 = 5 events/year before susceptibility.
	assert.Greater(t, result.LEF.Mean, 0.0)
	assert.Less(t, result.LEF.Mean, 10.0)
}

func TestCalculateDecomposedTEFRequiresComponents(t *testing.T) {
	in := ransomwareInputs()
	in.TEF = TEFInput{Decompose: true, Model: TEFPoisson}

	_, err := testCalculator(1000, SeedOf(42)).Calculate(in)
	require.Error(t, err)

	var verr *ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Contains(t, verr.Groups, "tef")
}

func TestCalculateValidationFailures(t *testing.T) {
	t.Run("unordered TEF", func(t *testing.T) {
		in := ransomwareInputs()
		in.TEF.Estimate = Estimate{P10: 12, P50: 5, P90: 2}

		_, err := testCalculator(1000, SeedOf(42)).Calculate(in)
		var verr *ValidationError
		require.ErrorAs(t, err, &verr)
		assert.Contains(t, verr.Groups, "tef")
	})

	t.Run("susceptibility above 100", func(t *testing.T) {
		in := ransomwareInputs()
		in.Susceptibility = Estimate{P10: 10, P50: 50, P90: 150}

		_, err := testCalculator(1000, SeedOf(42)).Calculate(in)
		var verr *ValidationError
		require.ErrorAs(t, err, &verr)
		assert.Contains(t, verr.Groups, "susceptibility")
	})

	t.Run("SLEF checked only with secondary losses", func(t *testing.T) {
		in := ransomwareInputs()
		in.SLEF = Estimate{P10: 80, P50: 50, P90: 20}

		_, err := testCalculator(1000, SeedOf(42)).Calculate(in)
		var verr *ValidationError
		require.ErrorAs(t, err, &verr)
		assert.Contains(t, verr.Groups, "slef")

		// Without secondary loss forms the same bad SLEF is ignored.
		in.Fines = LossEstimate{}
		in.Reputation = LossEstimate{}
		_, err = testCalculator(1000, SeedOf(42)).Calculate(in)
		assert.NoError(t, err)
	})
}

func TestCalculateZeroInflatedLossForm(t *testing.T) {
	// Fines with P10 = 0 route through the zero-inflated lognormal; the
	// samples should include genuine zeros but keep a positive median.
	in := ransomwareInputs()

	calc := testCalculator(50000, SeedOf(42))
	samples, err := calc.sampleLossForm("fines", in.Fines, seedOffsetFines)
	require.NoError(t, err)

	zeros := 0
	for _, v := range samples {
		require.GreaterOrEqual(t, v, 0.0)
		if v == 0 {
			zeros++
		}
	}
	assert.InDelta(t, DefaultZeroRate, float64(zeros)/float64(len(samples)), 0.02)
}

func TestCalculateLossFormZeroRateOverride(t *testing.T) {
	zr := 0.4
	est := LossEstimate{
		Estimate: Estimate{P10: 0, P50: 100000, P90: 1000000},
		ZeroRate: &zr,
	}

	calc := testCalculator(50000, SeedOf(42))
	samples, err := calc.sampleLossForm("fines", est, seedOffsetFines)
	require.NoError(t, err)

	zeros := 0
	for _, v := range samples {
		if v == 0 {
			zeros++
		}
	}
	assert.InDelta(t, 0.4, float64(zeros)/float64(len(samples)), 0.02)
}

func TestNewCalculatorDefaults(t *testing.T) {
	calc := NewCalculator(CalculatorConfig{Log: zerolog.Nop()})
	assert.Equal(t, DefaultSimulations, calc.NSimulations())
	assert.Equal(t, DefaultZeroRate, calc.zeroRate)
}
