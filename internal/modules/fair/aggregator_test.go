package fair

import (
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testPortfolio() map[string]ScenarioInputs {
	ransomware := ransomwareInputs()

	phishing := ransomwareInputs()
	phishing.TEF.Estimate = Estimate{P10: 5, P50: 15, P90: 40}
	phishing.Susceptibility = Estimate{P10: 5, P50: 15, P90: 35}
	phishing.Productivity = LossEstimate{Estimate: Estimate{P10: 5000, P50: 20000, P90: 100000}}

	outage := ransomwareInputs()
	outage.TEF.Estimate = Estimate{P10: 0, P50: 1, P90: 3}
	outage.Fines = LossEstimate{}
	outage.Reputation = LossEstimate{}

	return map[string]ScenarioInputs{
		"ransomware": ransomware,
		"phishing":   phishing,
		"outage":     outage,
	}
}

func testAggregator(n int, seed *int64) *Aggregator {
	return NewAggregator(testCalculator(n, seed), zerolog.Nop())
}

func TestAggregateIndependenceIsElementwiseSum(t *testing.T) {
	agg := testAggregator(20000, SeedOf(42))
	portfolio := testPortfolio()

	result, err := agg.Aggregate(portfolio, 0)
	require.NoError(t, err)
	assert.Zero(t, result.AssumedCorrelation)

	// Each scenario simulated on its own, with the shared base seed.
	calc := testCalculator(20000, SeedOf(42))
	expected := make([]float64, 20000)
	for _, in := range portfolio {
		r, err := calc.Calculate(in)
		require.NoError(t, err)
		for i, v := range r.ALESamples {
			expected[i] += v
		}
	}

	require.Len(t, result.TotalALESamples, 20000)
	for i := range expected {
		assert.InDelta(t, expected[i], result.TotalALESamples[i], 1e-9)
	}
}

func TestAggregateContributions(t *testing.T) {
	agg := testAggregator(20000, SeedOf(42))

	result, err := agg.Aggregate(testPortfolio(), 0)
	require.NoError(t, err)

	require.Len(t, result.Contributions, 3)
	assert.Contains(t, result.Contributions, "ransomware")
	assert.Contains(t, result.Contributions, "phishing")
	assert.Contains(t, result.Contributions, "outage")

	require.Len(t, result.TopScenarios, 3)
	// Ranked descending by each scenario's own ALE median.
	assert.GreaterOrEqual(t, result.TopScenarios[0].ALEP50, result.TopScenarios[1].ALEP50)
	assert.GreaterOrEqual(t, result.TopScenarios[1].ALEP50, result.TopScenarios[2].ALEP50)

	// Each share is measured against the aggregate portfolio median.
	// Medians are not additive, so the shares do not normalize to 100.
	require.Greater(t, result.TotalALE.P50, 0.0)
	var pctSum float64
	for _, s := range result.TopScenarios {
		assert.InDelta(t, s.ALEP50/result.TotalALE.P50*100, s.PctOfTotal, 1e-9)
		pctSum += s.PctOfTotal
	}
	assert.Less(t, pctSum, 100.0)
}

func TestAggregateRanksEveryScenario(t *testing.T) {
	portfolio := testPortfolio()
	for _, name := range []string{"insider", "ddos", "vendor_breach"} {
		in := ransomwareInputs()
		in.TEF.Estimate = Estimate{P10: 1, P50: 3, P90: 8}
		portfolio[name] = in
	}

	result, err := testAggregator(10000, SeedOf(42)).Aggregate(portfolio, 0)
	require.NoError(t, err)

	require.Len(t, result.TopScenarios, len(portfolio))
	seen := make(map[string]bool, len(result.TopScenarios))
	for _, s := range result.TopScenarios {
		seen[s.ScenarioID] = true
	}
	assert.Len(t, seen, len(portfolio))
}

func TestAggregateCorrelatedWidensTheTail(t *testing.T) {
	portfolio := testPortfolio()

	independent, err := testAggregator(50000, SeedOf(42)).Aggregate(portfolio, 0)
	require.NoError(t, err)

	correlated, err := testAggregator(50000, SeedOf(42)).Aggregate(portfolio, 0.8)
	require.NoError(t, err)

	// Coupling the scenarios concentrates bad years together: the tail
	// widens while the overall mean stays put.
	assert.Greater(t, correlated.TotalALE.P99, independent.TotalALE.P99)
	assert.InEpsilon(t, independent.TotalALE.Mean, correlated.TotalALE.Mean, 0.05)
}

func TestAggregateFullCorrelationIsClamped(t *testing.T) {
	result, err := testAggregator(20000, SeedOf(42)).Aggregate(testPortfolio(), 1)
	require.NoError(t, err)
	assert.Equal(t, maxCorrelation, result.AssumedCorrelation)
}

func TestAggregateValidation(t *testing.T) {
	agg := testAggregator(1000, SeedOf(42))

	t.Run("empty portfolio", func(t *testing.T) {
		_, err := agg.Aggregate(map[string]ScenarioInputs{}, 0)
		var verr *ValidationError
		require.ErrorAs(t, err, &verr)
		assert.Contains(t, verr.Groups, "scenarios")
	})

	t.Run("correlation out of range", func(t *testing.T) {
		_, err := agg.Aggregate(testPortfolio(), 1.5)
		var verr *ValidationError
		require.ErrorAs(t, err, &verr)
		assert.Contains(t, verr.Groups, "correlation")

		_, err = agg.Aggregate(testPortfolio(), -0.1)
		require.ErrorAs(t, err, &verr)
	})

	t.Run("invalid scenario surfaces its id", func(t *testing.T) {
		portfolio := testPortfolio()
		bad := portfolio["ransomware"]
		bad.Susceptibility = Estimate{P10: 10, P50: 50, P90: 150}
		portfolio["ransomware"] = bad

		_, err := agg.Aggregate(portfolio, 0)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "ransomware")
	})
}

func TestAggregateDeterminism(t *testing.T) {
	a, err := testAggregator(10000, SeedOf(42)).Aggregate(testPortfolio(), 0.5)
	require.NoError(t, err)

	b, err := testAggregator(10000, SeedOf(42)).Aggregate(testPortfolio(), 0.5)
	require.NoError(t, err)

	assert.Equal(t, a.TotalALESamples, b.TotalALESamples)
	assert.Equal(t, a.TotalALE, b.TotalALE)
}

func TestDiversificationBenefit(t *testing.T) {
	result, err := testAggregator(50000, SeedOf(42)).DiversificationBenefit(testPortfolio())
	require.NoError(t, err)

	// Independent tails never stack perfectly, so the aggregate P90 sits
	// below the sum of individual P90s.
	assert.Greater(t, result.SumOfIndividualP90, result.AggregateP90Independent)
	assert.Greater(t, result.Benefit, 0.0)
	assert.Greater(t, result.BenefitPct, 0.0)
	assert.Less(t, result.BenefitPct, 100.0)
}
