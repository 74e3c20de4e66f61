package fair

// DistributionStats summarizes one sample distribution with its mean and
// the 10/50/90th empirical percentiles.
type DistributionStats struct {
	Mean float64 `json:"mean"`
	P10  float64 `json:"p10"`
	P50  float64 `json:"p50"`
	P90  float64 `json:"p90"`
}

// ALEStats extends DistributionStats with the tail percentiles reported
// for annual loss expectancy.
type ALEStats struct {
	DistributionStats
	P95 float64 `json:"p95"`
	P99 float64 `json:"p99"`
}

// LossFormBreakdown holds the median simulated loss per loss form.
type LossFormBreakdown struct {
	Productivity         float64 `json:"productivity"`
	Response             float64 `json:"response"`
	Replacement          float64 `json:"replacement"`
	Fines                float64 `json:"fines"`
	CompetitiveAdvantage float64 `json:"competitive_advantage"`
	Reputation           float64 `json:"reputation"`
}

// ScenarioResult is the outcome of one Monte Carlo scenario calculation.
// ALESamples is retained so the aggregator can combine scenarios without
// re-simulating; it is owned by the result and never mutated afterwards.
type ScenarioResult struct {
	ALE       ALEStats          `json:"ale"`
	LEF       DistributionStats `json:"lef"`
	LM        DistributionStats `json:"lm"`
	LossForms LossFormBreakdown `json:"loss_forms"`

	ALESamples []float64 `json:"-" msgpack:"-"`

	NSimulations     int     `json:"n_simulations"`
	TimeHorizonYears float64 `json:"time_horizon_years"`
	Currency         string  `json:"currency"`
}

// ScenarioContribution is one entry of a portfolio's ranked scenario
// list. PctOfTotal is the scenario's own ALE P50 as a share of the
// aggregate portfolio P50.
type ScenarioContribution struct {
	ScenarioID string  `json:"scenario_id"`
	ALEP50     float64 `json:"ale_p50"`
	PctOfTotal float64 `json:"pct_of_total"`
}

// PortfolioResult is the aggregate of several scenarios' ALE
// distributions.
//
// Contributions maps each scenario to its own unconditional ALE P50.
// These do not sum to the aggregate P50 in general; they are a ranking
// metric, not an additive decomposition.
type PortfolioResult struct {
	TotalALE ALEStats `json:"total_ale"`

	Contributions map[string]float64     `json:"scenario_contributions"`
	TopScenarios  []ScenarioContribution `json:"top_scenarios"`

	// AssumedCorrelation is the pairwise coefficient used to build the
	// copula; 0 means independence.
	AssumedCorrelation float64 `json:"assumed_correlation"`

	TotalALESamples []float64 `json:"-" msgpack:"-"`
}

// PortfolioMetrics are the closed-form portfolio aggregates that follow
// from linearity of expectation, without building a joint distribution.
type PortfolioMetrics struct {
	TotalALE              float64 `json:"total_ale"`
	ExpectedEventsPerYear float64 `json:"expected_events_per_year"`
	// WeightedAverageLM is sum(LEF_i * LM_i) / sum(LEF_i).
	WeightedAverageLM float64 `json:"weighted_average_lm"`
	// TopScenarioShare is the largest scenario's percentage of TotalALE.
	TopScenarioShare float64 `json:"top_scenario_share"`
	TopScenarioID    string  `json:"top_scenario_id"`

	ScenarioALEs map[string]float64 `json:"scenario_ales"`
	ScenarioLEFs map[string]float64 `json:"scenario_lefs"`
	ScenarioLMs  map[string]float64 `json:"scenario_lms"`
}

// DiversificationResult compares the perfectly-correlated P90 proxy (sum
// of individual P90s) against the independence-mode aggregate P90.
type DiversificationResult struct {
	SumOfIndividualP90      float64 `json:"sum_of_individual_p90"`
	AggregateP90Independent float64 `json:"aggregate_p90_independent"`
	Benefit                 float64 `json:"diversification_benefit"`
	BenefitPct              float64 `json:"diversification_benefit_pct"`
}

// SensitivityResult reports how the median ALE responds to perturbing a
// single input factor by +/- the variation percentage.
type SensitivityResult struct {
	Factor      Factor  `json:"factor"`
	BaselineALE float64 `json:"baseline_ale"`
	ALEDown     float64 `json:"ale_down"`
	ALEUp       float64 `json:"ale_up"`

	// Elasticity is %-change in ALE P50 per %-change in the factor.
	ElasticityDown    float64 `json:"elasticity_down"`
	ElasticityUp      float64 `json:"elasticity_up"`
	AverageElasticity float64 `json:"average_elasticity"`
}
