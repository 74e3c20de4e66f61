package fair

import (
	"fmt"
	"sort"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"
	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat/distmv"
	"gonum.org/v1/gonum/stat/distuv"

	"github.com/quantrisk/fairsim/pkg/formulas"
)

// maxCorrelation caps the pairwise copula coefficient. A coefficient of
// exactly 1 makes the equicorrelation matrix singular, so requests for
// perfect correlation are clamped just below it.
const maxCorrelation = 0.999

// Aggregator combines per-scenario ALE distributions into a portfolio
// view, either under independence or through a Gaussian copula with a
// uniform pairwise correlation.
type Aggregator struct {
	calc *Calculator
	log  zerolog.Logger
}

// NewAggregator creates an aggregator on top of an existing calculator.
// Every scenario is simulated with the calculator's base seed, so a
// scenario's marginal distribution does not depend on which portfolio it
// appears in.
func NewAggregator(calc *Calculator, log zerolog.Logger) *Aggregator {
	return &Aggregator{
		calc: calc,
		log:  log.With().Str("component", "fair_aggregator").Logger(),
	}
}

// Aggregate simulates every scenario and combines the ALE sample arrays.
// A correlation of 0 sums samples element-wise (independence); anything
// in (0, 1] routes through the Gaussian copula. Correlations outside
// [0, 1] are rejected.
func (a *Aggregator) Aggregate(scenarios map[string]ScenarioInputs, correlation float64) (*PortfolioResult, error) {
	if len(scenarios) == 0 {
		return nil, newValidationError("scenarios", []string{"at least one scenario is required"})
	}
	if correlation < 0 || correlation > 1 {
		return nil, newValidationError("correlation", []string{fmt.Sprintf("correlation must be in [0, 1], got %g", correlation)})
	}

	ids := make([]string, 0, len(scenarios))
	for id := range scenarios {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	results, err := a.simulateAll(ids, scenarios)
	if err != nil {
		return nil, err
	}

	assumed := correlation
	var total []float64
	if correlation == 0 {
		total = sumIndependent(results)
	} else {
		if correlation > maxCorrelation {
			a.log.Warn().
				Float64("requested", correlation).
				Float64("clamped", maxCorrelation).
				Msg("Correlation clamped below the singular limit")
			assumed = maxCorrelation
		}
		total, err = a.copulaSum(results, assumed)
		if err != nil {
			return nil, err
		}
	}

	contributions := make(map[string]float64, len(ids))
	for i, id := range ids {
		contributions[id] = results[i].ALE.P50
	}

	totalALE := summarizeALE(total)

	a.log.Info().
		Int("scenarios", len(ids)).
		Float64("correlation", assumed).
		Msg("Portfolio aggregation complete")

	return &PortfolioResult{
		TotalALE:           totalALE,
		Contributions:      contributions,
		TopScenarios:       rankScenarios(ids, results, totalALE.P50),
		AssumedCorrelation: assumed,
		TotalALESamples:    total,
	}, nil
}

// DiversificationBenefit measures how much the independence-mode
// aggregate P90 sits below the sum of individual P90s (the
// perfectly-correlated proxy).
func (a *Aggregator) DiversificationBenefit(scenarios map[string]ScenarioInputs) (*DiversificationResult, error) {
	ids := make([]string, 0, len(scenarios))
	for id := range scenarios {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	if len(ids) == 0 {
		return nil, newValidationError("scenarios", []string{"at least one scenario is required"})
	}

	results, err := a.simulateAll(ids, scenarios)
	if err != nil {
		return nil, err
	}

	var sumP90 float64
	for _, r := range results {
		sumP90 += r.ALE.P90
	}

	aggregate := summarizeALE(sumIndependent(results))

	benefit := sumP90 - aggregate.P90
	benefitPct := 0.0
	if sumP90 > 0 {
		benefitPct = benefit / sumP90 * 100
	}

	return &DiversificationResult{
		SumOfIndividualP90:      sumP90,
		AggregateP90Independent: aggregate.P90,
		Benefit:                 benefit,
		BenefitPct:              benefitPct,
	}, nil
}

// Metrics computes portfolio aggregates from each scenario's mean ALE,
// LEF, and LM. Means add under linearity of expectation, so no joint
// distribution is needed here.
func (a *Aggregator) Metrics(scenarios map[string]ScenarioInputs) (*PortfolioMetrics, error) {
	ids := make([]string, 0, len(scenarios))
	for id := range scenarios {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	if len(ids) == 0 {
		return nil, newValidationError("scenarios", []string{"at least one scenario is required"})
	}

	results, err := a.simulateAll(ids, scenarios)
	if err != nil {
		return nil, err
	}

	m := &PortfolioMetrics{
		ScenarioALEs: make(map[string]float64, len(ids)),
		ScenarioLEFs: make(map[string]float64, len(ids)),
		ScenarioLMs:  make(map[string]float64, len(ids)),
	}

	var totalLEF, weightedLM, maxALE float64
	for i, id := range ids {
		r := results[i]
		m.ScenarioALEs[id] = r.ALE.Mean
		m.ScenarioLEFs[id] = r.LEF.Mean
		m.ScenarioLMs[id] = r.LM.Mean

		m.TotalALE += r.ALE.Mean
		totalLEF += r.LEF.Mean
		weightedLM += r.LEF.Mean * r.LM.Mean

		if r.ALE.Mean > maxALE || m.TopScenarioID == "" {
			maxALE = r.ALE.Mean
			m.TopScenarioID = id
		}
	}

	m.ExpectedEventsPerYear = totalLEF
	if totalLEF > 0 {
		m.WeightedAverageLM = weightedLM / totalLEF
	}
	if m.TotalALE > 0 {
		m.TopScenarioShare = maxALE / m.TotalALE * 100
	}

	return m, nil
}

// simulateAll runs every scenario concurrently, results ordered like ids.
func (a *Aggregator) simulateAll(ids []string, scenarios map[string]ScenarioInputs) ([]*ScenarioResult, error) {
	results := make([]*ScenarioResult, len(ids))

	var g errgroup.Group
	for i, id := range ids {
		g.Go(func() error {
			r, err := a.calc.Calculate(scenarios[id])
			if err != nil {
				return fmt.Errorf("scenario %q: %w", id, err)
			}
			results[i] = r
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return results, nil
}

// sumIndependent sums the scenarios' ALE arrays element-wise. Under
// independence each simulation index is one joint draw of the portfolio.
func sumIndependent(results []*ScenarioResult) []float64 {
	total := make([]float64, len(results[0].ALESamples))
	for _, r := range results {
		for i, v := range r.ALESamples {
			total[i] += v
		}
	}
	return total
}

// copulaSum couples the scenarios' marginal ALE distributions through a
// Gaussian copula with uniform pairwise correlation rho.
//
// Multivariate standard-normal draws are pushed through the univariate
// normal CDF into correlated uniforms, and each uniform is mapped back
// onto its scenario's empirical ALE distribution by inverse-CDF
// interpolation over the sorted samples. The per-index sums form the
// portfolio distribution.
func (a *Aggregator) copulaSum(results []*ScenarioResult, rho float64) ([]float64, error) {
	d := len(results)
	n := a.calc.nSims

	sigma := mat.NewSymDense(d, nil)
	for i := 0; i < d; i++ {
		sigma.SetSym(i, i, 1)
		for j := i + 1; j < d; j++ {
			sigma.SetSym(i, j, rho)
		}
	}

	normal, ok := distmv.NewNormal(make([]float64, d), sigma, newSource(DeriveSeed(a.calc.seed, seedOffsetCopula)))
	if !ok {
		return nil, fmt.Errorf("copula correlation matrix is not positive definite (rho=%g, d=%d)", rho, d)
	}

	sorted := make([][]float64, d)
	for j, r := range results {
		s := make([]float64, len(r.ALESamples))
		copy(s, r.ALESamples)
		sort.Float64s(s)
		sorted[j] = s
	}

	total := make([]float64, n)
	z := make([]float64, d)
	for i := 0; i < n; i++ {
		normal.Rand(z)
		for j := 0; j < d; j++ {
			u := distuv.UnitNormal.CDF(z[j])
			total[i] += formulas.PercentileSorted(sorted[j], u*100)
		}
	}
	return total, nil
}

// rankScenarios orders every scenario by its own ALE P50, largest
// first. PctOfTotal compares each scenario's P50 against the aggregate
// portfolio P50; medians are not additive, so the percentages need not
// sum to 100.
func rankScenarios(ids []string, results []*ScenarioResult, portfolioP50 float64) []ScenarioContribution {
	ranked := make([]ScenarioContribution, len(ids))
	for i, id := range ids {
		pct := 0.0
		if portfolioP50 > 0 {
			pct = results[i].ALE.P50 / portfolioP50 * 100
		}
		ranked[i] = ScenarioContribution{
			ScenarioID: id,
			ALEP50:     results[i].ALE.P50,
			PctOfTotal: pct,
		}
	}
	sort.SliceStable(ranked, func(i, j int) bool { return ranked[i].ALEP50 > ranked[j].ALEP50 })
	return ranked
}
