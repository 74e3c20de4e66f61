package handlers

import (
	"fmt"

	"github.com/quantrisk/fairsim/internal/modules/fair"
)

// Simulation count bounds accepted by the API. Below the floor the
// percentile estimates are too noisy to report; above the cap a single
// request would monopolize the process.
const (
	minSimulations = 10000
	maxSimulations = 1000000
)

// PercentileInput is an analyst estimate as a (p10, p50, p90) triple.
type PercentileInput struct {
	P10 float64 `json:"p10"`
	P50 float64 `json:"p50"`
	P90 float64 `json:"p90"`
}

// TEFRequest describes the threat event frequency factor.
type TEFRequest struct {
	Percentiles      PercentileInput  `json:"percentiles"`
	Model            string           `json:"model,omitempty"`
	Decompose        bool             `json:"decompose,omitempty"`
	ContactFrequency *PercentileInput `json:"contact_frequency,omitempty"`
	ProbAction       *PercentileInput `json:"prob_action,omitempty"`
	ZeroInflation    bool             `json:"zero_inflation,omitempty"`
	PZero            float64          `json:"p_zero,omitempty"`
}

// SusceptibilityRequest wraps the susceptibility percentiles.
type SusceptibilityRequest struct {
	Percentiles PercentileInput `json:"percentiles"`
}

// LossPercentileInput is a loss form estimate with an optional
// structural-zero probability.
type LossPercentileInput struct {
	P10   float64  `json:"p10"`
	P50   float64  `json:"p50"`
	P90   float64  `json:"p90"`
	PZero *float64 `json:"p_zero,omitempty"`
}

// LossFormsRequest carries the six loss forms; omitted forms do not
// contribute.
type LossFormsRequest struct {
	Productivity         *LossPercentileInput `json:"productivity,omitempty"`
	Response             *LossPercentileInput `json:"response,omitempty"`
	Replacement          *LossPercentileInput `json:"replacement,omitempty"`
	Fines                *LossPercentileInput `json:"fines,omitempty"`
	CompetitiveAdvantage *LossPercentileInput `json:"competitive_advantage,omitempty"`
	Reputation           *LossPercentileInput `json:"reputation,omitempty"`
}

// SLEFRequest wraps the secondary loss event frequency percentiles.
type SLEFRequest struct {
	Percentiles PercentileInput `json:"percentiles"`
}

// ScenarioRequest is one full FAIR scenario calculation request.
type ScenarioRequest struct {
	ScenarioID       string                `json:"scenario_id,omitempty"`
	TEF              TEFRequest            `json:"tef"`
	Susceptibility   SusceptibilityRequest `json:"susceptibility"`
	LossForms        LossFormsRequest      `json:"loss_forms"`
	SLEF             *SLEFRequest          `json:"slef,omitempty"`
	TimeHorizonYears float64               `json:"time_horizon_years,omitempty"`
	Currency         string                `json:"currency,omitempty"`
	NSimulations     int                   `json:"n_simulations,omitempty"`
	// Seed overrides the server's default base seed for this request.
	Seed *int64 `json:"seed,omitempty"`
}

// SensitivityRequest asks how one factor moves the ALE.
type SensitivityRequest struct {
	Scenario     ScenarioRequest `json:"scenario"`
	Factor       string          `json:"factor"`
	VariationPct float64         `json:"variation_pct,omitempty"`
}

// AggregationRequest combines several scenarios into a portfolio.
type AggregationRequest struct {
	Scenarios    map[string]ScenarioRequest `json:"scenarios"`
	Correlation  float64                    `json:"correlation,omitempty"`
	NSimulations int                        `json:"n_simulations,omitempty"`
	Seed         *int64                     `json:"seed,omitempty"`
}

// PortfolioMetricsRequest asks for closed-form portfolio aggregates.
type PortfolioMetricsRequest struct {
	Scenarios    map[string]ScenarioRequest `json:"scenarios"`
	NSimulations int                        `json:"n_simulations,omitempty"`
	Seed         *int64                     `json:"seed,omitempty"`
}

// toInputs converts an API request to engine inputs, applying defaults.
func (req *ScenarioRequest) toInputs() fair.ScenarioInputs {
	model := fair.TEFPoisson
	if req.TEF.Model == string(fair.TEFLogNormal) {
		model = fair.TEFLogNormal
	}

	horizon := req.TimeHorizonYears
	if horizon <= 0 {
		horizon = 1.0
	}
	currency := req.Currency
	if currency == "" {
		currency = "USD"
	}

	return fair.ScenarioInputs{
		TEF: fair.TEFInput{
			Estimate:         toEstimate(req.TEF.Percentiles),
			Model:            model,
			Decompose:        req.TEF.Decompose,
			ContactFrequency: toOptionalEstimate(req.TEF.ContactFrequency),
			ProbOfAction:     toOptionalEstimate(req.TEF.ProbAction),
			ZeroInflation:    req.TEF.ZeroInflation,
			PZero:            req.TEF.PZero,
		},
		Susceptibility:       toEstimate(req.Susceptibility.Percentiles),
		Productivity:         toLossEstimate(req.LossForms.Productivity),
		Response:             toLossEstimate(req.LossForms.Response),
		Replacement:          toLossEstimate(req.LossForms.Replacement),
		Fines:                toLossEstimate(req.LossForms.Fines),
		CompetitiveAdvantage: toLossEstimate(req.LossForms.CompetitiveAdvantage),
		Reputation:           toLossEstimate(req.LossForms.Reputation),
		SLEF:                 toSLEF(req.SLEF),
		TimeHorizonYears:     horizon,
		Currency:             currency,
	}
}

// simulations resolves the request's simulation count against a default
// and checks the API bounds.
func simulations(requested, fallback int) (int, error) {
	n := requested
	if n == 0 {
		n = fallback
	}
	if n < minSimulations || n > maxSimulations {
		return 0, &fair.ValidationError{Groups: map[string][]string{
			"n_simulations": {fmt.Sprintf("n_simulations must be in [%d, %d], got %d", minSimulations, maxSimulations, n)},
		}}
	}
	return n, nil
}

func toEstimate(p PercentileInput) fair.Estimate {
	return fair.Estimate{P10: p.P10, P50: p.P50, P90: p.P90}
}

func toOptionalEstimate(p *PercentileInput) *fair.Estimate {
	if p == nil {
		return nil
	}
	e := toEstimate(*p)
	return &e
}

func toLossEstimate(p *LossPercentileInput) fair.LossEstimate {
	if p == nil {
		return fair.LossEstimate{}
	}
	return fair.LossEstimate{
		Estimate: fair.Estimate{P10: p.P10, P50: p.P50, P90: p.P90},
		ZeroRate: p.PZero,
	}
}

func toSLEF(s *SLEFRequest) fair.Estimate {
	if s == nil {
		return fair.Estimate{}
	}
	return toEstimate(s.Percentiles)
}
