// Package fair implements the FAIR (Factor Analysis of Information Risk)
// quantification engine: distribution fitting from percentile estimates,
// seeded Monte Carlo sampling, per-scenario calculation, sensitivity
// analysis, and portfolio aggregation.
package fair

// TEFModel selects the distribution family used for direct threat event
// frequency estimation.
type TEFModel string

const (
	// TEFPoisson fits a Poisson distribution to the TEF percentiles.
	TEFPoisson TEFModel = "poisson"
	// TEFLogNormal fits a lognormal distribution to the TEF percentiles.
	TEFLogNormal TEFModel = "lognormal"
)

// Estimate is an ordered percentile triple (P10 <= P50 <= P90) supplied by
// an analyst for one risk factor.
type Estimate struct {
	P10 float64 `json:"p10"`
	P50 float64 `json:"p50"`
	P90 float64 `json:"p90"`
}

// LossEstimate is a percentile triple for one loss form, with an optional
// zero-rate knob: the probability the loss form is zero when an event
// occurs. The knob only matters when P10 = 0 and P50 > 0; nil means the
// calculator's default zero-rate applies.
type LossEstimate struct {
	Estimate
	ZeroRate *float64 `json:"zero_rate,omitempty"`
}

// TEFInput describes the threat event frequency factor. TEF is either
// estimated directly (optionally zero-inflated), or decomposed into
// contact frequency x probability of action.
type TEFInput struct {
	Estimate
	Model     TEFModel `json:"model,omitempty"`
	Decompose bool     `json:"decompose,omitempty"`
	// ContactFrequency and ProbOfAction are required when Decompose is set.
	// ProbOfAction is a percentage in [0, 100].
	ContactFrequency *Estimate `json:"contact_frequency,omitempty"`
	ProbOfAction     *Estimate `json:"prob_of_action,omitempty"`
	// ZeroInflation switches direct estimation to a zero-inflated Poisson
	// with structural-zero probability PZero.
	ZeroInflation bool    `json:"zero_inflation,omitempty"`
	PZero         float64 `json:"p_zero,omitempty"`
}

// ScenarioInputs is the full input bundle for one FAIR scenario. Values
// are treated as immutable once constructed; sensitivity analysis works
// on derived copies via Clone.
type ScenarioInputs struct {
	TEF TEFInput `json:"tef"`

	// Susceptibility is the probability a threat event becomes a loss
	// event, as a percentage in [0, 100].
	Susceptibility Estimate `json:"susceptibility"`

	// Primary loss forms (incurred on every loss event).
	Productivity LossEstimate `json:"productivity"`
	Response     LossEstimate `json:"response"`
	Replacement  LossEstimate `json:"replacement"`

	// Secondary loss forms (incurred only when a secondary loss event
	// occurs, gated by SLEF).
	Fines                LossEstimate `json:"fines"`
	CompetitiveAdvantage LossEstimate `json:"competitive_advantage"`
	Reputation           LossEstimate `json:"reputation"`

	// SLEF is the secondary loss event frequency, a percentage in [0, 100].
	SLEF Estimate `json:"slef"`

	TimeHorizonYears float64 `json:"time_horizon_years,omitempty"`
	Currency         string  `json:"currency,omitempty"`
}

// Clone returns a deep copy, so a sensitivity perturbation never aliases
// the caller's inputs.
func (in ScenarioInputs) Clone() ScenarioInputs {
	out := in
	out.TEF.ContactFrequency = cloneEstimate(in.TEF.ContactFrequency)
	out.TEF.ProbOfAction = cloneEstimate(in.TEF.ProbOfAction)
	out.Productivity.ZeroRate = cloneFloat(in.Productivity.ZeroRate)
	out.Response.ZeroRate = cloneFloat(in.Response.ZeroRate)
	out.Replacement.ZeroRate = cloneFloat(in.Replacement.ZeroRate)
	out.Fines.ZeroRate = cloneFloat(in.Fines.ZeroRate)
	out.CompetitiveAdvantage.ZeroRate = cloneFloat(in.CompetitiveAdvantage.ZeroRate)
	out.Reputation.ZeroRate = cloneFloat(in.Reputation.ZeroRate)
	return out
}

// HasSecondaryLosses reports whether any secondary loss form has a
// positive median. SLEF is only validated (and sampled) when this holds.
func (in ScenarioInputs) HasSecondaryLosses() bool {
	return in.Fines.P50 > 0 || in.CompetitiveAdvantage.P50 > 0 || in.Reputation.P50 > 0
}

func cloneEstimate(e *Estimate) *Estimate {
	if e == nil {
		return nil
	}
	c := *e
	return &c
}

func cloneFloat(f *float64) *float64 {
	if f == nil {
		return nil
	}
	c := *f
	return &c
}
