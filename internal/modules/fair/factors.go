package fair

import "sort"

// Factor identifies one perturbable scalar input for sensitivity
// analysis. The set is enumerated and mapped to accessor/mutator pairs at
// compile time; there is no name-based field lookup.
type Factor string

// Perturbable factors. Each percentile of a factor group is addressable
// on its own.
const (
	FactorTEFP10 Factor = "tef_p10"
	FactorTEFP50 Factor = "tef_p50"
	FactorTEFP90 Factor = "tef_p90"

	FactorSusceptibilityP10 Factor = "susc_p10"
	FactorSusceptibilityP50 Factor = "susc_p50"
	FactorSusceptibilityP90 Factor = "susc_p90"

	FactorSLEFP10 Factor = "slef_p10"
	FactorSLEFP50 Factor = "slef_p50"
	FactorSLEFP90 Factor = "slef_p90"

	FactorProductivityP10 Factor = "productivity_p10"
	FactorProductivityP50 Factor = "productivity_p50"
	FactorProductivityP90 Factor = "productivity_p90"

	FactorResponseP10 Factor = "response_p10"
	FactorResponseP50 Factor = "response_p50"
	FactorResponseP90 Factor = "response_p90"

	FactorReplacementP10 Factor = "replacement_p10"
	FactorReplacementP50 Factor = "replacement_p50"
	FactorReplacementP90 Factor = "replacement_p90"

	FactorFinesP10 Factor = "fines_p10"
	FactorFinesP50 Factor = "fines_p50"
	FactorFinesP90 Factor = "fines_p90"

	FactorCompetitiveAdvP10 Factor = "competitive_adv_p10"
	FactorCompetitiveAdvP50 Factor = "competitive_adv_p50"
	FactorCompetitiveAdvP90 Factor = "competitive_adv_p90"

	FactorReputationP10 Factor = "reputation_p10"
	FactorReputationP50 Factor = "reputation_p50"
	FactorReputationP90 Factor = "reputation_p90"
)

// factorAccess binds a factor to its getter/setter and marks whether the
// value is a percentage (clamped to [0, 100] after perturbation).
type factorAccess struct {
	get     func(*ScenarioInputs) float64
	set     func(*ScenarioInputs, float64)
	percent bool
}

var factorRegistry = buildFactorRegistry()

func buildFactorRegistry() map[Factor]factorAccess {
	m := make(map[Factor]factorAccess)

	register := func(prefix string, sel func(*ScenarioInputs) *Estimate, percent bool) {
		m[Factor(prefix+"_p10")] = factorAccess{
			get:     func(in *ScenarioInputs) float64 { return sel(in).P10 },
			set:     func(in *ScenarioInputs, v float64) { sel(in).P10 = v },
			percent: percent,
		}
		m[Factor(prefix+"_p50")] = factorAccess{
			get:     func(in *ScenarioInputs) float64 { return sel(in).P50 },
			set:     func(in *ScenarioInputs, v float64) { sel(in).P50 = v },
			percent: percent,
		}
		m[Factor(prefix+"_p90")] = factorAccess{
			get:     func(in *ScenarioInputs) float64 { return sel(in).P90 },
			set:     func(in *ScenarioInputs, v float64) { sel(in).P90 = v },
			percent: percent,
		}
	}

	register("tef", func(in *ScenarioInputs) *Estimate { return &in.TEF.Estimate }, false)
	register("susc", func(in *ScenarioInputs) *Estimate { return &in.Susceptibility }, true)
	register("slef", func(in *ScenarioInputs) *Estimate { return &in.SLEF }, true)
	register("productivity", func(in *ScenarioInputs) *Estimate { return &in.Productivity.Estimate }, false)
	register("response", func(in *ScenarioInputs) *Estimate { return &in.Response.Estimate }, false)
	register("replacement", func(in *ScenarioInputs) *Estimate { return &in.Replacement.Estimate }, false)
	register("fines", func(in *ScenarioInputs) *Estimate { return &in.Fines.Estimate }, false)
	register("competitive_adv", func(in *ScenarioInputs) *Estimate { return &in.CompetitiveAdvantage.Estimate }, false)
	register("reputation", func(in *ScenarioInputs) *Estimate { return &in.Reputation.Estimate }, false)

	return m
}

// Valid reports whether f names a known perturbable factor.
func (f Factor) Valid() bool {
	_, ok := factorRegistry[f]
	return ok
}

// Factors returns the full perturbable factor set in stable order.
func Factors() []Factor {
	out := make([]Factor, 0, len(factorRegistry))
	for f := range factorRegistry {
		out = append(out, f)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}
