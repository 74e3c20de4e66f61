package fair

import "fmt"

// Bounds constrains a percentile triple during validation. Min and Max
// are optional; Probability additionally requires the triple to lie in
// [0, 100].
type Bounds struct {
	Min         *float64
	Max         *float64
	Probability bool
}

// ValidatePercentiles checks ordering and bounds of a (p10, p50, p90)
// triple and returns every violated rule, not just the first, so callers
// can report all problems at once. An empty slice means the triple is
// valid.
func ValidatePercentiles(p10, p50, p90 float64, b Bounds) []string {
	var problems []string

	if p10 > p50 {
		problems = append(problems, "P10 must be <= P50")
	}
	if p50 > p90 {
		problems = append(problems, "P50 must be <= P90")
	}

	if b.Min != nil && p10 < *b.Min {
		problems = append(problems, fmt.Sprintf("P10 must be >= %g", *b.Min))
	}
	if b.Max != nil && p90 > *b.Max {
		problems = append(problems, fmt.Sprintf("P90 must be <= %g", *b.Max))
	}

	if b.Probability && (p10 < 0 || p90 > 100) {
		problems = append(problems, "probabilities must be in [0, 100]%")
	}

	return problems
}

// ValidateScenario checks every factor group of a scenario and returns
// all problems keyed by group. An empty map means the scenario is valid.
// Unlike the calculator's pre-flight check this does not stop at the
// first bad group; it is meant for validation-only endpoints.
func ValidateScenario(in ScenarioInputs) map[string][]string {
	problems := make(map[string][]string)

	if p := ValidatePercentiles(in.TEF.P10, in.TEF.P50, in.TEF.P90, nonNegativeBounds()); len(p) > 0 {
		problems["tef"] = p
	}

	s := in.Susceptibility
	if p := ValidatePercentiles(s.P10, s.P50, s.P90, probabilityBounds()); len(p) > 0 {
		problems["susceptibility"] = p
	}

	if in.HasSecondaryLosses() {
		if p := ValidatePercentiles(in.SLEF.P10, in.SLEF.P50, in.SLEF.P90, probabilityBounds()); len(p) > 0 {
			problems["slef"] = p
		}
	}

	return problems
}

// nonNegativeBounds constrains a triple to be >= 0.
func nonNegativeBounds() Bounds {
	zero := 0.0
	return Bounds{Min: &zero}
}

// probabilityBounds constrains a triple to a percentage in [0, 100].
func probabilityBounds() Bounds {
	zero, hundred := 0.0, 100.0
	return Bounds{Min: &zero, Max: &hundred, Probability: true}
}
