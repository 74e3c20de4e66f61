package fair

import (
	"fmt"
	"sort"
	"strings"
)

// ValidationError reports every violated input constraint, grouped by the
// field group it belongs to (e.g. "tef", "susceptibility", "slef"). It is
// raised before any sampling happens and is never retried internally.
type ValidationError struct {
	Groups map[string][]string
}

func newValidationError(group string, problems []string) *ValidationError {
	return &ValidationError{Groups: map[string][]string{group: problems}}
}

// fitError classifies a distribution-fitting failure as a validation
// error: every fit failure inside the pipeline traces back to an input
// degeneracy (ties, zeros where a family needs positives) rather than an
// internal fault.
func fitError(group string, err error) *ValidationError {
	return newValidationError(group, []string{err.Error()})
}

func (e *ValidationError) Error() string {
	groups := make([]string, 0, len(e.Groups))
	for g := range e.Groups {
		groups = append(groups, g)
	}
	sort.Strings(groups)

	parts := make([]string, 0, len(groups))
	for _, g := range groups {
		parts = append(parts, fmt.Sprintf("%s: %s", g, strings.Join(e.Groups[g], "; ")))
	}
	return "invalid inputs: " + strings.Join(parts, " | ")
}
