// Package scenarios provides persistence for named FAIR scenarios and a
// TTL cache for simulation results keyed by their exact inputs.
package scenarios

import (
	"time"

	"github.com/quantrisk/fairsim/internal/modules/fair"
)

// Scenario is a stored, named set of FAIR inputs.
type Scenario struct {
	ID          string              `json:"id"`
	Name        string              `json:"name"`
	Description string              `json:"description,omitempty"`
	Inputs      fair.ScenarioInputs `json:"inputs"`
	CreatedAt   time.Time           `json:"created_at"`
	UpdatedAt   time.Time           `json:"updated_at"`
}
