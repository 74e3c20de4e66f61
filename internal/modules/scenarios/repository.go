package scenarios

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/quantrisk/fairsim/internal/modules/fair"
)

// ErrNotFound is returned when a scenario id does not exist.
var ErrNotFound = errors.New("scenario not found")

const scenariosSchema = `
CREATE TABLE IF NOT EXISTS scenarios (
	id          TEXT PRIMARY KEY,
	name        TEXT NOT NULL,
	description TEXT NOT NULL DEFAULT '',
	inputs      TEXT NOT NULL,
	created_at  INTEGER NOT NULL,
	updated_at  INTEGER NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_scenarios_name ON scenarios(name);
`

// Repository provides CRUD operations for stored scenarios.
type Repository struct {
	db *sql.DB
}

// NewRepository creates a new scenario repository.
func NewRepository(db *sql.DB) *Repository {
	return &Repository{db: db}
}

// Migrate creates the scenarios table if it does not exist.
func (r *Repository) Migrate() error {
	if _, err := r.db.Exec(scenariosSchema); err != nil {
		return fmt.Errorf("failed to create scenarios schema: %w", err)
	}
	return nil
}

// Create stores a new scenario and returns it with its generated id and
// timestamps filled in.
func (r *Repository) Create(name, description string, inputs fair.ScenarioInputs) (*Scenario, error) {
	inputsJSON, err := json.Marshal(inputs)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal scenario inputs: %w", err)
	}

	now := time.Now().UTC()
	s := &Scenario{
		ID:          uuid.New().String(),
		Name:        name,
		Description: description,
		Inputs:      inputs,
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	_, err = r.db.Exec(
		"INSERT INTO scenarios (id, name, description, inputs, created_at, updated_at) VALUES (?, ?, ?, ?, ?, ?)",
		s.ID, s.Name, s.Description, string(inputsJSON), now.Unix(), now.Unix(),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to insert scenario: %w", err)
	}

	return s, nil
}

// Get returns one scenario by id, or ErrNotFound.
func (r *Repository) Get(id string) (*Scenario, error) {
	row := r.db.QueryRow(
		"SELECT id, name, description, inputs, created_at, updated_at FROM scenarios WHERE id = ?",
		id,
	)
	return scanScenario(row)
}

// List returns all stored scenarios, most recently updated first.
func (r *Repository) List() ([]*Scenario, error) {
	rows, err := r.db.Query(
		"SELECT id, name, description, inputs, created_at, updated_at FROM scenarios ORDER BY updated_at DESC",
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list scenarios: %w", err)
	}
	defer rows.Close()

	var out []*Scenario
	for rows.Next() {
		s, err := scanScenario(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	return out, rows.Err()
}

// Update replaces a scenario's name, description, and inputs.
func (r *Repository) Update(id, name, description string, inputs fair.ScenarioInputs) (*Scenario, error) {
	inputsJSON, err := json.Marshal(inputs)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal scenario inputs: %w", err)
	}

	now := time.Now().UTC()
	result, err := r.db.Exec(
		"UPDATE scenarios SET name = ?, description = ?, inputs = ?, updated_at = ? WHERE id = ?",
		name, description, string(inputsJSON), now.Unix(), id,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to update scenario: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return nil, fmt.Errorf("failed to get rows affected: %w", err)
	}
	if affected == 0 {
		return nil, ErrNotFound
	}

	return r.Get(id)
}

// Delete removes a scenario by id.
func (r *Repository) Delete(id string) error {
	result, err := r.db.Exec("DELETE FROM scenarios WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("failed to delete scenario: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if affected == 0 {
		return ErrNotFound
	}
	return nil
}

// scanner abstracts sql.Row and sql.Rows for scanScenario.
type scanner interface {
	Scan(dest ...interface{}) error
}

func scanScenario(row scanner) (*Scenario, error) {
	var (
		s          Scenario
		inputsJSON string
		createdAt  int64
		updatedAt  int64
	)

	err := row.Scan(&s.ID, &s.Name, &s.Description, &inputsJSON, &createdAt, &updatedAt)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to scan scenario: %w", err)
	}

	if err := json.Unmarshal([]byte(inputsJSON), &s.Inputs); err != nil {
		return nil, fmt.Errorf("failed to unmarshal scenario inputs: %w", err)
	}

	s.CreatedAt = time.Unix(createdAt, 0).UTC()
	s.UpdatedAt = time.Unix(updatedAt, 0).UTC()
	return &s, nil
}
