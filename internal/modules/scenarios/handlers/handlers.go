// Package handlers provides HTTP handlers for stored scenario management.
package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/rs/zerolog"

	"github.com/quantrisk/fairsim/internal/modules/fair"
	"github.com/quantrisk/fairsim/internal/modules/scenarios"
)

// Handler handles scenario store HTTP requests.
type Handler struct {
	repo     *scenarios.Repository
	cache    *scenarios.ResultCache
	defaultN int
	seed     *int64
	log      zerolog.Logger
}

// NewHandler creates a new scenario store handler.
func NewHandler(repo *scenarios.Repository, cache *scenarios.ResultCache, defaultN int, seed *int64, log zerolog.Logger) *Handler {
	return &Handler{
		repo:     repo,
		cache:    cache,
		defaultN: defaultN,
		seed:     seed,
		log:      log.With().Str("handler", "scenarios").Logger(),
	}
}

// scenarioPayload is the create/update request body.
type scenarioPayload struct {
	Name        string              `json:"name"`
	Description string              `json:"description,omitempty"`
	Inputs      fair.ScenarioInputs `json:"inputs"`
}

// HandleList handles GET /api/scenarios
func (h *Handler) HandleList(w http.ResponseWriter, r *http.Request) {
	list, err := h.repo.List()
	if err != nil {
		h.log.Error().Err(err).Msg("Failed to list scenarios")
		http.Error(w, "Failed to list scenarios", http.StatusInternalServerError)
		return
	}

	if list == nil {
		list = []*scenarios.Scenario{}
	}
	h.writeJSON(w, http.StatusOK, map[string]interface{}{"scenarios": list})
}

// HandleCreate handles POST /api/scenarios
func (h *Handler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	var payload scenarioPayload
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		http.Error(w, "Invalid JSON body", http.StatusBadRequest)
		return
	}
	if payload.Name == "" {
		http.Error(w, "Scenario name is required", http.StatusBadRequest)
		return
	}

	s, err := h.repo.Create(payload.Name, payload.Description, payload.Inputs)
	if err != nil {
		h.log.Error().Err(err).Msg("Failed to create scenario")
		http.Error(w, "Failed to create scenario", http.StatusInternalServerError)
		return
	}

	h.log.Info().Str("scenario_id", s.ID).Str("name", s.Name).Msg("Scenario created")
	h.writeJSON(w, http.StatusCreated, s)
}

// HandleGet handles GET /api/scenarios/{id}
func (h *Handler) HandleGet(w http.ResponseWriter, r *http.Request, id string) {
	s, err := h.repo.Get(id)
	if err != nil {
		h.writeRepoError(w, err)
		return
	}
	h.writeJSON(w, http.StatusOK, s)
}

// HandleUpdate handles PUT /api/scenarios/{id}
func (h *Handler) HandleUpdate(w http.ResponseWriter, r *http.Request, id string) {
	var payload scenarioPayload
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		http.Error(w, "Invalid JSON body", http.StatusBadRequest)
		return
	}
	if payload.Name == "" {
		http.Error(w, "Scenario name is required", http.StatusBadRequest)
		return
	}

	s, err := h.repo.Update(id, payload.Name, payload.Description, payload.Inputs)
	if err != nil {
		h.writeRepoError(w, err)
		return
	}
	h.writeJSON(w, http.StatusOK, s)
}

// HandleDelete handles DELETE /api/scenarios/{id}
func (h *Handler) HandleDelete(w http.ResponseWriter, r *http.Request, id string) {
	if err := h.repo.Delete(id); err != nil {
		h.writeRepoError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// HandleCalculate handles POST /api/scenarios/{id}/calculate
//
// Runs the simulation for a stored scenario with the server's default
// simulation count and seed, using the result cache when possible.
func (h *Handler) HandleCalculate(w http.ResponseWriter, r *http.Request, id string) {
	s, err := h.repo.Get(id)
	if err != nil {
		h.writeRepoError(w, err)
		return
	}

	cacheKey := scenarios.Key(s.Inputs, h.defaultN, h.seed)
	if h.cache != nil {
		if cached, ok, cerr := h.cache.Get(cacheKey); cerr != nil {
			h.log.Warn().Err(cerr).Msg("Result cache read failed")
		} else if ok {
			h.writeResult(w, s.ID, cached, true)
			return
		}
	}

	calc := fair.NewCalculator(fair.CalculatorConfig{
		NSimulations: h.defaultN,
		Seed:         h.seed,
		Log:          h.log,
	})
	result, err := calc.Calculate(s.Inputs)
	if err != nil {
		var verr *fair.ValidationError
		if errors.As(err, &verr) {
			h.writeJSON(w, http.StatusBadRequest, map[string]interface{}{
				"detail": verr.Error(),
				"errors": verr.Groups,
			})
			return
		}
		h.log.Error().Err(err).Str("scenario_id", id).Msg("Stored scenario calculation failed")
		http.Error(w, "Calculation error", http.StatusInternalServerError)
		return
	}

	if h.cache != nil {
		if cerr := h.cache.Put(cacheKey, result); cerr != nil {
			h.log.Warn().Err(cerr).Msg("Result cache write failed")
		}
	}

	h.writeResult(w, s.ID, result, false)
}

func (h *Handler) writeResult(w http.ResponseWriter, id string, result *fair.ScenarioResult, cached bool) {
	h.writeJSON(w, http.StatusOK, map[string]interface{}{
		"scenario_id": id,
		"ale":         result.ALE,
		"lef":         result.LEF,
		"lm":          result.LM,
		"loss_forms":  result.LossForms,
		"metadata": map[string]interface{}{
			"n_simulations":      result.NSimulations,
			"time_horizon_years": result.TimeHorizonYears,
			"currency":           result.Currency,
			"cached":             cached,
		},
	})
}

func (h *Handler) writeRepoError(w http.ResponseWriter, err error) {
	if errors.Is(err, scenarios.ErrNotFound) {
		http.Error(w, "Scenario not found", http.StatusNotFound)
		return
	}
	h.log.Error().Err(err).Msg("Scenario repository error")
	http.Error(w, "Scenario storage error", http.StatusInternalServerError)
}

// writeJSON writes a JSON response
func (h *Handler) writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	if err := json.NewEncoder(w).Encode(data); err != nil {
		h.log.Error().Err(err).Msg("Failed to encode JSON response")
	}
}
