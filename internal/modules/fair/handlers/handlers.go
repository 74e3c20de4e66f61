// Package handlers provides HTTP handlers for FAIR risk calculations.
package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/rs/zerolog"

	"github.com/quantrisk/fairsim/internal/modules/fair"
	"github.com/quantrisk/fairsim/internal/modules/scenarios"
)

// Handler handles FAIR calculation HTTP requests.
type Handler struct {
	defaultN int
	seed     *int64
	cache    *scenarios.ResultCache
	log      zerolog.Logger
}

// NewHandler creates a new FAIR calculation handler. The cache is
// optional; a nil cache disables result caching.
func NewHandler(defaultN int, seed *int64, cache *scenarios.ResultCache, log zerolog.Logger) *Handler {
	return &Handler{
		defaultN: defaultN,
		seed:     seed,
		cache:    cache,
		log:      log.With().Str("handler", "fair").Logger(),
	}
}

// calculator builds a per-request calculator. The request seed, when
// present, overrides the server default.
func (h *Handler) calculator(n int, seed *int64) *fair.Calculator {
	base := h.seed
	if seed != nil {
		base = seed
	}
	return fair.NewCalculator(fair.CalculatorConfig{
		NSimulations: n,
		Seed:         base,
		Log:          h.log,
	})
}

func (h *Handler) baseSeed(seed *int64) *int64 {
	if seed != nil {
		return seed
	}
	return h.seed
}

// HandleCalculate handles POST /api/fair/calculate
func (h *Handler) HandleCalculate(w http.ResponseWriter, r *http.Request) {
	var req ScenarioRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid JSON body", http.StatusBadRequest)
		return
	}

	n, err := simulations(req.NSimulations, h.defaultN)
	if err != nil {
		h.writeError(w, err)
		return
	}

	inputs := req.toInputs()

	// Seeded requests are pure functions of their inputs; serve repeats
	// from the cache.
	cacheKey := scenarios.Key(inputs, n, h.baseSeed(req.Seed))
	if h.cache != nil {
		if cached, ok, cerr := h.cache.Get(cacheKey); cerr != nil {
			h.log.Warn().Err(cerr).Msg("Result cache read failed")
		} else if ok {
			h.writeCalculation(w, req.ScenarioID, cached, true)
			return
		}
	}

	result, err := h.calculator(n, req.Seed).Calculate(inputs)
	if err != nil {
		h.writeError(w, err)
		return
	}

	if h.cache != nil {
		if cerr := h.cache.Put(cacheKey, result); cerr != nil {
			h.log.Warn().Err(cerr).Msg("Result cache write failed")
		}
	}

	h.writeCalculation(w, req.ScenarioID, result, false)
}

// HandleValidate handles POST /api/fair/validate
//
// Runs input validation only, reporting problems per factor group
// without simulating.
func (h *Handler) HandleValidate(w http.ResponseWriter, r *http.Request) {
	var req ScenarioRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid JSON body", http.StatusBadRequest)
		return
	}

	inputs := req.toInputs()

	errs := map[string][]string{}
	if problems := fair.ValidateScenario(inputs); len(problems) > 0 {
		errs = problems
	}

	h.writeJSON(w, http.StatusOK, map[string]interface{}{
		"valid":  len(errs) == 0,
		"errors": errs,
	})
}

// HandleSensitivity handles POST /api/fair/sensitivity
func (h *Handler) HandleSensitivity(w http.ResponseWriter, r *http.Request) {
	var req SensitivityRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid JSON body", http.StatusBadRequest)
		return
	}

	n, err := simulations(req.Scenario.NSimulations, h.defaultN)
	if err != nil {
		h.writeError(w, err)
		return
	}

	result, err := h.calculator(n, req.Scenario.Seed).
		Sensitivity(req.Scenario.toInputs(), fair.Factor(req.Factor), req.VariationPct)
	if err != nil {
		h.writeError(w, err)
		return
	}

	h.writeJSON(w, http.StatusOK, result)
}

// HandleAggregate handles POST /api/fair/aggregate
func (h *Handler) HandleAggregate(w http.ResponseWriter, r *http.Request) {
	var req AggregationRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid JSON body", http.StatusBadRequest)
		return
	}

	n, err := simulations(req.NSimulations, h.defaultN)
	if err != nil {
		h.writeError(w, err)
		return
	}

	agg := fair.NewAggregator(h.calculator(n, req.Seed), h.log)
	result, err := agg.Aggregate(scenarioInputsByID(req.Scenarios), req.Correlation)
	if err != nil {
		h.writeError(w, err)
		return
	}

	h.writeJSON(w, http.StatusOK, result)
}

// HandlePortfolioMetrics handles POST /api/fair/portfolio/metrics
func (h *Handler) HandlePortfolioMetrics(w http.ResponseWriter, r *http.Request) {
	var req PortfolioMetricsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid JSON body", http.StatusBadRequest)
		return
	}

	n, err := simulations(req.NSimulations, h.defaultN)
	if err != nil {
		h.writeError(w, err)
		return
	}

	agg := fair.NewAggregator(h.calculator(n, req.Seed), h.log)
	metrics, err := agg.Metrics(scenarioInputsByID(req.Scenarios))
	if err != nil {
		h.writeError(w, err)
		return
	}

	h.writeJSON(w, http.StatusOK, metrics)
}

// HandleDiversification handles POST /api/fair/portfolio/diversification
func (h *Handler) HandleDiversification(w http.ResponseWriter, r *http.Request) {
	var req PortfolioMetricsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid JSON body", http.StatusBadRequest)
		return
	}

	n, err := simulations(req.NSimulations, h.defaultN)
	if err != nil {
		h.writeError(w, err)
		return
	}

	agg := fair.NewAggregator(h.calculator(n, req.Seed), h.log)
	result, err := agg.DiversificationBenefit(scenarioInputsByID(req.Scenarios))
	if err != nil {
		h.writeError(w, err)
		return
	}

	h.writeJSON(w, http.StatusOK, result)
}

// HandleListFactors handles GET /api/fair/factors
func (h *Handler) HandleListFactors(w http.ResponseWriter, r *http.Request) {
	h.writeJSON(w, http.StatusOK, map[string]interface{}{
		"factors": fair.Factors(),
	})
}

func scenarioInputsByID(reqs map[string]ScenarioRequest) map[string]fair.ScenarioInputs {
	out := make(map[string]fair.ScenarioInputs, len(reqs))
	for id, req := range reqs {
		out[id] = req.toInputs()
	}
	return out
}

// writeCalculation renders a scenario result in the calculate response
// shape.
func (h *Handler) writeCalculation(w http.ResponseWriter, scenarioID string, result *fair.ScenarioResult, cached bool) {
	h.writeJSON(w, http.StatusOK, map[string]interface{}{
		"scenario_id": scenarioID,
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

// writeError maps engine errors onto HTTP statuses: validation problems
// are the client's fault, everything else is ours.
func (h *Handler) writeError(w http.ResponseWriter, err error) {
	var verr *fair.ValidationError
	if errors.As(err, &verr) {
		h.writeJSON(w, http.StatusBadRequest, map[string]interface{}{
			"detail": verr.Error(),
			"errors": verr.Groups,
		})
		return
	}

	h.log.Error().Err(err).Msg("Calculation failed")
	http.Error(w, "Calculation error", http.StatusInternalServerError)
}

// writeJSON writes a JSON response
func (h *Handler) writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	if err := json.NewEncoder(w).Encode(data); err != nil {
		h.log.Error().Err(err).Msg("Failed to encode JSON response")
	}
}
