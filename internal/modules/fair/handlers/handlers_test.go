package handlers

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/quantrisk/fairsim/internal/database"
	"github.com/quantrisk/fairsim/internal/modules/scenarios"
)

func testRouter(t *testing.T, cache *scenarios.ResultCache) http.Handler {
	t.Helper()

	seed := int64(42)
	h := NewHandler(10000, &seed, cache, zerolog.Nop())

	r := chi.NewRouter()
	r.Route("/api", func(r chi.Router) {
		h.RegisterRoutes(r)
	})
	return r
}

func testResultCache(t *testing.T) *scenarios.ResultCache {
	t.Helper()

	db, err := database.New(database.Config{
		Path:    filepath.Join(t.TempDir(), "cache.db"),
		Profile: database.ProfileCache,
		Name:    "cache-test",
	})
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	cache := scenarios.NewResultCache(db.Conn(), time.Hour)
	require.NoError(t, cache.Migrate())
	return cache
}

func calculateRequest() ScenarioRequest {
	return ScenarioRequest{
		ScenarioID: "ransomware",
		TEF: TEFRequest{
			Percentiles: PercentileInput{P10: 2, P50: 5, P90: 12},
		},
		Susceptibility: SusceptibilityRequest{
			Percentiles: PercentileInput{P10: 10, P50: 30, P90: 60},
		},
		LossForms: LossFormsRequest{
			Productivity: &LossPercentileInput{P10: 50000, P50: 200000, P90: 800000},
			Response:     &LossPercentileInput{P10: 25000, P50: 100000, P90: 400000},
		},
	}
}

func postJSON(t *testing.T, router http.Handler, path string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()

	payload, err := json.Marshal(body)
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodPost, path, bytes.NewReader(payload))
	req.Header.Set("Content-Type", "application/json")

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec
}

func decodeBody(t *testing.T, rec *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()

	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	return body
}

func TestHandleCalculate(t *testing.T) {
	router := testRouter(t, nil)

	rec := postJSON(t, router, "/api/fair/calculate", calculateRequest())
	require.Equal(t, http.StatusOK, rec.Code)

	body := decodeBody(t, rec)
	assert.Equal(t, "ransomware", body["scenario_id"])

	ale := body["ale"].(map[string]interface{})
	assert.Greater(t, ale["p50"].(float64), 0.0)
	assert.GreaterOrEqual(t, ale["p99"].(float64), ale["p50"].(float64))

	metadata := body["metadata"].(map[string]interface{})
	assert.Equal(t, false, metadata["cached"])
	assert.Equal(t, 10000.0, metadata["n_simulations"])
	assert.Equal(t, "USD", metadata["currency"])
}

func TestHandleCalculateSeededReproducibility(t *testing.T) {
	router := testRouter(t, nil)

	first := decodeBody(t, postJSON(t, router, "/api/fair/calculate", calculateRequest()))
	second := decodeBody(t, postJSON(t, router, "/api/fair/calculate", calculateRequest()))

	assert.Equal(t, first["ale"], second["ale"])
	assert.Equal(t, first["lef"], second["lef"])
}

func TestHandleCalculateUsesCache(t *testing.T) {
	router := testRouter(t, testResultCache(t))

	first := postJSON(t, router, "/api/fair/calculate", calculateRequest())
	require.Equal(t, http.StatusOK, first.Code)
	firstMeta := decodeBody(t, first)["metadata"].(map[string]interface{})
	assert.Equal(t, false, firstMeta["cached"])

	second := postJSON(t, router, "/api/fair/calculate", calculateRequest())
	require.Equal(t, http.StatusOK, second.Code)
	secondMeta := decodeBody(t, second)["metadata"].(map[string]interface{})
	assert.Equal(t, true, secondMeta["cached"])

	assert.Equal(t, decodeBody(t, first)["ale"], decodeBody(t, second)["ale"])
}

func TestHandleCalculateSimulationBounds(t *testing.T) {
	router := testRouter(t, nil)

	req := calculateRequest()
	req.NSimulations = 5000

	rec := postJSON(t, router, "/api/fair/calculate", req)
	require.Equal(t, http.StatusBadRequest, rec.Code)

	body := decodeBody(t, rec)
	errs := body["errors"].(map[string]interface{})
	assert.Contains(t, errs, "n_simulations")
}

func TestHandleCalculateValidationError(t *testing.T) {
	router := testRouter(t, nil)

	req := calculateRequest()
	req.Susceptibility.Percentiles = PercentileInput{P10: 10, P50: 30, P90: 150}

	rec := postJSON(t, router, "/api/fair/calculate", req)
	require.Equal(t, http.StatusBadRequest, rec.Code)

	body := decodeBody(t, rec)
	errs := body["errors"].(map[string]interface{})
	assert.Contains(t, errs, "susceptibility")
}

func TestHandleCalculateInvalidJSON(t *testing.T) {
	router := testRouter(t, nil)

	req := httptest.NewRequest(http.MethodPost, "/api/fair/calculate", bytes.NewBufferString("{nope"))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestHandleValidate(t *testing.T) {
	router := testRouter(t, nil)

	rec := postJSON(t, router, "/api/fair/validate", calculateRequest())
	require.Equal(t, http.StatusOK, rec.Code)

	body := decodeBody(t, rec)
	assert.Equal(t, true, body["valid"])
	assert.Empty(t, body["errors"])
}

func TestHandleValidateReportsProblems(t *testing.T) {
	router := testRouter(t, nil)

	req := calculateRequest()
	req.TEF.Percentiles = PercentileInput{P10: -1, P50: 5, P90: 12}

	rec := postJSON(t, router, "/api/fair/validate", req)
	require.Equal(t, http.StatusOK, rec.Code)

	body := decodeBody(t, rec)
	assert.Equal(t, false, body["valid"])
	errs := body["errors"].(map[string]interface{})
	assert.Contains(t, errs, "tef")
}

func TestHandleSensitivity(t *testing.T) {
	router := testRouter(t, nil)

	rec := postJSON(t, router, "/api/fair/sensitivity", SensitivityRequest{
		Scenario: calculateRequest(),
		Factor:   "tef_p50",
	})
	require.Equal(t, http.StatusOK, rec.Code)

	body := decodeBody(t, rec)
	assert.Equal(t, "tef_p50", body["factor"])
	assert.Greater(t, body["baseline_ale"].(float64), 0.0)
	assert.Greater(t, body["average_elasticity"].(float64), 0.0)
}

func TestHandleSensitivityUnknownFactor(t *testing.T) {
	router := testRouter(t, nil)

	rec := postJSON(t, router, "/api/fair/sensitivity", SensitivityRequest{
		Scenario: calculateRequest(),
		Factor:   "not_a_factor",
	})
	require.Equal(t, http.StatusBadRequest, rec.Code)

	body := decodeBody(t, rec)
	errs := body["errors"].(map[string]interface{})
	assert.Contains(t, errs, "factor")
}

func TestHandleAggregate(t *testing.T) {
	router := testRouter(t, nil)

	phishing := calculateRequest()
	phishing.TEF.Percentiles = PercentileInput{P10: 5, P50: 15, P90: 40}

	rec := postJSON(t, router, "/api/fair/aggregate", AggregationRequest{
		Scenarios: map[string]ScenarioRequest{
			"ransomware": calculateRequest(),
			"phishing":   phishing,
		},
		Correlation: 0.5,
	})
	require.Equal(t, http.StatusOK, rec.Code)

	body := decodeBody(t, rec)
	totalALE := body["total_ale"].(map[string]interface{})
	assert.Greater(t, totalALE["p50"].(float64), 0.0)
	assert.Equal(t, 0.5, body["assumed_correlation"])

	contributions := body["scenario_contributions"].(map[string]interface{})
	assert.Len(t, contributions, 2)
}

func TestHandleAggregateEmptyPortfolio(t *testing.T) {
	router := testRouter(t, nil)

	rec := postJSON(t, router, "/api/fair/aggregate", AggregationRequest{
		Scenarios: map[string]ScenarioRequest{},
	})
	require.Equal(t, http.StatusBadRequest, rec.Code)

	body := decodeBody(t, rec)
	errs := body["errors"].(map[string]interface{})
	assert.Contains(t, errs, "scenarios")
}

func TestHandlePortfolioMetrics(t *testing.T) {
	router := testRouter(t, nil)

	rec := postJSON(t, router, "/api/fair/portfolio/metrics", PortfolioMetricsRequest{
		Scenarios: map[string]ScenarioRequest{
			"ransomware": calculateRequest(),
		},
	})
	require.Equal(t, http.StatusOK, rec.Code)

	body := decodeBody(t, rec)
	assert.Greater(t, body["total_ale"].(float64), 0.0)
	assert.Equal(t, "ransomware", body["top_scenario_id"])
	assert.InDelta(t, 100.0, body["top_scenario_share"].(float64), 1e-9)
}

func TestHandleDiversification(t *testing.T) {
	router := testRouter(t, nil)

	phishing := calculateRequest()
	phishing.TEF.Percentiles = PercentileInput{P10: 5, P50: 15, P90: 40}

	rec := postJSON(t, router, "/api/fair/portfolio/diversification", PortfolioMetricsRequest{
		Scenarios: map[string]ScenarioRequest{
			"ransomware": calculateRequest(),
			"phishing":   phishing,
		},
	})
	require.Equal(t, http.StatusOK, rec.Code)

	body := decodeBody(t, rec)
	assert.Greater(t, body["sum_of_individual_p90"].(float64), 0.0)
	assert.Greater(t, body["diversification_benefit"].(float64), 0.0)
}

func TestHandleListFactors(t *testing.T) {
	router := testRouter(t, nil)

	req := httptest.NewRequest(http.MethodGet, "/api/fair/factors", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)

	body := decodeBody(t, rec)
	factors := body["factors"].([]interface{})
	assert.Len(t, factors, 27)
	assert.Contains(t, factors, "tef_p50")
}
