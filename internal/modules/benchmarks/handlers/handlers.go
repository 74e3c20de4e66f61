// Package handlers provides HTTP handlers for benchmark lookups.
package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/rs/zerolog"

	"github.com/quantrisk/fairsim/internal/modules/benchmarks"
)

// Handler handles benchmark HTTP requests.
type Handler struct {
	library *benchmarks.Library
	log     zerolog.Logger
}

// NewHandler creates a new benchmarks handler.
func NewHandler(library *benchmarks.Library, log zerolog.Logger) *Handler {
	return &Handler{
		library: library,
		log:     log.With().Str("handler", "benchmarks").Logger(),
	}
}

// HandleGetLEF handles GET /api/benchmarks/lef?industry=&revenue=
func (h *Handler) HandleGetLEF(w http.ResponseWriter, r *http.Request) {
	industry := r.URL.Query().Get("industry")
	revenue := r.URL.Query().Get("revenue")

	h.writeJSON(w, http.StatusOK, h.library.LEF(industry, revenue))
}

// HandleGetLM handles GET /api/benchmarks/lm?industry=&revenue=
func (h *Handler) HandleGetLM(w http.ResponseWriter, r *http.Request) {
	industry := r.URL.Query().Get("industry")
	revenue := r.URL.Query().Get("revenue")

	h.writeJSON(w, http.StatusOK, h.library.LM(industry, revenue))
}

// HandleGetMetadata handles GET /api/benchmarks/metadata
func (h *Handler) HandleGetMetadata(w http.ResponseWriter, r *http.Request) {
	h.writeJSON(w, http.StatusOK, map[string]interface{}{
		"metadata":   h.library.Metadata(),
		"industries": h.library.Industries(),
	})
}

// writeJSON writes a JSON response
func (h *Handler) writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	if err := json.NewEncoder(w).Encode(data); err != nil {
		h.log.Error().Err(err).Msg("Failed to encode JSON response")
	}
}
