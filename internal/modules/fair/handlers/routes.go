package handlers

import (
	"github.com/go-chi/chi/v5"
)

// RegisterRoutes registers all FAIR calculation routes
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Route("/fair", func(r chi.Router) {
		r.Post("/calculate", h.HandleCalculate)
		r.Post("/validate", h.HandleValidate)
		r.Post("/sensitivity", h.HandleSensitivity)
		r.Post("/aggregate", h.HandleAggregate)
		r.Get("/factors", h.HandleListFactors)

		r.Route("/portfolio", func(r chi.Router) {
			r.Post("/metrics", h.HandlePortfolioMetrics)
			r.Post("/diversification", h.HandleDiversification)
		})
	})
}
