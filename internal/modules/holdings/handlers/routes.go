package handlers

import (
	"github.com/go-chi/chi/v5"
)

// RegisterRoutes registers all portfolio routes
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Route("/portfolio", func(r chi.Router) {
		r.Get("/", h.HandleList)           // List holdings
		r.Post("/", h.HandleCreate)        // Add holding
		r.Put("/", h.HandleUpdate)         // Replace holding fields
		r.Delete("/", h.HandleDelete)      // Remove holding (?id=)
		r.Get("/summary", h.HandleSummary) // Valued holdings + totals
	})
}
