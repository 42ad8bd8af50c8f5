package handlers

import (
	"github.com/go-chi/chi/v5"
)

// RegisterRoutes registers the public price routes
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Route("/crypto", func(r chi.Router) {
		r.Get("/price", h.HandleCryptoPrice) // Quotes (?ids=)
		r.Get("/chart", h.HandleCryptoChart) // History (?id=&days=)
	})
	r.Route("/stock", func(r chi.Router) {
		r.Get("/price", h.HandleStockPrice) // Quotes (?symbols=)
		r.Get("/chart", h.HandleStockChart) // Daily closes (?symbol=&days=)
	})
}

// RegisterStreamRoutes registers long-lived routes. They must not sit behind
// request timeouts or response compression.
func (h *Handler) RegisterStreamRoutes(r chi.Router) {
	r.Get("/prices/stream", h.HandleStream) // Websocket snapshot feed
}

// RegisterProtectedRoutes registers routes that must sit behind
// auth.RequireBearer
func (h *Handler) RegisterProtectedRoutes(r chi.Router) {
	r.Post("/prices/refresh", h.HandleRefresh) // Manual refresh
}
