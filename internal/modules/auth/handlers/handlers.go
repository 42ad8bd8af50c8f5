// Package handlers provides HTTP handlers for account registration and login.
package handlers

import (
	"net/http"

	"github.com/rs/zerolog"

	"github.com/aristath/folio/internal/httputil"
	"github.com/aristath/folio/internal/modules/auth"
)

// Handler handles auth HTTP requests
type Handler struct {
	service *auth.Service
	log     zerolog.Logger
}

// NewHandler creates a new auth handler
func NewHandler(service *auth.Service, log zerolog.Logger) *Handler {
	return &Handler{
		service: service,
		log:     log.With().Str("handler", "auth").Logger(),
	}
}

type registerRequest struct {
	Email    string `json:"email"`
	Name     string `json:"name"`
	Password string `json:"password"`
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// HandleRegister creates an account
func (h *Handler) HandleRegister(w http.ResponseWriter, r *http.Request) {
	var req registerRequest
	if err := httputil.DecodeJSON(r, &req); err != nil {
		httputil.WriteError(w, r, h.log, err)
		return
	}

	userID, err := h.service.Register(r.Context(), req.Email, req.Name, req.Password)
	if err != nil {
		httputil.WriteError(w, r, h.log, err)
		return
	}

	h.log.Info().Int64("user_id", userID).Msg("Registered user")
	httputil.WriteSuccess(w, h.log, map[string]interface{}{
		"message": "User registered successfully",
		"userId":  userID,
	})
}

// HandleLogin exchanges credentials for a bearer token
func (h *Handler) HandleLogin(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := httputil.DecodeJSON(r, &req); err != nil {
		httputil.WriteError(w, r, h.log, err)
		return
	}

	result, err := h.service.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		httputil.WriteError(w, r, h.log, err)
		return
	}

	httputil.WriteSuccess(w, h.log, map[string]interface{}{
		"token": result.Token,
		"user": map[string]interface{}{
			"id":    result.User.ID,
			"email": result.User.Email,
			"name":  result.User.Name,
		},
	})
}
