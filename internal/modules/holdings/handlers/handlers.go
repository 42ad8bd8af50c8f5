// Package handlers provides HTTP handlers for holdings CRUD and the valued
// portfolio summary.
package handlers

import (
	"math"
	"net/http"

	"github.com/rs/zerolog"

	"github.com/aristath/folio/internal/domain"
	"github.com/aristath/folio/internal/httputil"
	"github.com/aristath/folio/internal/modules/auth"
	"github.com/aristath/folio/internal/modules/holdings"
)

// Handler handles portfolio HTTP requests. Routes must sit behind
// auth.RequireBearer; the principal is the only source of the user id.
type Handler struct {
	service *holdings.Service
	log     zerolog.Logger
}

// NewHandler creates a new portfolio handler
func NewHandler(service *holdings.Service, log zerolog.Logger) *Handler {
	return &Handler{
		service: service,
		log:     log.With().Str("handler", "portfolio").Logger(),
	}
}

// holdingRequest is the body of POST and PUT. A userId in the body is
// accepted for compatibility and ignored.
type holdingRequest struct {
	ID            *httputil.Number `json:"id"`
	UserID        interface{}      `json:"userId"`
	Symbol        string           `json:"symbol"`
	CoinName      string           `json:"coinName"`
	Type          string           `json:"type"`
	Quantity      *httputil.Number `json:"quantity"`
	PurchasePrice *httputil.Number `json:"purchasePrice"`
}

func (req holdingRequest) fields() (domain.HoldingFields, error) {
	if req.Quantity == nil || req.PurchasePrice == nil {
		return domain.HoldingFields{}, domain.NewValidationError("quantity and purchasePrice are required")
	}
	kind, err := domain.ParseAssetKind(req.Type)
	if err != nil {
		return domain.HoldingFields{}, err
	}
	return domain.HoldingFields{
		Symbol:         req.Symbol,
		DisplayName:    req.CoinName,
		Kind:           kind,
		Quantity:       float64(*req.Quantity),
		CostBasisPrice: float64(*req.PurchasePrice),
	}, nil
}

// userID returns the authenticated user. An explicit ?userId must name the
// same user.
func (h *Handler) userID(r *http.Request) (int64, error) {
	principal, ok := auth.PrincipalFrom(r.Context())
	if !ok {
		return 0, domain.NewUnauthorizedError("authentication required")
	}
	requested, present, err := httputil.QueryInt64(r, "userId")
	if err != nil {
		return 0, err
	}
	if present && requested != principal.UserID {
		return 0, domain.NewForbiddenError("cannot access another user's portfolio")
	}
	return principal.UserID, nil
}

// HandleList returns the user's holdings, newest first
func (h *Handler) HandleList(w http.ResponseWriter, r *http.Request) {
	userID, err := h.userID(r)
	if err != nil {
		httputil.WriteError(w, r, h.log, err)
		return
	}

	list, err := h.service.List(r.Context(), userID)
	if err != nil {
		httputil.WriteError(w, r, h.log, err)
		return
	}

	httputil.WriteSuccess(w, h.log, map[string]interface{}{"data": list})
}

// HandleCreate adds a holding
func (h *Handler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	userID, err := h.userID(r)
	if err != nil {
		httputil.WriteError(w, r, h.log, err)
		return
	}

	var req holdingRequest
	if err := httputil.DecodeJSON(r, &req); err != nil {
		httputil.WriteError(w, r, h.log, err)
		return
	}
	fields, err := req.fields()
	if err != nil {
		httputil.WriteError(w, r, h.log, err)
		return
	}

	id, err := h.service.Add(r.Context(), userID, fields)
	if err != nil {
		httputil.WriteError(w, r, h.log, err)
		return
	}

	httputil.WriteSuccess(w, h.log, map[string]interface{}{
		"message": "Added to portfolio",
		"id":      id,
	})
}

// HandleUpdate replaces all editable fields of a holding
func (h *Handler) HandleUpdate(w http.ResponseWriter, r *http.Request) {
	userID, err := h.userID(r)
	if err != nil {
		httputil.WriteError(w, r, h.log, err)
		return
	}

	var req holdingRequest
	if err := httputil.DecodeJSON(r, &req); err != nil {
		httputil.WriteError(w, r, h.log, err)
		return
	}
	id, err := holdingID(req.ID)
	if err != nil {
		httputil.WriteError(w, r, h.log, err)
		return
	}
	fields, err := req.fields()
	if err != nil {
		httputil.WriteError(w, r, h.log, err)
		return
	}

	if err := h.service.Replace(r.Context(), userID, id, fields); err != nil {
		httputil.WriteError(w, r, h.log, err)
		return
	}

	httputil.WriteSuccess(w, h.log, map[string]interface{}{"message": "Portfolio updated successfully"})
}

// HandleDelete removes the holding named by ?id
func (h *Handler) HandleDelete(w http.ResponseWriter, r *http.Request) {
	userID, err := h.userID(r)
	if err != nil {
		httputil.WriteError(w, r, h.log, err)
		return
	}

	id, ok, err := httputil.QueryInt64(r, "id")
	if err == nil && !ok {
		err = domain.NewValidationError("id is required")
	}
	if err != nil {
		httputil.WriteError(w, r, h.log, err)
		return
	}

	if err := h.service.Remove(r.Context(), userID, id); err != nil {
		httputil.WriteError(w, r, h.log, err)
		return
	}

	httputil.WriteSuccess(w, h.log, map[string]interface{}{"message": "Removed from portfolio"})
}

// HandleSummary returns the valued holdings and portfolio totals
func (h *Handler) HandleSummary(w http.ResponseWriter, r *http.Request) {
	userID, err := h.userID(r)
	if err != nil {
		httputil.WriteError(w, r, h.log, err)
		return
	}

	summary, err := h.service.Summary(r.Context(), userID)
	if err != nil {
		httputil.WriteError(w, r, h.log, err)
		return
	}

	httputil.WriteSuccess(w, h.log, map[string]interface{}{"data": summary})
}

func holdingID(n *httputil.Number) (int64, error) {
	if n == nil {
		return 0, domain.NewValidationError("id is required")
	}
	v := float64(*n)
	if v <= 0 || v != math.Trunc(v) || v > math.MaxInt64 {
		return 0, domain.NewValidationError("id must be a positive integer")
	}
	return int64(v), nil
}
