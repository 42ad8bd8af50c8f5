// Package httputil holds the JSON envelope shared by every handler:
// {"success": true, ...} on success and {"success": false, "error": "..."} on
// failure.
package httputil

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog"

	"github.com/aristath/folio/internal/domain"
)

const maxBodyBytes = 1 << 20

// WriteJSON writes data with the given status.
func WriteJSON(w http.ResponseWriter, log zerolog.Logger, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		log.Error().Err(err).Msg("Failed to encode JSON response")
	}
}

// WriteSuccess writes a 200 envelope with success=true merged into fields.
func WriteSuccess(w http.ResponseWriter, log zerolog.Logger, fields map[string]interface{}) {
	body := make(map[string]interface{}, len(fields)+1)
	for k, v := range fields {
		body[k] = v
	}
	body["success"] = true
	WriteJSON(w, log, http.StatusOK, body)
}

// WriteError classifies err, logs it and writes the failure envelope. Server
// side failures are reported with a generic message; the detail only goes to
// the log.
func WriteError(w http.ResponseWriter, r *http.Request, log zerolog.Logger, err error) {
	status := StatusFor(err)
	msg := domain.PublicMessage(err, http.StatusText(status))

	event := log.Warn()
	if status >= http.StatusInternalServerError {
		event = log.Error()
		if !isClassified(err) {
			msg = "internal server error"
		}
	}
	event.Err(err).
		Str("request_id", middleware.GetReqID(r.Context())).
		Int("status", status).
		Msg("Request failed")

	WriteJSON(w, log, status, map[string]interface{}{
		"success": false,
		"error":   msg,
	})
}

// StatusFor maps the domain error kinds to HTTP statuses.
func StatusFor(err error) int {
	switch {
	case errors.Is(err, domain.ErrValidation):
		return http.StatusBadRequest
	case errors.Is(err, domain.ErrUnauthorized):
		return http.StatusUnauthorized
	case errors.Is(err, domain.ErrForbidden):
		return http.StatusForbidden
	case errors.Is(err, domain.ErrNotFound), errors.Is(err, domain.ErrNoData):
		return http.StatusNotFound
	case errors.Is(err, domain.ErrUpstream):
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

func isClassified(err error) bool {
	var e *domain.Error
	return errors.As(err, &e)
}

// DecodeJSON reads a JSON request body into dst. Malformed bodies are
// validation errors.
func DecodeJSON(r *http.Request, dst interface{}) error {
	dec := json.NewDecoder(io.LimitReader(r.Body, maxBodyBytes))
	if err := dec.Decode(dst); err != nil {
		if errors.Is(err, io.EOF) {
			return domain.NewValidationError("request body is required")
		}
		return &domain.Error{Kind: domain.ErrValidation, Msg: "invalid JSON body", Err: err}
	}
	return nil
}

// QueryInt64 parses an optional integer query parameter. ok is false when the
// parameter is absent.
func QueryInt64(r *http.Request, name string) (value int64, ok bool, err error) {
	raw := strings.TrimSpace(r.URL.Query().Get(name))
	if raw == "" {
		return 0, false, nil
	}
	v, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return 0, false, domain.NewValidationError(fmt.Sprintf("%s must be an integer", name))
	}
	return v, true, nil
}

// QueryList splits a comma separated query parameter, dropping blanks. The
// fallback is used when the parameter is absent or empty.
func QueryList(r *http.Request, name, fallback string) []string {
	raw := r.URL.Query().Get(name)
	if strings.TrimSpace(raw) == "" {
		raw = fallback
	}
	parts := strings.Split(raw, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

// Number decodes a JSON number or a numeric string. Browser forms tend to
// send the latter.
type Number float64

func (n *Number) UnmarshalJSON(data []byte) error {
	s := strings.TrimSpace(string(data))
	if s == "null" {
		return nil
	}
	s = strings.Trim(s, `"`)
	v, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil {
		return fmt.Errorf("invalid number %s", string(data))
	}
	*n = Number(v)
	return nil
}
