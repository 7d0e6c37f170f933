package server

import (
	"encoding/json"
	"io"
	"net/http"

	"github.com/go-chi/chi/v5/middleware"
	"github.com/jrsteele09/synco-server/internal/errors"
	"github.com/rs/zerolog/log"
)

const (
	contentTypeJSON = "application/json; charset=utf-8"
	maxBodyBytes    = 1 << 20
)

// errorStatus maps the domain error taxonomy onto an HTTP status and an
// OAuth style error code.
func errorStatus(err error) (int, string) {
	switch {
	case errors.Is(err, errors.ErrStateDecode):
		return http.StatusBadRequest, "invalid_state"
	case errors.Is(err, errors.ErrInvalidGrant):
		return http.StatusBadRequest, "invalid_grant"
	case errors.Is(err, errors.ErrProviderReported):
		return http.StatusBadRequest, "access_denied"
	case errors.Is(err, errors.ErrProviderExchange):
		return http.StatusInternalServerError, "provider_error"
	case errors.Is(err, errors.ErrInvalidToken):
		return http.StatusUnauthorized, "invalid_token"
	case errors.Is(err, errors.ErrSessionNotFound):
		return http.StatusUnauthorized, "unauthorized"
	case errors.Is(err, errors.ErrForbidden):
		return http.StatusForbidden, "forbidden"
	case errors.Is(err, errors.ErrUserInactive):
		return http.StatusForbidden, "user_inactive"
	case errors.Is(err, errors.ErrUserNotFound), errors.Is(err, errors.ErrNotFound):
		return http.StatusNotFound, "not_found"
	case errors.Is(err, errors.ErrUnknownRole):
		return http.StatusBadRequest, "invalid_role"
	case errors.Is(err, errors.ErrInvalidRequest):
		return http.StatusBadRequest, "invalid_request"
	default:
		return http.StatusInternalServerError, "server_error"
	}
}

func writeError(w http.ResponseWriter, r *http.Request, err error) {
	status, code := errorStatus(err)
	if status >= http.StatusInternalServerError {
		log.Err(err).Str("request_id", middleware.GetReqID(r.Context())).Str("path", r.URL.Path).Msg("request failed")
	}
	writeJSONError(w, code, err.Error(), status)
}

func writeJSONError(w http.ResponseWriter, errorCode, description string, statusCode int) {
	w.Header().Set("Content-Type", contentTypeJSON)
	w.WriteHeader(statusCode)
	_ = json.NewEncoder(w).Encode(map[string]string{
		"error":             errorCode,
		"error_description": description,
	})
}

func writeJSON(w http.ResponseWriter, statusCode int, v any) {
	w.Header().Set("Content-Type", contentTypeJSON)
	w.Header().Set("Cache-Control", "no-store")
	w.WriteHeader(statusCode)
	_ = json.NewEncoder(w).Encode(v)
}

// decodeJSON reads a JSON request body into v.
func decodeJSON(r *http.Request, v any) error {
	dec := json.NewDecoder(io.LimitReader(r.Body, maxBodyBytes))
	if err := dec.Decode(v); err != nil {
		return errors.Wrapf(errors.ErrInvalidRequest, "malformed JSON body")
	}
	return nil
}
