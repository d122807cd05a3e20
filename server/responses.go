package server

import (
	"encoding/json"
	"net/http"

	internalerrors "github.com/jrsteele09/go-intercom-bridge/internal/errors"
	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"
)

func writeJSON(w http.ResponseWriter, v any, statusCode int) {
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Cache-Control", "no-store")
	w.WriteHeader(statusCode)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Err(err).Msg("failed to write json response")
	}
}

func writeJSONError(w http.ResponseWriter, errorCode, description string, statusCode int) {
	writeJSON(w, map[string]string{
		"error":             errorCode,
		"error_description": description,
	}, statusCode)
}

// decodeJSON reads a bounded JSON body into out.
func decodeJSON(w http.ResponseWriter, r *http.Request, out any) error {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, 64<<10))
	dec.DisallowUnknownFields()
	if err := dec.Decode(out); err != nil {
		return errors.Wrap(err, "invalid request body")
	}
	return nil
}

// writeBridgeError maps the bridge's error taxonomy onto HTTP.
func writeBridgeError(w http.ResponseWriter, r *http.Request, err error) {
	var (
		code   string
		status int
	)
	switch {
	case internalerrors.Is(err, internalerrors.ErrDegraded):
		code, status = "degraded", http.StatusServiceUnavailable
	case internalerrors.Is(err, internalerrors.ErrNotFound):
		code, status = "not_found", http.StatusNotFound
	case internalerrors.Is(err, internalerrors.ErrConfiguration),
		internalerrors.Is(err, internalerrors.ErrInvalidSmsCode):
		code, status = "invalid_request", http.StatusBadRequest
	case internalerrors.Is(err, internalerrors.ErrNoRefreshToken),
		internalerrors.Is(err, internalerrors.ErrNotRunning):
		code, status = "conflict", http.StatusConflict
	case internalerrors.Is(err, internalerrors.ErrCommunication):
		code, status = "upstream_unreachable", http.StatusGatewayTimeout
	case internalerrors.Is(err, internalerrors.ErrAuthentication),
		internalerrors.Is(err, internalerrors.ErrSmsRequestError),
		internalerrors.Is(err, internalerrors.ErrProtocol):
		code, status = "upstream_error", http.StatusBadGateway
	default:
		code, status = "server_error", http.StatusInternalServerError
	}
	logError(r.Method, r.URL.Path, err.Error())
	writeJSONError(w, code, err.Error(), status)
}
