package server

import (
	"crypto/subtle"
	"net/http"
	"strings"

	"github.com/jrsteele09/go-intercom-bridge/token/jwt"
	"github.com/rs/zerolog/log"
)

type tokenRequest struct {
	Secret  string `json:"secret"`
	Subject string `json:"subject"`
}

type tokenResponse struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
	ExpiresIn   int64  `json:"expires_in"`
}

// IssueToken exchanges the configured API secret for a bearer token.
func (s *Server) IssueToken() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if s.creator == nil {
			writeJSONError(w, "unsupported", "API authentication is disabled", http.StatusNotFound)
			return
		}

		var req tokenRequest
		if err := decodeJSON(w, r, &req); err != nil {
			writeJSONError(w, "invalid_request", err.Error(), http.StatusBadRequest)
			return
		}
		if subtle.ConstantTimeCompare([]byte(req.Secret), []byte(s.config.GetAPISecret())) != 1 {
			log.Warn().Str("remote", r.RemoteAddr).Msg("api token request with wrong secret")
			writeJSONError(w, "invalid_client", "Invalid secret", http.StatusUnauthorized)
			return
		}

		subject := strings.TrimSpace(req.Subject)
		if subject == "" {
			subject = "host"
		}
		raw, err := s.creator.CreateAccessToken(subject)
		if err != nil {
			writeBridgeError(w, r, err)
			return
		}

		log.Info().Str("subject", subject).Msg("api token issued")
		writeJSON(w, tokenResponse{
			AccessToken: *raw,
			TokenType:   "Bearer",
			ExpiresIn:   int64(s.creator.Expiry().Seconds()),
		}, http.StatusOK)
	}
}

// Introspect reports whether the form value token is currently accepted.
func (s *Server) Introspect() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if s.inspector == nil {
			writeJSONError(w, "unsupported", "API authentication is disabled", http.StatusNotFound)
			return
		}
		if err := r.ParseForm(); err != nil {
			writeJSONError(w, "invalid_request", "Failed to parse form data", http.StatusBadRequest)
			return
		}

		introspection, err := s.inspector.Introspect(r.FormValue("token"))
		if err != nil {
			introspection = &jwt.TokenIntrospection{Active: false}
		}
		writeJSON(w, introspection, http.StatusOK)
	}
}

// Revoke blocks the form value token until it would have expired.
func (s *Server) Revoke() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if s.inspector == nil {
			writeJSONError(w, "unsupported", "API authentication is disabled", http.StatusNotFound)
			return
		}
		if err := r.ParseForm(); err != nil {
			writeJSONError(w, "invalid_request", "Failed to parse form data", http.StatusBadRequest)
			return
		}

		raw := r.FormValue("token")
		if raw == "" {
			writeJSONError(w, "invalid_request", "token parameter is required", http.StatusBadRequest)
			return
		}

		jti, exp, err := s.inspector.ParseAndExtractJTI(raw)
		if err != nil {
			writeJSONError(w, "invalid_request", "Invalid token", http.StatusBadRequest)
			return
		}
		if err := s.revoked.Add(jti, exp); err != nil {
			writeBridgeError(w, r, err)
			return
		}

		log.Info().Str("jti", jti).Msg("api token revoked")
		w.WriteHeader(http.StatusNoContent)
	}
}
