package server

import (
	"context"
	"net/http"
	"strings"

	"github.com/jrsteele09/go-intercom-bridge/token/jwt"
	"github.com/rs/zerolog/log"
)

// ContextKey is a custom type for context keys to avoid collisions
type ContextKey string

const (
	// ContextKeyClaims stores the introspected bearer token
	ContextKeyClaims ContextKey = "claims"
)

// ClaimsFromContext returns the bearer token details RequireAuth stored.
func ClaimsFromContext(ctx context.Context) (*jwt.TokenIntrospection, bool) {
	claims, ok := ctx.Value(ContextKeyClaims).(*jwt.TokenIntrospection)
	return claims, ok
}

// bearerToken reads the Authorization header, falling back to the
// access_token query parameter for websocket clients that cannot set headers.
func bearerToken(r *http.Request) (string, string) {
	authHeader := r.Header.Get("Authorization")
	if authHeader == "" {
		if q := r.URL.Query().Get("access_token"); q != "" {
			return q, ""
		}
		return "", "Missing Authorization header"
	}

	parts := strings.SplitN(authHeader, " ", 2)
	if len(parts) != 2 || strings.ToLower(parts[0]) != "bearer" {
		return "", "Invalid Authorization header format"
	}
	if strings.TrimSpace(parts[1]) == "" {
		return "", "Empty token"
	}
	return strings.TrimSpace(parts[1]), ""
}

// RequireAuth is middleware that validates a Bearer access token.
// It passes everything through when no API secret is configured.
func (s *Server) RequireAuth() func(http.HandlerFunc) http.HandlerFunc {
	return func(next http.HandlerFunc) http.HandlerFunc {
		return func(w http.ResponseWriter, r *http.Request) {
			if s.inspector == nil {
				next(w, r)
				return
			}

			token, problem := bearerToken(r)
			if problem != "" {
				writeJSONError(w, "unauthorized", problem, http.StatusUnauthorized)
				return
			}

			claims, err := s.inspector.Introspect(token)
			if err != nil {
				log.Debug().Err(err).Str("path", r.URL.Path).Msg("bearer token rejected")
				writeJSONError(w, "unauthorized", "Invalid token", http.StatusUnauthorized)
				return
			}
			if !claims.Active {
				writeJSONError(w, "unauthorized", "Token revoked", http.StatusUnauthorized)
				return
			}

			next(w, r.WithContext(context.WithValue(r.Context(), ContextKeyClaims, claims)))
		}
	}
}
