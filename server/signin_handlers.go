package server

import (
	"net/http"
	"strings"

	internalerrors "github.com/jrsteele09/go-intercom-bridge/internal/errors"
	"github.com/jrsteele09/go-intercom-bridge/internal/locations"
)

type smsRequest struct {
	CountryCode string `json:"country_code"`
	PhoneNumber string `json:"phone_number"`
	Subdomain   string `json:"subdomain,omitempty"`
}

type smsVerifyRequest struct {
	CountryCode string `json:"country_code"`
	PhoneNumber string `json:"phone_number"`
	Code        string `json:"code"`
}

type tokenSignInRequest struct {
	AuthToken string `json:"auth_token"`
	Token     string `json:"token"`
}

type updateTokensRequest struct {
	Token        string `json:"token"`
	RefreshToken string `json:"refresh_token"`
}

type outcome struct {
	OK    bool   `json:"ok"`
	State string `json:"state"`
}

func (s *Server) writeOutcome(w http.ResponseWriter, ok bool) {
	writeJSON(w, outcome{OK: ok, State: s.auth.Session().State().String()}, http.StatusOK)
}

// SignInSms asks the upstream to text a code. The subdomain defaults to the
// one for the country code.
func (s *Server) SignInSms() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req smsRequest
		if err := decodeJSON(w, r, &req); err != nil {
			writeJSONError(w, "invalid_request", err.Error(), http.StatusBadRequest)
			return
		}
		cc := strings.TrimPrefix(strings.TrimSpace(req.CountryCode), "+")
		subdomain := strings.TrimSpace(req.Subdomain)
		if subdomain == "" {
			subdomain = locations.SubdomainFor(cc)
		}

		ok, err := s.auth.SendSmsCode(r.Context(), cc, strings.TrimSpace(req.PhoneNumber), subdomain)
		if err != nil {
			writeBridgeError(w, r, err)
			return
		}
		s.writeOutcome(w, ok)
	}
}

func (s *Server) SignInVerify() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req smsVerifyRequest
		if err := decodeJSON(w, r, &req); err != nil {
			writeJSONError(w, "invalid_request", err.Error(), http.StatusBadRequest)
			return
		}
		if strings.TrimSpace(req.Code) == "" {
			writeBridgeError(w, r, internalerrors.ErrInvalidSmsCode)
			return
		}

		cc := strings.TrimPrefix(strings.TrimSpace(req.CountryCode), "+")
		ok, err := s.auth.SignInWithSmsCode(r.Context(), strings.TrimSpace(req.PhoneNumber), cc, strings.TrimSpace(req.Code))
		if err != nil {
			writeBridgeError(w, r, err)
			return
		}
		s.writeOutcome(w, ok)
	}
}

func (s *Server) SignInTokens() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req tokenSignInRequest
		if err := decodeJSON(w, r, &req); err != nil {
			writeJSONError(w, "invalid_request", err.Error(), http.StatusBadRequest)
			return
		}
		if req.Token == "" {
			writeBridgeError(w, r, internalerrors.ErrMissingToken)
			return
		}

		ok, err := s.auth.SignInWithTokens(r.Context(), req.AuthToken, req.Token)
		if err != nil {
			writeBridgeError(w, r, err)
			return
		}
		s.writeOutcome(w, ok)
	}
}

// UpdateTokens replaces the upstream token pair by hand.
func (s *Server) UpdateTokens() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req updateTokensRequest
		if err := decodeJSON(w, r, &req); err != nil {
			writeJSONError(w, "invalid_request", err.Error(), http.StatusBadRequest)
			return
		}
		if req.Token == "" {
			writeBridgeError(w, r, internalerrors.ErrMissingToken)
			return
		}

		ok, err := s.auth.UpdateTokens(r.Context(), req.Token, req.RefreshToken)
		if err != nil {
			writeBridgeError(w, r, err)
			return
		}
		s.writeOutcome(w, ok)
	}
}

// SignOut drops the stored upstream tokens.
func (s *Server) SignOut() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := s.auth.SignOut(r.Context()); err != nil {
			writeBridgeError(w, r, err)
			return
		}
		s.writeOutcome(w, true)
	}
}

func (s *Server) RefreshTokens() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ok, err := s.auth.RefreshToken(r.Context())
		if err != nil {
			writeBridgeError(w, r, err)
			return
		}
		s.writeOutcome(w, ok)
	}
}
