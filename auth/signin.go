package auth

import (
	"context"
	"encoding/json"
	"net/http"
	"net/url"

	"github.com/jrsteele09/go-intercom-bridge/directory"
	"github.com/jrsteele09/go-intercom-bridge/gateway"
	internalerrors "github.com/jrsteele09/go-intercom-bridge/internal/errors"
	"github.com/jrsteele09/go-intercom-bridge/internal/utils"
	"github.com/jrsteele09/go-intercom-bridge/sessions"
	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"
)

// FetchRestServer resolves the account's REST host from the bootstrap
// server and stores it on the session.
func (s *Service) FetchRestServer(ctx context.Context) (bool, error) {
	res, err := s.sender.Send(ctx, gateway.Request{
		Method:  http.MethodGet,
		URL:     s.endpoints.RestServerURL(gateway.APIRestServerData),
		Headers: gateway.BootstrapHeaders(gateway.RestServerAPIVersion),
	})
	if err != nil {
		return false, errors.Wrap(err, "[FetchRestServer]")
	}
	data, err := res.Object()
	if err != nil {
		return false, errors.Wrap(err, "[FetchRestServer]")
	}
	host := utils.AnyToString(data["rest_server_https"])
	if host == "" {
		return false, errors.Wrap(internalerrors.ErrProtocol, "[FetchRestServer] rest_server_https missing")
	}

	s.session.SetHost(host)
	if err := s.session.PersistRouting(ctx, s.repos.Store); err != nil {
		log.Err(err).Msg("failed to persist rest server")
	}
	log.Info().Str("host", host).Msg("resolved rest server")
	return true, nil
}

func (s *Service) ensureHost(ctx context.Context) error {
	if s.session.Host() != "" {
		return nil
	}
	_, err := s.FetchRestServer(ctx)
	return err
}

// SendSmsCode asks the upstream to text a one-time code to the phone. It
// reports true only on the upstream's explicit success code.
func (s *Service) SendSmsCode(ctx context.Context, countryCode, phoneNumber, subdomain string) (bool, error) {
	if phoneNumber == "" {
		return false, internalerrors.ErrMissingPhone
	}
	if countryCode == "" {
		return false, internalerrors.ErrMissingCountry
	}
	s.session.SetAccount(phoneNumber, countryCode)
	s.session.SetSubdomain(subdomain)

	if err := s.ensureHost(ctx); err != nil {
		return false, errors.Wrap(err, "[SendSmsCode] resolving host")
	}
	host := s.session.Host()

	form := url.Values{}
	form.Set("AreaCode", countryCode)
	form.Set("MobileNumber", phoneNumber)
	form.Set("Type", "0")

	res, err := s.sender.Send(ctx, gateway.Request{
		Method:  http.MethodPost,
		URL:     s.endpoints.HostURL(host, gateway.APISendSMS),
		Headers: gateway.FormHeaders(host, "", ""),
		Body:    []byte(form.Encode()),
	})
	if err != nil {
		return false, errors.Wrap(err, "[SendSmsCode]")
	}
	if res.Envelope != gateway.EnvelopeResult {
		return false, errors.Wrap(internalerrors.ErrSmsRequestError, "[SendSmsCode]")
	}

	if err := s.session.Transition(sessions.StateAwaitingCode, true); err != nil {
		log.Warn().Err(err).Msg("unexpected auth state on sms request")
	}
	log.Info().Str("subdomain", s.session.Subdomain()).Msg("sms code requested")
	return true, nil
}

// ValidateSmsCode exchanges a one-time code for a token pair. The session is
// left untouched.
func (s *Service) ValidateSmsCode(ctx context.Context, phoneNumber, countryCode, code string) (*sessions.TokenPair, error) {
	login, err := s.validateSmsCode(ctx, phoneNumber, countryCode, code)
	if err != nil {
		return nil, err
	}
	return &login.TokenPair, nil
}

func (s *Service) validateSmsCode(ctx context.Context, phoneNumber, countryCode, code string) (*loginResponse, error) {
	if phoneNumber == "" {
		return nil, internalerrors.ErrMissingPhone
	}
	if countryCode == "" {
		return nil, internalerrors.ErrMissingCountry
	}
	obfuscated, err := sessions.ObfuscatePhoneNumber(phoneNumber)
	if err != nil {
		return nil, errors.Wrap(internalerrors.ErrMissingPhone, err.Error())
	}

	params := url.Values{}
	params.Set("phone", obfuscated)
	params.Set("code", code)
	params.Set("area_code", countryCode)

	res, err := s.sender.Send(ctx, gateway.Request{
		Method:  http.MethodGet,
		URL:     s.endpoints.RestServerURL(gateway.APISMSLogin) + "?" + params.Encode(),
		Headers: gateway.BootstrapHeaders(gateway.SMSLoginAPIVersion),
	})
	if err != nil {
		if errors.Is(err, internalerrors.ErrProtocol) {
			return nil, errors.Wrap(internalerrors.ErrInvalidSmsCode, err.Error())
		}
		return nil, errors.Wrap(err, "[ValidateSmsCode]")
	}
	data, err := res.Object()
	if err != nil {
		return nil, errors.Wrap(internalerrors.ErrInvalidSmsCode, err.Error())
	}
	login := parseLogin(data)
	if login.Token == "" {
		return nil, errors.Wrap(internalerrors.ErrInvalidSmsCode, "[ValidateSmsCode] no token in response")
	}
	return &login, nil
}

// SignInWithSmsCode validates the code, installs the new tokens and pulls the
// account's devices.
func (s *Service) SignInWithSmsCode(ctx context.Context, phoneNumber, countryCode, code string) (bool, error) {
	s.session.SetAccount(phoneNumber, countryCode)
	login, err := s.validateSmsCode(ctx, phoneNumber, countryCode, code)
	if err != nil {
		return false, err
	}
	s.applyLogin(*login)
	if login.RefreshToken == "" {
		log.Warn().Msg("no refresh token in sms login response")
	}
	if err := s.completeSignIn(ctx); err != nil {
		return false, err
	}
	log.Info().Msg("signed in with sms code")
	return true, nil
}

// SignInWithTokens validates externally supplied tokens with a servers list
// probe.
func (s *Service) SignInWithTokens(ctx context.Context, authToken, token string) (bool, error) {
	if token == "" {
		return false, internalerrors.ErrMissingToken
	}
	s.session.SetTokenPair(sessions.TokenPair{AuthToken: authToken, Token: token})
	if err := s.ServersList(ctx); err != nil {
		return false, err
	}
	if err := s.completeSignIn(ctx); err != nil {
		return false, err
	}
	log.Info().Msg("signed in with tokens")
	return true, nil
}

func (s *Service) completeSignIn(ctx context.Context) error {
	s.session.SetLastTokenRefresh(s.nowTime())
	if err := s.session.Transition(sessions.StateFresh, true); err != nil {
		return errors.Wrap(err, "[completeSignIn]")
	}
	if err := s.session.PersistTokens(ctx, s.repos.Store); err != nil {
		return errors.Wrap(err, "[completeSignIn] persisting tokens")
	}
	if err := s.RetrieveDeviceData(ctx); err != nil {
		log.Warn().Err(err).Msg("device data unavailable after sign in")
	}
	if err := s.RetrieveTempKeys(ctx); err != nil {
		log.Warn().Err(err).Msg("temp keys unavailable after sign in")
	}
	return nil
}

// SignOut forgets the account's tokens and returns the session to
// unauthenticated. Routing state is kept for the next sign-in.
func (s *Service) SignOut(ctx context.Context) error {
	if err := s.session.ForgetTokens(ctx, s.repos.Store); err != nil {
		return errors.Wrap(err, "[SignOut]")
	}
	if err := s.session.Transition(sessions.StateUnauthenticated, true); err != nil {
		return errors.Wrap(err, "[SignOut]")
	}
	log.Info().Msg("signed out")
	return nil
}

// StoredKeys lists the keys currently persisted for the account.
func (s *Service) StoredKeys(ctx context.Context) ([]string, error) {
	keys, err := s.repos.Store.Keys(ctx)
	return keys, errors.Wrap(err, "[StoredKeys]")
}

// ServersList is the generic token validity probe. A successful response
// carries the current token set and the media server address.
func (s *Service) ServersList(ctx context.Context) error {
	d := s.session.Snapshot()
	if d.Token == "" {
		return errors.Wrap(internalerrors.ErrMissingToken, "[ServersList]")
	}

	user := ""
	if d.PhoneNumber != "" {
		obfuscated, err := sessions.ObfuscatePhoneNumber(d.PhoneNumber)
		if err != nil {
			return errors.Wrap(internalerrors.ErrConfiguration, err.Error())
		}
		user = obfuscated
	} else {
		log.Warn().Msg("servers list requested without a phone number")
	}

	body, err := json.Marshal(map[string]string{"token": d.Token, "user": user})
	if err != nil {
		return errors.Wrap(err, "[ServersList] encoding body")
	}

	res, err := s.sender.Send(ctx, gateway.Request{
		Method:  http.MethodPost,
		URL:     s.endpoints.GateURL(gateway.APIServersList),
		Headers: gateway.GateHeaders(d.Token),
		Body:    body,
	})
	if err != nil {
		if errors.Is(err, internalerrors.ErrProtocol) {
			return errors.Wrap(internalerrors.ErrAuthentication, err.Error())
		}
		return errors.Wrap(err, "[ServersList]")
	}
	data, err := res.Object()
	if err != nil {
		return errors.Wrap(internalerrors.ErrAuthentication, err.Error())
	}

	s.applyLogin(parseLogin(data))
	if err := s.session.PersistTokens(ctx, s.repos.Store); err != nil {
		log.Err(err).Msg("failed to persist tokens from servers list")
	}
	log.Debug().Str("token", utils.Mask(s.session.Token())).Msg("servers list validated token")
	return nil
}

type loginResponse struct {
	sessions.TokenPair
	RTMPServer string
}

func parseLogin(data map[string]any) loginResponse {
	return loginResponse{
		TokenPair: sessions.TokenPair{
			AuthToken:    utils.AnyToString(data["auth_token"]),
			Token:        utils.AnyToString(data["token"]),
			RefreshToken: utils.AnyToString(data["refresh_token"]),
		},
		RTMPServer: utils.AnyToString(data["rtmp_server"]),
	}
}

func (s *Service) applyLogin(login loginResponse) {
	s.session.SetTokenPair(login.TokenPair)
	if login.RTMPServer != "" {
		s.session.SetRTSPIP(directory.RTSPIPFromServer(login.RTMPServer))
	}
}
