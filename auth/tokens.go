package auth

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/jrsteele09/go-intercom-bridge/gateway"
	internalerrors "github.com/jrsteele09/go-intercom-bridge/internal/errors"
	"github.com/jrsteele09/go-intercom-bridge/internal/utils"
	"github.com/jrsteele09/go-intercom-bridge/sessions"
	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"
)

const day = 24 * time.Hour

// RefreshToken rotates the token pair. On any failure the current pair is
// left as it was.
func (s *Service) RefreshToken(ctx context.Context) (bool, error) {
	d := s.session.Snapshot()
	if d.RefreshToken == "" {
		return false, internalerrors.ErrNoRefreshToken
	}

	body, err := json.Marshal(map[string]string{"refresh_token": d.RefreshToken})
	if err != nil {
		return false, errors.Wrap(err, "[RefreshToken] encoding body")
	}

	res, err := s.sender.Send(ctx, gateway.Request{
		Method:  http.MethodPost,
		URL:     s.endpoints.GateURL(gateway.APIRefreshToken),
		Headers: gateway.GateHeaders(d.Token),
		Body:    body,
	})
	if err != nil {
		log.Err(err).Msg("token refresh request failed")
		if errors.Is(err, internalerrors.ErrProtocol) {
			return false, errors.Wrap(internalerrors.ErrAuthentication, err.Error())
		}
		return false, errors.Wrap(err, "[RefreshToken]")
	}

	var reply struct {
		ErrCode any            `json:"err_code"`
		Message string         `json:"message"`
		Datas   map[string]any `json:"datas"`
	}
	if err := res.Decode(&reply); err != nil {
		return false, errors.Wrap(internalerrors.ErrAuthentication, err.Error())
	}
	if res.Envelope != gateway.EnvelopeErrCode || reply.Datas == nil {
		log.Error().Str("message", reply.Message).Msg("token refresh rejected")
		return false, errors.Wrap(internalerrors.ErrAuthentication, "[RefreshToken] no token data in response")
	}

	pair := sessions.TokenPair{
		Token:        utils.AnyToString(reply.Datas["token"]),
		RefreshToken: utils.AnyToString(reply.Datas["refresh_token"]),
	}
	s.session.SetTokenPair(pair)
	s.session.SetLastTokenRefresh(s.nowTime())
	if err := s.session.PersistTokens(ctx, s.repos.Store); err != nil {
		return false, errors.Wrap(err, "[RefreshToken] persisting tokens")
	}

	if err := s.session.Transition(sessions.StateFresh, false); err != nil {
		log.Debug().Err(err).Msg("refresh succeeded without changing auth state")
	}
	log.Info().
		Str("old_token", utils.Mask(d.Token)).
		Str("new_token", utils.Mask(s.session.Token())).
		Msg("tokens refreshed")
	return true, nil
}

// CheckAndRefreshIfStale refreshes when the last refresh is unknown or
// older than intervalDays. A fresh session is a successful no-op.
func (s *Service) CheckAndRefreshIfStale(ctx context.Context, intervalDays int) (bool, error) {
	interval := time.Duration(intervalDays) * day
	last := s.session.Snapshot().LastTokenRefresh
	now := s.nowTime()

	if last != nil && now.Sub(*last) < interval {
		remaining := interval - now.Sub(*last)
		log.Debug().Int("days_until_refresh", int(remaining/day)).Msg("tokens are fresh")
		return true, nil
	}

	lastStr := "never"
	if last != nil {
		lastStr = last.Format(time.RFC3339)
	}
	log.Info().Str("last_refresh", lastStr).Msg("token refresh needed")
	if s.session.State() == sessions.StateFresh {
		_ = s.session.Transition(sessions.StateStale, false)
	}
	ok, err := s.RefreshToken(ctx)
	if err == nil {
		return ok, nil
	}
	return false, s.degradeIfRejected(ctx, err)
}

// degradeIfRejected follows a failed refresh with a token probe. When the
// upstream rejects both, the session is Degraded until a manual sign in.
// Transient failures leave the state alone for the next attempt.
func (s *Service) degradeIfRejected(ctx context.Context, refreshErr error) error {
	if !errors.Is(refreshErr, internalerrors.ErrAuthentication) && !errors.Is(refreshErr, internalerrors.ErrNoRefreshToken) {
		return refreshErr
	}

	probeErr := s.ServersList(ctx)
	switch {
	case probeErr == nil:
		log.Warn().Err(refreshErr).Msg("token refresh failed but current token is still accepted")
		return refreshErr
	case errors.Is(probeErr, internalerrors.ErrAuthentication), errors.Is(probeErr, internalerrors.ErrMissingToken):
		_ = s.session.Transition(sessions.StateDegraded, false)
		log.Error().Err(probeErr).Msg("upstream rejected refresh and token, sign in required")
		return errors.Wrap(internalerrors.ErrDegraded, refreshErr.Error())
	default:
		log.Warn().Err(probeErr).Msg("token probe after failed refresh did not complete")
		return refreshErr
	}
}

// UpdateTokens installs a manually supplied token pair, persists it and
// validates it with a user data fetch.
func (s *Service) UpdateTokens(ctx context.Context, token, refreshToken string) (bool, error) {
	if token == "" {
		return false, internalerrors.ErrMissingToken
	}
	s.session.SetTokenPair(sessions.TokenPair{Token: token, RefreshToken: refreshToken})
	if err := s.session.PersistTokens(ctx, s.repos.Store); err != nil {
		return false, errors.Wrap(err, "[UpdateTokens] persisting tokens")
	}
	log.Info().Str("token", utils.Mask(token)).Msg("tokens updated manually")

	if err := s.RetrieveUserData(ctx); err != nil {
		return false, errors.Wrap(err, "[UpdateTokens] validating tokens")
	}
	s.session.SetLastTokenRefresh(s.nowTime())
	if err := s.session.PersistTokens(ctx, s.repos.Store); err != nil {
		log.Err(err).Msg("failed to persist refresh time")
	}
	if err := s.session.Transition(sessions.StateFresh, true); err != nil {
		return false, errors.Wrap(err, "[UpdateTokens]")
	}
	return true, nil
}

// Startup brings a stored session back to life: refresh first, then a
// servers list probe with the existing tokens. When both fail the session is
// Degraded and ErrDegraded is returned; callers keep running.
func (s *Service) Startup(ctx context.Context) error {
	d := s.session.Snapshot()
	if d.Token == "" && d.RefreshToken == "" {
		log.Info().Msg("no stored tokens, waiting for sign in")
		return nil
	}

	authenticated := false
	if ok, err := s.RefreshToken(ctx); ok {
		authenticated = true
	} else {
		log.Warn().Err(err).Msg("startup token refresh failed, validating existing tokens")
		if err := s.ServersList(ctx); err != nil {
			log.Err(err).Msg("existing tokens rejected")
		} else {
			authenticated = true
		}
	}

	if !authenticated {
		_ = s.session.Transition(sessions.StateDegraded, false)
		return errors.Wrap(internalerrors.ErrDegraded, "[Startup]")
	}

	_ = s.session.Transition(sessions.StateFresh, false)
	if err := s.ensureHost(ctx); err != nil {
		log.Warn().Err(err).Msg("rest server unavailable")
	}
	if err := s.RetrieveDeviceData(ctx); err != nil {
		log.Warn().Err(err).Msg("device data unavailable at startup")
	}
	if err := s.RetrieveTempKeys(ctx); err != nil {
		log.Warn().Err(err).Msg("temp keys unavailable at startup")
	}
	return nil
}

// RunRefreshLoop checks token staleness every interval until ctx is done.
// Degraded sessions are skipped; they need a manual sign in.
func (s *Service) RunRefreshLoop(ctx context.Context, every time.Duration, intervalDays int) {
	ticker := time.NewTicker(every)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if s.session.State() == sessions.StateDegraded {
				continue
			}
			_, err := s.CheckAndRefreshIfStale(ctx, intervalDays)
			switch {
			case err == nil || ctx.Err() != nil:
			case internalerrors.IsRetryable(err):
				log.Warn().Err(err).Msg("upstream unreachable, refresh retried next interval")
			default:
				log.Err(err).Msg("scheduled token refresh failed")
			}
		}
	}
}
