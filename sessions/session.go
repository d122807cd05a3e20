package sessions

import (
	"context"
	"sync"
	"time"

	"github.com/jrsteele09/go-intercom-bridge/internal/utils"
	"github.com/jrsteele09/go-intercom-bridge/store"
	"github.com/pkg/errors"
	"golang.org/x/oauth2"
)

// AppType selects which of the two upstream path prefixes an account is
// provisioned on. Exactly one is active at a time.
type AppType string

const (
	AppTypeSingle    AppType = "single"
	AppTypeCommunity AppType = "community"
)

// Other returns the alternate variant.
func (a AppType) Other() AppType {
	if a == AppTypeCommunity {
		return AppTypeSingle
	}
	return AppTypeCommunity
}

// PathSegment is the URL fragment that encodes the variant, e.g. "app/single/".
func (a AppType) PathSegment() string {
	return "app/" + string(a) + "/"
}

func parseAppType(s string) AppType {
	if AppType(s) == AppTypeCommunity {
		return AppTypeCommunity
	}
	return AppTypeSingle
}

// TokenPair is the credential set issued by a sign-in or refresh.
type TokenPair struct {
	AuthToken    string `json:"auth_token,omitempty"`
	Token        string `json:"token"`
	RefreshToken string `json:"refresh_token,omitempty"`
}

// Data is a point-in-time copy of a Session.
type Data struct {
	Host             string     // Resolved REST entry point
	Subdomain        string     // Regional routing key
	AppType          AppType    // Active path variant
	AuthToken        string     // Long-lived app auth token
	Token            string     // Bearer session token
	RefreshToken     string     // Used to rotate Token
	PhoneNumber      string     // Account phone number, no country prefix
	CountryCode      string     // Dialling code
	LastTokenRefresh *time.Time // Nil until the first successful refresh
	WaitForImageURL  bool       // Door events wait for the snapshot URL
	RTSPIP           string     // Media server address for camera streams
	ProjectName      string     // Account title reported by the upstream
	State            State      // Authentication state
}

// LastRefresh returns the last refresh time or the zero time.
func (d Data) LastRefresh() time.Time {
	return utils.Value(d.LastTokenRefresh)
}

// Session is the account's live authentication and routing state. It is
// safe for concurrent use.
type Session struct {
	mu   sync.RWMutex
	data Data
}

// New creates a Session seeded with the given values.
func New(data Data) *Session {
	if data.AppType == "" {
		data.AppType = AppTypeSingle
	}
	if data.Subdomain == "" {
		data.Subdomain = DefaultSubdomain
	}
	return &Session{data: data}
}

// DefaultSubdomain is used when no region is known.
const DefaultSubdomain = "ecloud"

// Snapshot returns a copy of the current state.
func (s *Session) Snapshot() Data {
	s.mu.RLock()
	defer s.mu.RUnlock()
	d := s.data
	if d.LastTokenRefresh != nil {
		d.LastTokenRefresh = utils.Ptr(*d.LastTokenRefresh)
	}
	return d
}

func (s *Session) Token() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.data.Token
}

func (s *Session) RefreshToken() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.data.RefreshToken
}

func (s *Session) Host() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.data.Host
}

func (s *Session) Subdomain() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.data.Subdomain
}

func (s *Session) AppType() AppType {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.data.AppType
}

func (s *Session) WaitForImageURL() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.data.WaitForImageURL
}

func (s *Session) SetHost(host string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.data.Host = host
}

func (s *Session) SetSubdomain(subdomain string) {
	if subdomain == "" {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.data.Subdomain = subdomain
}

func (s *Session) SetAppType(appType AppType) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.data.AppType = appType
}

// SwitchAppType flips the active variant and returns the new one.
func (s *Session) SwitchAppType() AppType {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.data.AppType = s.data.AppType.Other()
	return s.data.AppType
}

func (s *Session) SetAccount(phoneNumber, countryCode string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if phoneNumber != "" {
		s.data.PhoneNumber = phoneNumber
	}
	if countryCode != "" {
		s.data.CountryCode = countryCode
	}
}

func (s *Session) SetWaitForImageURL(wait bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.data.WaitForImageURL = wait
}

func (s *Session) SetRTSPIP(ip string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.data.RTSPIP = ip
}

func (s *Session) SetProjectName(name string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.data.ProjectName = name
}

// SetTokenPair applies the non-empty members of pair. Tokens are only ever
// replaced, never cleared.
func (s *Session) SetTokenPair(pair TokenPair) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if pair.AuthToken != "" {
		s.data.AuthToken = pair.AuthToken
	}
	if pair.Token != "" {
		s.data.Token = pair.Token
	}
	if pair.RefreshToken != "" {
		s.data.RefreshToken = pair.RefreshToken
	}
}

func (s *Session) SetLastTokenRefresh(t time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.data.LastTokenRefresh = utils.Ptr(t)
}

// Load overlays persisted values onto the session. Stored tokens are newer
// than configured ones because every refresh writes them back.
func (s *Session) Load(ctx context.Context, repo store.Repo) error {
	var (
		token, refresh, authToken, host, subdomain, appType string
		lastRefresh                                         int64
		wait                                                bool
	)
	strKeys := []struct {
		key string
		out *string
	}{
		{store.KeyToken, &token},
		{store.KeyRefreshToken, &refresh},
		{store.KeyAuthToken, &authToken},
		{store.KeyHost, &host},
		{store.KeySubdomain, &subdomain},
		{store.KeyAppType, &appType},
	}
	for _, k := range strKeys {
		if _, err := repo.Get(ctx, k.key, k.out); err != nil {
			return errors.Wrapf(err, "[Session.Load] %s", k.key)
		}
	}
	hasRefresh, err := repo.Get(ctx, store.KeyLastTokenRefresh, &lastRefresh)
	if err != nil {
		return errors.Wrap(err, "[Session.Load] last_token_refresh")
	}
	hasWait, err := repo.Get(ctx, store.KeyWaitForImageURL, &wait)
	if err != nil {
		return errors.Wrap(err, "[Session.Load] wait_for_image_url")
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if token != "" {
		s.data.Token = token
	}
	if refresh != "" {
		s.data.RefreshToken = refresh
	}
	if authToken != "" {
		s.data.AuthToken = authToken
	}
	if host != "" {
		s.data.Host = host
	}
	if subdomain != "" {
		s.data.Subdomain = subdomain
	}
	if appType != "" {
		s.data.AppType = parseAppType(appType)
	}
	if hasRefresh && lastRefresh > 0 {
		s.data.LastTokenRefresh = utils.Ptr(time.Unix(lastRefresh, 0))
	}
	if hasWait {
		s.data.WaitForImageURL = wait
	}
	return nil
}

// PersistTokens writes the token-bearing keys. Empty values are skipped so a
// partial session can never erase a stored token.
func (s *Session) PersistTokens(ctx context.Context, repo store.Repo) error {
	d := s.Snapshot()
	values := []struct {
		key   string
		value string
	}{
		{store.KeyToken, d.Token},
		{store.KeyRefreshToken, d.RefreshToken},
		{store.KeyAuthToken, d.AuthToken},
	}
	for _, v := range values {
		if v.value == "" {
			continue
		}
		if err := repo.Set(ctx, v.key, v.value); err != nil {
			return errors.Wrapf(err, "[Session.PersistTokens] %s", v.key)
		}
	}
	if d.LastTokenRefresh != nil {
		if err := repo.Set(ctx, store.KeyLastTokenRefresh, d.LastTokenRefresh.Unix()); err != nil {
			return errors.Wrap(err, "[Session.PersistTokens] last_token_refresh")
		}
	}
	return nil
}

// ForgetTokens drops the credentials from memory and deletes the keys
// PersistTokens writes.
func (s *Session) ForgetTokens(ctx context.Context, repo store.Repo) error {
	s.mu.Lock()
	s.data.Token = ""
	s.data.RefreshToken = ""
	s.data.AuthToken = ""
	s.data.LastTokenRefresh = nil
	s.mu.Unlock()

	for _, key := range []string{store.KeyToken, store.KeyRefreshToken, store.KeyAuthToken, store.KeyLastTokenRefresh} {
		if err := repo.Delete(ctx, key); err != nil {
			return errors.Wrapf(err, "[Session.ForgetTokens] %s", key)
		}
	}
	return nil
}

// PersistRouting writes host, subdomain and app type.
func (s *Session) PersistRouting(ctx context.Context, repo store.Repo) error {
	d := s.Snapshot()
	if d.Host != "" {
		if err := repo.Set(ctx, store.KeyHost, d.Host); err != nil {
			return errors.Wrap(err, "[Session.PersistRouting] host")
		}
	}
	if err := repo.Set(ctx, store.KeySubdomain, d.Subdomain); err != nil {
		return errors.Wrap(err, "[Session.PersistRouting] subdomain")
	}
	if err := repo.Set(ctx, store.KeyAppType, string(d.AppType)); err != nil {
		return errors.Wrap(err, "[Session.PersistRouting] app_type")
	}
	return nil
}

// PersistPolicy writes the wait-for-image flag.
func (s *Session) PersistPolicy(ctx context.Context, repo store.Repo) error {
	return errors.Wrap(repo.Set(ctx, store.KeyWaitForImageURL, s.WaitForImageURL()), "[Session.PersistPolicy]")
}

// TokenSource exposes the current bearer token. Expiry is derived from the
// last refresh and the upstream's token lifetime.
func (s *Session) TokenSource(lifetime time.Duration) oauth2.TokenSource {
	return &tokenSource{session: s, lifetime: lifetime}
}

type tokenSource struct {
	session  *Session
	lifetime time.Duration
}

func (ts *tokenSource) Token() (*oauth2.Token, error) {
	d := ts.session.Snapshot()
	if d.Token == "" {
		return nil, errors.New("[tokenSource.Token] no session token")
	}
	tok := &oauth2.Token{
		AccessToken:  d.Token,
		RefreshToken: d.RefreshToken,
		TokenType:    "X-Auth-Token",
	}
	if d.LastTokenRefresh != nil {
		tok.Expiry = d.LastTokenRefresh.Add(ts.lifetime)
	}
	return tok, nil
}
