package jwt

import (
	"time"

	jwtlib "github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/pkg/errors"
)

// NowTimeFunc returns the current time. It can be overridden in tests.
var NowTimeFunc = time.Now

// Issuer is the iss claim on every bridge API token.
const Issuer = "intercom-bridge"

// Creator signs bearer tokens for the host-facing API.
type Creator struct {
	secret []byte
	expiry time.Duration
}

// NewCreator creates a new JWT creator. An empty secret is rejected because
// HS256 with an empty key verifies anything signed the same way.
func NewCreator(secret string, expiry time.Duration) (*Creator, error) {
	if secret == "" {
		return nil, errors.New("[NewCreator] secret is required")
	}
	if expiry <= 0 {
		return nil, errors.New("[NewCreator] expiry must be positive")
	}
	return &Creator{
		secret: []byte(secret),
		expiry: expiry,
	}, nil
}

// CreateAccessToken issues a token for subject, e.g. the host integration name.
func (c *Creator) CreateAccessToken(subject string) (*string, error) {
	now := NowTimeFunc()
	claims := jwtlib.RegisteredClaims{
		Issuer:    Issuer,
		Subject:   subject,
		IssuedAt:  jwtlib.NewNumericDate(now),
		ExpiresAt: jwtlib.NewNumericDate(now.Add(c.expiry)),
		ID:        uuid.New().String(), // Unique token ID for revocation
	}

	signed, err := jwtlib.NewWithClaims(jwtlib.SigningMethodHS256, claims).SignedString(c.secret)
	if err != nil {
		return nil, errors.Wrap(err, "[Creator.CreateAccessToken] failed to sign token")
	}
	return &signed, nil
}

// Expiry is the lifetime of issued tokens.
func (c *Creator) Expiry() time.Duration {
	return c.expiry
}
