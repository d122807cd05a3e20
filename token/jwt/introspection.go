package jwt

import (
	"strings"
	"time"

	jwtlib "github.com/golang-jwt/jwt/v5"
	"github.com/pkg/errors"
)

// TokenIntrospection is what the API reports about a bearer token.
// If Active is false the other fields may not be populated.
type TokenIntrospection struct {
	Active bool    `json:"active"`
	Exp    *int64  `json:"exp,omitempty"`
	Iat    *int64  `json:"iat,omitempty"`
	Iss    *string `json:"iss,omitempty"`
	Sub    *string `json:"sub,omitempty"`
	JTI    string  `json:"jti,omitempty"`
}

// RevokedChecker is an interface for checking if a token has been revoked
type RevokedChecker interface {
	IsRevoked(jti string) bool
}

// Inspector verifies bearer tokens signed by a Creator with the same secret.
type Inspector struct {
	secret         []byte
	revokedChecker RevokedChecker
}

func NewInspector(secret string, revokedChecker RevokedChecker) *Inspector {
	return &Inspector{
		secret:         []byte(secret),
		revokedChecker: revokedChecker,
	}
}

func (i *Inspector) parse(rawToken string) (*jwtlib.RegisteredClaims, error) {
	claims := &jwtlib.RegisteredClaims{}
	token, err := jwtlib.ParseWithClaims(rawToken, claims, func(t *jwtlib.Token) (any, error) {
		if _, ok := t.Method.(*jwtlib.SigningMethodHMAC); !ok {
			return nil, errors.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return i.secret, nil
	},
		jwtlib.WithIssuer(Issuer),
		jwtlib.WithTimeFunc(NowTimeFunc),
		jwtlib.WithExpirationRequired(),
	)
	if err != nil {
		return nil, err
	}
	if !token.Valid {
		return nil, errors.New("invalid token")
	}
	return claims, nil
}

// Introspect validates rawToken. An empty, malformed, expired or revoked
// token yields Active=false; only verification failures return an error.
func (i *Inspector) Introspect(rawToken string) (*TokenIntrospection, error) {
	if strings.TrimSpace(rawToken) == "" {
		return &TokenIntrospection{Active: false}, nil
	}

	claims, err := i.parse(rawToken)
	if err != nil {
		return &TokenIntrospection{Active: false}, errors.Wrap(err, "[Inspector.Introspect] token verification failed")
	}

	iss := claims.Issuer
	sub := claims.Subject
	var iat, exp int64
	if claims.IssuedAt != nil {
		iat = claims.IssuedAt.Unix()
	}
	if claims.ExpiresAt != nil {
		exp = claims.ExpiresAt.Unix()
	}

	active := true
	if claims.ID != "" && i.revokedChecker != nil && i.revokedChecker.IsRevoked(claims.ID) {
		active = false
	}

	return &TokenIntrospection{
		Active: active,
		Exp:    &exp,
		Iat:    &iat,
		Iss:    &iss,
		Sub:    &sub,
		JTI:    claims.ID,
	}, nil
}

// ParseAndExtractJTI verifies rawToken and returns the values needed to
// revoke it.
func (i *Inspector) ParseAndExtractJTI(rawToken string) (jti string, exp time.Time, err error) {
	claims, err := i.parse(rawToken)
	if err != nil {
		return "", time.Time{}, errors.Wrap(err, "[Inspector.ParseAndExtractJTI] invalid token")
	}
	if claims.ID == "" {
		return "", time.Time{}, errors.New("[Inspector.ParseAndExtractJTI] token missing jti claim")
	}
	return claims.ID, claims.ExpiresAt.Time, nil
}
