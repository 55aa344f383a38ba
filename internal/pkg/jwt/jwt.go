package jwt

import (
	"context"
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

var (
	ErrInvalidSigningMethod = errors.New("jwt: unexpected signing method")
	ErrSigningKeyTooShort   = errors.New("jwt: HS512 key shorter than 64 bytes")
	ErrTokenExpired         = errors.New("jwt: token expired")
	ErrInvalidToken         = errors.New("jwt: invalid token")
)

// JWT issues step-up tokens and checks bearer tokens.
type JWT interface {
	Generate(sub Subject) (string, error)
	Verify(tokenStr string) (Claims, error)
}

type (
	clocker     interface{ Now() time.Time }
	idGenerator interface{ Generate() string }
)

// Config holds the signing key and the registered claim values stamped on
// every token.
type Config struct {
	Secret    []byte
	Issuer    string
	Audiences []string
	TTL       time.Duration
	Clock     clocker
	// UUID mints the jti.
	UUID idGenerator
}

// Subject describes who a token is minted for.
type Subject struct {
	UserID      int64
	Email       string
	TFAVerified bool
}

// Claims carries the account identity on top of the registered claims.
type Claims struct {
	jwt.RegisteredClaims
	UserID    int64  `json:"user_id,string"`
	UserEmail string `json:"user_email"`
	// TFAVerified marks tokens minted after a passed TOTP check.
	TFAVerified bool `json:"tfa_verified,omitempty"`
}

// SessionID is the jti; enrollment state is keyed by it.
func (c *Claims) SessionID() string {
	if c == nil {
		return ""
	}
	return c.ID
}

type authKey struct{}

// SetAuth attaches verified claims to ctx.
func SetAuth(ctx context.Context, clm Claims) context.Context {
	return context.WithValue(ctx, authKey{}, clm)
}

// GetAuth returns the claims attached by SetAuth, or nil for anonymous calls.
func GetAuth(ctx context.Context) *Claims {
	if clm, ok := ctx.Value(authKey{}).(Claims); ok {
		return &clm
	}
	return nil
}
