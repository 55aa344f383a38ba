package jwt

import (
	"errors"
	"strconv"

	gojwt "github.com/golang-jwt/jwt/v5"
)

const minHS512KeyLen = 64

var _ JWT = (*Symmetric)(nil)

// Symmetric signs and verifies HS512 tokens with a shared secret.
type Symmetric struct {
	cfg    Config
	parser *gojwt.Parser
}

// NewHS512 rejects secrets shorter than the HS512 block size.
func NewHS512(cfg Config) (*Symmetric, error) {
	if len(cfg.Secret) < minHS512KeyLen {
		return nil, ErrSigningKeyTooShort
	}

	opts := []gojwt.ParserOption{
		gojwt.WithValidMethods([]string{gojwt.SigningMethodHS512.Alg()}),
		gojwt.WithIssuer(cfg.Issuer),
		gojwt.WithAudience(cfg.Audiences...),
		gojwt.WithIssuedAt(),
		gojwt.WithExpirationRequired(),
	}
	if cfg.Clock != nil {
		opts = append(opts, gojwt.WithTimeFunc(cfg.Clock.Now))
	}

	return &Symmetric{cfg: cfg, parser: gojwt.NewParser(opts...)}, nil
}

func (s *Symmetric) Generate(sub Subject) (string, error) {
	iat := gojwt.NewNumericDate(s.cfg.Clock.Now())

	claims := Claims{
		RegisteredClaims: gojwt.RegisteredClaims{
			ID:        s.cfg.UUID.Generate(),
			Issuer:    s.cfg.Issuer,
			Subject:   strconv.FormatInt(sub.UserID, 10),
			Audience:  s.cfg.Audiences,
			IssuedAt:  iat,
			NotBefore: iat,
			ExpiresAt: gojwt.NewNumericDate(iat.Add(s.cfg.TTL)),
		},
		UserID:      sub.UserID,
		UserEmail:   sub.Email,
		TFAVerified: sub.TFAVerified,
	}

	return gojwt.NewWithClaims(gojwt.SigningMethodHS512, claims).SignedString(s.cfg.Secret)
}

func (s *Symmetric) keyFunc(t *gojwt.Token) (any, error) {
	if _, ok := t.Method.(*gojwt.SigningMethodHMAC); !ok {
		return nil, ErrInvalidSigningMethod
	}
	return s.cfg.Secret, nil
}

// Verify maps expiry to ErrTokenExpired and every other failure to
// ErrInvalidToken. Tokens without a jti are rejected.
func (s *Symmetric) Verify(tokenStr string) (Claims, error) {
	var claims Claims

	_, err := s.parser.ParseWithClaims(tokenStr, &claims, s.keyFunc)
	switch {
	case errors.Is(err, gojwt.ErrTokenExpired):
		return Claims{}, ErrTokenExpired
	case err != nil:
		return Claims{}, errors.Join(ErrInvalidToken, err)
	case claims.ID == "":
		return Claims{}, ErrInvalidToken
	}

	return claims, nil
}
