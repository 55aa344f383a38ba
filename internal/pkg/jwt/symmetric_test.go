package jwt_test

import (
	"bytes"
	"context"
	"testing"
	"time"

	"github.com/shandysiswandi/gotfa/internal/pkg/jwt"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fixedClock struct{ now time.Time }

func (c *fixedClock) Now() time.Time { return c.now }

type fixedID string

func (f fixedID) Generate() string { return string(f) }

func newHS512(t *testing.T, clk *fixedClock) *jwt.Symmetric {
	t.Helper()

	j, err := jwt.NewHS512(jwt.Config{
		Secret:    bytes.Repeat([]byte("k"), 64),
		Issuer:    "gotfa",
		Audiences: []string{"gotfa-api"},
		TTL:       15 * time.Minute,
		Clock:     clk,
		UUID:      fixedID("jti-1"),
	})
	require.NoError(t, err)
	return j
}

func TestNewHS512_ShortKey(t *testing.T) {
	t.Parallel()

	_, err := jwt.NewHS512(jwt.Config{Secret: []byte("short")})
	assert.ErrorIs(t, err, jwt.ErrSigningKeyTooShort)
}

func TestSymmetric_GenerateVerify(t *testing.T) {
	t.Parallel()

	clk := &fixedClock{now: time.Now().Truncate(time.Second)}
	j := newHS512(t, clk)

	token, err := j.Generate(jwt.Subject{UserID: 42, Email: "a@b.c", TFAVerified: true})
	require.NoError(t, err)

	claims, err := j.Verify(token)
	require.NoError(t, err)
	assert.Equal(t, int64(42), claims.UserID)
	assert.Equal(t, "a@b.c", claims.UserEmail)
	assert.True(t, claims.TFAVerified)
	assert.Equal(t, "jti-1", claims.SessionID())
	assert.Equal(t, "42", claims.Subject)
}

func TestSymmetric_Expired(t *testing.T) {
	t.Parallel()

	clk := &fixedClock{now: time.Now().Truncate(time.Second)}
	j := newHS512(t, clk)

	token, err := j.Generate(jwt.Subject{UserID: 1})
	require.NoError(t, err)

	clk.now = clk.now.Add(time.Hour)
	_, err = j.Verify(token)
	assert.ErrorIs(t, err, jwt.ErrTokenExpired)
}

func TestSymmetric_Invalid(t *testing.T) {
	t.Parallel()

	clk := &fixedClock{now: time.Now().Truncate(time.Second)}
	j := newHS512(t, clk)

	other, err := jwt.NewHS512(jwt.Config{
		Secret:    bytes.Repeat([]byte("x"), 64),
		Issuer:    "gotfa",
		Audiences: []string{"gotfa-api"},
		TTL:       time.Minute,
		Clock:     clk,
		UUID:      fixedID("jti-2"),
	})
	require.NoError(t, err)

	token, err := other.Generate(jwt.Subject{UserID: 1})
	require.NoError(t, err)

	_, err = j.Verify(token)
	assert.ErrorIs(t, err, jwt.ErrInvalidToken)

	_, err = j.Verify("not-a-token")
	assert.ErrorIs(t, err, jwt.ErrInvalidToken)
}

func TestAuthContext(t *testing.T) {
	t.Parallel()

	assert.Nil(t, jwt.GetAuth(context.Background()))

	var nilClaims *jwt.Claims
	assert.Empty(t, nilClaims.SessionID())

	ctx := jwt.SetAuth(context.Background(), jwt.Claims{UserID: 9})
	got := jwt.GetAuth(ctx)
	require.NotNil(t, got)
	assert.Equal(t, int64(9), got.UserID)
}
