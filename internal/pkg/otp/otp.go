package otp

import (
	"crypto/subtle"
	"encoding/base32"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/pquerna/otp"
	"github.com/pquerna/otp/totp"
	"github.com/shandysiswandi/gotfa/internal/pkg/goerror"
)

const (
	// DefaultSecretBits is the secret length used when callers pass a non-positive size.
	DefaultSecretBits = 160
	// MinSecretBits is the smallest secret accepted by GenerateSecret (RFC 4226 section 4).
	MinSecretBits = 80
	// DefaultPeriod is the RFC 6238 time step in seconds.
	DefaultPeriod uint = 30

	fallbackIssuer = "gotfa"
)

var (
	// ErrSecretTooShort is returned when a requested secret is below MinSecretBits.
	ErrSecretTooShort = errors.New("otp: secret must be at least 80 bits")
	// ErrSecretEmpty is returned when a provisioning URI is requested for an empty secret.
	ErrSecretEmpty = errors.New("otp: secret is empty")
	// ErrAccountNameEmpty is returned when a provisioning URI has no account label.
	ErrAccountNameEmpty = errors.New("otp: account name is empty")
)

var b32NoPadding = base32.StdEncoding.WithPadding(base32.NoPadding)

// OTP defines the contract for TOTP operations.
type OTP interface {
	// Issuer returns the label shown by authenticator apps.
	Issuer() string
	// GenerateSecret returns a random base-32 secret of at least lengthBits bits.
	GenerateSecret(lengthBits int) (string, error)
	// Verify checks code against the slices current-discrepancy through
	// current+discrepancy and returns the first slice that matched.
	Verify(code, secret string, discrepancy uint, at time.Time) (valid bool, matchedTimeslice int64)
	// GenerateCode creates a TOTP code for the given secret and time.
	GenerateCode(secret string, at time.Time) (string, error)
	// ProvisioningURI returns the otpauth:// URI for authenticator apps.
	ProvisioningURI(accountName, secret string) (string, error)
	// Timeslice returns the time-step counter for at.
	Timeslice(at time.Time) int64
}

// TOTP implements OTP using the Time-based One-Time Password algorithm.
type TOTP struct {
	issuer string
	period uint
	digits otp.Digits
}

// NewTOTP constructs a TOTP instance.
//
// If digits is not 6 or 8, it falls back to 6 digits. If period is 0, it uses
// the common 30-second period.
func NewTOTP(issuer string, period uint, digits otp.Digits) *TOTP {
	if digits != otp.DigitsSix && digits != otp.DigitsEight {
		digits = otp.DigitsSix
	}

	if period == 0 {
		period = DefaultPeriod
	}

	return &TOTP{
		issuer: strings.TrimSpace(issuer),
		period: period,
		digits: digits,
	}
}

// Issuer returns the label shown by authenticator apps.
func (o *TOTP) Issuer() string {
	if o.issuer == "" {
		return fallbackIssuer
	}
	return o.issuer
}

// GenerateSecret returns a crypto-random base-32 secret without padding.
func (o *TOTP) GenerateSecret(lengthBits int) (string, error) {
	if lengthBits <= 0 {
		lengthBits = DefaultSecretBits
	}
	if lengthBits < MinSecretBits {
		return "", ErrSecretTooShort
	}

	key, err := totp.Generate(totp.GenerateOpts{
		Issuer:      o.Issuer(),
		AccountName: "secret",
		Period:      o.period,
		SecretSize:  uint((lengthBits + 7) / 8),
		Digits:      o.digits,
		Algorithm:   otp.AlgorithmSHA1,
	})
	if err != nil {
		return "", err
	}

	return key.Secret(), nil
}

// Verify checks whether code is valid for secret within the discrepancy window.
//
// Slices are tried in ascending order so the earliest matching slice wins.
// Malformed codes and undecodable secrets never match.
func (o *TOTP) Verify(code, secret string, discrepancy uint, at time.Time) (bool, int64) {
	if !o.wellFormed(code) || secret == "" {
		return false, 0
	}

	current := o.Timeslice(at)
	d := int64(discrepancy)

	for slice := current - d; slice <= current+d; slice++ {
		if slice < 0 {
			continue
		}

		expected, err := o.codeAt(secret, slice)
		if err != nil {
			return false, 0
		}

		if subtle.ConstantTimeCompare([]byte(expected), []byte(code)) == 1 {
			return true, slice
		}
	}

	return false, 0
}

// GenerateCode creates a TOTP code for the given secret and time.
func (o *TOTP) GenerateCode(secret string, at time.Time) (string, error) {
	return totp.GenerateCodeCustom(secret, at, o.validateOpts())
}

// ProvisioningURI builds the otpauth:// URI embedding secret, issuer and account label.
func (o *TOTP) ProvisioningURI(accountName, secret string) (string, error) {
	accountName = strings.TrimSpace(accountName)
	if accountName == "" {
		return "", ErrAccountNameEmpty
	}

	raw, err := decodeSecret(secret)
	if err != nil {
		return "", err
	}

	key, err := totp.Generate(totp.GenerateOpts{
		Issuer:      o.Issuer(),
		AccountName: accountName,
		Period:      o.period,
		Secret:      raw,
		Digits:      o.digits,
		Algorithm:   otp.AlgorithmSHA1,
	})
	if err != nil {
		return "", err
	}

	return key.URL(), nil
}

// Timeslice returns floor(unix(at) / period).
func (o *TOTP) Timeslice(at time.Time) int64 {
	return at.Unix() / int64(o.period)
}

// SelfCheck round-trips a freshly generated secret through code generation
// and verification. A failure means the primitive is unusable.
func (o *TOTP) SelfCheck(at time.Time) error {
	secret, err := o.GenerateSecret(DefaultSecretBits)
	if err != nil {
		return fmt.Errorf("%w: otp generate secret: %w", goerror.ErrDependencyUnavailable, err)
	}

	code, err := o.GenerateCode(secret, at)
	if err != nil {
		return fmt.Errorf("%w: otp generate code: %w", goerror.ErrDependencyUnavailable, err)
	}

	if ok, slice := o.Verify(code, secret, 0, at); !ok || slice != o.Timeslice(at) {
		return fmt.Errorf("%w: otp verify round-trip failed", goerror.ErrDependencyUnavailable)
	}

	return nil
}

func (o *TOTP) codeAt(secret string, slice int64) (string, error) {
	return totp.GenerateCodeCustom(secret, time.Unix(slice*int64(o.period), 0).UTC(), o.validateOpts())
}

func (o *TOTP) validateOpts() totp.ValidateOpts {
	return totp.ValidateOpts{
		Period:    o.period,
		Digits:    o.digits,
		Algorithm: otp.AlgorithmSHA1,
	}
}

func (o *TOTP) wellFormed(code string) bool {
	if len(code) != o.digits.Length() {
		return false
	}

	for i := 0; i < len(code); i++ {
		if code[i] < '0' || code[i] > '9' {
			return false
		}
	}

	return true
}

func decodeSecret(secret string) ([]byte, error) {
	secret = strings.ToUpper(strings.TrimRight(strings.TrimSpace(secret), "="))
	if secret == "" {
		return nil, ErrSecretEmpty
	}

	raw, err := b32NoPadding.DecodeString(secret)
	if err != nil {
		return nil, fmt.Errorf("otp: decode secret: %w", err)
	}

	return raw, nil
}
