package vault

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
)

// Envelope format (binary, then base64 std encoded):
// [0..1]   uint16 version (currently 1)
// [2..13]  12-byte nonce
// [14..]   gcm.Seal output (ciphertext + tag)
const envelopeVersion uint16 = 1

const (
	gcmNonceSize = 12
	aesKeyLen    = 32
	headerLen    = 2 + gcmNonceSize
)

var (
	// ErrVaultNotConfigured indicates a missing key provider.
	ErrVaultNotConfigured = errors.New("vault: key provider not configured")
	// ErrInvalidKeyLength indicates the key length is not 32 bytes.
	ErrInvalidKeyLength = errors.New("vault: invalid key length")
	// ErrEnvelopeTooShort indicates a truncated envelope.
	ErrEnvelopeTooShort = errors.New("vault: envelope too short")
	// ErrUnsupportedVersion indicates an unknown envelope version.
	ErrUnsupportedVersion = errors.New("vault: unsupported envelope version")
	// ErrMalformedEnvelope indicates the stored text is not valid base64.
	ErrMalformedEnvelope = errors.New("vault: malformed envelope")
	// ErrRevealFailed indicates authentication of the envelope failed.
	ErrRevealFailed = errors.New("vault: reveal failed")
	// ErrNotProtectedByVault indicates a value flagged as protected reached a vault that never protects.
	ErrNotProtectedByVault = errors.New("vault: value is flagged as protected but no cipher is configured")
)

// AESGCM implements Vault with AES-256-GCM.
type AESGCM struct {
	keys KeyProvider
	rand io.Reader
}

// NewAESGCM constructs an AES-GCM vault.
func NewAESGCM(keys KeyProvider) *AESGCM {
	return &AESGCM{keys: keys, rand: rand.Reader}
}

// Protect seals plain and returns the base64 envelope.
func (v *AESGCM) Protect(plain string, scope Scope) (string, bool, error) {
	if plain == "" {
		return "", false, nil
	}

	gcm, err := v.cipher(scope)
	if err != nil {
		return "", false, err
	}

	nonce := make([]byte, gcmNonceSize)
	if _, err := io.ReadFull(v.rand, nonce); err != nil {
		return "", false, fmt.Errorf("vault: nonce generation failed: %w", err)
	}

	sealed := gcm.Seal(nil, nonce, []byte(plain), scopeAAD(scope))

	out := make([]byte, headerLen+len(sealed))
	binary.BigEndian.PutUint16(out[0:2], envelopeVersion)
	copy(out[2:headerLen], nonce)
	copy(out[headerLen:], sealed)

	return base64.StdEncoding.EncodeToString(out), true, nil
}

// Reveal opens a base64 envelope. Unprotected values are returned unchanged.
func (v *AESGCM) Reveal(stored string, protected bool, scope Scope) (string, error) {
	if !protected || stored == "" {
		return stored, nil
	}

	raw, err := base64.StdEncoding.DecodeString(stored)
	if err != nil {
		return "", ErrMalformedEnvelope
	}
	if len(raw) < headerLen+1 {
		return "", ErrEnvelopeTooShort
	}

	if version := binary.BigEndian.Uint16(raw[0:2]); version != envelopeVersion {
		return "", fmt.Errorf("vault: envelope version %d: %w", version, ErrUnsupportedVersion)
	}

	gcm, err := v.cipher(scope)
	if err != nil {
		return "", err
	}

	plain, err := gcm.Open(nil, raw[2:headerLen], raw[headerLen:], scopeAAD(scope))
	if err != nil {
		// the cause of an authentication failure is not reported
		return "", ErrRevealFailed
	}

	return string(plain), nil
}

func (v *AESGCM) cipher(scope Scope) (cipher.AEAD, error) {
	if v == nil || v.keys == nil {
		return nil, ErrVaultNotConfigured
	}

	key, err := v.keys.Key(scope)
	if err != nil {
		return nil, fmt.Errorf("vault: key provider error: %w", err)
	}
	if len(key) != aesKeyLen {
		return nil, fmt.Errorf("vault: key length %d (want %d): %w", len(key), aesKeyLen, ErrInvalidKeyLength)
	}

	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, fmt.Errorf("vault: aes init failed: %w", err)
	}

	gcm, err := cipher.NewGCMWithNonceSize(block, gcmNonceSize)
	if err != nil {
		return nil, fmt.Errorf("vault: gcm init failed: %w", err)
	}

	return gcm, nil
}

// scopeAAD hashes a labelled canonical form so the AAD has a fixed length
// and no separator ambiguity.
func scopeAAD(s Scope) []byte {
	sum := sha256.Sum256(fmt.Appendf(nil, "uid=%d\npurpose=%s\n", s.UserID, s.Purpose))
	return sum[:]
}
