package vault

import (
	"crypto/sha256"
	"errors"
	"fmt"
	"io"

	"golang.org/x/crypto/hkdf"
)

// KeySize is the AES-256 key size in bytes.
const KeySize = aesKeyLen

var (
	// ErrMissingKey indicates an empty master or static key.
	ErrMissingKey = errors.New("vault: missing key")
	// ErrKeyDerivationFailed indicates HKDF could not produce a subkey.
	ErrKeyDerivationFailed = errors.New("vault: key derivation failed")
)

// KeyProvider returns the raw AES key to use for a scope.
type KeyProvider interface {
	Key(scope Scope) ([]byte, error)
}

// StaticKeyProvider returns the same key for every scope.
type StaticKeyProvider struct {
	// KeyBytes is the raw AES key material.
	KeyBytes []byte
}

// Key returns a copy of the static key.
func (p StaticKeyProvider) Key(_ Scope) ([]byte, error) {
	if len(p.KeyBytes) == 0 {
		return nil, ErrMissingKey
	}

	k := make([]byte, len(p.KeyBytes))
	copy(k, p.KeyBytes)
	return k, nil
}

// HKDFKeyProvider derives one subkey per purpose from a master key with HKDF-SHA256.
type HKDFKeyProvider struct {
	master []byte
	salt   []byte
}

// NewHKDFKeyProvider builds a provider. The master key must be at least KeySize bytes.
func NewHKDFKeyProvider(master, salt []byte) (*HKDFKeyProvider, error) {
	if len(master) == 0 {
		return nil, ErrMissingKey
	}
	if len(master) < KeySize {
		return nil, fmt.Errorf("vault: master key length %d (want >= %d): %w", len(master), KeySize, ErrInvalidKeyLength)
	}

	return &HKDFKeyProvider{
		master: append([]byte(nil), master...),
		salt:   append([]byte(nil), salt...),
	}, nil
}

// Key derives the subkey for scope.Purpose.
func (p *HKDFKeyProvider) Key(scope Scope) ([]byte, error) {
	if p == nil || len(p.master) == 0 {
		return nil, ErrMissingKey
	}

	r := hkdf.New(sha256.New, p.master, p.salt, []byte("gotfa-vault-v1:"+string(scope.Purpose)))

	key := make([]byte, KeySize)
	if _, err := io.ReadFull(r, key); err != nil {
		return nil, errors.Join(ErrKeyDerivationFailed, err)
	}

	return key, nil
}
