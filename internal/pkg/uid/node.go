package uid

import (
	"crypto/sha256"
	"encoding/binary"
	"errors"
	"os"
	"strings"
)

// ErrStableNodeIdentityUnavailable indicates no stable node identity is available.
var ErrStableNodeIdentityUnavailable = errors.New("uid: cannot determine stable node identity (machine-id/hostname unavailable)")

// nodeNumber maps the host identity onto [0, max).
func nodeNumber(max int64) (int64, error) {
	src, err := stableNodeIdentity()
	if err != nil {
		return 0, err
	}

	sum := sha256.Sum256([]byte(src))
	return int64(binary.BigEndian.Uint64(sum[:8]) % uint64(max)), nil
}

// stableNodeIdentity returns /etc/machine-id, falling back to the hostname.
func stableNodeIdentity() (string, error) {
	if b, err := os.ReadFile("/etc/machine-id"); err == nil {
		if s := strings.TrimSpace(string(b)); s != "" {
			return s, nil
		}
	}

	if h, err := os.Hostname(); err == nil {
		if h = strings.TrimSpace(h); h != "" {
			return h, nil
		}
	}

	return "", ErrStableNodeIdentityUnavailable
}
