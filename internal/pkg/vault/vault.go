package vault

// Purpose identifies what a protected value is used for.
type Purpose string

const (
	// PurposeTOTPSecret scopes protection to TOTP shared secrets.
	PurposeTOTPSecret Purpose = "totp_secret"
)

// Scope binds a protected value to its owner and purpose.
// AES-GCM uses it as additional authenticated data.
type Scope struct {
	// UserID is the owner of the value.
	UserID int64
	// Purpose is the protection purpose.
	Purpose Purpose
}

// Vault reversibly protects secrets at rest.
//
// Reveal(Protect(x)) must return x for every non-empty x when the same scope
// is used. Protecting an empty value is a no-op that reports transformed=false.
type Vault interface {
	// Protect returns the stored form of plain and whether it was transformed.
	Protect(plain string, scope Scope) (stored string, transformed bool, err error)
	// Reveal returns the plain form of stored. When protected is false stored is returned as is.
	Reveal(stored string, protected bool, scope Scope) (string, error)
}

// Passthrough is the identity vault. Values are stored unmodified.
type Passthrough struct{}

// NewPassthrough returns the identity vault.
func NewPassthrough() *Passthrough {
	return &Passthrough{}
}

// Protect returns plain unchanged with transformed=false.
func (Passthrough) Protect(plain string, _ Scope) (string, bool, error) {
	return plain, false, nil
}

// Reveal returns stored unchanged. A value flagged as protected cannot be
// revealed because this vault never protects anything.
func (Passthrough) Reveal(stored string, protected bool, _ Scope) (string, error) {
	if protected && stored != "" {
		return "", ErrNotProtectedByVault
	}
	return stored, nil
}
