package entity

import (
	"github.com/shandysiswandi/gotfa/internal/pkg/valueobject"
)

const (
	fieldEnabled   = "enabled"
	fieldSecret    = "secret"
	fieldEncrypted = "encrypted"
)

// Settings is the per-user TOTP record.
type Settings struct {
	UserID    int64
	Enabled   bool
	Secret    string // base32, vault-protected when Encrypted
	Encrypted bool
	Timeslice int64 // last accepted slice, never decreases

	// PendingConfirmCode is the code submitted during enrollment confirmation.
	// It is never persisted.
	PendingConfirmCode string
}

// NewSettings returns the default record for a user with no stored row.
func NewSettings(userID int64) *Settings {
	return &Settings{UserID: userID}
}

// EnabledForUser reports whether a confirmed secret is active.
func (s *Settings) EnabledForUser() bool {
	return s != nil && s.Secret != "" && s.Enabled
}

// Fields returns the persisted JSON form of the record.
func (s *Settings) Fields() valueobject.JSONMap {
	return valueobject.JSONMap{
		fieldEnabled:   s.Enabled,
		fieldSecret:    s.Secret,
		fieldEncrypted: s.Encrypted,
	}
}

// SettingsFromFields decodes a stored record. Flags are true only when the
// stored value is the JSON boolean true.
func SettingsFromFields(userID int64, fields valueobject.JSONMap, timeslice int64) *Settings {
	return &Settings{
		UserID:    userID,
		Enabled:   fields.GetBool(fieldEnabled),
		Secret:    fields.GetString(fieldSecret),
		Encrypted: fields.GetBool(fieldEncrypted),
		Timeslice: max(timeslice, 0),
	}
}

// PendingSecret is an unconfirmed secret held for one enrollment attempt.
type PendingSecret struct {
	UserID    int64  `json:"user_id"`
	Secret    string `json:"secret"`
	Encrypted bool   `json:"encrypted"`
}
