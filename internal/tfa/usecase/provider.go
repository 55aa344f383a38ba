package usecase

import (
	"context"

	"github.com/shandysiswandi/gotfa/internal/tfa/entity"
)

// Provider is the second-factor capability consumed by a login controller.
type Provider interface {
	// EnabledForUser reports whether the user has a confirmed secret.
	EnabledForUser(settings *entity.Settings) bool
	// IsValidUserCode checks code and consumes its time slice on success.
	IsValidUserCode(ctx context.Context, userID int64, code string, settings *entity.Settings) (bool, error)
	// GetUserSettingsFields starts or restarts enrollment for a session.
	GetUserSettingsFields(ctx context.Context, in EnrollmentInput) (*EnrollmentFields, error)
	// ProcessUserSettingsFields confirms the session's pending secret with settings.PendingConfirmCode.
	ProcessUserSettingsFields(ctx context.Context, sessionID string, settings *entity.Settings) (*Notice, error)
	// SaveUserSettings persists settings.
	SaveUserSettings(ctx context.Context, settings *entity.Settings) error
}

var _ Provider = (*Usecase)(nil)

// EnabledForUser reports whether settings carry a confirmed secret.
func (s *Usecase) EnabledForUser(settings *entity.Settings) bool {
	return settings.EnabledForUser()
}
