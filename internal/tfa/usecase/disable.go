package usecase

import (
	"context"

	"github.com/shandysiswandi/gotfa/internal/pkg/goerror"
	"github.com/shandysiswandi/gotfa/internal/tfa/entity"
)

type DisableInput struct {
	Code string `json:"code" validate:"max=16"`
}

// Disable removes the secret after a valid code. The timeslice watermark is kept
// so codes seen before a re-enrollment stay consumed.
func (s *Usecase) Disable(ctx context.Context, in DisableInput) error {
	ctx, span := s.startSpan(ctx, "Disable")
	defer span.End()

	if err := s.validator.Validate(in); err != nil {
		return goerror.NewInvalidInput(err)
	}

	clm, err := s.authenticated(ctx)
	if err != nil {
		return err
	}

	if err := s.checkCode(ctx, clm.UserID, in.Code, func(settings *entity.Settings) error {
		settings.Secret = ""
		settings.Enabled = false
		settings.Encrypted = false
		return s.SaveUserSettings(ctx, settings)
	}); err != nil {
		return err
	}

	s.publish(ctx, "tfa disabled", s.repoMessaging.PublishTFADisabled, TFAEvent{
		UserID:     clm.UserID,
		OccurredAt: s.clock.Now(),
	})

	return nil
}
