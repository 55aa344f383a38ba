package usecase

import (
	"context"
	"log/slog"

	"github.com/shandysiswandi/gotfa/internal/pkg/goerror"
	"github.com/shandysiswandi/gotfa/internal/pkg/jwt"
	"github.com/shandysiswandi/gotfa/internal/tfa/entity"
)

// IsValidUserCode reports whether code is valid for settings and was not used
// before. On success the matched slice becomes the new watermark, both in the
// store and in settings.Timeslice. A wrong, replayed or concurrently consumed
// code yields false without an error; only store and vault failures are errors.
func (s *Usecase) IsValidUserCode(ctx context.Context, userID int64, code string, settings *entity.Settings) (bool, error) {
	ctx, span := s.startSpan(ctx, "IsValidUserCode")
	defer span.End()

	if code == "" || settings == nil || settings.Secret == "" || settings.UserID != userID {
		slog.DebugContext(ctx, "totp verification skipped on empty input", "user_id", userID)
		s.record(ctx, entity.OutcomeEmptyInput)
		return false, nil
	}

	secret, err := s.vault.Reveal(settings.Secret, settings.Encrypted, secretScope(userID))
	if err != nil {
		slog.ErrorContext(ctx, "failed to reveal totp secret", "user_id", userID, "error", err)
		return false, goerror.NewServer(err)
	}

	now := s.clock.Now()
	valid, matched := s.totp.Verify(code, secret, s.discrepancy(), now)
	if !valid {
		s.record(ctx, entity.OutcomeRejected)
		return false, nil
	}

	if matched <= settings.Timeslice {
		slog.WarnContext(ctx, "totp code replay rejected", "user_id", userID, "timeslice", matched, "watermark", settings.Timeslice)
		s.record(ctx, entity.OutcomeReplay)
		s.publish(ctx, "tfa replay rejected", s.repoMessaging.PublishTFAReplayRejected, TFAEvent{
			UserID:     userID,
			OccurredAt: now,
			Timeslice:  matched,
			Reason:     entity.OutcomeReplay,
		})
		return false, nil
	}

	ok, err := s.repoDB.AdvanceTimeslice(ctx, userID, settings.Timeslice, matched)
	if err != nil {
		slog.ErrorContext(ctx, "failed to repo advance totp timeslice", "user_id", userID, "error", err)
		return false, goerror.NewServer(err)
	}
	if !ok {
		slog.WarnContext(ctx, "totp timeslice consumed concurrently", "user_id", userID, "timeslice", matched)
		s.record(ctx, entity.OutcomeConcurrent)
		return false, nil
	}

	settings.Timeslice = matched
	s.record(ctx, entity.OutcomeAccepted)
	return true, nil
}

type VerifyInput struct {
	Code string `json:"code" validate:"max=16"`
}

type VerifyOutput struct {
	AccessToken string
}

// Verify checks a login code and issues a step-up token.
func (s *Usecase) Verify(ctx context.Context, in VerifyInput) (*VerifyOutput, error) {
	ctx, span := s.startSpan(ctx, "Verify")
	defer span.End()

	if err := s.validator.Validate(in); err != nil {
		return nil, goerror.NewInvalidInput(err)
	}

	clm, err := s.authenticated(ctx)
	if err != nil {
		return nil, err
	}

	if err := s.checkCode(ctx, clm.UserID, in.Code, nil); err != nil {
		return nil, err
	}

	token, err := s.jwt.Generate(jwt.Subject{UserID: clm.UserID, Email: clm.UserEmail, TFAVerified: true})
	if err != nil {
		slog.ErrorContext(ctx, "failed to generate step-up token", "user_id", clm.UserID, "error", err)
		return nil, goerror.NewServer(err)
	}

	return &VerifyOutput{AccessToken: token}, nil
}

// checkCode runs the gate under the user lock. onSuccess runs before the lock
// is released.
func (s *Usecase) checkCode(ctx context.Context, userID int64, code string, onSuccess func(*entity.Settings) error) error {
	unlock, err := s.lockUser(ctx, userID)
	if err != nil {
		return err
	}
	defer unlock()

	settings, err := s.loadSettings(ctx, userID)
	if err != nil {
		return err
	}

	if !s.EnabledForUser(settings) {
		s.record(ctx, entity.OutcomeNotConfigured)
		return goerror.NewBusiness("Two-factor authentication is not enabled", goerror.CodeForbidden)
	}

	ok, err := s.IsValidUserCode(ctx, userID, code, settings)
	if err != nil {
		return err
	}
	if !ok {
		return goerror.NewBusiness("Invalid code", goerror.CodeUnauthorized)
	}

	if onSuccess != nil {
		return onSuccess(settings)
	}
	return nil
}
