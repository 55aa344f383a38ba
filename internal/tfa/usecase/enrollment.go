package usecase

import (
	"context"
	"errors"
	"log/slog"
	"strings"

	"github.com/shandysiswandi/gotfa/internal/pkg/goerror"
	"github.com/shandysiswandi/gotfa/internal/tfa/entity"
)

const (
	msgEnrollmentEnabled = "Two-factor authentication has been enabled"
	msgConfirmFailed     = "Unable to confirm the code, re-scan and try again"
)

var enrollmentInstructions = []string{
	"Install an authenticator app on your phone.",
	"Scan the QR code or enter the secret key manually.",
	"Enter the 6-digit code shown by the app to confirm.",
}

// EnrollmentInput starts enrollment for one session.
type EnrollmentInput struct {
	UserID       int64
	SessionID    string
	AccountLabel string
}

// EnrollmentFields is what the user needs to register the secret in an app.
type EnrollmentFields struct {
	AlreadyEnabled bool
	AccountLabel   string
	Issuer         string
	Secret         string
	URI            string
	QRImage        string
	Instructions   []string
}

// Notice is the user-facing result of an enrollment confirmation.
type Notice struct {
	Enabled bool
	Message string
}

type BeginEnrollmentInput struct {
	AccountLabel string `json:"account_label" validate:"omitempty,max=128,otplabel"`
}

// BeginEnrollment issues a new pending secret for the caller's session.
func (s *Usecase) BeginEnrollment(ctx context.Context, in BeginEnrollmentInput) (*EnrollmentFields, error) {
	ctx, span := s.startSpan(ctx, "BeginEnrollment")
	defer span.End()

	if err := s.validator.Validate(in); err != nil {
		return nil, goerror.NewInvalidInput(err)
	}

	clm, err := s.authenticated(ctx)
	if err != nil {
		return nil, err
	}

	label := strings.TrimSpace(in.AccountLabel)
	if label == "" {
		label = clm.UserEmail
	}

	return s.GetUserSettingsFields(ctx, EnrollmentInput{
		UserID:       clm.UserID,
		SessionID:    clm.SessionID(),
		AccountLabel: label,
	})
}

// GetUserSettingsFields generates a secret, keeps it pending for the session
// and returns the provisioning data. Each call replaces the pending secret.
func (s *Usecase) GetUserSettingsFields(ctx context.Context, in EnrollmentInput) (*EnrollmentFields, error) {
	ctx, span := s.startSpan(ctx, "GetUserSettingsFields")
	defer span.End()

	if in.SessionID == "" {
		return nil, goerror.NewBusiness("Session required", goerror.CodeUnauthorized)
	}
	if strings.TrimSpace(in.AccountLabel) == "" {
		return nil, goerror.NewInvalidInput(nil, "account_label", "account_label is required")
	}

	settings, err := s.loadSettings(ctx, in.UserID)
	if err != nil {
		return nil, err
	}

	if s.EnabledForUser(settings) {
		return &EnrollmentFields{AlreadyEnabled: true}, nil
	}

	secret, err := s.totp.GenerateSecret(s.cfg.GetInt("modules.tfa.secret_bits"))
	if err != nil {
		slog.ErrorContext(ctx, "failed to generate totp secret", "user_id", in.UserID, "error", err)
		return nil, goerror.NewServer(err)
	}

	stored, transformed, err := s.vault.Protect(secret, secretScope(in.UserID))
	if err != nil {
		slog.ErrorContext(ctx, "failed to protect pending totp secret", "user_id", in.UserID, "error", err)
		return nil, goerror.NewServer(err)
	}

	uri, err := s.totp.ProvisioningURI(in.AccountLabel, secret)
	if err != nil {
		slog.ErrorContext(ctx, "failed to build provisioning uri", "user_id", in.UserID, "error", err)
		return nil, goerror.NewServer(err)
	}

	qr, err := s.qrcode.DataURI(uri)
	if err != nil {
		slog.ErrorContext(ctx, "failed to render provisioning qr code", "user_id", in.UserID, "error", err)
		return nil, goerror.NewServer(err)
	}

	if err := s.repoSession.SetPendingSecret(ctx, in.SessionID, entity.PendingSecret{
		UserID:    in.UserID,
		Secret:    stored,
		Encrypted: transformed,
	}, s.pendingTTL()); err != nil {
		slog.ErrorContext(ctx, "failed to repo set pending totp secret", "user_id", in.UserID, "error", err)
		return nil, goerror.NewServer(err)
	}

	return &EnrollmentFields{
		AccountLabel: in.AccountLabel,
		Issuer:       s.totp.Issuer(),
		Secret:       secret,
		URI:          uri,
		QRImage:      qr,
		Instructions: enrollmentInstructions,
	}, nil
}

// ProcessUserSettingsFields verifies settings.PendingConfirmCode against the
// session's pending secret. The pending secret is consumed and the submitted
// code cleared whatever the outcome. A mismatch is reported through the
// notice, not as an error.
func (s *Usecase) ProcessUserSettingsFields(ctx context.Context, sessionID string, settings *entity.Settings) (*Notice, error) {
	ctx, span := s.startSpan(ctx, "ProcessUserSettingsFields")
	defer span.End()

	code := settings.PendingConfirmCode
	settings.PendingConfirmCode = ""

	plain, err := s.takePendingSecret(ctx, sessionID, settings.UserID)
	if err != nil {
		return nil, err
	}

	valid, matched := false, int64(0)
	if code != "" && plain != "" {
		valid, matched = s.totp.Verify(code, plain, confirmDiscrepancy, s.clock.Now())
	}

	if !valid {
		slog.WarnContext(ctx, "totp enrollment confirmation failed", "user_id", settings.UserID)
		settings.Secret = ""
		settings.Enabled = false
		settings.Encrypted = false
		return &Notice{Message: msgConfirmFailed}, nil
	}

	stored, transformed, err := s.vault.Protect(plain, secretScope(settings.UserID))
	if err != nil {
		slog.ErrorContext(ctx, "failed to protect totp secret", "user_id", settings.UserID, "error", err)
		return nil, goerror.NewServer(err)
	}

	settings.Secret = stored
	settings.Encrypted = transformed
	settings.Enabled = true
	// the confirmation code may not be reused at login
	settings.Timeslice = max(settings.Timeslice, matched)

	return &Notice{Enabled: true, Message: msgEnrollmentEnabled}, nil
}

// takePendingSecret consumes the session's pending secret and returns it in
// plain form. It returns "" when there is none or it belongs to another user.
func (s *Usecase) takePendingSecret(ctx context.Context, sessionID string, userID int64) (string, error) {
	if sessionID == "" {
		return "", nil
	}

	pending, err := s.repoSession.TakePendingSecret(ctx, sessionID)
	if errors.Is(err, goerror.ErrNotFound) {
		return "", nil
	}
	if err != nil {
		slog.ErrorContext(ctx, "failed to repo take pending totp secret", "user_id", userID, "error", err)
		return "", goerror.NewServer(err)
	}

	if pending.UserID != userID {
		slog.WarnContext(ctx, "pending totp secret owner mismatch", "user_id", userID, "owner_id", pending.UserID)
		return "", nil
	}

	plain, err := s.vault.Reveal(pending.Secret, pending.Encrypted, secretScope(userID))
	if err != nil {
		slog.ErrorContext(ctx, "failed to reveal pending totp secret", "user_id", userID, "error", err)
		return "", goerror.NewServer(err)
	}

	return plain, nil
}

// SaveUserSettings persists settings.
func (s *Usecase) SaveUserSettings(ctx context.Context, settings *entity.Settings) error {
	ctx, span := s.startSpan(ctx, "SaveUserSettings")
	defer span.End()

	if err := s.repoDB.SaveSettings(ctx, settings); err != nil {
		slog.ErrorContext(ctx, "failed to repo save tfa settings", "user_id", settings.UserID, "error", err)
		return goerror.NewServer(err)
	}
	return nil
}

type ConfirmEnrollmentInput struct {
	Code string `json:"code" validate:"max=16"`
}

type ConfirmEnrollmentOutput struct {
	Enabled bool
	Message string
}

// ConfirmEnrollment enables TOTP when the code matches the pending secret.
func (s *Usecase) ConfirmEnrollment(ctx context.Context, in ConfirmEnrollmentInput) (*ConfirmEnrollmentOutput, error) {
	ctx, span := s.startSpan(ctx, "ConfirmEnrollment")
	defer span.End()

	if err := s.validator.Validate(in); err != nil {
		return nil, goerror.NewInvalidInput(err)
	}

	clm, err := s.authenticated(ctx)
	if err != nil {
		return nil, err
	}

	unlock, err := s.lockUser(ctx, clm.UserID)
	if err != nil {
		return nil, err
	}
	defer unlock()

	settings, err := s.loadSettings(ctx, clm.UserID)
	if err != nil {
		return nil, err
	}

	if s.EnabledForUser(settings) {
		if _, err := s.takePendingSecret(ctx, clm.SessionID(), clm.UserID); err != nil {
			return nil, err
		}
		return nil, goerror.NewBusiness("Two-factor authentication is already enabled", goerror.CodeConflict)
	}

	settings.PendingConfirmCode = in.Code
	notice, err := s.ProcessUserSettingsFields(ctx, clm.SessionID(), settings)
	if err != nil {
		return nil, err
	}

	if err := s.SaveUserSettings(ctx, settings); err != nil {
		return nil, err
	}

	if !notice.Enabled {
		return nil, goerror.NewBusiness(notice.Message, goerror.CodeInvalidInput)
	}

	s.publish(ctx, "tfa enabled", s.repoMessaging.PublishTFAEnabled, TFAEvent{
		UserID:     clm.UserID,
		OccurredAt: s.clock.Now(),
	})

	return &ConfirmEnrollmentOutput{Enabled: true, Message: notice.Message}, nil
}
