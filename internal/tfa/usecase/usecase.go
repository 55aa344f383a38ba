package usecase

import (
	"context"
	"errors"
	"log/slog"
	"strconv"
	"time"

	"github.com/shandysiswandi/gotfa/internal/pkg/clock"
	"github.com/shandysiswandi/gotfa/internal/pkg/config"
	"github.com/shandysiswandi/gotfa/internal/pkg/goerror"
	"github.com/shandysiswandi/gotfa/internal/pkg/goroutine"
	"github.com/shandysiswandi/gotfa/internal/pkg/instrument"
	"github.com/shandysiswandi/gotfa/internal/pkg/jwt"
	"github.com/shandysiswandi/gotfa/internal/pkg/lock"
	"github.com/shandysiswandi/gotfa/internal/pkg/otp"
	"github.com/shandysiswandi/gotfa/internal/pkg/qrcode"
	"github.com/shandysiswandi/gotfa/internal/pkg/validator"
	"github.com/shandysiswandi/gotfa/internal/pkg/vault"
	"github.com/shandysiswandi/gotfa/internal/tfa/entity"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	metricnoop "go.opentelemetry.io/otel/metric/noop"
	"go.opentelemetry.io/otel/trace"
)

const (
	defaultDiscrepancy uint = 1
	defaultPendingTTL       = 10 * time.Minute
	defaultLockTTL          = 5 * time.Second

	// enrollment confirmation always allows one step of drift
	confirmDiscrepancy uint = 1
)

type TFAEvent struct {
	UserID     int64
	OccurredAt time.Time
	Timeslice  int64
	Reason     string
}

type repoMessaging interface {
	PublishTFAEnabled(ctx context.Context, msg TFAEvent) error
	PublishTFADisabled(ctx context.Context, msg TFAEvent) error
	PublishTFAReplayRejected(ctx context.Context, msg TFAEvent) error
}

type repoDB interface {
	GetSettings(ctx context.Context, userID int64) (*entity.Settings, error)
	SaveSettings(ctx context.Context, settings *entity.Settings) error
	AdvanceTimeslice(ctx context.Context, userID, from, to int64) (bool, error)
}

type repoSession interface {
	SetPendingSecret(ctx context.Context, sessionID string, p entity.PendingSecret, ttl time.Duration) error
	TakePendingSecret(ctx context.Context, sessionID string) (*entity.PendingSecret, error)
}

type Usecase struct {
	repoDB        repoDB
	repoSession   repoSession
	repoMessaging repoMessaging
	locker        lock.Locker
	validator     validator.Validator
	cfg           config.Config
	vault         vault.Vault
	totp          otp.OTP
	qrcode        qrcode.Renderer
	clock         clock.Clocker
	jwt           jwt.JWT
	ins           instrument.Instrumentation
	goroutine     *goroutine.Manager

	verifications metric.Int64Counter
}

type Dependency struct {
	RepoDB        repoDB
	RepoSession   repoSession
	RepoMessaging repoMessaging
	Locker        lock.Locker
	Validator     validator.Validator
	Config        config.Config
	Vault         vault.Vault
	Totp          otp.OTP
	QRCode        qrcode.Renderer
	Clock         clock.Clocker
	JWT           jwt.JWT
	Instrument    instrument.Instrumentation
	Goroutine     *goroutine.Manager
}

func New(dep Dependency) *Usecase {
	var counter metric.Int64Counter = metricnoop.Int64Counter{}
	c, err := dep.Instrument.Meter("tfa.usecase").Int64Counter("tfa.verifications",
		metric.WithDescription("TOTP verification attempts by outcome"),
	)
	if err != nil {
		slog.Warn("failed to create tfa.verifications counter", "error", err)
	} else {
		counter = c
	}

	return &Usecase{
		repoDB:        dep.RepoDB,
		repoSession:   dep.RepoSession,
		repoMessaging: dep.RepoMessaging,
		locker:        dep.Locker,
		validator:     dep.Validator,
		cfg:           dep.Config,
		vault:         dep.Vault,
		totp:          dep.Totp,
		qrcode:        dep.QRCode,
		clock:         dep.Clock,
		jwt:           dep.JWT,
		ins:           dep.Instrument,
		goroutine:     dep.Goroutine,
		verifications: counter,
	}
}

func (s *Usecase) startSpan(ctx context.Context, name string) (context.Context, trace.Span) {
	return s.ins.Tracer("tfa.usecase").Start(ctx, name)
}

func (s *Usecase) discrepancy() uint {
	if !s.cfg.IsSet("modules.tfa.discrepancy") {
		return defaultDiscrepancy
	}
	return s.cfg.GetUint("modules.tfa.discrepancy")
}

func (s *Usecase) pendingTTL() time.Duration {
	if ttl := s.cfg.GetMinute("modules.tfa.pending_ttl_minutes"); ttl > 0 {
		return ttl
	}
	return defaultPendingTTL
}

func (s *Usecase) lockTTL() time.Duration {
	if ttl := s.cfg.GetSecond("modules.tfa.lock_ttl_seconds"); ttl > 0 {
		return ttl
	}
	return defaultLockTTL
}

func (s *Usecase) record(ctx context.Context, outcome string) {
	s.verifications.Add(ctx, 1, metric.WithAttributes(attribute.String("outcome", outcome)))
}

func secretScope(userID int64) vault.Scope {
	return vault.Scope{UserID: userID, Purpose: vault.PurposeTOTPSecret}
}

func (s *Usecase) authenticated(ctx context.Context) (*jwt.Claims, error) {
	clm := jwt.GetAuth(ctx)
	if clm == nil || clm.UserID == 0 {
		return nil, goerror.NewBusiness("Authentication required", goerror.CodeUnauthorized)
	}
	return clm, nil
}

// lockUser serialises settings mutations of one user across instances.
func (s *Usecase) lockUser(ctx context.Context, userID int64) (func(), error) {
	unlock, err := s.locker.Lock(ctx, "tfa:user:"+strconv.FormatInt(userID, 10), s.lockTTL())
	if errors.Is(err, lock.ErrBusy) {
		slog.WarnContext(ctx, "tfa settings are locked by another request", "user_id", userID)
		return nil, goerror.NewBusiness("Another request is in progress, try again", goerror.CodeTooManyRequest)
	}
	if err != nil {
		slog.ErrorContext(ctx, "failed to acquire tfa user lock", "user_id", userID, "error", err)
		return nil, goerror.NewServer(err)
	}

	return func() {
		if err := unlock(context.WithoutCancel(ctx)); err != nil {
			slog.WarnContext(ctx, "failed to release tfa user lock", "user_id", userID, "error", err)
		}
	}, nil
}

func (s *Usecase) loadSettings(ctx context.Context, userID int64) (*entity.Settings, error) {
	settings, err := s.repoDB.GetSettings(ctx, userID)
	if err != nil {
		slog.ErrorContext(ctx, "failed to repo get tfa settings", "user_id", userID, "error", err)
		return nil, goerror.NewServer(err)
	}
	return settings, nil
}

// publish sends an event in the background. The request context may be
// canceled before the broker acknowledges, so cancellation is detached.
func (s *Usecase) publish(ctx context.Context, name string, fn func(ctx context.Context, msg TFAEvent) error, msg TFAEvent) {
	s.goroutine.Go(context.WithoutCancel(ctx), func(ctx context.Context) error {
		if err := fn(ctx, msg); err != nil {
			slog.ErrorContext(ctx, "failed to publish "+name, "user_id", msg.UserID, "error", err)
			return err
		}
		return nil
	})
}
