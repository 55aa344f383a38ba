package tfa

import (
	"cmp"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
	"github.com/shandysiswandi/gotfa/internal/pkg/clock"
	"github.com/shandysiswandi/gotfa/internal/pkg/config"
	"github.com/shandysiswandi/gotfa/internal/pkg/eventbus"
	"github.com/shandysiswandi/gotfa/internal/pkg/goroutine"
	"github.com/shandysiswandi/gotfa/internal/pkg/hash"
	"github.com/shandysiswandi/gotfa/internal/pkg/instrument"
	"github.com/shandysiswandi/gotfa/internal/pkg/jwt"
	"github.com/shandysiswandi/gotfa/internal/pkg/lock"
	"github.com/shandysiswandi/gotfa/internal/pkg/otp"
	"github.com/shandysiswandi/gotfa/internal/pkg/qrcode"
	"github.com/shandysiswandi/gotfa/internal/pkg/router"
	"github.com/shandysiswandi/gotfa/internal/pkg/uid"
	"github.com/shandysiswandi/gotfa/internal/pkg/validator"
	"github.com/shandysiswandi/gotfa/internal/pkg/vault"
	"github.com/shandysiswandi/gotfa/internal/tfa/inbound"
	"github.com/shandysiswandi/gotfa/internal/tfa/outbound/db"
	"github.com/shandysiswandi/gotfa/internal/tfa/outbound/mq"
	"github.com/shandysiswandi/gotfa/internal/tfa/outbound/session"
	"github.com/shandysiswandi/gotfa/internal/tfa/usecase"
)

const (
	defaultPublishAttempts = 3
	defaultPublishBackoff  = 200 * time.Millisecond
)

type Dependency struct {
	DBConn     *pgxpool.Pool              `validate:"required"`
	CacheConn  redis.UniversalClient      `validate:"required"`
	Goroutine  *goroutine.Manager         `validate:"required"`
	Router     *router.Router             `validate:"required"`
	EventBus   eventbus.Publisher         `validate:"required"`
	Locker     lock.Locker                `validate:"required"`
	Config     config.Config              `validate:"required"`
	Instrument instrument.Instrumentation `validate:"required"`
	UID        uid.NumberID               `validate:"required"`
	HMAC       hash.Hash                  `validate:"required"`
	Vault      vault.Vault                `validate:"required"`
	Clock      clock.Clocker              `validate:"required"`
	Totp       otp.OTP                    `validate:"required"`
	QRCode     qrcode.Renderer            `validate:"required"`
	Validator  validator.Validator        `validate:"required"`
	JWT        jwt.JWT                    `validate:"required"`
}

// New wires the two-factor module and registers its endpoints on dep.Router.
func New(dep Dependency) error {
	if err := dep.Validator.Validate(dep); err != nil {
		return err
	}

	attempts := uint64(defaultPublishAttempts)
	if dep.Config.IsSet("modules.tfa.publish.max_retries") {
		attempts = uint64(dep.Config.GetUint("modules.tfa.publish.max_retries"))
	}

	backoff := cmp.Or(dep.Config.GetMillisecond("modules.tfa.publish.backoff_ms"), defaultPublishBackoff)

	repoDB := db.NewDB(dep.DBConn, dep.Instrument)
	repoSession := session.NewSession(dep.CacheConn, dep.HMAC, dep.Instrument)
	repoMsg := mq.NewMessaging(dep.EventBus, dep.Instrument, dep.UID, attempts, backoff)

	uc := usecase.New(usecase.Dependency{
		RepoDB:        repoDB,
		RepoSession:   repoSession,
		RepoMessaging: repoMsg,
		Locker:        dep.Locker,
		Validator:     dep.Validator,
		Config:        dep.Config,
		Vault:         dep.Vault,
		Totp:          dep.Totp,
		QRCode:        dep.QRCode,
		Clock:         dep.Clock,
		JWT:           dep.JWT,
		Instrument:    dep.Instrument,
		Goroutine:     dep.Goroutine,
	})

	inbound.RegisterHTTPEndpoint(dep.Router, uc)

	return nil
}
