package app

import (
	"context"
	"net/http"

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
)

// App owns the process-wide dependencies and their lifecycle.
type App struct {
	ctx    context.Context
	cancel context.CancelFunc

	// configuration
	config config.Config
	ins    instrument.Instrumentation

	// libraries
	goroutine *goroutine.Manager
	validator validator.Validator
	clock     clock.Clocker
	hmac      hash.Hash
	uid       uid.NumberID
	uuid      uid.StringID
	totp      otp.OTP
	qrcode    qrcode.Renderer
	vault     vault.Vault
	jwt       jwt.JWT

	// resources
	dbConn    *pgxpool.Pool
	cacheConn *redis.Client
	locker    lock.Locker
	eventBus  eventbus.Publisher

	// server
	router     *router.Router
	httpServer *http.Server

	closers []closer
}

type closer struct {
	name string
	fn   func(context.Context) error
}

// New builds every dependency from configuration and registers the modules.
// Any failure is fatal.
func New() *App {
	ctx, cancel := context.WithCancel(context.Background())
	app := &App{
		ctx:    ctx,
		cancel: cancel,
	}

	app.initConfig()
	app.initInstrument()
	app.initLibraries()
	app.initOTP()
	app.initVault()
	app.initJWT()
	app.initDatabase()
	app.initCache()
	app.initEventBus()
	app.initHTTPServer()
	app.initModules()
	app.initClosers()

	return app
}
