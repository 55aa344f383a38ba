package app

import (
	"context"
	"errors"
	"io/fs"
	"log/slog"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/joho/godotenv"
	"github.com/nats-io/nats.go"
	"github.com/nsqio/go-nsq"
	libOTP "github.com/pquerna/otp"
	"github.com/redis/go-redis/v9"
	"github.com/rs/cors"
	"github.com/segmentio/kafka-go"
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
	"google.golang.org/api/option"
)

const (
	vaultDriverPassthrough = "passthrough"
	vaultDriverAESGCM      = "aes-gcm"
)

func (a *App) initConfig() {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		slog.Warn("failed to load .env file", "error", err)
	}

	path := os.Getenv("CONFIG_PATH")
	if path == "" {
		path = "/config/config.yaml"
		if os.Getenv("LOCAL") == "true" {
			path = "./config/config.yaml"
		}
	}

	cfg, err := config.NewViper(path)
	if err != nil {
		slog.Error("failed to init config", "error", err)
		os.Exit(1)
	}

	//nolint:errcheck,gosec // ignore error
	os.Setenv("TZ", cfg.GetString("app.tz"))

	a.config = cfg
}

func (a *App) initInstrument() {
	var level slog.Level
	if err := level.UnmarshalText([]byte(a.config.GetString("telemetry.log_level"))); err != nil {
		level = slog.LevelInfo
	}

	ins, err := instrument.New(a.ctx, &instrument.Config{
		Enabled:          a.config.GetBool("telemetry.enabled"),
		ServiceName:      a.config.GetString("telemetry.service_name"),
		ServiceVersion:   a.config.GetString("telemetry.service_version"),
		Environment:      a.config.GetString("telemetry.env"),
		OTLPEndpoint:     a.config.GetString("telemetry.otlp_endpoint"),
		OTLPSecure:       a.config.GetBool("telemetry.otlp_secure"),
		TraceSampleRatio: a.config.GetFloat64("telemetry.trace_sample_ratio"),
		MetricsInterval:  a.config.GetSecond("telemetry.metric_interval_seconds"),
		MaskFields:       a.config.GetArray("telemetry.log_mask_fields"),
		LogLevel:         level,
	})
	if err != nil {
		slog.Error("failed to init instrumentation", "error", err)
		os.Exit(1)
	}
	a.ins = ins
}

func (a *App) initLibraries() {
	a.clock = clock.New()
	a.uuid = uid.NewUUID()
	a.goroutine = goroutine.NewManager(a.config.GetInt("app.server.max_goroutine"))
	a.hmac = hash.NewHMACSHA256(a.config.GetString("hash.hmac.secret"))
	a.qrcode = qrcode.New(a.config.GetInt("modules.tfa.qrcode_size"))

	validator, err := validator.NewV10Validator()
	if err != nil {
		slog.Error("failed to init validation v10 validator", "error", err)
		os.Exit(1)
	}
	a.validator = validator

	snow, err := uid.NewSnowflake()
	if err != nil {
		slog.Error("failed to init uid number snowflake", "error", err)
		os.Exit(1)
	}
	a.uid = snow
}

func (a *App) initOTP() {
	title := strings.TrimSpace(a.config.GetString("modules.tfa.title"))
	if title == "" {
		host, err := os.Hostname()
		if err != nil {
			slog.Warn("failed to read hostname for tfa title", "error", err)
		}
		title = host
	}

	digits := libOTP.DigitsSix
	if a.config.GetInt("modules.tfa.digits") == libOTP.DigitsEight.Length() {
		digits = libOTP.DigitsEight
	}

	totp := otp.NewTOTP(title, a.config.GetUint("modules.tfa.period_seconds"), digits)
	if err := totp.SelfCheck(a.clock.Now()); err != nil {
		slog.Error("failed to init totp codec", "error", err)
		os.Exit(1)
	}

	a.totp = totp
}

func (a *App) initVault() {
	driver := strings.TrimSpace(a.config.GetString("modules.tfa.vault.driver"))

	switch driver {
	case vaultDriverPassthrough, "":
		slog.Warn("tfa secrets are stored without encryption", "vault_driver", vaultDriverPassthrough)
		a.vault = vault.NewPassthrough()
	case vaultDriverAESGCM:
		keys, err := vault.NewHKDFKeyProvider(
			a.config.GetBinary("modules.tfa.vault.master_key"),
			[]byte(a.config.GetString("modules.tfa.vault.salt")),
		)
		if err != nil {
			slog.Error("failed to init vault key provider", "error", err)
			os.Exit(1)
		}
		a.vault = vault.NewAESGCM(keys)
	default:
		slog.Error("failed to init vault, unknown driver", "vault_driver", driver)
		os.Exit(1)
	}
}

func (a *App) initJWT() {
	defaultJWT, err := jwt.NewHS512(jwt.Config{
		Secret:    []byte(a.config.GetString("jwt.secret")),
		Issuer:    a.config.GetString("jwt.issuer"),
		Audiences: a.config.GetArray("jwt.audiences"),
		TTL:       a.config.GetMinute("jwt.ttl_minutes"),
		Clock:     a.clock,
		UUID:      a.uuid,
	})
	if err != nil {
		slog.Error("failed to init jwt token", "error", err)
		os.Exit(1)
	}
	a.jwt = defaultJWT
}

func (a *App) initDatabase() {
	config, err := pgxpool.ParseConfig(a.config.GetString("database.url"))
	if err != nil {
		slog.Error("failed to parse DB connection string.", "error", err)
		os.Exit(1)
	}

	if v := a.config.GetInt("database.pool.max_conns"); v > 0 {
		config.MaxConns = int32(min(v, 1<<15))
	}
	if v := a.config.GetInt("database.pool.min_conns"); v > 0 {
		config.MinConns = int32(min(v, 1<<15))
	}
	if v := a.config.GetSecond("database.pool.max_conn_lifetime_seconds"); v > 0 {
		config.MaxConnLifetime = v
	}
	if v := a.config.GetSecond("database.pool.max_conn_idle_seconds"); v > 0 {
		config.MaxConnIdleTime = v
	}
	if v := a.config.GetSecond("database.pool.health_check_period_seconds"); v > 0 {
		config.HealthCheckPeriod = v
	}

	pool, err := pgxpool.NewWithConfig(a.ctx, config)
	if err != nil {
		slog.Error("failed to create DB connection pool", "error", err)
		os.Exit(1)
	}

	pingCtx, cancel := context.WithTimeout(a.ctx, 5*time.Second)
	defer cancel()
	if err := pool.Ping(pingCtx); err != nil {
		slog.Error("failed to ping DB", "error", err)
		os.Exit(1)
	}

	a.dbConn = pool
}

func (a *App) initCache() {
	opt, err := redis.ParseURL(a.config.GetString("redis.url"))
	if err != nil {
		slog.Error("failed to parse redis url", "error", err)
		os.Exit(1)
	}

	rdb := redis.NewClient(opt)

	pingCtx, cancel := context.WithTimeout(a.ctx, 5*time.Second)
	defer cancel()
	if err := rdb.Ping(pingCtx).Err(); err != nil {
		slog.Error("failed to init redis", "error", err)
		os.Exit(1)
	}

	a.cacheConn = rdb

	var lockOpts []lock.Option
	if a.config.IsSet("redis.lock.wait_attempts") {
		lockOpts = append(lockOpts, lock.WithWait(
			uint64(a.config.GetUint("redis.lock.wait_attempts")),
			a.config.GetMillisecond("redis.lock.wait_delay_ms"),
		))
	}
	a.locker = lock.NewRedis(rdb, a.uuid, lockOpts...)
}

func (a *App) initEventBus() {
	driver := a.config.GetString("eventbus.driver")

	var pubsubOptions []option.ClientOption
	if a.config.GetBool("eventbus.pubsub.without_auth") {
		pubsubOptions = append(pubsubOptions, option.WithoutAuthentication())
	}
	if v := strings.TrimSpace(a.config.GetString("eventbus.pubsub.endpoint")); v != "" {
		pubsubOptions = append(pubsubOptions, option.WithEndpoint(v))
	}
	if v := strings.TrimSpace(a.config.GetString("eventbus.pubsub.user_agent")); v != "" {
		pubsubOptions = append(pubsubOptions, option.WithUserAgent(v))
	}

	client, err := eventbus.NewFromDriver(a.ctx, driver, eventbus.Options{
		NSQ: eventbus.NSQConfig{
			ProducerAddr: a.config.GetString("eventbus.nsq.producer_addr"),
			Config: func() *nsq.Config {
				cfg := nsq.NewConfig()
				if v := a.config.GetSecond("eventbus.nsq.dial_timeout_seconds"); v > 0 {
					cfg.DialTimeout = v
				}
				if v := a.config.GetSecond("eventbus.nsq.write_timeout_seconds"); v > 0 {
					cfg.WriteTimeout = v
				}
				return cfg
			}(),
		},
		Kafka: eventbus.KafkaConfig{
			Brokers: a.config.GetArray("eventbus.kafka.brokers"),
			Transport: &kafka.Transport{
				ClientID:    a.config.GetString("eventbus.kafka.client_id"),
				DialTimeout: a.config.GetSecond("eventbus.kafka.dial_timeout_seconds"),
			},
			WriteTimeout: a.config.GetSecond("eventbus.kafka.write_timeout_seconds"),
		},
		NATS: eventbus.NATSConfig{
			URL: a.config.GetString("eventbus.nats.url"),
			Options: []nats.Option{
				nats.Name(a.config.GetString("eventbus.nats.name")),
				nats.MaxReconnects(a.config.GetInt("eventbus.nats.max_reconnects")),
				nats.Timeout(a.config.GetSecond("eventbus.nats.timeout_seconds")),
				nats.ReconnectWait(a.config.GetSecond("eventbus.nats.reconnect_wait_seconds")),
				nats.RetryOnFailedConnect(a.config.GetBool("eventbus.nats.retry_on_failed_connect")),
			},
		},
		PubSub: eventbus.PubSubConfig{
			ProjectID:     a.config.GetString("eventbus.pubsub.project_id"),
			ClientOptions: pubsubOptions,
		},
	})
	if err != nil {
		slog.Error("failed to init eventbus", "error", err, "driver", driver)
		os.Exit(1)
	}

	a.eventBus = client
}

func (a *App) initHTTPServer() {
	a.router = router.NewRouter(router.Config{
		Config:      a.config,
		UUID:        a.uuid,
		JWT:         a.jwt,
		Instrument:  a.ins,
		ServiceName: a.config.GetString("app.name"),
	})

	a.router.Public(http.MethodGet, "/health", a.health)

	routerWithCORS := cors.New(cors.Options{
		AllowedOrigins: a.config.GetArray("app.server.cors"),
		AllowedMethods: []string{
			http.MethodGet,
			http.MethodPost,
			http.MethodOptions,
		},
		AllowedHeaders:   []string{"*"},
		ExposedHeaders:   []string{instrument.HeaderCorrelationID},
		AllowCredentials: true,
	}).Handler(a.router)

	a.httpServer = &http.Server{
		Addr:              a.config.GetString("app.server.http.address"),
		Handler:           routerWithCORS,
		ReadTimeout:       a.config.GetSecond("app.server.http.read_timeout_seconds"),
		ReadHeaderTimeout: a.config.GetSecond("app.server.http.read_header_timeout_seconds"),
		WriteTimeout:      a.config.GetSecond("app.server.http.write_timeout_seconds"),
		IdleTimeout:       a.config.GetSecond("app.server.http.idle_timeout_seconds"),
	}
}

// initClosers orders teardown: producers first, telemetry and config last.
func (a *App) initClosers() {
	ignoreCtx := func(fn func() error) func(context.Context) error {
		return func(context.Context) error { return fn() }
	}

	a.closers = []closer{
		{name: "EventBus", fn: ignoreCtx(a.eventBus.Close)},
		{name: "Redis", fn: ignoreCtx(a.cacheConn.Close)},
		{name: "Database", fn: func(context.Context) error { a.dbConn.Close(); return nil }},
		{name: "Instrument", fn: a.ins.Shutdown},
		{name: "Config", fn: ignoreCtx(a.config.Close)},
	}
}
