package app

import (
	"log/slog"
	"os"

	"github.com/shandysiswandi/gotfa/internal/tfa"
)

func (a *App) initModules() {
	if !a.config.GetBool("modules.tfa.enabled") {
		slog.Warn("module tfa is disabled")
		return
	}

	if err := tfa.New(tfa.Dependency{
		DBConn:     a.dbConn,
		CacheConn:  a.cacheConn,
		Goroutine:  a.goroutine,
		Router:     a.router,
		EventBus:   a.eventBus,
		Locker:     a.locker,
		Config:     a.config,
		Instrument: a.ins,
		UID:        a.uid,
		HMAC:       a.hmac,
		Vault:      a.vault,
		Clock:      a.clock,
		Totp:       a.totp,
		QRCode:     a.qrcode,
		Validator:  a.validator,
		JWT:        a.jwt,
	}); err != nil {
		slog.Error("failed to init module tfa", "error", err)
		os.Exit(1)
	}
}
