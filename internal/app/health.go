package app

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/shandysiswandi/gotfa/internal/pkg/goerror"
	"github.com/shandysiswandi/gotfa/internal/pkg/router"
)

const healthTimeout = 2 * time.Second

type healthResponse struct {
	Database string `json:"database"`
	Redis    string `json:"redis"`
}

func (healthResponse) Message() string { return "service is healthy" }

func (a *App) health(r *router.Request) (any, error) {
	ctx, cancel := context.WithTimeout(r.Context(), healthTimeout)
	defer cancel()

	dbErr := a.dbConn.Ping(ctx)
	if dbErr != nil {
		slog.WarnContext(ctx, "health check database failed", "error", dbErr)
	}

	redisErr := a.cacheConn.Ping(ctx).Err()
	if redisErr != nil {
		slog.WarnContext(ctx, "health check redis failed", "error", redisErr)
	}

	if err := errors.Join(dbErr, redisErr); err != nil {
		return nil, goerror.NewUnavailable(err)
	}

	return healthResponse{Database: "ok", Redis: "ok"}, nil
}
