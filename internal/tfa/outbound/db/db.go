package db

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shandysiswandi/gotfa/internal/pkg/goerror"
	"github.com/shandysiswandi/gotfa/internal/pkg/instrument"
	"github.com/shandysiswandi/gotfa/internal/pkg/sqlc"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

const pgUniqueViolation = "23505"

// DB is the Postgres-backed settings store.
type DB struct {
	conn   *pgxpool.Pool
	query  *sqlc.Queries
	tracer trace.Tracer
}

func NewDB(conn *pgxpool.Pool, ins instrument.Instrumentation) *DB {
	return &DB{conn: conn, query: sqlc.New(conn), tracer: ins.Tracer("tfa.outbound.db")}
}

// translate turns driver errors into goerror sentinels. Anything else,
// including check violations, passes through.
func translate(err error) error {
	var pgErr *pgconn.PgError

	switch {
	case err == nil:
		return nil
	case errors.Is(err, pgx.ErrNoRows):
		return goerror.ErrNotFound
	case errors.As(err, &pgErr) && pgErr.Code == pgUniqueViolation:
		return goerror.ErrConflict
	default:
		return err
	}
}

// observe starts a span and returns the func that ends it. Expected outcomes
// such as a missing row are not recorded as span errors.
func (s *DB) observe(ctx context.Context, op string) (context.Context, func(error)) {
	ctx, span := s.tracer.Start(ctx, op)

	return ctx, func(err error) {
		if err != nil && !errors.Is(err, goerror.ErrNotFound) && !errors.Is(err, goerror.ErrConflict) {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
		}
		span.End()
	}
}
