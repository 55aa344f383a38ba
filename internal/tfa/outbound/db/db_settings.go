package db

import (
	"context"
	"errors"

	"github.com/shandysiswandi/gotfa/internal/pkg/goerror"
	"github.com/shandysiswandi/gotfa/internal/pkg/sqlc"
	"github.com/shandysiswandi/gotfa/internal/tfa/entity"
)

// GetSettings returns the stored record or the defaults when the user has none.
func (s *DB) GetSettings(ctx context.Context, userID int64) (_ *entity.Settings, err error) {
	ctx, end := s.observe(ctx, "GetSettings")
	defer func() { end(err) }()

	result, err := s.query.GetTfaSettings(ctx, userID)
	if err = translate(err); err != nil {
		if errors.Is(err, goerror.ErrNotFound) {
			return entity.NewSettings(userID), nil
		}
		return nil, err
	}

	return entity.SettingsFromFields(result.UserID, result.Fields, result.Timeslice), nil
}

// SaveSettings upserts the record. The stored timeslice never decreases.
func (s *DB) SaveSettings(ctx context.Context, settings *entity.Settings) (err error) {
	ctx, end := s.observe(ctx, "SaveSettings")
	defer func() { end(err) }()

	err = translate(s.query.UpsertTfaSettings(ctx, sqlc.UpsertTfaSettingsParams{
		UserID:    settings.UserID,
		Fields:    settings.Fields(),
		Timeslice: max(settings.Timeslice, 0),
	}))
	return err
}

// AdvanceTimeslice moves the watermark from `from` to `to` only when the stored
// value still equals `from`. It reports false when another request won.
func (s *DB) AdvanceTimeslice(ctx context.Context, userID, from, to int64) (_ bool, err error) {
	ctx, end := s.observe(ctx, "AdvanceTimeslice")
	defer func() { end(err) }()

	n, err := s.query.AdvanceTfaTimeslice(ctx, sqlc.AdvanceTfaTimesliceParams{
		ToSlice:   to,
		UserID:    userID,
		FromSlice: from,
	})
	if err = translate(err); err != nil {
		return false, err
	}

	return n == 1, nil
}

// Ping checks the connection pool.
func (s *DB) Ping(ctx context.Context) (err error) {
	ctx, end := s.observe(ctx, "Ping")
	defer func() { end(err) }()

	err = s.conn.Ping(ctx)
	return err
}
