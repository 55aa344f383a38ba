package usecase

import (
	"context"
)

type StatusOutput struct {
	Enabled bool
}

func (s *Usecase) Status(ctx context.Context) (*StatusOutput, error) {
	ctx, span := s.startSpan(ctx, "Status")
	defer span.End()

	clm, err := s.authenticated(ctx)
	if err != nil {
		return nil, err
	}

	settings, err := s.loadSettings(ctx, clm.UserID)
	if err != nil {
		return nil, err
	}

	return &StatusOutput{Enabled: s.EnabledForUser(settings)}, nil
}
