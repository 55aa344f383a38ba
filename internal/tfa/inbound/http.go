package inbound

import (
	"context"

	"github.com/shandysiswandi/gotfa/internal/pkg/router"
	"github.com/shandysiswandi/gotfa/internal/tfa/usecase"
)

type uc interface {
	Status(ctx context.Context) (*usecase.StatusOutput, error)
	BeginEnrollment(ctx context.Context, in usecase.BeginEnrollmentInput) (*usecase.EnrollmentFields, error)
	ConfirmEnrollment(ctx context.Context, in usecase.ConfirmEnrollmentInput) (*usecase.ConfirmEnrollmentOutput, error)
	Verify(ctx context.Context, in usecase.VerifyInput) (*usecase.VerifyOutput, error)
	Disable(ctx context.Context, in usecase.DisableInput) error
}

func RegisterHTTPEndpoint(r *router.Router, uc uc) {
	end := &HTTPEndpoint{uc: uc}

	r.GET("/api/v1/tfa/status", end.Status)
	//
	r.POST("/api/v1/tfa/enrollment", end.BeginEnrollment)
	r.POST("/api/v1/tfa/enrollment/confirm", end.ConfirmEnrollment)
	//
	r.POST("/api/v1/tfa/verify", end.Verify)
	r.POST("/api/v1/tfa/disable", end.Disable)
}
