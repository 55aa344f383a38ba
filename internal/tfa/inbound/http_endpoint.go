package inbound

import (
	"github.com/shandysiswandi/gotfa/internal/pkg/router"
	"github.com/shandysiswandi/gotfa/internal/tfa/usecase"
)

// HTTPEndpoint exposes HTTP handlers for TOTP enrollment and verification.
type HTTPEndpoint struct {
	uc uc
}

// Status reports whether TOTP is enabled for the caller.
// @Summary TOTP status
// @Tags TFA
// @Produce json
// @Success 200 {object} router.successResponse{data=StatusResponse}
// @Failure 401 {object} router.errorResponse "Authentication required"
// @Router /api/v1/tfa/status [get]
func (h *HTTPEndpoint) Status(r *router.Request) (any, error) {
	resp, err := h.uc.Status(r.Context())
	if err != nil {
		return nil, err
	}

	return StatusResponse{Enabled: resp.Enabled}, nil
}

// BeginEnrollment issues a new secret and its provisioning QR code.
// @Summary Start TOTP enrollment
// @Description Generates a secret for the current session. Calling it again replaces the previous secret.
// @Tags TFA
// @Accept json
// @Produce json
// @Param request body BeginEnrollmentRequest false "Enrollment payload"
// @Success 200 {object} router.successResponse{data=BeginEnrollmentResponse}
// @Failure 401 {object} router.errorResponse "Authentication required"
// @Failure 422 {object} router.errorResponse "Validation error"
// @Router /api/v1/tfa/enrollment [post]
func (h *HTTPEndpoint) BeginEnrollment(r *router.Request) (any, error) {
	var req BeginEnrollmentRequest
	if err := r.DecodeBody(&req); err != nil {
		return nil, err
	}

	resp, err := h.uc.BeginEnrollment(r.Context(), usecase.BeginEnrollmentInput{
		AccountLabel: req.AccountLabel,
	})
	if err != nil {
		return nil, err
	}

	if resp.AlreadyEnabled {
		return BeginEnrollmentResponse{AlreadyEnabled: true}, nil
	}

	return BeginEnrollmentResponse{
		AccountLabel: resp.AccountLabel,
		Issuer:       resp.Issuer,
		Secret:       resp.Secret,
		URI:          resp.URI,
		QRImage:      resp.QRImage,
		Instructions: resp.Instructions,
	}, nil
}

// ConfirmEnrollment enables TOTP with a code from the authenticator app.
// @Summary Confirm TOTP enrollment
// @Tags TFA
// @Accept json
// @Produce json
// @Param request body CodeRequest true "Confirmation code"
// @Success 200 {object} router.successResponse{data=ConfirmEnrollmentResponse}
// @Failure 401 {object} router.errorResponse "Authentication required"
// @Failure 409 {object} router.errorResponse "Already enabled"
// @Failure 422 {object} router.errorResponse "Unable to confirm the code"
// @Router /api/v1/tfa/enrollment/confirm [post]
func (h *HTTPEndpoint) ConfirmEnrollment(r *router.Request) (any, error) {
	var req CodeRequest
	if err := r.DecodeBody(&req); err != nil {
		return nil, err
	}

	resp, err := h.uc.ConfirmEnrollment(r.Context(), usecase.ConfirmEnrollmentInput{Code: req.Code})
	if err != nil {
		return nil, err
	}

	return ConfirmEnrollmentResponse{Enabled: resp.Enabled, message: resp.Message}, nil
}

// Verify checks a login code and returns a step-up access token.
// @Summary Verify TOTP code
// @Tags TFA
// @Accept json
// @Produce json
// @Param request body CodeRequest true "Login code"
// @Success 200 {object} router.successResponse{data=VerifyResponse}
// @Failure 401 {object} router.errorResponse "Invalid code"
// @Failure 403 {object} router.errorResponse "Not enabled"
// @Failure 429 {object} router.errorResponse "Another request is in progress"
// @Router /api/v1/tfa/verify [post]
func (h *HTTPEndpoint) Verify(r *router.Request) (any, error) {
	var req CodeRequest
	if err := r.DecodeBody(&req); err != nil {
		return nil, err
	}

	resp, err := h.uc.Verify(r.Context(), usecase.VerifyInput{Code: req.Code})
	if err != nil {
		return nil, err
	}

	return VerifyResponse{AccessToken: resp.AccessToken}, nil
}

// Disable removes TOTP after a valid code.
// @Summary Disable TOTP
// @Tags TFA
// @Accept json
// @Param request body CodeRequest true "Current code"
// @Success 204
// @Failure 401 {object} router.errorResponse "Invalid code"
// @Failure 403 {object} router.errorResponse "Not enabled"
// @Router /api/v1/tfa/disable [post]
func (h *HTTPEndpoint) Disable(r *router.Request) (any, error) {
	var req CodeRequest
	if err := r.DecodeBody(&req); err != nil {
		return nil, err
	}

	if err := h.uc.Disable(r.Context(), usecase.DisableInput{Code: req.Code}); err != nil {
		return nil, err
	}

	return nil, nil
}
