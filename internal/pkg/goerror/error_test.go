package goerror_test

import (
	"errors"
	"net/http"
	"testing"

	"github.com/shandysiswandi/gotfa/internal/pkg/goerror"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestError_StatusCode(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		err  error
		want int
		code goerror.Code
	}{
		{name: "server", err: goerror.NewServer(errors.New("db down")), want: http.StatusInternalServerError, code: goerror.CodeInternal},
		{name: "unavailable", err: goerror.NewUnavailable(goerror.ErrDependencyUnavailable), want: http.StatusServiceUnavailable, code: goerror.CodeUnavailable},
		{name: "unauthorized", err: goerror.NewBusiness("Invalid code", goerror.CodeUnauthorized), want: http.StatusUnauthorized, code: goerror.CodeUnauthorized},
		{name: "forbidden", err: goerror.NewBusiness("Not enabled", goerror.CodeForbidden), want: http.StatusForbidden, code: goerror.CodeForbidden},
		{name: "conflict", err: goerror.NewBusiness("Already enabled", goerror.CodeConflict), want: http.StatusConflict, code: goerror.CodeConflict},
		{name: "too many", err: goerror.NewBusiness("Busy", goerror.CodeTooManyRequest), want: http.StatusTooManyRequests, code: goerror.CodeTooManyRequest},
		{name: "invalid format", err: goerror.NewInvalidFormat(), want: http.StatusBadRequest, code: goerror.CodeInvalidFormat},
		{name: "invalid input", err: goerror.NewInvalidInput(nil, "code", "code is required"), want: http.StatusUnprocessableEntity, code: goerror.CodeInvalidInput},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			var gerr *goerror.Error
			require.ErrorAs(t, tt.err, &gerr)
			assert.Equal(t, tt.want, gerr.StatusCode())
			assert.Equal(t, tt.code, gerr.Code())
		})
	}
}

func TestNewServer_Unwraps(t *testing.T) {
	t.Parallel()

	cause := errors.New("db down")
	err := goerror.NewServer(cause)

	assert.ErrorIs(t, err, cause)
	assert.Equal(t, "db down", err.Error())

	var gerr *goerror.Error
	require.ErrorAs(t, err, &gerr)
	assert.Equal(t, "Internal server error", gerr.Msg())
	assert.Equal(t, goerror.TypeServer, gerr.Type())
}

func TestNewInvalidInput_Fields(t *testing.T) {
	t.Parallel()

	var gerr *goerror.Error
	require.ErrorAs(t, goerror.NewInvalidInput(nil, "code", "code is required", "label", "label is invalid"), &gerr)
	assert.Equal(t, map[string]string{"code": "code is required", "label": "label is invalid"}, gerr.Fields())

	require.ErrorAs(t, goerror.NewInvalidInput(nil, "odd"), &gerr)
	assert.Equal(t, goerror.CodeInvalidFormat, gerr.Code())
}

func TestNewInvalidFormat_Message(t *testing.T) {
	t.Parallel()

	var gerr *goerror.Error
	require.ErrorAs(t, goerror.NewInvalidFormat("Request body is too large"), &gerr)
	assert.Equal(t, "Request body is too large", gerr.Error())
}

func TestError_DefaultMessages(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "Validation error", goerror.NewInvalidInput(errors.New("x")).(*goerror.Error).Msg())
	assert.Contains(t, goerror.NewServer(nil).(*goerror.Error).String(), "ERROR_CODE_INTERNAL")
}
