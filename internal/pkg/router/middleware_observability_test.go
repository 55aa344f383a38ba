package router

import (
	"bytes"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/shandysiswandi/gotfa/internal/pkg/instrument"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoggableBody(t *testing.T) {
	t.Parallel()

	m := instrument.NewMasker([]string{"secret", "code"})

	tests := []struct {
		name   string
		body   []byte
		capped bool
		want   any
	}{
		{name: "empty", body: nil, want: nil},
		{
			name: "json is masked",
			body: []byte(`{"secret":"JBSWY3DPEHPK3PXP","account_label":"ada"}`),
			want: map[string]any{"secret": instrument.MaskedValue, "account_label": "ada"},
		},
		{name: "text", body: []byte("plain"), want: "plain"},
		{name: "binary", body: []byte{0xff, 0xfe, 0x00}, want: "<binary body omitted>"},
		{
			name:   "truncated json is never logged",
			body:   []byte(`{"secret":"JBSWY3DPEHPK3PXP","qr_image":"data:image/png;base64,AAAA`),
			capped: true,
			want:   map[string]any{"truncated": true},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			assert.Equal(t, tt.want, loggableBody(tt.body, tt.capped, m))
		})
	}
}

func TestReadRequestBody_KeepsBodyReadable(t *testing.T) {
	t.Parallel()

	large := strings.Repeat("a", maxLoggedBodyBytes+10)
	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(large))

	head, capped := readRequestBody(req)
	assert.True(t, capped)
	assert.Len(t, head, maxLoggedBodyBytes)

	var rest bytes.Buffer
	_, err := rest.ReadFrom(req.Body)
	require.NoError(t, err)
	assert.Equal(t, large, rest.String())
}

func TestStatusRecorder_CapsCapturedBody(t *testing.T) {
	t.Parallel()

	rec := &statusRecorder{ResponseWriter: httptest.NewRecorder()}
	n, err := rec.Write(bytes.Repeat([]byte("x"), maxLoggedBodyBytes+1))
	require.NoError(t, err)

	assert.Equal(t, maxLoggedBodyBytes+1, n)
	assert.Equal(t, http.StatusOK, rec.statusCode())
	assert.True(t, rec.capped)
	assert.Equal(t, maxLoggedBodyBytes, rec.body.Len())
}
