package router_test

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/shandysiswandi/gotfa/internal/pkg/config"
	"github.com/shandysiswandi/gotfa/internal/pkg/goerror"
	"github.com/shandysiswandi/gotfa/internal/pkg/instrument"
	"github.com/shandysiswandi/gotfa/internal/pkg/jwt"
	"github.com/shandysiswandi/gotfa/internal/pkg/router"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeJWT struct{}

func (fakeJWT) Generate(jwt.Subject) (string, error) { return "", nil }

func (fakeJWT) Verify(token string) (jwt.Claims, error) {
	if token != "good" {
		return jwt.Claims{}, jwt.ErrInvalidToken
	}
	return jwt.Claims{UserID: 42}, nil
}

type fixedID string

func (f fixedID) Generate() string { return string(f) }

type okResp struct {
	Enabled bool `json:"enabled"`
}

func (okResp) Message() string { return "done" }

type createdResp struct{}

func (createdResp) StatusCode() int { return http.StatusCreated }

type noContent struct{}

func (noContent) StatusCode() int { return http.StatusNoContent }

func newRouter(t *testing.T) *router.Router {
	t.Helper()

	cfg, err := config.NewViperFromBytes("yaml", []byte(`
app:
  maintenance:
    endpoints: "/api/v1/down"
telemetry:
  log_mask_fields: "code,authorization"
`))
	require.NoError(t, err)

	r := router.NewRouter(router.Config{
		Config:      cfg,
		UUID:        fixedID("cid-generated"),
		JWT:         fakeJWT{},
		Instrument:  instrument.NewNoop(),
		ServiceName: "gotfa",
	})

	r.GET("/api/v1/me", func(req *router.Request) (any, error) {
		clm := jwt.GetAuth(req.Context())
		return okResp{Enabled: clm != nil && clm.UserID == 42}, nil
	})
	r.POST("/api/v1/echo", func(req *router.Request) (any, error) {
		var in struct {
			Code string `json:"code"`
		}
		if err := req.DecodeBody(&in); err != nil {
			return nil, err
		}
		if in.Code == "" {
			return nil, goerror.NewInvalidInput(nil, "code", "code is required")
		}
		return createdResp{}, nil
	})
	r.POST("/api/v1/none", func(*router.Request) (any, error) { return noContent{}, nil })
	r.GET("/api/v1/down", func(*router.Request) (any, error) { return okResp{}, nil })
	r.GET("/api/v1/boom", func(*router.Request) (any, error) { panic("boom") })
	r.GET("/api/v1/raw", func(*router.Request) (any, error) { return nil, errors.New("raw") })
	r.GET("/api/v1/denied", func(*router.Request) (any, error) {
		return nil, goerror.NewBusiness("Invalid code", goerror.CodeUnauthorized)
	})
	r.Public(http.MethodGet, "/health", func(*router.Request) (any, error) { return okResp{Enabled: true}, nil })

	return r
}

func do(t *testing.T, h http.Handler, method, path, body string, headers map[string]string) (*httptest.ResponseRecorder, map[string]any) {
	t.Helper()

	req := httptest.NewRequest(method, path, strings.NewReader(body))
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	var out map[string]any
	if rec.Body.Len() > 0 {
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out))
	}
	return rec, out
}

func TestRouter(t *testing.T) {
	t.Parallel()

	r := newRouter(t)
	auth := map[string]string{"Authorization": "Bearer good"}

	tests := []struct {
		name       string
		method     string
		path       string
		body       string
		headers    map[string]string
		wantStatus int
		wantMsg    string
	}{
		{name: "public root", method: http.MethodGet, path: "/", wantStatus: http.StatusOK, wantMsg: "Welcome to API gotfa"},
		{name: "public health", method: http.MethodGet, path: "/health", wantStatus: http.StatusOK, wantMsg: "done"},
		{name: "missing token", method: http.MethodGet, path: "/api/v1/me", wantStatus: http.StatusUnauthorized, wantMsg: "Authentication required"},
		{name: "bad scheme", method: http.MethodGet, path: "/api/v1/me", headers: map[string]string{"Authorization": "Basic good"}, wantStatus: http.StatusUnauthorized, wantMsg: "Authentication required"},
		{name: "bad token", method: http.MethodGet, path: "/api/v1/me", headers: map[string]string{"Authorization": "Bearer bad"}, wantStatus: http.StatusUnauthorized, wantMsg: "Invalid or expired token"},
		{name: "authenticated", method: http.MethodGet, path: "/api/v1/me", headers: auth, wantStatus: http.StatusOK, wantMsg: "done"},
		{name: "created", method: http.MethodPost, path: "/api/v1/echo", body: `{"code":"123456"}`, headers: auth, wantStatus: http.StatusCreated, wantMsg: "request has been successfully"},
		{name: "validation fields", method: http.MethodPost, path: "/api/v1/echo", body: `{}`, headers: auth, wantStatus: http.StatusUnprocessableEntity, wantMsg: "Validation error"},
		{name: "unknown field", method: http.MethodPost, path: "/api/v1/echo", body: `{"x":1}`, headers: auth, wantStatus: http.StatusBadRequest, wantMsg: "Invalid request body"},
		{name: "trailing data", method: http.MethodPost, path: "/api/v1/echo", body: `{"code":"1"}{}`, headers: auth, wantStatus: http.StatusBadRequest, wantMsg: "Invalid request body"},
		{name: "maintenance", method: http.MethodGet, path: "/api/v1/down", headers: auth, wantStatus: http.StatusServiceUnavailable, wantMsg: "service is under maintenance"},
		{name: "panic", method: http.MethodGet, path: "/api/v1/boom", headers: auth, wantStatus: http.StatusInternalServerError, wantMsg: "Internal server error"},
		{name: "unclassified error", method: http.MethodGet, path: "/api/v1/raw", headers: auth, wantStatus: http.StatusInternalServerError, wantMsg: "Internal server error"},
		{name: "business error", method: http.MethodGet, path: "/api/v1/denied", headers: auth, wantStatus: http.StatusUnauthorized, wantMsg: "Invalid code"},
		{name: "not found", method: http.MethodGet, path: "/nope", wantStatus: http.StatusNotFound, wantMsg: "endpoint not found"},
		{name: "method not allowed", method: http.MethodDelete, path: "/health", wantStatus: http.StatusMethodNotAllowed, wantMsg: "method not allowed"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			rec, out := do(t, r, tt.method, tt.path, tt.body, tt.headers)
			assert.Equal(t, tt.wantStatus, rec.Code)
			assert.Equal(t, tt.wantMsg, out["message"])
		})
	}
}

func TestRouter_ValidationFieldsAndData(t *testing.T) {
	t.Parallel()

	r := newRouter(t)
	auth := map[string]string{"Authorization": "Bearer good"}

	_, out := do(t, r, http.MethodPost, "/api/v1/echo", `{}`, auth)
	assert.Equal(t, map[string]any{"code": "code is required"}, out["error"])

	_, out = do(t, r, http.MethodGet, "/api/v1/me", "", auth)
	assert.Equal(t, map[string]any{"enabled": true}, out["data"])

	rec, _ := do(t, r, http.MethodPost, "/api/v1/none", "", auth)
	assert.Equal(t, http.StatusNoContent, rec.Code)
}

func TestRouter_CorrelationID(t *testing.T) {
	t.Parallel()

	r := newRouter(t)

	rec, _ := do(t, r, http.MethodGet, "/health", "", nil)
	assert.Equal(t, "cid-generated", rec.Header().Get(instrument.HeaderCorrelationID))

	rec, _ = do(t, r, http.MethodGet, "/health", "", map[string]string{instrument.HeaderCorrelationID: "  from-client "})
	assert.Equal(t, "from-client", rec.Header().Get(instrument.HeaderCorrelationID))

	rec, _ = do(t, r, http.MethodGet, "/health", "", map[string]string{router.HeaderRequestID: "req-1"})
	assert.Equal(t, "req-1", rec.Header().Get(instrument.HeaderCorrelationID))
}

func TestChain_Order(t *testing.T) {
	t.Parallel()

	var order []string
	mw := func(name string) router.Middleware {
		return func(next http.Handler) http.Handler {
			return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				order = append(order, name)
				next.ServeHTTP(w, r)
			})
		}
	}

	h := router.Chain(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {
		order = append(order, "handler")
	}), mw("a"), mw("b"))

	h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Equal(t, []string{"a", "b", "handler"}, order)
}
