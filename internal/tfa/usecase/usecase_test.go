package usecase_test

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	libJWT "github.com/golang-jwt/jwt/v5"
	"github.com/shandysiswandi/gotfa/internal/pkg/clock"
	"github.com/shandysiswandi/gotfa/internal/pkg/config"
	"github.com/shandysiswandi/gotfa/internal/pkg/goerror"
	"github.com/shandysiswandi/gotfa/internal/pkg/goroutine"
	"github.com/shandysiswandi/gotfa/internal/pkg/instrument"
	"github.com/shandysiswandi/gotfa/internal/pkg/jwt"
	"github.com/shandysiswandi/gotfa/internal/pkg/lock"
	"github.com/shandysiswandi/gotfa/internal/pkg/otp"
	"github.com/shandysiswandi/gotfa/internal/pkg/qrcode"
	"github.com/shandysiswandi/gotfa/internal/pkg/uid"
	"github.com/shandysiswandi/gotfa/internal/pkg/validator"
	"github.com/shandysiswandi/gotfa/internal/pkg/vault"
	"github.com/shandysiswandi/gotfa/internal/tfa/entity"
	"github.com/shandysiswandi/gotfa/internal/tfa/usecase"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	pquerna "github.com/pquerna/otp"
)

const (
	testUserID  int64 = 42
	testSession       = "sess-1"
	testSecret        = "JBSWY3DPEHPK3PXPJBSWY3DPEHPK3PXP"
)

// start of a 30 second slice
var testNow = time.Unix(1_700_000_010, 0)

type fakeDB struct {
	mu   sync.Mutex
	rows map[int64]entity.Settings

	getErr      error
	saveErr     error
	advanceErr  error
	advanceMiss bool
	saves       int
}

func newFakeDB() *fakeDB {
	return &fakeDB{rows: map[int64]entity.Settings{}}
}

func (f *fakeDB) GetSettings(_ context.Context, userID int64) (*entity.Settings, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.getErr != nil {
		return nil, f.getErr
	}
	row, ok := f.rows[userID]
	if !ok {
		return entity.NewSettings(userID), nil
	}
	return &row, nil
}

func (f *fakeDB) SaveSettings(_ context.Context, s *entity.Settings) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.saveErr != nil {
		return f.saveErr
	}
	f.saves++

	row := *s
	row.PendingConfirmCode = ""
	row.Timeslice = max(row.Timeslice, f.rows[s.UserID].Timeslice)
	f.rows[s.UserID] = row
	return nil
}

func (f *fakeDB) AdvanceTimeslice(_ context.Context, userID, from, to int64) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.advanceErr != nil {
		return false, f.advanceErr
	}
	row, ok := f.rows[userID]
	if f.advanceMiss || !ok || row.Timeslice != from || to <= from {
		return false, nil
	}
	row.Timeslice = to
	f.rows[userID] = row
	return true, nil
}

func (f *fakeDB) row(userID int64) entity.Settings {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.rows[userID]
}

func (f *fakeDB) seed(s entity.Settings) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.rows[s.UserID] = s
}

type fakeSession struct {
	mu      sync.Mutex
	pending map[string]entity.PendingSecret
	ttl     time.Duration
	setErr  error
	takeErr error
}

func (f *fakeSession) SetPendingSecret(_ context.Context, sessionID string, p entity.PendingSecret, ttl time.Duration) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.setErr != nil {
		return f.setErr
	}
	f.pending[sessionID] = p
	f.ttl = ttl
	return nil
}

func (f *fakeSession) TakePendingSecret(_ context.Context, sessionID string) (*entity.PendingSecret, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.takeErr != nil {
		return nil, f.takeErr
	}
	p, ok := f.pending[sessionID]
	if !ok {
		return nil, goerror.ErrNotFound
	}
	delete(f.pending, sessionID)
	return &p, nil
}

func (f *fakeSession) has(sessionID string) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	_, ok := f.pending[sessionID]
	return ok
}

type fakeMessaging struct {
	mu     sync.Mutex
	events map[string][]usecase.TFAEvent
}

func (f *fakeMessaging) add(kind string, msg usecase.TFAEvent) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.events[kind] = append(f.events[kind], msg)
	return nil
}

func (f *fakeMessaging) PublishTFAEnabled(_ context.Context, msg usecase.TFAEvent) error {
	return f.add("enabled", msg)
}

func (f *fakeMessaging) PublishTFADisabled(_ context.Context, msg usecase.TFAEvent) error {
	return f.add("disabled", msg)
}

func (f *fakeMessaging) PublishTFAReplayRejected(_ context.Context, msg usecase.TFAEvent) error {
	return f.add("replay_rejected", msg)
}

type fakeLocker struct {
	err      error
	acquired atomic.Int32
	released atomic.Int32
}

func (f *fakeLocker) Lock(context.Context, string, time.Duration) (lock.Unlock, error) {
	if f.err != nil {
		return nil, f.err
	}
	f.acquired.Add(1)
	return func(context.Context) error {
		f.released.Add(1)
		return nil
	}, nil
}

// countingOTP counts Verify calls on a real codec.
type countingOTP struct {
	*otp.TOTP
	verifies atomic.Int32
}

func (c *countingOTP) Verify(code, secret string, discrepancy uint, at time.Time) (bool, int64) {
	c.verifies.Add(1)
	return c.TOTP.Verify(code, secret, discrepancy, at)
}

type env struct {
	uc       *usecase.Usecase
	db       *fakeDB
	session  *fakeSession
	mq       *fakeMessaging
	locker   *fakeLocker
	totp     *countingOTP
	clock    *clock.Fixed
	jwt      jwt.JWT
	routines *goroutine.Manager
}

type envOption func(*envConfig)

type envConfig struct {
	yaml  string
	vault vault.Vault
}

func withConfig(yaml string) envOption {
	return func(c *envConfig) { c.yaml = yaml }
}

func withVault(v vault.Vault) envOption {
	return func(c *envConfig) { c.vault = v }
}

func newEnv(t *testing.T, opts ...envOption) *env {
	t.Helper()

	ec := envConfig{
		yaml:  "modules:\n  tfa:\n    pending_ttl_minutes: 5\n",
		vault: vault.NewPassthrough(),
	}
	for _, opt := range opts {
		opt(&ec)
	}

	cfg, err := config.NewViperFromBytes("yaml", []byte(ec.yaml))
	require.NoError(t, err)

	val, err := validator.NewV10Validator()
	require.NoError(t, err)

	clk := clock.NewFixed(testNow)

	tokens, err := jwt.NewHS512(jwt.Config{
		Secret: bytes.Repeat([]byte("k"), 64),
		Issuer: "gotfa",
		TTL:    time.Minute,
		Clock:  clk,
		UUID:   uid.NewUUID(),
	})
	require.NoError(t, err)

	e := &env{
		db:       newFakeDB(),
		session:  &fakeSession{pending: map[string]entity.PendingSecret{}},
		mq:       &fakeMessaging{events: map[string][]usecase.TFAEvent{}},
		locker:   &fakeLocker{},
		totp:     &countingOTP{TOTP: otp.NewTOTP("Acme", 30, pquerna.DigitsSix)},
		clock:    clk,
		jwt:      tokens,
		routines: goroutine.NewManager(4),
	}

	e.uc = usecase.New(usecase.Dependency{
		RepoDB:        e.db,
		RepoSession:   e.session,
		RepoMessaging: e.mq,
		Locker:        e.locker,
		Validator:     val,
		Config:        cfg,
		Vault:         ec.vault,
		Totp:          e.totp,
		QRCode:        qrcode.New(128),
		Clock:         clk,
		JWT:           tokens,
		Instrument:    instrument.NewNoop(),
		Goroutine:     e.routines,
	})

	return e
}

func (e *env) events(t *testing.T, kind string) []usecase.TFAEvent {
	t.Helper()

	require.NoError(t, e.routines.Wait())

	e.mq.mu.Lock()
	defer e.mq.mu.Unlock()
	return e.mq.events[kind]
}

func (e *env) code(t *testing.T, secret string, at time.Time) string {
	t.Helper()

	c, err := e.totp.GenerateCode(secret, at)
	require.NoError(t, err)
	return c
}

// wrongCode returns a well-formed code that matches none of the slices within ±2 of at.
func (e *env) wrongCode(t *testing.T, secret string, at time.Time) string {
	t.Helper()

	for i := range 1_000_000 {
		c := fmt.Sprintf("%06d", i)
		if ok, _ := e.totp.TOTP.Verify(c, secret, 2, at); !ok {
			return c
		}
	}
	t.Fatal("no wrong code found")
	return ""
}

func (e *env) enable(secret string, timeslice int64) {
	e.db.seed(entity.Settings{UserID: testUserID, Enabled: true, Secret: secret, Timeslice: timeslice})
}

func authCtx() context.Context {
	return jwt.SetAuth(context.Background(), jwt.Claims{
		RegisteredClaims: libJWT.RegisteredClaims{ID: testSession},
		UserID:           testUserID,
		UserEmail:        "ada@example.com",
	})
}

func assertCode(t *testing.T, err error, code goerror.Code) {
	t.Helper()

	var gerr *goerror.Error
	require.ErrorAs(t, err, &gerr)
	assert.Equal(t, code, gerr.Code(), gerr.String())
}

var errStore = errors.New("store unavailable")
