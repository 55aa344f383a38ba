package usecase_test

import (
	"context"
	"testing"
	"time"

	"github.com/shandysiswandi/gotfa/internal/pkg/goerror"
	"github.com/shandysiswandi/gotfa/internal/pkg/lock"
	"github.com/shandysiswandi/gotfa/internal/tfa/entity"
	"github.com/shandysiswandi/gotfa/internal/tfa/usecase"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIsValidUserCode_FirstUseThenReplay(t *testing.T) {
	t.Parallel()

	e := newEnv(t)
	ctx := context.Background()
	current := e.totp.Timeslice(testNow)

	e.enable(testSecret, current-10)
	settings := e.db.row(testUserID)
	code := e.code(t, testSecret, testNow)

	ok, err := e.uc.IsValidUserCode(ctx, testUserID, code, &settings)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, current, settings.Timeslice)
	assert.Equal(t, current, e.db.row(testUserID).Timeslice)

	ok, err = e.uc.IsValidUserCode(ctx, testUserID, code, &settings)
	require.NoError(t, err)
	assert.False(t, ok)
	assert.Equal(t, current, settings.Timeslice)

	replays := e.events(t, "replay_rejected")
	require.Len(t, replays, 1)
	assert.Equal(t, current, replays[0].Timeslice)
	assert.Equal(t, entity.OutcomeReplay, replays[0].Reason)
}

func TestIsValidUserCode_Monotonic(t *testing.T) {
	t.Parallel()

	e := newEnv(t)
	ctx := context.Background()
	current := e.totp.Timeslice(testNow)

	e.enable(testSecret, current-10)
	settings := e.db.row(testUserID)

	ok, err := e.uc.IsValidUserCode(ctx, testUserID, e.code(t, testSecret, testNow.Add(30*time.Second)), &settings)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, current+1, settings.Timeslice)

	// an older slice inside the window cannot be used once a newer one was
	for _, at := range []time.Time{testNow, testNow.Add(-30 * time.Second)} {
		ok, err = e.uc.IsValidUserCode(ctx, testUserID, e.code(t, testSecret, at), &settings)
		require.NoError(t, err)
		assert.False(t, ok)
		assert.Equal(t, current+1, settings.Timeslice)
	}
}

func TestIsValidUserCode_Window(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		yaml   string
		offset time.Duration
		want   bool
	}{
		{name: "previous slice", offset: -30 * time.Second, want: true},
		{name: "next slice", offset: 30 * time.Second, want: true},
		{name: "two slices behind", offset: -60 * time.Second, want: false},
		{name: "two slices ahead", offset: 60 * time.Second, want: false},
		{name: "zero discrepancy current", yaml: "modules:\n  tfa:\n    discrepancy: 0\n", offset: 0, want: true},
		{name: "zero discrepancy previous", yaml: "modules:\n  tfa:\n    discrepancy: 0\n", offset: -30 * time.Second, want: false},
		{name: "wider discrepancy", yaml: "modules:\n  tfa:\n    discrepancy: 2\n", offset: 60 * time.Second, want: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			var opts []envOption
			if tt.yaml != "" {
				opts = append(opts, withConfig(tt.yaml))
			}
			e := newEnv(t, opts...)

			e.enable(testSecret, e.totp.Timeslice(testNow)-10)
			settings := e.db.row(testUserID)

			ok, err := e.uc.IsValidUserCode(context.Background(), testUserID, e.code(t, testSecret, testNow.Add(tt.offset)), &settings)
			require.NoError(t, err)
			assert.Equal(t, tt.want, ok)
		})
	}
}

func TestIsValidUserCode_FastReject(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		userID   int64
		code     string
		settings *entity.Settings
	}{
		{name: "empty code", userID: testUserID, code: "", settings: &entity.Settings{UserID: testUserID, Enabled: true, Secret: testSecret}},
		{name: "empty secret", userID: testUserID, code: "123456", settings: &entity.Settings{UserID: testUserID, Enabled: true}},
		{name: "nil settings", userID: testUserID, code: "123456"},
		{name: "other user", userID: 7, code: "123456", settings: &entity.Settings{UserID: testUserID, Enabled: true, Secret: testSecret}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			e := newEnv(t)
			ok, err := e.uc.IsValidUserCode(context.Background(), tt.userID, tt.code, tt.settings)
			require.NoError(t, err)
			assert.False(t, ok)
			assert.Zero(t, e.totp.verifies.Load())
		})
	}
}

func TestIsValidUserCode_MalformedCode(t *testing.T) {
	t.Parallel()

	e := newEnv(t)
	e.enable(testSecret, 0)
	settings := e.db.row(testUserID)

	for _, code := range []string{"12345", "1234567", "12a456", " 123456"} {
		ok, err := e.uc.IsValidUserCode(context.Background(), testUserID, code, &settings)
		require.NoError(t, err)
		assert.False(t, ok, code)
	}
	assert.Zero(t, settings.Timeslice)
}

func TestIsValidUserCode_Failures(t *testing.T) {
	t.Parallel()

	t.Run("concurrent consumption", func(t *testing.T) {
		t.Parallel()

		e := newEnv(t)
		e.enable(testSecret, 0)
		e.db.advanceMiss = true
		settings := e.db.row(testUserID)

		ok, err := e.uc.IsValidUserCode(context.Background(), testUserID, e.code(t, testSecret, testNow), &settings)
		require.NoError(t, err)
		assert.False(t, ok)
		assert.Zero(t, settings.Timeslice)
	})

	t.Run("store error propagates", func(t *testing.T) {
		t.Parallel()

		e := newEnv(t)
		e.enable(testSecret, 0)
		e.db.advanceErr = errStore
		settings := e.db.row(testUserID)

		ok, err := e.uc.IsValidUserCode(context.Background(), testUserID, e.code(t, testSecret, testNow), &settings)
		assert.False(t, ok)
		assertCode(t, err, goerror.CodeInternal)
		assert.ErrorIs(t, err, errStore)
	})

	t.Run("unrevealable secret", func(t *testing.T) {
		t.Parallel()

		e := newEnv(t)
		settings := &entity.Settings{UserID: testUserID, Enabled: true, Secret: "c2VhbGVk", Encrypted: true}

		ok, err := e.uc.IsValidUserCode(context.Background(), testUserID, "123456", settings)
		assert.False(t, ok)
		assertCode(t, err, goerror.CodeInternal)
	})
}

func TestEnabledForUser_Strict(t *testing.T) {
	t.Parallel()

	e := newEnv(t)

	assert.True(t, e.uc.EnabledForUser(&entity.Settings{Enabled: true, Secret: testSecret}))
	assert.False(t, e.uc.EnabledForUser(&entity.Settings{Enabled: true}))
	assert.False(t, e.uc.EnabledForUser(&entity.Settings{Secret: testSecret}))
	assert.False(t, e.uc.EnabledForUser(nil))
}

func TestVerify(t *testing.T) {
	t.Parallel()

	t.Run("not enabled", func(t *testing.T) {
		t.Parallel()

		e := newEnv(t)
		_, err := e.uc.Verify(authCtx(), usecase.VerifyInput{Code: "123456"})
		assertCode(t, err, goerror.CodeForbidden)
	})

	t.Run("wrong code", func(t *testing.T) {
		t.Parallel()

		e := newEnv(t)
		e.enable(testSecret, 0)
		_, err := e.uc.Verify(authCtx(), usecase.VerifyInput{Code: e.wrongCode(t, testSecret, testNow)})
		assertCode(t, err, goerror.CodeUnauthorized)
		assert.Equal(t, e.locker.acquired.Load(), e.locker.released.Load())
	})

	t.Run("unauthenticated", func(t *testing.T) {
		t.Parallel()

		e := newEnv(t)
		_, err := e.uc.Verify(context.Background(), usecase.VerifyInput{Code: "123456"})
		assertCode(t, err, goerror.CodeUnauthorized)
	})

	t.Run("lock busy", func(t *testing.T) {
		t.Parallel()

		e := newEnv(t)
		e.locker.err = lock.ErrBusy
		_, err := e.uc.Verify(authCtx(), usecase.VerifyInput{Code: "123456"})
		assertCode(t, err, goerror.CodeTooManyRequest)
	})

	t.Run("settings load failure", func(t *testing.T) {
		t.Parallel()

		e := newEnv(t)
		e.db.getErr = errStore
		_, err := e.uc.Verify(authCtx(), usecase.VerifyInput{Code: "123456"})
		assertCode(t, err, goerror.CodeInternal)
	})

	t.Run("issues step-up token", func(t *testing.T) {
		t.Parallel()

		e := newEnv(t)
		e.enable(testSecret, 0)

		out, err := e.uc.Verify(authCtx(), usecase.VerifyInput{Code: e.code(t, testSecret, testNow)})
		require.NoError(t, err)

		claims, err := e.jwt.Verify(out.AccessToken)
		require.NoError(t, err)
		assert.True(t, claims.TFAVerified)
		assert.Equal(t, "ada@example.com", claims.UserEmail)
		assert.Equal(t, e.totp.Timeslice(testNow), e.db.row(testUserID).Timeslice)
		assert.Equal(t, int32(1), e.locker.released.Load())
	})
}
