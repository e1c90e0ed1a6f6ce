package session

import (
	"context"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/openlodge/lodge/internal/client/domain"
	"github.com/openlodge/lodge/internal/client/store"
	"github.com/stretchr/testify/require"
)

func newTestRevalidator(env *testEnv, interval time.Duration) *Revalidator {
	return NewRevalidator(env.store, env.mgr, slog.New(slog.NewTextHandler(io.Discard, nil)), interval)
}

func TestRevalidationBackstopCatchesMissedTimer(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	require.NoError(t, env.mgr.Login(ctx, env.passwordSession(domain.OTPSessionTTL)))

	// The armed timer never fires (timerControl swallows it) - the process
	// was "suspended". Time passes beyond the expiry.
	env.advance(domain.OTPSessionTTL + time.Minute)

	rv := newTestRevalidator(env, time.Hour)
	rv.Check(ctx)

	require.False(t, env.mgr.Authenticated())
	require.Equal(t, []string{
		"reset",
		"notify:error:Your session has expired. Please log in again.",
	}, env.rec.Events())

	_, err := env.store.Session().LoadSession(ctx)
	require.ErrorIs(t, err, store.ErrNotFound)
}

func TestRevalidationLeavesFreshSessionAlone(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	require.NoError(t, env.mgr.Login(ctx, env.passwordSession(domain.PasswordSessionTTL)))

	rv := newTestRevalidator(env, time.Hour)
	rv.Check(ctx)

	require.True(t, env.mgr.Authenticated())
	require.Empty(t, env.rec.Events())
}

func TestRevalidationNoopsWhenLoggedOut(t *testing.T) {
	env := newTestEnv(t)

	rv := newTestRevalidator(env, time.Hour)
	rv.Check(context.Background())

	require.False(t, env.mgr.Authenticated())
	require.Empty(t, env.rec.Events())
}

func TestRevalidationWipesOrphanedExpiredRecord(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	// Expired record on disk, but no live in-memory session (e.g. the
	// startup wipe was interrupted). Quiet self-healing, no notification.
	expired := env.passwordSession(-time.Minute)
	require.NoError(t, env.store.Session().SaveSession(ctx, expired))

	rv := newTestRevalidator(env, time.Hour)
	rv.Check(ctx)

	_, err := env.store.Session().LoadSession(ctx)
	require.ErrorIs(t, err, store.ErrNotFound)
	require.Empty(t, env.rec.Events())
}

func TestRevalidationObservesFreshLoginBetweenTicks(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	// First session expires...
	require.NoError(t, env.mgr.Login(ctx, env.passwordSession(domain.OTPSessionTTL)))
	env.advance(domain.OTPSessionTTL + time.Second)

	// ...but a new login lands before the next revalidation tick.
	fresh := domain.Session{
		Token:     "tok-fresh",
		ExpiresAt: env.now.Add(domain.PasswordSessionTTL),
		UserID:    "u-1",
		Method:    domain.LoginMethodPassword,
	}
	require.NoError(t, env.mgr.Login(ctx, fresh))

	rv := newTestRevalidator(env, time.Hour)
	rv.Check(ctx)

	current, ok := env.mgr.Current()
	require.True(t, ok)
	require.Equal(t, "tok-fresh", current.Token)
	require.Empty(t, env.rec.Events())
}

// staleReadStore hands back the persisted session but runs a hook after the
// read, modeling a transition that lands while a revalidation pass is still
// holding its snapshot.
type staleReadStore struct {
	store.Store
	afterLoad func()
}

func (s *staleReadStore) Session() store.SessionRecord {
	return &staleReadSession{SessionRecord: s.Store.Session(), afterLoad: s.afterLoad}
}

type staleReadSession struct {
	store.SessionRecord
	afterLoad func()
}

func (s *staleReadSession) LoadSession(ctx context.Context) (domain.Session, error) {
	sess, err := s.SessionRecord.LoadSession(ctx)
	if s.afterLoad != nil {
		s.afterLoad()
	}
	return sess, err
}

func TestRevalidationSparesLoginLandingMidCheck(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	require.NoError(t, env.mgr.Login(ctx, env.passwordSession(domain.OTPSessionTTL)))
	env.advance(domain.OTPSessionTTL + time.Minute)

	// The pass reads the expired record, then a fresh login completes before
	// the forced-logout step runs. The fresh session must survive.
	fresh := domain.Session{
		Token:     "tok-fresh",
		ExpiresAt: env.now.Add(domain.PasswordSessionTTL),
		UserID:    "u-1",
		Method:    domain.LoginMethodPassword,
	}
	gated := &staleReadStore{Store: env.store, afterLoad: func() {
		require.NoError(t, env.mgr.Login(ctx, fresh))
	}}

	rv := NewRevalidator(gated, env.mgr, slog.New(slog.NewTextHandler(io.Discard, nil)), time.Hour)
	rv.Check(ctx)

	current, ok := env.mgr.Current()
	require.True(t, ok, "login landing mid-check must not be torn down")
	require.Equal(t, "tok-fresh", current.Token)
	require.Empty(t, env.rec.Events())

	persisted, err := env.store.Session().LoadSession(ctx)
	require.NoError(t, err)
	require.Equal(t, "tok-fresh", persisted.Token)
}

func TestRevalidatorStartStopLifecycle(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	require.NoError(t, env.mgr.Login(ctx, env.passwordSession(domain.OTPSessionTTL)))
	env.advance(domain.OTPSessionTTL + time.Minute)

	rv := newTestRevalidator(env, 10*time.Millisecond)
	rv.Start()
	defer rv.Stop()

	// The logout transition (not just the expired read) must happen: the
	// tick clears storage and raises the expiry notification.
	require.Eventually(t, func() bool {
		return len(env.rec.Events()) == 2 && !env.mgr.holdsSession()
	}, 2*time.Second, 5*time.Millisecond)
}

func TestDefaultIntervalIs45Minutes(t *testing.T) {
	env := newTestEnv(t)
	rv := NewRevalidator(env.store, env.mgr, slog.New(slog.NewTextHandler(io.Discard, nil)), 0)
	require.Equal(t, 45*time.Minute, rv.Interval)
}
