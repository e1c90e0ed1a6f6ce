// Package session owns the client's authenticated-session lifecycle: the
// logged-out/authenticated state machine, the durable mirror of the session,
// the expiry timer, and the periodic re-validation backstop.
package session

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/openlodge/lodge/internal/client/domain"
	"github.com/openlodge/lodge/internal/client/store"
	"github.com/openlodge/lodge/internal/client/ui"
)

// User-facing notification text for the two logout triggers.
const (
	msgLoggedOut      = "You have been logged out."
	msgSessionExpired = "Your session has expired. Please log in again."
)

// Manager is the authoritative holder of the client's session. It is the
// single writer of the persisted session record; credential flows and
// collaborators request transitions, they never touch storage themselves.
type Manager struct {
	store    store.Store
	nav      ui.Navigator
	notifier ui.Notifier
	logger   *slog.Logger

	// Injected for tests. Production uses time.Now / time.AfterFunc.
	now       func() time.Time
	afterFunc func(d time.Duration, f func()) *time.Timer

	mu       sync.Mutex
	session  *domain.Session
	pending  *domain.PendingTwoFactor
	timer    *time.Timer
	timerGen uint64
}

// NewManager wires a session manager to its durable store and the two
// presentation capabilities it coordinates on logout.
func NewManager(st store.Store, nav ui.Navigator, notifier ui.Notifier, logger *slog.Logger) *Manager {
	return &Manager{
		store:     st,
		nav:       nav,
		notifier:  notifier,
		logger:    logger,
		now:       time.Now,
		afterFunc: time.AfterFunc,
	}
}

// Restore reads the persistent store at process start. No record leaves the
// manager logged out; an expired record is wiped; a live record re-enters
// the authenticated state with the expiry timer armed for the remainder.
func (m *Manager) Restore(ctx context.Context) error {
	sess, err := m.store.Session().LoadSession(ctx)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil
		}
		return err
	}

	// If the token is a JWT its exp claim is authoritative when earlier
	// than the persisted expiry. The signature is not checked; token
	// validity is the backend's concern.
	if claimExp, ok := tokenExpiry(sess.Token); ok && claimExp.Before(sess.ExpiresAt) {
		sess.ExpiresAt = claimExp
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	now := m.now()
	if sess.Expired(now) {
		m.logger.Info("persisted session already expired, wiping", "user_id", sess.UserID)
		m.deletePersisted(ctx)
		return nil
	}

	m.session = &sess
	m.armTimerLocked(sess.Remaining(now))
	m.logger.Info("session restored",
		"user_id", sess.UserID,
		"method", sess.Method,
		"expires_in", sess.Remaining(now).Round(time.Second))
	return nil
}

// Login performs the LoggedOut -> Authenticated transition. The four session
// fields are persisted as a group, any previously armed expiry timer is
// cancelled, and a fresh one is armed for the remaining lifetime. A session
// that is already expired on arrival (clock skew, stale response) is refused
// and the manager stays, or becomes, logged out.
func (m *Manager) Login(ctx context.Context, sess domain.Session) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	now := m.now()
	delay := sess.Remaining(now)
	if delay <= 0 {
		m.logger.Warn("refusing already-expired session",
			"user_id", sess.UserID, "expires_at", sess.ExpiresAt)
		m.clearLocked(ctx)
		return ErrSessionExpired
	}

	err := m.store.WithTx(ctx, func(tx store.Tx) error {
		if err := tx.Session().DeleteSession(ctx); err != nil {
			return err
		}
		return tx.Session().SaveSession(ctx, sess)
	})
	if err != nil {
		return err
	}

	m.session = &sess
	m.pending = nil // a completed login supersedes any pending second factor
	m.armTimerLocked(delay)

	m.logger.Info("logged in",
		"user_id", sess.UserID,
		"method", sess.Method,
		"expires_in", delay.Round(time.Second))
	return nil
}

// Logout performs the Authenticated -> LoggedOut transition on explicit user
// request. It is best-effort and never fails: storage trouble is logged and
// the in-memory state still reaches logged-out. Calling it while already
// logged out is a no-op that leaves persisted storage empty.
func (m *Manager) Logout(ctx context.Context) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.session == nil && m.pending == nil {
		// Already logged out. Keep the mirror clean but stay quiet.
		m.deletePersisted(ctx)
		return
	}

	m.logoutLocked(ctx, ui.NotifySuccess, msgLoggedOut)
}

// Expire forces the logout transition because the session's expiry has
// passed. Used by the timer callback and the periodic revalidator.
func (m *Manager) Expire(ctx context.Context) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.session == nil {
		return
	}
	if !m.session.Expired(m.now()) {
		// A newer login superseded the snapshot that triggered this call;
		// the live session must not be torn down on stale evidence.
		return
	}
	m.logoutLocked(ctx, ui.NotifyError, msgSessionExpired)
}

// Current returns the active session. An expired session is never handed
// out: it reads as logged out until the coordinator finishes the transition.
func (m *Manager) Current() (domain.Session, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.session == nil || m.session.Expired(m.now()) {
		return domain.Session{}, false
	}
	return *m.session, true
}

// Authenticated reports whether a live session is held.
func (m *Manager) Authenticated() bool {
	_, ok := m.Current()
	return ok
}

// holdsSession reports whether any in-memory session is present, expired or
// not. Used by the revalidator to pick between a noisy expiry transition and
// a quiet wipe of an orphaned persisted record.
func (m *Manager) holdsSession() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.session != nil
}

// SetPendingTwoFactor records that the backend dispatched a second-factor
// challenge for userID. At most one pending marker exists; a newer challenge
// replaces an older one.
func (m *Manager) SetPendingTwoFactor(userID string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.pending = &domain.PendingTwoFactor{UserID: userID}
	m.logger.Info("second factor pending", "user_id", userID)
}

// PendingTwoFactor returns the pending second-factor marker, if any.
func (m *Manager) PendingTwoFactor() (domain.PendingTwoFactor, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.pending == nil {
		return domain.PendingTwoFactor{}, false
	}
	return *m.pending, true
}

// ClearPendingTwoFactor abandons an in-progress second-factor challenge.
func (m *Manager) ClearPendingTwoFactor() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.pending = nil
}

// logoutLocked runs the logout side effects in their contractual order:
// clear memory, delete the persisted record, cancel the timer, reset
// navigation, and only then notify the user. Navigation must settle before
// the notification so the toast lands on a screen that survives it.
func (m *Manager) logoutLocked(ctx context.Context, kind ui.NotifyKind, message string) {
	m.clearLocked(ctx)
	m.nav.ResetToRoot()
	m.notifier.Notify(kind, message)
}

// clearLocked drops the in-memory session and pending marker, wipes the
// persisted mirror, and disarms the expiry timer. No collaborator calls.
func (m *Manager) clearLocked(ctx context.Context) {
	m.session = nil
	m.pending = nil
	m.deletePersisted(ctx)
	m.cancelTimerLocked()
}

// deletePersisted is best-effort: a stale persisted record is already
// guarded against at startup and by re-validation.
func (m *Manager) deletePersisted(ctx context.Context) {
	if err := m.store.Session().DeleteSession(ctx); err != nil {
		m.logger.Error("failed to delete persisted session", "error", err)
	}
}

// armTimerLocked cancels any previously armed expiry timer and arms a new
// one. The generation counter renders a stale timer that already fired
// harmless: its callback no-ops instead of logging out a newer session.
func (m *Manager) armTimerLocked(delay time.Duration) {
	m.cancelTimerLocked()

	m.timerGen++
	gen := m.timerGen
	m.timer = m.afterFunc(delay, func() {
		m.onTimerFired(gen)
	})
}

func (m *Manager) cancelTimerLocked() {
	if m.timer != nil {
		m.timer.Stop()
		m.timer = nil
	}
}

// onTimerFired is the expiry timer callback. The timer is a best-effort
// optimization; the revalidator provides the correctness guarantee when the
// process was suspended and the timer never ran.
func (m *Manager) onTimerFired(gen uint64) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if gen != m.timerGen || m.session == nil {
		return // superseded by a newer login or an earlier logout
	}
	m.logger.Info("session expiry timer fired", "user_id", m.session.UserID)
	m.logoutLocked(context.Background(), ui.NotifyError, msgSessionExpired)
}

// tokenExpiry extracts the exp claim from a JWT bearer token without
// verifying its signature. Returns false for opaque tokens.
func tokenExpiry(token string) (time.Time, bool) {
	claims := jwt.RegisteredClaims{}
	parser := jwt.NewParser()
	if _, _, err := parser.ParseUnverified(token, &claims); err != nil {
		return time.Time{}, false
	}
	if claims.ExpiresAt == nil {
		return time.Time{}, false
	}
	return claims.ExpiresAt.Time, true
}
