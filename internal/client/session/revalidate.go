package session

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/openlodge/lodge/internal/client/store"
)

// Revalidator periodically re-reads the persisted session and forces the
// logout transition when its expiry has passed. Single-shot timers are not
// guaranteed to fire while the process is suspended; this loop bounds the
// staleness of an expired session to one interval. It only ever pushes
// towards logged-out - an in-flight login is never blocked or delayed, and a
// login that lands between two ticks is simply observed fresh on the next.
type Revalidator struct {
	Store    store.Store
	Manager  *Manager
	Logger   *slog.Logger
	Interval time.Duration

	// Internal channels for lifecycle management
	stopCh chan struct{}
	doneCh chan struct{}
}

// NewRevalidator creates a revalidator with the given interval.
// If interval is 0 or negative, defaults to 45 minutes.
func NewRevalidator(st store.Store, mgr *Manager, logger *slog.Logger, interval time.Duration) *Revalidator {
	if interval <= 0 {
		interval = 45 * time.Minute
	}

	return &Revalidator{
		Store:    st,
		Manager:  mgr,
		Logger:   logger,
		Interval: interval,
		stopCh:   make(chan struct{}),
		doneCh:   make(chan struct{}),
	}
}

// Start begins the background worker that periodically re-validates the
// session. Non-blocking; call Stop() to shut it down.
func (r *Revalidator) Start() {
	go r.run()
	r.Logger.Info("session revalidator started", "interval", r.Interval)
}

// Stop gracefully shuts down the background worker.
// Blocks until any in-progress check has finished.
func (r *Revalidator) Stop() {
	close(r.stopCh)
	<-r.doneCh
	r.Logger.Info("session revalidator stopped")
}

// run is the main background worker loop.
func (r *Revalidator) run() {
	defer close(r.doneCh)

	ticker := time.NewTicker(r.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			r.Check(context.Background())
		case <-r.stopCh:
			return
		}
	}
}

// Check performs one re-validation pass against the persistent store.
// Exported so the timer-less paths (tests, one-shot CLI commands) can run
// the same logic the ticker runs.
func (r *Revalidator) Check(ctx context.Context) {
	sess, err := r.Store.Session().LoadSession(ctx)
	if err != nil {
		if !errors.Is(err, store.ErrNotFound) {
			r.Logger.Error("revalidation failed to read persisted session", "error", err)
		}
		return
	}

	if !sess.Expired(r.Manager.now()) {
		return
	}

	r.Logger.Info("revalidation found expired session, forcing logout",
		"user_id", sess.UserID, "expired_at", sess.ExpiresAt)
	if r.Manager.holdsSession() {
		r.Manager.Expire(ctx)
	} else {
		// Orphaned persisted record with no live session: quiet wipe.
		r.Manager.Logout(ctx)
	}
}
