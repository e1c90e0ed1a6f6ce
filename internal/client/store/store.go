package store

import (
	"context"
	"errors"

	"github.com/openlodge/lodge/internal/client/domain"
)

var ErrNotFound = errors.New("store: not found")

// Store is the durable mirror of client state. Concrete drivers (sqlite)
// implement this. Only the session manager writes through it; everything
// else requests a transition instead of touching storage directly.
type Store interface {
	Session() SessionRecord

	ApplyMigrations() error

	// Tx starts a read/write transaction and returns a Tx-scoped Store.
	// The caller MUST call Commit() or Rollback() on the returned Tx.
	Tx(ctx context.Context) (Tx, error)

	// WithTx executes a function within a transaction.
	// If fn returns an error, the transaction is rolled back.
	// If fn returns nil, the transaction is committed.
	WithTx(ctx context.Context, fn func(tx Tx) error) error

	// Close releases any underlying resources.
	Close() error

	// Ping verifies the database connection is still alive.
	Ping(ctx context.Context) error
}

// Tx is a transactional store. It embeds the same repos but adds Commit/Rollback.
type Tx interface {
	Store
	Commit() error
	Rollback() error
}

// SessionRecord persists the four session fields (token, expiry, user id,
// login method) as a group. Save and Delete are atomic from the caller's
// perspective; no reader observes a partial set.
type SessionRecord interface {
	// SaveSession writes all session fields, replacing any previous record.
	SaveSession(ctx context.Context, s domain.Session) error

	// LoadSession returns the persisted session, or ErrNotFound when no
	// record (or only a partial/unreadable record) exists.
	LoadSession(ctx context.Context) (domain.Session, error)

	// DeleteSession removes all session fields. Deleting an absent record
	// is not an error.
	DeleteSession(ctx context.Context) error
}
