package sqlite

import (
	"context"
	"database/sql"
	"errors"

	"github.com/openlodge/lodge/internal/client/store"
)

// txStore is a transaction-scoped store. It exposes the same repos bound to
// the transaction plus Commit/Rollback.
type txStore struct {
	tx *sql.Tx
}

func newTx(tx *sql.Tx) *txStore {
	return &txStore{tx: tx}
}

func (t *txStore) Session() store.SessionRecord { return &sessionRepo{db: t.tx} }

func (t *txStore) Commit() error   { return t.tx.Commit() }
func (t *txStore) Rollback() error { return t.tx.Rollback() }

// Nested transactions are not supported; a Tx already is one.
func (t *txStore) Tx(ctx context.Context) (store.Tx, error) {
	return nil, errors.New("sqlite: nested transactions are not supported")
}

func (t *txStore) WithTx(ctx context.Context, fn func(tx store.Tx) error) error {
	return errors.New("sqlite: nested transactions are not supported")
}

func (t *txStore) ApplyMigrations() error {
	return errors.New("sqlite: cannot apply migrations inside a transaction")
}

func (t *txStore) Close() error { return nil }

func (t *txStore) Ping(ctx context.Context) error { return nil }
