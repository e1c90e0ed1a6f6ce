package sqlite

import (
	"context"
	"fmt"
	"time"

	"github.com/openlodge/lodge/internal/client/domain"
	"github.com/openlodge/lodge/internal/client/store"
	"github.com/openlodge/lodge/pkg/cryptox"
)

// Persisted key names for the session record. These four keys are written
// and deleted as a group; readers treat a partial or unreadable set as no
// record at all.
const (
	keyToken          = "token"
	keyExpirationTime = "expirationTime"
	keyUserID         = "userId"
	keyLoginMethod    = "loginMethod"
)

type sessionRepo struct {
	db dbtx
}

// SaveSession upserts all four session fields in a single statement, so
// the group is replaced atomically. The bearer token is sealed at rest.
func (r *sessionRepo) SaveSession(ctx context.Context, s domain.Session) error {
	sealedToken, err := cryptox.Seal(s.Token)
	if err != nil {
		return fmt.Errorf("seal token: %w", err)
	}

	const q = `
		INSERT INTO session_state (key, value, updated_at)
		VALUES (?, ?, CURRENT_TIMESTAMP), (?, ?, CURRENT_TIMESTAMP),
		       (?, ?, CURRENT_TIMESTAMP), (?, ?, CURRENT_TIMESTAMP)
		ON CONFLICT(key) DO UPDATE SET
			value = excluded.value,
			updated_at = excluded.updated_at;`

	_, err = r.db.ExecContext(ctx, q,
		keyToken, sealedToken,
		keyExpirationTime, s.ExpiresAt.UTC().Format(time.RFC3339),
		keyUserID, s.UserID,
		keyLoginMethod, string(s.Method),
	)
	return err
}

// LoadSession reads the persisted session. A missing, partial or unreadable
// record yields store.ErrNotFound; callers wipe and carry on logged out.
func (r *sessionRepo) LoadSession(ctx context.Context) (domain.Session, error) {
	const q = `
		SELECT key, value FROM session_state
		WHERE key IN (?, ?, ?, ?);`

	rows, err := r.db.QueryContext(ctx, q, keyToken, keyExpirationTime, keyUserID, keyLoginMethod)
	if err != nil {
		return domain.Session{}, err
	}
	defer rows.Close()

	values := make(map[string]string, 4)
	for rows.Next() {
		var k, v string
		if err := rows.Scan(&k, &v); err != nil {
			return domain.Session{}, err
		}
		values[k] = v
	}
	if err := rows.Err(); err != nil {
		return domain.Session{}, err
	}

	if len(values) < 4 {
		return domain.Session{}, store.ErrNotFound
	}

	token, err := cryptox.Open(values[keyToken])
	if err != nil {
		// Unreadable token (e.g. master key changed): treat as absent.
		return domain.Session{}, store.ErrNotFound
	}

	expiresAt, err := time.Parse(time.RFC3339, values[keyExpirationTime])
	if err != nil {
		return domain.Session{}, store.ErrNotFound
	}

	method := domain.LoginMethod(values[keyLoginMethod])
	if !method.Valid() {
		return domain.Session{}, store.ErrNotFound
	}

	return domain.Session{
		Token:     token,
		ExpiresAt: expiresAt,
		UserID:    values[keyUserID],
		Method:    method,
	}, nil
}

// DeleteSession removes all session fields in one statement.
func (r *sessionRepo) DeleteSession(ctx context.Context) error {
	const q = `DELETE FROM session_state WHERE key IN (?, ?, ?, ?);`
	_, err := r.db.ExecContext(ctx, q, keyToken, keyExpirationTime, keyUserID, keyLoginMethod)
	return err
}
