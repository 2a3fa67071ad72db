// internal/db/session_state.sql.go
package db

import (
	"context"
	"database/sql"
)

const getSessionValue = `SELECT value FROM session_state WHERE key = ? AND (expires_at IS NULL OR expires_at > ?)`

func (q *Queries) GetSessionValue(ctx context.Context, key string, now int64) ([]byte, error) {
	var value []byte
	err := q.db.QueryRowContext(ctx, getSessionValue, key, now).Scan(&value)
	return value, err
}

const upsertSessionValue = `INSERT INTO session_state (key, value, expires_at, updated_at)
VALUES (?, ?, ?, ?)
ON CONFLICT (key) DO UPDATE SET value = excluded.value, expires_at = excluded.expires_at, updated_at = excluded.updated_at`

type UpsertSessionValueParams struct {
	Key       string
	Value     []byte
	ExpiresAt sql.NullInt64
	UpdatedAt int64
}

func (q *Queries) UpsertSessionValue(ctx context.Context, arg UpsertSessionValueParams) error {
	_, err := q.db.ExecContext(ctx, upsertSessionValue, arg.Key, arg.Value, arg.ExpiresAt, arg.UpdatedAt)
	return err
}

const deleteSessionValue = `DELETE FROM session_state WHERE key = ?`

func (q *Queries) DeleteSessionValue(ctx context.Context, key string) error {
	_, err := q.db.ExecContext(ctx, deleteSessionValue, key)
	return err
}

const deleteExpiredSessionValues = `DELETE FROM session_state WHERE expires_at IS NOT NULL AND expires_at <= ?`

func (q *Queries) DeleteExpiredSessionValues(ctx context.Context, now int64) (int64, error) {
	result, err := q.db.ExecContext(ctx, deleteExpiredSessionValues, now)
	if err != nil {
		return 0, err
	}
	return result.RowsAffected()
}
