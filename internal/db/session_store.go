// internal/db/session_store.go
package db

import (
	"context"
	"database/sql"
	"errors"
	"time"
)

// SessionStore keeps session values in the session_state table.
type SessionStore struct {
	queries *Queries
	now     func() time.Time
}

func NewSessionStore(queries *Queries) *SessionStore {
	return &SessionStore{queries: queries, now: time.Now}
}

func (s *SessionStore) Get(ctx context.Context, key string) ([]byte, bool, error) {
	value, err := s.queries.GetSessionValue(ctx, key, s.now().Unix())
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, false, nil
		}
		return nil, false, err
	}
	return value, true, nil
}

func (s *SessionStore) Put(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	now := s.now()
	var expiresAt sql.NullInt64
	if ttl > 0 {
		expiresAt = sql.NullInt64{Int64: now.Add(ttl).Unix(), Valid: true}
	}
	return s.queries.UpsertSessionValue(ctx, UpsertSessionValueParams{
		Key:       key,
		Value:     value,
		ExpiresAt: expiresAt,
		UpdatedAt: now.Unix(),
	})
}

func (s *SessionStore) Delete(ctx context.Context, key string) error {
	return s.queries.DeleteSessionValue(ctx, key)
}

// Prune deletes values that expired at or before now.
func (s *SessionStore) Prune(ctx context.Context, now time.Time) (int, error) {
	removed, err := s.queries.DeleteExpiredSessionValues(ctx, now.Unix())
	return int(removed), err
}
