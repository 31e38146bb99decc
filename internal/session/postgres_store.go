package session

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// PostgresStore keeps session values in the portal_session_values table.
type PostgresStore struct {
	pool *pgxpool.Pool
	ttl  time.Duration
}

var _ Store = (*PostgresStore)(nil)

// NewPostgresStore constructs a store on top of an open pool.
func NewPostgresStore(pool *pgxpool.Pool, ttl time.Duration) *PostgresStore {
	if ttl <= 0 {
		ttl = 2 * time.Hour
	}
	return &PostgresStore{pool: pool, ttl: ttl}
}

func (s *PostgresStore) Get(ctx context.Context, sid, key string) (string, bool, error) {
	const query = `
        UPDATE portal_session_values SET expires_at = $3
        WHERE session_id=$1 AND key=$2 AND expires_at > NOW()
        RETURNING value`
	var value string
	if err := s.pool.QueryRow(ctx, query, sid, key, s.expiry()).Scan(&value); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return "", false, nil
		}
		return "", false, fmt.Errorf("load session value: %w", err)
	}
	return value, true, nil
}

func (s *PostgresStore) Set(ctx context.Context, sid, key, value string) error {
	const upsert = `
        INSERT INTO portal_session_values (session_id, key, value, expires_at)
        VALUES ($1,$2,$3,$4)
        ON CONFLICT (session_id, key)
        DO UPDATE SET value=EXCLUDED.value, expires_at=EXCLUDED.expires_at`
	const touch = `
        UPDATE portal_session_values SET expires_at = $2
        WHERE session_id=$1`

	expiresAt := s.expiry()
	batch := &pgx.Batch{}
	batch.Queue(upsert, sid, key, value, expiresAt)
	batch.Queue(touch, sid, expiresAt)
	if err := s.pool.SendBatch(ctx, batch).Close(); err != nil {
		return fmt.Errorf("persist session value: %w", err)
	}
	return nil
}

func (s *PostgresStore) Clear(ctx context.Context, sid string, keys ...string) error {
	var err error
	if len(keys) == 0 {
		_, err = s.pool.Exec(ctx, `DELETE FROM portal_session_values WHERE session_id=$1`, sid)
	} else {
		_, err = s.pool.Exec(ctx, `DELETE FROM portal_session_values WHERE session_id=$1 AND key = ANY($2)`, sid, keys)
	}
	if err != nil {
		return fmt.Errorf("clear session: %w", err)
	}
	return nil
}

// PurgeExpired deletes rows past their expiry and returns how many went.
func (s *PostgresStore) PurgeExpired(ctx context.Context) (int64, error) {
	tag, err := s.pool.Exec(ctx, `DELETE FROM portal_session_values WHERE expires_at <= NOW()`)
	if err != nil {
		return 0, fmt.Errorf("purge sessions: %w", err)
	}
	return tag.RowsAffected(), nil
}

func (s *PostgresStore) expiry() time.Time {
	return time.Now().Add(s.ttl).UTC()
}
