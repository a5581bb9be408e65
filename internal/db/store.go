package db

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
)

// ReadStore keeps notification read flags in Postgres. It satisfies
// notify.KV.
type ReadStore struct {
	pool *pgxpool.Pool
}

func NewReadStore(pool *pgxpool.Pool) *ReadStore {
	return &ReadStore{pool: pool}
}

func (s *ReadStore) Has(ctx context.Context, key string) (bool, error) {
	var exists bool
	err := s.pool.QueryRow(ctx,
		`SELECT EXISTS(SELECT 1 FROM notification_reads WHERE read_key = $1)`, key,
	).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("failed to query read flag: %w", err)
	}
	return exists, nil
}

// Set records the key; setting it again keeps the first read time.
func (s *ReadStore) Set(ctx context.Context, key string) error {
	_, err := s.pool.Exec(ctx,
		`INSERT INTO notification_reads (read_key) VALUES ($1) ON CONFLICT (read_key) DO NOTHING`, key,
	)
	if err != nil {
		return fmt.Errorf("failed to store read flag: %w", err)
	}
	return nil
}

// Purge deletes flags older than the given number of days. Notifications
// older than the feed window are never listed again.
func (s *ReadStore) Purge(ctx context.Context, olderThanDays int) (int64, error) {
	tag, err := s.pool.Exec(ctx,
		`DELETE FROM notification_reads WHERE read_at < NOW() - make_interval(days => $1)`, olderThanDays,
	)
	if err != nil {
		return 0, fmt.Errorf("failed to purge read flags: %w", err)
	}
	return tag.RowsAffected(), nil
}
