package cache

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/lib/pq"
)

// PostgresStore keeps entries in the metrics_cache table created by
// cmd/migrate.
type PostgresStore struct {
	db *sql.DB
}

func NewPostgresStore(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

func (s *PostgresStore) Name() string { return "postgres" }

func (s *PostgresStore) Get(ctx context.Context, key string) (Entry, error) {
	var e Entry
	var raw []byte
	err := s.db.QueryRowContext(ctx,
		`SELECT metrics, last_updated FROM metrics_cache WHERE id = $1`, key,
	).Scan(&raw, &e.LastUpdated)
	if errors.Is(err, sql.ErrNoRows) {
		return Entry{}, ErrMiss
	}
	if err != nil {
		return Entry{}, fmt.Errorf("query metrics_cache %s: %w", key, err)
	}
	e.Metrics = raw
	return e, nil
}

func (s *PostgresStore) Put(ctx context.Context, key string, e Entry) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO metrics_cache (id, metrics, last_updated)
		VALUES ($1, $2, $3)
		ON CONFLICT (id) DO UPDATE
		SET metrics = EXCLUDED.metrics, last_updated = EXCLUDED.last_updated`,
		key, []byte(e.Metrics), e.LastUpdated,
	)
	if err != nil {
		return fmt.Errorf("upsert metrics_cache %s: %w", key, err)
	}
	return nil
}

func (s *PostgresStore) Delete(ctx context.Context, keys ...string) error {
	if len(keys) == 0 {
		return nil
	}
	if _, err := s.db.ExecContext(ctx,
		`DELETE FROM metrics_cache WHERE id = ANY($1)`, pq.Array(keys),
	); err != nil {
		return fmt.Errorf("delete metrics_cache: %w", err)
	}
	return nil
}

func (s *PostgresStore) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}
