// Package distlock serializes metrics recomputation across replicas.
package distlock

import (
	"context"
	"database/sql"
	"fmt"
	"hash/fnv"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
)

// Lock is a single non-blocking lock attempt on one key.
// A Lock value is not safe for concurrent use; create one per attempt.
type Lock interface {
	// Acquire tries to take the lock and reports whether it succeeded.
	Acquire(ctx context.Context) (bool, error)
	// Release gives the lock back if this value still holds it.
	Release(ctx context.Context) error
}

// Provider hands out locks on the best backend it was built with:
// Redis, then PostgreSQL advisory locks, then an in-process table.
type Provider struct {
	redis *redis.Client
	db    *sql.DB
	ttl   time.Duration
	local *localTable
}

func NewProvider(redisClient *redis.Client, db *sql.DB, ttl time.Duration) *Provider {
	return &Provider{redis: redisClient, db: db, ttl: ttl, local: &localTable{held: map[string]bool{}}}
}

// Backend names the lock backend in use.
func (p *Provider) Backend() string {
	switch {
	case p.redis != nil:
		return "redis"
	case p.db != nil:
		return "postgres"
	default:
		return "local"
	}
}

// Lock returns a fresh lock for key.
func (p *Provider) Lock(key string) Lock {
	switch {
	case p.redis != nil:
		return NewRedisLock(p.redis, key, p.ttl)
	case p.db != nil:
		return NewPGAdvisoryLock(p.db, key)
	default:
		return &LocalLock{table: p.local, key: key}
	}
}

// PGAdvisoryLock uses pg_try_advisory_lock. Advisory locks are scoped to a
// session, so the connection that took the lock is pinned until Release.
type PGAdvisoryLock struct {
	db     *sql.DB
	lockID int64
	conn   *sql.Conn
}

// NewPGAdvisoryLock derives a stable lock id from key.
func NewPGAdvisoryLock(db *sql.DB, key string) *PGAdvisoryLock {
	h := fnv.New64a()
	h.Write([]byte(key))
	return &PGAdvisoryLock{db: db, lockID: int64(h.Sum64())}
}

func (l *PGAdvisoryLock) Acquire(ctx context.Context) (bool, error) {
	conn, err := l.db.Conn(ctx)
	if err != nil {
		return false, fmt.Errorf("advisory lock connection: %w", err)
	}
	var acquired bool
	if err := conn.QueryRowContext(ctx, "SELECT pg_try_advisory_lock($1)", l.lockID).Scan(&acquired); err != nil {
		conn.Close()
		return false, fmt.Errorf("advisory lock %d: %w", l.lockID, err)
	}
	if !acquired {
		conn.Close()
		return false, nil
	}
	l.conn = conn
	return true, nil
}

func (l *PGAdvisoryLock) Release(ctx context.Context) error {
	if l.conn == nil {
		return nil
	}
	defer func() {
		l.conn.Close()
		l.conn = nil
	}()
	_, err := l.conn.ExecContext(ctx, "SELECT pg_advisory_unlock($1)", l.lockID)
	return err
}

type localTable struct {
	mu   sync.Mutex
	held map[string]bool
}

// LocalLock guards a key within this process only.
type LocalLock struct {
	table *localTable
	key   string
	owned bool
}

func (l *LocalLock) Acquire(ctx context.Context) (bool, error) {
	l.table.mu.Lock()
	defer l.table.mu.Unlock()
	if l.table.held[l.key] {
		return false, nil
	}
	l.table.held[l.key] = true
	l.owned = true
	return true, nil
}

func (l *LocalLock) Release(ctx context.Context) error {
	if !l.owned {
		return nil
	}
	l.table.mu.Lock()
	defer l.table.mu.Unlock()
	delete(l.table.held, l.key)
	l.owned = false
	return nil
}
