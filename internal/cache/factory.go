package cache

import (
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/ignite/connect-metrics/internal/config"
)

// retention bounds how long Redis and DynamoDB keep an entry. It is longer
// than any TTL so a stale entry can still be served while another replica
// recomputes.
const retention = 24 * time.Hour

// Backends are the shared clients a cache backend may be built on. Any may
// be nil.
type Backends struct {
	Redis  *redis.Client
	DB     *sql.DB
	Dynamo DynamoAPI
}

// New builds the store named by cfg.Backend.
func New(cfg config.CacheConfig, b Backends) (Store, error) {
	switch cfg.Backend {
	case "redis":
		if b.Redis == nil {
			return nil, errors.New("redis cache backend requires a reachable REDIS_URL")
		}
		return NewRedisStore(b.Redis, retention), nil
	case "postgres":
		if b.DB == nil {
			return nil, errors.New("postgres cache backend requires DATABASE_URL")
		}
		return NewPostgresStore(b.DB), nil
	case "dynamodb":
		if b.Dynamo == nil {
			return nil, errors.New("dynamodb cache backend requires AWS configuration")
		}
		return NewDynamoStore(b.Dynamo, cfg.DynamoDBTable, retention), nil
	case "memory", "":
		return NewMemoryStore(), nil
	default:
		return nil, fmt.Errorf("unknown cache backend %q", cfg.Backend)
	}
}
