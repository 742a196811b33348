// Package lock provides the run locks that keep two reconciliation runs
// from touching the store at the same time.
package lock

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/adplan/backend/internal/domain/shared"
	"github.com/adplan/backend/internal/infrastructure/config"
	"github.com/adplan/backend/internal/infrastructure/persistence"
	"github.com/redis/go-redis/v9"
)

// Deps carries the connections a lock implementation may need
type Deps struct {
	Gateway persistence.Gateway
	SQL     *sql.DB
	Redis   redis.UniversalClient
}

// New builds the run lock selected by cfg.Lock
func New(cfg config.ReconcileConfig, tables config.TablesConfig, deps Deps) (shared.RunLock, error) {
	switch cfg.Lock {
	case "row", "":
		if deps.Gateway == nil {
			return nil, fmt.Errorf("row lock needs a gateway")
		}
		return NewRowLock(deps.Gateway, tables.JobLocks, cfg.LockName, cfg.LockTTL), nil
	case "advisory":
		if deps.SQL == nil {
			return nil, fmt.Errorf("advisory lock needs a postgres connection")
		}
		return NewAdvisoryLock(deps.SQL, cfg.LockName), nil
	case "redis":
		if deps.Redis == nil {
			return nil, fmt.Errorf("redis lock needs a redis client")
		}
		return NewRedisLock(deps.Redis, cfg.LockName, cfg.LockTTL), nil
	default:
		return nil, fmt.Errorf("unknown lock %q", cfg.Lock)
	}
}

// CheckRunTimeout rejects a run timeout the lock may not outlive. Row and
// redis locks expire after cfg.LockTTL and are not renewed, so the run must be
// bounded by a timeout no longer than the TTL.
func CheckRunTimeout(cfg config.ReconcileConfig, timeout time.Duration) error {
	switch cfg.Lock {
	case "row", "", "redis":
		if timeout <= 0 || timeout > cfg.LockTTL {
			return fmt.Errorf("run timeout %s must be positive and at most the lock ttl %s", timeout, cfg.LockTTL)
		}
	}
	return nil
}

// NewRedisClient connects to redis and checks the connection
func NewRedisClient(ctx context.Context, cfg config.RedisConfig) (*redis.Client, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr(),
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}
	return client, nil
}
