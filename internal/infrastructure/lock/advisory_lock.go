package lock

import (
	"context"
	"database/sql"
	"fmt"
	"sync"

	"github.com/adplan/backend/internal/domain/shared"
)

// AdvisoryLock is a PostgreSQL session-level advisory lock keyed by
// hashtext(name). The session is a dedicated connection held until release.
type AdvisoryLock struct {
	db   *sql.DB
	name string
}

// NewAdvisoryLock creates an advisory lock on db
func NewAdvisoryLock(db *sql.DB, name string) *AdvisoryLock {
	return &AdvisoryLock{db: db, name: name}
}

// Name returns the lock name
func (l *AdvisoryLock) Name() string {
	return l.name
}

// Acquire takes the lock without waiting or returns shared.ErrJobLocked
func (l *AdvisoryLock) Acquire(ctx context.Context) (shared.ReleaseFunc, error) {
	conn, err := l.db.Conn(ctx)
	if err != nil {
		return nil, fmt.Errorf("acquire lock %s: %w", l.name, err)
	}

	var ok bool
	if err := conn.QueryRowContext(ctx, "SELECT pg_try_advisory_lock(hashtext($1))", l.name).Scan(&ok); err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("acquire lock %s: %w", l.name, err)
	}
	if !ok {
		_ = conn.Close()
		return nil, shared.ErrJobLocked
	}

	var once sync.Once
	var releaseErr error
	return func(ctx context.Context) error {
		once.Do(func() {
			defer conn.Close()
			var released bool
			if err := conn.QueryRowContext(ctx, "SELECT pg_advisory_unlock(hashtext($1))", l.name).Scan(&released); err != nil {
				releaseErr = fmt.Errorf("release lock %s: %w", l.name, err)
				return
			}
			if !released {
				releaseErr = fmt.Errorf("release lock %s: not held by this session", l.name)
			}
		})
		return releaseErr
	}, nil
}
