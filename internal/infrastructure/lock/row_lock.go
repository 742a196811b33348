package lock

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/adplan/backend/internal/domain/shared"
	"github.com/adplan/backend/internal/infrastructure/persistence"
	"github.com/adplan/backend/internal/infrastructure/persistence/models"
	"github.com/google/uuid"
)

// RowLock is a status row in the job lock table. It works through the
// persistence Gateway, so it also guards runs against the hosted REST store.
//
// Acquire inserts the row with ON CONFLICT (name) DO NOTHING. If a row is
// already there and its expires_at has passed, the lock is taken over with a
// conditional update. Release expires the row, but only for the holder.
type RowLock struct {
	gw    persistence.Gateway
	table string
	name  string
	ttl   time.Duration
	now   func() time.Time
}

// NewRowLock creates a row lock named name in table, held for at most ttl
func NewRowLock(gw persistence.Gateway, table, name string, ttl time.Duration) *RowLock {
	return &RowLock{
		gw:    gw,
		table: table,
		name:  name,
		ttl:   ttl,
		now:   func() time.Time { return time.Now().UTC() },
	}
}

// Name returns the lock name
func (l *RowLock) Name() string {
	return l.name
}

// Acquire takes the lock or returns shared.ErrJobLocked
func (l *RowLock) Acquire(ctx context.Context) (shared.ReleaseFunc, error) {
	holder := uuid.NewString()
	now := l.now()
	row := models.JobLockModel{
		Name:       l.name,
		Holder:     holder,
		AcquiredAt: now,
		ExpiresAt:  now.Add(l.ttl),
	}

	inserted, err := l.gw.Insert(ctx, l.table, &row, "name")
	if err != nil {
		return nil, fmt.Errorf("acquire lock %s: %w", l.name, err)
	}

	if inserted == 0 {
		took, err := l.gw.Update(ctx, l.table,
			map[string]any{"holder": holder, "acquired_at": now, "expires_at": now.Add(l.ttl)},
			persistence.Eq("name", l.name),
			persistence.Lt("expires_at", now),
		)
		if err != nil {
			return nil, fmt.Errorf("take over lock %s: %w", l.name, err)
		}
		if took == 0 {
			return nil, shared.ErrJobLocked
		}
	}

	return l.releaseFunc(holder), nil
}

func (l *RowLock) releaseFunc(holder string) shared.ReleaseFunc {
	var once sync.Once
	var releaseErr error
	return func(ctx context.Context) error {
		once.Do(func() {
			_, err := l.gw.Update(ctx, l.table,
				map[string]any{"expires_at": l.now()},
				persistence.Eq("name", l.name),
				persistence.Eq("holder", holder),
			)
			if err != nil {
				releaseErr = fmt.Errorf("release lock %s: %w", l.name, err)
			}
		})
		return releaseErr
	}
}
