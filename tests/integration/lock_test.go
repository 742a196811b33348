package integration

import (
	"context"
	"testing"
	"time"

	"github.com/adplan/backend/internal/domain/shared"
	"github.com/adplan/backend/internal/infrastructure/lock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAdvisoryLock_Postgres(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping integration test in short mode")
	}

	ctx := context.Background()
	tdb := NewTestDB(t)
	first := lock.NewAdvisoryLock(tdb.SqlDB, "reconcile-relationships")
	second := lock.NewAdvisoryLock(tdb.SqlDB, "reconcile-relationships")

	release, err := first.Acquire(ctx)
	require.NoError(t, err)

	_, err = second.Acquire(ctx)
	assert.ErrorIs(t, err, shared.ErrJobLocked)

	other, err := lock.NewAdvisoryLock(tdb.SqlDB, "another-job").Acquire(ctx)
	require.NoError(t, err, "locks are per name")
	require.NoError(t, other(ctx))

	require.NoError(t, release(ctx))
	require.NoError(t, release(ctx), "release is idempotent")

	again, err := second.Acquire(ctx)
	require.NoError(t, err)
	require.NoError(t, again(ctx))
}

func TestRowLock_Postgres(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping integration test in short mode")
	}

	ctx := context.Background()
	tdb := NewTestDB(t)
	gw := tdb.Gateway()

	release, err := lock.NewRowLock(gw, "job_locks", "reconcile-relationships", time.Minute).Acquire(ctx)
	require.NoError(t, err)

	_, err = lock.NewRowLock(gw, "job_locks", "reconcile-relationships", time.Minute).Acquire(ctx)
	assert.ErrorIs(t, err, shared.ErrJobLocked)

	require.NoError(t, release(ctx))
	again, err := lock.NewRowLock(gw, "job_locks", "reconcile-relationships", time.Minute).Acquire(ctx)
	require.NoError(t, err)
	require.NoError(t, again(ctx))
	assert.EqualValues(t, 1, tdb.Count("job_locks"))
}

func TestRedisLock(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping integration test in short mode")
	}

	ctx := context.Background()
	client := NewTestRedis(t)

	release, err := lock.NewRedisLock(client, "reconcile-relationships", time.Second).Acquire(ctx)
	require.NoError(t, err)

	_, err = lock.NewRedisLock(client, "reconcile-relationships", time.Second).Acquire(ctx)
	assert.ErrorIs(t, err, shared.ErrJobLocked)

	// the TTL frees a lock whose holder never released it
	time.Sleep(1500 * time.Millisecond)
	takeover, err := lock.NewRedisLock(client, "reconcile-relationships", time.Minute).Acquire(ctx)
	require.NoError(t, err)

	require.NoError(t, release(ctx), "a stale holder's release is a no-op")
	exists, err := client.Exists(ctx, "lock:reconcile-relationships").Result()
	require.NoError(t, err)
	assert.EqualValues(t, 1, exists, "the new holder keeps the lock")

	require.NoError(t, takeover(ctx))
	exists, err = client.Exists(ctx, "lock:reconcile-relationships").Result()
	require.NoError(t, err)
	assert.Zero(t, exists)
}
