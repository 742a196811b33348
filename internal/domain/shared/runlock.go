package shared

import "context"

// ReleaseFunc releases a previously acquired lock. It is safe to call more than once.
type ReleaseFunc func(ctx context.Context) error

// RunLock guards a named job against concurrent execution
type RunLock interface {
	// Acquire takes the lock or returns ErrJobLocked when another holder owns it.
	// The returned ReleaseFunc must be called when the job finishes.
	Acquire(ctx context.Context) (ReleaseFunc, error)

	// Name returns the lock name, used for logging
	Name() string
}
