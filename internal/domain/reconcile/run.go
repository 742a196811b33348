package reconcile

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// Outcome is the per-item result of a reconciliation step
type Outcome string

const (
	OutcomeCreated    Outcome = "created"    // a synthetic contract was inserted
	OutcomeExisting   Outcome = "existing"   // the link already existed, nothing written
	OutcomeLinked     Outcome = "linked"     // a foreign key or derived value was backfilled
	OutcomeUnresolved Outcome = "unresolved" // a required entity is missing, item skipped
	OutcomeFailed     Outcome = "failed"     // a store call failed, item skipped
)

// Outcomes lists every outcome in report order
func Outcomes() []Outcome {
	return []Outcome{OutcomeCreated, OutcomeExisting, OutcomeLinked, OutcomeUnresolved, OutcomeFailed}
}

// Step names one phase of a backfill run
type Step string

const (
	StepSupports     Step = "supports"
	StepThemes       Step = "themes"
	StepAlternatives Step = "alternatives"
	StepShares       Step = "shares"
)

// AllSteps returns every step in execution order
func AllSteps() []Step {
	return []Step{StepSupports, StepThemes, StepAlternatives, StepShares}
}

// ParseStep validates a step name
func ParseStep(s string) (Step, bool) {
	for _, step := range AllSteps() {
		if string(step) == s {
			return step, true
		}
	}
	return "", false
}

// Run is the persisted record of one backfill execution
type Run struct {
	ID         uuid.UUID
	StartedAt  time.Time
	FinishedAt time.Time
	DryRun     bool
	Created    int
	Existing   int
	Linked     int
	Unresolved int
	Failed     int
	Summary    string
}

// Duration returns how long the run took
func (r *Run) Duration() time.Duration {
	return r.FinishedAt.Sub(r.StartedAt)
}

// RunRepository defines the interface for run record persistence
type RunRepository interface {
	// Save inserts the run record
	Save(ctx context.Context, run *Run) error

	// FindRecent returns the latest runs, newest first
	FindRecent(ctx context.Context, limit int) ([]Run, error)
}
