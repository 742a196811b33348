package reconcile

import (
	"fmt"
	"strings"
	"time"

	"github.com/adplan/backend/internal/domain/reconcile"
	"github.com/google/uuid"
)

// Tally counts items per outcome
type Tally map[reconcile.Outcome]int

// Add merges other into t
func (t Tally) Add(other Tally) {
	for k, v := range other {
		t[k] += v
	}
}

// String renders the non-zero counts in report order, e.g. "2 created, 1 failed"
func (t Tally) String() string {
	var parts []string
	for _, o := range reconcile.Outcomes() {
		if n := t[o]; n > 0 {
			parts = append(parts, fmt.Sprintf("%d %s", n, o))
		}
	}
	if len(parts) == 0 {
		return "nothing to do"
	}
	return strings.Join(parts, ", ")
}

// ItemResult is the outcome of one item of a step
type ItemResult struct {
	Step    reconcile.Step
	Item    string
	Outcome reconcile.Outcome
	Detail  string
}

// StepReport tallies one step. Items keeps every result that is not
// "existing", so the console report can list what changed or broke.
type StepReport struct {
	Step   reconcile.Step
	Counts Tally
	Items  []ItemResult
}

func newStepReport(step reconcile.Step) *StepReport {
	return &StepReport{Step: step, Counts: Tally{}}
}

func (r *StepReport) record(item string, outcome reconcile.Outcome, detail string) ItemResult {
	res := ItemResult{Step: r.Step, Item: item, Outcome: outcome, Detail: detail}
	r.Counts[outcome]++
	if outcome != reconcile.OutcomeExisting {
		r.Items = append(r.Items, res)
	}
	return res
}

// Report is the result of one backfill run
type Report struct {
	RunID      uuid.UUID
	StartedAt  time.Time
	FinishedAt time.Time
	DryRun     bool
	Steps      []*StepReport
}

// Step returns the report of step, or nil when the step did not run
func (r *Report) Step(step reconcile.Step) *StepReport {
	for _, s := range r.Steps {
		if s.Step == step {
			return s
		}
	}
	return nil
}

// Totals sums the tallies of every step
func (r *Report) Totals() Tally {
	out := Tally{}
	for _, s := range r.Steps {
		out.Add(s.Counts)
	}
	return out
}

// HasFailures reports whether any item failed
func (r *Report) HasFailures() bool {
	return r.Totals()[reconcile.OutcomeFailed] > 0
}

// Summary is the one-line per-step summary stored with the run record
func (r *Report) Summary() string {
	parts := make([]string, 0, len(r.Steps))
	for _, s := range r.Steps {
		parts = append(parts, fmt.Sprintf("%s: %s", s.Step, s.Counts))
	}
	return strings.Join(parts, "; ")
}

// Run converts the report into its persisted record
func (r *Report) Run() *reconcile.Run {
	totals := r.Totals()
	return &reconcile.Run{
		ID:         r.RunID,
		StartedAt:  r.StartedAt,
		FinishedAt: r.FinishedAt,
		DryRun:     r.DryRun,
		Created:    totals[reconcile.OutcomeCreated],
		Existing:   totals[reconcile.OutcomeExisting],
		Linked:     totals[reconcile.OutcomeLinked],
		Unresolved: totals[reconcile.OutcomeUnresolved],
		Failed:     totals[reconcile.OutcomeFailed],
		Summary:    r.Summary(),
	}
}
