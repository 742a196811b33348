package reconcile

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestParseStep(t *testing.T) {
	for _, step := range AllSteps() {
		parsed, ok := ParseStep(string(step))
		assert.True(t, ok)
		assert.Equal(t, step, parsed)
	}

	_, ok := ParseStep("orders")
	assert.False(t, ok)
}

func TestRunDuration(t *testing.T) {
	start := time.Date(2024, 1, 1, 10, 0, 0, 0, time.UTC)
	run := &Run{StartedAt: start, FinishedAt: start.Add(90 * time.Second)}

	assert.Equal(t, 90*time.Second, run.Duration())
}
