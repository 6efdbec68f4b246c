package engine

import (
	"context"
	"time"
)

// Run outcomes.
const (
	OutcomeCompleted = "completed"
	OutcomeSkipped   = "skipped"
	OutcomeFailed    = "failed"
)

// Job is one cron-triggered settlement unit. Run executes a full pass inside
// one database transaction; any error rolls back every posting of that pass
// and the next scheduled tick is the only retry.
type Job interface {
	Name() string
	Run(ctx context.Context) (*RunSummary, error)
}

// RunSummary describes one settlement pass for logging, metrics and events.
type RunSummary struct {
	Job      string        `json:"job"`
	Outcome  string        `json:"outcome"`
	Message  string        `json:"message,omitempty"`
	Posted   int           `json:"posted"`
	Skipped  int           `json:"skipped"`
	Duration time.Duration `json:"duration"`
}

// skipRun aborts a pass before any mutation: the transaction rolls back and
// the run reports a skipped outcome instead of an error. Used by the
// precondition short-circuits (disabled flag, wrong day, already paid).
type skipRun struct {
	reason string
}

func (s skipRun) Error() string { return s.reason }
