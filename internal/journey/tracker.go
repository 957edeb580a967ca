package journey

import (
	"context"
	"log/slog"
	"time"
)

// Tracker owns the process-wide tracking switch and the Observer behind it.
// It is created once at startup; there is no runtime toggle. A nil Tracker
// is the disabled state: every method no-ops, no Journey or Observer is ever
// allocated, and instrumentation call sites cost a single branch.
type Tracker struct {
	observer *Observer
	now      func() time.Time
}

// NewTracker returns the process-wide tracker, or nil when tracking is
// disabled for the life of the process.
func NewTracker(enabled bool) *Tracker {
	if !enabled {
		return nil
	}
	slog.Debug("Started operation journey observer")
	return newTracker(time.Now)
}

func newTracker(now func() time.Time) *Tracker {
	return &Tracker{observer: NewObserver(), now: now}
}

// Enabled reports whether operations are being tracked.
func (t *Tracker) Enabled() bool {
	return t != nil
}

// StartOperation attaches a fresh journey, in its starting stage, to the
// operation's context and returns the derived context. Attaching a second
// journey to the same operation is a programming error and fails fast.
// Must be called from the goroutine that will drive the operation.
func (t *Tracker) StartOperation(ctx context.Context) context.Context {
	if t == nil {
		return ctx
	}
	if FromContext(ctx) != nil {
		panic("journey: operation already has a journey attached")
	}
	return NewContext(ctx, newJourney(StageRunning, t.now))
}

// FinishOperation finalizes the journey attached to ctx, folds it into the
// Observer, and emits the per-operation diagnostic record. It is called
// synchronously with the operation's own teardown, whatever the outcome.
func (t *Tracker) FinishOperation(ctx context.Context) {
	if t == nil {
		return
	}
	j := FromContext(ctx)
	if j == nil {
		return
	}

	j.finalize()
	t.observer.Capture(j)

	slog.Debug("Operation reached the end of its journey",
		"op_id", j.id.String(),
		"profile", j.Profile(),
		"other", j.Other())
}

// Report returns the aggregate summary of all captured operations.
func (t *Tracker) Report() Report {
	if t == nil {
		return Report{Stages: map[string]StageSummary{}, Stable: true}
	}
	return t.observer.Report()
}
