// Package journey tracks where a single operation's wall-clock time goes,
// broken down by internal processing stage, and aggregates the breakdown
// across all completed operations into a process-wide summary.
package journey

import (
	"time"

	"github.com/google/uuid"
)

// Journey is the per-operation stage-timing record. It is owned by, and
// lives exactly as long as, one in-flight operation.
//
// A Journey is not safe for concurrent use: only the goroutine driving the
// owning operation may call EnterStage. Journeys of different operations are
// fully independent and need no coordination, which is what keeps the
// per-operation overhead negligible.
type Journey struct {
	id  uuid.UUID
	now func() time.Time

	created time.Time
	current struct {
		stage   Stage
		entered time.Time
	}

	// Exclusive time spent in each stage so far. StageDestroyed bounds the
	// array and has no slot of its own.
	profile [stageCount]time.Duration
}

// newJourney begins tracking at the given stage. The clock must report
// monotonic time; time.Now carries a monotonic reading on all supported
// platforms, so duration arithmetic is immune to wall-clock adjustments.
func newJourney(stage Stage, now func() time.Time) *Journey {
	j := &Journey{id: uuid.New(), now: now}
	t := now()
	j.created = t
	j.current.stage = stage
	j.current.entered = t
	return j
}

// ID returns the operation identifier used in diagnostic records.
func (j *Journey) ID() uuid.UUID {
	return j.id
}

// CurrentStage returns the single active stage.
func (j *Journey) CurrentStage() Stage {
	if j == nil {
		return StageRunning
	}
	return j.current.stage
}

// EnterStage closes out the active stage and makes stage the active one.
// Re-entering the active stage is a no-op and costs nothing. This is the
// single state-transition primitive; every other stage change, including
// finalization, routes through it.
//
// A nil receiver is a no-op so that call sites collapse to a single branch
// when tracking is disabled.
func (j *Journey) EnterStage(stage Stage) {
	if j == nil {
		return
	}
	old := j.current.stage
	if old == stage {
		return
	}
	if old == StageDestroyed {
		panic("journey: EnterStage on a finalized journey")
	}

	t := j.now()
	j.profile[old] += t.Sub(j.current.entered)
	j.current.stage = stage
	j.current.entered = t
}

// finalize folds whatever stage was active into the profile and parks the
// journey in its terminal stage. Idempotent.
func (j *Journey) finalize() {
	if j.current.stage != StageDestroyed {
		j.EnterStage(StageDestroyed)
	}
}

// Profile returns the per-stage exclusive durations recorded so far,
// keyed by stage name. Stages with zero recorded time are omitted.
func (j *Journey) Profile() map[string]time.Duration {
	out := make(map[string]time.Duration)
	for i, d := range j.profile {
		if d == 0 {
			continue
		}
		out[Stage(i).String()] = d
	}
	return out
}

// Other returns the residual time since construction not attributed to any
// tracked stage: clock resolution, missed instrumentation points, and the
// finalization bookkeeping itself all land here.
func (j *Journey) Other() time.Duration {
	var sum time.Duration
	for _, d := range j.profile {
		sum += d
	}
	return j.now().Sub(j.created) - sum
}
