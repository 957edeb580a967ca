package journey

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeClock is a manually advanced clock so stage durations are exact.
type fakeClock struct {
	t time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{t: time.Unix(1700000000, 0)}
}

func (c *fakeClock) Now() time.Time {
	return c.t
}

func (c *fakeClock) Advance(d time.Duration) {
	c.t = c.t.Add(d)
}

func TestJourney_ExclusiveStageAccounting(t *testing.T) {
	clock := newFakeClock()
	j := newJourney(StageRunning, clock.Now)

	clock.Advance(10 * time.Millisecond)
	j.EnterStage(StageParse)

	clock.Advance(15 * time.Millisecond)
	j.EnterStage(StageRunning)

	clock.Advance(5 * time.Millisecond)
	j.finalize()

	profile := j.Profile()
	assert.Equal(t, 15*time.Millisecond, profile[StageRunning.String()])
	assert.Equal(t, 15*time.Millisecond, profile[StageParse.String()])
	assert.Equal(t, time.Duration(0), j.Other())
	assert.Equal(t, StageDestroyed, j.CurrentStage())
}

func TestJourney_ReenterActiveStageIsNoOp(t *testing.T) {
	clock := newFakeClock()
	j := newJourney(StageRunning, clock.Now)

	clock.Advance(4 * time.Millisecond)
	// Re-entry must not reset the entry timestamp.
	j.EnterStage(StageRunning)
	clock.Advance(6 * time.Millisecond)
	j.EnterStage(StageEgress)

	require.Equal(t, 10*time.Millisecond, j.Profile()[StageRunning.String()])
}

func TestJourney_ProfilePlusOtherEqualsElapsed(t *testing.T) {
	clock := newFakeClock()
	j := newJourney(StageRunning, clock.Now)

	stages := []Stage{StageCheckAuth, StageParse, StageApply, StageJournal, StageEgress}
	for i, s := range stages {
		clock.Advance(time.Duration(i+1) * time.Millisecond)
		j.EnterStage(s)
	}
	clock.Advance(2 * time.Millisecond)
	j.finalize()

	var sum time.Duration
	for _, d := range j.Profile() {
		sum += d
	}
	assert.Equal(t, 17*time.Millisecond, sum+j.Other())
}

func TestJourney_ProfileOmitsZeroStages(t *testing.T) {
	clock := newFakeClock()
	j := newJourney(StageRunning, clock.Now)

	clock.Advance(time.Millisecond)
	j.finalize()

	profile := j.Profile()
	assert.Len(t, profile, 1)
	assert.Contains(t, profile, "running")
}

func TestJourney_EnterStageAfterFinalizePanics(t *testing.T) {
	clock := newFakeClock()
	j := newJourney(StageRunning, clock.Now)
	j.finalize()

	assert.Panics(t, func() {
		j.EnterStage(StageRunning)
	})
}

func TestJourney_NilReceiverIsNoOp(t *testing.T) {
	var j *Journey

	assert.NotPanics(t, func() {
		j.EnterStage(StageApply)
	})
	assert.Equal(t, StageRunning, j.CurrentStage())
}

func TestScopedStage_RestoresEnclosingStage(t *testing.T) {
	clock := newFakeClock()
	j := newJourney(StageRunning, clock.Now)
	j.EnterStage(StageApply)

	scope := NewScopedStage(j, StageJournal)
	clock.Advance(3 * time.Millisecond)
	assert.Equal(t, StageJournal, j.CurrentStage())
	scope.End()

	assert.Equal(t, StageApply, j.CurrentStage())
	assert.Equal(t, 3*time.Millisecond, j.Profile()[StageJournal.String()])
}

func TestScopedStage_NestedScopesRestoreInReverseOrder(t *testing.T) {
	clock := newFakeClock()
	j := newJourney(StageRunning, clock.Now)

	outer := NewScopedStage(j, StageParse)
	inner := NewScopedStage(j, StageApply)
	// A plain transition inside the inner scope must not confuse restore.
	j.EnterStage(StageJournal)

	inner.End()
	assert.Equal(t, StageParse, j.CurrentStage())

	outer.End()
	assert.Equal(t, StageRunning, j.CurrentStage())
}

func TestScopedStage_NilJourneyIsNoOp(t *testing.T) {
	assert.NotPanics(t, func() {
		scope := NewScopedStage(nil, StageApply)
		scope.End()
	})
}

func TestStage_String(t *testing.T) {
	tests := []struct {
		stage Stage
		want  string
	}{
		{StageRunning, "running"},
		{StageCheckAuth, "checkAuthorization"},
		{StageParse, "parseRequest"},
		{StageApply, "applyStore"},
		{StageJournal, "waitForJournal"},
		{StageMirror, "mirroring"},
		{StageEgress, "egress"},
		{StageReleased, "released"},
		{StageDestroyed, "destroyed"},
		{Stage(99), "stage(99)"},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, tt.stage.String())
	}
}
