package journey

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// finalizedJourney builds a journey that spent exactly d in stage s.
func finalizedJourney(clock *fakeClock, s Stage, d time.Duration) *Journey {
	j := newJourney(StageRunning, clock.Now)
	j.EnterStage(s)
	clock.Advance(d)
	j.finalize()
	return j
}

func TestObserver_CaptureAggregatesSingleJourney(t *testing.T) {
	clock := newFakeClock()
	o := NewObserver()

	o.Capture(finalizedJourney(clock, StageApply, 7*time.Millisecond))

	report := o.Report()
	require.Contains(t, report.Stages, "applyStore")

	summary := report.Stages["applyStore"]
	assert.Equal(t, int64(1), summary.Ops)
	assert.Equal(t, 7*time.Millisecond, summary.Min)
	assert.Equal(t, 7*time.Millisecond, summary.Max)
	assert.Equal(t, 7*time.Millisecond, summary.Avg)
	assert.Equal(t, int64(1), report.Operations)
	assert.True(t, report.Stable)
}

func TestObserver_CaptureTracksExtrema(t *testing.T) {
	clock := newFakeClock()
	o := NewObserver()

	for _, d := range []time.Duration{3 * time.Millisecond, time.Millisecond, 2 * time.Millisecond} {
		o.Capture(finalizedJourney(clock, StageJournal, d))
	}

	summary := o.Report().Stages["waitForJournal"]
	assert.Equal(t, int64(3), summary.Ops)
	assert.Equal(t, time.Millisecond, summary.Min)
	assert.Equal(t, 3*time.Millisecond, summary.Max)
	assert.Equal(t, 2*time.Millisecond, summary.Avg)
}

func TestObserver_AverageTruncates(t *testing.T) {
	clock := newFakeClock()
	o := NewObserver()

	for _, d := range []time.Duration{3, 4, 4} {
		o.Capture(finalizedJourney(clock, StageEgress, d))
	}

	// 11ns over 3 ops truncates to 3ns.
	assert.Equal(t, time.Duration(3), o.Report().Stages["egress"].Avg)
}

func TestObserver_CapturePanicsOnLiveJourney(t *testing.T) {
	clock := newFakeClock()
	o := NewObserver()
	j := newJourney(StageRunning, clock.Now)

	assert.Panics(t, func() {
		o.Capture(j)
	})
}

func TestObserver_ZeroDurationStagesAreNotCounted(t *testing.T) {
	clock := newFakeClock()
	o := NewObserver()

	// Time accrues in applyStore only; every other visited stage stays at zero.
	j := newJourney(StageRunning, clock.Now)
	j.EnterStage(StageCheckAuth)
	j.EnterStage(StageApply)
	clock.Advance(time.Millisecond)
	j.finalize()
	o.Capture(j)

	report := o.Report()
	assert.Len(t, report.Stages, 1)
	assert.Contains(t, report.Stages, "applyStore")
}

func TestObserver_ReportWithoutCapturesIsStableAndEmpty(t *testing.T) {
	o := NewObserver()

	report := o.Report()
	assert.Empty(t, report.Stages)
	assert.Zero(t, report.Operations)
	assert.True(t, report.Stable)
}

func TestObserver_SequentialThousandOperations(t *testing.T) {
	clock := newFakeClock()
	o := NewObserver()

	for i := 0; i < 1000; i++ {
		o.Capture(finalizedJourney(clock, StageApply, time.Millisecond))
	}

	report := o.Report()
	summary := report.Stages["applyStore"]
	assert.Equal(t, int64(1000), summary.Ops)
	assert.Equal(t, time.Millisecond, summary.Min)
	assert.Equal(t, time.Millisecond, summary.Max)
	assert.Equal(t, time.Millisecond, summary.Avg)
	assert.Equal(t, int64(1000), report.Operations)
	assert.True(t, report.Stable)
}

func TestObserver_ConcurrentCaptures(t *testing.T) {
	const (
		workers            = 8
		capturesPerWorker  = 250
		perJourneyDuration = time.Millisecond
	)

	o := NewObserver()

	var wg sync.WaitGroup
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			clock := newFakeClock()
			for c := 0; c < capturesPerWorker; c++ {
				o.Capture(finalizedJourney(clock, StageApply, perJourneyDuration))
			}
		}()
	}
	wg.Wait()

	report := o.Report()
	summary := report.Stages["applyStore"]
	total := int64(workers * capturesPerWorker)
	assert.Equal(t, total, report.Operations)
	assert.Equal(t, total, summary.Ops)
	assert.Equal(t, perJourneyDuration, summary.Min)
	assert.Equal(t, perJourneyDuration, summary.Max)
	assert.Equal(t, perJourneyDuration, summary.Avg)
	assert.True(t, report.Stable)
}
