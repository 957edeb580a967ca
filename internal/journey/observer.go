package journey

import (
	"math"
	"sync/atomic"
	"time"
)

// Observer folds finalized journeys into running process-wide aggregates.
// One Observer exists per server process; every goroutine that finishes an
// operation calls Capture concurrently with every other finishing operation.
//
// All mutation is lock-free: counters use atomic adds, extrema use
// compare-and-swap retry loops. Capture runs on the critical teardown path
// of every operation and must never block on contention.
type Observer struct {
	totalOps atomic.Int64
	stages   [stageCount]stageStats
}

type stageStats struct {
	ops   atomic.Int64
	total atomic.Int64 // nanoseconds
	min   atomic.Int64 // nanoseconds
	max   atomic.Int64 // nanoseconds
}

// NewObserver returns an Observer with extrema primed so the first capture
// of any stage establishes both min and max.
func NewObserver() *Observer {
	o := &Observer{}
	for i := range o.stages {
		o.stages[i].min.Store(math.MaxInt64)
		o.stages[i].max.Store(math.MinInt64)
	}
	return o
}

// Capture folds one finalized journey into the aggregates. The journey must
// have reached its terminal stage; capturing a live journey is a programming
// error in the surrounding pipeline and fails fast.
func (o *Observer) Capture(j *Journey) {
	if j.current.stage != StageDestroyed {
		panic("journey: capture of a journey that has not been finalized")
	}

	for i := range j.profile {
		ns := int64(j.profile[i])
		if ns == 0 {
			continue
		}

		st := &o.stages[i]
		st.ops.Add(1)
		st.total.Add(ns)

		for {
			max := st.max.Load()
			if ns <= max || st.max.CompareAndSwap(max, ns) {
				break
			}
		}
		for {
			min := st.min.Load()
			if ns >= min || st.min.CompareAndSwap(min, ns) {
				break
			}
		}
	}

	o.totalOps.Add(1)
}

// StageSummary aggregates all captured operations that spent nonzero time in
// one stage. Durations serialize as integer nanoseconds.
type StageSummary struct {
	Ops int64         `json:"ops"`
	Min time.Duration `json:"min_ns"`
	Max time.Duration `json:"max_ns"`
	Avg time.Duration `json:"avg_ns"`
}

// Report is a point-in-time summary of everything the Observer has captured.
type Report struct {
	Stages     map[string]StageSummary `json:"stages"`
	Operations int64                   `json:"operations"`
	Stable     bool                    `json:"stable"`
}

// Report produces the aggregate summary. It never blocks concurrent captures
// and is therefore lossy by design: a capture racing this read can leave a
// torn mix of pre- and post-capture values for a single stage. Stable is
// true only when no capture completed while the report was being assembled,
// which is a cheap first-order signal that the snapshot is internally
// consistent.
func (o *Observer) Report() Report {
	ops := o.totalOps.Load()

	r := Report{Stages: make(map[string]StageSummary, stageCount)}
	for i := range o.stages {
		st := &o.stages[i]
		n := st.ops.Load()
		if n == 0 {
			continue
		}
		r.Stages[Stage(i).String()] = StageSummary{
			Ops: n,
			Min: time.Duration(st.min.Load()),
			Max: time.Duration(st.max.Load()),
			// Integer division: the average truncates.
			Avg: time.Duration(st.total.Load() / n),
		}
	}

	r.Operations = ops
	r.Stable = ops == o.totalOps.Load()
	return r
}
