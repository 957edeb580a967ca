package journey

// ScopedStage temporarily overrides a journey's active stage and restores
// the prior stage when ended, so a sub-phase can be measured without manual
// bookkeeping. Scopes must be ended in the reverse order they were begun;
// pairing NewScopedStage with a deferred End guarantees that, including on
// error paths.
type ScopedStage struct {
	journey *Journey
	old     Stage
}

// NewScopedStage captures the journey's active stage and enters the given
// one. Safe on a nil journey: the returned scope is then a no-op.
func NewScopedStage(j *Journey, stage Stage) *ScopedStage {
	s := &ScopedStage{journey: j, old: j.CurrentStage()}
	j.EnterStage(stage)
	return s
}

// End re-enters the stage that was active when the scope began.
func (s *ScopedStage) End() {
	if s.journey == nil {
		return
	}
	s.journey.EnterStage(s.old)
	s.journey = nil
}
