package journey

import "fmt"

// Stage identifies one mutually-exclusive phase of request processing.
// The set is closed and ordered: StageRunning is the implicit starting
// stage and must stay at index 0, StageDestroyed marks end-of-life and
// must stay last. Every per-stage array in this package is sized by the
// index of StageDestroyed, so real stages always have a smaller index.
type Stage int

const (
	StageRunning Stage = iota
	StageCheckAuth
	StageParse
	StageApply
	StageJournal
	StageMirror
	StageEgress
	StageReleased

	// StageDestroyed is the terminal sentinel. It is entered exactly once,
	// during finalization, and never by external callers.
	StageDestroyed
)

// stageCount bounds all per-stage arrays.
const stageCount = int(StageDestroyed)

var stageNames = [...]string{
	StageRunning:   "running",
	StageCheckAuth: "checkAuthorization",
	StageParse:     "parseRequest",
	StageApply:     "applyStore",
	StageJournal:   "waitForJournal",
	StageMirror:    "mirroring",
	StageEgress:    "egress",
	StageReleased:  "released",
	StageDestroyed: "destroyed",
}

func (s Stage) String() string {
	if s < StageRunning || s > StageDestroyed {
		return fmt.Sprintf("stage(%d)", int(s))
	}
	return stageNames[s]
}
