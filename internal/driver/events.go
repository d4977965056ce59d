package driver

import "time"

// Stage names a step of unit processing.
type Stage int

const (
	StageDecode Stage = iota
	StageAnalyze
)

func (s Stage) String() string {
	switch s {
	case StageDecode:
		return "decode"
	case StageAnalyze:
		return "analyze"
	default:
		return "unknown"
	}
}

// Status reports how a stage boundary was crossed.
type Status int

const (
	StatusStart Status = iota
	StatusDone
	StatusCached
	StatusFailed
)

// Event is a progress notification for one unit. Events are emitted in
// order per unit but interleave across units during parallel runs.
type Event struct {
	Unit    string
	Stage   Stage
	Status  Status
	Decls   int
	Errors  int
	Elapsed time.Duration
}

func emit(ch chan<- Event, ev Event) {
	if ch != nil {
		ch <- ev
	}
}
