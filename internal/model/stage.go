package model

import "fmt"

// StageKind enumerates the positions of a job in its state machine.
type StageKind int

const (
	StageQueued StageKind = iota
	StageDownloading
	StageConverting
	StageDownloaded
	StageFailed
)

func (k StageKind) String() string {
	switch k {
	case StageQueued:
		return "queued"
	case StageDownloading:
		return "downloading"
	case StageConverting:
		return "converting"
	case StageDownloaded:
		return "downloaded"
	case StageFailed:
		return "failed"
	default:
		return fmt.Sprintf("stage(%d)", int(k))
	}
}

// Stage is a job's current position:
//
//	Queued -> Downloading(p) -> Converting -> Downloaded
//
// with Failed(cause) reachable from every non-terminal stage. Progress is only
// meaningful for Downloading and Cause only for Failed.
type Stage struct {
	Kind     StageKind
	Progress float64
	Cause    error
}

func Queued() Stage { return Stage{Kind: StageQueued} }

// Downloading clamps p into [0, 1].
func Downloading(p float64) Stage {
	switch {
	case p < 0:
		p = 0
	case p > 1:
		p = 1
	}
	return Stage{Kind: StageDownloading, Progress: p}
}

func Converting() Stage { return Stage{Kind: StageConverting} }

func Downloaded() Stage { return Stage{Kind: StageDownloaded} }

func Failed(cause error) Stage { return Stage{Kind: StageFailed, Cause: cause} }

// IsTerminal reports whether no stage may follow s.
func (s Stage) IsTerminal() bool {
	return s.Kind == StageDownloaded || s.Kind == StageFailed
}

// Follows reports whether s is a legal successor of prev.
func (s Stage) Follows(prev Stage) bool {
	if prev.IsTerminal() {
		return false
	}
	if s.Kind == StageFailed {
		return true
	}

	switch prev.Kind {
	case StageQueued:
		return s.Kind == StageDownloading
	case StageDownloading:
		return s.Kind == StageDownloading || s.Kind == StageConverting
	case StageConverting:
		return s.Kind == StageDownloaded
	default:
		return false
	}
}

func (s Stage) String() string {
	switch s.Kind {
	case StageDownloading:
		return fmt.Sprintf("downloading %.0f%%", s.Progress*100)
	case StageFailed:
		if s.Cause != nil {
			return "failed: " + s.Cause.Error()
		}
		return "failed"
	default:
		return s.Kind.String()
	}
}
