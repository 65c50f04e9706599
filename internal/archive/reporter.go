package archive

import "log"

// Stage is a state of the assembly state machine.
type Stage int

const (
	StagePlanning Stage = iota
	StageArchiving
	StageExtracting
	StagePreparingOutput
	StageMerging
	StageDone
	StageFailed
)

var stageNames = [...]string{
	StagePlanning:        "planning",
	StageArchiving:       "archiving",
	StageExtracting:      "extracting",
	StagePreparingOutput: "preparing-output",
	StageMerging:         "merging",
	StageDone:            "done",
	StageFailed:          "failed",
}

func (s Stage) String() string {
	if s < 0 || int(s) >= len(stageNames) {
		return "unknown"
	}
	return stageNames[s]
}

// Event is one observable step of an assembly. Variant is set for per-variant
// steps, Err only on StageFailed.
type Event struct {
	Stage   Stage
	Target  string
	Variant string
	Path    string
	Err     error
}

// Reporter observes assembly progress.
type Reporter interface {
	Report(Event)
}

// NopReporter drops every event.
type NopReporter struct{}

func (NopReporter) Report(Event) {}

// LogReporter writes one line per event to Logger, or to the standard
// logger when Logger is nil.
type LogReporter struct {
	Logger *log.Logger
}

func (r LogReporter) Report(e Event) {
	printf := log.Printf
	if r.Logger != nil {
		printf = r.Logger.Printf
	}
	switch {
	case e.Err != nil:
		printf("%s: %s: %v", e.Target, e.Stage, e.Err)
	case e.Variant != "":
		printf("%s: %s %s", e.Target, e.Stage, e.Variant)
	case e.Path != "":
		printf("%s: %s %s", e.Target, e.Stage, e.Path)
	default:
		printf("%s: %s", e.Target, e.Stage)
	}
}
