package pipeline

import "github.com/ironsheep/sudoku-extractor/internal/sudoku"

// EventKind classifies an Event.
type EventKind string

const (
	EventStage   EventKind = "stage"   // a processing stage finished
	EventCell    EventKind = "cell"    // one cell was assembled
	EventWarning EventKind = "warning" // something non-fatal went wrong
	EventDone    EventKind = "done"    // an image was fully processed
	EventFailed  EventKind = "failed"  // an image could not be processed
)

// Stage names a step of the pipeline.
type Stage string

const (
	StageLoad       Stage = "load"
	StagePreprocess Stage = "preprocess"
	StageSquare     Stage = "square"
	StageSplit      Stage = "split"
	StageRecognize  Stage = "recognize"
	StageDebug      Stage = "debug"
	StageOutput     Stage = "output"
)

// Event reports progress. Front ends turn events into log lines.
type Event struct {
	Kind   EventKind
	Source string
	Stage  Stage
	Detail string
	Cell   *sudoku.CellResult
	Total  int
	Err    error
}

// Observer receives events. It is called from the goroutine running the
// pipeline and must not block for long.
type Observer func(Event)

func (e *Extractor) emit(ev Event) {
	if e.opts.Observer != nil {
		e.opts.Observer(ev)
	}
}
