// Package pipeline runs a puzzle photo through every stage: load, binarize,
// square, split and recognize.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"image"
	"os"
	"path/filepath"
	"time"

	"github.com/ironsheep/sudoku-extractor/internal/detection"
	"github.com/ironsheep/sudoku-extractor/internal/grid"
	"github.com/ironsheep/sudoku-extractor/internal/imaging"
	"github.com/ironsheep/sudoku-extractor/internal/ocr"
	"github.com/ironsheep/sudoku-extractor/internal/sudoku"
)

// ErrUnreadableImage is returned when the input cannot be opened or decoded.
var ErrUnreadableImage = errors.New("unreadable image")

// Options tune an Extractor. The zero value processes with the pad strategy,
// one recognition at a time, and no debug output.
type Options struct {
	Strategy grid.Strategy

	// Locator finds the grid boundary; nil selects detection.ContourLocator.
	Locator detection.Locator

	// Loader reads a source file; nil selects imaging.Open.
	Loader func(path string) (image.Image, error)

	Workers        int
	CellTimeout    time.Duration
	LightCutoff    uint8
	EmptyThreshold float64

	// Debug writes intermediate images into DebugDir ("." when empty).
	Debug    bool
	DebugDir string

	Observer Observer
}

// Result is the outcome of processing one image.
type Result struct {
	Source      string              `json:"source"`
	Grid        sudoku.Grid         `json:"grid"`
	Decision    grid.Decision       `json:"decision"`
	Cells       []sudoku.CellResult `json:"cells"`
	Square      *image.Gray         `json:"-"`
	ExtractedAt time.Time           `json:"extracted_at"`
	Duration    time.Duration       `json:"duration"`
}

// Extractor turns puzzle images into grids. It holds no per-run state and is
// safe for concurrent use if its Recognizer is.
type Extractor struct {
	rec  ocr.Recognizer
	opts Options
}

// New returns an Extractor that reads cells with rec.
func New(rec ocr.Recognizer, opts Options) *Extractor {
	if opts.Locator == nil {
		opts.Locator = detection.ContourLocator{}
	}
	if opts.Loader == nil {
		opts.Loader = imaging.Open
	}
	if opts.Strategy == "" {
		opts.Strategy = grid.DefaultStrategy
	}
	return &Extractor{rec: rec, opts: opts}
}

// WithStrategy returns a copy of e that squares with s.
func (e *Extractor) WithStrategy(s grid.Strategy) *Extractor {
	cp := *e
	if s != "" {
		cp.opts.Strategy = s
	}
	return &cp
}

// Strategy returns the configured squaring strategy.
func (e *Extractor) Strategy() grid.Strategy { return e.opts.Strategy }

// Process loads the image at path and extracts its grid. Load failures
// wrap ErrUnreadableImage.
func (e *Extractor) Process(ctx context.Context, path string) (*Result, error) {
	return e.process(ctx, path, e.opts.DebugDir)
}

func (e *Extractor) process(ctx context.Context, path, debugDir string) (*Result, error) {
	img, err := e.opts.Loader(path)
	if err != nil {
		err = fmt.Errorf("%w: %s: %w", ErrUnreadableImage, path, err)
		e.emit(Event{Kind: EventFailed, Source: path, Stage: StageLoad, Err: err})
		return nil, err
	}
	return e.run(ctx, path, img, debugDir)
}

// ProcessImage extracts the grid from an image already in memory. name is
// only used to label the result and events.
func (e *Extractor) ProcessImage(ctx context.Context, name string, img image.Image) (*Result, error) {
	return e.run(ctx, name, img, e.opts.DebugDir)
}

// Preprocess returns the upscaled gray image and its binary mask, the
// first two stages of a run.
func Preprocess(img image.Image) (gray, bin *image.Gray) {
	gray = imaging.Upscale(imaging.ToGray(img), imaging.MinSourceSide)
	return gray, imaging.Binarize(gray)
}

func (e *Extractor) run(ctx context.Context, name string, img image.Image, debugDir string) (*Result, error) {
	start := time.Now()
	b := img.Bounds()
	e.emit(Event{Kind: EventStage, Source: name, Stage: StageLoad, Detail: fmt.Sprintf("%dx%d", b.Dx(), b.Dy())})

	gray, bin := Preprocess(img)
	e.emit(Event{Kind: EventStage, Source: name, Stage: StagePreprocess,
		Detail: fmt.Sprintf("%dx%d mask", bin.Bounds().Dx(), bin.Bounds().Dy())})

	square, decision := grid.Square(bin, e.opts.Locator, e.opts.Strategy)
	e.emit(Event{Kind: EventStage, Source: name, Stage: StageSquare,
		Detail: fmt.Sprintf("%s: %s", decision.Path, decision.Reason)})

	// cells are read as dark ink on light paper
	paper := imaging.Invert(square)
	cells := grid.Split(paper)
	e.emit(Event{Kind: EventStage, Source: name, Stage: StageSplit, Total: len(cells)})

	results := make([]sudoku.CellResult, len(cells))
	asm := &sudoku.Assembler{
		Recognizer:     e.rec,
		Workers:        e.opts.Workers,
		CellTimeout:    e.opts.CellTimeout,
		LightCutoff:    e.opts.LightCutoff,
		EmptyThreshold: e.opts.EmptyThreshold,
		OnCell: func(r sudoku.CellResult) {
			results[r.Index] = r
			e.emit(Event{Kind: EventCell, Source: name, Stage: StageRecognize, Cell: &r, Total: len(cells)})
		},
	}
	g, err := asm.Assemble(ctx, cells)
	if err != nil {
		e.emit(Event{Kind: EventFailed, Source: name, Stage: StageRecognize, Err: err})
		return nil, err
	}
	e.emit(Event{Kind: EventStage, Source: name, Stage: StageRecognize,
		Detail: fmt.Sprintf("%d/%d cells filled", g.Filled(), len(g))})

	res := &Result{
		Source:      name,
		Grid:        g,
		Decision:    decision,
		Cells:       results,
		Square:      paper,
		ExtractedAt: time.Now(),
		Duration:    time.Since(start),
	}

	if e.opts.Debug {
		e.writeDebug(debugDir, name, gray, bin, res)
	}

	e.emit(Event{Kind: EventDone, Source: name, Detail: fmt.Sprintf("%d cells filled", g.Filled())})
	return res, nil
}

// DefaultDebugDir is where debug images go when DebugDir is empty.
const DefaultDebugDir = "."

// Debug image file names.
const (
	DebugLoaded       = "debug_loaded.png"
	DebugPreprocessed = "debug_preprocessed.png"
	DebugSquare       = "debug_square.png"
	DebugOverlay      = "debug_overlay.png"
)

// writeDebug saves the intermediate images. Failures are reported as
// warnings and never fail the run.
func (e *Extractor) writeDebug(dir, name string, gray, bin *image.Gray, res *Result) {
	if dir == "" {
		dir = DefaultDebugDir
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		e.emit(Event{Kind: EventWarning, Source: name, Stage: StageDebug, Err: fmt.Errorf("failed to create debug directory: %w", err)})
		return
	}

	images := []struct {
		file string
		img  image.Image
	}{
		{DebugLoaded, gray},
		{DebugPreprocessed, bin},
		{DebugSquare, res.Square},
		{DebugOverlay, imaging.CellOverlay(res.Square, res.Grid[:], "", "")},
	}

	for _, im := range images {
		path := filepath.Join(dir, im.file)
		if err := imaging.Save(im.img, path); err != nil {
			e.emit(Event{Kind: EventWarning, Source: name, Stage: StageDebug, Err: err})
			continue
		}
		e.emit(Event{Kind: EventStage, Source: name, Stage: StageDebug, Detail: path})
	}
}
