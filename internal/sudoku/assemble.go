package sudoku

import (
	"context"
	"errors"
	"fmt"
	"image"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/ironsheep/sudoku-extractor/internal/grid"
	"github.com/ironsheep/sudoku-extractor/internal/ocr"
)

const (
	// DefaultLightCutoff is the gray level above which a pixel counts as paper.
	DefaultLightCutoff = 200

	// DefaultEmptyThreshold is the paper fraction above which a cell is blank.
	DefaultEmptyThreshold = 0.93
)

// LightFraction returns the share of pixels brighter than cutoff. An empty
// image counts as all light.
func LightFraction(img *image.Gray, cutoff uint8) float64 {
	b := img.Bounds()
	total := b.Dx() * b.Dy()
	if total <= 0 {
		return 1
	}

	light := 0
	for y := b.Min.Y; y < b.Max.Y; y++ {
		row := img.Pix[(y-b.Min.Y)*img.Stride : (y-b.Min.Y)*img.Stride+b.Dx()]
		for _, v := range row {
			if v > cutoff {
				light++
			}
		}
	}
	return float64(light) / float64(total)
}

// IsEmpty reports whether a paper-polarity cell is blank: more than
// threshold of its pixels are brighter than cutoff.
func IsEmpty(img *image.Gray, cutoff uint8, threshold float64) bool {
	return LightFraction(img, cutoff) > threshold
}

// CellStatus says how a cell value was reached.
type CellStatus string

const (
	StatusBlank        CellStatus = "blank"
	StatusRecognized   CellStatus = "recognized"
	StatusUnrecognized CellStatus = "unrecognized"
	StatusFailed       CellStatus = "failed"
)

// CellResult is the outcome for one cell.
type CellResult struct {
	Index  int        `json:"index"`
	Row    int        `json:"row"`
	Col    int        `json:"col"`
	Value  string     `json:"value"`
	Status CellStatus `json:"status"`
	Err    error      `json:"-"`
}

// Assembler recognizes cells and places the results by position.
//
// Blank cells are detected locally and never reach the Recognizer. Any
// per-cell problem (recognizer error, panic, timeout, no single digit)
// leaves that cell empty; only cancellation of ctx aborts Assemble.
type Assembler struct {
	Recognizer ocr.Recognizer

	// Workers bounds concurrent recognitions. Values below 1 mean one.
	Workers int

	// CellTimeout limits each recognition. Zero means no limit.
	CellTimeout time.Duration

	// Zero values select DefaultLightCutoff and DefaultEmptyThreshold.
	LightCutoff    uint8
	EmptyThreshold float64

	// OnCell, if set, is called once per cell. Calls are serialized but
	// arrive in completion order when Workers > 1.
	OnCell func(CellResult)
}

// Assemble turns 81 row-major cells into a Grid.
func (a *Assembler) Assemble(ctx context.Context, cells []grid.Cell) (Grid, error) {
	var g Grid
	if len(cells) != len(g) {
		return g, fmt.Errorf("expected %d cells, got %d", len(g), len(cells))
	}
	if a.Recognizer == nil {
		return g, errors.New("no recognizer configured")
	}

	eg, egctx := errgroup.WithContext(ctx)
	eg.SetLimit(max(a.Workers, 1))

	var mu sync.Mutex
	for i, c := range cells {
		if ctx.Err() != nil {
			break
		}
		eg.Go(func() error {
			res := a.cell(egctx, i, c.Image)
			g[i] = res.Value
			if a.OnCell != nil {
				mu.Lock()
				a.OnCell(res)
				mu.Unlock()
			}
			return nil
		})
	}
	_ = eg.Wait()

	if err := ctx.Err(); err != nil {
		return Grid{}, fmt.Errorf("grid assembly canceled: %w", err)
	}
	return g, nil
}

func (a *Assembler) cell(ctx context.Context, i int, img *image.Gray) CellResult {
	res := CellResult{Index: i, Row: i / Size, Col: i % Size}

	cutoff := a.LightCutoff
	if cutoff == 0 {
		cutoff = DefaultLightCutoff
	}
	threshold := a.EmptyThreshold
	if threshold == 0 {
		threshold = DefaultEmptyThreshold
	}

	if img == nil || IsEmpty(img, cutoff, threshold) {
		res.Status = StatusBlank
		return res
	}

	cands, err := a.recognize(ctx, img)
	if err != nil {
		res.Status = StatusFailed
		res.Err = err
		return res
	}

	if d, ok := ocr.BestDigit(cands); ok {
		res.Value = d
		res.Status = StatusRecognized
	} else {
		res.Status = StatusUnrecognized
	}
	return res
}

// recognize applies CellTimeout. A recognizer that ignores its context is
// abandoned when the timeout fires; its goroutine finishes in the background.
func (a *Assembler) recognize(ctx context.Context, img *image.Gray) ([]ocr.Candidate, error) {
	if a.CellTimeout <= 0 {
		return a.call(ctx, img)
	}

	cctx, cancel := context.WithTimeout(ctx, a.CellTimeout)
	defer cancel()

	type reply struct {
		cands []ocr.Candidate
		err   error
	}
	done := make(chan reply, 1)
	go func() {
		cands, err := a.call(cctx, img)
		done <- reply{cands, err}
	}()

	select {
	case r := <-done:
		return r.cands, r.err
	case <-cctx.Done():
		return nil, fmt.Errorf("cell recognition: %w", cctx.Err())
	}
}

func (a *Assembler) call(ctx context.Context, img *image.Gray) (cands []ocr.Candidate, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("recognizer panic: %v", r)
		}
	}()
	return a.Recognizer.Recognize(ctx, img)
}
