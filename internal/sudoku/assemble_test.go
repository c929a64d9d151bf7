package sudoku

import (
	"context"
	"errors"
	"image"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ironsheep/sudoku-extractor/internal/grid"
	"github.com/ironsheep/sudoku-extractor/internal/ocr"
)

// fakeRecognizer answers from a per-cell table keyed by the marker value
// stored in the cell's top-left pixel.
type fakeRecognizer struct {
	answer func(marker uint8) ([]ocr.Candidate, error)
	calls  atomic.Int32
}

func (f *fakeRecognizer) Name() string { return "fake" }
func (f *fakeRecognizer) Close() error { return nil }

func (f *fakeRecognizer) Recognize(ctx context.Context, img *image.Gray) ([]ocr.Candidate, error) {
	f.calls.Add(1)
	return f.answer(img.Pix[0])
}

func paperCell(marker uint8, ink bool) *image.Gray {
	img := image.NewGray(image.Rect(0, 0, 45, 45))
	for i := range img.Pix {
		img.Pix[i] = 255
	}
	if ink {
		for y := 10; y < 35; y++ {
			for x := 15; x < 30; x++ {
				img.Pix[y*img.Stride+x] = 0
			}
		}
	}
	img.Pix[0] = marker
	return img
}

// makeCells builds 81 cells; cells whose index is in inked get a dark
// block and the marker index+1 so recognizers can tell them apart.
func makeCells(inked map[int]bool) []grid.Cell {
	cells := make([]grid.Cell, grid.Cells)
	for i := range cells {
		cells[i] = grid.Cell{Row: i / 9, Col: i % 9, Image: paperCell(uint8(i+1), inked[i])}
	}
	return cells
}

func TestLightFraction(t *testing.T) {
	assert.Equal(t, 1.0, LightFraction(paperCell(255, false), DefaultLightCutoff))
	assert.InDelta(t, 1-375.0/2025.0, LightFraction(paperCell(255, true), DefaultLightCutoff), 1e-9)
	assert.Equal(t, 1.0, LightFraction(image.NewGray(image.Rect(0, 0, 0, 0)), 200))

	sub := paperCell(255, true).SubImage(image.Rect(15, 10, 30, 35)).(*image.Gray)
	assert.Equal(t, 0.0, LightFraction(sub, DefaultLightCutoff))
}

func TestIsEmpty(t *testing.T) {
	tests := []struct {
		name  string
		light int // pixels above the cutoff out of 100
		want  bool
	}{
		{"all paper", 100, true},
		{"just above threshold", 94, true},
		{"at threshold", 93, false},
		{"mostly ink", 10, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			img := image.NewGray(image.Rect(0, 0, 10, 10))
			for i := 0; i < tt.light; i++ {
				img.Pix[i] = 201
			}
			for i := tt.light; i < 100; i++ {
				img.Pix[i] = 200
			}
			assert.Equal(t, tt.want, IsEmpty(img, DefaultLightCutoff, DefaultEmptyThreshold))
		})
	}
}

func TestAssemble_PositionalAndBlankSkipping(t *testing.T) {
	inked := map[int]bool{0: true, 40: true, 80: true}
	digits := map[uint8]string{1: "5", 41: "3", 81: "9"}

	rec := &fakeRecognizer{answer: func(m uint8) ([]ocr.Candidate, error) {
		return []ocr.Candidate{{Text: digits[m], Confidence: 0.9}}, nil
	}}

	for _, workers := range []int{0, 1, 4, 81} {
		rec.calls.Store(0)
		a := &Assembler{Recognizer: rec, Workers: workers}

		g, err := a.Assemble(context.Background(), makeCells(inked))
		require.NoError(t, err)

		var want Grid
		want[0], want[40], want[80] = "5", "3", "9"
		assert.Equal(t, want, g, "workers=%d", workers)
		assert.Equal(t, int32(3), rec.calls.Load(), "blank cells must not reach the recognizer")
	}
}

func TestAssemble_FailuresBecomeEmpty(t *testing.T) {
	inked := map[int]bool{0: true, 1: true, 2: true, 3: true, 4: true}
	rec := &fakeRecognizer{answer: func(m uint8) ([]ocr.Candidate, error) {
		switch m {
		case 1:
			return nil, errors.New("backend down")
		case 2:
			panic("boom")
		case 3:
			return []ocr.Candidate{{Text: "17", Confidence: 0.99}}, nil
		case 4:
			return nil, nil
		default:
			return []ocr.Candidate{{Text: "8", Confidence: 0.5}}, nil
		}
	}}

	var mu sync.Mutex
	statuses := map[int]CellStatus{}
	a := &Assembler{Recognizer: rec, Workers: 2, OnCell: func(r CellResult) {
		mu.Lock()
		defer mu.Unlock()
		statuses[r.Index] = r.Status
	}}

	g, err := a.Assemble(context.Background(), makeCells(inked))
	require.NoError(t, err)

	assert.Equal(t, []string{"", "", "", "", "8"}, g[:5])
	assert.Equal(t, 1, g.Filled())

	assert.Len(t, statuses, grid.Cells)
	assert.Equal(t, StatusFailed, statuses[0])
	assert.Equal(t, StatusFailed, statuses[1])
	assert.Equal(t, StatusUnrecognized, statuses[2])
	assert.Equal(t, StatusUnrecognized, statuses[3])
	assert.Equal(t, StatusRecognized, statuses[4])
	assert.Equal(t, StatusBlank, statuses[5])
}

func TestAssemble_CellTimeout(t *testing.T) {
	release := make(chan struct{})
	defer close(release)

	rec := &fakeRecognizer{answer: func(m uint8) ([]ocr.Candidate, error) {
		if m == 1 {
			<-release // ignores its context
		}
		return []ocr.Candidate{{Text: "2", Confidence: 1}}, nil
	}}
	a := &Assembler{Recognizer: rec, CellTimeout: 50 * time.Millisecond}

	var failed CellResult
	a.OnCell = func(r CellResult) {
		if r.Index == 0 {
			failed = r
		}
	}

	g, err := a.Assemble(context.Background(), makeCells(map[int]bool{0: true, 1: true}))
	require.NoError(t, err)
	assert.Equal(t, "", g[0])
	assert.Equal(t, "2", g[1])
	assert.Equal(t, StatusFailed, failed.Status)
	assert.ErrorIs(t, failed.Err, context.DeadlineExceeded)
}

func TestAssemble_Canceled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	rec := &fakeRecognizer{answer: func(m uint8) ([]ocr.Candidate, error) {
		cancel()
		return nil, nil
	}}

	a := &Assembler{Recognizer: rec}
	_, err := a.Assemble(ctx, makeCells(map[int]bool{0: true, 1: true}))
	assert.ErrorIs(t, err, context.Canceled)
}

func TestAssemble_Errors(t *testing.T) {
	a := &Assembler{Recognizer: &fakeRecognizer{}}
	_, err := a.Assemble(context.Background(), makeCells(nil)[:80])
	assert.ErrorContains(t, err, "expected 81 cells")

	a = &Assembler{}
	_, err = a.Assemble(context.Background(), makeCells(nil))
	assert.ErrorContains(t, err, "no recognizer")
}

func TestAssemble_CustomThreshold(t *testing.T) {
	rec := &fakeRecognizer{answer: func(m uint8) ([]ocr.Candidate, error) {
		return []ocr.Candidate{{Text: "1", Confidence: 1}}, nil
	}}

	// the inked block is ~19% of the cell, so a 0.5 threshold calls it blank
	a := &Assembler{Recognizer: rec, EmptyThreshold: 0.5}
	g, err := a.Assemble(context.Background(), makeCells(map[int]bool{0: true}))
	require.NoError(t, err)
	assert.Equal(t, "", g[0])
	assert.Equal(t, int32(0), rec.calls.Load())

	a = &Assembler{Recognizer: rec, EmptyThreshold: 0.99, LightCutoff: 250}
	g, err = a.Assemble(context.Background(), makeCells(nil))
	require.NoError(t, err)
	assert.Equal(t, 0, g.Filled())
}
