package pipeline

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ironsheep/sudoku-extractor/internal/imaging"
)

func TestIsImageFile(t *testing.T) {
	tests := []struct {
		name string
		want bool
	}{
		{"a.png", true},
		{"a.JPG", true},
		{"a.jpeg", true},
		{"a.bmp", true},
		{"a.tif", true},
		{"a.TIFF", true},
		{"a.webp", true},
		{"a.gif", false},
		{"a.xlsx", false},
		{"png", false},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, IsImageFile(tt.name), tt.name)
	}
}

// batchDir creates two readable puzzles, one corrupt image and some files
// Batch must ignore.
func batchDir(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()

	img := puzzleImage(t, mustGrid(t), 460, 0)
	require.NoError(t, imaging.Save(img, filepath.Join(dir, "b.png")))
	require.NoError(t, imaging.Save(img, filepath.Join(dir, "a.jpg")))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "c.png"), []byte("garbage"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "notes.txt"), []byte("hi"), 0o644))
	require.NoError(t, imaging.Save(img, filepath.Join(dir, "debug_square.png")))
	require.NoError(t, os.Mkdir(filepath.Join(dir, "nested.png"), 0o755))
	return dir
}

func TestListImages(t *testing.T) {
	dir := batchDir(t)

	paths, err := ListImages(dir)
	require.NoError(t, err)
	assert.Equal(t, []string{
		filepath.Join(dir, "a.jpg"),
		filepath.Join(dir, "b.png"),
		filepath.Join(dir, "c.png"),
	}, paths)

	_, err = ListImages(filepath.Join(dir, "missing"))
	assert.Error(t, err)
}

func TestBatch_ContinuesPastFailures(t *testing.T) {
	dir := batchDir(t)

	var got []string
	report, err := New(glyphReader{}, Options{}).Batch(context.Background(), dir, func(r *Result) error {
		got = append(got, filepath.Base(r.Source))
		assert.Equal(t, mustGrid(t), r.Grid)
		return nil
	})
	require.NoError(t, err)

	assert.Equal(t, []string{"a.jpg", "b.png"}, got)
	assert.Equal(t, 3, report.Total)
	assert.Len(t, report.Succeeded, 2)
	require.Len(t, report.Failures, 1)
	assert.Equal(t, filepath.Join(dir, "c.png"), report.Failures[0].Path)
	assert.ErrorIs(t, report.Failures[0].Err, ErrUnreadableImage)
}

func TestBatch_SinkErrorIsAFailure(t *testing.T) {
	dir := batchDir(t)

	report, err := New(glyphReader{}, Options{}).Batch(context.Background(), dir, func(r *Result) error {
		if filepath.Base(r.Source) == "a.jpg" {
			return errors.New("disk full")
		}
		return nil
	})
	require.NoError(t, err)

	assert.Equal(t, []string{filepath.Join(dir, "b.png")}, report.Succeeded)
	require.Len(t, report.Failures, 2)
	assert.ErrorContains(t, report.Failures[0].Err, "disk full")
}

func TestBatch_DebugPerImage(t *testing.T) {
	dir := batchDir(t)
	debugDir := filepath.Join(t.TempDir(), "dbg")

	_, err := New(glyphReader{}, Options{Debug: true, DebugDir: debugDir}).Batch(context.Background(), dir, nil)
	require.NoError(t, err)

	for _, stem := range []string{"a", "b"} {
		_, err := os.Stat(filepath.Join(debugDir, stem, DebugOverlay))
		assert.NoError(t, err, stem)
	}
	_, err = os.Stat(filepath.Join(debugDir, "c"))
	assert.True(t, os.IsNotExist(err))
}

func TestBatch_Errors(t *testing.T) {
	_, err := New(glyphReader{}, Options{}).Batch(context.Background(), filepath.Join(t.TempDir(), "nope"), nil)
	assert.Error(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	report, err := New(glyphReader{}, Options{}).Batch(ctx, batchDir(t), nil)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Empty(t, report.Succeeded)
}
