package pipeline

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// imageExts are the file extensions Batch picks up.
var imageExts = map[string]bool{
	".png":  true,
	".jpg":  true,
	".jpeg": true,
	".bmp":  true,
	".tif":  true,
	".tiff": true,
	".webp": true,
}

// IsImageFile reports whether name has a supported image extension.
func IsImageFile(name string) bool {
	return imageExts[strings.ToLower(filepath.Ext(name))]
}

// ListImages returns the image files directly inside dir, sorted by name.
// Subdirectories and debug images written by earlier runs are skipped.
func ListImages(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("failed to read directory %s: %w", dir, err)
	}

	var paths []string
	for _, entry := range entries {
		name := entry.Name()
		if entry.IsDir() || strings.HasPrefix(name, "debug_") || !IsImageFile(name) {
			continue
		}
		paths = append(paths, filepath.Join(dir, name))
	}
	return paths, nil
}

// Failure is one image that could not be processed or written.
type Failure struct {
	Path string `json:"path"`
	Err  error  `json:"-"`
}

// BatchReport summarizes a directory run.
type BatchReport struct {
	Total     int       `json:"total"`
	Succeeded []string  `json:"succeeded"`
	Failures  []Failure `json:"failures"`
}

// Batch processes every image in dir in name order and hands each result to
// sink. A failing image, or a sink error for it, is recorded and the run
// moves on. The returned error is non-nil only if dir cannot be listed or
// ctx is canceled.
//
// With Debug enabled, each image's debug files go into a subdirectory of
// DebugDir named after the image.
func (e *Extractor) Batch(ctx context.Context, dir string, sink func(*Result) error) (*BatchReport, error) {
	paths, err := ListImages(dir)
	if err != nil {
		return nil, err
	}

	report := &BatchReport{Total: len(paths)}
	for _, path := range paths {
		if err := ctx.Err(); err != nil {
			return report, err
		}

		debugDir := e.opts.DebugDir
		if e.opts.Debug {
			if debugDir == "" {
				debugDir = DefaultDebugDir
			}
			debugDir = filepath.Join(debugDir, stem(path))
		}

		res, err := e.process(ctx, path, debugDir)
		if err == nil && sink != nil {
			if err = sink(res); err != nil {
				err = fmt.Errorf("failed to write result for %s: %w", path, err)
				e.emit(Event{Kind: EventFailed, Source: path, Stage: StageOutput, Err: err})
			}
		}
		if err != nil {
			if ctx.Err() != nil {
				return report, ctx.Err()
			}
			report.Failures = append(report.Failures, Failure{Path: path, Err: err})
			continue
		}
		report.Succeeded = append(report.Succeeded, path)
	}
	return report, nil
}

func stem(path string) string {
	base := filepath.Base(path)
	return strings.TrimSuffix(base, filepath.Ext(base))
}
