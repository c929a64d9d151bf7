// Package report writes an extracted grid to a spreadsheet file.
package report

import (
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/ironsheep/sudoku-extractor/internal/sudoku"
)

// TimeLayout formats Sheet.ExtractedAt in every output format.
const TimeLayout = "2006-01-02 15:04:05"

// Sheet is what gets written: the grid plus where and when it came from.
type Sheet struct {
	Grid        sudoku.Grid
	Source      string
	ExtractedAt time.Time
}

// Writer persists a Sheet to path, replacing any existing file.
type Writer interface {
	Write(path string, s Sheet) error
}

// ForPath picks a writer from the file extension: ".csv" gets CSVWriter,
// anything else the spreadsheet writer.
func ForPath(path string) Writer {
	if strings.EqualFold(filepath.Ext(path), ".csv") {
		return CSVWriter{}
	}
	return XLSXWriter{}
}

// DefaultOutputPath derives "<dir>/<stem>_sudoku.xlsx" from a source image
// path.
func DefaultOutputPath(source string) string {
	dir, base := filepath.Split(source)
	stem := strings.TrimSuffix(base, filepath.Ext(base))
	return filepath.Join(dir, stem+"_sudoku.xlsx")
}

// Write writes s to path with the writer ForPath selects.
func Write(path string, s Sheet) error {
	if err := ForPath(path).Write(path, s); err != nil {
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	return nil
}
