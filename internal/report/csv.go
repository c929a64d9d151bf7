package report

import (
	"encoding/csv"
	"fmt"
	"os"
)

// CSVWriter writes a "# source,extracted_at" comment line, the metadata
// values, and then nine rows of nine values. Empty cells are empty fields.
type CSVWriter struct{}

func (CSVWriter) Write(path string, s Sheet) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create file: %w", err)
	}

	w := csv.NewWriter(f)
	records := [][]string{
		{"# source", "extracted_at"},
		{s.Source, s.ExtractedAt.Format(TimeLayout)},
	}
	records = append(records, s.Grid.Rows()...)

	if err := w.WriteAll(records); err != nil {
		f.Close()
		return fmt.Errorf("failed to write records: %w", err)
	}
	return f.Close()
}
