package report

import (
	"encoding/csv"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"github.com/ironsheep/sudoku-extractor/internal/sudoku"
)

func testSheet(t *testing.T) Sheet {
	t.Helper()
	g, err := sudoku.ParseGrid(`
53..7....
6..195...
.98....6.
8...6...3
4..8.3..1
7...2...6
.6....28.
...419..5
....8..79`)
	require.NoError(t, err)
	return Sheet{
		Grid:        g,
		Source:      "puzzle.jpg",
		ExtractedAt: time.Date(2024, 3, 9, 14, 5, 6, 0, time.UTC),
	}
}

func TestForPath(t *testing.T) {
	assert.IsType(t, CSVWriter{}, ForPath("out.csv"))
	assert.IsType(t, CSVWriter{}, ForPath("OUT.CSV"))
	assert.IsType(t, XLSXWriter{}, ForPath("out.xlsx"))
	assert.IsType(t, XLSXWriter{}, ForPath("out"))
}

func TestDefaultOutputPath(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"puzzle.jpg", "puzzle_sudoku.xlsx"},
		{filepath.Join("photos", "p1.PNG"), filepath.Join("photos", "p1_sudoku.xlsx")},
		{"noext", "noext_sudoku.xlsx"},
		{"archive.tar.png", "archive.tar_sudoku.xlsx"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, DefaultOutputPath(tt.in), tt.in)
	}
}

func TestXLSXWriter(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out.xlsx")
	s := testSheet(t)
	require.NoError(t, Write(path, s))

	f, err := excelize.OpenFile(path)
	require.NoError(t, err)
	defer f.Close()

	assert.Equal(t, []string{SheetName}, f.GetSheetList())

	get := func(cell string) string {
		v, err := f.GetCellValue(SheetName, cell)
		require.NoError(t, err)
		return v
	}
	assert.Equal(t, "Source File:", get("A1"))
	assert.Equal(t, "puzzle.jpg", get("B1"))
	assert.Equal(t, "Extracted At:", get("A2"))
	assert.Equal(t, "2024-03-09 14:05:06", get("B2"))

	for r := 0; r < sudoku.Size; r++ {
		for c := 0; c < sudoku.Size; c++ {
			cell, err := excelize.CoordinatesToCellName(c+1, GridFirstRow+r)
			require.NoError(t, err)
			assert.Equal(t, s.Grid.At(r, c), get(cell), cell)
		}
	}
	assert.Equal(t, "", get("A5"))
	assert.Equal(t, "", get("A15"))

	width, err := f.GetColWidth(SheetName, "E")
	require.NoError(t, err)
	assert.Equal(t, float64(columnWidth), width)

	height, err := f.GetRowHeight(SheetName, GridFirstRow)
	require.NoError(t, err)
	assert.Equal(t, float64(rowHeight), height)
}

func TestXLSXWriter_Overwrites(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out.xlsx")
	s := testSheet(t)
	require.NoError(t, XLSXWriter{}.Write(path, s))

	s.Grid = sudoku.Grid{}
	s.Source = "second.png"
	require.NoError(t, XLSXWriter{}.Write(path, s))

	f, err := excelize.OpenFile(path)
	require.NoError(t, err)
	defer f.Close()

	v, err := f.GetCellValue(SheetName, "B1")
	require.NoError(t, err)
	assert.Equal(t, "second.png", v)
	v, err = f.GetCellValue(SheetName, "A6")
	require.NoError(t, err)
	assert.Equal(t, "", v)
}

func TestCSVWriter(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out.csv")
	s := testSheet(t)
	require.NoError(t, Write(path, s))

	fh, err := os.Open(path)
	require.NoError(t, err)
	defer fh.Close()

	r := csv.NewReader(fh)
	r.FieldsPerRecord = -1
	records, err := r.ReadAll()
	require.NoError(t, err)
	require.Len(t, records, 2+sudoku.Size)

	assert.Equal(t, []string{"# source", "extracted_at"}, records[0])
	assert.Equal(t, []string{"puzzle.jpg", "2024-03-09 14:05:06"}, records[1])
	assert.Equal(t, s.Grid.Rows(), records[2:])
}

func TestWrite_BadPath(t *testing.T) {
	missing := filepath.Join(t.TempDir(), "no", "such", "dir")
	assert.Error(t, Write(filepath.Join(missing, "out.csv"), testSheet(t)))
	assert.Error(t, Write(filepath.Join(missing, "out.xlsx"), testSheet(t)))
}

func TestWriters_WrapErrors(t *testing.T) {
	missing := filepath.Join(t.TempDir(), "no", "such", "dir")
	tests := []struct {
		name    string
		writer  Writer
		file    string
		errText string
	}{
		{"xlsx", XLSXWriter{}, "out.xlsx", "failed to save workbook"},
		{"csv", CSVWriter{}, "out.csv", "failed to create file"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.writer.Write(filepath.Join(missing, tt.file), testSheet(t))
			require.Error(t, err)
			assert.ErrorContains(t, err, tt.errText)
		})
	}
}
