package report

import (
	"fmt"
	"strconv"

	"github.com/xuri/excelize/v2"

	"github.com/ironsheep/sudoku-extractor/internal/sudoku"
)

// Layout of the workbook written by XLSXWriter.
const (
	SheetName    = "Sudoku"
	GridFirstRow = 6 // grid occupies rows 6-14, columns A-I
	columnWidth  = 10
	rowHeight    = 30
)

// XLSXWriter writes an Excel workbook with the source file and timestamp in
// rows 1-2 and the grid below. Digits are stored as numbers; empty cells
// are left unset.
type XLSXWriter struct{}

func (XLSXWriter) Write(path string, s Sheet) error {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", SheetName); err != nil {
		return fmt.Errorf("failed to rename sheet: %w", err)
	}

	meta := [][2]string{
		{"Source File:", s.Source},
		{"Extracted At:", s.ExtractedAt.Format(TimeLayout)},
	}
	for i, kv := range meta {
		row := strconv.Itoa(i + 1)
		if err := f.SetCellStr(SheetName, "A"+row, kv[0]); err != nil {
			return fmt.Errorf("failed to write metadata: %w", err)
		}
		if err := f.SetCellStr(SheetName, "B"+row, kv[1]); err != nil {
			return fmt.Errorf("failed to write metadata: %w", err)
		}
	}

	for r, values := range s.Grid.Rows() {
		for c, v := range values {
			if v == "" {
				continue
			}
			if err := setGridCell(f, c+1, GridFirstRow+r, v); err != nil {
				return err
			}
		}
	}

	if err := f.SetColWidth(SheetName, "A", "I", columnWidth); err != nil {
		return fmt.Errorf("failed to set column width: %w", err)
	}
	lastRow := GridFirstRow + sudoku.Size - 1
	for row := GridFirstRow; row <= lastRow; row++ {
		if err := f.SetRowHeight(SheetName, row, rowHeight); err != nil {
			return fmt.Errorf("failed to set row height: %w", err)
		}
	}

	style, err := f.NewStyle(&excelize.Style{
		Alignment: &excelize.Alignment{Horizontal: "center", Vertical: "center"},
	})
	if err != nil {
		return fmt.Errorf("failed to create style: %w", err)
	}
	bottomRight, err := excelize.CoordinatesToCellName(sudoku.Size, lastRow)
	if err != nil {
		return fmt.Errorf("failed to address grid: %w", err)
	}
	if err := f.SetCellStyle(SheetName, "A"+strconv.Itoa(GridFirstRow), bottomRight, style); err != nil {
		return fmt.Errorf("failed to style grid: %w", err)
	}

	if err := f.SaveAs(path); err != nil {
		return fmt.Errorf("failed to save workbook: %w", err)
	}
	return nil
}

// setGridCell stores a digit as a number and anything else as text.
func setGridCell(f *excelize.File, col, row int, v string) error {
	cell, err := excelize.CoordinatesToCellName(col, row)
	if err != nil {
		return fmt.Errorf("failed to address grid: %w", err)
	}
	if n, err := strconv.Atoi(v); err == nil {
		err = f.SetCellValue(SheetName, cell, n)
		if err != nil {
			return fmt.Errorf("failed to write %s: %w", cell, err)
		}
		return nil
	}
	if err := f.SetCellStr(SheetName, cell, v); err != nil {
		return fmt.Errorf("failed to write %s: %w", cell, err)
	}
	return nil
}
