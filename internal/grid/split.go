package grid

import (
	"image"

	"github.com/ironsheep/sudoku-extractor/internal/imaging"
)

const (
	// Size is the number of rows and columns in a Sudoku grid.
	Size = 9

	// Cells is the number of cells in a grid.
	Cells = Size * Size

	// CellMargin is trimmed from every side of a cell to drop grid-line residue.
	CellMargin = 2

	// MinCellSize is the smallest cell dimension handed to recognition.
	MinCellSize = 45

	// Paper is the background value of a paper-polarity image.
	Paper = 255
)

// Cell is one of the 81 sub-images of a squared grid.
type Cell struct {
	Row   int         `json:"row"`
	Col   int         `json:"col"`
	Image *image.Gray `json:"-"`
}

// Index returns the row-major position of the cell (0..80).
func (c Cell) Index() int {
	return c.Row*Size + c.Col
}

// CellBounds returns the nominal rectangle of a cell before the margin is applied.
//
// Each cell is w/9 wide and h/9 tall (integer division). The last row and
// column extend to the image edge and absorb the remainder.
func CellBounds(w, h, row, col int) image.Rectangle {
	cw, ch := w/Size, h/Size
	x0, y0 := col*cw, row*ch
	x1, y1 := x0+cw, y0+ch
	if col == Size-1 {
		x1 = w
	}
	if row == Size-1 {
		y1 = h
	}
	return image.Rect(x0, y0, x1, y1)
}

// Split divides a squared paper-polarity grid into 81 cells in row-major order.
//
// Parameters:
//   - square: The squared grid, ink dark on a light background.
//
// Returns:
//   - []Cell: Always exactly 81 cells.
//
// Every cell rectangle is shrunk by CellMargin on each side; when that would
// leave nothing, the unshrunk rectangle is used. A cell whose rectangle is
// empty (image side < 9) is a blank MinCellSize x MinCellSize paper image.
// Crops narrower or shorter than MinCellSize are resized to exactly
// MinCellSize x MinCellSize with a cubic filter.
func Split(square *image.Gray) []Cell {
	w, h := square.Bounds().Dx(), square.Bounds().Dy()
	cells := make([]Cell, 0, Cells)

	for row := 0; row < Size; row++ {
		for col := 0; col < Size; col++ {
			r := CellBounds(w, h, row, col)
			cells = append(cells, Cell{Row: row, Col: col, Image: cutCell(square, r)})
		}
	}
	return cells
}

func cutCell(square *image.Gray, r image.Rectangle) *image.Gray {
	if r.Empty() {
		return imaging.Blank(MinCellSize, MinCellSize, Paper)
	}

	inner := r.Inset(CellMargin)
	if inner.Empty() {
		inner = r
	}

	crop := imaging.CropGray(square, inner.Add(square.Bounds().Min))
	if crop.Bounds().Dx() < MinCellSize || crop.Bounds().Dy() < MinCellSize {
		crop = imaging.ResizeCubic(crop, MinCellSize, MinCellSize)
	}
	return crop
}
