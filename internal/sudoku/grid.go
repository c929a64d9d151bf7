package sudoku

import (
	"fmt"
	"strings"
)

// Size is the number of rows, columns and boxes in a grid.
const Size = 9

// Grid holds one value per cell in row-major order: "1" through "9", or ""
// for a cell with no recognized digit.
type Grid [Size * Size]string

// At returns the value at row, col.
func (g Grid) At(row, col int) string {
	return g[row*Size+col]
}

// Rows returns the grid as nine rows of nine values.
func (g Grid) Rows() [][]string {
	rows := make([][]string, Size)
	for r := range rows {
		rows[r] = append([]string(nil), g[r*Size:(r+1)*Size]...)
	}
	return rows
}

// Filled counts the cells that hold a digit.
func (g Grid) Filled() int {
	n := 0
	for _, v := range g {
		if v != "" {
			n++
		}
	}
	return n
}

// Preview renders the grid as text with box separators and '.' for empty
// cells:
//
//	5 3 . | . 7 . | . . .
//	6 . . | 1 9 5 | . . .
//	------+-------+------
func (g Grid) Preview() string {
	var b strings.Builder
	for r := 0; r < Size; r++ {
		if r > 0 && r%3 == 0 {
			b.WriteString("------+-------+------\n")
		}
		for c := 0; c < Size; c++ {
			if c > 0 {
				if c%3 == 0 {
					b.WriteString(" | ")
				} else {
					b.WriteByte(' ')
				}
			}
			v := g.At(r, c)
			if v == "" {
				v = "."
			}
			b.WriteString(v)
		}
		b.WriteByte('\n')
	}
	return b.String()
}

// Conflict is a digit that appears more than once in a row, column or box.
type Conflict struct {
	Unit  string `json:"unit"`  // "row", "column" or "box"
	Index int    `json:"index"` // 0-based unit number
	Digit string `json:"digit"`
	Cells []int  `json:"cells"` // row-major cell indices holding the digit
}

func (c Conflict) String() string {
	return fmt.Sprintf("%s %d has %s %d times", c.Unit, c.Index+1, c.Digit, len(c.Cells))
}

// Conflicts reports every duplicated digit, rows first, then columns, then
// boxes. Empty cells never conflict. A recognized grid with conflicts
// almost always means a misread digit.
func (g Grid) Conflicts() []Conflict {
	var out []Conflict
	units := []struct {
		name string
		cell func(unit, i int) int
	}{
		{"row", func(u, i int) int { return u*Size + i }},
		{"column", func(u, i int) int { return i*Size + u }},
		{"box", func(u, i int) int { return (u/3*3+i/3)*Size + u%3*3 + i%3 }},
	}

	for _, unit := range units {
		for u := 0; u < Size; u++ {
			var seen [Size][]int
			for i := 0; i < Size; i++ {
				idx := unit.cell(u, i)
				d := digit(g[idx])
				if d < 0 {
					continue
				}
				seen[d] = append(seen[d], idx)
			}
			for d, cells := range seen {
				if len(cells) > 1 {
					out = append(out, Conflict{
						Unit:  unit.name,
						Index: u,
						Digit: string(rune('1' + d)),
						Cells: cells,
					})
				}
			}
		}
	}
	return out
}

// Solved reports whether every cell is filled and no digit repeats.
func (g Grid) Solved() bool {
	return g.Filled() == len(g) && len(g.Conflicts()) == 0
}

// digit maps "1".."9" to 0..8 and anything else to -1.
func digit(v string) int {
	if len(v) != 1 || v[0] < '1' || v[0] > '9' {
		return -1
	}
	return int(v[0] - '1')
}

// ParseGrid reads 81 cells from text. Digits 1-9 are values; '.', '0' and
// '_' are empty cells. Whitespace, commas and the separators produced by
// Preview ('|', '-', '+') are ignored.
func ParseGrid(s string) (Grid, error) {
	var g Grid
	n := 0
	for _, r := range s {
		switch {
		case r >= '1' && r <= '9':
			if n < len(g) {
				g[n] = string(r)
			}
			n++
		case r == '.' || r == '0' || r == '_':
			n++
		case r == ' ' || r == '\t' || r == '\n' || r == '\r' || r == ',' ||
			r == '|' || r == '-' || r == '+':
		default:
			return Grid{}, fmt.Errorf("invalid character %q in grid", r)
		}
	}
	if n != len(g) {
		return Grid{}, fmt.Errorf("grid has %d cells, want %d", n, len(g))
	}
	return g, nil
}
