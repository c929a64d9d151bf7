package sudoku

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const puzzle = `
53..7....
6..195...
.98....6.
8...6...3
4..8.3..1
7...2...6
.6....28.
...419..5
....8..79`

const solution = `
243156798
158739246
679284351
426571839
981362475
537498162
315627984
864913527
792845613`

func mustParse(t *testing.T, s string) Grid {
	t.Helper()
	g, err := ParseGrid(s)
	require.NoError(t, err)
	return g
}

func TestParseGrid(t *testing.T) {
	g := mustParse(t, puzzle)
	assert.Equal(t, "5", g.At(0, 0))
	assert.Equal(t, "", g.At(0, 2))
	assert.Equal(t, "9", g.At(8, 8))
	assert.Equal(t, 30, g.Filled())
}

func TestParseGrid_Errors(t *testing.T) {
	tests := []struct {
		name string
		in   string
	}{
		{"too short", "123"},
		{"too long", strings.Repeat(".", 82)},
		{"bad character", strings.Repeat(".", 80) + "x"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseGrid(tt.in)
			assert.Error(t, err)
		})
	}
}

func TestPreview(t *testing.T) {
	g := mustParse(t, puzzle)
	want := `5 3 . | . 7 . | . . .
6 . . | 1 9 5 | . . .
. 9 8 | . . . | . 6 .
------+-------+------
8 . . | . 6 . | . . 3
4 . . | 8 . 3 | . . 1
7 . . | . 2 . | . . 6
------+-------+------
. 6 . | . . . | 2 8 .
. . . | 4 1 9 | . . 5
. . . | . 8 . | . 7 9
`
	assert.Equal(t, want, g.Preview())
}

func TestParseGrid_AcceptsPreview(t *testing.T) {
	g := mustParse(t, puzzle)
	back, err := ParseGrid(g.Preview())
	require.NoError(t, err)
	assert.Equal(t, g, back)
}

func TestRows(t *testing.T) {
	g := mustParse(t, puzzle)
	rows := g.Rows()
	require.Len(t, rows, Size)
	assert.Equal(t, []string{"5", "3", "", "", "7", "", "", "", ""}, rows[0])

	rows[0][0] = "x"
	assert.Equal(t, "5", g.At(0, 0))
}

func TestConflicts(t *testing.T) {
	assert.Empty(t, mustParse(t, puzzle).Conflicts())
	assert.Empty(t, Grid{}.Conflicts())

	g := mustParse(t, puzzle)
	g[2] = "5" // second 5 in row 0 and box 0

	got := g.Conflicts()
	require.Len(t, got, 2)
	assert.Equal(t, Conflict{Unit: "row", Index: 0, Digit: "5", Cells: []int{0, 2}}, got[0])
	assert.Equal(t, Conflict{Unit: "box", Index: 0, Digit: "5", Cells: []int{0, 2}}, got[1])
	assert.Equal(t, "row 1 has 5 2 times", got[0].String())

	g = mustParse(t, puzzle)
	g[18] = "4" // column 0 already has 4 at row 4
	got = g.Conflicts()
	require.Len(t, got, 1)
	assert.Equal(t, "column", got[0].Unit)
	assert.Equal(t, []int{18, 36}, got[0].Cells)
}

func TestSolved(t *testing.T) {
	tests := []struct {
		name string
		g    Grid
		want bool
	}{
		{"solution", mustParse(t, solution), true},
		{"puzzle", mustParse(t, puzzle), false},
		{"empty", Grid{}, false},
	}

	broken := mustParse(t, solution)
	broken[0], broken[1] = broken[1], broken[0]
	broken[9] = broken[0]
	tests = append(tests, struct {
		name string
		g    Grid
		want bool
	}{"duplicate", broken, false})

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.g.Solved())
		})
	}
}
