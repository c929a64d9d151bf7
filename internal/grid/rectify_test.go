package grid

import (
	"image"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ironsheep/sudoku-extractor/internal/detection"
)

// frame returns a w x h mask with a square frame spanning [lo, hi] inclusive.
func frame(w, h, lo, hi, thickness int) *image.Gray {
	img := image.NewGray(image.Rect(0, 0, w, h))
	for y := lo; y <= hi; y++ {
		for x := lo; x <= hi; x++ {
			if x < lo+thickness || x > hi-thickness || y < lo+thickness || y > hi-thickness {
				img.Pix[y*img.Stride+x] = 255
			}
		}
	}
	return img
}

func filled(w, h int, v uint8) *image.Gray {
	img := image.NewGray(image.Rect(0, 0, w, h))
	for i := range img.Pix {
		img.Pix[i] = v
	}
	return img
}

func quad(tl, tr, br, bl detection.Point) detection.Quad {
	return detection.Quad{TopLeft: tl, TopRight: tr, BottomRight: br, BottomLeft: bl}
}

func TestTargetSide(t *testing.T) {
	tests := []struct {
		w, h, want int
	}{
		{100, 100, 450},
		{450, 10, 450},
		{600, 300, 600},
		{300, 800, 800},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, TargetSide(tt.w, tt.h), "%dx%d", tt.w, tt.h)
	}
}

func TestSolveHomography(t *testing.T) {
	from := [4]Vec2{{10, 20}, {200, 30}, {190, 220}, {5, 210}}
	to := [4]Vec2{{0, 0}, {449, 0}, {449, 449}, {0, 449}}

	h, err := SolveHomography(from, to)
	require.NoError(t, err)

	for i := range from {
		x, y := h.Apply(from[i].X, from[i].Y)
		assert.InDelta(t, to[i].X, x, 1e-6)
		assert.InDelta(t, to[i].Y, y, 1e-6)
	}
}

func TestSolveHomography_Degenerate(t *testing.T) {
	from := [4]Vec2{{0, 0}, {10, 10}, {20, 20}, {30, 30}}
	to := [4]Vec2{{0, 0}, {1, 0}, {1, 1}, {0, 1}}

	_, err := SolveHomography(from, to)
	assert.Error(t, err)
}

func TestRectify_IdentityQuad(t *testing.T) {
	src := image.NewGray(image.Rect(0, 0, 450, 450))
	for i := range src.Pix {
		src.Pix[i] = uint8((i * 7) % 251)
	}

	out, err := Rectify(src, quad(
		detection.Point{X: 0, Y: 0}, detection.Point{X: 449, Y: 0},
		detection.Point{X: 449, Y: 449}, detection.Point{X: 0, Y: 449}))
	require.NoError(t, err)
	assert.Equal(t, src.Pix, out.Pix)
}

func TestRectify_Frame(t *testing.T) {
	src := frame(300, 300, 50, 250, 6)

	out, err := Rectify(src, quad(
		detection.Point{X: 50, Y: 50}, detection.Point{X: 250, Y: 50},
		detection.Point{X: 250, Y: 250}, detection.Point{X: 50, Y: 250}))
	require.NoError(t, err)

	assert.Equal(t, image.Rect(0, 0, 450, 450), out.Bounds())
	assert.Equal(t, uint8(255), out.GrayAt(0, 0).Y)
	assert.Equal(t, uint8(255), out.GrayAt(225, 3).Y)
	assert.Equal(t, uint8(255), out.GrayAt(446, 225).Y)
	assert.Equal(t, uint8(0), out.GrayAt(225, 225).Y)
	assert.Equal(t, uint8(0), out.GrayAt(40, 40).Y)
}

func TestRectify_OutsideSourceIsBackground(t *testing.T) {
	src := filled(300, 300, 255)

	out, err := Rectify(src, quad(
		detection.Point{X: -50, Y: -50}, detection.Point{X: 349, Y: -50},
		detection.Point{X: 349, Y: 349}, detection.Point{X: -50, Y: 349}))
	require.NoError(t, err)

	assert.Equal(t, uint8(0), out.GrayAt(0, 0).Y)
	assert.Equal(t, uint8(0), out.GrayAt(449, 449).Y)
	assert.Equal(t, uint8(255), out.GrayAt(225, 225).Y)
}

func TestRectify_DegenerateQuad(t *testing.T) {
	p := detection.Point{X: 10, Y: 10}
	_, err := Rectify(filled(50, 50, 255), quad(p, p, p, p))
	assert.Error(t, err)
}

func TestBilinear(t *testing.T) {
	src := image.NewGray(image.Rect(0, 0, 2, 1))
	src.Pix[0], src.Pix[1] = 0, 200

	assert.Equal(t, uint8(0), bilinear(src, 0, 0))
	assert.Equal(t, uint8(200), bilinear(src, 1, 0))
	assert.Equal(t, uint8(100), bilinear(src, 0.5, 0))
	assert.Equal(t, uint8(0), bilinear(src, 5, 0))
	assert.Equal(t, uint8(0), bilinear(src, -1, 0))
}
