package grid

import (
	"image"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ironsheep/sudoku-extractor/internal/detection"
)

type stubLocator struct {
	q  detection.Quad
	ok bool
}

func (s stubLocator) Locate(*image.Gray) (detection.Quad, bool) {
	return s.q, s.ok
}

func TestParseStrategy(t *testing.T) {
	tests := []struct {
		in      string
		want    Strategy
		wantErr bool
	}{
		{"", StrategyPad, false},
		{"pad", StrategyPad, false},
		{" Perspective ", StrategyPerspective, false},
		{"AUTO", StrategyAuto, false},
		{"warp", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseStrategy(tt.in)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestSquare_PadIsDefault(t *testing.T) {
	bin := frame(300, 200, 20, 180, 4)

	out, d := Square(bin, detection.ContourLocator{}, "")
	assert.Equal(t, image.Rect(0, 0, 300, 300), out.Bounds())
	assert.Equal(t, StrategyPad, d.Strategy)
	assert.Equal(t, PathPad, d.Path)
	assert.Nil(t, d.Quad)
}

func TestSquare_Perspective(t *testing.T) {
	bin := frame(300, 300, 50, 250, 6)

	out, d := Square(bin, detection.ContourLocator{}, StrategyPerspective)
	assert.Equal(t, PathPerspective, d.Path)
	require.NotNil(t, d.Quad)
	assert.Equal(t, detection.Point{X: 50, Y: 50}, d.Quad.TopLeft)
	assert.Equal(t, image.Rect(0, 0, 450, 450), out.Bounds())
	assert.Equal(t, uint8(255), out.GrayAt(225, 2).Y)
	assert.Equal(t, uint8(0), out.GrayAt(225, 225).Y)
}

func TestSquare_FallsBackToPad(t *testing.T) {
	p := detection.Point{X: 5, Y: 5}
	small := detection.Quad{
		TopLeft: detection.Point{X: 10, Y: 10}, TopRight: detection.Point{X: 40, Y: 10},
		BottomRight: detection.Point{X: 40, Y: 40}, BottomLeft: detection.Point{X: 10, Y: 40},
	}
	box := detection.Quad{
		TopLeft: detection.Point{X: 0, Y: 0}, TopRight: detection.Point{X: 299, Y: 0},
		BottomRight: detection.Point{X: 299, Y: 199}, BottomLeft: detection.Point{X: 0, Y: 199},
		FromBoundingBox: true,
	}

	tests := []struct {
		name     string
		loc      detection.Locator
		strategy Strategy
		reason   string
	}{
		{"nothing located", stubLocator{ok: false}, StrategyPerspective, "no grid boundary found"},
		{"degenerate quad", stubLocator{q: detection.Quad{TopLeft: p, TopRight: p, BottomRight: p, BottomLeft: p}, ok: true}, StrategyPerspective, "degenerate grid boundary"},
		{"auto small quad", stubLocator{q: small, ok: true}, StrategyAuto, "quadrilateral covers 2% of the image"},
		{"auto bounding box", stubLocator{q: box, ok: true}, StrategyAuto, "boundary is not a quadrilateral"},
		{"no locator", nil, StrategyPerspective, "no locator configured"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out, d := Square(filled(300, 200, 0), tt.loc, tt.strategy)
			assert.Equal(t, PathPad, d.Path)
			assert.Equal(t, tt.reason, d.Reason)
			assert.Equal(t, tt.strategy, d.Strategy)
			assert.Equal(t, image.Rect(0, 0, 300, 300), out.Bounds())
		})
	}
}

func TestSquare_PerspectiveAcceptsBoundingBox(t *testing.T) {
	box := detection.Quad{
		TopLeft: detection.Point{X: 0, Y: 0}, TopRight: detection.Point{X: 299, Y: 0},
		BottomRight: detection.Point{X: 299, Y: 199}, BottomLeft: detection.Point{X: 0, Y: 199},
		FromBoundingBox: true,
	}

	out, d := Square(filled(300, 200, 255), stubLocator{q: box, ok: true}, StrategyPerspective)
	assert.Equal(t, PathPerspective, d.Path)
	assert.Equal(t, "perspective warp of bounding box", d.Reason)
	assert.Equal(t, image.Rect(0, 0, 450, 450), out.Bounds())
}

func TestSquare_AutoWarpsLargeQuad(t *testing.T) {
	bin := frame(300, 300, 20, 280, 6)

	_, d := Square(bin, detection.ContourLocator{}, StrategyAuto)
	assert.Equal(t, PathPerspective, d.Path)
}
