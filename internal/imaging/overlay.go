package imaging

import (
	"image"
	"image/color"
	"image/draw"

	colorful "github.com/lucasb-eyer/go-colorful"
)

// Default overlay colors.
const (
	DefaultLineColor  = "#ff3030"
	DefaultDigitColor = "#1e64ff"
)

// lineOpacity is how strongly grid lines cover the underlying pixels.
const lineOpacity = 0.7

// glyphs is a 3x5 pixel font for the digits 0-9.
var glyphs = map[rune][5]string{
	'0': {"111", "101", "101", "101", "111"},
	'1': {"010", "110", "010", "010", "111"},
	'2': {"111", "001", "111", "100", "111"},
	'3': {"111", "001", "111", "001", "111"},
	'4': {"101", "101", "111", "001", "001"},
	'5': {"111", "100", "111", "001", "111"},
	'6': {"111", "100", "111", "101", "111"},
	'7': {"111", "001", "001", "001", "001"},
	'8': {"111", "101", "111", "101", "111"},
	'9': {"111", "101", "111", "001", "111"},
}

// GlyphWidth and GlyphHeight are the unscaled dimensions of a glyph.
const (
	GlyphWidth  = 3
	GlyphHeight = 5
)

// Glyph returns the 3x5 bitmap for a digit. Each string is one row; '1' marks ink.
func Glyph(ch rune) ([5]string, bool) {
	g, ok := glyphs[ch]
	return g, ok
}

// DrawGlyph draws a digit at (x, y) with every font pixel scaled to a
// scale x scale block. Pixels falling outside dst are skipped.
// Returns false if the rune has no glyph.
func DrawGlyph(dst draw.Image, x, y, scale int, ch rune, c color.Color) bool {
	glyph, ok := glyphs[ch]
	if !ok {
		return false
	}
	if scale < 1 {
		scale = 1
	}
	bounds := dst.Bounds()
	for row, line := range glyph {
		for col, pixel := range line {
			if pixel != '1' {
				continue
			}
			for dy := 0; dy < scale; dy++ {
				for dx := 0; dx < scale; dx++ {
					p := image.Pt(x+col*scale+dx, y+row*scale+dy)
					if p.In(bounds) {
						dst.Set(p.X, p.Y, c)
					}
				}
			}
		}
	}
	return true
}

// GridLines returns the 10 line offsets that divide length into 9 cells.
// The last cell absorbs the remainder, so the final offset is length-1.
func GridLines(length int) [10]int {
	var lines [10]int
	cell := length / 9
	for i := 0; i < 9; i++ {
		lines[i] = i * cell
	}
	lines[9] = max(length-1, 0)
	return lines
}

// CellOverlay renders a squared grid image with the 9x9 cell boundaries and the
// recognized value of every cell drawn on top.
//
// Parameters:
//   - square: The squared grid image (paper polarity is easiest to read).
//   - labels: Up to 81 values in row-major order; empty strings are not drawn.
//   - lineHex, digitHex: Colors as hex strings ("#rrggbb"). Invalid or empty
//     values fall back to DefaultLineColor and DefaultDigitColor.
//
// Box boundaries (every third line) are drawn two pixels wide.
func CellOverlay(square *image.Gray, labels []string, lineHex, digitHex string) *image.RGBA {
	lineColor := parseColor(lineHex, DefaultLineColor)
	digitColor := parseColor(digitHex, DefaultDigitColor)

	bounds := square.Bounds()
	result := image.NewRGBA(bounds)
	draw.Draw(result, bounds, square, bounds.Min, draw.Src)

	w, h := bounds.Dx(), bounds.Dy()
	xs, ys := GridLines(w), GridLines(h)

	for i, x := range xs {
		width := 1
		if i%3 == 0 {
			width = 2
		}
		for dx := 0; dx < width; dx++ {
			for y := 0; y < h; y++ {
				blendPixel(result, x+dx, y, lineColor)
			}
		}
	}
	for i, y := range ys {
		width := 1
		if i%3 == 0 {
			width = 2
		}
		for dy := 0; dy < width; dy++ {
			for x := 0; x < w; x++ {
				blendPixel(result, x, y+dy, lineColor)
			}
		}
	}

	cellW, cellH := w/9, h/9
	scale := max(1, min(cellW, cellH)/(2*GlyphHeight))
	r, g, b := digitColor.RGB255()
	fg := color.RGBA{R: r, G: g, B: b, A: 255}
	for i, label := range labels {
		if i >= 81 || label == "" {
			continue
		}
		row, col := i/9, i%9
		for _, ch := range label {
			DrawGlyph(result, xs[col]+3, ys[row]+3, scale, ch, fg)
			break
		}
	}

	return result
}

// blendPixel mixes c over the existing pixel at (x, y) in RGB space.
func blendPixel(img *image.RGBA, x, y int, c colorful.Color) {
	if !image.Pt(x, y).In(img.Bounds()) {
		return
	}
	under, _ := colorful.MakeColor(img.RGBAAt(x, y))
	r, g, b := under.BlendRgb(c, lineOpacity).Clamped().RGB255()
	img.SetRGBA(x, y, color.RGBA{R: r, G: g, B: b, A: 255})
}

// parseColor parses a hex color string like "#ff0000", using fallback when it is
// empty or malformed.
func parseColor(hex, fallback string) colorful.Color {
	if c, err := colorful.Hex(hex); err == nil {
		return c
	}
	c, _ := colorful.Hex(fallback)
	return c
}
