package ocr

import (
	"context"
	"image"
	"image/color"
	"image/draw"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"
)

// digitCell renders ch with basicfont and scales it up so Tesseract has
// enough pixels to work with.
func digitCell(ch string, scale int) *image.Gray {
	small := image.NewGray(image.Rect(0, 0, 15, 17))
	draw.Draw(small, small.Bounds(), image.White, image.Point{}, draw.Src)
	d := &font.Drawer{
		Dst:  small,
		Src:  image.NewUniform(color.Black),
		Face: basicfont.Face7x13,
		Dot:  fixed.Point26_6{X: fixed.I(4), Y: fixed.I(13)},
	}
	d.DrawString(ch)

	img := image.NewGray(image.Rect(0, 0, 15*scale, 17*scale))
	for y := 0; y < img.Bounds().Dy(); y++ {
		for x := 0; x < img.Bounds().Dx(); x++ {
			img.Pix[y*img.Stride+x] = small.Pix[(y/scale)*small.Stride+x/scale]
		}
	}
	return img
}

func TestWithBorder(t *testing.T) {
	cell := image.NewGray(image.Rect(0, 0, 4, 3))

	out := withBorder(cell, 2)
	assert.Equal(t, image.Rect(0, 0, 8, 7), out.Bounds())

	r, _, _, _ := out.At(0, 0).RGBA()
	assert.Equal(t, uint32(0xffff), r)
	r, _, _, _ = out.At(2, 2).RGBA()
	assert.Equal(t, uint32(0), r)
	r, _, _, _ = out.At(5, 4).RGBA()
	assert.Equal(t, uint32(0), r)
	r, _, _, _ = out.At(6, 4).RGBA()
	assert.Equal(t, uint32(0xffff), r)
}

func TestNewTesseract_DefaultLanguage(t *testing.T) {
	assert.Equal(t, DefaultLanguage, NewTesseract("").language)
	assert.Equal(t, "deu", NewTesseract("deu").language)
}

func TestTesseract_CanceledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := NewTesseract("").Recognize(ctx, digitCell("5", 4))
	assert.ErrorIs(t, err, context.Canceled)
}

func TestTesseract_Recognize(t *testing.T) {
	rec := NewTesseract("")
	defer rec.Close()

	cands, err := rec.Recognize(context.Background(), digitCell("5", 4))
	if err != nil {
		if strings.Contains(err.Error(), "tesseract") ||
			strings.Contains(err.Error(), "language") {
			t.Skip("Tesseract not available")
		}
		require.NoError(t, err)
	}

	for _, c := range cands {
		assert.GreaterOrEqual(t, c.Confidence, 0.0)
		assert.LessOrEqual(t, c.Confidence, 1.0)
		assert.NotContains(t, c.Text, "0")
	}
	if d, ok := BestDigit(cands); ok {
		t.Logf("recognized %q", d)
	}
}
