package imaging

import (
	"image"

	"github.com/anthonynsimon/bild/effect"
)

// ToGray converts any image to an 8-bit grayscale image with bounds at the origin.
//
// Color pixels are reduced with the ITU-R BT.601 luma weights
// (0.299 R + 0.587 G + 0.114 B). The result is always a fresh copy, so callers
// may modify it without affecting the input.
func ToGray(img image.Image) *image.Gray {
	b := img.Bounds()
	w, h := b.Dx(), b.Dy()
	out := image.NewGray(image.Rect(0, 0, w, h))

	if g, ok := img.(*image.Gray); ok {
		for y := 0; y < h; y++ {
			src := g.Pix[g.PixOffset(b.Min.X, b.Min.Y+y):]
			copy(out.Pix[y*out.Stride:y*out.Stride+w], src[:w])
		}
		return out
	}

	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			r, g, bl, _ := img.At(b.Min.X+x, b.Min.Y+y).RGBA()
			lum := 0.299*float64(r>>8) + 0.587*float64(g>>8) + 0.114*float64(bl>>8)
			out.Pix[y*out.Stride+x] = clampByte(lum)
		}
	}
	return out
}

// Invert returns the negative of a grayscale image (255 - v for every pixel).
//
// It converts between mask polarity (ink 255) and paper polarity (ink 0).
func Invert(gray *image.Gray) *image.Gray {
	return ToGray(effect.Invert(gray))
}

// Clone returns a deep copy of a grayscale image.
func Clone(gray *image.Gray) *image.Gray {
	return ToGray(gray)
}

// clampByte rounds a float to the nearest integer and clamps it to 0..255.
func clampByte(v float64) uint8 {
	v += 0.5
	if v <= 0 {
		return 0
	}
	if v >= 255 {
		return 255
	}
	return uint8(v)
}
