package grid

import "image"

// CenterPad places an image in the middle of a square canvas.
//
// The canvas side is max(w, h). The image is copied unmodified at offset
// ((side-w)/2, (side-h)/2) and the remaining area is filled with 0, the
// background value of a binary mask. A square input is returned as a copy.
func CenterPad(src *image.Gray) *image.Gray {
	b := src.Bounds()
	w, h := b.Dx(), b.Dy()
	side := max(w, h)
	offX, offY := (side-w)/2, (side-h)/2

	out := image.NewGray(image.Rect(0, 0, side, side))
	for y := 0; y < h; y++ {
		row := src.Pix[src.PixOffset(b.Min.X, b.Min.Y+y):]
		start := (y+offY)*out.Stride + offX
		copy(out.Pix[start:start+w], row[:w])
	}
	return out
}
