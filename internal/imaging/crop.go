package imaging

import (
	"bytes"
	"encoding/base64"
	"fmt"
	"image"
	"image/png"

	"github.com/disintegration/imaging"
)

// EncodedImage contains an image encoded as base64 PNG
type EncodedImage struct {
	Width       int    `json:"width"`
	Height      int    `json:"height"`
	ImageBase64 string `json:"image_base64"`
	MimeType    string `json:"mime_type"`
}

// Encode renders an image as base64 PNG
func Encode(img image.Image) (*EncodedImage, error) {
	data, err := EncodePNG(img)
	if err != nil {
		return nil, err
	}
	return &EncodedImage{
		Width:       img.Bounds().Dx(),
		Height:      img.Bounds().Dy(),
		ImageBase64: base64.StdEncoding.EncodeToString(data),
		MimeType:    "image/png",
	}, nil
}

// EncodePNG encodes an image as PNG bytes
func EncodePNG(img image.Image) ([]byte, error) {
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return nil, fmt.Errorf("failed to encode image: %w", err)
	}
	return buf.Bytes(), nil
}

// Save writes an image to disk, choosing the format from the file extension
func Save(img image.Image, path string) error {
	if err := imaging.Save(img, path); err != nil {
		return fmt.Errorf("failed to save image %s: %w", path, err)
	}
	return nil
}

// CropGray copies a rectangular region of a grayscale image.
// The rectangle is clipped to the image bounds; the result starts at the origin.
func CropGray(gray *image.Gray, r image.Rectangle) *image.Gray {
	r = r.Intersect(gray.Bounds())
	out := image.NewGray(image.Rect(0, 0, r.Dx(), r.Dy()))
	for y := 0; y < r.Dy(); y++ {
		src := gray.Pix[gray.PixOffset(r.Min.X, r.Min.Y+y):]
		copy(out.Pix[y*out.Stride:y*out.Stride+r.Dx()], src[:r.Dx()])
	}
	return out
}

// ResizeCubic scales a grayscale image to exactly width x height using the
// Catmull-Rom cubic filter
func ResizeCubic(gray *image.Gray, width, height int) *image.Gray {
	return ToGray(imaging.Resize(gray, width, height, imaging.CatmullRom))
}

// Blank returns a width x height grayscale image filled with a single value
func Blank(width, height int, value uint8) *image.Gray {
	out := image.NewGray(image.Rect(0, 0, width, height))
	if value != 0 {
		for i := range out.Pix {
			out.Pix[i] = value
		}
	}
	return out
}
