package ocr

import (
	"context"
	"image"
	"image/color"

	"github.com/disintegration/imaging"
	"github.com/otiai10/gosseract/v2"
	"github.com/pkg/errors"
)

// DefaultLanguage is the Tesseract language used when none is configured.
const DefaultLanguage = "eng"

// tesseractBorder is the white margin added around a cell before OCR.
// Tesseract segments poorly when glyphs touch the image edge.
const tesseractBorder = 10

// Tesseract recognizes digits with the Tesseract engine.
//
// A new gosseract client is created for every cell, so a Tesseract value can
// be shared between goroutines.
type Tesseract struct {
	language string
}

// NewTesseract returns a Tesseract recognizer for the given language code.
func NewTesseract(language string) *Tesseract {
	if language == "" {
		language = DefaultLanguage
	}
	return &Tesseract{language: language}
}

// Name returns "tesseract".
func (t *Tesseract) Name() string { return BackendTesseract }

// Close is a no-op; clients are closed after each call.
func (t *Tesseract) Close() error { return nil }

// Recognize runs single-character OCR restricted to the digits 1-9 and
// returns one candidate per recognized word with its confidence scaled to
// 0.0-1.0.
//
// gosseract cannot be interrupted, so ctx is only checked before the call.
func (t *Tesseract) Recognize(ctx context.Context, img *image.Gray) ([]Candidate, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	data, err := encodePNG(withBorder(img, tesseractBorder))
	if err != nil {
		return nil, err
	}

	client := gosseract.NewClient()
	defer client.Close()

	if err := client.SetLanguage(t.language); err != nil {
		return nil, errors.Wrap(err, "failed to set language")
	}
	if err := client.SetPageSegMode(gosseract.PSM_SINGLE_CHAR); err != nil {
		return nil, errors.Wrap(err, "failed to set page segmentation mode")
	}
	if err := client.SetWhitelist("123456789"); err != nil {
		return nil, errors.Wrap(err, "failed to set whitelist")
	}
	if err := client.SetImageFromBytes(data); err != nil {
		return nil, errors.Wrap(err, "failed to set image")
	}

	boxes, err := client.GetBoundingBoxes(gosseract.RIL_WORD)
	if err != nil {
		return nil, errors.Wrap(err, "OCR failed")
	}

	cands := make([]Candidate, 0, len(boxes))
	for _, box := range boxes {
		if box.Word == "" {
			continue
		}
		cands = append(cands, Candidate{
			Text:       box.Word,
			Confidence: box.Confidence / 100.0,
		})
	}
	return cands, nil
}

// withBorder pastes img onto a larger white canvas.
func withBorder(img image.Image, border int) *image.NRGBA {
	b := img.Bounds()
	canvas := imaging.New(b.Dx()+2*border, b.Dy()+2*border, color.White)
	return imaging.Paste(canvas, img, image.Pt(border, border))
}
