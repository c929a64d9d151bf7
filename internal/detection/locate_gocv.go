//go:build gocv

package detection

import (
	"image"

	"gocv.io/x/gocv"
)

func init() {
	locators["gocv"] = func() Locator { return GocvLocator{} }
}

// GocvLocator locates the grid with OpenCV contour functions.
// It applies the same selection, simplification and fallback rules as Locate.
type GocvLocator struct{}

// Locate implements Locator.
func (GocvLocator) Locate(bin *image.Gray) (Quad, bool) {
	mat, err := gocv.ImageGrayToMatGray(bin)
	if err != nil {
		return Quad{}, false
	}
	defer mat.Close()

	contours := gocv.FindContours(mat, gocv.RetrievalExternal, gocv.ChainApproxNone)
	defer contours.Close()
	if contours.Size() == 0 {
		return Quad{}, false
	}

	best, bestArea := 0, gocv.ContourArea(contours.At(0))
	for i := 1; i < contours.Size(); i++ {
		if a := gocv.ContourArea(contours.At(i)); a > bestArea {
			best, bestArea = i, a
		}
	}

	c := contours.At(best)
	approx := gocv.ApproxPolyDP(c, approxFraction*gocv.ArcLength(c, true), true)
	defer approx.Close()

	if approx.Size() == 4 {
		var pts [4]Point
		for i, p := range approx.ToPoints() {
			pts[i] = Point{X: p.X, Y: p.Y}
		}
		return OrderCorners(pts), true
	}

	contour := make(Contour, 0, c.Size())
	for _, p := range c.ToPoints() {
		contour = append(contour, Point{X: p.X, Y: p.Y})
	}
	return BoundingQuad(contour), true
}
