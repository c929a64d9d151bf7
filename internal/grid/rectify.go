package grid

import (
	"fmt"
	"image"
	"math"

	"gonum.org/v1/gonum/mat"

	"github.com/ironsheep/sudoku-extractor/internal/detection"
)

// MinSide is the smallest side length of a rectified square.
const MinSide = 450

// TargetSide returns the rectified side length for a source of size w x h.
func TargetSide(w, h int) int {
	return max(MinSide, max(w, h))
}

// Vec2 is a point with real coordinates.
type Vec2 struct {
	X, Y float64
}

func vec(p detection.Point) Vec2 {
	return Vec2{X: float64(p.X), Y: float64(p.Y)}
}

// Homography is a 3x3 projective transform stored row-major with H[8] = 1.
type Homography [9]float64

// Apply maps (x, y) through the transform.
func (h Homography) Apply(x, y float64) (float64, float64) {
	w := h[6]*x + h[7]*y + h[8]
	return (h[0]*x + h[1]*y + h[2]) / w, (h[3]*x + h[4]*y + h[5]) / w
}

// SolveHomography computes the projective transform mapping each from[i] onto to[i].
//
// The eight unknowns are found by solving the 8x8 linear system built from the
// four correspondences. An error is returned when the points are degenerate
// (for example three of them collinear) and the system is singular.
func SolveHomography(from, to [4]Vec2) (Homography, error) {
	a := mat.NewDense(8, 8, nil)
	b := mat.NewVecDense(8, nil)
	for i := 0; i < 4; i++ {
		x, y := from[i].X, from[i].Y
		u, v := to[i].X, to[i].Y
		a.SetRow(2*i, []float64{x, y, 1, 0, 0, 0, -u * x, -u * y})
		b.SetVec(2*i, u)
		a.SetRow(2*i+1, []float64{0, 0, 0, x, y, 1, -v * x, -v * y})
		b.SetVec(2*i+1, v)
	}

	var sol mat.VecDense
	if err := sol.SolveVec(a, b); err != nil {
		return Homography{}, fmt.Errorf("failed to solve homography: %w", err)
	}

	var h Homography
	for i := 0; i < 8; i++ {
		h[i] = sol.AtVec(i)
		if math.IsNaN(h[i]) || math.IsInf(h[i], 0) {
			return Homography{}, fmt.Errorf("failed to solve homography: non-finite coefficient")
		}
	}
	h[8] = 1
	return h, nil
}

// Rectify warps the quadrilateral region of an image onto an axis-aligned square.
//
// Parameters:
//   - src: The image to sample (usually the binary mask).
//   - q: The located grid corners.
//
// Returns:
//   - *image.Gray: A TargetSide x TargetSide image where the quad's corners land on
//     (0,0), (S-1,0), (S-1,S-1) and (0,S-1).
//   - error: Non-nil when the corners are degenerate.
//
// # Algorithm
//
//  1. Solve the homography from the destination square back to the quad
//  2. For every destination pixel, map its coordinates into the source
//  3. Sample the source bilinearly. Source positions outside the image read as 0
func Rectify(src *image.Gray, q detection.Quad) (*image.Gray, error) {
	w, h := src.Bounds().Dx(), src.Bounds().Dy()
	side := TargetSide(w, h)
	last := float64(side - 1)

	dst := [4]Vec2{{0, 0}, {last, 0}, {last, last}, {0, last}}
	corners := q.Corners()
	var from [4]Vec2
	for i, c := range corners {
		from[i] = vec(c)
	}

	inv, err := SolveHomography(dst, from)
	if err != nil {
		return nil, err
	}

	out := image.NewGray(image.Rect(0, 0, side, side))
	for y := 0; y < side; y++ {
		for x := 0; x < side; x++ {
			sx, sy := inv.Apply(float64(x), float64(y))
			out.Pix[y*out.Stride+x] = bilinear(src, sx, sy)
		}
	}
	return out, nil
}

// bilinear samples src at a real position. Pixels outside the image count as 0.
func bilinear(src *image.Gray, x, y float64) uint8 {
	if math.IsNaN(x) || math.IsNaN(y) {
		return 0
	}
	b := src.Bounds()
	w, h := b.Dx(), b.Dy()
	if x <= -1 || y <= -1 || x >= float64(w) || y >= float64(h) {
		return 0
	}

	x0, y0 := int(math.Floor(x)), int(math.Floor(y))
	fx, fy := x-float64(x0), y-float64(y0)

	at := func(px, py int) float64 {
		if px < 0 || py < 0 || px >= w || py >= h {
			return 0
		}
		return float64(src.Pix[src.PixOffset(b.Min.X+px, b.Min.Y+py)])
	}

	top := at(x0, y0)*(1-fx) + at(x0+1, y0)*fx
	bottom := at(x0, y0+1)*(1-fx) + at(x0+1, y0+1)*fx
	v := top*(1-fy) + bottom*fy + 0.5
	if v >= 255 {
		return 255
	}
	if v <= 0 {
		return 0
	}
	return uint8(v)
}
