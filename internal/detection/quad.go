package detection

import (
	"image"
)

// approxFraction is the Douglas-Peucker tolerance as a fraction of the contour perimeter.
const approxFraction = 0.02

// Quad is the located grid boundary with fixed corner roles.
type Quad struct {
	TopLeft     Point `json:"top_left"`
	TopRight    Point `json:"top_right"`
	BottomRight Point `json:"bottom_right"`
	BottomLeft  Point `json:"bottom_left"`

	// FromBoundingBox is true when the boundary did not simplify to four
	// vertices and the contour's bounding box was used instead.
	FromBoundingBox bool `json:"from_bounding_box"`
}

// Corners returns the corners clockwise from the top-left.
func (q Quad) Corners() [4]Point {
	return [4]Point{q.TopLeft, q.TopRight, q.BottomRight, q.BottomLeft}
}

// Area returns the area of the quadrilateral (shoelace formula).
func (q Quad) Area() float64 {
	c := q.Corners()
	return polygonArea(c[:])
}

// Locator finds the grid boundary in a binary mask.
type Locator interface {
	Locate(bin *image.Gray) (Quad, bool)
}

// ContourLocator is the pure Go Locator.
type ContourLocator struct{}

// Locate implements Locator.
func (ContourLocator) Locate(bin *image.Gray) (Quad, bool) {
	return Locate(bin)
}

// Locate finds the quadrilateral bounding the largest ink shape in a mask.
//
// Parameters:
//   - bin: Binary mask with ink >= 128 (as produced by imaging.Binarize).
//
// Returns:
//   - Quad: The ordered corners. FromBoundingBox reports whether the fallback
//     bounding box was used.
//   - bool: False when the mask contains no ink at all.
//
// # Algorithm
//
//  1. Extract external contours
//  2. Select the contour with the largest area; the first discovered wins ties
//  3. Simplify it with tolerance 2% of its perimeter
//  4. Exactly 4 vertices: order them with OrderCorners. Otherwise use BoundingQuad
func Locate(bin *image.Gray) (Quad, bool) {
	contours := ExternalContours(bin)
	if len(contours) == 0 {
		return Quad{}, false
	}

	best := 0
	bestArea := ContourArea(contours[0])
	for i := 1; i < len(contours); i++ {
		if a := ContourArea(contours[i]); a > bestArea {
			best, bestArea = i, a
		}
	}

	c := contours[best]
	poly := ApproxPolygon(c, approxFraction*ArcLength(c, true))
	if len(poly) == 4 {
		return OrderCorners([4]Point{poly[0], poly[1], poly[2], poly[3]}), true
	}
	return BoundingQuad(c), true
}

// BoundingQuad returns the axis-aligned box around a contour as a Quad whose
// corners are the extreme pixel coordinates (inclusive).
func BoundingQuad(c Contour) Quad {
	r := BoundingBox(c)
	if r.Empty() {
		return Quad{FromBoundingBox: true}
	}
	x0, y0, x1, y1 := r.Min.X, r.Min.Y, r.Max.X-1, r.Max.Y-1
	return Quad{
		TopLeft:         Point{X: x0, Y: y0},
		TopRight:        Point{X: x1, Y: y0},
		BottomRight:     Point{X: x1, Y: y1},
		BottomLeft:      Point{X: x0, Y: y1},
		FromBoundingBox: true,
	}
}

// OrderCorners assigns corner roles to four points.
//
// TopLeft minimizes x+y, BottomRight maximizes x+y, TopRight minimizes y-x and
// BottomLeft maximizes y-x. Exact ties go to the point with the smaller x, then
// the smaller y, so any permutation of the input gives the same Quad.
func OrderCorners(pts [4]Point) Quad {
	sum := func(p Point) int { return p.X + p.Y }
	diff := func(p Point) int { return p.Y - p.X }

	return Quad{
		TopLeft:     pick(pts, sum, false),
		TopRight:    pick(pts, diff, false),
		BottomRight: pick(pts, sum, true),
		BottomLeft:  pick(pts, diff, true),
	}
}

// pick returns the point with the smallest (or largest) key.
func pick(pts [4]Point, key func(Point) int, largest bool) Point {
	best := pts[0]
	for _, p := range pts[1:] {
		kp, kb := key(p), key(best)
		if largest {
			kp, kb = -kp, -kb
		}
		if kp < kb || (kp == kb && lessXY(p, best)) {
			best = p
		}
	}
	return best
}

func lessXY(a, b Point) bool {
	if a.X != b.X {
		return a.X < b.X
	}
	return a.Y < b.Y
}
