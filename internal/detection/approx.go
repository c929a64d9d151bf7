package detection

import "math"

// ApproxPolygon simplifies a closed contour with the Douglas-Peucker algorithm.
//
// Parameters:
//   - c: Closed contour to simplify.
//   - epsilon: Maximum allowed distance, in pixels, between the contour and the
//     simplified polygon.
//
// Returns:
//   - []Point: Polygon vertices in contour order. Contours with fewer than
//     three points are returned as a copy.
//
// # Algorithm
//
// A closed curve has no natural endpoints, so the contour is split at its first
// point and the point farthest from it. Each of the two chains is simplified
// independently: the point farthest from the chain's chord is kept when its
// distance exceeds epsilon and the chain is recursively split there.
func ApproxPolygon(c Contour, epsilon float64) []Point {
	n := len(c)
	if n < 3 {
		return append([]Point(nil), c...)
	}

	far := 0
	var maxD float64
	for i := 1; i < n; i++ {
		if d := dist(c[0], c[i]); d > maxD {
			maxD, far = d, i
		}
	}
	if far == 0 {
		return []Point{c[0]}
	}

	first := douglasPeucker(c[:far+1], epsilon)

	ring := make([]Point, 0, n-far+1)
	ring = append(ring, c[far:]...)
	ring = append(ring, c[0])
	second := douglasPeucker(ring, epsilon)

	out := make([]Point, 0, len(first)+len(second))
	out = append(out, first...)
	out = append(out, second[1:len(second)-1]...)
	return out
}

// douglasPeucker simplifies an open chain, always keeping both endpoints.
func douglasPeucker(pts []Point, epsilon float64) []Point {
	if len(pts) <= 2 {
		return append([]Point(nil), pts...)
	}

	a, b := pts[0], pts[len(pts)-1]
	idx := 0
	var maxD float64
	for i := 1; i < len(pts)-1; i++ {
		if d := segmentDistance(pts[i], a, b); d > maxD {
			maxD, idx = d, i
		}
	}

	if maxD <= epsilon {
		return []Point{a, b}
	}

	left := douglasPeucker(pts[:idx+1], epsilon)
	right := douglasPeucker(pts[idx:], epsilon)
	return append(left[:len(left)-1], right...)
}

// segmentDistance is the perpendicular distance from p to the line through a and b,
// or the distance to a when a and b coincide.
func segmentDistance(p, a, b Point) float64 {
	dx, dy := float64(b.X-a.X), float64(b.Y-a.Y)
	length := math.Hypot(dx, dy)
	if length == 0 {
		return dist(p, a)
	}
	cross := dx*float64(p.Y-a.Y) - dy*float64(p.X-a.X)
	return math.Abs(cross) / length
}
