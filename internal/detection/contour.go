package detection

import (
	"image"
	"math"
)

// Point represents a 2D coordinate in pixel space.
type Point struct {
	X int `json:"x"` // Horizontal position (0 = leftmost)
	Y int `json:"y"` // Vertical position (0 = topmost)
}

// Contour is the ordered, implicitly closed boundary of one ink component.
// Consecutive points are 8-neighbors and the last point connects back to the first.
type Contour []Point

// moore lists the 8 neighbor offsets clockwise (with y pointing down), starting west.
var moore = [8]Point{
	{-1, 0}, {-1, -1}, {0, -1}, {1, -1},
	{1, 0}, {1, 1}, {0, 1}, {-1, 1},
}

// mask is a read-only view of a binary image.
type mask struct {
	w, h int
	ink  []bool
}

func newMask(bin *image.Gray) *mask {
	b := bin.Bounds()
	m := &mask{w: b.Dx(), h: b.Dy(), ink: make([]bool, b.Dx()*b.Dy())}
	for y := 0; y < m.h; y++ {
		row := bin.Pix[bin.PixOffset(b.Min.X, b.Min.Y+y):]
		for x := 0; x < m.w; x++ {
			m.ink[y*m.w+x] = row[x] >= 128
		}
	}
	return m
}

func (m *mask) at(x, y int) bool {
	return x >= 0 && x < m.w && y >= 0 && y < m.h && m.ink[y*m.w+x]
}

// ExternalContours returns the outer boundary of every ink component that is not
// nested inside another component.
//
// Parameters:
//   - bin: Binary mask (ink >= 128).
//
// Returns:
//   - []Contour: One contour per external component, in raster order of each
//     component's topmost-leftmost pixel. Nil when the mask has no ink.
//
// # Algorithm
//
//  1. Outside Region: background pixels 4-connected to the image border form the
//     outside. Pixels beyond the border count as outside too
//  2. Labeling: ink pixels are grouped into 8-connected components with an
//     iterative flood fill
//  3. Filtering: a component is external when it touches the image border or is
//     4-adjacent to an outside pixel. Components inside holes are skipped
//  4. Tracing: the boundary is walked clockwise with Moore-neighbor tracing from
//     the component's topmost-leftmost pixel
func ExternalContours(bin *image.Gray) []Contour {
	m := newMask(bin)
	if m.w == 0 || m.h == 0 {
		return nil
	}

	outside := markOutside(m)
	visited := make([]bool, m.w*m.h)

	var contours []Contour
	for y := 0; y < m.h; y++ {
		for x := 0; x < m.w; x++ {
			if !m.ink[y*m.w+x] || visited[y*m.w+x] {
				continue
			}
			if !floodFill(m, visited, outside, x, y) {
				continue
			}
			contours = append(contours, traceBoundary(m, Point{X: x, Y: y}))
		}
	}
	return contours
}

// markOutside flags the background pixels reachable from the border through
// 4-connected background.
func markOutside(m *mask) []bool {
	outside := make([]bool, m.w*m.h)
	stack := make([]Point, 0, 2*(m.w+m.h))

	push := func(x, y int) {
		if x < 0 || x >= m.w || y < 0 || y >= m.h {
			return
		}
		i := y*m.w + x
		if m.ink[i] || outside[i] {
			return
		}
		outside[i] = true
		stack = append(stack, Point{X: x, Y: y})
	}

	for x := 0; x < m.w; x++ {
		push(x, 0)
		push(x, m.h-1)
	}
	for y := 0; y < m.h; y++ {
		push(0, y)
		push(m.w-1, y)
	}

	for len(stack) > 0 {
		p := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		push(p.X+1, p.Y)
		push(p.X-1, p.Y)
		push(p.X, p.Y+1)
		push(p.X, p.Y-1)
	}
	return outside
}

// floodFill performs iterative flood-fill from a starting ink pixel.
//
// Uses a stack-based approach (not recursive) to avoid stack overflow
// on large components. Uses 8-connectivity (includes diagonal neighbors).
// Reports whether the component touches the image border or the outside region.
func floodFill(m *mask, visited, outside []bool, startX, startY int) bool {
	stack := []Point{{X: startX, Y: startY}}
	visited[startY*m.w+startX] = true
	external := false

	for len(stack) > 0 {
		p := stack[len(stack)-1]
		stack = stack[:len(stack)-1]

		if p.X == 0 || p.Y == 0 || p.X == m.w-1 || p.Y == m.h-1 {
			external = true
		}

		for dy := -1; dy <= 1; dy++ {
			for dx := -1; dx <= 1; dx++ {
				if dx == 0 && dy == 0 {
					continue
				}
				x, y := p.X+dx, p.Y+dy
				if x < 0 || x >= m.w || y < 0 || y >= m.h {
					continue
				}
				i := y*m.w + x
				if !m.ink[i] {
					if (dx == 0 || dy == 0) && outside[i] {
						external = true
					}
					continue
				}
				if !visited[i] {
					visited[i] = true
					stack = append(stack, Point{X: x, Y: y})
				}
			}
		}
	}
	return external
}

// traceBoundary walks the outer boundary of the component containing start,
// which must be the component's topmost-leftmost pixel.
//
// The walk stops when it is back at start and about to repeat its first move.
// A single isolated pixel yields a one-point contour.
func traceBoundary(m *mask, start Point) Contour {
	contour := Contour{start}
	cur := start
	back := 0 // west of the topmost-leftmost pixel is always background

	var second Point
	haveSecond := false
	limit := 4*m.w*m.h + 8

	for i := 0; i < limit; i++ {
		next, nextBack, ok := mooreStep(m, cur, back)
		if !ok {
			break
		}
		if cur == start && haveSecond && next == second {
			break
		}
		if !haveSecond {
			second, haveSecond = next, true
		}
		contour = append(contour, next)
		cur, back = next, nextBack
	}

	if n := len(contour); n > 1 && contour[n-1] == start {
		contour = contour[:n-1]
	}
	return contour
}

// mooreStep scans the neighbors of cur clockwise, beginning just after the
// backtrack direction, and returns the first ink pixel together with the
// direction (relative to that pixel) of the background pixel examined just before it.
func mooreStep(m *mask, cur Point, back int) (Point, int, bool) {
	for k := 1; k <= 8; k++ {
		d := moore[(back+k)%8]
		p := Point{X: cur.X + d.X, Y: cur.Y + d.Y}
		if !m.at(p.X, p.Y) {
			continue
		}
		prev := moore[(back+k-1)%8]
		q := Point{X: cur.X + prev.X, Y: cur.Y + prev.Y}
		return p, direction(q.X-p.X, q.Y-p.Y), true
	}
	return cur, back, false
}

// direction returns the index in moore of the offset (dx, dy).
func direction(dx, dy int) int {
	for i, d := range moore {
		if d.X == dx && d.Y == dy {
			return i
		}
	}
	return 0
}

// ContourArea returns the area enclosed by a contour using the shoelace formula.
// Contours with fewer than three points have zero area.
func ContourArea(c Contour) float64 {
	return polygonArea(c)
}

func polygonArea(pts []Point) float64 {
	n := len(pts)
	if n < 3 {
		return 0
	}
	var sum int
	for i := 0; i < n; i++ {
		j := (i + 1) % n
		sum += pts[i].X*pts[j].Y - pts[j].X*pts[i].Y
	}
	return math.Abs(float64(sum)) / 2
}

// ArcLength returns the perimeter of a contour. When closed is true the segment
// from the last point back to the first is included.
func ArcLength(c Contour, closed bool) float64 {
	n := len(c)
	if n < 2 {
		return 0
	}
	var length float64
	for i := 1; i < n; i++ {
		length += dist(c[i-1], c[i])
	}
	if closed {
		length += dist(c[n-1], c[0])
	}
	return length
}

func dist(a, b Point) float64 {
	return math.Hypot(float64(a.X-b.X), float64(a.Y-b.Y))
}

// BoundingBox returns the smallest axis-aligned rectangle containing every
// contour point. Max is exclusive, matching image.Rectangle.
func BoundingBox(c Contour) image.Rectangle {
	if len(c) == 0 {
		return image.Rectangle{}
	}
	minX, minY := c[0].X, c[0].Y
	maxX, maxY := c[0].X, c[0].Y
	for _, p := range c[1:] {
		minX = min(minX, p.X)
		minY = min(minY, p.Y)
		maxX = max(maxX, p.X)
		maxY = max(maxY, p.Y)
	}
	return image.Rect(minX, minY, maxX+1, maxY+1)
}
