// Package detection locates the outer boundary of a Sudoku grid in a binary mask.
//
// The input is a mask produced by imaging.Binarize: ink pixels are 255 and
// background pixels are 0. Any value >= 128 counts as ink.
//
// # Algorithm Overview
//
// Locate follows a short pipeline:
//
//  1. Contour Extraction: find every ink component that touches the outer
//     background and trace its boundary with Moore-neighbor tracing
//  2. Selection: keep the contour with the largest enclosed (shoelace) area
//  3. Simplification: reduce the contour to a polygon with the closed
//     Douglas-Peucker algorithm, tolerance 2% of the contour perimeter
//  4. Corner Assignment: a 4-vertex polygon becomes a Quad through the
//     sum/difference rule; any other vertex count falls back to the axis-aligned
//     bounding box of the contour
//
// # Coordinate System
//
// All coordinates use the standard image convention:
//   - Origin (0, 0) at top-left corner
//   - X increases rightward
//   - Y increases downward
//   - Contour points and quad corners are pixel centers (inclusive coordinates)
//
// # Corner Roles
//
// Quad corners are assigned by rule, not by input order:
//   - TopLeft has the smallest x+y
//   - BottomRight has the largest x+y
//   - TopRight has the smallest y-x
//   - BottomLeft has the largest y-x
//
// Exact ties are broken by the smaller x, then the smaller y, so the result is
// independent of the order in which points are supplied.
//
// # Implementations
//
// ContourLocator is pure Go. Building with the "gocv" tag adds GocvLocator,
// which performs the same steps with OpenCV.
package detection
