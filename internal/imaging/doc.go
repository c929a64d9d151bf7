// Package imaging provides the pixel-level building blocks of the extraction pipeline.
//
// This package implements image loading, grayscale conversion, binarization,
// cropping, cubic resizing and the debug overlay used to visualize a processed grid.
// All operations work on images whose bounds start at (0,0): every function that
// produces an image allocates a new *image.Gray (or *image.RGBA for overlays) and
// never mutates its input.
//
// # Coordinate System
//
// All pixel coordinates in this package are 0-based:
//   - X: horizontal position (0 = leftmost pixel)
//   - Y: vertical position (0 = topmost pixel)
//   - For regions, the minimum point is inclusive and the maximum point is exclusive
//
// # Polarity
//
// Two polarities are used across the pipeline:
//   - Mask polarity: ink is 255, background is 0. Binarize produces this; contour
//     extraction and rectification operate on it.
//   - Paper polarity: ink is 0, background is 255. Cells are split from a paper
//     polarity square so that "light" means "blank" for the emptiness check and
//     recognition engines see dark glyphs on a light page.
//
// Invert converts between the two.
//
// # Thread Safety
//
// The ImageCache type is safe for concurrent use. All other functions are pure and
// can be called concurrently.
package imaging
