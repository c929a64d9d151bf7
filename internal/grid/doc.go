// Package grid turns a binary mask into a square grid image and cuts it into
// 81 cells.
//
// Two squaring transforms are available. CenterPad places the whole mask on a
// square canvas without distortion. Rectify warps a located quadrilateral onto
// a square of at least MinSide pixels. Square chooses between them according
// to a Strategy and reports the choice in a Decision.
//
// Split divides a square into cells with integer cell sizes; the last row and
// column absorb the remainder so the whole image is covered.
package grid
