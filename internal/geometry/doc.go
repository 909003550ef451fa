// Package geometry holds the corner model shared by detection and
// rectification: the canonical TL, TR, BR, BL quadrilateral, the size of the
// pixel grid it was measured against, and the checks that keep it usable as
// the source of a perspective transform.
//
// Points are r2.Point values from github.com/golang/geo with X growing
// rightward and Y growing downward.
package geometry
