package detection

import (
	"errors"

	"github.com/golang/geo/r2"

	"github.com/ironsheep/docscan-mcp/internal/geometry"
)

// ErrNoDocumentFound means every candidate contour was rejected. It signals
// absence rather than failure; callers typically retry on the next frame.
var ErrNoDocumentFound = errors.New("no document found")

// Selection is the accepted candidate of SelectCorners.
type Selection struct {
	// Corners are in the working grid, with ReferenceSize set to it.
	Corners geometry.Corners

	// Index is the rank of the accepted contour.
	Index int

	// Examined counts the contours looked at, including the accepted one.
	Examined int
}

// SelectCorners walks the ranked contours and returns the first one that
// simplifies to a plausible document quadrilateral.
//
// A candidate is accepted when its Douglas-Peucker simplification (tolerance
// EpsilonFactor times the perimeter) has exactly four vertices, those
// vertices fill four distinct canonical slots, and the result passes the
// plausibility checks against size. Selection.Examined is valid even when
// ErrNoDocumentFound is returned.
func SelectCorners(contours []Contour, size geometry.Size, p Params) (Selection, error) {
	minimumSize := size.Width / p.MinSizeDivisor

	for i, c := range contours {
		approx := approxPolygon(c.Points, p.EpsilonFactor*c.Perimeter())
		if len(approx) != 4 {
			continue
		}
		pts, err := geometry.Canonicalize(approx)
		if err != nil {
			continue
		}
		if !plausibleDocument(pts, minimumSize) {
			continue
		}
		return Selection{
			Corners:  geometry.Corners{Points: pts, ReferenceSize: size},
			Index:    i,
			Examined: i + 1,
		}, nil
	}

	return Selection{Index: -1, Examined: len(contours)}, ErrNoDocumentFound
}

// plausibleDocument applies the shape checks to canonical corners:
//
//   - no edge collapses onto an axis (TL/TR differ in x, TR/TL in y, and so on)
//   - each side spans at least minimumSize along its main axis
//   - opposite corners line up within minimumSize, so the outline is close
//     to an upright rectangle
func plausibleDocument(p [4]r2.Point, minimumSize float64) bool {
	tl, tr, br, bl := p[geometry.TopLeft], p[geometry.TopRight], p[geometry.BottomRight], p[geometry.BottomLeft]

	if tl.X == tr.X || tr.Y == tl.Y || br.Y == bl.Y || bl.X == br.X {
		return false
	}

	if tr.X-tl.X < minimumSize || br.X-bl.X < minimumSize ||
		bl.Y-tl.Y < minimumSize || br.Y-tr.Y < minimumSize {
		return false
	}

	within := func(v float64) bool { return v <= minimumSize && v >= -minimumSize }
	return within(tl.X-bl.X) && within(tr.X-br.X) && within(tl.Y-tr.Y) && within(br.Y-bl.Y)
}
