package geometry

import (
	"errors"
	"fmt"
	"math"

	"github.com/golang/geo/r2"
	"github.com/samber/lo"
)

// ErrDegenerateGeometry is returned when four points cannot describe a
// document quadrilateral: repeated or collinear corners, a self-intersecting
// outline, or a zero-sized output.
var ErrDegenerateGeometry = errors.New("degenerate geometry")

// Corner slot indices within Corners.Points.
const (
	TopLeft = iota
	TopRight
	BottomRight
	BottomLeft
)

// Size is the width and height of a pixel grid.
type Size struct {
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

// IsZero reports whether either dimension is zero.
func (s Size) IsZero() bool { return s.Width == 0 || s.Height == 0 }

// Corners are four document vertices in canonical order plus the size of the
// grid they index into.
type Corners struct {
	Points        [4]r2.Point `json:"points"`
	ReferenceSize Size        `json:"reference_size"`
}

// NewCorners builds Corners from points already in TL, TR, BR, BL order.
func NewCorners(tl, tr, br, bl r2.Point, ref Size) Corners {
	return Corners{Points: [4]r2.Point{tl, tr, br, bl}, ReferenceSize: ref}
}

func (c Corners) TopLeft() r2.Point     { return c.Points[TopLeft] }
func (c Corners) TopRight() r2.Point    { return c.Points[TopRight] }
func (c Corners) BottomRight() r2.Point { return c.Points[BottomRight] }
func (c Corners) BottomLeft() r2.Point  { return c.Points[BottomLeft] }

// Scale multiplies every coordinate by ratio and records ref as the new
// reference size. A ratio of 1 only relabels the grid.
func (c Corners) Scale(ratio float64, ref Size) Corners {
	out := Corners{ReferenceSize: ref}
	for i, p := range c.Points {
		out.Points[i] = p.Mul(ratio)
	}
	return out
}

// ScaleTo maps the corners into a grid of the given size using independent
// horizontal and vertical factors. Corners with no reference size, or one
// equal to size, are returned unchanged apart from the reference.
func (c Corners) ScaleTo(size Size) Corners {
	if c.ReferenceSize.IsZero() || c.ReferenceSize == size {
		c.ReferenceSize = size
		return c
	}
	fx := size.Width / c.ReferenceSize.Width
	fy := size.Height / c.ReferenceSize.Height
	out := Corners{ReferenceSize: size}
	for i, p := range c.Points {
		out.Points[i] = r2.Point{X: p.X * fx, Y: p.Y * fy}
	}
	return out
}

// OutputSize returns the extent a rectified image needs to keep the most
// resolution: the longer of the top and bottom edges by the longer of the
// left and right edges.
func (c Corners) OutputSize() Size {
	p := c.Points
	return Size{
		Width:  math.Max(p[TopRight].Sub(p[TopLeft]).Norm(), p[BottomRight].Sub(p[BottomLeft]).Norm()),
		Height: math.Max(p[BottomLeft].Sub(p[TopLeft]).Norm(), p[BottomRight].Sub(p[TopRight]).Norm()),
	}
}

// Validate checks that the corners can serve as the source of a perspective
// transform. The points must be finite and distinct, no three may be
// collinear, and the outline TL→TR→BR→BL must not cross itself.
//
// Failures wrap ErrDegenerateGeometry.
func (c Corners) Validate() error {
	p := c.Points
	for i, pt := range p {
		if math.IsNaN(pt.X) || math.IsNaN(pt.Y) || math.IsInf(pt.X, 0) || math.IsInf(pt.Y, 0) {
			return fmt.Errorf("%w: corner %d is not finite", ErrDegenerateGeometry, i)
		}
	}
	for i := 0; i < 4; i++ {
		for j := i + 1; j < 4; j++ {
			if p[i] == p[j] {
				return fmt.Errorf("%w: corners %d and %d coincide at %v", ErrDegenerateGeometry, i, j, p[i])
			}
		}
	}
	for i := 0; i < 4; i++ {
		a, b, d := p[i], p[(i+1)%4], p[(i+2)%4]
		if collinear(a, b, d) {
			return fmt.Errorf("%w: corners %d, %d and %d are collinear", ErrDegenerateGeometry, i, (i+1)%4, (i+2)%4)
		}
	}
	if segmentsCross(p[TopLeft], p[TopRight], p[BottomRight], p[BottomLeft]) ||
		segmentsCross(p[TopRight], p[BottomRight], p[BottomLeft], p[TopLeft]) {
		return fmt.Errorf("%w: quadrilateral is self-intersecting", ErrDegenerateGeometry)
	}
	return nil
}

// IsConvex reports whether the outline turns the same way at every corner.
func (c Corners) IsConvex() bool {
	sign := 0.0
	for i := 0; i < 4; i++ {
		a, b, d := c.Points[i], c.Points[(i+1)%4], c.Points[(i+2)%4]
		cross := b.Sub(a).Cross(d.Sub(b))
		if cross == 0 {
			return false
		}
		if sign == 0 {
			sign = cross
		} else if (cross > 0) != (sign > 0) {
			return false
		}
	}
	return true
}

// Canonicalize assigns four polygon vertices to the TL, TR, BR, BL slots by
// coordinate extrema: TL minimises x+y, TR minimises y-x, BR maximises x+y
// and BL maximises y-x. The first vertex wins ties.
//
// It fails when two slots resolve to the same vertex, which happens for
// triangles and other near-degenerate outlines.
func Canonicalize(points []r2.Point) ([4]r2.Point, error) {
	var out [4]r2.Point
	if len(points) != 4 {
		return out, fmt.Errorf("%w: need 4 points, got %d", ErrDegenerateGeometry, len(points))
	}

	type vertex struct {
		p r2.Point
		i int
	}
	vs := lo.Map(points, func(p r2.Point, i int) vertex { return vertex{p, i} })
	sum := func(v vertex) float64 { return v.p.X + v.p.Y }
	diff := func(v vertex) float64 { return v.p.Y - v.p.X }

	slots := [4]vertex{
		lo.MinBy(vs, func(a, b vertex) bool { return sum(a) < sum(b) }),
		lo.MinBy(vs, func(a, b vertex) bool { return diff(a) < diff(b) }),
		lo.MaxBy(vs, func(a, b vertex) bool { return sum(a) > sum(b) }),
		lo.MaxBy(vs, func(a, b vertex) bool { return diff(a) > diff(b) }),
	}

	seen := make(map[int]int, 4)
	for slot, v := range slots {
		if prev, dup := seen[v.i]; dup {
			return out, fmt.Errorf("%w: slots %d and %d resolve to the same vertex", ErrDegenerateGeometry, prev, slot)
		}
		seen[v.i] = slot
		out[slot] = v.p
	}
	return out, nil
}

// collinear reports whether three points lie on one line, with a tolerance
// relative to the lengths involved.
func collinear(a, b, c r2.Point) bool {
	ab, ac := b.Sub(a), c.Sub(a)
	return math.Abs(ab.Cross(ac)) <= 1e-9*ab.Norm()*ac.Norm()
}

// segmentsCross reports whether segments p1p2 and p3p4 properly intersect.
func segmentsCross(p1, p2, p3, p4 r2.Point) bool {
	d1 := p4.Sub(p3).Cross(p1.Sub(p3))
	d2 := p4.Sub(p3).Cross(p2.Sub(p3))
	d3 := p2.Sub(p1).Cross(p3.Sub(p1))
	d4 := p2.Sub(p1).Cross(p4.Sub(p1))
	return ((d1 > 0 && d2 < 0) || (d1 < 0 && d2 > 0)) &&
		((d3 > 0 && d4 < 0) || (d3 < 0 && d4 > 0))
}
