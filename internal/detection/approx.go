package detection

import (
	"github.com/golang/geo/r2"
)

// approxPolygon simplifies a closed polyline with the Douglas-Peucker
// algorithm. Every point of the input lies within epsilon of the returned
// polygon's outline.
//
// The closed chain is split at two mutually distant vertices and each half
// is simplified as an open chain, so the result does not depend on where
// tracing started.
func approxPolygon(pts []r2.Point, epsilon float64) []r2.Point {
	n := len(pts)
	if n <= 2 {
		return append([]r2.Point(nil), pts...)
	}

	a := farthestFrom(pts, 0)
	b := farthestFrom(pts, a)
	if a == b {
		return []r2.Point{pts[a]}
	}

	chain := func(from, to int) []r2.Point {
		length := (to-from+n)%n + 1
		out := make([]r2.Point, length)
		for i := range out {
			out[i] = pts[(from+i)%n]
		}
		return out
	}

	first := simplifyOpen(chain(a, b), epsilon)
	second := simplifyOpen(chain(b, a), epsilon)

	result := make([]r2.Point, 0, len(first)+len(second)-2)
	result = append(result, first[:len(first)-1]...)
	result = append(result, second[:len(second)-1]...)
	return result
}

// simplifyOpen runs Douglas-Peucker on an open chain, keeping both ends.
func simplifyOpen(pts []r2.Point, epsilon float64) []r2.Point {
	n := len(pts)
	if n <= 2 {
		return pts
	}
	keep := make([]bool, n)
	keep[0], keep[n-1] = true, true

	type span struct{ lo, hi int }
	stack := []span{{0, n - 1}}
	for len(stack) > 0 {
		s := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		if s.hi-s.lo < 2 {
			continue
		}

		idx, maxDist := -1, 0.0
		for i := s.lo + 1; i < s.hi; i++ {
			if d := lineDistance(pts[i], pts[s.lo], pts[s.hi]); d > maxDist {
				idx, maxDist = i, d
			}
		}
		if idx < 0 || maxDist <= epsilon {
			continue
		}
		keep[idx] = true
		stack = append(stack, span{s.lo, idx}, span{idx, s.hi})
	}

	out := make([]r2.Point, 0, n)
	for i, k := range keep {
		if k {
			out = append(out, pts[i])
		}
	}
	return out
}

// lineDistance is the distance from p to the line through a and b, or to a
// when the two coincide.
func lineDistance(p, a, b r2.Point) float64 {
	ab := b.Sub(a)
	length := ab.Norm()
	if length == 0 {
		return p.Sub(a).Norm()
	}
	d := ab.Cross(p.Sub(a)) / length
	if d < 0 {
		return -d
	}
	return d
}

func farthestFrom(pts []r2.Point, from int) int {
	best, bestDist := from, -1.0
	for i, p := range pts {
		if d := p.Sub(pts[from]).Norm(); d > bestDist {
			best, bestDist = i, d
		}
	}
	return best
}
