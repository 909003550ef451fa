package rectify

import (
	"fmt"
	"math"

	"github.com/golang/geo/r2"
	"gonum.org/v1/gonum/mat"

	"github.com/ironsheep/docscan-mcp/internal/geometry"
)

// Homography is a 3x3 projective transform of the plane.
type Homography struct {
	m *mat.Dense
}

// SolveHomography returns the transform mapping each src point onto the dst
// point with the same index.
//
// The points are first normalised (centroid at the origin, mean distance
// sqrt(2)) so the 8x8 linear system stays well conditioned for frames of any
// size. Returns an error wrapping ErrDegenerateGeometry when the system has
// no unique solution.
func SolveHomography(src, dst [4]r2.Point) (*Homography, error) {
	ts, srcN, err := normalise(src)
	if err != nil {
		return nil, err
	}
	td, dstN, err := normalise(dst)
	if err != nil {
		return nil, err
	}

	a := mat.NewDense(8, 8, nil)
	b := mat.NewVecDense(8, nil)
	for i := 0; i < 4; i++ {
		x, y := srcN[i].X, srcN[i].Y
		u, v := dstN[i].X, dstN[i].Y
		a.SetRow(2*i, []float64{x, y, 1, 0, 0, 0, -u * x, -u * y})
		a.SetRow(2*i+1, []float64{0, 0, 0, x, y, 1, -v * x, -v * y})
		b.SetVec(2*i, u)
		b.SetVec(2*i+1, v)
	}

	var h mat.VecDense
	if err := h.SolveVec(a, b); err != nil {
		return nil, fmt.Errorf("%w: %v", geometry.ErrDegenerateGeometry, err)
	}

	hn := mat.NewDense(3, 3, []float64{
		h.AtVec(0), h.AtVec(1), h.AtVec(2),
		h.AtVec(3), h.AtVec(4), h.AtVec(5),
		h.AtVec(6), h.AtVec(7), 1,
	})

	var tdInv mat.Dense
	if err := tdInv.Inverse(td); err != nil {
		return nil, fmt.Errorf("%w: %v", geometry.ErrDegenerateGeometry, err)
	}

	var tmp, full mat.Dense
	tmp.Mul(hn, ts)
	full.Mul(&tdInv, &tmp)

	return &Homography{m: &full}, nil
}

// Apply maps p through the transform.
func (h *Homography) Apply(p r2.Point) r2.Point {
	m := h.m
	x := m.At(0, 0)*p.X + m.At(0, 1)*p.Y + m.At(0, 2)
	y := m.At(1, 0)*p.X + m.At(1, 1)*p.Y + m.At(1, 2)
	w := m.At(2, 0)*p.X + m.At(2, 1)*p.Y + m.At(2, 2)
	return r2.Point{X: x / w, Y: y / w}
}

// Inverse returns the transform undoing h.
func (h *Homography) Inverse() (*Homography, error) {
	var inv mat.Dense
	if err := inv.Inverse(h.m); err != nil {
		return nil, fmt.Errorf("%w: %v", geometry.ErrDegenerateGeometry, err)
	}
	return &Homography{m: &inv}, nil
}

// Matrix returns a copy of the transform in row-major order.
func (h *Homography) Matrix() [9]float64 {
	var out [9]float64
	for r := 0; r < 3; r++ {
		for c := 0; c < 3; c++ {
			out[r*3+c] = h.m.At(r, c)
		}
	}
	return out
}

// normalise returns the similarity transform T that centres pts on the
// origin with mean distance sqrt(2), and the transformed points.
func normalise(pts [4]r2.Point) (*mat.Dense, [4]r2.Point, error) {
	var centroid r2.Point
	for _, p := range pts {
		centroid = centroid.Add(p)
	}
	centroid = centroid.Mul(0.25)

	mean := 0.0
	for _, p := range pts {
		mean += p.Sub(centroid).Norm()
	}
	mean /= 4
	if mean == 0 || math.IsNaN(mean) || math.IsInf(mean, 0) {
		return nil, pts, fmt.Errorf("%w: points have no spread", geometry.ErrDegenerateGeometry)
	}

	s := math.Sqrt2 / mean
	t := mat.NewDense(3, 3, []float64{
		s, 0, -s * centroid.X,
		0, s, -s * centroid.Y,
		0, 0, 1,
	})

	var out [4]r2.Point
	for i, p := range pts {
		out[i] = p.Sub(centroid).Mul(s)
	}
	return t, out, nil
}
