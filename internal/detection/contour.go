package detection

import (
	"image"
	"math"
	"sync"

	"github.com/golang/geo/r2"
)

// Contour is a closed polyline traced along the border of a connected
// component of edge pixels.
type Contour struct {
	// Points are pixel centres in tracing order. The last point connects
	// back to the first.
	Points []r2.Point

	// Hole is true for the inner border of a component.
	Hole bool

	// Parent indexes the enclosing border in the traced slice, or -1 when
	// the border is directly inside the image frame.
	Parent int
}

// Area returns the absolute shoelace area enclosed by the polyline.
func (c Contour) Area() float64 {
	return polygonArea(c.Points)
}

// Perimeter returns the closed arc length of the polyline.
func (c Contour) Perimeter() float64 {
	return closedLength(c.Points)
}

// BoundingBox returns the smallest integer rectangle containing every point.
func (c Contour) BoundingBox() image.Rectangle {
	if len(c.Points) == 0 {
		return image.Rectangle{}
	}
	r := image.Rect(int(c.Points[0].X), int(c.Points[0].Y), int(c.Points[0].X)+1, int(c.Points[0].Y)+1)
	for _, p := range c.Points[1:] {
		r = r.Union(image.Rect(int(p.X), int(p.Y), int(p.X)+1, int(p.Y)+1))
	}
	return r
}

func polygonArea(pts []r2.Point) float64 {
	n := len(pts)
	if n < 3 {
		return 0
	}
	sum := 0.0
	for i := range pts {
		sum += pts[i].Cross(pts[(i+1)%n])
	}
	return math.Abs(sum) / 2
}

func closedLength(pts []r2.Point) float64 {
	n := len(pts)
	if n < 2 {
		return 0
	}
	total := 0.0
	for i := range pts {
		total += pts[(i+1)%n].Sub(pts[i]).Norm()
	}
	return total
}

// labelPool recycles the padded label grids used by traceContours.
var labelPool = sync.Pool{
	New: func() interface{} { return new([]int32) },
}

// Eight-neighbourhood offsets as (row, col), counterclockwise from east.
var (
	dirRow = [8]int{0, -1, -1, -1, 0, 1, 1, 1}
	dirCol = [8]int{1, 1, 0, -1, -1, -1, 0, 1}
)

// border records the type and parent of a traced border, keyed by its
// sequential number.
type border struct {
	hole   bool
	parent int32
}

// traceContours follows every border of the non-zero pixels in edges using
// Suzuki and Abe's border following, producing outer and hole borders with
// their full nesting, then drops the interior points of straight runs.
//
// The returned contours are in discovery order (raster order of their first
// pixel). Parent indexes refer to this order.
func traceContours(edges *image.Gray) []Contour {
	b := edges.Bounds()
	w, h := b.Dx(), b.Dy()
	stride := w + 2

	buf := labelPool.Get().(*[]int32)
	defer labelPool.Put(buf)
	n := stride * (h + 2)
	if cap(*buf) < n {
		*buf = make([]int32, n)
	}
	grid := (*buf)[:n]
	clear(grid)

	for y := 0; y < h; y++ {
		row := edges.Pix[edges.PixOffset(b.Min.X, b.Min.Y+y):]
		for x := 0; x < w; x++ {
			if row[x] != 0 {
				grid[(y+1)*stride+x+1] = 1
			}
		}
	}

	at := func(r, c int) int32 { return grid[r*stride+c] }
	set := func(r, c int, v int32) { grid[r*stride+c] = v }
	dirTo := func(r, c, tr, tc int) int {
		for d := 0; d < 8; d++ {
			if r+dirRow[d] == tr && c+dirCol[d] == tc {
				return d
			}
		}
		return 0
	}

	// Border 1 is the image frame, treated as a hole.
	borders := []border{{}, {hole: true, parent: 0}}
	var contours []Contour
	nbd := int32(1)

	for r := 1; r <= h; r++ {
		lnbd := int32(1)
		for c := 1; c <= w; c++ {
			v := at(r, c)
			if v == 0 {
				continue
			}

			var fromR, fromC int
			var hole bool
			switch {
			case v == 1 && at(r, c-1) == 0:
				fromR, fromC = r, c-1
			case v >= 1 && at(r, c+1) == 0:
				fromR, fromC = r, c+1
				hole = true
				if v > 1 {
					lnbd = v
				}
			default:
				if v != 1 {
					lnbd = abs32(v)
				}
				continue
			}

			nbd++
			prev := borders[lnbd]
			parent := lnbd
			if hole == prev.hole {
				parent = prev.parent
			}
			borders = append(borders, border{hole: hole, parent: parent})

			pts := followBorder(r, c, fromR, fromC, nbd, at, set, dirTo)
			contours = append(contours, Contour{
				Points: approxSimple(pts),
				Hole:   hole,
				Parent: int(parent) - 2,
			})

			if at(r, c) != 1 {
				lnbd = abs32(at(r, c))
			}
		}
	}

	return contours
}

// followBorder traces one border starting at (r, c), entering from the zero
// pixel (fromR, fromC), and labels the pixels it passes with nbd. Returned
// points are in image coordinates.
func followBorder(r, c, fromR, fromC int, nbd int32,
	at func(int, int) int32, set func(int, int, int32), dirTo func(int, int, int, int) int) []r2.Point {

	start := dirTo(r, c, fromR, fromC)
	firstR, firstC, found := 0, 0, false
	for k := 0; k < 8; k++ {
		d := (start - k + 8) % 8
		nr, nc := r+dirRow[d], c+dirCol[d]
		if at(nr, nc) != 0 {
			firstR, firstC, found = nr, nc, true
			break
		}
	}
	if !found {
		set(r, c, -nbd)
		return []r2.Point{{X: float64(c - 1), Y: float64(r - 1)}}
	}

	var pts []r2.Point
	prevR, prevC := firstR, firstC
	curR, curC := r, c
	for {
		d0 := dirTo(curR, curC, prevR, prevC)
		eastZero := false
		var nextR, nextC int
		for k := 1; k <= 8; k++ {
			d := (d0 + k) % 8
			nr, nc := curR+dirRow[d], curC+dirCol[d]
			if at(nr, nc) != 0 {
				nextR, nextC = nr, nc
				break
			}
			if d == 0 {
				eastZero = true
			}
		}

		if eastZero {
			set(curR, curC, -nbd)
		} else if at(curR, curC) == 1 {
			set(curR, curC, nbd)
		}
		pts = append(pts, r2.Point{X: float64(curC - 1), Y: float64(curR - 1)})

		if nextR == r && nextC == c && curR == firstR && curC == firstC {
			return pts
		}
		prevR, prevC = curR, curC
		curR, curC = nextR, nextC
	}
}

// approxSimple removes points lying inside horizontal, vertical or diagonal
// runs of a closed chain, keeping only the points where the direction
// changes.
func approxSimple(pts []r2.Point) []r2.Point {
	n := len(pts)
	if n < 3 {
		return pts
	}
	out := make([]r2.Point, 0, n/4+4)
	for i := range pts {
		in := pts[i].Sub(pts[(i-1+n)%n])
		next := pts[(i+1)%n].Sub(pts[i])
		if in != next {
			out = append(out, pts[i])
		}
	}
	return out
}

func abs32(v int32) int32 {
	if v < 0 {
		return -v
	}
	return v
}
