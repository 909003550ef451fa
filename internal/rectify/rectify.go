package rectify

import (
	"fmt"
	"image"
	"math"

	"github.com/golang/geo/r2"

	"github.com/ironsheep/docscan-mcp/internal/geometry"
	"github.com/ironsheep/docscan-mcp/internal/imaging"
)

// MaxOutputScale bounds each output side to this multiple of the frame
// diagonal. Corners dragged far outside the photo would otherwise ask for an
// arbitrarily large raster.
const MaxOutputScale = 2.0

// Rectify warps the quadrilateral described by corners into a new upright
// frame.
//
// The output is round(max(top, bottom)) pixels wide and
// round(max(left, right)) pixels tall, with the corners landing on
// (0,0), (w,0), (w,h) and (0,h). When corners.ReferenceSize is set and
// differs from the frame, the corners are rescaled to the frame first, so
// corners adjusted on a preview can be applied to the full photo.
//
// The input frame is never modified. The output keeps its channel order.
//
// # Errors
//
//   - ErrUnsupportedInput (package imaging) for a nil frame
//   - ErrDegenerateGeometry (package geometry) for repeated, collinear or
//     self-intersecting corners, an output smaller than one pixel or larger
//     than MaxOutputScale frame diagonals per side, or a transform that
//     cannot be solved
func Rectify(f *imaging.Frame, corners geometry.Corners) (*imaging.Frame, error) {
	if f == nil {
		return nil, fmt.Errorf("%w: nil frame", imaging.ErrUnsupportedInput)
	}

	frameSize := geometry.Size{Width: float64(f.Width()), Height: float64(f.Height())}
	corners = corners.ScaleTo(frameSize)
	if err := corners.Validate(); err != nil {
		return nil, err
	}

	size := corners.OutputSize()
	limit := MaxOutputScale * math.Hypot(frameSize.Width, frameSize.Height)
	if !(size.Width <= limit && size.Height <= limit) {
		return nil, fmt.Errorf("%w: output %.0fx%.0f exceeds %.0f pixels per side",
			geometry.ErrDegenerateGeometry, size.Width, size.Height, limit)
	}
	outW, outH := int(math.Round(size.Width)), int(math.Round(size.Height))
	if outW < 1 || outH < 1 {
		return nil, fmt.Errorf("%w: output would be %dx%d", geometry.ErrDegenerateGeometry, outW, outH)
	}

	dst := [4]r2.Point{
		{X: 0, Y: 0},
		{X: size.Width, Y: 0},
		{X: size.Width, Y: size.Height},
		{X: 0, Y: size.Height},
	}
	h, err := SolveHomography(corners.Points, dst)
	if err != nil {
		return nil, err
	}
	inv, err := h.Inverse()
	if err != nil {
		return nil, err
	}

	out := warp(f.NRGBA(), inv, outW, outH)
	return imaging.NewFrame(out, f.Order())
}

// warp fills a w x h image by sampling src at inv(x, y) for every output
// pixel. Pixel centres sit on integer coordinates on both sides.
func warp(src *image.NRGBA, inv *Homography, w, h int) *image.NRGBA {
	out := image.NewNRGBA(image.Rect(0, 0, w, h))
	m := inv.Matrix()
	for y := 0; y < h; y++ {
		fy := float64(y)
		row := out.Pix[y*out.Stride : y*out.Stride+w*4]
		for x := 0; x < w; x++ {
			fx := float64(x)
			d := m[6]*fx + m[7]*fy + m[8]
			if d == 0 {
				continue
			}
			sx := (m[0]*fx + m[1]*fy + m[2]) / d
			sy := (m[3]*fx + m[4]*fy + m[5]) / d
			sampleBilinear(src, sx, sy, row[x*4:x*4+4])
		}
	}
	return out
}

// sampleBilinear writes the interpolated colour at (sx, sy) into dst.
// Positions more than half a pixel outside src leave dst transparent.
func sampleBilinear(src *image.NRGBA, sx, sy float64, dst []uint8) {
	w, h := src.Rect.Dx(), src.Rect.Dy()
	if sx < -0.5 || sy < -0.5 || sx > float64(w)-0.5 || sy > float64(h)-0.5 {
		return
	}
	sx = math.Min(math.Max(sx, 0), float64(w-1))
	sy = math.Min(math.Max(sy, 0), float64(h-1))

	x0, y0 := int(sx), int(sy)
	x1, y1 := min(x0+1, w-1), min(y0+1, h-1)
	fx, fy := sx-float64(x0), sy-float64(y0)

	p00 := src.Pix[y0*src.Stride+x0*4:]
	p10 := src.Pix[y0*src.Stride+x1*4:]
	p01 := src.Pix[y1*src.Stride+x0*4:]
	p11 := src.Pix[y1*src.Stride+x1*4:]
	for c := 0; c < 4; c++ {
		top := float64(p00[c])*(1-fx) + float64(p10[c])*fx
		bottom := float64(p01[c])*(1-fx) + float64(p11[c])*fx
		dst[c] = uint8(math.Round(top*(1-fy) + bottom*fy))
	}
}
