package imaging

import (
	"fmt"
	"image"
	"image/color"
	"image/draw"
	"math"

	"github.com/golang/geo/r2"
	"github.com/lucasb-eyer/go-colorful"
	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"
)

// DefaultOverlayColor is the outline colour used when none is configured.
const DefaultOverlayColor = "#00FF00"

// CornerLabels names the canonical corner slots in drawing order.
var CornerLabels = []string{"TL", "TR", "BR", "BL"}

// DrawQuad renders a closed polygon and its vertex labels onto a copy of img.
//
// Parameters:
//   - img: Source image. It is not modified.
//   - points: Polygon vertices in img's pixel grid, in drawing order.
//   - labels: Optional text drawn next to each vertex. Missing entries are
//     skipped.
//   - hexColor: Outline colour as "#RRGGBB". Empty selects DefaultOverlayColor.
//   - thickness: Line thickness in pixels, clamped to [1, shorter image side].
//
// Returns an error if hexColor cannot be parsed or fewer than two points are
// given.
func DrawQuad(img image.Image, points []r2.Point, labels []string, hexColor string, thickness int) (*image.RGBA, error) {
	if len(points) < 2 {
		return nil, fmt.Errorf("need at least 2 points to draw, got %d", len(points))
	}
	if hexColor == "" {
		hexColor = DefaultOverlayColor
	}
	parsed, err := colorful.Hex(hexColor)
	if err != nil {
		return nil, fmt.Errorf("invalid overlay color %q: %w", hexColor, err)
	}
	r, g, b := parsed.RGB255()
	lineColor := color.RGBA{R: r, G: g, B: b, A: 255}
	bounds := img.Bounds()
	thickness = max(1, min(thickness, bounds.Dx(), bounds.Dy()))

	result := image.NewRGBA(bounds)
	draw.Draw(result, bounds, img, bounds.Min, draw.Src)

	for i := range points {
		p0 := points[i]
		p1 := points[(i+1)%len(points)]
		drawLine(result, p0, p1, thickness, lineColor)
	}

	for i, p := range points {
		if i >= len(labels) || labels[i] == "" {
			continue
		}
		drawLabel(result, int(math.Round(p.X))+thickness+2, int(math.Round(p.Y))-thickness-2, labels[i], lineColor)
	}

	return result, nil
}

// drawLine draws a segment with a square brush by stepping one pixel at a
// time along the longer axis.
func drawLine(img *image.RGBA, p0, p1 r2.Point, thickness int, c color.RGBA) {
	d := p1.Sub(p0)
	steps := int(math.Ceil(math.Max(math.Abs(d.X), math.Abs(d.Y))))
	if steps == 0 {
		steps = 1
	}
	half := thickness / 2
	bounds := img.Bounds()
	for s := 0; s <= steps; s++ {
		p := p0.Add(d.Mul(float64(s) / float64(steps)))
		cx, cy := int(math.Round(p.X)), int(math.Round(p.Y))
		for dy := -half; dy < thickness-half; dy++ {
			for dx := -half; dx < thickness-half; dx++ {
				pt := image.Pt(cx+dx, cy+dy)
				if pt.In(bounds) {
					img.SetRGBA(pt.X, pt.Y, c)
				}
			}
		}
	}
}

// drawLabel writes text with its baseline at (x, y) on a dark backing box so
// it stays legible on bright pages.
func drawLabel(img *image.RGBA, x, y int, text string, fg color.RGBA) {
	face := basicfont.Face7x13
	width := font.MeasureString(face, text).Ceil()
	box := image.Rect(x-1, y-face.Ascent-1, x+width+1, y+face.Descent+1).Intersect(img.Bounds())
	draw.Draw(img, box, image.NewUniform(color.RGBA{0, 0, 0, 180}), image.Point{}, draw.Over)

	d := &font.Drawer{
		Dst:  img,
		Src:  image.NewUniform(fg),
		Face: face,
		Dot:  fixed.Point26_6{X: fixed.I(x), Y: fixed.I(y)},
	}
	d.DrawString(text)
}

// DrawCorners outlines a detected document quadrilateral and labels its
// corners TL, TR, BR and BL. Points must be in canonical order.
func DrawCorners(img image.Image, points [4]r2.Point, hexColor string, thickness int) (*image.RGBA, error) {
	return DrawQuad(img, points[:], CornerLabels, hexColor, thickness)
}
