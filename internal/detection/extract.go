package detection

import (
	"fmt"
	"image"
	"sort"

	"github.com/samber/lo"

	"github.com/ironsheep/docscan-mcp/internal/geometry"
	"github.com/ironsheep/docscan-mcp/internal/imaging"
)

// Extraction is the ranked output of the contour extractor.
type Extraction struct {
	// Contours are sorted by descending area, in WorkingSize coordinates.
	Contours []Contour

	// WorkingSize is the size of the grid the contours were traced on.
	WorkingSize geometry.Size

	// Ratio maps working coordinates back to the input frame. It is 1 at
	// native scale.
	Ratio float64

	// Traced is the number of borders found before filtering.
	Traced int
}

// ExtractContours runs the edge pipeline on f and returns every traced
// border ranked largest first.
//
// # Pipeline
//
//  1. Resize to Params.ReferenceHeight, preserving aspect ratio, unless
//     atNativeScale is set
//  2. Grayscale (channel-order aware) and Gaussian blur
//  3. Morphological close, open, then one more dilation with a structuring
//     element of radius Params.MorphRadius
//  4. Canny edge map with Params.CannyLow and Params.CannyHigh
//  5. Border following with nesting and straight-run compression
//  6. Stable sort by descending area, then the optional MinContourArea and
//     MaxCandidates filters
func ExtractContours(f *imaging.Frame, p Params, atNativeScale bool) (*Extraction, error) {
	edges, ratio, err := edgePlane(f, p, atNativeScale)
	if err != nil {
		return nil, err
	}

	contours := traceContours(edges)
	traced := len(contours)

	type scored struct {
		contour Contour
		area    float64
	}
	items := lo.Map(contours, func(c Contour, _ int) scored {
		return scored{contour: c, area: c.Area()}
	})
	sort.SliceStable(items, func(i, j int) bool {
		return items[i].area > items[j].area
	})

	if p.MinContourArea > 0 {
		items = lo.Filter(items, func(s scored, _ int) bool {
			return s.area > p.MinContourArea
		})
	}
	if p.MaxCandidates > 0 && len(items) > p.MaxCandidates {
		items = items[:p.MaxCandidates]
	}
	ranked := lo.Map(items, func(s scored, _ int) Contour { return s.contour })

	b := edges.Bounds()
	return &Extraction{
		Contours:    ranked,
		WorkingSize: geometry.Size{Width: float64(b.Dx()), Height: float64(b.Dy())},
		Ratio:       ratio,
		Traced:      traced,
	}, nil
}

// EdgeMap runs the pipeline up to and including the Canny stage and returns
// the binary edge map as a gray frame, along with the scale ratio.
func EdgeMap(f *imaging.Frame, p Params, atNativeScale bool) (*imaging.Frame, float64, error) {
	edges, ratio, err := edgePlane(f, p, atNativeScale)
	if err != nil {
		return nil, 0, err
	}
	out, err := imaging.NewFrame(edges, imaging.OrderRGBA)
	if err != nil {
		return nil, 0, err
	}
	return out, ratio, nil
}

func edgePlane(f *imaging.Frame, p Params, atNativeScale bool) (*image.Gray, float64, error) {
	if f == nil {
		return nil, 0, fmt.Errorf("%w: nil frame", imaging.ErrUnsupportedInput)
	}
	if err := p.Validate(); err != nil {
		return nil, 0, fmt.Errorf("invalid detection params: %w", err)
	}

	work, ratio := f, 1.0
	if !atNativeScale {
		filter, err := imaging.ResampleFilter(p.ResampleFilter)
		if err != nil {
			return nil, 0, err
		}
		work, ratio = imaging.Downscale(f, p.ReferenceHeight, filter)
	}

	gray := imaging.GaussianBlur(imaging.Grayscale(work), p.BlurRadius)
	if p.MorphRadius > 0 {
		gray = imaging.Close(gray, p.MorphRadius)
		gray = imaging.Open(gray, p.MorphRadius)
		gray = imaging.Dilate(gray, p.MorphRadius)
	}

	return imaging.Canny(gray, p.CannyLow, p.CannyHigh), ratio, nil
}
