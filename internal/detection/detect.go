package detection

import (
	"github.com/ironsheep/docscan-mcp/internal/geometry"
	"github.com/ironsheep/docscan-mcp/internal/imaging"
)

// Detection describes one run of the detector.
type Detection struct {
	// Corners are in the input frame's pixel grid. Nil when no document was
	// found.
	Corners *geometry.Corners `json:"corners,omitempty"`

	// Ratio is the factor applied to map working corners back to the frame.
	Ratio float64 `json:"ratio"`

	// WorkingSize is the grid detection ran on.
	WorkingSize geometry.Size `json:"working_size"`

	// Traced is the number of borders the tracer produced, Candidates the
	// number left after filtering and Examined how many were tried.
	Traced     int `json:"traced"`
	Candidates int `json:"candidates"`
	Examined   int `json:"examined"`
}

// Found reports whether the run produced corners.
func (d *Detection) Found() bool { return d != nil && d.Corners != nil }

// Detect finds the document quadrilateral in f.
//
// With atNativeScale false the pipeline runs on a copy resized to
// Params.ReferenceHeight and the corners are multiplied by the resize ratio.
// With atNativeScale true it runs on f directly and the ratio is 1. Either
// way the returned corners index into f and carry f's size as their
// reference.
//
// When no candidate is accepted Detect returns ErrNoDocumentFound together
// with a non-nil Detection, so callers can still report what was examined.
// Other errors come with a nil Detection.
func Detect(f *imaging.Frame, p Params, atNativeScale bool) (*Detection, error) {
	ext, err := ExtractContours(f, p, atNativeScale)
	if err != nil {
		return nil, err
	}

	det := &Detection{
		Ratio:       ext.Ratio,
		WorkingSize: ext.WorkingSize,
		Traced:      ext.Traced,
		Candidates:  len(ext.Contours),
	}

	sel, err := SelectCorners(ext.Contours, ext.WorkingSize, p)
	det.Examined = sel.Examined
	if err != nil {
		return det, err
	}

	frameSize := geometry.Size{Width: float64(f.Width()), Height: float64(f.Height())}
	corners := sel.Corners.Scale(ext.Ratio, frameSize)
	det.Corners = &corners
	return det, nil
}
