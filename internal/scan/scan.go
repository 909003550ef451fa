// Package scan is the entry point of the document scanner.
//
// A Scanner bundles the detection and enhancement settings with a logger and
// exposes the four operations callers need: find the page, flatten it,
// clean it up, or all of it in one go.
//
//	s, err := scan.New(log, detection.DefaultParams(), imaging.DefaultEnhanceParams())
//	corners, err := s.Detect(frame, false)
//	if errors.Is(err, scan.ErrNoDocumentFound) {
//	    // try the next frame
//	}
//	page, err := s.Rectify(frame, *corners)
//
// Scanner holds no mutable state and is safe for concurrent use.
package scan

import (
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/ironsheep/docscan-mcp/internal/detection"
	"github.com/ironsheep/docscan-mcp/internal/geometry"
	"github.com/ironsheep/docscan-mcp/internal/imaging"
	"github.com/ironsheep/docscan-mcp/internal/rectify"
)

// Errors returned by Scanner methods. Match them with errors.Is.
var (
	// ErrNoDocumentFound reports that no contour passed selection. It is a
	// normal outcome, not a failure.
	ErrNoDocumentFound = detection.ErrNoDocumentFound

	// ErrDegenerateGeometry reports corners that cannot be rectified.
	ErrDegenerateGeometry = geometry.ErrDegenerateGeometry

	// ErrUnsupportedInput reports a frame rejected before processing.
	ErrUnsupportedInput = imaging.ErrUnsupportedInput
)

// Scanner runs the document pipeline with fixed settings.
type Scanner struct {
	log     *zap.SugaredLogger
	params  detection.Params
	enhance imaging.EnhanceParams
}

// New validates the settings and returns a Scanner. A nil logger discards
// all output.
func New(log *zap.SugaredLogger, params detection.Params, enhance imaging.EnhanceParams) (*Scanner, error) {
	if err := params.Validate(); err != nil {
		return nil, fmt.Errorf("invalid detection params: %w", err)
	}
	if err := enhance.Validate(); err != nil {
		return nil, fmt.Errorf("invalid enhance params: %w", err)
	}
	if log == nil {
		log = zap.NewNop().Sugar()
	}
	return &Scanner{log: log, params: params, enhance: enhance}, nil
}

// With returns a Scanner sharing s's logger but using other settings.
func (s *Scanner) With(params detection.Params, enhance imaging.EnhanceParams) (*Scanner, error) {
	return New(s.log, params, enhance)
}

// Params returns the detection settings.
func (s *Scanner) Params() detection.Params { return s.params }

// EnhanceParams returns the contrast enhancement settings.
func (s *Scanner) EnhanceParams() imaging.EnhanceParams { return s.enhance }

// Detect returns the corners of the document in f, in f's pixel grid.
//
// atNativeScale selects between running on f directly and running on a copy
// resized to Params().ReferenceHeight; the latter is much faster on camera
// frames and the corners are mapped back either way.
func (s *Scanner) Detect(f *imaging.Frame, atNativeScale bool) (*geometry.Corners, error) {
	det, err := s.DetectDetail(f, atNativeScale)
	if err != nil {
		return nil, err
	}
	return det.Corners, nil
}

// DetectDetail is Detect returning the full run statistics. Like
// detection.Detect it returns a non-nil Detection with ErrNoDocumentFound.
func (s *Scanner) DetectDetail(f *imaging.Frame, atNativeScale bool) (*detection.Detection, error) {
	start := time.Now()
	det, err := detection.Detect(f, s.params, atNativeScale)
	if det != nil {
		s.log.Debugw("contours ranked",
			"traced", det.Traced,
			"candidates", det.Candidates,
			"examined", det.Examined,
			"ratio", det.Ratio,
			"native", atNativeScale,
			"elapsed", time.Since(start),
		)
	}
	switch {
	case errors.Is(err, ErrNoDocumentFound):
		s.log.Debugw("no document found", "examined", det.Examined)
		return det, err
	case err != nil:
		return nil, err
	}
	return det, nil
}

// Rectify warps the region inside corners to an upright image. Corners whose
// ReferenceSize differs from f are rescaled first, so corners adjusted on a
// preview can be applied to the full frame.
func (s *Scanner) Rectify(f *imaging.Frame, corners geometry.Corners) (*imaging.Frame, error) {
	for i, p := range corners.Points {
		s.log.Debugw("crop corner", "slot", imaging.CornerLabels[i], "x", p.X, "y", p.Y)
	}

	start := time.Now()
	out, err := rectify.Rectify(f, corners)
	if err != nil {
		return nil, err
	}
	s.log.Debugw("rectified", "width", out.Width(), "height", out.Height(), "elapsed", time.Since(start))
	return out, nil
}

// EnhanceContrast binarises f with an adaptive mean threshold.
func (s *Scanner) EnhanceContrast(f *imaging.Frame) (*imaging.Frame, error) {
	return imaging.Enhance(f, s.enhance)
}

// Result is the outcome of Scan.
type Result struct {
	// Detection holds the run statistics and, on success, the corners.
	Detection *detection.Detection

	// Document is the rectified page, enhanced when requested. Nil when no
	// document was found.
	Document *imaging.Frame

	// Enhanced reports whether Document went through EnhanceContrast.
	Enhanced bool
}

// Corners returns the detected corners, or nil.
func (r *Result) Corners() *geometry.Corners {
	if r == nil || r.Detection == nil {
		return nil
	}
	return r.Detection.Corners
}

// Scan detects, rectifies and optionally enhances the document in f.
//
// On ErrNoDocumentFound the returned Result carries the detection statistics
// and a nil Document.
func (s *Scanner) Scan(f *imaging.Frame, atNativeScale, enhance bool) (*Result, error) {
	det, err := s.DetectDetail(f, atNativeScale)
	if err != nil {
		if det != nil {
			return &Result{Detection: det}, err
		}
		return nil, err
	}

	doc, err := s.Rectify(f, *det.Corners)
	if err != nil {
		return nil, err
	}

	res := &Result{Detection: det, Document: doc}
	if enhance {
		if res.Document, err = s.EnhanceContrast(doc); err != nil {
			return nil, err
		}
		res.Enhanced = true
	}
	return res, nil
}
