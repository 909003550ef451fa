package detection

import (
	"fmt"

	"github.com/ironsheep/docscan-mcp/internal/imaging"
)

// Params holds the tunable constants of the detection pipeline.
//
// The zero value is not usable; start from DefaultParams and override
// individual fields. Field tags allow per-call overrides to be decoded from
// loosely typed maps (see package config).
type Params struct {
	// ReferenceHeight is the height frames are resized to before contour
	// extraction when detection does not run at native scale. Frames much
	// shorter than this are upscaled; below roughly 200 pixels the
	// interpolated edges blur enough that page outlines may not close.
	ReferenceHeight int `mapstructure:"reference_height" json:"reference_height"`

	// ResampleFilter names the filter used for the downscale: "linear",
	// "nearest", "box" or "lanczos".
	ResampleFilter string `mapstructure:"resample_filter" json:"resample_filter"`

	// BlurRadius is the Gaussian radius applied to the gray plane. 2 gives a
	// 5-tap kernel.
	BlurRadius float64 `mapstructure:"blur_radius" json:"blur_radius"`

	// MorphRadius is the radius of the square structuring element used for
	// closing, opening and the final dilation. 2 spans 5x5 pixels.
	MorphRadius float64 `mapstructure:"morph_radius" json:"morph_radius"`

	// CannyLow and CannyHigh are the hysteresis thresholds of the edge map,
	// on the Sobel magnitude scale.
	CannyLow  float64 `mapstructure:"canny_low" json:"canny_low"`
	CannyHigh float64 `mapstructure:"canny_high" json:"canny_high"`

	// EpsilonFactor scales the contour perimeter into the Douglas-Peucker
	// tolerance.
	EpsilonFactor float64 `mapstructure:"epsilon_factor" json:"epsilon_factor"`

	// MinSizeDivisor sets the plausibility threshold: minimumSize equals the
	// working width divided by this value.
	MinSizeDivisor float64 `mapstructure:"min_size_divisor" json:"min_size_divisor"`

	// MinContourArea drops contours whose area is not above it. 0 disables.
	MinContourArea float64 `mapstructure:"min_contour_area" json:"min_contour_area"`

	// MaxCandidates keeps only the largest N contours. 0 keeps all.
	MaxCandidates int `mapstructure:"max_candidates" json:"max_candidates"`
}

// DefaultParams returns the standard document detection settings.
func DefaultParams() Params {
	return Params{
		ReferenceHeight: 500,
		ResampleFilter:  "linear",
		BlurRadius:      2,
		MorphRadius:     2,
		CannyLow:        80,
		CannyHigh:       100,
		EpsilonFactor:   0.02,
		MinSizeDivisor:  10,
	}
}

// Validate reports the first out-of-range field.
func (p Params) Validate() error {
	switch {
	case p.ReferenceHeight < 1:
		return fmt.Errorf("reference_height must be positive, got %d", p.ReferenceHeight)
	case p.BlurRadius < 0:
		return fmt.Errorf("blur_radius must not be negative, got %v", p.BlurRadius)
	case p.MorphRadius < 0:
		return fmt.Errorf("morph_radius must not be negative, got %v", p.MorphRadius)
	case p.CannyLow < 0 || p.CannyHigh < p.CannyLow:
		return fmt.Errorf("canny thresholds must satisfy 0 <= low <= high, got %v/%v", p.CannyLow, p.CannyHigh)
	case p.EpsilonFactor <= 0:
		return fmt.Errorf("epsilon_factor must be positive, got %v", p.EpsilonFactor)
	case p.MinSizeDivisor <= 0:
		return fmt.Errorf("min_size_divisor must be positive, got %v", p.MinSizeDivisor)
	case p.MinContourArea < 0:
		return fmt.Errorf("min_contour_area must not be negative, got %v", p.MinContourArea)
	case p.MaxCandidates < 0:
		return fmt.Errorf("max_candidates must not be negative, got %d", p.MaxCandidates)
	}
	if _, err := imaging.ResampleFilter(p.ResampleFilter); err != nil {
		return err
	}
	return nil
}
