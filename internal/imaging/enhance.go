package imaging

import (
	"fmt"
	"image"
)

// EnhanceParams controls the adaptive threshold used by Enhance.
type EnhanceParams struct {
	// BlockSize is the side of the square window the local mean is computed
	// over. Must be odd and at least 3.
	BlockSize int `mapstructure:"block_size" json:"block_size"`

	// Offset is subtracted from the local mean before comparison. Larger
	// values keep more of the page white.
	Offset float64 `mapstructure:"offset" json:"offset"`
}

// DefaultEnhanceParams returns a 15x15 window with an offset of 15.
func DefaultEnhanceParams() EnhanceParams {
	return EnhanceParams{BlockSize: 15, Offset: 15}
}

// Validate reports whether the window can be centred on a pixel.
func (p EnhanceParams) Validate() error {
	if p.BlockSize < 3 || p.BlockSize%2 == 0 {
		return fmt.Errorf("%w: block size must be odd and >= 3, got %d", ErrUnsupportedInput, p.BlockSize)
	}
	return nil
}

// Enhance binarises a frame for a "scanned document" look.
//
// The frame is converted to gray, then every pixel is compared with the mean
// of its BlockSize x BlockSize neighbourhood: pixels brighter than
// mean - Offset become white (255), everything else black (0). The input is
// not modified; a new single-channel frame is returned.
//
// Returns an error wrapping ErrUnsupportedInput if BlockSize is even or
// smaller than 3.
func Enhance(f *Frame, p EnhanceParams) (*Frame, error) {
	if f == nil {
		return nil, fmt.Errorf("%w: nil frame", ErrUnsupportedInput)
	}
	if err := p.Validate(); err != nil {
		return nil, err
	}

	gray := Grayscale(f)
	mean := BoxMean(gray, p.BlockSize/2)

	out := image.NewGray(gray.Bounds())
	for i, v := range gray.Pix {
		if float64(v) > float64(mean.Pix[i])-p.Offset {
			out.Pix[i] = 255
		}
	}

	return &Frame{img: out, order: OrderRGBA}, nil
}
