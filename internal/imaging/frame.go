package imaging

import (
	"errors"
	"fmt"
	"image"

	"github.com/disintegration/imaging"
)

// ErrUnsupportedInput is returned for frames that cannot enter the pipeline:
// nil images, zero dimensions, or an unknown channel order.
var ErrUnsupportedInput = errors.New("unsupported input")

// ChannelOrder records how the colour channels of a frame are laid out.
//
// Go's image types are nominally RGBA, but capture sources (camera buffers,
// OpenCV-style decoders) frequently deliver BGR data in the same containers.
// Colour-space conversions are order sensitive, so the order travels with
// the pixels instead of being assumed.
type ChannelOrder int

const (
	// OrderRGBA means the R slot of each pixel holds red.
	OrderRGBA ChannelOrder = iota

	// OrderBGRA means the R slot of each pixel holds blue and the B slot red.
	OrderBGRA
)

// String returns the lowercase name of the order.
func (o ChannelOrder) String() string {
	switch o {
	case OrderRGBA:
		return "rgba"
	case OrderBGRA:
		return "bgra"
	default:
		return fmt.Sprintf("ChannelOrder(%d)", int(o))
	}
}

// ParseChannelOrder converts "rgba"/"rgb" or "bgra"/"bgr" into a ChannelOrder.
// The empty string means OrderRGBA.
func ParseChannelOrder(s string) (ChannelOrder, error) {
	switch s {
	case "", "rgba", "rgb":
		return OrderRGBA, nil
	case "bgra", "bgr":
		return OrderBGRA, nil
	default:
		return 0, fmt.Errorf("%w: unknown channel order %q", ErrUnsupportedInput, s)
	}
}

// Frame is an immutable raster handed to the scanning pipeline.
//
// A Frame never mutates its image. Every pipeline stage that needs a modified
// raster allocates a new one, so a Frame can be shared between goroutines as
// long as the caller does not write to the underlying image.
type Frame struct {
	img   image.Image
	order ChannelOrder
}

// NewFrame wraps img with its channel order after validating it.
//
// Returns an error wrapping ErrUnsupportedInput when img is nil, has zero
// width or height, or order is not a known ChannelOrder.
func NewFrame(img image.Image, order ChannelOrder) (*Frame, error) {
	if img == nil {
		return nil, fmt.Errorf("%w: nil image", ErrUnsupportedInput)
	}
	b := img.Bounds()
	if b.Dx() <= 0 || b.Dy() <= 0 {
		return nil, fmt.Errorf("%w: image has zero dimensions (%dx%d)", ErrUnsupportedInput, b.Dx(), b.Dy())
	}
	if order != OrderRGBA && order != OrderBGRA {
		return nil, fmt.Errorf("%w: unknown channel order %d", ErrUnsupportedInput, int(order))
	}
	return &Frame{img: img, order: order}, nil
}

// Image returns the wrapped image. Callers must treat it as read-only.
func (f *Frame) Image() image.Image { return f.img }

// Order returns the channel order of the frame.
func (f *Frame) Order() ChannelOrder { return f.order }

// Bounds returns the bounds of the wrapped image.
func (f *Frame) Bounds() image.Rectangle { return f.img.Bounds() }

// Width returns the frame width in pixels.
func (f *Frame) Width() int { return f.img.Bounds().Dx() }

// Height returns the frame height in pixels.
func (f *Frame) Height() int { return f.img.Bounds().Dy() }

// NRGBA returns a copy of the pixels as *image.NRGBA anchored at (0,0).
// Channel order is carried over unchanged.
func (f *Frame) NRGBA() *image.NRGBA {
	return imaging.Clone(f.img)
}

// lumaWeights returns the BT.601 luminance weights to apply to the R, G and
// B slots of the frame's pixels.
func (f *Frame) lumaWeights() (r, g, b float64) {
	if f.order == OrderBGRA {
		return 0.114, 0.587, 0.299
	}
	return 0.299, 0.587, 0.114
}
