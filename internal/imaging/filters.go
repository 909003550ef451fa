package imaging

import (
	"fmt"
	"image"
	"image/color"
	"strings"

	"github.com/anthonynsimon/bild/blur"
	"github.com/anthonynsimon/bild/effect"
	"github.com/disintegration/imaging"
)

// ResampleFilter looks up a resampling filter by name.
//
// Supported names are "nearest", "box", "linear" and "lanczos". The empty
// string selects "linear".
func ResampleFilter(name string) (imaging.ResampleFilter, error) {
	switch strings.ToLower(name) {
	case "", "linear":
		return imaging.Linear, nil
	case "nearest":
		return imaging.NearestNeighbor, nil
	case "box":
		return imaging.Box, nil
	case "lanczos":
		return imaging.Lanczos, nil
	default:
		return imaging.ResampleFilter{}, fmt.Errorf("unknown resample filter %q", name)
	}
}

// Downscale resizes the frame so its height equals height, preserving the
// aspect ratio, and returns the resized frame with the scale factor
// ratio = originalHeight / height.
//
// The working width is the original width divided by ratio, truncated, and
// never less than one pixel. The returned frame keeps the channel order of f.
func Downscale(f *Frame, height int, filter imaging.ResampleFilter) (*Frame, float64) {
	ratio := float64(f.Height()) / float64(height)
	width := int(float64(f.Width()) / ratio)
	if width < 1 {
		width = 1
	}
	resized := imaging.Resize(f.img, width, height, filter)
	return &Frame{img: resized, order: f.order}, ratio
}

// Grayscale converts the frame to a single channel using BT.601 luminance
// weights, honouring the frame's channel order.
//
// The result always has its origin at (0, 0).
func Grayscale(f *Frame) *image.Gray {
	r, g, b := f.lumaWeights()
	return toGray(effect.GrayscaleWithWeights(f.img, r, g, b))
}

// GaussianBlur smooths a gray plane with a Gaussian kernel of the given
// radius. A radius of 2 gives a 5-tap kernel.
func GaussianBlur(gray *image.Gray, radius float64) *image.Gray {
	if radius <= 0 {
		return toGray(gray)
	}
	return toGray(blur.Gaussian(gray, radius))
}

// BoxMean returns the local mean of every pixel over a square window of
// 2*radius+1 pixels per side. Borders replicate the edge pixels.
func BoxMean(gray *image.Gray, radius int) *image.Gray {
	if radius <= 0 {
		return toGray(gray)
	}
	return toGray(blur.Box(gray, float64(radius)))
}

// Dilate replaces every pixel with the maximum of a square
// (2*radius+1)x(2*radius+1) neighbourhood. A radius of 2 spans 5x5 pixels,
// corners included.
func Dilate(gray *image.Gray, radius float64) *image.Gray {
	return toGray(effect.Dilate(gray, radius))
}

// Erode replaces every pixel with the minimum of the same square
// neighbourhood Dilate uses.
func Erode(gray *image.Gray, radius float64) *image.Gray {
	return toGray(effect.Erode(gray, radius))
}

// Close performs a morphological closing (dilate, then erode). It fills
// holes and gaps narrower than the structuring element.
func Close(gray *image.Gray, radius float64) *image.Gray {
	return Erode(Dilate(gray, radius), radius)
}

// Open performs a morphological opening (erode, then dilate). It removes
// specks smaller than the structuring element.
func Open(gray *image.Gray, radius float64) *image.Gray {
	return Dilate(Erode(gray, radius), radius)
}

// toGray copies any image into an *image.Gray whose bounds start at (0, 0).
//
// bild returns RGBA planes even for gray input; since all channels carry the
// same value the red channel is taken directly on the fast path.
func toGray(img image.Image) *image.Gray {
	b := img.Bounds()
	w, h := b.Dx(), b.Dy()
	out := image.NewGray(image.Rect(0, 0, w, h))

	switch src := img.(type) {
	case *image.RGBA:
		for y := 0; y < h; y++ {
			row := src.Pix[src.PixOffset(b.Min.X, b.Min.Y+y):]
			dst := out.Pix[y*out.Stride : y*out.Stride+w]
			for x := range dst {
				dst[x] = row[x*4]
			}
		}
	case *image.Gray:
		for y := 0; y < h; y++ {
			off := src.PixOffset(b.Min.X, b.Min.Y+y)
			copy(out.Pix[y*out.Stride:y*out.Stride+w], src.Pix[off:off+w])
		}
	default:
		for y := 0; y < h; y++ {
			for x := 0; x < w; x++ {
				out.SetGray(x, y, color.GrayModel.Convert(img.At(b.Min.X+x, b.Min.Y+y)).(color.Gray))
			}
		}
	}
	return out
}
