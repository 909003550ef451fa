package imaging

import (
	"image"
	"math"
	"sync"
)

// planePool recycles the float planes used by Canny. Planes are borrowed for
// the duration of one call and returned on every exit path.
var planePool = sync.Pool{
	New: func() interface{} { return new([]float64) },
}

func borrowPlane(n int) *[]float64 {
	p := planePool.Get().(*[]float64)
	if cap(*p) < n {
		*p = make([]float64, n)
	}
	*p = (*p)[:n]
	clear(*p)
	return p
}

func releasePlane(p *[]float64) {
	planePool.Put(p)
}

// Gradient direction sectors used by non-maximum suppression.
const (
	sectorHorizontal = iota // gradient along x: compare left/right
	sectorDiagonal          // gradient along (+x,+y): compare up-left/down-right
	sectorVertical          // gradient along y: compare up/down
	sectorAntiDiagonal      // gradient along (+x,-y): compare up-right/down-left
)

// Canny produces a binary edge map from a gray plane.
//
// The gray plane is expected to be smoothed already; Canny does not blur.
// Output pixels are 255 on edges and 0 elsewhere, with the same size as the
// input and origin (0, 0).
//
// # Algorithm
//
//  1. Gradient computation: 3x3 Sobel operators on raw 0-255 intensities,
//     L1 magnitude = |Gx| + |Gy|
//
//  2. Non-maximum suppression: a pixel survives only if its magnitude is a
//     local maximum along the quantised gradient direction. Ties are broken
//     towards the lower/left neighbour so plateaus stay one pixel wide.
//
//  3. Hysteresis: pixels above high are edges; pixels above low are edges
//     only when 8-connected to an edge through other pixels above low.
//
// Thresholds are on the Sobel scale, so a hard black/white step peaks near
// 1020 and a diagonal one near 1530. The document pipeline uses low=80,
// high=100.
func Canny(gray *image.Gray, low, high float64) *image.Gray {
	b := gray.Bounds()
	width, height := b.Dx(), b.Dy()
	n := width * height
	result := image.NewGray(image.Rect(0, 0, width, height))
	if width < 3 || height < 3 {
		return result
	}

	magBuf := borrowPlane(n)
	defer releasePlane(magBuf)
	nmsBuf := borrowPlane(n)
	defer releasePlane(nmsBuf)
	magnitude := *magBuf
	suppressed := *nmsBuf
	sector := make([]uint8, n)

	at := func(x, y int) float64 {
		x = clamp(x, 0, width-1)
		y = clamp(y, 0, height-1)
		return float64(gray.Pix[gray.PixOffset(b.Min.X+x, b.Min.Y+y)])
	}

	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			tl, tc, tr := at(x-1, y-1), at(x, y-1), at(x+1, y-1)
			ml, mr := at(x-1, y), at(x+1, y)
			bl, bc, br := at(x-1, y+1), at(x, y+1), at(x+1, y+1)

			gx := (tr + 2*mr + br) - (tl + 2*ml + bl)
			gy := (bl + 2*bc + br) - (tl + 2*tc + tr)

			i := y*width + x
			magnitude[i] = math.Abs(gx) + math.Abs(gy)
			sector[i] = directionSector(gx, gy)
		}
	}

	for y := 1; y < height-1; y++ {
		for x := 1; x < width-1; x++ {
			i := y*width + x
			mag := magnitude[i]
			if mag <= low {
				continue
			}

			var before, after float64
			switch sector[i] {
			case sectorHorizontal:
				before, after = magnitude[i-1], magnitude[i+1]
			case sectorDiagonal:
				before, after = magnitude[i-width-1], magnitude[i+width+1]
			case sectorVertical:
				before, after = magnitude[i-width], magnitude[i+width]
			default:
				before, after = magnitude[i+width-1], magnitude[i-width+1]
			}

			if mag > before && mag >= after {
				suppressed[i] = mag
			}
		}
	}

	// Hysteresis: flood from strong pixels through weak ones.
	stack := make([]int, 0, 1024)
	for i, v := range suppressed {
		if v > high && result.Pix[i] == 0 {
			result.Pix[i] = 255
			stack = append(stack, i)
		}
		for len(stack) > 0 {
			p := stack[len(stack)-1]
			stack = stack[:len(stack)-1]
			px, py := p%width, p/width
			for dy := -1; dy <= 1; dy++ {
				for dx := -1; dx <= 1; dx++ {
					nx, ny := px+dx, py+dy
					if nx < 0 || nx >= width || ny < 0 || ny >= height {
						continue
					}
					j := ny*width + nx
					if result.Pix[j] == 0 && suppressed[j] > low {
						result.Pix[j] = 255
						stack = append(stack, j)
					}
				}
			}
		}
	}

	return result
}

// directionSector quantises a gradient vector into one of four sectors.
// Image y grows downward, so a positive gx and gy point down-right.
func directionSector(gx, gy float64) uint8 {
	angle := math.Atan2(gy, gx)
	if angle < 0 {
		angle += math.Pi
	}
	switch {
	case angle < math.Pi/8 || angle >= 7*math.Pi/8:
		return sectorHorizontal
	case angle < 3*math.Pi/8:
		return sectorDiagonal
	case angle < 5*math.Pi/8:
		return sectorVertical
	default:
		return sectorAntiDiagonal
	}
}

// clamp constrains an integer value to the range [min, max].
// Used for boundary handling in convolution operations.
func clamp(val, min, max int) int {
	if val < min {
		return min
	}
	if val > max {
		return max
	}
	return val
}
