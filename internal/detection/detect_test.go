package detection

import (
	"errors"
	"image"
	"image/color"
	"math"
	"testing"

	"github.com/golang/geo/r2"

	"github.com/ironsheep/docscan-mcp/internal/geometry"
	"github.com/ironsheep/docscan-mcp/internal/imaging"
)

// createDocumentImage paints a convex quadrilateral (clockwise on screen,
// starting top-left) in fg over a bg background.
func createDocumentImage(width, height int, quad [4]r2.Point, fg, bg color.RGBA) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, width, height))
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			p := r2.Point{X: float64(x) + 0.5, Y: float64(y) + 0.5}
			inside := true
			for i := 0; i < 4; i++ {
				a, b := quad[i], quad[(i+1)%4]
				if b.Sub(a).Cross(p.Sub(a)) < 0 {
					inside = false
					break
				}
			}
			if inside {
				img.SetRGBA(x, y, fg)
			} else {
				img.SetRGBA(x, y, bg)
			}
		}
	}
	return img
}

var (
	white = color.RGBA{255, 255, 255, 255}
	black = color.RGBA{0, 0, 0, 255}
)

func mustFrame(t *testing.T, img image.Image, order imaging.ChannelOrder) *imaging.Frame {
	t.Helper()
	f, err := imaging.NewFrame(img, order)
	if err != nil {
		t.Fatalf("NewFrame failed: %v", err)
	}
	return f
}

func assertCornersNear(t *testing.T, got geometry.Corners, want [4]r2.Point, tol float64) {
	t.Helper()
	names := []string{"TL", "TR", "BR", "BL"}
	for i := range want {
		dx := math.Abs(got.Points[i].X - want[i].X)
		dy := math.Abs(got.Points[i].Y - want[i].Y)
		if dx > tol || dy > tol {
			t.Errorf("%s: got %v, want %v within %vpx", names[i], got.Points[i], want[i], tol)
		}
	}
}

func assertCanonical(t *testing.T, c geometry.Corners) {
	t.Helper()
	if err := c.Validate(); err != nil {
		t.Errorf("corners fail validation: %v", err)
	}
	if !c.IsConvex() {
		t.Errorf("corners are not convex: %v", c.Points)
	}
	tl, tr, br, bl := c.TopLeft(), c.TopRight(), c.BottomRight(), c.BottomLeft()
	if !(tl.X < tr.X && bl.X < br.X && tl.Y < bl.Y && tr.Y < br.Y) {
		t.Errorf("corners are not in canonical order: %v", c.Points)
	}
}

func TestDetect_SyntheticDocuments(t *testing.T) {
	upright := [4]r2.Point{{X: 60, Y: 80}, {X: 240, Y: 80}, {X: 240, Y: 320}, {X: 60, Y: 320}}
	skewed := [4]r2.Point{{X: 70, Y: 60}, {X: 250, Y: 85}, {X: 235, Y: 330}, {X: 50, Y: 305}}

	tests := []struct {
		name  string
		quad  [4]r2.Point
		fg    color.RGBA
		bg    color.RGBA
		order imaging.ChannelOrder
		tol   float64
	}{
		{"white page on black", upright, white, black, imaging.OrderRGBA, 5},
		{"dark page on light desk", upright, color.RGBA{30, 30, 30, 255}, color.RGBA{230, 220, 210, 255}, imaging.OrderRGBA, 5},
		{"perspective page", skewed, white, black, imaging.OrderRGBA, 6},
		{"bgr frame", upright, color.RGBA{240, 200, 180, 255}, color.RGBA{20, 10, 0, 255}, imaging.OrderBGRA, 5},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			img := createDocumentImage(300, 400, tt.quad, tt.fg, tt.bg)
			det, err := Detect(mustFrame(t, img, tt.order), DefaultParams(), true)
			if err != nil {
				t.Fatalf("Detect failed: %v", err)
			}
			if !det.Found() {
				t.Fatal("Found() should be true")
			}
			if det.Ratio != 1 {
				t.Errorf("Ratio: got %v, want 1 at native scale", det.Ratio)
			}
			if det.Corners.ReferenceSize != (geometry.Size{Width: 300, Height: 400}) {
				t.Errorf("ReferenceSize: got %v", det.Corners.ReferenceSize)
			}
			if det.Examined < 1 || det.Examined > det.Candidates {
				t.Errorf("Examined %d out of range (candidates %d)", det.Examined, det.Candidates)
			}
			assertCornersNear(t, *det.Corners, tt.quad, tt.tol)
			assertCanonical(t, *det.Corners)
		})
	}
}

func TestDetect_UniformFrame(t *testing.T) {
	img := image.NewRGBA(image.Rect(0, 0, 200, 300))
	for i := 0; i < len(img.Pix); i += 4 {
		img.Pix[i], img.Pix[i+1], img.Pix[i+2], img.Pix[i+3] = 128, 128, 128, 255
	}

	for _, native := range []bool{true, false} {
		det, err := Detect(mustFrame(t, img, imaging.OrderRGBA), DefaultParams(), native)
		if !errors.Is(err, ErrNoDocumentFound) {
			t.Fatalf("native=%v: expected ErrNoDocumentFound, got %v", native, err)
		}
		if det == nil {
			t.Fatal("Detection should be returned alongside ErrNoDocumentFound")
		}
		if det.Found() || det.Candidates != 0 || det.Examined != 0 {
			t.Errorf("native=%v: unexpected detection %+v", native, det)
		}
	}
}

func TestDetect_RescalingLaw(t *testing.T) {
	quad := [4]r2.Point{{X: 120, Y: 150}, {X: 480, Y: 150}, {X: 480, Y: 650}, {X: 120, Y: 650}}
	frame := mustFrame(t, createDocumentImage(600, 800, quad, white, black), imaging.OrderRGBA)

	p := DefaultParams()
	p.ReferenceHeight = 400

	scaled, err := Detect(frame, p, false)
	if err != nil {
		t.Fatalf("downscaled Detect failed: %v", err)
	}
	native, err := Detect(frame, p, true)
	if err != nil {
		t.Fatalf("native Detect failed: %v", err)
	}

	if scaled.Ratio != 2 {
		t.Fatalf("Ratio: got %v, want 2", scaled.Ratio)
	}
	if scaled.WorkingSize != (geometry.Size{Width: 300, Height: 400}) {
		t.Errorf("WorkingSize: got %v, want 300x400", scaled.WorkingSize)
	}
	if scaled.Corners.ReferenceSize != native.Corners.ReferenceSize {
		t.Errorf("reference sizes differ: %v vs %v", scaled.Corners.ReferenceSize, native.Corners.ReferenceSize)
	}

	tol := 4*scaled.Ratio + 2
	assertCornersNear(t, *scaled.Corners, native.Corners.Points, tol)
	assertCornersNear(t, *scaled.Corners, quad, tol)
}

func TestDetect_UpscalesShortFrame(t *testing.T) {
	// 200 rows is about the shortest frame whose outline survives the
	// interpolation up to the 500 row working height.
	quad := [4]r2.Point{{X: 50, Y: 40}, {X: 250, Y: 40}, {X: 250, Y: 160}, {X: 50, Y: 160}}
	frame := mustFrame(t, createDocumentImage(300, 200, quad, white, black), imaging.OrderRGBA)

	det, err := Detect(frame, DefaultParams(), false)
	if err != nil {
		t.Fatalf("Detect failed: %v", err)
	}
	if det.Ratio != 0.4 {
		t.Errorf("Ratio: got %v, want 0.4", det.Ratio)
	}
	if det.WorkingSize.Height != 500 || det.WorkingSize.Width < 749 || det.WorkingSize.Width > 750 {
		t.Errorf("WorkingSize: got %v, want about 750x500", det.WorkingSize)
	}
	if det.Corners.ReferenceSize != (geometry.Size{Width: 300, Height: 200}) {
		t.Errorf("ReferenceSize: got %v", det.Corners.ReferenceSize)
	}
	assertCornersNear(t, *det.Corners, quad, 4)
	assertCanonical(t, *det.Corners)
}

func TestDetect_FullResolutionScenario(t *testing.T) {
	if testing.Short() {
		t.Skip("full resolution frame skipped in short mode")
	}

	quad := [4]r2.Point{{X: 200, Y: 300}, {X: 1800, Y: 300}, {X: 1800, Y: 2700}, {X: 200, Y: 2700}}
	frame := mustFrame(t, createDocumentImage(2000, 3000, quad, white, black), imaging.OrderRGBA)

	det, err := Detect(frame, DefaultParams(), true)
	if err != nil {
		t.Fatalf("Detect failed: %v", err)
	}
	assertCornersNear(t, *det.Corners, quad, 5)

	size := det.Corners.OutputSize()
	if math.Abs(size.Width-1600) > 10 || math.Abs(size.Height-2400) > 10 {
		t.Errorf("output size: got %.0fx%.0f, want ~1600x2400", size.Width, size.Height)
	}

	// The default downscaled path finds the same page, at working precision.
	scaled, err := Detect(frame, DefaultParams(), false)
	if err != nil {
		t.Fatalf("downscaled Detect failed: %v", err)
	}
	if scaled.Ratio != 6 {
		t.Errorf("Ratio: got %v, want 6", scaled.Ratio)
	}
	assertCornersNear(t, *scaled.Corners, quad, 4*scaled.Ratio)
}

func TestDetect_InvalidInput(t *testing.T) {
	if _, err := Detect(nil, DefaultParams(), false); !errors.Is(err, imaging.ErrUnsupportedInput) {
		t.Errorf("nil frame: expected ErrUnsupportedInput, got %v", err)
	}

	frame := mustFrame(t, image.NewRGBA(image.Rect(0, 0, 10, 10)), imaging.OrderRGBA)
	p := DefaultParams()
	p.CannyHigh = 10
	if _, err := Detect(frame, p, false); err == nil {
		t.Error("expected an error for high < low")
	}
}

func TestExtractContours_Filters(t *testing.T) {
	quad := [4]r2.Point{{X: 60, Y: 80}, {X: 240, Y: 80}, {X: 240, Y: 320}, {X: 60, Y: 320}}
	img := createDocumentImage(300, 400, quad, white, black)
	// A small mark that contributes extra contours.
	for y := 20; y < 30; y++ {
		for x := 20; x < 30; x++ {
			img.SetRGBA(x, y, white)
		}
	}
	frame := mustFrame(t, img, imaging.OrderRGBA)

	all, err := ExtractContours(frame, DefaultParams(), true)
	if err != nil {
		t.Fatalf("ExtractContours failed: %v", err)
	}
	if len(all.Contours) < 2 || all.Traced != len(all.Contours) {
		t.Fatalf("expected unfiltered contours, got %d of %d", len(all.Contours), all.Traced)
	}
	for i := 1; i < len(all.Contours); i++ {
		if all.Contours[i].Area() > all.Contours[i-1].Area() {
			t.Fatalf("contours not sorted by area at %d", i)
		}
	}

	p := DefaultParams()
	p.MinContourArea = 1000
	filtered, err := ExtractContours(frame, p, true)
	if err != nil {
		t.Fatalf("ExtractContours failed: %v", err)
	}
	for _, c := range filtered.Contours {
		if c.Area() <= 1000 {
			t.Errorf("contour with area %v survived MinContourArea", c.Area())
		}
	}
	if len(filtered.Contours) >= len(all.Contours) {
		t.Error("MinContourArea should drop the small mark")
	}

	p = DefaultParams()
	p.MaxCandidates = 1
	capped, err := ExtractContours(frame, p, true)
	if err != nil {
		t.Fatalf("ExtractContours failed: %v", err)
	}
	if len(capped.Contours) != 1 {
		t.Errorf("MaxCandidates: got %d contours, want 1", len(capped.Contours))
	}
}

func TestEdgeMap(t *testing.T) {
	quad := [4]r2.Point{{X: 60, Y: 80}, {X: 240, Y: 80}, {X: 240, Y: 320}, {X: 60, Y: 320}}
	frame := mustFrame(t, createDocumentImage(300, 400, quad, white, black), imaging.OrderRGBA)

	p := DefaultParams()
	p.ReferenceHeight = 200
	edges, ratio, err := EdgeMap(frame, p, false)
	if err != nil {
		t.Fatalf("EdgeMap failed: %v", err)
	}
	if ratio != 2 {
		t.Errorf("ratio: got %v, want 2", ratio)
	}
	if edges.Width() != 150 || edges.Height() != 200 {
		t.Errorf("dimensions: got %dx%d, want 150x200", edges.Width(), edges.Height())
	}
	gray, ok := edges.Image().(*image.Gray)
	if !ok {
		t.Fatalf("expected *image.Gray, got %T", edges.Image())
	}
	on := 0
	for _, v := range gray.Pix {
		if v == 255 {
			on++
		}
	}
	if on == 0 {
		t.Error("edge map is empty")
	}
}

func TestParams_Validate(t *testing.T) {
	if err := DefaultParams().Validate(); err != nil {
		t.Fatalf("defaults should validate: %v", err)
	}

	tests := []struct {
		name   string
		mutate func(*Params)
	}{
		{"reference height", func(p *Params) { p.ReferenceHeight = 0 }},
		{"blur radius", func(p *Params) { p.BlurRadius = -1 }},
		{"morph radius", func(p *Params) { p.MorphRadius = -1 }},
		{"canny order", func(p *Params) { p.CannyLow, p.CannyHigh = 120, 100 }},
		{"epsilon", func(p *Params) { p.EpsilonFactor = 0 }},
		{"divisor", func(p *Params) { p.MinSizeDivisor = 0 }},
		{"min area", func(p *Params) { p.MinContourArea = -5 }},
		{"max candidates", func(p *Params) { p.MaxCandidates = -1 }},
		{"filter", func(p *Params) { p.ResampleFilter = "cubic" }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := DefaultParams()
			tt.mutate(&p)
			if err := p.Validate(); err == nil {
				t.Error("expected a validation error")
			}
		})
	}
}
