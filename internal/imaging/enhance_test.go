package imaging

import (
	"errors"
	"image"
	"image/color"
	"testing"
)

func TestEnhance_Binarises(t *testing.T) {
	// Light page with dark text strokes.
	img := image.NewRGBA(image.Rect(0, 0, 60, 60))
	for y := 0; y < 60; y++ {
		for x := 0; x < 60; x++ {
			c := color.RGBA{200, 200, 200, 255}
			if x >= 28 && x < 31 {
				c = color.RGBA{40, 40, 40, 255}
			}
			img.SetRGBA(x, y, c)
		}
	}
	f, _ := NewFrame(img, OrderRGBA)

	out, err := Enhance(f, DefaultEnhanceParams())
	if err != nil {
		t.Fatalf("Enhance failed: %v", err)
	}

	gray, ok := out.Image().(*image.Gray)
	if !ok {
		t.Fatalf("expected *image.Gray output, got %T", out.Image())
	}
	for _, v := range gray.Pix {
		if v != 0 && v != 255 {
			t.Fatalf("output is not binary: found %d", v)
		}
	}
	if gray.GrayAt(29, 30).Y != 0 {
		t.Error("stroke should be black")
	}
	if gray.GrayAt(5, 30).Y != 255 {
		t.Error("paper should be white")
	}
	if out.Width() != 60 || out.Height() != 60 {
		t.Errorf("dimensions: got %dx%d, want 60x60", out.Width(), out.Height())
	}
}

func TestEnhance_UniformIsWhite(t *testing.T) {
	f, _ := NewFrame(createInMemoryImage(20, 20, color.RGBA{90, 90, 90, 255}), OrderRGBA)
	out, err := Enhance(f, DefaultEnhanceParams())
	if err != nil {
		t.Fatalf("Enhance failed: %v", err)
	}
	for _, v := range out.Image().(*image.Gray).Pix {
		if v != 255 {
			t.Fatal("uniform input should enhance to white")
		}
	}
}

func TestEnhance_DoesNotMutateInput(t *testing.T) {
	img := createPatternImage(16, 16)
	before := append([]uint8(nil), img.Pix...)
	f, _ := NewFrame(img, OrderRGBA)

	if _, err := Enhance(f, DefaultEnhanceParams()); err != nil {
		t.Fatalf("Enhance failed: %v", err)
	}
	for i := range before {
		if img.Pix[i] != before[i] {
			t.Fatal("input pixels were modified")
		}
	}
}

func TestEnhance_InvalidBlockSize(t *testing.T) {
	f, _ := NewFrame(createInMemoryImage(8, 8, color.White), OrderRGBA)
	for _, bs := range []int{0, 1, 2, 14} {
		_, err := Enhance(f, EnhanceParams{BlockSize: bs, Offset: 15})
		if !errors.Is(err, ErrUnsupportedInput) {
			t.Errorf("block size %d: expected ErrUnsupportedInput, got %v", bs, err)
		}
	}
}
