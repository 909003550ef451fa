package imaging

import (
	"bytes"
	"encoding/base64"
	"fmt"
	"image"
	"image/png"
	"os"
	"path/filepath"

	"github.com/disintegration/imaging"
)

// ImageResult carries an encoded raster back to a caller.
//
// Exactly one of ImageBase64 or Path is populated: inline results carry the
// PNG bytes, persisted results carry the file they were written to.
type ImageResult struct {
	Width       int    `json:"width"`
	Height      int    `json:"height"`
	ImageBase64 string `json:"image_base64,omitempty"`
	MimeType    string `json:"mime_type"`
	Path        string `json:"path,omitempty"`
}

// EncodePNG encodes img as PNG and returns it base64 encoded.
func EncodePNG(img image.Image) (*ImageResult, error) {
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return nil, fmt.Errorf("failed to encode image: %w", err)
	}

	b := img.Bounds()
	return &ImageResult{
		Width:       b.Dx(),
		Height:      b.Dy(),
		ImageBase64: base64.StdEncoding.EncodeToString(buf.Bytes()),
		MimeType:    "image/png",
	}, nil
}

// SaveImage writes img to path, creating parent directories as needed. The
// format is chosen from the file extension by imaging.Save.
func SaveImage(img image.Image, path string) (*ImageResult, error) {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("failed to create output directory: %w", err)
		}
	}
	if err := imaging.Save(img, path); err != nil {
		return nil, fmt.Errorf("failed to save image: %w", err)
	}

	b := img.Bounds()
	return &ImageResult{
		Width:    b.Dx(),
		Height:   b.Dy(),
		MimeType: mimeTypeFor(path),
		Path:     path,
	}, nil
}

// Output encodes img inline when path is empty, otherwise saves it.
func Output(img image.Image, path string) (*ImageResult, error) {
	if path == "" {
		return EncodePNG(img)
	}
	return SaveImage(img, path)
}

func mimeTypeFor(path string) string {
	switch formatFromExt(path) {
	case "jpeg":
		return "image/jpeg"
	case "gif":
		return "image/gif"
	case "tiff":
		return "image/tiff"
	case "bmp":
		return "image/bmp"
	default:
		return "image/png"
	}
}
