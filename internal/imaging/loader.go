package imaging

import (
	"fmt"
	"image"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/disintegration/imaging"
)

// ImageCache keeps decoded photos in memory keyed by the path string they
// were loaded from, so a detect followed by a rectify decodes the file once.
//
// Files are opened with EXIF auto-orientation: a portrait phone photo stored
// sideways comes back upright, and corners found on it line up with what the
// user sees. Entries live until Evict or Clear; full resolution camera frames
// are large, so long-running callers should evict once a page is produced.
//
// ImageCache is safe for concurrent use.
type ImageCache struct {
	mu     sync.RWMutex
	images map[string]image.Image
}

// NewImageCache returns an empty cache.
func NewImageCache() *ImageCache {
	return &ImageCache{images: map[string]image.Image{}}
}

func (c *ImageCache) lookup(path string) (image.Image, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	img, ok := c.images[path]
	return img, ok
}

// Load returns the cached image for path, decoding it on a miss. Any format
// disintegration/imaging registers is accepted (PNG, JPEG, GIF, TIFF, BMP).
// Failed loads are not cached.
func (c *ImageCache) Load(path string) (image.Image, error) {
	if img, ok := c.lookup(path); ok {
		return img, nil
	}

	if _, err := os.Stat(path); err != nil {
		return nil, fmt.Errorf("failed to open image: %w", err)
	}
	img, err := imaging.Open(path, imaging.AutoOrientation(true))
	if err != nil {
		return nil, fmt.Errorf("failed to decode image %s: %w", filepath.Base(path), err)
	}

	c.mu.Lock()
	// Two concurrent misses both decode; the first stored wins.
	if prev, ok := c.images[path]; ok {
		img = prev
	} else {
		c.images[path] = img
	}
	c.mu.Unlock()
	return img, nil
}

// LoadFrame loads path through the cache and wraps it as a Frame. Decoders
// always produce RGB-first pixels; order overrides that for raw captures
// saved without conversion.
func (c *ImageCache) LoadFrame(path string, order ChannelOrder) (*Frame, error) {
	img, err := c.Load(path)
	if err != nil {
		return nil, err
	}
	return NewFrame(img, order)
}

// Evict drops path from the cache. Unknown paths are ignored.
func (c *ImageCache) Evict(path string) {
	c.mu.Lock()
	delete(c.images, path)
	c.mu.Unlock()
}

// Clear drops every cached image.
func (c *ImageCache) Clear() {
	c.mu.Lock()
	clear(c.images)
	c.mu.Unlock()
}

// Len reports the number of cached images.
func (c *ImageCache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.images)
}

// DimensionsResult is the pixel size of a loaded image after orientation.
type DimensionsResult struct {
	Width  int `json:"width"`
	Height int `json:"height"`
}

// ImageInfo describes a loaded image file.
type ImageInfo struct {
	DimensionsResult

	// Format comes from the file extension: "png", "jpeg", "gif", "tiff",
	// "bmp" or "unknown".
	Format string `json:"format"`

	// ColorDepth is "16-bit" for 16-bit-per-channel decodes, else "8-bit".
	ColorDepth string `json:"color_depth"`

	HasAlpha      bool  `json:"has_alpha"`
	FileSizeBytes int64 `json:"file_size_bytes"`
}

// GetDimensions loads path through cache and reports its size.
func GetDimensions(cache *ImageCache, path string) (*DimensionsResult, error) {
	img, err := cache.Load(path)
	if err != nil {
		return nil, err
	}
	b := img.Bounds()
	return &DimensionsResult{Width: b.Dx(), Height: b.Dy()}, nil
}

// LoadImageInfo loads path through cache and describes it.
func LoadImageInfo(cache *ImageCache, path string) (*ImageInfo, error) {
	img, err := cache.Load(path)
	if err != nil {
		return nil, err
	}
	stat, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("failed to stat file: %w", err)
	}

	depth, alpha := pixelLayout(img)
	b := img.Bounds()
	return &ImageInfo{
		DimensionsResult: DimensionsResult{Width: b.Dx(), Height: b.Dy()},
		Format:           formatFromExt(path),
		ColorDepth:       depth,
		HasAlpha:         alpha,
		FileSizeBytes:    stat.Size(),
	}, nil
}

// pixelLayout reports bit depth and alpha from the decoded image type.
func pixelLayout(img image.Image) (depth string, alpha bool) {
	switch img.(type) {
	case *image.RGBA, *image.NRGBA:
		return "8-bit", true
	case *image.RGBA64, *image.NRGBA64:
		return "16-bit", true
	case *image.Gray16:
		return "16-bit", false
	default:
		return "8-bit", false
	}
}

var extFormats = map[string]string{
	".png":  "png",
	".jpg":  "jpeg",
	".jpeg": "jpeg",
	".gif":  "gif",
	".tif":  "tiff",
	".tiff": "tiff",
	".bmp":  "bmp",
}

func formatFromExt(path string) string {
	if f, ok := extFormats[strings.ToLower(filepath.Ext(path))]; ok {
		return f
	}
	return "unknown"
}
