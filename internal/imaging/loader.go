package imaging

import (
	"bytes"
	"fmt"
	"image"
	_ "image/gif"  // Register GIF format decoder
	_ "image/jpeg" // Register JPEG format decoder
	_ "image/png"  // Register PNG format decoder
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/disintegration/imaging"
	_ "golang.org/x/image/bmp"  // Register BMP format decoder
	_ "golang.org/x/image/tiff" // Register TIFF format decoder
	_ "golang.org/x/image/webp" // Register WebP format decoder
)

// DefaultCacheEntries is how many decoded photos an ImageCache built by
// NewImageCache holds before it drops the least recently loaded one.
const DefaultCacheEntries = 8

// ImageCache provides thread-safe caching of decoded sheet photos to avoid
// redundant disk reads.
//
// Entries are keyed by file path and validated against the file's size and
// modification time on every Load, so a new photo saved over an old upload
// path is decoded afresh instead of being served from the cache. A photo is
// typically inspected several times (detect, overlay, evaluate) while an
// operator tunes a layout, which is what the cache is for.
//
// ImageCache is safe for concurrent use by multiple goroutines.
//
// # Memory Management
//
// At most maxEntries photos are kept. Loading one more evicts the photo that
// was decoded longest ago.
type ImageCache struct {
	mu         sync.RWMutex
	images     map[string]cachedImage
	order      []string
	maxEntries int
}

type cachedImage struct {
	img     image.Image
	size    int64
	modTime time.Time
}

// NewImageCache creates an empty cache holding up to DefaultCacheEntries photos.
func NewImageCache() *ImageCache {
	return NewImageCacheSize(DefaultCacheEntries)
}

// NewImageCacheSize creates an empty cache holding up to maxEntries photos.
// Values below 1 are treated as 1.
func NewImageCacheSize(maxEntries int) *ImageCache {
	if maxEntries < 1 {
		maxEntries = 1
	}
	return &ImageCache{
		images:     make(map[string]cachedImage),
		maxEntries: maxEntries,
	}
}

// Load retrieves an image from the cache or loads it from disk if it is not
// cached or the file changed since it was cached.
//
// Supported formats are PNG, JPEG, GIF, BMP, TIFF and WebP. JPEG files carrying
// an EXIF orientation tag are rotated upright before being cached, so a photo
// taken with the phone held sideways is seen the way the operator saw it.
//
// # Errors
//
//   - Returns error if the file does not exist or cannot be read
//   - Returns error if the file is not a supported image
func (c *ImageCache) Load(path string) (image.Image, error) {
	stat, err := os.Stat(path)
	if err != nil {
		c.Evict(path)
		return nil, fmt.Errorf("failed to open image: %w", err)
	}

	c.mu.RLock()
	entry, ok := c.images[path]
	c.mu.RUnlock()
	if ok && entry.size == stat.Size() && entry.modTime.Equal(stat.ModTime()) {
		return entry.img, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		c.Evict(path)
		return nil, fmt.Errorf("failed to open image: %w", err)
	}

	img, _, err := Decode(data)
	if err != nil {
		c.Evict(path)
		return nil, err
	}

	c.store(path, cachedImage{img: img, size: stat.Size(), modTime: stat.ModTime()})
	return img, nil
}

func (c *ImageCache) store(path string, entry cachedImage) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if _, ok := c.images[path]; ok {
		c.removeLocked(path)
	}
	for len(c.order) >= c.maxEntries {
		c.removeLocked(c.order[0])
	}
	c.images[path] = entry
	c.order = append(c.order, path)
}

// Evict removes a specific image from the cache by its path.
//
// If the path is not in the cache, this method does nothing.
func (c *ImageCache) Evict(path string) {
	c.mu.Lock()
	c.removeLocked(path)
	c.mu.Unlock()
}

func (c *ImageCache) removeLocked(path string) {
	delete(c.images, path)
	for i, p := range c.order {
		if p == path {
			c.order = append(c.order[:i], c.order[i+1:]...)
			return
		}
	}
}

// Len reports how many photos are cached.
func (c *ImageCache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.images)
}

// Decode decodes an in-memory image and reports its format name as registered
// with the image package ("png", "jpeg", "webp", ...).
//
// EXIF orientation is applied. The returned image always has its origin at
// (0,0).
func Decode(data []byte) (image.Image, string, error) {
	_, format, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		return nil, "", fmt.Errorf("failed to decode image: %w", err)
	}

	img, err := imaging.Decode(bytes.NewReader(data), imaging.AutoOrientation(true))
	if err != nil {
		return nil, "", fmt.Errorf("failed to decode image: %w", err)
	}

	if img.Bounds().Min != (image.Point{}) {
		img = imaging.Clone(img)
	}
	return img, format, nil
}

// ImageInfo contains metadata about a loaded image file.
type ImageInfo struct {
	// Width is the image width in pixels (after EXIF orientation).
	Width int `json:"width"`

	// Height is the image height in pixels (after EXIF orientation).
	Height int `json:"height"`

	// Format is the detected image format: "png", "jpeg", "gif", "bmp",
	// "tiff", "webp", or "unknown". Detection is based on file extension.
	Format string `json:"format"`

	// ColorDepth indicates the bit depth per channel: "8-bit" or "16-bit".
	ColorDepth string `json:"color_depth"`

	// HasAlpha indicates whether the image has an alpha (transparency) channel.
	HasAlpha bool `json:"has_alpha"`

	// FileSizeBytes is the size of the image file on disk in bytes.
	FileSizeBytes int64 `json:"file_size_bytes"`
}

// LoadImageInfo loads an image and returns metadata about it.
//
// The image is loaded into the cache (if not already cached). The format is
// determined by file extension:
//   - ".png" -> "png"
//   - ".jpg", ".jpeg" -> "jpeg"
//   - ".gif" -> "gif"
//   - ".bmp" -> "bmp"
//   - ".tif", ".tiff" -> "tiff"
//   - ".webp" -> "webp"
//   - Other extensions -> "unknown"
func LoadImageInfo(cache *ImageCache, path string) (*ImageInfo, error) {
	img, err := cache.Load(path)
	if err != nil {
		return nil, err
	}

	bounds := img.Bounds()

	stat, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("failed to stat file: %w", err)
	}

	format := "unknown"
	switch strings.ToLower(filepath.Ext(path)) {
	case ".png":
		format = "png"
	case ".jpg", ".jpeg":
		format = "jpeg"
	case ".gif":
		format = "gif"
	case ".bmp":
		format = "bmp"
	case ".tif", ".tiff":
		format = "tiff"
	case ".webp":
		format = "webp"
	}

	hasAlpha := false
	colorDepth := "8-bit"
	switch img.(type) {
	case *image.RGBA, *image.NRGBA:
		hasAlpha = true
	case *image.RGBA64, *image.NRGBA64:
		hasAlpha = true
		colorDepth = "16-bit"
	case *image.Gray16:
		colorDepth = "16-bit"
	}

	return &ImageInfo{
		Width:         bounds.Dx(),
		Height:        bounds.Dy(),
		Format:        format,
		ColorDepth:    colorDepth,
		HasAlpha:      hasAlpha,
		FileSizeBytes: stat.Size(),
	}, nil
}

// DimensionsResult contains the width and height of an image.
type DimensionsResult struct {
	Width  int `json:"width"`
	Height int `json:"height"`
}

// GetDimensions returns the dimensions of an image without additional metadata.
func GetDimensions(cache *ImageCache, path string) (*DimensionsResult, error) {
	img, err := cache.Load(path)
	if err != nil {
		return nil, err
	}

	bounds := img.Bounds()
	return &DimensionsResult{
		Width:  bounds.Dx(),
		Height: bounds.Dy(),
	}, nil
}

// FitWithin returns img downscaled so that neither side exceeds maxDim, along
// with the factor that maps coordinates in the returned image back onto img.
//
// If img already fits (or maxDim <= 0) it is returned unchanged with scale 1.
func FitWithin(img image.Image, maxDim int) (image.Image, float64) {
	bounds := img.Bounds()
	longest := bounds.Dx()
	if bounds.Dy() > longest {
		longest = bounds.Dy()
	}
	if maxDim <= 0 || longest <= maxDim {
		return img, 1.0
	}

	small := imaging.Fit(img, maxDim, maxDim, imaging.Linear)
	return small, float64(bounds.Dx()) / float64(small.Bounds().Dx())
}
