package imaging

import (
	"fmt"
	"image"
	_ "image/gif"  // Register GIF format decoder
	_ "image/jpeg" // Register JPEG format decoder
	_ "image/png"  // Register PNG format decoder
	"io"
	"os"
	"sync"

	"github.com/nfnt/resize"
	_ "golang.org/x/image/bmp"  // Register BMP format decoder
	_ "golang.org/x/image/tiff" // Register TIFF format decoder
	_ "golang.org/x/image/webp" // Register WebP format decoder
)

// MinSourceSide is the smallest short side a source image is processed at.
// Smaller images are upscaled before binarization so thin grid lines survive
// smoothing and morphology.
const MinSourceSide = 300

// ImageCache provides thread-safe caching of decoded source images.
//
// The cache stores decoded image.Image objects keyed by their file path. The MCP
// front end uses it so that locating, binarizing and extracting the same photo in
// consecutive tool calls only decodes the file once.
//
// ImageCache is safe for concurrent use by multiple goroutines.
//
// # Memory Management
//
// Cached images remain in memory until explicitly removed via Evict() or Clear().
//
// # Example Usage
//
//	cache := imaging.NewImageCache()
//	img, err := cache.Load("/path/to/puzzle.jpg")
//	if err != nil {
//	    log.Fatal(err)
//	}
//	bin := imaging.Binarize(img)
type ImageCache struct {
	mu     sync.RWMutex
	images map[string]image.Image
}

// NewImageCache creates and initializes a new empty image cache.
func NewImageCache() *ImageCache {
	return &ImageCache{
		images: make(map[string]image.Image),
	}
}

// Load retrieves an image from the cache or decodes it from disk if not cached.
//
// Parameters:
//   - path: File path to the image. Supported formats are PNG, JPEG, GIF, BMP,
//     TIFF and WebP.
//
// Returns:
//   - image.Image: The decoded image.
//   - error: Non-nil if the file cannot be opened or decoded.
//
// The image is cached using the exact path string provided.
func (c *ImageCache) Load(path string) (image.Image, error) {
	c.mu.RLock()
	if img, ok := c.images[path]; ok {
		c.mu.RUnlock()
		return img, nil
	}
	c.mu.RUnlock()

	img, err := Open(path)
	if err != nil {
		return nil, err
	}

	c.mu.Lock()
	c.images[path] = img
	c.mu.Unlock()

	return img, nil
}

// Clear removes all images from the cache.
func (c *ImageCache) Clear() {
	c.mu.Lock()
	c.images = make(map[string]image.Image)
	c.mu.Unlock()
}

// Evict removes a specific image from the cache by its path.
//
// If the path is not in the cache, this method does nothing.
func (c *ImageCache) Evict(path string) {
	c.mu.Lock()
	delete(c.images, path)
	c.mu.Unlock()
}

// Len reports how many images are currently cached.
func (c *ImageCache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.images)
}

// Open reads and decodes the image file at path.
//
// # Errors
//
//   - Returns error if the file does not exist or cannot be read
//   - Returns error if the contents are not a supported image format
//   - Returns error if the decoded image has no pixels
func Open(path string) (image.Image, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open image: %w", err)
	}
	defer f.Close()

	return Decode(f)
}

// Decode decodes an image from r using every registered format decoder.
func Decode(r io.Reader) (image.Image, error) {
	img, _, err := image.Decode(r)
	if err != nil {
		return nil, fmt.Errorf("failed to decode image: %w", err)
	}
	if b := img.Bounds(); b.Dx() == 0 || b.Dy() == 0 {
		return nil, fmt.Errorf("failed to decode image: empty image %dx%d", b.Dx(), b.Dy())
	}
	return img, nil
}

// Upscale enlarges a grayscale image whose short side is below minSide so that
// the short side becomes exactly minSide, preserving the aspect ratio.
//
// Images that are already large enough are returned unchanged (the same pointer).
// Bicubic interpolation is used.
func Upscale(gray *image.Gray, minSide int) *image.Gray {
	w, h := gray.Bounds().Dx(), gray.Bounds().Dy()
	short := min(w, h)
	if short == 0 || short >= minSide {
		return gray
	}

	scale := float64(minSide) / float64(short)
	nw := uint(float64(w)*scale + 0.5)
	nh := uint(float64(h)*scale + 0.5)
	if w < h {
		nw = uint(minSide)
	} else {
		nh = uint(minSide)
	}

	return ToGray(resize.Resize(nw, nh, gray, resize.Bicubic))
}
