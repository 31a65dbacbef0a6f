package filehandler

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	_ "image/gif"
	"image/jpeg"
	_ "image/png"
	"os"
	"path/filepath"

	"github.com/rs/zerolog/log"
	"golang.org/x/image/draw"
	_ "golang.org/x/image/webp"
)

// DefaultThumbnailMaxDimension is the maximum dimension (width or height) for thumbnails.
const DefaultThumbnailMaxDimension = 256

// ErrNoThumbnail is returned for formats that cannot be decoded in pure Go
// (HEIC/HEIF).
var ErrNoThumbnail = errors.New("thumbnail not supported for this format")

// GenerateThumbnail decodes the image at path and returns a JPEG thumbnail
// no larger than maxDimension on either side.
func GenerateThumbnail(path string, maxDimension int) ([]byte, error) {
	switch mimeType, _ := GetMIMEType(filepath.Ext(path)); mimeType {
	case "image/heic", "image/heif", "":
		return nil, ErrNoThumbnail
	}

	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open file: %w", err)
	}
	defer f.Close()

	img, format, err := image.Decode(f)
	if err != nil {
		return nil, fmt.Errorf("failed to decode image: %w", err)
	}

	bounds := img.Bounds()
	newWidth, newHeight := calculateThumbnailDimensions(bounds.Dx(), bounds.Dy(), maxDimension)

	resized := image.NewRGBA(image.Rect(0, 0, newWidth, newHeight))
	draw.CatmullRom.Scale(resized, resized.Bounds(), img, bounds, draw.Over, nil)

	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, resized, &jpeg.Options{Quality: 80}); err != nil {
		return nil, fmt.Errorf("failed to encode thumbnail: %w", err)
	}

	log.Debug().
		Str("path", path).
		Str("format", format).
		Int("orig_width", bounds.Dx()).
		Int("orig_height", bounds.Dy()).
		Int("thumb_size", buf.Len()).
		Msg("Thumbnail generated")

	return buf.Bytes(), nil
}

// WriteThumbnail generates a thumbnail for path and stores it as
// dir/<token>.jpg.
func WriteThumbnail(path, dir, token string, maxDimension int) (string, error) {
	data, err := GenerateThumbnail(path, maxDimension)
	if err != nil {
		return "", err
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("create thumbnail dir: %w", err)
	}
	out := filepath.Join(dir, token+".jpg")
	if err := os.WriteFile(out, data, 0o644); err != nil {
		return "", fmt.Errorf("write thumbnail: %w", err)
	}
	return out, nil
}

// calculateThumbnailDimensions calculates new dimensions maintaining aspect ratio.
func calculateThumbnailDimensions(width, height, maxDimension int) (int, int) {
	if width <= maxDimension && height <= maxDimension {
		return width, height
	}

	if width > height {
		newHeight := int(float64(height) * float64(maxDimension) / float64(width))
		return maxDimension, max(newHeight, 1)
	}

	newWidth := int(float64(width) * float64(maxDimension) / float64(height))
	return max(newWidth, 1), maxDimension
}
