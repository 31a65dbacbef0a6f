package filehandler

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/rs/zerolog/log"
)

// SupportedImageExtensions maps the image extensions the uploader indexes to
// their MIME types.
var SupportedImageExtensions = map[string]string{
	".jpg":  "image/jpeg",
	".jpeg": "image/jpeg",
	".png":  "image/png",
	".gif":  "image/gif",
	".webp": "image/webp",
	".heic": "image/heic",
	".heif": "image/heif",
}

// MediaFile is one image found on disk.
type MediaFile struct {
	Path     string
	MIMEType string
	Size     int64
	ModTime  time.Time
	Metadata *ImageMetadata
}

// CaptureTime is the EXIF capture time when present, otherwise the file's
// modification time.
func (m *MediaFile) CaptureTime() time.Time {
	if m.Metadata != nil && m.Metadata.HasDate {
		return m.Metadata.DateTaken
	}
	return m.ModTime
}

// DisplayName is the file's base name.
func (m *MediaFile) DisplayName() string {
	return filepath.Base(m.Path)
}

// LoadMediaFile stats filePath and reads its EXIF metadata. The image data
// itself is not loaded.
func LoadMediaFile(filePath string) (*MediaFile, error) {
	info, err := os.Stat(filePath)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("file not found: %s", filePath)
		}
		return nil, fmt.Errorf("failed to stat file: %w", err)
	}

	if info.IsDir() {
		return nil, fmt.Errorf("path is a directory, not a file: %s", filePath)
	}

	mimeType, err := GetMIMEType(filepath.Ext(filePath))
	if err != nil {
		return nil, err
	}

	mediaFile := &MediaFile{
		Path:     filePath,
		MIMEType: mimeType,
		Size:     info.Size(),
		ModTime:  info.ModTime(),
	}

	imgMeta, err := ExtractImageMetadata(filePath)
	if err != nil {
		log.Debug().Err(err).Str("path", filePath).Msg("No EXIF metadata, using file time")
	} else {
		mediaFile.Metadata = imgMeta
	}

	log.Debug().
		Str("path", filePath).
		Str("mime_type", mimeType).
		Int64("size_bytes", info.Size()).
		Msg("Media file loaded")

	return mediaFile, nil
}

// GetMIMEType returns the MIME type for a given file extension.
func GetMIMEType(ext string) (string, error) {
	if mimeType, ok := SupportedImageExtensions[strings.ToLower(ext)]; ok {
		return mimeType, nil
	}
	return "", fmt.Errorf("unsupported file extension: %s", ext)
}

// IsImage returns true if the file extension corresponds to an image.
func IsImage(ext string) bool {
	_, ok := SupportedImageExtensions[strings.ToLower(ext)]
	return ok
}
