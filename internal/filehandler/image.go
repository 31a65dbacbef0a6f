package filehandler

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/evanoberholster/imagemeta"
	"github.com/rs/zerolog/log"
)

// ImageMetadata contains the EXIF fields the uploader cares about.
//
// Extraction uses evanoberholster/imagemeta, which reads only the metadata
// blocks of JPEG, HEIC and TIFF files rather than the whole image.
type ImageMetadata struct {
	DateTaken time.Time
	HasDate   bool

	CameraMake  string
	CameraModel string
}

// ExtractImageMetadata extracts EXIF metadata from an image file.
// Date priority: DateTimeOriginal > CreateDate > ModifyDate.
func ExtractImageMetadata(filePath string) (*ImageMetadata, error) {
	file, err := os.Open(filePath)
	if err != nil {
		return nil, fmt.Errorf("failed to open file: %w", err)
	}
	defer file.Close()

	exifData, err := imagemeta.Decode(file)
	if err != nil {
		return nil, fmt.Errorf("failed to decode EXIF metadata: %w", err)
	}

	metadata := &ImageMetadata{}

	switch {
	case !exifData.DateTimeOriginal().IsZero():
		metadata.DateTaken = exifData.DateTimeOriginal()
		metadata.HasDate = true
	case !exifData.CreateDate().IsZero():
		metadata.DateTaken = exifData.CreateDate()
		metadata.HasDate = true
	case !exifData.ModifyDate().IsZero():
		metadata.DateTaken = exifData.ModifyDate()
		metadata.HasDate = true
	}

	metadata.CameraMake = strings.TrimSpace(exifData.Make)
	metadata.CameraModel = strings.TrimSpace(exifData.Model)

	log.Debug().
		Str("path", filePath).
		Bool("has_date", metadata.HasDate).
		Str("camera", strings.TrimSpace(metadata.CameraMake+" "+metadata.CameraModel)).
		Msg("Image metadata extraction complete")

	return metadata, nil
}
