package filehandler

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/rs/zerolog/log"
)

// ScanOptions configures directory scanning behavior.
type ScanOptions struct {
	// MaxDepth limits recursion depth. 0 = unlimited, 1 = top-level only.
	MaxDepth int

	// Skip is consulted before a file is loaded; returning true leaves it
	// out of the result. Used to avoid re-reading files already indexed.
	Skip func(path string) bool
}

// ScanDirectory scans a directory tree for supported image files.
func ScanDirectory(dirPath string) ([]*MediaFile, error) {
	return ScanDirectoryWithOptions(dirPath, ScanOptions{})
}

// ScanDirectoryWithOptions scans a directory for supported image files with
// configurable options. Hidden files and directories are skipped, file
// symlinks are followed and directory symlinks are not. Results are sorted
// by path.
func ScanDirectoryWithOptions(dirPath string, opts ScanOptions) ([]*MediaFile, error) {
	info, err := os.Stat(dirPath)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("directory not found: %s", dirPath)
		}
		return nil, fmt.Errorf("failed to stat directory: %w", err)
	}

	if !info.IsDir() {
		return nil, fmt.Errorf("path is not a directory: %s", dirPath)
	}

	absPath, err := filepath.Abs(dirPath)
	if err != nil {
		return nil, fmt.Errorf("failed to get absolute path: %w", err)
	}
	baseDepth := strings.Count(absPath, string(os.PathSeparator))

	var mediaFiles []*MediaFile
	skipped := 0

	err = filepath.WalkDir(absPath, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			log.Warn().Err(err).Str("path", path).Msg("Error accessing path, skipping")
			return nil
		}

		if path != absPath && strings.HasPrefix(d.Name(), ".") {
			if d.IsDir() {
				return fs.SkipDir
			}
			return nil
		}

		if opts.MaxDepth > 0 {
			currentDepth := strings.Count(path, string(os.PathSeparator)) - baseDepth
			if d.IsDir() && currentDepth >= opts.MaxDepth {
				return fs.SkipDir
			}
		}

		if d.IsDir() {
			return nil
		}

		if d.Type()&fs.ModeSymlink != 0 {
			targetInfo, err := os.Stat(path)
			if err != nil {
				log.Warn().Err(err).Str("path", path).Msg("Failed to resolve symlink, skipping")
				return nil
			}
			if targetInfo.IsDir() {
				return nil
			}
		}

		if !IsImage(filepath.Ext(d.Name())) {
			return nil
		}

		if opts.Skip != nil && opts.Skip(path) {
			skipped++
			return nil
		}

		mediaFile, err := LoadMediaFile(path)
		if err != nil {
			log.Warn().Err(err).Str("file", d.Name()).Msg("Failed to load media file, skipping")
			return nil
		}

		mediaFiles = append(mediaFiles, mediaFile)
		return nil
	})

	if err != nil {
		return nil, fmt.Errorf("failed to walk directory: %w", err)
	}

	sort.Slice(mediaFiles, func(i, j int) bool {
		return mediaFiles[i].Path < mediaFiles[j].Path
	})

	log.Debug().
		Int("new_images", len(mediaFiles)).
		Int("skipped", skipped).
		Str("directory", dirPath).
		Msg("Directory scan complete")

	return mediaFiles, nil
}
