package filehandler

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestIsImage(t *testing.T) {
	tests := []struct {
		ext      string
		expected bool
	}{
		{".jpg", true},
		{".jpeg", true},
		{".JPG", true},
		{".png", true},
		{".gif", true},
		{".webp", true},
		{".heic", true},
		{".HEIC", true},
		{".heif", true},
		{".mp4", false},
		{".mov", false},
		{".txt", false},
		{"", false},
	}

	for _, tt := range tests {
		t.Run(tt.ext, func(t *testing.T) {
			if got := IsImage(tt.ext); got != tt.expected {
				t.Errorf("IsImage(%q) = %v, want %v", tt.ext, got, tt.expected)
			}
		})
	}
}

func TestGetMIMEType(t *testing.T) {
	tests := []struct {
		ext     string
		want    string
		wantErr bool
	}{
		{".jpg", "image/jpeg", false},
		{".JPEG", "image/jpeg", false},
		{".png", "image/png", false},
		{".heic", "image/heic", false},
		{".mp4", "", true},
		{".txt", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.ext, func(t *testing.T) {
			got, err := GetMIMEType(tt.ext)
			if (err != nil) != tt.wantErr {
				t.Fatalf("GetMIMEType(%q) error = %v, wantErr %v", tt.ext, err, tt.wantErr)
			}
			if got != tt.want {
				t.Errorf("GetMIMEType(%q) = %q, want %q", tt.ext, got, tt.want)
			}
		})
	}
}

func TestLoadMediaFile(t *testing.T) {
	dir := t.TempDir()
	path := writePNG(t, dir, "shot.png", 40, 20)

	mf, err := LoadMediaFile(path)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if mf.MIMEType != "image/png" {
		t.Errorf("MIMEType = %q, want image/png", mf.MIMEType)
	}
	if mf.DisplayName() != "shot.png" {
		t.Errorf("DisplayName() = %q", mf.DisplayName())
	}
	if mf.Size == 0 {
		t.Error("expected non-zero size")
	}
}

func TestLoadMediaFileErrors(t *testing.T) {
	dir := t.TempDir()
	if _, err := LoadMediaFile(filepath.Join(dir, "missing.jpg")); err == nil {
		t.Error("expected error for missing file")
	}
	if _, err := LoadMediaFile(dir); err == nil {
		t.Error("expected error for directory")
	}
	txt := filepath.Join(dir, "notes.txt")
	os.WriteFile(txt, []byte("hi"), 0o644)
	if _, err := LoadMediaFile(txt); err == nil {
		t.Error("expected error for unsupported extension")
	}
}

func TestCaptureTimeFallsBackToModTime(t *testing.T) {
	mod := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	taken := time.Date(2023, 1, 1, 8, 0, 0, 0, time.UTC)

	noExif := &MediaFile{ModTime: mod}
	if !noExif.CaptureTime().Equal(mod) {
		t.Errorf("expected mod time, got %v", noExif.CaptureTime())
	}

	withExif := &MediaFile{ModTime: mod, Metadata: &ImageMetadata{DateTaken: taken, HasDate: true}}
	if !withExif.CaptureTime().Equal(taken) {
		t.Errorf("expected EXIF time, got %v", withExif.CaptureTime())
	}

	noDate := &MediaFile{ModTime: mod, Metadata: &ImageMetadata{CameraMake: "Canon"}}
	if !noDate.CaptureTime().Equal(mod) {
		t.Errorf("expected mod time when EXIF has no date, got %v", noDate.CaptureTime())
	}
}
