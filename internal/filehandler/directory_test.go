package filehandler

import (
	"bytes"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func bytesReader(b []byte) io.Reader { return bytes.NewReader(b) }

func TestScanDirectory(t *testing.T) {
	dir := t.TempDir()
	writePNG(t, dir, "b.png", 2, 2)
	writePNG(t, dir, "a.png", 2, 2)
	os.WriteFile(filepath.Join(dir, "clip.mp4"), []byte("video"), 0o644)
	os.WriteFile(filepath.Join(dir, "notes.txt"), []byte("text"), 0o644)

	sub := filepath.Join(dir, "2024")
	os.MkdirAll(sub, 0o755)
	writePNG(t, sub, "c.png", 2, 2)

	hidden := filepath.Join(dir, ".thumbnails")
	os.MkdirAll(hidden, 0o755)
	writePNG(t, hidden, "d.png", 2, 2)

	files, err := ScanDirectory(dir)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	var names []string
	for _, f := range files {
		names = append(names, f.DisplayName())
	}
	if got := strings.Join(names, ","); got != "c.png,a.png,b.png" {
		t.Errorf("unexpected scan result %q", got)
	}
}

func TestScanDirectorySkip(t *testing.T) {
	dir := t.TempDir()
	known := writePNG(t, dir, "known.png", 2, 2)
	writePNG(t, dir, "new.png", 2, 2)

	files, err := ScanDirectoryWithOptions(dir, ScanOptions{Skip: func(p string) bool { return p == known }})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(files) != 1 || files[0].DisplayName() != "new.png" {
		t.Errorf("expected only new.png, got %v", files)
	}
}

func TestScanDirectoryMaxDepth(t *testing.T) {
	dir := t.TempDir()
	writePNG(t, dir, "top.png", 2, 2)
	sub := filepath.Join(dir, "nested")
	os.MkdirAll(sub, 0o755)
	writePNG(t, sub, "deep.png", 2, 2)

	files, err := ScanDirectoryWithOptions(dir, ScanOptions{MaxDepth: 1})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(files) != 1 || files[0].DisplayName() != "top.png" {
		t.Errorf("expected only top.png, got %d files", len(files))
	}
}

func TestScanDirectoryErrors(t *testing.T) {
	dir := t.TempDir()
	if _, err := ScanDirectory(filepath.Join(dir, "missing")); err == nil {
		t.Error("expected error for missing directory")
	}
	file := writePNG(t, dir, "x.png", 1, 1)
	if _, err := ScanDirectory(file); err == nil {
		t.Error("expected error for file path")
	}
}
