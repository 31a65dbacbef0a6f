package transfer

import (
	"bufio"
	"bytes"
	"errors"
	"io"
	"os"
	"path/filepath"
	"reflect"
	"testing"
)

// scriptedReader returns reads of the scripted sizes, then EOF.
type scriptedReader struct {
	sizes  []int
	closed bool
}

func (r *scriptedReader) Read(p []byte) (int, error) {
	if len(r.sizes) == 0 {
		return 0, io.EOF
	}
	n := r.sizes[0]
	if n > len(p) {
		n = len(p)
	}
	r.sizes[0] -= n
	if r.sizes[0] == 0 {
		r.sizes = r.sizes[1:]
	}
	for i := range p[:n] {
		p[i] = 'x'
	}
	return n, nil
}

func (r *scriptedReader) Close() error {
	r.closed = true
	return nil
}

type failingReader struct {
	after  int
	closed bool
}

func (r *failingReader) Read(p []byte) (int, error) {
	if r.after <= 0 {
		return 0, errors.New("disk error")
	}
	n := min(r.after, len(p))
	r.after -= n
	return n, nil
}

func (r *failingReader) Close() error {
	r.closed = true
	return nil
}

func TestWriteToReportsSkippedDeciles(t *testing.T) {
	src := &scriptedReader{sizes: []int{100_000, 200_000, 700_000}}
	var got []int
	tr := &Transfer{
		Open:       func() (io.ReadCloser, error) { return src, nil },
		Size:       1_000_000,
		ChunkSize:  1 << 20,
		OnProgress: func(p int) { got = append(got, p) },
	}

	var sink bytes.Buffer
	n, err := tr.WriteTo(&sink)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if n != 1_000_000 || sink.Len() != 1_000_000 {
		t.Errorf("expected 1000000 bytes, got n=%d sink=%d", n, sink.Len())
	}
	if want := []int{10, 30, 100}; !reflect.DeepEqual(got, want) {
		t.Errorf("expected progress %v, got %v", want, got)
	}
	if !src.closed {
		t.Error("expected source to be closed")
	}
}

func TestWriteToDefaultChunksStrictlyIncreasing(t *testing.T) {
	const size = 1_000_000
	var got []int
	tr := &Transfer{
		Open:       func() (io.ReadCloser, error) { return &scriptedReader{sizes: []int{size}}, nil },
		Size:       size,
		OnProgress: func(p int) { got = append(got, p) },
	}

	if _, err := tr.WriteTo(io.Discard); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	want := []int{10, 20, 30, 40, 50, 60, 70, 80, 90, 100}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("expected %v, got %v", want, got)
	}
}

func TestWriteToNilSinkDoesNotOpen(t *testing.T) {
	opened := false
	tr := &Transfer{
		Open: func() (io.ReadCloser, error) {
			opened = true
			return io.NopCloser(bytes.NewReader(nil)), nil
		},
	}

	_, err := tr.WriteTo(nil)
	if !errors.Is(err, ErrNoSink) {
		t.Fatalf("expected ErrNoSink, got %v", err)
	}
	if opened {
		t.Error("source must not be opened without a sink")
	}
}

func TestWriteToClosesSourceOnReadError(t *testing.T) {
	src := &failingReader{after: 8192}
	tr := &Transfer{
		Open: func() (io.ReadCloser, error) { return src, nil },
		Size: 100_000,
	}

	if _, err := tr.WriteTo(io.Discard); err == nil {
		t.Fatal("expected read error")
	}
	if !src.closed {
		t.Error("expected source to be closed after read error")
	}
}

type brokenWriter struct{}

func (brokenWriter) Write([]byte) (int, error) { return 0, io.ErrClosedPipe }

func TestWriteToClosesSourceOnWriteError(t *testing.T) {
	src := &scriptedReader{sizes: []int{10}}
	tr := &Transfer{
		Open: func() (io.ReadCloser, error) { return src, nil },
		Size: 10,
	}

	_, err := tr.WriteTo(brokenWriter{})
	if !errors.Is(err, io.ErrClosedPipe) {
		t.Fatalf("expected wrapped ErrClosedPipe, got %v", err)
	}
	if !src.closed {
		t.Error("expected source to be closed after write error")
	}
}

func TestWriteToShortSource(t *testing.T) {
	tr := &Transfer{
		Open: func() (io.ReadCloser, error) { return &scriptedReader{sizes: []int{500}}, nil },
		Size: 1000,
	}
	if _, err := tr.WriteTo(io.Discard); !errors.Is(err, io.ErrUnexpectedEOF) {
		t.Fatalf("expected io.ErrUnexpectedEOF, got %v", err)
	}
}

func TestWriteToZeroLengthNoProgress(t *testing.T) {
	calls := 0
	tr := &Transfer{
		Open:       func() (io.ReadCloser, error) { return io.NopCloser(bytes.NewReader(nil)), nil },
		OnProgress: func(int) { calls++ },
	}
	if _, err := tr.WriteTo(io.Discard); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if calls != 0 {
		t.Errorf("expected no progress events, got %d", calls)
	}
}

func TestWriteToFlushesSink(t *testing.T) {
	var out bytes.Buffer
	bw := bufio.NewWriterSize(&out, 1<<20)
	tr := &Transfer{
		Open: func() (io.ReadCloser, error) { return &scriptedReader{sizes: []int{2048}}, nil },
		Size: 2048,
	}

	if _, err := tr.WriteTo(bw); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if out.Len() != 2048 {
		t.Errorf("expected buffered writer to be flushed, got %d bytes", out.Len())
	}
}

func TestFromFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "img.jpg")
	if err := os.WriteFile(path, bytes.Repeat([]byte{0xff}, 5000), 0o644); err != nil {
		t.Fatal(err)
	}

	var last int
	tr, err := FromFile(path, func(p int) { last = p })
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if tr.Size != 5000 {
		t.Errorf("expected size 5000, got %d", tr.Size)
	}

	var sink bytes.Buffer
	if _, err := tr.WriteTo(&sink); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if last != 100 {
		t.Errorf("expected final progress 100, got %d", last)
	}
}

func TestFromFileMissing(t *testing.T) {
	if _, err := FromFile(filepath.Join(t.TempDir(), "nope.jpg"), nil); err == nil {
		t.Error("expected error for missing file")
	}
}
