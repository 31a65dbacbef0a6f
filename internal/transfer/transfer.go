// Package transfer streams one file to a sink in fixed-size chunks and
// reports coarse progress as it goes.
package transfer

import (
	"errors"
	"fmt"
	"io"
	"math"
	"os"
)

// DefaultChunkSize is the read size used when Transfer.ChunkSize is zero.
const DefaultChunkSize = 4096

// ErrNoSink is returned when WriteTo is called without a destination.
var ErrNoSink = errors.New("transfer: no output sink")

// ProgressFunc receives a whole-number percentage. Values are strictly
// increasing within one transfer and each decile is reported at most once.
type ProgressFunc func(percent int)

// Transfer describes one file's bytes on their way to the remote service.
// A Transfer is used once.
type Transfer struct {
	Open       func() (io.ReadCloser, error)
	Size       int64
	ChunkSize  int
	OnProgress ProgressFunc
}

// FromFile returns a Transfer reading path, sized from its current length.
func FromFile(path string, onProgress ProgressFunc) (*Transfer, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("stat %s: %w", path, err)
	}
	return &Transfer{
		Open:       func() (io.ReadCloser, error) { return os.Open(path) },
		Size:       info.Size(),
		OnProgress: onProgress,
	}, nil
}

// WriteTo streams the source into w, then flushes w if it supports it. The
// source is closed on every return path. A source that ends before Size
// bytes fails with io.ErrUnexpectedEOF.
func (t *Transfer) WriteTo(w io.Writer) (int64, error) {
	if w == nil {
		return 0, ErrNoSink
	}

	src, err := t.Open()
	if err != nil {
		return 0, fmt.Errorf("open source: %w", err)
	}
	defer src.Close()

	chunk := t.ChunkSize
	if chunk <= 0 {
		chunk = DefaultChunkSize
	}
	buf := make([]byte, chunk)

	p := progress{total: t.Size, next: 10, report: t.OnProgress}
	var sent int64
	for {
		n, rerr := src.Read(buf)
		if n > 0 {
			if _, werr := w.Write(buf[:n]); werr != nil {
				return sent, fmt.Errorf("write chunk: %w", werr)
			}
			sent += int64(n)
			p.advance(sent)
		}
		if rerr == io.EOF {
			break
		}
		if rerr != nil {
			return sent, fmt.Errorf("read source: %w", rerr)
		}
	}

	if sent < t.Size {
		return sent, io.ErrUnexpectedEOF
	}

	if err := flush(w); err != nil {
		return sent, fmt.Errorf("flush sink: %w", err)
	}
	return sent, nil
}

// progress holds the decile state for one transfer.
type progress struct {
	total  int64
	next   int
	report ProgressFunc
}

func (p *progress) advance(sent int64) {
	if p.total <= 0 || p.next > 100 {
		return
	}
	percent := int(math.Round(float64(sent) / float64(p.total) * 100))
	if percent > 100 {
		percent = 100
	}
	if percent < p.next {
		return
	}
	p.next = percent/10*10 + 10
	if p.report != nil {
		p.report(percent)
	}
}

func flush(w io.Writer) error {
	switch f := w.(type) {
	case interface{ Flush() error }:
		return f.Flush()
	case interface{ Flush() }:
		f.Flush()
	}
	return nil
}
