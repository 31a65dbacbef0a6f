// Package watcher turns store change notifications into upload tasks.
//
// The watcher keeps a watermark, the highest capture id already handed to
// the queue. Each notification queries the store for captures above it,
// advancing the watermark before every submit so a capture is enqueued at
// most once per process.
package watcher

import (
	"context"
	"sync"

	"github.com/rs/zerolog/log"

	"github.com/fpang/photo-uploader/internal/mediastore"
	"github.com/fpang/photo-uploader/internal/notify"
	"github.com/fpang/photo-uploader/internal/uploader"
)

// Source lists captures with an id greater than the given one, ascending.
type Source interface {
	CapturesAfter(ctx context.Context, id int64) ([]mediastore.Capture, error)
}

// SubmitFunc hands a task to the queue. It reports false when the queue no
// longer accepts work.
type SubmitFunc func(*uploader.Task) bool

// Config wires a Watcher.
type Config struct {
	Source Source
	Center *notify.Center
	Submit SubmitFunc
	// Thumbnail maps a thumbnail token to a file path. Optional.
	Thumbnail func(token string) string
	// Start is the initial watermark, normally Store.MaxID at startup.
	Start int64
}

// Watcher reacts to store changes.
type Watcher struct {
	cfg Config

	mu        sync.Mutex
	watermark int64
}

// New returns a Watcher whose watermark starts at cfg.Start.
func New(cfg Config) *Watcher {
	return &Watcher{cfg: cfg, watermark: cfg.Start}
}

// Watermark returns the highest id enqueued so far.
func (w *Watcher) Watermark() int64 {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.watermark
}

// OnChange runs one pass. It returns the number of tasks submitted.
func (w *Watcher) OnChange(ctx context.Context) int {
	w.mu.Lock()
	defer w.mu.Unlock()

	captures, err := w.cfg.Source.CapturesAfter(ctx, w.watermark)
	if err != nil {
		log.Error().Err(err).Int64("watermark", w.watermark).Msg("Failed to query new captures")
		return 0
	}

	submitted := 0
	for _, c := range captures {
		if c.ID <= w.watermark {
			continue
		}
		prev := w.watermark
		w.watermark = c.ID

		icon := ""
		if c.ThumbnailToken != "" && w.cfg.Thumbnail != nil {
			icon = w.cfg.Thumbnail(c.ThumbnailToken)
		}
		n := w.cfg.Center.New(c.DisplayName, icon)
		task := uploader.NewTask(c, n)

		if !w.cfg.Submit(task) {
			w.watermark = prev
			w.cfg.Center.Release(n)
			log.Warn().Int64("id", c.ID).Msg("Queue closed, capture not enqueued")
			break
		}
		task.MarkQueued()

		log.Debug().
			Int64("id", c.ID).
			Str("capture", c.DisplayName).
			Str("task", task.ID.String()).
			Msg("Upload task enqueued")
		submitted++
	}
	return submitted
}
