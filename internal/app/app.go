// Package app owns the uploader's lifecycle: it wires the media store,
// watcher, queue and pipeline together and tears them down on exit.
package app

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"sync"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/fpang/photo-uploader/internal/cli"
	"github.com/fpang/photo-uploader/internal/config"
	"github.com/fpang/photo-uploader/internal/mediastore"
	"github.com/fpang/photo-uploader/internal/notify"
	"github.com/fpang/photo-uploader/internal/queue"
	"github.com/fpang/photo-uploader/internal/uploader"
	"github.com/fpang/photo-uploader/internal/watcher"
)

// ErrAlreadyStarted is returned by a second StartWatching call.
var ErrAlreadyStarted = errors.New("app: already watching")

// indexerStopTimeout bounds how long shutdown waits for the directory
// watcher to leave a sync in progress.
const indexerStopTimeout = 2 * time.Second

// Config wires an App.
type Config struct {
	Deps     uploader.Deps
	Displays []notify.Display
	// PhotoDir overrides the configured photo directory when set.
	PhotoDir string
	// Exit terminates the process. Defaults to os.Exit.
	Exit func(code int)
}

// App is one running uploader.
type App struct {
	cfg      Config
	center   *notify.Center
	pipeline *uploader.Pipeline

	mu          sync.Mutex
	started     time.Time
	media       *mediastore.Store
	indexer     *mediastore.Indexer
	queue       *queue.Queue[*uploader.Task]
	watcher     *watcher.Watcher
	unsubscribe func()
	cancel      context.CancelFunc
	indexerDone chan struct{}

	shutdownOnce sync.Once
}

// New returns an App that has not started watching.
func New(cfg Config) *App {
	if cfg.Exit == nil {
		cfg.Exit = os.Exit
	}
	return &App{
		cfg:      cfg,
		center:   notify.NewCenter(cfg.Displays...),
		pipeline: uploader.NewPipeline(cfg.Deps),
	}
}

// Center returns the notification center shared by all tasks.
func (a *App) Center() *notify.Center {
	return a.center
}

func (a *App) settings() config.Settings {
	s := a.cfg.Deps.Settings.Current()
	if a.cfg.PhotoDir != "" {
		s.PhotoDir = a.cfg.PhotoDir
	}
	return s
}

func (a *App) openIndex(ctx context.Context, s config.Settings) (*mediastore.Store, *mediastore.Indexer, error) {
	if err := os.MkdirAll(s.StateDir, 0o700); err != nil {
		return nil, nil, fmt.Errorf("create state dir: %w", err)
	}
	media, err := mediastore.Open(ctx, s.DatabasePath())
	if err != nil {
		return nil, nil, err
	}
	ix := mediastore.NewIndexer(media, mediastore.IndexerConfig{
		PhotoDir:        s.PhotoDir,
		ThumbnailDir:    s.ThumbnailDir(),
		SettlingDelay:   s.Settling(),
		PollingInterval: s.Polling(),
	})
	return media, ix, nil
}

// StartWatching indexes the photo directory, sets the watermark to the
// newest capture already known and begins uploading every capture added
// after that. It returns once watching has started.
func (a *App) StartWatching(ctx context.Context) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.media != nil {
		return ErrAlreadyStarted
	}

	s := a.settings()
	media, ix, err := a.openIndex(ctx, s)
	if err != nil {
		return err
	}

	added, err := ix.Sync(ctx)
	if err != nil {
		media.Close()
		return fmt.Errorf("initial index: %w", err)
	}
	start, err := media.MaxID(ctx)
	if err != nil {
		media.Close()
		return fmt.Errorf("read watermark: %w", err)
	}

	runCtx, cancel := context.WithCancel(context.Background())

	q := queue.New[*uploader.Task](a.pipeline.Handle)
	w := watcher.New(watcher.Config{
		Source:    media,
		Center:    a.center,
		Submit:    q.Submit,
		Thumbnail: ix.ThumbnailPath,
		Start:     start,
	})

	a.media = media
	a.indexer = ix
	a.queue = q
	a.watcher = w
	a.cancel = cancel
	a.started = time.Now()
	a.unsubscribe = media.Subscribe(func() { w.OnChange(runCtx) })

	q.Start(runCtx)

	a.indexerDone = make(chan struct{})
	go func() {
		defer close(a.indexerDone)
		if err := ix.Run(runCtx); err != nil {
			log.Error().Err(err).Str("directory", s.PhotoDir).Msg("Directory watcher stopped")
		}
	}()

	log.Info().
		Str("directory", s.PhotoDir).
		Int("indexed", added).
		Int64("watermark", start).
		Msg("Watching for new captures")
	return nil
}

// Watermark returns the highest capture id enqueued so far, or -2 before
// StartWatching.
func (a *App) Watermark() int64 {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.watcher == nil {
		return -2
	}
	return a.watcher.Watermark()
}

// ShutdownImmediately drops pending uploads, clears every notification,
// stops watching and exits with status 0. The upload in progress is
// cancelled, not awaited. Safe to call more than once and before
// StartWatching.
func (a *App) ShutdownImmediately() {
	a.shutdownOnce.Do(func() {
		defer a.cfg.Exit(0)
		defer func() {
			if r := recover(); r != nil {
				log.Error().Interface("panic", r).Msg("Recovered during shutdown")
			}
		}()

		a.mu.Lock()
		defer a.mu.Unlock()

		dropped := 0
		if a.queue != nil {
			dropped = len(a.queue.ShutdownNow())
		}
		a.center.ClearAll()

		if a.unsubscribe != nil {
			a.unsubscribe()
		}
		if a.cancel != nil {
			a.cancel()
		}
		if a.indexerDone != nil {
			select {
			case <-a.indexerDone:
			case <-time.After(indexerStopTimeout):
				log.Warn().Msg("Directory watcher did not stop in time")
			}
		}
		if a.media != nil {
			if err := a.media.Close(); err != nil {
				log.Warn().Err(err).Msg("Failed to close media store")
			}
		}

		evt := log.Info().Int("dropped", dropped)
		if !a.started.IsZero() {
			evt = evt.Str("uptime", cli.FormatDurationShort(time.Since(a.started)))
		}
		evt.Msg("Shutting down")
	})
}

// DryRun indexes the photo directory and writes the captures it knows
// about to out, without uploading anything.
func (a *App) DryRun(ctx context.Context, out io.Writer) error {
	s := a.settings()
	media, ix, err := a.openIndex(ctx, s)
	if err != nil {
		return err
	}
	defer media.Close()

	if _, err := ix.Sync(ctx); err != nil {
		return fmt.Errorf("index: %w", err)
	}
	captures, err := media.CapturesAfter(ctx, -1)
	if err != nil {
		return err
	}
	for _, c := range captures {
		fmt.Fprintf(out, "%6d  %-32s  %10s  %s\n",
			c.ID, c.DisplayName, cli.FormatSize(c.Size), c.TakenAt.Format(time.DateTime))
	}

	start := int64(-1)
	if n := len(captures); n > 0 {
		start = captures[n-1].ID
	}
	fmt.Fprintf(out, "\n%d captures indexed in %s. Uploads start above id %d", len(captures), s.PhotoDir, start)
	if s.Album != "" {
		fmt.Fprintf(out, " into album %q", s.Album)
	}
	fmt.Fprintln(out, ".")
	return nil
}
