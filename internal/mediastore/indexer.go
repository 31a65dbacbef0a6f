package mediastore

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/fpang/photo-uploader/internal/filehandler"
)

// IndexerConfig configures an Indexer.
type IndexerConfig struct {
	PhotoDir        string
	ThumbnailDir    string
	SettlingDelay   time.Duration
	PollingInterval time.Duration
}

// Indexer keeps the Store in step with the photo directory.
type Indexer struct {
	store *Store
	cfg   IndexerConfig

	// serialises Sync so the fsnotify and polling paths never insert at once
	mu sync.Mutex
}

// NewIndexer returns an Indexer feeding store.
func NewIndexer(store *Store, cfg IndexerConfig) *Indexer {
	if cfg.SettlingDelay <= 0 {
		cfg.SettlingDelay = 2 * time.Second
	}
	if cfg.PollingInterval <= 0 {
		cfg.PollingInterval = 30 * time.Second
	}
	return &Indexer{store: store, cfg: cfg}
}

// Sync indexes every image under the photo directory that is not in the
// store yet. New images are inserted oldest capture first, ties broken by
// path. Empty files are left for a later pass since they are usually still
// being written. Returns the number of captures added.
func (ix *Indexer) Sync(ctx context.Context) (int, error) {
	ix.mu.Lock()
	defer ix.mu.Unlock()

	known, err := ix.store.KnownPaths(ctx)
	if err != nil {
		return 0, err
	}

	files, err := filehandler.ScanDirectoryWithOptions(ix.cfg.PhotoDir, filehandler.ScanOptions{
		Skip: func(p string) bool {
			_, ok := known[p]
			return ok
		},
	})
	if err != nil {
		return 0, fmt.Errorf("scan %s: %w", ix.cfg.PhotoDir, err)
	}

	pending := files[:0]
	for _, f := range files {
		if f.Size > 0 {
			pending = append(pending, f)
		}
	}
	if len(pending) == 0 {
		return 0, nil
	}

	sort.SliceStable(pending, func(i, j int) bool {
		ti, tj := pending[i].CaptureTime(), pending[j].CaptureTime()
		if !ti.Equal(tj) {
			return ti.Before(tj)
		}
		return pending[i].Path < pending[j].Path
	})

	captures := make([]Capture, 0, len(pending))
	for _, f := range pending {
		captures = append(captures, Capture{
			Path:           f.Path,
			DisplayName:    f.DisplayName(),
			MIMEType:       f.MIMEType,
			Size:           f.Size,
			TakenAt:        f.CaptureTime(),
			ThumbnailToken: ix.thumbnail(f.Path),
		})
	}

	added, err := ix.store.Insert(ctx, captures)
	if err != nil {
		return 0, err
	}
	log.Info().Int("added", added).Str("directory", ix.cfg.PhotoDir).Msg("Photo directory indexed")
	return added, nil
}

// thumbnail writes a thumbnail and returns its token, or "" if none could
// be made.
func (ix *Indexer) thumbnail(path string) string {
	if ix.cfg.ThumbnailDir == "" {
		return ""
	}
	token := uuid.NewString()
	if _, err := filehandler.WriteThumbnail(path, ix.cfg.ThumbnailDir, token, filehandler.DefaultThumbnailMaxDimension); err != nil {
		if !errors.Is(err, filehandler.ErrNoThumbnail) {
			log.Debug().Err(err).Str("path", path).Msg("Thumbnail generation failed")
		}
		return ""
	}
	return token
}

// ThumbnailPath returns the file for a thumbnail token, or "" for none.
func (ix *Indexer) ThumbnailPath(token string) string {
	if token == "" || ix.cfg.ThumbnailDir == "" {
		return ""
	}
	return filepath.Join(ix.cfg.ThumbnailDir, token+".jpg")
}

// Run watches the photo directory until ctx is done. File events schedule a
// Sync once the directory has been quiet for the settling delay; a polling
// ticker runs Sync regardless, covering events fsnotify misses.
func (ix *Indexer) Run(ctx context.Context) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("create fsnotify watcher: %w", err)
	}
	defer watcher.Close()

	if err := addTree(watcher, ix.cfg.PhotoDir); err != nil {
		return err
	}

	settle := time.NewTimer(ix.cfg.SettlingDelay)
	settle.Stop()
	defer settle.Stop()

	poll := time.NewTicker(ix.cfg.PollingInterval)
	defer poll.Stop()

	log.Info().
		Str("directory", ix.cfg.PhotoDir).
		Dur("settling_delay", ix.cfg.SettlingDelay).
		Dur("polling_interval", ix.cfg.PollingInterval).
		Msg("Watching photo directory")

	for {
		select {
		case <-ctx.Done():
			return nil

		case ev, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if !ev.Has(fsnotify.Create) && !ev.Has(fsnotify.Write) && !ev.Has(fsnotify.Rename) {
				continue
			}
			if ev.Has(fsnotify.Create) {
				if info, err := os.Stat(ev.Name); err == nil && info.IsDir() {
					if err := addTree(watcher, ev.Name); err != nil {
						log.Warn().Err(err).Str("path", ev.Name).Msg("Failed to watch new directory")
					}
				}
			}
			settle.Reset(ix.cfg.SettlingDelay)

		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			log.Warn().Err(err).Msg("fsnotify error")

		case <-settle.C:
			ix.syncLogged(ctx, "fsnotify")

		case <-poll.C:
			ix.syncLogged(ctx, "poll")
		}
	}
}

func (ix *Indexer) syncLogged(ctx context.Context, trigger string) {
	if _, err := ix.Sync(ctx); err != nil && ctx.Err() == nil {
		log.Warn().Err(err).Str("trigger", trigger).Msg("Photo directory sync failed")
	}
}

// addTree watches root and every non-hidden directory below it. fsnotify
// watches are not recursive.
func addTree(w *fsnotify.Watcher, root string) error {
	return filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			if path == root {
				return fmt.Errorf("watch %s: %w", root, err)
			}
			return nil
		}
		if !d.IsDir() {
			return nil
		}
		if path != root && strings.HasPrefix(d.Name(), ".") {
			return fs.SkipDir
		}
		if err := w.Add(path); err != nil {
			return fmt.Errorf("watch %s: %w", path, err)
		}
		return nil
	})
}
