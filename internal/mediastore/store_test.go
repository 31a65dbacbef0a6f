package mediastore

import (
	"context"
	"image"
	"image/png"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(context.Background(), filepath.Join(t.TempDir(), "media.db"))
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func capture(path string, taken time.Time) Capture {
	return Capture{Path: path, DisplayName: filepath.Base(path), MIMEType: "image/jpeg", Size: 10, TakenAt: taken}
}

func TestOpen_Idempotent(t *testing.T) {
	path := filepath.Join(t.TempDir(), "media.db")
	s1, err := Open(context.Background(), path)
	require.NoError(t, err)
	require.NoError(t, s1.Close())

	s2, err := Open(context.Background(), path)
	require.NoError(t, err)
	require.NoError(t, s2.Close())
}

func TestMaxID_EmptyIsMinusOne(t *testing.T) {
	s := openTestStore(t)
	id, err := s.MaxID(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int64(-1), id)
}

func TestInsert_AssignsAscendingIDs(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()
	now := time.Now()

	cs := []Capture{capture("/p/a.jpg", now), capture("/p/b.jpg", now), capture("/p/c.jpg", now)}
	added, err := s.Insert(ctx, cs)
	require.NoError(t, err)
	assert.Equal(t, 3, added)
	assert.Less(t, cs[0].ID, cs[1].ID)
	assert.Less(t, cs[1].ID, cs[2].ID)

	maxID, err := s.MaxID(ctx)
	require.NoError(t, err)
	assert.Equal(t, cs[2].ID, maxID)
}

func TestInsert_IgnoresKnownPaths(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	_, err := s.Insert(ctx, []Capture{capture("/p/a.jpg", time.Now())})
	require.NoError(t, err)

	added, err := s.Insert(ctx, []Capture{capture("/p/a.jpg", time.Now()), capture("/p/b.jpg", time.Now())})
	require.NoError(t, err)
	assert.Equal(t, 1, added)

	known, err := s.KnownPaths(ctx)
	require.NoError(t, err)
	assert.Len(t, known, 2)
}

func TestCapturesAfter(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()
	taken := time.Date(2024, 6, 1, 9, 30, 0, 0, time.UTC)

	cs := []Capture{capture("/p/1.jpg", taken), capture("/p/2.jpg", taken), capture("/p/3.jpg", taken)}
	_, err := s.Insert(ctx, cs)
	require.NoError(t, err)

	got, err := s.CapturesAfter(ctx, cs[0].ID)
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "2.jpg", got[0].DisplayName)
	assert.Equal(t, "3.jpg", got[1].DisplayName)
	assert.True(t, got[0].TakenAt.Equal(taken))

	none, err := s.CapturesAfter(ctx, cs[2].ID)
	require.NoError(t, err)
	assert.Empty(t, none)
}

func TestIDsNeverReused(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	cs := []Capture{capture("/p/a.jpg", time.Now())}
	_, err := s.Insert(ctx, cs)
	require.NoError(t, err)

	_, err = s.db.ExecContext(ctx, "DELETE FROM captures")
	require.NoError(t, err)

	next := []Capture{capture("/p/b.jpg", time.Now())}
	_, err = s.Insert(ctx, next)
	require.NoError(t, err)
	assert.Greater(t, next[0].ID, cs[0].ID)
}

func TestSubscribe_NotifiedPerBatch(t *testing.T) {
	s := openTestStore(t)
	fired := make(chan struct{}, 4)
	unsubscribe := s.Subscribe(func() { fired <- struct{}{} })

	_, err := s.Insert(context.Background(), []Capture{capture("/p/a.jpg", time.Now()), capture("/p/b.jpg", time.Now())})
	require.NoError(t, err)

	select {
	case <-fired:
	case <-time.After(2 * time.Second):
		t.Fatal("subscriber not notified")
	}

	unsubscribe()
	_, err = s.Insert(context.Background(), []Capture{capture("/p/c.jpg", time.Now())})
	require.NoError(t, err)

	select {
	case <-fired:
		t.Fatal("unsubscribed handler was called")
	case <-time.After(100 * time.Millisecond):
	}
}

func TestSubscribe_NoNotifyWhenNothingAdded(t *testing.T) {
	s := openTestStore(t)
	_, err := s.Insert(context.Background(), []Capture{capture("/p/a.jpg", time.Now())})
	require.NoError(t, err)

	fired := make(chan struct{}, 1)
	s.Subscribe(func() { fired <- struct{}{} })

	_, err = s.Insert(context.Background(), []Capture{capture("/p/a.jpg", time.Now())})
	require.NoError(t, err)

	select {
	case <-fired:
		t.Fatal("unexpected notification for duplicate insert")
	case <-time.After(100 * time.Millisecond):
	}
}

func writeImage(t *testing.T, path string, mod time.Time) {
	t.Helper()
	f, err := os.Create(path)
	require.NoError(t, err)
	require.NoError(t, png.Encode(f, image.NewRGBA(image.Rect(0, 0, 8, 8))))
	require.NoError(t, f.Close())
	require.NoError(t, os.Chtimes(path, mod, mod))
}

func TestIndexer_SyncOrdersByCaptureTime(t *testing.T) {
	s := openTestStore(t)
	photos := t.TempDir()
	thumbs := filepath.Join(t.TempDir(), "thumbs")
	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

	writeImage(t, filepath.Join(photos, "a.png"), base.Add(2*time.Hour))
	writeImage(t, filepath.Join(photos, "b.png"), base)
	writeImage(t, filepath.Join(photos, "c.png"), base.Add(time.Hour))
	require.NoError(t, os.WriteFile(filepath.Join(photos, "partial.png"), nil, 0o644))

	ix := NewIndexer(s, IndexerConfig{PhotoDir: photos, ThumbnailDir: thumbs})
	added, err := ix.Sync(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 3, added)

	got, err := s.CapturesAfter(context.Background(), -1)
	require.NoError(t, err)
	require.Len(t, got, 3)
	assert.Equal(t, []string{"b.png", "c.png", "a.png"}, []string{got[0].DisplayName, got[1].DisplayName, got[2].DisplayName})

	for _, c := range got {
		require.NotEmpty(t, c.ThumbnailToken)
		_, err := os.Stat(ix.ThumbnailPath(c.ThumbnailToken))
		assert.NoError(t, err)
	}

	again, err := ix.Sync(context.Background())
	require.NoError(t, err)
	assert.Zero(t, again)
}

func TestIndexer_RunPicksUpNewFiles(t *testing.T) {
	s := openTestStore(t)
	photos := t.TempDir()

	ix := NewIndexer(s, IndexerConfig{
		PhotoDir:        photos,
		SettlingDelay:   50 * time.Millisecond,
		PollingInterval: time.Hour,
	})

	fired := make(chan struct{}, 1)
	s.Subscribe(func() {
		select {
		case fired <- struct{}{}:
		default:
		}
	})

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- ix.Run(ctx) }()

	// Give the watcher time to register before writing.
	time.Sleep(100 * time.Millisecond)
	writeImage(t, filepath.Join(photos, "new.png"), time.Now())

	select {
	case <-fired:
	case <-time.After(5 * time.Second):
		t.Fatal("indexer did not pick up new file")
	}

	cancel()
	require.NoError(t, <-done)

	maxID, err := s.MaxID(context.Background())
	require.NoError(t, err)
	assert.GreaterOrEqual(t, maxID, int64(1))
}
