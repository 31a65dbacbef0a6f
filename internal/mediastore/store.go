// Package mediastore indexes the photo directory into SQLite and publishes
// a change feed.
//
// Every indexed image gets an id from an AUTOINCREMENT column, so ids grow
// with indexing order and are never reused. Images found in the same scan
// are inserted oldest capture first, which makes id order match capture
// order.
//
// The database is configured with:
//   - WAL mode for concurrent reads during writes
//   - a 5-second busy timeout for lock contention
//   - a single open connection (SQLite allows one writer)
package mediastore

import (
	"context"
	"database/sql"
	"fmt"
	"sync"
	"time"

	_ "github.com/mattn/go-sqlite3"
	"github.com/rs/zerolog/log"
)

// Capture is one indexed image.
type Capture struct {
	ID             int64
	Path           string
	DisplayName    string
	MIMEType       string
	Size           int64
	TakenAt        time.Time
	ThumbnailToken string
}

// Store is the media index.
type Store struct {
	db *sql.DB

	mu      sync.Mutex
	subs    map[int]func()
	nextSub int
}

// Open creates or opens the index at path and applies migrations.
func Open(ctx context.Context, path string) (*Store, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	if err := applyPragmas(ctx, db); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to apply pragmas: %w", err)
	}

	if err := runMigrations(ctx, db); err != nil {
		db.Close()
		return nil, err
	}

	return &Store{db: db, subs: make(map[int]func())}, nil
}

func applyPragmas(ctx context.Context, db *sql.DB) error {
	pragmas := []string{
		"PRAGMA journal_mode = WAL",
		"PRAGMA synchronous = NORMAL",
		"PRAGMA busy_timeout = 5000",
	}
	for _, pragma := range pragmas {
		if _, err := db.ExecContext(ctx, pragma); err != nil {
			return fmt.Errorf("failed to execute %q: %w", pragma, err)
		}
	}
	return nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	if s.db == nil {
		return nil
	}
	return s.db.Close()
}

const captureColumns = "id, path, display_name, mime_type, size_bytes, taken_at, thumbnail_token"

// CapturesAfter returns every capture with an id greater than id, in
// ascending id order.
func (s *Store) CapturesAfter(ctx context.Context, id int64) ([]Capture, error) {
	rows, err := s.db.QueryContext(ctx,
		"SELECT "+captureColumns+" FROM captures WHERE id > ? ORDER BY id ASC", id)
	if err != nil {
		return nil, fmt.Errorf("query captures: %w", err)
	}
	defer rows.Close()

	var out []Capture
	for rows.Next() {
		var c Capture
		var taken int64
		if err := rows.Scan(&c.ID, &c.Path, &c.DisplayName, &c.MIMEType, &c.Size, &taken, &c.ThumbnailToken); err != nil {
			return nil, fmt.Errorf("scan capture: %w", err)
		}
		c.TakenAt = time.Unix(0, taken)
		out = append(out, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate captures: %w", err)
	}
	return out, nil
}

// MaxID returns the highest id in the index, or -1 when it is empty.
func (s *Store) MaxID(ctx context.Context) (int64, error) {
	var id int64
	if err := s.db.QueryRowContext(ctx, "SELECT COALESCE(MAX(id), -1) FROM captures").Scan(&id); err != nil {
		return 0, fmt.Errorf("query max id: %w", err)
	}
	return id, nil
}

// KnownPaths returns the set of indexed paths.
func (s *Store) KnownPaths(ctx context.Context) (map[string]struct{}, error) {
	rows, err := s.db.QueryContext(ctx, "SELECT path FROM captures")
	if err != nil {
		return nil, fmt.Errorf("query paths: %w", err)
	}
	defer rows.Close()

	known := make(map[string]struct{})
	for rows.Next() {
		var p string
		if err := rows.Scan(&p); err != nil {
			return nil, fmt.Errorf("scan path: %w", err)
		}
		known[p] = struct{}{}
	}
	return known, rows.Err()
}

// Insert adds captures in one transaction, in the order given, and notifies
// subscribers if anything was added. Paths that are already indexed are
// ignored. The assigned ids are written back into cs.
func (s *Store) Insert(ctx context.Context, cs []Capture) (int, error) {
	if len(cs) == 0 {
		return 0, nil
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("begin insert: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx, `INSERT OR IGNORE INTO captures
		(path, display_name, mime_type, size_bytes, taken_at, thumbnail_token, indexed_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return 0, fmt.Errorf("prepare insert: %w", err)
	}
	defer stmt.Close()

	now := time.Now().UnixNano()
	added := 0
	for i := range cs {
		c := &cs[i]
		res, err := stmt.ExecContext(ctx, c.Path, c.DisplayName, c.MIMEType, c.Size, c.TakenAt.UnixNano(), c.ThumbnailToken, now)
		if err != nil {
			return 0, fmt.Errorf("insert %s: %w", c.Path, err)
		}
		if n, _ := res.RowsAffected(); n == 0 {
			continue
		}
		c.ID, _ = res.LastInsertId()
		added++
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("commit insert: %w", err)
	}

	if added > 0 {
		log.Debug().Int("added", added).Msg("Captures indexed")
		s.notify()
	}
	return added, nil
}

// Subscribe registers fn to be called after every insert batch. Each call
// runs on its own goroutine and carries no payload; handlers must re-query.
// The returned func removes the subscription.
func (s *Store) Subscribe(fn func()) (unsubscribe func()) {
	s.mu.Lock()
	id := s.nextSub
	s.nextSub++
	s.subs[id] = fn
	s.mu.Unlock()

	return func() {
		s.mu.Lock()
		delete(s.subs, id)
		s.mu.Unlock()
	}
}

func (s *Store) notify() {
	s.mu.Lock()
	fns := make([]func(), 0, len(s.subs))
	for _, fn := range s.subs {
		fns = append(fns, fn)
	}
	s.mu.Unlock()

	for _, fn := range fns {
		go fn()
	}
}
