package config

import (
	"os"
	"sync"
	"time"

	"github.com/rs/zerolog/log"
)

// Store serves the current Settings, reloading the file when its
// modification time changes. If a reload fails the last good snapshot is
// kept.
type Store struct {
	path string

	mu      sync.Mutex
	current Settings
	modTime time.Time
}

// NewStore loads the file at path and returns a Store serving it.
func NewStore(path string) (*Store, error) {
	s, err := Load(path)
	if err != nil {
		return nil, err
	}
	st := &Store{path: path, current: s}
	if info, err := os.Stat(path); err == nil {
		st.modTime = info.ModTime()
	}
	return st, nil
}

// Static returns a Store that always serves s. Used by tests and dry runs.
func Static(s Settings) *Store {
	return &Store{current: s}
}

// Path returns the backing file path, empty for a static store.
func (st *Store) Path() string {
	return st.path
}

// Current returns the latest Settings snapshot.
func (st *Store) Current() Settings {
	st.mu.Lock()
	defer st.mu.Unlock()

	if st.path == "" {
		return st.current
	}

	info, err := os.Stat(st.path)
	if err != nil || info.ModTime().Equal(st.modTime) {
		return st.current
	}

	s, err := Load(st.path)
	if err != nil {
		log.Warn().Err(err).Str("path", st.path).Msg("Config reload failed, keeping previous settings")
		return st.current
	}

	log.Info().Str("path", st.path).Str("album", s.Album).Msg("Config reloaded")
	st.current = s
	st.modTime = info.ModTime()
	return st.current
}
