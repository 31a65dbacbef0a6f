// Package config loads the uploader's settings.
//
// Sources are applied in order, later ones winning:
//
//  1. Built-in defaults (see Defaults).
//  2. The YAML file (default ~/.photo-uploader/config.yaml).
//  3. Environment overrides (PHOTO_UPLOADER_USERNAME, PHOTO_UPLOADER_PASSWORD,
//     PHOTO_UPLOADER_ALBUM).
//
// Settings are read-only to the upload pipeline. Store.Current re-reads the
// file when it changes so the destination album can be switched between
// uploads without a restart.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Environment overrides.
const (
	EnvUsername = "PHOTO_UPLOADER_USERNAME"
	EnvPassword = "PHOTO_UPLOADER_PASSWORD"
	EnvAlbum    = "PHOTO_UPLOADER_ALBUM"
)

// NetworkPolicy restricts when network access is permitted.
type NetworkPolicy string

const (
	// PolicyAny allows uploads over any connected network.
	PolicyAny NetworkPolicy = "any"
	// PolicyWiFiOnly allows uploads only over a wireless interface.
	PolicyWiFiOnly NetworkPolicy = "wifi"
)

// Valid reports whether p is a known policy.
func (p NetworkPolicy) Valid() bool {
	return p == PolicyAny || p == PolicyWiFiOnly
}

// ArchiveSettings configures the optional S3 mirror.
type ArchiveSettings struct {
	Bucket string `yaml:"bucket"`
	Prefix string `yaml:"prefix"`
}

// Enabled reports whether a bucket is configured.
func (a ArchiveSettings) Enabled() bool {
	return a.Bucket != ""
}

// Settings is one snapshot of the configuration.
type Settings struct {
	PhotoDir         string          `yaml:"photo_dir"`
	StateDir         string          `yaml:"state_dir"`
	ServiceURL       string          `yaml:"service_url"`
	Username         string          `yaml:"username"`
	Password         string          `yaml:"password"`
	PasswordSSMParam string          `yaml:"password_ssm_param"`
	Network          NetworkPolicy   `yaml:"network"`
	Album            string          `yaml:"album"`
	Notifications    string          `yaml:"notifications"`
	PollingInterval  string          `yaml:"polling_interval"`
	SettlingDelay    string          `yaml:"settling_delay"`
	Metrics          bool            `yaml:"metrics"`
	Archive          ArchiveSettings `yaml:"archive"`
}

// Defaults returns the built-in settings.
func Defaults() Settings {
	home, err := os.UserHomeDir()
	if err != nil {
		home = "."
	}
	return Settings{
		PhotoDir:        filepath.Join(home, "Pictures", "Camera"),
		StateDir:        filepath.Join(home, ".photo-uploader"),
		Network:         PolicyAny,
		Notifications:   "enabled",
		PollingInterval: "30s",
		SettlingDelay:   "2s",
	}
}

// DefaultPath returns the default location of the YAML file.
func DefaultPath() string {
	return filepath.Join(Defaults().StateDir, "config.yaml")
}

// NotificationsEnabled reports whether the status display is on: any value
// containing "enabled" turns it on.
func (s Settings) NotificationsEnabled() bool {
	return strings.Contains(s.Notifications, "enabled")
}

// Polling returns the parsed polling interval, or 30s when unset or invalid.
func (s Settings) Polling() time.Duration {
	return parseDuration(s.PollingInterval, 30*time.Second)
}

// Settling returns the parsed settling delay, or 2s when unset or invalid.
func (s Settings) Settling() time.Duration {
	return parseDuration(s.SettlingDelay, 2*time.Second)
}

// DatabasePath is where the media index lives.
func (s Settings) DatabasePath() string {
	return filepath.Join(s.StateDir, "media.db")
}

// ThumbnailDir is where generated thumbnails are written.
func (s Settings) ThumbnailDir() string {
	return filepath.Join(s.StateDir, "thumbs")
}

// Validate checks the fields the daemon cannot start without. Identity and
// album are verified per task instead, so a missing value is reported as a
// configuration failure on that upload.
func (s Settings) Validate() error {
	if s.PhotoDir == "" {
		return fmt.Errorf("photo_dir is required")
	}
	if s.StateDir == "" {
		return fmt.Errorf("state_dir is required")
	}
	if s.ServiceURL == "" {
		return fmt.Errorf("service_url is required")
	}
	if !s.Network.Valid() {
		return fmt.Errorf("network must be %q or %q, got %q", PolicyAny, PolicyWiFiOnly, s.Network)
	}
	return nil
}

// Load builds Settings from defaults, the YAML file at path (if it exists)
// and environment overrides. A missing file is not an error.
func Load(path string) (Settings, error) {
	s := Defaults()
	if err := overlayFile(&s, path); err != nil {
		return Settings{}, err
	}
	overlayEnv(&s)
	s.PhotoDir = expandHome(s.PhotoDir)
	s.StateDir = expandHome(s.StateDir)
	return s, nil
}

func overlayFile(s *Settings, path string) error {
	if path == "" {
		return nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return fmt.Errorf("read config %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, s); err != nil {
		return fmt.Errorf("parse config %s: %w", path, err)
	}
	return nil
}

func overlayEnv(s *Settings) {
	if v := os.Getenv(EnvUsername); v != "" {
		s.Username = v
	}
	if v := os.Getenv(EnvPassword); v != "" {
		s.Password = v
	}
	if v := os.Getenv(EnvAlbum); v != "" {
		s.Album = v
	}
}

func expandHome(p string) string {
	if p == "~" || strings.HasPrefix(p, "~/") {
		if home, err := os.UserHomeDir(); err == nil {
			return filepath.Join(home, strings.TrimPrefix(p, "~"))
		}
	}
	return p
}

func parseDuration(v string, fallback time.Duration) time.Duration {
	if v == "" {
		return fallback
	}
	d, err := time.ParseDuration(v)
	if err != nil || d <= 0 {
		return fallback
	}
	return d
}
