package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, dir, body string) string {
	t.Helper()
	path := filepath.Join(dir, "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func TestLoad_MissingFileUsesDefaults(t *testing.T) {
	s, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	require.NoError(t, err)

	assert.Equal(t, PolicyAny, s.Network)
	assert.True(t, s.NotificationsEnabled())
	assert.Equal(t, 30*time.Second, s.Polling())
	assert.Equal(t, 2*time.Second, s.Settling())
}

func TestLoad_FileOverridesDefaults(t *testing.T) {
	dir := t.TempDir()
	path := writeConfig(t, dir, `
photo_dir: /photos
state_dir: /state
service_url: https://photos.example.com/api
username: jane@example.com
network: wifi
album: Camera Uploads
notifications: disabled
polling_interval: 1m
archive:
  bucket: backups
  prefix: camera/
`)

	s, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "/photos", s.PhotoDir)
	assert.Equal(t, "/state/media.db", s.DatabasePath())
	assert.Equal(t, PolicyWiFiOnly, s.Network)
	assert.Equal(t, "Camera Uploads", s.Album)
	assert.False(t, s.NotificationsEnabled())
	assert.Equal(t, time.Minute, s.Polling())
	assert.True(t, s.Archive.Enabled())
	assert.NoError(t, s.Validate())
}

func TestLoad_EnvOverridesFile(t *testing.T) {
	path := writeConfig(t, t.TempDir(), "username: file-user\nalbum: File Album\n")
	t.Setenv(EnvUsername, "env-user")
	t.Setenv(EnvPassword, "env-secret")
	t.Setenv(EnvAlbum, "Env Album")

	s, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "env-user", s.Username)
	assert.Equal(t, "env-secret", s.Password)
	assert.Equal(t, "Env Album", s.Album)
}

func TestLoad_InvalidYAML(t *testing.T) {
	path := writeConfig(t, t.TempDir(), "album: [unterminated\n")
	_, err := Load(path)
	assert.Error(t, err)
}

func TestValidate(t *testing.T) {
	base := Settings{PhotoDir: "/p", StateDir: "/s", ServiceURL: "http://x", Network: PolicyAny}
	require.NoError(t, base.Validate())

	noURL := base
	noURL.ServiceURL = ""
	assert.Error(t, noURL.Validate())

	badPolicy := base
	badPolicy.Network = "metered"
	assert.Error(t, badPolicy.Validate())
}

func TestParseDuration_Fallbacks(t *testing.T) {
	assert.Equal(t, 5*time.Second, parseDuration("", 5*time.Second))
	assert.Equal(t, 5*time.Second, parseDuration("soon", 5*time.Second))
	assert.Equal(t, 5*time.Second, parseDuration("-1s", 5*time.Second))
	assert.Equal(t, 3*time.Second, parseDuration("3s", 5*time.Second))
}

func TestStore_ReloadsOnChange(t *testing.T) {
	dir := t.TempDir()
	path := writeConfig(t, dir, "album: First\n")

	st, err := NewStore(path)
	require.NoError(t, err)
	assert.Equal(t, "First", st.Current().Album)

	require.NoError(t, os.WriteFile(path, []byte("album: Second\n"), 0o600))
	future := time.Now().Add(time.Hour)
	require.NoError(t, os.Chtimes(path, future, future))

	assert.Equal(t, "Second", st.Current().Album)
}

func TestStore_KeepsLastGoodOnBadReload(t *testing.T) {
	dir := t.TempDir()
	path := writeConfig(t, dir, "album: Good\n")

	st, err := NewStore(path)
	require.NoError(t, err)

	require.NoError(t, os.WriteFile(path, []byte("album: [broken\n"), 0o600))
	future := time.Now().Add(time.Hour)
	require.NoError(t, os.Chtimes(path, future, future))

	assert.Equal(t, "Good", st.Current().Album)
}

func TestStatic(t *testing.T) {
	st := Static(Settings{Album: "Fixed"})
	assert.Equal(t, "Fixed", st.Current().Album)
	assert.Empty(t, st.Path())
}
