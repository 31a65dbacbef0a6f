package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSetAlbum_ReplacesExistingKey(t *testing.T) {
	t.Setenv(EnvAlbum, "")
	path := writeConfig(t, t.TempDir(), "# uploader\nusername: jane@example.com\nalbum: Old\nnetwork: wifi\n")

	require.NoError(t, SetAlbum(path, "Camera Uploads"))

	s, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "Camera Uploads", s.Album)
	assert.Equal(t, "jane@example.com", s.Username)
	assert.Equal(t, PolicyWiFiOnly, s.Network)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "# uploader")
}

func TestSetAlbum_AppendsWhenAbsent(t *testing.T) {
	t.Setenv(EnvAlbum, "")
	path := writeConfig(t, t.TempDir(), "username: jane@example.com\n")

	require.NoError(t, SetAlbum(path, "Trips"))

	s, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "Trips", s.Album)
	assert.Equal(t, "jane@example.com", s.Username)
}

func TestSetAlbum_CreatesFile(t *testing.T) {
	t.Setenv(EnvAlbum, "")
	path := filepath.Join(t.TempDir(), "nested", "config.yaml")

	require.NoError(t, SetAlbum(path, "Trips"))

	s, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "Trips", s.Album)
}

func TestSetAlbum_RejectsNonMapping(t *testing.T) {
	path := writeConfig(t, t.TempDir(), "- a\n- b\n")
	assert.Error(t, SetAlbum(path, "Trips"))
}
