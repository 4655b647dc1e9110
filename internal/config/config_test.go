package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setHome(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	t.Setenv("XDG_CONFIG_HOME", filepath.Join(dir, "config"))
	t.Setenv("XDG_DATA_HOME", filepath.Join(dir, "data"))
	t.Setenv("XDG_CACHE_HOME", filepath.Join(dir, "cache"))
	return dir
}

func TestPathsFollowXDG(t *testing.T) {
	dir := setHome(t)

	assert.Equal(t, filepath.Join(dir, "config", "tavern", "config.toml"), GetConfigFilePath())
	assert.Equal(t, filepath.Join(dir, "data", "tavern", "cards"), GetLibraryPath())
	assert.Equal(t, filepath.Join(dir, "cache", "tavern"), GetCacheDir())
}

func TestLoadConfigCreatesDefault(t *testing.T) {
	setHome(t)

	cfg, err := LoadConfig()
	require.NoError(t, err)
	assert.Equal(t, Default(), cfg)
	assert.FileExists(t, GetConfigFilePath())

	again, err := LoadConfig()
	require.NoError(t, err)
	assert.Equal(t, cfg, again)
}

func TestLoadConfigReadsTOML(t *testing.T) {
	setHome(t)
	path := GetConfigFilePath()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0755))
	require.NoError(t, os.WriteFile(path, []byte(`
default_card = "seraphina"
verify_crc = true
extended_text = true
art_width = 0
`), 0644))

	cfg, err := LoadConfig()
	require.NoError(t, err)
	assert.Equal(t, "seraphina", cfg.DefaultCard)
	assert.Equal(t, DefaultArtWidth, cfg.ArtWidth)
	assert.Equal(t, DefaultArtHeight, cfg.ArtHeight)

	s := cfg.Scanner()
	assert.True(t, s.VerifyCRC)
	assert.True(t, s.Extended)
}

func TestLoadConfigRejectsBadTOML(t *testing.T) {
	setHome(t)
	path := GetConfigFilePath()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0755))
	require.NoError(t, os.WriteFile(path, []byte("default_card = ["), 0644))

	_, err := LoadConfig()
	assert.Error(t, err)
}

func TestSetDefaultCard(t *testing.T) {
	setHome(t)

	require.NoError(t, SetDefaultCard("alice"))
	name, err := GetDefaultCard()
	require.NoError(t, err)
	assert.Equal(t, "alice", name)
}

func TestGetCardPath(t *testing.T) {
	dir := setHome(t)
	lib := GetLibraryPath()
	require.NoError(t, os.MkdirAll(lib, 0755))
	require.NoError(t, os.WriteFile(filepath.Join(lib, "alice.png"), []byte("x"), 0644))

	path, err := GetCardPath("alice")
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(lib, "alice.png"), path)

	path, err = GetCardPath("alice.png")
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(lib, "alice.png"), path)

	local := filepath.Join(dir, "bob.png")
	require.NoError(t, os.WriteFile(local, []byte("x"), 0644))
	path, err = GetCardPath(local)
	require.NoError(t, err)
	assert.Equal(t, local, path)

	_, err = GetCardPath("nobody")
	assert.Error(t, err)
}
