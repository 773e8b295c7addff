package client

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTokenCache_LoadMissing(t *testing.T) {
	cache, err := NewTokenCache(filepath.Join(t.TempDir(), "session"))
	require.NoError(t, err)

	raw, found, err := cache.Load()
	require.NoError(t, err)
	assert.False(t, found)
	assert.Empty(t, raw)
}

func TestTokenCache_StoreThenLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "a", "b", "session")
	cache, err := NewTokenCache(path)
	require.NoError(t, err)

	require.NoError(t, cache.Store("first-token"))
	require.NoError(t, cache.Store("tok"))

	raw, found, err := cache.Load()
	require.NoError(t, err)
	assert.True(t, found)
	assert.Equal(t, "tok", raw, "store must truncate previous contents")

	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0o600), info.Mode().Perm())
}

func TestTokenCache_LoadError(t *testing.T) {
	// A directory where the file should be is a read failure, not "absent"
	cache, err := NewTokenCache(t.TempDir())
	require.NoError(t, err)

	_, found, err := cache.Load()
	assert.Error(t, err)
	assert.False(t, found)
}

func TestTokenCache_Remove(t *testing.T) {
	path := filepath.Join(t.TempDir(), "session")
	cache, err := NewTokenCache(path)
	require.NoError(t, err)

	require.NoError(t, cache.Remove(), "removing a missing file is not an error")
	require.NoError(t, cache.Store("tok"))
	require.NoError(t, cache.Remove())

	_, err = os.Stat(path)
	assert.True(t, os.IsNotExist(err))
}

func TestTokenCache_EmptyPathDisablesPersistence(t *testing.T) {
	cache, err := NewTokenCache("")
	require.NoError(t, err)

	require.NoError(t, cache.Store("tok"))
	_, found, err := cache.Load()
	require.NoError(t, err)
	assert.False(t, found)
}

func TestTokenCache_ExpandsHome(t *testing.T) {
	home := t.TempDir()
	t.Setenv("HOME", home)

	cache, err := NewTokenCache("~/.cache/fractal/session")
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(home, ".cache", "fractal", "session"), cache.Path())
}
