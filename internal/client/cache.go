package client

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
)

// TokenCache persists the raw token string in a plain-text file between CLI
// invocations. The file holds nothing but the token; every Store truncates it.
// Concurrent writers race with last-write-wins semantics.
type TokenCache struct {
	path string
}

// NewTokenCache creates a cache at path. A leading "~/" is expanded to the
// user's home directory. An empty path disables persistence.
func NewTokenCache(path string) (*TokenCache, error) {
	expanded, err := expandHome(path)
	if err != nil {
		return nil, err
	}
	return &TokenCache{path: expanded}, nil
}

// Path returns the resolved cache file location
func (c *TokenCache) Path() string {
	return c.path
}

// Load reads the cached token. found is false when the cache file does not
// exist, which is not an error; any other read failure is returned.
func (c *TokenCache) Load() (raw string, found bool, err error) {
	if c.path == "" {
		return "", false, nil
	}

	data, err := os.ReadFile(c.path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return "", false, nil
		}
		return "", false, fmt.Errorf("failed to read token cache: %w", err)
	}
	return string(data), true, nil
}

// Store replaces the cache contents with raw, creating parent directories
func (c *TokenCache) Store(raw string) error {
	if c.path == "" {
		return nil
	}

	if err := os.MkdirAll(filepath.Dir(c.path), 0o700); err != nil {
		return fmt.Errorf("failed to create token cache directory: %w", err)
	}

	// Owner read/write only
	if err := os.WriteFile(c.path, []byte(raw), 0o600); err != nil {
		return fmt.Errorf("failed to write token cache: %w", err)
	}
	return nil
}

// Remove deletes the cache file. A missing file is not an error.
func (c *TokenCache) Remove() error {
	if c.path == "" {
		return nil
	}
	if err := os.Remove(c.path); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("failed to remove token cache: %w", err)
	}
	return nil
}

func expandHome(path string) (string, error) {
	if path != "~" && !strings.HasPrefix(path, "~/") {
		return path, nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to get home directory: %w", err)
	}
	return filepath.Join(home, strings.TrimPrefix(path, "~")), nil
}
