// Package fs provides file-backed implementations: a session store for the
// signed-in identity and a caching decorator for reviewers.
package fs

import (
	"os"
	"path/filepath"
)

const appName = "codereview"

// DefaultCacheDir returns the default cache directory for codereview.
// Uses XDG_CACHE_HOME if set, otherwise falls back to ~/.cache/codereview,
// or system temp directory if home is unavailable.
func DefaultCacheDir() string {
	if xdg := os.Getenv("XDG_CACHE_HOME"); xdg != "" {
		return filepath.Join(xdg, appName)
	}
	home, err := os.UserHomeDir()
	if err != nil || home == "" {
		return filepath.Join(os.TempDir(), appName)
	}
	return filepath.Join(home, ".cache", appName)
}

// DefaultSessionPath returns where the session file is stored when not
// configured. Uses XDG_CONFIG_HOME if set, otherwise ~/.config/codereview.
func DefaultSessionPath() string {
	if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
		return filepath.Join(xdg, appName, "session.json")
	}
	home, err := os.UserHomeDir()
	if err != nil || home == "" {
		return filepath.Join(os.TempDir(), appName, "session.json")
	}
	return filepath.Join(home, ".config", appName, "session.json")
}
