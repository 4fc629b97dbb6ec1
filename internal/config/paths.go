// Package config provides configuration loading and standard path
// management for lash, grounded on the teacher's internal/config package.
package config

import (
	"os"
	"path/filepath"
	"runtime"
)

// Paths holds the standard XDG-style directories lash uses.
type Paths struct {
	Data   string // ~/.local/share/lash
	Config string // ~/.config/lash
	Cache  string // ~/.cache/lash
	State  string // ~/.local/state/lash
}

// GetPaths returns lash's standard paths, honoring XDG_* overrides.
func GetPaths() *Paths {
	return &Paths{
		Data:   filepath.Join(getEnvOrDefault("XDG_DATA_HOME", defaultDataHome()), "lash"),
		Config: filepath.Join(getEnvOrDefault("XDG_CONFIG_HOME", defaultConfigHome()), "lash"),
		Cache:  filepath.Join(getEnvOrDefault("XDG_CACHE_HOME", defaultCacheHome()), "lash"),
		State:  filepath.Join(getEnvOrDefault("XDG_STATE_HOME", defaultStateHome()), "lash"),
	}
}

// EnsurePaths creates all of lash's standard directories.
func (p *Paths) EnsurePaths() error {
	for _, dir := range []string{p.Data, p.Config, p.Cache, p.State, p.JournalDir()} {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return err
		}
	}
	return nil
}

// JournalDir returns the directory session journals are written under.
func (p *Paths) JournalDir() string { return filepath.Join(p.Data, "journal") }

func getEnvOrDefault(key, defaultValue string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return defaultValue
}

func defaultDataHome() string {
	if runtime.GOOS == "windows" {
		return os.Getenv("APPDATA")
	}
	return filepath.Join(os.Getenv("HOME"), ".local", "share")
}

func defaultConfigHome() string {
	if runtime.GOOS == "windows" {
		return os.Getenv("APPDATA")
	}
	return filepath.Join(os.Getenv("HOME"), ".config")
}

func defaultCacheHome() string {
	if runtime.GOOS == "windows" {
		return filepath.Join(os.Getenv("APPDATA"), "cache")
	}
	return filepath.Join(os.Getenv("HOME"), ".cache")
}

func defaultStateHome() string {
	if runtime.GOOS == "windows" {
		return os.Getenv("APPDATA")
	}
	return filepath.Join(os.Getenv("HOME"), ".local", "state")
}

// GlobalConfigPath is the user-wide config file location.
func GlobalConfigPath() string { return filepath.Join(GetPaths().Config, "lash.yaml") }

// ProjectConfigPath is the project-local config file location.
func ProjectConfigPath(directory string) string { return filepath.Join(directory, ".lash", "lash.yaml") }
