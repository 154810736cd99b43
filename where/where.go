// Package where implements a cross-platform resolver for application-specific filesystem paths.
package where

import (
	"os"
	"path/filepath"

	"github.com/samber/lo"
	"github.com/themetester/themetester/constant"
	"github.com/themetester/themetester/filesystem"
)

// EnvConfigPath is the environment variable identifier used to override the default configuration directory.
const EnvConfigPath = "THEMETESTER_CONFIG_PATH"

// ensureDir guarantees the existence of a directory at the specified path, creating it if necessary.
func ensureDir(path string) string {
	lo.Must0(filesystem.API().MkdirAll(path, os.ModePerm))
	return path
}

// Config resolves the absolute path to the primary application configuration directory.
// The path can be overridden with the THEMETESTER_CONFIG_PATH environment variable.
func Config() string {
	if custom, ok := os.LookupEnv(EnvConfigPath); ok {
		return ensureDir(custom)
	}

	base := lo.Must(os.UserConfigDir())
	return ensureDir(filepath.Join(base, constant.Themetester))
}

// Cache resolves the absolute path to the application's persistent cache directory.
func Cache() string {
	base, err := os.UserCacheDir()
	if err != nil {
		base = filepath.Join(".", "cache")
	}
	return ensureDir(filepath.Join(base, constant.Themetester))
}

// Logs resolves the absolute path to the directory used for diagnostic logs.
func Logs() string {
	return ensureDir(filepath.Join(Config(), "logs"))
}

// Extensions resolves the directory holding installed extension packages.
func Extensions() string {
	return ensureDir(filepath.Join(Config(), "extensions"))
}

// Installed resolves the registry of installed extensions.
func Installed() string {
	return filepath.Join(Extensions(), "installed.json")
}

// Settings resolves the user settings document that holds the previewed setting.
func Settings() string {
	return filepath.Join(Config(), "settings.json")
}

// Versions resolves the cache of latest marketplace versions.
func Versions() string {
	return filepath.Join(Cache(), "versions.json")
}

// Queries resolves the history of previewed locations used for suggestions.
func Queries() string {
	return filepath.Join(Cache(), "queries.json")
}

// Temp resolves a volatile filesystem path for transient application artifacts.
func Temp() string {
	return ensureDir(filepath.Join(os.TempDir(), constant.Themetester))
}
