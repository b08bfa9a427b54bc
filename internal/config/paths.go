package config

import (
	"os"
	"path/filepath"

	"github.com/spf13/viper"
)

// GetGlobalConfigDir returns the path to the global configuration directory
// (~/.taskloop). It's a variable to allow overriding in tests.
var GetGlobalConfigDir = func() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".taskloop"), nil
}

// GetDataBasePath returns the directory for persistent data (session
// snapshots, the tracker database). Resolution order (first match wins):
// 1. Explicit config via "data.path" (Viper/env/flag)
// 2. Local project directory: .taskloop (if exists)
// 3. XDG_DATA_HOME/taskloop (if XDG_DATA_HOME is set)
// 4. Global fallback: ~/.taskloop
func GetDataBasePath() string {
	if path := viper.GetString("data.path"); path != "" {
		return path
	}

	localData := ".taskloop"
	if info, err := os.Stat(localData); err == nil && info.IsDir() {
		return localData
	}

	if xdgData := os.Getenv("XDG_DATA_HOME"); xdgData != "" {
		return filepath.Join(xdgData, "taskloop")
	}

	dir, err := GetGlobalConfigDir()
	if err != nil {
		return ".taskloop"
	}
	return dir
}

// GetSessionDir returns the directory for session snapshots.
func GetSessionDir() string {
	return filepath.Join(GetDataBasePath(), "sessions")
}
