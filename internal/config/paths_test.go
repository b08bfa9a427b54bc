package config

import (
	"path/filepath"
	"testing"

	"github.com/spf13/viper"
)

func TestGetDataBasePath_ExplicitConfigWins(t *testing.T) {
	resetViperForTest(t)
	viper.Set("data.path", "/tmp/custom-data")

	if got := GetDataBasePath(); got != "/tmp/custom-data" {
		t.Errorf("GetDataBasePath() = %q", got)
	}
}

func TestGetDataBasePath_XDGFallback(t *testing.T) {
	resetViperForTest(t)
	t.Setenv("XDG_DATA_HOME", "/tmp/xdg")
	t.Chdir(t.TempDir()) // no local .taskloop dir

	want := filepath.Join("/tmp/xdg", "taskloop")
	if got := GetDataBasePath(); got != want {
		t.Errorf("GetDataBasePath() = %q, want %q", got, want)
	}
}

func TestGetSessionDir(t *testing.T) {
	resetViperForTest(t)
	viper.Set("data.path", "/data")

	if got := GetSessionDir(); got != filepath.Join("/data", "sessions") {
		t.Errorf("GetSessionDir() = %q", got)
	}
}
