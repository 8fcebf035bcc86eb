package config

import (
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/spf13/afero"

	"github.com/achterblog/fzpwuploader/pkg/uploadlib"
)

func TestLoad_MissingFileGivesDefaults(t *testing.T) {
	cfg, err := Load(afero.NewMemMapFs(), "/cfg")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.BaseURL != uploadlib.DEF_BASE_URL {
		t.Errorf("BaseURL = %q", cfg.BaseURL)
	}
	if time.Duration(cfg.TaskTimeout) != 2*time.Minute {
		t.Errorf("TaskTimeout = %s", time.Duration(cfg.TaskTimeout))
	}
	if !cfg.History {
		t.Error("History disabled by default")
	}
}

func TestSaveLoadRoundTrip(t *testing.T) {
	fs := afero.NewMemMapFs()
	cfg := Default()
	cfg.Username = "bob"
	cfg.Timeout = Duration(45 * time.Second)
	cfg.Headers = uploadlib.Headers{{Key: "X-Test", Value: "1"}}
	if err := cfg.Save(fs, "/cfg"); err != nil {
		t.Fatalf("Save: %v", err)
	}

	raw, err := afero.ReadFile(fs, "/cfg/config.yaml")
	if err != nil {
		t.Fatalf("ReadFile: %v", err)
	}
	if !strings.Contains(string(raw), "timeout: 45s") {
		t.Errorf("duration not written as text:\n%s", raw)
	}

	got, err := Load(fs, "/cfg")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if got.Username != "bob" || got.Timeout != cfg.Timeout {
		t.Errorf("loaded %+v", got)
	}
	if len(got.Headers) != 1 || got.Headers[0].Key != "X-Test" {
		t.Errorf("Headers = %+v", got.Headers)
	}
	matches, _ := afero.Glob(fs, "/cfg/.config.yaml.tmp.*")
	if len(matches) != 0 {
		t.Errorf("temp files left: %v", matches)
	}
}

func TestLoad_PartialFileKeepsDefaults(t *testing.T) {
	fs := afero.NewMemMapFs()
	afero.WriteFile(fs, "/cfg/config.yaml", []byte("username: alice\ndebug: true\n"), 0644)

	cfg, err := Load(fs, "/cfg")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Username != "alice" || !cfg.Debug {
		t.Errorf("loaded %+v", cfg)
	}
	if cfg.UploadHost != uploadlib.DEF_UPLOAD_HOST || time.Duration(cfg.Timeout) != uploadlib.DEF_TIMEOUT {
		t.Errorf("defaults lost: %+v", cfg)
	}
}

func TestLoad_InvalidDuration(t *testing.T) {
	fs := afero.NewMemMapFs()
	afero.WriteFile(fs, "/cfg/config.yaml", []byte("timeout: soon\n"), 0644)

	if _, err := Load(fs, "/cfg"); err == nil {
		t.Fatal("expected error for invalid duration")
	}
}

func TestDir_EnvOverride(t *testing.T) {
	dir := t.TempDir()
	t.Setenv(ConfigDirEnv, dir)

	got, err := Dir()
	if err != nil {
		t.Fatalf("Dir: %v", err)
	}
	if got != filepath.Clean(dir) {
		t.Errorf("Dir = %q, want %q", got, dir)
	}
}
