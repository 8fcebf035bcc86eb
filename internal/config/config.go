// Package config loads and saves the fzpwup configuration file.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/afero"
	"gopkg.in/yaml.v3"

	"github.com/achterblog/fzpwuploader/pkg/uploadlib"
)

// ConfigDirEnv is the environment variable name used to override the
// default configuration directory.
const ConfigDirEnv = "FZPWUP_CONFIG_DIR"

const fileName = "config.yaml"

// Duration is a time.Duration written as "30s" in the config file.
type Duration time.Duration

func (d Duration) MarshalYAML() (interface{}, error) {
	return time.Duration(d).String(), nil
}

func (d *Duration) UnmarshalYAML(node *yaml.Node) error {
	var s string
	if err := node.Decode(&s); err != nil {
		return err
	}
	v, err := time.ParseDuration(s)
	if err != nil {
		return fmt.Errorf("line %d: %w", node.Line, err)
	}
	if v < 0 {
		return fmt.Errorf("line %d: negative duration %s", node.Line, s)
	}
	*d = Duration(v)
	return nil
}

// Config is the persisted configuration. Zero fields fall back to the
// uploadlib defaults.
type Config struct {
	BaseURL     string            `yaml:"base_url"`
	UploadHost  string            `yaml:"upload_host"`
	Username    string            `yaml:"username,omitempty"`
	UserAgent   string            `yaml:"user_agent,omitempty"`
	Proxy       string            `yaml:"proxy,omitempty"`
	RateLimit   string            `yaml:"rate_limit,omitempty"`
	Timeout     Duration          `yaml:"timeout"`
	TaskTimeout Duration          `yaml:"task_timeout"`
	Debug       bool              `yaml:"debug"`
	History     bool              `yaml:"history"`
	Headers     uploadlib.Headers `yaml:"headers,omitempty"`
}

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		BaseURL:     uploadlib.DEF_BASE_URL,
		UploadHost:  uploadlib.DEF_UPLOAD_HOST,
		Timeout:     Duration(uploadlib.DEF_TIMEOUT),
		TaskTimeout: Duration(uploadlib.DEF_TASK_TIMEOUT),
		History:     true,
	}
}

// Dir returns the configuration directory: $FZPWUP_CONFIG_DIR or the
// fzpwup directory below os.UserConfigDir.
func Dir() (string, error) {
	if dir := os.Getenv(ConfigDirEnv); dir != "" {
		return filepath.Abs(dir)
	}
	cdr, err := os.UserConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(cdr, "fzpwup"), nil
}

// Path returns the config file path inside dir.
func Path(dir string) string {
	return filepath.Join(dir, fileName)
}

// Load reads the config file in dir. A missing file yields the defaults.
func Load(fs afero.Fs, dir string) (*Config, error) {
	cfg := Default()
	data, err := afero.ReadFile(fs, Path(dir))
	if errors.Is(err, os.ErrNotExist) {
		return cfg, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file %s: %w", Path(dir), err)
	}
	cfg.fillDefaults()
	return cfg, nil
}

func (c *Config) fillDefaults() {
	def := Default()
	if c.BaseURL == "" {
		c.BaseURL = def.BaseURL
	}
	if c.UploadHost == "" {
		c.UploadHost = def.UploadHost
	}
	if c.Timeout == 0 {
		c.Timeout = def.Timeout
	}
	if c.TaskTimeout == 0 {
		c.TaskTimeout = def.TaskTimeout
	}
}

// Save writes the config file in dir atomically.
func (c *Config) Save(fs afero.Fs, dir string) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return err
	}
	if err := fs.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("create config dir: %w", err)
	}
	tmp, err := afero.TempFile(fs, dir, ".config.yaml.tmp.*")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	tmpPath := tmp.Name()
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		fs.Remove(tmpPath)
		return fmt.Errorf("write config: %w", err)
	}
	if err := tmp.Close(); err != nil {
		fs.Remove(tmpPath)
		return fmt.Errorf("close temp file: %w", err)
	}
	if err := fs.Rename(tmpPath, Path(dir)); err != nil {
		fs.Remove(tmpPath)
		return fmt.Errorf("rename config file: %w", err)
	}
	return nil
}

// String renders the effective configuration as YAML.
func (c *Config) String() string {
	data, err := yaml.Marshal(c)
	if err != nil {
		return err.Error()
	}
	return string(data)
}
