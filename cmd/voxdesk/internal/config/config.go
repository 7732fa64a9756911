// Package config loads and stores the voxdesk CLI configuration.
//
// Configuration lives under os.UserConfigDir()/voxdesk/:
//
//	~/Library/Application Support/voxdesk/   (macOS)
//	~/.config/voxdesk/                       (Linux)
//	%AppData%/voxdesk/                       (Windows)
//
// Layout:
//
//	voxdesk/
//	├── config.yaml    # settings
//	└── data/          # organizer store
package config

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/goccy/go-yaml"
)

const (
	// appDir is the directory name under os.UserConfigDir().
	appDir = "voxdesk"

	settingsFile = "config.yaml"
	dataDir      = "data"
)

// Settings is the content of config.yaml.
type Settings struct {
	// APIKey authenticates against the inference endpoint.
	APIKey string `yaml:"api_key"`
	// Model is the realtime model name.
	Model string `yaml:"model"`
	// Voice selects the synthesis voice; empty for the endpoint default.
	Voice string `yaml:"voice,omitempty"`
	// MicDevice is the platform capture device string; empty for default.
	MicDevice string `yaml:"mic_device,omitempty"`
	// DefaultLocation is used for weather lookups without a location.
	DefaultLocation string `yaml:"default_location,omitempty"`
	// FeedAddr is the listen address for the UI event feed.
	FeedAddr string `yaml:"feed_addr,omitempty"`
	// DataDir overrides the organizer store location.
	DataDir string `yaml:"data_dir,omitempty"`
}

// Config holds the loaded configuration and its location.
type Config struct {
	// Dir is the root configuration directory.
	Dir string

	Settings Settings
}

// Defaults applied when config.yaml omits a value.
const (
	DefaultModel    = "models/gemini-2.0-flash-live-001"
	DefaultFeedAddr = "127.0.0.1:8791"
)

// Load loads the configuration from the default location. A missing
// config.yaml yields defaults, not an error.
func Load() (*Config, error) {
	base, err := os.UserConfigDir()
	if err != nil {
		return nil, fmt.Errorf("cannot determine config directory: %w", err)
	}
	return LoadFrom(filepath.Join(base, appDir))
}

// LoadFrom loads the configuration from a specific root directory.
func LoadFrom(dir string) (*Config, error) {
	cfg := &Config{Dir: dir}

	data, err := os.ReadFile(filepath.Join(dir, settingsFile))
	if err != nil {
		if os.IsNotExist(err) {
			cfg.applyDefaults()
			return cfg, nil
		}
		return nil, fmt.Errorf("read settings: %w", err)
	}
	if err := yaml.Unmarshal(data, &cfg.Settings); err != nil {
		return nil, fmt.Errorf("parse %s: %w", settingsFile, err)
	}
	cfg.applyDefaults()
	return cfg, nil
}

func (c *Config) applyDefaults() {
	if c.Settings.Model == "" {
		c.Settings.Model = DefaultModel
	}
	if c.Settings.FeedAddr == "" {
		c.Settings.FeedAddr = DefaultFeedAddr
	}
	if c.Settings.DataDir == "" {
		c.Settings.DataDir = filepath.Join(c.Dir, dataDir)
	}
}

// SettingsPath returns the path of config.yaml.
func (c *Config) SettingsPath() string {
	return filepath.Join(c.Dir, settingsFile)
}

// Save writes the settings back to config.yaml, creating the directory if
// needed.
func (c *Config) Save() error {
	if err := os.MkdirAll(c.Dir, 0o755); err != nil {
		return fmt.Errorf("create config directory: %w", err)
	}
	data, err := yaml.Marshal(&c.Settings)
	if err != nil {
		return fmt.Errorf("marshal settings: %w", err)
	}
	if err := os.WriteFile(c.SettingsPath(), data, 0o600); err != nil {
		return fmt.Errorf("write settings: %w", err)
	}
	return nil
}
