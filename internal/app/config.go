package app

import (
	"errors"
	"os"
	"path/filepath"

	"github.com/BurntSushi/toml"
)

// Config is the top-level configuration for plexdesk.
type Config struct {
	Server  ServerConfig  `toml:"server"`
	Browser BrowserConfig `toml:"browser"`
	Player  PlayerConfig  `toml:"player"`
	Cache   CacheConfig   `toml:"cache"`
}

// ServerConfig defines the catalog server and session settings.
type ServerConfig struct {
	BaseURL   string `toml:"base_url"`
	Token     string `toml:"token"`
	CloudURL  string `toml:"cloud_url"`
	TimeoutMS int64  `toml:"timeout_ms"`
	LogLevel  string `toml:"log_level"`
	LogFormat string `toml:"log_format"`
}

// BrowserConfig configures the catalog list model and thumbnail pipeline.
type BrowserConfig struct {
	PageSize    int `toml:"page_size"`
	ThumbWidth  int `toml:"thumb_width"`
	ThumbHeight int `toml:"thumb_height"`
	QueueDepth  int `toml:"queue_depth"`
}

// PlayerConfig configures the playback engine bridge.
type PlayerConfig struct {
	TimelineThrottle int    `toml:"timeline_throttle"`
	Pipeline         string `toml:"pipeline"`
	Device           string `toml:"device"`
}

// CacheConfig configures the content cache.
type CacheConfig struct {
	Path       string `toml:"path"`
	MaxEntries int    `toml:"max_entries"`
}

// LoadConfig loads a config file from path and applies defaults.
func LoadConfig(path string) (Config, error) {
	if path == "" {
		return Config{}, errors.New("config path required")
	}
	info, err := os.Stat(path)
	if err != nil {
		return Config{}, err
	}
	if info.IsDir() {
		return Config{}, errors.New("config path is a directory")
	}

	var cfg Config
	if _, err := toml.DecodeFile(path, &cfg); err != nil {
		return Config{}, err
	}
	cfg.applyDefaults()
	return cfg, nil
}

// DefaultConfig returns a config with defaults applied and no server set.
func DefaultConfig() Config {
	var cfg Config
	cfg.applyDefaults()
	return cfg
}

func (cfg *Config) applyDefaults() {
	if cfg.Server.TimeoutMS <= 0 {
		cfg.Server.TimeoutMS = 10000
	}
	if cfg.Server.LogLevel == "" {
		cfg.Server.LogLevel = "info"
	}
	if cfg.Server.LogFormat == "" {
		cfg.Server.LogFormat = "console"
	}
	if cfg.Browser.PageSize <= 0 {
		cfg.Browser.PageSize = 50
	}
	if cfg.Browser.ThumbWidth <= 0 {
		cfg.Browser.ThumbWidth = 240
	}
	if cfg.Browser.ThumbHeight <= 0 {
		cfg.Browser.ThumbHeight = 240
	}
	if cfg.Browser.QueueDepth <= 0 {
		cfg.Browser.QueueDepth = 100
	}
	if cfg.Player.TimelineThrottle <= 0 {
		cfg.Player.TimelineThrottle = 500
	}
	if cfg.Cache.MaxEntries <= 0 {
		cfg.Cache.MaxEntries = 2000
	}
	if cfg.Cache.Path == "" {
		if dir, err := defaultDataDir(); err == nil {
			cfg.Cache.Path = filepath.Join(dir, "cache.db")
		}
	}
}

// DefaultConfigPath returns the default config location.
func DefaultConfigPath() (string, error) {
	if dir := os.Getenv("XDG_CONFIG_HOME"); dir != "" {
		return filepath.Join(dir, "plexdesk", "plexdesk.toml"), nil
	}

	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".config", "plexdesk", "plexdesk.toml"), nil
}

func defaultDataDir() (string, error) {
	if dir := os.Getenv("XDG_DATA_HOME"); dir != "" {
		return filepath.Join(dir, "plexdesk"), nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".local", "share", "plexdesk"), nil
}
