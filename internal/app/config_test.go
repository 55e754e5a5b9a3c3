package app

import (
	"os"
	"path/filepath"
	"testing"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "plexdesk.toml")
	if err := os.WriteFile(path, []byte(body), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

func TestLoadConfig(t *testing.T) {
	path := writeConfig(t, `
[server]
base_url = "http://10.0.0.2:32400"
token = "tok"
log_level = "debug"

[browser]
page_size = 25

[player]
timeline_throttle = 100

[cache]
path = "/tmp/plexdesk-cache.db"
max_entries = 50
`)

	cfg, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}

	if cfg.Server.BaseURL != "http://10.0.0.2:32400" || cfg.Server.Token != "tok" {
		t.Fatalf("unexpected server config %+v", cfg.Server)
	}
	if cfg.Server.LogLevel != "debug" {
		t.Fatalf("unexpected log level %q", cfg.Server.LogLevel)
	}
	if cfg.Browser.PageSize != 25 {
		t.Fatalf("unexpected page size %d", cfg.Browser.PageSize)
	}
	if cfg.Player.TimelineThrottle != 100 {
		t.Fatalf("unexpected throttle %d", cfg.Player.TimelineThrottle)
	}
	if cfg.Cache.MaxEntries != 50 {
		t.Fatalf("unexpected cache entries %d", cfg.Cache.MaxEntries)
	}
}

func TestLoadConfigAppliesDefaults(t *testing.T) {
	path := writeConfig(t, `
[server]
base_url = "http://10.0.0.2:32400"
`)

	cfg, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}

	if cfg.Server.TimeoutMS != 10000 {
		t.Fatalf("unexpected timeout %d", cfg.Server.TimeoutMS)
	}
	if cfg.Server.LogLevel != "info" || cfg.Server.LogFormat != "console" {
		t.Fatalf("unexpected log defaults %+v", cfg.Server)
	}
	if cfg.Browser.PageSize != 50 || cfg.Browser.ThumbWidth != 240 {
		t.Fatalf("unexpected browser defaults %+v", cfg.Browser)
	}
	if cfg.Player.TimelineThrottle != 500 {
		t.Fatalf("unexpected throttle default %d", cfg.Player.TimelineThrottle)
	}
	if cfg.Cache.MaxEntries != 2000 {
		t.Fatalf("unexpected cache default %d", cfg.Cache.MaxEntries)
	}
}

func TestLoadConfigErrors(t *testing.T) {
	if _, err := LoadConfig(""); err == nil {
		t.Fatalf("expected error for empty path")
	}
	if _, err := LoadConfig(filepath.Join(t.TempDir(), "missing.toml")); err == nil {
		t.Fatalf("expected error for missing file")
	}
	if _, err := LoadConfig(t.TempDir()); err == nil {
		t.Fatalf("expected error for directory path")
	}

	bad := writeConfig(t, `[server`)
	if _, err := LoadConfig(bad); err == nil {
		t.Fatalf("expected error for malformed file")
	}
}

func TestDefaultConfigPathHonorsXDG(t *testing.T) {
	t.Setenv("XDG_CONFIG_HOME", "/tmp/xdg-config")
	path, err := DefaultConfigPath()
	if err != nil {
		t.Fatalf("default path: %v", err)
	}
	if path != filepath.Join("/tmp/xdg-config", "plexdesk", "plexdesk.toml") {
		t.Fatalf("unexpected path %q", path)
	}
}
