package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	if cfg.Fetch.Timeout != 60*time.Second {
		t.Errorf("fetch.timeout = %s, want 60s", cfg.Fetch.Timeout)
	}
	if got, want := cfg.Fetch.URL(), "https://rss.applemarketingtools.com/api/v2/us/music/most-played/100/albums.json"; got != want {
		t.Errorf("fetch URL = %q, want %q", got, want)
	}
	if cfg.Store.Driver != "badger" {
		t.Errorf("store.driver = %q, want badger", cfg.Store.Driver)
	}
	if !strings.HasSuffix(cfg.Store.Path, filepath.Join(AppName, "albums.badger")) {
		t.Errorf("store.path = %q, want it under the app data dir", cfg.Store.Path)
	}
	if cfg.Reachability.ProbeAddress != "rss.applemarketingtools.com:443" {
		t.Errorf("probe address = %q", cfg.Reachability.ProbeAddress)
	}
}

func TestLoadEnvOverrides(t *testing.T) {
	t.Setenv("TOPALBUMS_STORE_DRIVER", "sqlite")
	t.Setenv("TOPALBUMS_FETCH_BASE_URL", "http://127.0.0.1:9999/api")
	t.Setenv("TOPALBUMS_LOGGING_LEVEL", "debug")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	if cfg.Store.Driver != "sqlite" {
		t.Errorf("store.driver = %q, want sqlite", cfg.Store.Driver)
	}
	if filepath.Base(cfg.Store.Path) != "albums.db" {
		t.Errorf("store.path = %q, want albums.db", cfg.Store.Path)
	}
	if cfg.Reachability.ProbeAddress != "127.0.0.1:9999" {
		t.Errorf("probe address = %q, want 127.0.0.1:9999", cfg.Reachability.ProbeAddress)
	}
	if cfg.Fetch.URL() != "http://127.0.0.1:9999/api/us/music/most-played/100/albums.json" {
		t.Errorf("fetch URL = %q", cfg.Fetch.URL())
	}
	if cfg.Logging.Level != "debug" {
		t.Errorf("logging.level = %q, want debug", cfg.Logging.Level)
	}
}

func TestLoadFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "albums.yaml")
	content := `
server:
  port: 9090
store:
  driver: badger
  path: ` + filepath.Join(dir, "store") + `
sync:
  interval: 15m
`
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatal(err)
	}

	cfg, err := LoadFile(path)
	if err != nil {
		t.Fatalf("LoadFile: %v", err)
	}
	if cfg.Server.Port != 9090 {
		t.Errorf("server.port = %d, want 9090", cfg.Server.Port)
	}
	if cfg.Store.Path != filepath.Join(dir, "store") {
		t.Errorf("store.path = %q", cfg.Store.Path)
	}
	if cfg.Sync.Interval != 15*time.Minute {
		t.Errorf("sync.interval = %s, want 15m", cfg.Sync.Interval)
	}
}

func TestLoadFileMissing(t *testing.T) {
	if _, err := LoadFile(filepath.Join(t.TempDir(), "nope.yaml")); err == nil {
		t.Fatal("expected error for a missing explicit config file")
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"bad driver", func(c *Config) { c.Store.Driver = "realm" }},
		{"bad base url", func(c *Config) { c.Fetch.BaseURL = "ftp://example.com" }},
		{"zero timeout", func(c *Config) { c.Fetch.Timeout = 0 }},
		{"short secret", func(c *Config) { c.Auth.JWTSecret = "short" }},
		{"bad level", func(c *Config) { c.Logging.Level = "trace" }},
		{"bad port", func(c *Config) { c.Server.Port = 70000 }},
		{"probe missing", func(c *Config) { c.Reachability.ProbeAddress = "" }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg, err := Load()
			if err != nil {
				t.Fatalf("Load: %v", err)
			}
			tt.mutate(cfg)
			if err := validate(cfg); err == nil {
				t.Error("expected validation error")
			}
		})
	}
}
