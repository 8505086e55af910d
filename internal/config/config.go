package config

import (
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// AppName names the application-private data directory and the env prefix
const AppName = "topalbums"

// Config holds all configuration for the application
type Config struct {
	Server       ServerConfig       `mapstructure:"server"`
	Fetch        FetchConfig        `mapstructure:"fetch"`
	Reachability ReachabilityConfig `mapstructure:"reachability"`
	Store        StoreConfig        `mapstructure:"store"`
	Search       SearchConfig       `mapstructure:"search"`
	Sync         SyncConfig         `mapstructure:"sync"`
	Logging      LoggingConfig      `mapstructure:"logging"`
	RateLimit    RateLimitConfig    `mapstructure:"rate_limit"`
	CORS         CORSConfig         `mapstructure:"cors"`
	Auth         AuthConfig         `mapstructure:"auth"`
}

// ServerConfig contains HTTP server configuration
type ServerConfig struct {
	Host            string        `mapstructure:"host"`
	Port            int           `mapstructure:"port"`
	Mode            string        `mapstructure:"mode"` // debug, release
	ReadTimeout     time.Duration `mapstructure:"read_timeout"`
	WriteTimeout    time.Duration `mapstructure:"write_timeout"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
}

// FetchConfig describes the remote chart endpoint
type FetchConfig struct {
	BaseURL      string        `mapstructure:"base_url"`
	Endpoint     string        `mapstructure:"endpoint"`
	Timeout      time.Duration `mapstructure:"timeout"`
	MaxBodyBytes int64         `mapstructure:"max_body_bytes"`
	UserAgent    string        `mapstructure:"user_agent"`
}

// URL joins the base URL and the endpoint path
func (f FetchConfig) URL() string {
	return strings.TrimRight(f.BaseURL, "/") + "/" + strings.TrimLeft(f.Endpoint, "/")
}

// ReachabilityConfig controls the pre-sync connectivity probe
type ReachabilityConfig struct {
	Enabled      bool          `mapstructure:"enabled"`
	ProbeAddress string        `mapstructure:"probe_address"` // host:port, derived from fetch.base_url when empty
	Timeout      time.Duration `mapstructure:"timeout"`
}

// StoreConfig selects and configures the local feed store
type StoreConfig struct {
	Driver        string `mapstructure:"driver"` // badger, sqlite, redis
	Path          string `mapstructure:"path"`
	RedisAddr     string `mapstructure:"redis_addr"`
	RedisPassword string `mapstructure:"redis_password"`
	RedisDB       int    `mapstructure:"redis_db"`
	RedisPrefix   string `mapstructure:"redis_prefix"`
}

// SearchConfig contains album search index configuration
type SearchConfig struct {
	IndexPath string `mapstructure:"index_path"` // empty keeps the index in memory
}

// SyncConfig controls background synchronization
type SyncConfig struct {
	Interval  time.Duration `mapstructure:"interval"` // 0 disables the periodic loop
	OnStartup bool          `mapstructure:"on_startup"`
}

// LoggingConfig contains logging configuration
type LoggingConfig struct {
	Level  string `mapstructure:"level"`  // debug, info, warn, error
	Format string `mapstructure:"format"` // json, text
}

// RateLimitConfig contains rate limiting configuration
type RateLimitConfig struct {
	RequestsPerMinute int `mapstructure:"requests_per_minute"`
	Burst             int `mapstructure:"burst"`
}

// CORSConfig contains CORS configuration
type CORSConfig struct {
	AllowedOrigins []string `mapstructure:"allowed_origins"`
}

// AuthConfig protects the mutating API routes. An empty secret leaves them open.
type AuthConfig struct {
	JWTSecret   string        `mapstructure:"jwt_secret"`
	TokenExpiry time.Duration `mapstructure:"token_expiry"`
}

// Load loads configuration from ./configs/config.yaml or ./config.yaml and
// environment variables. Priority: ENV vars > config file > defaults
func Load() (*Config, error) {
	return LoadFile("")
}

// LoadFile loads configuration from an explicit file when path is not empty,
// falling back to the default search paths otherwise
func LoadFile(path string) (*Config, error) {
	v := viper.New()

	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath("./configs")
		v.AddConfigPath(".")
	}

	setDefaults(v)

	v.SetEnvPrefix(strings.ToUpper(AppName))
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok || path != "" {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unable to decode config: %w", err)
	}

	applyDerived(&cfg)

	if err := validate(&cfg); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &cfg, nil
}

// DataDir is the application-private support directory
func DataDir() string {
	base, err := os.UserConfigDir()
	if err != nil || base == "" {
		base = "."
	}
	return filepath.Join(base, AppName)
}

func setDefaults(v *viper.Viper) {
	// Server defaults
	v.SetDefault("server.host", "0.0.0.0")
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.mode", "release")
	v.SetDefault("server.read_timeout", "30s")
	v.SetDefault("server.write_timeout", "90s") // must outlive a synchronous POST /sync
	v.SetDefault("server.shutdown_timeout", "10s")

	// Fetch defaults
	v.SetDefault("fetch.base_url", "https://rss.applemarketingtools.com/api/v2/")
	v.SetDefault("fetch.endpoint", "us/music/most-played/100/albums.json")
	v.SetDefault("fetch.timeout", "60s")
	v.SetDefault("fetch.max_body_bytes", 4<<20)
	v.SetDefault("fetch.user_agent", "topalbums/1.0")

	// Reachability defaults
	v.SetDefault("reachability.enabled", true)
	v.SetDefault("reachability.probe_address", "")
	v.SetDefault("reachability.timeout", "3s")

	// Store defaults
	v.SetDefault("store.driver", "badger")
	v.SetDefault("store.path", "")
	v.SetDefault("store.redis_addr", "localhost:6379")
	v.SetDefault("store.redis_db", 0)
	v.SetDefault("store.redis_prefix", AppName)

	// Search defaults
	v.SetDefault("search.index_path", "")

	// Sync defaults
	v.SetDefault("sync.interval", "1h")
	v.SetDefault("sync.on_startup", true)

	// Logging defaults
	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "json")

	// Rate limit defaults
	v.SetDefault("rate_limit.requests_per_minute", 600)
	v.SetDefault("rate_limit.burst", 60)

	// CORS defaults
	v.SetDefault("cors.allowed_origins", []string{"http://localhost:3000"})

	// Auth defaults
	v.SetDefault("auth.jwt_secret", "")
	v.SetDefault("auth.token_expiry", "720h")
}

// applyDerived fills settings whose defaults depend on other settings
func applyDerived(cfg *Config) {
	if cfg.Store.Path == "" {
		switch cfg.Store.Driver {
		case "sqlite":
			cfg.Store.Path = filepath.Join(DataDir(), "albums.db")
		default:
			cfg.Store.Path = filepath.Join(DataDir(), "albums.badger")
		}
	}

	if cfg.Reachability.ProbeAddress == "" {
		cfg.Reachability.ProbeAddress = probeAddress(cfg.Fetch.BaseURL)
	}
}

// probeAddress derives host:port from the fetch base URL
func probeAddress(baseURL string) string {
	u, err := url.Parse(baseURL)
	if err != nil || u.Hostname() == "" {
		return ""
	}
	if port := u.Port(); port != "" {
		return u.Host
	}
	if u.Scheme == "http" {
		return u.Hostname() + ":80"
	}
	return u.Hostname() + ":443"
}

func validate(cfg *Config) error {
	if cfg.Server.Mode != "debug" && cfg.Server.Mode != "release" && cfg.Server.Mode != "test" {
		return fmt.Errorf("server.mode must be 'debug', 'release' or 'test', got: %s", cfg.Server.Mode)
	}

	if cfg.Server.Port < 1 || cfg.Server.Port > 65535 {
		return fmt.Errorf("server.port must be between 1 and 65535, got: %d", cfg.Server.Port)
	}

	u, err := url.Parse(cfg.Fetch.BaseURL)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return fmt.Errorf("fetch.base_url must be an absolute http(s) URL, got: %q", cfg.Fetch.BaseURL)
	}

	if cfg.Fetch.Endpoint == "" {
		return fmt.Errorf("fetch.endpoint is required")
	}

	if cfg.Fetch.Timeout <= 0 {
		return fmt.Errorf("fetch.timeout must be positive, got: %s", cfg.Fetch.Timeout)
	}

	if cfg.Fetch.MaxBodyBytes <= 0 {
		return fmt.Errorf("fetch.max_body_bytes must be positive, got: %d", cfg.Fetch.MaxBodyBytes)
	}

	if cfg.Reachability.Enabled && cfg.Reachability.ProbeAddress == "" {
		return fmt.Errorf("reachability.probe_address is required when reachability is enabled")
	}

	switch cfg.Store.Driver {
	case "badger", "sqlite":
		if cfg.Store.Path == "" {
			return fmt.Errorf("store.path is required for driver %s", cfg.Store.Driver)
		}
	case "redis":
		if cfg.Store.RedisAddr == "" {
			return fmt.Errorf("store.redis_addr is required for driver redis")
		}
	default:
		return fmt.Errorf("store.driver must be one of: badger, sqlite, redis, got: %s", cfg.Store.Driver)
	}

	if cfg.Sync.Interval < 0 {
		return fmt.Errorf("sync.interval must not be negative, got: %s", cfg.Sync.Interval)
	}

	validLevels := map[string]bool{"debug": true, "info": true, "warn": true, "error": true}
	if !validLevels[cfg.Logging.Level] {
		return fmt.Errorf("logging.level must be one of: debug, info, warn, error, got: %s", cfg.Logging.Level)
	}

	if cfg.Logging.Format != "json" && cfg.Logging.Format != "text" {
		return fmt.Errorf("logging.format must be 'json' or 'text', got: %s", cfg.Logging.Format)
	}

	if cfg.Auth.JWTSecret != "" && len(cfg.Auth.JWTSecret) < 32 {
		return fmt.Errorf("auth.jwt_secret must be at least 32 characters long")
	}

	return nil
}
