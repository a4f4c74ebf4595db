// Package config handles application configuration
package config

import (
	_ "embed"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

//go:embed config.sample.yaml
var sampleConfig string

// EnvServer overrides server.url.
const EnvServer = "SYLVECTL_SERVER"

// Defaults applied by the getters.
const (
	DefaultTimeout      = 30 * time.Second
	DefaultCacheTTL     = 7 * 24 * time.Hour
	DefaultGuestsTTL    = time.Minute
	DefaultMaxRetries   = 3
	DefaultBaseDelay    = time.Second
	DefaultCacheStore   = "file"
	DefaultFallback     = "default"
	DefaultOutputFormat = "text"
)

// GetSampleConfig returns the embedded sample configuration content
func GetSampleConfig() string {
	return sampleConfig
}

// ServerConfig holds connection settings
type ServerConfig struct {
	URL      string `yaml:"url"`
	Timeout  string `yaml:"timeout"`
	Hostname string `yaml:"hostname"`
}

// CacheConfig holds page cache settings
type CacheConfig struct {
	Store     string `yaml:"store"`
	Path      string `yaml:"path"`
	TTL       string `yaml:"ttl"`
	GuestsTTL string `yaml:"guests_ttl"`
}

// RetryConfig holds rate limit retry settings
type RetryConfig struct {
	MaxRetries *int   `yaml:"max_retries"`
	BaseDelay  string `yaml:"base_delay"`
}

// APIConfig holds response handling settings
type APIConfig struct {
	Fallback string `yaml:"fallback"`
}

// LoggingConfig holds logging settings
type LoggingConfig struct {
	BackgroundEnabled *bool `yaml:"background_enabled"` // Controls background log file creation (default: true)
}

// Config represents the application configuration
type Config struct {
	Server       ServerConfig  `yaml:"server"`
	Cache        CacheConfig   `yaml:"cache"`
	Retry        RetryConfig   `yaml:"retry"`
	API          APIConfig     `yaml:"api"`
	OutputFormat string        `yaml:"output_format"`
	Logging      LoggingConfig `yaml:"logging"`
}

// DefaultConfig returns a config with sensible defaults
func DefaultConfig() *Config {
	return &Config{
		Cache:        CacheConfig{Store: DefaultCacheStore},
		API:          APIConfig{Fallback: DefaultFallback},
		OutputFormat: DefaultOutputFormat,
	}
}

// DefaultPath returns the config file location under the XDG config dir.
func DefaultPath() string {
	return filepath.Join(GetConfigDir(), "config.yaml")
}

// Load loads configuration from the specified path, or the default XDG path if empty.
// If the config file doesn't exist, it creates one from the sample.
func Load(configPath string) (*Config, error) {
	if configPath == "" {
		configPath = DefaultPath()
	}

	if _, err := os.Stat(configPath); os.IsNotExist(err) {
		if err := WriteSample(configPath); err != nil {
			return nil, fmt.Errorf("failed to create default config: %w", err)
		}
		cfg := DefaultConfig()
		cfg.applyEnv()
		return cfg, nil
	}

	data, err := os.ReadFile(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	cfg, err := Parse(data)
	if err != nil {
		return nil, err
	}
	cfg.applyEnv()
	return cfg, nil
}

// Parse decodes YAML and fills unset fields with defaults.
func Parse(data []byte) (*Config, error) {
	cfg := &Config{}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("invalid YAML in config file: %w", err)
	}

	if cfg.Cache.Store == "" {
		cfg.Cache.Store = DefaultCacheStore
	}
	if cfg.API.Fallback == "" {
		cfg.API.Fallback = DefaultFallback
	}
	if cfg.OutputFormat == "" {
		cfg.OutputFormat = DefaultOutputFormat
	}
	if cfg.Cache.Path != "" {
		cfg.Cache.Path = ExpandPath(cfg.Cache.Path)
	}
	return cfg, nil
}

func (c *Config) applyEnv() {
	if server := os.Getenv(EnvServer); server != "" {
		c.Server.URL = server
	}
}

// WriteSample writes the commented sample config to path.
func WriteSample(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}
	if err := os.WriteFile(path, []byte(sampleConfig), 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}
	return nil
}

// Validate checks if the configuration is valid
func (c *Config) Validate() error {
	if c.OutputFormat != "text" && c.OutputFormat != "json" {
		return fmt.Errorf("invalid output_format: %q (must be 'text' or 'json')", c.OutputFormat)
	}

	switch c.Cache.Store {
	case "file", "sqlite", "memory":
	default:
		return fmt.Errorf("unknown cache.store: %q (must be 'file', 'sqlite' or 'memory')", c.Cache.Store)
	}

	switch c.API.Fallback {
	case "default", "envelope":
	default:
		return fmt.Errorf("unknown api.fallback: %q (must be 'default' or 'envelope')", c.API.Fallback)
	}

	durations := map[string]string{
		"server.timeout":   c.Server.Timeout,
		"cache.ttl":        c.Cache.TTL,
		"cache.guests_ttl": c.Cache.GuestsTTL,
		"retry.base_delay": c.Retry.BaseDelay,
	}
	for key, value := range durations {
		if value == "" {
			continue
		}
		d, err := time.ParseDuration(value)
		if err != nil {
			return fmt.Errorf("invalid duration for %s: %q", key, value)
		}
		if d < 0 {
			return fmt.Errorf("%s must not be negative, got %q", key, value)
		}
	}

	if c.Retry.MaxRetries != nil && *c.Retry.MaxRetries < 0 {
		return fmt.Errorf("retry.max_retries must not be negative, got %d", *c.Retry.MaxRetries)
	}

	if c.Server.URL != "" && !strings.HasPrefix(c.Server.URL, "http://") && !strings.HasPrefix(c.Server.URL, "https://") {
		return fmt.Errorf("invalid server.url: %q (must start with http:// or https://)", c.Server.URL)
	}

	return nil
}

// ApplyFlags applies CLI flag overrides to the configuration
func (c *Config) ApplyFlags(server string, jsonOutput bool) {
	if server != "" {
		c.Server.URL = server
	}
	if jsonOutput {
		c.OutputFormat = "json"
	}
}

// ServerURL returns the configured server with any trailing slash removed.
func (c *Config) ServerURL() string {
	return strings.TrimRight(strings.TrimSpace(c.Server.URL), "/")
}

func durationOr(value string, def time.Duration) time.Duration {
	if value == "" {
		return def
	}
	d, err := time.ParseDuration(value)
	if err != nil {
		return def
	}
	return d
}

// GetTimeout returns the per-request timeout.
// Returns 30 seconds if not configured.
func (c *Config) GetTimeout() time.Duration {
	return durationOr(c.Server.Timeout, DefaultTimeout)
}

// GetCacheTTL returns the freshness window of most pages.
// Returns 7 days if not configured.
func (c *Config) GetCacheTTL() time.Duration {
	return durationOr(c.Cache.TTL, DefaultCacheTTL)
}

// GetGuestsTTL returns the freshness window of the VM and jail lists.
func (c *Config) GetGuestsTTL() time.Duration {
	return durationOr(c.Cache.GuestsTTL, DefaultGuestsTTL)
}

// GetMaxRetries returns how often a throttled request is retried.
// Returns 3 if not configured; 0 disables retries.
func (c *Config) GetMaxRetries() int {
	if c.Retry.MaxRetries == nil {
		return DefaultMaxRetries
	}
	return *c.Retry.MaxRetries
}

// GetBaseDelay returns the first retry backoff.
func (c *Config) GetBaseDelay() time.Duration {
	return durationOr(c.Retry.BaseDelay, DefaultBaseDelay)
}

// GetCacheStore returns the cache store kind.
func (c *Config) GetCacheStore() string {
	if c.Cache.Store == "" {
		return DefaultCacheStore
	}
	return c.Cache.Store
}

// GetCachePath returns where the cache store lives. The sqlite store gets a
// database file inside the cache dir.
func (c *Config) GetCachePath() string {
	if c.Cache.Path != "" {
		return c.Cache.Path
	}
	if c.GetCacheStore() == "sqlite" {
		return filepath.Join(GetCacheDir(), "cache.db")
	}
	return filepath.Join(GetCacheDir(), "pages")
}

// GetFallback returns the api.fallback setting.
func (c *Config) GetFallback() string {
	if c.API.Fallback == "" {
		return DefaultFallback
	}
	return c.API.Fallback
}

// IsBackgroundLoggingEnabled returns true if background logging is enabled.
// Returns true (default) if not configured.
func (c *Config) IsBackgroundLoggingEnabled() bool {
	if c.Logging.BackgroundEnabled == nil {
		return true // Default: enabled
	}
	return *c.Logging.BackgroundEnabled
}

// Get returns the value of a dotted key as shown by `config show`.
func (c *Config) Get(key string) (string, error) {
	switch key {
	case "server.url":
		return c.Server.URL, nil
	case "server.timeout":
		return c.GetTimeout().String(), nil
	case "server.hostname":
		return c.Server.Hostname, nil
	case "cache.store":
		return c.GetCacheStore(), nil
	case "cache.path":
		return c.GetCachePath(), nil
	case "cache.ttl":
		return c.GetCacheTTL().String(), nil
	case "cache.guests_ttl":
		return c.GetGuestsTTL().String(), nil
	case "retry.max_retries":
		return fmt.Sprint(c.GetMaxRetries()), nil
	case "retry.base_delay":
		return c.GetBaseDelay().String(), nil
	case "api.fallback":
		return c.GetFallback(), nil
	case "output_format":
		return c.OutputFormat, nil
	case "logging.background_enabled":
		return fmt.Sprint(c.IsBackgroundLoggingEnabled()), nil
	}
	return "", fmt.Errorf("unknown config key: %s", key)
}

// Keys lists every key accepted by Get, in display order.
var Keys = []string{
	"server.url", "server.timeout", "server.hostname",
	"cache.store", "cache.path", "cache.ttl", "cache.guests_ttl",
	"retry.max_retries", "retry.base_delay",
	"api.fallback", "output_format", "logging.background_enabled",
}

// getXDGDir returns a directory path following XDG spec.
// envVar is the XDG environment variable (e.g., "XDG_CONFIG_HOME").
// fallbackPath is the relative path from home (e.g., ".config").
func getXDGDir(envVar, fallbackPath string) string {
	if xdgDir := os.Getenv(envVar); xdgDir != "" {
		return filepath.Join(xdgDir, "sylvectl")
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(".", fallbackPath, "sylvectl")
	}
	return filepath.Join(home, fallbackPath, "sylvectl")
}

// GetConfigDir returns the configuration directory following XDG spec
func GetConfigDir() string {
	return getXDGDir("XDG_CONFIG_HOME", ".config")
}

// GetCacheDir returns the cache directory following XDG spec
func GetCacheDir() string {
	return getXDGDir("XDG_CACHE_HOME", ".cache")
}

// ExpandPath expands ~ and environment variables in a path
func ExpandPath(path string) string {
	if path == "" {
		return path
	}

	if strings.HasPrefix(path, "~/") {
		home, err := os.UserHomeDir()
		if err == nil {
			path = filepath.Join(home, path[2:])
		}
	}

	return os.ExpandEnv(path)
}
