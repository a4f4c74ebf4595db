package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

// TestConfigAutoCreate verifies first run creates config file at XDG path from the sample
func TestConfigAutoCreate(t *testing.T) {
	tmpDir := t.TempDir()
	configDir := filepath.Join(tmpDir, "config")
	t.Setenv("XDG_CONFIG_HOME", configDir)
	t.Setenv("HOME", tmpDir)
	t.Setenv(EnvServer, "")

	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	configPath := filepath.Join(configDir, "sylvectl", "config.yaml")
	data, err := os.ReadFile(configPath)
	if err != nil {
		t.Fatalf("config file not created at %s: %v", configPath, err)
	}
	if string(data) != GetSampleConfig() {
		t.Error("created config should be the embedded sample")
	}

	if cfg.OutputFormat != "text" {
		t.Errorf("expected OutputFormat = 'text', got %q", cfg.OutputFormat)
	}
	if cfg.GetCacheStore() != "file" {
		t.Errorf("expected cache store 'file', got %q", cfg.GetCacheStore())
	}
}

// TestSampleConfigParses verifies the embedded sample is valid and matches the defaults
func TestSampleConfigParses(t *testing.T) {
	cfg, err := Parse([]byte(GetSampleConfig()))
	if err != nil {
		t.Fatalf("sample config does not parse: %v", err)
	}
	if err := cfg.Validate(); err != nil {
		t.Fatalf("sample config does not validate: %v", err)
	}

	def := DefaultConfig()
	for _, key := range Keys {
		if key == "cache.path" {
			continue
		}
		got, _ := cfg.Get(key)
		want, _ := def.Get(key)
		if got != want {
			t.Errorf("sample %s = %q, default is %q", key, got, want)
		}
	}
}

// TestConfigCustomPath verifies --config /path/to/config.yaml uses specified config
func TestConfigCustomPath(t *testing.T) {
	tmpDir := t.TempDir()
	t.Setenv(EnvServer, "")
	path := filepath.Join(tmpDir, "custom.yaml")
	content := `
server:
  url: https://sylve.lan:8181/
  timeout: 5s
cache:
  store: sqlite
  ttl: 1h
retry:
  max_retries: 0
api:
  fallback: envelope
output_format: json
`
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("failed to write config: %v", err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load(%q) error = %v", path, err)
	}
	if err := cfg.Validate(); err != nil {
		t.Fatalf("Validate() error = %v", err)
	}

	if cfg.ServerURL() != "https://sylve.lan:8181" {
		t.Errorf("expected trimmed server URL, got %q", cfg.ServerURL())
	}
	if cfg.GetTimeout() != 5*time.Second {
		t.Errorf("expected 5s timeout, got %v", cfg.GetTimeout())
	}
	if cfg.GetCacheTTL() != time.Hour {
		t.Errorf("expected 1h ttl, got %v", cfg.GetCacheTTL())
	}
	if cfg.GetMaxRetries() != 0 {
		t.Errorf("explicit max_retries 0 should be kept, got %d", cfg.GetMaxRetries())
	}
	if cfg.GetFallback() != "envelope" {
		t.Errorf("expected envelope fallback, got %q", cfg.GetFallback())
	}
	if !strings.HasSuffix(cfg.GetCachePath(), "cache.db") {
		t.Errorf("sqlite store should default to a database file, got %q", cfg.GetCachePath())
	}
}

// TestConfigDefaults verifies getters fall back when keys are absent
func TestConfigDefaults(t *testing.T) {
	cfg, err := Parse([]byte("{}"))
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}

	tests := []struct {
		name string
		got  any
		want any
	}{
		{"timeout", cfg.GetTimeout(), 30 * time.Second},
		{"cache ttl", cfg.GetCacheTTL(), 168 * time.Hour},
		{"guests ttl", cfg.GetGuestsTTL(), time.Minute},
		{"max retries", cfg.GetMaxRetries(), 3},
		{"base delay", cfg.GetBaseDelay(), time.Second},
		{"store", cfg.GetCacheStore(), "file"},
		{"fallback", cfg.GetFallback(), "default"},
		{"background logging", cfg.IsBackgroundLoggingEnabled(), true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.got != tt.want {
				t.Errorf("got %v, want %v", tt.got, tt.want)
			}
		})
	}
}

// TestConfigValidate verifies invalid values are rejected
func TestConfigValidate(t *testing.T) {
	tests := []struct {
		name    string
		yaml    string
		wantErr string
	}{
		{"bad format", "output_format: xml", "output_format"},
		{"bad store", "cache:\n  store: redis", "cache.store"},
		{"bad fallback", "api:\n  fallback: maybe", "api.fallback"},
		{"bad duration", "cache:\n  ttl: forever", "cache.ttl"},
		{"negative duration", "server:\n  timeout: -1s", "server.timeout"},
		{"negative retries", "retry:\n  max_retries: -2", "retry.max_retries"},
		{"bad url", "server:\n  url: sylve.lan", "server.url"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg, err := Parse([]byte(tt.yaml))
			if err != nil {
				t.Fatalf("Parse() error = %v", err)
			}
			err = cfg.Validate()
			if err == nil || !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("expected error mentioning %q, got %v", tt.wantErr, err)
			}
		})
	}
}

// TestConfigInvalidYAML verifies a broken file is reported
func TestConfigInvalidYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte("server: [unclosed"), 0644); err != nil {
		t.Fatal(err)
	}
	if _, err := Load(path); err == nil || !strings.Contains(err.Error(), "invalid YAML") {
		t.Errorf("expected invalid YAML error, got %v", err)
	}
}

// TestServerEnvOverride verifies SYLVECTL_SERVER replaces server.url and flags win over both
func TestServerEnvOverride(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte("server:\n  url: https://from-file:8181\n"), 0644); err != nil {
		t.Fatal(err)
	}
	t.Setenv(EnvServer, "https://from-env:8181")

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.Server.URL != "https://from-env:8181" {
		t.Errorf("env should override file, got %q", cfg.Server.URL)
	}

	cfg.ApplyFlags("https://from-flag:8181", true)
	if cfg.Server.URL != "https://from-flag:8181" {
		t.Errorf("flag should override env, got %q", cfg.Server.URL)
	}
	if cfg.OutputFormat != "json" {
		t.Errorf("--json should set output_format, got %q", cfg.OutputFormat)
	}
}

// TestExpandPath verifies ~ and env expansion in cache.path
func TestExpandPath(t *testing.T) {
	tmpDir := t.TempDir()
	t.Setenv("HOME", tmpDir)
	t.Setenv("SYLVE_TEST_DIR", "cachedir")

	cfg, err := Parse([]byte("cache:\n  path: ~/$SYLVE_TEST_DIR\n"))
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}
	want := filepath.Join(tmpDir, "cachedir")
	if cfg.GetCachePath() != want {
		t.Errorf("expected %q, got %q", want, cfg.GetCachePath())
	}
}

// TestGetUnknownKey verifies unknown keys are rejected
func TestGetUnknownKey(t *testing.T) {
	if _, err := DefaultConfig().Get("nope"); err == nil {
		t.Error("expected error for unknown key")
	}
}
