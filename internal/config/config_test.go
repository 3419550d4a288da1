// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestDefault(t *testing.T) {
	cfg := Default()

	if cfg.API.TimeoutSecs != 30 {
		t.Errorf("default timeout = %d, want 30", cfg.API.TimeoutSecs)
	}
	if cfg.UI.Theme != "auto" {
		t.Errorf("default theme = %q, want auto", cfg.UI.Theme)
	}
	if !cfg.History.Enabled {
		t.Error("history should be enabled by default")
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{"valid defaults", func(c *Config) {}, ""},
		{"valid url", func(c *Config) { c.API.URL = "https://auth.example.com" }, ""},
		{"bad url", func(c *Config) { c.API.URL = "://nope" }, "api.url"},
		{"relative url", func(c *Config) { c.API.URL = "auth.example.com" }, "api.url"},
		{"timeout too low", func(c *Config) { c.API.TimeoutSecs = 0 }, "api.timeout_secs"},
		{"timeout too high", func(c *Config) { c.API.TimeoutSecs = 301 }, "api.timeout_secs"},
		{"bad theme", func(c *Config) { c.UI.Theme = "solarized" }, "ui.theme"},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			cfg := Default()
			tc.mutate(cfg)
			err := cfg.Validate()
			if tc.wantErr == "" {
				if err != nil {
					t.Errorf("Validate() error = %v, want nil", err)
				}
				return
			}
			if err == nil || !strings.Contains(err.Error(), tc.wantErr) {
				t.Errorf("Validate() error = %v, want to mention %q", err, tc.wantErr)
			}
		})
	}
}

func TestApplyEnvOverrides(t *testing.T) {
	t.Setenv("AUTHFLOW_API_URL", "https://override.example.com")
	t.Setenv("AUTHFLOW_API_KEY", "key-from-env")
	t.Setenv("AUTHFLOW_THEME", "light")
	t.Setenv("AUTHFLOW_NO_HISTORY", "1")

	cfg := Default()
	cfg.ApplyEnvOverrides()

	if cfg.API.URL != "https://override.example.com" {
		t.Errorf("API.URL = %q", cfg.API.URL)
	}
	if cfg.API.Key != "key-from-env" {
		t.Errorf("API.Key = %q", cfg.API.Key)
	}
	if cfg.UI.Theme != "light" {
		t.Errorf("UI.Theme = %q", cfg.UI.Theme)
	}
	if cfg.History.Enabled {
		t.Error("history should be disabled by AUTHFLOW_NO_HISTORY=1")
	}
}

func TestLoadFromPath_TOML(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.toml")

	content := `
version = "1.0.0"

[api]
url = "https://auth.example.com"
key = "test-api-key"
timeout_secs = 10

[ui]
theme = "dark"
`
	if err := os.WriteFile(path, []byte(content), 0600); err != nil {
		t.Fatal(err)
	}

	cfg, err := LoadFromPath(path)
	if err != nil {
		t.Fatalf("LoadFromPath() error = %v", err)
	}
	if cfg.API.URL != "https://auth.example.com" {
		t.Errorf("API.URL = %q", cfg.API.URL)
	}
	if cfg.API.Key != "test-api-key" {
		t.Errorf("API.Key = %q", cfg.API.Key)
	}
	if cfg.API.TimeoutSecs != 10 {
		t.Errorf("API.TimeoutSecs = %d", cfg.API.TimeoutSecs)
	}
	if cfg.UI.Theme != "dark" {
		t.Errorf("UI.Theme = %q", cfg.UI.Theme)
	}
	// History path should be defaulted even when absent from the file.
	if cfg.History.Path == "" {
		t.Error("History.Path should be defaulted")
	}
}

func TestSaveTOML_RoundTrip(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.toml")

	cfg := Default()
	cfg.API.URL = "https://rt.example.com"
	cfg.API.Key = "rt-key"
	cfg.UI.Theme = "light"

	if err := SaveTOML(cfg, path); err != nil {
		t.Fatalf("SaveTOML() error = %v", err)
	}

	info, err := os.Stat(path)
	if err != nil {
		t.Fatal(err)
	}
	if info.Mode().Perm() != 0600 {
		t.Errorf("permissions = %o, want 0600", info.Mode().Perm())
	}

	loaded, err := LoadFromPath(path)
	if err != nil {
		t.Fatalf("LoadFromPath() error = %v", err)
	}
	if loaded.API.URL != cfg.API.URL || loaded.API.Key != cfg.API.Key || loaded.UI.Theme != cfg.UI.Theme {
		t.Errorf("round trip mismatch: %+v", loaded)
	}
}

func TestString_RedactsKey(t *testing.T) {
	cfg := Default()
	cfg.API.Key = "super-secret-key"

	s := cfg.String()
	if strings.Contains(s, "super-secret-key") {
		t.Error("String() leaked the API key")
	}
	if !strings.Contains(s, "[REDACTED]") {
		t.Error("String() should mark the key as redacted")
	}
}
