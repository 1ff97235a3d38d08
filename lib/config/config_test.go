// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func TestDefault(t *testing.T) {
	cfg := Default()

	if cfg.Environment != Development {
		t.Errorf("expected environment=development, got %s", cfg.Environment)
	}

	if cfg.Listen.Network != "tcp" {
		t.Errorf("expected listen.network=tcp, got %s", cfg.Listen.Network)
	}

	if cfg.Listen.Address != "127.0.0.1:17010" {
		t.Errorf("expected listen.address=127.0.0.1:17010, got %s", cfg.Listen.Address)
	}

	if cfg.Screen.Width != 800 || cfg.Screen.Height != 600 {
		t.Errorf("expected 800x600 screen, got %dx%d", cfg.Screen.Width, cfg.Screen.Height)
	}

	// The default scene is the demo window with two widgets.
	if len(cfg.Scene.Windows) != 1 {
		t.Fatalf("expected 1 scene window, got %d", len(cfg.Scene.Windows))
	}
	if cfg.Scene.Windows[0].Title != "Demo Window" {
		t.Errorf("expected demo window title, got %q", cfg.Scene.Windows[0].Title)
	}
	if len(cfg.Scene.Windows[0].Widgets) != 2 {
		t.Errorf("expected 2 demo widgets, got %d", len(cfg.Scene.Windows[0].Widgets))
	}
}

func TestDefaultValidates(t *testing.T) {
	if err := Default().Validate(); err != nil {
		t.Fatalf("Default() must validate: %v", err)
	}
}

func TestLoad_RequiresCasementConfig(t *testing.T) {
	// Save and restore CASEMENT_CONFIG.
	origConfig := os.Getenv("CASEMENT_CONFIG")
	defer os.Setenv("CASEMENT_CONFIG", origConfig)

	// Unset CASEMENT_CONFIG - Load() should fail.
	os.Unsetenv("CASEMENT_CONFIG")

	_, err := Load()
	if err == nil {
		t.Fatal("expected error when CASEMENT_CONFIG not set, got nil")
	}

	expectedMsg := "CASEMENT_CONFIG environment variable not set"
	if !strings.HasPrefix(err.Error(), expectedMsg) {
		t.Errorf("expected error message to start with %q, got %q", expectedMsg, err.Error())
	}
}

func TestLoad_WithCasementConfig(t *testing.T) {
	// Save and restore CASEMENT_CONFIG.
	origConfig := os.Getenv("CASEMENT_CONFIG")
	defer os.Setenv("CASEMENT_CONFIG", origConfig)

	// Create temp config file.
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "casement.yaml")

	configContent := `
environment: staging
listen:
  address: 0.0.0.0:7777
`
	if err := os.WriteFile(configPath, []byte(configContent), 0644); err != nil {
		t.Fatalf("failed to write config: %v", err)
	}

	// Set CASEMENT_CONFIG and load.
	os.Setenv("CASEMENT_CONFIG", configPath)

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() failed: %v", err)
	}

	if cfg.Environment != Staging {
		t.Errorf("expected environment=staging, got %s", cfg.Environment)
	}

	if cfg.Listen.Address != "0.0.0.0:7777" {
		t.Errorf("expected address=0.0.0.0:7777, got %s", cfg.Listen.Address)
	}
}

func TestLoadFile(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "casement.yaml")

	configContent := `
environment: staging

listen:
  network: unix
  address: /custom/casement.sock

log:
  level: warn

session:
  idle_timeout: 30s

screen:
  width: 1024
  height: 768

scene:
  windows:
    - title: Editor
      width: 640
      height: 480
      widgets:
        - type: text-input
          rect: 10 10 620 40
`

	if err := os.WriteFile(configPath, []byte(configContent), 0644); err != nil {
		t.Fatalf("failed to write config: %v", err)
	}

	cfg, err := LoadFile(configPath)
	if err != nil {
		t.Fatalf("LoadFile failed: %v", err)
	}

	if cfg.Listen.Network != "unix" {
		t.Errorf("expected network=unix, got %s", cfg.Listen.Network)
	}
	if cfg.Log.Level != "warn" {
		t.Errorf("expected level=warn, got %s", cfg.Log.Level)
	}
	if got := cfg.IdleTimeout(); got != 30*time.Second {
		t.Errorf("expected idle timeout 30s, got %v", got)
	}
	if cfg.Screen.Width != 1024 {
		t.Errorf("expected width=1024, got %d", cfg.Screen.Width)
	}

	// The file's scene replaces the default demo scene.
	if len(cfg.Scene.Windows) != 1 || cfg.Scene.Windows[0].Title != "Editor" {
		t.Errorf("scene not loaded: %+v", cfg.Scene.Windows)
	}
	if len(cfg.Scene.Windows[0].Widgets) != 1 {
		t.Fatalf("expected 1 widget, got %d", len(cfg.Scene.Windows[0].Widgets))
	}
	if cfg.Scene.Windows[0].Widgets[0].Type != "text-input" {
		t.Errorf("expected widget type text-input, got %q", cfg.Scene.Windows[0].Widgets[0].Type)
	}

	if err := cfg.Validate(); err != nil {
		t.Fatalf("loaded config must validate: %v", err)
	}
}

func TestDevelopmentDefaultsToDebugLogging(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "casement.yaml")

	configContent := `
environment: development
`
	if err := os.WriteFile(configPath, []byte(configContent), 0644); err != nil {
		t.Fatalf("failed to write config: %v", err)
	}

	cfg, err := LoadFile(configPath)
	if err != nil {
		t.Fatalf("LoadFile failed: %v", err)
	}

	if cfg.Log.Level != "debug" {
		t.Errorf("expected development log level debug, got %s", cfg.Log.Level)
	}
}

func TestEnvironmentOverrides(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "casement.yaml")

	configContent := `
environment: production
listen:
  address: 127.0.0.1:17010
production:
  listen:
    address: 0.0.0.0:17010
  log:
    level: error
`
	if err := os.WriteFile(configPath, []byte(configContent), 0644); err != nil {
		t.Fatalf("failed to write config: %v", err)
	}

	cfg, err := LoadFile(configPath)
	if err != nil {
		t.Fatalf("LoadFile failed: %v", err)
	}

	if cfg.Listen.Address != "0.0.0.0:17010" {
		t.Errorf("production override not applied: %s", cfg.Listen.Address)
	}
	if cfg.Log.Level != "error" {
		t.Errorf("production log override not applied: %s", cfg.Log.Level)
	}
}

func TestExpandVariables(t *testing.T) {
	t.Setenv("HOME", "/home/tester")

	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "casement.yaml")

	configContent := `
listen:
  network: unix
  address: ${HOME}/.cache/casement/wm.sock
`
	if err := os.WriteFile(configPath, []byte(configContent), 0644); err != nil {
		t.Fatalf("failed to write config: %v", err)
	}

	cfg, err := LoadFile(configPath)
	if err != nil {
		t.Fatalf("LoadFile failed: %v", err)
	}

	want := "/home/tester/.cache/casement/wm.sock"
	if cfg.Listen.Address != want {
		t.Errorf("expected expanded address %q, got %q", want, cfg.Listen.Address)
	}
}

func TestExpandVariablesDefaultValue(t *testing.T) {
	os.Unsetenv("CASEMENT_TEST_UNSET")

	got := expandVars("${CASEMENT_TEST_UNSET:-/fallback}/wm.sock", nil)
	if got != "/fallback/wm.sock" {
		t.Errorf("expected default expansion, got %q", got)
	}
}

func TestValidateRejectsBadValues(t *testing.T) {
	cases := []struct {
		name   string
		mutate func(*Config)
		want   string
	}{
		{
			name:   "bad environment",
			mutate: func(c *Config) { c.Environment = "qa" },
			want:   "invalid environment",
		},
		{
			name:   "bad network",
			mutate: func(c *Config) { c.Listen.Network = "udp" },
			want:   "listen.network",
		},
		{
			name:   "empty address",
			mutate: func(c *Config) { c.Listen.Address = "" },
			want:   "listen.address",
		},
		{
			name:   "bad log level",
			mutate: func(c *Config) { c.Log.Level = "verbose" },
			want:   "log.level",
		},
		{
			name:   "bad idle timeout",
			mutate: func(c *Config) { c.Session.IdleTimeout = "soon" },
			want:   "idle_timeout",
		},
		{
			name:   "zero screen",
			mutate: func(c *Config) { c.Screen.Width = 0 },
			want:   "screen dimensions",
		},
		{
			name: "widget without type",
			mutate: func(c *Config) {
				c.Scene.Windows[0].Widgets[0].Type = ""
			},
			want: "type is required",
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			cfg := Default()
			tc.mutate(cfg)
			err := cfg.Validate()
			if err == nil {
				t.Fatal("expected validation error, got nil")
			}
			if !strings.Contains(err.Error(), tc.want) {
				t.Errorf("error %q does not mention %q", err.Error(), tc.want)
			}
		})
	}
}

func TestDoubleClickIntervalFallback(t *testing.T) {
	cfg := Default()
	cfg.Input.DoubleClickInterval = ""
	if got := cfg.DoubleClickInterval(); got != 500*time.Millisecond {
		t.Errorf("expected 500ms fallback, got %v", got)
	}

	cfg.Input.DoubleClickInterval = "250ms"
	if got := cfg.DoubleClickInterval(); got != 250*time.Millisecond {
		t.Errorf("expected 250ms, got %v", got)
	}
}

func TestEnsureListenDir(t *testing.T) {
	tmpDir := t.TempDir()
	cfg := Default()
	cfg.Listen.Network = "unix"
	cfg.Listen.Address = filepath.Join(tmpDir, "deep", "nested", "wm.sock")

	if err := cfg.EnsureListenDir(); err != nil {
		t.Fatalf("EnsureListenDir: %v", err)
	}

	info, err := os.Stat(filepath.Join(tmpDir, "deep", "nested"))
	if err != nil {
		t.Fatalf("socket dir not created: %v", err)
	}
	if !info.IsDir() {
		t.Fatal("socket dir is not a directory")
	}
}
