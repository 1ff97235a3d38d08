// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package config provides configuration loading for casement.
//
// Configuration is loaded from a single file specified by:
//   - CASEMENT_CONFIG environment variable, or
//   - --config flag passed to the daemon
//
// There are no fallbacks or automatic discovery. This ensures deterministic,
// auditable configuration with no hidden overrides.
//
// The config file may contain environment-specific sections (development,
// staging, production) that override base values when the environment matches.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"time"

	"gopkg.in/yaml.v3"
)

// Environment represents the deployment environment.
type Environment string

const (
	// Development is for local development machines.
	Development Environment = "development"
	// Staging is for pre-production testing.
	Staging Environment = "staging"
	// Production is for production deployments.
	Production Environment = "production"
)

// Config is the master configuration for the casement daemon.
type Config struct {
	// Environment identifies the deployment type (development, staging, production).
	Environment Environment `yaml:"environment"`

	// Listen configures the protocol listener.
	Listen ListenConfig `yaml:"listen"`

	// Log configures diagnostic logging.
	Log LogConfig `yaml:"log"`

	// Metrics configures the Prometheus endpoint.
	Metrics MetricsConfig `yaml:"metrics"`

	// Session configures per-connection behavior.
	Session SessionConfig `yaml:"session"`

	// Screen configures the root drawing surface.
	Screen ScreenConfig `yaml:"screen"`

	// Input configures event generation.
	Input InputConfig `yaml:"input"`

	// Scene declares windows and widgets created at startup.
	Scene SceneConfig `yaml:"scene"`

	// EnvironmentOverrides contains per-environment overrides.
	// These are applied after the base config is loaded.
	Development *ConfigOverrides `yaml:"development,omitempty"`
	Staging     *ConfigOverrides `yaml:"staging,omitempty"`
	Production  *ConfigOverrides `yaml:"production,omitempty"`
}

// ConfigOverrides contains fields that can be overridden per environment.
type ConfigOverrides struct {
	Listen  *ListenConfig  `yaml:"listen,omitempty"`
	Log     *LogConfig     `yaml:"log,omitempty"`
	Metrics *MetricsConfig `yaml:"metrics,omitempty"`
	Session *SessionConfig `yaml:"session,omitempty"`
}

// ListenConfig configures the protocol listener.
type ListenConfig struct {
	// Network is the listener type: "tcp" or "unix".
	// Default: tcp
	Network string `yaml:"network"`

	// Address is the listen address: host:port for tcp, a socket
	// path for unix.
	// Default: 127.0.0.1:17010
	Address string `yaml:"address"`
}

// LogConfig configures diagnostic logging.
type LogConfig struct {
	// Level is the minimum level emitted: debug, info, warn, error.
	// Default: info (development: debug)
	Level string `yaml:"level"`
}

// MetricsConfig configures the Prometheus endpoint.
type MetricsConfig struct {
	// Address is the HTTP listen address for /metrics. Empty disables
	// the endpoint.
	// Default: "" (disabled)
	Address string `yaml:"address"`
}

// SessionConfig configures per-connection behavior.
type SessionConfig struct {
	// IdleTimeout is how long a connection may sit with no request
	// before the daemon closes it. Zero or empty disables the timeout.
	// Default: 5m
	IdleTimeout string `yaml:"idle_timeout"`
}

// ScreenConfig configures the root drawing surface.
type ScreenConfig struct {
	// Width is the root screen width in pixels.
	// Default: 800
	Width int `yaml:"width"`

	// Height is the root screen height in pixels.
	// Default: 600
	Height int `yaml:"height"`
}

// InputConfig configures event generation.
type InputConfig struct {
	// DoubleClickInterval is the maximum gap between two clicks on
	// the same widget for the second to count as a double click.
	// Default: 500ms
	DoubleClickInterval string `yaml:"double_click_interval"`
}

// SceneConfig declares windows and widgets created at startup.
type SceneConfig struct {
	// Windows lists the windows to create, in order.
	Windows []WindowScene `yaml:"windows"`
}

// WindowScene declares one startup window.
type WindowScene struct {
	// Title is the window title. Empty titles get a generated one.
	Title string `yaml:"title"`

	// Width and Height size the window content.
	Width  int `yaml:"width"`
	Height int `yaml:"height"`

	// Rect optionally overrides the default placement, as
	// "x y width height".
	Rect string `yaml:"rect,omitempty"`

	// Widgets lists the widgets to create inside the window, in order.
	Widgets []WidgetScene `yaml:"widgets,omitempty"`
}

// WidgetScene declares one startup widget.
type WidgetScene struct {
	// Type is the widget kind name, e.g. "button" or "label".
	Type string `yaml:"type"`

	// Text is the initial text property.
	Text string `yaml:"text,omitempty"`

	// Rect is the widget placement as "x y width height".
	Rect string `yaml:"rect,omitempty"`
}

// Default returns the default configuration. The scene defaults to a
// demo window with a button and a label, so a bare daemon serves a
// tree worth exploring.
func Default() *Config {
	return &Config{
		Environment: Development,
		Listen: ListenConfig{
			Network: "tcp",
			Address: "127.0.0.1:17010",
		},
		Log: LogConfig{
			Level: "info",
		},
		Metrics: MetricsConfig{
			Address: "",
		},
		Session: SessionConfig{
			IdleTimeout: "5m",
		},
		Screen: ScreenConfig{
			Width:  800,
			Height: 600,
		},
		Input: InputConfig{
			DoubleClickInterval: "500ms",
		},
		Scene: SceneConfig{
			Windows: []WindowScene{
				{
					Title:  "Demo Window",
					Width:  800,
					Height: 600,
					Rect:   "0 0 800 600",
					Widgets: []WidgetScene{
						{Type: "button", Text: "Click Me", Rect: "50 50 200 50"},
						{Type: "label", Text: "Hello, World!", Rect: "50 120 300 40"},
					},
				},
			},
		},
	}
}

// Load loads configuration from the CASEMENT_CONFIG environment variable.
//
// This is the only way to load configuration without an explicit path.
// There are no fallbacks - if CASEMENT_CONFIG is not set, this fails.
// This ensures deterministic, auditable configuration with no hidden
// overrides.
func Load() (*Config, error) {
	configPath := os.Getenv("CASEMENT_CONFIG")
	if configPath == "" {
		return nil, fmt.Errorf("CASEMENT_CONFIG environment variable not set; " +
			"set it to the path of your casement.yaml config file, or use --config flag")
	}

	return LoadFile(configPath)
}

// LoadFile loads configuration from a specific file path.
//
// The config file is the single source of truth. Environment variables do
// not override config values. The only expansion performed is ${HOME} and
// similar path variables for portability.
func LoadFile(path string) (*Config, error) {
	cfg := Default()

	if err := cfg.loadFile(path); err != nil {
		return nil, err
	}

	// Apply environment-specific overrides (development/staging/production
	// sections in the file).
	cfg.applyEnvironmentOverrides()

	// Expand ${HOME} and similar variables in paths for portability.
	cfg.expandVariables()

	return cfg, nil
}

// loadFile loads a single configuration file, merging into the current config.
func (c *Config) loadFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}

	return yaml.Unmarshal(data, c)
}

// applyEnvironmentOverrides applies the environment-specific overrides.
func (c *Config) applyEnvironmentOverrides() {
	var overrides *ConfigOverrides

	switch c.Environment {
	case Development:
		overrides = c.Development
		// Development default: verbose logging.
		if overrides == nil {
			overrides = &ConfigOverrides{
				Log: &LogConfig{Level: "debug"},
			}
		}
	case Staging:
		overrides = c.Staging
	case Production:
		overrides = c.Production
	}

	if overrides == nil {
		return
	}

	if overrides.Listen != nil {
		if overrides.Listen.Network != "" {
			c.Listen.Network = overrides.Listen.Network
		}
		if overrides.Listen.Address != "" {
			c.Listen.Address = overrides.Listen.Address
		}
	}

	if overrides.Log != nil {
		if overrides.Log.Level != "" {
			c.Log.Level = overrides.Log.Level
		}
	}

	if overrides.Metrics != nil {
		if overrides.Metrics.Address != "" {
			c.Metrics.Address = overrides.Metrics.Address
		}
	}

	if overrides.Session != nil {
		if overrides.Session.IdleTimeout != "" {
			c.Session.IdleTimeout = overrides.Session.IdleTimeout
		}
	}
}

// expandVariables expands ${VAR} and ${VAR:-default} patterns in paths.
func (c *Config) expandVariables() {
	vars := map[string]string{
		"HOME": os.Getenv("HOME"),
	}

	c.Listen.Address = expandVars(c.Listen.Address, vars)
	c.Metrics.Address = expandVars(c.Metrics.Address, vars)
}

// expandVars expands ${VAR} and ${VAR:-default} patterns.
var varPattern = regexp.MustCompile(`\$\{([^}:]+)(?::-([^}]*))?\}`)

func expandVars(s string, vars map[string]string) string {
	return varPattern.ReplaceAllStringFunc(s, func(match string) string {
		parts := varPattern.FindStringSubmatch(match)
		if len(parts) < 2 {
			return match
		}

		name := parts[1]
		defaultValue := ""
		if len(parts) >= 3 {
			defaultValue = parts[2]
		}

		// Check provided vars first, then environment.
		if value, ok := vars[name]; ok && value != "" {
			return value
		}
		if value := os.Getenv(name); value != "" {
			return value
		}
		return defaultValue
	})
}

// Validate checks the configuration for errors.
func (c *Config) Validate() error {
	var errs []error

	if c.Environment != Development && c.Environment != Staging && c.Environment != Production {
		errs = append(errs, fmt.Errorf("invalid environment: %s", c.Environment))
	}

	if c.Listen.Network != "tcp" && c.Listen.Network != "unix" {
		errs = append(errs, fmt.Errorf("listen.network must be tcp or unix, got %q", c.Listen.Network))
	}
	if c.Listen.Address == "" {
		errs = append(errs, fmt.Errorf("listen.address is required"))
	}

	logLevels := []string{"debug", "info", "warn", "error"}
	if !contains(logLevels, c.Log.Level) {
		errs = append(errs, fmt.Errorf("log.level must be one of: %v", logLevels))
	}

	if c.Session.IdleTimeout != "" {
		if _, err := time.ParseDuration(c.Session.IdleTimeout); err != nil {
			errs = append(errs, fmt.Errorf("session.idle_timeout: %w", err))
		}
	}

	if c.Screen.Width <= 0 || c.Screen.Height <= 0 {
		errs = append(errs, fmt.Errorf("screen dimensions must be positive, got %dx%d",
			c.Screen.Width, c.Screen.Height))
	}

	if c.Input.DoubleClickInterval != "" {
		if _, err := time.ParseDuration(c.Input.DoubleClickInterval); err != nil {
			errs = append(errs, fmt.Errorf("input.double_click_interval: %w", err))
		}
	}

	for i, window := range c.Scene.Windows {
		if window.Width <= 0 || window.Height <= 0 {
			errs = append(errs, fmt.Errorf("scene.windows[%d]: dimensions must be positive", i))
		}
		for j, widget := range window.Widgets {
			if widget.Type == "" {
				errs = append(errs, fmt.Errorf("scene.windows[%d].widgets[%d]: type is required", i, j))
			}
		}
	}

	if len(errs) > 0 {
		return errors.Join(errs...)
	}
	return nil
}

// IdleTimeout returns the parsed session idle timeout. Zero means no
// timeout. Call Validate first; unparseable values return zero here.
func (c *Config) IdleTimeout() time.Duration {
	if c.Session.IdleTimeout == "" {
		return 0
	}
	d, err := time.ParseDuration(c.Session.IdleTimeout)
	if err != nil {
		return 0
	}
	return d
}

// DoubleClickInterval returns the parsed double-click interval.
func (c *Config) DoubleClickInterval() time.Duration {
	d, err := time.ParseDuration(c.Input.DoubleClickInterval)
	if err != nil || d <= 0 {
		return 500 * time.Millisecond
	}
	return d
}

// EnsureListenDir creates the parent directory of a unix listen socket
// if it does not exist. No-op for tcp listeners.
func (c *Config) EnsureListenDir() error {
	if c.Listen.Network != "unix" {
		return nil
	}
	dir := filepath.Dir(c.Listen.Address)
	if dir == "" || dir == "." {
		return nil
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("creating %s: %w", dir, err)
	}
	return nil
}

func contains(slice []string, s string) bool {
	for _, v := range slice {
		if v == s {
			return true
		}
	}
	return false
}
