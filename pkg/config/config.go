// Package config handles loading and saving canopy configuration.
//
// Configuration follows the XDG Base Directory specification:
//   - Config: ~/.config/canopy/config.yaml
//   - State:  ~/.local/state/canopy/ (default tree document)
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/vanderheijden86/canopy/pkg/anim"
	"github.com/vanderheijden86/canopy/pkg/layout"
)

// LayoutConfig controls node spacing.
type LayoutConfig struct {
	Breadth     float64 `yaml:"breadth,omitempty"`      // separation between leaves
	Width       float64 `yaml:"width,omitempty"`        // drawing width for depth spacing
	MarginLeft  float64 `yaml:"margin_left,omitempty"`  // reserved left of the root
	MarginRight float64 `yaml:"margin_right,omitempty"` // reserved right of the deepest level
}

// AnimationConfig controls transitions.
type AnimationConfig struct {
	DurationMs *int   `yaml:"duration_ms,omitempty"` // 0 disables animation
	Easing     string `yaml:"easing,omitempty"`      // see anim.EasingNames
}

// ServerConfig controls the HTTP server.
type ServerConfig struct {
	Addr string `yaml:"addr,omitempty"`
}

// WatchConfig controls reloading on external file changes.
type WatchConfig struct {
	Enabled    *bool `yaml:"enabled,omitempty"`
	DebounceMs int   `yaml:"debounce_ms,omitempty"`
}

// Config is the top-level configuration.
type Config struct {
	Store     string          `yaml:"store,omitempty"` // store target, see store.Parse
	Layout    LayoutConfig    `yaml:"layout,omitempty"`
	Animation AnimationConfig `yaml:"animation,omitempty"`
	Server    ServerConfig    `yaml:"server,omitempty"`
	Watch     WatchConfig     `yaml:"watch,omitempty"`
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() Config {
	duration := int(anim.DefaultDuration / time.Millisecond)
	watch := true
	return Config{
		Store: DefaultStorePath(),
		Layout: LayoutConfig{
			Breadth:     layout.DefaultBreadth,
			Width:       layout.DefaultWidth,
			MarginLeft:  layout.DefaultMarginLeft,
			MarginRight: layout.DefaultMarginRight,
		},
		Animation: AnimationConfig{
			DurationMs: &duration,
			Easing:     anim.DefaultEasing,
		},
		Server: ServerConfig{Addr: ":3000"},
		Watch: WatchConfig{
			Enabled:    &watch,
			DebounceMs: 200,
		},
	}
}

// Duration returns the configured transition length.
func (c Config) Duration() time.Duration {
	if c.Animation.DurationMs == nil {
		return anim.DefaultDuration
	}
	return time.Duration(*c.Animation.DurationMs) * time.Millisecond
}

// WatchEnabled reports whether external changes should be picked up.
func (c Config) WatchEnabled() bool {
	return c.Watch.Enabled == nil || *c.Watch.Enabled
}

// Validate checks values that would otherwise fail late.
func (c Config) Validate() error {
	if c.Layout.Breadth < 0 || c.Layout.Width < 0 {
		return fmt.Errorf("layout: breadth and width must not be negative")
	}
	if c.Animation.DurationMs != nil && *c.Animation.DurationMs < 0 {
		return fmt.Errorf("animation: duration_ms must not be negative")
	}
	if _, err := anim.Easing(c.Animation.Easing); err != nil {
		return fmt.Errorf("animation: %w", err)
	}
	return nil
}

// ConfigDir returns the XDG config directory for canopy.
func ConfigDir() string {
	return xdgDir("XDG_CONFIG_HOME", ".config")
}

// StateDir returns the XDG state directory for canopy.
func StateDir() string {
	return xdgDir("XDG_STATE_HOME", filepath.Join(".local", "state"))
}

func xdgDir(env, fallback string) string {
	if dir := os.Getenv(env); dir != "" {
		return filepath.Join(dir, "canopy")
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(home, fallback, "canopy")
}

// ConfigPath returns the full path to config.yaml.
func ConfigPath() string {
	dir := ConfigDir()
	if dir == "" {
		return ""
	}
	return filepath.Join(dir, "config.yaml")
}

// DefaultStorePath returns where the tree is kept when nothing is configured.
func DefaultStorePath() string {
	dir := StateDir()
	if dir == "" {
		return "tree.json"
	}
	return filepath.Join(dir, "tree.json")
}

// Load reads the config file from the XDG config directory.
// Returns DefaultConfig if the file doesn't exist.
func Load() (Config, error) {
	path := ConfigPath()
	if path == "" {
		return DefaultConfig(), nil
	}
	return LoadFrom(path)
}

// LoadFrom reads config from a specific path.
// A missing file yields DefaultConfig. CANOPY_STORE overrides the store.
func LoadFrom(path string) (Config, error) {
	cfg := DefaultConfig()

	data, err := os.ReadFile(path)
	switch {
	case err == nil:
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return cfg, fmt.Errorf("parsing config: %w", err)
		}
	case !os.IsNotExist(err):
		return cfg, fmt.Errorf("reading config: %w", err)
	}

	cfg.Store = expandHome(cfg.Store)
	if env := strings.TrimSpace(os.Getenv("CANOPY_STORE")); env != "" {
		cfg.Store = expandHome(env)
	}
	if err := cfg.Validate(); err != nil {
		return cfg, fmt.Errorf("invalid config %s: %w", path, err)
	}
	return cfg, nil
}

// SaveTo writes the config to a specific path.
func SaveTo(cfg Config, path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("creating config directory: %w", err)
	}
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("marshaling config: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("writing config: %w", err)
	}
	return nil
}

func expandHome(path string) string {
	if !strings.HasPrefix(path, "~") {
		return path
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return path
	}
	return filepath.Join(home, path[1:])
}
