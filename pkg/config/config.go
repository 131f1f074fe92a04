// Package config handles loading and saving tulipaviz configuration.
//
// Configuration follows the XDG Base Directory specification:
//   - Config:  ~/.config/tulipaviz/config.yaml
//   - State:   ~/.local/state/tulipaviz/ (dashboard layout, recent databases)
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/TulipaEnergy/tulipaviz/pkg/model"
)

// maxRecent caps the recent-database list.
const maxRecent = 10

// UIConfig holds UI preference settings.
type UIConfig struct {
	Theme          string `yaml:"theme,omitempty"`           // dark, light; empty auto-detects
	AutosaveLayout *bool  `yaml:"autosave_layout,omitempty"` // save layout on quit (default true)
	Headless       bool   `yaml:"headless,omitempty"`        // compact header mode
}

// DefaultsConfig holds the initial query knobs for new panels.
type DefaultsConfig struct {
	Resolution string `yaml:"resolution,omitempty"` // hours, days, weeks, months, years
	Year       int    `yaml:"year,omitempty"`
}

// DiscoveryConfig controls where result databases are looked for.
type DiscoveryConfig struct {
	DataDirs []string `yaml:"data_dirs,omitempty"` // directories scanned for result databases
}

// Config is the top-level configuration for tulipaviz.
type Config struct {
	Recent    []string        `yaml:"recent,omitempty"`    // recently opened database paths, newest first
	Favorites map[int]string  `yaml:"favorites,omitempty"` // number key (1-9) -> database path
	UI        UIConfig        `yaml:"ui,omitempty"`
	Defaults  DefaultsConfig  `yaml:"defaults,omitempty"`
	Discovery DiscoveryConfig `yaml:"discovery,omitempty"`
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() Config {
	return Config{
		Favorites: make(map[int]string),
		Defaults: DefaultsConfig{
			Resolution: "hours",
		},
	}
}

// ConfigDir returns the XDG config directory for tulipaviz.
func ConfigDir() string {
	if dir := os.Getenv("XDG_CONFIG_HOME"); dir != "" {
		return filepath.Join(dir, "tulipaviz")
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(home, ".config", "tulipaviz")
}

// StateDir returns the XDG state directory for tulipaviz.
func StateDir() string {
	if dir := os.Getenv("XDG_STATE_HOME"); dir != "" {
		return filepath.Join(dir, "tulipaviz")
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(home, ".local", "state", "tulipaviz")
}

// ConfigPath returns the full path to config.yaml.
func ConfigPath() string {
	dir := ConfigDir()
	if dir == "" {
		return ""
	}
	return filepath.Join(dir, "config.yaml")
}

// LayoutPath returns the full path of the persisted dashboard layout.
func LayoutPath() string {
	dir := StateDir()
	if dir == "" {
		return ""
	}
	return filepath.Join(dir, "layout.json")
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
// Returns DefaultConfig if the file doesn't exist.
func LoadFrom(path string) (Config, error) {
	cfg := DefaultConfig()

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return cfg, fmt.Errorf("reading config: %w", err)
	}

	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("parsing config: %w", err)
	}

	if cfg.Favorites == nil {
		cfg.Favorites = make(map[int]string)
	}

	// Expand ~ in paths
	for i := range cfg.Recent {
		cfg.Recent[i] = expandHome(cfg.Recent[i])
	}
	for i := range cfg.Discovery.DataDirs {
		cfg.Discovery.DataDirs[i] = expandHome(cfg.Discovery.DataDirs[i])
	}

	return cfg, nil
}

// Save writes the config to the XDG config directory.
func Save(cfg Config) error {
	path := ConfigPath()
	if path == "" {
		return fmt.Errorf("cannot determine config directory")
	}
	return SaveTo(cfg, path)
}

// SaveTo writes the config to a specific path.
func SaveTo(cfg Config, path string) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
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

// AddRecent records a database path as most recently used, dropping
// duplicates and capping the list.
func (c *Config) AddRecent(path string) {
	path = expandHome(path)
	recent := []string{path}
	for _, p := range c.Recent {
		if p != path {
			recent = append(recent, p)
		}
	}
	if len(recent) > maxRecent {
		recent = recent[:maxRecent]
	}
	c.Recent = recent
}

// FavoriteDatabase returns the database path assigned to number key n
// (1-9), or empty.
func (c Config) FavoriteDatabase(n int) string {
	return c.Favorites[n]
}

// SetFavorite assigns a database path to a number key (1-9).
func (c *Config) SetFavorite(n int, path string) {
	if c.Favorites == nil {
		c.Favorites = make(map[int]string)
	}
	if path == "" {
		delete(c.Favorites, n)
	} else {
		c.Favorites[n] = expandHome(path)
	}
}

// DefaultResolution maps the configured resolution name to its value,
// falling back to hourly for unknown names.
func (c Config) DefaultResolution() model.Resolution {
	for _, r := range model.Resolutions {
		if r.String() == c.Defaults.Resolution {
			return r
		}
	}
	return model.ResolutionHours
}

// AutosaveLayout reports whether the layout should be written on quit.
// Defaults to true when unset.
func (c Config) AutosaveLayout() bool {
	return c.UI.AutosaveLayout == nil || *c.UI.AutosaveLayout
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
