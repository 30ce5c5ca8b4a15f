// Package config handles loading and saving clustermap configuration.
//
// Configuration follows the XDG Base Directory specification:
//   - Config:  ~/.config/clustermap/config.yaml
//   - Data:    ~/.local/share/clustermap/ (cached datasets)
//   - State:   ~/.local/state/clustermap/ (debug logs)
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// DataConfig names where cluster data comes from.
type DataConfig struct {
	// Path is a hierarchy file, database, or collaborator base URL. The
	// --data flag and CLUSTERMAP_DB override it.
	Path string `yaml:"path,omitempty"`
	// TopicEndpoint points file sources at an HTTP topics collaborator.
	// Empty means topics come from the data source itself (SQLite, HTTP)
	// or nowhere (plain JSON).
	TopicEndpoint string `yaml:"topic_endpoint,omitempty"`
	// Watch enables live reload on file sources. Nil means on.
	Watch *bool `yaml:"watch,omitempty"`
}

// UIConfig holds interface preferences.
type UIConfig struct {
	Theme          string   `yaml:"theme,omitempty"`            // dark, light
	Sync           *bool    `yaml:"sync,omitempty"`             // outline follows the map; nil means on
	ShowLabels     *bool    `yaml:"show_labels,omitempty"`      // map labels; nil means on
	ZoomDurationMs int      `yaml:"zoom_duration_ms,omitempty"` // camera animation length
	Palette        []string `yaml:"palette,omitempty"`          // hex overrides for category base colors
}

// ExportConfig holds snapshot defaults.
type ExportConfig struct {
	Dir    string `yaml:"dir,omitempty"`
	Width  int    `yaml:"width,omitempty"`
	Height int    `yaml:"height,omitempty"`
}

// Config is the top-level configuration for cm.
type Config struct {
	Data   DataConfig   `yaml:"data,omitempty"`
	UI     UIConfig     `yaml:"ui,omitempty"`
	Export ExportConfig `yaml:"export,omitempty"`
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() Config {
	return Config{
		UI: UIConfig{
			Theme:          "dark",
			ZoomDurationMs: 900,
		},
		Export: ExportConfig{
			Dir:    "snapshots",
			Width:  1600,
			Height: 1200,
		},
	}
}

// SyncEnabled reports whether the outline follows map navigation.
func (c Config) SyncEnabled() bool {
	return c.UI.Sync == nil || *c.UI.Sync
}

// LabelsEnabled reports whether the map draws cluster labels.
func (c Config) LabelsEnabled() bool {
	return c.UI.ShowLabels == nil || *c.UI.ShowLabels
}

// WatchEnabled reports whether file sources are watched for live reload.
func (c Config) WatchEnabled() bool {
	return c.Data.Watch == nil || *c.Data.Watch
}

// ZoomDuration returns the camera animation length, defaulting when the
// configured value is missing or nonsense.
func (c Config) ZoomDuration() time.Duration {
	if c.UI.ZoomDurationMs <= 0 {
		return 900 * time.Millisecond
	}
	return time.Duration(c.UI.ZoomDurationMs) * time.Millisecond
}

// ConfigDir returns the XDG config directory for clustermap.
func ConfigDir() string {
	if dir := os.Getenv("XDG_CONFIG_HOME"); dir != "" {
		return filepath.Join(dir, "clustermap")
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(home, ".config", "clustermap")
}

// DataDir returns the XDG data directory for clustermap.
func DataDir() string {
	if dir := os.Getenv("XDG_DATA_HOME"); dir != "" {
		return filepath.Join(dir, "clustermap")
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(home, ".local", "share", "clustermap")
}

// StateDir returns the XDG state directory for clustermap.
func StateDir() string {
	if dir := os.Getenv("XDG_STATE_HOME"); dir != "" {
		return filepath.Join(dir, "clustermap")
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(home, ".local", "state", "clustermap")
}

// ConfigPath returns the full path to config.yaml.
func ConfigPath() string {
	dir := ConfigDir()
	if dir == "" {
		return ""
	}
	return filepath.Join(dir, "config.yaml")
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

	// Expand ~ in paths
	cfg.Data.Path = expandHome(cfg.Data.Path)
	cfg.Export.Dir = expandHome(cfg.Export.Dir)

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
