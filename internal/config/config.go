// Package config loads and saves payplan's TOML configuration.
package config

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/BurntSushi/toml"

	"github.com/theirongolddev/payplan/internal/source"
)

// Config holds all payplan configuration.
type Config struct {
	General    GeneralConfig    `toml:"general"`
	Import     ImportConfig     `toml:"import"`
	Appearance AppearanceConfig `toml:"appearance"`
	Server     ServerConfig     `toml:"server"`
}

// GeneralConfig holds general preferences.
type GeneralConfig struct {
	// DefaultBudget is applied every time a set is loaded.
	DefaultBudget int64  `toml:"default_budget"`
	StorePath     string `toml:"store_path,omitempty"`
}

// ImportConfig maps spreadsheet headers to obligation fields.
type ImportConfig struct {
	Sheet           string   `toml:"sheet,omitempty"`
	IDColumn        string   `toml:"id_column"`
	LiabilityColumn string   `toml:"liability_column"`
	AmountColumn    string   `toml:"amount_column"`
	GroupColumns    []string `toml:"group_columns"`
}

// AppearanceConfig holds theme settings.
type AppearanceConfig struct {
	Theme string `toml:"theme"`
}

// ServerConfig holds settings for `payplan serve`.
type ServerConfig struct {
	Addr         string `toml:"addr"`
	MaxSessions  int    `toml:"max_sessions"`
	EventsBuffer int    `toml:"events_buffer"`
}

// DefaultConfig returns the default configuration.
func DefaultConfig() Config {
	return Config{
		Import: ImportConfig{
			IDColumn:        "Payment Tracking No",
			LiabilityColumn: "Remaining Liability",
			AmountColumn:    "Amount This Period",
			GroupColumns:    []string{"Project", "Company"},
		},
		Appearance: AppearanceConfig{
			Theme: "flexoki-dark",
		},
		Server: ServerConfig{
			Addr:         "127.0.0.1:8640",
			MaxSessions:  64,
			EventsBuffer: 200,
		},
	}
}

// ColumnMap returns the importer's view of the import settings.
func (c ImportConfig) ColumnMap() source.ColumnMap {
	return source.ColumnMap{
		Sheet:     c.Sheet,
		ID:        c.IDColumn,
		Liability: c.LiabilityColumn,
		Amount:    c.AmountColumn,
	}
}

// DefaultGroup returns the first configured group column, or "".
func (c ImportConfig) DefaultGroup() string {
	if len(c.GroupColumns) == 0 {
		return ""
	}
	return c.GroupColumns[0]
}

// ConfigDir returns the XDG-compliant config directory.
func ConfigDir() string {
	if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
		return filepath.Join(xdg, "payplan")
	}
	home, _ := os.UserHomeDir()
	return filepath.Join(home, ".config", "payplan")
}

// ConfigPath returns the full path to the config file.
func ConfigPath() string {
	return filepath.Join(ConfigDir(), "config.toml")
}

// CacheDir returns the platform-appropriate cache directory.
func CacheDir() string {
	if xdg := os.Getenv("XDG_CACHE_HOME"); xdg != "" {
		return filepath.Join(xdg, "payplan")
	}
	home, _ := os.UserHomeDir()
	return filepath.Join(home, ".cache", "payplan")
}

// StorePath returns the scenario database path: PAYPLAN_STORE_PATH, then
// the config file, then the cache directory.
func StorePath(cfg Config) string {
	if p := os.Getenv("PAYPLAN_STORE_PATH"); p != "" {
		return p
	}
	if cfg.General.StorePath != "" {
		return cfg.General.StorePath
	}
	return filepath.Join(CacheDir(), "scenarios.db")
}

// Load reads the config file, returning defaults if it doesn't exist.
func Load() (Config, error) {
	return LoadFrom(ConfigPath())
}

// LoadFrom reads the config file at path over the defaults.
func LoadFrom(path string) (Config, error) {
	cfg := DefaultConfig()

	data, err := os.ReadFile(path) //nolint:gosec // path is the user's own config
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return cfg, fmt.Errorf("reading config: %w", err)
	}

	if err := toml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("parsing config: %w", err)
	}
	if cfg.General.DefaultBudget < 0 {
		return cfg, fmt.Errorf("parsing config: default_budget must not be negative")
	}

	return cfg, nil
}

// Save writes the config to disk.
func Save(cfg Config) error {
	dir := ConfigDir()
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("creating config dir: %w", err)
	}

	f, err := os.OpenFile(ConfigPath(), os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0o600)
	if err != nil {
		return fmt.Errorf("creating config file: %w", err)
	}
	defer func() { _ = f.Close() }()

	enc := toml.NewEncoder(f)
	return enc.Encode(cfg)
}

// Exists returns true if a config file exists on disk.
func Exists() bool {
	_, err := os.Stat(ConfigPath())
	return err == nil
}
