package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoad_MissingFileGivesDefaults(t *testing.T) {
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())

	cfg, err := Load()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.Import.LiabilityColumn != "Remaining Liability" {
		t.Errorf("LiabilityColumn = %q, want default", cfg.Import.LiabilityColumn)
	}
	if cfg.Server.MaxSessions != 64 {
		t.Errorf("MaxSessions = %d, want 64", cfg.Server.MaxSessions)
	}
	if Exists() {
		t.Error("Exists() = true, want false")
	}
}

func TestSaveLoadRoundTrip(t *testing.T) {
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())

	cfg := DefaultConfig()
	cfg.General.DefaultBudget = 125000
	cfg.Import.GroupColumns = []string{"Company"}
	cfg.Appearance.Theme = "tokyo-night"

	if err := Save(cfg); err != nil {
		t.Fatalf("Save: %v", err)
	}
	if !Exists() {
		t.Fatal("Exists() = false after Save")
	}

	got, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if got.General.DefaultBudget != 125000 {
		t.Errorf("DefaultBudget = %d, want 125000", got.General.DefaultBudget)
	}
	if got.Import.DefaultGroup() != "Company" {
		t.Errorf("DefaultGroup = %q, want Company", got.Import.DefaultGroup())
	}
	if got.Appearance.Theme != "tokyo-night" {
		t.Errorf("Theme = %q, want tokyo-night", got.Appearance.Theme)
	}
}

func TestLoadFrom_PartialOverridesDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	data := "[general]\ndefault_budget = 900\n\n[import]\nliability_column = \"Kalan\"\n"
	if err := os.WriteFile(path, []byte(data), 0o600); err != nil {
		t.Fatal(err)
	}

	cfg, err := LoadFrom(path)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.General.DefaultBudget != 900 {
		t.Errorf("DefaultBudget = %d, want 900", cfg.General.DefaultBudget)
	}
	cols := cfg.Import.ColumnMap()
	if cols.Liability != "Kalan" {
		t.Errorf("Liability = %q, want Kalan", cols.Liability)
	}
	if cols.Amount != "Amount This Period" {
		t.Errorf("Amount = %q, want default kept", cols.Amount)
	}
}

func TestLoadFrom_Errors(t *testing.T) {
	tests := []struct {
		name string
		data string
	}{
		{"bad toml", "[general\n"},
		{"negative budget", "[general]\ndefault_budget = -1\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "config.toml")
			if err := os.WriteFile(path, []byte(tt.data), 0o600); err != nil {
				t.Fatal(err)
			}
			if _, err := LoadFrom(path); err == nil {
				t.Error("expected error, got nil")
			}
		})
	}
}

func TestStorePath(t *testing.T) {
	cache := t.TempDir()
	t.Setenv("XDG_CACHE_HOME", cache)
	t.Setenv("PAYPLAN_STORE_PATH", "")

	cfg := DefaultConfig()
	if got, want := StorePath(cfg), filepath.Join(cache, "payplan", "scenarios.db"); got != want {
		t.Errorf("StorePath = %q, want %q", got, want)
	}

	cfg.General.StorePath = "/tmp/from-config.db"
	if got := StorePath(cfg); got != "/tmp/from-config.db" {
		t.Errorf("StorePath = %q, want config value", got)
	}

	t.Setenv("PAYPLAN_STORE_PATH", "/tmp/from-env.db")
	if got := StorePath(cfg); got != "/tmp/from-env.db" {
		t.Errorf("StorePath = %q, want env value", got)
	}
}
