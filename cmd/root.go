// Package cmd implements the payplan CLI commands.
package cmd

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/theirongolddev/payplan/internal/cli"
	"github.com/theirongolddev/payplan/internal/config"
	"github.com/theirongolddev/payplan/internal/logging"
	"github.com/theirongolddev/payplan/internal/model"
	"github.com/theirongolddev/payplan/internal/source"
	"github.com/theirongolddev/payplan/internal/store"

	"github.com/spf13/cobra"
)

var (
	flagConfig   string
	flagLogLevel string
	flagQuiet    bool
	flagSheet    string

	// cfg is loaded once before any command runs.
	cfg config.Config
)

var rootCmd = &cobra.Command{
	Use:   "payplan [FILE]",
	Short: "Plan payment allocations against a budget",
	Long: "Import a sheet of obligations, split a budget across them by remaining\n" +
		"liability, pin rows, edit amounts and save scenarios.",
	Args:              cobra.MaximumNArgs(1),
	PersistentPreRunE: setup,
	RunE:              runTUI,
	SilenceUsage:      true,
}

// Execute is the main entry point called from main.go.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&flagConfig, "config", "", "Config file (default "+config.ConfigPath()+")")
	rootCmd.PersistentFlags().StringVar(&flagLogLevel, "log-level", "", "Log level: debug, info, warn, error (default $PAYPLAN_LOG_LEVEL or warn)")
	rootCmd.PersistentFlags().BoolVarP(&flagQuiet, "quiet", "q", false, "Suppress progress output")
	rootCmd.PersistentFlags().StringVar(&flagSheet, "sheet", "", "Worksheet to import (default: first sheet)")
}

func setup(_ *cobra.Command, _ []string) error {
	logging.SetupWithLevel(logging.ParseLevel(flagLogLevel, logging.LevelFromEnv()))

	path := flagConfig
	if path == "" {
		path = config.ConfigPath()
	}
	loaded, err := config.LoadFrom(path)
	if err != nil {
		return err
	}
	cfg = loaded
	if flagSheet != "" {
		cfg.Import.Sheet = flagSheet
	}
	slog.Debug("config loaded", "path", path, "exists", config.Exists())
	return nil
}

// loadSet imports one sheet with the configured column mapping.
func loadSet(path string) (model.AllocationSet, error) {
	if !flagQuiet {
		fmt.Fprintf(os.Stderr, "  Reading %s...\n", filepath.Base(path))
	}
	start := time.Now()
	set, err := source.Load(path, cfg.Import.ColumnMap())
	if err != nil {
		return set, err
	}
	slog.Debug("sheet loaded", "path", path, "rows", set.Len(), "columns", len(set.Columns), "duration", time.Since(start))
	if !flagQuiet {
		fmt.Fprintf(os.Stderr, "  Loaded %s rows\n", cli.FormatNumber(int64(set.Len())))
	}
	return set, nil
}

// openStore opens the scenario database.
func openStore() (*store.SQLite, error) {
	path := config.StorePath(cfg)
	st, err := store.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening scenario store %s: %w", path, err)
	}
	return st, nil
}
