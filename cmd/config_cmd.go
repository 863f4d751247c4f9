package cmd

import (
	"fmt"
	"strings"

	"github.com/theirongolddev/payplan/internal/cli"
	"github.com/theirongolddev/payplan/internal/config"

	"github.com/spf13/cobra"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Show current configuration",
	Args:  cobra.NoArgs,
	RunE:  runConfig,
}

func init() {
	rootCmd.AddCommand(configCmd)
}

func runConfig(_ *cobra.Command, _ []string) error {
	orNone := func(s string) string {
		if s == "" {
			return "(not set)"
		}
		return s
	}

	fmt.Printf("  Config file: %s\n", config.ConfigPath())
	if config.Exists() {
		fmt.Println("  Status: loaded")
	} else {
		fmt.Println("  Status: using defaults (no config file)")
	}
	fmt.Println()

	fmt.Println("  [General]")
	fmt.Printf("    Default budget:   %s\n", cli.FormatNumber(cfg.General.DefaultBudget))
	fmt.Printf("    Scenario store:   %s\n", config.StorePath(cfg))
	fmt.Println()

	fmt.Println("  [Import]")
	fmt.Printf("    Sheet:            %s\n", orNone(cfg.Import.Sheet))
	fmt.Printf("    ID column:        %s\n", orNone(cfg.Import.IDColumn))
	fmt.Printf("    Liability column: %s\n", cfg.Import.LiabilityColumn)
	fmt.Printf("    Amount column:    %s\n", orNone(cfg.Import.AmountColumn))
	fmt.Printf("    Group columns:    %s\n", orNone(strings.Join(cfg.Import.GroupColumns, ", ")))
	fmt.Println()

	fmt.Println("  [Appearance]")
	fmt.Printf("    Theme: %s\n", cfg.Appearance.Theme)
	fmt.Println()

	fmt.Println("  [Server]")
	fmt.Printf("    Address:       %s\n", cfg.Server.Addr)
	fmt.Printf("    Max sessions:  %d\n", cfg.Server.MaxSessions)
	fmt.Printf("    Events buffer: %d\n", cfg.Server.EventsBuffer)
	fmt.Println()

	fmt.Println("  Run `payplan setup` to reconfigure.")
	return nil
}
