package cmd

import (
	"fmt"
	"log/slog"

	"github.com/theirongolddev/payplan/internal/store"
	"github.com/theirongolddev/payplan/internal/tui"
	"github.com/theirongolddev/payplan/internal/tui/theme"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/termenv"
	"github.com/spf13/cobra"
)

var tuiCmd = &cobra.Command{
	Use:   "tui [FILE]",
	Short: "Launch the interactive planner",
	Args:  cobra.MaximumNArgs(1),
	RunE:  runTUI,
}

func init() {
	rootCmd.AddCommand(tuiCmd)
}

func runTUI(_ *cobra.Command, args []string) error {
	theme.SetActive(cfg.Appearance.Theme)

	// Force TrueColor profile so all background styling produces ANSI codes
	// Without this, lipgloss may default to Ascii profile (no colors)
	lipgloss.SetColorProfile(termenv.TrueColor)

	var st store.Store
	db, err := openStore()
	if err != nil {
		slog.Warn("scenario store unavailable, scenarios last for this run only", "error", err)
		st = store.NewMemory()
	} else {
		st = db
	}
	defer func() { _ = st.Close() }()

	path := ""
	if len(args) == 1 {
		path = args[0]
	}

	app := tui.NewApp(path, cfg, st)
	p := tea.NewProgram(app, tea.WithAltScreen())

	if _, err := p.Run(); err != nil {
		return fmt.Errorf("TUI error: %w", err)
	}

	return nil
}
