package tui

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/theirongolddev/payplan/internal/config"
	"github.com/theirongolddev/payplan/internal/tui/theme"

	"github.com/charmbracelet/huh"
)

// SetupValues holds the answers collected by the setup form.
type SetupValues struct {
	Budget          string
	LiabilityColumn string
	IDColumn        string
	AmountColumn    string
	GroupColumns    string
	Theme           string
}

// SetupValuesFrom prefills the form from cfg.
func SetupValuesFrom(cfg config.Config) *SetupValues {
	return &SetupValues{
		Budget:          strconv.FormatInt(cfg.General.DefaultBudget, 10),
		LiabilityColumn: cfg.Import.LiabilityColumn,
		IDColumn:        cfg.Import.IDColumn,
		AmountColumn:    cfg.Import.AmountColumn,
		GroupColumns:    strings.Join(cfg.Import.GroupColumns, ", "),
		Theme:           cfg.Appearance.Theme,
	}
}

// NewSetupForm builds the first-run form. Answers are written to vals.
func NewSetupForm(vals *SetupValues) *huh.Form {
	themeOpts := make([]huh.Option[string], 0, len(theme.All))
	for _, t := range theme.All {
		themeOpts = append(themeOpts, huh.NewOption(t.Name, t.Name))
	}

	return huh.NewForm(
		huh.NewGroup(
			huh.NewNote().
				Title("Welcome to payplan").
				Description("A few defaults for importing obligation sheets.\nRun `payplan setup` anytime to change them."),
			huh.NewInput().
				Title("Default budget").
				Description("Applied every time a sheet or scenario is loaded.").
				Value(&vals.Budget).
				Validate(validateBudget),
		),
		huh.NewGroup(
			huh.NewInput().
				Title("Remaining liability column").
				Value(&vals.LiabilityColumn).
				Validate(requireText("liability column")),
			huh.NewInput().
				Title("ID column").
				Description("Leave empty to number rows 1..N.").
				Value(&vals.IDColumn),
			huh.NewInput().
				Title("Amount column").
				Description("Optional starting amounts.").
				Value(&vals.AmountColumn),
			huh.NewInput().
				Title("Group columns").
				Description("Comma separated; the first is the default grouping.").
				Value(&vals.GroupColumns),
		),
		huh.NewGroup(
			huh.NewSelect[string]().
				Title("Color theme").
				Options(themeOpts...).
				Value(&vals.Theme),
		),
	).WithShowHelp(true)
}

func validateBudget(s string) error {
	v, err := strconv.ParseInt(strings.TrimSpace(s), 10, 64)
	if err != nil {
		return errors.New("enter a whole number")
	}
	if v < 0 {
		return errors.New("budget must not be negative")
	}
	return nil
}

func requireText(what string) func(string) error {
	return func(s string) error {
		if strings.TrimSpace(s) == "" {
			return fmt.Errorf("%s is required", what)
		}
		return nil
	}
}

// Apply copies the answers into cfg.
func (v *SetupValues) Apply(cfg *config.Config) error {
	if err := validateBudget(v.Budget); err != nil {
		return err
	}
	cfg.General.DefaultBudget, _ = strconv.ParseInt(strings.TrimSpace(v.Budget), 10, 64)
	cfg.Import.LiabilityColumn = strings.TrimSpace(v.LiabilityColumn)
	cfg.Import.IDColumn = strings.TrimSpace(v.IDColumn)
	cfg.Import.AmountColumn = strings.TrimSpace(v.AmountColumn)
	cfg.Import.GroupColumns = splitList(v.GroupColumns)
	if theme.Known(v.Theme) {
		cfg.Appearance.Theme = v.Theme
	}
	return nil
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}

// saveSetupConfig applies the setup answers, persists them and updates the
// running app.
func (a *App) saveSetupConfig() error {
	cfg := a.cfg
	if err := a.setupVals.Apply(&cfg); err != nil {
		return err
	}
	a.cfg = cfg
	theme.SetActive(cfg.Appearance.Theme)
	return config.Save(cfg)
}
