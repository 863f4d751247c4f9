// Package tui provides the interactive Bubble Tea dashboard for payplan.
package tui

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/theirongolddev/payplan/internal/config"
	"github.com/theirongolddev/payplan/internal/model"
	"github.com/theirongolddev/payplan/internal/session"
	"github.com/theirongolddev/payplan/internal/source"
	"github.com/theirongolddev/payplan/internal/store"
	"github.com/theirongolddev/payplan/internal/tui/components"
	"github.com/theirongolddev/payplan/internal/tui/theme"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/huh"
	"github.com/charmbracelet/lipgloss"
)

// FileLoadedMsg is sent when the source sheet has been parsed.
type FileLoadedMsg struct {
	Set      model.AllocationSet
	Label    string
	LoadTime time.Duration
	Err      error
}

// App is the root Bubble Tea model. The session and store are shared by
// every copy of App; Bubble Tea serializes Update so no locking is needed.
type App struct {
	sess  *session.Session
	store store.Store
	cfg   config.Config

	// Source sheet, "" when started without one
	path     string
	loaded   bool
	loadErr  error
	loadTime time.Duration

	// UI state
	width     int
	height    int
	activeTab int
	showHelp  bool
	notice    string // UI-level message, shown ahead of the session warning

	// Per-tab state
	plan      planState
	scenarios scenariosState
	settings  settingsState

	// Scenario name prompt (huh form)
	nameForm *huh.Form
	nameVal  *string

	// First-run setup (huh form)
	setupForm *huh.Form
	setupVals *SetupValues
	needSetup bool

	spinner spinner.Model
}

const (
	minTerminalWidth = 80
	maxContentWidth  = 180

	// Scroll navigation
	scrollOverhead    = 14 // approximate header, cards and status bar height
	minHalfPageScroll = 1
	minContentHeight  = 5

	tabPlan      = 0
	tabChart     = 1
	tabScenarios = 2
	tabSettings  = 3
)

// NewApp creates a new TUI app model. path may be empty, in which case the
// app starts on the Scenarios tab with an empty session.
func NewApp(path string, cfg config.Config, st store.Store) App {
	sp := spinner.New()
	sp.Spinner = spinner.Dot
	sp.Style = lipgloss.NewStyle().Foreground(theme.Active.Accent).Background(theme.Active.Surface)

	a := App{
		sess:      session.New(cfg.General.DefaultBudget),
		store:     st,
		cfg:       cfg,
		path:      path,
		needSetup: !config.Exists(),
		nameVal:   new(string),
		spinner:   sp,
	}
	if path == "" {
		a.loaded = true
		a.activeTab = tabScenarios
	}
	return a
}

// Init implements tea.Model.
func (a App) Init() tea.Cmd {
	cmds := []tea.Cmd{
		tea.EnableMouseCellMotion,
		listScenariosCmd(a.store),
	}
	if a.path != "" {
		cmds = append(cmds, loadFileCmd(a.path, a.cfg.Import.ColumnMap()), a.spinner.Tick)
	} else if a.needSetup {
		cmds = append(cmds, func() tea.Msg { return FileLoadedMsg{} })
	}
	return tea.Batch(cmds...)
}

// Update implements tea.Model.
func (a App) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {

	case tea.WindowSizeMsg:
		a.width = msg.Width
		a.height = msg.Height
		if a.setupForm != nil {
			a.setupForm = a.setupForm.WithWidth(msg.Width).WithHeight(msg.Height)
		}
		if a.nameForm != nil {
			a.nameForm = a.nameForm.WithWidth(msg.Width / 2)
		}
		return a, nil

	case tea.MouseMsg:
		if !a.loaded || a.showHelp || a.setupForm != nil || a.nameForm != nil {
			return a, nil
		}

		switch msg.Button {
		case tea.MouseButtonWheelUp:
			return a.moveCursor(-1), nil
		case tea.MouseButtonWheelDown:
			return a.moveCursor(1), nil
		case tea.MouseButtonLeft:
			if msg.Action == tea.MouseActionPress && msg.Y == 0 {
				if tab := a.tabAtX(msg.X); tab >= 0 {
					a.activeTab = tab
				}
			}
		}
		return a, nil

	case tea.KeyMsg:
		key := msg.String()

		if key == "ctrl+c" {
			return a, tea.Quit
		}

		if !a.loaded {
			return a, nil
		}

		// Forms intercept all keys
		if a.needSetup && a.setupForm != nil {
			return a.updateSetupForm(msg)
		}
		if a.nameForm != nil {
			return a.updateNameForm(msg)
		}

		// Text inputs intercept all keys
		if a.activeTab == tabPlan && a.plan.edit != editNone {
			return a.updatePlanInput(msg)
		}
		if a.activeTab == tabSettings && a.settings.editing {
			return a.updateSettingsInput(msg)
		}

		if key == "?" {
			a.showHelp = !a.showHelp
			return a, nil
		}
		if a.showHelp {
			a.showHelp = false
			return a, nil
		}

		a.notice = ""

		switch a.activeTab {
		case tabPlan:
			if next, cmd, ok := a.updatePlanKeys(key); ok {
				return next, cmd
			}
		case tabScenarios:
			if next, cmd, ok := a.updateScenarioKeys(key); ok {
				return next, cmd
			}
		case tabSettings:
			switch key {
			case "j", "down":
				if a.settings.cursor < settingsFieldCount-1 {
					a.settings.cursor++
				}
				return a, nil
			case "k", "up":
				if a.settings.cursor > 0 {
					a.settings.cursor--
				}
				return a, nil
			case "enter":
				return a.settingsStartEdit()
			}
		}

		if key == "q" {
			return a, tea.Quit
		}

		switch key {
		case "left", "shift+tab":
			a.activeTab = (a.activeTab - 1 + len(components.Tabs)) % len(components.Tabs)
		case "right", "tab":
			a.activeTab = (a.activeTab + 1) % len(components.Tabs)
		case "1", "2", "3", "4":
			a.activeTab = int(key[0] - '1')
		default:
			if len(key) == 1 {
				if idx := components.TabIdxByKey(rune(key[0])); idx >= 0 {
					a.activeTab = idx
				}
			}
		}
		return a, nil

	case FileLoadedMsg:
		a.loaded = true
		a.loadTime = msg.LoadTime
		if msg.Err != nil {
			a.loadErr = msg.Err
		} else if msg.Label != "" {
			a.loadErr = nil
			a.sess.Load(msg.Set, msg.Label)
			a.plan = a.newPlanState()
		}

		if a.needSetup {
			a.setupVals = SetupValuesFrom(a.cfg)
			a.setupForm = NewSetupForm(a.setupVals)
			if a.width > 0 {
				a.setupForm = a.setupForm.WithWidth(a.width).WithHeight(a.height)
			}
			return a, a.setupForm.Init()
		}
		return a, nil

	case scenariosMsg, scenarioLoadedMsg, scenarioSavedMsg, scenarioDeletedMsg:
		return a.handleScenarioMsg(msg)

	case exportDoneMsg:
		if msg.err != nil {
			a.notice = "export failed: " + msg.err.Error()
		} else {
			a.notice = "exported to " + msg.path
		}
		return a, nil

	case spinner.TickMsg:
		if !a.loaded {
			var cmd tea.Cmd
			a.spinner, cmd = a.spinner.Update(msg)
			return a, cmd
		}
		return a, nil
	}

	// Forward unhandled messages to active forms (cursor blinks, etc.)
	if a.needSetup && a.setupForm != nil {
		return a.updateSetupForm(msg)
	}
	if a.nameForm != nil {
		return a.updateNameForm(msg)
	}

	return a, nil
}

func (a App) updateSetupForm(msg tea.Msg) (tea.Model, tea.Cmd) {
	form, cmd := a.setupForm.Update(msg)
	if f, ok := form.(*huh.Form); ok {
		a.setupForm = f
	}

	switch a.setupForm.State {
	case huh.StateCompleted:
		if err := a.saveSetupConfig(); err != nil {
			a.notice = "could not save config: " + err.Error()
		}
		a.needSetup = false
		a.setupForm = nil
		return a, nil
	case huh.StateAborted:
		a.needSetup = false
		a.setupForm = nil
		return a, nil
	}

	return a, cmd
}

func (a App) moveCursor(delta int) App {
	switch a.activeTab {
	case tabPlan:
		a.plan.cursor = clamp(a.plan.cursor+delta, 0, a.sess.View().Len()-1)
	case tabScenarios:
		a.scenarios.cursor = clamp(a.scenarios.cursor+delta, 0, len(a.scenarios.list)-1)
	case tabSettings:
		a.settings.cursor = clamp(a.settings.cursor+delta, 0, settingsFieldCount-1)
	}
	return a
}

func (a App) contentWidth() int {
	cw := a.width
	if cw > maxContentWidth {
		cw = maxContentWidth
	}
	return cw
}

func (a App) halfPage() int {
	halfPage := (a.height - scrollOverhead) / 2
	if halfPage < minHalfPageScroll {
		halfPage = minHalfPageScroll
	}
	return halfPage
}

// View implements tea.Model.
func (a App) View() string {
	if a.width == 0 {
		return ""
	}

	if a.width < minTerminalWidth {
		return a.viewTooNarrow()
	}

	if !a.loaded {
		return a.viewLoading()
	}

	if a.needSetup && a.setupForm != nil {
		return a.setupForm.View()
	}

	if a.showHelp {
		return a.viewHelp()
	}

	return a.viewMain()
}

func (a App) viewTooNarrow() string {
	h := a.height
	if h < 5 {
		h = 5
	}

	msg := fmt.Sprintf(
		"\n  Terminal too narrow (%d cols)\n\n  payplan needs at least %d columns.\n",
		a.width,
		minTerminalWidth,
	)

	return padHeight(truncateHeight(msg, h), h)
}

func (a App) viewLoading() string {
	t := theme.Active

	cardStyle := lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(t.BorderAccent).
		Background(t.Surface).
		Padding(2, 4)

	logoStyle := lipgloss.NewStyle().Foreground(t.AccentBright).Background(t.Surface).Bold(true)
	subtitleStyle := lipgloss.NewStyle().Foreground(t.TextMuted).Background(t.Surface)
	spinnerStyle := lipgloss.NewStyle().Foreground(t.Accent).Background(t.Surface)

	var b strings.Builder
	b.WriteString(logoStyle.Render("◈ payplan"))
	b.WriteString(subtitleStyle.Render(" · Budget Allocation"))
	b.WriteString("\n\n")
	b.WriteString(spinnerStyle.Render(a.spinner.View()))
	b.WriteString(subtitleStyle.Render(" Reading " + filepath.Base(a.path) + "..."))

	return lipgloss.Place(a.width, a.height, lipgloss.Center, lipgloss.Center, cardStyle.Render(b.String()),
		lipgloss.WithWhitespaceBackground(t.Background))
}

type binding struct{ key, desc string }

func (a App) viewHelp() string {
	t := theme.Active

	cardStyle := lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(t.BorderAccent).
		Background(t.Surface).
		Padding(1, 3)

	titleStyle := lipgloss.NewStyle().Foreground(t.AccentBright).Background(t.Surface).Bold(true)
	sectionStyle := lipgloss.NewStyle().Foreground(t.Accent).Background(t.Surface).Bold(true)
	keyStyle := lipgloss.NewStyle().Foreground(t.Cyan).Background(t.Surface).Bold(true)
	descStyle := lipgloss.NewStyle().Foreground(t.TextMuted).Background(t.Surface)
	dimStyle := lipgloss.NewStyle().Foreground(t.TextDim).Background(t.Surface)

	sections := []struct {
		title    string
		bindings []binding
	}{
		{"Navigation", []binding{
			{"p c s t", "Jump to tab"},
			{"← →  1-4", "Previous / Next tab"},
			{"j k", "Move cursor"},
			{"^d ^u", "Half-page scroll"},
		}},
		{"Plan", []binding{
			{"space", "Lock / unlock row"},
			{"e  E", "Edit amount / group total"},
			{"b", "Set budget"},
			{"d  r", "Distribute evenly / by liability"},
			{"a  A", "Lock all / lock group"},
			{"g  o  O", "Group by / sort by / reverse"},
			{"u", "Reset to original"},
			{"w", "Export plan"},
		}},
		{"Scenarios", []binding{
			{"n", "Save current plan"},
			{"Enter", "Load scenario"},
			{"x  e", "Delete / export"},
		}},
		{"General", []binding{
			{"?", "Toggle help"},
			{"q", "Quit"},
		}},
	}

	var b strings.Builder
	b.WriteString(titleStyle.Render("◈ Keyboard Shortcuts"))
	b.WriteString("\n")
	for _, sec := range sections {
		b.WriteString("\n")
		b.WriteString(sectionStyle.Render(sec.title))
		b.WriteString("\n")
		for _, bind := range sec.bindings {
			fmt.Fprintf(&b, "  %s  %s\n",
				keyStyle.Render(fmt.Sprintf("%-10s", bind.key)),
				descStyle.Render(bind.desc))
		}
	}
	b.WriteString("\n")
	b.WriteString(dimStyle.Render("Press any key to close"))

	return lipgloss.Place(a.width, a.height, lipgloss.Center, lipgloss.Center, cardStyle.Render(b.String()),
		lipgloss.WithWhitespaceBackground(t.Background))
}

func (a App) viewMain() string {
	t := theme.Active
	w := a.width
	cw := a.contentWidth()
	h := a.height

	header := components.RenderTabBar(a.activeTab, w)

	warning := a.notice
	if warning == "" {
		warning = a.sess.Warning()
	}
	statusBar := components.RenderStatusBar(w, components.StatusInfo{
		Label:       a.sess.Label(),
		Distributed: a.sess.Total(),
		Budget:      a.sess.Budget(),
		Warning:     warning,
	})

	headerH := lipgloss.Height(header)
	statusH := lipgloss.Height(statusBar)
	contentH := h - headerH - statusH
	if contentH < minContentHeight {
		contentH = minContentHeight
	}

	var content string
	switch a.activeTab {
	case tabPlan:
		content = a.renderPlanTab(cw, contentH)
	case tabChart:
		content = a.renderChartTab(cw, contentH)
	case tabScenarios:
		content = a.renderScenariosTab(cw, contentH)
	case tabSettings:
		content = a.renderSettingsTab(cw)
	}

	if a.nameForm != nil {
		content = a.overlayNameForm(cw, contentH)
	}

	content = padHeight(truncateHeight(content, contentH), contentH)
	content = fillLinesWithBackground(content, cw, t.Background)
	content = lipgloss.Place(w, contentH, lipgloss.Center, lipgloss.Top, content,
		lipgloss.WithWhitespaceBackground(t.Background))

	output := lipgloss.JoinVertical(lipgloss.Left, header, content, statusBar)

	return lipgloss.Place(w, h, lipgloss.Left, lipgloss.Top, output,
		lipgloss.WithWhitespaceBackground(t.Background))
}

// ─── Commands ───────────────────────────────────────────────────

// loadFileCmd parses the source sheet off the UI goroutine.
func loadFileCmd(path string, cols source.ColumnMap) tea.Cmd {
	return func() tea.Msg {
		start := time.Now()
		set, err := source.Load(path, cols)
		if err != nil {
			return FileLoadedMsg{Err: err, LoadTime: time.Since(start)}
		}
		return FileLoadedMsg{
			Set:      set,
			Label:    filepath.Base(path),
			LoadTime: time.Since(start),
		}
	}
}

type exportDoneMsg struct {
	path string
	err  error
}

func exportCmd(path, label string, set model.AllocationSet, cols source.ColumnMap) tea.Cmd {
	return func() tea.Msg {
		return exportDoneMsg{path: path, err: source.Export(path, label, set, cols)}
	}
}

// exportPath places an export next to the source sheet, or in the working
// directory when there is none.
func (a App) exportPath(name string) string {
	dir := "."
	if a.path != "" {
		dir = filepath.Dir(a.path)
	}
	base := strings.TrimSuffix(name, filepath.Ext(name))
	base = strings.Map(func(r rune) rune {
		if strings.ContainsRune(`/\:*?"<>|`, r) {
			return '_'
		}
		return r
	}, base)
	return filepath.Join(dir, base+"-plan.xlsx")
}

func storeCtx() (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.Background(), 10*time.Second)
}

// ─── Helpers ────────────────────────────────────────────────────

func clamp(v, lo, hi int) int {
	if hi < lo {
		return lo
	}
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

func truncateHeight(s string, limit int) string {
	lines := strings.Split(s, "\n")
	if len(lines) <= limit {
		return s
	}
	return strings.Join(lines[:limit], "\n")
}

func padHeight(s string, h int) string {
	lines := strings.Split(s, "\n")
	if len(lines) >= h {
		return s
	}
	padding := strings.Repeat("\n", h-len(lines))
	return s + padding
}

// fillLinesWithBackground pads each line to width w with background color.
func fillLinesWithBackground(s string, w int, bg lipgloss.Color) string {
	lines := strings.Split(s, "\n")

	var result strings.Builder
	for i, line := range lines {
		placed := lipgloss.PlaceHorizontal(w, lipgloss.Left, line,
			lipgloss.WithWhitespaceBackground(bg))
		result.WriteString(placed)
		if i < len(lines)-1 {
			result.WriteString("\n")
		}
	}
	return result.String()
}

// ─── Mouse Support ──────────────────────────────────────────────

// tabAtX returns the tab index at the given X coordinate, or -1 if none.
func (a App) tabAtX(x int) int {
	pos := 0
	for i, tab := range components.Tabs {
		tabW := components.TabVisualWidth(tab, i == a.activeTab)
		if x >= pos && x < pos+tabW {
			return i
		}
		pos += tabW

		// Separator is one column between tabs.
		if i < len(components.Tabs)-1 {
			pos++
		}
	}
	return -1
}
