package tui

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/theirongolddev/payplan/internal/cli"
	"github.com/theirongolddev/payplan/internal/model"
	"github.com/theirongolddev/payplan/internal/source"
	"github.com/theirongolddev/payplan/internal/store"
	"github.com/theirongolddev/payplan/internal/tui/components"
	"github.com/theirongolddev/payplan/internal/tui/theme"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/huh"
	"github.com/charmbracelet/lipgloss"
)

// scenariosState holds the scenarios tab state.
type scenariosState struct {
	cursor int
	list   []store.Scenario
	err    error
}

type scenariosMsg struct {
	list []store.Scenario
	err  error
}

type scenarioLoadedMsg struct {
	sc  store.Scenario
	err error
}

type scenarioSavedMsg struct {
	sc  store.Scenario
	err error
}

type scenarioDeletedMsg struct {
	name string
	err  error
}

func listScenariosCmd(st store.Store) tea.Cmd {
	return func() tea.Msg {
		if st == nil {
			return scenariosMsg{err: errors.New("no scenario store")}
		}
		ctx, cancel := storeCtx()
		defer cancel()
		list, err := st.List(ctx)
		return scenariosMsg{list: list, err: err}
	}
}

func loadScenarioCmd(st store.Store, name string) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := storeCtx()
		defer cancel()
		sc, err := st.Get(ctx, name)
		return scenarioLoadedMsg{sc: sc, err: err}
	}
}

func saveScenarioCmd(st store.Store, name string, set model.AllocationSet) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := storeCtx()
		defer cancel()
		sc, err := st.Save(ctx, name, set)
		return scenarioSavedMsg{sc: sc, err: err}
	}
}

func deleteScenarioCmd(st store.Store, name string) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := storeCtx()
		defer cancel()
		return scenarioDeletedMsg{name: name, err: st.Delete(ctx, name)}
	}
}

// exportScenarioCmd reads the stored scenario and writes it out.
func exportScenarioCmd(st store.Store, name, path string, cols source.ColumnMap) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := storeCtx()
		defer cancel()
		sc, err := st.Get(ctx, name)
		if err != nil {
			return exportDoneMsg{path: path, err: err}
		}
		return exportDoneMsg{path: path, err: source.Export(path, sc.Name, sc.Set, cols)}
	}
}

func (a App) selectedScenario() (store.Scenario, bool) {
	if a.scenarios.cursor < 0 || a.scenarios.cursor >= len(a.scenarios.list) {
		return store.Scenario{}, false
	}
	return a.scenarios.list[a.scenarios.cursor], true
}

func (a App) updateScenarioKeys(key string) (tea.Model, tea.Cmd, bool) {
	if a.store == nil {
		return a, nil, false
	}
	n := len(a.scenarios.list)

	switch key {
	case "j", "down":
		a.scenarios.cursor = clamp(a.scenarios.cursor+1, 0, n-1)
	case "k", "up":
		a.scenarios.cursor = clamp(a.scenarios.cursor-1, 0, n-1)
	case "n":
		if a.sess.View().Len() == 0 {
			a.notice = "nothing to save"
			break
		}
		label := a.sess.Label()
		*a.nameVal = strings.TrimSuffix(label, filepath.Ext(label))
		a.nameForm = newNameForm(a.nameVal)
		if a.width > 0 {
			a.nameForm = a.nameForm.WithWidth(a.width / 2)
		}
		return a, a.nameForm.Init(), true
	case "enter":
		if sc, ok := a.selectedScenario(); ok {
			return a, loadScenarioCmd(a.store, sc.Name), true
		}
	case "x":
		if sc, ok := a.selectedScenario(); ok {
			return a, deleteScenarioCmd(a.store, sc.Name), true
		}
	case "e":
		if sc, ok := a.selectedScenario(); ok {
			return a, exportScenarioCmd(a.store, sc.Name, a.exportPath(sc.Name), a.cfg.Import.ColumnMap()), true
		}
	default:
		return a, nil, false
	}
	return a, nil, true
}

func (a App) handleScenarioMsg(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case scenariosMsg:
		a.scenarios.list = msg.list
		a.scenarios.err = msg.err
		a.scenarios.cursor = clamp(a.scenarios.cursor, 0, len(msg.list)-1)
		return a, nil

	case scenarioLoadedMsg:
		if msg.err != nil {
			a.notice = "load failed: " + msg.err.Error()
			return a, nil
		}
		a.sess.Replace(msg.sc.Set, msg.sc.Name)
		a.loadErr = nil
		a.plan = a.newPlanState()
		a.activeTab = tabPlan
		return a, nil

	case scenarioSavedMsg:
		if msg.err != nil {
			a.notice = "save failed: " + msg.err.Error()
			return a, nil
		}
		a.notice = fmt.Sprintf("saved %q (%d rows)", msg.sc.Name, msg.sc.Rows)
		a.scenarios.cursor = 0
		return a, listScenariosCmd(a.store)

	case scenarioDeletedMsg:
		if msg.err != nil {
			a.notice = "delete failed: " + msg.err.Error()
			return a, nil
		}
		a.notice = fmt.Sprintf("deleted %q", msg.name)
		return a, listScenariosCmd(a.store)
	}
	return a, nil
}

func newNameForm(val *string) *huh.Form {
	return huh.NewForm(
		huh.NewGroup(
			huh.NewInput().
				Title("Save scenario as").
				Description("An existing scenario with this name is replaced.").
				Value(val).
				Validate(requireText("name")),
		),
	).WithShowHelp(false)
}

func (a App) updateNameForm(msg tea.Msg) (tea.Model, tea.Cmd) {
	if k, ok := msg.(tea.KeyMsg); ok && k.String() == "esc" {
		a.nameForm = nil
		return a, nil
	}

	form, cmd := a.nameForm.Update(msg)
	if f, ok := form.(*huh.Form); ok {
		a.nameForm = f
	}

	switch a.nameForm.State {
	case huh.StateCompleted:
		a.nameForm = nil
		name := strings.TrimSpace(*a.nameVal)
		return a, saveScenarioCmd(a.store, name, a.sess.Set())
	case huh.StateAborted:
		a.nameForm = nil
		return a, nil
	}
	return a, cmd
}

// overlayNameForm draws the name prompt centered over the tab content.
func (a App) overlayNameForm(cw, h int) string {
	t := theme.Active
	box := lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(t.BorderAccent).
		Padding(1, 2).
		Render(a.nameForm.View())
	return lipgloss.Place(cw, h, lipgloss.Center, lipgloss.Center, box,
		lipgloss.WithWhitespaceBackground(t.Background))
}

func (a App) renderScenariosTab(cw, h int) string {
	t := theme.Active
	muted := lipgloss.NewStyle().Foreground(t.TextMuted).Background(t.Surface)

	if a.store == nil {
		return components.ContentCard("Scenarios", muted.Render("Scenario store unavailable."), cw)
	}
	if a.scenarios.err != nil {
		warn := lipgloss.NewStyle().Foreground(t.Orange).Background(t.Surface)
		return components.ContentCard("Scenarios", warn.Render("Could not list scenarios: "+a.scenarios.err.Error()), cw)
	}

	leftW := cw / 2
	if leftW < 40 {
		leftW = 40
	}
	rightW := cw - leftW

	leftInner := components.CardInnerWidth(leftW)
	headerStyle := lipgloss.NewStyle().Foreground(t.Accent).Background(t.Surface).Bold(true)
	rowStyle := lipgloss.NewStyle().Foreground(t.TextPrimary).Background(t.Surface)
	selectedStyle := lipgloss.NewStyle().Foreground(t.TextPrimary).Background(t.SurfaceBright).Bold(true)
	valueStyle := lipgloss.NewStyle().Foreground(t.TextPrimary).Background(t.Surface)

	nameW := leftInner - 6 - 14 - 10 - 3
	if nameW < 8 {
		nameW = 8
	}

	var left strings.Builder
	left.WriteString(headerStyle.Render(fmt.Sprintf("%-*s %6s %14s %10s", nameW, "Name", "Rows", "Total", "Saved")))
	left.WriteString("\n")

	if len(a.scenarios.list) == 0 {
		left.WriteString(muted.Render("No saved scenarios. Press n to save the current plan."))
	}

	now := time.Now()
	visible := max(h-6, 3)
	offset := 0
	if a.scenarios.cursor >= visible {
		offset = a.scenarios.cursor - visible + 1
	}
	end := min(offset+visible, len(a.scenarios.list))
	for i := offset; i < end; i++ {
		sc := a.scenarios.list[i]
		line := fmt.Sprintf("%-*s %6d %14s %10s",
			nameW, cli.Truncate(sc.Name, nameW), sc.Rows, cli.FormatNumber(sc.Total), cli.FormatAge(sc.CreatedAt, now))
		if pad := leftInner - lipgloss.Width(line); pad > 0 {
			line += strings.Repeat(" ", pad)
		}
		if i == a.scenarios.cursor {
			left.WriteString(selectedStyle.Render(line))
		} else {
			left.WriteString(rowStyle.Render(line))
		}
		left.WriteString("\n")
	}
	left.WriteString("\n")
	left.WriteString(muted.Render("[n]ew  [Enter]load  [x]delete  [e]xport"))

	var right strings.Builder
	right.WriteString(muted.Render("Current plan") + "\n")
	if label := a.sess.Label(); label != "" {
		right.WriteString(muted.Render("Label:       ") + valueStyle.Render(label) + "\n")
		right.WriteString(muted.Render("Rows:        ") + valueStyle.Render(cli.FormatNumber(int64(a.sess.View().Len()))) + "\n")
		right.WriteString(muted.Render("Distributed: ") + valueStyle.Render(cli.FormatNumber(a.sess.Total())) + "\n")
		right.WriteString(muted.Render("Budget:      ") + valueStyle.Render(cli.FormatNumber(a.sess.Budget())) + "\n")
	} else {
		right.WriteString(muted.Render("(none loaded)") + "\n")
	}
	if sc, ok := a.selectedScenario(); ok {
		right.WriteString("\n")
		right.WriteString(muted.Render("Selected") + "\n")
		right.WriteString(muted.Render("Name:        ") + valueStyle.Render(sc.Name) + "\n")
		right.WriteString(muted.Render("Saved:       ") + valueStyle.Render(sc.CreatedAt.Local().Format("2006-01-02 15:04")) + "\n")
		right.WriteString(muted.Render("Export to:   ") + valueStyle.Render(cli.Truncate(a.exportPath(sc.Name), components.CardInnerWidth(rightW)-13)))
	}

	return components.CardRow([]string{
		components.ContentCard(fmt.Sprintf("Scenarios [%d]", len(a.scenarios.list)), left.String(), leftW),
		components.ContentCard("Details", right.String(), rightW),
	})
}
