package tui

import (
	"path/filepath"
	"strings"
	"testing"

	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/termenv"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/theirongolddev/payplan/internal/config"
	"github.com/theirongolddev/payplan/internal/model"
	"github.com/theirongolddev/payplan/internal/store"
	"github.com/theirongolddev/payplan/internal/tui/theme"
)

func init() {
	lipgloss.SetColorProfile(termenv.TrueColor)
}

func planSet() model.AllocationSet {
	mk := func(id, project string, liability int64) model.Obligation {
		return model.Obligation{
			ID:                 id,
			RemainingLiability: decimal.NewFromInt(liability),
			Attributes:         map[string]string{"Project": project},
		}
	}
	return model.AllocationSet{
		Columns: []string{"Project"},
		Obligations: []model.Obligation{
			mk("1", "Bridge", 100),
			mk("2", "Bridge", 200),
			mk("3", "Tunnel", 300),
		},
	}
}

// newTestApp returns a loaded app with a 600 budget and no setup wizard.
func newTestApp(t *testing.T) (App, store.Store) {
	t.Helper()
	theme.SetActive("flexoki-dark")

	cfg := config.DefaultConfig()
	cfg.General.DefaultBudget = 600
	st := store.NewMemory()

	a := NewApp(filepath.Join(t.TempDir(), "march.xlsx"), cfg, st)
	a.needSetup = false
	a = send(t, a, tea.WindowSizeMsg{Width: 140, Height: 40})
	a = send(t, a, FileLoadedMsg{Set: planSet(), Label: "march.xlsx"})
	return a, st
}

func send(t *testing.T, a App, msg tea.Msg) App {
	t.Helper()
	m, _ := a.Update(msg)
	next, ok := m.(App)
	require.True(t, ok, "Update returned %T", m)
	return next
}

func press(t *testing.T, a App, keys ...string) App {
	t.Helper()
	for _, k := range keys {
		var msg tea.KeyMsg
		switch k {
		case "enter":
			msg = tea.KeyMsg{Type: tea.KeyEnter}
		case "esc":
			msg = tea.KeyMsg{Type: tea.KeyEsc}
		default:
			msg = tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(k)}
		}
		a = send(t, a, msg)
	}
	return a
}

func amountsOf(a App) []int64 {
	var out []int64
	for _, o := range a.sess.View().Obligations {
		out = append(out, o.AllocatedAmount)
	}
	return out
}

func TestPlanRedistributeAndLock(t *testing.T) {
	a, _ := newTestApp(t)
	require.Equal(t, "Project", a.groupKey(), "default group applies on load")

	a = press(t, a, "r")
	assert.Equal(t, []int64{100, 200, 300}, amountsOf(a))

	a = press(t, a, " ")
	assert.True(t, a.sess.IsLocked("1"))

	a = press(t, a, "e")
	assert.Equal(t, editNone, a.plan.edit, "locked rows are not editable")
	assert.Contains(t, a.notice, "locked")

	a = press(t, a, "a")
	assert.True(t, a.sess.IsLocked("2") && a.sess.IsLocked("3"), "select all locks the rest")
	a = press(t, a, "a")
	assert.Empty(t, a.sess.Locks(), "select all on a fully locked set unlocks")
}

func TestPlanEditCellValidation(t *testing.T) {
	a, _ := newTestApp(t)
	a = press(t, a, "r", "j", "e")
	require.Equal(t, editCell, a.plan.edit)
	require.Equal(t, "2", a.plan.editID)

	a.plan.input.SetValue("-5")
	a = press(t, a, "enter")
	assert.Equal(t, editNone, a.plan.edit)
	assert.Equal(t, []int64{100, 200, 300}, amountsOf(a), "rejected edit leaves the set alone")
	assert.Equal(t, "negative amount", a.sess.Warning())

	a = press(t, a, "e")
	a.plan.input.SetValue("1,250")
	a = press(t, a, "enter")
	assert.Equal(t, []int64{100, 1250, 300}, amountsOf(a))
	assert.Empty(t, a.sess.Warning())
	assert.True(t, a.sess.OverAllocated())
}

func TestPlanBudgetAndGroupEdit(t *testing.T) {
	a, _ := newTestApp(t)

	a = press(t, a, "b")
	a.plan.input.SetValue("900")
	a = press(t, a, "enter")
	assert.Equal(t, int64(900), a.sess.Budget())

	a = press(t, a, "d")
	assert.Equal(t, []int64{300, 300, 300}, amountsOf(a))

	// cursor on row 1, group Bridge = rows 1 and 2
	a = press(t, a, "E")
	require.Equal(t, editGroup, a.plan.edit)
	assert.Equal(t, "600", a.plan.input.Value())
	a.plan.input.SetValue("100")
	a = press(t, a, "enter")
	assert.Equal(t, []int64{50, 50, 300}, amountsOf(a))

	a = press(t, a, "b")
	a.plan.input.SetValue("abc")
	a = press(t, a, "enter")
	assert.Contains(t, a.notice, "not a whole number")
	assert.Equal(t, int64(900), a.sess.Budget())
}

func TestPlanResetToOriginal(t *testing.T) {
	a, _ := newTestApp(t)
	a = press(t, a, "r", " ", "u")
	assert.Equal(t, []int64{0, 0, 0}, amountsOf(a))
	assert.Empty(t, a.sess.Locks())
}

func TestResetAfterScenarioLoadKeepsImport(t *testing.T) {
	a, _ := newTestApp(t)

	saved := planSet()
	for i := range saved.Obligations {
		saved.Obligations[i].AllocatedAmount = int64(100 * (i + 1))
	}
	a = send(t, a, scenarioLoadedMsg{sc: store.Scenario{Name: "plan b", Set: saved}})
	require.Equal(t, tabPlan, a.activeTab)
	assert.Equal(t, []int64{100, 200, 300}, amountsOf(a))
	assert.Equal(t, "plan b", a.sess.Label())

	a = press(t, a, "u")
	assert.Equal(t, []int64{0, 0, 0}, amountsOf(a))
	assert.Equal(t, "march.xlsx", a.sess.Label())
}

func TestPlanGroupAndSortCycle(t *testing.T) {
	a, _ := newTestApp(t)

	a = press(t, a, "g")
	assert.Equal(t, "", a.groupKey())
	a = press(t, a, "g")
	assert.Equal(t, "Project", a.groupKey())

	// Project, id, liability, amount
	a = press(t, a, "o", "o", "o", "O")
	assert.Equal(t, "liability", a.sortKey())
	o, ok := a.selected()
	require.True(t, ok)
	assert.Equal(t, "3", o.ID, "groups follow first-seen order of the sorted rows")
}

func TestScenarioSaveAndLoad(t *testing.T) {
	a, st := newTestApp(t)
	a = press(t, a, "r")

	m, cmd := a.Update(saveScenarioCmd(st, "plan-a", a.sess.Set())())
	a = m.(App)
	require.NotNil(t, cmd)
	assert.Contains(t, a.notice, "plan-a")
	a = send(t, a, cmd())
	require.Len(t, a.scenarios.list, 1)

	// edit the live plan; the stored copy stays put
	a = press(t, a, "d")
	assert.Equal(t, []int64{200, 200, 200}, amountsOf(a))

	a = press(t, a, "s")
	require.Equal(t, tabScenarios, a.activeTab)
	m, cmd = a.Update(tea.KeyMsg{Type: tea.KeyEnter})
	a = m.(App)
	require.NotNil(t, cmd)
	a = send(t, a, cmd())

	assert.Equal(t, tabPlan, a.activeTab)
	assert.Equal(t, "plan-a", a.sess.Label())
	assert.Equal(t, []int64{100, 200, 300}, amountsOf(a))

	a = press(t, a, "s", "x")
	assert.Len(t, a.scenarios.list, 1, "delete is applied once the command returns")
}

func TestTabNavigation(t *testing.T) {
	a, _ := newTestApp(t)
	a = press(t, a, "c")
	assert.Equal(t, tabChart, a.activeTab)
	a = press(t, a, "t")
	assert.Equal(t, tabSettings, a.activeTab)
	a = press(t, a, "1")
	assert.Equal(t, tabPlan, a.activeTab)
}

func TestViewRendersEveryTab(t *testing.T) {
	a, _ := newTestApp(t)
	a = press(t, a, "r")

	for tab, want := range map[int]string{
		tabPlan:      "Distributed",
		tabChart:     "Allocated by Project",
		tabScenarios: "No saved scenarios",
		tabSettings:  "Liability Column",
	} {
		a.activeTab = tab
		out := a.View()
		assert.Contains(t, out, want, "tab %d", tab)
		assert.Equal(t, 40, len(strings.Split(out, "\n")), "tab %d fills the screen", tab)
	}
}

func TestViewTooNarrow(t *testing.T) {
	a, _ := newTestApp(t)
	a = send(t, a, tea.WindowSizeMsg{Width: 60, Height: 20})
	assert.Contains(t, a.View(), "too narrow")
}

func TestLoadErrorShown(t *testing.T) {
	theme.SetActive("flexoki-dark")
	a := NewApp("missing.csv", config.DefaultConfig(), store.NewMemory())
	a.needSetup = false
	a = send(t, a, tea.WindowSizeMsg{Width: 120, Height: 30})
	assert.Contains(t, a.View(), "Reading missing.csv")

	a = send(t, a, FileLoadedMsg{Err: assert.AnError})
	assert.True(t, a.loaded)
	assert.Contains(t, a.View(), "Could not load")
}

func TestSetupValuesApply(t *testing.T) {
	cfg := config.DefaultConfig()
	vals := SetupValuesFrom(cfg)
	vals.Budget = "1500"
	vals.GroupColumns = " Company , ,Project"
	vals.Theme = "tokyo-night"
	vals.IDColumn = ""

	require.NoError(t, vals.Apply(&cfg))
	assert.Equal(t, int64(1500), cfg.General.DefaultBudget)
	assert.Equal(t, []string{"Company", "Project"}, cfg.Import.GroupColumns)
	assert.Equal(t, "tokyo-night", cfg.Appearance.Theme)
	assert.Empty(t, cfg.Import.IDColumn)

	vals.Budget = "-1"
	assert.Error(t, vals.Apply(&cfg))
}

func TestExportPath(t *testing.T) {
	a := App{path: filepath.Join("data", "march.xlsx")}
	assert.Equal(t, filepath.Join("data", "q1_draft-plan.xlsx"), a.exportPath("q1/draft"))
	assert.Equal(t, filepath.Join("data", "march-plan.xlsx"), a.exportPath("march.xlsx"))
}
