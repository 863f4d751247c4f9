package tui

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/theirongolddev/payplan/internal/cli"
	"github.com/theirongolddev/payplan/internal/model"
	"github.com/theirongolddev/payplan/internal/pipeline"
	"github.com/theirongolddev/payplan/internal/tui/components"
	"github.com/theirongolddev/payplan/internal/tui/theme"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

// Plan tab edit modes.
const (
	editNone = iota
	editCell
	editGroup
	editBudget
)

// planState holds the plan tab state.
type planState struct {
	cursor int // position in display order
	offset int // scroll offset for the table

	groupIdx int // index into groupKeys(), 0 means ungrouped
	sortIdx  int // index into sortKeys(), 0 means import order
	desc     bool

	edit      int
	editID    string // row being edited
	editGroup string // group value being edited
	input     textinput.Model
}

// newPlanState starts grouped by the configured default group when the set
// has that column.
func (a App) newPlanState() planState {
	ps := planState{}
	def := a.cfg.Import.DefaultGroup()
	for i, k := range a.groupKeys() {
		if k != "" && k == def {
			ps.groupIdx = i
			break
		}
	}
	return ps
}

// groupKeys lists the group-by choices: none, then every attribute column.
func (a App) groupKeys() []string {
	return append([]string{""}, a.sess.View().Columns...)
}

func (a App) groupKey() string {
	keys := a.groupKeys()
	if a.plan.groupIdx < 0 || a.plan.groupIdx >= len(keys) {
		return ""
	}
	return keys[a.plan.groupIdx]
}

// sortKeys lists the sort choices: import order, then pipeline.SortKeys.
func (a App) sortKeys() []string {
	return append([]string{""}, pipeline.SortKeys(a.sess.View())...)
}

func (a App) sortKey() string {
	keys := a.sortKeys()
	if a.plan.sortIdx < 0 || a.plan.sortIdx >= len(keys) {
		return ""
	}
	return keys[a.plan.sortIdx]
}

// displayOrder returns row indexes in the order the table shows them.
func (a App) displayOrder() []int {
	view := a.sess.View()
	idx := pipeline.SortView(view, a.sortKey(), a.plan.desc)
	return pipeline.OrderByGroup(view, a.groupKey(), idx)
}

// selected returns the obligation under the cursor.
func (a App) selected() (model.Obligation, bool) {
	order := a.displayOrder()
	if a.plan.cursor < 0 || a.plan.cursor >= len(order) {
		return model.Obligation{}, false
	}
	return a.sess.View().Obligations[order[a.plan.cursor]], true
}

// activeGroup returns the group key used by group actions: the grouping in
// effect, else the configured default group if the set has it.
func (a App) activeGroup() string {
	if k := a.groupKey(); k != "" {
		return k
	}
	if def := a.cfg.Import.DefaultGroup(); a.sess.View().HasColumn(def) {
		return def
	}
	return ""
}

// updatePlanKeys handles plan tab keys. ok is false for keys the tab does
// not use, so global bindings still apply.
func (a App) updatePlanKeys(key string) (tea.Model, tea.Cmd, bool) {
	rows := a.sess.View().Len()

	switch key {
	case "j", "down":
		a.plan.cursor = clamp(a.plan.cursor+1, 0, rows-1)
	case "k", "up":
		a.plan.cursor = clamp(a.plan.cursor-1, 0, rows-1)
	case "home":
		a.plan.cursor = 0
	case "end", "G":
		a.plan.cursor = clamp(rows-1, 0, rows-1)
	case "ctrl+d":
		a.plan.cursor = clamp(a.plan.cursor+a.halfPage(), 0, rows-1)
	case "ctrl+u":
		a.plan.cursor = clamp(a.plan.cursor-a.halfPage(), 0, rows-1)

	case " ", "space":
		if o, ok := a.selected(); ok {
			_, _ = a.sess.ToggleLock(o.ID)
		}
	case "a":
		if rows > 0 {
			a.sess.SelectAll()
		}
	case "A":
		o, ok := a.selected()
		group := a.activeGroup()
		if !ok {
			break
		}
		if group == "" {
			a.notice = "press g to choose a group column"
			break
		}
		a.sess.SelectAllInGroup(group, o.Attr(group))

	case "d":
		a.sess.RequestInitialDistribution()
	case "r":
		a.sess.RequestRedistribution()
	case "u":
		a.sess.ResetToOriginal()

	case "e":
		o, ok := a.selected()
		if !ok {
			break
		}
		if a.sess.IsLocked(o.ID) {
			a.notice = fmt.Sprintf("row %s is locked; press space to unlock", o.ID)
			break
		}
		a.plan.edit = editCell
		a.plan.editID = o.ID
		return a.startPlanInput(strconv.FormatInt(o.AllocatedAmount, 10), "amount")
	case "E":
		o, ok := a.selected()
		if !ok {
			break
		}
		group := a.activeGroup()
		if group == "" {
			a.notice = "press g to choose a group column"
			break
		}
		value := o.Attr(group)
		a.plan.edit = editGroup
		a.plan.editGroup = value
		return a.startPlanInput(strconv.FormatInt(a.unlockedGroupTotal(group, value), 10), "group total")
	case "b":
		a.plan.edit = editBudget
		return a.startPlanInput(strconv.FormatInt(a.sess.Budget(), 10), "budget")

	case "g":
		a.plan.groupIdx = (a.plan.groupIdx + 1) % len(a.groupKeys())
		a.plan.cursor, a.plan.offset = 0, 0
	case "o":
		a.plan.sortIdx = (a.plan.sortIdx + 1) % len(a.sortKeys())
		a.plan.cursor, a.plan.offset = 0, 0
	case "O":
		a.plan.desc = !a.plan.desc

	case "w":
		if rows == 0 {
			break
		}
		label := a.sess.Label()
		return a, exportCmd(a.exportPath(label), label, a.sess.Set(), a.cfg.Import.ColumnMap()), true

	default:
		return a, nil, false
	}
	return a, nil, true
}

func (a App) startPlanInput(value, placeholder string) (tea.Model, tea.Cmd, bool) {
	ti := textinput.New()
	ti.Placeholder = placeholder
	ti.CharLimit = 20
	ti.Width = 20
	ti.SetValue(value)
	ti.CursorEnd()
	ti.Focus()
	a.plan.input = ti
	return a, ti.Cursor.BlinkCmd(), true
}

func (a App) unlockedGroupTotal(key, value string) int64 {
	view := a.sess.View()
	var total int64
	for _, i := range view.GroupMembers(key, value) {
		o := view.Obligations[i]
		if !a.sess.IsLocked(o.ID) {
			total += o.AllocatedAmount
		}
	}
	return total
}

func (a App) updatePlanInput(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "enter":
		a.planSubmit()
		a.plan.edit = editNone
		return a, nil
	case "esc":
		a.plan.edit = editNone
		return a, nil
	}

	var cmd tea.Cmd
	a.plan.input, cmd = a.plan.input.Update(msg)
	return a, cmd
}

// planSubmit applies the edit in progress. Validation failures surface as
// the session warning.
func (a *App) planSubmit() {
	raw := strings.ReplaceAll(strings.TrimSpace(a.plan.input.Value()), ",", "")
	v, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		a.notice = fmt.Sprintf("not a whole number: %q", a.plan.input.Value())
		return
	}

	switch a.plan.edit {
	case editCell:
		_ = a.sess.EditCell(a.plan.editID, v)
	case editGroup:
		_ = a.sess.EditGroupTotal(a.activeGroup(), a.plan.editGroup, v)
	case editBudget:
		_ = a.sess.SetBudget(v)
	}
}

func (a App) renderPlanTab(cw, h int) string {
	t := theme.Active
	view := a.sess.View()

	if a.loadErr != nil {
		warn := lipgloss.NewStyle().Foreground(t.Orange).Background(t.Surface)
		return components.ContentCard("Plan", warn.Render("Could not load "+a.path+": "+a.loadErr.Error()), cw)
	}
	if view.Len() == 0 {
		muted := lipgloss.NewStyle().Foreground(t.TextMuted).Background(t.Surface)
		return components.ContentCard("Plan", muted.Render("No rows loaded. Open a scenario from the Scenarios tab [s]."), cw)
	}

	locks := a.sess.Locks()
	stats := pipeline.Summarize(view, locks, a.sess.Budget())

	distColor := lipgloss.Color("")
	if stats.OverBudget() {
		distColor = t.Red
	}
	remainingNote := "unallocated"
	if stats.Remaining < 0 {
		remainingNote = "over budget"
	}
	cards := components.MetricCardRow([]components.Metric{
		{Label: "Budget", Value: cli.FormatNumber(stats.Budget)},
		{Label: "Distributed", Value: cli.FormatNumber(stats.DistributedTotal), Color: distColor},
		{Label: "Remaining", Value: cli.FormatDelta(stats.Remaining), Note: remainingNote, Color: distColor},
		{Label: "Locked", Value: fmt.Sprintf("%d / %d", stats.LockedRows, stats.Rows), Note: cli.FormatNumber(stats.LockedAmount)},
		{Label: "Liability", Value: cli.FormatLiability(stats.TotalLiability)},
	}, cw)

	tableH := h - lipgloss.Height(cards)
	table := components.ContentCard(a.planTitle(), a.renderPlanTable(view, locks, cw, tableH), cw)

	return cards + "\n" + table
}

func (a App) planTitle() string {
	title := "Plan"
	if g := a.groupKey(); g != "" {
		title += " · grouped by " + g
	}
	if s := a.sortKey(); s != "" {
		dir := "↑"
		if a.plan.desc {
			dir = "↓"
		}
		title += " · sorted by " + s + " " + dir
	}
	return title
}

type planColumn struct {
	title string
	width int
	right bool
}

func (a App) planColumns(view model.AllocationSet, innerW int) []planColumn {
	idW := len("ID")
	for _, o := range view.Obligations {
		idW = max(idW, lipgloss.Width(o.ID))
	}
	idW = min(idW, 16)

	cols := []planColumn{{title: "", width: 1}, {title: "ID", width: idW}}
	fixed := 1 + idW + 14 + 12 + 7 + 5 // marker, id, liability, amount, share, gaps

	attrs := view.Columns
	if g := a.groupKey(); g != "" {
		attrs = append([]string{g}, without(view.Columns, g)...)
	}
	room := innerW - fixed
	for _, c := range attrs {
		w := min(max(len(c), 8), 18)
		if room < w+1 {
			break
		}
		cols = append(cols, planColumn{title: c, width: w})
		room -= w + 1
	}

	return append(cols,
		planColumn{title: "Liability", width: 14, right: true},
		planColumn{title: "Amount", width: 12, right: true},
		planColumn{title: "Share", width: 7, right: true},
	)
}

func without(list []string, drop string) []string {
	out := make([]string, 0, len(list))
	for _, s := range list {
		if s != drop {
			out = append(out, s)
		}
	}
	return out
}

func (a App) renderPlanTable(view model.AllocationSet, locks model.LockSet, cw, h int) string {
	t := theme.Active
	innerW := components.CardInnerWidth(cw)
	cols := a.planColumns(view, innerW)
	order := a.displayOrder()

	headerStyle := lipgloss.NewStyle().Foreground(t.Accent).Background(t.Surface).Bold(true)
	rowStyle := lipgloss.NewStyle().Foreground(t.TextPrimary).Background(t.Surface)
	lockedStyle := lipgloss.NewStyle().Foreground(t.Yellow).Background(t.Surface)
	selectedStyle := lipgloss.NewStyle().Foreground(t.TextPrimary).Background(t.SurfaceBright).Bold(true)
	mutedStyle := lipgloss.NewStyle().Foreground(t.TextMuted).Background(t.Surface)
	accentStyle := lipgloss.NewStyle().Foreground(t.AccentBright).Background(t.Surface)

	cell := func(c planColumn, s string) string {
		s = cli.Truncate(s, c.width)
		if c.right {
			return fmt.Sprintf("%*s", c.width, s)
		}
		return s + strings.Repeat(" ", max(c.width-lipgloss.Width(s), 0))
	}

	var b strings.Builder

	hdr := make([]string, len(cols))
	for i, c := range cols {
		hdr[i] = cell(c, c.title)
	}
	b.WriteString(headerStyle.Render(strings.Join(hdr, " ")))
	b.WriteString("\n")

	visible := h - 6 // card border, title, header, footer
	if visible < 3 {
		visible = 3
	}
	cursor := clamp(a.plan.cursor, 0, len(order)-1)
	offset := a.plan.offset
	if cursor < offset {
		offset = cursor
	}
	if cursor >= offset+visible {
		offset = cursor - visible + 1
	}
	end := min(offset+visible, len(order))

	distributed := view.Total()
	for pos := offset; pos < end; pos++ {
		o := view.Obligations[order[pos]]
		locked := locks.Has(o.ID)

		fields := make([]string, len(cols))
		for i, c := range cols {
			var v string
			switch {
			case i == 0:
				if locked {
					v = "●"
				}
			case i == 1:
				v = o.ID
			case c.title == "Liability" && i == len(cols)-3:
				v = cli.FormatLiability(o.RemainingLiability)
			case c.title == "Amount" && i == len(cols)-2:
				v = cli.FormatNumber(o.AllocatedAmount)
			case c.title == "Share" && i == len(cols)-1:
				if distributed > 0 {
					v = cli.FormatPercent(float64(o.AllocatedAmount) / float64(distributed) * 100)
				}
			default:
				v = o.Attr(c.title)
			}
			fields[i] = cell(c, v)
		}
		line := strings.Join(fields, " ")
		if pad := innerW - lipgloss.Width(line); pad > 0 {
			line += strings.Repeat(" ", pad)
		}

		switch {
		case pos == cursor:
			b.WriteString(selectedStyle.Render(line))
		case locked:
			b.WriteString(lockedStyle.Render(line))
		default:
			b.WriteString(rowStyle.Render(line))
		}
		b.WriteString("\n")
	}

	b.WriteString("\n")
	switch a.plan.edit {
	case editCell:
		b.WriteString(accentStyle.Render("Amount for " + a.plan.editID + ": "))
		b.WriteString(a.plan.input.View())
	case editGroup:
		b.WriteString(accentStyle.Render(fmt.Sprintf("Unlocked total for %s = %s: ", a.activeGroup(), a.plan.editGroup)))
		b.WriteString(a.plan.input.View())
	case editBudget:
		b.WriteString(accentStyle.Render("Budget: "))
		b.WriteString(a.plan.input.View())
	default:
		b.WriteString(mutedStyle.Render(a.planFooter(view, locks, len(order))))
	}

	return b.String()
}

// planFooter summarizes the selected row's group, or shows key hints.
func (a App) planFooter(view model.AllocationSet, locks model.LockSet, rows int) string {
	pos := fmt.Sprintf("%d/%d", clamp(a.plan.cursor, 0, rows-1)+1, rows)
	group := a.activeGroup()
	o, ok := a.selected()
	if !ok || group == "" {
		return pos + "  [space]lock [e]dit [b]udget [d]istribute [r]edistribute [?]more"
	}

	value := o.Attr(group)
	for _, g := range pipeline.GroupTotals(view, locks, group) {
		if g.Value != value {
			continue
		}
		return fmt.Sprintf("%s  %s = %s · %d rows · %s allocated · %d locked",
			pos, group, value, len(g.Members), cli.FormatNumber(g.Amount), g.LockedCount)
	}
	return pos
}
