package tui

import (
	"fmt"

	"github.com/theirongolddev/payplan/internal/cli"
	"github.com/theirongolddev/payplan/internal/pipeline"
	"github.com/theirongolddev/payplan/internal/tui/components"
	"github.com/theirongolddev/payplan/internal/tui/theme"

	"github.com/charmbracelet/lipgloss"
)

// chartKey picks the column the chart groups by: the plan's grouping, the
// configured default, then the first attribute column.
func (a App) chartKey() string {
	if k := a.activeGroup(); k != "" {
		return k
	}
	if cols := a.sess.View().Columns; len(cols) > 0 {
		return cols[0]
	}
	return ""
}

func (a App) renderChartTab(cw, h int) string {
	t := theme.Active
	muted := lipgloss.NewStyle().Foreground(t.TextMuted).Background(t.Surface)

	view := a.sess.View()
	key := a.chartKey()
	if view.Len() == 0 || key == "" {
		return components.ContentCard("Chart", muted.Render("Nothing to chart: load a sheet with at least one attribute column."), cw)
	}

	groups := pipeline.SortGroups(pipeline.GroupTotals(view, a.sess.Locks(), key))
	distributed := view.Total()

	values := make([]float64, len(groups))
	labels := make([]string, len(groups))
	bars := make([]components.Bar, len(groups))
	for i, g := range groups {
		values[i] = float64(g.Amount)
		labels[i] = g.Value
		share := ""
		if distributed > 0 {
			share = " " + cli.FormatPercent(float64(g.Amount)/float64(distributed)*100)
		}
		label := g.Value
		if label == "" {
			label = "(blank)"
		}
		bars[i] = components.Bar{
			Label: label,
			Value: float64(g.Amount),
			Text:  fmt.Sprintf("%s of %s%s", cli.FormatNumber(g.Amount), cli.FormatLiability(g.Liability), share),
			Muted: g.AllLocked(),
		}
	}

	innerW := components.CardInnerWidth(cw)
	chartH := min(12, h/2-3)
	top := components.ContentCard(
		fmt.Sprintf("Allocated by %s", key),
		components.BarChart(values, labels, t.Blue, innerW, chartH),
		cw,
	)

	listRows := h - lipgloss.Height(top) - 3
	if listRows < 1 {
		return top
	}
	if len(bars) > listRows {
		bars = bars[:listRows]
	}
	ranked := components.ContentCard(
		fmt.Sprintf("%d groups · amount of liability · share", len(groups)),
		components.RankedBars(bars, innerW),
		cw,
	)
	return top + "\n" + ranked
}
