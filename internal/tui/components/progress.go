package components

import (
	"fmt"

	"github.com/theirongolddev/payplan/internal/tui/theme"

	"github.com/charmbracelet/bubbles/progress"
	"github.com/charmbracelet/lipgloss"
)

// ColorForBudget returns the bar color for a budget utilization fraction:
// green while there is headroom, yellow close to the budget, red past it.
func ColorForBudget(pct float64) lipgloss.Color {
	t := theme.Active
	switch {
	case pct > 1:
		return t.Red
	case pct >= 0.95:
		return t.Yellow
	default:
		return t.Green
	}
}

// BudgetUsage returns distributed/budget as a fraction. A zero budget with
// anything distributed counts as over budget.
func BudgetUsage(distributed, budget int64) float64 {
	if budget <= 0 {
		if distributed > 0 {
			return 2
		}
		return 0
	}
	return float64(distributed) / float64(budget)
}

// BudgetBar renders a compact budget utilization indicator sized to width,
// label included.
func BudgetBar(label string, distributed, budget int64, width int) string {
	t := theme.Active

	pct := BudgetUsage(distributed, budget)
	fill := min(max(pct, 0), 1)

	barW := width - lipgloss.Width(label) - 7
	if barW < 4 {
		barW = 4
	}

	color := ColorForBudget(pct)
	bar := progress.New(
		progress.WithSolidFill(string(color)),
		progress.WithWidth(barW),
		progress.WithoutPercentage(),
	)
	bar.EmptyColor = string(t.TextDim)

	labelStyle := lipgloss.NewStyle().Foreground(t.TextMuted).Background(t.Surface)
	pctStyle := lipgloss.NewStyle().Foreground(color).Background(t.Surface).Bold(true)
	spaceStyle := lipgloss.NewStyle().Background(t.Surface)

	pctStr := fmt.Sprintf("%3.0f%%", pct*100)
	if budget <= 0 {
		pctStr = "  --"
	}

	return labelStyle.Render(label) +
		spaceStyle.Render(" ") +
		bar.ViewAs(fill) +
		spaceStyle.Render(" ") +
		pctStyle.Render(pctStr)
}
