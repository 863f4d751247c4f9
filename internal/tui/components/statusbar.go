package components

import (
	"strings"

	"github.com/theirongolddev/payplan/internal/tui/theme"

	"github.com/charmbracelet/lipgloss"
)

// StatusInfo is what the bottom bar reports about the current session.
type StatusInfo struct {
	Label       string
	Distributed int64
	Budget      int64
	Warning     string
}

// RenderStatusBar renders the bottom status bar: key hints and the warning
// on the left, the budget indicator on the right.
func RenderStatusBar(width int, info StatusInfo) string {
	t := theme.Active

	base := lipgloss.NewStyle().Foreground(t.TextMuted).Background(t.Surface)
	warnStyle := lipgloss.NewStyle().Foreground(t.Orange).Background(t.Surface).Bold(true)

	left := base.Render(" [?]help  [q]uit")
	if info.Label != "" {
		left += base.Render("  " + info.Label)
	}

	right := ""
	if width >= 100 {
		right = BudgetBar("budget", info.Distributed, info.Budget, 34) + base.Render(" ")
	}

	if info.Warning != "" {
		room := width - lipgloss.Width(left) - lipgloss.Width(right) - 4
		if room > 3 {
			msg := []rune(info.Warning)
			if len(msg) > room-2 {
				msg = append(msg[:room-3], '…')
			}
			left += base.Render("  ") + warnStyle.Render("! "+string(msg))
		}
	}

	padding := width - lipgloss.Width(left) - lipgloss.Width(right)
	if padding < 0 {
		padding = 0
	}

	return left + base.Render(strings.Repeat(" ", padding)) + right
}
