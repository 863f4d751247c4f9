package components

import (
	"strings"
	"testing"

	"github.com/charmbracelet/lipgloss"
	"github.com/theirongolddev/payplan/internal/tui/theme"
)

func TestBudgetUsage(t *testing.T) {
	tests := []struct {
		distributed, budget int64
		want                float64
	}{
		{50, 100, 0.5},
		{150, 100, 1.5},
		{0, 0, 0},
		{10, 0, 2},
	}
	for _, tt := range tests {
		if got := BudgetUsage(tt.distributed, tt.budget); got != tt.want {
			t.Errorf("BudgetUsage(%d, %d) = %v, want %v", tt.distributed, tt.budget, got, tt.want)
		}
	}
}

func TestColorForBudget(t *testing.T) {
	theme.SetActive("flexoki-dark")
	if ColorForBudget(0.5) != theme.Active.Green {
		t.Error("under budget should be green")
	}
	if ColorForBudget(1) != theme.Active.Yellow {
		t.Error("exactly on budget should be yellow")
	}
	if ColorForBudget(1.01) != theme.Active.Red {
		t.Error("over budget should be red")
	}
}

func TestRenderStatusBarWidth(t *testing.T) {
	theme.SetActive("flexoki-dark")
	for _, w := range []int{80, 120, 200} {
		bar := RenderStatusBar(w, StatusInfo{
			Label:       "march.xlsx",
			Distributed: 1200,
			Budget:      1000,
			Warning:     strings.Repeat("row 7 is locked ", 8),
		})
		if got := lipgloss.Width(bar); got != w {
			t.Errorf("width %d: rendered %d columns", w, got)
		}
	}
}

func TestTabVisualWidth(t *testing.T) {
	theme.SetActive("flexoki-dark")
	plan := Tabs[0]
	if got := TabVisualWidth(plan, true); got != len(plan.Name)+2 {
		t.Errorf("active width = %d, want %d", got, len(plan.Name)+2)
	}
	if got := TabVisualWidth(plan, false); got != len(plan.Name)+4 {
		t.Errorf("inactive width = %d, want %d", got, len(plan.Name)+4)
	}
	if TabIdxByKey('s') != 2 || TabIdxByKey('z') != -1 {
		t.Error("TabIdxByKey mismatch")
	}
}
