package components

import (
	"strings"
	"testing"

	"github.com/charmbracelet/lipgloss"
	"github.com/theirongolddev/payplan/internal/tui/theme"
)

func TestFitLabel(t *testing.T) {
	tests := []struct {
		in   string
		w    int
		want string
	}{
		{"Bridge", 10, "Bridge"},
		{"Bridge", 6, "Bridge"},
		{"Bridge", 4, "Bri…"},
		{"Köprü İnşaatı", 6, "Köprü…"},
		{"Bridge", 1, "B"},
		{"Bridge", 0, ""},
	}
	for _, tt := range tests {
		if got := fitLabel(tt.in, tt.w); got != tt.want {
			t.Errorf("fitLabel(%q, %d) = %q, want %q", tt.in, tt.w, got, tt.want)
		}
	}
}

func TestAxisLabels(t *testing.T) {
	got := axisLabels([]string{"North", "South", "East"}, 7, 21)
	if got != "North  South  East" {
		t.Errorf("axisLabels = %q", got)
	}

	// labels that would overlap the previous one are dropped
	got = axisLabels([]string{"Northern", "South", "East"}, 3, 12)
	if got != "Northern" {
		t.Errorf("axisLabels overlap = %q", got)
	}

	got = axisLabels([]string{"A", "Westward"}, 4, 8)
	if got != "A   Wes…" {
		t.Errorf("axisLabels clip = %q", got)
	}
}

func TestPeakOf(t *testing.T) {
	if got := peakOf([]float64{3, 9, 4}); got != 9 {
		t.Errorf("peakOf = %v, want 9", got)
	}
	if got := peakOf([]float64{0, 0}); got != 1 {
		t.Errorf("peakOf(zeros) = %v, want 1", got)
	}
	if got := peakOf(nil); got != 1 {
		t.Errorf("peakOf(nil) = %v, want 1", got)
	}
}

func TestRankedBars(t *testing.T) {
	theme.SetActive("flexoki-dark")
	bars := []Bar{
		{Label: "Bridge", Value: 400, Text: "400"},
		{Label: "A very long project name", Value: 100, Text: "100", Muted: true},
	}
	out := RankedBars(bars, 60)
	lines := strings.Split(out, "\n")
	if len(lines) != 2 {
		t.Fatalf("got %d lines, want 2", len(lines))
	}
	for i, l := range lines {
		if w := lipgloss.Width(l); w != 60 {
			t.Errorf("line %d width = %d, want 60", i, w)
		}
	}
	if !strings.Contains(out, "…") {
		t.Error("long label was not shortened")
	}
	if RankedBars(nil, 60) != "" {
		t.Error("empty input should render nothing")
	}
}
