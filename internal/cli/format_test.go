package cli

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
)

func TestFormatNumber(t *testing.T) {
	tests := []struct {
		in   int64
		want string
	}{
		{0, "0"},
		{999, "999"},
		{1000, "1,000"},
		{1234567, "1,234,567"},
		{-45000, "-45,000"},
	}
	for _, tt := range tests {
		if got := FormatNumber(tt.in); got != tt.want {
			t.Errorf("FormatNumber(%d) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestFormatLiability(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"0", "0"},
		{"1500", "1,500"},
		{"1234567.891", "1,234,567.89"},
		{"12.5", "12.50"},
		{"-0.25", "-0.25"},
	}
	for _, tt := range tests {
		got := FormatLiability(decimal.RequireFromString(tt.in))
		if got != tt.want {
			t.Errorf("FormatLiability(%s) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestFormatDelta(t *testing.T) {
	if got := FormatDelta(1200); got != "+1,200" {
		t.Errorf("FormatDelta(1200) = %q", got)
	}
	if got := FormatDelta(-5); got != "-5" {
		t.Errorf("FormatDelta(-5) = %q", got)
	}
}

func TestFormatAge(t *testing.T) {
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	tests := []struct {
		ago  time.Duration
		want string
	}{
		{10 * time.Second, "just now"},
		{5 * time.Minute, "5m ago"},
		{3 * time.Hour, "3h ago"},
	}
	for _, tt := range tests {
		if got := FormatAge(now.Add(-tt.ago), now); got != tt.want {
			t.Errorf("FormatAge(-%s) = %q, want %q", tt.ago, got, tt.want)
		}
	}
}

func TestTruncate(t *testing.T) {
	if got := Truncate("Köprü İnşaatı", 5); got != "Köpr…" {
		t.Errorf("Truncate = %q, want Köpr…", got)
	}
	if got := Truncate("short", 10); got != "short" {
		t.Errorf("Truncate = %q, want short", got)
	}
}
