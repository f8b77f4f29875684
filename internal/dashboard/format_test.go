package dashboard

import (
	"testing"
	"time"

	"stockdash/internal/domain"
)

func TestFormatInt(t *testing.T) {
	tests := []struct {
		in   int64
		want string
	}{
		{0, "0"},
		{999, "999"},
		{1000, "1,000"},
		{1234567, "1,234,567"},
		{-1234, "-1,234"},
	}
	for _, tt := range tests {
		if got := FormatInt(tt.in); got != tt.want {
			t.Errorf("FormatInt(%d) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestFormatCurrency(t *testing.T) {
	tests := []struct {
		in   float64
		want string
	}{
		{0, "$0.00"},
		{1234.56, "$1,234.56"},
		{0.125, "$0.13"},
		{-12.5, "-$12.50"},
	}
	for _, tt := range tests {
		if got := FormatCurrency(tt.in); got != tt.want {
			t.Errorf("FormatCurrency(%v) = %q, want %q", tt.in, got, tt.want)
		}
	}
	if got := FormatChange(5); got != "+$5.00" {
		t.Errorf("FormatChange(5) = %q", got)
	}
}

func TestFormatPercent(t *testing.T) {
	if got := FormatPercent(5); got != "+5.00%" {
		t.Errorf("FormatPercent(5) = %q, want +5.00%%", got)
	}
	if got := FormatPercent(-1.234); got != "-1.23%" {
		t.Errorf("FormatPercent(-1.234) = %q, want -1.23%%", got)
	}
}

func TestFormatVolume(t *testing.T) {
	tests := []struct {
		in   int64
		want string
	}{
		{500, "500"},
		{1500, "1.5K"},
		{2_500_000, "2.5M"},
		{3_000_000_000, "3.0B"},
	}
	for _, tt := range tests {
		if got := FormatVolume(tt.in); got != tt.want {
			t.Errorf("FormatVolume(%d) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestFormatDate(t *testing.T) {
	d := domain.NewDate(time.Date(2024, 1, 2, 0, 0, 0, 0, time.UTC))
	if got := FormatDate(d); got != "Jan 2, 2024" {
		t.Errorf("FormatDate = %q", got)
	}
	if got := FormatDate(domain.Date{}); got != "-" {
		t.Errorf("FormatDate(zero) = %q, want -", got)
	}
	if got := FormatShortDate(d); got != "01/02" {
		t.Errorf("FormatShortDate = %q", got)
	}
}

func TestComputeChartEmptyAndZeroFirst(t *testing.T) {
	if s := ComputeChart(nil); s != (ChartStats{}) {
		t.Errorf("ComputeChart(nil) = %+v", s)
	}
	s := ComputeChart(pts(0, 10))
	if s.PercentChange != 0 {
		t.Errorf("PercentChange = %v, want 0 for zero first close", s.PercentChange)
	}
	if !s.Up() {
		t.Error("Up() = false, want true")
	}
}
