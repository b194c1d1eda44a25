package util

import (
	"testing"
	"time"

	"github.com/charmbracelet/lipgloss"
)

func TestTruncateANSI(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		maxWidth int
		expected string
	}{
		{
			name:     "short string unchanged",
			input:    "hello",
			maxWidth: 10,
			expected: "hello",
		},
		{
			name:     "long string truncated",
			input:    "hello world",
			maxWidth: 8,
			expected: "hello...",
		},
		{
			name:     "tiny width returns ellipsis",
			input:    "hello",
			maxWidth: 2,
			expected: "...",
		},
		{
			name:     "wide characters measured by columns",
			input:    "开始股票分析",
			maxWidth: 12,
			expected: "开始股票分析",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := TruncateANSI(tt.input, tt.maxWidth)
			if result != tt.expected {
				t.Errorf("TruncateANSI(%q, %d) = %q, want %q", tt.input, tt.maxWidth, result, tt.expected)
			}
		})
	}
}

func TestTruncateANSI_StyledInput(t *testing.T) {
	styled := lipgloss.NewStyle().Bold(true).Render("a fairly long status message")
	result := TruncateANSI(styled, 10)
	if w := lipgloss.Width(result); w > 10 {
		t.Errorf("expected visual width <= 10, got %d (%q)", w, result)
	}
}

func TestSingleLine(t *testing.T) {
	got := SingleLine("  step one\n\tstep   two \n")
	if got != "step one step two" {
		t.Errorf("SingleLine() = %q", got)
	}
}

func TestFormatDuration(t *testing.T) {
	tests := []struct {
		d    time.Duration
		want string
	}{
		{0, "0.0s"},
		{30 * time.Second, "30.0s"},
		{59900 * time.Millisecond, "59.9s"},
		{90 * time.Second, "1.5 min"},
		{45 * time.Minute, "45.0 min"},
		{90 * time.Minute, "1.5 h"},
		{5400 * time.Second, "1.5 h"},
	}

	for _, tt := range tests {
		if got := FormatDuration(tt.d); got != tt.want {
			t.Errorf("FormatDuration(%v) = %q, want %q", tt.d, got, tt.want)
		}
	}
}
