package utils

import (
	"testing"
	"time"
)

func TestFormatDuration(t *testing.T) {
	tests := []struct {
		d    time.Duration
		want string
	}{
		{0, "0ms"},
		{12 * time.Millisecond, "12ms"},
		{999 * time.Millisecond, "999ms"},
		{time.Second, "1.0s"},
		{2400 * time.Millisecond, "2.4s"},
		{59 * time.Second, "59.0s"},
		{3 * time.Minute, "3m"},
		{4*time.Minute + 5*time.Second, "4m 5s"},
		{2 * time.Hour, "2h"},
		{3*time.Hour + 20*time.Minute + 40*time.Second, "3h 20m"},
	}

	for _, tt := range tests {
		if got := FormatDuration(tt.d); got != tt.want {
			t.Errorf("FormatDuration(%v) = %q, want %q", tt.d, got, tt.want)
		}
	}
}

func TestTruncateText(t *testing.T) {
	tests := []struct {
		name     string
		text     string
		maxLen   int
		expected string
	}{
		{"short", "Port scan", 20, "Port scan"},
		{"exact", "12345", 5, "12345"},
		{"truncated", "Brute force on ssh", 10, "Brute f..."},
		{"newlines flattened", "line one\nline two", 40, "line one line two"},
		{"tiny limit", "abcdef", 2, "..."},
		{"multibyte safe", "ÄÖÜäöüß", 5, "ÄÖ..."},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := TruncateText(tt.text, tt.maxLen); got != tt.expected {
				t.Errorf("TruncateText(%q, %d) = %q; want %q", tt.text, tt.maxLen, got, tt.expected)
			}
		})
	}
}

func TestEscapeForLogging(t *testing.T) {
	tests := []struct {
		name     string
		text     string
		maxLen   int
		expected string
	}{
		{"plain", "admin", 50, "admin"},
		{"forged log line", "admin\n2024/01/01 login ok", 50, `admin\n2024/01/01 login ok`},
		{"tabs and returns", "a\tb\rc", 50, `a\tb\rc`},
		{"capped", "abcdefgh", 4, "abcd..."},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := EscapeForLogging(tt.text, tt.maxLen); got != tt.expected {
				t.Errorf("EscapeForLogging(%q, %d) = %q; want %q", tt.text, tt.maxLen, got, tt.expected)
			}
		})
	}
}
