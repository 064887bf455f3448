package util

import (
	"testing"
	"unicode/utf8"
)

func TestSanitizePostgresText(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{name: "empty", input: "", want: ""},
		{name: "clean text unchanged", input: "goat feed", want: "goat feed"},
		{name: "nul bytes removed", input: "goat\x00feed", want: "goatfeed"},
		{name: "invalid utf8 removed", input: "goat\xfffeed", want: "goatfeed"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := SanitizePostgresText(tt.input); got != tt.want {
				t.Errorf("SanitizePostgresText(%q) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}

func TestNormalizeText(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{name: "trims", input: "  vitamin A  ", want: "vitamin A"},
		{name: "collapses runs", input: "night \t\n blindness", want: "night blindness"},
		{name: "empty", input: "   ", want: ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := NormalizeText(tt.input); got != tt.want {
				t.Errorf("NormalizeText(%q) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}

func TestTruncateRunes(t *testing.T) {
	tests := []struct {
		name  string
		input string
		limit int
		want  string
	}{
		{name: "shorter than limit", input: "goat", limit: 10, want: "goat"},
		{name: "exact limit", input: "goat", limit: 4, want: "goat"},
		{name: "ascii cut", input: "goat feed", limit: 4, want: "goat"},
		{name: "multibyte cut on rune boundary", input: "維生素維生素", limit: 4, want: "維生素維"},
		{name: "mixed width", input: "goat維生素", limit: 5, want: "goat維"},
		{name: "zero limit", input: "goat", limit: 0, want: ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := TruncateRunes(tt.input, tt.limit)
			if got != tt.want {
				t.Errorf("TruncateRunes(%q, %d) = %q, want %q", tt.input, tt.limit, got, tt.want)
			}
			if !utf8.ValidString(got) {
				t.Errorf("TruncateRunes(%q, %d) produced invalid UTF-8", tt.input, tt.limit)
			}
		})
	}
}
