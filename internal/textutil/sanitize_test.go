package textutil

import (
	"strings"
	"testing"
)

func TestSanitizeFileName(t *testing.T) {
	cases := []struct {
		name  string
		input string
		want  string
	}{
		{"plain", "My Great Talk", "My Great Talk"},
		{"unsafe chars", `Go: "The Movie" <part 1/2>`, "Go_ _The Movie_ _part 1_2"},
		{"collapse runs", "Too   many...dots", "Too_many_dots"},
		{"trims dots", "...leading and trailing...", "leading and trailing"},
		{"empty", "   ", "untitled"},
		{"only unsafe", "???", "untitled"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := SanitizeFileName(tc.input); got != tc.want {
				t.Errorf("SanitizeFileName(%q) = %q, want %q", tc.input, got, tc.want)
			}
		})
	}
}

func TestSanitizeFileNameCapsLength(t *testing.T) {
	long := strings.Repeat("a", 500)
	got := SanitizeFileName(long)
	if len(got) != 200 {
		t.Fatalf("expected 200 chars, got %d", len(got))
	}
}

func TestSanitizeToken(t *testing.T) {
	if got := SanitizeToken("Hello World!"); got != "hello_world" {
		t.Errorf("SanitizeToken = %q", got)
	}
	if got := SanitizeToken(""); got != "unknown" {
		t.Errorf("SanitizeToken empty = %q", got)
	}
}

func TestTruncate(t *testing.T) {
	if got := Truncate("short", 300); got != "short" {
		t.Errorf("Truncate short = %q", got)
	}
	long := strings.Repeat("word ", 100)
	got := Truncate(long, 30)
	if !strings.HasSuffix(got, "...") {
		t.Errorf("expected ellipsis, got %q", got)
	}
	if len([]rune(got)) > 34 {
		t.Errorf("truncated text too long: %d runes", len([]rune(got)))
	}
	if got := Truncate("anything", 0); got != "anything" {
		t.Errorf("Truncate limit 0 = %q", got)
	}
}
