package utils

import (
	"testing"

	"go.uber.org/zap"
)

func TestPreview(t *testing.T) {
	t.Parallel()

	tp := NewTextProcessor(zap.NewNop())

	cases := []struct {
		name     string
		text     string
		maxRunes int
		want     string
	}{
		{"short text unchanged", "hello", 10, "hello"},
		{"exact length unchanged", "hello", 5, "hello"},
		{"long text truncated", "hello world", 5, "hello..."},
		{"newlines flattened", "line one\nline two", 30, "line one line two"},
		{"runs of whitespace collapse", "a  \t b", 30, "a b"},
		{"japanese truncates on rune boundary", "こんにちは世界", 5, "こんにちは..."},
		{"zero max disables truncation", "hello world", 0, "hello world"},
		{"empty text", "", 10, ""},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			if got := tp.Preview(tc.text, tc.maxRunes); got != tc.want {
				t.Errorf("Preview(%q, %d) = %q, want %q", tc.text, tc.maxRunes, got, tc.want)
			}
		})
	}
}

func TestSanitizeUTF8(t *testing.T) {
	t.Parallel()

	tp := NewTextProcessor(zap.NewNop())

	valid := "valid ascii and 日本語"
	if got := tp.SanitizeUTF8(valid); got != valid {
		t.Errorf("valid string changed: %q", got)
	}

	invalid := "broken \xff\xfe bytes"
	got := tp.SanitizeUTF8(invalid)
	if got != "broken  bytes" {
		t.Errorf("SanitizeUTF8(%q) = %q", invalid, got)
	}
}
