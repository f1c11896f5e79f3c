package whitelist

import (
	"testing"

	"go.uber.org/zap"
)

func TestCheckerDefaults(t *testing.T) {
	t.Parallel()

	c := NewChecker(nil, zap.NewNop())

	cases := []struct {
		filename string
		want     bool
	}{
		{"1717210000000.jpg", true},
		{"1717210000000.jpeg", true},
		{"1717210000000.png", true},
		{"1717210000000.gif", true},
		{"1717210000000.webp", true},
		{"1717210000000.JPG", true},   // extension match is case-insensitive
		{"1717210000000.webm", false}, // video attachments are not classifiable
		{"1717210000000.mp4", false},
		{"1717210000000", false}, // no extension
		{"", false},
	}

	for _, tc := range cases {
		if got := c.Allowed(tc.filename); got != tc.want {
			t.Errorf("Allowed(%q) = %v, want %v", tc.filename, got, tc.want)
		}
	}
}

func TestCheckerNormalizesConfiguredExtensions(t *testing.T) {
	t.Parallel()

	// Missing dots, mixed case and stray whitespace all normalize
	c := NewChecker([]string{"JPG", " .png ", "gif"}, zap.NewNop())

	if !c.Allowed("a.jpg") || !c.Allowed("a.png") || !c.Allowed("a.gif") {
		t.Error("normalized extensions not allowed")
	}
	if c.Allowed("a.webp") {
		t.Error("unconfigured extension allowed")
	}
}
