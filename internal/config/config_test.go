package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestNewFromFile(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "config.yaml")
	yaml := `
futaba:
  thread: "987654321"
  board: img
classifier:
  threshold: 0.8
`
	if err := os.WriteFile(path, []byte(yaml), 0o644); err != nil {
		t.Fatal(err)
	}

	cfg, err := NewFromFile(path)
	if err != nil {
		t.Fatalf("NewFromFile returned error: %v", err)
	}
	if got := cfg.GetString("futaba.thread"); got != "987654321" {
		t.Errorf("futaba.thread = %q", got)
	}
	if got := cfg.GetString("futaba.board"); got != "img" {
		t.Errorf("futaba.board = %q", got)
	}
	if got := cfg.GetFloat64("classifier.threshold"); got != 0.8 {
		t.Errorf("classifier.threshold = %g", got)
	}
	// Keys absent from the file keep their defaults
	if got := cfg.GetString("futaba.domain"); got != "may.2chan.net" {
		t.Errorf("futaba.domain = %q, want default", got)
	}
}

func TestNewFromFileMissing(t *testing.T) {
	t.Parallel()

	if _, err := NewFromFile(filepath.Join(t.TempDir(), "nope.yaml")); err == nil {
		t.Fatal("NewFromFile succeeded on a missing file")
	}
}
