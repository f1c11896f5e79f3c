package cache

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/tropical-362827/futaba-shieldgemma/internal/core"
)

func newTestSQLiteCache(t *testing.T) *SQLiteCache {
	t.Helper()
	c, err := NewSQLiteCache(filepath.Join(t.TempDir(), "cache.db"), zap.NewNop(), time.Hour)
	if err != nil {
		t.Fatalf("NewSQLiteCache returned error: %v", err)
	}
	t.Cleanup(c.Stop)
	return c
}

func TestSQLiteCacheSetGet(t *testing.T) {
	t.Parallel()

	c := newTestSQLiteCache(t)
	ctx := context.Background()

	scores := core.CategoryScores{Sexual: 0.1, Dangerous: 0.2, Violent: 0.3}
	if err := c.Set(ctx, "1700.jpg", scores, time.Hour); err != nil {
		t.Fatalf("Set returned error: %v", err)
	}

	got, err := c.Get(ctx, "1700.jpg")
	if err != nil {
		t.Fatalf("Get returned error: %v", err)
	}
	if *got != scores {
		t.Errorf("Get = %+v, want %+v", *got, scores)
	}

	if _, err := c.Get(ctx, "missing.jpg"); !errors.Is(err, ErrNotFound) {
		t.Errorf("Get(missing) error = %v, want ErrNotFound", err)
	}
}

func TestSQLiteCacheExpiry(t *testing.T) {
	t.Parallel()

	c := newTestSQLiteCache(t)
	ctx := context.Background()

	// An entry that expired seconds ago, on the same day, must miss: the
	// stored text timestamp has to compare correctly against datetime('now')
	// at second precision, not just by date.
	if err := c.Set(ctx, "stale.jpg", core.CategoryScores{Sexual: 0.9}, -10*time.Second); err != nil {
		t.Fatalf("Set returned error: %v", err)
	}
	if _, err := c.Get(ctx, "stale.jpg"); !errors.Is(err, ErrNotFound) {
		t.Errorf("Get(expired) error = %v, want ErrNotFound", err)
	}

	// A live entry expiring later the same day must still hit
	if err := c.Set(ctx, "live.jpg", core.CategoryScores{Violent: 0.4}, time.Hour); err != nil {
		t.Fatalf("Set returned error: %v", err)
	}
	if _, err := c.Get(ctx, "live.jpg"); err != nil {
		t.Errorf("Get(live) returned error: %v", err)
	}

	if err := c.Cleanup(ctx); err != nil {
		t.Fatalf("Cleanup returned error: %v", err)
	}

	var remaining int
	if err := c.db.QueryRow(`SELECT COUNT(*) FROM score_cache`).Scan(&remaining); err != nil {
		t.Fatal(err)
	}
	if remaining != 1 {
		t.Errorf("after cleanup %d rows remain, want 1", remaining)
	}
}
