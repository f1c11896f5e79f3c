package cache

import (
	"context"
	"errors"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/tropical-362827/futaba-shieldgemma/internal/core"
)

func TestMemoryCacheSetGet(t *testing.T) {
	t.Parallel()

	c := NewMemoryCache(zap.NewNop(), time.Hour)
	defer c.Stop()
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
}

func TestMemoryCacheMiss(t *testing.T) {
	t.Parallel()

	c := NewMemoryCache(zap.NewNop(), time.Hour)
	defer c.Stop()

	if _, err := c.Get(context.Background(), "missing.jpg"); !errors.Is(err, ErrNotFound) {
		t.Errorf("Get error = %v, want ErrNotFound", err)
	}
}

func TestMemoryCacheExpiry(t *testing.T) {
	t.Parallel()

	c := NewMemoryCache(zap.NewNop(), time.Hour)
	defer c.Stop()
	ctx := context.Background()

	if err := c.Set(ctx, "1700.jpg", core.CategoryScores{Sexual: 0.9}, time.Nanosecond); err != nil {
		t.Fatalf("Set returned error: %v", err)
	}
	time.Sleep(10 * time.Millisecond)

	if _, err := c.Get(ctx, "1700.jpg"); !errors.Is(err, ErrNotFound) {
		t.Errorf("Get after expiry error = %v, want ErrNotFound", err)
	}

	// Cleanup removes the expired entry entirely
	if err := c.Cleanup(ctx); err != nil {
		t.Fatalf("Cleanup returned error: %v", err)
	}
	if _, err := c.Get(ctx, "1700.jpg"); !errors.Is(err, ErrNotFound) {
		t.Errorf("Get after cleanup error = %v, want ErrNotFound", err)
	}
}

func TestMemoryCacheStopIsIdempotent(t *testing.T) {
	t.Parallel()

	c := NewMemoryCache(zap.NewNop(), time.Hour)
	c.Stop()
	c.Stop()
}
