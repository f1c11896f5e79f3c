package cache

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/tropical-362827/futaba-shieldgemma/internal/core"
	"go.uber.org/zap"
)

var (
	// ErrNotFound is returned when a cache entry is not found.
	ErrNotFound = errors.New("cache entry not found")
)

type memoryEntry struct {
	scores    core.CategoryScores
	expiresAt time.Time
}

// MemoryCache is an in-memory implementation of the ScoreCache interface.
type MemoryCache struct {
	entries     map[string]memoryEntry
	mu          sync.RWMutex
	logger      *zap.Logger
	cleanupFreq time.Duration
	stopCh      chan struct{}
	stopOnce    sync.Once
}

// NewMemoryCache creates a new in-memory score cache.
func NewMemoryCache(logger *zap.Logger, cleanupFreq time.Duration) *MemoryCache {
	cache := &MemoryCache{
		entries:     make(map[string]memoryEntry),
		logger:      logger,
		cleanupFreq: cleanupFreq,
		stopCh:      make(chan struct{}),
	}

	// Start background cleanup
	go cache.startCleanupTask()

	return cache
}

// Get retrieves cached scores for an image.
func (c *MemoryCache) Get(ctx context.Context, imageID string) (*core.CategoryScores, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	entry, ok := c.entries[imageID]
	if !ok {
		return nil, ErrNotFound
	}
	if time.Now().After(entry.expiresAt) {
		return nil, ErrNotFound
	}

	scores := entry.scores
	return &scores, nil
}

// Set stores scores for an image.
func (c *MemoryCache) Set(ctx context.Context, imageID string, scores core.CategoryScores, ttl time.Duration) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.entries[imageID] = memoryEntry{
		scores:    scores,
		expiresAt: time.Now().Add(ttl),
	}
	return nil
}

// Cleanup removes expired entries.
func (c *MemoryCache) Cleanup(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	now := time.Now()
	expiredCount := 0

	for key, entry := range c.entries {
		if now.After(entry.expiresAt) {
			delete(c.entries, key)
			expiredCount++
		}
	}

	c.logger.Debug("Cleaned up expired cache entries", zap.Int("expired_count", expiredCount))
	return nil
}

// startCleanupTask starts a background task to clean up expired entries.
func (c *MemoryCache) startCleanupTask() {
	ticker := time.NewTicker(c.cleanupFreq)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			if err := c.Cleanup(context.Background()); err != nil {
				c.logger.Error("Failed to clean up cache", zap.Error(err))
			}
		case <-c.stopCh:
			return
		}
	}
}

// Stop stops the background cleanup task.
func (c *MemoryCache) Stop() {
	c.stopOnce.Do(func() { close(c.stopCh) })
}
