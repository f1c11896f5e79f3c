package cache

import (
	"context"
	"database/sql"
	"fmt"
	"sync"
	"time"

	_ "github.com/mattn/go-sqlite3"
	"github.com/tropical-362827/futaba-shieldgemma/internal/core"
	"go.uber.org/zap"
)

// SQLiteCache is a SQLite implementation of the ScoreCache interface.
type SQLiteCache struct {
	db          *sql.DB
	logger      *zap.Logger
	cleanupFreq time.Duration
	stopCh      chan struct{}
	stopOnce    sync.Once
}

// NewSQLiteCache creates a new SQLite score cache.
func NewSQLiteCache(dbPath string, logger *zap.Logger, cleanupFreq time.Duration) (*SQLiteCache, error) {
	db, err := sql.Open("sqlite3", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open SQLite database: %w", err)
	}

	// Create table if it doesn't exist
	_, err = db.Exec(`
		CREATE TABLE IF NOT EXISTS score_cache (
			image_id TEXT PRIMARY KEY,
			sexual REAL,
			dangerous REAL,
			violent REAL,
			classified_at TIMESTAMP,
			expires_at TIMESTAMP
		)
	`)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create table: %w", err)
	}

	// Create index on expires_at for faster cleanup
	_, err = db.Exec(`
		CREATE INDEX IF NOT EXISTS idx_expires_at ON score_cache(expires_at)
	`)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create index: %w", err)
	}

	cache := &SQLiteCache{
		db:          db,
		logger:      logger,
		cleanupFreq: cleanupFreq,
		stopCh:      make(chan struct{}),
	}

	// Start background cleanup
	go cache.startCleanupTask()

	return cache, nil
}

// Get retrieves cached scores for an image.
func (c *SQLiteCache) Get(ctx context.Context, imageID string) (*core.CategoryScores, error) {
	var scores core.CategoryScores

	err := c.db.QueryRowContext(ctx, `
		SELECT sexual, dangerous, violent
		FROM score_cache
		WHERE image_id = ? AND expires_at > datetime('now')
	`, imageID).Scan(&scores.Sexual, &scores.Dangerous, &scores.Violent)

	if err != nil {
		if err == sql.ErrNoRows {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to query cache: %w", err)
	}

	return &scores, nil
}

// sqliteTimeFormat matches the text form datetime('now') produces, so the
// expiry comparison in Get and Cleanup works at full precision. Timestamps
// are stored in UTC for the same reason.
const sqliteTimeFormat = "2006-01-02 15:04:05"

// Set stores scores for an image.
func (c *SQLiteCache) Set(ctx context.Context, imageID string, scores core.CategoryScores, ttl time.Duration) error {
	now := time.Now().UTC()
	expiresAt := now.Add(ttl)

	_, err := c.db.ExecContext(ctx, `
		INSERT OR REPLACE INTO score_cache (image_id, sexual, dangerous, violent, classified_at, expires_at)
		VALUES (?, ?, ?, ?, ?, ?)
	`, imageID, scores.Sexual, scores.Dangerous, scores.Violent,
		now.Format(sqliteTimeFormat), expiresAt.Format(sqliteTimeFormat))

	if err != nil {
		return fmt.Errorf("failed to insert cache entry: %w", err)
	}
	return nil
}

// Cleanup removes expired entries.
func (c *SQLiteCache) Cleanup(ctx context.Context) error {
	result, err := c.db.ExecContext(ctx, `
		DELETE FROM score_cache WHERE expires_at <= datetime('now')
	`)
	if err != nil {
		return fmt.Errorf("failed to clean up cache: %w", err)
	}

	if removed, err := result.RowsAffected(); err == nil {
		c.logger.Debug("Cleaned up expired cache entries", zap.Int64("expired_count", removed))
	}
	return nil
}

// startCleanupTask starts a background task to clean up expired entries.
func (c *SQLiteCache) startCleanupTask() {
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

// Stop stops the background cleanup task and closes the database.
func (c *SQLiteCache) Stop() {
	c.stopOnce.Do(func() {
		close(c.stopCh)
		if err := c.db.Close(); err != nil {
			c.logger.Error("Failed to close SQLite database", zap.Error(err))
		}
	})
}
