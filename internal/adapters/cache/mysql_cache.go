package cache

import (
	"context"
	"database/sql"
	"fmt"
	"sync"
	"time"

	_ "github.com/go-sql-driver/mysql"
	"github.com/tropical-362827/futaba-shieldgemma/internal/core"
	"go.uber.org/zap"
)

// MySQLCache is a MySQL implementation of the ScoreCache interface.
type MySQLCache struct {
	db          *sql.DB
	logger      *zap.Logger
	cleanupFreq time.Duration
	stopCh      chan struct{}
	stopOnce    sync.Once
}

// NewMySQLCache creates a new MySQL score cache.
func NewMySQLCache(dsn string, logger *zap.Logger, cleanupFreq time.Duration) (*MySQLCache, error) {
	db, err := sql.Open("mysql", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open MySQL database: %w", err)
	}

	// Test the connection
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to connect to MySQL database: %w", err)
	}

	// Create table if it doesn't exist
	_, err = db.Exec(`
		CREATE TABLE IF NOT EXISTS score_cache (
			image_id VARCHAR(255) PRIMARY KEY,
			sexual FLOAT,
			dangerous FLOAT,
			violent FLOAT,
			classified_at TIMESTAMP,
			expires_at TIMESTAMP,
			INDEX idx_expires_at (expires_at)
		)
	`)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create table: %w", err)
	}

	cache := &MySQLCache{
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
func (c *MySQLCache) Get(ctx context.Context, imageID string) (*core.CategoryScores, error) {
	var scores core.CategoryScores

	err := c.db.QueryRowContext(ctx, `
		SELECT sexual, dangerous, violent
		FROM score_cache
		WHERE image_id = ? AND expires_at > NOW()
	`, imageID).Scan(&scores.Sexual, &scores.Dangerous, &scores.Violent)

	if err != nil {
		if err == sql.ErrNoRows {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to query cache: %w", err)
	}

	return &scores, nil
}

// Set stores scores for an image.
func (c *MySQLCache) Set(ctx context.Context, imageID string, scores core.CategoryScores, ttl time.Duration) error {
	now := time.Now()
	expiresAt := now.Add(ttl)

	_, err := c.db.ExecContext(ctx, `
		REPLACE INTO score_cache (image_id, sexual, dangerous, violent, classified_at, expires_at)
		VALUES (?, ?, ?, ?, ?, ?)
	`, imageID, scores.Sexual, scores.Dangerous, scores.Violent, now, expiresAt)

	if err != nil {
		return fmt.Errorf("failed to insert cache entry: %w", err)
	}
	return nil
}

// Cleanup removes expired entries.
func (c *MySQLCache) Cleanup(ctx context.Context) error {
	result, err := c.db.ExecContext(ctx, `
		DELETE FROM score_cache WHERE expires_at <= NOW()
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
func (c *MySQLCache) startCleanupTask() {
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
func (c *MySQLCache) Stop() {
	c.stopOnce.Do(func() {
		close(c.stopCh)
		if err := c.db.Close(); err != nil {
			c.logger.Error("Failed to close MySQL database", zap.Error(err))
		}
	})
}
