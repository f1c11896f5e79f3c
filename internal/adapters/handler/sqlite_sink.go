package handler

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "github.com/mattn/go-sqlite3"
	"github.com/tropical-362827/futaba-shieldgemma/internal/core"
	"go.uber.org/zap"
)

// SQLiteSink appends every report to a local SQLite table so flagged posts
// can be reviewed after the fact with ordinary SQL tooling.
type SQLiteSink struct {
	db     *sql.DB
	thread string
	logger *zap.Logger
}

// NewSQLiteSink creates a new SQLite report sink.
func NewSQLiteSink(dbPath, thread string, logger *zap.Logger) (*SQLiteSink, error) {
	db, err := sql.Open("sqlite3", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open SQLite database: %w", err)
	}

	_, err = db.Exec(`
		CREATE TABLE IF NOT EXISTS post_reports (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			thread TEXT,
			post_id INTEGER,
			image_id TEXT,
			status TEXT,
			category TEXT,
			score REAL,
			sexual REAL,
			dangerous REAL,
			violent REAL,
			skip_reason TEXT,
			reported_at TIMESTAMP
		)
	`)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create table: %w", err)
	}

	return &SQLiteSink{db: db, thread: thread, logger: logger}, nil
}

// Handle inserts one report row.
func (h *SQLiteSink) Handle(ctx context.Context, report *core.PostReport) error {
	imageID := ""
	if report.Post.Image != nil {
		imageID = report.Post.Image.ID
	}
	category := ""
	score := 0.0
	if report.Verdict != nil && report.Verdict.Flagged {
		category = report.Verdict.Category.String()
		score = report.Verdict.Score
	}
	var sexual, dangerous, violent sql.NullFloat64
	if report.Scores != nil {
		sexual = sql.NullFloat64{Float64: report.Scores.Sexual, Valid: true}
		dangerous = sql.NullFloat64{Float64: report.Scores.Dangerous, Valid: true}
		violent = sql.NullFloat64{Float64: report.Scores.Violent, Valid: true}
	}

	_, err := h.db.ExecContext(ctx, `
		INSERT INTO post_reports (thread, post_id, image_id, status, category, score, sexual, dangerous, violent, skip_reason, reported_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, h.thread, report.Post.ID, imageID, report.Status.String(), category, score,
		sexual, dangerous, violent, report.SkipReason, time.Now().Format(time.RFC3339))

	if err != nil {
		return fmt.Errorf("failed to insert report: %w", err)
	}
	return nil
}

// Close closes the underlying database.
func (h *SQLiteSink) Close() error {
	return h.db.Close()
}
