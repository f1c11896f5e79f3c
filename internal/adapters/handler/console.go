package handler

import (
	"context"

	"github.com/tropical-362827/futaba-shieldgemma/internal/core"
	"github.com/tropical-362827/futaba-shieldgemma/internal/utils"
	"go.uber.org/zap"
)

// ConsoleHandler writes human-readable reports to the log. It is the default
// result sink and mirrors what an operator watching the terminal needs: one
// line per post, a louder line when something is flagged.
type ConsoleHandler struct {
	logger        *zap.Logger
	textProcessor *utils.TextProcessor
	verbose       bool
}

// NewConsoleHandler creates a new console handler.
func NewConsoleHandler(logger *zap.Logger, textProcessor *utils.TextProcessor, verbose bool) *ConsoleHandler {
	return &ConsoleHandler{
		logger:        logger,
		textProcessor: textProcessor,
		verbose:       verbose,
	}
}

// Handle logs one report.
func (h *ConsoleHandler) Handle(ctx context.Context, report *core.PostReport) error {
	post := report.Post

	fields := []zap.Field{
		zap.Int64("post", post.ID),
		zap.String("name", post.Name),
		zap.String("date", post.Date),
	}
	if preview := h.textProcessor.Preview(post.Text, 30); preview != "" {
		fields = append(fields, zap.String("text", preview))
	}
	if post.Deleted {
		fields = append(fields, zap.Bool("deleted", true))
	}
	if post.Image != nil {
		fields = append(fields, zap.String("image", post.Image.ID))
		if h.verbose {
			fields = append(fields, zap.String("image_url", post.Image.URL))
		}
	}

	switch report.Status {
	case core.StatusFlagged:
		fields = append(fields,
			zap.String("category", report.Verdict.Category.String()),
			zap.Float64("score", report.Verdict.Score))
		fields = append(fields, scoreFields(report.Scores)...)
		h.logger.Warn("Image flagged", fields...)
	case core.StatusClean:
		if h.verbose {
			fields = append(fields, scoreFields(report.Scores)...)
		}
		h.logger.Info("Image clean", fields...)
	case core.StatusSkipped:
		fields = append(fields, zap.String("reason", report.SkipReason))
		h.logger.Warn("Image skipped", fields...)
	case core.StatusNotClassified:
		h.logger.Info("New post with image (classification disabled)", fields...)
	case core.StatusPreviouslySeen:
		h.logger.Info("New post reposts an already-processed image", fields...)
	default:
		h.logger.Info("New post", fields...)
	}

	return nil
}

func scoreFields(scores *core.CategoryScores) []zap.Field {
	if scores == nil {
		return nil
	}
	return []zap.Field{
		zap.Float64("sexual", scores.Sexual),
		zap.Float64("dangerous", scores.Dangerous),
		zap.Float64("violent", scores.Violent),
	}
}
