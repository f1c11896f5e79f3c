package whitelist

import (
	"path/filepath"
	"strings"

	"go.uber.org/zap"
)

// DefaultExtensions are the still-image formats the classifier backends
// accept. The board also allows video attachments (.webm, .mp4), which are
// skipped rather than sent to an image model.
var DefaultExtensions = []string{".jpg", ".jpeg", ".png", ".gif", ".webp"}

// Checker decides whether an attachment's file extension is classifiable.
type Checker struct {
	extensions []string
	logger     *zap.Logger
}

// NewChecker creates a new extension checker. An empty list falls back to
// DefaultExtensions.
func NewChecker(extensions []string, logger *zap.Logger) *Checker {
	if len(extensions) == 0 {
		extensions = DefaultExtensions
	}

	normalized := make([]string, len(extensions))
	for i, ext := range extensions {
		ext = strings.ToLower(strings.TrimSpace(ext))
		if !strings.HasPrefix(ext, ".") {
			ext = "." + ext
		}
		normalized[i] = ext
	}

	if logger != nil {
		logger.Debug("Initialized media whitelist", zap.Strings("extensions", normalized))
	}

	return &Checker{
		extensions: normalized,
		logger:     logger,
	}
}

// Allowed reports whether the filename carries a whitelisted extension.
func (c *Checker) Allowed(filename string) bool {
	ext := strings.ToLower(filepath.Ext(filename))
	if ext == "" {
		return false
	}

	for _, allowed := range c.extensions {
		if allowed == ext {
			return true
		}
	}

	if c.logger != nil {
		c.logger.Debug("Attachment extension not whitelisted",
			zap.String("filename", filename),
			zap.String("extension", ext))
	}
	return false
}
