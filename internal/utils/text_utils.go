package utils

import (
	"strings"
	"unicode/utf8"

	"go.uber.org/zap"
)

// TextProcessor provides utilities for preparing post text for display.
// Board comments are user-authored and occasionally carry broken encodings,
// so everything headed for a log line passes through here.
type TextProcessor struct {
	logger *zap.Logger
}

// NewTextProcessor creates a new TextProcessor.
func NewTextProcessor(logger *zap.Logger) *TextProcessor {
	return &TextProcessor{
		logger: logger,
	}
}

// Preview flattens text to a single line and truncates it to maxRunes,
// appending an ellipsis when anything was cut. Truncation is rune-based so
// multi-byte Japanese text is never split mid-character.
func (tp *TextProcessor) Preview(text string, maxRunes int) string {
	flat := strings.Join(strings.Fields(tp.SanitizeUTF8(text)), " ")
	if maxRunes <= 0 {
		return flat
	}
	runes := []rune(flat)
	if len(runes) <= maxRunes {
		return flat
	}
	return string(runes[:maxRunes]) + "..."
}

// SanitizeUTF8 ensures the string contains only valid UTF-8 characters.
func (tp *TextProcessor) SanitizeUTF8(text string) string {
	if utf8.ValidString(text) {
		return text
	}

	// Drop invalid sequences rather than replacing them; replacement runes
	// make log lines noisier than the missing bytes do.
	result := make([]rune, 0, len(text))
	for i, r := range text {
		if r == utf8.RuneError {
			_, size := utf8.DecodeRuneInString(text[i:])
			if size == 1 {
				continue
			}
		}
		result = append(result, r)
	}

	tp.logger.Debug("Text sanitized",
		zap.Int("original_size", len(text)),
		zap.Int("sanitized_size", len(string(result))))

	return string(result)
}
