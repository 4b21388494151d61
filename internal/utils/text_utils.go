package utils

import (
	"strings"
	"unicode/utf8"

	"go.uber.org/zap"
)

// TextProcessor cuts email text down to the size a prompt or a sink field allows
type TextProcessor struct {
	logger *zap.Logger
}

// NewTextProcessor creates a new TextProcessor
func NewTextProcessor(logger *zap.Logger) *TextProcessor {
	return &TextProcessor{
		logger: logger,
	}
}

// Excerpt returns the first maxRunes characters of text as valid UTF-8
func (tp *TextProcessor) Excerpt(text string, maxRunes int) string {
	clean := SanitizeUTF8(text)
	out := Clip(clean, maxRunes)
	if len(out) < len(clean) {
		tp.logger.Debug("Text excerpted",
			zap.Int("original_size", len(clean)),
			zap.Int("excerpt_size", len(out)),
			zap.Int("max_runes", maxRunes))
	}
	return out
}

// Clip truncates s to at most maxRunes characters. A non-positive limit keeps s whole.
func Clip(s string, maxRunes int) string {
	if maxRunes <= 0 || utf8.RuneCountInString(s) <= maxRunes {
		return s
	}
	n := 0
	for i := range s {
		if n == maxRunes {
			return s[:i]
		}
		n++
	}
	return s
}

// SanitizeUTF8 drops invalid UTF-8 sequences
func SanitizeUTF8(text string) string {
	if utf8.ValidString(text) {
		return text
	}
	return strings.ToValidUTF8(text, "")
}
