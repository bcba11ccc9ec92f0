// Package sms provides text-message transports and SMS permission sources.
package sms

import (
	"context"
	"log/slog"
	"unicode/utf8"

	"weighttracker/internal/domain"
)

// DivideMessage splits message into parts of at most limit characters.
func DivideMessage(message string, limit int) []string {
	if limit <= 0 {
		limit = domain.DefaultSingleMessageLimit
	}
	if utf8.RuneCountInString(message) <= limit {
		return []string{message}
	}

	var parts []string
	runes := []rune(message)
	for len(runes) > 0 {
		n := min(limit, len(runes))
		parts = append(parts, string(runes[:n]))
		runes = runes[n:]
	}
	return parts
}

// LogTransport writes messages to the log instead of a carrier. It is the
// default when no webhook is configured.
type LogTransport struct {
	logger *slog.Logger
	limit  int
}

var _ domain.TextTransport = (*LogTransport)(nil)

// NewLogTransport creates a LogTransport. A non-positive limit selects
// domain.DefaultSingleMessageLimit.
func NewLogTransport(logger *slog.Logger, limit int) *LogTransport {
	if logger == nil {
		logger = slog.Default()
	}
	if limit <= 0 {
		limit = domain.DefaultSingleMessageLimit
	}
	return &LogTransport{logger: logger, limit: limit}
}

// SendText logs a single-part message.
func (t *LogTransport) SendText(ctx context.Context, phone, message string) error {
	t.logger.InfoContext(ctx, "sms", "to", phone, "parts", 1, "body", message)
	return nil
}

// SendMultipartText logs each part of message.
func (t *LogTransport) SendMultipartText(ctx context.Context, phone, message string) error {
	parts := DivideMessage(message, t.limit)
	for i, p := range parts {
		t.logger.InfoContext(ctx, "sms", "to", phone, "part", i+1, "parts", len(parts), "body", p)
	}
	return nil
}

// SingleMessageLimit returns the configured single-part length.
func (t *LogTransport) SingleMessageLimit() int {
	return t.limit
}
