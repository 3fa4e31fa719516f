// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

// Package logging provides a custom slog handler that integrates with the
// system log. It forwards records at WARN level and above to the
// database-backed log_entries table for the admin audit view.
package logging

import (
	"context"
	"database/sql"
	"log/slog"
	"strings"

	"github.com/Ibedes/ibedes/internal/model"
	"github.com/Ibedes/ibedes/internal/store"
)

// SystemLogHandler is a slog.Handler that wraps another handler and also
// writes WARN and ERROR level logs to the system log table.
type SystemLogHandler struct {
	inner   slog.Handler
	queries *store.Queries
	level   slog.Level // Minimum level to persist (default: WARN)
}

// NewSystemLogHandler creates a new SystemLogHandler that wraps the given handler.
// Logs at WARN level and above are written to both the wrapped handler and the database.
func NewSystemLogHandler(inner slog.Handler, db *sql.DB) *SystemLogHandler {
	return &SystemLogHandler{
		inner:   inner,
		queries: store.New(db),
		level:   slog.LevelWarn,
	}
}

// NewSystemLogHandlerWithLevel creates a new SystemLogHandler with a custom minimum level.
func NewSystemLogHandlerWithLevel(inner slog.Handler, db *sql.DB, level slog.Level) *SystemLogHandler {
	return &SystemLogHandler{
		inner:   inner,
		queries: store.New(db),
		level:   level,
	}
}

// Enabled implements slog.Handler.
func (h *SystemLogHandler) Enabled(ctx context.Context, level slog.Level) bool {
	return h.inner.Enabled(ctx, level)
}

// Handle implements slog.Handler.
func (h *SystemLogHandler) Handle(ctx context.Context, r slog.Record) error {
	if err := h.inner.Handle(ctx, r); err != nil {
		return err
	}

	if r.Level >= h.level {
		h.persist(r)
	}

	return nil
}

// WithAttrs implements slog.Handler.
func (h *SystemLogHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	return &SystemLogHandler{
		inner:   h.inner.WithAttrs(attrs),
		queries: h.queries,
		level:   h.level,
	}
}

// WithGroup implements slog.Handler.
func (h *SystemLogHandler) WithGroup(name string) slog.Handler {
	return &SystemLogHandler{
		inner:   h.inner.WithGroup(name),
		queries: h.queries,
		level:   h.level,
	}
}

// persist writes a log record to the system log table.
// A background context is used so the record survives request cancellation.
func (h *SystemLogHandler) persist(r slog.Record) {
	_ = h.queries.CreateLogEntry(context.Background(), model.LogEntry{
		Level:     slogLevelToLogLevel(r.Level),
		Category:  extractCategory(r),
		Message:   r.Message,
		Metadata:  extractMetadata(r),
		CreatedAt: r.Time,
	})
}

// slogLevelToLogLevel converts a slog.Level to a system log level.
func slogLevelToLogLevel(level slog.Level) string {
	switch {
	case level >= slog.LevelError:
		return model.LogLevelError
	case level >= slog.LevelWarn:
		return model.LogLevelWarning
	default:
		return model.LogLevelInfo
	}
}

// extractCategory looks for a "category" attribute, falling back to inference
// from the message text.
func extractCategory(r slog.Record) string {
	var category string

	r.Attrs(func(a slog.Attr) bool {
		if a.Key == "category" {
			category = a.Value.String()
			return false
		}
		return true
	})

	if category != "" {
		return category
	}

	msg := strings.ToLower(r.Message)
	switch {
	case strings.Contains(msg, "event") || strings.Contains(msg, "analytics") || strings.Contains(msg, "aggregat"):
		return model.LogCategoryAnalytics
	case strings.Contains(msg, "product") || strings.Contains(msg, "ranking"):
		return model.LogCategoryProduct
	case strings.Contains(msg, "article"):
		return model.LogCategoryArticle
	case strings.Contains(msg, "notification"):
		return model.LogCategoryNotify
	case strings.Contains(msg, "cache"):
		return model.LogCategoryCache
	default:
		return model.LogCategorySystem
	}
}

// extractMetadata collects all log attributes into a JSON string.
func extractMetadata(r slog.Record) string {
	if r.NumAttrs() == 0 {
		return "{}"
	}

	var sb strings.Builder
	sb.WriteString("{")
	first := true

	r.Attrs(func(a slog.Attr) bool {
		if a.Key == "category" {
			return true // Already extracted
		}
		if !first {
			sb.WriteString(",")
		}
		first = false
		sb.WriteString(`"`)
		sb.WriteString(escapeJSON(a.Key))
		sb.WriteString(`":"`)
		sb.WriteString(escapeJSON(a.Value.String()))
		sb.WriteString(`"`)
		return true
	})

	sb.WriteString("}")
	return sb.String()
}

// escapeJSON escapes special characters in a string for JSON.
func escapeJSON(s string) string {
	var sb strings.Builder
	for _, r := range s {
		switch r {
		case '"':
			sb.WriteString(`\"`)
		case '\\':
			sb.WriteString(`\\`)
		case '\n':
			sb.WriteString(`\n`)
		case '\r':
			sb.WriteString(`\r`)
		case '\t':
			sb.WriteString(`\t`)
		default:
			sb.WriteRune(r)
		}
	}
	return sb.String()
}
