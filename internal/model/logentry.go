package model

import "time"

// Log entry levels
const (
	LogLevelInfo    = "info"
	LogLevelWarning = "warning"
	LogLevelError   = "error"
)

// Log entry categories
const (
	LogCategoryAnalytics = "analytics"
	LogCategoryProduct   = "product"
	LogCategoryArticle   = "article"
	LogCategoryNotify    = "notify"
	LogCategoryCache     = "cache"
	LogCategorySystem    = "system"
)

// LogEntry is a persisted system log record. The slog handler in
// internal/logging tees WARN+ records into this table for the admin audit view.
type LogEntry struct {
	ID        int64
	Level     string
	Category  string
	Message   string
	Metadata  string // JSON string
	CreatedAt time.Time
}
