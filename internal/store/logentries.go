package store

import (
	"context"
	"fmt"

	"github.com/Ibedes/ibedes/internal/model"
)

// CreateLogEntry inserts a system log record. Used by the slog tee handler.
func (q *Queries) CreateLogEntry(ctx context.Context, e model.LogEntry) error {
	metadata := e.Metadata
	if metadata == "" {
		metadata = "{}"
	}
	_, err := q.db.ExecContext(ctx, `
		INSERT INTO log_entries (level, category, message, metadata, created_at)
		VALUES (?, ?, ?, ?, ?)
	`, e.Level, e.Category, e.Message, metadata, formatTime(e.CreatedAt))
	if err != nil {
		return fmt.Errorf("inserting log entry: %w", err)
	}
	return nil
}

// ListLogEntries returns recent system log records, newest first.
func (q *Queries) ListLogEntries(ctx context.Context, limit int) ([]model.LogEntry, error) {
	rows, err := q.db.QueryContext(ctx, `
		SELECT id, level, category, message, metadata, created_at
		FROM log_entries
		ORDER BY created_at DESC, id DESC
		LIMIT ?
	`, limit)
	if err != nil {
		return nil, fmt.Errorf("querying log entries: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var entries []model.LogEntry
	for rows.Next() {
		var (
			e         model.LogEntry
			createdAt string
		)
		if err := rows.Scan(&e.ID, &e.Level, &e.Category, &e.Message, &e.Metadata, &createdAt); err != nil {
			return nil, fmt.Errorf("scanning log entry: %w", err)
		}
		e.CreatedAt = parseTime(createdAt)
		entries = append(entries, e)
	}
	return entries, rows.Err()
}
