// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/Ibedes/ibedes/internal/model"
)

// CreateNotification inserts a notification and trims the table back to the
// retention cap, dropping the oldest entries first.
func (q *Queries) CreateNotification(ctx context.Context, n model.Notification) error {
	metadata := "{}"
	if len(n.Metadata) > 0 {
		raw, err := json.Marshal(n.Metadata)
		if err != nil {
			return fmt.Errorf("marshaling notification metadata: %w", err)
		}
		metadata = string(raw)
	}

	_, err := q.db.ExecContext(ctx, `
		INSERT INTO notifications (id, type, title, message, metadata, read, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`, n.ID, n.Type, n.Title, n.Message, metadata, boolToInt(n.Read), formatTime(n.CreatedAt))
	if err != nil {
		return fmt.Errorf("inserting notification: %w", err)
	}

	_, err = q.db.ExecContext(ctx, `
		DELETE FROM notifications
		WHERE id NOT IN (
			SELECT id FROM notifications ORDER BY created_at DESC, id DESC LIMIT ?
		)
	`, model.MaxNotifications)
	if err != nil {
		return fmt.Errorf("trimming notifications: %w", err)
	}
	return nil
}

// ListNotifications returns notifications newest first, capped at limit.
func (q *Queries) ListNotifications(ctx context.Context, limit int) ([]model.Notification, error) {
	rows, err := q.db.QueryContext(ctx, `
		SELECT id, type, title, message, metadata, read, created_at
		FROM notifications
		ORDER BY created_at DESC, id DESC
		LIMIT ?
	`, limit)
	if err != nil {
		return nil, fmt.Errorf("querying notifications: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var notifications []model.Notification
	for rows.Next() {
		var (
			n         model.Notification
			metadata  string
			read      int
			createdAt string
		)
		if err := rows.Scan(&n.ID, &n.Type, &n.Title, &n.Message, &metadata, &read, &createdAt); err != nil {
			return nil, fmt.Errorf("scanning notification: %w", err)
		}
		if metadata != "" && metadata != "{}" {
			_ = json.Unmarshal([]byte(metadata), &n.Metadata)
		}
		n.Read = read != 0
		n.CreatedAt = parseTime(createdAt)
		notifications = append(notifications, n)
	}
	return notifications, rows.Err()
}

// CountUnreadNotifications returns the number of unread notifications.
func (q *Queries) CountUnreadNotifications(ctx context.Context) (int64, error) {
	var count int64
	err := q.db.QueryRowContext(ctx,
		"SELECT COUNT(*) FROM notifications WHERE read = 0").Scan(&count)
	return count, err
}

// MarkNotificationRead marks one notification as read.
func (q *Queries) MarkNotificationRead(ctx context.Context, id string) error {
	res, err := q.db.ExecContext(ctx, "UPDATE notifications SET read = 1 WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("marking notification read: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return sql.ErrNoRows
	}
	return nil
}

// MarkAllNotificationsRead marks every notification as read.
func (q *Queries) MarkAllNotificationsRead(ctx context.Context) error {
	_, err := q.db.ExecContext(ctx, "UPDATE notifications SET read = 1 WHERE read = 0")
	if err != nil {
		return fmt.Errorf("marking all notifications read: %w", err)
	}
	return nil
}

// DeleteNotification removes one notification.
func (q *Queries) DeleteNotification(ctx context.Context, id string) error {
	res, err := q.db.ExecContext(ctx, "DELETE FROM notifications WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("deleting notification: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return sql.ErrNoRows
	}
	return nil
}
