// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/Ibedes/ibedes/internal/model"
)

const eventColumns = `id, event_name, category, action, label, value, page_path, page_title,
	session_id, visitor_id, referrer, locale, timezone, screen, device, url, source, metadata, created_at`

// CreateAnalyticsEvent inserts one immutable analytics event.
func (q *Queries) CreateAnalyticsEvent(ctx context.Context, ev model.AnalyticsEvent) (int64, error) {
	metadata := "{}"
	if len(ev.Metadata) > 0 {
		raw, err := json.Marshal(ev.Metadata)
		if err != nil {
			return 0, fmt.Errorf("marshaling event metadata: %w", err)
		}
		metadata = string(raw)
	}

	var value sql.NullFloat64
	if ev.Value != nil {
		value = sql.NullFloat64{Float64: *ev.Value, Valid: true}
	}

	res, err := q.db.ExecContext(ctx, `
		INSERT INTO analytics_events (
			event_name, category, action, label, value, page_path, page_title,
			session_id, visitor_id, referrer, locale, timezone, screen, device,
			url, source, metadata, created_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, ev.EventName, ev.Category, ev.Action, ev.Label, value, ev.PagePath, ev.PageTitle,
		ev.SessionID, ev.VisitorID, ev.Referrer, ev.Locale, ev.Timezone, ev.Screen, ev.Device,
		ev.URL, ev.Source, metadata, formatTime(ev.CreatedAt))
	if err != nil {
		return 0, fmt.Errorf("inserting analytics event: %w", err)
	}
	return res.LastInsertId()
}

// ListEventsSince returns events with created_at >= since, newest first,
// capped at limit. A zero since returns the most recent events overall.
func (q *Queries) ListEventsSince(ctx context.Context, since time.Time, limit int) ([]model.AnalyticsEvent, error) {
	var (
		rows *sql.Rows
		err  error
	)
	if since.IsZero() {
		rows, err = q.db.QueryContext(ctx, `
			SELECT `+eventColumns+`
			FROM analytics_events
			ORDER BY created_at DESC, id DESC
			LIMIT ?
		`, limit)
	} else {
		rows, err = q.db.QueryContext(ctx, `
			SELECT `+eventColumns+`
			FROM analytics_events
			WHERE created_at >= ?
			ORDER BY created_at DESC, id DESC
			LIMIT ?
		`, formatTime(since), limit)
	}
	if err != nil {
		return nil, fmt.Errorf("querying analytics events: %w", err)
	}
	defer func() { _ = rows.Close() }()

	return scanEvents(rows)
}

// ListEventsByNameSince returns events of one name with created_at >= since,
// newest first, capped at limit.
func (q *Queries) ListEventsByNameSince(ctx context.Context, name string, since time.Time, limit int) ([]model.AnalyticsEvent, error) {
	rows, err := q.db.QueryContext(ctx, `
		SELECT `+eventColumns+`
		FROM analytics_events
		WHERE event_name = ? AND created_at >= ?
		ORDER BY created_at DESC, id DESC
		LIMIT ?
	`, name, formatTime(since), limit)
	if err != nil {
		return nil, fmt.Errorf("querying analytics events by name: %w", err)
	}
	defer func() { _ = rows.Close() }()

	return scanEvents(rows)
}

// DeleteEventsBefore removes events older than the cutoff. Used only by the
// retention job; the analytics pipeline itself never deletes.
func (q *Queries) DeleteEventsBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	res, err := q.db.ExecContext(ctx,
		"DELETE FROM analytics_events WHERE created_at < ?", formatTime(cutoff))
	if err != nil {
		return 0, fmt.Errorf("deleting expired analytics events: %w", err)
	}
	return res.RowsAffected()
}

// CountEvents returns the total number of stored analytics events.
func (q *Queries) CountEvents(ctx context.Context) (int64, error) {
	var count int64
	err := q.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM analytics_events").Scan(&count)
	return count, err
}

func scanEvents(rows *sql.Rows) ([]model.AnalyticsEvent, error) {
	var events []model.AnalyticsEvent
	for rows.Next() {
		var (
			ev        model.AnalyticsEvent
			value     sql.NullFloat64
			metadata  string
			createdAt string
		)
		if err := rows.Scan(
			&ev.ID, &ev.EventName, &ev.Category, &ev.Action, &ev.Label, &value,
			&ev.PagePath, &ev.PageTitle, &ev.SessionID, &ev.VisitorID, &ev.Referrer,
			&ev.Locale, &ev.Timezone, &ev.Screen, &ev.Device, &ev.URL, &ev.Source,
			&metadata, &createdAt,
		); err != nil {
			return nil, fmt.Errorf("scanning analytics event: %w", err)
		}
		if value.Valid {
			v := value.Float64
			ev.Value = &v
		}
		if metadata != "" && metadata != "{}" {
			// Metadata is schemaless; a decode failure leaves it nil.
			_ = json.Unmarshal([]byte(metadata), &ev.Metadata)
		}
		ev.CreatedAt = parseTime(createdAt)
		events = append(events, ev)
	}
	return events, rows.Err()
}
