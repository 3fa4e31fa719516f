// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package model

import "time"

// Notification types
const (
	NotificationNewsletter = "newsletter"
	NotificationLike       = "like"
	NotificationComment    = "comment"
	NotificationBookmark   = "bookmark"
)

// MaxNotifications caps how many notifications are retained; older entries
// are dropped when new ones arrive.
const MaxNotifications = 100

// Notification is an admin-facing notification produced by the fan-out on
// reader activity (subscriptions, likes, comments, bookmarks).
type Notification struct {
	ID        string            `json:"id"`
	Type      string            `json:"type"`
	Title     string            `json:"title"`
	Message   string            `json:"message"`
	Metadata  map[string]string `json:"metadata,omitempty"`
	Read      bool              `json:"read"`
	CreatedAt time.Time         `json:"created_at"`
}

// ValidNotificationType reports whether the value is a known notification type.
func ValidNotificationType(t string) bool {
	switch t {
	case NotificationNewsletter, NotificationLike, NotificationComment, NotificationBookmark:
		return true
	}
	return false
}
