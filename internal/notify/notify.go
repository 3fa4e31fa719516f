// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

// Package notify formats and stores admin notifications produced by reader
// activity: newsletter signups, likes, comments and bookmarks.
package notify

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/Ibedes/ibedes/internal/model"
	"github.com/Ibedes/ibedes/internal/store"
)

// Input describes one notification before formatting. Metadata keys depend on
// the type: newsletter carries email/source, the article types carry
// article_title and article_slug.
type Input struct {
	Type     string
	Metadata map[string]string
}

// Service persists notifications and answers the admin list/read operations.
type Service struct {
	queries *store.Queries
	logger  *slog.Logger
	now     func() time.Time
}

// NewService returns a notification service backed by the given store.
func NewService(queries *store.Queries, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{
		queries: queries,
		logger:  logger,
		now:     time.Now,
	}
}

// Add formats and stores a notification. Unknown types are rejected.
func (s *Service) Add(ctx context.Context, in Input) (model.Notification, error) {
	if !model.ValidNotificationType(in.Type) {
		return model.Notification{}, fmt.Errorf("unknown notification type %q", in.Type)
	}

	n := format(in)
	n.ID = uuid.NewString()
	n.CreatedAt = s.now().UTC()

	if err := s.queries.CreateNotification(ctx, n); err != nil {
		return model.Notification{}, fmt.Errorf("storing notification: %w", err)
	}
	return n, nil
}

// NewsletterSubscribed records a notification for a newsletter_subscribe
// event. The subscriber email travels in the event label; failures are logged
// and swallowed so ingestion never depends on the notification store.
func (s *Service) NewsletterSubscribed(ctx context.Context, event model.AnalyticsEvent) {
	email := event.Label
	if email == "" {
		if v, ok := event.Metadata["email"].(string); ok {
			email = v
		}
	}
	source := event.Source
	if source == "" {
		source = model.DefaultEventSource
	}

	_, err := s.Add(ctx, Input{
		Type: model.NotificationNewsletter,
		Metadata: map[string]string{
			"email":  email,
			"source": source,
		},
	})
	if err != nil {
		s.logger.Warn("notification write failed",
			"category", model.LogCategoryNotify,
			"type", model.NotificationNewsletter,
			"error", err)
	}
}

// ArticleLiked records a like notification for the named article.
func (s *Service) ArticleLiked(ctx context.Context, title, slug string) (model.Notification, error) {
	return s.Add(ctx, Input{
		Type:     model.NotificationLike,
		Metadata: articleMetadata(title, slug),
	})
}

// ArticleCommented records a comment notification for the named article.
func (s *Service) ArticleCommented(ctx context.Context, title, slug string) (model.Notification, error) {
	return s.Add(ctx, Input{
		Type:     model.NotificationComment,
		Metadata: articleMetadata(title, slug),
	})
}

// ArticleBookmarked records a bookmark notification for the named article.
func (s *Service) ArticleBookmarked(ctx context.Context, title, slug string) (model.Notification, error) {
	return s.Add(ctx, Input{
		Type:     model.NotificationBookmark,
		Metadata: articleMetadata(title, slug),
	})
}

// List returns the newest notifications, capped at limit (or the retention cap
// when limit is zero or negative).
func (s *Service) List(ctx context.Context, limit int) ([]model.Notification, error) {
	if limit <= 0 || limit > model.MaxNotifications {
		limit = model.MaxNotifications
	}
	return s.queries.ListNotifications(ctx, limit)
}

// CountUnread returns the number of unread notifications.
func (s *Service) CountUnread(ctx context.Context) (int64, error) {
	return s.queries.CountUnreadNotifications(ctx)
}

// MarkRead marks a single notification as read.
func (s *Service) MarkRead(ctx context.Context, id string) error {
	return s.queries.MarkNotificationRead(ctx, id)
}

// MarkAllRead marks every notification as read.
func (s *Service) MarkAllRead(ctx context.Context) error {
	return s.queries.MarkAllNotificationsRead(ctx)
}

// Delete removes a notification by ID.
func (s *Service) Delete(ctx context.Context, id string) error {
	return s.queries.DeleteNotification(ctx, id)
}

func articleMetadata(title, slug string) map[string]string {
	m := map[string]string{"article_title": title}
	if slug != "" {
		m["article_slug"] = slug
	}
	return m
}

// format builds the title and message for a notification input.
func format(in Input) model.Notification {
	n := model.Notification{
		Type:     in.Type,
		Metadata: in.Metadata,
	}

	switch in.Type {
	case model.NotificationNewsletter:
		email := in.Metadata["email"]
		if email == "" {
			email = "Someone"
		}
		n.Title = "📧 New Newsletter Subscriber"
		n.Message = fmt.Sprintf("%s subscribed to the newsletter", email)
	case model.NotificationLike:
		n.Title = "❤️ New Like"
		n.Message = fmt.Sprintf("Article %q received a like", articleTitle(in.Metadata))
	case model.NotificationComment:
		n.Title = "💬 New Comment"
		n.Message = fmt.Sprintf("New comment on %q", articleTitle(in.Metadata))
	case model.NotificationBookmark:
		n.Title = "🔖 New Bookmark"
		n.Message = fmt.Sprintf("Article %q was bookmarked", articleTitle(in.Metadata))
	}
	return n
}

func articleTitle(metadata map[string]string) string {
	if title := metadata["article_title"]; title != "" {
		return title
	}
	return "Unknown"
}
