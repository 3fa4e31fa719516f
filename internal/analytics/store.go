// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package analytics

import (
	"context"
	"log/slog"
	"time"

	"github.com/Ibedes/ibedes/internal/model"
	"github.com/Ibedes/ibedes/internal/store"
)

// Default fetch limit when the caller does not supply one.
const defaultFetchLimit = 2000

// dbCallTimeout bounds each durable-store call so a slow backend degrades
// to the fallback ring instead of stalling the request.
const dbCallTimeout = 3 * time.Second

// Store is the dual-sink event store: an optional durable SQLite backend
// plus the bounded in-memory fallback ring. It is an explicitly
// constructed object so tests can run isolated instances.
type Store struct {
	queries *store.Queries // nil when no durable backend is configured
	ring    *FallbackRing
	logger  *slog.Logger
}

// StoreOptions configures a Store.
type StoreOptions struct {
	// Queries is the durable backend. Nil means fallback-only operation.
	Queries *store.Queries

	// FallbackLimit is the ring capacity (0 = DefaultFallbackLimit).
	FallbackLimit int

	Logger *slog.Logger
}

// NewStore creates a Store with the given options.
func NewStore(opts StoreOptions) *Store {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Store{
		queries: opts.Queries,
		ring:    NewFallbackRing(opts.FallbackLimit),
		logger:  logger,
	}
}

// Durable reports whether a durable backend is configured.
func (s *Store) Durable() bool {
	return s.queries != nil
}

// Append records an event: one best-effort durable write attempt (never
// retried) plus an unconditional write to the fallback ring. Every event
// therefore reaches at least one sink even under backend outage.
func (s *Store) Append(ctx context.Context, event model.AnalyticsEvent) model.AnalyticsEvent {
	if s.queries != nil {
		dbCtx, cancel := context.WithTimeout(ctx, dbCallTimeout)
		id, err := s.queries.CreateAnalyticsEvent(dbCtx, event)
		cancel()
		if err != nil {
			s.logger.Warn("failed to store analytics event",
				"category", model.LogCategoryAnalytics,
				"event", event.EventName,
				"error", err)
		} else {
			event.ID = id
		}
	}

	s.ring.Push(event)
	return event
}

// Events returns events with CreatedAt >= since (zero since = no lower
// bound), newest first, capped at limit. Falls back to the ring when no
// durable backend is configured or the query errors.
func (s *Store) Events(ctx context.Context, since time.Time, limit int) []model.AnalyticsEvent {
	if limit <= 0 {
		limit = defaultFetchLimit
	}

	if s.queries == nil {
		return capEvents(s.ring.Since(since), limit)
	}

	dbCtx, cancel := context.WithTimeout(ctx, dbCallTimeout)
	defer cancel()

	events, err := s.queries.ListEventsSince(dbCtx, since, limit)
	if err != nil {
		s.logger.Warn("failed to fetch analytics events",
			"category", model.LogCategoryAnalytics,
			"error", err)
		return capEvents(s.ring.Since(since), limit)
	}
	return events
}

// Ring exposes the fallback ring, mainly for tests.
func (s *Store) Ring() *FallbackRing {
	return s.ring
}

// Close releases the store's resources.
func (s *Store) Close() error {
	s.ring.Clear()
	return nil
}

func capEvents(events []model.AnalyticsEvent, limit int) []model.AnalyticsEvent {
	if len(events) > limit {
		return events[:limit]
	}
	return events
}
