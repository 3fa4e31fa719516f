// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

// Package analytics implements the first-party analytics pipeline: event
// ingestion, the dual-sink event store, session reconstruction, and the
// read-side metric aggregators.
package analytics

import (
	"sync"
	"time"

	"github.com/Ibedes/ibedes/internal/model"
)

// DefaultFallbackLimit is the default capacity of the in-memory event ring.
const DefaultFallbackLimit = 2000

// FallbackRing is a bounded in-memory event sink used when no durable
// backend is configured or a durable call fails. It holds the most recent
// events only: new events are inserted at the head and the oldest entry is
// evicted once the capacity is exceeded.
//
// The ring is not a cache of the durable store. The two sinks can diverge
// and no reconciliation is attempted; its contents are lost on restart.
type FallbackRing struct {
	mu     sync.Mutex
	events []model.AnalyticsEvent
	limit  int
}

// NewFallbackRing creates a ring with the given capacity.
// A non-positive limit falls back to DefaultFallbackLimit.
func NewFallbackRing(limit int) *FallbackRing {
	if limit <= 0 {
		limit = DefaultFallbackLimit
	}
	return &FallbackRing{limit: limit}
}

// Push inserts an event at the head, evicting the tail at capacity.
// Insert and evict form one critical section so concurrent ingestion
// never loses or duplicates entries.
func (r *FallbackRing) Push(event model.AnalyticsEvent) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.events = append([]model.AnalyticsEvent{event}, r.events...)
	if len(r.events) > r.limit {
		r.events = r.events[:r.limit]
	}
}

// Since returns a copy of all held events with CreatedAt >= since,
// newest first. A zero since returns everything.
func (r *FallbackRing) Since(since time.Time) []model.AnalyticsEvent {
	r.mu.Lock()
	defer r.mu.Unlock()

	if since.IsZero() {
		out := make([]model.AnalyticsEvent, len(r.events))
		copy(out, r.events)
		return out
	}

	out := make([]model.AnalyticsEvent, 0, len(r.events))
	for _, e := range r.events {
		if !e.CreatedAt.Before(since) {
			out = append(out, e)
		}
	}
	return out
}

// Len returns the number of events currently held.
func (r *FallbackRing) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.events)
}

// Clear drops all held events.
func (r *FallbackRing) Clear() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = nil
}
