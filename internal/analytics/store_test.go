// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package analytics

import (
	"context"
	"database/sql"
	"log/slog"
	"testing"
	"time"

	"github.com/Ibedes/ibedes/internal/model"
	"github.com/Ibedes/ibedes/internal/store"
	"github.com/Ibedes/ibedes/internal/testutil"
)

func testDB(t *testing.T) *sql.DB {
	t.Helper()
	return testutil.TestMemoryDB(t)
}

func discardLogger() *slog.Logger {
	return testutil.TestLoggerSilent()
}

func TestStore_FallbackOnly(t *testing.T) {
	s := NewStore(StoreOptions{Logger: discardLogger()})
	defer func() { _ = s.Close() }()
	ctx := context.Background()

	if s.Durable() {
		t.Fatal("store without queries should not report durable")
	}

	now := time.Now().UTC()
	s.Append(ctx, model.AnalyticsEvent{EventName: "page_view", CreatedAt: now})
	s.Append(ctx, model.AnalyticsEvent{EventName: "engagement", CreatedAt: now.Add(time.Second)})

	events := s.Events(ctx, time.Time{}, 10)
	if len(events) != 2 {
		t.Fatalf("expected 2 events from ring, got %d", len(events))
	}
	if events[0].EventName != "engagement" {
		t.Errorf("expected newest first, got %q", events[0].EventName)
	}
}

func TestStore_DurableWriteAndRead(t *testing.T) {
	db := testDB(t)
	s := NewStore(StoreOptions{Queries: store.New(db), Logger: discardLogger()})
	defer func() { _ = s.Close() }()
	ctx := context.Background()

	now := time.Now().UTC().Truncate(time.Second)
	stored := s.Append(ctx, model.AnalyticsEvent{
		EventName: "page_view",
		PagePath:  "/blog/a",
		SessionID: "s1",
		Device:    model.DeviceDesktop,
		CreatedAt: now,
	})

	if stored.ID == 0 {
		t.Error("durable write should assign an event ID")
	}
	if s.Ring().Len() != 1 {
		t.Error("fallback ring write must happen regardless of durable outcome")
	}

	events := s.Events(ctx, time.Time{}, 10)
	if len(events) != 1 {
		t.Fatalf("expected 1 event from DB, got %d", len(events))
	}
	if events[0].PagePath != "/blog/a" || events[0].SessionID != "s1" {
		t.Errorf("round-trip mismatch: %+v", events[0])
	}
	if !events[0].CreatedAt.Equal(now) {
		t.Errorf("CreatedAt = %v, want %v", events[0].CreatedAt, now)
	}
}

func TestStore_SinceFilter(t *testing.T) {
	db := testDB(t)
	s := NewStore(StoreOptions{Queries: store.New(db), Logger: discardLogger()})
	defer func() { _ = s.Close() }()
	ctx := context.Background()

	now := time.Now().UTC().Truncate(time.Second)
	s.Append(ctx, model.AnalyticsEvent{EventName: "old", CreatedAt: now.Add(-2 * time.Hour)})
	s.Append(ctx, model.AnalyticsEvent{EventName: "new", CreatedAt: now})

	events := s.Events(ctx, now.Add(-time.Hour), 10)
	if len(events) != 1 {
		t.Fatalf("expected 1 event after since, got %d", len(events))
	}
	if events[0].EventName != "new" {
		t.Errorf("got %q, want new", events[0].EventName)
	}
}

func TestStore_DegradesToRingOnQueryError(t *testing.T) {
	db := testDB(t)
	s := NewStore(StoreOptions{Queries: store.New(db), Logger: discardLogger()})
	defer func() { _ = s.Close() }()
	ctx := context.Background()

	now := time.Now().UTC()
	s.Append(ctx, model.AnalyticsEvent{EventName: "page_view", CreatedAt: now})

	// Closing the DB makes every durable query fail; reads must silently
	// degrade to the ring, not surface the error.
	_ = db.Close()

	events := s.Events(ctx, time.Time{}, 10)
	if len(events) != 1 {
		t.Fatalf("expected ring fallback to serve 1 event, got %d", len(events))
	}

	// Writes keep reaching the ring too.
	s.Append(ctx, model.AnalyticsEvent{EventName: "engagement", CreatedAt: now.Add(time.Second)})
	if s.Ring().Len() != 2 {
		t.Errorf("ring length = %d, want 2", s.Ring().Len())
	}
}

func TestStore_LimitApplied(t *testing.T) {
	s := NewStore(StoreOptions{Logger: discardLogger()})
	defer func() { _ = s.Close() }()
	ctx := context.Background()

	now := time.Now().UTC()
	for i := 0; i < 5; i++ {
		s.Append(ctx, model.AnalyticsEvent{EventName: "page_view", CreatedAt: now.Add(time.Duration(i) * time.Second)})
	}

	events := s.Events(ctx, time.Time{}, 3)
	if len(events) != 3 {
		t.Errorf("expected limit to cap results at 3, got %d", len(events))
	}
}
