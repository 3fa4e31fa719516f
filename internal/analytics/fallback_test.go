// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package analytics

import (
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/Ibedes/ibedes/internal/model"
)

func ringEvent(name string, at time.Time) model.AnalyticsEvent {
	return model.AnalyticsEvent{EventName: name, CreatedAt: at}
}

func TestFallbackRing_NewestFirst(t *testing.T) {
	ring := NewFallbackRing(10)
	base := time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)

	ring.Push(ringEvent("first", base))
	ring.Push(ringEvent("second", base.Add(time.Minute)))
	ring.Push(ringEvent("third", base.Add(2*time.Minute)))

	events := ring.Since(time.Time{})
	if len(events) != 3 {
		t.Fatalf("expected 3 events, got %d", len(events))
	}
	if events[0].EventName != "third" || events[2].EventName != "first" {
		t.Errorf("expected newest first, got %q..%q", events[0].EventName, events[2].EventName)
	}
}

func TestFallbackRing_EvictsTailAtCapacity(t *testing.T) {
	ring := NewFallbackRing(3)
	base := time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)

	for i := 0; i < 5; i++ {
		ring.Push(ringEvent(fmt.Sprintf("event%d", i), base.Add(time.Duration(i)*time.Second)))
	}

	if ring.Len() != 3 {
		t.Fatalf("expected ring capped at 3, got %d", ring.Len())
	}

	events := ring.Since(time.Time{})
	if events[0].EventName != "event4" {
		t.Errorf("head = %q, want event4", events[0].EventName)
	}
	if events[2].EventName != "event2" {
		t.Errorf("tail = %q, want event2 (oldest evicted)", events[2].EventName)
	}
}

func TestFallbackRing_SinceFilters(t *testing.T) {
	ring := NewFallbackRing(10)
	base := time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)

	ring.Push(ringEvent("old", base))
	ring.Push(ringEvent("boundary", base.Add(time.Hour)))
	ring.Push(ringEvent("new", base.Add(2*time.Hour)))

	events := ring.Since(base.Add(time.Hour))
	if len(events) != 2 {
		t.Fatalf("expected 2 events at or after boundary, got %d", len(events))
	}
	for _, e := range events {
		if e.EventName == "old" {
			t.Error("event before the boundary should be filtered out")
		}
	}
}

func TestFallbackRing_DefaultLimit(t *testing.T) {
	ring := NewFallbackRing(0)
	if ring.limit != DefaultFallbackLimit {
		t.Errorf("limit = %d, want %d", ring.limit, DefaultFallbackLimit)
	}
}

func TestFallbackRing_ConcurrentPush(t *testing.T) {
	ring := NewFallbackRing(100)

	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 50; j++ {
				ring.Push(ringEvent("concurrent", time.Now()))
			}
		}()
	}
	wg.Wait()

	// Insert+evict is a critical section: nothing lost below cap, nothing
	// duplicated above it.
	if ring.Len() != 100 {
		t.Errorf("expected exactly the capacity after 500 pushes, got %d", ring.Len())
	}
}
