// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package cache

import (
	"context"
	"errors"
	"testing"
	"time"
)

type testPayload struct {
	Name  string `json:"name"`
	Count int    `json:"count"`
}

func TestTypedCache_SetGet(t *testing.T) {
	mem := NewSimpleMemoryCache(time.Hour)
	defer func() { _ = mem.Close() }()

	tc := NewTypedCache[testPayload](mem, time.Minute)
	ctx := context.Background()

	want := &testPayload{Name: "page_view", Count: 42}
	if err := tc.Set(ctx, "payload", want); err != nil {
		t.Fatalf("Set failed: %v", err)
	}

	got, ok := tc.Get(ctx, "payload")
	if !ok {
		t.Fatal("expected cache hit")
	}
	if got.Name != want.Name || got.Count != want.Count {
		t.Errorf("got %+v, want %+v", got, want)
	}
}

func TestTypedCache_Miss(t *testing.T) {
	mem := NewSimpleMemoryCache(time.Hour)
	defer func() { _ = mem.Close() }()

	tc := NewTypedCache[testPayload](mem, time.Minute)

	if _, ok := tc.Get(context.Background(), "missing"); ok {
		t.Error("expected cache miss")
	}
}

func TestTypedCache_GetOrSet(t *testing.T) {
	mem := NewSimpleMemoryCache(time.Hour)
	defer func() { _ = mem.Close() }()

	tc := NewTypedCache[testPayload](mem, time.Minute)
	ctx := context.Background()

	calls := 0
	compute := func() (*testPayload, error) {
		calls++
		return &testPayload{Name: "computed", Count: calls}, nil
	}

	first, err := tc.GetOrSet(ctx, "key", compute)
	if err != nil {
		t.Fatalf("GetOrSet failed: %v", err)
	}
	second, err := tc.GetOrSet(ctx, "key", compute)
	if err != nil {
		t.Fatalf("GetOrSet failed: %v", err)
	}

	if calls != 1 {
		t.Errorf("compute called %d times, want 1", calls)
	}
	if first.Count != second.Count {
		t.Errorf("second call returned recomputed value: %d vs %d", first.Count, second.Count)
	}
}

func TestTypedCache_GetOrSet_Error(t *testing.T) {
	mem := NewSimpleMemoryCache(time.Hour)
	defer func() { _ = mem.Close() }()

	tc := NewTypedCache[testPayload](mem, time.Minute)

	wantErr := errors.New("compute failed")
	_, err := tc.GetOrSet(context.Background(), "key", func() (*testPayload, error) {
		return nil, wantErr
	})
	if !errors.Is(err, wantErr) {
		t.Errorf("expected compute error, got %v", err)
	}

	// The failed computation must not be cached.
	if _, ok := tc.Get(context.Background(), "key"); ok {
		t.Error("failed computation should not be cached")
	}
}
