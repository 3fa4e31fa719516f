// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package api

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/Ibedes/ibedes/internal/analytics"
	"github.com/Ibedes/ibedes/internal/cache"
	"github.com/Ibedes/ibedes/internal/notify"
	"github.com/Ibedes/ibedes/internal/store"
	"github.com/Ibedes/ibedes/internal/testutil"
)

// testClock is the fixed aggregation instant used across handler tests.
var testClock = time.Date(2026, 8, 20, 12, 0, 0, 0, time.UTC)

// newTestHandler builds a Handler over a migrated temp database, a memory
// cache, and a fixed clock.
func newTestHandler(t *testing.T) *Handler {
	t.Helper()

	db := testutil.TestDB(t)
	queries := store.New(db)
	logger := testutil.TestLoggerSilent()

	events := analytics.NewStore(analytics.StoreOptions{
		Queries: queries,
		Logger:  logger,
	})
	t.Cleanup(func() { _ = events.Close() })

	collector := analytics.NewCollector(analytics.CollectorOptions{
		Store:  events,
		Logger: logger,
		Now:    func() time.Time { return testClock },
	})

	memCache := cache.NewSimpleMemoryCache(time.Minute)
	t.Cleanup(func() { _ = memCache.Close() })

	notifySvc := notify.NewService(queries, logger)

	return NewHandler(Options{
		Queries:    queries,
		Collector:  collector,
		Aggregator: analytics.NewAggregatorWithClock(events, func() time.Time { return testClock }),
		Events:     events,
		Retention:  analytics.NewRetention(queries, analytics.DefaultRetentionDays, logger),
		Notify:     notifySvc,
		Cache:      memCache,
		Logger:     logger,
	})
}

// seedEvent records one event through the collector with no request info.
func seedEvent(h *Handler, event analytics.EventInput) {
	h.collector.Collect(context.Background(), event, analytics.RequestInfo{})
}

// requestWithURLParams adds chi URL parameters to a request.
func requestWithURLParams(r *http.Request, params map[string]string) *http.Request {
	rctx := chi.NewRouteContext()
	for key, value := range params {
		rctx.URLParams.Add(key, value)
	}
	return r.WithContext(context.WithValue(r.Context(), chi.RouteCtxKey, rctx))
}

// newJSONRequest creates an HTTP request with JSON body and optional URL params.
func newJSONRequest(t *testing.T, method, path string, body string, params map[string]string) *http.Request {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	if len(params) > 0 {
		req = requestWithURLParams(req, params)
	}
	return req
}

// newGetRequest creates an HTTP GET request with optional URL params.
func newGetRequest(t *testing.T, path string, params map[string]string) *http.Request {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, path, nil)
	if len(params) > 0 {
		req = requestWithURLParams(req, params)
	}
	return req
}

// newDeleteRequest creates an HTTP DELETE request with optional URL params.
func newDeleteRequest(t *testing.T, path string, params map[string]string) *http.Request {
	t.Helper()
	req := httptest.NewRequest(http.MethodDelete, path, nil)
	if len(params) > 0 {
		req = requestWithURLParams(req, params)
	}
	return req
}

// dataResponse is a generic wrapper for API responses with a "data" field.
type dataResponse[T any] struct {
	Data T `json:"data"`
}

// listResponse is a generic wrapper for API list responses with data and meta.
type listResponse[T any] struct {
	Data []T   `json:"data"`
	Meta *Meta `json:"meta"`
}

// unmarshalData unmarshals a JSON response body into the specified type.
func unmarshalData[T any](t *testing.T, w *httptest.ResponseRecorder) T {
	t.Helper()
	var resp dataResponse[T]
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("failed to unmarshal response: %v", err)
	}
	return resp.Data
}

// unmarshalList unmarshals a JSON list response body into the specified type.
func unmarshalList[T any](t *testing.T, w *httptest.ResponseRecorder) ([]T, *Meta) {
	t.Helper()
	var resp listResponse[T]
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("failed to unmarshal response: %v", err)
	}
	return resp.Data, resp.Meta
}

// mustUnmarshal unmarshals a raw response body into dst.
func mustUnmarshal(t *testing.T, w *httptest.ResponseRecorder, dst any) {
	t.Helper()
	if err := json.Unmarshal(w.Body.Bytes(), dst); err != nil {
		t.Fatalf("failed to unmarshal response: %v", err)
	}
}

// executeHandler executes a handler and returns the response recorder.
func executeHandler(t *testing.T, handler func(http.ResponseWriter, *http.Request), req *http.Request) *httptest.ResponseRecorder {
	t.Helper()
	w := httptest.NewRecorder()
	handler(w, req)
	return w
}
