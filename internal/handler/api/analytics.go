// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package api

import (
	"encoding/json"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/Ibedes/ibedes/internal/analytics"
	"github.com/Ibedes/ibedes/internal/cache"
	"github.com/Ibedes/ibedes/internal/model"
)

// Request body cap for the collect endpoint. Payloads are small; anything
// bigger is junk.
const maxCollectBodySize = 64 * 1024

// Cache TTLs for the aggregate endpoints.
const (
	insightsCacheTTL = 2 * time.Minute
	overviewCacheTTL = 5 * time.Minute
	realtimeCacheTTL = time.Minute
)

// insightsMaxDays caps the insights window separately from the general
// aggregation clamp.
const insightsMaxDays = 30

// InsightsResponse is the composite dashboard payload.
type InsightsResponse struct {
	Days              int                             `json:"days"`
	PageViewsTrend    []analytics.TrendPoint          `json:"pageViewsTrend"`
	TopPages          []analytics.PageCount           `json:"topPages"`
	DeviceBreakdown   analytics.DeviceBreakdown       `json:"deviceBreakdown"`
	ReferrerBreakdown []analytics.ReferrerCount       `json:"referrerBreakdown"`
	Conversions       analytics.ConversionInsights    `json:"conversions"`
	Performance       analytics.PerformanceOverview   `json:"performance"`
	AffiliateClicks   []analytics.AffiliateClickCount `json:"affiliateClicks"`
	RecentEvents      []analytics.RecentEvent         `json:"recentEvents"`
}

// Collect handles POST /api/v1/analytics/collect. Payload fields are
// sanitized, never rejected; only a malformed body is a client error.
func (h *Handler) Collect(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(io.LimitReader(r.Body, maxCollectBodySize))
	if err != nil {
		WriteBadRequest(w, "Failed to read request body", nil)
		return
	}

	var input analytics.EventInput
	if len(body) > 0 {
		if err := json.Unmarshal(body, &input); err != nil {
			WriteBadRequest(w, "Invalid JSON payload", nil)
			return
		}
	}

	event := h.collector.Collect(r.Context(), input, analytics.RequestInfoFromHeaders(r.Header))
	WriteCreated(w, map[string]any{
		"event":      event.EventName,
		"created_at": event.CreatedAt,
	})
}

// Insights handles GET /api/v1/analytics/insights?days=N.
func (h *Handler) Insights(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	days := analytics.ClampDays(queryInt(r, "days", 7), 7)
	if days > insightsMaxDays {
		days = insightsMaxDays
	}

	typed := cache.NewTypedCache[InsightsResponse](h.cache, insightsCacheTTL)
	key := "insights:" + strconv.Itoa(days)

	resp, err := typed.GetOrSetWithTTL(ctx, key, insightsCacheTTL, func() (*InsightsResponse, error) {
		return &InsightsResponse{
			Days:              days,
			PageViewsTrend:    h.agg.PageViewsTrend(ctx, days),
			TopPages:          h.agg.TopPages(ctx, days, 10),
			DeviceBreakdown:   h.agg.DeviceBreakdown(ctx, days),
			ReferrerBreakdown: h.agg.ReferrerBreakdown(ctx, days, 10),
			Conversions:       h.agg.ConversionInsights(ctx, days),
			Performance:       h.agg.PerformanceOverview(ctx, days),
			AffiliateClicks:   h.agg.AffiliateClicksSummary(ctx, days, 10),
			RecentEvents:      h.agg.RecentEvents(ctx, 20),
		}, nil
	})
	if err != nil {
		h.logger.Error("insights aggregation failed", "category", model.LogCategoryAnalytics, "error", err)
		WriteInternalError(w, "Failed to compute insights")
		return
	}
	WriteSuccess(w, resp, nil)
}

// Overview handles GET /api/v1/analytics/overview?days=N.
func (h *Handler) Overview(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	days := analytics.ClampDays(queryInt(r, "days", 7), 7)

	typed := cache.NewTypedCache[analytics.Overview](h.cache, overviewCacheTTL)
	key := "overview:" + strconv.Itoa(days)

	resp, err := typed.GetOrSetWithTTL(ctx, key, overviewCacheTTL, func() (*analytics.Overview, error) {
		overview := h.agg.Overview(ctx, days)
		return &overview, nil
	})
	if err != nil {
		h.logger.Error("overview aggregation failed", "category", model.LogCategoryAnalytics, "error", err)
		WriteInternalError(w, "Failed to compute overview")
		return
	}
	WriteSuccess(w, resp, nil)
}

// Realtime handles GET /api/v1/analytics/realtime?minutes=N.
func (h *Handler) Realtime(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	minutes := analytics.ClampMinutes(queryInt(r, "minutes", analytics.DefaultRealtimeMinutes))

	typed := cache.NewTypedCache[analytics.RealtimeSnapshot](h.cache, realtimeCacheTTL)
	key := "realtime:" + strconv.Itoa(minutes)

	resp, err := typed.GetOrSetWithTTL(ctx, key, realtimeCacheTTL, func() (*analytics.RealtimeSnapshot, error) {
		snapshot := h.agg.Realtime(ctx, minutes)
		return &snapshot, nil
	})
	if err != nil {
		h.logger.Error("realtime aggregation failed", "category", model.LogCategoryAnalytics, "error", err)
		WriteInternalError(w, "Failed to compute realtime snapshot")
		return
	}
	WriteSuccess(w, resp, nil)
}

// SubscriptionEntry is one newsletter signup in the subscriptions feed.
type SubscriptionEntry struct {
	Email     string    `json:"email,omitempty"`
	Source    string    `json:"source,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

// Subscriptions handles GET /api/v1/analytics/subscriptions?since=epoch-ms.
// Without a since parameter it returns the last 24 hours.
func (h *Handler) Subscriptions(w http.ResponseWriter, r *http.Request) {
	since := time.Now().UTC().Add(-24 * time.Hour)
	if raw := r.URL.Query().Get("since"); raw != "" {
		ms, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			WriteBadRequest(w, "Invalid since parameter", map[string]string{"since": "must be epoch milliseconds"})
			return
		}
		since = time.UnixMilli(ms).UTC()
	}

	events := h.agg.Subscriptions(r.Context(), since)
	entries := make([]SubscriptionEntry, 0, len(events))
	for _, ev := range events {
		entries = append(entries, SubscriptionEntry{
			Email:     ev.Label,
			Source:    ev.Source,
			CreatedAt: ev.CreatedAt,
		})
	}
	WriteSuccess(w, entries, &Meta{Total: int64(len(entries))})
}

// RetentionRun handles POST /api/v1/admin/analytics/retention/run. It prunes
// events older than the configured retention window immediately instead of
// waiting for the nightly job.
func (h *Handler) RetentionRun(w http.ResponseWriter, r *http.Request) {
	if h.retention == nil {
		WriteError(w, http.StatusServiceUnavailable, "retention_disabled", "Retention pruning is not configured", nil)
		return
	}

	deleted, err := h.retention.RunOnce(r.Context())
	if err != nil {
		h.logger.Error("manual retention run failed", "category", model.LogCategoryAnalytics, "error", err)
		WriteInternalError(w, "Retention run failed")
		return
	}

	h.invalidateAnalyticsCache(r)
	WriteSuccess(w, map[string]any{"deleted": deleted}, nil)
}

// invalidateAnalyticsCache drops cached aggregate responses after pruning
// changes the underlying window contents.
func (h *Handler) invalidateAnalyticsCache(r *http.Request) {
	for _, prefix := range []string{"insights:", "overview:", "realtime:"} {
		if err := h.cache.DeleteByPrefix(r.Context(), prefix); err != nil {
			h.logger.Warn("cache invalidation failed", "category", model.LogCategoryCache, "prefix", prefix, "error", err)
		}
	}
}
