// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package analytics

import (
	"context"
	"math"
	"net/url"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/Ibedes/ibedes/internal/model"
)

// Window clamps and defaults shared by the read-side queries.
const (
	MinWindowDays = 1
	MaxWindowDays = 60

	MinRealtimeMinutes     = 5
	MaxRealtimeMinutes     = 60
	DefaultRealtimeMinutes = 30
)

// Per-aggregator fetch caps. Trend and session-rate queries scan a wider
// slice of the log than the simple counters.
const (
	fetchLimitRealtime = 2000
	fetchLimitCounts   = 4000
	fetchLimitPages    = 5000
	fetchLimitSessions = 6000
)

// DirectReferrer is the bucket for events with no parseable referrer.
const DirectReferrer = "Direct"

// PageCount is one entry of a top-pages listing.
type PageCount struct {
	Path  string `json:"path"`
	Title string `json:"title,omitempty"`
	Views int    `json:"views"`
}

// TrendPoint is one day of the page-view trend series.
type TrendPoint struct {
	Date      string `json:"date"`  // ISO date, YYYY-MM-DD
	Label     string `json:"label"` // short display label, e.g. "Jan 2"
	PageViews int    `json:"pageViews"`
}

// DeviceBreakdownEntry is the count and share of one device category.
type DeviceBreakdownEntry struct {
	Count   int     `json:"count"`
	Percent float64 `json:"percent"`
}

// DeviceBreakdown maps events into the four fixed device buckets.
type DeviceBreakdown struct {
	Total     int                             `json:"total"`
	Breakdown map[string]DeviceBreakdownEntry `json:"breakdown"`
}

// ReferrerCount is one entry of the referrer breakdown.
type ReferrerCount struct {
	Source string `json:"source"`
	Count  int    `json:"count"`
}

// ConversionInsights combines literal conversion-event counts with
// session-level rates.
type ConversionInsights struct {
	AffiliateClicks      int     `json:"affiliateClicks"`
	NewsletterSubscribes int     `json:"newsletterSubscribes"`
	EngagementEvents     int     `json:"engagementEvents"`
	ErrorEvents          int     `json:"errorEvents"`
	ConversionRate       float64 `json:"conversionRate"`
	EngagementRate       float64 `json:"engagementRate"`
	TotalSessions        int     `json:"totalSessions"`
}

// PerformanceOverview reports session-quality rates for a window.
type PerformanceOverview struct {
	EngagementRate         float64 `json:"engagementRate"`
	BounceRate             float64 `json:"bounceRate"`
	AverageSessionDuration float64 `json:"averageSessionDuration"`
	ConversionRate         float64 `json:"conversionRate"`
}

// Overview reports traffic volume for a window.
type Overview struct {
	Sessions               int     `json:"sessions"`
	TotalUsers             int     `json:"totalUsers"`
	PageViews              int     `json:"pageViews"`
	AverageSessionDuration float64 `json:"averageSessionDuration"`
	Timestamp              int64   `json:"timestamp"`
}

// RealtimeSnapshot reports short-window activity.
type RealtimeSnapshot struct {
	ActiveUsers int         `json:"activeUsers"`
	PageViews   int         `json:"pageViews"`
	TopPages    []PageCount `json:"topPages"`
	Timestamp   int64       `json:"timestamp"`
}

// RecentEvent is one entry of the recent-event feed.
type RecentEvent struct {
	CreatedAt time.Time `json:"created_at"`
	Event     string    `json:"event"`
	Label     string    `json:"label,omitempty"`
	Category  string    `json:"category,omitempty"`
	PagePath  string    `json:"page_path,omitempty"`
	Value     *float64  `json:"value,omitempty"`
}

// AffiliateClickCount is the aggregated click volume of one product.
type AffiliateClickCount struct {
	ProductID string `json:"productId"`
	Name      string `json:"name"`
	Platform  string `json:"platform,omitempty"`
	Clicks    int    `json:"clicks"`
}

// Aggregator is the family of read-side queries over a time window.
// Each query fetches an event snapshot from the Store and reduces it in
// a single pass. For a fixed window boundary the reductions are
// deterministic: ties sort by key so re-running over the same immutable
// event set yields identical output.
type Aggregator struct {
	store *Store
	now   func() time.Time
}

// NewAggregator creates an Aggregator over the given store.
func NewAggregator(store *Store) *Aggregator {
	return &Aggregator{store: store, now: time.Now}
}

// NewAggregatorWithClock creates an Aggregator with a fixed clock, for tests.
func NewAggregatorWithClock(store *Store, now func() time.Time) *Aggregator {
	return &Aggregator{store: store, now: now}
}

// ClampDays bounds a day window to the supported range, defaulting to
// def when days is not positive.
func ClampDays(days, def int) int {
	if days <= 0 {
		return def
	}
	if days < MinWindowDays {
		return MinWindowDays
	}
	if days > MaxWindowDays {
		return MaxWindowDays
	}
	return days
}

// ClampMinutes bounds a realtime window to 5–60 minutes, defaulting to
// 30 when minutes is not positive.
func ClampMinutes(minutes int) int {
	if minutes <= 0 {
		return DefaultRealtimeMinutes
	}
	if minutes < MinRealtimeMinutes {
		return MinRealtimeMinutes
	}
	if minutes > MaxRealtimeMinutes {
		return MaxRealtimeMinutes
	}
	return minutes
}

func (a *Aggregator) sinceDays(days int) time.Time {
	return a.now().Add(-time.Duration(days) * 24 * time.Hour)
}

// TopPages groups page_view events by path (fallback url, fallback
// "unknown") and returns the most viewed pages, capped at limit.
func (a *Aggregator) TopPages(ctx context.Context, days, limit int) []PageCount {
	events := a.store.Events(ctx, a.sinceDays(days), fetchLimitPages)
	return topPages(events, limit)
}

func topPages(events []model.AnalyticsEvent, limit int) []PageCount {
	type pageAcc struct {
		views int
		title string
	}
	counts := make(map[string]*pageAcc)

	for _, e := range events {
		if e.EventName != model.EventPageView {
			continue
		}
		key := e.PagePath
		if key == "" {
			key = e.URL
		}
		if key == "" {
			key = "unknown"
		}
		acc, ok := counts[key]
		if !ok {
			acc = &pageAcc{}
			counts[key] = acc
		}
		acc.views++
		if e.PageTitle != "" {
			acc.title = e.PageTitle
		}
	}

	result := make([]PageCount, 0, len(counts))
	for path, acc := range counts {
		result = append(result, PageCount{Path: path, Title: acc.title, Views: acc.views})
	}
	sort.Slice(result, func(i, j int) bool {
		if result[i].Views != result[j].Views {
			return result[i].Views > result[j].Views
		}
		return result[i].Path < result[j].Path
	})

	if limit > 0 && len(result) > limit {
		result = result[:limit]
	}
	return result
}

// PageViewsTrend buckets page_view events by calendar day and back-fills
// every day in the window with zero counts, so the series is always
// dense: exactly days entries, oldest first.
func (a *Aggregator) PageViewsTrend(ctx context.Context, days int) []TrendPoint {
	events := a.store.Events(ctx, a.sinceDays(days), fetchLimitSessions)

	counts := make(map[string]int)
	for _, e := range events {
		if e.EventName != model.EventPageView {
			continue
		}
		counts[e.CreatedAt.UTC().Format("2006-01-02")]++
	}

	now := a.now().UTC()
	result := make([]TrendPoint, 0, days)
	for i := days - 1; i >= 0; i-- {
		day := now.AddDate(0, 0, -i)
		iso := day.Format("2006-01-02")
		result = append(result, TrendPoint{
			Date:      iso,
			Label:     day.Format("Jan 2"),
			PageViews: counts[iso],
		})
	}
	return result
}

// DeviceBreakdown counts events by device category into the four fixed
// buckets; unrecognized values fold into other. Percentages are one
// decimal place, 0 when the window is empty.
func (a *Aggregator) DeviceBreakdown(ctx context.Context, days int) DeviceBreakdown {
	events := a.store.Events(ctx, a.sinceDays(days), fetchLimitCounts)

	counts := map[string]int{
		model.DeviceMobile:  0,
		model.DeviceDesktop: 0,
		model.DeviceTablet:  0,
		model.DeviceOther:   0,
	}

	for _, e := range events {
		key := strings.ToLower(e.Device)
		if _, ok := counts[key]; !ok {
			key = model.DeviceOther
		}
		counts[key]++
	}

	total := 0
	for _, n := range counts {
		total += n
	}

	breakdown := make(map[string]DeviceBreakdownEntry, len(counts))
	for key, n := range counts {
		var percent float64
		if total > 0 {
			percent = round1(float64(n) / float64(total) * 100)
		}
		breakdown[key] = DeviceBreakdownEntry{Count: n, Percent: percent}
	}

	return DeviceBreakdown{Total: total, Breakdown: breakdown}
}

// ReferrerBreakdown groups page_view events by referrer hostname with a
// leading "www." stripped; empty or unparsable referrers bucket as
// "Direct". Sorted descending by count, capped at limit.
func (a *Aggregator) ReferrerBreakdown(ctx context.Context, days, limit int) []ReferrerCount {
	events := a.store.Events(ctx, a.sinceDays(days), fetchLimitCounts)

	counts := make(map[string]int)
	for _, e := range events {
		if e.EventName != model.EventPageView {
			continue
		}
		counts[normalizeReferrer(e.Referrer)]++
	}

	result := make([]ReferrerCount, 0, len(counts))
	for source, n := range counts {
		result = append(result, ReferrerCount{Source: source, Count: n})
	}
	sort.Slice(result, func(i, j int) bool {
		if result[i].Count != result[j].Count {
			return result[i].Count > result[j].Count
		}
		return result[i].Source < result[j].Source
	})

	if limit > 0 && len(result) > limit {
		result = result[:limit]
	}
	return result
}

// normalizeReferrer reduces a referrer URL to its bare hostname.
func normalizeReferrer(referrer string) string {
	if referrer == "" {
		return DirectReferrer
	}
	u, err := url.Parse(referrer)
	if err != nil || u.Hostname() == "" {
		return DirectReferrer
	}
	return strings.TrimPrefix(u.Hostname(), "www.")
}

// ConversionInsights counts the conversion-relevant event types and
// attaches session-level conversion and engagement rates.
func (a *Aggregator) ConversionInsights(ctx context.Context, days int) ConversionInsights {
	events := a.store.Events(ctx, a.sinceDays(days), fetchLimitCounts)
	summary := SummarizeSessions(events)

	insights := ConversionInsights{
		ConversionRate: round1(summary.ConversionRate),
		EngagementRate: round1(summary.EngagementRate),
		TotalSessions:  summary.TotalSessions,
	}

	for _, e := range events {
		switch e.EventName {
		case model.EventAffiliateClick:
			insights.AffiliateClicks++
		case model.EventNewsletterSubscribe:
			insights.NewsletterSubscribes++
		case model.EventEngagement:
			insights.EngagementEvents++
		case model.EventError:
			insights.ErrorEvents++
		}
	}

	return insights
}

// PerformanceOverview reports engagement, bounce, duration, and
// conversion rates; bounceRate = 100 − engagementRate.
func (a *Aggregator) PerformanceOverview(ctx context.Context, days int) PerformanceOverview {
	events := a.store.Events(ctx, a.sinceDays(days), fetchLimitSessions)
	summary := SummarizeSessions(events)

	return PerformanceOverview{
		EngagementRate:         round1(summary.EngagementRate),
		BounceRate:             round1(100 - summary.EngagementRate),
		AverageSessionDuration: round1(summary.AverageDuration),
		ConversionRate:         round1(summary.ConversionRate),
	}
}

// Overview reports distinct sessions and users, page views, and average
// session duration for the window.
func (a *Aggregator) Overview(ctx context.Context, days int) Overview {
	events := a.store.Events(ctx, a.sinceDays(days), fetchLimitSessions)

	sessions := make(map[string]struct{})
	users := make(map[string]struct{})
	pageViews := 0

	for _, e := range events {
		if key := firstNonEmpty(e.SessionID, e.VisitorID); key != "" {
			sessions[key] = struct{}{}
		}
		if e.VisitorID != "" {
			users[e.VisitorID] = struct{}{}
		}
		if e.EventName == model.EventPageView {
			pageViews++
		}
	}

	summary := SummarizeSessions(events)

	return Overview{
		Sessions:               len(sessions),
		TotalUsers:             len(users),
		PageViews:              pageViews,
		AverageSessionDuration: round1(summary.AverageDuration),
		Timestamp:              a.now().UnixMilli(),
	}
}

// Realtime reports activity over a short window: active users are the
// distinct session-or-visitor identifiers seen in the window.
func (a *Aggregator) Realtime(ctx context.Context, minutes int) RealtimeSnapshot {
	since := a.now().Add(-time.Duration(minutes) * time.Minute)
	events := a.store.Events(ctx, since, fetchLimitRealtime)

	active := make(map[string]struct{})
	pageViews := 0
	for _, e := range events {
		if key := firstNonEmpty(e.SessionID, e.VisitorID); key != "" {
			active[key] = struct{}{}
		}
		if e.EventName == model.EventPageView {
			pageViews++
		}
	}

	return RealtimeSnapshot{
		ActiveUsers: len(active),
		PageViews:   pageViews,
		TopPages:    topPages(events, 5),
		Timestamp:   a.now().UnixMilli(),
	}
}

// RecentEvents returns the newest events as a compact feed.
func (a *Aggregator) RecentEvents(ctx context.Context, limit int) []RecentEvent {
	if limit <= 0 {
		limit = 20
	}
	events := a.store.Events(ctx, time.Time{}, limit)

	sort.SliceStable(events, func(i, j int) bool {
		return events[i].CreatedAt.After(events[j].CreatedAt)
	})
	if len(events) > limit {
		events = events[:limit]
	}

	feed := make([]RecentEvent, 0, len(events))
	for _, e := range events {
		feed = append(feed, RecentEvent{
			CreatedAt: e.CreatedAt,
			Event:     e.EventName,
			Label:     e.Label,
			Category:  e.Category,
			PagePath:  e.PagePath,
			Value:     e.Value,
		})
	}
	return feed
}

// AffiliateClicksSummary groups affiliate_click events by the composite
// (productId, name, platform) key, sums clicks per group, and returns
// the groups sorted descending by clicks, capped at limit.
//
// productId falls back label → pagePath → "unknown"; name falls back
// label → resolved productId; platform comes from metadata.
func (a *Aggregator) AffiliateClicksSummary(ctx context.Context, days, limit int) []AffiliateClickCount {
	events := a.store.Events(ctx, a.sinceDays(days), fetchLimitSessions)

	grouped := make(map[string]*AffiliateClickCount)
	for _, e := range events {
		if e.EventName != model.EventAffiliateClick {
			continue
		}

		productID := firstNonEmpty(metaString(e.Metadata, "product_id"), e.Label, e.PagePath, "unknown")
		name := firstNonEmpty(e.Label, metaString(e.Metadata, "product_name"), productID)
		platform := metaString(e.Metadata, "platform")

		key := productID + ":" + name + ":" + platform
		entry, ok := grouped[key]
		if !ok {
			entry = &AffiliateClickCount{ProductID: productID, Name: name, Platform: platform}
			grouped[key] = entry
		}
		entry.Clicks++
	}

	result := make([]AffiliateClickCount, 0, len(grouped))
	for _, entry := range grouped {
		result = append(result, *entry)
	}
	sort.Slice(result, func(i, j int) bool {
		if result[i].Clicks != result[j].Clicks {
			return result[i].Clicks > result[j].Clicks
		}
		return result[i].ProductID < result[j].ProductID
	})

	if limit > 0 && len(result) > limit {
		result = result[:limit]
	}
	return result
}

// ClickCounts reduces the affiliate click summary to a productId → clicks
// map, the shape the ranking engine consumes.
func (a *Aggregator) ClickCounts(ctx context.Context, days int) map[string]int {
	summary := a.AffiliateClicksSummary(ctx, days, 500)
	counts := make(map[string]int, len(summary))
	for _, entry := range summary {
		counts[entry.ProductID] += entry.Clicks
	}
	return counts
}

// Subscriptions returns newsletter_subscribe events since the given time,
// newest first.
func (a *Aggregator) Subscriptions(ctx context.Context, since time.Time) []model.AnalyticsEvent {
	events := a.store.Events(ctx, since, fetchLimitCounts)

	out := make([]model.AnalyticsEvent, 0)
	for _, e := range events {
		if e.EventName == model.EventNewsletterSubscribe {
			out = append(out, e)
		}
	}
	return out
}

// round1 rounds to one decimal place.
func round1(v float64) float64 {
	return math.Round(v*10) / 10
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}

// metaString reads a metadata value as a string; numbers are formatted,
// other types are ignored.
func metaString(meta map[string]any, key string) string {
	if meta == nil {
		return ""
	}
	switch v := meta[key].(type) {
	case string:
		return v
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64)
	default:
		return ""
	}
}
