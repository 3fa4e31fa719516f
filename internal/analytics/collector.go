// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package analytics

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"golang.org/x/text/language"

	"github.com/Ibedes/ibedes/internal/geoip"
	"github.com/Ibedes/ibedes/internal/model"
)

// EventInput is the loosely-typed ingestion payload. Field names follow
// the client instrumentation wire format.
type EventInput struct {
	Event     string         `json:"event"`
	Category  string         `json:"category,omitempty"`
	Action    string         `json:"action,omitempty"`
	Label     string         `json:"label,omitempty"`
	Value     *float64       `json:"value,omitempty"`
	PagePath  string         `json:"page_path,omitempty"`
	PageTitle string         `json:"page_title,omitempty"`
	SessionID string         `json:"session_id,omitempty"`
	VisitorID string         `json:"visitor_id,omitempty"`
	Referrer  string         `json:"referrer,omitempty"`
	Locale    string         `json:"locale,omitempty"`
	Timezone  string         `json:"timezone,omitempty"`
	Screen    string         `json:"screen,omitempty"`
	Device    string         `json:"device,omitempty"`
	URL       string         `json:"url,omitempty"`
	Source    string         `json:"source,omitempty"`
	Metadata  map[string]any `json:"metadata,omitempty"`

	// Timestamp is an optional client-supplied time: epoch milliseconds
	// (number) or a date string. Client clock skew is accepted as-is when
	// the value parses.
	Timestamp any `json:"timestamp,omitempty"`
}

// eventInputFields is the set of typed wire keys above. Any other
// top-level key is client-specific context.
var eventInputFields = map[string]struct{}{
	"event": {}, "category": {}, "action": {}, "label": {}, "value": {},
	"page_path": {}, "page_title": {}, "session_id": {}, "visitor_id": {},
	"referrer": {}, "locale": {}, "timezone": {}, "screen": {},
	"device": {}, "url": {}, "source": {}, "metadata": {}, "timestamp": {},
}

// UnmarshalJSON folds unrecognized top-level keys into Metadata. Client
// instrumentation spreads extra context (product_id, platform, price)
// directly into the payload rather than nesting it under metadata.
// Explicit metadata entries win over folded top-level keys.
func (in *EventInput) UnmarshalJSON(data []byte) error {
	type plain EventInput
	var typed plain
	if err := json.Unmarshal(data, &typed); err != nil {
		return err
	}

	var raw map[string]any
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	for key, value := range raw {
		if _, known := eventInputFields[key]; known {
			continue
		}
		if typed.Metadata == nil {
			typed.Metadata = make(map[string]any)
		}
		if _, taken := typed.Metadata[key]; !taken {
			typed.Metadata[key] = value
		}
	}

	*in = EventInput(typed)
	return nil
}

// RequestInfo carries the request-context facts the collector injects
// into event metadata.
type RequestInfo struct {
	UserAgent string
	ClientIP  string
}

// RequestInfoFromHeaders extracts the user agent and client IP from
// request headers. The IP is the first value of x-forwarded-for, else
// x-real-ip, else cf-connecting-ip.
func RequestInfoFromHeaders(h http.Header) RequestInfo {
	info := RequestInfo{UserAgent: h.Get("User-Agent")}

	forwarded := h.Get("X-Forwarded-For")
	if forwarded == "" {
		forwarded = h.Get("X-Real-Ip")
	}
	if forwarded == "" {
		forwarded = h.Get("Cf-Connecting-Ip")
	}
	if forwarded != "" {
		info.ClientIP = strings.TrimSpace(strings.Split(forwarded, ",")[0])
	}

	return info
}

// Notifier receives the fan-out hook for conversion events.
type Notifier interface {
	NewsletterSubscribed(ctx context.Context, event model.AnalyticsEvent)
}

// Collector sanitizes, enriches, and timestamps inbound events before
// handing them to the Store.
type Collector struct {
	store    *Store
	geo      *geoip.Lookup // optional
	notifier Notifier      // optional
	logger   *slog.Logger
	now      func() time.Time
}

// CollectorOptions configures a Collector.
type CollectorOptions struct {
	Store    *Store
	Geo      *geoip.Lookup
	Notifier Notifier
	Logger   *slog.Logger

	// Now overrides the server clock, for tests.
	Now func() time.Time
}

// NewCollector creates a Collector.
func NewCollector(opts CollectorOptions) *Collector {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	now := opts.Now
	if now == nil {
		now = time.Now
	}
	return &Collector{
		store:    opts.Store,
		geo:      opts.Geo,
		notifier: opts.Notifier,
		logger:   logger,
		now:      now,
	}
}

// Collect sanitizes and stores one event, returning the stored form.
// After sanitization every event has a non-empty name of at most 80
// characters and a valid CreatedAt.
func (c *Collector) Collect(ctx context.Context, input EventInput, info RequestInfo) model.AnalyticsEvent {
	eventName := strings.TrimSpace(input.Event)
	if eventName == "" {
		eventName = model.DefaultEventName
	}

	device := strings.ToLower(strings.TrimSpace(input.Device))
	if !model.ValidDevice(device) {
		device = InferDevice(info.UserAgent)
	}

	source := input.Source
	if source == "" {
		source = model.DefaultEventSource
	}

	event := model.AnalyticsEvent{
		EventName: truncate(eventName, model.MaxEventNameLen),
		Category:  input.Category,
		Action:    input.Action,
		Label:     input.Label,
		Value:     input.Value,
		PagePath:  truncate(input.PagePath, model.MaxPagePathLen),
		PageTitle: truncate(input.PageTitle, model.MaxPageTitleLen),
		SessionID: truncate(input.SessionID, model.MaxSessionIDLen),
		VisitorID: truncate(input.VisitorID, model.MaxVisitorIDLen),
		Referrer:  truncate(input.Referrer, model.MaxReferrerLen),
		Locale:    canonicalLocale(truncate(input.Locale, model.MaxLocaleLen)),
		Timezone:  truncate(input.Timezone, model.MaxTimezoneLen),
		Screen:    truncate(input.Screen, model.MaxScreenLen),
		Device:    device,
		URL:       input.URL,
		Source:    source,
		Metadata:  c.enrichMetadata(input.Metadata, info),
		CreatedAt: c.resolveTimestamp(input.Timestamp),
	}

	stored := c.store.Append(ctx, event)

	if c.notifier != nil && stored.EventName == model.EventNewsletterSubscribe {
		c.notifier.NewsletterSubscribed(ctx, stored)
	}

	return stored
}

// enrichMetadata copies the client metadata bag and injects server-side
// facts: client IP, raw user agent, parsed browser/OS, and, when a GeoIP
// database is configured, the caller's country code.
func (c *Collector) enrichMetadata(in map[string]any, info RequestInfo) map[string]any {
	meta := make(map[string]any, len(in)+4)
	for k, v := range in {
		meta[k] = v
	}

	if info.ClientIP != "" {
		meta["ip"] = info.ClientIP
	}
	if info.UserAgent != "" {
		meta["user_agent"] = info.UserAgent
		parsed := parseUserAgent(info.UserAgent)
		meta["browser"] = parsed.Browser
		meta["os"] = parsed.OS
		if parsed.Bot {
			meta["bot"] = true
		}
	}
	if c.geo != nil && info.ClientIP != "" {
		if country := c.geo.LookupCountry(info.ClientIP); country != "" {
			meta["country"] = country
		}
	}

	if len(meta) == 0 {
		return nil
	}
	return meta
}

// resolveTimestamp turns an optional client timestamp into CreatedAt.
// Epoch milliseconds and parseable date strings are accepted as-is;
// anything else falls back to the server clock.
func (c *Collector) resolveTimestamp(v any) time.Time {
	switch t := v.(type) {
	case float64:
		if t > 0 {
			return time.UnixMilli(int64(t)).UTC()
		}
	case string:
		if parsed, ok := parseClientTime(t); ok {
			return parsed
		}
	}
	return c.now().UTC()
}

// parseClientTime tries the date formats client instrumentation is known
// to send: RFC3339 (with or without fractional seconds), a bare date, and
// a numeric epoch-milliseconds string.
func parseClientTime(s string) (time.Time, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, false
	}

	for _, layout := range []string{time.RFC3339Nano, time.RFC3339, "2006-01-02"} {
		if t, err := time.Parse(layout, s); err == nil {
			return t.UTC(), true
		}
	}

	if millis, err := strconv.ParseInt(s, 10, 64); err == nil && millis > 0 {
		return time.UnixMilli(millis).UTC(), true
	}

	return time.Time{}, false
}

// canonicalLocale normalizes a BCP 47 language tag ("en_us" → "en-US").
// Unparseable values are kept as sent.
func canonicalLocale(locale string) string {
	if locale == "" {
		return ""
	}
	tag, err := language.Parse(locale)
	if err != nil {
		return locale
	}
	return tag.String()
}

// truncate caps a string at max characters, never splitting a rune.
func truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	runes := []rune(s)
	if len(runes) <= max {
		return s
	}
	return string(runes[:max])
}
