// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package model

import "time"

// Device categories. Every ingested event carries exactly one of these.
const (
	DeviceMobile  = "mobile"
	DeviceDesktop = "desktop"
	DeviceTablet  = "tablet"
	DeviceOther   = "other"
)

// Well-known event names used by the aggregators.
const (
	EventPageView            = "page_view"
	EventAffiliateClick      = "affiliate_click"
	EventNewsletterSubscribe = "newsletter_subscribe"
	EventEngagement          = "engagement"
	EventError               = "error"
)

// Field length caps applied at ingestion. Anything longer is truncated,
// never rejected.
const (
	MaxEventNameLen = 80
	MaxSessionIDLen = 64
	MaxVisitorIDLen = 64
	MaxPagePathLen  = 255
	MaxPageTitleLen = 255
	MaxReferrerLen  = 255
	MaxLocaleLen    = 32
	MaxTimezoneLen  = 64
	MaxScreenLen    = 32
)

// DefaultEventName is used when a payload arrives without an event name.
const DefaultEventName = "custom_event"

// DefaultEventSource is the provenance tag for events that don't declare one.
const DefaultEventSource = "web"

// AnalyticsEvent is one recorded client action. Events are immutable once
// stored: created at ingestion, read many times, pruned only by the retention
// job or the fallback ring's bounded eviction.
type AnalyticsEvent struct {
	ID        int64          `json:"id,omitempty"`
	EventName string         `json:"event"`
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
	CreatedAt time.Time      `json:"created_at"`
}

// conversionEvents is the fixed set of event names counted toward
// conversion-rate metrics.
var conversionEvents = map[string]struct{}{
	EventAffiliateClick:      {},
	EventNewsletterSubscribe: {},
}

// IsConversionEvent reports whether the event name counts as a conversion.
func IsConversionEvent(name string) bool {
	_, ok := conversionEvents[name]
	return ok
}

// ValidDevice reports whether the value is one of the four device categories.
func ValidDevice(device string) bool {
	switch device {
	case DeviceMobile, DeviceDesktop, DeviceTablet, DeviceOther:
		return true
	}
	return false
}
