// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package analytics

import (
	"testing"
	"time"

	"github.com/Ibedes/ibedes/internal/model"
)

var sessionBase = time.Date(2026, 8, 15, 10, 0, 0, 0, time.UTC)

func sessionEvent(name, sessionID, visitorID string, at time.Time) model.AnalyticsEvent {
	return model.AnalyticsEvent{
		EventName: name,
		SessionID: sessionID,
		VisitorID: visitorID,
		CreatedAt: at,
	}
}

func TestGroupSessions_SameSessionNeverSplits(t *testing.T) {
	events := []model.AnalyticsEvent{
		sessionEvent("page_view", "s1", "v1", sessionBase),
		sessionEvent("page_view", "s1", "v2", sessionBase.Add(time.Minute)),
		sessionEvent("engagement", "s1", "", sessionBase.Add(2*time.Minute)),
	}

	sessions := GroupSessions(events)
	if len(sessions) != 1 {
		t.Fatalf("events sharing a sessionId split into %d sessions", len(sessions))
	}
	if got := len(sessions["s1"].Events); got != 3 {
		t.Errorf("session has %d events, want 3", got)
	}
}

func TestGroupSessions_VisitorFallback(t *testing.T) {
	events := []model.AnalyticsEvent{
		sessionEvent("page_view", "", "v1", sessionBase),
		sessionEvent("page_view", "", "v1", sessionBase.Add(time.Minute)),
	}

	sessions := GroupSessions(events)
	if len(sessions) != 1 {
		t.Fatalf("events sharing a visitorId split into %d sessions", len(sessions))
	}
}

func TestGroupSessions_AnonymousSingletons(t *testing.T) {
	events := []model.AnalyticsEvent{
		sessionEvent("page_view", "", "", sessionBase),
		sessionEvent("page_view", "", "", sessionBase.Add(time.Second)),
		sessionEvent("page_view", "", "", sessionBase.Add(2*time.Second)),
	}

	sessions := GroupSessions(events)
	if len(sessions) != 3 {
		t.Fatalf("anonymous events should each form a singleton session, got %d", len(sessions))
	}
	for _, s := range sessions {
		if len(s.Events) != 1 {
			t.Errorf("singleton session has %d events", len(s.Events))
		}
		if s.DurationSeconds() != 0 {
			t.Errorf("singleton session duration = %f, want 0", s.DurationSeconds())
		}
		if s.Engaged() {
			t.Error("singleton session should not count as engaged")
		}
	}
}

func TestGroupSessions_ConversionCounting(t *testing.T) {
	events := []model.AnalyticsEvent{
		sessionEvent("page_view", "s1", "", sessionBase),
		sessionEvent("affiliate_click", "s1", "", sessionBase.Add(time.Minute)),
		sessionEvent("newsletter_subscribe", "s1", "", sessionBase.Add(2*time.Minute)),
		sessionEvent("engagement", "s1", "", sessionBase.Add(3*time.Minute)),
	}

	sessions := GroupSessions(events)
	s := sessions["s1"]
	if s.Conversions != 2 {
		t.Errorf("Conversions = %d, want 2 (affiliate_click + newsletter_subscribe)", s.Conversions)
	}
	if !s.Converted() {
		t.Error("session with conversions should report Converted")
	}
}

// A session with events at t=0s and t=45s and one affiliate_click yields
// durationSeconds=45, engaged=true, converted=true.
func TestSessions_FortyFiveSecondConversion(t *testing.T) {
	events := []model.AnalyticsEvent{
		sessionEvent("page_view", "s1", "", sessionBase),
		sessionEvent("affiliate_click", "s1", "", sessionBase.Add(45*time.Second)),
	}

	sessions := GroupSessions(events)
	s := sessions["s1"]

	if got := s.DurationSeconds(); got != 45 {
		t.Errorf("DurationSeconds = %f, want 45", got)
	}
	if !s.Engaged() {
		t.Error("expected engaged=true")
	}
	if !s.Converted() {
		t.Error("expected converted=true")
	}
}

func TestSummarizeSessions_Empty(t *testing.T) {
	summary := SummarizeSessions(nil)

	// TotalSessions is floored at 1 so rate divisions stay safe.
	if summary.TotalSessions != 1 {
		t.Errorf("TotalSessions = %d, want 1", summary.TotalSessions)
	}
	if summary.AverageDuration != 0 || summary.EngagementRate != 0 || summary.ConversionRate != 0 {
		t.Errorf("empty batch should produce zero rates, got %+v", summary)
	}
}

func TestSummarizeSessions_Rates(t *testing.T) {
	events := []model.AnalyticsEvent{
		// Session 1: engaged, converted, 60s.
		sessionEvent("page_view", "s1", "", sessionBase),
		sessionEvent("affiliate_click", "s1", "", sessionBase.Add(time.Minute)),
		// Session 2: engaged, not converted, 30s.
		sessionEvent("page_view", "s2", "", sessionBase),
		sessionEvent("page_view", "s2", "", sessionBase.Add(30*time.Second)),
		// Session 3: singleton bounce.
		sessionEvent("page_view", "s3", "", sessionBase),
		// Session 4: singleton bounce.
		sessionEvent("page_view", "s4", "", sessionBase),
	}

	summary := SummarizeSessions(events)

	if summary.TotalSessions != 4 {
		t.Fatalf("TotalSessions = %d, want 4", summary.TotalSessions)
	}
	if summary.EngagementRate != 50 {
		t.Errorf("EngagementRate = %f, want 50", summary.EngagementRate)
	}
	if summary.ConversionRate != 25 {
		t.Errorf("ConversionRate = %f, want 25", summary.ConversionRate)
	}
	if want := (60.0 + 30.0) / 4.0; summary.AverageDuration != want {
		t.Errorf("AverageDuration = %f, want %f", summary.AverageDuration, want)
	}
}

// Out-of-order delivery must not produce negative durations.
func TestSessions_OutOfOrderEvents(t *testing.T) {
	events := []model.AnalyticsEvent{
		sessionEvent("page_view", "s1", "", sessionBase.Add(time.Minute)),
		sessionEvent("page_view", "s1", "", sessionBase),
	}

	sessions := GroupSessions(events)
	s := sessions["s1"]
	if got := s.DurationSeconds(); got != 60 {
		t.Errorf("DurationSeconds = %f, want 60 regardless of arrival order", got)
	}
}
