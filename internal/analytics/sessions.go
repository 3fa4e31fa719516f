// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package analytics

import (
	"time"

	"github.com/Ibedes/ibedes/internal/model"
)

// Session is a derived grouping of events sharing an identity key.
// Sessions are recomputed per query and never persisted.
type Session struct {
	Key         string
	Events      []model.AnalyticsEvent
	FirstSeen   time.Time
	LastSeen    time.Time
	Conversions int
}

// DurationSeconds is the span between the first and last member event.
func (s *Session) DurationSeconds() float64 {
	d := s.LastSeen.Sub(s.FirstSeen)
	if d < 0 {
		return 0
	}
	return d.Seconds()
}

// Engaged reports whether the session has more than one member event.
func (s *Session) Engaged() bool {
	return len(s.Events) > 1
}

// Converted reports whether the session contains a conversion event.
func (s *Session) Converted() bool {
	return s.Conversions > 0
}

// SessionSummary aggregates statistics over a batch of sessions.
type SessionSummary struct {
	TotalSessions   int     `json:"totalSessions"`
	AverageDuration float64 `json:"averageDuration"`
	EngagementRate  float64 `json:"engagementRate"`
	ConversionRate  float64 `json:"conversionRate"`
}

// sessionKey resolves the grouping key for an event: sessionId, falling
// back to visitorId, falling back to the event's own timestamp. Events
// with neither identifier become singleton sessions — a coarse but
// explicit policy.
func sessionKey(e model.AnalyticsEvent) string {
	if e.SessionID != "" {
		return e.SessionID
	}
	if e.VisitorID != "" {
		return e.VisitorID
	}
	return e.CreatedAt.Format(time.RFC3339Nano)
}

// GroupSessions reconstructs sessions from a batch of events in a single
// pass. The caller is expected to have time-windowed the batch already.
func GroupSessions(events []model.AnalyticsEvent) map[string]*Session {
	sessions := make(map[string]*Session)

	for _, event := range events {
		key := sessionKey(event)
		s, ok := sessions[key]
		if !ok {
			s = &Session{
				Key:       key,
				FirstSeen: event.CreatedAt,
				LastSeen:  event.CreatedAt,
			}
			sessions[key] = s
		}

		s.Events = append(s.Events, event)
		if event.CreatedAt.Before(s.FirstSeen) {
			s.FirstSeen = event.CreatedAt
		}
		if event.CreatedAt.After(s.LastSeen) {
			s.LastSeen = event.CreatedAt
		}
		if model.IsConversionEvent(event.EventName) {
			s.Conversions++
		}
	}

	return sessions
}

// SummarizeSessions reduces a batch of events to session-level rates.
// TotalSessions is floored at 1 so downstream rate divisions are safe.
func SummarizeSessions(events []model.AnalyticsEvent) SessionSummary {
	sessions := GroupSessions(events)

	totalSessions := len(sessions)
	if totalSessions == 0 {
		totalSessions = 1
	}

	var totalDuration float64
	var engaged, converted int

	for _, s := range sessions {
		totalDuration += s.DurationSeconds()
		if s.Engaged() {
			engaged++
		}
		if s.Converted() {
			converted++
		}
	}

	return SessionSummary{
		TotalSessions:   totalSessions,
		AverageDuration: totalDuration / float64(totalSessions),
		EngagementRate:  float64(engaged) / float64(totalSessions) * 100,
		ConversionRate:  float64(converted) / float64(totalSessions) * 100,
	}
}
