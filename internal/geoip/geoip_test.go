// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package geoip

import (
	"path/filepath"
	"testing"
)

func TestIsEnabled(t *testing.T) {
	g := NewLookup()
	if g.IsEnabled() {
		t.Error("new lookup should start disabled")
	}

	if err := g.Init(""); err != nil {
		t.Fatalf("Init with empty path should degrade gracefully: %v", err)
	}
	if g.IsEnabled() {
		t.Error("empty path must leave lookups disabled")
	}

	if err := g.Init(filepath.Join(t.TempDir(), "missing.mmdb")); err == nil {
		t.Fatal("expected error for missing database file")
	}
	if g.IsEnabled() {
		t.Error("failed init must leave lookups disabled")
	}
}

func TestLookupCountry_WithoutDatabase(t *testing.T) {
	g := NewLookup()

	// Not initialized: always empty.
	if got := g.LookupCountry("192.168.1.10"); got != "" {
		t.Errorf("uninitialized lookup = %q, want empty", got)
	}

	if err := g.Init(""); err != nil {
		t.Fatalf("Init: %v", err)
	}

	testCases := []struct {
		ip       string
		expected string
	}{
		{"192.168.1.10", "LOCAL"},
		{"10.0.0.5", "LOCAL"},
		{"127.0.0.1", "LOCAL"},
		{"not-an-ip", ""},
		{"", ""},
		{"8.8.8.8", ""}, // public, but no database loaded
	}
	for _, tc := range testCases {
		if got := g.LookupCountry(tc.ip); got != tc.expected {
			t.Errorf("LookupCountry(%q) = %q, want %q", tc.ip, got, tc.expected)
		}
	}
}
