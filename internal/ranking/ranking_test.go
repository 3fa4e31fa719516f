// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package ranking

import (
	"math"
	"testing"

	"github.com/Ibedes/ibedes/internal/model"
)

func floatPtr(v float64) *float64 { return &v }

func products(ids ...string) []model.AffiliateProduct {
	out := make([]model.AffiliateProduct, 0, len(ids))
	for _, id := range ids {
		out = append(out, model.AffiliateProduct{ID: id, Name: "Product " + id})
	}
	return out
}

func TestRank_ClickWeightOnly(t *testing.T) {
	// With clickWeight=1 and everything else zeroed, the most-clicked
	// product always ranks first.
	opts := Options{
		ClickWeight:   floatPtr(1),
		RecencyWeight: floatPtr(0),
		VerifiedBoost: floatPtr(0),
	}

	list := products("a", "b", "c")
	list[0].Verified = true // must not matter with boost 0

	ranked := Rank(list, map[string]int{"b": 10, "c": 3}, opts)

	if ranked[0].ID != "b" {
		t.Errorf("ranked[0] = %q, want most-clicked b", ranked[0].ID)
	}
	if ranked[0].Score != 1 {
		t.Errorf("max-clicked score = %f, want 1", ranked[0].Score)
	}
	if ranked[1].ID != "c" {
		t.Errorf("ranked[1] = %q, want c", ranked[1].ID)
	}
}

func TestRank_RecencyWeightOnly(t *testing.T) {
	// Input is insertion order, oldest first; with recency only, the
	// newest (last) product ranks first.
	opts := Options{
		ClickWeight:   floatPtr(0),
		RecencyWeight: floatPtr(1),
		VerifiedBoost: floatPtr(0),
	}

	ranked := Rank(products("oldest", "middle", "newest"), nil, opts)

	if ranked[0].ID != "newest" {
		t.Errorf("ranked[0] = %q, want newest", ranked[0].ID)
	}
	if ranked[2].ID != "oldest" {
		t.Errorf("ranked[2] = %q, want oldest", ranked[2].ID)
	}
	if ranked[0].Score != 1 {
		t.Errorf("newest recency score = %f, want 1 ((n)/n)", ranked[0].Score)
	}
	if want := 1.0 / 3.0; math.Abs(ranked[2].Score-want) > 1e-9 {
		t.Errorf("oldest recency score = %f, want %f", ranked[2].Score, want)
	}
}

func TestRank_VerifiedBoost(t *testing.T) {
	opts := Options{
		ClickWeight:   floatPtr(0),
		RecencyWeight: floatPtr(0),
		VerifiedBoost: floatPtr(0.5),
	}

	list := products("plain", "curated")
	list[1].Verified = true

	ranked := Rank(list, nil, opts)

	if ranked[0].ID != "curated" {
		t.Errorf("ranked[0] = %q, want verified product", ranked[0].ID)
	}
	if ranked[0].Score != 0.5 {
		t.Errorf("verified score = %f, want boost 0.5", ranked[0].Score)
	}
	if ranked[1].Score != 0 {
		t.Errorf("plain score = %f, want 0", ranked[1].Score)
	}
}

func TestRank_DefaultBlend(t *testing.T) {
	// A: never clicked, verified, oldest. B: most clicked, unverified, newest.
	list := products("a", "b")
	list[0].Verified = true

	ranked := Rank(list, map[string]int{"b": 5}, Options{})

	// B: 0.55·1 + 0.35·1 = 0.90; A: 0.35·0.5 + 0.10 = 0.275.
	if ranked[0].ID != "b" {
		t.Errorf("ranked[0] = %q, want b under default weights", ranked[0].ID)
	}
	if math.Abs(ranked[0].Score-0.90) > 1e-9 {
		t.Errorf("b score = %f, want 0.90", ranked[0].Score)
	}
	if math.Abs(ranked[1].Score-0.275) > 1e-9 {
		t.Errorf("a score = %f, want 0.275", ranked[1].Score)
	}
}

func TestRank_NoClicksAtAll(t *testing.T) {
	ranked := Rank(products("a", "b"), nil, Options{})

	// clickScore is 0 for everyone; only recency differentiates.
	for _, r := range ranked {
		if r.Clicks != 0 {
			t.Errorf("product %q clicks = %d, want 0", r.ID, r.Clicks)
		}
	}
	if ranked[0].ID != "b" {
		t.Errorf("ranked[0] = %q, want newest when clicks are absent", ranked[0].ID)
	}
}

func TestRank_StableTies(t *testing.T) {
	opts := Options{
		ClickWeight:   floatPtr(0),
		RecencyWeight: floatPtr(0),
		VerifiedBoost: floatPtr(0),
	}

	// All scores are 0: the stable sort keeps input order.
	ranked := Rank(products("first", "second", "third"), nil, opts)

	for i, want := range []string{"first", "second", "third"} {
		if ranked[i].ID != want {
			t.Errorf("ranked[%d] = %q, want %q (ties keep input order)", i, ranked[i].ID, want)
		}
	}
}

func TestRank_Limit(t *testing.T) {
	ranked := Rank(products("a", "b", "c", "d"), nil, Options{Limit: 2})
	if len(ranked) != 2 {
		t.Errorf("len = %d, want limit 2", len(ranked))
	}
}

func TestRank_Empty(t *testing.T) {
	ranked := Rank(nil, nil, Options{})
	if len(ranked) != 0 {
		t.Errorf("expected empty result for empty input")
	}
}

func TestOptions_Defaults(t *testing.T) {
	var opts Options

	clickWeight, recencyWeight, verifiedBoost := opts.Weights()
	if clickWeight != DefaultClickWeight || recencyWeight != DefaultRecencyWeight || verifiedBoost != DefaultVerifiedBoost {
		t.Errorf("Weights() = %f/%f/%f, want defaults", clickWeight, recencyWeight, verifiedBoost)
	}
	if opts.WindowDays() != DefaultDays {
		t.Errorf("WindowDays() = %d, want %d", opts.WindowDays(), DefaultDays)
	}

	// Explicit zero weights are honored, not replaced by defaults.
	zero := Options{ClickWeight: floatPtr(0)}
	clickWeight, _, _ = zero.Weights()
	if clickWeight != 0 {
		t.Errorf("explicit zero clickWeight = %f, want 0", clickWeight)
	}
}
