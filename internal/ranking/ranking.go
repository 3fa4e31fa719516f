// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

// Package ranking orders affiliate products for display by blending
// click volume, recency, and the curator-set verified flag into a single
// relevance score.
package ranking

import (
	"sort"

	"github.com/Ibedes/ibedes/internal/model"
)

// Default blend weights. They need not sum to 1; the verified boost is
// additive headroom on top of the weighted signals.
const (
	DefaultDays          = 30
	DefaultClickWeight   = 0.55
	DefaultRecencyWeight = 0.35
	DefaultVerifiedBoost = 0.10
)

// Options configures a ranking pass. Zero values take the defaults;
// Limit 0 means no truncation.
type Options struct {
	Days          int
	Limit         int
	ClickWeight   *float64
	RecencyWeight *float64
	VerifiedBoost *float64
}

// Weights resolves the configured or default blend weights.
func (o Options) Weights() (clickWeight, recencyWeight, verifiedBoost float64) {
	clickWeight = DefaultClickWeight
	recencyWeight = DefaultRecencyWeight
	verifiedBoost = DefaultVerifiedBoost
	if o.ClickWeight != nil {
		clickWeight = *o.ClickWeight
	}
	if o.RecencyWeight != nil {
		recencyWeight = *o.RecencyWeight
	}
	if o.VerifiedBoost != nil {
		verifiedBoost = *o.VerifiedBoost
	}
	return clickWeight, recencyWeight, verifiedBoost
}

// WindowDays resolves the click-aggregation window.
func (o Options) WindowDays() int {
	if o.Days <= 0 {
		return DefaultDays
	}
	return o.Days
}

// RankedProduct is a product annotated with its query-time click count
// and relevance score. Both are recomputed per request, never persisted.
type RankedProduct struct {
	model.AffiliateProduct
	Clicks int     `json:"clicks"`
	Score  float64 `json:"score"`
}

// Rank scores and sorts products.
//
// products must be in insertion order, oldest first — the canonical
// product-store listing order. A product's position doubles as its
// recency signal: recencyScore = (idx+1)/n, so the newest product (last
// in the list) scores highest.
//
// clickScore is the product's click count normalized by the maximum
// click count in the map; 0 for every product when nothing was clicked.
//
// The sort is stable: products with equal scores keep their input order.
func Rank(products []model.AffiliateProduct, clicks map[string]int, opts Options) []RankedProduct {
	clickWeight, recencyWeight, verifiedBoost := opts.Weights()

	maxClicks := 0
	for _, n := range clicks {
		if n > maxClicks {
			maxClicks = n
		}
	}

	total := len(products)
	if total == 0 {
		return []RankedProduct{}
	}

	ranked := make([]RankedProduct, 0, total)
	for idx, product := range products {
		productClicks := clicks[product.ID]

		clickScore := 0.0
		if maxClicks > 0 {
			clickScore = float64(productClicks) / float64(maxClicks)
		}
		recencyScore := float64(idx+1) / float64(total)

		score := clickWeight*clickScore + recencyWeight*recencyScore
		if product.Verified {
			score += verifiedBoost
		}

		ranked = append(ranked, RankedProduct{
			AffiliateProduct: product,
			Clicks:           productClicks,
			Score:            score,
		})
	}

	sort.SliceStable(ranked, func(i, j int) bool {
		return ranked[i].Score > ranked[j].Score
	})

	if opts.Limit > 0 && len(ranked) > opts.Limit {
		ranked = ranked[:opts.Limit]
	}
	return ranked
}
