// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package model

import "time"

// Marketplace platforms an affiliate product can link to.
const (
	PlatformShopee    = "shopee"
	PlatformTokopedia = "tokopedia"
	PlatformLazada    = "lazada"
	PlatformBlibli    = "blibli"
	PlatformTikTok    = "tiktok"
	PlatformAmazon    = "amazon"
	PlatformOther     = "other"
)

// Platforms lists all known marketplace platforms.
var Platforms = []string{
	PlatformShopee,
	PlatformTokopedia,
	PlatformLazada,
	PlatformBlibli,
	PlatformTikTok,
	PlatformAmazon,
	PlatformOther,
}

// ValidPlatform reports whether the value is a known marketplace platform.
func ValidPlatform(platform string) bool {
	for _, p := range Platforms {
		if p == platform {
			return true
		}
	}
	return false
}

// AffiliateProduct is a curated marketplace product. Clicks and Score are
// derived at query time by the ranking engine and never persisted.
type AffiliateProduct struct {
	ID            string    `json:"id"`
	Name          string    `json:"name"`
	Description   string    `json:"description"`
	Price         string    `json:"price,omitempty"`
	OriginalPrice string    `json:"original_price,omitempty"`
	Discount      string    `json:"discount,omitempty"`
	Image         string    `json:"image"`
	Link          string    `json:"link"`
	Platform      string    `json:"platform"`
	Category      string    `json:"category"`
	Tags          []string  `json:"tags"`
	Rating        *float64  `json:"rating,omitempty"`
	Verified      bool      `json:"verified"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
}
