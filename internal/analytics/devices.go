// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package analytics

import (
	"strings"

	"github.com/mileusna/useragent"

	"github.com/Ibedes/ibedes/internal/model"
)

// deviceRule maps a user-agent substring to a device category.
// Rules are evaluated in order; the first match wins.
type deviceRule struct {
	pattern  string
	category string
}

var deviceRules = []deviceRule{
	{"ipad", model.DeviceTablet},
	{"tablet", model.DeviceTablet},
	{"mobile", model.DeviceMobile},
	{"iphone", model.DeviceMobile},
	{"android", model.DeviceMobile},
}

// InferDevice classifies a user-agent string into one of the four device
// categories. Total: every input, including empty, maps to exactly one
// category. Empty or unmatched user agents are desktop.
func InferDevice(userAgent string) string {
	value := strings.ToLower(userAgent)
	if value == "" {
		return model.DeviceDesktop
	}
	for _, rule := range deviceRules {
		if strings.Contains(value, rule.pattern) {
			return rule.category
		}
	}
	return model.DeviceDesktop
}

// ParsedUA holds the richer user-agent facts attached to event metadata.
type ParsedUA struct {
	Browser string
	OS      string
	Bot     bool
}

// parseUserAgent extracts browser and OS names from a user agent string.
func parseUserAgent(uaString string) ParsedUA {
	ua := useragent.Parse(uaString)

	result := ParsedUA{
		Browser: ua.Name,
		OS:      ua.OS,
		Bot:     ua.Bot,
	}

	if result.Browser == "" {
		result.Browser = "Unknown"
	}
	if result.OS == "" {
		result.OS = "Unknown"
	}

	return result
}
