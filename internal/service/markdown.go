// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

// Package service provides business logic services.
package service

import (
	"bytes"
	"fmt"

	"github.com/microcosm-cc/bluemonday"
	"github.com/yuin/goldmark"
)

// htmlSanitizer provides a reusable HTML sanitization policy for rendered
// article bodies. It uses bluemonday's UGCPolicy which allows safe HTML tags
// for user-generated content while stripping potentially dangerous elements
// like <script>, event handlers, etc.
var htmlSanitizer = bluemonday.UGCPolicy()

// RenderMarkdown converts Markdown source to sanitized HTML.
func RenderMarkdown(source string) (string, error) {
	var buf bytes.Buffer
	if err := goldmark.Convert([]byte(source), &buf); err != nil {
		return "", fmt.Errorf("rendering markdown: %w", err)
	}
	return htmlSanitizer.Sanitize(buf.String()), nil
}
