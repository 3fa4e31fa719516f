// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

// Package util provides general-purpose utility functions.
package util

import "database/sql"

// NullFloat64FromPtr converts a pointer to float64 into sql.NullFloat64.
// Returns a valid NullFloat64 if the pointer is non-nil, otherwise returns an invalid one.
func NullFloat64FromPtr(ptr *float64) sql.NullFloat64 {
	if ptr != nil {
		return sql.NullFloat64{Float64: *ptr, Valid: true}
	}
	return sql.NullFloat64{}
}

// Float64PtrFromNull converts a sql.NullFloat64 into a pointer to float64.
// Returns nil when the value is invalid.
func Float64PtrFromNull(v sql.NullFloat64) *float64 {
	if !v.Valid {
		return nil
	}
	f := v.Float64
	return &f
}
