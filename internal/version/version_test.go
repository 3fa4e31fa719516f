// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package version

import "testing"

func TestString(t *testing.T) {
	tests := []struct {
		name string
		info Info
		want string
	}{
		{
			name: "full build info",
			info: Info{Version: "v1.2.3", GitCommit: "abc1234", BuildTime: "2026-01-30T12:00:00Z"},
			want: "v1.2.3 (commit: abc1234, built: 2026-01-30T12:00:00Z)",
		},
		{
			name: "zero value before ldflags injection",
			info: Info{},
			want: "dev",
		},
		{
			name: "version only",
			info: Info{Version: "v0.9.0"},
			want: "v0.9.0",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.info.String(); got != tt.want {
				t.Errorf("String() = %q, want %q", got, tt.want)
			}
		})
	}
}
