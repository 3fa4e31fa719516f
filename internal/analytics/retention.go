// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package analytics

import (
	"context"
	"log/slog"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/Ibedes/ibedes/internal/model"
	"github.com/Ibedes/ibedes/internal/store"
)

// DefaultRetentionDays is how long raw events are kept by default.
const DefaultRetentionDays = 365

// Retention prunes analytics events older than the retention window.
// This is the external retention policy the pipeline itself relies on:
// events are never deleted by ingestion or the aggregators.
type Retention struct {
	queries *store.Queries
	days    int
	logger  *slog.Logger
	cron    *cron.Cron
}

// NewRetention creates a retention job. A non-positive days value falls
// back to DefaultRetentionDays.
func NewRetention(queries *store.Queries, days int, logger *slog.Logger) *Retention {
	if days <= 0 {
		days = DefaultRetentionDays
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Retention{queries: queries, days: days, logger: logger}
}

// Start schedules the daily prune at 00:30.
func (r *Retention) Start() {
	r.cron = cron.New()

	_, _ = r.cron.AddFunc("30 0 * * *", func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
		defer cancel()
		if _, err := r.RunOnce(ctx); err != nil {
			r.logger.Error("event retention prune failed",
				"category", model.LogCategoryAnalytics,
				"error", err)
		}
	})

	r.cron.Start()
	r.logger.Debug("event retention job started", "days", r.days)
}

// Stop halts the scheduled job.
func (r *Retention) Stop() {
	if r.cron != nil {
		r.cron.Stop()
	}
}

// RunOnce prunes events older than the retention window and returns the
// number of deleted rows. Also called from the admin API for a manual run.
func (r *Retention) RunOnce(ctx context.Context) (int64, error) {
	cutoff := time.Now().UTC().AddDate(0, 0, -r.days)

	deleted, err := r.queries.DeleteEventsBefore(ctx, cutoff)
	if err != nil {
		return 0, err
	}

	if deleted > 0 {
		r.logger.Info("pruned analytics events",
			"category", model.LogCategoryAnalytics,
			"deleted", deleted,
			"cutoff", cutoff.Format("2006-01-02"))
	}
	return deleted, nil
}
