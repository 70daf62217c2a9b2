// Copyright (c) 2026 ShieldHQ
// SPDX-License-Identifier: GPL-3.0-or-later

// Package scheduler runs the console's periodic maintenance jobs.
package scheduler

import (
	"context"
	"log/slog"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/shieldhq/shield-admin/internal/model"
	"github.com/shieldhq/shield-admin/internal/store"
)

// Scheduler handles scheduled maintenance like audit log retention.
type Scheduler struct {
	records       *store.Store
	cron          *cron.Cron
	logger        *slog.Logger
	retentionDays int
}

// New creates a new scheduler instance. retentionDays bounds how long
// audit events are kept.
func New(records *store.Store, logger *slog.Logger, retentionDays int) *Scheduler {
	return &Scheduler{
		records:       records,
		cron:          cron.New(),
		logger:        logger,
		retentionDays: retentionDays,
	}
}

// Start begins the scheduler with the retention job running hourly. The
// job also runs once at startup so a long-stopped instance catches up
// immediately.
func (s *Scheduler) Start() error {
	_, err := s.cron.AddFunc("0 * * * *", func() {
		if err := s.purgeExpiredEvents(); err != nil {
			s.logger.Error("failed to purge expired audit events", "error", err)
		}
	})
	if err != nil {
		return err
	}

	s.cron.Start()
	s.logger.Info("scheduler started", "jobs", len(s.cron.Entries()), "retention_days", s.retentionDays)

	go func() {
		if err := s.purgeExpiredEvents(); err != nil {
			s.logger.Error("failed to purge expired audit events", "error", err)
		}
	}()

	return nil
}

// Stop gracefully stops the scheduler, waiting for a running job.
func (s *Scheduler) Stop() {
	ctx := s.cron.Stop()
	<-ctx.Done()
	s.logger.Info("scheduler stopped")
}

// purgeExpiredEvents deletes audit events older than the retention window.
func (s *Scheduler) purgeExpiredEvents() error {
	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	cutoff := time.Now().UTC().AddDate(0, 0, -s.retentionDays)
	n, err := s.records.PurgeOlderThan(ctx, model.CollectionEvents, cutoff)
	if err != nil {
		return err
	}

	if n > 0 {
		s.logger.Info("purged expired audit events", "count", n, "cutoff", cutoff.Format(time.RFC3339))
	}
	return nil
}
