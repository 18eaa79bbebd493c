// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at https://mozilla.org/MPL/2.0/.

// Package scheduler drives full sync runs on a fixed interval. Results
// are logged only; there is no caller to report to.
package scheduler

import (
	"context"
	"time"

	"pdbmirror/internal/syncer"

	"go.uber.org/zap"
)

type Scheduler struct {
	syncer   *syncer.Syncer
	interval time.Duration
}

func New(s *syncer.Syncer, interval time.Duration) *Scheduler {
	return &Scheduler{syncer: s, interval: interval}
}

// Run blocks until ctx is done, triggering a full sync immediately and
// then every interval. Runs are serial; a run outlasting the interval
// delays the next tick.
func (s *Scheduler) Run(ctx context.Context) {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	zap.L().Info("scheduler started", zap.Duration("interval", s.interval))

	// A fresh deploy should start serving data now, not an interval later.
	s.runOnce(ctx)

	for {
		select {
		case <-ctx.Done():
			zap.L().Info("scheduler stopped")
			return
		case <-ticker.C:
			s.runOnce(ctx)
		}
	}
}

func (s *Scheduler) runOnce(ctx context.Context) {
	result := s.syncer.Run(ctx, "")

	failed := 0
	for _, report := range result.Synced {
		if report.Error != "" {
			failed++
		}
	}
	zap.L().Info("scheduled sync finished",
		zap.String("run_id", result.RunID),
		zap.Int("resources", len(result.Synced)),
		zap.Int("failed", failed),
	)
}
