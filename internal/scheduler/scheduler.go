// Package scheduler runs the periodic housekeeping jobs: dropping idle
// visitor sessions and pruning old search snapshots.
package scheduler

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/robfig/cron/v3"
)

// Sweeper drops idle sessions. *session.Registry implements it.
type Sweeper interface {
	Sweep(ctx context.Context) int
}

// Pruner deletes snapshots older than a cutoff. snapshot.Recorder
// implements it.
type Pruner interface {
	PruneOlderThan(ctx context.Context, cutoff time.Time) (int64, error)
}

const pruneSpec = "@every 24h"

// Scheduler wraps robfig/cron and owns the housekeeping jobs.
type Scheduler struct {
	cron      *cron.Cron
	sweeper   Sweeper
	pruner    Pruner
	sweepSpec string
	retention time.Duration
	now       func() time.Time
}

// New creates a Scheduler sweeping sessions every sweepEvery and keeping
// snapshots for retentionDays days. A zero retention disables pruning.
func New(sweeper Sweeper, pruner Pruner, sweepEvery time.Duration, retentionDays int) *Scheduler {
	return &Scheduler{
		cron:      cron.New(cron.WithLogger(cron.DefaultLogger)),
		sweeper:   sweeper,
		pruner:    pruner,
		sweepSpec: fmt.Sprintf("@every %s", sweepEvery),
		retention: time.Duration(retentionDays) * 24 * time.Hour,
		now:       time.Now,
	}
}

// Start registers the jobs and starts the cron loop. Pruning also runs once
// immediately so a long downtime does not leave stale rows until tomorrow.
func (s *Scheduler) Start(ctx context.Context) error {
	if _, err := s.cron.AddFunc(s.sweepSpec, func() { s.RunSweep(ctx) }); err != nil {
		return fmt.Errorf("cron.AddFunc(%s): %w", s.sweepSpec, err)
	}
	if s.pruner != nil && s.retention > 0 {
		if _, err := s.cron.AddFunc(pruneSpec, func() { s.RunPrune(ctx) }); err != nil {
			return fmt.Errorf("cron.AddFunc(%s): %w", pruneSpec, err)
		}
		go s.RunPrune(ctx)
	}

	s.cron.Start()
	log.Printf("[scheduler] Cron started (sweep: %s, snapshot retention: %s)", s.sweepSpec, s.retention)
	return nil
}

// Stop halts the cron loop and waits for running jobs.
func (s *Scheduler) Stop() {
	<-s.cron.Stop().Done()
	log.Println("[scheduler] Cron stopped")
}

// RunSweep drops idle sessions once.
func (s *Scheduler) RunSweep(ctx context.Context) int {
	n := s.sweeper.Sweep(ctx)
	if n > 0 {
		log.Printf("[scheduler] Swept %d idle session(s)", n)
	}
	return n
}

// RunPrune deletes snapshots older than the retention window once.
func (s *Scheduler) RunPrune(ctx context.Context) int64 {
	cutoff := s.now().Add(-s.retention)
	n, err := s.pruner.PruneOlderThan(ctx, cutoff)
	if err != nil {
		log.Printf("[scheduler] Snapshot prune error: %v", err)
		return 0
	}
	if n > 0 {
		log.Printf("[scheduler] Pruned %d snapshot(s) older than %s", n, cutoff.Format(time.RFC3339))
	}
	return n
}
