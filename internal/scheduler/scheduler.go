// Package scheduler wires up the cron job that periodically runs lead sync
// cycles.
package scheduler

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/robfig/cron/v3"

	"leadscope/internal/cloudsync"
)

// Scheduler wraps robfig/cron and manages the sync loop.
type Scheduler struct {
	cron   *cron.Cron
	worker *cloudsync.Worker
	spec   string // cron spec, e.g. "@every 5m"
}

// New creates a Scheduler that fires every interval.
func New(worker *cloudsync.Worker, interval time.Duration) *Scheduler {
	return &Scheduler{
		cron:   cron.New(cron.WithLogger(cron.DefaultLogger)),
		worker: worker,
		spec:   fmt.Sprintf("@every %s", interval),
	}
}

// Start registers the job and starts the scheduler. Also runs one cycle
// immediately so a fresh deployment syncs without waiting for the first tick.
func (s *Scheduler) Start(ctx context.Context) error {
	_, err := s.cron.AddFunc(s.spec, func() {
		s.worker.RunCycle(ctx)
	})
	if err != nil {
		return fmt.Errorf("cron.AddFunc: %w", err)
	}

	s.worker.Boot()
	s.cron.Start()
	log.Printf("[scheduler] cron started, spec %s", s.spec)

	// Run immediately on startup (non-blocking)
	go s.worker.RunCycle(ctx)

	return nil
}

// Stop gracefully shuts down the scheduler.
func (s *Scheduler) Stop() {
	s.cron.Stop()
	log.Println("[scheduler] cron stopped")
}
