// Package scheduler runs background refreshes of the dataflow cache.
package scheduler

import (
	"context"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/statkit/absbridge/pkg/logging"
	"github.com/statkit/absbridge/pkg/services"
)

// refreshTimeout bounds a scheduled refresh so a hung upstream cannot pile
// up overlapping runs.
const refreshTimeout = 5 * time.Minute

// Scheduler periodically forces a dataflow cache refresh
type Scheduler struct {
	cron     *cron.Cron
	flows    *services.DataflowService
	schedule string
	logger   logging.Logger
}

// New creates a scheduler with a cron schedule expression (standard five
// field form or descriptors such as "@every 24h").
func New(flows *services.DataflowService, schedule string, logger logging.Logger) *Scheduler {
	if logger == nil {
		logger = logging.NewNop()
	}
	return &Scheduler{
		cron:     cron.New(),
		flows:    flows,
		schedule: schedule,
		logger:   logger,
	}
}

// Start registers the refresh job and starts the scheduler
func (s *Scheduler) Start() error {
	if _, err := s.cron.AddFunc(s.schedule, s.refresh); err != nil {
		return fmt.Errorf("invalid refresh schedule %q: %w", s.schedule, err)
	}

	s.cron.Start()
	s.logger.Info("cache refresh scheduler started", logging.F("schedule", s.schedule))
	return nil
}

// Stop stops the scheduler and waits for a running refresh to finish
func (s *Scheduler) Stop() {
	ctx := s.cron.Stop()
	<-ctx.Done()
	s.logger.Info("cache refresh scheduler stopped")
}

func (s *Scheduler) refresh() {
	ctx, cancel := context.WithTimeout(context.Background(), refreshTimeout)
	defer cancel()

	if _, err := s.flows.GetDataFlows(ctx, true); err != nil {
		s.logger.Error("scheduled cache refresh failed", logging.F("error", err))
	}
}
