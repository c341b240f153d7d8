// Package scheduler runs the perpetual refresh loop: one full pass over
// every stored package, then a fixed sleep, forever. There is deliberately
// no jitter, no overlap guard, and no fan-out inside a pass — records are
// refreshed one at a time, so a slow carrier response stretches the pass
// rather than piling up concurrent fetches.
package scheduler

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"github.com/agentkyo/jadlog-bot/internal/api/metrics"
	"github.com/agentkyo/jadlog-bot/internal/core/ports"
)

const DefaultInterval = 600 * time.Second

type Scheduler struct {
	service  ports.RefreshService
	interval time.Duration
	log      zerolog.Logger
}

// New creates a Scheduler. If interval is not positive, DefaultInterval is used.
func New(service ports.RefreshService, interval time.Duration, log zerolog.Logger) *Scheduler {
	if interval <= 0 {
		interval = DefaultInterval
	}
	return &Scheduler{
		service:  service,
		interval: interval,
		log:      log,
	}
}

// Run blocks until ctx is cancelled, executing one pass immediately and then
// one per interval. It is meant to be started in its own goroutine.
func (s *Scheduler) Run(ctx context.Context) {
	s.log.Info().Dur("interval", s.interval).Msg("refresh loop started")

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	s.pass(ctx)
	for {
		select {
		case <-ctx.Done():
			s.log.Info().Msg("refresh loop stopped")
			return
		case <-ticker.C:
			s.pass(ctx)
		}
	}
}

func (s *Scheduler) pass(ctx context.Context) {
	start := time.Now()
	if err := s.service.RefreshAll(ctx); err != nil {
		// Only a failure to list the packages reaches here; per-record
		// failures are handled inside the pass.
		s.log.Error().Err(err).Msg("refresh pass failed")
		return
	}
	elapsed := time.Since(start)

	metrics.RefreshPassesTotal.Inc()
	metrics.PassDuration.Observe(elapsed.Seconds())
	s.log.Info().Dur("elapsed", elapsed).Msg("refresh pass completed")
}
