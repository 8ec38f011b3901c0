package sweep

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/SelwynIsLoading/kiosk-payments/internal/observability"
)

// SessionStore is the slice of the session manager the sweeper needs.
type SessionStore interface {
	SweepTerminal(cutoff time.Time) int
}

// JobQueue is the slice of the print queue the sweeper needs.
type JobQueue interface {
	SweepTerminal(cutoff time.Time) int
	RequeueStalled(cutoff time.Time, maxAttempts int) (requeued, failed int)
}

// Sweeper bounds memory growth: terminal sessions and jobs age out after a
// grace window long enough for trailing polls to observe the final state.
// It also owns the recovery policy for jobs stuck in Printing after the
// bridge died mid-job.
type Sweeper struct {
	sessions SessionStore
	jobs     JobQueue
	logger   *zap.Logger
	metrics  observability.Metrics

	interval    time.Duration
	grace       time.Duration
	stallAfter  time.Duration
	maxAttempts int
}

func New(
	sessions SessionStore,
	jobs JobQueue,
	interval, grace, stallAfter time.Duration,
	maxAttempts int,
	logger *zap.Logger,
	metrics observability.Metrics,
) *Sweeper {
	if metrics == nil {
		metrics = observability.NewNoop()
	}
	return &Sweeper{
		sessions:    sessions,
		jobs:        jobs,
		logger:      logger,
		metrics:     metrics,
		interval:    interval,
		grace:       grace,
		stallAfter:  stallAfter,
		maxAttempts: maxAttempts,
	}
}

// Run ticks until ctx is cancelled. It is independent of request handling;
// a slow sweep never blocks an increment.
func (s *Sweeper) Run(ctx context.Context) {
	t := time.NewTicker(s.interval)
	defer t.Stop()

	s.logger.Info("sweeper started",
		zap.Duration("interval", s.interval),
		zap.Duration("grace", s.grace),
		zap.Duration("stall_after", s.stallAfter),
	)
	for {
		select {
		case <-ctx.Done():
			s.logger.Info("sweeper stopped")
			return
		case <-t.C:
			s.Sweep(time.Now().UTC())
		}
	}
}

// Sweep performs one housekeeping pass relative to now.
func (s *Sweeper) Sweep(now time.Time) {
	if n := s.sessions.SweepTerminal(now.Add(-s.grace)); n > 0 {
		s.metrics.IncSwept("session", n)
	}
	if n := s.jobs.SweepTerminal(now.Add(-s.grace)); n > 0 {
		s.metrics.IncSwept("job", n)
	}

	requeued, failed := s.jobs.RequeueStalled(now.Add(-s.stallAfter), s.maxAttempts)
	if requeued > 0 || failed > 0 {
		s.logger.Warn("stalled print jobs handled",
			zap.Int("requeued", requeued),
			zap.Int("failed", failed),
		)
	}
}
