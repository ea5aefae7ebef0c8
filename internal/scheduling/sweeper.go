package scheduling

import (
	"context"
	"time"

	"github.com/dentalis/clinic-platform/internal/observability/metrics"
	"github.com/dentalis/clinic-platform/pkg/logging"
)

// ExpiryStore is the persistence surface the sweeper needs.
type ExpiryStore interface {
	ExpireStale(ctx context.Context, cutoff time.Time) (int64, error)
}

// Sweeper periodically cancels planned appointments whose start is more than
// the grace period in the past. It runs off the request path on its own timer.
type Sweeper struct {
	store    ExpiryStore
	grace    time.Duration
	interval time.Duration
	metrics  *metrics.SchedulingMetrics
	logger   *logging.Logger
}

// NewSweeper creates an expiry sweeper.
func NewSweeper(store ExpiryStore, grace, interval time.Duration, m *metrics.SchedulingMetrics, logger *logging.Logger) *Sweeper {
	if store == nil {
		panic("scheduling: sweeper store required")
	}
	if grace <= 0 {
		grace = 30 * time.Minute
	}
	if interval <= 0 {
		interval = 5 * time.Minute
	}
	if logger == nil {
		logger = logging.Default()
	}
	return &Sweeper{store: store, grace: grace, interval: interval, metrics: m, logger: logger}
}

// Start runs the sweeper. Blocks until the context is cancelled.
func (s *Sweeper) Start(ctx context.Context) {
	s.logger.Info("starting appointment expiry sweeper",
		"interval", s.interval.String(),
		"grace", s.grace.String(),
	)

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	// Run once immediately on startup
	s.sweep(ctx)

	for {
		select {
		case <-ctx.Done():
			s.logger.Info("expiry sweeper shutting down")
			return
		case <-ticker.C:
			s.sweep(ctx)
		}
	}
}

// Sweep runs a single pass and returns the number of expired appointments.
func (s *Sweeper) Sweep(ctx context.Context) (int64, error) {
	cutoff := time.Now().UTC().Add(-s.grace)
	count, err := s.store.ExpireStale(ctx, cutoff)
	if err != nil {
		return 0, err
	}
	s.metrics.ObserveExpired(count)
	return count, nil
}

func (s *Sweeper) sweep(ctx context.Context) {
	count, err := s.Sweep(ctx)
	if err != nil {
		s.logger.Error("expiry sweep failed", "error", err)
		return
	}
	if count > 0 {
		s.logger.Info("expired stale appointments", "count", count)
	}
}
