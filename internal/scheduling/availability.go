package scheduling

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/dentalis/clinic-platform/internal/clinic"
	"github.com/dentalis/clinic-platform/internal/observability/metrics"
)

// DurationResolver resolves procedure durations through the catalog.
type DurationResolver interface {
	ServiceDuration(ctx context.Context, serviceID uuid.UUID) (time.Duration, error)
	WorkerDuration(ctx context.Context, workerID uuid.UUID) (time.Duration, error)
}

// BusyLister returns a worker's occupied intervals inside [from, to).
type BusyLister interface {
	ListBusy(ctx context.Context, workerID uuid.UUID, from, to time.Time, fallback time.Duration) ([]BusyInterval, error)
}

// Calculator computes free appointment slots for a worker and date.
// It is stateless: every call recomputes from the current bookings.
type Calculator struct {
	busy      BusyLister
	durations DurationResolver
	hours     *clinic.Hours
	metrics   *metrics.SchedulingMetrics
}

// NewCalculator creates an availability calculator.
func NewCalculator(busy BusyLister, durations DurationResolver, hours *clinic.Hours, m *metrics.SchedulingMetrics) *Calculator {
	if busy == nil || durations == nil || hours == nil {
		panic("scheduling: calculator dependencies required")
	}
	return &Calculator{busy: busy, durations: durations, hours: hours, metrics: m}
}

// FreeSlots returns the ascending start instants of free slots for the
// worker on the clinic-local date of `date`. The slot size is the worker's
// profession duration. A candidate [t, t+slot) is free iff it ends by closing
// time and overlaps no occupied interval.
func (c *Calculator) FreeSlots(ctx context.Context, workerID uuid.UUID, date time.Time) ([]time.Time, error) {
	slot, err := c.durations.WorkerDuration(ctx, workerID)
	if err != nil {
		return nil, fmt.Errorf("scheduling: slot size for worker %s: %w", workerID, err)
	}

	open, close := c.hours.WindowFor(date)
	dayStart, dayEnd := c.hours.DayBounds(date)

	busy, err := c.busy.ListBusy(ctx, workerID, dayStart, dayEnd, slot)
	if err != nil {
		return nil, err
	}

	var free []time.Time
	for t := open; !t.Add(slot).After(close); t = t.Add(slot) {
		if !overlapsAny(t, t.Add(slot), busy) {
			free = append(free, t)
		}
	}

	c.metrics.ObserveSlotQuery()
	return free, nil
}

func overlapsAny(start, end time.Time, busy []BusyInterval) bool {
	for _, b := range busy {
		if overlaps(start, end, b.Start, b.End) {
			return true
		}
	}
	return false
}
