package metrics

import "github.com/prometheus/client_golang/prometheus"

// SchedulingMetrics exposes counters/histograms for the appointment engine.
type SchedulingMetrics struct {
	bookingsTotal    *prometheus.CounterVec
	bookingLatency   prometheus.Histogram
	slotQueriesTotal prometheus.Counter
	expiredTotal     prometheus.Counter
}

func NewSchedulingMetrics(reg prometheus.Registerer) *SchedulingMetrics {
	m := &SchedulingMetrics{
		bookingsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "clinic",
			Subsystem: "scheduling",
			Name:      "bookings_total",
			Help:      "Booking attempts by outcome",
		}, []string{"outcome"}),
		bookingLatency: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "clinic",
			Subsystem: "scheduling",
			Name:      "booking_latency_seconds",
			Help:      "Latency of the booking transaction",
			Buckets:   prometheus.DefBuckets,
		}),
		slotQueriesTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "clinic",
			Subsystem: "scheduling",
			Name:      "slot_queries_total",
			Help:      "Free-slot availability queries",
		}),
		expiredTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "clinic",
			Subsystem: "scheduling",
			Name:      "expired_appointments_total",
			Help:      "Planned appointments cancelled by the expiry sweeper",
		}),
	}
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	reg.MustRegister(m.bookingsTotal, m.bookingLatency, m.slotQueriesTotal, m.expiredTotal)
	return m
}

// ObserveBooking records a booking attempt outcome and its latency.
func (m *SchedulingMetrics) ObserveBooking(outcome string, seconds float64) {
	if m == nil {
		return
	}
	m.bookingsTotal.WithLabelValues(outcome).Inc()
	m.bookingLatency.Observe(seconds)
}

// ObserveSlotQuery counts one availability computation.
func (m *SchedulingMetrics) ObserveSlotQuery() {
	if m == nil {
		return
	}
	m.slotQueriesTotal.Inc()
}

// ObserveExpired adds the number of appointments cancelled by one sweep.
func (m *SchedulingMetrics) ObserveExpired(count int64) {
	if m == nil || count <= 0 {
		return
	}
	m.expiredTotal.Add(float64(count))
}
