package scheduling

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"

	"github.com/dentalis/clinic-platform/internal/catalog"
	"github.com/dentalis/clinic-platform/internal/clinic"
	"github.com/dentalis/clinic-platform/internal/observability/metrics"
	"github.com/dentalis/clinic-platform/pkg/logging"
)

var schedulingTracer = otel.Tracer("clinic.internal.scheduling")

// AppointmentStore is the persistence surface the service needs.
// UpdateStatus is a compare-and-swap: it writes `to` only while the row still
// holds `from`, so a transition committed by someone else between the
// service's read and its write can never be overwritten.
type AppointmentStore interface {
	BookPlanned(ctx context.Context, appt *Appointment, duration time.Duration) error
	Get(ctx context.Context, id uuid.UUID) (*Appointment, error)
	UpdateStatus(ctx context.Context, id uuid.UUID, from, to Status) error
	ListByPatient(ctx context.Context, patientID uuid.UUID) ([]Appointment, error)
}

// CatalogReader resolves durations and validates catalog references.
type CatalogReader interface {
	DurationResolver
	WorkerExists(ctx context.Context, workerID uuid.UUID) (bool, error)
}

// Notifier delivers best-effort patient notifications. Implementations must
// never block the booking path; failures are logged, not propagated.
type Notifier interface {
	AppointmentBooked(ctx context.Context, appt *Appointment) error
	AppointmentStatusChanged(ctx context.Context, appt *Appointment) error
}

// BookingRequest is a validated request to create an appointment.
type BookingRequest struct {
	WorkerID  uuid.UUID
	ServiceID uuid.UUID
	PatientID uuid.UUID
	Start     time.Time
}

// Service is the booking transaction manager and status lifecycle controller.
type Service struct {
	store    AppointmentStore
	catalog  CatalogReader
	hours    *clinic.Hours
	notifier Notifier
	metrics  *metrics.SchedulingMetrics
	logger   *logging.Logger
	now      func() time.Time
}

// NewService constructs the scheduling service.
func NewService(store AppointmentStore, cat CatalogReader, hours *clinic.Hours, notifier Notifier, m *metrics.SchedulingMetrics, logger *logging.Logger) *Service {
	if store == nil || cat == nil || hours == nil {
		panic("scheduling: service dependencies required")
	}
	if logger == nil {
		logger = logging.Default()
	}
	return &Service{
		store:    store,
		catalog:  cat,
		hours:    hours,
		notifier: notifier,
		metrics:  m,
		logger:   logger,
		now:      time.Now,
	}
}

// Book creates a planned appointment. The overlap re-check and insert run in
// one transaction serialized per worker, so after a successful return no
// other committed appointment for the same worker can overlap this one.
func (s *Service) Book(ctx context.Context, req BookingRequest) (*Appointment, error) {
	ctx, span := schedulingTracer.Start(ctx, "scheduling.book")
	defer span.End()
	span.SetAttributes(
		attribute.String("clinic.worker_id", req.WorkerID.String()),
		attribute.String("clinic.service_id", req.ServiceID.String()),
	)
	began := time.Now()

	duration, err := s.catalog.ServiceDuration(ctx, req.ServiceID)
	if err != nil {
		span.RecordError(err)
		s.metrics.ObserveBooking("config_error", time.Since(began).Seconds())
		return nil, err
	}

	start := req.Start.Truncate(time.Minute)
	end := start.Add(duration)
	if start.Before(s.now()) {
		s.metrics.ObserveBooking("past_start", time.Since(began).Seconds())
		return nil, ErrPastStart
	}
	if !s.hours.Contains(start, end) {
		s.metrics.ObserveBooking("outside_hours", time.Since(began).Seconds())
		return nil, ErrOutsideHours
	}

	known, err := s.catalog.WorkerExists(ctx, req.WorkerID)
	if err != nil {
		span.RecordError(err)
		s.metrics.ObserveBooking("error", time.Since(began).Seconds())
		return nil, fmt.Errorf("scheduling: check worker: %w", err)
	}
	if !known {
		s.metrics.ObserveBooking("unknown_worker", time.Since(began).Seconds())
		return nil, fmt.Errorf("scheduling: worker %s: %w", req.WorkerID, catalog.ErrNotFound)
	}

	appt := &Appointment{
		ID:        uuid.New(),
		WorkerID:  req.WorkerID,
		PatientID: req.PatientID,
		ServiceID: req.ServiceID,
		StartsAt:  start.UTC(),
		Status:    StatusPlanned,
	}

	if err := s.store.BookPlanned(ctx, appt, duration); err != nil {
		span.RecordError(err)
		outcome := "error"
		if errors.Is(err, ErrSlotConflict) {
			outcome = "conflict"
		}
		s.metrics.ObserveBooking(outcome, time.Since(began).Seconds())
		return nil, err
	}

	s.metrics.ObserveBooking("created", time.Since(began).Seconds())
	s.logger.Info("appointment booked",
		"appointment_id", appt.ID,
		"worker_id", appt.WorkerID,
		"patient_id", appt.PatientID,
		"starts_at", appt.StartsAt,
	)

	s.notifyAsync(ctx, appt, func(ctx context.Context) error {
		return s.notifier.AppointmentBooked(ctx, appt)
	})
	return appt, nil
}

// ChangeStatus applies a lifecycle transition. Illegal transitions fail with
// ErrIllegalTransition and nothing is written.
func (s *Service) ChangeStatus(ctx context.Context, id uuid.UUID, next Status) (*Appointment, error) {
	ctx, span := schedulingTracer.Start(ctx, "scheduling.change_status")
	defer span.End()
	span.SetAttributes(attribute.String("clinic.appointment_id", id.String()))

	appt, err := s.store.Get(ctx, id)
	if err != nil {
		span.RecordError(err)
		return nil, err
	}

	if !appt.Status.CanTransitionTo(next) {
		return nil, ErrIllegalTransition
	}

	// Compare-and-swap on the status read above. If a concurrent transition
	// (another request, or the expiry sweep) lands in between, the write
	// misses and fails instead of resurrecting a terminal appointment.
	if err := s.store.UpdateStatus(ctx, id, appt.Status, next); err != nil {
		span.RecordError(err)
		return nil, err
	}

	s.logger.Info("appointment status changed",
		"appointment_id", id,
		"from", appt.Status,
		"to", next,
	)
	appt.Status = next

	s.notifyAsync(ctx, appt, func(ctx context.Context) error {
		return s.notifier.AppointmentStatusChanged(ctx, appt)
	})
	return appt, nil
}

// PatientAppointments lists the caller's non-cancelled appointments.
func (s *Service) PatientAppointments(ctx context.Context, patientID uuid.UUID) ([]Appointment, error) {
	return s.store.ListByPatient(ctx, patientID)
}

// notifyAsync sends a notification without tying it to the request lifecycle.
// Delivery failures are logged and swallowed.
func (s *Service) notifyAsync(ctx context.Context, appt *Appointment, send func(context.Context) error) {
	if s.notifier == nil {
		return
	}
	ctx = context.WithoutCancel(ctx)
	go func() {
		ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
		defer cancel()
		if err := send(ctx); err != nil {
			s.logger.Error("appointment notification failed",
				"appointment_id", appt.ID, "error", err)
		}
	}()
}
