package notify

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/dentalis/clinic-platform/internal/clinic"
	"github.com/dentalis/clinic-platform/internal/patients"
	"github.com/dentalis/clinic-platform/internal/scheduling"
	"github.com/dentalis/clinic-platform/pkg/logging"
)

// PatientDirectory resolves patient contact details.
type PatientDirectory interface {
	Get(ctx context.Context, id uuid.UUID) (*patients.Patient, error)
}

// CatalogDirectory resolves display names for appointment emails.
type CatalogDirectory interface {
	WorkerName(ctx context.Context, workerID uuid.UUID) (string, error)
	ServiceTitle(ctx context.Context, serviceID uuid.UUID) (string, error)
}

// Service sends appointment emails to patients.
type Service struct {
	email    EmailSender
	patients PatientDirectory
	catalog  CatalogDirectory
	hours    *clinic.Hours
	logger   *logging.Logger
}

// NewService creates an appointment notifier. The email sender may be nil,
// in which case notifications are skipped.
func NewService(email EmailSender, patients PatientDirectory, catalog CatalogDirectory, hours *clinic.Hours, logger *logging.Logger) *Service {
	if patients == nil {
		panic("notify: patient directory required")
	}
	if logger == nil {
		logger = logging.Default()
	}
	return &Service{
		email:    email,
		patients: patients,
		catalog:  catalog,
		hours:    hours,
		logger:   logger,
	}
}

// AppointmentBooked emails the patient a booking confirmation.
func (s *Service) AppointmentBooked(ctx context.Context, appt *scheduling.Appointment) error {
	if s.email == nil {
		s.logger.Debug("notify: email sender not configured, skipping booking email")
		return nil
	}

	patient, err := s.patients.Get(ctx, appt.PatientID)
	if err != nil {
		return fmt.Errorf("notify: booking email: %w", err)
	}

	worker, service := s.displayNames(ctx, appt)
	when := s.formatLocal(appt.StartsAt)

	msg := EmailMessage{
		To:      patient.Email,
		ToName:  patient.DisplayName(),
		Subject: fmt.Sprintf("Appointment booked: %s", service),
		Body: fmt.Sprintf(`Hello %s,

Your appointment is booked.

Service: %s
Doctor: %s
When: %s

We will confirm your visit shortly. If the time no longer suits you,
you can cancel through your account.

— %s`, patient.DisplayName(), service, worker, when, defaultFromName),
	}
	if err := s.email.Send(ctx, msg); err != nil {
		return fmt.Errorf("notify: booking email: %w", err)
	}
	s.logger.Info("booking email sent", "appointment_id", appt.ID, "to", patient.Email)
	return nil
}

// AppointmentStatusChanged emails the patient about a status transition.
func (s *Service) AppointmentStatusChanged(ctx context.Context, appt *scheduling.Appointment) error {
	if s.email == nil {
		s.logger.Debug("notify: email sender not configured, skipping status email")
		return nil
	}

	patient, err := s.patients.Get(ctx, appt.PatientID)
	if err != nil {
		return fmt.Errorf("notify: status email: %w", err)
	}

	worker, service := s.displayNames(ctx, appt)
	when := s.formatLocal(appt.StartsAt)

	subject, line := statusCopy(appt.Status)
	msg := EmailMessage{
		To:      patient.Email,
		ToName:  patient.DisplayName(),
		Subject: fmt.Sprintf("%s: %s", subject, service),
		Body: fmt.Sprintf(`Hello %s,

%s

Service: %s
Doctor: %s
When: %s

— %s`, patient.DisplayName(), line, service, worker, when, defaultFromName),
	}
	if err := s.email.Send(ctx, msg); err != nil {
		return fmt.Errorf("notify: status email: %w", err)
	}
	s.logger.Info("status email sent", "appointment_id", appt.ID, "status", appt.Status, "to", patient.Email)
	return nil
}

func statusCopy(status scheduling.Status) (subject, line string) {
	switch status {
	case scheduling.StatusConfirmed:
		return "Appointment confirmed", "Your appointment has been confirmed. We look forward to seeing you."
	case scheduling.StatusCancelled:
		return "Appointment cancelled", "Your appointment has been cancelled. You can book a new time through your account."
	case scheduling.StatusCompleted:
		return "Visit completed", "Thank you for your visit. We hope to see you again."
	default:
		return "Appointment update", fmt.Sprintf("Your appointment status is now %q.", status)
	}
}

// displayNames resolves worker and service names best-effort; email copy
// falls back to generic labels rather than failing the notification.
func (s *Service) displayNames(ctx context.Context, appt *scheduling.Appointment) (worker, service string) {
	worker, service = "your doctor", "your visit"
	if s.catalog == nil {
		return worker, service
	}
	if name, err := s.catalog.WorkerName(ctx, appt.WorkerID); err == nil {
		worker = name
	} else {
		s.logger.Warn("notify: worker name lookup failed", "error", err, "worker_id", appt.WorkerID)
	}
	if title, err := s.catalog.ServiceTitle(ctx, appt.ServiceID); err == nil {
		service = title
	} else {
		s.logger.Warn("notify: service title lookup failed", "error", err, "service_id", appt.ServiceID)
	}
	return worker, service
}

func (s *Service) formatLocal(t time.Time) string {
	if s.hours != nil {
		t = t.In(s.hours.Location())
	}
	return t.Format("Monday, 2 January 2006 at 15:04")
}

var _ scheduling.Notifier = (*Service)(nil)
