package notify

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dentalis/clinic-platform/internal/clinic"
	"github.com/dentalis/clinic-platform/internal/patients"
	"github.com/dentalis/clinic-platform/internal/scheduling"
)

type mockEmailSender struct {
	sent    []EmailMessage
	callErr error
}

func (m *mockEmailSender) Send(ctx context.Context, msg EmailMessage) error {
	if m.callErr != nil {
		return m.callErr
	}
	m.sent = append(m.sent, msg)
	return nil
}

type mockDirectory struct {
	patient *patients.Patient
	err     error
}

func (m *mockDirectory) Get(ctx context.Context, id uuid.UUID) (*patients.Patient, error) {
	if m.err != nil {
		return nil, m.err
	}
	return m.patient, nil
}

type mockCatalog struct {
	worker  string
	service string
	err     error
}

func (m *mockCatalog) WorkerName(ctx context.Context, workerID uuid.UUID) (string, error) {
	return m.worker, m.err
}

func (m *mockCatalog) ServiceTitle(ctx context.Context, serviceID uuid.UUID) (string, error) {
	return m.service, m.err
}

func testAppointment() *scheduling.Appointment {
	return &scheduling.Appointment{
		ID:        uuid.New(),
		WorkerID:  uuid.New(),
		PatientID: uuid.New(),
		ServiceID: uuid.New(),
		StartsAt:  time.Date(2026, time.June, 1, 5, 0, 0, 0, time.UTC),
		Status:    scheduling.StatusPlanned,
	}
}

func testClinicHours(t *testing.T) *clinic.Hours {
	t.Helper()
	h, err := clinic.NewHours("Asia/Yekaterinburg", "09:00", "18:00")
	if err != nil {
		t.Fatalf("NewHours: %v", err)
	}
	return h
}

func TestAppointmentBookedEmail(t *testing.T) {
	email := &mockEmailSender{}
	dir := &mockDirectory{patient: &patients.Patient{
		ID:        uuid.New(),
		Email:     "ivan@example.com",
		FirstName: "Ivan",
		LastName:  "Petrov",
	}}
	catalog := &mockCatalog{worker: "Anna Ivanova", service: "Teeth cleaning"}

	svc := NewService(email, dir, catalog, testClinicHours(t), nil)
	require.NoError(t, svc.AppointmentBooked(context.Background(), testAppointment()))

	require.Len(t, email.sent, 1)
	msg := email.sent[0]
	assert.Equal(t, "ivan@example.com", msg.To)
	assert.Contains(t, msg.Subject, "Teeth cleaning")
	assert.Contains(t, msg.Body, "Anna Ivanova")
	// 05:00 UTC is 10:00 in Yekaterinburg (UTC+5).
	assert.Contains(t, msg.Body, "10:00")
}

func TestAppointmentBookedSkipsWithoutSender(t *testing.T) {
	dir := &mockDirectory{patient: &patients.Patient{Email: "ivan@example.com"}}
	svc := NewService(nil, dir, nil, nil, nil)
	if err := svc.AppointmentBooked(context.Background(), testAppointment()); err != nil {
		t.Fatalf("expected nil sender to be a no-op, got %v", err)
	}
}

func TestAppointmentBookedPatientLookupFails(t *testing.T) {
	email := &mockEmailSender{}
	dir := &mockDirectory{err: patients.ErrNotFound}
	svc := NewService(email, dir, nil, nil, nil)

	err := svc.AppointmentBooked(context.Background(), testAppointment())
	if !errors.Is(err, patients.ErrNotFound) {
		t.Fatalf("expected patient lookup error, got %v", err)
	}
	if len(email.sent) != 0 {
		t.Fatal("no email should be sent without a recipient")
	}
}

func TestAppointmentBookedCatalogFallback(t *testing.T) {
	email := &mockEmailSender{}
	dir := &mockDirectory{patient: &patients.Patient{Email: "ivan@example.com"}}
	catalog := &mockCatalog{err: errors.New("catalog down")}

	svc := NewService(email, dir, catalog, nil, nil)
	if err := svc.AppointmentBooked(context.Background(), testAppointment()); err != nil {
		t.Fatalf("AppointmentBooked: %v", err)
	}
	if len(email.sent) != 1 {
		t.Fatalf("expected 1 email despite catalog failure, got %d", len(email.sent))
	}
	if !strings.Contains(email.sent[0].Body, "your doctor") {
		t.Fatalf("expected generic fallback copy, got %q", email.sent[0].Body)
	}
}

func TestAppointmentStatusChangedCopy(t *testing.T) {
	tests := []struct {
		status  scheduling.Status
		subject string
	}{
		{scheduling.StatusConfirmed, "Appointment confirmed"},
		{scheduling.StatusCancelled, "Appointment cancelled"},
		{scheduling.StatusCompleted, "Visit completed"},
	}
	for _, tt := range tests {
		t.Run(string(tt.status), func(t *testing.T) {
			email := &mockEmailSender{}
			dir := &mockDirectory{patient: &patients.Patient{Email: "ivan@example.com"}}
			svc := NewService(email, dir, nil, nil, nil)

			appt := testAppointment()
			appt.Status = tt.status
			require.NoError(t, svc.AppointmentStatusChanged(context.Background(), appt))
			require.Len(t, email.sent, 1)
			assert.True(t, strings.HasPrefix(email.sent[0].Subject, tt.subject),
				"expected subject prefix %q, got %q", tt.subject, email.sent[0].Subject)
		})
	}
}

func TestAppointmentStatusChangedSendFailure(t *testing.T) {
	email := &mockEmailSender{callErr: errors.New("smtp down")}
	dir := &mockDirectory{patient: &patients.Patient{Email: "ivan@example.com"}}
	svc := NewService(email, dir, nil, nil, nil)

	appt := testAppointment()
	appt.Status = scheduling.StatusConfirmed
	if err := svc.AppointmentStatusChanged(context.Background(), appt); err == nil {
		t.Fatal("expected send failure to propagate to the async caller")
	}
}
