// Package scheduling implements the appointment engine: free-slot
// computation, conflict-checked booking, the status lifecycle and the
// stale-booking expiry sweep.
package scheduling

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Status is the closed set of appointment states.
type Status string

const (
	StatusPlanned   Status = "planned"
	StatusConfirmed Status = "confirmed"
	StatusCompleted Status = "completed"
	StatusCancelled Status = "cancelled"
)

// ParseStatus validates a client-supplied status string.
func ParseStatus(s string) (Status, error) {
	switch Status(s) {
	case StatusPlanned, StatusConfirmed, StatusCompleted, StatusCancelled:
		return Status(s), nil
	}
	return "", fmt.Errorf("unknown status %q", s)
}

// transitions is the legal state machine. Completed and cancelled are
// terminal; nothing ever leaves them.
var transitions = map[Status][]Status{
	StatusPlanned:   {StatusConfirmed, StatusCancelled},
	StatusConfirmed: {StatusCompleted, StatusCancelled},
}

// CanTransitionTo reports whether s → next is a legal transition.
func (s Status) CanTransitionTo(next Status) bool {
	for _, allowed := range transitions[s] {
		if next == allowed {
			return true
		}
	}
	return false
}

// activeStatuses are the states that occupy a worker's time.
var activeStatuses = []string{string(StatusPlanned), string(StatusConfirmed)}

// IsActive reports whether the status counts toward worker occupancy.
func (s Status) IsActive() bool {
	for _, a := range activeStatuses {
		if string(s) == a {
			return true
		}
	}
	return false
}

// Appointment is a patient's booking with a worker. StartsAt is an absolute
// UTC instant; the occupied interval is [StartsAt, StartsAt+service duration).
type Appointment struct {
	ID        uuid.UUID `json:"id"`
	WorkerID  uuid.UUID `json:"worker_id"`
	PatientID uuid.UUID `json:"patient_id"`
	ServiceID uuid.UUID `json:"service_id"`
	StartsAt  time.Time `json:"starts_at"`
	Status    Status    `json:"status"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// BusyInterval is an occupied half-open time interval [Start, End).
type BusyInterval struct {
	Start time.Time
	End   time.Time
}

// overlaps applies the half-open interval test:
// [aStart,aEnd) and [bStart,bEnd) overlap iff aStart < bEnd && bStart < aEnd.
func overlaps(aStart, aEnd, bStart, bEnd time.Time) bool {
	return aStart.Before(bEnd) && bStart.Before(aEnd)
}
