package scheduling

import (
	"context"
	"errors"
	"fmt"
	"hash/fnv"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

// DB abstracts the pgx pool interface for testing.
type DB interface {
	Begin(ctx context.Context) (pgx.Tx, error)
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// Store persists appointments. All instants are stored as timestamptz in UTC.
type Store struct {
	db DB
}

// NewStore creates an appointment store.
func NewStore(db DB) *Store {
	if db == nil {
		panic("scheduling: db required")
	}
	return &Store{db: db}
}

// lockKey derives the advisory-lock key that serializes bookings per worker.
func lockKey(workerID uuid.UUID) int64 {
	h := fnv.New64a()
	h.Write(workerID[:])
	return int64(h.Sum64())
}

// overlapExistsSQL computes each appointment's occupied interval from its own
// service's profession duration, falling back to the requested duration when
// the chain has no configured minutes.
const overlapExistsSQL = `
	SELECT EXISTS (
		SELECT 1
		FROM appointments a
		LEFT JOIN services s ON s.id = a.service_id
		LEFT JOIN professions p ON p.id = s.profession_id
		WHERE a.worker_id = $1
		  AND a.status = ANY($2)
		  AND a.starts_at < $3
		  AND a.starts_at + make_interval(mins => COALESCE(p.procedure_minutes, $4)) > $5
	)`

// BookPlanned inserts a planned appointment after re-checking for overlap
// inside a single transaction. A per-worker advisory lock serializes the
// check-then-insert sequence against concurrent bookings for the same worker;
// bookings for different workers proceed in parallel.
func (s *Store) BookPlanned(ctx context.Context, appt *Appointment, duration time.Duration) error {
	tx, err := s.db.Begin(ctx)
	if err != nil {
		return fmt.Errorf("scheduling: begin booking tx: %w", err)
	}
	defer tx.Rollback(ctx)

	if _, err := tx.Exec(ctx, `SELECT pg_advisory_xact_lock($1)`, lockKey(appt.WorkerID)); err != nil {
		return fmt.Errorf("scheduling: acquire worker lock: %w", err)
	}

	end := appt.StartsAt.Add(duration)
	minutes := int32(duration / time.Minute)

	var conflict bool
	if err := tx.QueryRow(ctx, overlapExistsSQL,
		appt.WorkerID, activeStatuses, end, minutes, appt.StartsAt,
	).Scan(&conflict); err != nil {
		return fmt.Errorf("scheduling: overlap check: %w", err)
	}
	if conflict {
		return ErrSlotConflict
	}

	now := time.Now().UTC()
	appt.CreatedAt = now
	appt.UpdatedAt = now
	if _, err := tx.Exec(ctx, `
		INSERT INTO appointments (id, worker_id, patient_id, service_id, starts_at, status, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
		appt.ID, appt.WorkerID, appt.PatientID, appt.ServiceID,
		appt.StartsAt, string(appt.Status), appt.CreatedAt, appt.UpdatedAt,
	); err != nil {
		return fmt.Errorf("scheduling: insert appointment: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("scheduling: commit booking tx: %w", err)
	}
	return nil
}

// ListBusy returns the occupied intervals of a worker's active appointments
// whose start falls in [from, to). Each interval's length comes from the
// appointment's own service; fallback is used when none is configured.
func (s *Store) ListBusy(ctx context.Context, workerID uuid.UUID, from, to time.Time, fallback time.Duration) ([]BusyInterval, error) {
	rows, err := s.db.Query(ctx, `
		SELECT a.starts_at, COALESCE(p.procedure_minutes, $4)
		FROM appointments a
		LEFT JOIN services s ON s.id = a.service_id
		LEFT JOIN professions p ON p.id = s.profession_id
		WHERE a.worker_id = $1
		  AND a.status = ANY($2)
		  AND a.starts_at >= $3 AND a.starts_at < $5
		ORDER BY a.starts_at`,
		workerID, activeStatuses, from, int32(fallback/time.Minute), to)
	if err != nil {
		return nil, fmt.Errorf("scheduling: list busy: %w", err)
	}
	defer rows.Close()

	var out []BusyInterval
	for rows.Next() {
		var start time.Time
		var minutes int32
		if err := rows.Scan(&start, &minutes); err != nil {
			return nil, fmt.Errorf("scheduling: scan busy interval: %w", err)
		}
		out = append(out, BusyInterval{
			Start: start,
			End:   start.Add(time.Duration(minutes) * time.Minute),
		})
	}
	return out, rows.Err()
}

// Get loads an appointment by id.
func (s *Store) Get(ctx context.Context, id uuid.UUID) (*Appointment, error) {
	var a Appointment
	var status string
	err := s.db.QueryRow(ctx, `
		SELECT id, worker_id, patient_id, service_id, starts_at, status, created_at, updated_at
		FROM appointments
		WHERE id = $1`, id).Scan(
		&a.ID, &a.WorkerID, &a.PatientID, &a.ServiceID, &a.StartsAt, &status, &a.CreatedAt, &a.UpdatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("scheduling: appointment %s: %w", id, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("scheduling: get appointment: %w", err)
	}
	a.Status = Status(status)
	return &a, nil
}

// UpdateStatus writes the appointment's status as a compare-and-swap keyed on
// the status the caller read. Transition legality is the service's
// responsibility; the predicate guarantees a transition committed between the
// caller's read and this write makes the swap miss rather than be overwritten.
func (s *Store) UpdateStatus(ctx context.Context, id uuid.UUID, from, to Status) error {
	tag, err := s.db.Exec(ctx, `
		UPDATE appointments SET status = $2, updated_at = $3
		WHERE id = $1 AND status = $4`,
		id, string(to), time.Now().UTC(), string(from))
	if err != nil {
		return fmt.Errorf("scheduling: update status: %w", err)
	}
	if tag.RowsAffected() == 0 {
		// Either the row vanished or its status moved under us. Re-read to
		// tell the two apart.
		if _, err := s.Get(ctx, id); err != nil {
			return err
		}
		return fmt.Errorf("scheduling: appointment %s no longer %s: %w", id, from, ErrIllegalTransition)
	}
	return nil
}

// ListByPatient returns the patient's non-cancelled appointments, soonest first.
func (s *Store) ListByPatient(ctx context.Context, patientID uuid.UUID) ([]Appointment, error) {
	rows, err := s.db.Query(ctx, `
		SELECT id, worker_id, patient_id, service_id, starts_at, status, created_at, updated_at
		FROM appointments
		WHERE patient_id = $1 AND status <> $2
		ORDER BY starts_at`, patientID, string(StatusCancelled))
	if err != nil {
		return nil, fmt.Errorf("scheduling: list by patient: %w", err)
	}
	defer rows.Close()

	var out []Appointment
	for rows.Next() {
		var a Appointment
		var status string
		if err := rows.Scan(
			&a.ID, &a.WorkerID, &a.PatientID, &a.ServiceID, &a.StartsAt, &status, &a.CreatedAt, &a.UpdatedAt,
		); err != nil {
			return nil, fmt.Errorf("scheduling: scan appointment: %w", err)
		}
		a.Status = Status(status)
		out = append(out, a)
	}
	return out, rows.Err()
}

// ExpireStale cancels planned appointments whose start is before the cutoff.
// A single bulk update keeps the sweep idempotent: a second run with no newly
// stale rows affects nothing.
func (s *Store) ExpireStale(ctx context.Context, cutoff time.Time) (int64, error) {
	tag, err := s.db.Exec(ctx, `
		UPDATE appointments
		SET status = $2, updated_at = $3
		WHERE status = $1 AND starts_at < $4`,
		string(StatusPlanned), string(StatusCancelled), time.Now().UTC(), cutoff)
	if err != nil {
		return 0, fmt.Errorf("scheduling: expire stale: %w", err)
	}
	return tag.RowsAffected(), nil
}
