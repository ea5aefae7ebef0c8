package catalog

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

// DB abstracts the pgx query interface for testing.
type DB interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// Store provides read access to the clinic catalog tables.
type Store struct {
	db DB
}

// NewStore creates a catalog store.
func NewStore(db DB) *Store {
	if db == nil {
		panic("catalog: db required")
	}
	return &Store{db: db}
}

// ServiceDuration resolves the procedure duration of a service through its
// profession. Returns ErrMissingDuration when no positive duration is set.
func (s *Store) ServiceDuration(ctx context.Context, serviceID uuid.UUID) (time.Duration, error) {
	var minutes *int32
	err := s.db.QueryRow(ctx, `
		SELECT p.procedure_minutes
		FROM services s
		LEFT JOIN professions p ON p.id = s.profession_id
		WHERE s.id = $1`, serviceID).Scan(&minutes)
	if errors.Is(err, pgx.ErrNoRows) {
		return 0, fmt.Errorf("catalog: service %s: %w", serviceID, ErrNotFound)
	}
	if err != nil {
		return 0, fmt.Errorf("catalog: service duration: %w", err)
	}
	return minutesToDuration(minutes)
}

// WorkerDuration resolves the worker's default procedure duration through the
// worker's profession. This is the slot size used for availability.
func (s *Store) WorkerDuration(ctx context.Context, workerID uuid.UUID) (time.Duration, error) {
	var minutes *int32
	err := s.db.QueryRow(ctx, `
		SELECT p.procedure_minutes
		FROM workers w
		LEFT JOIN professions p ON p.id = w.profession_id
		WHERE w.id = $1`, workerID).Scan(&minutes)
	if errors.Is(err, pgx.ErrNoRows) {
		return 0, fmt.Errorf("catalog: worker %s: %w", workerID, ErrNotFound)
	}
	if err != nil {
		return 0, fmt.Errorf("catalog: worker duration: %w", err)
	}
	return minutesToDuration(minutes)
}

// ListWorkers returns active workers with their profession titles.
func (s *Store) ListWorkers(ctx context.Context) ([]Worker, error) {
	rows, err := s.db.Query(ctx, `
		SELECT w.id, w.first_name, w.last_name, w.description, w.profession_id,
		       COALESCE(p.title, ''), w.experience_years, w.status
		FROM workers w
		LEFT JOIN professions p ON p.id = w.profession_id
		WHERE w.status = 'active'
		ORDER BY w.last_name, w.first_name`)
	if err != nil {
		return nil, fmt.Errorf("catalog: list workers: %w", err)
	}
	defer rows.Close()

	var out []Worker
	for rows.Next() {
		var w Worker
		if err := rows.Scan(
			&w.ID, &w.FirstName, &w.LastName, &w.Description, &w.ProfessionID,
			&w.ProfessionTitle, &w.ExperienceYears, &w.Status,
		); err != nil {
			return nil, fmt.Errorf("catalog: scan worker: %w", err)
		}
		out = append(out, w)
	}
	return out, rows.Err()
}

// ListServices returns active services with prices and profession titles.
func (s *Store) ListServices(ctx context.Context) ([]Service, error) {
	rows, err := s.db.Query(ctx, `
		SELECT s.id, s.title, s.description, s.price_cents, s.profession_id,
		       COALESCE(p.title, ''), s.status
		FROM services s
		LEFT JOIN professions p ON p.id = s.profession_id
		WHERE s.status = 'active'
		ORDER BY s.title`)
	if err != nil {
		return nil, fmt.Errorf("catalog: list services: %w", err)
	}
	defer rows.Close()

	var out []Service
	for rows.Next() {
		var sv Service
		if err := rows.Scan(
			&sv.ID, &sv.Title, &sv.Description, &sv.PriceCents, &sv.ProfessionID,
			&sv.ProfessionTitle, &sv.Status,
		); err != nil {
			return nil, fmt.Errorf("catalog: scan service: %w", err)
		}
		out = append(out, sv)
	}
	return out, rows.Err()
}

// WorkerName returns the worker's display name.
func (s *Store) WorkerName(ctx context.Context, workerID uuid.UUID) (string, error) {
	var first, last string
	err := s.db.QueryRow(ctx,
		`SELECT first_name, last_name FROM workers WHERE id = $1`, workerID).Scan(&first, &last)
	if errors.Is(err, pgx.ErrNoRows) {
		return "", fmt.Errorf("catalog: worker %s: %w", workerID, ErrNotFound)
	}
	if err != nil {
		return "", fmt.Errorf("catalog: worker name: %w", err)
	}
	return first + " " + last, nil
}

// ServiceTitle returns the service's display title.
func (s *Store) ServiceTitle(ctx context.Context, serviceID uuid.UUID) (string, error) {
	var title string
	err := s.db.QueryRow(ctx,
		`SELECT title FROM services WHERE id = $1`, serviceID).Scan(&title)
	if errors.Is(err, pgx.ErrNoRows) {
		return "", fmt.Errorf("catalog: service %s: %w", serviceID, ErrNotFound)
	}
	if err != nil {
		return "", fmt.Errorf("catalog: service title: %w", err)
	}
	return title, nil
}

// WorkerExists reports whether an active worker with the id exists.
func (s *Store) WorkerExists(ctx context.Context, workerID uuid.UUID) (bool, error) {
	var exists bool
	err := s.db.QueryRow(ctx,
		`SELECT EXISTS(SELECT 1 FROM workers WHERE id = $1)`, workerID).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("catalog: worker exists: %w", err)
	}
	return exists, nil
}

func minutesToDuration(minutes *int32) (time.Duration, error) {
	if minutes == nil || *minutes <= 0 {
		return 0, ErrMissingDuration
	}
	return time.Duration(*minutes) * time.Minute, nil
}
