package patients

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

// ErrNotFound is returned when no patient matches the lookup.
var ErrNotFound = errors.New("patients: not found")

// DB abstracts the pgx query interface for testing.
type DB interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// Store provides access to the patients table.
type Store struct {
	db DB
}

// NewStore creates a patient store.
func NewStore(db DB) *Store {
	if db == nil {
		panic("patients: db required")
	}
	return &Store{db: db}
}

// Get returns a patient by id.
func (s *Store) Get(ctx context.Context, id uuid.UUID) (*Patient, error) {
	var p Patient
	err := s.db.QueryRow(ctx, `
		SELECT id, email, first_name, last_name, COALESCE(phone, ''), created_at
		FROM patients WHERE id = $1`, id).
		Scan(&p.ID, &p.Email, &p.FirstName, &p.LastName, &p.Phone, &p.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("patients: get %s: %w", id, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("patients: get: %w", err)
	}
	return &p, nil
}

// GetByEmail returns a patient by email, case-insensitively.
func (s *Store) GetByEmail(ctx context.Context, email string) (*Patient, error) {
	var p Patient
	err := s.db.QueryRow(ctx, `
		SELECT id, email, first_name, last_name, COALESCE(phone, ''), created_at
		FROM patients WHERE lower(email) = lower($1)`, email).
		Scan(&p.ID, &p.Email, &p.FirstName, &p.LastName, &p.Phone, &p.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("patients: get by email: %w", ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("patients: get by email: %w", err)
	}
	return &p, nil
}

// Upsert inserts the patient or, when the email is already registered,
// refreshes the name and phone and returns the existing id.
func (s *Store) Upsert(ctx context.Context, p *Patient) (uuid.UUID, error) {
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	var id uuid.UUID
	err := s.db.QueryRow(ctx, `
		INSERT INTO patients (id, email, first_name, last_name, phone)
		VALUES ($1, lower($2), $3, $4, NULLIF($5, ''))
		ON CONFLICT (email) DO UPDATE
		SET first_name = EXCLUDED.first_name,
		    last_name  = EXCLUDED.last_name,
		    phone      = COALESCE(EXCLUDED.phone, patients.phone)
		RETURNING id`,
		p.ID, p.Email, p.FirstName, p.LastName, p.Phone).Scan(&id)
	if err != nil {
		return uuid.Nil, fmt.Errorf("patients: upsert: %w", err)
	}
	return id, nil
}
