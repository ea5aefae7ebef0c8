package patients

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	pgxmock "github.com/pashagolub/pgxmock/v4"
)

func TestGet(t *testing.T) {
	mock, err := pgxmock.NewPool()
	if err != nil {
		t.Fatalf("pgxmock: %v", err)
	}
	defer mock.Close()

	store := NewStore(mock)
	id := uuid.New()

	mock.ExpectQuery("SELECT id, email").
		WithArgs(id).
		WillReturnRows(pgxmock.NewRows([]string{
			"id", "email", "first_name", "last_name", "phone", "created_at",
		}).AddRow(id, "ivan@example.com", "Ivan", "Petrov", "+79990001122", time.Now()))

	p, err := store.Get(context.Background(), id)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if p.Email != "ivan@example.com" {
		t.Fatalf("unexpected email %q", p.Email)
	}
	if got := p.DisplayName(); got != "Ivan Petrov" {
		t.Fatalf("unexpected display name %q", got)
	}
}

func TestGetNotFound(t *testing.T) {
	mock, err := pgxmock.NewPool()
	if err != nil {
		t.Fatalf("pgxmock: %v", err)
	}
	defer mock.Close()

	store := NewStore(mock)
	id := uuid.New()

	mock.ExpectQuery("SELECT id, email").
		WithArgs(id).
		WillReturnRows(pgxmock.NewRows([]string{
			"id", "email", "first_name", "last_name", "phone", "created_at",
		}))

	if _, err := store.Get(context.Background(), id); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestUpsertReturnsExistingID(t *testing.T) {
	mock, err := pgxmock.NewPool()
	if err != nil {
		t.Fatalf("pgxmock: %v", err)
	}
	defer mock.Close()

	store := NewStore(mock)
	existing := uuid.New()
	p := &Patient{Email: "ivan@example.com", FirstName: "Ivan", LastName: "Petrov"}

	mock.ExpectQuery("INSERT INTO patients").
		WithArgs(pgxmock.AnyArg(), p.Email, p.FirstName, p.LastName, "").
		WillReturnRows(pgxmock.NewRows([]string{"id"}).AddRow(existing))

	id, err := store.Upsert(context.Background(), p)
	if err != nil {
		t.Fatalf("Upsert: %v", err)
	}
	if id != existing {
		t.Fatalf("expected conflict to return existing id %s, got %s", existing, id)
	}
}

func TestDisplayNameFallsBackToEmail(t *testing.T) {
	p := &Patient{Email: "anon@example.com"}
	if got := p.DisplayName(); got != "anon@example.com" {
		t.Fatalf("unexpected display name %q", got)
	}
}
