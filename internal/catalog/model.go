// Package catalog provides read access to the clinic's professions, workers
// and services, including procedure-duration resolution.
package catalog

import (
	"github.com/google/uuid"
)

// Profession groups workers and services and carries the procedure duration
// used for slot sizing. ProcedureMinutes must be positive when set.
type Profession struct {
	ID               uuid.UUID `json:"id"`
	Title            string    `json:"title"`
	ProcedureMinutes *int32    `json:"procedure_minutes,omitempty"`
}

// Worker is a practitioner patients book appointments with.
type Worker struct {
	ID              uuid.UUID  `json:"id"`
	FirstName       string     `json:"first_name"`
	LastName        string     `json:"last_name"`
	Description     string     `json:"description,omitempty"`
	ProfessionID    *uuid.UUID `json:"profession_id,omitempty"`
	ProfessionTitle string     `json:"profession_title,omitempty"`
	ExperienceYears int32      `json:"experience_years"`
	Status          string     `json:"status"`
}

// Service is a bookable procedure. Its profession supplies the duration.
type Service struct {
	ID              uuid.UUID  `json:"id"`
	Title           string     `json:"title"`
	Description     string     `json:"description,omitempty"`
	PriceCents      int64      `json:"price_cents"`
	ProfessionID    *uuid.UUID `json:"profession_id,omitempty"`
	ProfessionTitle string     `json:"profession_title,omitempty"`
	Status          string     `json:"status"`
}
