// Package patients stores patient accounts and contact details.
package patients

import (
	"time"

	"github.com/google/uuid"
)

// Patient is a registered clinic patient.
type Patient struct {
	ID        uuid.UUID `json:"id"`
	Email     string    `json:"email"`
	FirstName string    `json:"first_name"`
	LastName  string    `json:"last_name"`
	Phone     string    `json:"phone,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

// DisplayName returns the patient's name for notification copy.
func (p *Patient) DisplayName() string {
	if p.FirstName == "" && p.LastName == "" {
		return p.Email
	}
	if p.LastName == "" {
		return p.FirstName
	}
	return p.FirstName + " " + p.LastName
}
