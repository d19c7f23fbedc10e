package user

import (
	"time"

	"github.com/google/uuid"
)

// User is a read-side projection of an account managed by the identity
// platform. Mutations arrive through the event stream, never through the
// HTTP API.
type User struct {
	ID              uuid.UUID  `db:"id" json:"id"`
	Sub             string     `db:"sub" json:"sub"`
	FirstName       *string    `db:"first_name" json:"first_name,omitempty"`
	LastName        *string    `db:"last_name" json:"last_name,omitempty"`
	MiddleName      *string    `db:"middle_name" json:"middle_name,omitempty"`
	IIN             *string    `db:"iin" json:"iin,omitempty"`
	DateOfBirth     *time.Time `db:"date_of_birth" json:"date_of_birth,omitempty"`
	ClientRoles     []string   `db:"client_roles" json:"client_roles,omitempty"`
	Enabled         bool       `db:"enabled" json:"enabled"`
	Specializations []string   `db:"specializations" json:"specializations,omitempty"`
	ServedAreas     []string   `db:"served_areas" json:"served_areas,omitempty"`
	ServedClinics   []string   `db:"served_clinics" json:"served_clinics,omitempty"`
	CreatedAt       time.Time  `db:"created_at" json:"created_at"`
	UpdatedAt       time.Time  `db:"updated_at" json:"updated_at"`
}

// HasRole reports whether the user carries the given client role.
func (u *User) HasRole(role string) bool {
	for _, r := range u.ClientRoles {
		if r == role {
			return true
		}
	}
	return false
}
