package domain

import "time"

type UserRole string

const (
	RolePlanner     UserRole = "planner"
	RoleVenueHolder UserRole = "venue_holder"
	RoleAdmin       UserRole = "admin"
	// RoleSystem is never stored. The background sweep acts with it.
	RoleSystem UserRole = "system"
)

func (r UserRole) Valid() bool {
	switch r {
	case RolePlanner, RoleVenueHolder, RoleAdmin:
		return true
	}
	return false
}

type User struct {
	ID           int64     `json:"id"`
	Email        string    `json:"email" gorm:"uniqueIndex;size:255;not null"`
	PasswordHash string    `json:"-" gorm:"not null"`
	Role         UserRole  `json:"role" gorm:"size:32;not null;index"`
	Name         string    `json:"name"`
	Phone        string    `json:"phone,omitempty"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}
