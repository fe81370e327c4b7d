package domain

import (
	"math"
	"time"
)

type Venue struct {
	ID          int64     `json:"id"`
	OwnerID     int64     `json:"owner_id" gorm:"not null;index"`
	Name        string    `json:"name" gorm:"size:255;not null"`
	Description string    `json:"description,omitempty" gorm:"type:text"`
	Address     string    `json:"address"`
	City        string    `json:"city" gorm:"size:128;index"`
	IsActive    bool      `json:"is_active" gorm:"not null;default:true"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`

	Owner *User  `json:"-" gorm:"foreignKey:OwnerID"`
	Halls []Hall `json:"halls,omitempty" gorm:"foreignKey:VenueID"`
}

// MaxAmount is the largest price the deposit arithmetic can split without
// overflowing int64. Request validation uses the same literal.
const MaxAmount int64 = math.MaxInt64 / 100

// Hall is a bookable space inside a venue. Price is a flat amount in minor units.
type Hall struct {
	ID                int64     `json:"id"`
	VenueID           int64     `json:"venue_id" gorm:"not null;index"`
	Name              string    `json:"name" gorm:"size:255;not null"`
	Capacity          int       `json:"capacity" gorm:"not null"`
	Price             int64     `json:"price" gorm:"not null"`
	DepositPercentage int       `json:"deposit_percentage" gorm:"not null"`
	BalanceDueDays    int       `json:"balance_due_days" gorm:"not null;default:0"`
	IsActive          bool      `json:"is_active" gorm:"not null;default:true"`
	CreatedAt         time.Time `json:"created_at"`
	UpdatedAt         time.Time `json:"updated_at"`

	Venue *Venue `json:"-" gorm:"foreignKey:VenueID"`
}
