package domain

import "time"

// BookingEvent is one row of a booking's status history.
type BookingEvent struct {
	ID         int64         `json:"id"`
	BookingID  int64         `json:"booking_id" gorm:"not null;index"`
	Event      string        `json:"event" gorm:"size:64;not null"`
	FromStatus BookingStatus `json:"from_status,omitempty" gorm:"size:32"`
	ToStatus   BookingStatus `json:"to_status" gorm:"size:32;not null"`
	ActorID    int64         `json:"actor_id"`
	ActorRole  UserRole      `json:"actor_role" gorm:"size:32"`
	Override   bool          `json:"override"`
	Reason     string        `json:"reason,omitempty" gorm:"type:text"`
	CreatedAt  time.Time     `json:"created_at"`
}
