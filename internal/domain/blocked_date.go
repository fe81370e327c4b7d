package domain

import "time"

type BlockSource string

const (
	BlockSourceBooking BlockSource = "booking"
	BlockSourceManual  BlockSource = "manual"
)

// BlockedDate marks a hall unavailable for one calendar day.
type BlockedDate struct {
	ID        int64       `json:"id"`
	HallID    int64       `json:"hall_id" gorm:"not null;uniqueIndex:idx_hall_day"`
	Day       string      `json:"date" gorm:"size:10;not null;uniqueIndex:idx_hall_day"`
	Source    BlockSource `json:"source" gorm:"size:16;not null"`
	BookingID *int64      `json:"booking_id,omitempty" gorm:"index"`
	Reason    string      `json:"reason,omitempty"`
	CreatedBy int64       `json:"created_by"`
	CreatedAt time.Time   `json:"created_at"`
}
