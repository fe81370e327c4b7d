package domain

import "time"

type BookingStatus string

const (
	BookingRequested             BookingStatus = "requested"
	BookingAccepted              BookingStatus = "accepted"
	BookingPaid                  BookingStatus = "paid"
	BookingConfirmed             BookingStatus = "confirmed"
	BookingCompleted             BookingStatus = "completed"
	BookingCancellationRequested BookingStatus = "cancellation_requested"
	BookingCancelled             BookingStatus = "cancelled"
)

func (s BookingStatus) Valid() bool {
	switch s {
	case BookingRequested, BookingAccepted, BookingPaid, BookingConfirmed,
		BookingCompleted, BookingCancellationRequested, BookingCancelled:
		return true
	}
	return false
}

// Terminal statuses have no outgoing transitions.
func (s BookingStatus) Terminal() bool {
	return s == BookingCompleted || s == BookingCancelled
}

type PaymentStatus string

const (
	PaymentPending   PaymentStatus = "pending"
	PaymentCompleted PaymentStatus = "completed"
	PaymentFailed    PaymentStatus = "failed"
	PaymentRefunded  PaymentStatus = "refunded"
)

type Booking struct {
	ID            int64         `json:"id"`
	VenueID       int64         `json:"venue_id" gorm:"not null;index"`
	HallID        int64         `json:"hall_id" gorm:"not null;index"`
	PlannerID     int64         `json:"planner_id" gorm:"not null;index"`
	StartDate     time.Time     `json:"start_date" gorm:"not null;index"`
	EndDate       *time.Time    `json:"end_date,omitempty"`
	Guests        int           `json:"guests" gorm:"not null"`
	TotalAmount   int64         `json:"total_amount" gorm:"not null"`
	DepositAmount int64         `json:"deposit_amount" gorm:"not null"`
	BalanceAmount int64         `json:"balance_amount" gorm:"not null"`
	DepositPaid   bool          `json:"deposit_paid" gorm:"not null;default:false"`
	BalancePaid   bool          `json:"balance_paid" gorm:"not null;default:false"`
	Status        BookingStatus `json:"status" gorm:"size:32;not null;index"`
	PaymentStatus PaymentStatus `json:"payment_status" gorm:"size:32;not null"`
	Notes         string        `json:"notes,omitempty" gorm:"type:text"`

	CancellationReason string `json:"cancellation_reason,omitempty" gorm:"type:text"`
	// StatusBeforeCancellation is restored when a cancellation request is declined.
	StatusBeforeCancellation BookingStatus `json:"-" gorm:"size:32"`
	ExpiryNotificationSent   bool          `json:"expiry_notification_sent" gorm:"not null;default:false"`

	AcceptedAt  *time.Time `json:"accepted_at,omitempty"`
	CancelledAt *time.Time `json:"cancelled_at,omitempty"`
	CompletedAt *time.Time `json:"completed_at,omitempty"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`

	Venue   *Venue `json:"-" gorm:"foreignKey:VenueID"`
	Hall    *Hall  `json:"-" gorm:"foreignKey:HallID"`
	Planner *User  `json:"-" gorm:"foreignKey:PlannerID"`
}

// LastDay is the end date, or the start date for single-day bookings.
func (b *Booking) LastDay() time.Time {
	if b.EndDate != nil {
		return *b.EndDate
	}
	return b.StartDate
}

// Days lists every calendar day the booking occupies, as YYYY-MM-DD.
func (b *Booking) Days() []string {
	return DayRange(b.StartDate, b.LastDay())
}

// AmountPaid is what the planner has settled so far.
func (b *Booking) AmountPaid() int64 {
	var paid int64
	if b.DepositPaid {
		paid += b.DepositAmount
	}
	if b.BalancePaid {
		paid += b.BalanceAmount
	}
	return paid
}

const DayLayout = "2006-01-02"

// Day truncates t to its UTC calendar day.
func Day(t time.Time) time.Time {
	y, m, d := t.UTC().Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// DayRange returns the inclusive list of days between from and to.
func DayRange(from, to time.Time) []string {
	from, to = Day(from), Day(to)
	var days []string
	for d := from; !d.After(to); d = d.AddDate(0, 0, 1) {
		days = append(days, d.Format(DayLayout))
	}
	return days
}
