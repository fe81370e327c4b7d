package booking

import (
	"time"

	"venuebook/internal/domain"
)

type CreateBookingRequest struct {
	HallID    int64  `json:"hall_id" validate:"required,gt=0"`
	StartDate string `json:"start_date" validate:"required,date"`
	EndDate   string `json:"end_date" validate:"omitempty,date"`
	Guests    int    `json:"guests" validate:"required,min=1"`
	Notes     string `json:"notes" validate:"max=2000"`
}

type TransitionRequest struct {
	Event  string `json:"event" validate:"required"`
	Reason string `json:"reason" validate:"max=1000"`
}

type ReasonRequest struct {
	Reason string `json:"reason" validate:"max=1000"`
}

type CancellationRequest struct {
	Reason string `json:"reason" validate:"required,max=1000"`
}

type BookingResponse struct {
	ID                     int64                `json:"id"`
	VenueID                int64                `json:"venue_id"`
	HallID                 int64                `json:"hall_id"`
	PlannerID              int64                `json:"planner_id"`
	Status                 domain.BookingStatus `json:"status"`
	StartDate              string               `json:"start_date"`
	EndDate                string               `json:"end_date,omitempty"`
	Guests                 int                  `json:"guests"`
	TotalAmount            int64                `json:"total_amount"`
	DepositAmount          int64                `json:"deposit_amount"`
	BalanceAmount          int64                `json:"balance_amount"`
	DepositPaid            bool                 `json:"deposit_paid"`
	BalancePaid            bool                 `json:"balance_paid"`
	PaymentStatus          domain.PaymentStatus `json:"payment_status"`
	CancellationReason     string               `json:"cancellation_reason,omitempty"`
	ExpiryNotificationSent bool                 `json:"expiry_notification_sent"`
	Notes                  string               `json:"notes,omitempty"`
	AcceptedAt             *time.Time           `json:"accepted_at,omitempty"`
	CancelledAt            *time.Time           `json:"cancelled_at,omitempty"`
	CompletedAt            *time.Time           `json:"completed_at,omitempty"`
	CreatedAt              time.Time            `json:"created_at"`
	UpdatedAt              time.Time            `json:"updated_at"`
}

func toResponse(b *domain.Booking) BookingResponse {
	r := BookingResponse{
		ID:                     b.ID,
		VenueID:                b.VenueID,
		HallID:                 b.HallID,
		PlannerID:              b.PlannerID,
		Status:                 b.Status,
		StartDate:              b.StartDate.UTC().Format(domain.DayLayout),
		Guests:                 b.Guests,
		TotalAmount:            b.TotalAmount,
		DepositAmount:          b.DepositAmount,
		BalanceAmount:          b.BalanceAmount,
		DepositPaid:            b.DepositPaid,
		BalancePaid:            b.BalancePaid,
		PaymentStatus:          b.PaymentStatus,
		CancellationReason:     b.CancellationReason,
		ExpiryNotificationSent: b.ExpiryNotificationSent,
		Notes:                  b.Notes,
		AcceptedAt:             b.AcceptedAt,
		CancelledAt:            b.CancelledAt,
		CompletedAt:            b.CompletedAt,
		CreatedAt:              b.CreatedAt,
		UpdatedAt:              b.UpdatedAt,
	}
	if b.EndDate != nil {
		r.EndDate = b.EndDate.UTC().Format(domain.DayLayout)
	}
	return r
}

func toResponses(list []domain.Booking) []BookingResponse {
	out := make([]BookingResponse, 0, len(list))
	for i := range list {
		out = append(out, toResponse(&list[i]))
	}
	return out
}

type ListResponse struct {
	Items   []BookingResponse `json:"items"`
	Total   int64             `json:"total"`
	Page    int               `json:"page"`
	PerPage int               `json:"per_page"`
}
