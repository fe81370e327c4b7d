package booking

import (
	"encoding/json"
	"fmt"
	"time"

	"venuebook/internal/domain"
)

// EventPayload is the machine-readable part of every booking notification.
type EventPayload struct {
	BookingID     int64                `json:"booking_id"`
	VenueID       int64                `json:"venue_id"`
	HallID        int64                `json:"hall_id"`
	PlannerID     int64                `json:"planner_id"`
	Event         string               `json:"event"`
	FromStatus    domain.BookingStatus `json:"from_status,omitempty"`
	ToStatus      domain.BookingStatus `json:"to_status"`
	StartDate     string               `json:"start_date"`
	TotalAmount   int64                `json:"total_amount"`
	DepositAmount int64                `json:"deposit_amount"`
	BalanceAmount int64                `json:"balance_amount"`
	PaymentStatus domain.PaymentStatus `json:"payment_status"`
	Reason        string               `json:"reason,omitempty"`
	RefundDue     int64                `json:"refund_due,omitempty"`
	DueDate       string               `json:"due_date,omitempty"`
	OccurredAt    time.Time            `json:"occurred_at"`
}

var notificationTitles = map[domain.NotificationType]string{
	domain.NotifBookingRequested:             "New booking request",
	domain.NotifBookingAccepted:              "Booking accepted",
	domain.NotifBookingPaid:                  "Deposit received",
	domain.NotifBookingConfirmed:             "Booking confirmed",
	domain.NotifBookingCompleted:             "Booking completed",
	domain.NotifBookingCancelled:             "Booking cancelled",
	domain.NotifBookingCancellationRequested: "Cancellation requested",
	domain.NotifBookingCancellationDeclined:  "Cancellation declined",
	domain.NotifBookingPaymentFailed:         "Payment failed",
	domain.NotifBookingPaymentDue:            "Payment due soon",
}

func (s *Service) buildMessage(userID int64, typ domain.NotificationType, b *domain.Booking, p EventPayload) (*domain.OutboxMessage, error) {
	raw, err := json.Marshal(p)
	if err != nil {
		return nil, fmt.Errorf("marshal payload: %w", err)
	}

	bookingID := b.ID
	msg := &domain.OutboxMessage{
		UserID:    userID,
		BookingID: &bookingID,
		Type:      typ,
		Title:     notificationTitles[typ],
		Body:      notificationBody(typ, b, p),
		Payload:   string(raw),
		CreatedAt: p.OccurredAt,
	}
	if s.cfg.PublicBaseURL != "" {
		msg.LinkURL = fmt.Sprintf("%s/bookings/%d", s.cfg.PublicBaseURL, b.ID)
	}
	return msg, nil
}

func notificationBody(typ domain.NotificationType, b *domain.Booking, p EventPayload) string {
	day := b.StartDate.Format(domain.DayLayout)
	switch typ {
	case domain.NotifBookingRequested:
		return fmt.Sprintf("Booking #%d for %s with %d guests is waiting for your answer.", b.ID, day, b.Guests)
	case domain.NotifBookingPaymentDue:
		return fmt.Sprintf("Payment for booking #%d on %s is due by %s.", b.ID, day, p.DueDate)
	case domain.NotifBookingCancelled:
		if p.RefundDue > 0 {
			return fmt.Sprintf("Booking #%d on %s was cancelled. Refund due: %d.", b.ID, day, p.RefundDue)
		}
		if p.Reason != "" {
			return fmt.Sprintf("Booking #%d on %s was cancelled: %s.", b.ID, day, p.Reason)
		}
		return fmt.Sprintf("Booking #%d on %s was cancelled.", b.ID, day)
	case domain.NotifBookingCancellationRequested:
		return fmt.Sprintf("The planner asked to cancel booking #%d on %s: %s.", b.ID, day, p.Reason)
	default:
		return fmt.Sprintf("Booking #%d on %s is now %s.", b.ID, day, p.ToStatus)
	}
}

func payloadFor(b *domain.Booking, ev Event, from domain.BookingStatus, now time.Time) EventPayload {
	return EventPayload{
		BookingID:     b.ID,
		VenueID:       b.VenueID,
		HallID:        b.HallID,
		PlannerID:     b.PlannerID,
		Event:         string(ev),
		FromStatus:    from,
		ToStatus:      b.Status,
		StartDate:     b.StartDate.Format(domain.DayLayout),
		TotalAmount:   b.TotalAmount,
		DepositAmount: b.DepositAmount,
		BalanceAmount: b.BalanceAmount,
		PaymentStatus: b.PaymentStatus,
		Reason:        b.CancellationReason,
		OccurredAt:    now,
	}
}

// recipients returns who hears about a change: the other side of the booking,
// or both sides when the system or an admin acted.
func recipients(actor Actor, plannerID, ownerID int64) []int64 {
	switch actor.UserID {
	case plannerID:
		if actor.Role != domain.RoleAdmin {
			return []int64{ownerID}
		}
	case ownerID:
		if actor.Role != domain.RoleAdmin {
			return []int64{plannerID}
		}
	}
	return []int64{plannerID, ownerID}
}
