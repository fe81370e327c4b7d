package booking

import (
	"strings"
	"time"

	"venuebook/internal/domain"
)

type Event string

const (
	EventAccept              Event = "accept"
	EventDecline             Event = "decline"
	EventWithdraw            Event = "withdraw"
	EventDepositSettled      Event = "deposit_settled"
	EventBalanceSettled      Event = "balance_settled"
	EventPaymentFailed       Event = "payment_failed"
	EventComplete            Event = "complete"
	EventRequestCancellation Event = "request_cancellation"
	EventApproveCancellation Event = "approve_cancellation"
	EventDeclineCancellation Event = "decline_cancellation"
	EventPaymentExpired      Event = "payment_expired"

	// eventCreate only appears in history.
	eventCreate Event = "create"
)

var knownEvents = map[Event]bool{
	EventAccept: true, EventDecline: true, EventWithdraw: true,
	EventDepositSettled: true, EventBalanceSettled: true, EventPaymentFailed: true,
	EventComplete: true, EventRequestCancellation: true, EventApproveCancellation: true,
	EventDeclineCancellation: true, EventPaymentExpired: true,
}

func (e Event) Valid() bool { return knownEvents[e] }

// party is the side of a booking an actor stands on.
type party uint8

const (
	partyPlanner party = 1 << iota
	partyOwner
	partySystem
	partyAdmin
)

type rule struct {
	// to is empty when the target is the status saved before cancellation.
	to      domain.BookingStatus
	parties party
}

type edge struct {
	from  domain.BookingStatus
	event Event
}

var transitions = map[edge]rule{
	{domain.BookingRequested, EventAccept}:   {to: domain.BookingAccepted, parties: partyOwner},
	{domain.BookingRequested, EventDecline}:  {to: domain.BookingCancelled, parties: partyOwner},
	{domain.BookingRequested, EventWithdraw}: {to: domain.BookingCancelled, parties: partyPlanner},

	{domain.BookingAccepted, EventDepositSettled}: {to: domain.BookingPaid, parties: partyOwner | partySystem},
	{domain.BookingAccepted, EventPaymentFailed}:  {to: domain.BookingAccepted, parties: partyOwner | partySystem},
	{domain.BookingAccepted, EventPaymentExpired}: {to: domain.BookingCancelled, parties: partySystem},

	{domain.BookingPaid, EventBalanceSettled}:      {to: domain.BookingConfirmed, parties: partyOwner | partySystem},
	{domain.BookingPaid, EventPaymentFailed}:       {to: domain.BookingPaid, parties: partyOwner | partySystem},
	{domain.BookingPaid, EventRequestCancellation}: {to: domain.BookingCancellationRequested, parties: partyPlanner},

	{domain.BookingConfirmed, EventComplete}:            {to: domain.BookingCompleted, parties: partyOwner | partySystem},
	{domain.BookingConfirmed, EventRequestCancellation}: {to: domain.BookingCancellationRequested, parties: partyPlanner},

	{domain.BookingCancellationRequested, EventApproveCancellation}: {to: domain.BookingCancelled, parties: partyOwner},
	{domain.BookingCancellationRequested, EventDeclineCancellation}: {parties: partyOwner},
}

// Actor is whoever triggers an event.
type Actor struct {
	UserID int64
	Role   domain.UserRole
}

// SystemActor is used by the background sweep.
func SystemActor() Actor {
	return Actor{Role: domain.RoleSystem}
}

func actorParties(a Actor, plannerID, ownerID int64) party {
	switch a.Role {
	case domain.RoleSystem:
		return partySystem
	case domain.RoleAdmin:
		return partyAdmin
	}
	var p party
	if a.UserID != 0 && a.UserID == plannerID {
		p |= partyPlanner
	}
	if a.UserID != 0 && a.UserID == ownerID {
		p |= partyOwner
	}
	return p
}

type step struct {
	from domain.BookingStatus
	to   domain.BookingStatus
}

type outcome struct {
	booking      domain.Booking
	steps        []step
	blockDates   bool
	releaseDates bool
	refundDue    int64
}

func (o outcome) changed() bool { return len(o.steps) > 0 }

func (o outcome) final() domain.BookingStatus {
	if len(o.steps) == 0 {
		return o.booking.Status
	}
	return o.steps[len(o.steps)-1].to
}

// lookupRule finds the transition for ev and checks who may fire it.
// Admins may fire any edge; the returned flag marks that as an override.
func lookupRule(b *domain.Booking, ev Event, parties party) (rule, bool, error) {
	if parties == 0 {
		return rule{}, false, ErrUnauthorized
	}
	r, ok := transitions[edge{b.Status, ev}]
	if !ok {
		return rule{}, false, &TransitionError{From: b.Status, Event: ev}
	}
	if parties&partyAdmin != 0 {
		return r, true, nil
	}
	if r.parties&parties == 0 {
		return rule{}, false, ErrUnauthorized
	}
	return r, false, nil
}

// settlementParties may fire deposit_settled and balance_settled.
const settlementParties = partyOwner | partySystem | partyAdmin

// settledAlready reports a settlement event replayed on a booking whose status
// that settlement already produced.
func settledAlready(b *domain.Booking, ev Event, parties party) bool {
	if parties&settlementParties == 0 {
		return false
	}
	switch ev {
	case EventDepositSettled:
		return b.DepositPaid && (b.Status == domain.BookingPaid || b.Status == domain.BookingConfirmed)
	case EventBalanceSettled:
		return b.BalancePaid && b.Status == domain.BookingConfirmed
	}
	return false
}

// applyEvent computes the booking after ev. It does not touch storage.
func applyEvent(b domain.Booking, ev Event, r rule, reason string, now time.Time) (outcome, error) {
	out := outcome{booking: b}
	nb := &out.booking
	from := b.Status
	reason = strings.TrimSpace(reason)
	ts := now

	switch ev {
	case EventAccept:
		nb.AcceptedAt = &ts
		out.blockDates = true

	case EventDecline, EventWithdraw:
		if b.DepositPaid || b.BalancePaid {
			return outcome{}, &TransitionError{From: from, Event: ev, Reason: "payment already made"}
		}
		nb.CancellationReason = reason
		nb.CancelledAt = &ts

	case EventDepositSettled:
		nb.DepositPaid = true
		nb.PaymentStatus = domain.PaymentCompleted
		if b.BalanceAmount == 0 {
			// Full deposit covers the total: go straight through paid to confirmed.
			nb.BalancePaid = true
			nb.Status = domain.BookingConfirmed
			nb.UpdatedAt = now
			out.steps = []step{{from, domain.BookingPaid}, {domain.BookingPaid, domain.BookingConfirmed}}
			return out, nil
		}

	case EventBalanceSettled:
		if !b.DepositPaid {
			return outcome{}, &TransitionError{From: from, Event: ev, Reason: "deposit not settled"}
		}
		nb.BalancePaid = true
		nb.PaymentStatus = domain.PaymentCompleted

	case EventPaymentFailed:
		nb.PaymentStatus = domain.PaymentFailed

	case EventComplete:
		if domain.Day(now).Before(domain.Day(b.StartDate)) {
			return outcome{}, &TransitionError{From: from, Event: ev, Reason: "event date not reached"}
		}
		nb.CompletedAt = &ts

	case EventRequestCancellation:
		if reason == "" {
			return outcome{}, NewValidationError("reason", "required")
		}
		nb.StatusBeforeCancellation = from
		nb.CancellationReason = reason

	case EventApproveCancellation:
		nb.CancelledAt = &ts
		nb.StatusBeforeCancellation = ""
		if paid := b.AmountPaid(); paid > 0 {
			out.refundDue = paid
			nb.PaymentStatus = domain.PaymentRefunded
		}
		out.releaseDates = true

	case EventDeclineCancellation:
		nb.CancellationReason = ""
		nb.StatusBeforeCancellation = ""

	case EventPaymentExpired:
		if reason == "" {
			reason = "payment window expired"
		}
		nb.CancellationReason = reason
		nb.CancelledAt = &ts
		out.releaseDates = true

	default:
		return outcome{}, &TransitionError{From: from, Event: ev}
	}

	to := r.to
	if to == "" {
		to = restoreStatus(&b)
	}
	nb.Status = to
	nb.UpdatedAt = now
	out.steps = []step{{from, to}}
	return out, nil
}

func restoreStatus(b *domain.Booking) domain.BookingStatus {
	if b.StatusBeforeCancellation == domain.BookingPaid || b.StatusBeforeCancellation == domain.BookingConfirmed {
		return b.StatusBeforeCancellation
	}
	if b.BalancePaid {
		return domain.BookingConfirmed
	}
	return domain.BookingPaid
}

// notificationType picks the notification announcing ev.
func notificationType(ev Event, final domain.BookingStatus) domain.NotificationType {
	switch ev {
	case EventAccept:
		return domain.NotifBookingAccepted
	case EventDepositSettled:
		if final == domain.BookingConfirmed {
			return domain.NotifBookingConfirmed
		}
		return domain.NotifBookingPaid
	case EventBalanceSettled:
		return domain.NotifBookingConfirmed
	case EventComplete:
		return domain.NotifBookingCompleted
	case EventRequestCancellation:
		return domain.NotifBookingCancellationRequested
	case EventDeclineCancellation:
		return domain.NotifBookingCancellationDeclined
	case EventPaymentFailed:
		return domain.NotifBookingPaymentFailed
	default:
		return domain.NotifBookingCancelled
	}
}
