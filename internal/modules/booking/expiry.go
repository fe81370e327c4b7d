package booking

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"

	"venuebook/internal/domain"
)

// ScanReport summarizes one sweep.
type ScanReport struct {
	Scanned   int `json:"scanned"`
	Reminded  int `json:"reminded"`
	Expired   int `json:"expired"`
	Completed int `json:"completed"`
	Failed    int `json:"failed"`
}

// PaymentDueDate is when the outstanding payment of an accepted booking falls
// due: balanceDueDays before the start date, or at acceptance when the deposit
// covers the whole price.
func PaymentDueDate(b *domain.Booking, hall *domain.Hall) time.Time {
	if b.BalanceAmount == 0 {
		if b.AcceptedAt != nil {
			return *b.AcceptedAt
		}
		return b.UpdatedAt
	}
	return domain.Day(b.StartDate).AddDate(0, 0, -hall.BalanceDueDays)
}

// RunExpiryScan reminds planners whose payment is due within the lookahead,
// cancels accepted bookings whose grace period has passed, and completes
// confirmed bookings whose last day is over. Running it twice is harmless.
func (s *Service) RunExpiryScan(ctx context.Context) (ScanReport, error) {
	var report ScanReport
	now := s.clock.Now()
	halls := make(map[int64]*domain.Hall)

	err := s.eachByStatus(ctx, domain.BookingAccepted, func(b *domain.Booking) {
		report.Scanned++

		hall, ok := halls[b.HallID]
		if !ok {
			var err error
			hall, err = s.halls.GetByID(ctx, b.HallID)
			if err != nil {
				report.Failed++
				s.log.WithError(err).WithField("booking_id", b.ID).Error("expiry scan: load hall")
				return
			}
			halls[b.HallID] = hall
		}

		due := PaymentDueDate(b, hall)
		switch {
		case now.After(due.Add(s.cfg.PaymentGracePeriod)):
			expired, err := s.expire(ctx, b)
			if err != nil {
				report.Failed++
				s.log.WithError(err).WithField("booking_id", b.ID).Error("expiry scan: cancel")
				return
			}
			if expired {
				report.Expired++
			}

		case !b.ExpiryNotificationSent && !due.After(now.Add(s.cfg.ExpiryLookahead)):
			sent, err := s.remind(ctx, b, hall, due, now)
			if err != nil {
				report.Failed++
				s.log.WithError(err).WithField("booking_id", b.ID).Error("expiry scan: remind")
				return
			}
			if sent {
				report.Reminded++
			}
		}
	})
	if err != nil {
		return report, fmt.Errorf("scan accepted bookings: %w", err)
	}

	if s.cfg.AutoCompleteEnabled {
		today := domain.Day(now)
		err := s.eachByStatus(ctx, domain.BookingConfirmed, func(b *domain.Booking) {
			report.Scanned++
			if !domain.Day(b.LastDay()).Before(today) {
				return
			}
			if _, err := s.Transition(ctx, b.ID, EventComplete, SystemActor(), ""); err != nil {
				if errors.Is(err, ErrInvalidTransition) {
					return
				}
				report.Failed++
				s.log.WithError(err).WithField("booking_id", b.ID).Error("expiry scan: complete")
				return
			}
			report.Completed++
		})
		if err != nil {
			return report, fmt.Errorf("scan confirmed bookings: %w", err)
		}
	}

	s.log.WithFields(logrus.Fields{
		"scanned":   report.Scanned,
		"reminded":  report.Reminded,
		"expired":   report.Expired,
		"completed": report.Completed,
		"failed":    report.Failed,
	}).Info("expiry scan finished")

	return report, nil
}

// eachByStatus walks every booking in status, one page of ScanLimit at a time.
// Paging by id keeps bookings that change status mid-walk from shifting the
// pages that follow.
func (s *Service) eachByStatus(ctx context.Context, status domain.BookingStatus, fn func(*domain.Booking)) error {
	var afterID int64
	for {
		page, err := s.bookings.ListByStatus(ctx, []domain.BookingStatus{status}, afterID, s.cfg.ScanLimit)
		if err != nil {
			return err
		}
		for i := range page {
			if err := ctx.Err(); err != nil {
				return err
			}
			fn(&page[i])
		}
		if len(page) < s.cfg.ScanLimit {
			return nil
		}
		afterID = page[len(page)-1].ID
	}
}

func (s *Service) expire(ctx context.Context, b *domain.Booking) (bool, error) {
	_, err := s.Transition(ctx, b.ID, EventPaymentExpired, SystemActor(), "payment window expired")
	if err != nil {
		// Paid or cancelled since it was listed.
		if errors.Is(err, ErrInvalidTransition) {
			return false, nil
		}
		return false, err
	}
	return true, nil
}

// remind flips the reminder flag and enqueues the notice in one transaction.
// Only the run that flips the flag sends.
func (s *Service) remind(ctx context.Context, b *domain.Booking, hall *domain.Hall, due, now time.Time) (bool, error) {
	var sent bool
	err := s.tx.WithTx(ctx, func(ctx context.Context) error {
		flipped, err := s.bookings.MarkExpiryNotified(ctx, b.ID)
		if err != nil {
			return err
		}
		if !flipped {
			return nil
		}

		p := payloadFor(b, "payment_due", b.Status, now)
		p.DueDate = due.Format(domain.DayLayout)
		msg, err := s.buildMessage(b.PlannerID, domain.NotifBookingPaymentDue, b, p)
		if err != nil {
			return err
		}
		if err := s.outbox.Enqueue(ctx, msg); err != nil {
			return err
		}
		sent = true
		return nil
	})
	if err == nil && sent {
		s.log.WithFields(logrus.Fields{
			"booking_id": b.ID,
			"hall_id":    hall.ID,
			"due_date":   due.Format(domain.DayLayout),
		}).Info("payment reminder queued")
	}
	return sent, err
}
