package booking

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"

	"venuebook/internal/domain"
	"venuebook/internal/pkg/clock"
	"venuebook/internal/pkg/logger"
	"venuebook/internal/repository"
)

type Config struct {
	ExpiryLookahead     time.Duration
	PaymentGracePeriod  time.Duration
	AutoCompleteEnabled bool
	PublicBaseURL       string
	// ScanLimit is the page size the sweep reads bookings in.
	ScanLimit int
}

type Deps struct {
	Tx       TxManager
	Bookings BookingRepository
	Halls    HallRepository
	Venues   VenueRepository
	Blocked  BlockedDateRepository
	Outbox   Outbox
	Clock    clock.Clock
	Log      logrus.FieldLogger
}

type Service struct {
	tx       TxManager
	bookings BookingRepository
	halls    HallRepository
	venues   VenueRepository
	blocked  BlockedDateRepository
	outbox   Outbox
	clock    clock.Clock
	log      logrus.FieldLogger
	cfg      Config
}

func NewService(d Deps, cfg Config) *Service {
	if d.Clock == nil {
		d.Clock = clock.NewSystem()
	}
	if cfg.ScanLimit <= 0 {
		cfg.ScanLimit = 500
	}
	return &Service{
		tx:       d.Tx,
		bookings: d.Bookings,
		halls:    d.Halls,
		venues:   d.Venues,
		blocked:  d.Blocked,
		outbox:   d.Outbox,
		clock:    d.Clock,
		log:      logger.OrDiscard(d.Log),
		cfg:      cfg,
	}
}

// MaxBookingDays bounds the length of a single booking.
const MaxBookingDays = 366

type CreateBookingInput struct {
	HallID    int64
	StartDate time.Time
	EndDate   *time.Time
	Guests    int
	Notes     string
}

// CreateBooking places a new request on a hall. The dates are checked against
// the hall's blocked days but not reserved until the owner accepts.
func (s *Service) CreateBooking(ctx context.Context, actor Actor, in CreateBookingInput) (*domain.Booking, error) {
	if actor.Role != domain.RolePlanner {
		return nil, ErrUnauthorized
	}

	now := s.clock.Now()
	start := domain.Day(in.StartDate)
	if in.Guests < 1 {
		return nil, NewValidationError("guests", "must be at least 1")
	}
	if !start.After(domain.Day(now)) {
		return nil, NewValidationError("start_date", "must be after today")
	}
	var end *time.Time
	if in.EndDate != nil {
		e := domain.Day(*in.EndDate)
		if e.Before(start) {
			return nil, NewValidationError("end_date", "must not be before start_date")
		}
		if e.After(start.AddDate(0, 0, MaxBookingDays-1)) {
			return nil, NewValidationError("end_date", fmt.Sprintf("a booking spans at most %d days", MaxBookingDays))
		}
		if e.After(start) {
			end = &e
		}
	}

	hall, err := s.halls.GetByID(ctx, in.HallID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, fmt.Errorf("hall %d: %w", in.HallID, ErrNotFound)
		}
		return nil, fmt.Errorf("load hall: %w", err)
	}
	if !hall.IsActive || hall.Venue == nil || !hall.Venue.IsActive {
		return nil, fmt.Errorf("hall %d: %w", in.HallID, ErrNotFound)
	}
	if in.Guests > hall.Capacity {
		return nil, fmt.Errorf("%w: %d guests, capacity %d", ErrCapacityExceeded, in.Guests, hall.Capacity)
	}

	amounts, err := ComputeAmounts(hall.Price, hall.DepositPercentage)
	if err != nil {
		return nil, err
	}

	b := &domain.Booking{
		VenueID:       hall.VenueID,
		HallID:        hall.ID,
		PlannerID:     actor.UserID,
		StartDate:     start,
		EndDate:       end,
		Guests:        in.Guests,
		TotalAmount:   amounts.Total,
		DepositAmount: amounts.Deposit,
		BalanceAmount: amounts.Balance,
		Status:        domain.BookingRequested,
		PaymentStatus: domain.PaymentPending,
		Notes:         in.Notes,
		CreatedAt:     now,
		UpdatedAt:     now,
	}

	err = s.tx.WithTx(ctx, func(ctx context.Context) error {
		taken, err := s.blocked.FindBlocked(ctx, hall.ID, b.Days())
		if err != nil {
			return fmt.Errorf("check blocked dates: %w", err)
		}
		if len(taken) > 0 {
			return &DateUnavailableError{Days: taken}
		}

		if err := s.bookings.Create(ctx, b); err != nil {
			return fmt.Errorf("create booking: %w", err)
		}
		if err := s.bookings.AppendEvent(ctx, &domain.BookingEvent{
			BookingID: b.ID,
			Event:     string(eventCreate),
			ToStatus:  b.Status,
			ActorID:   actor.UserID,
			ActorRole: actor.Role,
			CreatedAt: now,
		}); err != nil {
			return fmt.Errorf("append history: %w", err)
		}

		msg, err := s.buildMessage(hall.Venue.OwnerID, domain.NotifBookingRequested, b, payloadFor(b, eventCreate, "", now))
		if err != nil {
			return err
		}
		return s.outbox.Enqueue(ctx, msg)
	})
	if err != nil {
		return nil, err
	}

	s.log.WithFields(logrus.Fields{
		"booking_id": b.ID,
		"hall_id":    b.HallID,
		"planner_id": b.PlannerID,
		"start_date": b.StartDate.Format(domain.DayLayout),
	}).Info("booking requested")

	return b, nil
}

// Transition applies ev to the booking under a row lock. Settlement events that
// are already reflected return the booking unchanged.
func (s *Service) Transition(ctx context.Context, bookingID int64, ev Event, actor Actor, reason string) (*domain.Booking, error) {
	if !ev.Valid() {
		return nil, NewValidationError("event", "unknown event")
	}

	var (
		result   *domain.Booking
		override bool
		from     domain.BookingStatus
		changed  bool
	)

	err := s.tx.WithTx(ctx, func(ctx context.Context) error {
		b, err := s.bookings.GetByIDForUpdate(ctx, bookingID)
		if err != nil {
			if errors.Is(err, repository.ErrNotFound) {
				return fmt.Errorf("booking %d: %w", bookingID, ErrNotFound)
			}
			return fmt.Errorf("load booking: %w", err)
		}
		from = b.Status

		venue, err := s.venues.GetByID(ctx, b.VenueID)
		if err != nil {
			return fmt.Errorf("load venue: %w", err)
		}

		parties := actorParties(actor, b.PlannerID, venue.OwnerID)
		if parties == 0 {
			return ErrUnauthorized
		}
		if (ev == EventDepositSettled || ev == EventBalanceSettled) && parties&settlementParties == 0 {
			return ErrUnauthorized
		}
		if settledAlready(b, ev, parties) {
			result = b
			return nil
		}

		r, isOverride, err := lookupRule(b, ev, parties)
		if err != nil {
			return err
		}
		override = isOverride

		now := s.clock.Now()
		out, err := applyEvent(*b, ev, r, reason, now)
		if err != nil {
			return err
		}
		next := &out.booking

		if out.blockDates {
			if err := s.reserveDates(ctx, next, actor); err != nil {
				return err
			}
		}
		if out.releaseDates {
			if err := s.blocked.ReleaseForBooking(ctx, b.ID); err != nil {
				return fmt.Errorf("release blocked dates: %w", err)
			}
		}

		ok, err := s.bookings.UpdateIfStatus(ctx, next, from)
		if err != nil {
			return fmt.Errorf("update booking: %w", err)
		}
		if !ok {
			return &TransitionError{From: from, Event: ev, Reason: "booking changed concurrently"}
		}

		for _, st := range out.steps {
			if err := s.bookings.AppendEvent(ctx, &domain.BookingEvent{
				BookingID:  b.ID,
				Event:      string(ev),
				FromStatus: st.from,
				ToStatus:   st.to,
				ActorID:    actor.UserID,
				ActorRole:  actor.Role,
				Override:   override,
				Reason:     reason,
				CreatedAt:  now,
			}); err != nil {
				return fmt.Errorf("append history: %w", err)
			}
		}

		payload := payloadFor(next, ev, from, now)
		if reason != "" {
			payload.Reason = reason
		}
		payload.RefundDue = out.refundDue
		typ := notificationType(ev, out.final())
		for _, userID := range recipients(actor, b.PlannerID, venue.OwnerID) {
			msg, err := s.buildMessage(userID, typ, next, payload)
			if err != nil {
				return err
			}
			if err := s.outbox.Enqueue(ctx, msg); err != nil {
				return fmt.Errorf("enqueue notification: %w", err)
			}
		}

		result = next
		changed = true
		return nil
	})
	if err != nil {
		return nil, err
	}

	entry := s.log.WithFields(logrus.Fields{
		"booking_id": bookingID,
		"event":      ev,
		"from":       from,
		"to":         result.Status,
		"actor_id":   actor.UserID,
		"actor_role": actor.Role,
	})
	switch {
	case override:
		entry.Warn("admin override applied to booking")
	case changed:
		entry.Info("booking transition")
	default:
		entry.Debug("booking event already applied")
	}

	return result, nil
}

// reserveDates blocks every day of b for its hall. A concurrent accept of an
// overlapping booking loses on the unique (hall_id, day) index.
func (s *Service) reserveDates(ctx context.Context, b *domain.Booking, actor Actor) error {
	days := b.Days()
	taken, err := s.blocked.FindBlocked(ctx, b.HallID, days)
	if err != nil {
		return fmt.Errorf("check blocked dates: %w", err)
	}
	if len(taken) > 0 {
		return &DateUnavailableError{Days: taken}
	}
	if err := s.blocked.BlockForBooking(ctx, b.HallID, b.ID, actor.UserID, days); err != nil {
		if errors.Is(err, repository.ErrConflict) {
			return &DateUnavailableError{Days: days}
		}
		return fmt.Errorf("block dates: %w", err)
	}
	return nil
}

// GetBooking returns the booking if actor is its planner, the venue owner or an admin.
func (s *Service) GetBooking(ctx context.Context, id int64, actor Actor) (*domain.Booking, error) {
	b, err := s.bookings.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, fmt.Errorf("booking %d: %w", id, ErrNotFound)
		}
		return nil, err
	}
	var ownerID int64
	if b.Venue != nil {
		ownerID = b.Venue.OwnerID
	}
	// Outsiders see the same answer as for a missing id.
	if actorParties(actor, b.PlannerID, ownerID) == 0 {
		return nil, fmt.Errorf("booking %d: %w", id, ErrNotFound)
	}
	return b, nil
}

func (s *Service) History(ctx context.Context, id int64, actor Actor) ([]domain.BookingEvent, error) {
	if _, err := s.GetBooking(ctx, id, actor); err != nil {
		return nil, err
	}
	return s.bookings.ListEvents(ctx, id)
}

type ListQuery struct {
	Statuses []domain.BookingStatus
	From     *time.Time
	To       *time.Time
	Page     int
	PerPage  int
}

// ListForUser returns the planner's own bookings, or the bookings on every
// venue a holder owns. Admins see everything.
func (s *Service) ListForUser(ctx context.Context, actor Actor, q ListQuery) ([]domain.Booking, int64, error) {
	f := repository.BookingFilter{
		Statuses: q.Statuses,
		From:     q.From,
		To:       q.To,
		Page:     q.Page,
		PerPage:  q.PerPage,
	}
	switch actor.Role {
	case domain.RolePlanner:
		f.PlannerID = actor.UserID
	case domain.RoleVenueHolder:
		f.OwnerID = actor.UserID
	case domain.RoleAdmin:
	default:
		return nil, 0, ErrUnauthorized
	}
	return s.bookings.List(ctx, f)
}

func (s *Service) ListForVenue(ctx context.Context, venueID int64, actor Actor, q ListQuery) ([]domain.Booking, int64, error) {
	v, err := s.venues.GetByID(ctx, venueID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, 0, fmt.Errorf("venue %d: %w", venueID, ErrNotFound)
		}
		return nil, 0, err
	}
	if actor.Role != domain.RoleAdmin && v.OwnerID != actor.UserID {
		return nil, 0, ErrUnauthorized
	}
	return s.bookings.List(ctx, repository.BookingFilter{
		VenueID:  venueID,
		Statuses: q.Statuses,
		From:     q.From,
		To:       q.To,
		Page:     q.Page,
		PerPage:  q.PerPage,
	})
}
