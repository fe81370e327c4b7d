package booking

import (
	"context"

	"venuebook/internal/domain"
	"venuebook/internal/repository"
)

// TxManager runs fn in a transaction that repositories find through ctx.
type TxManager interface {
	WithTx(ctx context.Context, fn func(ctx context.Context) error) error
}

type BookingRepository interface {
	Create(ctx context.Context, b *domain.Booking) error
	GetByID(ctx context.Context, id int64) (*domain.Booking, error)
	GetByIDForUpdate(ctx context.Context, id int64) (*domain.Booking, error)
	UpdateIfStatus(ctx context.Context, b *domain.Booking, expected domain.BookingStatus) (bool, error)
	MarkExpiryNotified(ctx context.Context, id int64) (bool, error)
	List(ctx context.Context, f repository.BookingFilter) ([]domain.Booking, int64, error)
	ListByStatus(ctx context.Context, statuses []domain.BookingStatus, afterID int64, limit int) ([]domain.Booking, error)
	AppendEvent(ctx context.Context, e *domain.BookingEvent) error
	ListEvents(ctx context.Context, bookingID int64) ([]domain.BookingEvent, error)
}

type HallRepository interface {
	GetByID(ctx context.Context, id int64) (*domain.Hall, error)
}

type VenueRepository interface {
	GetByID(ctx context.Context, id int64) (*domain.Venue, error)
}

type BlockedDateRepository interface {
	FindBlocked(ctx context.Context, hallID int64, days []string) ([]string, error)
	BlockForBooking(ctx context.Context, hallID, bookingID, actorID int64, days []string) error
	ReleaseForBooking(ctx context.Context, bookingID int64) error
}

// Outbox stores notifications in the caller's transaction.
type Outbox interface {
	Enqueue(ctx context.Context, msg *domain.OutboxMessage) error
}
