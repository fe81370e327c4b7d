package repository

import (
	"context"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"venuebook/internal/database"
	"venuebook/internal/domain"
)

type BookingRepository struct {
	db *gorm.DB
}

func NewBookingRepository(db *gorm.DB) *BookingRepository {
	return &BookingRepository{db: db}
}

type BookingFilter struct {
	PlannerID int64
	VenueID   int64
	HallID    int64
	// OwnerID matches bookings on any venue the user owns.
	OwnerID  int64
	Statuses []domain.BookingStatus
	From     *time.Time
	To       *time.Time
	Page     int
	PerPage  int
}

func (r *BookingRepository) Create(ctx context.Context, b *domain.Booking) error {
	return database.Conn(ctx, r.db).Omit(clause.Associations).Create(b).Error
}

func (r *BookingRepository) GetByID(ctx context.Context, id int64) (*domain.Booking, error) {
	var b domain.Booking
	if err := database.Conn(ctx, r.db).Preload("Venue").First(&b, id).Error; err != nil {
		return nil, notFound(err)
	}
	return &b, nil
}

// GetByIDForUpdate row-locks the booking for the rest of the transaction.
func (r *BookingRepository) GetByIDForUpdate(ctx context.Context, id int64) (*domain.Booking, error) {
	var b domain.Booking
	err := database.Conn(ctx, r.db).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		First(&b, id).Error
	if err != nil {
		return nil, notFound(err)
	}
	return &b, nil
}

// UpdateIfStatus writes the lifecycle fields only while the stored status still
// equals expected. It reports whether the row was updated.
func (r *BookingRepository) UpdateIfStatus(ctx context.Context, b *domain.Booking, expected domain.BookingStatus) (bool, error) {
	res := database.Conn(ctx, r.db).
		Model(&domain.Booking{}).
		Where("id = ? AND status = ?", b.ID, expected).
		Updates(map[string]any{
			"status":                     b.Status,
			"status_before_cancellation": b.StatusBeforeCancellation,
			"deposit_paid":               b.DepositPaid,
			"balance_paid":               b.BalancePaid,
			"payment_status":             b.PaymentStatus,
			"cancellation_reason":        b.CancellationReason,
			"accepted_at":                b.AcceptedAt,
			"cancelled_at":               b.CancelledAt,
			"completed_at":               b.CompletedAt,
			"updated_at":                 b.UpdatedAt,
		})
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected == 1, nil
}

// MarkExpiryNotified flips the reminder flag once. Only the caller that
// flips it gets true.
func (r *BookingRepository) MarkExpiryNotified(ctx context.Context, id int64) (bool, error) {
	res := database.Conn(ctx, r.db).
		Model(&domain.Booking{}).
		Where("id = ? AND status = ? AND expiry_notification_sent = ?", id, domain.BookingAccepted, false).
		Update("expiry_notification_sent", true)
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected == 1, nil
}

func (r *BookingRepository) List(ctx context.Context, f BookingFilter) ([]domain.Booking, int64, error) {
	q := database.Conn(ctx, r.db).Model(&domain.Booking{})
	if f.OwnerID > 0 {
		q = q.Joins("JOIN venues ON venues.id = bookings.venue_id").
			Where("venues.owner_id = ?", f.OwnerID)
	}
	if f.PlannerID > 0 {
		q = q.Where("bookings.planner_id = ?", f.PlannerID)
	}
	if f.VenueID > 0 {
		q = q.Where("bookings.venue_id = ?", f.VenueID)
	}
	if f.HallID > 0 {
		q = q.Where("bookings.hall_id = ?", f.HallID)
	}
	if len(f.Statuses) > 0 {
		q = q.Where("bookings.status IN ?", f.Statuses)
	}
	if f.From != nil {
		q = q.Where("bookings.start_date >= ?", *f.From)
	}
	if f.To != nil {
		q = q.Where("bookings.start_date <= ?", *f.To)
	}

	var total int64
	if err := q.Session(&gorm.Session{}).Count(&total).Error; err != nil {
		return nil, 0, err
	}

	limit, offset := paginate(f.Page, f.PerPage)
	var out []domain.Booking
	err := q.Select("bookings.*").
		Order("bookings.start_date ASC, bookings.id ASC").
		Limit(limit).
		Offset(offset).
		Find(&out).Error
	return out, total, err
}

// ListByStatus returns up to limit bookings in the given statuses with an id
// above afterID, in id order. Callers page by passing the last id they saw.
func (r *BookingRepository) ListByStatus(ctx context.Context, statuses []domain.BookingStatus, afterID int64, limit int) ([]domain.Booking, error) {
	var out []domain.Booking
	err := database.Conn(ctx, r.db).
		Where("status IN ? AND id > ?", statuses, afterID).
		Order("id ASC").
		Limit(limit).
		Find(&out).Error
	return out, err
}

func (r *BookingRepository) AppendEvent(ctx context.Context, e *domain.BookingEvent) error {
	return database.Conn(ctx, r.db).Create(e).Error
}

func (r *BookingRepository) ListEvents(ctx context.Context, bookingID int64) ([]domain.BookingEvent, error) {
	var out []domain.BookingEvent
	err := database.Conn(ctx, r.db).
		Where("booking_id = ?", bookingID).
		Order("id ASC").
		Find(&out).Error
	return out, err
}
