package repository

import (
	"context"
	"fmt"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"venuebook/internal/database"
	"venuebook/internal/domain"
)

type BlockedDateRepository struct {
	db *gorm.DB
}

func NewBlockedDateRepository(db *gorm.DB) *BlockedDateRepository {
	return &BlockedDateRepository{db: db}
}

// FindBlocked returns which of days are already blocked for the hall.
func (r *BlockedDateRepository) FindBlocked(ctx context.Context, hallID int64, days []string) ([]string, error) {
	if len(days) == 0 {
		return nil, nil
	}
	var out []string
	err := database.Conn(ctx, r.db).
		Model(&domain.BlockedDate{}).
		Where("hall_id = ? AND day IN ?", hallID, days).
		Order("day ASC").
		Pluck("day", &out).Error
	return out, err
}

// BlockForBooking inserts one row per day. A day already taken yields ErrConflict.
func (r *BlockedDateRepository) BlockForBooking(ctx context.Context, hallID, bookingID, actorID int64, days []string) error {
	rows := make([]domain.BlockedDate, 0, len(days))
	for _, d := range days {
		id := bookingID
		rows = append(rows, domain.BlockedDate{
			HallID:    hallID,
			Day:       d,
			Source:    domain.BlockSourceBooking,
			BookingID: &id,
			CreatedBy: actorID,
		})
	}
	if err := database.Conn(ctx, r.db).Create(&rows).Error; err != nil {
		if database.IsUniqueViolation(err) {
			return fmt.Errorf("hall %d: %w", hallID, ErrConflict)
		}
		return err
	}
	return nil
}

func (r *BlockedDateRepository) ReleaseForBooking(ctx context.Context, bookingID int64) error {
	return database.Conn(ctx, r.db).
		Where("booking_id = ? AND source = ?", bookingID, domain.BlockSourceBooking).
		Delete(&domain.BlockedDate{}).Error
}

// BlockManual inserts manual blocks, skipping days that are already blocked.
func (r *BlockedDateRepository) BlockManual(ctx context.Context, hallID, actorID int64, days []string, reason string) error {
	rows := make([]domain.BlockedDate, 0, len(days))
	for _, d := range days {
		rows = append(rows, domain.BlockedDate{
			HallID:    hallID,
			Day:       d,
			Source:    domain.BlockSourceManual,
			Reason:    reason,
			CreatedBy: actorID,
		})
	}
	return database.Conn(ctx, r.db).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "hall_id"}, {Name: "day"}},
			DoNothing: true,
		}).
		Create(&rows).Error
}

// DeleteManual removes a manual block. Booking blocks are left alone.
func (r *BlockedDateRepository) DeleteManual(ctx context.Context, hallID int64, day string) error {
	res := database.Conn(ctx, r.db).
		Where("hall_id = ? AND day = ? AND source = ?", hallID, day, domain.BlockSourceManual).
		Delete(&domain.BlockedDate{})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *BlockedDateRepository) ListByHall(ctx context.Context, hallID int64, from, to string) ([]domain.BlockedDate, error) {
	q := database.Conn(ctx, r.db).Where("hall_id = ?", hallID)
	if from != "" {
		q = q.Where("day >= ?", from)
	}
	if to != "" {
		q = q.Where("day <= ?", to)
	}
	var out []domain.BlockedDate
	err := q.Order("day ASC").Find(&out).Error
	return out, err
}
