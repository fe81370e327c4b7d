package repository

import (
	"context"
	"fmt"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"venuebook/internal/database"
	"venuebook/internal/domain"
)

type OutboxRepository struct {
	db *gorm.DB
}

func NewOutboxRepository(db *gorm.DB) *OutboxRepository {
	return &OutboxRepository{db: db}
}

// Enqueue writes the message using the transaction in ctx, if any.
func (r *OutboxRepository) Enqueue(ctx context.Context, msg *domain.OutboxMessage) error {
	return database.Conn(ctx, r.db).Create(msg).Error
}

// Claim leases up to limit pending messages to claimToken until claimUntil.
func (r *OutboxRepository) Claim(ctx context.Context, limit int, claimToken string, now, claimUntil time.Time) ([]domain.OutboxMessage, error) {
	if limit <= 0 {
		return nil, nil
	}
	if claimToken == "" {
		return nil, fmt.Errorf("claim token is required")
	}

	var rows []domain.OutboxMessage
	err := database.WithTx(ctx, r.db, func(ctx context.Context) error {
		tx := database.Conn(ctx, r.db)
		subquery := tx.Model(&domain.OutboxMessage{}).
			Select("id").
			Where("delivered_at IS NULL").
			Where("dead_lettered_at IS NULL").
			Where("claim_until IS NULL OR claim_until < ?", now).
			Order("created_at ASC").
			Limit(limit).
			Clauses(clause.Locking{Strength: "UPDATE", Options: "SKIP LOCKED"})

		if err := database.Conn(ctx, r.db).Model(&domain.OutboxMessage{}).
			Where("id IN (?)", subquery).
			Updates(map[string]any{
				"claim_token": claimToken,
				"claim_until": claimUntil,
			}).Error; err != nil {
			return err
		}

		return database.Conn(ctx, r.db).
			Where("claim_token = ?", claimToken).
			Where("delivered_at IS NULL").
			Where("dead_lettered_at IS NULL").
			Order("created_at ASC").
			Find(&rows).Error
	})
	if err != nil {
		return nil, err
	}
	return rows, nil
}

func (r *OutboxRepository) MarkDelivered(ctx context.Context, id, claimToken string, at time.Time) error {
	return database.Conn(ctx, r.db).
		Model(&domain.OutboxMessage{}).
		Where("id = ? AND claim_token = ?", id, claimToken).
		Updates(map[string]any{
			"delivered_at": at,
			"claim_token":  "",
			"claim_until":  nil,
		}).Error
}

func (r *OutboxRepository) MarkFailed(ctx context.Context, id, claimToken, errMsg string) error {
	return database.Conn(ctx, r.db).
		Model(&domain.OutboxMessage{}).
		Where("id = ? AND claim_token = ?", id, claimToken).
		Updates(map[string]any{
			"attempts":    gorm.Expr("attempts + 1"),
			"last_error":  errMsg,
			"claim_token": "",
			"claim_until": nil,
		}).Error
}

func (r *OutboxRepository) MarkDeadLettered(ctx context.Context, id, claimToken, errMsg string, at time.Time) error {
	return database.Conn(ctx, r.db).
		Model(&domain.OutboxMessage{}).
		Where("id = ? AND claim_token = ?", id, claimToken).
		Updates(map[string]any{
			"attempts":         gorm.Expr("attempts + 1"),
			"last_error":       errMsg,
			"dead_lettered_at": at,
			"claim_token":      "",
			"claim_until":      nil,
		}).Error
}

// DeleteDeliveredBefore prunes delivered messages older than cutoff.
func (r *OutboxRepository) DeleteDeliveredBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	res := database.Conn(ctx, r.db).
		Where("delivered_at IS NOT NULL AND delivered_at < ?", cutoff).
		Delete(&domain.OutboxMessage{})
	return res.RowsAffected, res.Error
}
