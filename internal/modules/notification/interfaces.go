package notification

import (
	"context"
	"time"

	"venuebook/internal/domain"
)

type OutboxRepository interface {
	Claim(ctx context.Context, limit int, claimToken string, now, claimUntil time.Time) ([]domain.OutboxMessage, error)
	MarkDelivered(ctx context.Context, id, claimToken string, at time.Time) error
	MarkFailed(ctx context.Context, id, claimToken, errMsg string) error
	MarkDeadLettered(ctx context.Context, id, claimToken, errMsg string, at time.Time) error
	DeleteDeliveredBefore(ctx context.Context, cutoff time.Time) (int64, error)
}

type NotificationRepository interface {
	CreateOnce(ctx context.Context, n *domain.Notification) error
	ListByUser(ctx context.Context, userID int64, unreadOnly bool, page, perPage int) ([]domain.Notification, int64, error)
	CountUnread(ctx context.Context, userID int64) (int64, error)
	MarkAsRead(ctx context.Context, id, userID int64, at time.Time) error
	MarkAllAsRead(ctx context.Context, userID int64, at time.Time) (int64, error)
	DeleteReadBefore(ctx context.Context, cutoff time.Time) (int64, error)
}

type UserRepository interface {
	GetByID(ctx context.Context, id int64) (*domain.User, error)
}
