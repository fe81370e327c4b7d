package notification

import (
	"context"
	"errors"
	"time"

	"github.com/sirupsen/logrus"

	"venuebook/internal/domain"
	"venuebook/internal/pkg/clock"
	"venuebook/internal/pkg/logger"
	"venuebook/internal/repository"
)

type Service struct {
	repo   NotificationRepository
	outbox OutboxRepository
	clock  clock.Clock
	log    logrus.FieldLogger
}

func NewService(repo NotificationRepository, outbox OutboxRepository, clk clock.Clock, log logrus.FieldLogger) *Service {
	if clk == nil {
		clk = clock.NewSystem()
	}
	return &Service{repo: repo, outbox: outbox, clock: clk, log: logger.OrDiscard(log)}
}

type Inbox struct {
	Notifications []domain.Notification `json:"notifications"`
	UnreadCount   int64                 `json:"unread_count"`
	Total         int64                 `json:"total"`
	Page          int                   `json:"page"`
	PerPage       int                   `json:"per_page"`
}

func (s *Service) GetUserNotifications(ctx context.Context, userID int64, unreadOnly bool, page, perPage int) (*Inbox, error) {
	list, total, err := s.repo.ListByUser(ctx, userID, unreadOnly, page, perPage)
	if err != nil {
		return nil, err
	}
	unread, err := s.repo.CountUnread(ctx, userID)
	if err != nil {
		return nil, err
	}
	if list == nil {
		list = []domain.Notification{}
	}
	return &Inbox{
		Notifications: list,
		UnreadCount:   unread,
		Total:         total,
		Page:          page,
		PerPage:       perPage,
	}, nil
}

func (s *Service) MarkAsRead(ctx context.Context, id, userID int64) error {
	err := s.repo.MarkAsRead(ctx, id, userID, s.clock.Now())
	if errors.Is(err, repository.ErrNotFound) {
		return ErrNotFound
	}
	return err
}

func (s *Service) MarkAllAsRead(ctx context.Context, userID int64) (int64, error) {
	return s.repo.MarkAllAsRead(ctx, userID, s.clock.Now())
}

type CleanupReport struct {
	Notifications int64 `json:"notifications"`
	Outbox        int64 `json:"outbox"`
}

// Cleanup prunes read notifications and delivered outbox rows older than retention.
func (s *Service) Cleanup(ctx context.Context, retention time.Duration) (CleanupReport, error) {
	cutoff := s.clock.Now().Add(-retention)

	var rep CleanupReport
	n, err := s.repo.DeleteReadBefore(ctx, cutoff)
	if err != nil {
		return rep, err
	}
	rep.Notifications = n

	o, err := s.outbox.DeleteDeliveredBefore(ctx, cutoff)
	if err != nil {
		return rep, err
	}
	rep.Outbox = o

	s.log.WithFields(logrus.Fields{
		"notifications": rep.Notifications,
		"outbox":        rep.Outbox,
		"cutoff":        cutoff.Format(time.RFC3339),
	}).Info("notification cleanup completed")
	return rep, nil
}
