package catalog

import (
	"context"

	"venuebook/internal/domain"
	"venuebook/internal/repository"
)

type VenueRepository interface {
	Create(ctx context.Context, v *domain.Venue) error
	GetByID(ctx context.Context, id int64) (*domain.Venue, error)
	List(ctx context.Context, f repository.VenueFilter) ([]domain.Venue, int64, error)
}

type HallRepository interface {
	Create(ctx context.Context, h *domain.Hall) error
	GetByID(ctx context.Context, id int64) (*domain.Hall, error)
	Update(ctx context.Context, id int64, updates map[string]any) error
}

type BlockedDateRepository interface {
	BlockManual(ctx context.Context, hallID, actorID int64, days []string, reason string) error
	DeleteManual(ctx context.Context, hallID int64, day string) error
	ListByHall(ctx context.Context, hallID int64, from, to string) ([]domain.BlockedDate, error)
}
