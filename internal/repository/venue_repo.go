package repository

import (
	"context"

	"gorm.io/gorm"

	"venuebook/internal/database"
	"venuebook/internal/domain"
)

type VenueRepository struct {
	db *gorm.DB
}

func NewVenueRepository(db *gorm.DB) *VenueRepository {
	return &VenueRepository{db: db}
}

type VenueFilter struct {
	OwnerID int64
	City    string
	Page    int
	PerPage int
}

func (r *VenueRepository) Create(ctx context.Context, v *domain.Venue) error {
	return database.Conn(ctx, r.db).Create(v).Error
}

// GetByID loads the venue with its active halls.
func (r *VenueRepository) GetByID(ctx context.Context, id int64) (*domain.Venue, error) {
	var v domain.Venue
	err := database.Conn(ctx, r.db).
		Preload("Halls", "is_active = ?", true).
		First(&v, id).Error
	if err != nil {
		return nil, notFound(err)
	}
	return &v, nil
}

func (r *VenueRepository) List(ctx context.Context, f VenueFilter) ([]domain.Venue, int64, error) {
	q := database.Conn(ctx, r.db).Model(&domain.Venue{}).Where("is_active = ?", true)
	if f.OwnerID > 0 {
		q = q.Where("owner_id = ?", f.OwnerID)
	}
	if f.City != "" {
		q = q.Where("LOWER(city) = LOWER(?)", f.City)
	}

	var total int64
	if err := q.Session(&gorm.Session{}).Count(&total).Error; err != nil {
		return nil, 0, err
	}

	limit, offset := paginate(f.Page, f.PerPage)
	var venues []domain.Venue
	err := q.Preload("Halls", "is_active = ?", true).
		Order("id ASC").
		Limit(limit).
		Offset(offset).
		Find(&venues).Error
	return venues, total, err
}

type HallRepository struct {
	db *gorm.DB
}

func NewHallRepository(db *gorm.DB) *HallRepository {
	return &HallRepository{db: db}
}

func (r *HallRepository) Create(ctx context.Context, h *domain.Hall) error {
	return database.Conn(ctx, r.db).Create(h).Error
}

// GetByID loads the hall with its venue, which carries the owner.
func (r *HallRepository) GetByID(ctx context.Context, id int64) (*domain.Hall, error) {
	var h domain.Hall
	if err := database.Conn(ctx, r.db).Preload("Venue").First(&h, id).Error; err != nil {
		return nil, notFound(err)
	}
	return &h, nil
}

func (r *HallRepository) Update(ctx context.Context, id int64, updates map[string]any) error {
	res := database.Conn(ctx, r.db).Model(&domain.Hall{}).Where("id = ?", id).Updates(updates)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}
