package repository

import (
	"context"
	"errors"

	"gorm.io/gorm"

	"venuebook/internal/database"
)

var (
	ErrNotFound = errors.New("record not found")
	// ErrConflict wraps unique constraint violations.
	ErrConflict = errors.New("conflicting record")
)

// Store opens transactions that repositories created from the same
// *gorm.DB pick up through the context.
type Store struct {
	db *gorm.DB
}

func NewStore(db *gorm.DB) *Store {
	return &Store{db: db}
}

func (s *Store) WithTx(ctx context.Context, fn func(ctx context.Context) error) error {
	return database.WithTx(ctx, s.db, fn)
}

func notFound(err error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return ErrNotFound
	}
	return err
}

func paginate(page, perPage int) (limit, offset int) {
	if page < 1 {
		page = 1
	}
	if perPage <= 0 {
		perPage = 20
	}
	if perPage > 100 {
		perPage = 100
	}
	return perPage, (page - 1) * perPage
}
