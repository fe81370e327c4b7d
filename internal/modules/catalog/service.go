package catalog

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"

	"venuebook/internal/domain"
	"venuebook/internal/pkg/validator"
	"venuebook/internal/repository"
)

type Service struct {
	venues  VenueRepository
	halls   HallRepository
	blocked BlockedDateRepository
}

func NewService(venues VenueRepository, halls HallRepository, blocked BlockedDateRepository) *Service {
	return &Service{venues: venues, halls: halls, blocked: blocked}
}

/* ---------- VENUE ---------- */

func (s *Service) CreateVenue(ctx context.Context, userID int64, role domain.UserRole, req CreateVenueRequest) (*domain.Venue, error) {
	var ownerID int64
	switch role {
	case domain.RoleVenueHolder:
		ownerID = userID
	case domain.RoleAdmin:
		if req.OwnerID <= 0 {
			return nil, fmt.Errorf("%w: owner_id is required", ErrValidation)
		}
		ownerID = req.OwnerID
	default:
		return nil, ErrForbidden
	}

	v := &domain.Venue{
		OwnerID:     ownerID,
		Name:        strings.TrimSpace(req.Name),
		Description: strings.TrimSpace(req.Description),
		Address:     strings.TrimSpace(req.Address),
		City:        strings.TrimSpace(req.City),
		IsActive:    true,
	}
	if err := s.venues.Create(ctx, v); err != nil {
		return nil, err
	}
	return v, nil
}

func (s *Service) GetVenue(ctx context.Context, id int64) (*domain.Venue, error) {
	v, err := s.venues.GetByID(ctx, id)
	if err != nil {
		return nil, mapNotFound(err)
	}
	if !v.IsActive {
		return nil, ErrNotFound
	}
	return v, nil
}

func (s *Service) ListVenues(ctx context.Context, f repository.VenueFilter) ([]domain.Venue, int64, error) {
	return s.venues.List(ctx, f)
}

/* ---------- HALL ---------- */

func (s *Service) CreateHall(ctx context.Context, userID int64, role domain.UserRole, venueID int64, req CreateHallRequest) (*domain.Hall, error) {
	v, err := s.venues.GetByID(ctx, venueID)
	if err != nil {
		return nil, mapNotFound(err)
	}
	if !canManage(v, userID, role) {
		return nil, ErrForbidden
	}
	if err := validateHall(req.Capacity, req.Price, req.DepositPercentage, req.BalanceDueDays); err != nil {
		return nil, err
	}

	h := &domain.Hall{
		VenueID:           v.ID,
		Name:              strings.TrimSpace(req.Name),
		Capacity:          req.Capacity,
		Price:             req.Price,
		DepositPercentage: req.DepositPercentage,
		BalanceDueDays:    req.BalanceDueDays,
		IsActive:          true,
	}
	if err := s.halls.Create(ctx, h); err != nil {
		return nil, err
	}
	return h, nil
}

// UpdateHall changes hall terms. Existing bookings keep the amounts they were
// created with.
func (s *Service) UpdateHall(ctx context.Context, userID int64, role domain.UserRole, hallID int64, req UpdateHallRequest) (*domain.Hall, error) {
	h, err := s.halls.GetByID(ctx, hallID)
	if err != nil {
		return nil, mapNotFound(err)
	}
	if !canManage(h.Venue, userID, role) {
		return nil, ErrForbidden
	}

	updates := map[string]any{}
	next := *h
	if req.Name != nil {
		next.Name = strings.TrimSpace(*req.Name)
		updates["name"] = next.Name
	}
	if req.Capacity != nil {
		next.Capacity = *req.Capacity
		updates["capacity"] = next.Capacity
	}
	if req.Price != nil {
		next.Price = *req.Price
		updates["price"] = next.Price
	}
	if req.DepositPercentage != nil {
		next.DepositPercentage = *req.DepositPercentage
		updates["deposit_percentage"] = next.DepositPercentage
	}
	if req.BalanceDueDays != nil {
		next.BalanceDueDays = *req.BalanceDueDays
		updates["balance_due_days"] = next.BalanceDueDays
	}
	if req.IsActive != nil {
		next.IsActive = *req.IsActive
		updates["is_active"] = next.IsActive
	}
	if len(updates) == 0 {
		return h, nil
	}
	if err := validateHall(next.Capacity, next.Price, next.DepositPercentage, next.BalanceDueDays); err != nil {
		return nil, err
	}

	if err := s.halls.Update(ctx, hallID, updates); err != nil {
		return nil, mapNotFound(err)
	}
	return s.halls.GetByID(ctx, hallID)
}

func (s *Service) GetHall(ctx context.Context, id int64) (*domain.Hall, error) {
	h, err := s.halls.GetByID(ctx, id)
	if err != nil {
		return nil, mapNotFound(err)
	}
	return h, nil
}

/* ---------- BLOCKED DATES ---------- */

func (s *Service) ListBlockedDates(ctx context.Context, hallID int64, from, to string) ([]domain.BlockedDate, error) {
	if _, err := s.GetHall(ctx, hallID); err != nil {
		return nil, err
	}
	return s.blocked.ListByHall(ctx, hallID, from, to)
}

// BlockDates marks days unavailable by hand. Days already blocked are left as they are.
func (s *Service) BlockDates(ctx context.Context, userID int64, role domain.UserRole, hallID int64, req BlockDatesRequest) ([]domain.BlockedDate, error) {
	h, err := s.halls.GetByID(ctx, hallID)
	if err != nil {
		return nil, mapNotFound(err)
	}
	if !canManage(h.Venue, userID, role) {
		return nil, ErrForbidden
	}

	days, err := normalizeDays(req.Dates)
	if err != nil {
		return nil, err
	}
	if err := s.blocked.BlockManual(ctx, hallID, userID, days, strings.TrimSpace(req.Reason)); err != nil {
		return nil, err
	}
	return s.blocked.ListByHall(ctx, hallID, days[0], days[len(days)-1])
}

// UnblockDate removes a manual block. Days held by a booking cannot be freed here.
func (s *Service) UnblockDate(ctx context.Context, userID int64, role domain.UserRole, hallID int64, day string) error {
	h, err := s.halls.GetByID(ctx, hallID)
	if err != nil {
		return mapNotFound(err)
	}
	if !canManage(h.Venue, userID, role) {
		return ErrForbidden
	}
	days, err := normalizeDays([]string{day})
	if err != nil {
		return err
	}
	return mapNotFound(s.blocked.DeleteManual(ctx, hallID, days[0]))
}

func canManage(v *domain.Venue, userID int64, role domain.UserRole) bool {
	if role == domain.RoleAdmin {
		return true
	}
	return v != nil && role == domain.RoleVenueHolder && v.OwnerID == userID
}

func validateHall(capacity int, price int64, depositPct, balanceDueDays int) error {
	switch {
	case capacity <= 0:
		return fmt.Errorf("%w: capacity must be > 0", ErrValidation)
	case price < 0 || price > domain.MaxAmount:
		return fmt.Errorf("%w: price must be between 0 and %d", ErrValidation, domain.MaxAmount)
	case depositPct < 1 || depositPct > 100:
		return fmt.Errorf("%w: deposit_percentage must be between 1 and 100", ErrValidation)
	case balanceDueDays < 0:
		return fmt.Errorf("%w: balance_due_days must be >= 0", ErrValidation)
	}
	return nil
}

func normalizeDays(in []string) ([]string, error) {
	seen := make(map[string]bool, len(in))
	out := make([]string, 0, len(in))
	for _, raw := range in {
		d, err := validator.ParseDate(raw)
		if err != nil {
			return nil, fmt.Errorf("%w: invalid date %q", ErrValidation, raw)
		}
		day := d.Format(domain.DayLayout)
		if !seen[day] {
			seen[day] = true
			out = append(out, day)
		}
	}
	if len(out) == 0 {
		return nil, fmt.Errorf("%w: no dates given", ErrValidation)
	}
	sort.Strings(out)
	return out, nil
}

func mapNotFound(err error) error {
	if errors.Is(err, repository.ErrNotFound) {
		return ErrNotFound
	}
	return err
}
