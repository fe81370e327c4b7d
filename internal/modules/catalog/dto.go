package catalog

type CreateVenueRequest struct {
	Name        string `json:"name" validate:"required,min=2,max=255"`
	Description string `json:"description" validate:"max=5000"`
	Address     string `json:"address" validate:"required,max=500"`
	City        string `json:"city" validate:"required,max=128"`
	// OwnerID is only honoured for admins creating a venue on a holder's behalf.
	OwnerID int64 `json:"owner_id" validate:"omitempty,gt=0"`
}

type CreateHallRequest struct {
	Name              string `json:"name" validate:"required,min=1,max=255"`
	Capacity          int    `json:"capacity" validate:"required,gt=0"`
	Price             int64  `json:"price" validate:"gte=0,lte=92233720368547758"`
	DepositPercentage int    `json:"deposit_percentage" validate:"required,min=1,max=100"`
	BalanceDueDays    int    `json:"balance_due_days" validate:"gte=0,lte=365"`
}

// UpdateHallRequest changes only the fields that are present.
type UpdateHallRequest struct {
	Name              *string `json:"name" validate:"omitempty,min=1,max=255"`
	Capacity          *int    `json:"capacity" validate:"omitempty,gt=0"`
	Price             *int64  `json:"price" validate:"omitempty,gte=0,lte=92233720368547758"`
	DepositPercentage *int    `json:"deposit_percentage" validate:"omitempty,min=1,max=100"`
	BalanceDueDays    *int    `json:"balance_due_days" validate:"omitempty,gte=0,lte=365"`
	IsActive          *bool   `json:"is_active"`
}

type BlockDatesRequest struct {
	Dates  []string `json:"dates" validate:"required,min=1,max=366,dive,date"`
	Reason string   `json:"reason" validate:"max=500"`
}
