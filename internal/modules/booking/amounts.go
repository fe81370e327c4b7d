package booking

import (
	"fmt"

	"venuebook/internal/domain"
)

// Amounts is the monetary split of a booking, in minor currency units.
type Amounts struct {
	Total   int64
	Deposit int64
	Balance int64
}

// ComputeAmounts splits total into deposit and balance. The deposit is
// total*pct/100 rounded half up, so deposit+balance always equals total.
func ComputeAmounts(total int64, depositPercentage int) (Amounts, error) {
	if total < 0 {
		return Amounts{}, NewValidationError("total_amount", "must be >= 0")
	}
	if total > domain.MaxAmount {
		return Amounts{}, NewValidationError("total_amount", fmt.Sprintf("must be <= %d", domain.MaxAmount))
	}
	if depositPercentage < 1 || depositPercentage > 100 {
		return Amounts{}, NewValidationError("deposit_percentage", "must be between 1 and 100")
	}

	deposit := (total*int64(depositPercentage) + 50) / 100
	return Amounts{
		Total:   total,
		Deposit: deposit,
		Balance: total - deposit,
	}, nil
}
