package booking

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"venuebook/internal/domain"
)

func TestComputeAmounts_Example(t *testing.T) {
	a, err := ComputeAmounts(800000, 25)
	require.NoError(t, err)
	assert.Equal(t, int64(200000), a.Deposit)
	assert.Equal(t, int64(600000), a.Balance)
}

func TestComputeAmounts_SumsToTotal(t *testing.T) {
	totals := []int64{0, 1, 3, 49, 50, 99, 101, 333, 999, 12345, 800000, 1234567, 99999999}
	for _, total := range totals {
		for pct := 1; pct <= 100; pct++ {
			a, err := ComputeAmounts(total, pct)
			require.NoError(t, err)
			assert.Equal(t, total, a.Deposit+a.Balance, "total=%d pct=%d", total, pct)
			assert.GreaterOrEqual(t, a.Deposit, int64(0))
			assert.GreaterOrEqual(t, a.Balance, int64(0))
		}
	}
}

func TestComputeAmounts_RoundsHalfUp(t *testing.T) {
	// 15 * 10% = 1.5 -> 2
	a, err := ComputeAmounts(15, 10)
	require.NoError(t, err)
	assert.Equal(t, int64(2), a.Deposit)
	assert.Equal(t, int64(13), a.Balance)

	// 14 * 10% = 1.4 -> 1
	a, err = ComputeAmounts(14, 10)
	require.NoError(t, err)
	assert.Equal(t, int64(1), a.Deposit)
}

func TestComputeAmounts_FullDeposit(t *testing.T) {
	a, err := ComputeAmounts(500, 100)
	require.NoError(t, err)
	assert.Equal(t, int64(500), a.Deposit)
	assert.Zero(t, a.Balance)
}

func TestComputeAmounts_RejectsBadInput(t *testing.T) {
	for _, pct := range []int{0, -5, 101} {
		_, err := ComputeAmounts(1000, pct)
		assert.ErrorIs(t, err, ErrValidation, "pct=%d", pct)
	}
	_, err := ComputeAmounts(-1, 50)
	assert.ErrorIs(t, err, ErrValidation)
}

func TestComputeAmounts_LargestTotal(t *testing.T) {
	for _, pct := range []int{1, 33, 99, 100} {
		a, err := ComputeAmounts(domain.MaxAmount, pct)
		require.NoError(t, err)
		assert.Equal(t, domain.MaxAmount, a.Deposit+a.Balance, "pct=%d", pct)
		assert.GreaterOrEqual(t, a.Deposit, int64(0))
		assert.GreaterOrEqual(t, a.Balance, int64(0))
	}

	for _, total := range []int64{domain.MaxAmount + 1, 100_000_000_000_000_000, math.MaxInt64} {
		_, err := ComputeAmounts(total, 100)
		assert.ErrorIs(t, err, ErrValidation, "total=%d", total)
	}
}
