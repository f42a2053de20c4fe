package vault

import (
	"math/big"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestPosition(gross int64, duration time.Duration) *Position {
	t0 := time.Unix(1_700_000_000, 0)
	return &Position{
		ID:             1,
		StakeAmount:    big.NewInt(100),
		BookValue:      big.NewInt(100),
		ExpectedAssets: big.NewInt(100 + gross),
		OpenedAt:       t0,
		Maturity:       t0.Add(duration),
	}
}

func TestAccrualIsLinear(t *testing.T) {
	pos := newTestPosition(10, 10*time.Hour)

	assert.Equal(t, int64(0), pos.AccruedAt(pos.OpenedAt).Int64())
	assert.Equal(t, int64(5), pos.AccruedAt(pos.OpenedAt.Add(5*time.Hour)).Int64())
	assert.Equal(t, int64(9), pos.AccruedAt(pos.OpenedAt.Add(9*time.Hour)).Int64())
	assert.Equal(t, int64(10), pos.AccruedAt(pos.Maturity).Int64())
}

func TestAccrualCappedPastMaturity(t *testing.T) {
	// Linear extrapolation without the cap would report 20 at 2x duration
	// and 30 at 3x; the accrual must stay pinned at the gross profit.
	pos := newTestPosition(10, 10*time.Hour)

	for _, mult := range []int{1, 2, 3, 10, 1000} {
		at := pos.OpenedAt.Add(time.Duration(mult) * 10 * time.Hour)
		assert.Equal(t, int64(10), pos.AccruedAt(at).Int64(), "at %dx duration", mult)
	}
}

func TestAccrualBeforeOpenAndAfterClaim(t *testing.T) {
	pos := newTestPosition(10, 10*time.Hour)

	assert.Equal(t, int64(0), pos.AccruedAt(pos.OpenedAt.Add(-time.Hour)).Int64())

	pos.Claimed = true
	assert.Equal(t, int64(0), pos.AccruedAt(pos.Maturity.Add(time.Hour)).Int64(),
		"claimed position must not leave phantom accrual")
}

func TestAccrualZeroDuration(t *testing.T) {
	pos := newTestPosition(10, 0)
	assert.Equal(t, int64(10), pos.AccruedAt(pos.OpenedAt).Int64())
}

func TestLedgerFIFOClaimOrder(t *testing.T) {
	ledger := newPositionLedger(10)
	t0 := time.Unix(1_700_000_000, 0)

	for i := 0; i < 3; i++ {
		p := &Position{
			StakeAmount:    big.NewInt(100),
			BookValue:      big.NewInt(100),
			ExpectedAssets: big.NewInt(105),
			OpenedAt:       t0.Add(time.Duration(i) * time.Minute),
			Maturity:       t0.Add(time.Duration(i)*time.Minute + time.Hour),
		}
		require.NoError(t, ledger.append(p))
	}

	first := ledger.oldestUnclaimed()
	require.NotNil(t, first)
	assert.Equal(t, uint64(1), first.ID)

	ledger.markClaimed(first)
	assert.Equal(t, 2, ledger.active)

	second := ledger.oldestUnclaimed()
	require.NotNil(t, second)
	assert.Equal(t, uint64(2), second.ID)

	// The claimed position never reappears.
	for _, p := range ledger.activePositions() {
		assert.NotEqual(t, first.ID, p.ID)
	}
}

func TestLedgerMaxActive(t *testing.T) {
	ledger := newPositionLedger(2)
	mk := func() *Position {
		return &Position{
			StakeAmount:    big.NewInt(1),
			BookValue:      big.NewInt(1),
			ExpectedAssets: big.NewInt(2),
			OpenedAt:       time.Unix(0, 0),
			Maturity:       time.Unix(1, 0),
		}
	}

	require.NoError(t, ledger.append(mk()))
	require.NoError(t, ledger.append(mk()))
	assert.ErrorIs(t, ledger.append(mk()), ErrTooManyPositions)

	// Claiming frees a slot.
	ledger.markClaimed(ledger.oldestUnclaimed())
	require.NoError(t, ledger.append(mk()))
}

func TestLedgerTotalsSkimFee(t *testing.T) {
	ledger := newPositionLedger(10)
	t0 := time.Unix(1_700_000_000, 0)
	p := &Position{
		StakeAmount:    big.NewInt(1000),
		BookValue:      big.NewInt(950_000),
		ExpectedAssets: big.NewInt(1_000_000),
		OpenedAt:       t0,
		Maturity:       t0.Add(10 * time.Hour),
	}
	require.NoError(t, ledger.append(p))

	book, net := ledger.totals(t0.Add(5*time.Hour), 1000)
	assert.Equal(t, int64(950_000), book.Int64())
	// Half the 50_000 gross accrued, minus the 10% fee share.
	assert.Equal(t, int64(22_500), net.Int64())

	// Zero fee keeps the full accrual.
	_, gross := ledger.totals(t0.Add(5*time.Hour), 0)
	assert.Equal(t, int64(25_000), gross.Int64())
}
