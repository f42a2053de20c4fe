package vault

import (
	"math/big"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFeeEngineTake(t *testing.T) {
	engine := &FeeEngine{Bps: 1000, Recipient: "treasury"}

	t.Run("TenPercentOfProfit", func(t *testing.T) {
		fee := engine.Take(big.NewInt(5_000_000))
		assert.Equal(t, int64(500_000), fee.Int64())
	})

	t.Run("ZeroProfit", func(t *testing.T) {
		assert.Equal(t, int64(0), engine.Take(big.NewInt(0)).Int64())
	})

	t.Run("NegativeProfitPaysNoFee", func(t *testing.T) {
		// The external protocol underperformed; NAV drops, no fee.
		assert.Equal(t, int64(0), engine.Take(big.NewInt(-7)).Int64())
	})

	t.Run("NilProfit", func(t *testing.T) {
		assert.Equal(t, int64(0), engine.Take(nil).Int64())
	})

	t.Run("FloorRounding", func(t *testing.T) {
		// 10% of 5 floors to 0.
		assert.Equal(t, int64(0), engine.Take(big.NewInt(5)).Int64())
	})
}

func TestFeeEngineZeroBps(t *testing.T) {
	engine := &FeeEngine{Bps: 0}
	assert.Equal(t, int64(0), engine.Take(big.NewInt(1_000_000)).Int64())
}
