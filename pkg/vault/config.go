package vault

import (
	"math/big"
	"time"
)

// Config holds the vault's economic and batching parameters.
type Config struct {
	// PerformanceFeeBps is skimmed from realized profit, 0..5000.
	PerformanceFeeBps uint64
	// FeeRecipient receives the performance fee. Required when the fee is
	// non-zero.
	FeeRecipient string

	// MinProfitThresholdBps rejects positions whose expected profit over
	// book value is below this many basis points.
	MinProfitThresholdBps uint64
	// MaxUnstakeTime rejects positions whose maturity is further out than
	// this. Zero disables the guard.
	MaxUnstakeTime time.Duration

	// DepositCap bounds total assets. Nil means uncapped.
	DepositCap *big.Int
	// MinDeposit rejects dust deposits. Nil means no floor.
	MinDeposit *big.Int

	// MaxActivePositions bounds the open position count.
	MaxActivePositions int
	// MaxWithdrawalsPerBatch bounds requests processed per fulfill call.
	MaxWithdrawalsPerBatch int
	// MinWithdrawalAssets rejects dust withdrawal requests. Nil means no
	// floor.
	MinWithdrawalAssets *big.Int
	// MinTimeBeforeCancel is the anti-spam delay before a request may be
	// cancelled.
	MinTimeBeforeCancel time.Duration
	// MaxProxiesPerAdd bounds slots added in one AddProxies call. Zero
	// means unbounded.
	MaxProxiesPerAdd int
}

// DefaultConfig returns a conservative parameter set.
func DefaultConfig() Config {
	return Config{
		PerformanceFeeBps:      1000, // 10%
		MinProfitThresholdBps:  10,
		MaxUnstakeTime:         21 * 24 * time.Hour,
		MaxActivePositions:     64,
		MaxWithdrawalsPerBatch: 32,
		MinTimeBeforeCancel:    1 * time.Hour,
		MaxProxiesPerAdd:       16,
	}
}

// Validate rejects out-of-range parameters before any vault is built.
func (c *Config) Validate() error {
	if c.PerformanceFeeBps > MaxPerformanceFeeBps {
		return ErrFeeTooHigh
	}
	if c.PerformanceFeeBps > 0 && c.FeeRecipient == "" {
		return ErrZeroAddress
	}
	if c.MinProfitThresholdBps > bpsDenominator {
		return ErrInvalidConfig
	}
	if c.MaxActivePositions < 0 || c.MaxWithdrawalsPerBatch < 0 || c.MaxProxiesPerAdd < 0 {
		return ErrInvalidConfig
	}
	if c.DepositCap != nil && c.DepositCap.Sign() < 0 {
		return ErrInvalidConfig
	}
	return nil
}
