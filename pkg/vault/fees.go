package vault

import "math/big"

const (
	bpsDenominator = 10000

	// MaxPerformanceFeeBps caps the configurable performance fee at 50%.
	MaxPerformanceFeeBps = 5000
)

// FeeEngine computes the performance fee skimmed from realized profit.
// Routing the fee (the actual transfer) is the Vault's job; the engine is
// pure arithmetic so it can be tested in isolation.
type FeeEngine struct {
	Bps       uint64
	Recipient string
}

// Take returns the fee owed on realizedProfit. Zero when the profit is zero
// or negative: an underperforming claim pays no fee and NAV simply drops.
func (f *FeeEngine) Take(realizedProfit *big.Int) *big.Int {
	if f.Bps == 0 || realizedProfit == nil || realizedProfit.Sign() <= 0 {
		return big.NewInt(0)
	}
	fee := new(big.Int).Mul(realizedProfit, big.NewInt(int64(f.Bps)))
	return fee.Div(fee, big.NewInt(bpsDenominator))
}
