package vault

import (
	"math/big"
	"time"

	"github.com/shopspring/decimal"
)

// decimalsOffset is the extra internal precision per share used in the
// deposit/withdraw conversions. The virtual shares and assets it implies
// make the first-depositor donation attack unprofitable without changing
// the value a share represents.
const decimalsOffset = 6

var (
	virtualShares = new(big.Int).Exp(big.NewInt(10), big.NewInt(decimalsOffset), nil)
	virtualAssets = big.NewInt(1)
)

// totalAssetsLocked computes NAV at t: idle cash plus locked book value plus
// fee-adjusted accrued profit across open positions. Claimed positions
// contribute nothing. Caller holds the vault lock.
func (v *Vault) totalAssetsLocked(t time.Time) *big.Int {
	book, netAccrued := v.ledger.totals(t, v.fees.Bps)
	total := v.idleCashLocked()
	total.Add(total, book)
	total.Add(total, netAccrued)
	return total
}

// idleCashLocked is the vault's spendable base asset balance.
func (v *Vault) idleCashLocked() *big.Int {
	return v.base.BalanceOf(v.account)
}

// convertToShares converts assets to shares with floor rounding (deposit
// direction). Floor guarantees the vault never mints or burns more share
// value than the assets backing the conversion.
func (v *Vault) convertToShares(assets, totalAssets *big.Int) *big.Int {
	supply := new(big.Int).Add(v.shares.TotalSupply(), virtualShares)
	total := new(big.Int).Add(totalAssets, virtualAssets)
	return mulDiv(assets, supply, total)
}

// convertToAssets converts shares to assets with floor rounding.
func (v *Vault) convertToAssets(shares, totalAssets *big.Int) *big.Int {
	supply := new(big.Int).Add(v.shares.TotalSupply(), virtualShares)
	total := new(big.Int).Add(totalAssets, virtualAssets)
	return mulDiv(shares, total, supply)
}

// NAV returns the current total assets.
func (v *Vault) NAV() *big.Int {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.totalAssetsLocked(v.now())
}

// SharePrice returns assets per whole share, where a whole share is 10^offset
// internal units. Defined as 1 when no shares exist. The offset only changes
// granularity, never the value a share represents, so the quoted price starts
// at 1 and moves with NAV.
func (v *Vault) SharePrice() decimal.Decimal {
	v.mu.Lock()
	defer v.mu.Unlock()

	supply := v.shares.TotalSupply()
	if supply.Sign() == 0 {
		return decimal.NewFromInt(1)
	}
	total := decimal.NewFromBigInt(v.totalAssetsLocked(v.now()), 0)
	total = total.Mul(decimal.NewFromBigInt(virtualShares, 0))
	return total.DivRound(decimal.NewFromBigInt(supply, 0), 18)
}

// mulDiv returns a*b/c with floor rounding.
func mulDiv(a, b, c *big.Int) *big.Int {
	result := new(big.Int).Mul(a, b)
	return result.Div(result, c)
}
