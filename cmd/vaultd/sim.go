package main

import (
	"fmt"
	"math/big"
	"sync"
	"time"

	"github.com/arbfi/vault/pkg/vault"
)

// The simulated venue: a router selling the staked asset at a discount and
// a stake adapter redeeming it at par after a short cooldown. It stands in
// for the on-chain collaborators so the daemon can run end to end locally.

type simRouter struct {
	base        *vault.MemoryToken
	staked      *vault.MemoryToken
	discountBps int64 // staked asset trades below par by this much
	mu          sync.Mutex
}

func (r *simRouter) Swap(account string, baseIn, minStakedOut *big.Int, payload []byte) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if err := r.base.Transfer(account, "sim:amm", baseIn); err != nil {
		return err
	}
	// baseIn buys par/(par-discount) units of staked asset.
	out := new(big.Int).Mul(baseIn, big.NewInt(10000))
	out.Div(out, big.NewInt(10000-r.discountBps))
	r.staked.Mint(account, out)
	return nil
}

type simAdapter struct {
	base     *vault.MemoryToken
	account  string
	cooldown time.Duration
	nextID   uint64
	payouts  map[uint64]*big.Int
	mu       sync.Mutex
}

func newSimAdapter(base *vault.MemoryToken, account string, cooldown time.Duration) *simAdapter {
	return &simAdapter{
		base:     base,
		account:  account,
		cooldown: cooldown,
		payouts:  make(map[uint64]*big.Int),
	}
}

func (a *simAdapter) RequestUnstake(proxy string, amount *big.Int) (vault.UnstakeTicket, error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	a.nextID++
	payout := new(big.Int).Set(amount) // redeemed at par
	a.payouts[a.nextID] = payout
	return vault.UnstakeTicket{
		ClaimID:        a.nextID,
		Maturity:       time.Now().Add(a.cooldown),
		ExpectedPayout: payout,
	}, nil
}

func (a *simAdapter) Claim(claimID uint64) (*big.Int, error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	payout, ok := a.payouts[claimID]
	if !ok {
		return nil, fmt.Errorf("unknown claim %d", claimID)
	}
	delete(a.payouts, claimID)
	a.base.Mint(a.account, payout)
	return new(big.Int).Set(payout), nil
}

func (a *simAdapter) ConvertToAssets(stakedAmount *big.Int) (*big.Int, error) {
	return new(big.Int).Set(stakedAmount), nil
}
