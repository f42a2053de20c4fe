package vault

import (
	"math/big"
	"sync"
	"time"
)

// Token is the minimal balance view the vault needs over the base and
// staked assets. The vault measures the effect of every external call by
// balance delta on these views rather than trusting declared amounts.
type Token interface {
	BalanceOf(account string) *big.Int
	Transfer(from, to string, amount *big.Int) error
}

// UnstakeTicket is the stake adapter's confirmation of an unstake request.
type UnstakeTicket struct {
	ClaimID        uint64
	Maturity       time.Time
	ExpectedPayout *big.Int // base asset expected at maturity
}

// StakeAdapter is the external staking protocol: it turns staked asset into
// a cooldown-bound claim on base asset and prices the staked asset.
type StakeAdapter interface {
	RequestUnstake(proxy string, amount *big.Int) (UnstakeTicket, error)
	Claim(claimID uint64) (*big.Int, error)
	ConvertToAssets(stakedAmount *big.Int) (*big.Int, error)
}

// SwapRouter executes base -> staked swaps. The vault never trusts the
// router's accounting: spend and proceeds are measured via balance deltas.
type SwapRouter interface {
	Swap(account string, baseIn, minStakedOut *big.Int, payload []byte) error
}

// MemoryToken is an in-memory Token with minting, used by tests and the
// keeper simulation.
type MemoryToken struct {
	balances map[string]*big.Int
	mu       sync.RWMutex
}

// NewMemoryToken creates an empty token ledger.
func NewMemoryToken() *MemoryToken {
	return &MemoryToken{balances: make(map[string]*big.Int)}
}

// Mint credits amount to account out of thin air.
func (t *MemoryToken) Mint(account string, amount *big.Int) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.balances[account] == nil {
		t.balances[account] = big.NewInt(0)
	}
	t.balances[account].Add(t.balances[account], amount)
}

func (t *MemoryToken) BalanceOf(account string) *big.Int {
	t.mu.RLock()
	defer t.mu.RUnlock()
	if b := t.balances[account]; b != nil {
		return new(big.Int).Set(b)
	}
	return big.NewInt(0)
}

func (t *MemoryToken) Transfer(from, to string, amount *big.Int) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	b := t.balances[from]
	if b == nil || b.Cmp(amount) < 0 {
		return ErrInsufficientBalance
	}
	b.Sub(b, amount)
	if t.balances[to] == nil {
		t.balances[to] = big.NewInt(0)
	}
	t.balances[to].Add(t.balances[to], amount)
	return nil
}
