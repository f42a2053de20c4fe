package vault

import (
	"math/big"
	"sync"
)

// ShareLedger is the fungible share token the vault mints against deposits.
// The vault is the only minter/burner; owners trade and approve as usual.
// Synchronous redemption is deliberately absent: all redemptions funnel
// through the withdrawal queue.
type ShareLedger interface {
	Mint(owner string, shares *big.Int)
	Burn(owner string, shares *big.Int) error
	Transfer(from, to string, shares *big.Int) error
	Approve(owner, spender string, shares *big.Int)
	Allowance(owner, spender string) *big.Int
	SpendAllowance(owner, spender string, shares *big.Int) error
	BalanceOf(owner string) *big.Int
	TotalSupply() *big.Int
}

// MemoryShareLedger is the in-memory ShareLedger used by tests and the
// keeper simulation. A production embedding plugs in a real token instead.
type MemoryShareLedger struct {
	balances   map[string]*big.Int
	allowances map[string]map[string]*big.Int
	supply     *big.Int
	mu         sync.RWMutex
}

// NewMemoryShareLedger creates an empty share ledger.
func NewMemoryShareLedger() *MemoryShareLedger {
	return &MemoryShareLedger{
		balances:   make(map[string]*big.Int),
		allowances: make(map[string]map[string]*big.Int),
		supply:     big.NewInt(0),
	}
}

func (m *MemoryShareLedger) Mint(owner string, shares *big.Int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.credit(owner, shares)
	m.supply.Add(m.supply, shares)
}

func (m *MemoryShareLedger) Burn(owner string, shares *big.Int) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.debit(owner, shares); err != nil {
		return err
	}
	m.supply.Sub(m.supply, shares)
	return nil
}

func (m *MemoryShareLedger) Transfer(from, to string, shares *big.Int) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.debit(from, shares); err != nil {
		return err
	}
	m.credit(to, shares)
	return nil
}

func (m *MemoryShareLedger) Approve(owner, spender string, shares *big.Int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.allowances[owner] == nil {
		m.allowances[owner] = make(map[string]*big.Int)
	}
	m.allowances[owner][spender] = new(big.Int).Set(shares)
}

func (m *MemoryShareLedger) Allowance(owner, spender string) *big.Int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if a := m.allowances[owner][spender]; a != nil {
		return new(big.Int).Set(a)
	}
	return big.NewInt(0)
}

func (m *MemoryShareLedger) SpendAllowance(owner, spender string, shares *big.Int) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	a := m.allowances[owner][spender]
	if a == nil || a.Cmp(shares) < 0 {
		return ErrInsufficientAllowance
	}
	a.Sub(a, shares)
	return nil
}

func (m *MemoryShareLedger) BalanceOf(owner string) *big.Int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if b := m.balances[owner]; b != nil {
		return new(big.Int).Set(b)
	}
	return big.NewInt(0)
}

func (m *MemoryShareLedger) TotalSupply() *big.Int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return new(big.Int).Set(m.supply)
}

func (m *MemoryShareLedger) credit(owner string, amount *big.Int) {
	if m.balances[owner] == nil {
		m.balances[owner] = big.NewInt(0)
	}
	m.balances[owner].Add(m.balances[owner], amount)
}

func (m *MemoryShareLedger) debit(owner string, amount *big.Int) error {
	b := m.balances[owner]
	if b == nil || b.Cmp(amount) < 0 {
		return ErrInsufficientShares
	}
	b.Sub(b, amount)
	return nil
}
