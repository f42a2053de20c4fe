package vault

import "math/big"

// Stats is a point-in-time operational snapshot.
type Stats struct {
	NAV             *big.Int
	IdleCash        *big.Int
	TotalSupply     *big.Int
	ActivePositions int
	PendingRequests int
	PendingShares   *big.Int
	ProxySlots      int
	ProxyBusy       int
}

// GetPosition returns a copy of the position with the given id.
func (v *Vault) GetPosition(id uint64) (Position, bool) {
	v.mu.Lock()
	defer v.mu.Unlock()
	p := v.ledger.get(id)
	if p == nil {
		return Position{}, false
	}
	return copyPosition(p), true
}

// GetActivePositions returns copies of the open positions in id order.
func (v *Vault) GetActivePositions() []Position {
	v.mu.Lock()
	defer v.mu.Unlock()
	active := v.ledger.activePositions()
	out := make([]Position, 0, len(active))
	for _, p := range active {
		out = append(out, copyPosition(p))
	}
	return out
}

// IsPositionClaimable reports whether id is the oldest unclaimed position
// and its cooldown has elapsed.
func (v *Vault) IsPositionClaimable(id uint64) bool {
	v.mu.Lock()
	defer v.mu.Unlock()
	p := v.ledger.oldestUnclaimed()
	return p != nil && p.ID == id && !v.now().Before(p.Maturity)
}

// GetWithdrawalRequest returns a copy of the request with the given id,
// queued or terminal.
func (v *Vault) GetWithdrawalRequest(id uint64) (WithdrawalRequest, bool) {
	v.mu.Lock()
	defer v.mu.Unlock()
	r := v.queue.get(id)
	if r == nil {
		return WithdrawalRequest{}, false
	}
	return copyRequest(r), true
}

// PendingWithdrawalCount returns the number of queued requests.
func (v *Vault) PendingWithdrawalCount() int {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.queue.pending()
}

// PendingWithdrawals returns copies of the queued requests in FIFO order.
func (v *Vault) PendingWithdrawals() []WithdrawalRequest {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.queue.snapshot()
}

// GetStats returns an operational snapshot.
func (v *Vault) GetStats() Stats {
	v.mu.Lock()
	defer v.mu.Unlock()
	return Stats{
		NAV:             v.totalAssetsLocked(v.now()),
		IdleCash:        v.idleCashLocked(),
		TotalSupply:     v.shares.TotalSupply(),
		ActivePositions: v.ledger.active,
		PendingRequests: v.queue.pending(),
		PendingShares:   v.queue.pendingShares(),
		ProxySlots:      v.proxies.Size(),
		ProxyBusy:       v.proxies.BusyCount(),
	}
}

func copyPosition(p *Position) Position {
	c := *p
	c.StakeAmount = new(big.Int).Set(p.StakeAmount)
	c.BookValue = new(big.Int).Set(p.BookValue)
	c.ExpectedAssets = new(big.Int).Set(p.ExpectedAssets)
	return c
}
