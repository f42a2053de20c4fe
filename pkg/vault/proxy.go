package vault

// ProxyPool manages the fixed set of unstaking proxy slots. Positions borrow
// a slot for the lifetime of their unstake request and return it on claim.
// Allocation is round-robin so load spreads across proxies instead of
// hammering the lowest index; with releases arriving roughly in allocation
// order the scan is amortized O(1).
//
// The pool is not internally locked: the owning Vault serializes all access.
type ProxyPool struct {
	slots     []proxySlot
	lastAlloc int
}

type proxySlot struct {
	Handle string
	Busy   bool
}

// NewProxyPool creates a pool with the given proxy handles, all free.
func NewProxyPool(handles []string) *ProxyPool {
	p := &ProxyPool{lastAlloc: -1}
	for _, h := range handles {
		p.slots = append(p.slots, proxySlot{Handle: h})
	}
	return p
}

// AddSlots grows the pool. maxPerCall bounds the work of a single call;
// zero means no bound.
func (p *ProxyPool) AddSlots(handles []string, maxPerCall int) error {
	if len(handles) == 0 {
		return ErrZeroAmount
	}
	if maxPerCall > 0 && len(handles) > maxPerCall {
		return ErrTooManySlots
	}
	for _, h := range handles {
		if h == "" {
			return ErrZeroAddress
		}
	}
	for _, h := range handles {
		p.slots = append(p.slots, proxySlot{Handle: h})
	}
	return nil
}

// Allocate returns the index and handle of the next free slot, scanning
// forward from the slot after the last allocation and wrapping once.
func (p *ProxyPool) Allocate() (int, string, error) {
	n := len(p.slots)
	if n == 0 {
		return 0, "", ErrNoSlotsAvailable
	}
	for i := 1; i <= n; i++ {
		idx := (p.lastAlloc + i) % n
		if !p.slots[idx].Busy {
			p.slots[idx].Busy = true
			p.lastAlloc = idx
			return idx, p.slots[idx].Handle, nil
		}
	}
	return 0, "", ErrNoSlotsAvailable
}

// Release frees a previously allocated slot.
func (p *ProxyPool) Release(idx int) error {
	if idx < 0 || idx >= len(p.slots) {
		return ErrSlotNotBusy
	}
	if !p.slots[idx].Busy {
		return ErrSlotNotBusy
	}
	p.slots[idx].Busy = false
	return nil
}

// Size returns the total number of slots.
func (p *ProxyPool) Size() int { return len(p.slots) }

// BusyCount returns the number of slots currently allocated.
func (p *ProxyPool) BusyCount() int {
	n := 0
	for _, s := range p.slots {
		if s.Busy {
			n++
		}
	}
	return n
}

// Handle returns the handle of the slot at idx.
func (p *ProxyPool) Handle(idx int) string {
	if idx < 0 || idx >= len(p.slots) {
		return ""
	}
	return p.slots[idx].Handle
}
