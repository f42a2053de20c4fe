package vault

import (
	"math/big"
	"time"
)

// Position is one open arbitrage round trip: base asset swapped into the
// staked asset, parked in an unstake request, and reclaimed at maturity.
type Position struct {
	ID             uint64
	StakeAmount    *big.Int // staked asset locked in the unstake request
	BookValue      *big.Int // base asset actually spent acquiring it
	ExpectedAssets *big.Int // payout the stake adapter confirmed
	OpenedAt       time.Time
	Maturity       time.Time
	ClaimID        uint64 // adapter-side unstake ticket
	ProxySlot      int
	Proxy          string
	Claimed        bool
}

// GrossProfit returns ExpectedAssets - BookValue. Non-negative by the open
// guard, fixed for the life of the position.
func (p *Position) GrossProfit() *big.Int {
	return new(big.Int).Sub(p.ExpectedAssets, p.BookValue)
}

// AccruedAt returns the time-weighted unrealized profit at t:
//
//	gross * clamp((t - openedAt) / (maturity - openedAt), 0, 1)
//
// The clamp at 1 is load-bearing: a position claimed late must never accrue
// past its gross profit.
func (p *Position) AccruedAt(t time.Time) *big.Int {
	if p.Claimed {
		return big.NewInt(0)
	}
	gross := p.GrossProfit()
	duration := p.Maturity.Sub(p.OpenedAt)
	if duration <= 0 || !t.Before(p.Maturity) {
		return gross
	}
	elapsed := t.Sub(p.OpenedAt)
	if elapsed <= 0 {
		return big.NewInt(0)
	}
	accrued := new(big.Int).Mul(gross, big.NewInt(int64(elapsed)))
	return accrued.Div(accrued, big.NewInt(int64(duration)))
}

// positionLedger is the append-only arena of positions plus the cursor of the
// oldest unclaimed one. Cooldown duration is fixed and open times are
// non-decreasing, so claiming at the cursor is FIFO by construction.
type positionLedger struct {
	positions []*Position
	cursor    int // index of the oldest unclaimed position
	active    int
	maxActive int
	nextID    uint64
}

func newPositionLedger(maxActive int) *positionLedger {
	return &positionLedger{maxActive: maxActive, nextID: 1}
}

// append adds a new position, assigning its ID. Caller has validated amounts.
func (l *positionLedger) append(p *Position) error {
	if l.maxActive > 0 && l.active >= l.maxActive {
		return ErrTooManyPositions
	}
	p.ID = l.nextID
	l.nextID++
	l.positions = append(l.positions, p)
	l.active++
	return nil
}

// oldestUnclaimed returns the only claim-eligible position, or nil.
func (l *positionLedger) oldestUnclaimed() *Position {
	for l.cursor < len(l.positions) && l.positions[l.cursor].Claimed {
		l.cursor++
	}
	if l.cursor >= len(l.positions) {
		return nil
	}
	return l.positions[l.cursor]
}

// markClaimed retires p. The claimed flag is monotonic; the position is never
// deleted, it just stops contributing to NAV.
func (l *positionLedger) markClaimed(p *Position) {
	p.Claimed = true
	l.active--
	for l.cursor < len(l.positions) && l.positions[l.cursor].Claimed {
		l.cursor++
	}
}

// get returns the position with the given id, or nil. IDs are dense from 1.
func (l *positionLedger) get(id uint64) *Position {
	if id == 0 || id > uint64(len(l.positions)) {
		return nil
	}
	return l.positions[id-1]
}

// activePositions returns the open positions in id order.
func (l *positionLedger) activePositions() []*Position {
	out := make([]*Position, 0, l.active)
	for i := l.cursor; i < len(l.positions); i++ {
		if !l.positions[i].Claimed {
			out = append(out, l.positions[i])
		}
	}
	return out
}

// totals sums book value and fee-adjusted accrued profit over open positions.
// feeBps is skimmed from accrual so NAV never promises the fee portion.
func (l *positionLedger) totals(t time.Time, feeBps uint64) (book, netAccrued *big.Int) {
	book = big.NewInt(0)
	netAccrued = big.NewInt(0)
	for i := l.cursor; i < len(l.positions); i++ {
		p := l.positions[i]
		if p.Claimed {
			continue
		}
		book.Add(book, p.BookValue)
		accrued := p.AccruedAt(t)
		if feeBps > 0 && accrued.Sign() > 0 {
			accrued.Mul(accrued, big.NewInt(int64(bpsDenominator-feeBps)))
			accrued.Div(accrued, big.NewInt(int64(bpsDenominator)))
		}
		netAccrued.Add(netAccrued, accrued)
	}
	return book, netAccrued
}
