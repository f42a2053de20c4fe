package vault

import "time"

// EventKind identifies a vault lifecycle event.
type EventKind string

const (
	EventDeposit             EventKind = "deposit"
	EventPositionOpened      EventKind = "position_opened"
	EventPositionClaimed     EventKind = "position_claimed"
	EventWithdrawalRequested EventKind = "withdrawal_requested"
	EventWithdrawalFulfilled EventKind = "withdrawal_fulfilled"
	EventWithdrawalCancelled EventKind = "withdrawal_cancelled"
)

// Event is emitted after each committed state transition. Big integers are
// carried as decimal strings so the event marshals cleanly to JSON.
type Event struct {
	Kind      EventKind `json:"kind"`
	Time      time.Time `json:"time"`
	Position  uint64    `json:"position,omitempty"`
	Request   uint64    `json:"request,omitempty"`
	Owner     string    `json:"owner,omitempty"`
	Receiver  string    `json:"receiver,omitempty"`
	Assets    string    `json:"assets,omitempty"`
	Shares    string    `json:"shares,omitempty"`
	Profit    string    `json:"profit,omitempty"`
	Fee       string    `json:"fee,omitempty"`
	NAV       string    `json:"nav,omitempty"`
	Partial   bool      `json:"partial,omitempty"`
	Cancelled bool      `json:"cancelled,omitempty"`
}

// EventHandler receives committed events. Handlers run synchronously inside
// the vault's critical section, so they must be fast and must not call back
// into the vault.
type EventHandler func(Event)
