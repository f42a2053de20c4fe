// Package events publishes vault lifecycle events to NATS subjects so
// keepers and dashboards can react without polling.
package events

import (
	"encoding/json"
	"fmt"

	"github.com/luxfi/log"
	"github.com/nats-io/nats.go"

	"github.com/arbfi/vault/pkg/vault"
)

// Subject prefixes per event family.
const (
	subjectPositions   = "vault.position"
	subjectWithdrawals = "vault.withdrawal"
	subjectDeposits    = "vault.deposit"
)

// Publisher forwards vault events to NATS.
type Publisher struct {
	nc     *nats.Conn
	logger log.Logger
}

// Connect dials the NATS server at url.
func Connect(url string, logger log.Logger) (*Publisher, error) {
	nc, err := nats.Connect(url,
		nats.Name("arbvault-events"),
		nats.MaxReconnects(-1),
	)
	if err != nil {
		return nil, fmt.Errorf("nats connect: %w", err)
	}
	logger.Info("connected to NATS", "url", url)
	return &Publisher{nc: nc, logger: logger}, nil
}

// HandleEvent is a vault.EventHandler publishing each committed event.
// Publish errors are logged, never propagated: the ledger has already
// committed and must not observe transport failures.
func (p *Publisher) HandleEvent(e vault.Event) {
	payload, err := json.Marshal(e)
	if err != nil {
		p.logger.Error("event marshal failed", "kind", e.Kind, "error", err)
		return
	}
	if err := p.nc.Publish(subjectFor(e.Kind), payload); err != nil {
		p.logger.Error("event publish failed", "kind", e.Kind, "error", err)
	}
}

// Close flushes and closes the connection.
func (p *Publisher) Close() {
	p.nc.Flush()
	p.nc.Close()
}

func subjectFor(kind vault.EventKind) string {
	switch kind {
	case vault.EventPositionOpened:
		return subjectPositions + ".opened"
	case vault.EventPositionClaimed:
		return subjectPositions + ".claimed"
	case vault.EventWithdrawalRequested:
		return subjectWithdrawals + ".requested"
	case vault.EventWithdrawalFulfilled:
		return subjectWithdrawals + ".fulfilled"
	case vault.EventWithdrawalCancelled:
		return subjectWithdrawals + ".cancelled"
	case vault.EventDeposit:
		return subjectDeposits
	default:
		return "vault.event"
	}
}
