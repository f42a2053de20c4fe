// Package metrics exposes the vault's operational metrics via Prometheus.
package metrics

import (
	"math/big"
	"net/http"

	"github.com/luxfi/log"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/arbfi/vault/pkg/vault"
)

// VaultMetrics collects position, queue and NAV metrics from a running vault.
type VaultMetrics struct {
	registry *prometheus.Registry
	logger   log.Logger

	positionsOpened  prometheus.Counter
	positionsClaimed prometheus.Counter
	realizedProfit   prometheus.Counter
	realizedLoss     prometheus.Counter
	feesPaid         prometheus.Counter

	withdrawalsQueued    prometheus.Counter
	withdrawalsFulfilled prometheus.Counter
	withdrawalsCancelled prometheus.Counter

	nav             prometheus.Gauge
	idleCash        prometheus.Gauge
	activePositions prometheus.Gauge
	pendingRequests prometheus.Gauge
	proxyBusy       prometheus.Gauge
}

// New creates the metric set on a fresh registry.
func New(namespace string, logger log.Logger) *VaultMetrics {
	registry := prometheus.NewRegistry()

	m := &VaultMetrics{
		registry: registry,
		logger:   logger,

		positionsOpened: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "positions_opened_total",
			Help:      "Total number of arbitrage positions opened",
		}),
		positionsClaimed: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "positions_claimed_total",
			Help:      "Total number of positions claimed at maturity",
		}),
		realizedProfit: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "realized_profit_total",
			Help:      "Cumulative positive realized profit in base asset units",
		}),
		realizedLoss: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "realized_loss_total",
			Help:      "Cumulative realized loss in base asset units",
		}),
		feesPaid: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "performance_fees_paid_total",
			Help:      "Cumulative performance fees routed to the recipient",
		}),
		withdrawalsQueued: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "withdrawals_queued_total",
			Help:      "Total withdrawal requests enqueued",
		}),
		withdrawalsFulfilled: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "withdrawals_fulfilled_total",
			Help:      "Total fulfillment steps, full or partial",
		}),
		withdrawalsCancelled: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "withdrawals_cancelled_total",
			Help:      "Total withdrawal requests cancelled",
		}),
		nav: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "nav",
			Help:      "Current net asset value in base asset units",
		}),
		idleCash: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "idle_cash",
			Help:      "Spendable base asset balance",
		}),
		activePositions: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "active_positions",
			Help:      "Open position count",
		}),
		pendingRequests: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "pending_withdrawals",
			Help:      "Queued withdrawal request count",
		}),
		proxyBusy: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "proxy_slots_busy",
			Help:      "Proxy slots currently allocated to positions",
		}),
	}

	registry.MustRegister(
		m.positionsOpened, m.positionsClaimed,
		m.realizedProfit, m.realizedLoss, m.feesPaid,
		m.withdrawalsQueued, m.withdrawalsFulfilled, m.withdrawalsCancelled,
		m.nav, m.idleCash, m.activePositions, m.pendingRequests, m.proxyBusy,
	)
	return m
}

// HandleEvent is a vault.EventHandler feeding the counters.
func (m *VaultMetrics) HandleEvent(e vault.Event) {
	switch e.Kind {
	case vault.EventPositionOpened:
		m.positionsOpened.Inc()
	case vault.EventPositionClaimed:
		m.positionsClaimed.Inc()
		if profit, ok := new(big.Int).SetString(e.Profit, 10); ok {
			f, _ := new(big.Float).SetInt(profit).Float64()
			if f >= 0 {
				m.realizedProfit.Add(f)
			} else {
				m.realizedLoss.Add(-f)
			}
		}
		if fee, ok := new(big.Int).SetString(e.Fee, 10); ok && fee.Sign() > 0 {
			f, _ := new(big.Float).SetInt(fee).Float64()
			m.feesPaid.Add(f)
		}
	case vault.EventWithdrawalRequested:
		m.withdrawalsQueued.Inc()
	case vault.EventWithdrawalFulfilled:
		m.withdrawalsFulfilled.Inc()
	case vault.EventWithdrawalCancelled:
		m.withdrawalsCancelled.Inc()
	}
}

// UpdateStats refreshes the gauges from a vault snapshot.
func (m *VaultMetrics) UpdateStats(s vault.Stats) {
	nav, _ := new(big.Float).SetInt(s.NAV).Float64()
	idle, _ := new(big.Float).SetInt(s.IdleCash).Float64()
	m.nav.Set(nav)
	m.idleCash.Set(idle)
	m.activePositions.Set(float64(s.ActivePositions))
	m.pendingRequests.Set(float64(s.PendingRequests))
	m.proxyBusy.Set(float64(s.ProxyBusy))
}

// Handler returns the HTTP handler serving the registry.
func (m *VaultMetrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// Serve blocks serving /metrics on addr.
func (m *VaultMetrics) Serve(addr string) error {
	mux := http.NewServeMux()
	mux.Handle("/metrics", m.Handler())
	m.logger.Info("metrics server starting", "addr", addr)
	return http.ListenAndServe(addr, mux)
}
