// vaultd runs the arbitrage vault engine against a simulated staking venue:
// a keeper loop opens and claims positions, Prometheus metrics and a
// WebSocket feed expose the ledger, and events optionally fan out to NATS.
package main

import (
	"flag"
	"math/big"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/luxfi/log"

	"github.com/arbfi/vault/pkg/config"
	"github.com/arbfi/vault/pkg/events"
	"github.com/arbfi/vault/pkg/feed"
	"github.com/arbfi/vault/pkg/metrics"
	"github.com/arbfi/vault/pkg/vault"
)

const vaultAccount = "vault"

func main() {
	cfgPath := flag.String("config", "configs/vaultd.yaml", "config file path")
	flag.Parse()

	logger := log.Root().New("module", "vaultd")

	cfg, err := config.Load(*cfgPath)
	if err != nil {
		logger.Fatal("load config", log.Err(err))
	}
	vaultCfg, err := cfg.VaultConfig()
	if err != nil {
		logger.Fatal("vault config", log.Err(err))
	}
	if vaultCfg.FeeRecipient == "" {
		vaultCfg.FeeRecipient = "treasury"
	}

	// Simulated collaborators. A production deployment plugs chain-backed
	// implementations into the same interfaces.
	base := vault.NewMemoryToken()
	staked := vault.NewMemoryToken()
	shares := vault.NewMemoryShareLedger()
	adapter := newSimAdapter(base, vaultAccount, 2*time.Minute)
	router := &simRouter{base: base, staked: staked, discountBps: 300}

	vaultMetrics := metrics.New(cfg.Metrics.Namespace, log.Root().New("module", "metrics"))
	feedServer := feed.NewServer(log.Root().New("module", "feed"))

	handlers := []vault.EventHandler{vaultMetrics.HandleEvent, feedServer.HandleEvent}
	if cfg.NATS.URL != "" {
		publisher, err := events.Connect(cfg.NATS.URL, log.Root().New("module", "events"))
		if err != nil {
			logger.Fatal("nats connect", log.Err(err))
		}
		defer publisher.Close()
		handlers = append(handlers, publisher.HandleEvent)
	}

	proxies := cfg.Vault.Proxies
	if len(proxies) == 0 {
		proxies = []string{"proxy-0", "proxy-1", "proxy-2", "proxy-3"}
	}

	v, err := vault.New(vaultCfg, vault.Deps{
		Account: vaultAccount,
		Base:    base,
		Staked:  staked,
		Shares:  shares,
		Adapter: adapter,
		Proxies: proxies,
		OnEvent: func(e vault.Event) {
			for _, h := range handlers {
				h(e)
			}
		},
	})
	if err != nil {
		logger.Fatal("init vault", log.Err(err))
	}

	// Seed a depositor so the simulation has capital to work with.
	base.Mint("depositor", big.NewInt(1_000_000_000_000))
	if _, err := v.Deposit("depositor", big.NewInt(1_000_000_000_000)); err != nil {
		logger.Fatal("seed deposit", log.Err(err))
	}

	go func() {
		if err := vaultMetrics.Serve(cfg.Metrics.Addr); err != nil {
			logger.Error("metrics server stopped", "error", err)
		}
	}()
	go func() {
		if err := feedServer.Start(cfg.Feed.Addr); err != nil {
			logger.Error("feed server stopped", "error", err)
		}
	}()

	openInterval, _ := time.ParseDuration(cfg.Keeper.OpenInterval)
	claimInterval, _ := time.ParseDuration(cfg.Keeper.ClaimInterval)
	tradeSize := big.NewInt(50_000_000_000)
	if cfg.Keeper.TradeSize != "" {
		if n, ok := new(big.Int).SetString(cfg.Keeper.TradeSize, 10); ok {
			tradeSize = n
		}
	}

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	logger.Info("vaultd started",
		"metrics", cfg.Metrics.Addr,
		"feed", cfg.Feed.Addr,
		"openInterval", openInterval,
		"claimInterval", claimInterval)

	runKeeper(v, router, logger, vaultMetrics, feedServer, openInterval, claimInterval, tradeSize, stop)

	feedServer.Stop()
	logger.Info("vaultd stopped")
}

// runKeeper drives the vault until a shutdown signal arrives: it opens a
// position per tick while cash and slots allow, claims whatever has
// matured, and publishes NAV snapshots.
func runKeeper(
	v *vault.Vault,
	router vault.SwapRouter,
	logger log.Logger,
	vaultMetrics *metrics.VaultMetrics,
	feedServer *feed.Server,
	openInterval, claimInterval time.Duration,
	tradeSize *big.Int,
	stop <-chan os.Signal,
) {
	openTicker := time.NewTicker(openInterval)
	claimTicker := time.NewTicker(claimInterval)
	navTicker := time.NewTicker(10 * time.Second)
	defer openTicker.Stop()
	defer claimTicker.Stop()
	defer navTicker.Stop()

	for {
		select {
		case <-stop:
			return

		case <-openTicker.C:
			id, err := v.OpenPosition(router, tradeSize, nil, nil, 0, 0)
			switch err {
			case nil:
				logger.Info("opened position", "id", id)
			case vault.ErrInsufficientBalance, vault.ErrNoSlotsAvailable, vault.ErrTooManyPositions:
				logger.Debug("open skipped", "reason", err)
			default:
				logger.Warn("open failed", "error", err)
			}

		case <-claimTicker.C:
			profit, err := v.ClaimPosition()
			switch err {
			case nil:
				logger.Info("claimed position", "profit", profit)
			case vault.ErrNoActivePositions, vault.ErrCooldownNotElapsed:
				// Nothing matured yet.
			default:
				logger.Warn("claim failed", "error", err)
			}

		case <-navTicker.C:
			stats := v.GetStats()
			vaultMetrics.UpdateStats(stats)
			feedServer.PublishNAV(feed.NAVTick{
				NAV:             stats.NAV.String(),
				SharePrice:      v.SharePrice().String(),
				IdleCash:        stats.IdleCash.String(),
				ActivePositions: stats.ActivePositions,
				PendingRequests: stats.PendingRequests,
			})
		}
	}
}
