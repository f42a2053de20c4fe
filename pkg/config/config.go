// Package config loads the keeper daemon configuration from YAML with
// environment variable overrides.
package config

import (
	"fmt"
	"math/big"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/arbfi/vault/pkg/vault"
)

// Config holds all daemon configuration.
type Config struct {
	Vault struct {
		PerformanceFeeBps      uint64   `yaml:"performance_fee_bps"`
		FeeRecipient           string   `yaml:"fee_recipient"`
		MinProfitThresholdBps  uint64   `yaml:"min_profit_threshold_bps"`
		DepositCap             string   `yaml:"deposit_cap"`
		MinDeposit             string   `yaml:"min_deposit"`
		MaxUnstakeTime         string   `yaml:"max_unstake_time"`
		MaxActivePositions     int      `yaml:"max_active_positions"`
		MaxWithdrawalsPerBatch int      `yaml:"max_withdrawals_per_batch"`
		MinWithdrawalAssets    string   `yaml:"min_withdrawal_assets"`
		MinTimeBeforeCancel    string   `yaml:"min_time_before_cancel"`
		MaxProxiesPerAdd       int      `yaml:"max_proxies_per_add"`
		Proxies                []string `yaml:"proxies"`
	} `yaml:"vault"`
	Keeper struct {
		OpenInterval  string `yaml:"open_interval"`
		ClaimInterval string `yaml:"claim_interval"`
		TradeSize     string `yaml:"trade_size"`
	} `yaml:"keeper"`
	Metrics struct {
		Addr      string `yaml:"addr"`
		Namespace string `yaml:"namespace"`
	} `yaml:"metrics"`
	Feed struct {
		Addr string `yaml:"addr"`
	} `yaml:"feed"`
	NATS struct {
		URL string `yaml:"url"`
	} `yaml:"nats"`
}

// Load reads config from a YAML file, then applies environment variable
// overrides and defaults.
func Load(path string) (*Config, error) {
	cfg := &Config{}

	data, err := os.ReadFile(path)
	if err != nil && !os.IsNotExist(err) {
		return nil, fmt.Errorf("read config: %w", err)
	}
	if len(data) > 0 {
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse config: %w", err)
		}
	}

	if v := os.Getenv("ARBVAULT_FEE_RECIPIENT"); v != "" {
		cfg.Vault.FeeRecipient = v
	}
	if v := os.Getenv("ARBVAULT_METRICS_ADDR"); v != "" {
		cfg.Metrics.Addr = v
	}
	if v := os.Getenv("ARBVAULT_FEED_ADDR"); v != "" {
		cfg.Feed.Addr = v
	}
	if v := os.Getenv("ARBVAULT_NATS_URL"); v != "" {
		cfg.NATS.URL = v
	}

	// Defaults
	if cfg.Metrics.Addr == "" {
		cfg.Metrics.Addr = ":9102"
	}
	if cfg.Metrics.Namespace == "" {
		cfg.Metrics.Namespace = "arbvault"
	}
	if cfg.Feed.Addr == "" {
		cfg.Feed.Addr = ":8081"
	}
	if cfg.Keeper.OpenInterval == "" {
		cfg.Keeper.OpenInterval = "1m"
	}
	if cfg.Keeper.ClaimInterval == "" {
		cfg.Keeper.ClaimInterval = "30s"
	}
	return cfg, nil
}

// VaultConfig converts the YAML section into the engine's config.
func (c *Config) VaultConfig() (vault.Config, error) {
	vc := vault.DefaultConfig()
	vc.PerformanceFeeBps = c.Vault.PerformanceFeeBps
	vc.FeeRecipient = c.Vault.FeeRecipient
	vc.MinProfitThresholdBps = c.Vault.MinProfitThresholdBps
	if c.Vault.MaxActivePositions > 0 {
		vc.MaxActivePositions = c.Vault.MaxActivePositions
	}
	if c.Vault.MaxWithdrawalsPerBatch > 0 {
		vc.MaxWithdrawalsPerBatch = c.Vault.MaxWithdrawalsPerBatch
	}
	if c.Vault.MaxProxiesPerAdd > 0 {
		vc.MaxProxiesPerAdd = c.Vault.MaxProxiesPerAdd
	}

	var err error
	if vc.DepositCap, err = parseAmount(c.Vault.DepositCap); err != nil {
		return vc, fmt.Errorf("deposit_cap: %w", err)
	}
	if vc.MinDeposit, err = parseAmount(c.Vault.MinDeposit); err != nil {
		return vc, fmt.Errorf("min_deposit: %w", err)
	}
	if vc.MinWithdrawalAssets, err = parseAmount(c.Vault.MinWithdrawalAssets); err != nil {
		return vc, fmt.Errorf("min_withdrawal_assets: %w", err)
	}
	if d, err := parseDuration(c.Vault.MaxUnstakeTime); err != nil {
		return vc, fmt.Errorf("max_unstake_time: %w", err)
	} else if d > 0 {
		vc.MaxUnstakeTime = d
	}
	if d, err := parseDuration(c.Vault.MinTimeBeforeCancel); err != nil {
		return vc, fmt.Errorf("min_time_before_cancel: %w", err)
	} else if d > 0 {
		vc.MinTimeBeforeCancel = d
	}
	return vc, vc.Validate()
}

func parseAmount(s string) (*big.Int, error) {
	if s == "" {
		return nil, nil
	}
	n, ok := new(big.Int).SetString(s, 10)
	if !ok {
		return nil, fmt.Errorf("invalid amount %q", s)
	}
	return n, nil
}

func parseDuration(s string) (time.Duration, error) {
	if s == "" {
		return 0, nil
	}
	return time.ParseDuration(s)
}
