package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	require.NoError(t, err)

	assert.Equal(t, ":9102", cfg.Metrics.Addr)
	assert.Equal(t, "arbvault", cfg.Metrics.Namespace)
	assert.Equal(t, "1m", cfg.Keeper.OpenInterval)
}

func TestLoadYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	data := `
vault:
  performance_fee_bps: 1500
  fee_recipient: treasury
  deposit_cap: "1000000000000"
  min_time_before_cancel: 2h
  proxies: [p0, p1]
keeper:
  open_interval: 5m
metrics:
  addr: ":9999"
`
	require.NoError(t, os.WriteFile(path, []byte(data), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, uint64(1500), cfg.Vault.PerformanceFeeBps)
	assert.Equal(t, "treasury", cfg.Vault.FeeRecipient)
	assert.Equal(t, []string{"p0", "p1"}, cfg.Vault.Proxies)
	assert.Equal(t, ":9999", cfg.Metrics.Addr)
	assert.Equal(t, "5m", cfg.Keeper.OpenInterval)

	vc, err := cfg.VaultConfig()
	require.NoError(t, err)
	assert.Equal(t, uint64(1500), vc.PerformanceFeeBps)
	assert.Equal(t, "1000000000000", vc.DepositCap.String())
	assert.Equal(t, 2*time.Hour, vc.MinTimeBeforeCancel)
}

func TestVaultConfigRejectsBadValues(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
vault:
  performance_fee_bps: 9000
  fee_recipient: treasury
`), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)
	_, err = cfg.VaultConfig()
	assert.Error(t, err)
}

func TestEnvOverrides(t *testing.T) {
	t.Setenv("ARBVAULT_FEE_RECIPIENT", "ops")
	t.Setenv("ARBVAULT_NATS_URL", "nats://localhost:4222")

	cfg, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	require.NoError(t, err)
	assert.Equal(t, "ops", cfg.Vault.FeeRecipient)
	assert.Equal(t, "nats://localhost:4222", cfg.NATS.URL)
}
