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
	wd, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(t.TempDir()))
	t.Cleanup(func() { _ = os.Chdir(wd) })

	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, 8080, cfg.Server.Port)
	assert.Equal(t, 10*time.Minute, cfg.Auction.SnipeWindow)
	assert.Equal(t, "@every 30s", cfg.Auction.SweepSpec)
	assert.Equal(t, int64(23295), cfg.Chain.ChainID)
	assert.Equal(t, uint64(100), cfg.Chain.BatchSize)
	assert.Equal(t, time.Minute, cfg.Oracle.CacheTTL)
}

func TestLoadFileAndEnv(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	content := []byte(`
server:
  port: 9090
auction:
  snipe_window: 5m
chain:
  contract_address: "0x32Be343B94f860124dC4fEe278FDCBD38C102D88"
`)
	require.NoError(t, os.WriteFile(path, content, 0o600))
	t.Setenv("INSTANCE_ID", "marketplace-test")

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, 9090, cfg.Server.Port)
	assert.Equal(t, 5*time.Minute, cfg.Auction.SnipeWindow)
	assert.Equal(t, "0x32Be343B94f860124dC4fEe278FDCBD38C102D88", cfg.Chain.ContractAddress)
	assert.Equal(t, "marketplace-test", cfg.Instance.ID)
}

func TestLoadMissingExplicitFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}

func TestValidate(t *testing.T) {
	cfg := &Config{
		Server:  ServerConfig{Port: 8080},
		Auction: AuctionConfig{SnipeWindow: 500 * time.Millisecond},
		Chain:   ChainConfig{BatchSize: 10},
	}
	assert.Error(t, cfg.Validate())

	cfg.Auction.SnipeWindow = time.Minute
	assert.NoError(t, cfg.Validate())

	cfg.Chain.BatchSize = 0
	assert.Error(t, cfg.Validate())
}
