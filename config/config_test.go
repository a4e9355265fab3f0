package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, "0.0.0.0", cfg.Server.Host)
	assert.Equal(t, 8080, cfg.Server.Port)
	assert.Equal(t, "wallet_ledger", cfg.Database.DBName)
	assert.Equal(t, int32(20), cfg.Database.MaxConns)
	assert.Equal(t, 0.9, cfg.Gateway.SuccessRate)
	assert.Equal(t, 500*time.Millisecond, cfg.Gateway.MinLatency)
	assert.Equal(t, 5*time.Second, cfg.Gateway.CallTimeout)
	assert.Equal(t, "1000.00", cfg.Wallet.SeedBalance)
	assert.Equal(t, 300*time.Second, cfg.Cache.TTL)
	assert.Equal(t, "info", cfg.Log.Level)
}

func TestLoad_FromFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	content := []byte(`
server:
  port: 9090
database:
  dbname: ledger_test
cache:
  ttl: 60s
gateway:
  success_rate: 1.0
`)
	require.NoError(t, os.WriteFile(path, content, 0o600))

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, 9090, cfg.Server.Port)
	assert.Equal(t, "ledger_test", cfg.Database.DBName)
	assert.Equal(t, 60*time.Second, cfg.Cache.TTL)
	assert.Equal(t, 1.0, cfg.Gateway.SuccessRate)
	// Untouched keys keep defaults
	assert.Equal(t, "localhost", cfg.Redis.Host)
}

func TestLoad_EnvOverride(t *testing.T) {
	t.Setenv("WLG_DATABASE_HOST", "db.internal")
	t.Setenv("WLG_SERVER_PORT", "3000")

	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, "db.internal", cfg.Database.Host)
	assert.Equal(t, 3000, cfg.Server.Port)
}

func TestDatabaseConfig_DSN(t *testing.T) {
	d := DatabaseConfig{
		Host: "localhost", Port: 5432, User: "u", Password: "p",
		DBName: "wallet_ledger", SSLMode: "disable",
	}
	assert.Equal(t, "postgres://u:p@localhost:5432/wallet_ledger?sslmode=disable", d.DSN())
}

func TestRedisConfig_Addr(t *testing.T) {
	r := RedisConfig{Host: "cache.internal", Port: 6380}
	assert.Equal(t, "cache.internal:6380", r.Addr())
}
