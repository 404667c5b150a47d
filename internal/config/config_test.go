package config_test

import (
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/KirkDiggler/rpg-combat/internal/config"
	"github.com/KirkDiggler/rpg-combat/internal/entities/combat"
	"github.com/KirkDiggler/rpg-combat/internal/errors"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := config.Load(filepath.Join(t.TempDir(), "missing.env"))
	require.NoError(t, err)

	assert.Equal(t, 50051, cfg.GRPCPort)
	assert.Empty(t, cfg.RedisAddr)
	assert.Equal(t, 5*time.Minute, cfg.InactivityTimeout)
	assert.Equal(t, 2*time.Minute, cfg.ResultGrace)
	assert.Equal(t, 24*time.Hour, cfg.ArchiveTTL)
	assert.Equal(t, 30*time.Second, cfg.SweepInterval)
	assert.Equal(t, 2*time.Second, cfg.LockTimeout)
	assert.Equal(t, combat.ElectorateAll, cfg.Electorate())
	assert.Equal(t, slog.LevelInfo, cfg.SlogLevel())
}

func TestLoadFromEnvironment(t *testing.T) {
	t.Setenv("COMBAT_GRPC_PORT", "6000")
	t.Setenv("COMBAT_LOCK_TIMEOUT", "150ms")
	t.Setenv("COMBAT_SURRENDER_ELECTORATE", "team")
	t.Setenv("COMBAT_LOG_LEVEL", "debug")

	cfg, err := config.Load(filepath.Join(t.TempDir(), "missing.env"))
	require.NoError(t, err)

	assert.Equal(t, 6000, cfg.GRPCPort)
	assert.Equal(t, 150*time.Millisecond, cfg.LockTimeout)
	assert.Equal(t, combat.ElectorateTeam, cfg.Electorate())
	assert.Equal(t, slog.LevelDebug, cfg.SlogLevel())
}

func TestLoadDotenvFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "test.env")
	require.NoError(t, os.WriteFile(path, []byte("COMBAT_REDIS_ADDR=localhost:6390\n"), 0o600))
	t.Cleanup(func() { _ = os.Unsetenv("COMBAT_REDIS_ADDR") })

	cfg, err := config.Load(path)
	require.NoError(t, err)
	assert.Equal(t, "localhost:6390", cfg.RedisAddr)
}

func TestValidate(t *testing.T) {
	testCases := []struct {
		name   string
		mutate func(*config.Config)
		field  string
	}{
		{name: "port", mutate: func(c *config.Config) { c.GRPCPort = 0 }, field: "COMBAT_GRPC_PORT"},
		{name: "lock timeout", mutate: func(c *config.Config) { c.LockTimeout = 0 }, field: "COMBAT_LOCK_TIMEOUT"},
		{name: "grace", mutate: func(c *config.Config) { c.ResultGrace = -time.Second }, field: "COMBAT_RESULT_GRACE"},
		{name: "electorate", mutate: func(c *config.Config) { c.SurrenderElectorate = "everyone" }, field: "COMBAT_SURRENDER_ELECTORATE"},
		{name: "log format", mutate: func(c *config.Config) { c.LogFormat = "xml" }, field: "COMBAT_LOG_FORMAT"},
		{name: "log level", mutate: func(c *config.Config) { c.LogLevel = "loud" }, field: "COMBAT_LOG_LEVEL"},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			cfg := validConfig()
			tc.mutate(cfg)

			err := cfg.Validate()
			require.Error(t, err)
			assert.True(t, errors.IsInvalidArgument(err))
			assert.Contains(t, err.Error(), tc.field)
		})
	}

	assert.NoError(t, validConfig().Validate())
}

func validConfig() *config.Config {
	return &config.Config{
		GRPCPort:            50051,
		InactivityTimeout:   time.Minute,
		ResultGrace:         time.Minute,
		ArchiveTTL:          time.Hour,
		SweepInterval:       time.Second,
		LockTimeout:         time.Second,
		SurrenderElectorate: "all",
		LogLevel:            "info",
		LogFormat:           "json",
	}
}
