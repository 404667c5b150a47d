// Package config loads the combat server configuration from the environment
package config

import (
	"io"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"

	"github.com/KirkDiggler/rpg-combat/internal/entities/combat"
	"github.com/KirkDiggler/rpg-combat/internal/errors"
)

// Log formats
const (
	LogFormatText = "text"
	LogFormatJSON = "json"
)

// Config is the server configuration
type Config struct {
	GRPCPort int `env:"COMBAT_GRPC_PORT" envDefault:"50051"`
	// RedisAddr selects the Redis archive; empty keeps the archive in memory
	RedisAddr string `env:"COMBAT_REDIS_ADDR"`

	InactivityTimeout time.Duration `env:"COMBAT_INACTIVITY_TIMEOUT" envDefault:"5m"`
	ResultGrace       time.Duration `env:"COMBAT_RESULT_GRACE" envDefault:"2m"`
	ArchiveTTL        time.Duration `env:"COMBAT_ARCHIVE_TTL" envDefault:"24h"`
	SweepInterval     time.Duration `env:"COMBAT_SWEEP_INTERVAL" envDefault:"30s"`
	LockTimeout       time.Duration `env:"COMBAT_LOCK_TIMEOUT" envDefault:"2s"`

	SurrenderElectorate string `env:"COMBAT_SURRENDER_ELECTORATE" envDefault:"all"`

	LogLevel  string `env:"COMBAT_LOG_LEVEL" envDefault:"info"`
	LogFormat string `env:"COMBAT_LOG_FORMAT" envDefault:"text"`
}

// Load reads an optional .env file, then the environment
func Load(dotenvFiles ...string) (*Config, error) {
	if err := loadDotenv(dotenvFiles...); err != nil {
		return nil, err
	}

	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, errors.WrapWithCode(err, errors.CodeInvalidArgument, "failed to parse environment")
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// loadDotenv loads the given files, or .env, skipping any that do not exist.
// Variables already set in the environment win.
func loadDotenv(files ...string) error {
	if len(files) == 0 {
		files = []string{".env"}
	}

	for _, f := range files {
		if _, err := os.Stat(f); err != nil {
			continue
		}
		if err := godotenv.Load(f); err != nil {
			return errors.Wrapf(err, "failed to load %s", f)
		}
	}
	return nil
}

// Validate ensures every setting is usable
func (c *Config) Validate() error {
	vb := errors.NewValidationBuilder()

	errors.ValidateRange("COMBAT_GRPC_PORT", c.GRPCPort, 1, 65535, vb)
	errors.ValidatePositiveDuration("COMBAT_INACTIVITY_TIMEOUT", c.InactivityTimeout, vb)
	errors.ValidatePositiveDuration("COMBAT_ARCHIVE_TTL", c.ArchiveTTL, vb)
	errors.ValidatePositiveDuration("COMBAT_SWEEP_INTERVAL", c.SweepInterval, vb)
	errors.ValidatePositiveDuration("COMBAT_LOCK_TIMEOUT", c.LockTimeout, vb)
	if c.ResultGrace < 0 {
		vb.Field("COMBAT_RESULT_GRACE", "must not be negative")
	}

	errors.ValidateEnum("COMBAT_SURRENDER_ELECTORATE", c.SurrenderElectorate,
		[]string{string(combat.ElectorateAll), string(combat.ElectorateTeam)}, vb)
	errors.ValidateEnum("COMBAT_LOG_FORMAT", strings.ToLower(c.LogFormat),
		[]string{LogFormatText, LogFormatJSON}, vb)

	if _, ok := parseLevel(c.LogLevel); !ok {
		vb.InvalidField("COMBAT_LOG_LEVEL", c.LogLevel)
	}

	return vb.Build()
}

// Electorate returns the configured surrender electorate
func (c *Config) Electorate() combat.Electorate {
	return combat.Electorate(c.SurrenderElectorate)
}

// SlogLevel returns the configured log level
func (c *Config) SlogLevel() slog.Level {
	level, _ := parseLevel(c.LogLevel)
	return level
}

// NewLogger builds the process logger the config asks for
func (c *Config) NewLogger(w io.Writer) *slog.Logger {
	opts := &slog.HandlerOptions{Level: c.SlogLevel()}
	if strings.EqualFold(c.LogFormat, LogFormatJSON) {
		return slog.New(slog.NewJSONHandler(w, opts))
	}
	return slog.New(slog.NewTextHandler(w, opts))
}

func parseLevel(s string) (slog.Level, bool) {
	var level slog.Level
	if err := level.UnmarshalText([]byte(s)); err != nil {
		return slog.LevelInfo, false
	}
	return level, true
}
