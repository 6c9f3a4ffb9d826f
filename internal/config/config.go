// Package config loads the scheduler daemon's configuration the way the
// teacher's WebSocket servers do: struct tags parsed by caarlos0/env, an
// optional .env preload, and an explicit Validate pass before anything else
// starts.
package config

import (
	"fmt"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
)

// Config holds every tunable the scheduler daemon reads at startup.
//
// env: environment variable name
// envDefault: default applied when unset
type Config struct {
	// Channels pre-created at boot (operators can still submit to any of
	// these; the scheduler itself never removes a channel).
	InitialChannels int `env:"SCHED_INITIAL_CHANNELS" envDefault:"4"`

	// Operator console (internal/console), gated by JWT.
	ConsoleAddr   string        `env:"SCHED_CONSOLE_ADDR" envDefault:":7070"`
	ConsoleSecret string        `env:"SCHED_CONSOLE_JWT_SECRET" envDefault:"dev-only-secret-change-me"`
	ConsoleTTL    time.Duration `env:"SCHED_CONSOLE_TOKEN_TTL" envDefault:"1h"`

	// NATS ingestion (internal/eventbus) — an alternate, decoupled path for
	// submitting set/cancel requests alongside the in-process API.
	NATSURL          string `env:"SCHED_NATS_URL" envDefault:"nats://127.0.0.1:4222"`
	NATSSubmitSubj   string `env:"SCHED_NATS_SUBMIT_SUBJECT" envDefault:"scheduler.submit"`
	NATSCancelSubj   string `env:"SCHED_NATS_CANCEL_SUBJECT" envDefault:"scheduler.cancel"`
	NATSDispatchSubj string `env:"SCHED_NATS_DISPATCH_SUBJECT" envDefault:"scheduler.dispatch"`
	NATSIngestRate   int    `env:"SCHED_NATS_INGEST_RATE" envDefault:"200"` // messages/sec, token bucket

	// Metrics (internal/metrics), Prometheus exposition.
	MetricsAddr string `env:"SCHED_METRICS_ADDR" envDefault:":9090"`

	// Telemetry sampling (internal/telemetry).
	TelemetryInterval time.Duration `env:"SCHED_TELEMETRY_INTERVAL" envDefault:"15s"`

	// Logging.
	LogLevel  string `env:"SCHED_LOG_LEVEL" envDefault:"info"`
	LogFormat string `env:"SCHED_LOG_FORMAT" envDefault:"json"`

	Environment string `env:"SCHED_ENVIRONMENT" envDefault:"development"`
}

// Load reads a .env file if present (missing is fine — it's a development
// convenience, production sets real environment variables), then parses and
// validates the environment into a Config.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil {
		fmt.Println("config: no .env file found, using environment variables only")
	}

	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("config: failed to parse environment: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config: validation failed: %w", err)
	}
	return cfg, nil
}

// Validate checks configuration for internal consistency.
func (c *Config) Validate() error {
	if c.InitialChannels < 1 {
		return fmt.Errorf("SCHED_INITIAL_CHANNELS must be > 0, got %d", c.InitialChannels)
	}
	if c.ConsoleSecret == "" {
		return fmt.Errorf("SCHED_CONSOLE_JWT_SECRET must not be empty")
	}
	if c.NATSIngestRate < 1 {
		return fmt.Errorf("SCHED_NATS_INGEST_RATE must be > 0, got %d", c.NATSIngestRate)
	}

	validLevels := map[string]bool{"debug": true, "info": true, "warn": true, "error": true}
	if !validLevels[c.LogLevel] {
		return fmt.Errorf("SCHED_LOG_LEVEL must be one of debug, info, warn, error (got %q)", c.LogLevel)
	}
	validFormats := map[string]bool{"json": true, "console": true}
	if !validFormats[c.LogFormat] {
		return fmt.Errorf("SCHED_LOG_FORMAT must be one of json, console (got %q)", c.LogFormat)
	}
	return nil
}

// LogConfig emits the loaded configuration as one structured log line.
func (c *Config) LogConfig(logger zerolog.Logger) {
	logger.Info().
		Str("environment", c.Environment).
		Int("initial_channels", c.InitialChannels).
		Str("console_addr", c.ConsoleAddr).
		Dur("console_token_ttl", c.ConsoleTTL).
		Str("nats_url", c.NATSURL).
		Int("nats_ingest_rate", c.NATSIngestRate).
		Str("metrics_addr", c.MetricsAddr).
		Dur("telemetry_interval", c.TelemetryInterval).
		Str("log_level", c.LogLevel).
		Str("log_format", c.LogFormat).
		Msg("scheduler configuration loaded")
}
