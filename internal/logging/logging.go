// Package logging builds the zerolog.Logger every other package takes as a
// constructor argument, switching format and level the same way the
// teacher's WebSocket servers configure logging from Config.
package logging

import (
	"fmt"
	"os"

	"github.com/rs/zerolog"

	"github.com/odin-broadcast/amcp-scheduler/internal/config"
)

// New builds a zerolog.Logger from cfg. LogFormat "console" gets a
// human-readable pretty writer (development); anything else gets plain
// JSON lines (production, Loki/Grafana friendly).
func New(cfg *config.Config) (zerolog.Logger, error) {
	level, err := zerolog.ParseLevel(cfg.LogLevel)
	if err != nil {
		return zerolog.Logger{}, fmt.Errorf("logging: invalid level %q: %w", cfg.LogLevel, err)
	}

	var writer = os.Stdout
	var logger zerolog.Logger
	if cfg.LogFormat == "console" {
		logger = zerolog.New(zerolog.ConsoleWriter{Out: writer, TimeFormat: "15:04:05"}).
			Level(level).
			With().Timestamp().Str("component", "scheduler").Logger()
	} else {
		logger = zerolog.New(writer).
			Level(level).
			With().Timestamp().Str("component", "scheduler").Logger()
	}
	return logger, nil
}
