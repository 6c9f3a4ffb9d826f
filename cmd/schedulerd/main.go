// Command schedulerd boots the scheduler core behind the ambient stack:
// config, logging, metrics, telemetry, NATS ingestion, and the JWT-gated
// operator console. It also simulates one channel tick source per channel
// so the core can be observed dispatching end to end — a stand-in for the
// real external clock spec.md places out of scope.
package main

import (
	"context"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"runtime"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	_ "go.uber.org/automaxprocs"

	"github.com/odin-broadcast/amcp-scheduler/internal/auth"
	"github.com/odin-broadcast/amcp-scheduler/internal/config"
	"github.com/odin-broadcast/amcp-scheduler/internal/console"
	"github.com/odin-broadcast/amcp-scheduler/internal/eventbus"
	"github.com/odin-broadcast/amcp-scheduler/internal/logging"
	"github.com/odin-broadcast/amcp-scheduler/internal/metrics"
	"github.com/odin-broadcast/amcp-scheduler/internal/scheduler"
	"github.com/odin-broadcast/amcp-scheduler/internal/telemetry"
	"github.com/odin-broadcast/amcp-scheduler/internal/timecode"
)

func main() {
	debug := flag.Bool("debug", false, "enable debug logging (overrides SCHED_LOG_LEVEL)")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintln(os.Stderr, "schedulerd: config error:", err)
		os.Exit(1)
	}
	if *debug {
		cfg.LogLevel = "debug"
	}

	logger, err := logging.New(cfg)
	if err != nil {
		fmt.Fprintln(os.Stderr, "schedulerd: logging error:", err)
		os.Exit(1)
	}
	cfg.LogConfig(logger)
	logger.Info().Int("gomaxprocs", runtime.GOMAXPROCS(0)).Msg("schedulerd: starting")

	met := metrics.New()
	sched := scheduler.New(scheduler.WithObserver(met))
	for i := 0; i < cfg.InitialChannels; i++ {
		sched.AddChannel()
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sampler := telemetry.New(cfg.TelemetryInterval, logger)
	met.Register(sampler.Collectors()...)
	go sampler.Run(ctx)

	metricsMux := http.NewServeMux()
	metricsMux.Handle("/metrics", met.Handler())
	metricsSrv := &http.Server{Addr: cfg.MetricsAddr, Handler: metricsMux}
	go func() {
		if err := metricsSrv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error().Err(err).Msg("schedulerd: metrics server stopped")
		}
	}()

	authMgr := auth.NewManager(cfg.ConsoleSecret, cfg.ConsoleTTL)
	consoleSrv := console.NewServer(cfg.ConsoleAddr, sched, authMgr, logger)
	go func() {
		if err := consoleSrv.ListenAndServe(); err != nil {
			logger.Error().Err(err).Msg("schedulerd: console server stopped")
		}
	}()

	bus, err := eventbus.Connect(eventbus.Config{
		URL:          cfg.NATSURL,
		SubmitSubj:   cfg.NATSSubmitSubj,
		CancelSubj:   cfg.NATSCancelSubj,
		DispatchSubj: cfg.NATSDispatchSubj,
		IngestRate:   cfg.NATSIngestRate,
	}, sched, logger)
	if err != nil {
		logger.Warn().Err(err).Msg("schedulerd: NATS unavailable, running without eventbus ingestion")
	} else {
		if err := bus.Start(); err != nil {
			logger.Warn().Err(err).Msg("schedulerd: failed to start eventbus subscriptions")
		}
		defer bus.Close()
	}

	for c := 0; c < cfg.InitialChannels; c++ {
		go runChannelClock(ctx, c, sched, bus, logger)
	}

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	<-sigCh

	logger.Info().Msg("schedulerd: shutting down")
	cancel()
	_ = consoleSrv.Shutdown()
	_ = metricsSrv.Close()
}

// runChannelClock stands in for the external tick source: it advances one
// simulated 50fps channel clock and calls Schedule once per frame.
func runChannelClock(ctx context.Context, channel int, sched *scheduler.Scheduler, bus *eventbus.Bus, logger zerolog.Logger) {
	const frameInterval = time.Second / 50
	ticker := time.NewTicker(frameInterval)
	defer ticker.Stop()

	var frame int64
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			now := timecode.New(frame, timecode.FPS50)
			frame++

			groups, ok := sched.Schedule(channel, now)
			if !ok {
				continue
			}
			if len(groups) == 0 {
				continue
			}
			logger.Info().Int("channel", channel).Int("groups", len(groups)).Msg("schedulerd: dispatched")
			if bus != nil {
				bus.PublishDispatch(channel, groups)
			}
		}
	}
}
