// Package telemetry periodically samples host resource usage via gopsutil,
// the way go-server/internal/metrics/system.go tracks CPU for the
// websocket server's capacity guard. The scheduler core never consults
// this — it's purely an operational signal logged and exposed alongside
// the core's own dispatch metrics, useful for correlating a slow tick with
// host load.
package telemetry

import (
	"context"
	"runtime"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/shirou/gopsutil/v3/cpu"
	"github.com/shirou/gopsutil/v3/mem"
	"github.com/rs/zerolog"
)

// Sampler periodically reads CPU and memory usage and logs/exposes them.
type Sampler struct {
	interval time.Duration
	logger   zerolog.Logger

	cpuGauge        prometheus.Gauge
	memGauge        prometheus.Gauge
	goroutinesGauge prometheus.Gauge

	mu         sync.RWMutex
	lastCPU    float64
	lastMemPct float64
}

// New builds a Sampler. Metrics are registered lazily via Describe/Collect
// semantics through the returned collectors so callers can attach them to
// any registry (see cmd/schedulerd, which registers them on the same
// registry as internal/metrics).
func New(interval time.Duration, logger zerolog.Logger) *Sampler {
	return &Sampler{
		interval: interval,
		logger:   logger,
		cpuGauge: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "amcp_scheduler_host_cpu_percent",
			Help: "Host CPU utilization percentage, sampled periodically.",
		}),
		memGauge: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "amcp_scheduler_host_memory_percent",
			Help: "Host memory utilization percentage, sampled periodically.",
		}),
		goroutinesGauge: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "amcp_scheduler_goroutines",
			Help: "Current number of goroutines in the scheduler process.",
		}),
	}
}

// Collectors returns the Prometheus collectors this sampler feeds, for
// registration by the caller.
func (s *Sampler) Collectors() []prometheus.Collector {
	return []prometheus.Collector{s.cpuGauge, s.memGauge, s.goroutinesGauge}
}

// Run samples on Interval until ctx is cancelled.
func (s *Sampler) Run(ctx context.Context) {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	s.sample()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.sample()
		}
	}
}

func (s *Sampler) sample() {
	if pcts, err := cpu.Percent(0, false); err == nil && len(pcts) > 0 {
		s.mu.Lock()
		s.lastCPU = pcts[0]
		s.mu.Unlock()
		s.cpuGauge.Set(pcts[0])
	}

	if vm, err := mem.VirtualMemory(); err == nil {
		s.mu.Lock()
		s.lastMemPct = vm.UsedPercent
		s.mu.Unlock()
		s.memGauge.Set(vm.UsedPercent)
	}

	n := runtime.NumGoroutine()
	s.goroutinesGauge.Set(float64(n))

	s.logger.Debug().
		Float64("cpu_percent", s.snapshotCPU()).
		Float64("mem_percent", s.snapshotMem()).
		Int("goroutines", n).
		Msg("telemetry sample")
}

func (s *Sampler) snapshotCPU() float64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.lastCPU
}

func (s *Sampler) snapshotMem() float64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.lastMemPct
}
