// Package metrics exposes scheduler activity to Prometheus, the way
// go-server/internal/metrics wraps websocket activity: a struct of
// promauto-registered collectors implementing a small interface the core
// calls into, so the core never imports Prometheus directly.
package metrics

import (
	"net/http"
	"strconv"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/odin-broadcast/amcp-scheduler/internal/scheduler"
)

// Metrics implements scheduler.Observer on top of a dedicated Prometheus
// registry (not the global DefaultRegisterer, so multiple Metrics instances
// — as in tests — never collide on metric names).
type Metrics struct {
	registry *prometheus.Registry

	setTotal         prometheus.Counter
	setReplacedTotal prometheus.Counter
	removeTotal      *prometheus.CounterVec // label: "hit"/"miss"
	clearTotal       prometheus.Counter

	dispatchGroupsTotal   *prometheus.CounterVec // label: channel
	dispatchCommandsTotal *prometheus.CounterVec // label: channel
	dispatchGroupSize     prometheus.Histogram

	scheduleTimeoutsTotal *prometheus.CounterVec // label: channel
}

// New builds a Metrics instance registered on a fresh registry.
func New() *Metrics {
	reg := prometheus.NewRegistry()
	factory := promauto.With(reg)

	m := &Metrics{
		registry: reg,

		setTotal: factory.NewCounter(prometheus.CounterOpts{
			Name: "amcp_scheduler_set_total",
			Help: "Total number of Scheduler.Set calls.",
		}),
		setReplacedTotal: factory.NewCounter(prometheus.CounterOpts{
			Name: "amcp_scheduler_set_replaced_total",
			Help: "Total number of Scheduler.Set calls that replaced an existing token.",
		}),
		removeTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "amcp_scheduler_remove_total",
			Help: "Total number of Scheduler.Remove calls, by whether a token was found.",
		}, []string{"result"}),
		clearTotal: factory.NewCounter(prometheus.CounterOpts{
			Name: "amcp_scheduler_clear_total",
			Help: "Total number of Scheduler.Clear calls.",
		}),
		dispatchGroupsTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "amcp_scheduler_dispatch_groups_total",
			Help: "Total number of GroupCommands dispatched, by channel.",
		}, []string{"channel"}),
		dispatchCommandsTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "amcp_scheduler_dispatch_commands_total",
			Help: "Total number of individual commands dispatched, by channel.",
		}, []string{"channel"}),
		dispatchGroupSize: factory.NewHistogram(prometheus.HistogramOpts{
			Name:    "amcp_scheduler_dispatch_group_size",
			Help:    "Distribution of the mean command count per dispatched group, observed once per Schedule call that released groups.",
			Buckets: []float64{1, 2, 3, 5, 8, 13, 21},
		}),
		scheduleTimeoutsTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "amcp_scheduler_schedule_timeouts_total",
			Help: "Total number of Schedule calls that timed out acquiring the lock, by channel.",
		}, []string{"channel"}),
	}
	return m
}

// Handler serves the registry's metrics in the Prometheus exposition
// format, for mounting at /metrics.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// Register attaches additional collectors (e.g. internal/telemetry's
// Sampler) to this Metrics instance's registry, so everything is exposed
// through the one /metrics endpoint.
func (m *Metrics) Register(collectors ...prometheus.Collector) {
	for _, c := range collectors {
		m.registry.MustRegister(c)
	}
}

var _ scheduler.Observer = (*Metrics)(nil)

func (m *Metrics) ObserveSet(channel int, token string, replaced bool) {
	m.setTotal.Inc()
	if replaced {
		m.setReplacedTotal.Inc()
	}
}

func (m *Metrics) ObserveRemove(token string, found bool) {
	result := "miss"
	if found {
		result = "hit"
	}
	m.removeTotal.WithLabelValues(result).Inc()
}

func (m *Metrics) ObserveClear() {
	m.clearTotal.Inc()
}

func (m *Metrics) ObserveDispatch(channel int, groups, commands int) {
	label := channelLabel(channel)
	m.dispatchGroupsTotal.WithLabelValues(label).Add(float64(groups))
	m.dispatchCommandsTotal.WithLabelValues(label).Add(float64(commands))
	if groups > 0 {
		m.dispatchGroupSize.Observe(float64(commands) / float64(groups))
	}
}

func (m *Metrics) ObserveScheduleTimeout(channel int) {
	m.scheduleTimeoutsTotal.WithLabelValues(channelLabel(channel)).Inc()
}

func channelLabel(channel int) string {
	return strconv.Itoa(channel)
}
