// Package metrics exposes monitor, action, client and server counters to
// Prometheus.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"github.com/pvmon/pvmon-go/pkg/action"
	"github.com/pvmon/pvmon-go/pkg/monitor"
	"github.com/pvmon/pvmon-go/pkg/pvclient"
	"github.com/pvmon/pvmon-go/pkg/pvserver"
)

// Namespace prefixes every metric name.
const Namespace = "pvmon"

// Metrics implements the recorder interfaces of every component on one
// registry.
type Metrics struct {
	registry *prometheus.Registry

	channelsConnected prometheus.Gauge
	connectionEvents  *prometheus.CounterVec
	updates           *prometheus.CounterVec
	metadataFailures  prometheus.Counter
	exceptions        *prometheus.CounterVec
	registrySize      prometheus.Gauge
	registryOverflows prometheus.Counter

	actionsStarted  *prometheus.CounterVec
	actionsExited   *prometheus.CounterVec
	actionsSkipped  prometheus.Counter

	sessionsUp      *prometheus.GaugeVec
	requestTimeouts prometheus.Counter

	clients   prometheus.Gauge
	published prometheus.Counter
}

var (
	_ monitor.Recorder  = (*Metrics)(nil)
	_ action.Recorder   = (*Metrics)(nil)
	_ pvclient.Recorder = (*Metrics)(nil)
	_ pvserver.Recorder = (*Metrics)(nil)
)

// New creates the metrics on a fresh registry that also carries the Go
// runtime and process collectors.
func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		channelsConnected: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: Namespace,
			Subsystem: "monitor",
			Name:      "channels_connected",
			Help:      "Monitored channels currently connected.",
		}),
		connectionEvents: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: Namespace,
			Subsystem: "monitor",
			Name:      "connection_events_total",
			Help:      "Channel connection changes by direction.",
		}, []string{"direction"}),
		updates: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: Namespace,
			Subsystem: "monitor",
			Name:      "updates_total",
			Help:      "Value updates received by outcome.",
		}, []string{"outcome"}),
		metadataFailures: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: Namespace,
			Subsystem: "monitor",
			Name:      "metadata_failures_total",
			Help:      "Channels that failed precision negotiation.",
		}),
		exceptions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: Namespace,
			Subsystem: "monitor",
			Name:      "exceptions_total",
			Help:      "Transport exceptions by whether they were reported.",
		}, []string{"handling"}),
		registrySize: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: Namespace,
			Subsystem: "monitor",
			Name:      "registry_entries",
			Help:      "Occupied channel registry slots.",
		}),
		registryOverflows: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: Namespace,
			Subsystem: "monitor",
			Name:      "registry_overflows_total",
			Help:      "Channels rejected because the registry was full.",
		}),
		actionsStarted: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: Namespace,
			Subsystem: "action",
			Name:      "started_total",
			Help:      "Script launches by outcome.",
		}, []string{"outcome"}),
		actionsExited: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: Namespace,
			Subsystem: "action",
			Name:      "exited_total",
			Help:      "Script exits by outcome.",
		}, []string{"outcome"}),
		actionsSkipped: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: Namespace,
			Subsystem: "action",
			Name:      "suppressed_total",
			Help:      "Updates that did not change the value and ran no script.",
		}),
		sessionsUp: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: Namespace,
			Subsystem: "client",
			Name:      "session_up",
			Help:      "1 while the session to a server is up.",
		}, []string{"server"}),
		requestTimeouts: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: Namespace,
			Subsystem: "client",
			Name:      "request_timeouts_total",
			Help:      "Requests that got no response in time.",
		}),
		clients: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: Namespace,
			Subsystem: "server",
			Name:      "clients",
			Help:      "Connected clients.",
		}),
		published: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: Namespace,
			Subsystem: "server",
			Name:      "updates_published_total",
			Help:      "Update events sent to subscribers.",
		}),
	}

	m.registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		m.channelsConnected,
		m.connectionEvents,
		m.updates,
		m.metadataFailures,
		m.exceptions,
		m.registrySize,
		m.registryOverflows,
		m.actionsStarted,
		m.actionsExited,
		m.actionsSkipped,
		m.sessionsUp,
		m.requestTimeouts,
		m.clients,
		m.published,
	)
	return m
}

// Registry returns the registry holding every metric.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// ConnectionChanged counts a channel going up or down.
func (m *Metrics) ConnectionChanged(up bool) {
	if up {
		m.channelsConnected.Inc()
		m.connectionEvents.WithLabelValues("up").Inc()
		return
	}
	m.channelsConnected.Dec()
	m.connectionEvents.WithLabelValues("down").Inc()
}

func (m *Metrics) UpdateReceived(ok bool) {
	m.updates.WithLabelValues(outcome(ok)).Inc()
}

func (m *Metrics) MetadataFailed() {
	m.metadataFailures.Inc()
}

func (m *Metrics) ExceptionObserved(suppressed bool) {
	if suppressed {
		m.exceptions.WithLabelValues("suppressed").Inc()
		return
	}
	m.exceptions.WithLabelValues("reported").Inc()
}

func (m *Metrics) RegistrySize(n int) {
	m.registrySize.Set(float64(n))
}

func (m *Metrics) RegistryOverflow() {
	m.registryOverflows.Inc()
}

func (m *Metrics) ActionStarted(ok bool) {
	m.actionsStarted.WithLabelValues(outcome(ok)).Inc()
}

func (m *Metrics) ActionExited(success bool) {
	m.actionsExited.WithLabelValues(outcome(success)).Inc()
}

func (m *Metrics) ActionSuppressed() {
	m.actionsSkipped.Inc()
}

// SessionChanged tracks the session state per server address.
func (m *Metrics) SessionChanged(addr string, up bool) {
	v := 0.0
	if up {
		v = 1
	}
	m.sessionsUp.WithLabelValues(addr).Set(v)
}

func (m *Metrics) RequestTimedOut() {
	m.requestTimeouts.Inc()
}

func (m *Metrics) ClientsConnected(n int) {
	m.clients.Set(float64(n))
}

func (m *Metrics) UpdatesPublished(n int) {
	m.published.Add(float64(n))
}

func outcome(ok bool) string {
	if ok {
		return "ok"
	}
	return "error"
}
