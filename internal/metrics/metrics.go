// Package metrics exposes huebridge's Prometheus collectors.
//
// All collectors live on a private registry served by Handler. Every
// Observe/Set method is safe on a nil *Metrics, so components can be built
// without metrics in tests.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "huebridge"

// Command results.
const (
	ResultPublished = "published"
	ResultSkipped   = "skipped"
	ResultFailed    = "failed"
)

// Metrics holds every collector the bridge updates.
type Metrics struct {
	registry *prometheus.Registry

	httpRequests *prometheus.CounterVec
	httpDuration *prometheus.HistogramVec
	commands     *prometheus.CounterVec
	ssdpMessages *prometheus.CounterVec
	ssdpReplies  *prometheus.CounterVec
	devices      prometheus.Gauge
	reloads      *prometheus.CounterVec
	busConnected prometheus.Gauge
}

// New creates the collectors and registers them, together with the Go
// runtime and process collectors, on a fresh registry.
func New(version string) *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		httpRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_requests_total",
			Help:      "Control plane requests by route, method and status code",
		}, []string{"route", "method", "status"}),
		httpDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "http_request_duration_seconds",
			Help:      "Control plane request latency by route",
			Buckets:   prometheus.DefBuckets,
		}, []string{"route"}),
		commands: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "commands_total",
			Help:      "Light state commands by translation kind and result",
		}, []string{"kind", "result"}),
		ssdpMessages: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "ssdp_messages_total",
			Help:      "Parsed SSDP datagrams by kind",
		}, []string{"kind"}),
		ssdpReplies: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "ssdp_replies_total",
			Help:      "Discover replies sent (result=ok|error)",
		}, []string{"result"}),
		devices: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "devices",
			Help:      "Devices in the current registry snapshot",
		}),
		reloads: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "device_reloads_total",
			Help:      "Device list reloads (result=ok|error)",
		}, []string{"result"}),
		busConnected: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "mqtt_connected",
			Help:      "1 while the MQTT connection is up",
		}),
	}

	m.registry.MustRegister(
		m.httpRequests,
		m.httpDuration,
		m.commands,
		m.ssdpMessages,
		m.ssdpReplies,
		m.devices,
		m.reloads,
		m.busConnected,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		prometheus.NewGaugeFunc(prometheus.GaugeOpts{
			Namespace:   namespace,
			Name:        "build_info",
			Help:        "Build information",
			ConstLabels: prometheus.Labels{"version": version},
		}, func() float64 { return 1 }),
	)

	return m
}

// Handler exposes the registry in the Prometheus text format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// Registry returns the underlying registry.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// ObserveHTTPRequest records one control plane request.
func (m *Metrics) ObserveHTTPRequest(route, method string, status int, d time.Duration) {
	if m == nil {
		return
	}
	m.httpRequests.WithLabelValues(route, method, strconv.Itoa(status)).Inc()
	m.httpDuration.WithLabelValues(route).Observe(d.Seconds())
}

// ObserveCommand records one translated light command.
func (m *Metrics) ObserveCommand(kind, result string) {
	if m == nil {
		return
	}
	m.commands.WithLabelValues(kind, result).Inc()
}

// ObserveSSDPMessage records one parsed SSDP datagram.
func (m *Metrics) ObserveSSDPMessage(kind string) {
	if m == nil {
		return
	}
	m.ssdpMessages.WithLabelValues(kind).Inc()
}

// ObserveSSDPReply records one discover reply attempt.
func (m *Metrics) ObserveSSDPReply(err error) {
	if m == nil {
		return
	}
	m.ssdpReplies.WithLabelValues(result(err)).Inc()
}

// ObserveReload records a device list reload and, on success, the new size.
func (m *Metrics) ObserveReload(devices int, err error) {
	if m == nil {
		return
	}
	m.reloads.WithLabelValues(result(err)).Inc()
	if err == nil {
		m.devices.Set(float64(devices))
	}
}

// SetDevices sets the registry size gauge.
func (m *Metrics) SetDevices(n int) {
	if m == nil {
		return
	}
	m.devices.Set(float64(n))
}

// SetBusConnected records the MQTT connection state.
func (m *Metrics) SetBusConnected(connected bool) {
	if m == nil {
		return
	}
	if connected {
		m.busConnected.Set(1)
		return
	}
	m.busConnected.Set(0)
}

func result(err error) string {
	if err != nil {
		return "error"
	}
	return "ok"
}

// NewServer returns an HTTP server exposing Handler at /metrics on addr.
func (m *Metrics) NewServer(addr string) *http.Server {
	mux := http.NewServeMux()
	mux.Handle("/metrics", m.Handler())
	return &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadHeaderTimeout: 10 * time.Second,
	}
}
