// Package metrics provides the Prometheus gauges published by the exporter.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Device type label values of physical_summary.
const (
	DeviceTypeAll       = "all"
	DeviceTypeBlades    = "blades"
	DeviceTypeRackUnits = "rack_units"
)

// Node type label values of hx_nodes_summary.
const (
	NodeTypeCompute   = "computeNodeCount"
	NodeTypeConverged = "convergedNodeCount"
)

// Poll result label values of intersight_exporter_poll_cycles_total.
const (
	ResultSuccess = "success"
	ResultFailure = "failure"
)

// Registry owns every metric the exporter publishes. The poll loop is the only
// writer; the exposition handler is the only reader.
type Registry struct {
	registry *prometheus.Registry

	physicalSummary *prometheus.GaugeVec
	hxClusters      prometheus.Gauge
	hxHealth        *prometheus.GaugeVec
	hxNodesSummary  *prometheus.GaugeVec

	pollCyclesTotal    *prometheus.CounterVec
	pollDuration       prometheus.Histogram
	lastSuccess        prometheus.Gauge
	up                 prometheus.Gauge
	apiRequestsTotal   *prometheus.CounterVec
	apiRequestDuration *prometheus.HistogramVec
	scrapesInFlight    prometheus.Gauge
}

// NewRegistry creates a Registry backed by a fresh prometheus.Registry, so that
// independent instances never collide.
func NewRegistry() *Registry {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	factory := promauto.With(reg)

	return &Registry{
		registry: reg,

		physicalSummary: factory.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "physical_summary",
				Help: "Consolidated view of blades and rack units",
			},
			[]string{"deviceType"},
		),
		hxClusters: factory.NewGauge(
			prometheus.GaugeOpts{
				Name: "hx_clusters",
				Help: "Number of HyperFlex clusters",
			},
		),
		hxHealth: factory.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "hx_health",
				Help: "HyperFlex cluster health (0=UNKNOWN, 1=ONLINE, 2=OFFLINE, 3=ENOSPACE, 4=READONLY)",
			},
			[]string{"cluster"},
		),
		hxNodesSummary: factory.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "hx_nodes_summary",
				Help: "Number of compute and converged nodes per HyperFlex cluster",
			},
			[]string{"cluster", "nodeType"},
		),

		pollCyclesTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "intersight_exporter_poll_cycles_total",
				Help: "Total number of poll cycles by result",
			},
			[]string{"result"},
		),
		pollDuration: factory.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "intersight_exporter_poll_duration_seconds",
				Help:    "Poll cycle duration in seconds",
				Buckets: prometheus.ExponentialBuckets(0.05, 2, 10), // 50ms to ~25s
			},
		),
		lastSuccess: factory.NewGauge(
			prometheus.GaugeOpts{
				Name: "intersight_exporter_last_success_timestamp_seconds",
				Help: "Unix time of the last fully successful poll cycle",
			},
		),
		up: factory.NewGauge(
			prometheus.GaugeOpts{
				Name: "intersight_exporter_up",
				Help: "Whether the last poll cycle succeeded (1 = yes, 0 = no)",
			},
		),
		apiRequestsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "intersight_exporter_api_requests_total",
				Help: "Total number of Intersight API requests",
			},
			[]string{"operation", "status"},
		),
		apiRequestDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "intersight_exporter_api_request_duration_seconds",
				Help:    "Intersight API request duration in seconds",
				Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30},
			},
			[]string{"operation"},
		),
		scrapesInFlight: factory.NewGauge(
			prometheus.GaugeOpts{
				Name: "intersight_exporter_scrapes_in_flight",
				Help: "Number of metric scrapes currently being served",
			},
		),
	}
}

// SetPhysicalSummary sets physical_summary for one device type.
func (r *Registry) SetPhysicalSummary(deviceType string, count int64) {
	r.physicalSummary.WithLabelValues(deviceType).Set(float64(count))
}

// SetClusterCount sets hx_clusters.
func (r *Registry) SetClusterCount(count int) {
	r.hxClusters.Set(float64(count))
}

// SetClusterHealth sets hx_health for one cluster.
func (r *Registry) SetClusterHealth(cluster string, code int) {
	r.hxHealth.WithLabelValues(cluster).Set(float64(code))
}

// SetNodeCount sets hx_nodes_summary for one cluster and node type.
func (r *Registry) SetNodeCount(cluster, nodeType string, count int64) {
	r.hxNodesSummary.WithLabelValues(cluster, nodeType).Set(float64(count))
}

// RecordCycle records the outcome of one poll cycle.
func (r *Registry) RecordCycle(finished time.Time, duration time.Duration, err error) {
	r.pollDuration.Observe(duration.Seconds())
	if err != nil {
		r.pollCyclesTotal.WithLabelValues(ResultFailure).Inc()
		r.up.Set(0)
		return
	}
	r.pollCyclesTotal.WithLabelValues(ResultSuccess).Inc()
	r.up.Set(1)
	r.lastSuccess.Set(float64(finished.Unix()))
}

// ObserveAPIRequest records one upstream request.
func (r *Registry) ObserveAPIRequest(operation, status string, duration time.Duration) {
	r.apiRequestsTotal.WithLabelValues(operation, status).Inc()
	r.apiRequestDuration.WithLabelValues(operation).Observe(duration.Seconds())
}

// Gatherer exposes the underlying registry for tests and custom handlers.
func (r *Registry) Gatherer() prometheus.Gatherer {
	return r.registry
}

// Handler serves the registry in the Prometheus exposition format.
func (r *Registry) Handler() http.Handler {
	return promhttp.InstrumentHandlerInFlight(
		r.scrapesInFlight,
		promhttp.HandlerFor(r.registry, promhttp.HandlerOpts{Registry: r.registry}),
	)
}
