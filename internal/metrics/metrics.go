package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Collector service metrics on a private registry.
// A nil *Collector is valid and records nothing.
type Collector struct {
	registry *prometheus.Registry

	RequestsTotal   *prometheus.CounterVec
	RequestDuration *prometheus.HistogramVec

	RecordsCreatedTotal  *prometheus.CounterVec
	RecordsDeletedTotal  prometheus.Counter
	RemoteFailuresTotal  *prometheus.CounterVec
	RefreshesTotal       *prometheus.CounterVec
	ExportsTotal         *prometheus.CounterVec
	WaveformImportsTotal *prometheus.CounterVec
	VisibleRecords       prometheus.Gauge
}

func NewCollector(serviceName string) *Collector {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	f := promauto.With(reg)

	return &Collector{
		registry: reg,

		RequestsTotal: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: serviceName,
			Subsystem: "http",
			Name:      "requests_total",
			Help:      "Total number of HTTP requests by method, path, and status code.",
		}, []string{"method", "path", "status"}),

		RequestDuration: f.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: serviceName,
			Subsystem: "http",
			Name:      "request_duration_seconds",
			Help:      "HTTP request latency distribution.",
			Buckets:   []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1.0, 2.5, 5.0},
		}, []string{"method", "path"}),

		RecordsCreatedTotal: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: serviceName,
			Subsystem: "records",
			Name:      "created_total",
			Help:      "Records created, by whether the remote endpoint accepted them.",
		}, []string{"remote"}),

		RecordsDeletedTotal: f.NewCounter(prometheus.CounterOpts{
			Namespace: serviceName,
			Subsystem: "records",
			Name:      "deleted_total",
			Help:      "Records deleted.",
		}),

		RemoteFailuresTotal: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: serviceName,
			Subsystem: "remote",
			Name:      "failures_total",
			Help:      "Failed calls to the remote records endpoint by operation.",
		}, []string{"op"}),

		RefreshesTotal: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: serviceName,
			Subsystem: "table",
			Name:      "refreshes_total",
			Help:      "Table reloads by outcome (ok, degraded, failed).",
		}, []string{"outcome"}),

		ExportsTotal: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: serviceName,
			Subsystem: "table",
			Name:      "exports_total",
			Help:      "Table exports by format.",
		}, []string{"format"}),

		WaveformImportsTotal: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: serviceName,
			Subsystem: "intake",
			Name:      "waveform_imports_total",
			Help:      "Spreadsheet waveform imports by outcome.",
		}, []string{"outcome"}),

		VisibleRecords: f.NewGauge(prometheus.GaugeOpts{
			Namespace: serviceName,
			Subsystem: "table",
			Name:      "visible_records",
			Help:      "Rows currently inside the table window.",
		}),
	}
}

// Handler exposes the collector's registry
func (c *Collector) Handler() http.Handler {
	if c == nil {
		return http.NotFoundHandler()
	}
	return promhttp.HandlerFor(c.registry, promhttp.HandlerOpts{Registry: c.registry})
}

func (c *Collector) ObserveRequest(method, path string, status int, elapsed time.Duration) {
	if c == nil {
		return
	}
	c.RequestsTotal.WithLabelValues(method, path, strconv.Itoa(status)).Inc()
	c.RequestDuration.WithLabelValues(method, path).Observe(elapsed.Seconds())
}

func (c *Collector) RecordCreated(remoteOK bool) {
	if c == nil {
		return
	}
	c.RecordsCreatedTotal.WithLabelValues(strconv.FormatBool(remoteOK)).Inc()
}

func (c *Collector) RecordDeleted() {
	if c == nil {
		return
	}
	c.RecordsDeletedTotal.Inc()
}

func (c *Collector) RemoteFailure(op string) {
	if c == nil {
		return
	}
	c.RemoteFailuresTotal.WithLabelValues(op).Inc()
}

func (c *Collector) Refresh(outcome string) {
	if c == nil {
		return
	}
	c.RefreshesTotal.WithLabelValues(outcome).Inc()
}

func (c *Collector) Export(format string) {
	if c == nil {
		return
	}
	c.ExportsTotal.WithLabelValues(format).Inc()
}

func (c *Collector) WaveformImport(outcome string) {
	if c == nil {
		return
	}
	c.WaveformImportsTotal.WithLabelValues(outcome).Inc()
}

func (c *Collector) SetVisible(n int) {
	if c == nil {
		return
	}
	c.VisibleRecords.Set(float64(n))
}
