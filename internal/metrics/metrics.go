// Package metrics collects Prometheus metrics for the sync pipeline.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Recorder is what the fetcher and the sync coordinator report to
type Recorder interface {
	RecordSync(result string, duration time.Duration)
	RecordHTTPStatus(statusCode int)
	RecordFetchLatency(duration time.Duration)
	SetCachedAlbums(count int)
}

// Collector implements Recorder with Prometheus metrics
type Collector struct {
	syncs        *prometheus.CounterVec
	syncLatency  prometheus.Histogram
	httpStatus   *prometheus.CounterVec
	fetchLatency prometheus.Histogram
	cachedAlbums prometheus.Gauge
}

// NewCollector creates a Collector and registers it with reg
func NewCollector(reg prometheus.Registerer) *Collector {
	c := &Collector{
		syncs: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "topalbums_sync_total",
			Help: "Sync attempts by result (success, empty or an error kind).",
		}, []string{"result"}),
		syncLatency: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "topalbums_sync_duration_seconds",
			Help:    "Duration of a full sync attempt.",
			Buckets: prometheus.DefBuckets,
		}),
		httpStatus: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "topalbums_fetch_http_status_total",
			Help: "Upstream responses by HTTP status code.",
		}, []string{"status_code"}),
		fetchLatency: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "topalbums_fetch_latency_seconds",
			Help:    "Latency of the upstream chart request.",
			Buckets: prometheus.DefBuckets,
		}),
		cachedAlbums: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "topalbums_cached_albums",
			Help: "Number of albums in the local cache.",
		}),
	}

	reg.MustRegister(
		c.syncs,
		c.syncLatency,
		c.httpStatus,
		c.fetchLatency,
		c.cachedAlbums,
	)

	return c
}

// RecordSync counts a finished sync attempt
func (c *Collector) RecordSync(result string, duration time.Duration) {
	c.syncs.WithLabelValues(result).Inc()
	c.syncLatency.Observe(duration.Seconds())
}

// RecordHTTPStatus counts an upstream response status
func (c *Collector) RecordHTTPStatus(statusCode int) {
	c.httpStatus.WithLabelValues(strconv.Itoa(statusCode)).Inc()
}

// RecordFetchLatency observes the upstream request latency
func (c *Collector) RecordFetchLatency(duration time.Duration) {
	c.fetchLatency.Observe(duration.Seconds())
}

// SetCachedAlbums sets the cached album gauge
func (c *Collector) SetCachedAlbums(count int) {
	c.cachedAlbums.Set(float64(count))
}

// Nop discards everything
type Nop struct{}

func (Nop) RecordSync(string, time.Duration) {}
func (Nop) RecordHTTPStatus(int)             {}
func (Nop) RecordFetchLatency(time.Duration) {}
func (Nop) SetCachedAlbums(int)              {}

// Handler returns the Prometheus scrape handler for gatherer
func Handler(gatherer prometheus.Gatherer) http.Handler {
	return promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})
}
