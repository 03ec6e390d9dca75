package api

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics counts requests and memo lookups. It satisfies memo.Observer.
type Metrics struct {
	reg               *prometheus.Registry
	httpRequestsTotal *prometheus.CounterVec
	httpDuration      *prometheus.HistogramVec
	memoHits          prometheus.Counter
	memoMisses        prometheus.Counter
	datasetRows       prometheus.Gauge
}

// NewMetrics builds the collectors on a registry of their own.
func NewMetrics() *Metrics {
	m := &Metrics{
		reg: prometheus.NewRegistry(),
		httpRequestsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total count of HTTP requests processed by route and status.",
		}, []string{"route", "status"}),
		httpDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "Histogram of HTTP request durations by route.",
			Buckets: prometheus.DefBuckets,
		}, []string{"route"}),
		memoHits: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "view_cache_hits_total",
			Help: "Total memoized view lookups that hit.",
		}),
		memoMisses: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "view_cache_misses_total",
			Help: "Total memoized view lookups that missed.",
		}),
		datasetRows: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "dataset_rows",
			Help: "Rows in the canonical table of the session.",
		}),
	}
	m.reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		m.httpRequestsTotal,
		m.httpDuration,
		m.memoHits,
		m.memoMisses,
		m.datasetRows,
	)
	return m
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (s *statusRecorder) WriteHeader(status int) {
	s.status = status
	s.ResponseWriter.WriteHeader(status)
}

// WrapHandler records the count and duration of requests to a route.
func (m *Metrics) WrapHandler(route string, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		recorder := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		start := time.Now()

		next.ServeHTTP(recorder, r)

		if m != nil {
			m.httpRequestsTotal.WithLabelValues(route, strconv.Itoa(recorder.status)).Inc()
			m.httpDuration.WithLabelValues(route).Observe(time.Since(start).Seconds())
		}
	})
}

// Handler serves the registry in the Prometheus text format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.reg, promhttp.HandlerOpts{Registry: m.reg})
}

func (m *Metrics) CacheHit() {
	if m == nil {
		return
	}
	m.memoHits.Inc()
}

func (m *Metrics) CacheMiss() {
	if m == nil {
		return
	}
	m.memoMisses.Inc()
}

// SetRows publishes the size of the loaded table.
func (m *Metrics) SetRows(n int) {
	if m == nil {
		return
	}
	m.datasetRows.Set(float64(n))
}
