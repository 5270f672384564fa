package service

import (
	"fmt"
	"net/http"
	"runtime"
	"sync/atomic"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// MetricsService encapsulates Prometheus instrumentation for the API, the
// generation engine and the catalog scraper.
type MetricsService struct {
	registry *prometheus.Registry
	handler  http.Handler

	requestDuration *prometheus.HistogramVec
	requestTotal    *prometheus.CounterVec

	generationDuration prometheus.Histogram
	generationTotal    *prometheus.CounterVec
	schedulesFound     prometheus.Histogram

	scrapeDuration prometheus.Histogram
	scrapeFailures prometheus.Counter

	cacheLatency  prometheus.Observer
	cacheHits     prometheus.Counter
	cacheMisses   prometheus.Counter
	cacheHitRatio prometheus.Gauge

	cacheHitCount  uint64
	cacheMissCount uint64
}

// NewMetricsService registers the core collectors.
func NewMetricsService() *MetricsService {
	registry := prometheus.NewRegistry()

	requestDuration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "http_request_duration_seconds",
		Help:    "Duration of HTTP requests in seconds",
		Buckets: prometheus.DefBuckets,
	}, []string{"method", "path", "status"})

	requestTotal := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "http_requests_total",
		Help: "Total number of HTTP requests",
	}, []string{"method", "path", "status"})

	generationDuration := prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "schedule_generation_duration_seconds",
		Help:    "Duration of schedule generation runs",
		Buckets: []float64{0.01, 0.05, 0.1, 0.5, 1, 5, 10, 20},
	})

	generationTotal := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "schedule_generations_total",
		Help: "Total generation runs by outcome",
	}, []string{"outcome"})

	schedulesFound := prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "schedules_found",
		Help:    "Number of schedules emitted per generation run",
		Buckets: []float64{0, 1, 2, 5, 10, 25, 50, 100},
	})

	scrapeDuration := prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "catalog_scrape_duration_seconds",
		Help:    "Duration of catalog scrapes",
		Buckets: prometheus.DefBuckets,
	})

	scrapeFailures := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "catalog_scrape_failures_total",
		Help: "Total failed catalog scrapes",
	})

	cacheLatency := prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "result_cache_latency_seconds",
		Help:    "Latency of result cache lookups",
		Buckets: prometheus.DefBuckets,
	})

	cacheHits := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "result_cache_hits_total",
		Help: "Total result cache hits",
	})

	cacheMisses := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "result_cache_misses_total",
		Help: "Total result cache misses",
	})

	cacheHitRatio := prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "result_cache_hit_ratio",
		Help: "Ratio of result cache hits to total lookups",
	})

	goroutines := prometheus.NewGaugeFunc(prometheus.GaugeOpts{
		Name: "goroutines_total",
		Help: "Total number of goroutines",
	}, func() float64 {
		return float64(runtime.NumGoroutine())
	})

	registry.MustRegister(
		requestDuration, requestTotal,
		generationDuration, generationTotal, schedulesFound,
		scrapeDuration, scrapeFailures,
		cacheLatency, cacheHits, cacheMisses, cacheHitRatio,
		goroutines,
	)

	return &MetricsService{
		registry:           registry,
		handler:            promhttp.HandlerFor(registry, promhttp.HandlerOpts{}),
		requestDuration:    requestDuration,
		requestTotal:       requestTotal,
		generationDuration: generationDuration,
		generationTotal:    generationTotal,
		schedulesFound:     schedulesFound,
		scrapeDuration:     scrapeDuration,
		scrapeFailures:     scrapeFailures,
		cacheLatency:       cacheLatency,
		cacheHits:          cacheHits,
		cacheMisses:        cacheMisses,
		cacheHitRatio:      cacheHitRatio,
	}
}

// Handler exposes the Prometheus HTTP handler.
func (m *MetricsService) Handler() http.Handler {
	if m == nil {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusServiceUnavailable)
		})
	}
	return m.handler
}

// ObserveHTTPRequest records per-route request metrics.
func (m *MetricsService) ObserveHTTPRequest(method, path string, status int, duration time.Duration) {
	if m == nil {
		return
	}
	labelStatus := fmt.Sprintf("%d", status)
	m.requestDuration.WithLabelValues(method, path, labelStatus).Observe(duration.Seconds())
	m.requestTotal.WithLabelValues(method, path, labelStatus).Inc()
}

// ObserveGeneration records one finished generation run.
func (m *MetricsService) ObserveGeneration(duration time.Duration, found int, partial bool) {
	if m == nil {
		return
	}
	m.generationDuration.Observe(duration.Seconds())
	m.schedulesFound.Observe(float64(found))
	outcome := "complete"
	if partial {
		outcome = "partial"
	}
	m.generationTotal.WithLabelValues(outcome).Inc()
}

// ObserveScrape records one catalog scrape attempt.
func (m *MetricsService) ObserveScrape(duration time.Duration, err error) {
	if m == nil {
		return
	}
	m.scrapeDuration.Observe(duration.Seconds())
	if err != nil {
		m.scrapeFailures.Inc()
	}
}

// RecordCacheOperation records a result cache lookup and updates the hit ratio.
func (m *MetricsService) RecordCacheOperation(hit bool, duration time.Duration) {
	if m == nil {
		return
	}
	m.cacheLatency.Observe(duration.Seconds())
	if hit {
		m.cacheHits.Inc()
		atomic.AddUint64(&m.cacheHitCount, 1)
	} else {
		m.cacheMisses.Inc()
		atomic.AddUint64(&m.cacheMissCount, 1)
	}
	hits := atomic.LoadUint64(&m.cacheHitCount)
	misses := atomic.LoadUint64(&m.cacheMissCount)
	if total := hits + misses; total > 0 {
		m.cacheHitRatio.Set(float64(hits) / float64(total))
	}
}
