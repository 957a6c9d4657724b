package observability

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "gdsview"

// PrometheusHooks implements every hook interface on top of a private
// Prometheus registry.
type PrometheusHooks struct {
	registry *prometheus.Registry

	stageDuration *prometheus.HistogramVec
	stageErrors   *prometheus.CounterVec
	stagesActive  *prometheus.GaugeVec
	loads         *prometheus.CounterVec
	loadShapes    prometheus.Gauge
	loadTriangles prometheus.Gauge

	cacheLookups *prometheus.CounterVec
	cacheWrites  *prometheus.CounterVec

	picks        *prometheus.CounterVec
	pickDuration prometheus.Histogram

	requests        *prometheus.CounterVec
	requestDuration *prometheus.HistogramVec
}

// NewPrometheusHooks creates the collectors on a fresh registry that also
// carries the Go runtime and process collectors.
func NewPrometheusHooks() *PrometheusHooks {
	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	f := promauto.With(reg)

	return &PrometheusHooks{
		registry: reg,
		stageDuration: f.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace, Subsystem: "pipeline", Name: "stage_duration_seconds",
			Help:    "Duration of pipeline stages.",
			Buckets: []float64{0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1, 5, 10, 30},
		}, []string{"stage"}),
		stageErrors: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace, Subsystem: "pipeline", Name: "stage_errors_total",
			Help: "Pipeline stages that returned an error.",
		}, []string{"stage"}),
		stagesActive: f.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace, Subsystem: "pipeline", Name: "stages_in_flight",
			Help: "Pipeline stages currently running.",
		}, []string{"stage"}),
		loads: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace, Subsystem: "pipeline", Name: "loads_total",
			Help: "Completed loads by outcome.",
		}, []string{"status"}),
		loadShapes: f.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace, Subsystem: "pipeline", Name: "shape_instances",
			Help: "Shape instances of the last successful load.",
		}),
		loadTriangles: f.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace, Subsystem: "pipeline", Name: "triangles",
			Help: "Triangles of the last successful load.",
		}),
		cacheLookups: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace, Subsystem: "cache", Name: "lookups_total",
			Help: "Cache lookups by key type and result.",
		}, []string{"key_type", "result"}),
		cacheWrites: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace, Subsystem: "cache", Name: "written_bytes_total",
			Help: "Bytes written to the cache by key type.",
		}, []string{"key_type"}),
		picks: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace, Subsystem: "pick", Name: "queries_total",
			Help: "Pick queries by result.",
		}, []string{"result"}),
		pickDuration: f.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace, Subsystem: "pick", Name: "duration_seconds",
			Help:    "Pick query latency.",
			Buckets: []float64{1e-6, 1e-5, 1e-4, 1e-3, 1e-2, 0.1},
		}),
		requests: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace, Subsystem: "http", Name: "requests_total",
			Help: "Served HTTP requests.",
		}, []string{"method", "route", "code"}),
		requestDuration: f.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace, Subsystem: "http", Name: "request_duration_seconds",
			Help:    "HTTP request latency.",
			Buckets: prometheus.DefBuckets,
		}, []string{"method", "route"}),
	}
}

// Register installs h as the global pipeline, cache, pick and server hooks.
func (h *PrometheusHooks) Register() {
	SetPipelineHooks(h)
	SetCacheHooks(h)
	SetPickHooks(h)
	SetServerHooks(h)
}

// Registry returns the underlying registry.
func (h *PrometheusHooks) Registry() *prometheus.Registry { return h.registry }

// Handler serves the registry in the Prometheus exposition format.
func (h *PrometheusHooks) Handler() http.Handler {
	return promhttp.HandlerFor(h.registry, promhttp.HandlerOpts{Registry: h.registry})
}

func (h *PrometheusHooks) OnStageStart(_ context.Context, stage string) {
	h.stagesActive.WithLabelValues(stage).Inc()
}

func (h *PrometheusHooks) OnStageComplete(_ context.Context, stage string, d time.Duration, err error) {
	h.stagesActive.WithLabelValues(stage).Dec()
	h.stageDuration.WithLabelValues(stage).Observe(d.Seconds())
	if err != nil {
		h.stageErrors.WithLabelValues(stage).Inc()
	}
}

func (h *PrometheusHooks) OnLoadComplete(_ context.Context, shapes, triangles int, _ time.Duration, err error) {
	if err != nil {
		h.loads.WithLabelValues("error").Inc()
		return
	}
	h.loads.WithLabelValues("ok").Inc()
	h.loadShapes.Set(float64(shapes))
	h.loadTriangles.Set(float64(triangles))
}

func (h *PrometheusHooks) OnCacheHit(_ context.Context, keyType string) {
	h.cacheLookups.WithLabelValues(keyType, "hit").Inc()
}

func (h *PrometheusHooks) OnCacheMiss(_ context.Context, keyType string) {
	h.cacheLookups.WithLabelValues(keyType, "miss").Inc()
}

func (h *PrometheusHooks) OnCacheSet(_ context.Context, keyType string, size int) {
	h.cacheWrites.WithLabelValues(keyType).Add(float64(size))
}

func (h *PrometheusHooks) OnPick(_ context.Context, hit bool, d time.Duration) {
	result := "miss"
	if hit {
		result = "hit"
	}
	h.picks.WithLabelValues(result).Inc()
	h.pickDuration.Observe(d.Seconds())
}

func (h *PrometheusHooks) OnRequest(_ context.Context, method, route string, status int, d time.Duration) {
	h.requests.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
	h.requestDuration.WithLabelValues(method, route).Observe(d.Seconds())
}

var (
	_ PipelineHooks = (*PrometheusHooks)(nil)
	_ CacheHooks    = (*PrometheusHooks)(nil)
	_ PickHooks     = (*PrometheusHooks)(nil)
	_ ServerHooks   = (*PrometheusHooks)(nil)
)
