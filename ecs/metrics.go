package ecs

import (
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// PrometheusMetrics provides Prometheus-compatible metrics collection
// for frame execution monitoring in production environments.
//
// Metrics exposed (all namespaced with "worldline_"):
//
//  1. frame_latency_ms (histogram): Whole-frame duration in
//     milliseconds. Labels: world_id.
//  2. system_latency_ms (histogram): Per-system execution duration in
//     milliseconds, query update included. Labels: world_id, system,
//     status (success/error).
//  3. live_entities (gauge): Live entity count at frame end. Labels:
//     world_id.
//  4. shape_log_tail / write_log_tail (gauge): Absolute append
//     positions of the change logs; the slope is the mutation rate.
//     Labels: world_id.
//  5. system_restarts_total (counter): Stop/restart transitions.
//     Labels: world_id, system.
//
// Usage:
//
//	registry := prometheus.NewRegistry()
//	metrics := ecs.NewPrometheusMetrics(registry)
//	world, err := ecs.NewWorld(ctx, ecs.WithMetrics(metrics), ...)
//
//	http.Handle("/metrics", promhttp.HandlerFor(registry, promhttp.HandlerOpts{}))
//
// Thread-safe: the underlying Prometheus collectors are safe for
// concurrent use.
type PrometheusMetrics struct {
	frameLatency  *prometheus.HistogramVec
	systemLatency *prometheus.HistogramVec
	liveEntities  *prometheus.GaugeVec
	shapeLogTail  *prometheus.GaugeVec
	writeLogTail  *prometheus.GaugeVec
	restarts      *prometheus.CounterVec

	registry prometheus.Registerer

	mu      sync.RWMutex
	enabled bool
}

// NewPrometheusMetrics creates and registers all frame execution
// metrics with the provided Prometheus registry. Pass
// prometheus.DefaultRegisterer for the global registry, or a private
// prometheus.NewRegistry() for isolation (recommended in tests).
func NewPrometheusMetrics(registry prometheus.Registerer) *PrometheusMetrics {
	if registry == nil {
		registry = prometheus.DefaultRegisterer
	}

	factory := promauto.With(registry)

	pm := &PrometheusMetrics{
		registry: registry,
		enabled:  true,
	}

	pm.frameLatency = factory.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "worldline",
		Name:      "frame_latency_ms",
		Help:      "Whole-frame execution duration in milliseconds",
		Buckets:   []float64{0.1, 0.5, 1, 2, 5, 10, 16, 33, 100, 500},
	}, []string{"world_id"})

	pm.systemLatency = factory.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "worldline",
		Name:      "system_latency_ms",
		Help:      "Per-system execution duration in milliseconds, query update included",
		Buckets:   []float64{0.01, 0.1, 0.5, 1, 2, 5, 10, 16, 33, 100},
	}, []string{"world_id", "system", "status"})

	pm.liveEntities = factory.NewGaugeVec(prometheus.GaugeOpts{
		Namespace: "worldline",
		Name:      "live_entities",
		Help:      "Live entity count at frame end",
	}, []string{"world_id"})

	pm.shapeLogTail = factory.NewGaugeVec(prometheus.GaugeOpts{
		Namespace: "worldline",
		Name:      "shape_log_tail",
		Help:      "Absolute append position of the shape change log",
	}, []string{"world_id"})

	pm.writeLogTail = factory.NewGaugeVec(prometheus.GaugeOpts{
		Namespace: "worldline",
		Name:      "write_log_tail",
		Help:      "Absolute append position of the component write log",
	}, []string{"world_id"})

	pm.restarts = factory.NewCounterVec(prometheus.CounterOpts{
		Namespace: "worldline",
		Name:      "system_restarts_total",
		Help:      "Cumulative count of system stop/restart transitions",
	}, []string{"world_id", "system"})

	return pm
}

// RecordFrameLatency records the duration of one whole frame.
func (pm *PrometheusMetrics) RecordFrameLatency(worldID string, latency time.Duration) {
	if !pm.recording() {
		return
	}
	pm.frameLatency.WithLabelValues(worldID).Observe(float64(latency) / float64(time.Millisecond))
}

// RecordSystemLatency records one system's execution duration for the
// frame, with status "success" or "error".
func (pm *PrometheusMetrics) RecordSystemLatency(worldID, system string, latency time.Duration, status string) {
	if !pm.recording() {
		return
	}
	pm.systemLatency.WithLabelValues(worldID, system, status).Observe(float64(latency) / float64(time.Millisecond))
}

// SetLiveEntities sets the live entity count gauge.
func (pm *PrometheusMetrics) SetLiveEntities(worldID string, count int) {
	if !pm.recording() {
		return
	}
	pm.liveEntities.WithLabelValues(worldID).Set(float64(count))
}

// SetLogTails sets the change-log append position gauges.
func (pm *PrometheusMetrics) SetLogTails(worldID string, shapeTail, writeTail uint64) {
	if !pm.recording() {
		return
	}
	pm.shapeLogTail.WithLabelValues(worldID).Set(float64(shapeTail))
	pm.writeLogTail.WithLabelValues(worldID).Set(float64(writeTail))
}

// IncrementRestarts counts a system restart.
func (pm *PrometheusMetrics) IncrementRestarts(worldID, system string) {
	if !pm.recording() {
		return
	}
	pm.restarts.WithLabelValues(worldID, system).Inc()
}

func (pm *PrometheusMetrics) recording() bool {
	pm.mu.RLock()
	defer pm.mu.RUnlock()
	return pm.enabled
}

// Disable temporarily disables metric recording (useful for testing).
func (pm *PrometheusMetrics) Disable() {
	pm.mu.Lock()
	defer pm.mu.Unlock()
	pm.enabled = false
}

// Enable re-enables metric recording after Disable().
func (pm *PrometheusMetrics) Enable() {
	pm.mu.Lock()
	defer pm.mu.Unlock()
	pm.enabled = true
}
