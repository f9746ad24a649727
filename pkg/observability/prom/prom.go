// Package prom implements the observability hooks with Prometheus
// collectors. A CLI run has no scrape endpoint, so the collected series are
// written to a node_exporter textfile at the end of the run.
package prom

import (
	"context"
	"errors"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/matzehuels/zinefold/pkg/observability"
)

const namespace = "zinefold"

var errRenderFailures = errors.New("render failures")

// Metrics holds the collectors and implements every hook interface.
type Metrics struct {
	registry *prometheus.Registry

	stageDuration   *prometheus.HistogramVec
	stageErrors     *prometheus.CounterVec
	composeDuration prometheus.Histogram
	composeTotal    *prometheus.CounterVec
	cacheEvents     *prometheus.CounterVec
	pages           prometheus.Gauge
	sheets          prometheus.Gauge
	layoutRows      prometheus.Gauge
}

var (
	_ observability.PipelineHooks   = (*Metrics)(nil)
	_ observability.CacheHooks      = (*Metrics)(nil)
	_ observability.CompositorHooks = (*Metrics)(nil)
)

// New creates the collectors on a private registry.
func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		stageDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "stage_duration_seconds",
			Help:      "Duration of pipeline stages.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"stage"}),
		stageErrors: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "stage_errors_total",
			Help:      "Pipeline stages that failed.",
		}, []string{"stage"}),
		composeDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "compose_duration_seconds",
			Help:      "Duration of single compositor invocations.",
			Buckets:   []float64{0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30, 60, 120},
		}),
		composeTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "compose_total",
			Help:      "Sheet sides rendered, by side and result.",
		}, []string{"side", "result"}),
		cacheEvents: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "cache_events_total",
			Help:      "Cache lookups and writes, by key type and event.",
		}, []string{"key_type", "event"}),
		pages: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "pages",
			Help:      "Logical pages in the last plan.",
		}),
		sheets: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "sheets",
			Help:      "Physical sheets in the last plan.",
		}),
		layoutRows: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "layout_rows",
			Help:      "Rows per sheet side in the last layout.",
		}),
	}
	m.registry.MustRegister(
		m.stageDuration, m.stageErrors, m.composeDuration, m.composeTotal,
		m.cacheEvents, m.pages, m.sheets, m.layoutRows,
	)
	return m
}

// Register installs m as the global pipeline, cache and compositor hooks.
func (m *Metrics) Register() {
	observability.SetPipelineHooks(m)
	observability.SetCacheHooks(m)
	observability.SetCompositorHooks(m)
}

// Registry exposes the underlying registry.
func (m *Metrics) Registry() *prometheus.Registry { return m.registry }

// WriteTextfile writes every series to path in the text exposition format.
func (m *Metrics) WriteTextfile(path string) error {
	return prometheus.WriteToTextfile(path, m.registry)
}

func (m *Metrics) stage(name string, d time.Duration, err error) {
	m.stageDuration.WithLabelValues(name).Observe(d.Seconds())
	if err != nil {
		m.stageErrors.WithLabelValues(name).Inc()
	}
}

func (m *Metrics) OnMeasureStart(context.Context, int) {}

func (m *Metrics) OnMeasureComplete(_ context.Context, _ int, d time.Duration, err error) {
	m.stage("measure", d, err)
}

func (m *Metrics) OnLayoutComplete(_ context.Context, _, rows int, d time.Duration, err error) {
	m.stage("layout", d, err)
	if err == nil {
		m.layoutRows.Set(float64(rows))
	}
}

func (m *Metrics) OnPlanComplete(_ context.Context, pages, sheets int, d time.Duration, err error) {
	m.stage("plan", d, err)
	if err == nil {
		m.pages.Set(float64(pages))
		m.sheets.Set(float64(sheets))
	}
}

func (m *Metrics) OnRenderStart(context.Context, int) {}

func (m *Metrics) OnRenderComplete(_ context.Context, _, failures int, d time.Duration) {
	var err error
	if failures > 0 {
		err = errRenderFailures
	}
	m.stage("render", d, err)
}

func (m *Metrics) OnCompose(_ context.Context, _ int, side string, d time.Duration, err error) {
	m.composeDuration.Observe(d.Seconds())
	result := "ok"
	if err != nil {
		result = "error"
	}
	m.composeTotal.WithLabelValues(side, result).Inc()
}

func (m *Metrics) OnCacheHit(_ context.Context, keyType string) {
	m.cacheEvents.WithLabelValues(keyType, "hit").Inc()
}

func (m *Metrics) OnCacheMiss(_ context.Context, keyType string) {
	m.cacheEvents.WithLabelValues(keyType, "miss").Inc()
}

func (m *Metrics) OnCacheSet(_ context.Context, keyType string, _ int) {
	m.cacheEvents.WithLabelValues(keyType, "set").Inc()
}
