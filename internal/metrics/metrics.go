// Package metrics counts parser and lint engine events with Prometheus
// collectors on a private registry.
package metrics

import (
	"net/http"
	"strconv"

	"github.com/panbanda/fraglint/pkg/lint"
	"github.com/panbanda/fraglint/pkg/models"
	"github.com/panbanda/fraglint/pkg/parser"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "fraglint"

// Collector records run events. It satisfies both parser.Recorder and
// lint.Recorder, so one value can be handed to the parser and the engine.
type Collector struct {
	registry *prometheus.Registry

	parses        *prometheus.CounterVec
	parseFailures *prometheus.CounterVec
	cacheLookups  *prometheus.CounterVec
	findings      *prometheus.CounterVec
	recovered     *prometheus.CounterVec
	files         prometheus.Counter
}

var (
	_ parser.Recorder = (*Collector)(nil)
	_ lint.Recorder   = (*Collector)(nil)
)

// New creates a Collector with its own registry.
func New() *Collector {
	c := &Collector{
		registry: prometheus.NewRegistry(),
		parses: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "parser",
				Name:      "parses_total",
				Help:      "Successful parses by tier",
			},
			[]string{"tier"},
		),
		parseFailures: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "parser",
				Name:      "failures_total",
				Help:      "Failed parses by category",
			},
			[]string{"category"},
		),
		cacheLookups: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "cache",
				Name:      "lookups_total",
				Help:      "Cache lookups by layer and result",
			},
			[]string{"layer", "hit"},
		),
		findings: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "lint",
				Name:      "findings_total",
				Help:      "Findings reported by rule",
			},
			[]string{"rule"},
		),
		recovered: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "lint",
				Name:      "recovered_panics_total",
				Help:      "Analysis passes that panicked and were recovered",
			},
			[]string{"pass"},
		),
		files: prometheus.NewCounter(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "lint",
				Name:      "files_total",
				Help:      "Host documents analyzed",
			},
		),
	}
	c.registry.MustRegister(c.parses, c.parseFailures, c.cacheLookups, c.findings, c.recovered, c.files)
	return c
}

// ParseCompleted counts a successful parse.
func (c *Collector) ParseCompleted(tier parser.Tier) {
	c.parses.WithLabelValues(string(tier)).Inc()
}

// ParseFailed counts a parse that exhausted every tier.
func (c *Collector) ParseFailed(category parser.Category) {
	c.parseFailures.WithLabelValues(string(category)).Inc()
}

// CacheLookup counts a parse cache lookup.
func (c *Collector) CacheLookup(hit bool) {
	c.cacheLookups.WithLabelValues("parse", strconv.FormatBool(hit)).Inc()
}

// ResultCacheLookup counts a lookup in the on-disk result cache.
func (c *Collector) ResultCacheLookup(hit bool) {
	c.cacheLookups.WithLabelValues("result", strconv.FormatBool(hit)).Inc()
}

// FindingReported counts a finding that survived suppression.
func (c *Collector) FindingReported(rule models.RuleID) {
	c.findings.WithLabelValues(string(rule)).Inc()
}

// PassRecovered counts a panicking pass.
func (c *Collector) PassRecovered(pass string) {
	c.recovered.WithLabelValues(pass).Inc()
}

// FileAnalyzed counts a host document.
func (c *Collector) FileAnalyzed() {
	c.files.Inc()
}

// Registry returns the registry holding the collectors.
func (c *Collector) Registry() *prometheus.Registry {
	return c.registry
}

// Handler serves the registry in the Prometheus exposition format.
func (c *Collector) Handler() http.Handler {
	return promhttp.HandlerFor(c.registry, promhttp.HandlerOpts{})
}

// WriteFile writes the current values to path in the text exposition
// format, replacing the file atomically.
func (c *Collector) WriteFile(path string) error {
	return prometheus.WriteToTextfile(path, c.registry)
}
