// Package metrics exposes the Prometheus counters and histograms the
// HTTP scan surface and the scheduler report through.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	scansTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "metacrafter_scans_total",
		Help: "Number of classification scans completed, by outcome.",
	}, []string{"outcome"})

	scanDuration = prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "metacrafter_scan_duration_seconds",
		Help:    "Duration of a classification scan.",
		Buckets: prometheus.DefBuckets,
	})

	catalogRulesLoaded = prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "metacrafter_catalog_rules_loaded",
		Help: "Number of rules currently held by the loaded catalog.",
	})

	catalogLoadIssues = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "metacrafter_catalog_load_issues_total",
		Help: "Number of rule/file issues reported across all catalog loads.",
	})

	matchesTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "metacrafter_matches_total",
		Help: "Number of rule matches produced across all scans, by rule key.",
	}, []string{"key"})

	catalogReloadTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "metacrafter_catalog_reload_total",
		Help: "Number of scheduled catalog reloads, by outcome.",
	}, []string{"outcome"})
)

func init() {
	prometheus.MustRegister(scansTotal, scanDuration, catalogRulesLoaded, catalogLoadIssues, matchesTotal, catalogReloadTotal)
}

// ObserveScan records one scan's duration and outcome.
func ObserveScan(d time.Duration, err error) {
	scanDuration.Observe(d.Seconds())
	if err != nil {
		scansTotal.WithLabelValues("error").Inc()
		return
	}
	scansTotal.WithLabelValues("ok").Inc()
}

// SetCatalogRulesLoaded records the size of the most recently loaded catalog.
func SetCatalogRulesLoaded(n int) {
	catalogRulesLoaded.Set(float64(n))
}

// AddCatalogLoadIssues accumulates the issue count from a catalog load.
func AddCatalogLoadIssues(n int) {
	catalogLoadIssues.Add(float64(n))
}

// ObserveMatch records one rule match against a field, labeled by the
// rule's catalog key so /metrics shows which rules are actually firing.
func ObserveMatch(key string) {
	matchesTotal.WithLabelValues(key).Inc()
}

// ObserveCatalogReload records one scheduled reload's outcome.
func ObserveCatalogReload(err error) {
	if err != nil {
		catalogReloadTotal.WithLabelValues("error").Inc()
		return
	}
	catalogReloadTotal.WithLabelValues("ok").Inc()
}
