// Package metrics exposes Prometheus instruments for the crawl pipeline.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const (
	Namespace = "tlama"
	Subsystem = "pipeline"
)

// Item reconciliation outcomes.
const (
	OutcomeInserted = "inserted"
	OutcomeMerged   = "merged"
	OutcomeSkipped  = "skipped"
)

// Metrics holds the pipeline instruments. A nil *Metrics is valid and
// records nothing.
type Metrics struct {
	ListingPagesTotal    *prometheus.CounterVec
	ItemsTotal           *prometheus.CounterVec
	ScoreCorrections     prometheus.Counter
	CrawlDurationSeconds prometheus.Histogram
	CachedItems          prometheus.Gauge
}

// New creates and registers all metrics on reg.
func New(reg prometheus.Registerer) *Metrics {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	factory := promauto.With(reg)

	return &Metrics{
		ListingPagesTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: Namespace,
				Subsystem: Subsystem,
				Name:      "listing_pages_total",
				Help:      "Listing pages requested, by result",
			},
			[]string{"result"},
		),
		ItemsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: Namespace,
				Subsystem: Subsystem,
				Name:      "items_total",
				Help:      "Item reconciliations, by outcome",
			},
			[]string{"outcome"},
		),
		ScoreCorrections: factory.NewCounter(
			prometheus.CounterOpts{
				Namespace: Namespace,
				Subsystem: Subsystem,
				Name:      "score_corrections_total",
				Help:      "Stored scores rewritten after rescoring on load",
			},
		),
		CrawlDurationSeconds: factory.NewHistogram(
			prometheus.HistogramOpts{
				Namespace: Namespace,
				Subsystem: Subsystem,
				Name:      "crawl_duration_seconds",
				Help:      "Duration of a full crawl in seconds",
				Buckets:   prometheus.ExponentialBuckets(1, 2, 12), // 1s to ~34min
			},
		),
		CachedItems: factory.NewGauge(
			prometheus.GaugeOpts{
				Namespace: Namespace,
				Subsystem: Subsystem,
				Name:      "cached_items",
				Help:      "Items in the cache after the last crawl or rescore",
			},
		),
	}
}

func (m *Metrics) ListingPage(result string) {
	if m == nil {
		return
	}
	m.ListingPagesTotal.WithLabelValues(result).Inc()
}

func (m *Metrics) Item(outcome string) {
	if m == nil {
		return
	}
	m.ItemsTotal.WithLabelValues(outcome).Inc()
}

func (m *Metrics) ScoreCorrected() {
	if m == nil {
		return
	}
	m.ScoreCorrections.Inc()
}

func (m *Metrics) CrawlFinished(took time.Duration) {
	if m == nil {
		return
	}
	m.CrawlDurationSeconds.Observe(took.Seconds())
}

func (m *Metrics) SetCachedItems(n int) {
	if m == nil {
		return
	}
	m.CachedItems.Set(float64(n))
}
