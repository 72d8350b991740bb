package observability

import (
	"fmt"

	"github.com/prometheus/client_golang/prometheus"
)

// Metrics holds the crawl counters. A nil *Metrics is valid and records nothing.
type Metrics struct {
	registry          *prometheus.Registry
	RecordsEmitted    *prometheus.CounterVec
	FetchFailures     *prometheus.CounterVec
	ExtractionMisses  *prometheus.CounterVec
	VerdictRejections *prometheus.CounterVec
	CrawlStops        *prometheus.CounterVec
	PagesLoaded       *prometheus.CounterVec
}

func NewMetrics() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		RecordsEmitted: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "corpus_records_emitted_total",
			Help: "Records written to the corpus sink",
		}, []string{"site", "label"}),
		FetchFailures: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "corpus_fetch_failures_total",
			Help: "Article fetches that failed (network error or non-2xx)",
		}, []string{"site"}),
		ExtractionMisses: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "corpus_extraction_misses_total",
			Help: "Articles where no extraction strategy produced text",
		}, []string{"site"}),
		VerdictRejections: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "corpus_verdict_rejections_total",
			Help: "Articles rejected by the veracity caption filter",
		}, []string{"site"}),
		CrawlStops: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "corpus_crawl_stops_total",
			Help: "Crawl terminations by reason",
		}, []string{"site", "reason"}),
		PagesLoaded: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "corpus_listing_batches_total",
			Help: "Listing batches returned by the page source",
		}, []string{"site"}),
	}
	m.registry.MustRegister(
		m.RecordsEmitted,
		m.FetchFailures,
		m.ExtractionMisses,
		m.VerdictRejections,
		m.CrawlStops,
		m.PagesLoaded,
	)
	return m
}

func (m *Metrics) IncEmitted(site, label string) {
	if m == nil {
		return
	}
	m.RecordsEmitted.WithLabelValues(site, label).Inc()
}

func (m *Metrics) IncFetchFailure(site string) {
	if m == nil {
		return
	}
	m.FetchFailures.WithLabelValues(site).Inc()
}

func (m *Metrics) IncExtractionMiss(site string) {
	if m == nil {
		return
	}
	m.ExtractionMisses.WithLabelValues(site).Inc()
}

func (m *Metrics) IncVerdictRejection(site string) {
	if m == nil {
		return
	}
	m.VerdictRejections.WithLabelValues(site).Inc()
}

func (m *Metrics) IncStop(site, reason string) {
	if m == nil {
		return
	}
	m.CrawlStops.WithLabelValues(site, reason).Inc()
}

func (m *Metrics) IncBatch(site string) {
	if m == nil {
		return
	}
	m.PagesLoaded.WithLabelValues(site).Inc()
}

// Gatherer exposes the registry, mostly for tests.
func (m *Metrics) Gatherer() prometheus.Gatherer {
	return m.registry
}

// WriteTextfile dumps the counters in node-exporter textfile format.
func (m *Metrics) WriteTextfile(path string) error {
	if m == nil || path == "" {
		return nil
	}
	if err := prometheus.WriteToTextfile(path, m.registry); err != nil {
		return fmt.Errorf("write metrics textfile: %w", err)
	}
	return nil
}
