package source

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Metrics bundles Prometheus collectors for the offer source.
type Metrics struct {
	Registry           *prometheus.Registry
	SearchesTotal      *prometheus.CounterVec
	OffersScrapedTotal prometheus.Counter
	FetchDuration      prometheus.Histogram
	RetriesTotal       prometheus.Counter
	ErrorsTotal        *prometheus.CounterVec
	CacheHitsTotal     prometheus.Counter
}

// NewMetrics constructs and registers all metrics on a dedicated registry.
func NewMetrics() *Metrics {
	registry := prometheus.NewRegistry()

	searches := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "basketwise_searches_total",
			Help: "Product-name searches issued against the source.",
		},
		[]string{"result"},
	)
	offersScraped := prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "basketwise_offers_scraped_total",
			Help: "Offers successfully scraped from listing pages.",
		},
	)
	fetchDuration := prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "basketwise_fetch_duration_seconds",
			Help:    "Latency of candidate and offer page fetches.",
			Buckets: prometheus.DefBuckets,
		},
	)
	retries := prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "basketwise_retries_total",
			Help: "Retry attempts for failed page fetches.",
		},
	)
	errorsTotal := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "basketwise_errors_total",
			Help: "Source errors by type.",
		},
		[]string{"error_type"},
	)
	cacheHits := prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "basketwise_cache_hits_total",
			Help: "Candidate-list lookups served from the LRU cache.",
		},
	)

	registry.MustRegister(searches, offersScraped, fetchDuration, retries, errorsTotal, cacheHits)

	return &Metrics{
		Registry:           registry,
		SearchesTotal:      searches,
		OffersScrapedTotal: offersScraped,
		FetchDuration:      fetchDuration,
		RetriesTotal:       retries,
		ErrorsTotal:        errorsTotal,
		CacheHitsTotal:     cacheHits,
	}
}

// IncSearch increments the searches counter for a result label.
func (m *Metrics) IncSearch(result string) {
	if m == nil {
		return
	}
	m.SearchesTotal.WithLabelValues(result).Inc()
}

// IncOffers increments the scraped offers counter.
func (m *Metrics) IncOffers(n int) {
	if m == nil {
		return
	}
	m.OffersScrapedTotal.Add(float64(n))
}

// ObserveFetch records the duration of one page fetch.
func (m *Metrics) ObserveFetch(d time.Duration) {
	if m == nil {
		return
	}
	m.FetchDuration.Observe(d.Seconds())
}

// IncRetries increments the retry counter.
func (m *Metrics) IncRetries() {
	if m == nil {
		return
	}
	m.RetriesTotal.Inc()
}

// IncError increments the errors counter for a type label.
func (m *Metrics) IncError(err error) {
	if m == nil {
		return
	}
	m.ErrorsTotal.WithLabelValues(errorLabel(err)).Inc()
}

// IncCacheHit increments the cache hit counter.
func (m *Metrics) IncCacheHit() {
	if m == nil {
		return
	}
	m.CacheHitsTotal.Inc()
}
