package metrics

import (
    "net/http"
    "sync"
    "time"

    "github.com/prometheus/client_golang/prometheus"
    "github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
    extractions = prometheus.NewCounterVec(
        prometheus.CounterOpts{
            Namespace: "guidereader",
            Name:      "extractions_total",
            Help:      "Total extraction calls by result (success, error, cached)",
        },
        []string{"result"},
    )

    extractionLatency = prometheus.NewHistogram(
        prometheus.HistogramOpts{
            Namespace: "guidereader",
            Name:      "extraction_duration_seconds",
            Help:      "Duration of extraction calls",
            Buckets:   prometheus.DefBuckets,
        },
    )

    pagesExtracted = prometheus.NewCounter(
        prometheus.CounterOpts{
            Namespace: "guidereader",
            Name:      "pages_extracted_total",
            Help:      "Total pages extracted",
        },
    )

    links = prometheus.NewCounterVec(
        prometheus.CounterOpts{
            Namespace: "guidereader",
            Name:      "links_total",
            Help:      "Internal links by resolution strategy (named_dest, indd, generic, unresolved)",
        },
        []string{"strategy"},
    )

    specWarnings = prometheus.NewCounter(
        prometheus.CounterOpts{
            Namespace: "guidereader",
            Name:      "page_spec_warnings_total",
            Help:      "Page specification parts skipped because they did not parse",
        },
    )

    inflight = prometheus.NewGauge(
        prometheus.GaugeOpts{
            Namespace: "guidereader",
            Name:      "extractions_inflight",
            Help:      "Extractions currently running",
        },
    )

    once sync.Once
)

// Init registers collectors. Safe to call more than once.
func Init() {
    once.Do(func() {
        prometheus.MustRegister(extractions, extractionLatency, pagesExtracted, links, specWarnings, inflight)
    })
}

// Handler returns the http.Handler for /metrics
func Handler() http.Handler { return promhttp.Handler() }

func IncExtraction(result string)        { extractions.WithLabelValues(result).Inc() }
func ObserveExtraction(d time.Duration)  { extractionLatency.Observe(d.Seconds()) }
func AddPages(n int)                     { pagesExtracted.Add(float64(n)) }
func IncLink(strategy string)            { links.WithLabelValues(strategy).Inc() }
func IncSpecWarning()                    { specWarnings.Inc() }
func SetInflight(n int)                  { inflight.Set(float64(n)) }
