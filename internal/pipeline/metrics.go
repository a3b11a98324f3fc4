package pipeline

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// segmentsTotal counts processed segments by outcome.
	segmentsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "fare_pipeline_segments_total",
		Help: "Total number of processed segments by status",
	}, []string{"status"}) // status: ok, failed

	// renderDuration tracks how long a successful render took, retries included.
	renderDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "fare_pipeline_render_duration_seconds",
		Help:    "Time taken to obtain a rendered page",
		Buckets: []float64{0.5, 1, 2, 5, 10, 20, 30, 60},
	})

	// pageCacheLookups counts page cache lookups by result.
	pageCacheLookups = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "fare_pipeline_page_cache_lookups_total",
		Help: "Total number of page cache lookups by result",
	}, []string{"result"}) // result: hit, miss, error

	// recordsParsed counts flight records recovered from pages.
	recordsParsed = promauto.NewCounter(prometheus.CounterOpts{
		Name: "fare_pipeline_records_parsed_total",
		Help: "Total number of flight records parsed",
	})

	// recordsSkipped counts candidate groups dropped by the parser.
	recordsSkipped = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "fare_pipeline_records_skipped_total",
		Help: "Total number of dropped candidate groups by reason",
	}, []string{"reason"})

	// offersFiltered counts merged offers dropped as placeholders or unpriced.
	offersFiltered = promauto.NewCounter(prometheus.CounterOpts{
		Name: "fare_pipeline_offers_filtered_total",
		Help: "Total number of merged offers dropped by the placeholder filter",
	})

	// runDuration tracks whole pipeline runs.
	runDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "fare_pipeline_run_duration_seconds",
		Help:    "Time taken for a pipeline run",
		Buckets: []float64{1, 5, 10, 30, 60, 120, 300, 600},
	})
)
