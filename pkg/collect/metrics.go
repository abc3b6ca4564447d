package collect

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Job results used as metric labels.
const (
	ResultSuccess = "success"
	ResultFailure = "failure"
)

// Prometheus metrics for collection runs.
var (
	scanPagesFetchedTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "scan_pages_fetched_total",
		Help: "Total scan pages fetched by job",
	}, []string{"job"})

	scanRowsCollectedTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "scan_rows_collected_total",
		Help: "Total records collected by job",
	}, []string{"job"})

	scanJobsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "scan_jobs_total",
		Help: "Total collection jobs by job and result",
	}, []string{"job", "result"})

	scanJobDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "scan_job_duration_seconds",
		Help:    "Collection job duration in seconds by job",
		Buckets: []float64{1, 5, 15, 30, 60, 120, 300, 600},
	}, []string{"job"})
)
