package metrics

import "github.com/prometheus/client_golang/prometheus"

func init() {
	register(jobsEnqueuedTotal, jobsProcessedTotal, jobsRequeuedTotal, sweepDuration)
}

var jobsEnqueuedTotal = prometheus.NewCounter(
	prometheus.CounterOpts{
		Name: "queue_jobs_enqueued_total",
		Help: "Total number of jobs written to the queue by the producer.",
	},
)

var jobsProcessedTotal = prometheus.NewCounterVec(
	prometheus.CounterOpts{
		Name: "queue_jobs_processed_total",
		Help: "Total number of jobs finished by the sweep, labeled by status.",
	},
	[]string{"status"}, // 'completed', 'failed', 'retried'
)

var jobsRequeuedTotal = prometheus.NewCounter(
	prometheus.CounterOpts{
		Name: "queue_jobs_requeued_total",
		Help: "Total number of stale processing jobs pushed back to pending.",
	},
)

var sweepDuration = prometheus.NewHistogram(
	prometheus.HistogramOpts{
		Name:    "queue_sweep_duration_seconds",
		Help:    "Wall time of one sweep tick, claim through completion.",
		Buckets: prometheus.DefBuckets,
	},
)

func IncJobEnqueued()               { jobsEnqueuedTotal.Inc() }
func IncJobProcessed(status string) { jobsProcessedTotal.WithLabelValues(status).Inc() }
func AddJobsRequeued(n int)         { jobsRequeuedTotal.Add(float64(n)) }
func ObserveSweep(seconds float64)  { sweepDuration.Observe(seconds) }
