// internal/common/metrics/metrics.go
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	WorkerJobsCompleted = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "worker_jobs_completed_total",
			Help: "Total number of jobs completed by worker",
		},
		[]string{"task_type"},
	)

	WorkerJobsFailed = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "worker_jobs_failed_total",
			Help: "Total number of jobs failed by worker",
		},
		[]string{"task_type", "error_code"},
	)

	WorkerJobDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name: "worker_job_duration_seconds",
			Help: "Duration of job processing in seconds",
		},
		[]string{"task_type"},
	)

	WorkerJobsActive = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "worker_jobs_active",
			Help: "Number of active jobs per worker",
		},
		[]string{"task_type"},
	)

	PlannerStageDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "planner_stage_duration_seconds",
			Help:    "Duration of itinerary pipeline stages and provider calls",
			Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30, 60},
		},
		[]string{"stage"},
	)

	PlannerEvents = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "planner_events_total",
			Help: "Pipeline events such as provider failures, cache hits and skipped candidates",
		},
		[]string{"event"},
	)

	PlannerLLMCost = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "planner_llm_cost_usd_total",
			Help: "Estimated spend on generative providers in USD",
		},
		[]string{"provider", "model"},
	)
)
