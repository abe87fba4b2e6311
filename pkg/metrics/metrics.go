package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// InviteValidations counts invitation token validations by outcome
	// (valid|not_found|expired|already_used|revoked).
	InviteValidations = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "atelier_invite_validations_total",
			Help: "Total number of invitation token validations",
		},
		[]string{"outcome"},
	)

	// SignupCompletions counts signup attempts by result (success|failure).
	SignupCompletions = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "atelier_signup_completions_total",
			Help: "Total number of invitation-gated signup completions",
		},
		[]string{"result"},
	)

	// SlugAllocationRetries counts optimistic-concurrency retries during slug allocation.
	SlugAllocationRetries = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "atelier_slug_allocation_retries_total",
			Help: "Number of slug allocation retries after unique-constraint conflicts",
		},
	)

	// UploadBytes tracks total bytes accepted by the upload pipeline.
	UploadBytes = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "atelier_upload_bytes_total",
			Help: "Total bytes accepted by the image upload pipeline",
		},
	)

	// APILatency measures HTTP request latencies.
	APILatency = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "atelier_api_latency_seconds",
			Help:    "API endpoint latency",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "path", "status"},
	)
)
