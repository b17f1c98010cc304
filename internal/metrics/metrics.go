// Package metrics exposes prometheus instrumentation for valuations,
// collaborator calls and the HTTP API.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	ValuationsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "fieldvisit_valuations_total",
			Help: "Valuations calculated, by loan recommendation band",
		},
		[]string{"loan_status"},
	)

	CredibilityScore = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "fieldvisit_credibility_score",
			Help:    "Distribution of credibility scores",
			Buckets: prometheus.LinearBuckets(10, 10, 10),
		},
	)

	CollaboratorCalls = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "fieldvisit_collaborator_calls_total",
			Help: "Calls to OCR, summary and image analysis collaborators",
		},
		[]string{"collaborator", "outcome"},
	)

	CollaboratorDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "fieldvisit_collaborator_duration_seconds",
			Help:    "Collaborator call latency in seconds",
			Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1, 2, 3, 5, 10, 30},
		},
		[]string{"collaborator"},
	)

	HTTPRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "fieldvisit_http_requests_total",
			Help: "HTTP requests served, by route and status code",
		},
		[]string{"method", "route", "code"},
	)
)

// ObserveCollaborator records the outcome and latency of one collaborator call.
func ObserveCollaborator(name string, start time.Time, err error) {
	outcome := "success"
	if err != nil {
		outcome = "error"
	}
	CollaboratorCalls.WithLabelValues(name, outcome).Inc()
	CollaboratorDuration.WithLabelValues(name).Observe(time.Since(start).Seconds())
}

// ObserveValuation records a completed valuation.
func ObserveValuation(loanStatus string, score int) {
	ValuationsTotal.WithLabelValues(loanStatus).Inc()
	CredibilityScore.Observe(float64(score))
}
