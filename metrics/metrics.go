package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	DocumentsProcessed = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "loan_documents_processed_total",
			Help: "Total number of uploaded documents run through verification",
		},
		[]string{"document_type", "verified"},
	)

	EligibilityDecisions = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "loan_eligibility_decisions_total",
			Help: "Total number of eligibility evaluations by resulting status",
		},
		[]string{"status"},
	)

	FaceMatches = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "loan_face_matches_total",
			Help: "Total number of face match attempts by outcome",
		},
		[]string{"matched"},
	)

	ProviderDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name: "loan_provider_call_duration_seconds",
			Help: "Duration of OCR / face detection provider calls in seconds",
		},
		[]string{"provider"},
	)

	ProviderFailures = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "loan_provider_failures_total",
			Help: "Total number of provider calls that returned an error",
		},
		[]string{"provider"},
	)
)
