package server

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	requestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "stresslens_http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"route", "method", "status"},
	)
	requestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "stresslens_http_request_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: []float64{0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1, 2.5, 5, 10, 20},
		},
		[]string{"route"},
	)
	predictionsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "stresslens_predictions_total",
			Help: "Classifier predictions by stress level",
		},
		[]string{"stress_level"},
	)
	insightsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "stresslens_insights_total",
			Help: "Insight generations by mode and outcome",
		},
		[]string{"mode", "outcome"},
	)
)
