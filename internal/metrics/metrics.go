package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// API Metrics
	HTTPRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "loveaihub_http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "endpoint", "status"},
	)

	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "loveaihub_http_request_duration_seconds",
			Help:    "HTTP request latency in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "endpoint"},
	)

	// Generation Metrics
	GenerationsCreatedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "loveaihub_generations_created_total",
			Help: "Total number of generation requests accepted",
		},
		[]string{"type", "model"},
	)

	GenerationsCompletedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "loveaihub_generations_completed_total",
			Help: "Total number of generations reaching a terminal state",
		},
		[]string{"type", "status"},
	)

	QuotaRejectionsTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "loveaihub_quota_rejections_total",
			Help: "Total number of requests rejected for exhausted quota",
		},
	)

	// Upstream provider metrics
	ProviderRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "loveaihub_provider_request_duration_seconds",
			Help:    "A4F request latency in seconds",
			Buckets: prometheus.ExponentialBuckets(0.1, 2, 12), // 100ms to ~3.5 min
		},
		[]string{"type"},
	)

	// Archive worker metrics
	ImagesArchivedTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "loveaihub_images_archived_total",
			Help: "Total number of generated images archived to local storage",
		},
	)

	ArchiveFailuresTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "loveaihub_archive_failures_total",
			Help: "Total number of failed image archive attempts",
		},
	)
)
