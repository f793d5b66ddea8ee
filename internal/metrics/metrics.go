package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Label value constants to prevent typos
const (
	// HTTP endpoints
	EndpointAuthorize        = "strava_authorize"
	EndpointCallback         = "strava_callback"
	EndpointSync             = "strava_sync"
	EndpointConnectionTest   = "strava_test"
	EndpointPublicActivities = "public_activities"
	EndpointAdminActivities  = "admin_activities"
	EndpointAdminActivity    = "admin_activity"
	EndpointPublicize        = "strava_publicize"
	EndpointHealth           = "health"

	// Strava API operations
	OpExchangeCode   = "exchange_code"
	OpRefreshToken   = "refresh_token"
	OpListActivities = "list_activities"
	OpGetActivity    = "get_activity"
	OpGetAthlete     = "get_athlete"

	// Sync outcomes
	SyncOutcomeSuccess = "success"
	SyncOutcomeFailure = "failure"
)

// HTTP Metrics
var (
	HTTPRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"endpoint", "status_code"},
	)

	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "HTTP request latency in seconds",
			Buckets: []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30},
		},
		[]string{"endpoint", "status_code"},
	)
)

// Strava API Metrics
var (
	StravaAPIRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "strava_api_requests_total",
			Help: "Total Strava API requests by operation and status code",
		},
		[]string{"operation", "status"},
	)
)

// Sync Metrics
var (
	TokenRefreshesTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "strava_token_refreshes_total",
			Help: "Number of access token refreshes triggered",
		},
	)

	EnrichmentFailuresTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "sync_enrichment_failures_total",
			Help: "Per-activity detail calls that failed and fell back to summary data",
		},
	)

	SyncRunsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "sync_runs_total",
			Help: "Sync runs by outcome",
		},
		[]string{"outcome"},
	)

	SyncUpsertBatchSize = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "sync_upsert_batch_size",
			Help:    "Number of activity rows written per sync run",
			Buckets: []float64{0, 1, 5, 10, 25, 50},
		},
	)
)
