package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	AlertsMerged = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "alertswebapi_alerts_merged_total",
			Help: "Total number of alert observations merged, by outcome (created or merged)",
		},
		[]string{"outcome"},
	)

	AlertsDeleted = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "alertswebapi_alerts_deleted_total",
			Help: "Total number of alerts deleted",
		},
	)

	IPAddressesReleased = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "alertswebapi_ip_addresses_released_total",
			Help: "IP references dropped by alert deletion, by action (decremented or deleted)",
		},
		[]string{"action"},
	)

	IngestedRecords = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "alertswebapi_ingested_records_total",
			Help: "Total number of feed records merged by ingestion",
		},
		[]string{"feed"},
	)

	IngestedPages = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "alertswebapi_ingested_pages_total",
			Help: "Total number of feed pages fetched",
		},
		[]string{"feed"},
	)

	IngestionFailures = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "alertswebapi_ingestion_failures_total",
			Help: "Total number of ingestion runs aborted by an error",
		},
		[]string{"feed"},
	)

	IngestionDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "alertswebapi_ingestion_duration_seconds",
			Help:    "Time taken by a full ingestion run",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"feed"},
	)

	EnrichmentLookups = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "alertswebapi_enrichment_lookups_total",
			Help: "Enrichment lookups by result (clean, blacklisted, error)",
		},
		[]string{"result"},
	)

	ThresholdBlacklists = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "alertswebapi_threshold_blacklists_total",
			Help: "External IPs blacklisted by the count threshold without a lookup",
		},
	)
)
