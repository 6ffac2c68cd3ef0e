package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	HTTPRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total number of HTTP requests.",
		},
		[]string{"method", "path", "status"},
	)

	HTTPRequestDurationSeconds = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "Duration of HTTP requests.",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "path"},
	)

	MessageEventsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "pulse_message_events_total",
			Help: "Impressions and taps recorded, by app.",
		},
		[]string{"kind", "app_id"},
	)

	ActiveMessagesServed = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "pulse_active_messages_served",
			Help:    "Number of messages returned per active-message request.",
			Buckets: []float64{0, 1, 2, 3, 5, 8, 13, 21},
		},
		[]string{"app_id"},
	)

	CatalogCacheTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "pulse_catalog_cache_total",
			Help: "Catalog cache lookups by result (hit, miss, error).",
		},
		[]string{"result"},
	)

	APIKeyReadsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "pulse_api_key_reads_total",
			Help: "API key value reads by result.",
		},
		[]string{"result"},
	)

	APIKeysExpiring = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "pulse_api_keys_expiring",
			Help: "Active API keys that are expired or expiring soon, from the last scan.",
		},
		[]string{"state"},
	)

	DashboardStreams = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "pulse_dashboard_streams",
			Help: "Open admin dashboard event streams.",
		},
	)

	DashboardEventsDropped = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "pulse_dashboard_events_dropped_total",
			Help: "Dashboard frames dropped because a stream was lagging, by event.",
		},
		[]string{"event"},
	)

	AdminLoginsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "pulse_admin_logins_total",
			Help: "Admin login attempts by result.",
		},
		[]string{"result"},
	)
)

var registerOnce sync.Once

// MustRegister registers all collectors with the default registry. Safe to call more than once.
func MustRegister() {
	registerOnce.Do(func() {
		prometheus.MustRegister(
			HTTPRequestsTotal,
			HTTPRequestDurationSeconds,
			MessageEventsTotal,
			ActiveMessagesServed,
			CatalogCacheTotal,
			APIKeyReadsTotal,
			APIKeysExpiring,
			DashboardStreams,
			DashboardEventsDropped,
			AdminLoginsTotal,
		)
	})
}
