package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	HTTPRequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "givehub_http_requests_total",
		Help: "Total number of HTTP requests by route, method and status code.",
	},
		[]string{"route", "method", "code"},
	)

	HTTPRequestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "givehub_http_request_duration_seconds",
		Help:    "HTTP request latency by route and method.",
		Buckets: prometheus.DefBuckets,
	},
		[]string{"route", "method"},
	)

	ListingsCreatedTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "givehub_listings_created_total",
		Help: "Total number of donations and requests created.",
	},
		[]string{"kind"},
	)

	StatusTransitionsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "givehub_status_transitions_total",
		Help: "Total number of successful lifecycle transitions.",
	},
		[]string{"entity", "to"},
	)

	MatchesCreatedTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "givehub_matches_created_total",
		Help: "Total number of matches created by match type.",
	},
		[]string{"type"},
	)

	CertificatesIssuedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "givehub_certificates_issued_total",
		Help: "Total number of donation certificates issued.",
	})

	NotificationErrorsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "givehub_notification_errors_total",
		Help: "Total number of failed notification deliveries by channel.",
	},
		[]string{"channel"},
	)

	DashboardCacheLookups = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "givehub_dashboard_cache_lookups_total",
		Help: "Dashboard cache lookups by result.",
	},
		[]string{"result"},
	)
)
