package server

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// metrics are registered on the server's own registry so that several
// servers, as in tests, do not collide.
type metrics struct {
	requests  *prometheus.CounterVec
	duration  *prometheus.HistogramVec
	reloads   *prometheus.CounterVec
	documents prometheus.Gauge
}

func newMetrics(reg prometheus.Registerer) *metrics {
	factory := promauto.With(reg)
	return &metrics{
		requests: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "sitecms_http_requests_total",
				Help: "Total number of HTTP requests",
			},
			[]string{"method", "route", "code"},
		),
		duration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "sitecms_http_request_duration_seconds",
				Help:    "HTTP request duration in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"route"},
		),
		reloads: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "sitecms_content_reloads_total",
				Help: "Content reloads by result (changed, unchanged, error)",
			},
			[]string{"result"},
		),
		documents: factory.NewGauge(
			prometheus.GaugeOpts{
				Name: "sitecms_content_documents",
				Help: "Number of content files in the live site",
			},
		),
	}
}
