package qclient

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics published by Client's supervisor loop, in the same
// package-scoped promauto style flusher/metrics.go uses.
var (
	connectedGauge = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "qclient_connected",
			Help: "1 if the client currently has an open connection, 0 otherwise",
		},
	)

	reconnectsCounter = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "qclient_reconnects_total",
			Help: "Total number of times the client has re-established its connection",
		},
	)

	redirectsCounter = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "qclient_redirects_total",
			Help: "Total number of MOVED redirects followed",
		},
	)

	retriesExhaustedCounter = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "qclient_retries_exhausted_total",
			Help: "Total number of times the configured RetryStrategy gave up and failed pending requests",
		},
	)
)
