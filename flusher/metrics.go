package flusher

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/theanalyst/qclient-go/internal/resp"
)

// Metrics published by BackgroundFlusher (spec.md §4.12's "publish
// metrics" requirement). Package-scoped so every flusher instance in a
// process shares one registration, matching the convention linkerd2's
// destination package uses for its own stream metrics.
var (
	inFlightGauge = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "qclient_flusher_in_flight",
			Help: "Number of requests submitted to the flusher and not yet acknowledged",
		},
	)

	ackedCounter = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "qclient_flusher_acked_total",
			Help: "Total number of flusher requests acknowledged",
		},
	)

	networkIssueCounter = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "qclient_flusher_network_issues_total",
			Help: "Total number of flusher requests that failed with a network issue and were left persisted for retry",
		},
	)

	unexpectedResponseCounter = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "qclient_flusher_unexpected_responses_total",
			Help: "Total number of flusher requests acknowledged despite an unexpected error reply",
		},
	)
)

// instrumentedNotifier wraps a Notifier to also update the package
// metrics, so BackgroundFlusher users still get their own Notifier
// calls without having to remember to touch the counters themselves.
type instrumentedNotifier struct {
	inner Notifier
}

func (n instrumentedNotifier) NetworkIssue(err error) {
	networkIssueCounter.Inc()
	n.inner.NetworkIssue(err)
}

func (n instrumentedNotifier) UnexpectedResponse(reply *resp.Reply) {
	unexpectedResponseCounter.Inc()
	n.inner.UnexpectedResponse(reply)
}
