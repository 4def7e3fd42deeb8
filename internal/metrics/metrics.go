package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	OnlineUsers = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "signalhub_online_users",
		Help: "Number of currently registered names",
	})

	ActiveCalls = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "signalhub_active_calls",
		Help: "Number of live (non-terminal) call sessions",
	})

	CallsStarted = promauto.NewCounter(prometheus.CounterOpts{
		Name: "signalhub_calls_started_total",
		Help: "Total call sessions created",
	})

	CallsClosed = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "signalhub_calls_closed_total",
		Help: "Total call sessions closed, by terminal state",
	}, []string{"state"})

	CallSeconds = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "signalhub_call_duration_seconds",
		Help:    "Duration of closed call sessions",
		Buckets: prometheus.ExponentialBuckets(1, 4, 8),
	})

	SignalsRelayed = promauto.NewCounter(prometheus.CounterOpts{
		Name: "signalhub_signals_relayed_total",
		Help: "Total frames delivered to a named peer",
	})

	RelayFailures = promauto.NewCounter(prometheus.CounterOpts{
		Name: "signalhub_relay_failures_total",
		Help: "Total deliveries that failed because the target was offline or stalled",
	})
)
