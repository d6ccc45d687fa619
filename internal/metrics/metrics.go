// Package metrics holds the Prometheus collectors exported on /metrics.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "fintrack"

// Metrics groups every collector the server records.
// A nil *Metrics is valid and records nothing.
type Metrics struct {
	rpcRequests     *prometheus.CounterVec
	rpcDuration     *prometheus.HistogramVec
	transfers       prometheus.Histogram
	splitRejections *prometheus.CounterVec
	balanceMembers  prometheus.Histogram
}

// New creates the collectors and registers them with reg.
func New(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		rpcRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "rpc_requests_total",
			Help:      "RPC calls by procedure and result code.",
		}, []string{"procedure", "code"}),
		rpcDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "rpc_duration_seconds",
			Help:      "RPC latency by procedure.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"procedure"}),
		transfers: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "balance_transfers",
			Help:      "Suggested transfers per balance query.",
			Buckets:   []float64{0, 1, 2, 4, 8, 16, 32, 64},
		}),
		splitRejections: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "split_validation_failures_total",
			Help:      "Expense splits rejected by validation, by split type and reason.",
		}, []string{"split_type", "reason"}),
		balanceMembers: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "balance_members",
			Help:      "Balance entries (members plus orphans) per balance query.",
			Buckets:   prometheus.LinearBuckets(0, 5, 10),
		}),
	}

	reg.MustRegister(m.rpcRequests, m.rpcDuration, m.transfers, m.splitRejections, m.balanceMembers)
	return m
}

// ObserveRPC records one finished call.
func (m *Metrics) ObserveRPC(procedure, code string, seconds float64) {
	if m == nil {
		return
	}
	m.rpcRequests.WithLabelValues(procedure, code).Inc()
	m.rpcDuration.WithLabelValues(procedure).Observe(seconds)
}

// ObserveBalances records the shape of one balance computation.
func (m *Metrics) ObserveBalances(members, transfers int) {
	if m == nil {
		return
	}
	m.balanceMembers.Observe(float64(members))
	m.transfers.Observe(float64(transfers))
}

// SplitRejected counts a split that failed validation. reason is one of the
// calculator's validation kinds.
func (m *Metrics) SplitRejected(splitType, reason string) {
	if m == nil {
		return
	}
	m.splitRejections.WithLabelValues(splitType, reason).Inc()
}
