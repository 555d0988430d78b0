// Package metrics registers the prometheus collectors shared across the
// strategy hooks and the reference harness.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

var (
	HookInvocations = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "stratkit_hook_invocations_total",
			Help: "Total number of host hook invocations (by strategy and hook).",
		},
		[]string{"strategy", "hook"},
	)

	SignalsFlagged = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "stratkit_signals_flagged_total",
			Help: "Rows flagged by the entry/exit hooks (by strategy and signal column).",
		},
		[]string{"strategy", "signal"},
	)

	TradesOpened = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "stratkit_trades_opened_total",
			Help: "Simulated trades opened by the reference harness (by strategy).",
		},
		[]string{"strategy"},
	)

	TradesClosed = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "stratkit_trades_closed_total",
			Help: "Simulated trades closed by the reference harness (by strategy and reason).",
		},
		[]string{"strategy", "reason"},
	)

	EquityGauge = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "stratkit_harness_equity",
			Help: "Current equity of the reference harness.",
		},
	)
)

func init() {
	prometheus.MustRegister(HookInvocations, SignalsFlagged, TradesOpened, TradesClosed, EquityGauge)
}
