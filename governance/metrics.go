package governance

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	evaluationsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "governance",
		Name:      "pretrade_evaluations_total",
		Help:      "Pre-trade rule evaluations performed",
	})
	blockedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "governance",
		Name:      "pretrade_blocked_total",
		Help:      "Evaluations whose decision was will_block",
	})
	breachesTotal = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "governance",
		Name:      "breaches_recorded_total",
		Help:      "Breach records persisted",
	})
	riskEventsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "governance",
		Name:      "risk_events_total",
		Help:      "Risk events appended to the risk chain",
	})
	snapshotsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "governance",
		Name:      "config_snapshots_total",
		Help:      "Config snapshots appended",
	})
	verifyFailuresTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "governance",
		Name:      "chain_verify_failures_total",
		Help:      "Chain verifications that found an integrity break",
	}, []string{"chain"})
)

// StartMetricsServer exposes /metrics on addr in the background.
func StartMetricsServer(addr string) {
	http.Handle("/metrics", promhttp.Handler())
	go func() {
		_ = http.ListenAndServe(addr, nil)
	}()
}
