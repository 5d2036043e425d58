package metrics

import (
	"fmt"
	"net/http"
	"sync/atomic"
)

var (
	SamplesReceived      atomic.Int64
	RiskQueriesFired     atomic.Int64
	RiskQueriesThrottled atomic.Int64
	RiskQueryFailures    atomic.Int64
	AlertsActivated      atomic.Int64
	AlertsDismissed      atomic.Int64
	FeedChannelDrops     atomic.Int64
	StateChannelDrops    atomic.Int64
	AuditChannelDrops    atomic.Int64
)

func HandleMetrics(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/plain; version=0.0.4")
	fmt.Fprintf(w, "monitor_samples_received_total %d\n", SamplesReceived.Load())
	fmt.Fprintf(w, "monitor_risk_queries_fired_total %d\n", RiskQueriesFired.Load())
	fmt.Fprintf(w, "monitor_risk_queries_throttled_total %d\n", RiskQueriesThrottled.Load())
	fmt.Fprintf(w, "monitor_risk_query_failures_total %d\n", RiskQueryFailures.Load())
	fmt.Fprintf(w, "monitor_alerts_activated_total %d\n", AlertsActivated.Load())
	fmt.Fprintf(w, "monitor_alerts_dismissed_total %d\n", AlertsDismissed.Load())
	fmt.Fprintf(w, "monitor_feed_channel_drops_total %d\n", FeedChannelDrops.Load())
	fmt.Fprintf(w, "monitor_state_channel_drops_total %d\n", StateChannelDrops.Load())
	fmt.Fprintf(w, "monitor_audit_channel_drops_total %d\n", AuditChannelDrops.Load())
}
