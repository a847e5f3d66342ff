// Package metrics exposes the coordinator's Prometheus instrumentation:
//
//   - tradedesk_batches_total{type}: outbound order batches by BUY/SELL
//   - tradedesk_symbols_submitted_total: symbols carried by those batches
//   - tradedesk_confirmations_total: confirmed per-symbol fills
//   - tradedesk_failures_total{reason}: failures by reason (symbol, batch, send, timeout)
//   - tradedesk_in_flight: symbols currently awaiting confirmation
//   - tradedesk_queue_depth: symbols in the intent queue
//
// All series are registered in init and served at /metrics by the ops server.
package metrics

import "github.com/prometheus/client_golang/prometheus"

var (
	batches = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "tradedesk_batches_total",
			Help: "Outbound order batches sent, by wire type",
		},
		[]string{"type"},
	)

	symbolsSubmitted = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "tradedesk_symbols_submitted_total",
			Help: "Symbols submitted inside order batches",
		},
	)

	confirmations = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "tradedesk_confirmations_total",
			Help: "Per-symbol fills confirmed and applied",
		},
	)

	failures = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "tradedesk_failures_total",
			Help: "Failures by reason",
		},
		[]string{"reason"},
	)

	inFlight = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "tradedesk_in_flight",
			Help: "Symbols currently awaiting confirmation",
		},
	)

	queueDepth = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "tradedesk_queue_depth",
			Help: "Symbols currently marked in the intent queue",
		},
	)
)

// Failure reason labels.
const (
	ReasonSymbol  = "symbol"  // per-symbol execution failure
	ReasonBatch   = "batch"   // top-level gateway failure
	ReasonSend    = "send"    // synchronous transport send failure
	ReasonTimeout = "timeout" // in-flight confirmation timed out
)

func init() {
	prometheus.MustRegister(
		batches,
		symbolsSubmitted,
		confirmations,
		failures,
		inFlight,
		queueDepth,
	)
}

// BatchSent records one outbound batch of n symbols.
func BatchSent(batchType string, n int) {
	batches.WithLabelValues(batchType).Inc()
	symbolsSubmitted.Add(float64(n))
}

// ConfirmationApplied records one confirmed fill.
func ConfirmationApplied() { confirmations.Inc() }

// Failure records one failure with the given reason label.
func Failure(reason string) { failures.WithLabelValues(reason).Inc() }

// SetInFlight updates the in-flight gauge.
func SetInFlight(n int) { inFlight.Set(float64(n)) }

// SetQueueDepth updates the intent-queue gauge.
func SetQueueDepth(n int) { queueDepth.Set(float64(n)) }
