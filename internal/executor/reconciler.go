package executor

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/forcepush/tradedesk/internal/domain"
	"github.com/forcepush/tradedesk/internal/metrics"
	"github.com/forcepush/tradedesk/internal/portfolio"
)

// defaultSweepInterval is how often the reconciler checks for in-flight
// entries whose confirmation deadline has passed.
const defaultSweepInterval = 5 * time.Second

// Reconciler consumes the transport's inbound stream and applies each
// execution report to the holding store and in-flight tracker. It is the
// only consumer of the stream, so two confirmations arriving in the same
// tick are both processed; within one message, symbols are handled
// independently and one failure never blocks its siblings.
type Reconciler struct {
	store   *portfolio.Store
	tracker *Tracker
	sink    domain.Sink

	sweepInterval time.Duration
	logger        *slog.Logger
}

// NewReconciler creates a reconciler sharing the coordinator's tracker.
func NewReconciler(store *portfolio.Store, coord *Coordinator, sink domain.Sink, logger *slog.Logger) *Reconciler {
	return &Reconciler{
		store:         store,
		tracker:       coord.Tracker(),
		sink:          sink,
		sweepInterval: defaultSweepInterval,
		logger:        logger.With(slog.String("component", "reconciler")),
	}
}

// SetSweepInterval changes the expiry sweep cadence. Must be called before
// Run.
func (r *Reconciler) SetSweepInterval(d time.Duration) {
	if d > 0 {
		r.sweepInterval = d
	}
}

// Run processes inbound messages until the context is cancelled or the
// message channel closes. It also runs the in-flight expiry sweep.
func (r *Reconciler) Run(ctx context.Context, messages <-chan json.RawMessage) error {
	r.logger.Info("reconciler started")
	defer r.logger.Info("reconciler stopped")

	sweepTicker := time.NewTicker(r.sweepInterval)
	defer sweepTicker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()

		case raw, ok := <-messages:
			if !ok {
				return nil
			}
			r.handleMessage(ctx, raw)

		case <-sweepTicker.C:
			r.sweep(ctx, time.Now())
		}
	}
}

// handleMessage processes one inbound gateway message: either a top-level
// failure envelope or a mapping of symbol to execution report.
func (r *Reconciler) handleMessage(ctx context.Context, raw json.RawMessage) {
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(raw, &fields); err != nil {
		r.logger.Warn("unparseable gateway message", slog.String("error", err.Error()))
		return
	}
	if len(fields) == 0 {
		return
	}

	// A top-level "message" string is a transport-level failure for the
	// whole batch; nothing can be attributed to individual symbols.
	if msg, ok := fields["message"]; ok {
		var text string
		if err := json.Unmarshal(msg, &text); err == nil {
			r.logger.Error("gateway reported batch failure", slog.String("message", text))
			metrics.Failure(metrics.ReasonBatch)
			r.sink.Notify(ctx, domain.Notification{
				Kind:   domain.NotifyFailure,
				Reason: "failed to execute order batch: " + text,
			})
			return
		}
	}

	for symbol, body := range fields {
		r.handleReport(ctx, symbol, body)
	}
	metrics.SetInFlight(r.tracker.Count())
}

// handleReport resolves one per-symbol outcome. A report for a symbol no
// longer in flight (a replay, or one surviving a restart) is a no-op.
func (r *Reconciler) handleReport(ctx context.Context, symbol string, body json.RawMessage) {
	var report domain.ExecutionReport
	if err := json.Unmarshal(body, &report); err != nil {
		r.logger.Warn("unparseable execution report",
			slog.String("symbol", symbol),
			slog.String("error", err.Error()),
		)
		return
	}

	variant, ok := r.tracker.Claim(symbol)
	if !ok {
		r.logger.Debug("confirmation for untracked symbol, ignoring",
			slog.String("symbol", symbol),
		)
		return
	}

	log := r.logger.With(
		slog.String("variant", variant.Label()),
		slog.String("symbol", symbol),
	)

	if report.Failed() {
		log.Warn("execution failed", slog.String("error", report.Error))
		metrics.Failure(metrics.ReasonSymbol)
		r.sink.Notify(ctx, domain.Notification{
			Kind:   domain.NotifyFailure,
			Symbol: symbol,
			Reason: report.Error,
		})
		return
	}

	fill, err := report.Fill()
	if err != nil {
		// Confirmed on the wire but unusable; the in-flight entry is
		// already cleared so the symbol can be retried.
		log.Warn("malformed fill in confirmation", slog.String("error", err.Error()))
		metrics.Failure(metrics.ReasonSymbol)
		r.sink.Notify(ctx, domain.Notification{
			Kind:   domain.NotifyFailure,
			Symbol: symbol,
			Reason: fmt.Sprintf("unusable confirmation: %v", err),
		})
		return
	}

	amount, err := report.Amount()
	if err != nil {
		log.Warn("unparseable premium, reporting zero amount", slog.String("error", err.Error()))
	}

	r.store.Apply(variant, symbol, fill)
	metrics.ConfirmationApplied()

	log.Info("fill applied",
		slog.String("direction", report.Direction),
		slog.Int("contracts", fill.Contracts),
		slog.Float64("amount", amount),
	)
	r.sink.Notify(ctx, domain.Notification{
		Kind:   domain.NotifySuccess,
		Symbol: symbol,
		Amount: amount,
	})
}

// sweep force-fails in-flight entries whose deadline has passed, returning
// their symbols to idle with a distinct timed-out failure.
func (r *Reconciler) sweep(ctx context.Context, now time.Time) {
	expired := r.tracker.Expired(now)
	if len(expired) == 0 {
		return
	}

	for variant, symbols := range expired {
		for _, sym := range symbols {
			r.logger.Warn("confirmation timed out",
				slog.String("variant", variant.Label()),
				slog.String("symbol", sym),
			)
			metrics.Failure(metrics.ReasonTimeout)
			r.sink.Notify(ctx, domain.Notification{
				Kind:   domain.NotifyFailure,
				Symbol: sym,
				Reason: domain.ErrConfirmTimeout.Error(),
			})
		}
	}
	metrics.SetInFlight(r.tracker.Count())
}
