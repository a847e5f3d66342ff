package executor

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/forcepush/tradedesk/internal/domain"
	"github.com/forcepush/tradedesk/internal/metrics"
	"github.com/forcepush/tradedesk/internal/portfolio"
)

// defaultInFlightTTL bounds how long a submitted symbol may await its
// confirmation before the sweep force-fails it.
const defaultInFlightTTL = 90 * time.Second

// Coordinator owns the intent queue and in-flight tracker and is the single
// choke point for every user-driven mutation: toggling symbols into the
// queue and executing the queue as one batched gateway message. Incoming
// confirmations are handled by the Reconciler, which shares the tracker and
// store.
type Coordinator struct {
	store     *portfolio.Store
	queue     *IntentQueue
	tracker   *Tracker
	transport domain.Transport
	tokens    domain.TokenProvider
	sink      domain.Sink

	inFlightTTL time.Duration
	logger      *slog.Logger
}

// NewCoordinator wires a coordinator over the given collaborators.
func NewCoordinator(
	store *portfolio.Store,
	transport domain.Transport,
	tokens domain.TokenProvider,
	sink domain.Sink,
	logger *slog.Logger,
) *Coordinator {
	return &Coordinator{
		store:       store,
		queue:       NewIntentQueue(),
		tracker:     NewTracker(),
		transport:   transport,
		tokens:      tokens,
		sink:        sink,
		inFlightTTL: defaultInFlightTTL,
		logger:      logger.With(slog.String("component", "coordinator")),
	}
}

// SetInFlightTTL overrides the confirmation deadline. Must be called before
// the coordinator is in use.
func (c *Coordinator) SetInFlightTTL(ttl time.Duration) {
	if ttl > 0 {
		c.inFlightTTL = ttl
	}
}

// Queue exposes the intent queue for read-side consumers (status endpoints).
func (c *Coordinator) Queue() *IntentQueue { return c.queue }

// Tracker exposes the in-flight tracker shared with the reconciler.
func (c *Coordinator) Tracker() *Tracker { return c.tracker }

// Toggle flips a symbol's membership in the intent queue. The implied
// direction comes from the holding's current contracts: open contracts mean
// the action closes them, a flat holding means it opens a position. A
// symbol still awaiting a confirmation for this variant cannot be
// re-queued.
func (c *Coordinator) Toggle(variant domain.Variant, symbol string) (ToggleResult, error) {
	holding, ok := c.store.Get(variant, symbol)
	if !ok {
		return ToggleRejected, fmt.Errorf("executor: toggle %s: %w", symbol, domain.ErrUnknownHolding)
	}
	if c.tracker.InFlight(variant, symbol) {
		return ToggleRejected, fmt.Errorf("executor: toggle %s: %w", symbol, domain.ErrAlreadyInFlight)
	}

	res := c.queue.Toggle(symbol, holding.Direction())
	metrics.SetQueueDepth(c.queue.Len())

	c.logger.Debug("queue toggled",
		slog.String("variant", variant.Label()),
		slog.String("symbol", symbol),
		slog.String("result", string(res)),
	)
	return res, nil
}

// Execute submits the queued symbols for the variant as one batch. The
// queue must be non-empty and its direction must match the intended action,
// otherwise the call is a no-op error. Symbols already in flight for the
// variant are excluded from the batch; when that excludes everything no
// message is sent at all. Only the symbols actually submitted leave the
// queue. A synchronous send failure returns every acquired symbol to idle
// and surfaces a single failure notification.
func (c *Coordinator) Execute(ctx context.Context, variant domain.Variant, direction bool) ([]string, error) {
	symbols, queued := c.queue.Snapshot()
	if len(symbols) == 0 {
		return nil, fmt.Errorf("executor: execute: %w", domain.ErrEmptyQueue)
	}
	if queued != direction {
		return nil, fmt.Errorf("executor: execute: %w", domain.ErrDirectionConflict)
	}

	acquired := c.tracker.Begin(variant, symbols, c.inFlightTTL)
	metrics.SetInFlight(c.tracker.Count())
	if len(acquired) == 0 {
		c.logger.Debug("nothing to submit, all symbols in flight",
			slog.String("variant", variant.Label()),
		)
		return nil, nil
	}

	ref := uuid.New().String()
	log := c.logger.With(
		slog.String("batch_ref", ref),
		slog.String("variant", variant.Label()),
		slog.String("type", domain.BatchType(direction)),
		slog.Int("symbols", len(acquired)),
	)

	token, err := c.tokens.Token(ctx, variant)
	if err != nil {
		c.release(variant, acquired)
		c.notifySendFailure(ctx, err)
		log.Error("token fetch failed", slog.String("error", err.Error()))
		return nil, fmt.Errorf("executor: execute: %w", domain.ErrSendFailed)
	}

	batch := domain.OrderBatch{
		Token:   token,
		Type:    domain.BatchType(direction),
		Symbols: acquired,
		Variant: int(variant),
	}
	if err := c.transport.Send(ctx, batch); err != nil {
		c.release(variant, acquired)
		c.notifySendFailure(ctx, err)
		log.Error("batch send failed", slog.String("error", err.Error()))
		return nil, fmt.Errorf("executor: execute: %w", domain.ErrSendFailed)
	}

	c.queue.Drop(acquired)
	metrics.SetQueueDepth(c.queue.Len())
	metrics.BatchSent(batch.Type, len(acquired))

	log.Info("batch submitted")
	return acquired, nil
}

// release returns acquired symbols to idle after a failed submission: out
// of the tracker and out of the queue.
func (c *Coordinator) release(variant domain.Variant, symbols []string) {
	for _, sym := range symbols {
		c.tracker.Complete(variant, sym)
	}
	c.queue.Drop(symbols)
	metrics.SetInFlight(c.tracker.Count())
	metrics.SetQueueDepth(c.queue.Len())
}

func (c *Coordinator) notifySendFailure(ctx context.Context, err error) {
	metrics.Failure(metrics.ReasonSend)
	c.sink.Notify(ctx, domain.Notification{
		Kind:   domain.NotifyFailure,
		Reason: fmt.Sprintf("failed to submit order batch: %v", err),
	})
}
