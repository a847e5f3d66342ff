package notify

import (
	"context"
	"fmt"
	"math"

	"github.com/forcepush/tradedesk/internal/domain"
)

// Outcomes adapts the Notifier to the engine's sink port, rendering
// resolved-symbol outcomes the way the product words them.
type Outcomes struct {
	notifier *Notifier
}

// NewOutcomes wraps a Notifier as a domain.Sink.
func NewOutcomes(notifier *Notifier) *Outcomes {
	return &Outcomes{notifier: notifier}
}

var _ domain.Sink = (*Outcomes)(nil)

// Notify renders and delivers one outcome. Errors from the notifier are
// already logged there; the trade flow never sees them.
func (o *Outcomes) Notify(ctx context.Context, n domain.Notification) {
	switch n.Kind {
	case domain.NotifySuccess:
		title := fmt.Sprintf("Success %s $%.0f", amountSign(n.Amount), math.Abs(n.Amount))
		_ = o.notifier.Notify(ctx, string(n.Kind), title,
			fmt.Sprintf("Executed order for %s!", n.Symbol))

	case domain.NotifyFailure:
		message := "Failed to execute order."
		if n.Symbol != "" {
			message = fmt.Sprintf("Failed to execute order for %s.", n.Symbol)
		}
		if n.Reason != "" {
			message += " " + n.Reason
		}
		_ = o.notifier.Notify(ctx, string(n.Kind), "Failure", message)
	}
}

func amountSign(amount float64) string {
	if amount < 0 {
		return "-"
	}
	return "+"
}
