package domain

import "context"

// NotificationKind distinguishes resolved-symbol outcomes.
type NotificationKind string

const (
	NotifySuccess NotificationKind = "success"
	NotifyFailure NotificationKind = "failure"
)

// Notification is one per-symbol (or batch-level, when Symbol is empty)
// outcome emitted by the reconciliation engine. Amount is the realised
// credit (positive) or debit (negative) and is only meaningful on success.
type Notification struct {
	Kind   NotificationKind
	Symbol string
	Amount float64
	Reason string // failure cause, empty on success
}

// Sink receives outcome notifications. Implementations must not block the
// reconciliation loop for long; delivery failures are theirs to swallow.
type Sink interface {
	Notify(ctx context.Context, n Notification)
}
