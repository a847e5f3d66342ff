// Package executor implements the order execution coordinator: the intent
// queue of user-marked symbols, the per-variant in-flight tracker, batched
// submission over the gateway transport, and the reconciliation loop that
// folds asynchronous execution reports back into the holding store.
package executor

import (
	"sort"
	"sync"
)

// ToggleResult is the explicit membership-change signal of a queue toggle.
type ToggleResult string

const (
	// ToggleAdded means the symbol joined the queue.
	ToggleAdded ToggleResult = "added"
	// ToggleRemoved means the symbol left the queue.
	ToggleRemoved ToggleResult = "removed"
	// ToggleRejected means the add was refused because the symbol's implied
	// direction conflicts with the queued batch.
	ToggleRejected ToggleResult = "rejected"
)

// IntentQueue is the set of symbols marked for the next batch. All members
// share one direction (true = close/sell open contracts, false = open/buy);
// the direction is fixed by the first member and cleared when the queue
// empties. Safe for concurrent use; no operation blocks.
type IntentQueue struct {
	mu        sync.Mutex
	symbols   map[string]struct{}
	direction bool
}

// NewIntentQueue creates an empty queue.
func NewIntentQueue() *IntentQueue {
	return &IntentQueue{symbols: make(map[string]struct{})}
}

// Toggle flips a symbol's queue membership. A queued symbol is removed; an
// unqueued one is added when the queue is empty or when impliedDir matches
// the queued direction, and rejected otherwise.
func (q *IntentQueue) Toggle(symbol string, impliedDir bool) ToggleResult {
	q.mu.Lock()
	defer q.mu.Unlock()

	if _, ok := q.symbols[symbol]; ok {
		delete(q.symbols, symbol)
		return ToggleRemoved
	}
	if len(q.symbols) > 0 && q.direction != impliedDir {
		return ToggleRejected
	}
	if len(q.symbols) == 0 {
		q.direction = impliedDir
	}
	q.symbols[symbol] = struct{}{}
	return ToggleAdded
}

// Snapshot returns the queued symbols sorted, together with the shared
// direction. The direction is meaningless when the queue is empty.
func (q *IntentQueue) Snapshot() ([]string, bool) {
	q.mu.Lock()
	defer q.mu.Unlock()

	out := make([]string, 0, len(q.symbols))
	for sym := range q.symbols {
		out = append(out, sym)
	}
	sort.Strings(out)
	return out, q.direction
}

// Drop removes the given symbols from the queue, used after they have been
// handed to the in-flight tracker. Symbols not present are ignored.
func (q *IntentQueue) Drop(symbols []string) {
	q.mu.Lock()
	defer q.mu.Unlock()

	for _, sym := range symbols {
		delete(q.symbols, sym)
	}
}

// Len returns the number of queued symbols.
func (q *IntentQueue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.symbols)
}
