package executor

import (
	"sort"
	"sync"
	"time"

	"github.com/forcepush/tradedesk/internal/domain"
)

// Tracker records which symbols are awaiting a confirmation, per variant.
// A symbol acquired for a variant cannot be acquired again for that variant
// until Complete (or an expiry sweep) removes it; the same symbol may be in
// flight for different variants at once. Each entry carries a deadline so
// that confirmations the gateway silently drops do not pin a symbol in
// flight forever. Safe for concurrent use.
type Tracker struct {
	mu      sync.Mutex
	pending map[domain.Variant]map[string]time.Time // symbol -> deadline
}

// NewTracker creates an empty tracker.
func NewTracker() *Tracker {
	return &Tracker{pending: make(map[domain.Variant]map[string]time.Time)}
}

// Begin acquires every symbol not already in flight for the variant and
// returns the acquired subset, sorted. Symbols already in flight are
// excluded silently; that exclusion is the duplicate-submission guard.
func (t *Tracker) Begin(variant domain.Variant, symbols []string, ttl time.Duration) []string {
	t.mu.Lock()
	defer t.mu.Unlock()

	book := t.pending[variant]
	if book == nil {
		book = make(map[string]time.Time)
		t.pending[variant] = book
	}

	deadline := time.Now().Add(ttl)
	acquired := make([]string, 0, len(symbols))
	for _, sym := range symbols {
		if _, inFlight := book[sym]; inFlight {
			continue
		}
		book[sym] = deadline
		acquired = append(acquired, sym)
	}
	sort.Strings(acquired)
	return acquired
}

// Complete removes the symbol from the variant's in-flight set regardless of
// outcome. Removing an absent symbol is a no-op; the return value reports
// whether anything was actually removed.
func (t *Tracker) Complete(variant domain.Variant, symbol string) bool {
	t.mu.Lock()
	defer t.mu.Unlock()

	book, ok := t.pending[variant]
	if !ok {
		return false
	}
	if _, ok := book[symbol]; !ok {
		return false
	}
	delete(book, symbol)
	return true
}

// Claim resolves an inbound confirmation to the variant awaiting it and
// removes the entry in one step. When the symbol is in flight for both
// books (the gateway keys reports by symbol only), the earliest acquisition
// wins, deterministically. The second return is false when no variant is
// awaiting the symbol.
func (t *Tracker) Claim(symbol string) (domain.Variant, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()

	var (
		owner    domain.Variant
		earliest time.Time
		found    bool
	)
	for variant, book := range t.pending {
		deadline, ok := book[symbol]
		if !ok {
			continue
		}
		if !found || deadline.Before(earliest) {
			owner = variant
			earliest = deadline
			found = true
		}
	}
	if !found {
		return 0, false
	}
	delete(t.pending[owner], symbol)
	return owner, true
}

// InFlight reports whether the symbol is awaiting confirmation for the
// variant.
func (t *Tracker) InFlight(variant domain.Variant, symbol string) bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	_, ok := t.pending[variant][symbol]
	return ok
}

// Expired removes and returns every entry whose deadline is at or before
// now, grouped by variant with symbols sorted.
func (t *Tracker) Expired(now time.Time) map[domain.Variant][]string {
	t.mu.Lock()
	defer t.mu.Unlock()

	expired := make(map[domain.Variant][]string)
	for variant, book := range t.pending {
		for sym, deadline := range book {
			if !deadline.After(now) {
				expired[variant] = append(expired[variant], sym)
				delete(book, sym)
			}
		}
	}
	for variant := range expired {
		sort.Strings(expired[variant])
	}
	return expired
}

// Count returns the total number of in-flight symbols across variants.
func (t *Tracker) Count() int {
	t.mu.Lock()
	defer t.mu.Unlock()

	n := 0
	for _, book := range t.pending {
		n += len(book)
	}
	return n
}
