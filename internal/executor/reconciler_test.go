package executor

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/forcepush/tradedesk/internal/domain"
	"github.com/forcepush/tradedesk/internal/portfolio"
)

// reconcilerFixture wires a coordinator and reconciler over shared state and
// puts the given symbols in flight for the default book.
func reconcilerFixture(t *testing.T, store *portfolio.Store, inFlight ...string) (*Reconciler, *Coordinator, *recordingSink) {
	t.Helper()
	sink := &recordingSink{}
	coord := NewCoordinator(store, newFakeTransport(), &fakeTokens{token: "tok"}, sink, testLogger())
	rec := NewReconciler(store, coord, sink, testLogger())
	if len(inFlight) > 0 {
		coord.Tracker().Begin(domain.VariantDefault, inFlight, time.Minute)
	}
	return rec, coord, sink
}

func TestReconciler_AppliesFill(t *testing.T) {
	store := seededStore(t, domain.Holding{Symbol: "AAPL", OpenContracts: -1})
	rec, coord, sink := reconcilerFixture(t, store, "AAPL")

	rec.handleMessage(context.Background(), json.RawMessage(`{
		"AAPL": {
			"direction": "debit",
			"premium": "1.25",
			"quantity": "2",
			"legs": [{"expiration_date": "2026-09-19", "strike_price": "232.5"}]
		}
	}`))

	h, ok := store.Get(domain.VariantDefault, "AAPL")
	require.True(t, ok)
	assert.Equal(t, 1, h.OpenContracts) // -1 + 2
	assert.Equal(t, "2026-09-19", h.Expiration)
	assert.Equal(t, 232.5, h.Strike)
	assert.Equal(t, domain.FillChance, h.Chance)

	assert.False(t, coord.Tracker().InFlight(domain.VariantDefault, "AAPL"))

	notes := sink.all()
	require.Len(t, notes, 1)
	assert.Equal(t, domain.NotifySuccess, notes[0].Kind)
	assert.Equal(t, "AAPL", notes[0].Symbol)
	assert.Equal(t, -2.5, notes[0].Amount) // debit costs money
}

func TestReconciler_MixedOutcomesInOneMessage(t *testing.T) {
	store := seededStore(t,
		domain.Holding{Symbol: "AAPL", OpenContracts: 2},
		domain.Holding{Symbol: "MSFT", OpenContracts: 1},
	)
	rec, coord, sink := reconcilerFixture(t, store, "AAPL", "MSFT")

	rec.handleMessage(context.Background(), json.RawMessage(`{
		"AAPL": {"direction": "credit", "premium": "0.50", "quantity": "2", "legs": []},
		"MSFT": {"error": "insufficient buying power"}
	}`))

	// The failed sibling does not block the successful one.
	h, _ := store.Get(domain.VariantDefault, "AAPL")
	assert.Equal(t, 0, h.OpenContracts) // 2 - 2, credit closes

	h, _ = store.Get(domain.VariantDefault, "MSFT")
	assert.Equal(t, 1, h.OpenContracts) // untouched

	// Both symbols left the in-flight set either way.
	assert.False(t, coord.Tracker().InFlight(domain.VariantDefault, "AAPL"))
	assert.False(t, coord.Tracker().InFlight(domain.VariantDefault, "MSFT"))

	notes := sink.all()
	require.Len(t, notes, 2)
	byKind := map[domain.NotificationKind]domain.Notification{}
	for _, n := range notes {
		byKind[n.Kind] = n
	}
	assert.Equal(t, "AAPL", byKind[domain.NotifySuccess].Symbol)
	assert.Equal(t, 1.0, byKind[domain.NotifySuccess].Amount)
	assert.Equal(t, "MSFT", byKind[domain.NotifyFailure].Symbol)
	assert.Equal(t, "insufficient buying power", byKind[domain.NotifyFailure].Reason)
}

func TestReconciler_BatchLevelFailure(t *testing.T) {
	store := seededStore(t, domain.Holding{Symbol: "AAPL", OpenContracts: 1})
	rec, coord, sink := reconcilerFixture(t, store, "AAPL")

	rec.handleMessage(context.Background(), json.RawMessage(`{"message": "session expired"}`))

	// Nothing can be attributed per symbol, so the book and the in-flight
	// set are untouched; the expiry sweep recovers the symbols later.
	h, _ := store.Get(domain.VariantDefault, "AAPL")
	assert.Equal(t, 1, h.OpenContracts)
	assert.True(t, coord.Tracker().InFlight(domain.VariantDefault, "AAPL"))

	notes := sink.all()
	require.Len(t, notes, 1)
	assert.Equal(t, domain.NotifyFailure, notes[0].Kind)
	assert.Empty(t, notes[0].Symbol)
	assert.Contains(t, notes[0].Reason, "session expired")
}

func TestReconciler_ReplayIsNoOp(t *testing.T) {
	store := seededStore(t, domain.Holding{Symbol: "AAPL", OpenContracts: 0})
	rec, _, sink := reconcilerFixture(t, store, "AAPL")

	report := json.RawMessage(`{"AAPL": {"direction": "debit", "premium": "1.00", "quantity": "1", "legs": []}}`)
	rec.handleMessage(context.Background(), report)
	rec.handleMessage(context.Background(), report)

	// The second delivery finds no in-flight entry and must not double-apply.
	h, _ := store.Get(domain.VariantDefault, "AAPL")
	assert.Equal(t, 1, h.OpenContracts)
	assert.Len(t, sink.all(), 1)
}

func TestReconciler_UntrackedSymbolIgnored(t *testing.T) {
	store := seededStore(t, domain.Holding{Symbol: "AAPL"})
	rec, _, sink := reconcilerFixture(t, store)

	rec.handleMessage(context.Background(), json.RawMessage(`{"AAPL": {"direction": "debit", "premium": "1.00", "quantity": "1", "legs": []}}`))

	h, _ := store.Get(domain.VariantDefault, "AAPL")
	assert.Equal(t, 0, h.OpenContracts)
	assert.Empty(t, sink.all())
}

func TestReconciler_MalformedFillFails(t *testing.T) {
	store := seededStore(t, domain.Holding{Symbol: "AAPL"})
	rec, coord, sink := reconcilerFixture(t, store, "AAPL")

	rec.handleMessage(context.Background(), json.RawMessage(`{"AAPL": {"direction": "debit", "premium": "1.00", "quantity": "not-a-number", "legs": []}}`))

	h, _ := store.Get(domain.VariantDefault, "AAPL")
	assert.Equal(t, 0, h.OpenContracts)
	assert.False(t, coord.Tracker().InFlight(domain.VariantDefault, "AAPL"))

	notes := sink.all()
	require.Len(t, notes, 1)
	assert.Equal(t, domain.NotifyFailure, notes[0].Kind)
}

func TestReconciler_SweepTimesOutExpired(t *testing.T) {
	store := seededStore(t, domain.Holding{Symbol: "AAPL"})
	rec, coord, sink := reconcilerFixture(t, store)
	coord.Tracker().Begin(domain.VariantDefault, []string{"AAPL"}, 10*time.Millisecond)

	rec.sweep(context.Background(), time.Now().Add(time.Second))

	assert.False(t, coord.Tracker().InFlight(domain.VariantDefault, "AAPL"))
	notes := sink.all()
	require.Len(t, notes, 1)
	assert.Equal(t, domain.NotifyFailure, notes[0].Kind)
	assert.Equal(t, "AAPL", notes[0].Symbol)
	assert.Equal(t, domain.ErrConfirmTimeout.Error(), notes[0].Reason)
}

func TestReconciler_RunStopsOnChannelClose(t *testing.T) {
	store := seededStore(t, domain.Holding{Symbol: "AAPL"})
	rec, _, _ := reconcilerFixture(t, store, "AAPL")

	messages := make(chan json.RawMessage, 1)
	messages <- json.RawMessage(`{"AAPL": {"direction": "debit", "premium": "2.00", "quantity": "1", "legs": []}}`)
	close(messages)

	err := rec.Run(context.Background(), messages)
	require.NoError(t, err)

	h, _ := store.Get(domain.VariantDefault, "AAPL")
	assert.Equal(t, 1, h.OpenContracts)
}
