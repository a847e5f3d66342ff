package portfolio

import (
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/forcepush/tradedesk/internal/domain"
)

func testLogger() *slog.Logger {
	return slog.New(slog.DiscardHandler)
}

func testStore() *Store {
	return NewStore(testLogger())
}

func TestStore_SeedReplacesBook(t *testing.T) {
	store := testStore()

	store.Seed(domain.VariantDefault, []domain.Holding{
		{Symbol: "AAPL", OpenContracts: 2},
		{Symbol: "MSFT"},
	})
	store.Seed(domain.VariantDefault, []domain.Holding{
		{Symbol: "AAPL", OpenContracts: 5},
	})

	h, ok := store.Get(domain.VariantDefault, "AAPL")
	require.True(t, ok)
	assert.Equal(t, 5, h.OpenContracts)

	// MSFT was not in the second snapshot, so it is gone.
	_, ok = store.Get(domain.VariantDefault, "MSFT")
	assert.False(t, ok)
}

func TestStore_ApplyMergesTradeFieldsOnly(t *testing.T) {
	store := testStore()
	store.Seed(domain.VariantDefault, []domain.Holding{{
		Symbol:        "AAPL",
		OpenContracts: -2,
		Price:         231.4,
		Quantity:      10,
		PercentChange: 1.2,
		Percentage:    8.5,
	}})

	ok := store.Apply(domain.VariantDefault, "AAPL", domain.Fill{
		Contracts:  3,
		Expiration: "2026-10-17",
		Strike:     240,
		Chance:     domain.FillChance,
	})
	require.True(t, ok)

	h, _ := store.Get(domain.VariantDefault, "AAPL")
	assert.Equal(t, 1, h.OpenContracts) // adjusted, not overwritten
	assert.Equal(t, "2026-10-17", h.Expiration)
	assert.Equal(t, 240.0, h.Strike)
	assert.Equal(t, domain.FillChance, h.Chance)

	// Quote fields survive untouched.
	assert.Equal(t, 231.4, h.Price)
	assert.Equal(t, 10.0, h.Quantity)
	assert.Equal(t, 1.2, h.PercentChange)
	assert.Equal(t, 8.5, h.Percentage)
}

func TestStore_ApplyUnknownRowDropped(t *testing.T) {
	store := testStore()
	store.Seed(domain.VariantDefault, []domain.Holding{{Symbol: "AAPL"}})

	assert.False(t, store.Apply(domain.VariantDefault, "GME", domain.Fill{Contracts: 1}))
	assert.False(t, store.Apply(domain.VariantAlternate, "AAPL", domain.Fill{Contracts: 1}))

	// The seeded row is unaffected.
	h, _ := store.Get(domain.VariantDefault, "AAPL")
	assert.Equal(t, 0, h.OpenContracts)
}

func TestStore_BooksIndependent(t *testing.T) {
	store := testStore()
	store.Seed(domain.VariantDefault, []domain.Holding{{Symbol: "AAPL"}})
	store.Seed(domain.VariantAlternate, []domain.Holding{{Symbol: "AAPL"}})

	store.Apply(domain.VariantDefault, "AAPL", domain.Fill{Contracts: 2})

	h, _ := store.Get(domain.VariantDefault, "AAPL")
	assert.Equal(t, 2, h.OpenContracts)
	h, _ = store.Get(domain.VariantAlternate, "AAPL")
	assert.Equal(t, 0, h.OpenContracts)
}

func TestStore_ListSorted(t *testing.T) {
	store := testStore()
	store.Seed(domain.VariantDefault, []domain.Holding{
		{Symbol: "TSLA"}, {Symbol: "AAPL"}, {Symbol: "MSFT"},
	})

	rows := store.List(domain.VariantDefault)
	require.Len(t, rows, 3)
	assert.Equal(t, "AAPL", rows[0].Symbol)
	assert.Equal(t, "MSFT", rows[1].Symbol)
	assert.Equal(t, "TSLA", rows[2].Symbol)

	assert.Empty(t, store.List(domain.VariantAlternate))
}
