package executor

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/forcepush/tradedesk/internal/domain"
)

func TestTracker_BeginExcludesInFlight(t *testing.T) {
	tr := NewTracker()

	acquired := tr.Begin(domain.VariantDefault, []string{"TSLA", "AAPL"}, time.Minute)
	assert.Equal(t, []string{"AAPL", "TSLA"}, acquired)

	// A second batch only acquires the symbols not already pending.
	acquired = tr.Begin(domain.VariantDefault, []string{"AAPL", "MSFT"}, time.Minute)
	assert.Equal(t, []string{"MSFT"}, acquired)
	assert.Equal(t, 3, tr.Count())
}

func TestTracker_VariantsIndependent(t *testing.T) {
	tr := NewTracker()

	tr.Begin(domain.VariantDefault, []string{"AAPL"}, time.Minute)

	// The same symbol can be in flight for the other book.
	acquired := tr.Begin(domain.VariantAlternate, []string{"AAPL"}, time.Minute)
	assert.Equal(t, []string{"AAPL"}, acquired)

	assert.True(t, tr.InFlight(domain.VariantDefault, "AAPL"))
	assert.True(t, tr.InFlight(domain.VariantAlternate, "AAPL"))

	tr.Complete(domain.VariantDefault, "AAPL")
	assert.False(t, tr.InFlight(domain.VariantDefault, "AAPL"))
	assert.True(t, tr.InFlight(domain.VariantAlternate, "AAPL"))
}

func TestTracker_CompleteIdempotent(t *testing.T) {
	tr := NewTracker()
	tr.Begin(domain.VariantDefault, []string{"AAPL"}, time.Minute)

	assert.True(t, tr.Complete(domain.VariantDefault, "AAPL"))
	assert.False(t, tr.Complete(domain.VariantDefault, "AAPL"))
	assert.False(t, tr.Complete(domain.VariantAlternate, "AAPL"))
	assert.Equal(t, 0, tr.Count())
}

func TestTracker_ClaimResolvesEarliestAcquisition(t *testing.T) {
	tr := NewTracker()

	tr.Begin(domain.VariantAlternate, []string{"AAPL"}, time.Minute)
	tr.Begin(domain.VariantDefault, []string{"AAPL"}, 2*time.Minute)

	// The alternate book acquired first, so its entry is claimed first.
	variant, ok := tr.Claim("AAPL")
	assert.True(t, ok)
	assert.Equal(t, domain.VariantAlternate, variant)

	variant, ok = tr.Claim("AAPL")
	assert.True(t, ok)
	assert.Equal(t, domain.VariantDefault, variant)

	_, ok = tr.Claim("AAPL")
	assert.False(t, ok)
}

func TestTracker_Expired(t *testing.T) {
	tr := NewTracker()

	tr.Begin(domain.VariantDefault, []string{"TSLA", "AAPL"}, 10*time.Millisecond)
	tr.Begin(domain.VariantAlternate, []string{"MSFT"}, time.Hour)

	expired := tr.Expired(time.Now().Add(time.Second))
	assert.Equal(t, map[domain.Variant][]string{
		domain.VariantDefault: {"AAPL", "TSLA"},
	}, expired)

	// Expired entries are gone; the long-lived one stays.
	assert.False(t, tr.InFlight(domain.VariantDefault, "AAPL"))
	assert.True(t, tr.InFlight(domain.VariantAlternate, "MSFT"))
	assert.Equal(t, 1, tr.Count())
}
