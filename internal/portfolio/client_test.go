package portfolio

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/forcepush/tradedesk/internal/domain"
)

type staticTokens struct{ token string }

func (s staticTokens) Token(context.Context, domain.Variant) (string, error) {
	return s.token, nil
}

type memorySnapshotCache struct {
	mu   sync.Mutex
	data map[domain.Variant]json.RawMessage
}

func newMemorySnapshotCache() *memorySnapshotCache {
	return &memorySnapshotCache{data: make(map[domain.Variant]json.RawMessage)}
}

func (m *memorySnapshotCache) SetSnapshot(_ context.Context, variant domain.Variant, raw json.RawMessage) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.data[variant] = raw
	return nil
}

func (m *memorySnapshotCache) GetSnapshot(_ context.Context, variant domain.Variant) (json.RawMessage, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	raw, ok := m.data[variant]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return raw, nil
}

const snapshotBody = `[
	{"symbol": "AAPL", "open_contracts": -2, "expiration": "2026-09-19", "strike": 232.5,
	 "chance": 0.91, "price": "231.40", "quantity": "10", "percent_change": "1.2", "percentage": "8.5"},
	{"symbol": "MSFT", "open_contracts": 0, "price": "512.30", "quantity": "", "percent_change": "n/a"}
]`

func TestClient_Snapshot(t *testing.T) {
	var gotAuth, gotVariant string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		gotVariant = r.URL.Query().Get("variant")
		w.Write([]byte(snapshotBody))
	}))
	defer srv.Close()

	client := NewClient(srv.URL, staticTokens{token: "tok-abc"}, nil, testLogger())

	holdings, err := client.Snapshot(context.Background(), domain.VariantAlternate)
	require.NoError(t, err)
	assert.Equal(t, "tok-abc", gotAuth)
	assert.Equal(t, "true", gotVariant)

	require.Len(t, holdings, 2)
	assert.Equal(t, domain.Holding{
		Symbol:        "AAPL",
		OpenContracts: -2,
		Expiration:    "2026-09-19",
		Strike:        232.5,
		Chance:        0.91,
		Price:         231.40,
		Quantity:      10,
		PercentChange: 1.2,
		Percentage:    8.5,
	}, holdings[0])

	// Missing option fields and unparseable decimals decode to zero values.
	assert.Equal(t, "MSFT", holdings[1].Symbol)
	assert.Zero(t, holdings[1].Chance)
	assert.Equal(t, 512.30, holdings[1].Price)
	assert.Zero(t, holdings[1].Quantity)
	assert.Zero(t, holdings[1].PercentChange)
}

func TestClient_SnapshotHTTPError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, "unauthorized", http.StatusUnauthorized)
	}))
	defer srv.Close()

	client := NewClient(srv.URL, staticTokens{token: "tok"}, nil, testLogger())

	_, err := client.Snapshot(context.Background(), domain.VariantDefault)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "401")
}

func TestClient_SnapshotCacheFallback(t *testing.T) {
	cache := newMemorySnapshotCache()

	healthy := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Write([]byte(snapshotBody))
	}))
	client := NewClient(healthy.URL, staticTokens{token: "tok"}, cache, testLogger())

	// A successful fetch writes through to the cache.
	_, err := client.Snapshot(context.Background(), domain.VariantDefault)
	require.NoError(t, err)
	healthy.Close()

	// With the API down, the cached payload still seeds the book.
	broken := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, "bad gateway", http.StatusBadGateway)
	}))
	defer broken.Close()
	client = NewClient(broken.URL, staticTokens{token: "tok"}, cache, testLogger())

	holdings, err := client.Snapshot(context.Background(), domain.VariantDefault)
	require.NoError(t, err)
	assert.Len(t, holdings, 2)

	// The alternate variant was never cached; the fetch error surfaces.
	_, err = client.Snapshot(context.Background(), domain.VariantAlternate)
	assert.Error(t, err)
}
