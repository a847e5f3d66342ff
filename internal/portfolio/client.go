package portfolio

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/forcepush/tradedesk/internal/domain"
)

// Client fetches portfolio snapshots from the trade API. When a cache is
// configured, successful payloads are written through to it and a failed
// fetch falls back to the cached payload, so a flaky API at session start
// does not leave a book unseeded.
type Client struct {
	baseURL    string
	httpClient *http.Client
	tokens     domain.TokenProvider
	cache      domain.SnapshotCache
	logger     *slog.Logger
}

// NewClient creates a snapshot client for the given API root, e.g.
// "https://api.dev.forcepu.sh". cache may be nil.
func NewClient(baseURL string, tokens domain.TokenProvider, cache domain.SnapshotCache, logger *slog.Logger) *Client {
	return &Client{
		baseURL: baseURL,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
		tokens: tokens,
		cache:  cache,
		logger: logger.With(slog.String("component", "portfolio_client")),
	}
}

// Snapshot returns the variant's holding rows. It satisfies
// domain.SnapshotSource.
func (c *Client) Snapshot(ctx context.Context, variant domain.Variant) ([]domain.Holding, error) {
	raw, err := c.fetch(ctx, variant)
	if err != nil {
		if c.cache == nil {
			return nil, err
		}
		c.logger.Warn("snapshot fetch failed, trying cache",
			slog.String("variant", variant.Label()),
			slog.String("error", err.Error()),
		)
		cached, cacheErr := c.cache.GetSnapshot(ctx, variant)
		if cacheErr != nil {
			return nil, fmt.Errorf("portfolio: snapshot %s: %w", variant.Label(), err)
		}
		raw = cached
	} else if c.cache != nil {
		if err := c.cache.SetSnapshot(ctx, variant, raw); err != nil {
			c.logger.Warn("snapshot cache write failed", slog.String("error", err.Error()))
		}
	}

	return decodeSnapshot(raw)
}

func (c *Client) fetch(ctx context.Context, variant domain.Variant) (json.RawMessage, error) {
	token, err := c.tokens.Token(ctx, variant)
	if err != nil {
		return nil, fmt.Errorf("portfolio: token: %w", err)
	}

	params := url.Values{}
	params.Set("variant", strconv.FormatBool(variant == domain.VariantAlternate))
	endpoint := c.baseURL + "/trade?" + params.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("portfolio: create request: %w", err)
	}
	req.Header.Set("Authorization", token)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("portfolio: get snapshot: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("portfolio: read snapshot: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("portfolio: snapshot status %d: %s", resp.StatusCode, string(body))
	}
	return body, nil
}

// apiHolding mirrors the snapshot wire rows. The API emits market decimals
// as strings and omits option fields for flat symbols.
type apiHolding struct {
	Symbol        string   `json:"symbol"`
	OpenContracts int      `json:"open_contracts"`
	Expiration    string   `json:"expiration"`
	Strike        float64  `json:"strike"`
	Chance        *float64 `json:"chance"`
	Price         string   `json:"price"`
	Quantity      string   `json:"quantity"`
	PercentChange string   `json:"percent_change"`
	Percentage    string   `json:"percentage"`
}

func decodeSnapshot(raw json.RawMessage) ([]domain.Holding, error) {
	var rows []apiHolding
	if err := json.Unmarshal(raw, &rows); err != nil {
		return nil, fmt.Errorf("portfolio: decode snapshot: %w", err)
	}

	holdings := make([]domain.Holding, 0, len(rows))
	for _, row := range rows {
		h := domain.Holding{
			Symbol:        row.Symbol,
			OpenContracts: row.OpenContracts,
			Expiration:    row.Expiration,
			Strike:        row.Strike,
			Price:         parseDecimal(row.Price),
			Quantity:      parseDecimal(row.Quantity),
			PercentChange: parseDecimal(row.PercentChange),
			Percentage:    parseDecimal(row.Percentage),
		}
		if row.Chance != nil {
			h.Chance = *row.Chance
		}
		holdings = append(holdings, h)
	}
	return holdings, nil
}

// parseDecimal tolerates empty and malformed strings; market metrics are
// cosmetic and must not block seeding.
func parseDecimal(s string) float64 {
	if s == "" {
		return 0
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0
	}
	return f
}
