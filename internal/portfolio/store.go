// Package portfolio owns the authoritative in-memory table of holdings per
// variant and the snapshot client that seeds it. All trade-flow mutation
// funnels through Store.Apply; nothing else writes trade fields.
package portfolio

import (
	"log/slog"
	"sort"
	"sync"

	"github.com/forcepush/tradedesk/internal/domain"
)

// Store holds one row per (variant, symbol). Rows are created by Seed and
// merged by Apply; they are never deleted for the lifetime of the session.
// Safe for concurrent use.
type Store struct {
	mu     sync.RWMutex
	books  map[domain.Variant]map[string]domain.Holding
	logger *slog.Logger
}

// NewStore creates an empty store.
func NewStore(logger *slog.Logger) *Store {
	return &Store{
		books:  make(map[domain.Variant]map[string]domain.Holding),
		logger: logger.With(slog.String("component", "portfolio_store")),
	}
}

// Seed replaces the given variant's book with the snapshot rows. Rows for
// symbols already present keep nothing: a seed is a fresh session baseline.
func (s *Store) Seed(variant domain.Variant, holdings []domain.Holding) {
	s.mu.Lock()
	defer s.mu.Unlock()

	book := make(map[string]domain.Holding, len(holdings))
	for _, h := range holdings {
		book[h.Symbol] = h
	}
	s.books[variant] = book

	s.logger.Info("book seeded",
		slog.String("variant", variant.Label()),
		slog.Int("holdings", len(holdings)),
	)
}

// Apply merges a confirmed fill into the (variant, symbol) row. Only trade
// fields change: open_contracts is adjusted by the fill's signed contract
// count, never overwritten, and expiration/strike/chance are replaced.
// A fill for an unknown row is logged and dropped; every tradable symbol is
// pre-seeded, so this indicates a stale or foreign confirmation, not a
// client bug worth crashing over. Returns false when the row was missing.
func (s *Store) Apply(variant domain.Variant, symbol string, fill domain.Fill) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	book, ok := s.books[variant]
	if !ok {
		s.logWarn(variant, symbol, "fill for unseeded variant")
		return false
	}
	h, ok := book[symbol]
	if !ok {
		s.logWarn(variant, symbol, "fill for unknown holding")
		return false
	}

	h.OpenContracts += fill.Contracts
	h.Expiration = fill.Expiration
	h.Strike = fill.Strike
	h.Chance = fill.Chance
	book[symbol] = h
	return true
}

// Get returns the row for (variant, symbol).
func (s *Store) Get(variant domain.Variant, symbol string) (domain.Holding, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	h, ok := s.books[variant][symbol]
	return h, ok
}

// List returns the variant's rows sorted by symbol.
func (s *Store) List(variant domain.Variant) []domain.Holding {
	s.mu.RLock()
	defer s.mu.RUnlock()

	book := s.books[variant]
	out := make([]domain.Holding, 0, len(book))
	for _, h := range book {
		out = append(out, h)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Symbol < out[j].Symbol })
	return out
}

func (s *Store) logWarn(variant domain.Variant, symbol, msg string) {
	s.logger.Warn(msg,
		slog.String("variant", variant.Label()),
		slog.String("symbol", symbol),
	)
}
