// Package domain defines the core types shared across the tradedesk
// coordinator: portfolio holdings, order batches, execution reports, and the
// ports through which the coordinator talks to its collaborators.
package domain

// Variant selects one of the parallel strategy books. Each variant has its
// own holdings, its own broker session, and its own in-flight accounting.
type Variant int

const (
	VariantDefault   Variant = 0
	VariantAlternate Variant = 1
)

// Variants lists every known book, in wire order.
var Variants = []Variant{VariantDefault, VariantAlternate}

// Label returns the display name used in logs and notifications.
func (v Variant) Label() string {
	if v == VariantAlternate {
		return "VARIANT"
	}
	return "DEFAULT"
}

// Valid reports whether v is a known book.
func (v Variant) Valid() bool {
	return v == VariantDefault || v == VariantAlternate
}

// Holding is one tradable position row: a single symbol within a single
// variant. Trade-related fields (OpenContracts, Expiration, Strike, Chance)
// are mutated only by confirmed fills; the remaining fields are market
// metrics refreshed by snapshot loads, never by the trade flow.
type Holding struct {
	Symbol        string  `json:"symbol"`
	OpenContracts int     `json:"open_contracts"` // signed contract count; 0 means flat
	Expiration    string  `json:"expiration"`     // option expiration date, "2006-01-02", empty when flat
	Strike        float64 `json:"strike"`         // strike price of the open contract, 0 when flat
	Chance        float64 `json:"chance"`         // chance-of-profit estimate, set on confirmed fills

	// Read-only market fields.
	Price         float64 `json:"price"`
	Quantity      float64 `json:"quantity"` // underlying share count
	PercentChange float64 `json:"percent_change"`
	Percentage    float64 `json:"percentage"` // share of portfolio value
}

// Direction reports the action a toggle on this holding implies: true when
// the symbol has open contracts (the next action closes/sells them), false
// when it is flat (the next action opens a new position).
func (h Holding) Direction() bool {
	return h.OpenContracts != 0
}

// Fill is the trade-field delta a confirmed execution applies to a holding.
// Contracts is the signed open_contracts adjustment (already negative for
// credit fills).
type Fill struct {
	Contracts  int
	Expiration string
	Strike     float64
	Chance     float64
}
