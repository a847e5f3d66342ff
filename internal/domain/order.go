package domain

import (
	"fmt"
	"strconv"
)

// Batch type values on the gateway wire. SELL closes open contracts, BUY
// opens new ones.
const (
	BatchTypeBuy  = "BUY"
	BatchTypeSell = "SELL"
)

// Execution report direction values. A credit fill pays premium to the
// account and reduces open_contracts; a debit fill is the reverse.
const (
	DirectionCredit = "credit"
	DirectionDebit  = "debit"
)

// FillChance is the chance-of-profit the book records for a fresh fill. The
// upstream contract selector targets contracts at this chance, so the value
// is pinned rather than re-derived client-side.
const FillChance = 0.88

// OrderBatch is the single outbound message for one execute action. All
// symbols in a batch share one direction.
type OrderBatch struct {
	Token   string   `json:"token"`
	Type    string   `json:"type"`
	Symbols []string `json:"symbols"`
	Variant int      `json:"variant"`
}

// BatchType maps a queue direction onto the wire type: closing positions
// sells, opening positions buys.
func BatchType(closing bool) string {
	if closing {
		return BatchTypeSell
	}
	return BatchTypeBuy
}

// ReportLeg is one option leg of an execution report. The gateway sends
// decimals as strings.
type ReportLeg struct {
	ExpirationDate string `json:"expiration_date"`
	StrikePrice    string `json:"strike_price"`
}

// ExecutionReport is the per-symbol outcome inside an inbound gateway
// message. A non-empty Error marks the symbol's order as failed; the
// remaining fields are then meaningless.
type ExecutionReport struct {
	Error     string      `json:"error,omitempty"`
	Direction string      `json:"direction,omitempty"`
	Premium   string      `json:"premium,omitempty"`
	Quantity  string      `json:"quantity,omitempty"`
	Legs      []ReportLeg `json:"legs,omitempty"`
}

// Failed reports whether the symbol's order was rejected.
func (r ExecutionReport) Failed() bool {
	return r.Error != ""
}

// Amount returns the realised credit or debit of a confirmed fill:
// premium x quantity, positive for credit (money in), negative for debit.
func (r ExecutionReport) Amount() (float64, error) {
	premium, err := strconv.ParseFloat(r.Premium, 64)
	if err != nil {
		return 0, fmt.Errorf("domain: parse premium %q: %w", r.Premium, err)
	}
	qty, err := strconv.ParseFloat(r.Quantity, 64)
	if err != nil {
		return 0, fmt.Errorf("domain: parse quantity %q: %w", r.Quantity, err)
	}
	amount := premium * qty
	if r.Direction == DirectionDebit {
		amount = -amount
	}
	return amount, nil
}

// Fill converts a confirmed report into the holding delta to merge:
// open_contracts moves by quantity, negatively for credit fills, and the
// expiration/strike come from the first leg.
func (r ExecutionReport) Fill() (Fill, error) {
	if r.Failed() {
		return Fill{}, fmt.Errorf("domain: fill from failed report: %s", r.Error)
	}
	qty, err := strconv.ParseFloat(r.Quantity, 64)
	if err != nil {
		return Fill{}, fmt.Errorf("domain: parse quantity %q: %w", r.Quantity, err)
	}
	contracts := int(qty)
	if r.Direction == DirectionCredit {
		contracts = -contracts
	}

	fill := Fill{
		Contracts: contracts,
		Chance:    FillChance,
	}
	if len(r.Legs) > 0 {
		fill.Expiration = r.Legs[0].ExpirationDate
		strike, err := strconv.ParseFloat(r.Legs[0].StrikePrice, 64)
		if err != nil {
			return Fill{}, fmt.Errorf("domain: parse strike %q: %w", r.Legs[0].StrikePrice, err)
		}
		fill.Strike = strike
	}
	return fill, nil
}
