package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBatchType(t *testing.T) {
	assert.Equal(t, BatchTypeSell, BatchType(true))
	assert.Equal(t, BatchTypeBuy, BatchType(false))
}

func TestExecutionReport_Amount(t *testing.T) {
	tests := []struct {
		name   string
		report ExecutionReport
		want   float64
		ok     bool
	}{
		{
			name:   "credit pays the account",
			report: ExecutionReport{Direction: DirectionCredit, Premium: "0.45", Quantity: "4"},
			want:   1.8,
			ok:     true,
		},
		{
			name:   "debit costs the account",
			report: ExecutionReport{Direction: DirectionDebit, Premium: "1.25", Quantity: "2"},
			want:   -2.5,
			ok:     true,
		},
		{
			name:   "unparseable premium",
			report: ExecutionReport{Direction: DirectionCredit, Premium: "n/a", Quantity: "1"},
		},
		{
			name:   "unparseable quantity",
			report: ExecutionReport{Direction: DirectionCredit, Premium: "1.00", Quantity: ""},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := tt.report.Amount()
			if !tt.ok {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.InDelta(t, tt.want, got, 1e-9)
		})
	}
}

func TestExecutionReport_Fill(t *testing.T) {
	report := ExecutionReport{
		Direction: DirectionCredit,
		Premium:   "0.50",
		Quantity:  "3",
		Legs: []ReportLeg{
			{ExpirationDate: "2026-09-19", StrikePrice: "185.5"},
			{ExpirationDate: "2026-09-19", StrikePrice: "190"},
		},
	}

	fill, err := report.Fill()
	require.NoError(t, err)

	// Credit fills reduce open contracts; the first leg defines the row.
	assert.Equal(t, -3, fill.Contracts)
	assert.Equal(t, "2026-09-19", fill.Expiration)
	assert.Equal(t, 185.5, fill.Strike)
	assert.Equal(t, FillChance, fill.Chance)
}

func TestExecutionReport_FillDebit(t *testing.T) {
	report := ExecutionReport{Direction: DirectionDebit, Premium: "1.10", Quantity: "2"}

	fill, err := report.Fill()
	require.NoError(t, err)
	assert.Equal(t, 2, fill.Contracts)
	assert.Empty(t, fill.Expiration)
	assert.Zero(t, fill.Strike)
}

func TestExecutionReport_FillErrors(t *testing.T) {
	_, err := ExecutionReport{Error: "rejected"}.Fill()
	assert.Error(t, err)

	_, err = ExecutionReport{Direction: DirectionDebit, Premium: "1.00", Quantity: "x"}.Fill()
	assert.Error(t, err)

	_, err = ExecutionReport{
		Direction: DirectionDebit,
		Premium:   "1.00",
		Quantity:  "1",
		Legs:      []ReportLeg{{ExpirationDate: "2026-09-19", StrikePrice: "bad"}},
	}.Fill()
	assert.Error(t, err)
}

func TestHolding_Direction(t *testing.T) {
	assert.False(t, Holding{Symbol: "AAPL"}.Direction())
	assert.True(t, Holding{Symbol: "AAPL", OpenContracts: 2}.Direction())
	assert.True(t, Holding{Symbol: "AAPL", OpenContracts: -2}.Direction())
}
