package domain

import (
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
)

var decimalComparer = cmp.Comparer(func(a, b decimal.Decimal) bool {
	return a.Equal(b)
})

func d(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func TestLedger_Apply(t *testing.T) {
	t.Run("tracks positions and realized gains", func(t *testing.T) {
		ledger, err := NewLedger(d("1000"), []string{"AAPL", "TSLA"})
		require.NoError(t, err)

		err = ledger.Apply(LedgerEntry{
			Symbol:    "AAPL",
			Action:    ActionBuy,
			Quantity:  5,
			Price:     d("100"),
			Position:  Position{LongShares: 5, LongCostBasis: d("100")},
			CashDelta: d("-500"),
		})
		require.NoError(t, err)

		err = ledger.Apply(LedgerEntry{
			Symbol:       "AAPL",
			Action:       ActionSell,
			Quantity:     5,
			Price:        d("110"),
			Position:     Position{},
			CashDelta:    d("550"),
			RealizedGain: d("50"),
		})
		require.NoError(t, err)

		err = ledger.Apply(LedgerEntry{
			Symbol:      "TSLA",
			Action:      ActionShort,
			Quantity:    2,
			Price:       d("50"),
			Position:    Position{ShortShares: 2, ShortCostBasis: d("50"), ShortMarginUsed: d("50")},
			CashDelta:   d("50"),
			MarginDelta: d("50"),
		})
		require.NoError(t, err)

		expected := LedgerSnapshot{
			Cash:       d("1100"),
			MarginUsed: d("50"),
			Positions: map[string]Position{
				"AAPL": {},
				"TSLA": {ShortShares: 2, ShortCostBasis: d("50"), ShortMarginUsed: d("50")},
			},
			RealizedGains: map[string]RealizedGain{
				"AAPL": {Long: d("50")},
				"TSLA": {},
			},
		}
		require.Equal(t, "", cmp.Diff(expected, ledger.Snapshot(), decimalComparer))
		require.True(t, ledger.TotalRealizedGains().Equal(d("50")))
		require.Equal(t, []string{"AAPL", "TSLA"}, ledger.Symbols())
	})

	t.Run("rolls back an entry that breaks an invariant", func(t *testing.T) {
		ledger, err := NewLedger(d("100"), []string{"AAPL"})
		require.NoError(t, err)

		err = ledger.Apply(LedgerEntry{
			Symbol:    "AAPL",
			Action:    ActionBuy,
			Quantity:  2,
			Price:     d("100"),
			Position:  Position{LongShares: 2, LongCostBasis: d("100")},
			CashDelta: d("-200"),
		})
		require.True(t, errors.Is(err, ErrLedgerInvariant))
		require.True(t, ledger.Cash().Equal(d("100")))
		require.Equal(t, Position{}, ledger.Position("AAPL"))
	})

	t.Run("margin must match positions", func(t *testing.T) {
		ledger, err := NewLedger(d("100"), nil)
		require.NoError(t, err)

		err = ledger.Apply(LedgerEntry{
			Symbol:      "TSLA",
			Action:      ActionShort,
			Quantity:    1,
			Price:       d("10"),
			Position:    Position{ShortShares: 1, ShortCostBasis: d("10"), ShortMarginUsed: d("5")},
			CashDelta:   d("5"),
			MarginDelta: d("4"),
		})
		require.ErrorIs(t, err, ErrLedgerInvariant)
		require.True(t, ledger.MarginUsed().IsZero())
	})

	t.Run("flat side keeps no basis", func(t *testing.T) {
		ledger, err := NewLedger(d("100"), []string{"AAPL"})
		require.NoError(t, err)

		err = ledger.Apply(LedgerEntry{
			Symbol:   "AAPL",
			Action:   ActionSell,
			Position: Position{LongCostBasis: d("3")},
		})
		require.ErrorIs(t, err, ErrLedgerInvariant)
	})
}

func TestNewLedger(t *testing.T) {
	_, err := NewLedger(d("-1"), nil)
	require.Error(t, err)

	ledger, err := NewLedger(d("10"), []string{"AAPL", "AAPL"})
	require.NoError(t, err)
	require.Equal(t, []string{"AAPL"}, ledger.Symbols())
	require.Equal(t, Position{}, ledger.Position("MSFT"))
	require.True(t, ledger.Position("AAPL").IsFlat())
}
