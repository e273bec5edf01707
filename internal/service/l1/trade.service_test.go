package l1_service

import (
	"agentbacktest/internal/domain"
	"math/rand"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
)

var decimalComparer = cmp.Comparer(func(d1, d2 decimal.Decimal) bool {
	return d1.Equal(d2)
})

func d(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func newTestLedger(t *testing.T, cash string) *domain.Ledger {
	ledger, err := domain.NewLedger(d(cash), []string{"AAPL", "MSFT"})
	require.NoError(t, err)
	return ledger
}

func newTestTradeService(t *testing.T, marginRatio string) TradeService {
	svc, err := NewTradeService(d(marginRatio))
	require.NoError(t, err)
	return svc
}

func execute(t *testing.T, svc TradeService, ledger *domain.Ledger, action domain.Action, quantity float64, price string) int64 {
	executed, err := svc.Execute(ledger, ExecuteTradeInput{
		Symbol:   "AAPL",
		Action:   action,
		Quantity: quantity,
		Price:    d(price),
	})
	require.NoError(t, err)
	require.NoError(t, ledger.Validate())
	return executed
}

func TestNewTradeService(t *testing.T) {
	_, err := NewTradeService(d("-0.1"))
	require.Error(t, err)

	_, err = NewTradeService(d("1.5"))
	require.Error(t, err)

	_, err = NewTradeService(d("1"))
	require.NoError(t, err)
}

func TestTradeService_Buy(t *testing.T) {
	t.Run("full fill with weighted cost basis", func(t *testing.T) {
		ledger := newTestLedger(t, "10000")
		svc := newTestTradeService(t, "0")

		require.Equal(t, int64(10), execute(t, svc, ledger, domain.ActionBuy, 10, "100"))
		require.Equal(t, int64(20), execute(t, svc, ledger, domain.ActionBuy, 20, "130"))

		require.Equal(
			t,
			"",
			cmp.Diff(
				domain.Position{
					LongShares:    30,
					LongCostBasis: d("120"),
				},
				ledger.Position("AAPL"),
				decimalComparer,
			),
		)
		require.True(t, ledger.Cash().Equal(d("6400")), ledger.Cash().String())
	})

	t.Run("cost exactly equal to cash fills in full", func(t *testing.T) {
		ledger := newTestLedger(t, "5000")
		svc := newTestTradeService(t, "0")

		require.Equal(t, int64(50), execute(t, svc, ledger, domain.ActionBuy, 50, "100"))
		require.True(t, ledger.Cash().IsZero())
	})

	t.Run("clamps to affordable quantity", func(t *testing.T) {
		ledger := newTestLedger(t, "1000")
		svc := newTestTradeService(t, "0")

		require.Equal(t, int64(3), execute(t, svc, ledger, domain.ActionBuy, 10, "300"))
		require.True(t, ledger.Cash().Equal(d("100")))
		require.True(t, ledger.Position("AAPL").LongCostBasis.Equal(d("300")))
	})

	t.Run("quantities past int64 range clamp to cash", func(t *testing.T) {
		for _, quantity := range []float64{1e18, 1e19, 1e300} {
			ledger := newTestLedger(t, "10000")
			svc := newTestTradeService(t, "0.5")

			require.Equal(t, int64(100), execute(t, svc, ledger, domain.ActionBuy, quantity, "100"), quantity)
			require.True(t, ledger.Cash().IsZero())
		}
	})

	t.Run("clamp to zero leaves ledger untouched", func(t *testing.T) {
		ledger := newTestLedger(t, "50")
		svc := newTestTradeService(t, "0")
		before := ledger.Snapshot()

		require.Equal(t, int64(0), execute(t, svc, ledger, domain.ActionBuy, 1, "100"))
		require.Equal(t, "", cmp.Diff(before, ledger.Snapshot(), decimalComparer))
	})

	t.Run("fractional and non-positive quantities", func(t *testing.T) {
		ledger := newTestLedger(t, "1000")
		svc := newTestTradeService(t, "0")

		require.Equal(t, int64(2), execute(t, svc, ledger, domain.ActionBuy, 2.9, "10"))
		require.Equal(t, int64(0), execute(t, svc, ledger, domain.ActionBuy, 0.5, "10"))
		require.Equal(t, int64(0), execute(t, svc, ledger, domain.ActionBuy, 0, "10"))
		require.Equal(t, int64(0), execute(t, svc, ledger, domain.ActionBuy, -5, "10"))
		require.True(t, ledger.Cash().Equal(d("980")))
	})
}

func TestTradeService_Sell(t *testing.T) {
	t.Run("realizes gain and clamps to held shares", func(t *testing.T) {
		ledger := newTestLedger(t, "10000")
		svc := newTestTradeService(t, "0")

		execute(t, svc, ledger, domain.ActionBuy, 10, "100")
		require.Equal(t, int64(10), execute(t, svc, ledger, domain.ActionSell, 25, "120"))

		require.Equal(t, "", cmp.Diff(domain.Position{}, ledger.Position("AAPL"), decimalComparer))
		require.True(t, ledger.RealizedGain("AAPL").Long.Equal(d("200")))
		require.True(t, ledger.Cash().Equal(d("10200")))
	})

	t.Run("selling with no shares is a no-op", func(t *testing.T) {
		ledger := newTestLedger(t, "10000")
		svc := newTestTradeService(t, "0.5")

		require.Equal(t, int64(0), execute(t, svc, ledger, domain.ActionSell, 10, "100"))
		require.Equal(t, int64(0), ledger.Position("AAPL").ShortShares)
	})

	t.Run("partial sell keeps basis", func(t *testing.T) {
		ledger := newTestLedger(t, "10000")
		svc := newTestTradeService(t, "0")

		execute(t, svc, ledger, domain.ActionBuy, 10, "100")
		execute(t, svc, ledger, domain.ActionSell, 4, "90")

		position := ledger.Position("AAPL")
		require.Equal(t, int64(6), position.LongShares)
		require.True(t, position.LongCostBasis.Equal(d("100")))
		require.True(t, ledger.RealizedGain("AAPL").Long.Equal(d("-40")))
	})
}

func TestTradeService_ShortAndCover(t *testing.T) {
	t.Run("short then cover releases margin and realizes gain", func(t *testing.T) {
		ledger := newTestLedger(t, "100000")
		svc := newTestTradeService(t, "0.5")

		require.Equal(t, int64(100), execute(t, svc, ledger, domain.ActionShort, 100, "50"))
		require.True(t, ledger.Cash().Equal(d("102500")), ledger.Cash().String())
		require.True(t, ledger.MarginUsed().Equal(d("2500")))
		require.Equal(
			t,
			"",
			cmp.Diff(
				domain.Position{
					ShortShares:     100,
					ShortCostBasis:  d("50"),
					ShortMarginUsed: d("2500"),
				},
				ledger.Position("AAPL"),
				decimalComparer,
			),
		)

		require.Equal(t, int64(100), execute(t, svc, ledger, domain.ActionCover, 100, "40"))
		require.True(t, ledger.MarginUsed().IsZero())
		require.True(t, ledger.RealizedGain("AAPL").Short.Equal(d("1000")))
		require.True(t, ledger.Cash().Equal(d("101000")), ledger.Cash().String())
		require.Equal(t, "", cmp.Diff(domain.Position{}, ledger.Position("AAPL"), decimalComparer))
	})

	t.Run("short clamps to available margin", func(t *testing.T) {
		ledger := newTestLedger(t, "1000")
		svc := newTestTradeService(t, "0.5")

		require.Equal(t, int64(40), execute(t, svc, ledger, domain.ActionShort, 100, "50"))
		require.True(t, ledger.MarginUsed().Equal(d("1000")))
		// +2000 proceeds, -1000 posted
		require.True(t, ledger.Cash().Equal(d("2000")))
	})

	t.Run("quantities past int64 range clamp to margin", func(t *testing.T) {
		for _, quantity := range []float64{1e18, 1e19, 1e300} {
			ledger := newTestLedger(t, "10000")
			svc := newTestTradeService(t, "0.5")

			require.Equal(t, int64(200), execute(t, svc, ledger, domain.ActionShort, quantity, "100"), quantity)
			require.True(t, ledger.MarginUsed().Equal(d("10000")))
		}
	})

	t.Run("zero margin ratio never clamps", func(t *testing.T) {
		ledger := newTestLedger(t, "0")
		svc := newTestTradeService(t, "0")

		require.Equal(t, int64(1000), execute(t, svc, ledger, domain.ActionShort, 1000, "50"))
		require.True(t, ledger.Cash().Equal(d("50000")))
		require.True(t, ledger.MarginUsed().IsZero())
	})

	t.Run("partial cover releases proportional margin", func(t *testing.T) {
		ledger := newTestLedger(t, "10000")
		svc := newTestTradeService(t, "0.5")

		execute(t, svc, ledger, domain.ActionShort, 30, "100")
		require.Equal(t, int64(10), execute(t, svc, ledger, domain.ActionCover, 10, "100"))

		position := ledger.Position("AAPL")
		require.Equal(t, int64(20), position.ShortShares)
		require.True(t, position.ShortMarginUsed.Equal(d("1000")))
		require.True(t, ledger.MarginUsed().Equal(d("1000")))
		require.True(t, position.ShortCostBasis.Equal(d("100")))
	})

	t.Run("uneven partial covers keep margin totals exact", func(t *testing.T) {
		ledger := newTestLedger(t, "10000")
		svc := newTestTradeService(t, "0.5")

		execute(t, svc, ledger, domain.ActionShort, 3, "10")
		execute(t, svc, ledger, domain.ActionCover, 1, "10")
		execute(t, svc, ledger, domain.ActionCover, 1, "10")
		execute(t, svc, ledger, domain.ActionCover, 1, "10")

		require.True(t, ledger.MarginUsed().IsZero())
		require.Equal(t, "", cmp.Diff(domain.Position{}, ledger.Position("AAPL"), decimalComparer))
	})

	t.Run("cover clamps when cash can't pay for it", func(t *testing.T) {
		ledger := newTestLedger(t, "0")
		svc := newTestTradeService(t, "0")

		execute(t, svc, ledger, domain.ActionShort, 10, "10")
		require.True(t, ledger.Cash().Equal(d("100")))

		require.Equal(t, int64(4), execute(t, svc, ledger, domain.ActionCover, 10, "25"))
		require.Equal(t, int64(6), ledger.Position("AAPL").ShortShares)
		require.True(t, ledger.Cash().Equal(d("0")))
		require.True(t, ledger.RealizedGain("AAPL").Short.Equal(d("-60")))
	})

	t.Run("weighted short basis", func(t *testing.T) {
		ledger := newTestLedger(t, "100000")
		svc := newTestTradeService(t, "0.5")

		execute(t, svc, ledger, domain.ActionShort, 10, "50")
		execute(t, svc, ledger, domain.ActionShort, 30, "70")
		require.True(t, ledger.Position("AAPL").ShortCostBasis.Equal(d("65")))
	})
}

func TestTradeService_NoOps(t *testing.T) {
	ledger := newTestLedger(t, "1000")
	svc := newTestTradeService(t, "0.5")
	before := ledger.Snapshot()

	require.Equal(t, int64(0), execute(t, svc, ledger, domain.ActionHold, 10, "10"))
	require.Equal(t, int64(0), execute(t, svc, ledger, domain.Action("yolo"), 10, "10"))
	require.Equal(t, int64(0), execute(t, svc, ledger, domain.ActionBuy, 10, "0"))
	require.Equal(t, int64(0), execute(t, svc, ledger, domain.ActionCover, 10, "10"))

	require.Equal(t, "", cmp.Diff(before, ledger.Snapshot(), decimalComparer))
}

func TestTradeService_RoundTrip(t *testing.T) {
	t.Run("from flat", func(t *testing.T) {
		ledger := newTestLedger(t, "10000")
		svc := newTestTradeService(t, "0")
		before := ledger.Position("AAPL")

		execute(t, svc, ledger, domain.ActionBuy, 15, "42.5")
		execute(t, svc, ledger, domain.ActionSell, 15, "42.5")

		require.Equal(t, "", cmp.Diff(before, ledger.Position("AAPL"), decimalComparer))
		require.True(t, ledger.Cash().Equal(d("10000")))
	})

	t.Run("on top of a lot at the same price", func(t *testing.T) {
		ledger := newTestLedger(t, "10000")
		svc := newTestTradeService(t, "0")
		execute(t, svc, ledger, domain.ActionBuy, 7, "33")
		before := ledger.Position("AAPL")

		execute(t, svc, ledger, domain.ActionBuy, 11, "33")
		execute(t, svc, ledger, domain.ActionSell, 11, "33")

		require.Equal(t, "", cmp.Diff(before, ledger.Position("AAPL"), decimalComparer))
	})
}

// expectedCashDelta recomputes the cash effect of an executed trade from
// the pre-trade position
func expectedCashDelta(action domain.Action, before domain.Position, executed int64, price, marginRatio decimal.Decimal) decimal.Decimal {
	q := decimal.NewFromInt(executed)
	notional := price.Mul(q)
	switch action {
	case domain.ActionBuy:
		return notional.Neg()
	case domain.ActionSell:
		return notional
	case domain.ActionShort:
		return notional.Sub(notional.Mul(marginRatio))
	case domain.ActionCover:
		if executed == 0 {
			return decimal.Zero
		}
		released := before.ShortMarginUsed
		if executed < before.ShortShares {
			released = before.ShortMarginUsed.Mul(q).Div(decimal.NewFromInt(before.ShortShares))
		}
		return released.Sub(notional)
	}
	return decimal.Zero
}

func TestTradeService_RandomizedInvariants(t *testing.T) {
	actions := []domain.Action{
		domain.ActionBuy,
		domain.ActionSell,
		domain.ActionShort,
		domain.ActionCover,
		domain.ActionHold,
	}
	symbols := []string{"AAPL", "MSFT"}
	rng := rand.New(rand.NewSource(42))

	for _, ratio := range []string{"0", "0.25", "0.5", "1"} {
		marginRatio := d(ratio)
		svc := newTestTradeService(t, ratio)
		ledger, err := domain.NewLedger(d("50000"), symbols)
		require.NoError(t, err)

		for i := 0; i < 2000; i++ {
			action := actions[rng.Intn(len(actions))]
			symbol := symbols[rng.Intn(len(symbols))]
			quantity := rng.Float64() * 300
			price := decimal.New(int64(rng.Intn(20000)+1), -2)

			before := ledger.Position(symbol)
			cashBefore := ledger.Cash()

			executed, err := svc.Execute(ledger, ExecuteTradeInput{
				Symbol:   symbol,
				Action:   action,
				Quantity: quantity,
				Price:    price,
			})
			require.NoError(t, err)
			require.GreaterOrEqual(t, executed, int64(0))
			require.LessOrEqual(t, executed, int64(quantity))
			require.NoError(t, ledger.Validate())

			delta := expectedCashDelta(action, before, executed, price, marginRatio)
			require.True(
				t,
				ledger.Cash().Equal(cashBefore.Add(delta)),
				"%s %d %s @ %s: cash %s != %s + %s", action, executed, symbol, price, ledger.Cash(), cashBefore, delta,
			)

			marginSum := decimal.Zero
			for _, s := range symbols {
				marginSum = marginSum.Add(ledger.Position(s).ShortMarginUsed)
			}
			require.True(t, marginSum.Equal(ledger.MarginUsed()))
		}
	}
}
