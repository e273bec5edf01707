package l2_service

import (
	"agentbacktest/internal/domain"
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
)

type staticHistory map[string][]float64

func (s staticHistory) History(symbol string, date time.Time, n int) []decimal.Decimal {
	closes := s[symbol]
	if n > len(closes) {
		n = len(closes)
	}
	out := []decimal.Decimal{}
	for _, c := range closes[len(closes)-n:] {
		out = append(out, decimal.NewFromFloat(c))
	}
	return out
}

func newRuleRequest(price float64, position domain.Position) domain.DecisionRequest {
	return domain.DecisionRequest{
		Symbols: []string{"AAPL"},
		Date:    time.Date(2024, 1, 10, 0, 0, 0, 0, time.UTC),
		Prices: map[string]decimal.Decimal{
			"AAPL": decimal.NewFromFloat(price),
		},
		Ledger: domain.LedgerSnapshot{
			Cash:       decimal.NewFromInt(1000),
			MarginUsed: decimal.Zero,
			Positions: map[string]domain.Position{
				"AAPL": position,
			},
		},
	}
}

func TestRuleAgent(t *testing.T) {
	history := staticHistory{
		"AAPL": {100, 102, 104, 106, 98},
	}
	agent, err := NewRuleAgent([]domain.Rule{
		{Action: domain.ActionSell, When: "longShares > 0 && price > longCostBasis * 1.1", Quantity: "longShares"},
		{Action: domain.ActionBuy, When: "price < sma(5)", Quantity: "floor(min(cash / price, 5))"},
		{Action: domain.ActionShort, When: "price > priceDaysAgo(1) && shortShares < 1", Quantity: "2"},
	}, history)
	require.NoError(t, err)

	t.Run("buys below the moving average", func(t *testing.T) {
		// sma(5) = 102
		out, err := agent.GetDecisions(context.Background(), newRuleRequest(98, domain.Position{}))
		require.NoError(t, err)
		require.Equal(t, domain.Decision{Action: domain.ActionBuy, Quantity: 5}, out.DecisionFor("AAPL"))
		require.Equal(t, domain.SignalCounts{Bullish: 1}, out.SignalCounts("AAPL"))
	})

	t.Run("first matching rule wins", func(t *testing.T) {
		out, err := agent.GetDecisions(context.Background(), newRuleRequest(98, domain.Position{
			LongShares:    3,
			LongCostBasis: decimal.NewFromInt(80),
		}))
		require.NoError(t, err)
		require.Equal(t, domain.Decision{Action: domain.ActionSell, Quantity: 3}, out.DecisionFor("AAPL"))
		require.Equal(t, domain.SignalCounts{Bearish: 1}, out.SignalCounts("AAPL"))
	})

	t.Run("no match holds", func(t *testing.T) {
		out, err := agent.GetDecisions(context.Background(), newRuleRequest(103, domain.Position{ShortShares: 1}))
		require.NoError(t, err)
		require.Equal(t, domain.HoldDecision(), out.DecisionFor("AAPL"))
		require.Equal(t, domain.SignalCounts{Neutral: 1}, out.SignalCounts("AAPL"))
	})

	t.Run("missing history skips the rule", func(t *testing.T) {
		short, err := NewRuleAgent([]domain.Rule{
			{Action: domain.ActionBuy, When: "price < sma(50)", Quantity: "1"},
		}, history)
		require.NoError(t, err)

		out, err := short.GetDecisions(context.Background(), newRuleRequest(98, domain.Position{}))
		require.NoError(t, err)
		require.Equal(t, domain.HoldDecision(), out.DecisionFor("AAPL"))
	})

	t.Run("missing price holds", func(t *testing.T) {
		req := newRuleRequest(98, domain.Position{})
		req.Prices = map[string]decimal.Decimal{}
		out, err := agent.GetDecisions(context.Background(), req)
		require.NoError(t, err)
		require.Equal(t, domain.HoldDecision(), out.DecisionFor("AAPL"))
	})
}

func TestNewRuleAgent_Invalid(t *testing.T) {
	_, err := NewRuleAgent([]domain.Rule{{Action: "yolo", When: "true"}}, nil)
	require.Error(t, err)

	_, err = NewRuleAgent([]domain.Rule{{Action: domain.ActionBuy}}, nil)
	require.Error(t, err)
}
