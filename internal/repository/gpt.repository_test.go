package repository

import (
	"agentbacktest/internal/domain"
	"encoding/json"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
)

func TestExtractJson(t *testing.T) {
	t.Run("fenced response", func(t *testing.T) {
		raw, err := extractJson("Here you go:\n```json\n{\"decisions\": {\"AAPL\": {\"action\": \"buy\", \"quantity\": 3}}}\n```\nGood luck")
		require.NoError(t, err)

		out := domain.ParseAgentOutput(raw)
		require.Equal(t, domain.Decision{Action: domain.ActionBuy, Quantity: 3}, out.DecisionFor("AAPL"))
	})

	t.Run("no object", func(t *testing.T) {
		_, err := extractJson("I cannot help with that")
		require.Error(t, err)
	})
}

func TestBuildUserPrompt(t *testing.T) {
	prompt, err := buildUserPrompt(domain.DecisionRequest{
		Symbols:       []string{"AAPL"},
		LookbackStart: date("2023-12-03"),
		Date:          date("2024-01-02"),
		Prices: map[string]decimal.Decimal{
			"AAPL": decimal.NewFromFloat(185.6423),
		},
		Ledger: domain.LedgerSnapshot{
			Cash:       decimal.NewFromInt(1000),
			MarginUsed: decimal.Zero,
			Positions: map[string]domain.Position{
				"AAPL": {LongShares: 2, LongCostBasis: decimal.NewFromInt(180)},
			},
		},
	})
	require.NoError(t, err)

	got := map[string]any{}
	require.NoError(t, json.Unmarshal([]byte(prompt), &got))
	require.Equal(t, "2024-01-02", got["date"])
	require.Equal(t, "2023-12-03", got["lookbackStart"])
	require.Equal(t, "1000.00", got["cash"])
	require.Equal(t, map[string]any{"AAPL": "185.64"}, got["prices"])
}
