package cmd

import (
	"agentbacktest/internal/domain"
	"agentbacktest/internal/util"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

const testPricesCsv = `date,symbol,price
2023-12-29,AAPL,98
2024-01-02,AAPL,100
2024-01-03,AAPL,102
2024-01-04,AAPL,101
2024-01-05,AAPL,105
`

func writeTestPrices(t *testing.T) string {
	path := filepath.Join(t.TempDir(), "prices.csv")
	require.NoError(t, os.WriteFile(path, []byte(testPricesCsv), 0o644))
	return path
}

func newRulesConfig(pricesPath string) util.BacktestConfig {
	return util.BacktestConfig{
		Tickers:        []string{"aapl"},
		Start:          "2024-01-02",
		End:            "2024-01-05",
		InitialCapital: "10000",
		MarginRatio:    "0.5",
		Prices: util.PriceSourceConfig{
			Source: util.PriceSourceCsv,
			Path:   pricesPath,
		},
		Agent: util.AgentConfig{
			Kind: util.AgentKindRules,
			Rules: []domain.Rule{
				{Action: domain.ActionBuy, When: "longShares < 1", Quantity: "10"},
			},
		},
	}
}

func TestRunBacktest(t *testing.T) {
	t.Run("rule agent over csv prices", func(t *testing.T) {
		cfg := newRulesConfig(writeTestPrices(t))

		result, err := RunBacktest(context.Background(), cfg, RunDependencies{})
		require.NoError(t, err)

		// the seed shares its date with the first trading day
		require.Len(t, result.Snapshots, 5)
		require.Equal(t, result.Snapshots[0].Date, result.Snapshots[1].Date)
		require.Equal(t, "10050", result.Snapshots[4].PortfolioValue.String())

		require.Len(t, result.Trades, 4)
		require.Equal(t, domain.ActionBuy, result.Trades[0].Action)
		require.Equal(t, int64(10), result.Trades[0].ExecutedQuantity)
		require.Equal(t, domain.SignalCounts{Bullish: 1}, result.Trades[0].Signals)
		require.Equal(t, domain.ActionHold, result.Trades[1].Action)
		require.Equal(t, domain.SignalCounts{Neutral: 1}, result.Trades[1].Signals)

		require.Equal(t, 0.5, result.Summary.TotalReturn)
		require.Empty(t, result.SkippedDays)
	})

	t.Run("persist without db", func(t *testing.T) {
		cfg := newRulesConfig(writeTestPrices(t))
		cfg.Persist = true

		_, err := RunBacktest(context.Background(), cfg, RunDependencies{})
		require.ErrorContains(t, err, "needs a database")
	})

	t.Run("invalid config", func(t *testing.T) {
		cfg := newRulesConfig(writeTestPrices(t))
		cfg.Start = "2024-02-01"

		_, err := RunBacktest(context.Background(), cfg, RunDependencies{})
		require.Error(t, err)
	})

	t.Run("missing price file", func(t *testing.T) {
		cfg := newRulesConfig(filepath.Join(t.TempDir(), "nope.csv"))

		_, err := RunBacktest(context.Background(), cfg, RunDependencies{})
		require.Error(t, err)
	})
}

func TestWriteTradesCsv(t *testing.T) {
	cfg := newRulesConfig(writeTestPrices(t))
	result, err := RunBacktest(context.Background(), cfg, RunDependencies{})
	require.NoError(t, err)

	rows := newTradeCsvRows(result)
	require.Len(t, rows, 4)
	require.Equal(t, tradeCsvRow{
		Date:           "2024-01-02",
		Ticker:         "AAPL",
		Action:         "buy",
		Quantity:       10,
		Price:          "100.00",
		Shares:         10,
		PositionValue:  "1000.00",
		Bullish:        1,
		PortfolioValue: "10000.00",
	}, rows[0])
	require.Equal(t, "10050.00", rows[3].PortfolioValue)

	path := filepath.Join(t.TempDir(), "trades.csv")
	require.NoError(t, WriteTradesCsv(path, result))

	b, err := os.ReadFile(path)
	require.NoError(t, err)
	lines := strings.Split(strings.TrimSpace(string(b)), "\n")
	require.Len(t, lines, 5)
	require.Equal(t, "date,ticker,action,quantity,price,shares,position_value,bullish,bearish,neutral,portfolio_value", lines[0])
}

func TestNewDecisionRepository(t *testing.T) {
	t.Run("gpt needs a key", func(t *testing.T) {
		_, err := NewDecisionRepository(util.AgentConfig{Kind: util.AgentKindGpt}, nil, nil)
		require.Error(t, err)
	})

	t.Run("gpt with key", func(t *testing.T) {
		repo, err := NewDecisionRepository(util.AgentConfig{Kind: util.AgentKindGpt}, &util.Secrets{ChatGPTApiKey: "sk-test"}, nil)
		require.NoError(t, err)
		require.NotNil(t, repo)
	})

	t.Run("unknown kind", func(t *testing.T) {
		_, err := NewDecisionRepository(util.AgentConfig{Kind: "oracle"}, nil, nil)
		require.Error(t, err)
	})
}

func TestNewPriceRepository(t *testing.T) {
	_, err := NewPriceRepository(util.PriceSourceConfig{Source: util.PriceSourcePostgres}, nil)
	require.Error(t, err)

	repo, err := NewPriceRepository(util.PriceSourceConfig{Source: util.PriceSourceYahoo}, nil)
	require.NoError(t, err)
	require.NotNil(t, repo)
}

func TestLoadRunSecrets(t *testing.T) {
	secrets, err := loadRunSecrets(newRulesConfig("prices.csv"))
	require.NoError(t, err)
	require.Nil(t, secrets)

	t.Setenv("SECRETS_FILE", filepath.Join(t.TempDir(), "missing.json"))
	t.Setenv("GPT_API_KEY", "sk-env")
	cfg := newRulesConfig("prices.csv")
	cfg.Agent = util.AgentConfig{Kind: util.AgentKindGpt}

	secrets, err = loadRunSecrets(cfg)
	require.NoError(t, err)
	require.Equal(t, "sk-env", secrets.ChatGPTApiKey)
}
