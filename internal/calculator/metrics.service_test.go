package calculator

import (
	"agentbacktest/internal/domain"
	"math"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
)

func snapshotsFromValues(values ...float64) []domain.DailySnapshot {
	out := []domain.DailySnapshot{}
	start := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	for i, v := range values {
		out = append(out, domain.DailySnapshot{
			Date:           start.AddDate(0, 0, i),
			PortfolioValue: decimal.NewFromFloat(v),
		})
	}
	return out
}

func TestCalculateMetrics_InsufficientHistory(t *testing.T) {
	require.Equal(t, domain.PerformanceMetrics{}, CalculateMetrics(nil))
	require.Equal(t, domain.PerformanceMetrics{}, CalculateMetrics(snapshotsFromValues(100, 101)))
	require.False(t, CalculateMetrics(snapshotsFromValues(100, 101)).Defined())
	require.True(t, CalculateMetrics(snapshotsFromValues(100, 101, 102)).Defined())
}

func TestMaxDrawdown(t *testing.T) {
	dd := MaxDrawdown([]float64{100000, 110000, 90000, 95000})
	require.InDelta(t, -18.1818, dd, 1e-4)
	require.Equal(t, -18.18, round2(dd))

	require.Equal(t, 0.0, MaxDrawdown([]float64{1, 2, 3}))
	require.Equal(t, 0.0, MaxDrawdown(nil))
}

func TestSharpeAndSortino_ZeroVariance(t *testing.T) {
	m := CalculateMetrics(snapshotsFromValues(100000, 100000, 100000, 100000))
	require.Equal(t, domain.Ratio(0), *m.SharpeRatio)
	require.Equal(t, domain.Ratio(0), *m.SortinoRatio)
	require.False(t, math.IsNaN(m.SharpeRatio.Float64()))
	require.Equal(t, 0.0, *m.WinRate)
	require.Equal(t, domain.Ratio(0), *m.WinLossRatio)
	require.Equal(t, 0, *m.MaxConsecutiveWins)
	require.Equal(t, 0, *m.MaxConsecutiveLosses)
}

func TestSharpeRatio(t *testing.T) {
	excess := []float64{0.01, -0.005, 0.02, 0.0}
	// mean 0.00625, squared deviations sum to 0.00036875
	expected := math.Sqrt(252) * 0.00625 / math.Sqrt(0.00036875/3)
	require.InDelta(t, expected, SharpeRatio(excess).Float64(), 1e-9)
}

func TestSortinoRatio(t *testing.T) {
	t.Run("no losing days, positive mean", func(t *testing.T) {
		require.True(t, SortinoRatio([]float64{0.01, 0.02}).IsInf())
	})

	t.Run("no losing days, zero mean", func(t *testing.T) {
		require.Equal(t, domain.Ratio(0), SortinoRatio([]float64{0, 0}))
	})

	t.Run("one losing day is not enough spread", func(t *testing.T) {
		require.True(t, SortinoRatio([]float64{0.03, -0.01, 0.02}).IsInf())
		require.Equal(t, domain.Ratio(0), SortinoRatio([]float64{0.01, -0.03}))
	})

	t.Run("downside deviation", func(t *testing.T) {
		excess := []float64{0.02, -0.01, 0.03, -0.03}
		// mean 0.0025, downside sample stdev sqrt(0.0002) = 0.0141421356
		expected := math.Sqrt(252) * 0.0025 / math.Sqrt(0.0002)
		require.InDelta(t, expected, SortinoRatio(excess).Float64(), 1e-9)
	})
}

func TestWinLossRatio(t *testing.T) {
	require.True(t, WinLossRatio([]float64{0.02, 0.04}).IsInf())
	require.Equal(t, domain.Ratio(0), WinLossRatio([]float64{0, 0}))
	require.Equal(t, domain.Ratio(0), WinLossRatio([]float64{-0.01}))
	require.InDelta(t, 1.5, WinLossRatio([]float64{0.02, 0.04, -0.02}).Float64(), 1e-12)
}

func TestWinRate(t *testing.T) {
	require.Equal(t, 50.0, WinRate([]float64{0.01, -0.01, 0.02, 0}))
	require.Equal(t, 0.0, WinRate(nil))
}

func TestMaxStreaks(t *testing.T) {
	wins, losses := MaxStreaks([]float64{0.01, 0.02, 0, 0.01, -0.01, -0.02, -0.01, 0, -0.01, 0.03, 0.01, 0.02})
	require.Equal(t, 3, wins)
	require.Equal(t, 3, losses)

	// a flat day breaks the run without starting one
	wins, losses = MaxStreaks([]float64{0.01, 0, 0.01})
	require.Equal(t, 1, wins)
	require.Equal(t, 0, losses)
}

func TestDailyReturns(t *testing.T) {
	returns := DailyReturns([]float64{100, 110, 0, 50, 55})
	// the step off zero is dropped
	require.Len(t, returns, 3)
	require.InDelta(t, 0.1, returns[0], 1e-12)
	require.InDelta(t, -1.0, returns[1], 1e-12)
	require.InDelta(t, 0.1, returns[2], 1e-12)
}

func TestSummarize(t *testing.T) {
	snapshots := snapshotsFromValues(100000, 110000, 90000, 95000)
	summary := Summarize(snapshots, decimal.NewFromInt(100000), decimal.RequireFromString("1234.567"))

	require.Equal(t, -5.0, summary.TotalReturn)
	require.True(t, summary.TotalRealizedGains.Equal(decimal.RequireFromString("1234.57")))
	require.Equal(t, -18.18, *summary.MaxDrawdown)
	require.InDelta(t, 66.67, *summary.WinRate, 1e-9)
	require.Equal(t, 1, *summary.MaxConsecutiveWins)
	require.Equal(t, 1, *summary.MaxConsecutiveLosses)

	empty := Summarize(nil, decimal.NewFromInt(100000), decimal.Zero)
	require.Equal(t, 0.0, empty.TotalReturn)
	require.Nil(t, empty.SharpeRatio)
}
