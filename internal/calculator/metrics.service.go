package calculator

import (
	"agentbacktest/internal/domain"
	"math"

	"github.com/montanaflynn/stats"
	"github.com/shopspring/decimal"
)

const (
	TradingDaysPerYear = 252
	AnnualRiskFreeRate = 0.0434
	// metrics stay undefined until the history has this many snapshots
	MinSnapshotsForMetrics = 3

	stdevEpsilon = 1e-12
)

func DailyRiskFreeRate() float64 {
	return AnnualRiskFreeRate / TradingDaysPerYear
}

// CalculateMetrics recomputes every statistic over the full snapshot
// history. With fewer than MinSnapshotsForMetrics snapshots all fields are
// nil.
func CalculateMetrics(snapshots []domain.DailySnapshot) domain.PerformanceMetrics {
	if len(snapshots) < MinSnapshotsForMetrics {
		return domain.PerformanceMetrics{}
	}

	values := PortfolioValues(snapshots)
	returns := DailyReturns(values)
	excess := ExcessReturns(returns, DailyRiskFreeRate())

	sharpe := SharpeRatio(excess)
	sortino := SortinoRatio(excess)
	drawdown := MaxDrawdown(values)
	winRate := WinRate(returns)
	winLoss := WinLossRatio(returns)
	wins, losses := MaxStreaks(returns)

	return domain.PerformanceMetrics{
		SharpeRatio:          &sharpe,
		SortinoRatio:         &sortino,
		MaxDrawdown:          &drawdown,
		WinRate:              &winRate,
		WinLossRatio:         &winLoss,
		MaxConsecutiveWins:   &wins,
		MaxConsecutiveLosses: &losses,
	}
}

func PortfolioValues(snapshots []domain.DailySnapshot) []float64 {
	out := []float64{}
	for _, s := range snapshots {
		out = append(out, s.PortfolioValue.InexactFloat64())
	}
	return out
}

// DailyReturns is value_t/value_{t-1} - 1. A step off a zero value has no
// defined return and is dropped.
func DailyReturns(values []float64) []float64 {
	out := []float64{}
	for i := 1; i < len(values); i++ {
		if values[i-1] == 0 {
			continue
		}
		out = append(out, values[i]/values[i-1]-1)
	}
	return out
}

func ExcessReturns(returns []float64, rf float64) []float64 {
	out := []float64{}
	for _, r := range returns {
		out = append(out, r-rf)
	}
	return out
}

func mean(xs []float64) float64 {
	if len(xs) == 0 {
		return 0
	}
	m, err := stats.Mean(xs)
	if err != nil {
		return 0
	}
	return m
}

// sampleStdev is 0 when it isn't defined (fewer than two points)
func sampleStdev(xs []float64) float64 {
	if len(xs) < 2 {
		return 0
	}
	s, err := stats.StandardDeviationSample(xs)
	if err != nil || math.IsNaN(s) {
		return 0
	}
	return s
}

func annualize(m, stdev float64) float64 {
	return math.Sqrt(TradingDaysPerYear) * m / stdev
}

func SharpeRatio(excess []float64) domain.Ratio {
	stdev := sampleStdev(excess)
	if stdev < stdevEpsilon {
		return 0
	}
	return domain.Ratio(annualize(mean(excess), stdev))
}

// SortinoRatio uses the sample stdev of the negative excess returns. When
// that isn't usable (fewer than two losing days or no spread) the ratio is
// +Inf for a positive mean and 0 otherwise.
func SortinoRatio(excess []float64) domain.Ratio {
	m := mean(excess)
	downside := []float64{}
	for _, r := range excess {
		if r < 0 {
			downside = append(downside, r)
		}
	}

	stdev := sampleStdev(downside)
	if len(downside) < 2 || stdev < stdevEpsilon {
		if m > 0 {
			return domain.InfiniteRatio()
		}
		return 0
	}
	return domain.Ratio(annualize(m, stdev))
}

// MaxDrawdown is the worst peak-to-trough move as a percentage of the peak.
// It is never positive.
func MaxDrawdown(values []float64) float64 {
	worst := 0.0
	peak := math.Inf(-1)
	for _, v := range values {
		if v > peak {
			peak = v
		}
		if peak <= 0 {
			continue
		}
		if dd := (v - peak) / peak * 100; dd < worst {
			worst = dd
		}
	}
	return worst
}

func WinRate(returns []float64) float64 {
	if len(returns) == 0 {
		return 0
	}
	wins := 0
	for _, r := range returns {
		if r > 0 {
			wins++
		}
	}
	return 100 * float64(wins) / float64(len(returns))
}

func WinLossRatio(returns []float64) domain.Ratio {
	wins := []float64{}
	losses := []float64{}
	for _, r := range returns {
		if r > 0 {
			wins = append(wins, r)
		} else if r < 0 {
			losses = append(losses, r)
		}
	}
	if len(losses) == 0 {
		if len(wins) > 0 {
			return domain.InfiniteRatio()
		}
		return 0
	}
	if len(wins) == 0 {
		return 0
	}
	return domain.Ratio(mean(wins) / math.Abs(mean(losses)))
}

// MaxStreaks returns the longest runs of strictly positive and strictly
// negative returns. A flat day ends both.
func MaxStreaks(returns []float64) (int, int) {
	maxWins, maxLosses := 0, 0
	wins, losses := 0, 0
	for _, r := range returns {
		switch {
		case r > 0:
			wins++
			losses = 0
		case r < 0:
			losses++
			wins = 0
		default:
			wins, losses = 0, 0
		}
		if wins > maxWins {
			maxWins = wins
		}
		if losses > maxLosses {
			maxLosses = losses
		}
	}
	return maxWins, maxLosses
}

func round2(f float64) float64 {
	if math.IsInf(f, 0) || math.IsNaN(f) {
		return f
	}
	return math.Round(f*100) / 100
}

func roundRatio(r *domain.Ratio) *domain.Ratio {
	if r == nil {
		return nil
	}
	out := domain.Ratio(round2(r.Float64()))
	return &out
}

func roundFloat(f *float64) *float64 {
	if f == nil {
		return nil
	}
	out := round2(*f)
	return &out
}

// Summarize builds the end of run record. Total return is measured on the
// final portfolio value, which already carries realized gains through cash.
func Summarize(snapshots []domain.DailySnapshot, initialCapital, totalRealizedGains decimal.Decimal) domain.PerformanceSummary {
	totalReturn := 0.0
	if len(snapshots) > 0 && initialCapital.IsPositive() {
		final := snapshots[len(snapshots)-1].PortfolioValue
		totalReturn = final.Div(initialCapital).Sub(decimal.NewFromInt(1)).Mul(decimal.NewFromInt(100)).InexactFloat64()
	}

	m := CalculateMetrics(snapshots)
	return domain.PerformanceSummary{
		TotalReturn:        round2(totalReturn),
		TotalRealizedGains: totalRealizedGains.Round(2),
		PerformanceMetrics: domain.PerformanceMetrics{
			SharpeRatio:          roundRatio(m.SharpeRatio),
			SortinoRatio:         roundRatio(m.SortinoRatio),
			MaxDrawdown:          roundFloat(m.MaxDrawdown),
			WinRate:              roundFloat(m.WinRate),
			WinLossRatio:         roundRatio(m.WinLossRatio),
			MaxConsecutiveWins:   m.MaxConsecutiveWins,
			MaxConsecutiveLosses: m.MaxConsecutiveLosses,
		},
	}
}
