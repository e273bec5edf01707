package domain

import (
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"time"

	"github.com/shopspring/decimal"
)

// Ratio is a float that may legitimately be +Inf (no losing days, no short
// exposure). encoding/json rejects infinities so it has its own encoding.
type Ratio float64

func InfiniteRatio() Ratio {
	return Ratio(math.Inf(1))
}

func (r Ratio) IsInf() bool {
	return math.IsInf(float64(r), 1)
}

func (r Ratio) Float64() float64 {
	return float64(r)
}

func (r Ratio) String() string {
	if r.IsInf() {
		return "inf"
	}
	return strconv.FormatFloat(float64(r), 'f', 2, 64)
}

func (r Ratio) MarshalJSON() ([]byte, error) {
	if r.IsInf() {
		return []byte(`"Infinity"`), nil
	}
	if math.IsNaN(float64(r)) || math.IsInf(float64(r), -1) {
		return nil, fmt.Errorf("cannot marshal ratio %v", float64(r))
	}
	return json.Marshal(float64(r))
}

func (r *Ratio) UnmarshalJSON(b []byte) error {
	if string(b) == `"Infinity"` {
		*r = InfiniteRatio()
		return nil
	}
	var f float64
	if err := json.Unmarshal(b, &f); err != nil {
		return err
	}
	*r = Ratio(f)
	return nil
}

type DailySnapshot struct {
	Date           time.Time       `json:"date"`
	PortfolioValue decimal.Decimal `json:"portfolioValue"`
	Cash           decimal.Decimal `json:"cash"`
	LongExposure   decimal.Decimal `json:"longExposure"`
	ShortExposure  decimal.Decimal `json:"shortExposure"`
	GrossExposure  decimal.Decimal `json:"grossExposure"`
	NetExposure    decimal.Decimal `json:"netExposure"`
	LongShortRatio Ratio           `json:"longShortRatio"`
}

type TradeRecord struct {
	Date             time.Time       `json:"date"`
	Symbol           string          `json:"symbol"`
	Action           Action          `json:"action"`
	ExecutedQuantity int64           `json:"executedQuantity"`
	Price            decimal.Decimal `json:"price"`
	NetSharesHeld    int64           `json:"netSharesHeld"`
	NetPositionValue decimal.Decimal `json:"netPositionValue"`
	Signals          SignalCounts    `json:"signals"`
}

// PerformanceMetrics are the rolling statistics over the snapshot history.
// Nil means there wasn't enough history to compute the value.
type PerformanceMetrics struct {
	SharpeRatio          *Ratio   `json:"sharpeRatio"`
	SortinoRatio         *Ratio   `json:"sortinoRatio"`
	MaxDrawdown          *float64 `json:"maxDrawdown"`
	WinRate              *float64 `json:"winRate"`
	WinLossRatio         *Ratio   `json:"winLossRatio"`
	MaxConsecutiveWins   *int     `json:"maxConsecutiveWins"`
	MaxConsecutiveLosses *int     `json:"maxConsecutiveLosses"`
}

func (m PerformanceMetrics) Defined() bool {
	return m.SharpeRatio != nil
}

type PerformanceSummary struct {
	TotalReturn        float64         `json:"totalReturn"`
	TotalRealizedGains decimal.Decimal `json:"totalRealizedGains"`
	PerformanceMetrics
}

type BenchmarkPoint struct {
	Date          time.Time `json:"date"`
	Value         float64   `json:"value"`
	PercentChange float64   `json:"percentChange"`
}
