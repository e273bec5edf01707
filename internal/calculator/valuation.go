package calculator

import (
	"agentbacktest/internal/domain"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

// short exposure at or below this counts as no short book
var ratioEpsilon = decimal.NewFromFloat(1e-9)

type Exposure struct {
	Long           decimal.Decimal
	Short          decimal.Decimal
	Gross          decimal.Decimal
	Net            decimal.Decimal
	LongShortRatio domain.Ratio
}

func priceFor(prices map[string]decimal.Decimal, symbol string) (decimal.Decimal, error) {
	p, ok := prices[symbol]
	if !ok {
		return decimal.Zero, fmt.Errorf("no price for held symbol %s", symbol)
	}
	return p, nil
}

// PortfolioValue marks longs to market and counts shorts by their
// unrealized P&L; the short proceeds are already in cash.
func PortfolioValue(ledger *domain.Ledger, prices map[string]decimal.Decimal) (decimal.Decimal, error) {
	value := ledger.Cash()
	for _, symbol := range ledger.Symbols() {
		position := ledger.Position(symbol)
		if position.IsFlat() {
			continue
		}
		price, err := priceFor(prices, symbol)
		if err != nil {
			return decimal.Zero, err
		}
		value = value.
			Add(price.Mul(decimal.NewFromInt(position.LongShares))).
			Add(position.ShortCostBasis.Sub(price).Mul(decimal.NewFromInt(position.ShortShares)))
	}
	return value, nil
}

// Exposures values both books at market, unlike PortfolioValue
func Exposures(ledger *domain.Ledger, prices map[string]decimal.Decimal) (*Exposure, error) {
	long := decimal.Zero
	short := decimal.Zero
	for _, symbol := range ledger.Symbols() {
		position := ledger.Position(symbol)
		if position.IsFlat() {
			continue
		}
		price, err := priceFor(prices, symbol)
		if err != nil {
			return nil, err
		}
		long = long.Add(price.Mul(decimal.NewFromInt(position.LongShares)))
		short = short.Add(price.Mul(decimal.NewFromInt(position.ShortShares)))
	}

	ratio := domain.InfiniteRatio()
	if short.GreaterThan(ratioEpsilon) {
		ratio = domain.Ratio(long.Div(short).InexactFloat64())
	}

	return &Exposure{
		Long:           long,
		Short:          short,
		Gross:          long.Add(short),
		Net:            long.Sub(short),
		LongShortRatio: ratio,
	}, nil
}

// NewDailySnapshot values the ledger at the given prices
func NewDailySnapshot(ledger *domain.Ledger, prices map[string]decimal.Decimal, date time.Time) (*domain.DailySnapshot, error) {
	value, err := PortfolioValue(ledger, prices)
	if err != nil {
		return nil, fmt.Errorf("failed to compute portfolio value: %w", err)
	}
	exposure, err := Exposures(ledger, prices)
	if err != nil {
		return nil, fmt.Errorf("failed to compute exposures: %w", err)
	}

	return &domain.DailySnapshot{
		Date:           date,
		PortfolioValue: value,
		Cash:           ledger.Cash(),
		LongExposure:   exposure.Long,
		ShortExposure:  exposure.Short,
		GrossExposure:  exposure.Gross,
		NetExposure:    exposure.Net,
		LongShortRatio: exposure.LongShortRatio,
	}, nil
}

// SeedSnapshot is the time-zero point: all cash, no exposure
func SeedSnapshot(initialCapital decimal.Decimal, date time.Time) domain.DailySnapshot {
	return domain.DailySnapshot{
		Date:           date,
		PortfolioValue: initialCapital,
		Cash:           initialCapital,
		LongExposure:   decimal.Zero,
		ShortExposure:  decimal.Zero,
		GrossExposure:  decimal.Zero,
		NetExposure:    decimal.Zero,
		LongShortRatio: domain.InfiniteRatio(),
	}
}
