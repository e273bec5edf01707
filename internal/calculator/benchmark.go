package calculator

import (
	"agentbacktest/internal/domain"
	"time"

	"github.com/shopspring/decimal"
)

type PriceLookup interface {
	GetMany(symbols []string, date time.Time) (map[string]decimal.Decimal, error)
}

// BuyAndHold splits capital equally across symbols at the first day every
// symbol has a close and holds (fractional) shares to the end. Days with a
// missing close are left out, the same as the simulation does.
func BuyAndHold(prices PriceLookup, symbols []string, days []time.Time, initialCapital decimal.Decimal) []domain.BenchmarkPoint {
	out := []domain.BenchmarkPoint{}
	if len(symbols) == 0 || !initialCapital.IsPositive() {
		return out
	}

	var shares map[string]decimal.Decimal
	allocation := initialCapital.Div(decimal.NewFromInt(int64(len(symbols))))

	for _, day := range days {
		dayPrices, err := prices.GetMany(symbols, day)
		if err != nil {
			continue
		}

		if shares == nil {
			shares = map[string]decimal.Decimal{}
			for _, s := range symbols {
				if !dayPrices[s].IsPositive() {
					shares = nil
					break
				}
				shares[s] = allocation.Div(dayPrices[s])
			}
			if shares == nil {
				continue
			}
		}

		value := decimal.Zero
		for _, s := range symbols {
			value = value.Add(shares[s].Mul(dayPrices[s]))
		}

		out = append(out, domain.BenchmarkPoint{
			Date:          day,
			Value:         value.Round(2).InexactFloat64(),
			PercentChange: round2(value.Div(initialCapital).Sub(decimal.NewFromInt(1)).Mul(decimal.NewFromInt(100)).InexactFloat64()),
		})
	}

	return out
}
