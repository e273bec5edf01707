package calculator

import (
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
)

type mapPriceLookup map[time.Time]map[string]decimal.Decimal

func (m mapPriceLookup) GetMany(symbols []string, date time.Time) (map[string]decimal.Decimal, error) {
	out := map[string]decimal.Decimal{}
	for _, s := range symbols {
		p, ok := m[date][s]
		if !ok {
			return nil, errors.New("missing")
		}
		out[s] = p
	}
	return out, nil
}

func TestBuyAndHold(t *testing.T) {
	day := func(i int) time.Time {
		return time.Date(2024, 1, 1+i, 0, 0, 0, 0, time.UTC)
	}
	prices := mapPriceLookup{
		// day 0 missing MSFT, so the allocation happens on day 1
		day(0): {"AAPL": d("90")},
		day(1): {"AAPL": d("100"), "MSFT": d("200")},
		day(2): {"AAPL": d("110"), "MSFT": d("180")},
		day(4): {"AAPL": d("120"), "MSFT": d("220")},
	}

	points := BuyAndHold(prices, []string{"AAPL", "MSFT"}, []time.Time{day(0), day(1), day(2), day(3), day(4)}, d("10000"))
	require.Len(t, points, 3)

	require.Equal(t, day(1), points[0].Date)
	require.Equal(t, 10000.0, points[0].Value)
	require.Equal(t, 0.0, points[0].PercentChange)

	// 50 AAPL + 25 MSFT
	require.Equal(t, 10000.0, points[1].Value)
	require.Equal(t, day(4), points[2].Date)
	require.Equal(t, 11500.0, points[2].Value)
	require.Equal(t, 15.0, points[2].PercentChange)

	require.Empty(t, BuyAndHold(prices, nil, []time.Time{day(1)}, d("10000")))
}
