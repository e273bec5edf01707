package repository

import (
	"agentbacktest/internal/domain"
	"context"
	"fmt"
	"time"

	"github.com/piquette/finance-go/chart"
	"github.com/piquette/finance-go/datetime"
)

type yahooPriceRepositoryHandler struct{}

// NewYahooPriceRepository pulls daily adjusted closes from the Yahoo chart
// API. Nothing is cached; wrap it in the price service's cache.
func NewYahooPriceRepository() PriceRepository {
	return yahooPriceRepositoryHandler{}
}

func (h yahooPriceRepositoryHandler) List(ctx context.Context, symbol string, start, end time.Time) ([]domain.AssetPrice, error) {
	// chart end is exclusive
	e := end.AddDate(0, 0, 1)
	params := &chart.Params{
		Start:    datetime.New(&start),
		End:      datetime.New(&e),
		Symbol:   symbol,
		Interval: datetime.OneDay,
	}
	iter := chart.Get(params)

	out := []domain.AssetPrice{}
	for iter.Next() {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		bar := iter.Bar()
		ts := time.Unix(int64(bar.Timestamp), 0).UTC()
		out = append(out, domain.AssetPrice{
			Symbol: symbol,
			Date:   time.Date(ts.Year(), ts.Month(), ts.Day(), 0, 0, 0, 0, time.UTC),
			Price:  bar.AdjClose,
		})
	}
	if err := iter.Err(); err != nil {
		return nil, fmt.Errorf("failed to get prices for %s: %w", symbol, err)
	}

	return filterPrices(out, symbol, start, end), nil
}
