package repository

import (
	"agentbacktest/internal/domain"
	"context"
	"time"
)

// PriceRepository lists daily closes for one symbol, oldest first, with
// both bounds inclusive
type PriceRepository interface {
	List(ctx context.Context, symbol string, start, end time.Time) ([]domain.AssetPrice, error)
}

func filterPrices(prices []domain.AssetPrice, symbol string, start, end time.Time) []domain.AssetPrice {
	out := []domain.AssetPrice{}
	for _, p := range prices {
		if p.Symbol != symbol {
			continue
		}
		if p.Date.Before(start) || p.Date.After(end) {
			continue
		}
		out = append(out, p)
	}
	return out
}
