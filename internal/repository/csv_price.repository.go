package repository

import (
	"agentbacktest/internal/domain"
	"context"
	"fmt"
	"os"
	"sort"
	"strings"
	"time"

	"github.com/gocarina/gocsv"
	"github.com/shopspring/decimal"
)

type csvPriceRow struct {
	Date   string `csv:"date"`
	Symbol string `csv:"symbol"`
	Price  string `csv:"price"`
}

type csvPriceRepositoryHandler struct {
	Prices []domain.AssetPrice
}

// NewCsvPriceRepository reads a date,symbol,price file into memory
func NewCsvPriceRepository(path string) (PriceRepository, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open price file %s: %w", path, err)
	}
	defer f.Close()

	rows := []csvPriceRow{}
	if err := gocsv.UnmarshalFile(f, &rows); err != nil {
		return nil, fmt.Errorf("failed to parse price file %s: %w", path, err)
	}

	return newCsvPriceRepositoryFromRows(rows)
}

func newCsvPriceRepositoryFromRows(rows []csvPriceRow) (PriceRepository, error) {
	prices := []domain.AssetPrice{}
	for i, r := range rows {
		date, err := time.Parse(time.DateOnly, strings.TrimSpace(r.Date))
		if err != nil {
			return nil, fmt.Errorf("failed to parse date on row %d: %w", i+1, err)
		}
		price, err := decimal.NewFromString(strings.TrimSpace(r.Price))
		if err != nil {
			return nil, fmt.Errorf("failed to parse price on row %d: %w", i+1, err)
		}
		prices = append(prices, domain.AssetPrice{
			Symbol: strings.ToUpper(strings.TrimSpace(r.Symbol)),
			Date:   date,
			Price:  price,
		})
	}

	sort.SliceStable(prices, func(i, j int) bool {
		return prices[i].Date.Before(prices[j].Date)
	})

	return csvPriceRepositoryHandler{
		Prices: prices,
	}, nil
}

func (h csvPriceRepositoryHandler) List(ctx context.Context, symbol string, start, end time.Time) ([]domain.AssetPrice, error) {
	return filterPrices(h.Prices, symbol, start, end), nil
}
