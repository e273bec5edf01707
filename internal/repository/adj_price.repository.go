package repository

import (
	"agentbacktest/internal/db/models/postgres/public/model"
	. "agentbacktest/internal/db/models/postgres/public/table"
	"agentbacktest/internal/domain"
	"context"
	"database/sql"
	"fmt"
	"time"

	. "github.com/go-jet/jet/v2/postgres"
	"github.com/shopspring/decimal"
)

type AdjustedPriceRepository interface {
	PriceRepository
	Add(tx *sql.Tx, prices []model.AdjustedPrice) error
	LatestDate(ctx context.Context, symbol string) (*time.Time, error)
}

type adjustedPriceRepositoryHandler struct {
	Db *sql.DB
}

func NewAdjustedPriceRepository(db *sql.DB) AdjustedPriceRepository {
	return adjustedPriceRepositoryHandler{
		Db: db,
	}
}

func (h adjustedPriceRepositoryHandler) Add(tx *sql.Tx, adjPrices []model.AdjustedPrice) error {
	if len(adjPrices) == 0 {
		return nil
	}
	query := AdjustedPrice.
		INSERT(AdjustedPrice.MutableColumns).
		MODELS(adjPrices).
		ON_CONFLICT(
			AdjustedPrice.Symbol, AdjustedPrice.Date,
		).DO_UPDATE(
		SET(
			AdjustedPrice.Price.SET(AdjustedPrice.EXCLUDED.Price),
		),
	)

	_, err := query.Exec(tx)
	if err != nil {
		return fmt.Errorf("failed to add adjusted prices to db: %w", err)
	}

	return nil
}

func (h adjustedPriceRepositoryHandler) List(ctx context.Context, symbol string, start, end time.Time) ([]domain.AssetPrice, error) {
	query := AdjustedPrice.
		SELECT(AdjustedPrice.AllColumns).
		WHERE(
			AND(
				AdjustedPrice.Symbol.EQ(String(symbol)),
				AdjustedPrice.Date.BETWEEN(DateT(start), DateT(end)),
			),
		).
		ORDER_BY(AdjustedPrice.Date.ASC())

	result := []model.AdjustedPrice{}
	err := query.QueryContext(ctx, h.Db, &result)
	if err != nil {
		return nil, fmt.Errorf("failed to list prices for %s: %w", symbol, err)
	}

	out := []domain.AssetPrice{}
	for _, p := range result {
		out = append(out, domain.AssetPrice{
			Symbol: p.Symbol,
			Date:   p.Date,
			Price:  decimal.NewFromFloat(p.Price),
		})
	}

	return out, nil
}

// LatestDate returns nil when nothing has been ingested for symbol
func (h adjustedPriceRepositoryHandler) LatestDate(ctx context.Context, symbol string) (*time.Time, error) {
	query := AdjustedPrice.
		SELECT(AdjustedPrice.AllColumns).
		WHERE(AdjustedPrice.Symbol.EQ(String(symbol))).
		ORDER_BY(AdjustedPrice.Date.DESC()).
		LIMIT(1)

	result := []model.AdjustedPrice{}
	err := query.QueryContext(ctx, h.Db, &result)
	if err != nil {
		return nil, fmt.Errorf("failed to get latest price date for %s: %w", symbol, err)
	}
	if len(result) == 0 {
		return nil, nil
	}

	return &result[0].Date, nil
}
