package repository

import (
	"agentbacktest/internal/db/models/postgres/public/model"
	. "agentbacktest/internal/db/models/postgres/public/table"
	"agentbacktest/internal/domain"
	"context"
	"database/sql"
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type SaveBacktestInput struct {
	Metadata       domain.RunMetadata
	Symbols        []string
	Start          time.Time
	End            time.Time
	InitialCapital decimal.Decimal
	MarginRatio    decimal.Decimal
	Trades         []domain.TradeRecord
	Snapshots      []domain.DailySnapshot
	Benchmark      []domain.BenchmarkPoint
	Summary        domain.PerformanceSummary
}

type BacktestResultRepository interface {
	Save(ctx context.Context, in SaveBacktestInput) error
}

type backtestResultRepositoryHandler struct {
	Db *sql.DB
}

func NewBacktestResultRepository(db *sql.DB) BacktestResultRepository {
	return backtestResultRepositoryHandler{
		Db: db,
	}
}

// Save writes the run, one agent_backtest row per trade record and the
// agent_performance summary in a single transaction
func (h backtestResultRepositoryHandler) Save(ctx context.Context, in SaveBacktestInput) error {
	tx, err := h.Db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to start transaction: %w", err)
	}
	defer tx.Rollback()

	now := time.Now().UTC()

	run := newBacktestRunModel(in, now)
	_, err = BacktestRun.
		INSERT(BacktestRun.AllColumns).
		MODEL(run).
		ExecContext(ctx, tx)
	if err != nil {
		return fmt.Errorf("failed to insert backtest run: %w", err)
	}

	trades := newAgentBacktestModels(in)
	if len(trades) > 0 {
		_, err = AgentBacktest.
			INSERT(AgentBacktest.MutableColumns).
			MODELS(trades).
			ExecContext(ctx, tx)
		if err != nil {
			return fmt.Errorf("failed to insert agent backtest rows: %w", err)
		}
	}

	performance := newAgentPerformanceModel(in, now)
	_, err = AgentPerformance.
		INSERT(AgentPerformance.MutableColumns).
		MODEL(performance).
		ExecContext(ctx, tx)
	if err != nil {
		return fmt.Errorf("failed to insert agent performance: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit backtest results: %w", err)
	}

	return nil
}

func newBacktestRunModel(in SaveBacktestInput, now time.Time) model.BacktestRun {
	var modelName *string
	if in.Metadata.ModelName != "" {
		m := in.Metadata.ModelName
		modelName = &m
	}
	return model.BacktestRun{
		BacktestRunID:  in.Metadata.RunID,
		AgentName:      in.Metadata.AgentName,
		ModelName:      modelName,
		Symbols:        strings.Join(in.Symbols, ","),
		StartDate:      in.Start,
		EndDate:        in.End,
		InitialCapital: in.InitialCapital.InexactFloat64(),
		MarginRatio:    in.MarginRatio.InexactFloat64(),
		CreatedAt:      now,
	}
}

func newAgentBacktestModels(in SaveBacktestInput) []model.AgentBacktest {
	snapshotByDate := map[time.Time]domain.DailySnapshot{}
	for _, s := range in.Snapshots {
		snapshotByDate[s.Date] = s
	}
	benchmarkByDate := map[time.Time]float64{}
	for _, b := range in.Benchmark {
		benchmarkByDate[b.Date] = b.Value
	}

	out := []model.AgentBacktest{}
	for _, t := range in.Trades {
		snapshot := snapshotByDate[t.Date]
		pl := snapshot.PortfolioValue.Sub(in.InitialCapital)
		returnPct := 0.0
		if in.InitialCapital.IsPositive() {
			returnPct = pl.Div(in.InitialCapital).Mul(decimal.NewFromInt(100)).InexactFloat64()
		}

		var buyHold *float64
		if v, ok := benchmarkByDate[t.Date]; ok {
			buyHold = &v
		}

		out = append(out, model.AgentBacktest{
			AgentBacktestID:  uuid.New(),
			BacktestRunID:    in.Metadata.RunID,
			TradeDate:        t.Date,
			Ticker:           t.Symbol,
			TradeAction:      string(t.Action),
			Quantity:         t.ExecutedQuantity,
			Price:            t.Price.InexactFloat64(),
			Shares:           t.NetSharesHeld,
			PositionValue:    t.NetPositionValue.InexactFloat64(),
			Bullish:          int32(t.Signals.Bullish),
			Bearish:          int32(t.Signals.Bearish),
			Neutral:          int32(t.Signals.Neutral),
			AgentName:        in.Metadata.AgentName,
			Cash:             snapshot.Cash.InexactFloat64(),
			PortfolioValue:   snapshot.PortfolioValue.InexactFloat64(),
			ReturnTotalPl:    pl.InexactFloat64(),
			ReturnPercentage: returnPct,
			BuyHoldValue:     buyHold,
		})
	}

	return out
}

// ratioColumn maps a ratio onto a double precision column. lib/pq can't
// encode infinities so unbounded ratios are stored as NULL.
func ratioColumn(r *domain.Ratio) *float64 {
	if r == nil || r.IsInf() || math.IsNaN(r.Float64()) {
		return nil
	}
	f := r.Float64()
	return &f
}

func int32Column(i *int) *int32 {
	if i == nil {
		return nil
	}
	v := int32(*i)
	return &v
}

func newAgentPerformanceModel(in SaveBacktestInput, now time.Time) model.AgentPerformance {
	s := in.Summary
	return model.AgentPerformance{
		AgentPerformanceID:   uuid.New(),
		BacktestRunID:        in.Metadata.RunID,
		AgentName:            in.Metadata.AgentName,
		TotalReturn:          s.TotalReturn,
		TotalRealizedGains:   s.TotalRealizedGains.InexactFloat64(),
		SharpeRatio:          ratioColumn(s.SharpeRatio),
		SortinoRatio:         ratioColumn(s.SortinoRatio),
		MaxDrawdown:          s.MaxDrawdown,
		WinRate:              s.WinRate,
		WinLossRatio:         ratioColumn(s.WinLossRatio),
		MaxConsecutiveWins:   int32Column(s.MaxConsecutiveWins),
		MaxConsecutiveLosses: int32Column(s.MaxConsecutiveLosses),
		CreatedAt:            now,
	}
}
