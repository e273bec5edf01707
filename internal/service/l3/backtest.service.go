package l3_service

import (
	"agentbacktest/internal/calculator"
	"agentbacktest/internal/domain"
	"agentbacktest/internal/logger"
	"agentbacktest/internal/metrics"
	"agentbacktest/internal/repository"
	l1_service "agentbacktest/internal/service/l1"
	l2_service "agentbacktest/internal/service/l2"
	"agentbacktest/internal/util"
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

var ErrInvalidBacktestInput = errors.New("invalid backtest input")

type BacktestService interface {
	Backtest(ctx context.Context, in BacktestInput) (*BacktestResult, error)
	SaveResult(ctx context.Context, in BacktestInput, result *BacktestResult) error
}

type BacktestInput struct {
	Symbols        []string
	Start          time.Time
	End            time.Time
	InitialCapital decimal.Decimal
	MarginRatio    decimal.Decimal
	// defaults to util.DefaultLookbackDays
	LookbackDays     int
	SkipSeedSnapshot bool
	Metadata         domain.RunMetadata

	// PriceCache is loaded from the price service when nil
	PriceCache *l1_service.PriceCache
}

type RollingMetrics struct {
	Date time.Time `json:"date"`
	domain.PerformanceMetrics
}

type BacktestResult struct {
	RunID          uuid.UUID                 `json:"runID"`
	Snapshots      []domain.DailySnapshot    `json:"snapshots"`
	Trades         []domain.TradeRecord      `json:"trades"`
	RollingMetrics []RollingMetrics          `json:"rollingMetrics"`
	Summary        domain.PerformanceSummary `json:"summary"`
	Benchmark      []domain.BenchmarkPoint   `json:"benchmark"`
	SkippedDays    []time.Time               `json:"skippedDays"`
	FinalLedger    domain.LedgerSnapshot     `json:"finalLedger"`
}

type backtestServiceHandler struct {
	PriceService             l1_service.PriceService
	DecisionService          l2_service.DecisionService
	BacktestResultRepository repository.BacktestResultRepository
}

func NewBacktestService(
	priceService l1_service.PriceService,
	decisionService l2_service.DecisionService,
	backtestResultRepository repository.BacktestResultRepository,
) BacktestService {
	return backtestServiceHandler{
		PriceService:             priceService,
		DecisionService:          decisionService,
		BacktestResultRepository: backtestResultRepository,
	}
}

func (in *BacktestInput) validate() error {
	if len(in.Symbols) == 0 {
		return fmt.Errorf("%w: no symbols", ErrInvalidBacktestInput)
	}
	seen := map[string]bool{}
	for _, s := range in.Symbols {
		if s == "" {
			return fmt.Errorf("%w: empty symbol", ErrInvalidBacktestInput)
		}
		if seen[s] {
			return fmt.Errorf("%w: duplicate symbol %s", ErrInvalidBacktestInput, s)
		}
		seen[s] = true
	}
	if in.Start.After(in.End) {
		return fmt.Errorf("%w: start %s is after end %s", ErrInvalidBacktestInput, in.Start.Format(time.DateOnly), in.End.Format(time.DateOnly))
	}
	if !in.InitialCapital.IsPositive() {
		return fmt.Errorf("%w: initial capital must be positive", ErrInvalidBacktestInput)
	}
	if in.MarginRatio.IsNegative() || in.MarginRatio.GreaterThan(decimal.NewFromInt(1)) {
		return fmt.Errorf("%w: margin ratio must be between 0 and 1, got %s", ErrInvalidBacktestInput, in.MarginRatio)
	}
	if in.LookbackDays < 0 {
		return fmt.Errorf("%w: negative lookback", ErrInvalidBacktestInput)
	}
	if in.LookbackDays == 0 {
		in.LookbackDays = util.DefaultLookbackDays
	}
	if in.Metadata.RunID == uuid.Nil {
		in.Metadata.RunID = uuid.New()
	}
	return nil
}

// Backtest runs the day loop. Days are strictly sequential and each
// symbol's trade is applied in the configured order, so the ledger only
// ever has one writer. A day with a missing close is skipped before
// anything is touched. A ledger invariant failure aborts the run.
func (h backtestServiceHandler) Backtest(ctx context.Context, in BacktestInput) (*BacktestResult, error) {
	if err := in.validate(); err != nil {
		return nil, err
	}

	log := logger.FromContext(ctx)
	profile, endProfile := domain.GetProfile(ctx)
	defer endProfile()

	tradeService, err := l1_service.NewTradeService(in.MarginRatio)
	if err != nil {
		return nil, err
	}
	ledger, err := domain.NewLedger(in.InitialCapital, in.Symbols)
	if err != nil {
		return nil, err
	}

	start := util.DateKey(in.Start)
	end := util.DateKey(in.End)
	days := util.BusinessDays(start, end)

	prices := in.PriceCache
	if prices == nil {
		// closes back to the lookback start so day one can see its window
		prices, err = h.PriceService.LoadPriceCache(ctx, in.Symbols, start.AddDate(0, 0, -in.LookbackDays), end)
		if err != nil {
			metrics.RunsTotal.WithLabelValues("error").Inc()
			return nil, fmt.Errorf("failed to load prices: %w", err)
		}
	}

	result := &BacktestResult{
		RunID:          in.Metadata.RunID,
		Snapshots:      []domain.DailySnapshot{},
		Trades:         []domain.TradeRecord{},
		RollingMetrics: []RollingMetrics{},
		SkippedDays:    []time.Time{},
	}
	if !in.SkipSeedSnapshot {
		result.Snapshots = append(result.Snapshots, calculator.SeedSnapshot(in.InitialCapital, start))
	}

	span, endSpan := profile.StartNewSpan("simulate days")
	dayProfile, endDayProfile := span.NewSubProfile()
	endDays := func() {
		endDayProfile()
		endSpan()
	}
	for _, day := range days {
		if err := ctx.Err(); err != nil {
			endDays()
			metrics.RunsTotal.WithLabelValues("cancelled").Inc()
			return nil, err
		}

		_, endDaySpan := dayProfile.StartNewSpan(day.Format(time.DateOnly))
		dayStart := time.Now()

		skipped, err := h.simulateDay(ctx, simulateDayInput{
			In:           in,
			Day:          day,
			Ledger:       ledger,
			Prices:       prices,
			TradeService: tradeService,
			Result:       result,
		})
		endDaySpan()
		if err != nil {
			endDays()
			metrics.RunsTotal.WithLabelValues("error").Inc()
			return nil, err
		}
		if skipped {
			result.SkippedDays = append(result.SkippedDays, day)
			continue
		}

		metrics.DayLatency.Observe(time.Since(dayStart).Seconds())
	}
	endDays()

	result.Summary = calculator.Summarize(result.Snapshots, in.InitialCapital, ledger.TotalRealizedGains())
	result.Benchmark = calculator.BuyAndHold(prices, in.Symbols, days, in.InitialCapital)
	result.FinalLedger = ledger.Snapshot()

	metrics.RunsTotal.WithLabelValues("success").Inc()
	log.Infow(
		"backtest complete",
		"runID", result.RunID,
		"agent", in.Metadata.AgentName,
		"days", len(days),
		"skipped", len(result.SkippedDays),
		"trades", len(result.Trades),
		"totalReturn", result.Summary.TotalReturn,
	)

	return result, nil
}

type simulateDayInput struct {
	In           BacktestInput
	Day          time.Time
	Ledger       *domain.Ledger
	Prices       *l1_service.PriceCache
	TradeService l1_service.TradeService
	Result       *BacktestResult
}

// simulateDay returns skipped=true, with nothing mutated, when a close is
// missing
func (h backtestServiceHandler) simulateDay(ctx context.Context, in simulateDayInput) (bool, error) {
	log := logger.FromContext(ctx)
	symbols := in.In.Symbols

	dayPrices, err := in.Prices.GetMany(symbols, in.Day)
	if err != nil {
		metrics.DaysSkipped.Inc()
		log.Warnf("skipping %s: %s", in.Day.Format(time.DateOnly), err.Error())
		return true, nil
	}

	output := h.DecisionService.GetDecisions(ctx, domain.DecisionRequest{
		Symbols:       symbols,
		LookbackStart: in.Day.AddDate(0, 0, -in.In.LookbackDays),
		Date:          in.Day,
		Ledger:        in.Ledger.Snapshot(),
		Prices:        dayPrices,
		Metadata:      in.In.Metadata,
	})
	if err := ctx.Err(); err != nil {
		return false, err
	}

	executed := map[string]int64{}
	for _, symbol := range symbols {
		decision := output.DecisionFor(symbol)
		qty, err := in.TradeService.Execute(in.Ledger, l1_service.ExecuteTradeInput{
			Symbol:   symbol,
			Action:   decision.Action,
			Quantity: decision.Quantity,
			Price:    dayPrices[symbol],
		})
		if err != nil {
			return false, fmt.Errorf("failed to execute %s %s on %s: %w", decision.Action, symbol, in.Day.Format(time.DateOnly), err)
		}
		executed[symbol] = qty
		if qty > 0 {
			metrics.TradesTotal.WithLabelValues(string(decision.Action)).Inc()
			metrics.SharesExecuted.WithLabelValues(string(decision.Action)).Add(float64(qty))
		}
	}

	snapshot, err := calculator.NewDailySnapshot(in.Ledger, dayPrices, in.Day)
	if err != nil {
		return false, fmt.Errorf("failed to value portfolio on %s: %w", in.Day.Format(time.DateOnly), err)
	}
	in.Result.Snapshots = append(in.Result.Snapshots, *snapshot)

	for _, symbol := range symbols {
		position := in.Ledger.Position(symbol)
		price := dayPrices[symbol]
		in.Result.Trades = append(in.Result.Trades, domain.TradeRecord{
			Date:             in.Day,
			Symbol:           symbol,
			Action:           output.DecisionFor(symbol).Action,
			ExecutedQuantity: executed[symbol],
			Price:            price,
			NetSharesHeld:    position.NetShares(),
			NetPositionValue: price.Mul(decimal.NewFromInt(position.NetShares())),
			Signals:          output.SignalCounts(symbol),
		})
	}

	in.Result.RollingMetrics = append(in.Result.RollingMetrics, RollingMetrics{
		Date:               in.Day,
		PerformanceMetrics: calculator.CalculateMetrics(in.Result.Snapshots),
	})

	metrics.DaysProcessed.Inc()
	metrics.PortfolioValue.Set(snapshot.PortfolioValue.InexactFloat64())
	metrics.MarginUsed.Set(in.Ledger.MarginUsed().InexactFloat64())

	return false, nil
}

func (h backtestServiceHandler) SaveResult(ctx context.Context, in BacktestInput, result *BacktestResult) error {
	if h.BacktestResultRepository == nil {
		return errors.New("no result repository configured")
	}
	metadata := in.Metadata
	metadata.RunID = result.RunID

	err := h.BacktestResultRepository.Save(ctx, repository.SaveBacktestInput{
		Metadata:       metadata,
		Symbols:        in.Symbols,
		Start:          util.DateKey(in.Start),
		End:            util.DateKey(in.End),
		InitialCapital: in.InitialCapital,
		MarginRatio:    in.MarginRatio,
		Trades:         result.Trades,
		Snapshots:      result.Snapshots,
		Benchmark:      result.Benchmark,
		Summary:        result.Summary,
	})
	if err != nil {
		return fmt.Errorf("failed to save backtest %s: %w", result.RunID, err)
	}
	return nil
}
