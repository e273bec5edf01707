package cmd

import (
	"agentbacktest/internal/domain"
	"agentbacktest/internal/logger"
	"agentbacktest/internal/repository"
	l1_service "agentbacktest/internal/service/l1"
	l2_service "agentbacktest/internal/service/l2"
	l3_service "agentbacktest/internal/service/l3"
	"agentbacktest/internal/util"
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"time"

	"github.com/gocarina/gocsv"
	"github.com/google/uuid"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

type RunDependencies struct {
	// Db is required for postgres prices and for persisting results
	Db              *sql.DB
	Secrets         *util.Secrets
	DecisionTimeout time.Duration
}

func NewPriceRepository(cfg util.PriceSourceConfig, db *sql.DB) (repository.PriceRepository, error) {
	switch cfg.Source {
	case util.PriceSourceCsv:
		return repository.NewCsvPriceRepository(cfg.Path)
	case util.PriceSourcePostgres:
		if db == nil {
			return nil, errors.New("postgres prices need a database")
		}
		return repository.NewAdjustedPriceRepository(db), nil
	case util.PriceSourceYahoo:
		return repository.NewYahooPriceRepository(), nil
	}
	return nil, fmt.Errorf("unknown price source %q", cfg.Source)
}

func NewDecisionRepository(cfg util.AgentConfig, secrets *util.Secrets, history l2_service.PriceHistory) (repository.DecisionRepository, error) {
	switch cfg.Kind {
	case util.AgentKindFile:
		return repository.NewFileDecisionRepository(cfg.Path)
	case util.AgentKindRules:
		return l2_service.NewRuleAgent(cfg.Rules, history)
	case util.AgentKindGpt:
		if secrets == nil || secrets.ChatGPTApiKey == "" {
			return nil, errors.New("gpt agent needs an api key")
		}
		return repository.NewGptRepository(secrets.ChatGPTApiKey, cfg.Model)
	}
	return nil, fmt.Errorf("unknown agent kind %q", cfg.Kind)
}

func NewBacktestInput(cfg util.BacktestConfig) (*l3_service.BacktestInput, error) {
	start, err := cfg.StartDate()
	if err != nil {
		return nil, err
	}
	end, err := cfg.EndDate()
	if err != nil {
		return nil, err
	}
	capital, err := cfg.Capital()
	if err != nil {
		return nil, err
	}
	margin, err := cfg.Margin()
	if err != nil {
		return nil, err
	}

	return &l3_service.BacktestInput{
		Symbols:          cfg.Tickers,
		Start:            start,
		End:              end,
		InitialCapital:   capital,
		MarginRatio:      margin,
		LookbackDays:     cfg.LookbackDays,
		SkipSeedSnapshot: cfg.SkipSeed,
		Metadata: domain.RunMetadata{
			RunID:     uuid.New(),
			AgentName: cfg.Agent.Name,
			ModelName: cfg.Agent.Model,
		},
	}, nil
}

// RunBacktest runs one configured backtest end to end. Prices are loaded
// once up front and shared by the rule agent and the simulation.
func RunBacktest(ctx context.Context, cfg util.BacktestConfig, deps RunDependencies) (*l3_service.BacktestResult, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if cfg.Persist && deps.Db == nil {
		return nil, errors.New("persisting results needs a database")
	}

	in, err := NewBacktestInput(cfg)
	if err != nil {
		return nil, err
	}
	log := logger.FromContext(ctx).With("runID", in.Metadata.RunID)
	ctx = logger.WithLogger(ctx, log)

	priceRepository, err := NewPriceRepository(cfg.Prices, deps.Db)
	if err != nil {
		return nil, err
	}
	priceService := l1_service.NewPriceService(priceRepository)

	in.PriceCache, err = priceService.LoadPriceCache(ctx, in.Symbols, in.Start.AddDate(0, 0, -in.LookbackDays), in.End)
	if err != nil {
		return nil, fmt.Errorf("failed to load prices: %w", err)
	}

	decisionRepository, err := NewDecisionRepository(cfg.Agent, deps.Secrets, in.PriceCache)
	if err != nil {
		return nil, fmt.Errorf("failed to build agent: %w", err)
	}

	var resultRepository repository.BacktestResultRepository
	if deps.Db != nil {
		resultRepository = repository.NewBacktestResultRepository(deps.Db)
	}

	backtestService := l3_service.NewBacktestService(
		priceService,
		l2_service.NewDecisionService(decisionRepository, deps.DecisionTimeout),
		resultRepository,
	)

	result, err := backtestService.Backtest(ctx, *in)
	if err != nil {
		return nil, err
	}

	if cfg.Persist {
		if err := backtestService.SaveResult(ctx, *in, result); err != nil {
			return nil, err
		}
		log.Infof("saved backtest %s", result.RunID)
	}

	return result, nil
}

type tradeCsvRow struct {
	Date           string `csv:"date"`
	Ticker         string `csv:"ticker"`
	Action         string `csv:"action"`
	Quantity       int64  `csv:"quantity"`
	Price          string `csv:"price"`
	Shares         int64  `csv:"shares"`
	PositionValue  string `csv:"position_value"`
	Bullish        int    `csv:"bullish"`
	Bearish        int    `csv:"bearish"`
	Neutral        int    `csv:"neutral"`
	PortfolioValue string `csv:"portfolio_value"`
}

func newTradeCsvRows(result *l3_service.BacktestResult) []tradeCsvRow {
	// the last snapshot of a date wins, so a seed sharing the first day's
	// date is replaced by that day's close
	values := map[string]string{}
	for _, s := range result.Snapshots {
		values[s.Date.Format(time.DateOnly)] = s.PortfolioValue.StringFixed(2)
	}

	rows := []tradeCsvRow{}
	for _, t := range result.Trades {
		date := t.Date.Format(time.DateOnly)
		rows = append(rows, tradeCsvRow{
			Date:           date,
			Ticker:         t.Symbol,
			Action:         string(t.Action),
			Quantity:       t.ExecutedQuantity,
			Price:          t.Price.StringFixed(2),
			Shares:         t.NetSharesHeld,
			PositionValue:  t.NetPositionValue.StringFixed(2),
			Bullish:        t.Signals.Bullish,
			Bearish:        t.Signals.Bearish,
			Neutral:        t.Signals.Neutral,
			PortfolioValue: values[date],
		})
	}
	return rows
}

func WriteTradesCsv(path string, result *l3_service.BacktestResult) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", path, err)
	}
	defer f.Close()

	rows := newTradeCsvRows(result)
	if err := gocsv.MarshalFile(&rows, f); err != nil {
		return fmt.Errorf("failed to write trades to %s: %w", path, err)
	}
	return nil
}

// loadRunSecrets only reads secrets when the run needs them. A gpt-only run
// can get by on GPT_API_KEY without a secrets file.
func loadRunSecrets(cfg util.BacktestConfig) (*util.Secrets, error) {
	needsDb := cfg.Prices.Source == util.PriceSourcePostgres || cfg.Persist
	needsGpt := cfg.Agent.Kind == util.AgentKindGpt
	if !needsDb && !needsGpt {
		return nil, nil
	}

	secrets, err := util.LoadSecrets()
	if err != nil {
		if key := os.Getenv("GPT_API_KEY"); !needsDb && key != "" {
			return &util.Secrets{ChatGPTApiKey: key}, nil
		}
		return nil, err
	}
	return secrets, nil
}

func newRunCommand() *cobra.Command {
	var (
		configPath      string
		outPath         string
		persist         bool
		printJson       bool
		decisionTimeout time.Duration
	)

	command := &cobra.Command{
		Use:   "run",
		Short: "Run a backtest from a config file",
		RunE: func(command *cobra.Command, args []string) error {
			util.LoadDotenv()
			cfg, err := util.LoadConfig(configPath)
			if err != nil {
				return err
			}
			if persist {
				cfg.Persist = true
			}

			secrets, err := loadRunSecrets(*cfg)
			if err != nil {
				return err
			}

			deps := RunDependencies{
				Secrets:         secrets,
				DecisionTimeout: decisionTimeout,
			}
			if secrets != nil && secrets.Db.Configured() {
				deps.Db, err = OpenDb(secrets.Db)
				if err != nil {
					return err
				}
				defer deps.Db.Close()
			}

			ctx, stop := signal.NotifyContext(command.Context(), os.Interrupt)
			defer stop()
			ctx = logger.WithLogger(ctx, zap.S())

			profile, endProfile := domain.NewProfile()
			ctx = domain.WithProfile(ctx, profile)

			result, err := RunBacktest(ctx, *cfg, deps)
			endProfile()
			if err != nil {
				return err
			}

			if outPath != "" {
				if err := WriteTradesCsv(outPath, result); err != nil {
					return err
				}
			}

			if printJson {
				util.Pprint(result)
			} else {
				util.Pprint(result.Summary)
			}
			zap.S().Debugw("profile", "totalMs", profile.TotalMs, "spans", len(profile.Spans))

			return nil
		},
	}

	command.Flags().StringVarP(&configPath, "config", "c", "backtest.yaml", "run config")
	command.Flags().StringVarP(&outPath, "out", "o", "", "write trade records to this csv")
	command.Flags().BoolVar(&persist, "persist", false, "save the run to postgres")
	command.Flags().BoolVar(&printJson, "json", false, "print the full result instead of the summary")
	command.Flags().DurationVar(&decisionTimeout, "decision-timeout", DefaultDecisionTimeout, "per-day agent timeout, 0 for none")

	return command
}
