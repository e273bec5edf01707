package cmd

import (
	"agentbacktest/internal/repository"
	l1_service "agentbacktest/internal/service/l1"
	"agentbacktest/internal/util"
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

// IngestTickers copies closes for each ticker into postgres, one
// transaction per ticker so a bad symbol doesn't undo the others.
func IngestTickers(
	ctx context.Context,
	db *sql.DB,
	tickers []string,
	source repository.PriceRepository,
	sink repository.AdjustedPriceRepository,
	start *time.Time,
) (map[string]int, error) {
	counts := map[string]int{}
	failures := []error{}
	for _, ticker := range tickers {
		ticker = strings.ToUpper(strings.TrimSpace(ticker))
		n, err := ingestTicker(ctx, db, ticker, source, sink, start)
		if err != nil {
			zap.S().Errorf("failed to ingest %s: %v", ticker, err)
			failures = append(failures, err)
			continue
		}
		counts[ticker] = n
	}
	return counts, errors.Join(failures...)
}

func ingestTicker(
	ctx context.Context,
	db *sql.DB,
	ticker string,
	source repository.PriceRepository,
	sink repository.AdjustedPriceRepository,
	start *time.Time,
) (int, error) {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("failed to start transaction: %w", err)
	}
	defer tx.Rollback()

	n, err := l1_service.IngestPrices(ctx, tx, ticker, source, sink, start)
	if err != nil {
		return 0, err
	}
	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("failed to commit prices for %s: %w", ticker, err)
	}
	return n, nil
}

func newIngestCommand() *cobra.Command {
	var (
		tickers []string
		start   string
	)

	command := &cobra.Command{
		Use:   "ingest",
		Short: "Copy daily closes from Yahoo into postgres",
		RunE: func(command *cobra.Command, args []string) error {
			if len(tickers) == 0 {
				return errors.New("at least one ticker is required")
			}
			var startDate *time.Time
			if start != "" {
				d, err := util.ParseDate(start)
				if err != nil {
					return err
				}
				startDate = &d
			}

			secrets, err := util.LoadSecrets()
			if err != nil {
				return err
			}
			if !secrets.Db.Configured() {
				return errors.New("ingest needs a database")
			}
			db, err := OpenDb(secrets.Db)
			if err != nil {
				return err
			}
			defer db.Close()

			counts, err := IngestTickers(
				command.Context(),
				db,
				tickers,
				repository.NewYahooPriceRepository(),
				repository.NewAdjustedPriceRepository(db),
				startDate,
			)
			for ticker, n := range counts {
				zap.S().Infof("ingested %d prices for %s", n, ticker)
			}
			return err
		},
	}

	command.Flags().StringSliceVarP(&tickers, "tickers", "t", nil, "symbols to ingest")
	command.Flags().StringVar(&start, "start", "", "first date to fetch, defaults to the day after the latest stored close")

	return command
}
