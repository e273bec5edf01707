package cmd

import (
	"agentbacktest/api"
	"agentbacktest/internal/repository"
	l1_service "agentbacktest/internal/service/l1"
	"agentbacktest/internal/util"
	"database/sql"
	"fmt"
	"time"

	_ "github.com/lib/pq"
	"go.uber.org/zap"
)

const DefaultDecisionTimeout = 2 * time.Minute

func CloseDependencies(handler *api.ApiHandler) {
	if handler.Db == nil {
		return
	}
	err := handler.Db.Close()
	if err != nil {
		zap.S().Errorf("failed to close db: %v", err)
	}
}

func OpenDb(secrets util.DbSecrets) (*sql.DB, error) {
	dbConn, err := sql.Open("postgres", secrets.ToConnectionStr())
	if err != nil {
		return nil, fmt.Errorf("failed to connect to db: %w", err)
	}
	return dbConn, nil
}

// InitializeDependencies wires the API. Prices and results come from
// postgres when it is configured; otherwise prices are fetched from Yahoo
// and results can't be persisted.
func InitializeDependencies() (*api.ApiHandler, error) {
	secrets, err := util.LoadSecrets()
	if err != nil {
		return nil, fmt.Errorf("failed to load secrets: %w", err)
	}

	apiHandler := &api.ApiHandler{
		GptApiKey:       secrets.ChatGPTApiKey,
		DecisionTimeout: DefaultDecisionTimeout,
		JwtDecodeToken:  secrets.JwtSecret,
	}

	if !secrets.Db.Configured() {
		zap.S().Warn("no database configured, using yahoo prices")
		apiHandler.PriceService = l1_service.NewPriceService(repository.NewYahooPriceRepository())
		return apiHandler, nil
	}

	dbConn, err := OpenDb(secrets.Db)
	if err != nil {
		return nil, err
	}

	apiHandler.Db = dbConn
	apiHandler.PriceService = l1_service.NewPriceService(repository.NewAdjustedPriceRepository(dbConn))
	apiHandler.BacktestResultRepository = repository.NewBacktestResultRepository(dbConn)

	return apiHandler, nil
}
