package api

import (
	"agentbacktest/internal/domain"
	"agentbacktest/internal/repository"
	l2_service "agentbacktest/internal/service/l2"
	l3_service "agentbacktest/internal/service/l3"
	"agentbacktest/internal/util"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
)

const (
	agentKindScripted = "scripted"
	agentKindRules    = util.AgentKindRules
	agentKindGpt      = util.AgentKindGpt
)

type backtestAgentRequest struct {
	Kind  string        `json:"kind"`
	Name  string        `json:"name"`
	Model string        `json:"model"`
	Rules []domain.Rule `json:"rules"`
	// date keyed agent outputs, only for scripted agents
	Decisions json.RawMessage `json:"decisions"`
}

type backtestRequest struct {
	Tickers        []string             `json:"tickers"`
	StartDate      string               `json:"startDate"`
	EndDate        string               `json:"endDate"`
	InitialCapital decimal.Decimal      `json:"initialCapital"`
	MarginRatio    decimal.Decimal      `json:"marginRatio"`
	LookbackDays   int                  `json:"lookbackDays"`
	SkipSeed       bool                 `json:"skipSeed"`
	Agent          backtestAgentRequest `json:"agent"`
	Persist        bool                 `json:"persist"`
}

type backtestResponse struct {
	*l3_service.BacktestResult
	Profile *domain.Profile `json:"profile"`
}

func (req backtestRequest) toInput() (*l3_service.BacktestInput, error) {
	start, err := util.ParseDate(req.StartDate)
	if err != nil {
		return nil, fmt.Errorf("invalid startDate: %w", err)
	}
	end, err := util.ParseDate(req.EndDate)
	if err != nil {
		return nil, fmt.Errorf("invalid endDate: %w", err)
	}
	symbols := make([]string, len(req.Tickers))
	for i, t := range req.Tickers {
		symbols[i] = strings.ToUpper(strings.TrimSpace(t))
	}
	lookback := req.LookbackDays
	if lookback == 0 {
		lookback = util.DefaultLookbackDays
	}

	agentName := req.Agent.Name
	if agentName == "" {
		agentName = req.Agent.Kind
	}

	return &l3_service.BacktestInput{
		Symbols:          symbols,
		Start:            start,
		End:              end,
		InitialCapital:   req.InitialCapital,
		MarginRatio:      req.MarginRatio,
		LookbackDays:     lookback,
		SkipSeedSnapshot: req.SkipSeed,
		Metadata: domain.RunMetadata{
			AgentName: agentName,
			ModelName: req.Agent.Model,
		},
	}, nil
}

// decisionRepository builds the agent for a request. Rule agents read
// history out of the run's price cache, so it is loaded here and handed to
// the backtest instead of being loaded twice.
func (m ApiHandler) decisionRepository(ctx context.Context, agent backtestAgentRequest, in *l3_service.BacktestInput) (repository.DecisionRepository, error) {
	switch agent.Kind {
	case agentKindScripted:
		if len(agent.Decisions) == 0 {
			return nil, errors.New("scripted agents need decisions")
		}
		return repository.NewFileDecisionRepositoryFromBytes(agent.Decisions)
	case agentKindRules:
		cache, err := m.PriceService.LoadPriceCache(ctx, in.Symbols, in.Start.AddDate(0, 0, -in.LookbackDays), in.End)
		if err != nil {
			return nil, fmt.Errorf("failed to load prices: %w", err)
		}
		in.PriceCache = cache
		return l2_service.NewRuleAgent(agent.Rules, cache)
	case agentKindGpt:
		if m.GptApiKey == "" {
			return nil, errors.New("gpt agent is not configured")
		}
		return repository.NewGptRepository(m.GptApiKey, agent.Model)
	}
	return nil, fmt.Errorf("unknown agent kind %q", agent.Kind)
}

func (m ApiHandler) backtest(c *gin.Context) {
	profile, endProfile := domain.NewProfile()
	ctx := domain.WithProfile(c.Request.Context(), profile)

	var requestBody backtestRequest
	if err := c.ShouldBindJSON(&requestBody); err != nil {
		returnErrorJsonCode(err, c, http.StatusBadRequest)
		return
	}
	if requestBody.Persist && m.BacktestResultRepository == nil {
		returnErrorJsonCode(errors.New("persisting results requires a database"), c, http.StatusBadRequest)
		return
	}

	in, err := requestBody.toInput()
	if err != nil {
		returnErrorJsonCode(err, c, http.StatusBadRequest)
		return
	}

	_, endSpan := profile.StartNewSpan("build agent")
	decisionRepository, err := m.decisionRepository(ctx, requestBody.Agent, in)
	endSpan()
	if err != nil {
		returnErrorJsonCode(fmt.Errorf("failed to build agent: %w", err), c, http.StatusBadRequest)
		return
	}

	backtestService := l3_service.NewBacktestService(
		m.PriceService,
		l2_service.NewDecisionService(decisionRepository, m.DecisionTimeout),
		m.BacktestResultRepository,
	)

	result, err := backtestService.Backtest(ctx, *in)
	if errors.Is(err, l3_service.ErrInvalidBacktestInput) {
		returnErrorJsonCode(err, c, http.StatusBadRequest)
		return
	}
	if err != nil {
		returnErrorJson(err, c)
		return
	}

	if requestBody.Persist {
		_, endSaveSpan := profile.StartNewSpan("save result")
		err = backtestService.SaveResult(ctx, *in, result)
		endSaveSpan()
		if err != nil {
			returnErrorJson(err, c)
			return
		}
	}

	endProfile()
	c.JSON(http.StatusOK, backtestResponse{
		BacktestResult: result,
		Profile:        profile,
	})
}
