package l2_service

import (
	"agentbacktest/internal/domain"
	"agentbacktest/internal/logger"
	"agentbacktest/internal/metrics"
	"agentbacktest/internal/repository"
	"context"
	"time"
)

type DecisionService interface {
	// GetDecisions never fails. Provider errors and anything it returns for
	// symbols outside the request come back as holds.
	GetDecisions(ctx context.Context, req domain.DecisionRequest) domain.AgentOutput
}

type decisionServiceHandler struct {
	DecisionRepository repository.DecisionRepository
	Timeout            time.Duration
}

func NewDecisionService(decisionRepository repository.DecisionRepository, timeout time.Duration) DecisionService {
	return decisionServiceHandler{
		DecisionRepository: decisionRepository,
		Timeout:            timeout,
	}
}

func (h decisionServiceHandler) GetDecisions(ctx context.Context, req domain.DecisionRequest) domain.AgentOutput {
	log := logger.FromContext(ctx)

	if h.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, h.Timeout)
		defer cancel()
	}

	out, err := h.DecisionRepository.GetDecisions(ctx, req)
	if err != nil {
		metrics.DecisionFailures.Inc()
		log.Warnf("decision provider failed on %s, holding all positions: %s", req.Date.Format(time.DateOnly), err.Error())
		return domain.EmptyAgentOutput()
	}
	if out == nil {
		return domain.EmptyAgentOutput()
	}

	return restrictToSymbols(*out, req.Symbols)
}

func restrictToSymbols(out domain.AgentOutput, symbols []string) domain.AgentOutput {
	restricted := domain.EmptyAgentOutput()
	for _, symbol := range symbols {
		restricted.Decisions[symbol] = out.DecisionFor(symbol)
	}
	for agent, bySymbol := range out.Signals {
		signals := map[string]domain.Signal{}
		for _, symbol := range symbols {
			if s, ok := bySymbol[symbol]; ok {
				signals[symbol] = s
			}
		}
		if len(signals) > 0 {
			restricted.Signals[agent] = signals
		}
	}
	return restricted
}
