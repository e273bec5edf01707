package repository

import (
	"agentbacktest/internal/domain"
	"context"
	"encoding/json"
	"fmt"
	"os"
	"time"
)

// DecisionRepository is anything that can produce the day's trading
// decisions: a recorded script, a rule set, a language model
type DecisionRepository interface {
	GetDecisions(ctx context.Context, req domain.DecisionRequest) (*domain.AgentOutput, error)
}

type fileDecisionRepositoryHandler struct {
	Days map[string]domain.AgentOutput
}

// NewFileDecisionRepository loads a scripted run. The file is keyed by date
// (YYYY-MM-DD) and each value has the same shape an agent returns:
//
//	{"2024-01-02": {"decisions": {"AAPL": {"action": "buy", "quantity": 10}}, "analyst_signals": {...}}}
func NewFileDecisionRepository(path string) (DecisionRepository, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read decision file %s: %w", path, err)
	}
	return NewFileDecisionRepositoryFromBytes(b)
}

func NewFileDecisionRepositoryFromBytes(b []byte) (DecisionRepository, error) {
	raw := map[string]json.RawMessage{}
	if err := json.Unmarshal(b, &raw); err != nil {
		return nil, fmt.Errorf("failed to parse decision file: %w", err)
	}

	days := map[string]domain.AgentOutput{}
	for date, v := range raw {
		if _, err := time.Parse(time.DateOnly, date); err != nil {
			return nil, fmt.Errorf("invalid date key %q in decision file: %w", date, err)
		}
		days[date] = domain.ParseAgentOutput(v)
	}

	return fileDecisionRepositoryHandler{
		Days: days,
	}, nil
}

func (h fileDecisionRepositoryHandler) GetDecisions(ctx context.Context, req domain.DecisionRequest) (*domain.AgentOutput, error) {
	out, ok := h.Days[req.Date.Format(time.DateOnly)]
	if !ok {
		empty := domain.EmptyAgentOutput()
		return &empty, nil
	}
	return &out, nil
}
