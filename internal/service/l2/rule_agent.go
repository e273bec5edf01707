package l2_service

import (
	"agentbacktest/internal/domain"
	"agentbacktest/internal/repository"
	"context"
	"fmt"
	"math"
	"time"

	"github.com/maja42/goval"
	"github.com/shopspring/decimal"
)

const RuleAgentName = "rules"

type PriceHistory interface {
	History(symbol string, date time.Time, n int) []decimal.Decimal
}

type ruleAgentHandler struct {
	Rules        []domain.Rule
	PriceHistory PriceHistory
}

// NewRuleAgent builds a decision source from expression rules. For each
// symbol the first rule whose `when` holds decides the action and its
// `quantity` expression the size. No match means hold.
//
// Variables: price, cash, marginUsed, longShares, shortShares,
// longCostBasis, shortCostBasis. Functions: priceDaysAgo(n), sma(n),
// floor(x), min(a, b), max(a, b).
func NewRuleAgent(rules []domain.Rule, priceHistory PriceHistory) (repository.DecisionRepository, error) {
	for i, r := range rules {
		if !r.Action.Valid() {
			return nil, fmt.Errorf("rule %d has invalid action %q", i, r.Action)
		}
		if r.When == "" {
			return nil, fmt.Errorf("rule %d has no condition", i)
		}
	}
	return ruleAgentHandler{
		Rules:        rules,
		PriceHistory: priceHistory,
	}, nil
}

func toFloat(v interface{}) (float64, error) {
	switch x := v.(type) {
	case int:
		return float64(x), nil
	case float64:
		return x, nil
	case bool:
		if x {
			return 1, nil
		}
		return 0, nil
	}
	return 0, fmt.Errorf("expected a number, got %T", v)
}

func (h ruleAgentHandler) functions(symbol string, date time.Time) map[string]goval.ExpressionFunction {
	history := func(n int) []decimal.Decimal {
		if h.PriceHistory == nil {
			return []decimal.Decimal{}
		}
		return h.PriceHistory.History(symbol, date, n)
	}

	return map[string]goval.ExpressionFunction{
		// priceDaysAgo(n) is the close n trading days back; 0 is today
		"priceDaysAgo": func(args ...interface{}) (interface{}, error) {
			if len(args) != 1 {
				return 0, fmt.Errorf("priceDaysAgo needs 1 arg, got %d", len(args))
			}
			n, err := toFloat(args[0])
			if err != nil {
				return 0, err
			}
			prices := history(int(n) + 1)
			if int(n) < 0 || len(prices) < int(n)+1 {
				return 0, fmt.Errorf("no close %d days before %s", int(n), date.Format(time.DateOnly))
			}
			return prices[0].InexactFloat64(), nil
		},
		"sma": func(args ...interface{}) (interface{}, error) {
			if len(args) != 1 {
				return 0, fmt.Errorf("sma needs 1 arg, got %d", len(args))
			}
			n, err := toFloat(args[0])
			if err != nil {
				return 0, err
			}
			if int(n) <= 0 {
				return 0, fmt.Errorf("sma window must be positive, got %d", int(n))
			}
			prices := history(int(n))
			if len(prices) < int(n) {
				return 0, fmt.Errorf("only %d closes available for sma(%d)", len(prices), int(n))
			}
			sum := decimal.Zero
			for _, p := range prices {
				sum = sum.Add(p)
			}
			return sum.Div(decimal.NewFromInt(int64(len(prices)))).InexactFloat64(), nil
		},
		"floor": func(args ...interface{}) (interface{}, error) {
			if len(args) != 1 {
				return 0, fmt.Errorf("floor needs 1 arg, got %d", len(args))
			}
			x, err := toFloat(args[0])
			if err != nil {
				return 0, err
			}
			return math.Floor(x), nil
		},
		"min": func(args ...interface{}) (interface{}, error) {
			if len(args) != 2 {
				return 0, fmt.Errorf("min needs 2 args, got %d", len(args))
			}
			a, err := toFloat(args[0])
			if err != nil {
				return 0, err
			}
			b, err := toFloat(args[1])
			if err != nil {
				return 0, err
			}
			return math.Min(a, b), nil
		},
		"max": func(args ...interface{}) (interface{}, error) {
			if len(args) != 2 {
				return 0, fmt.Errorf("max needs 2 args, got %d", len(args))
			}
			a, err := toFloat(args[0])
			if err != nil {
				return 0, err
			}
			b, err := toFloat(args[1])
			if err != nil {
				return 0, err
			}
			return math.Max(a, b), nil
		},
	}
}

func variables(req domain.DecisionRequest, symbol string) map[string]interface{} {
	position := req.Ledger.Positions[symbol]
	return map[string]interface{}{
		"price":          req.Prices[symbol].InexactFloat64(),
		"cash":           req.Ledger.Cash.InexactFloat64(),
		"marginUsed":     req.Ledger.MarginUsed.InexactFloat64(),
		"longShares":     float64(position.LongShares),
		"shortShares":    float64(position.ShortShares),
		"longCostBasis":  position.LongCostBasis.InexactFloat64(),
		"shortCostBasis": position.ShortCostBasis.InexactFloat64(),
	}
}

func signalFor(action domain.Action) string {
	switch action {
	case domain.ActionBuy, domain.ActionCover:
		return domain.SignalBullish
	case domain.ActionSell, domain.ActionShort:
		return domain.SignalBearish
	}
	return domain.SignalNeutral
}

// evaluate returns the first matching rule's decision. A rule whose
// expression can't be evaluated (say sma before enough history) is skipped.
func (h ruleAgentHandler) evaluate(req domain.DecisionRequest, symbol string) (domain.Decision, string) {
	eval := goval.NewEvaluator()
	vars := variables(req, symbol)
	functions := h.functions(symbol, req.Date)

	for _, rule := range h.Rules {
		matched, err := eval.Evaluate(rule.When, vars, functions)
		if err != nil {
			continue
		}
		if ok, isBool := matched.(bool); !isBool || !ok {
			continue
		}

		quantity := 0.0
		if rule.Quantity != "" {
			q, err := eval.Evaluate(rule.Quantity, vars, functions)
			if err != nil {
				continue
			}
			quantity, err = toFloat(q)
			if err != nil {
				continue
			}
		}

		decision := domain.Decision{
			Action:   rule.Action,
			Quantity: quantity,
		}.Normalize()
		return decision, fmt.Sprintf("matched %q", rule.When)
	}

	return domain.HoldDecision(), "no rule matched"
}

func (h ruleAgentHandler) GetDecisions(ctx context.Context, req domain.DecisionRequest) (*domain.AgentOutput, error) {
	out := domain.EmptyAgentOutput()
	signals := map[string]domain.Signal{}
	for _, symbol := range req.Symbols {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		if _, ok := req.Prices[symbol]; !ok {
			out.Decisions[symbol] = domain.HoldDecision()
			continue
		}
		decision, reason := h.evaluate(req, symbol)
		out.Decisions[symbol] = decision
		signals[symbol] = domain.Signal{
			Signal:     signalFor(decision.Action),
			Confidence: 100,
			Reasoning:  reason,
		}
	}
	out.Signals[RuleAgentName] = signals

	return &out, nil
}
