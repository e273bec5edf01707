package domain

import (
	"encoding/json"
	"math"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type Decision struct {
	Action   Action  `json:"action"`
	Quantity float64 `json:"quantity"`
}

func HoldDecision() Decision {
	return Decision{Action: ActionHold, Quantity: 0}
}

// Normalize maps anything the executor can't act on to a hold or a zero
// quantity
func (d Decision) Normalize() Decision {
	action := Action(strings.ToLower(strings.TrimSpace(string(d.Action))))
	if !action.Valid() {
		return HoldDecision()
	}
	quantity := d.Quantity
	if math.IsNaN(quantity) || math.IsInf(quantity, 0) || quantity < 0 {
		quantity = 0
	}
	return Decision{
		Action:   action,
		Quantity: quantity,
	}
}

type rawDecision struct {
	Action   *string      `json:"action"`
	Quantity *json.Number `json:"quantity"`
}

// ParseDecision never fails; malformed input becomes a hold
func ParseDecision(raw []byte) Decision {
	r := rawDecision{}
	if err := json.Unmarshal(raw, &r); err != nil || r.Action == nil {
		return HoldDecision()
	}

	quantity := 0.0
	if r.Quantity != nil {
		q, err := r.Quantity.Float64()
		if err != nil {
			return HoldDecision()
		}
		quantity = q
	}

	return Decision{
		Action:   Action(*r.Action),
		Quantity: quantity,
	}.Normalize()
}

const (
	SignalBullish = "bullish"
	SignalBearish = "bearish"
	SignalNeutral = "neutral"
)

type Signal struct {
	Signal     string  `json:"signal"`
	Confidence float64 `json:"confidence"`
	Reasoning  string  `json:"reasoning,omitempty"`
}

type SignalCounts struct {
	Bullish int `json:"bullish"`
	Bearish int `json:"bearish"`
	Neutral int `json:"neutral"`
}

// AgentOutput is what a decision source returns for one trading day.
// Signals is keyed by agent name, then symbol.
type AgentOutput struct {
	Decisions map[string]Decision          `json:"decisions"`
	Signals   map[string]map[string]Signal `json:"analyst_signals"`
}

func EmptyAgentOutput() AgentOutput {
	return AgentOutput{
		Decisions: map[string]Decision{},
		Signals:   map[string]map[string]Signal{},
	}
}

func (o AgentOutput) DecisionFor(symbol string) Decision {
	d, ok := o.Decisions[symbol]
	if !ok {
		return HoldDecision()
	}
	return d.Normalize()
}

func (o AgentOutput) SignalCounts(symbol string) SignalCounts {
	counts := SignalCounts{}
	for _, signals := range o.Signals {
		s, ok := signals[symbol]
		if !ok {
			continue
		}
		switch strings.ToLower(s.Signal) {
		case SignalBullish:
			counts.Bullish++
		case SignalBearish:
			counts.Bearish++
		case SignalNeutral:
			counts.Neutral++
		}
	}
	return counts
}

type rawAgentOutput struct {
	Decisions map[string]json.RawMessage `json:"decisions"`
	Signals   map[string]map[string]any  `json:"analyst_signals"`
}

// ParseAgentOutput decodes an agent response. Each decision is parsed on
// its own so one bad entry doesn't discard the rest.
func ParseAgentOutput(raw []byte) AgentOutput {
	out := EmptyAgentOutput()

	r := rawAgentOutput{}
	if err := json.Unmarshal(raw, &r); err != nil {
		return out
	}

	for symbol, d := range r.Decisions {
		out.Decisions[symbol] = ParseDecision(d)
	}
	for agent, bySymbol := range r.Signals {
		out.Signals[agent] = map[string]Signal{}
		for symbol, v := range bySymbol {
			out.Signals[agent][symbol] = parseSignal(v)
		}
	}

	return out
}

// signals are loosely shaped; confidence may be a number or a string
func parseSignal(v any) Signal {
	m, ok := v.(map[string]any)
	if !ok {
		return Signal{}
	}
	s := Signal{}
	if signal, ok := m["signal"].(string); ok {
		s.Signal = strings.ToLower(signal)
	}
	switch c := m["confidence"].(type) {
	case float64:
		s.Confidence = c
	case string:
		if d, err := decimal.NewFromString(c); err == nil {
			s.Confidence = d.InexactFloat64()
		}
	}
	if reasoning, ok := m["reasoning"].(string); ok {
		s.Reasoning = reasoning
	}
	return s
}

type RunMetadata struct {
	RunID            uuid.UUID `json:"runID"`
	AgentName        string    `json:"agentName"`
	ModelName        string    `json:"modelName,omitempty"`
	ModelProvider    string    `json:"modelProvider,omitempty"`
	SelectedAnalysts []string  `json:"selectedAnalysts,omitempty"`
}

// DecisionRequest is everything a decision source sees for one day
type DecisionRequest struct {
	Symbols       []string                   `json:"symbols"`
	LookbackStart time.Time                  `json:"lookbackStart"`
	Date          time.Time                  `json:"date"`
	Ledger        LedgerSnapshot             `json:"ledger"`
	Prices        map[string]decimal.Decimal `json:"prices"`
	Metadata      RunMetadata                `json:"metadata"`
}

type Rule struct {
	Action   Action `yaml:"action" json:"action"`
	When     string `yaml:"when" json:"when"`
	Quantity string `yaml:"quantity" json:"quantity"`
}
