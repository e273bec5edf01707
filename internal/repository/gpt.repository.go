package repository

import (
	"agentbacktest/internal/domain"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/ayush6624/go-chatgpt"
)

const defaultGptModel = string(chatgpt.GPT4)

type gptRepositoryHandler struct {
	GptClient *chatgpt.Client
	Model     string
}

func NewGptRepository(apiKey, model string) (DecisionRepository, error) {
	client, err := chatgpt.NewClient(apiKey)
	if err != nil {
		return nil, fmt.Errorf("failed to construct gpt client: %w", err)
	}
	if model == "" {
		model = defaultGptModel
	}

	return gptRepositoryHandler{
		GptClient: client,
		Model:     model,
	}, nil
}

const systemPrompt = `
You are a portfolio manager making daily trading decisions for a small set of tickers. You may go long or short.

For each ticker you must output exactly one decision:
- action: one of "buy", "sell", "short", "cover", "hold"
- quantity: a whole number of shares (0 for hold)

Rules:
- "buy" opens or adds to a long position and costs cash
- "sell" reduces an existing long position; you cannot sell more than you hold
- "short" opens or adds to a short position; part of the proceeds is posted as margin
- "cover" buys back shares of an existing short position
- orders you cannot afford will be reduced, so size them sensibly

You will also give your view of each ticker as a signal of "bullish", "bearish" or "neutral" with a confidence from 0 to 100.

Respond with JSON only, in this shape:
{
  "decisions": {"TICKER": {"action": "buy", "quantity": 10}},
  "analyst_signals": {"gpt": {"TICKER": {"signal": "bullish", "confidence": 70, "reasoning": "..."}}}
}
`

type gptPromptInput struct {
	Date          string            `json:"date"`
	LookbackStart string            `json:"lookbackStart"`
	Tickers       []string          `json:"tickers"`
	Prices        map[string]string `json:"prices"`
	Cash          string            `json:"cash"`
	MarginUsed    string            `json:"marginUsed"`
	Positions     map[string]any    `json:"positions"`
}

func buildUserPrompt(req domain.DecisionRequest) (string, error) {
	prices := map[string]string{}
	for symbol, p := range req.Prices {
		prices[symbol] = p.StringFixed(2)
	}
	positions := map[string]any{}
	for symbol, p := range req.Ledger.Positions {
		positions[symbol] = map[string]any{
			"longShares":     p.LongShares,
			"shortShares":    p.ShortShares,
			"longCostBasis":  p.LongCostBasis.StringFixed(2),
			"shortCostBasis": p.ShortCostBasis.StringFixed(2),
		}
	}

	b, err := json.Marshal(gptPromptInput{
		Date:          req.Date.Format(time.DateOnly),
		LookbackStart: req.LookbackStart.Format(time.DateOnly),
		Tickers:       req.Symbols,
		Prices:        prices,
		Cash:          req.Ledger.Cash.StringFixed(2),
		MarginUsed:    req.Ledger.MarginUsed.StringFixed(2),
		Positions:     positions,
	})
	if err != nil {
		return "", fmt.Errorf("failed to marshal prompt input: %w", err)
	}

	return string(b), nil
}

var jsonObjectRegex = regexp.MustCompile(`(?s)\{.*\}`)

// extractJson pulls the outermost object out of a response that may wrap it
// in prose or a code fence
func extractJson(content string) ([]byte, error) {
	match := jsonObjectRegex.FindString(strings.TrimSpace(content))
	if match == "" {
		return nil, errors.New("no json object in response")
	}
	return []byte(match), nil
}

func (h gptRepositoryHandler) GetDecisions(ctx context.Context, req domain.DecisionRequest) (*domain.AgentOutput, error) {
	userPrompt, err := buildUserPrompt(req)
	if err != nil {
		return nil, err
	}

	res, err := h.GptClient.Send(ctx, &chatgpt.ChatCompletionRequest{
		Model: chatgpt.ChatGPTModel(h.Model),
		Messages: []chatgpt.ChatMessage{
			{
				Role:    chatgpt.ChatGPTModelRoleSystem,
				Content: systemPrompt,
			},
			{
				Role:    chatgpt.ChatGPTModelRoleUser,
				Content: userPrompt,
			},
		},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to get gpt response: %w", err)
	}
	if len(res.Choices) == 0 {
		return nil, errors.New("gpt response had no choices")
	}

	raw, err := extractJson(res.Choices[0].Message.Content)
	if err != nil {
		return nil, fmt.Errorf("failed to parse gpt response: %w", err)
	}

	out := domain.ParseAgentOutput(raw)
	return &out, nil
}
