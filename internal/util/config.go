package util

import (
	"agentbacktest/internal/domain"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"gopkg.in/yaml.v3"
)

const (
	PriceSourceCsv      = "csv"
	PriceSourcePostgres = "postgres"
	PriceSourceYahoo    = "yahoo"

	AgentKindFile  = "file"
	AgentKindRules = "rules"
	AgentKindGpt   = "gpt"

	DefaultLookbackDays = 30
)

type PriceSourceConfig struct {
	Source string `yaml:"source" json:"source"`
	Path   string `yaml:"path,omitempty" json:"path,omitempty"`
}

type AgentConfig struct {
	Kind  string        `yaml:"kind" json:"kind"`
	Name  string        `yaml:"name,omitempty" json:"name,omitempty"`
	Path  string        `yaml:"path,omitempty" json:"path,omitempty"`
	Model string        `yaml:"model,omitempty" json:"model,omitempty"`
	Rules []domain.Rule `yaml:"rules,omitempty" json:"rules,omitempty"`
}

// BacktestConfig is the run file the CLI reads. Numbers are kept as
// strings so money parses straight into decimals.
type BacktestConfig struct {
	Tickers        []string          `yaml:"tickers" json:"tickers"`
	Start          string            `yaml:"start" json:"start"`
	End            string            `yaml:"end" json:"end"`
	InitialCapital string            `yaml:"initialCapital" json:"initialCapital"`
	MarginRatio    string            `yaml:"marginRatio" json:"marginRatio"`
	LookbackDays   int               `yaml:"lookbackDays,omitempty" json:"lookbackDays,omitempty"`
	SkipSeed       bool              `yaml:"skipSeed,omitempty" json:"skipSeed,omitempty"`
	Prices         PriceSourceConfig `yaml:"prices" json:"prices"`
	Agent          AgentConfig       `yaml:"agent" json:"agent"`
	Persist        bool              `yaml:"persist,omitempty" json:"persist,omitempty"`
}

func LoadConfig(path string) (*BacktestConfig, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open config %s: %w", path, err)
	}
	defer f.Close()

	cfg, err := LoadConfigFromReader(f)
	if err != nil {
		return nil, fmt.Errorf("failed to load config %s: %w", path, err)
	}
	return cfg, nil
}

func LoadConfigFromReader(r io.Reader) (*BacktestConfig, error) {
	cfg := BacktestConfig{}
	decoder := yaml.NewDecoder(r)
	decoder.KnownFields(true)
	if err := decoder.Decode(&cfg); err != nil {
		return nil, fmt.Errorf("failed to decode config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *BacktestConfig) Validate() error {
	if len(c.Tickers) == 0 {
		return errors.New("config: tickers is required")
	}
	for i, t := range c.Tickers {
		c.Tickers[i] = strings.ToUpper(strings.TrimSpace(t))
		if c.Tickers[i] == "" {
			return fmt.Errorf("config: ticker %d is empty", i)
		}
	}

	start, err := c.StartDate()
	if err != nil {
		return fmt.Errorf("config: %w", err)
	}
	end, err := c.EndDate()
	if err != nil {
		return fmt.Errorf("config: %w", err)
	}
	if start.After(end) {
		return errors.New("config: start must not be after end")
	}

	capital, err := c.Capital()
	if err != nil {
		return fmt.Errorf("config: %w", err)
	}
	if !capital.IsPositive() {
		return errors.New("config: initialCapital must be positive")
	}

	ratio, err := c.Margin()
	if err != nil {
		return fmt.Errorf("config: %w", err)
	}
	if ratio.IsNegative() || ratio.GreaterThan(decimal.NewFromInt(1)) {
		return errors.New("config: marginRatio must be between 0 and 1")
	}

	if c.LookbackDays < 0 {
		return errors.New("config: lookbackDays must not be negative")
	}
	if c.LookbackDays == 0 {
		c.LookbackDays = DefaultLookbackDays
	}

	switch c.Prices.Source {
	case PriceSourceCsv:
		if c.Prices.Path == "" {
			return errors.New("config: prices.path is required for csv prices")
		}
	case PriceSourcePostgres, PriceSourceYahoo:
	default:
		return fmt.Errorf("config: unknown price source %q", c.Prices.Source)
	}

	switch c.Agent.Kind {
	case AgentKindFile:
		if c.Agent.Path == "" {
			return errors.New("config: agent.path is required for file agents")
		}
	case AgentKindRules:
		if len(c.Agent.Rules) == 0 {
			return errors.New("config: agent.rules is required for rule agents")
		}
	case AgentKindGpt:
	default:
		return fmt.Errorf("config: unknown agent kind %q", c.Agent.Kind)
	}
	if c.Agent.Name == "" {
		c.Agent.Name = c.Agent.Kind
	}

	return nil
}

func (c BacktestConfig) StartDate() (time.Time, error) {
	return ParseDate(c.Start)
}

func (c BacktestConfig) EndDate() (time.Time, error) {
	return ParseDate(c.End)
}

func (c BacktestConfig) Capital() (decimal.Decimal, error) {
	d, err := decimal.NewFromString(strings.TrimSpace(c.InitialCapital))
	if err != nil {
		return decimal.Zero, fmt.Errorf("invalid initialCapital %q: %w", c.InitialCapital, err)
	}
	return d, nil
}

// Margin defaults to 0 when unset
func (c BacktestConfig) Margin() (decimal.Decimal, error) {
	if strings.TrimSpace(c.MarginRatio) == "" {
		return decimal.Zero, nil
	}
	d, err := decimal.NewFromString(strings.TrimSpace(c.MarginRatio))
	if err != nil {
		return decimal.Zero, fmt.Errorf("invalid marginRatio %q: %w", c.MarginRatio, err)
	}
	return d, nil
}
