package domain

import (
	"errors"
	"fmt"

	"github.com/shopspring/decimal"
)

var ErrLedgerInvariant = errors.New("ledger invariant violated")

type Action string

const (
	ActionBuy   Action = "buy"
	ActionSell  Action = "sell"
	ActionShort Action = "short"
	ActionCover Action = "cover"
	ActionHold  Action = "hold"
)

func (a Action) Valid() bool {
	switch a {
	case ActionBuy, ActionSell, ActionShort, ActionCover, ActionHold:
		return true
	}
	return false
}

// Position is the long and short state held for a single symbol
type Position struct {
	LongShares      int64           `json:"longShares"`
	ShortShares     int64           `json:"shortShares"`
	LongCostBasis   decimal.Decimal `json:"longCostBasis"`
	ShortCostBasis  decimal.Decimal `json:"shortCostBasis"`
	ShortMarginUsed decimal.Decimal `json:"shortMarginUsed"`
}

func (p Position) NetShares() int64 {
	return p.LongShares - p.ShortShares
}

func (p Position) IsFlat() bool {
	return p.LongShares == 0 && p.ShortShares == 0
}

func (p Position) validate() error {
	if p.LongShares < 0 || p.ShortShares < 0 {
		return fmt.Errorf("negative share count long=%d short=%d", p.LongShares, p.ShortShares)
	}
	if p.LongCostBasis.IsNegative() || p.ShortCostBasis.IsNegative() || p.ShortMarginUsed.IsNegative() {
		return fmt.Errorf("negative basis or margin")
	}
	if p.LongShares == 0 && !p.LongCostBasis.IsZero() {
		return fmt.Errorf("flat long side has cost basis %s", p.LongCostBasis)
	}
	if p.ShortShares == 0 && (!p.ShortCostBasis.IsZero() || !p.ShortMarginUsed.IsZero()) {
		return fmt.Errorf("flat short side has cost basis %s and margin %s", p.ShortCostBasis, p.ShortMarginUsed)
	}
	return nil
}

type RealizedGain struct {
	Long  decimal.Decimal `json:"long"`
	Short decimal.Decimal `json:"short"`
}

func (r RealizedGain) Total() decimal.Decimal {
	return r.Long.Add(r.Short)
}

// LedgerEntry is a fully computed fill. Position holds the state of the
// symbol after the fill; the deltas apply to the ledger-level aggregates.
type LedgerEntry struct {
	Symbol       string
	Action       Action
	Quantity     int64
	Price        decimal.Decimal
	Position     Position
	CashDelta    decimal.Decimal
	MarginDelta  decimal.Decimal
	RealizedGain decimal.Decimal
}

// Ledger holds cash, margin and per-symbol positions for one simulation run.
// It has a single owner; nothing here is safe for concurrent use.
type Ledger struct {
	cash          decimal.Decimal
	marginUsed    decimal.Decimal
	positions     map[string]*Position
	realizedGains map[string]*RealizedGain

	// insertion order, so iteration is deterministic
	symbols []string
}

func NewLedger(initialCash decimal.Decimal, symbols []string) (*Ledger, error) {
	if initialCash.IsNegative() {
		return nil, fmt.Errorf("cannot create ledger with negative cash %s", initialCash)
	}
	l := &Ledger{
		cash:          initialCash,
		marginUsed:    decimal.Zero,
		positions:     map[string]*Position{},
		realizedGains: map[string]*RealizedGain{},
	}
	for _, symbol := range symbols {
		l.track(symbol)
	}
	return l, nil
}

func (l *Ledger) track(symbol string) {
	if _, ok := l.positions[symbol]; ok {
		return
	}
	l.positions[symbol] = &Position{}
	l.realizedGains[symbol] = &RealizedGain{}
	l.symbols = append(l.symbols, symbol)
}

func (l Ledger) Cash() decimal.Decimal {
	return l.cash
}

func (l Ledger) MarginUsed() decimal.Decimal {
	return l.marginUsed
}

func (l Ledger) Symbols() []string {
	out := make([]string, len(l.symbols))
	copy(out, l.symbols)
	return out
}

// Position returns a copy of the symbol's position; unknown symbols are flat
func (l Ledger) Position(symbol string) Position {
	if p, ok := l.positions[symbol]; ok {
		return *p
	}
	return Position{}
}

func (l Ledger) RealizedGain(symbol string) RealizedGain {
	if r, ok := l.realizedGains[symbol]; ok {
		return *r
	}
	return RealizedGain{}
}

func (l Ledger) TotalRealizedGains() decimal.Decimal {
	total := decimal.Zero
	for _, r := range l.realizedGains {
		total = total.Add(r.Total())
	}
	return total
}

// Apply is the only way to mutate the ledger. If the result breaks an
// invariant the ledger is restored and an error wrapping
// ErrLedgerInvariant is returned.
func (l *Ledger) Apply(e LedgerEntry) error {
	l.track(e.Symbol)

	prevPosition := *l.positions[e.Symbol]
	prevGain := *l.realizedGains[e.Symbol]
	prevCash, prevMargin := l.cash, l.marginUsed

	position := e.Position
	l.positions[e.Symbol] = &position
	l.cash = l.cash.Add(e.CashDelta)
	l.marginUsed = l.marginUsed.Add(e.MarginDelta)

	switch e.Action {
	case ActionSell:
		l.realizedGains[e.Symbol].Long = prevGain.Long.Add(e.RealizedGain)
	case ActionCover:
		l.realizedGains[e.Symbol].Short = prevGain.Short.Add(e.RealizedGain)
	}

	if err := l.Validate(); err != nil {
		*l.positions[e.Symbol] = prevPosition
		*l.realizedGains[e.Symbol] = prevGain
		l.cash, l.marginUsed = prevCash, prevMargin
		return fmt.Errorf("failed to apply %s %d %s @ %s: %w", e.Action, e.Quantity, e.Symbol, e.Price, err)
	}

	return nil
}

func (l Ledger) Validate() error {
	if l.cash.IsNegative() {
		return fmt.Errorf("%w: negative cash %s", ErrLedgerInvariant, l.cash)
	}
	if l.marginUsed.IsNegative() {
		return fmt.Errorf("%w: negative margin used %s", ErrLedgerInvariant, l.marginUsed)
	}

	marginSum := decimal.Zero
	for symbol, p := range l.positions {
		if err := p.validate(); err != nil {
			return fmt.Errorf("%w: %s: %s", ErrLedgerInvariant, symbol, err.Error())
		}
		marginSum = marginSum.Add(p.ShortMarginUsed)
	}
	if !marginSum.Equal(l.marginUsed) {
		return fmt.Errorf("%w: margin used %s does not match position margin %s", ErrLedgerInvariant, l.marginUsed, marginSum)
	}

	return nil
}

// LedgerSnapshot is a point-in-time copy handed to readers outside the
// simulation loop
type LedgerSnapshot struct {
	Cash          decimal.Decimal         `json:"cash"`
	MarginUsed    decimal.Decimal         `json:"marginUsed"`
	Positions     map[string]Position     `json:"positions"`
	RealizedGains map[string]RealizedGain `json:"realizedGains"`
}

func (l Ledger) Snapshot() LedgerSnapshot {
	out := LedgerSnapshot{
		Cash:          l.cash,
		MarginUsed:    l.marginUsed,
		Positions:     map[string]Position{},
		RealizedGains: map[string]RealizedGain{},
	}
	for _, symbol := range l.symbols {
		out.Positions[symbol] = *l.positions[symbol]
		out.RealizedGains[symbol] = *l.realizedGains[symbol]
	}
	return out
}
