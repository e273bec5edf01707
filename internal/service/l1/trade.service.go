package l1_service

import (
	"agentbacktest/internal/domain"
	"fmt"
	"math"

	"github.com/shopspring/decimal"
)

type TradeService interface {
	Execute(ledger *domain.Ledger, in ExecuteTradeInput) (int64, error)
}

type ExecuteTradeInput struct {
	Symbol   string
	Action   domain.Action
	Quantity float64
	Price    decimal.Decimal
}

type tradeServiceHandler struct {
	// fraction of short proceeds posted as collateral
	MarginRatio decimal.Decimal
}

func NewTradeService(marginRatio decimal.Decimal) (TradeService, error) {
	if marginRatio.IsNegative() || marginRatio.GreaterThan(decimal.NewFromInt(1)) {
		return nil, fmt.Errorf("margin ratio must be between 0 and 1, got %s", marginRatio)
	}
	return tradeServiceHandler{
		MarginRatio: marginRatio,
	}, nil
}

// Execute clamps the request to what the ledger can afford and applies it.
// It returns the executed share count. Infeasible requests are not errors;
// the only error is a ledger invariant violation, which callers should
// treat as fatal.
func (h tradeServiceHandler) Execute(ledger *domain.Ledger, in ExecuteTradeInput) (int64, error) {
	if math.IsNaN(in.Quantity) || math.IsInf(in.Quantity, 0) || in.Quantity <= 0 {
		return 0, nil
	}
	if !in.Price.IsPositive() {
		return 0, nil
	}
	// anything past int64 range is clamped below like any other oversized request
	quantity := int64(math.MaxInt64)
	if q := math.Floor(in.Quantity); q < math.MaxInt64 {
		quantity = int64(q)
	}
	if quantity <= 0 {
		return 0, nil
	}

	position := ledger.Position(in.Symbol)
	cash := ledger.Cash()

	var (
		entry domain.LedgerEntry
		ok    bool
	)
	switch in.Action {
	case domain.ActionBuy:
		entry, ok = buy(cash, position, quantity, in.Price)
	case domain.ActionSell:
		entry, ok = sell(position, quantity, in.Price)
	case domain.ActionShort:
		entry, ok = short(cash, position, quantity, in.Price, h.MarginRatio)
	case domain.ActionCover:
		entry, ok = cover(cash, position, quantity, in.Price)
	default:
		return 0, nil
	}
	if !ok {
		return 0, nil
	}

	entry.Symbol = in.Symbol
	entry.Action = in.Action
	entry.Price = in.Price

	if err := ledger.Apply(entry); err != nil {
		return 0, err
	}

	return entry.Quantity, nil
}

// maxAffordable is the largest q with q*unitCost <= cash
func maxAffordable(cash, unitCost decimal.Decimal) int64 {
	if !unitCost.IsPositive() || !cash.IsPositive() {
		return 0
	}
	q := cash.Div(unitCost).Floor().IntPart()
	// Div rounds at DivisionPrecision, so walk back if it rounded up
	for q > 0 && unitCost.Mul(decimal.NewFromInt(q)).GreaterThan(cash) {
		q--
	}
	return q
}

func weightedAverage(oldBasis decimal.Decimal, oldShares int64, addedCost decimal.Decimal, addedShares int64) decimal.Decimal {
	total := oldShares + addedShares
	if total <= 0 {
		return decimal.Zero
	}
	return oldBasis.Mul(decimal.NewFromInt(oldShares)).
		Add(addedCost).
		Div(decimal.NewFromInt(total))
}

func buy(cash decimal.Decimal, position domain.Position, quantity int64, price decimal.Decimal) (domain.LedgerEntry, bool) {
	cost := price.Mul(decimal.NewFromInt(quantity))
	if cost.GreaterThan(cash) {
		quantity = maxAffordable(cash, price)
		if quantity <= 0 {
			return domain.LedgerEntry{}, false
		}
		cost = price.Mul(decimal.NewFromInt(quantity))
	}

	position.LongCostBasis = weightedAverage(position.LongCostBasis, position.LongShares, cost, quantity)
	position.LongShares += quantity

	return domain.LedgerEntry{
		Quantity:  quantity,
		Position:  position,
		CashDelta: cost.Neg(),
	}, true
}

func sell(position domain.Position, quantity int64, price decimal.Decimal) (domain.LedgerEntry, bool) {
	if quantity > position.LongShares {
		quantity = position.LongShares
	}
	if quantity <= 0 {
		return domain.LedgerEntry{}, false
	}

	q := decimal.NewFromInt(quantity)
	realized := price.Sub(position.LongCostBasis).Mul(q)

	position.LongShares -= quantity
	if position.LongShares == 0 {
		position.LongCostBasis = decimal.Zero
	}

	return domain.LedgerEntry{
		Quantity:     quantity,
		Position:     position,
		CashDelta:    price.Mul(q),
		RealizedGain: realized,
	}, true
}

func short(cash decimal.Decimal, position domain.Position, quantity int64, price, marginRatio decimal.Decimal) (domain.LedgerEntry, bool) {
	proceeds := price.Mul(decimal.NewFromInt(quantity))
	marginRequired := proceeds.Mul(marginRatio)
	if marginRequired.GreaterThan(cash) {
		// unreachable when marginRatio is 0 since nothing is required
		quantity = maxAffordable(cash, price.Mul(marginRatio))
		if quantity <= 0 {
			return domain.LedgerEntry{}, false
		}
		proceeds = price.Mul(decimal.NewFromInt(quantity))
		marginRequired = proceeds.Mul(marginRatio)
	}

	position.ShortCostBasis = weightedAverage(position.ShortCostBasis, position.ShortShares, proceeds, quantity)
	position.ShortShares += quantity
	position.ShortMarginUsed = position.ShortMarginUsed.Add(marginRequired)

	return domain.LedgerEntry{
		Quantity:    quantity,
		Position:    position,
		CashDelta:   proceeds.Sub(marginRequired),
		MarginDelta: marginRequired,
	}, true
}

// marginReleased is the share of posted margin freed by covering quantity
// shares. Closing the whole short frees all of it.
func marginReleased(position domain.Position, quantity int64) decimal.Decimal {
	if position.ShortShares <= 0 || quantity >= position.ShortShares {
		// shares == 0 can't happen after clamping; release everything
		return position.ShortMarginUsed
	}
	return position.ShortMarginUsed.
		Mul(decimal.NewFromInt(quantity)).
		Div(decimal.NewFromInt(position.ShortShares))
}

func coverCost(position domain.Position, quantity int64, price decimal.Decimal) decimal.Decimal {
	return price.Mul(decimal.NewFromInt(quantity)).Sub(marginReleased(position, quantity))
}

// maxCoverable is the largest quantity whose net cover cost fits in cash
func maxCoverable(cash decimal.Decimal, position domain.Position, quantity int64, price decimal.Decimal) int64 {
	marginPerShare := position.ShortMarginUsed.Div(decimal.NewFromInt(position.ShortShares))
	unitCost := price.Sub(marginPerShare)
	q := quantity
	if unitCost.IsPositive() {
		if affordable := cash.Div(unitCost).Floor().IntPart(); affordable < q {
			q = affordable
		}
	}
	for q > 0 && coverCost(position, q, price).GreaterThan(cash) {
		q--
	}
	return q
}

func cover(cash decimal.Decimal, position domain.Position, quantity int64, price decimal.Decimal) (domain.LedgerEntry, bool) {
	if quantity > position.ShortShares {
		quantity = position.ShortShares
	}
	if quantity <= 0 {
		return domain.LedgerEntry{}, false
	}
	if coverCost(position, quantity, price).GreaterThan(cash) {
		quantity = maxCoverable(cash, position, quantity, price)
		if quantity <= 0 {
			return domain.LedgerEntry{}, false
		}
	}

	q := decimal.NewFromInt(quantity)
	released := marginReleased(position, quantity)
	realized := position.ShortCostBasis.Sub(price).Mul(q)

	position.ShortShares -= quantity
	position.ShortMarginUsed = position.ShortMarginUsed.Sub(released)
	if position.ShortShares == 0 {
		position.ShortCostBasis = decimal.Zero
		position.ShortMarginUsed = decimal.Zero
	}

	return domain.LedgerEntry{
		Quantity:     quantity,
		Position:     position,
		CashDelta:    released.Sub(price.Mul(q)),
		MarginDelta:  released.Neg(),
		RealizedGain: realized,
	}, true
}
