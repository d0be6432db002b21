package finance

import (
	"github.com/shopspring/decimal"
)

type Sign string

const (
	SignUnknown  Sign = "unknown"
	SignNegative Sign = "negative"
	SignZero     Sign = "zero"
	SignPositive Sign = "positive"
)

func SignOf(d decimal.NullDecimal) Sign {
	if !d.Valid {
		return SignUnknown
	}
	switch d.Decimal.Sign() {
	case -1:
		return SignNegative
	case 0:
		return SignZero
	default:
		return SignPositive
	}
}

// Line is the financial view of one order used for aggregation.
type Line struct {
	SoldPrice    decimal.Decimal
	FeePercent   decimal.Decimal
	SourcingCost decimal.Decimal
	Profit       decimal.Decimal
}

type Totals struct {
	Count        int
	Revenue      decimal.Decimal
	Fees         decimal.Decimal
	SourcingCost decimal.Decimal
	Profit       decimal.Decimal
}

// Sum aggregates the given lines. It reads the stored profit of each line
// instead of recomputing it.
func Sum(lines []Line) Totals {
	t := Totals{
		Revenue:      decimal.Zero,
		Fees:         decimal.Zero,
		SourcingCost: decimal.Zero,
		Profit:       decimal.Zero,
	}
	for _, l := range lines {
		t.Count++
		t.Revenue = t.Revenue.Add(l.SoldPrice)
		t.Fees = t.Fees.Add(l.SoldPrice.Mul(l.FeePercent).Div(hundred))
		t.SourcingCost = t.SourcingCost.Add(l.SourcingCost)
		t.Profit = t.Profit.Add(l.Profit)
	}
	t.Fees = t.Fees.Round(2)
	return t
}
