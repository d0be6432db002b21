// Package finance derives catalog-level projected profit and order-level
// realized profit. The two formulas are distinct and stay distinct.
package finance

import (
	"github.com/shopspring/decimal"
)

const (
	// MarketplaceFeePercent is the marketplace's cut of the after-discount price.
	MarketplaceFeePercent = 12
	// DefaultDiscountPercent applies when a product has no discount set.
	DefaultDiscountPercent = 30
)

var hundred = decimal.NewFromInt(100)

type Projection struct {
	AfterDiscount  decimal.NullDecimal
	MarketplaceFee decimal.NullDecimal
	AfterFee       decimal.NullDecimal
	// Profit is invalid when the list price or sourcing cost is unknown.
	Profit        decimal.NullDecimal
	ProfitPercent *int64
}

func (p Projection) Sign() Sign {
	return SignOf(p.Profit)
}

// AfterDiscount is listPrice * (1 - discountPercent/100).
func AfterDiscount(listPrice, discountPercent decimal.NullDecimal) decimal.NullDecimal {
	if !listPrice.Valid {
		return decimal.NullDecimal{}
	}
	discount := decimal.NewFromInt(DefaultDiscountPercent)
	if discountPercent.Valid {
		discount = discountPercent.Decimal
	}
	factor := decimal.NewFromInt(1).Sub(discount.Div(hundred))
	return decimal.NewNullDecimal(listPrice.Decimal.Mul(factor))
}

func MarketplaceFee(afterDiscount decimal.Decimal) decimal.Decimal {
	return afterDiscount.Mul(decimal.NewFromInt(MarketplaceFeePercent)).Div(hundred)
}

// ProjectProduct computes the theoretical figures shown next to a catalog entry.
func ProjectProduct(listPrice, discountPercent, sourcingCost decimal.NullDecimal) Projection {
	var proj Projection

	proj.AfterDiscount = AfterDiscount(listPrice, discountPercent)
	if !proj.AfterDiscount.Valid {
		return proj
	}
	afterDiscount := proj.AfterDiscount.Decimal

	fee := MarketplaceFee(afterDiscount)
	proj.MarketplaceFee = decimal.NewNullDecimal(fee)
	afterFee := afterDiscount.Sub(fee)
	proj.AfterFee = decimal.NewNullDecimal(afterFee)

	if !sourcingCost.Valid {
		return proj
	}
	profit := afterFee.Sub(sourcingCost.Decimal)
	proj.Profit = decimal.NewNullDecimal(profit)

	if !afterDiscount.IsZero() {
		pct := profit.Div(afterDiscount).Mul(hundred).Round(0).IntPart()
		proj.ProfitPercent = &pct
	}
	return proj
}

// OrderProfit is soldPrice - soldPrice*feePercent/100 - sourcingCost, rounded
// to two decimals for storage.
func OrderProfit(soldPrice, feePercent, sourcingCost decimal.Decimal) decimal.Decimal {
	fee := soldPrice.Mul(feePercent).Div(hundred)
	return soldPrice.Sub(fee).Sub(sourcingCost).Round(2)
}

// Money renders an amount with two-decimal precision.
func Money(d decimal.Decimal) string {
	return d.StringFixed(2)
}

// NullMoney renders an amount or "" when it is unknown.
func NullMoney(d decimal.NullDecimal) string {
	if !d.Valid {
		return ""
	}
	return Money(d.Decimal)
}
