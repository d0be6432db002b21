package finance

import (
	"opsboard/internal/domain"
)

// DeriveOrder returns the stored fields that follow from changed. Profit is
// recomputed whenever one of its inputs is part of the change.
func DeriveOrder(o domain.Order, changed domain.Patch) domain.Patch {
	for _, input := range []string{domain.OrderSoldPrice, domain.OrderFeePercent, domain.OrderSourcingCost} {
		if _, ok := changed[input]; ok {
			return domain.Patch{
				domain.OrderProfit: OrderProfit(o.SoldPrice, o.FeePercent, o.SourcingCost),
			}
		}
	}
	return nil
}
