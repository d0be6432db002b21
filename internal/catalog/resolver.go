// Package catalog turns a product or variation chosen for an order into the
// field overrides the order adopts.
package catalog

import (
	"opsboard/internal/domain"
	"opsboard/internal/pricing"
)

// VariationSeparator joins product and variation names in an order's display name.
const VariationSeparator = " – "

// ResolveProduct builds the patch for selecting product on order. A nil product
// clears the product and variation references and nothing else.
func ResolveProduct(order domain.Order, product *domain.Product) domain.Patch {
	if product == nil {
		return domain.Patch{
			domain.OrderProductID:   (*string)(nil),
			domain.OrderVariationID: (*string)(nil),
		}
	}

	id := product.ID
	patch := domain.Patch{
		domain.OrderProductID:   &id,
		domain.OrderVariationID: (*string)(nil),
		domain.OrderProductName: product.Name,
		domain.OrderProductLink: product.Link,
		domain.OrderSupplier:    product.Supplier,
		domain.OrderImageURL:    product.ImageURL,
	}
	if tier, ok := pricing.ForAddress(product.Pricing, order.Address); ok {
		patch[domain.OrderSoldPrice] = tier.Price
	}
	if product.SourcingCost.Valid {
		patch[domain.OrderSourcingCost] = product.SourcingCost.Decimal
	}
	return patch
}

// ResolveVariation builds the patch for selecting variation of product on
// order. Variation fields take priority and product fields are the fallback;
// a nil variation reverts name, image and price to the bare product.
func ResolveVariation(order domain.Order, product domain.Product, variation *domain.ProductVariation) domain.Patch {
	patch := domain.Patch{
		domain.OrderProductName: product.Name,
		domain.OrderImageURL:    product.ImageURL,
	}
	if tier, ok := pricing.ForAddress(product.Pricing, order.Address); ok {
		patch[domain.OrderSoldPrice] = tier.Price
	}

	if variation == nil {
		patch[domain.OrderVariationID] = (*string)(nil)
		return patch
	}

	id := variation.ID
	patch[domain.OrderVariationID] = &id
	patch[domain.OrderProductName] = DisplayName(product.Name, variation.Name)
	if variation.ImageURL != "" {
		patch[domain.OrderImageURL] = variation.ImageURL
	}
	if variation.Price.Valid {
		patch[domain.OrderSoldPrice] = variation.Price.Decimal
	}
	return patch
}

func DisplayName(productName, variationName string) string {
	if variationName == "" {
		return productName
	}
	return productName + VariationSeparator + variationName
}
