package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

const (
	TableProducts          = "products"
	TableProductVariations = "product_variations"
	TableProductPricing    = "product_pricing"
)

const (
	ProductName            = "name"
	ProductDescription     = "description"
	ProductImageURL        = "image_url"
	ProductLink            = "link"
	ProductStatusField     = "status"
	ProductListPrice       = "list_price"
	ProductDiscountPercent = "discount_percent"
	ProductSourcingCost    = "sourcing_cost"
	ProductSupplier        = "supplier"
)

type ProductStatus string

const (
	ProductStatusActive        ProductStatus = "active"
	ProductStatusAwaitingQuote ProductStatus = "awaiting_quote"
	ProductStatusQuoteReceived ProductStatus = "quote_received"
)

func (s ProductStatus) Valid() bool {
	switch s {
	case ProductStatusActive, ProductStatusAwaitingQuote, ProductStatusQuoteReceived:
		return true
	default:
		return false
	}
}

// RegionTag is a shipping-destination bucket used to pick a price tier.
type RegionTag string

const (
	RegionDomestic      RegionTag = "domestic"
	RegionCanada        RegionTag = "canada"
	RegionUK            RegionTag = "uk"
	RegionEurope        RegionTag = "europe"
	RegionAustralia     RegionTag = "australia"
	RegionInternational RegionTag = "international"
)

var Regions = []RegionTag{
	RegionDomestic,
	RegionCanada,
	RegionUK,
	RegionEurope,
	RegionAustralia,
	RegionInternational,
}

func (r RegionTag) Valid() bool {
	for _, tag := range Regions {
		if tag == r {
			return true
		}
	}
	return false
}

type Product struct {
	ID              string
	StoreID         string
	Name            string
	Description     string
	ImageURL        string
	Link            string
	Status          ProductStatus
	ListPrice       decimal.NullDecimal
	DiscountPercent decimal.NullDecimal
	SourcingCost    decimal.NullDecimal
	Supplier        string
	Variations      []ProductVariation
	Pricing         []ProductPricing
	CreatedAt       time.Time
}

type ProductVariation struct {
	ID        string
	ProductID string
	Name      string
	ImageURL  string
	Price     decimal.NullDecimal
	Position  int
}

type ProductPricing struct {
	ID        string
	ProductID string
	Region    RegionTag
	Price     decimal.Decimal
	LeadTime  string
}

var ProductSchema = NewSchema(TableProducts,
	FieldSpec{Name: ProductName, Kind: KindText},
	FieldSpec{Name: ProductDescription, Kind: KindTextarea},
	FieldSpec{Name: ProductImageURL, Kind: KindLink},
	FieldSpec{Name: ProductLink, Kind: KindLink},
	FieldSpec{Name: ProductStatusField, Kind: KindSelect, Options: []string{
		string(ProductStatusActive),
		string(ProductStatusAwaitingQuote),
		string(ProductStatusQuoteReceived),
	}},
	FieldSpec{Name: ProductListPrice, Kind: KindNumber, Unit: UnitMoney, Nullable: true, OperatorOnly: true},
	FieldSpec{Name: ProductDiscountPercent, Kind: KindNumber, Unit: UnitPercent, Nullable: true, OperatorOnly: true},
	FieldSpec{Name: ProductSourcingCost, Kind: KindNumber, Unit: UnitMoney, Nullable: true, OperatorOnly: true},
	FieldSpec{Name: ProductSupplier, Kind: KindText, OperatorOnly: true},
)

func NewProduct(id, storeID, name string, createdAt time.Time) Product {
	return Product{
		ID:        id,
		StoreID:   storeID,
		Name:      name,
		Status:    ProductStatusActive,
		CreatedAt: createdAt,
	}
}

func (p Product) RecordID() string {
	return p.ID
}

// Patched returns a copy of p with the scalar columns in patch applied.
// Variations and pricing tiers are replaced through their own operations.
func (p Product) Patched(patch Patch) Product {
	for field, v := range patch {
		switch field {
		case ProductName:
			p.Name = asString(v)
		case ProductDescription:
			p.Description = asString(v)
		case ProductImageURL:
			p.ImageURL = asString(v)
		case ProductLink:
			p.Link = asString(v)
		case ProductStatusField:
			if s := ProductStatus(asString(v)); s.Valid() {
				p.Status = s
			}
		case ProductListPrice:
			p.ListPrice = asNullDecimal(v)
		case ProductDiscountPercent:
			p.DiscountPercent = asNullDecimal(v)
		case ProductSourcingCost:
			p.SourcingCost = asNullDecimal(v)
		case ProductSupplier:
			p.Supplier = asString(v)
		}
	}
	return p
}

func (p Product) Variation(id string) (ProductVariation, bool) {
	for _, v := range p.Variations {
		if v.ID == id {
			return v, true
		}
	}
	return ProductVariation{}, false
}

// WithPricing returns a copy of p whose tier for pricing.Region is replaced in
// place, or appended when the region has no tier yet.
func (p Product) WithPricing(pricing ProductPricing) Product {
	tiers := make([]ProductPricing, 0, len(p.Pricing)+1)
	replaced := false
	for _, t := range p.Pricing {
		if t.Region == pricing.Region {
			tiers = append(tiers, pricing)
			replaced = true
			continue
		}
		tiers = append(tiers, t)
	}
	if !replaced {
		tiers = append(tiers, pricing)
	}
	p.Pricing = tiers
	return p
}

// WithVariation returns a copy of p with v inserted by position.
func (p Product) WithVariation(v ProductVariation) Product {
	vars := make([]ProductVariation, 0, len(p.Variations)+1)
	inserted := false
	for _, existing := range p.Variations {
		if existing.ID == v.ID {
			continue
		}
		if !inserted && v.Position < existing.Position {
			vars = append(vars, v)
			inserted = true
		}
		vars = append(vars, existing)
	}
	if !inserted {
		vars = append(vars, v)
	}
	p.Variations = vars
	return p
}

func (p Product) WithoutVariation(id string) Product {
	vars := make([]ProductVariation, 0, len(p.Variations))
	for _, v := range p.Variations {
		if v.ID != id {
			vars = append(vars, v)
		}
	}
	p.Variations = vars
	return p
}

// NextVariationPosition is one past the highest position in use.
func (p Product) NextVariationPosition() int {
	next := 0
	for _, v := range p.Variations {
		if v.Position >= next {
			next = v.Position + 1
		}
	}
	return next
}
