package dto

import "time"

type VariationDTO struct {
	ID       string  `json:"id"`
	Name     string  `json:"name"`
	ImageURL string  `json:"imageUrl"`
	Price    *string `json:"price,omitempty"`
	Position int     `json:"position"`
}

type PricingDTO struct {
	ID       string  `json:"id"`
	Region   string  `json:"region"`
	Price    *string `json:"price,omitempty"`
	LeadTime string  `json:"leadTime"`
}

// ProductDTO is a catalog row. Keys of the editable columns match
// EditRequest.Field; projected figures are read-only.
type ProductDTO struct {
	ID              string         `json:"id"`
	Name            string         `json:"name"`
	Description     string         `json:"description"`
	ImageURL        string         `json:"image_url"`
	Link            string         `json:"link"`
	Status          string         `json:"status"`
	ListPrice       *string        `json:"list_price,omitempty"`
	DiscountPercent *string        `json:"discount_percent,omitempty"`
	SourcingCost    *string        `json:"sourcing_cost,omitempty"`
	Supplier        *string        `json:"supplier,omitempty"`
	Projection      *ProjectionDTO `json:"projection,omitempty"`
	Variations      []VariationDTO `json:"variations"`
	Pricing         []PricingDTO   `json:"pricing"`
	CreatedAt       time.Time      `json:"created_at"`
}

type ProjectionDTO struct {
	AfterDiscount  string `json:"afterDiscount"`
	MarketplaceFee string `json:"marketplaceFee"`
	AfterFee       string `json:"afterFee"`
	Profit         string `json:"profit"`
	ProfitPercent  *int64 `json:"profitPercent"`
	Sign           string `json:"sign"`
}

type ListProductsResponse struct {
	Products []ProductDTO `json:"products"`
	Stale    bool         `json:"stale"`
}

type ProductResponse struct {
	Product ProductDTO `json:"product"`
	Warning *Warning   `json:"warning,omitempty"`
}

type CreateProductRequest struct {
	Name string `json:"name"`
}

type UpsertPricingRequest struct {
	Price    string `json:"price"`
	LeadTime string `json:"leadTime"`
}

type AddVariationRequest struct {
	Name     string  `json:"name"`
	ImageURL string  `json:"imageUrl"`
	Price    *string `json:"price"`
}

type VariationResponse struct {
	Variation VariationDTO `json:"variation"`
}
