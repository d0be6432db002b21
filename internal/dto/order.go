package dto

import "time"

// OrderDTO is an order row as shown on the dashboard. Keys are the column
// names accepted by EditRequest.Field. Operator-only columns are nil for
// partners.
type OrderDTO struct {
	ID                   string    `json:"id"`
	OrderedAt            *string   `json:"ordered_at"`
	CustomerName         string    `json:"customer_name"`
	Address              string    `json:"address"`
	Region               string    `json:"region"`
	ProductName          string    `json:"product_name"`
	ProductID            *string   `json:"product_id"`
	VariationID          *string   `json:"variation_id"`
	ProductLink          string    `json:"product_link"`
	ImageURL             string    `json:"image_url"`
	Size                 string    `json:"size"`
	Color                string    `json:"color"`
	Material             string    `json:"material"`
	Quantity             int       `json:"quantity"`
	Paid                 bool      `json:"paid"`
	Shipped              bool      `json:"shipped"`
	Delivered            bool      `json:"delivered"`
	MarketplaceCompleted bool      `json:"marketplace_completed"`
	TrackingAdded        bool      `json:"tracking_added"`
	ShippedMessageSent   bool      `json:"shipped_message_sent"`
	DeliveredMessageSent bool      `json:"delivered_message_sent"`
	Acknowledged         bool      `json:"acknowledged"`
	OutOfStock           bool      `json:"out_of_stock"`
	TrackingCode         string    `json:"tracking_code"`
	SoldPrice            *string   `json:"sold_price,omitempty"`
	FeePercent           *string   `json:"fee_percent,omitempty"`
	SourcingCost         *string   `json:"sourcing_cost,omitempty"`
	Profit               *string   `json:"profit,omitempty"`
	ProfitSign           string    `json:"profit_sign,omitempty"`
	Supplier             *string   `json:"supplier,omitempty"`
	Notes                string    `json:"notes"`
	Issue                string    `json:"issue"`
	Resolution           string    `json:"resolution"`
	InternalNotes        *string   `json:"internal_notes,omitempty"`
	CreatedAt            time.Time `json:"created_at"`
}

type TotalsDTO struct {
	Count        int    `json:"count"`
	Revenue      string `json:"revenue"`
	Fees         string `json:"fees"`
	SourcingCost string `json:"sourcingCost"`
	Profit       string `json:"profit"`
}

type ListOrdersResponse struct {
	Orders []OrderDTO `json:"orders"`
	Totals *TotalsDTO `json:"totals,omitempty"`
	Stale  bool       `json:"stale"`
	OpenID string     `json:"openId,omitempty"`
}

type OrderResponse struct {
	Order   OrderDTO `json:"order"`
	Warning *Warning `json:"warning,omitempty"`
}

type OrdersResponse struct {
	Orders []OrderDTO `json:"orders"`
}

type ToggleRequest struct {
	IDs   []string `json:"ids"`
	Field string   `json:"field"`
	Value bool     `json:"value"`
}

type SelectProductRequest struct {
	ProductID *string `json:"productId"`
}

type SelectVariationRequest struct {
	VariationID *string `json:"variationId"`
}
