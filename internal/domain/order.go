package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

const TableOrders = "orders"

const (
	OrderOrderedAt            = "ordered_at"
	OrderCustomerName         = "customer_name"
	OrderAddress              = "address"
	OrderProductName          = "product_name"
	OrderProductID            = "product_id"
	OrderVariationID          = "variation_id"
	OrderProductLink          = "product_link"
	OrderImageURL             = "image_url"
	OrderSize                 = "size"
	OrderColor                = "color"
	OrderMaterial             = "material"
	OrderQuantity             = "quantity"
	OrderPaid                 = "paid"
	OrderShipped              = "shipped"
	OrderDelivered            = "delivered"
	OrderMarketplaceCompleted = "marketplace_completed"
	OrderTrackingAdded        = "tracking_added"
	OrderShippedMessageSent   = "shipped_message_sent"
	OrderDeliveredMessageSent = "delivered_message_sent"
	OrderAcknowledged         = "acknowledged"
	OrderOutOfStock           = "out_of_stock"
	OrderTrackingCode         = "tracking_code"
	OrderSoldPrice            = "sold_price"
	OrderFeePercent           = "fee_percent"
	OrderSourcingCost         = "sourcing_cost"
	OrderProfit               = "profit"
	OrderSupplier             = "supplier"
	OrderNotes                = "notes"
	OrderIssue                = "issue"
	OrderResolution           = "resolution"
	OrderInternalNotes        = "internal_notes"
)

type Order struct {
	ID                   string
	StoreID              string
	OrderedAt            *time.Time
	CustomerName         string
	Address              string
	ProductName          string
	ProductID            *string
	VariationID          *string
	ProductLink          string
	ImageURL             string
	Size                 string
	Color                string
	Material             string
	Quantity             int
	Paid                 bool
	Shipped              bool
	Delivered            bool
	MarketplaceCompleted bool
	TrackingAdded        bool
	ShippedMessageSent   bool
	DeliveredMessageSent bool
	Acknowledged         bool
	OutOfStock           bool
	TrackingCode         string
	SoldPrice            decimal.Decimal
	FeePercent           decimal.Decimal
	SourcingCost         decimal.Decimal
	Profit               decimal.Decimal
	Supplier             string
	Notes                string
	Issue                string
	Resolution           string
	InternalNotes        string
	CreatedAt            time.Time
}

// OrderSchema lists every order column a patch may carry.
var OrderSchema = NewSchema(TableOrders,
	FieldSpec{Name: OrderOrderedAt, Kind: KindDate, Nullable: true},
	FieldSpec{Name: OrderCustomerName, Kind: KindText},
	FieldSpec{Name: OrderAddress, Kind: KindTextarea},
	FieldSpec{Name: OrderProductName, Kind: KindText},
	FieldSpec{Name: OrderProductID, Kind: KindSelect, Nullable: true, ReadOnly: true},
	FieldSpec{Name: OrderVariationID, Kind: KindSelect, Nullable: true, ReadOnly: true},
	FieldSpec{Name: OrderProductLink, Kind: KindLink},
	FieldSpec{Name: OrderImageURL, Kind: KindLink},
	FieldSpec{Name: OrderSize, Kind: KindText},
	FieldSpec{Name: OrderColor, Kind: KindText},
	FieldSpec{Name: OrderMaterial, Kind: KindText},
	FieldSpec{Name: OrderQuantity, Kind: KindNumber, Unit: UnitCount},
	FieldSpec{Name: OrderPaid, Kind: KindCheckbox},
	FieldSpec{Name: OrderShipped, Kind: KindCheckbox},
	FieldSpec{Name: OrderDelivered, Kind: KindCheckbox},
	FieldSpec{Name: OrderMarketplaceCompleted, Kind: KindCheckbox},
	FieldSpec{Name: OrderTrackingAdded, Kind: KindCheckbox},
	FieldSpec{Name: OrderShippedMessageSent, Kind: KindCheckbox},
	FieldSpec{Name: OrderDeliveredMessageSent, Kind: KindCheckbox},
	FieldSpec{Name: OrderAcknowledged, Kind: KindCheckbox},
	FieldSpec{Name: OrderOutOfStock, Kind: KindCheckbox},
	FieldSpec{Name: OrderTrackingCode, Kind: KindText},
	FieldSpec{Name: OrderSoldPrice, Kind: KindNumber, Unit: UnitMoney, OperatorOnly: true},
	FieldSpec{Name: OrderFeePercent, Kind: KindNumber, Unit: UnitPercent, OperatorOnly: true},
	FieldSpec{Name: OrderSourcingCost, Kind: KindNumber, Unit: UnitMoney, OperatorOnly: true},
	FieldSpec{Name: OrderProfit, Kind: KindComputed, Unit: UnitMoney, OperatorOnly: true, ReadOnly: true},
	FieldSpec{Name: OrderSupplier, Kind: KindText, OperatorOnly: true},
	FieldSpec{Name: OrderNotes, Kind: KindTextarea},
	FieldSpec{Name: OrderIssue, Kind: KindTextarea},
	FieldSpec{Name: OrderResolution, Kind: KindTextarea},
	FieldSpec{Name: OrderInternalNotes, Kind: KindTextarea, OperatorOnly: true},
)

// NewOrder returns an order with the column defaults applied.
func NewOrder(id, storeID string, createdAt time.Time) Order {
	return Order{
		ID:        id,
		StoreID:   storeID,
		Quantity:  1,
		CreatedAt: createdAt,
	}
}

func (o Order) RecordID() string {
	return o.ID
}

// Patched returns a copy of o with p applied. Unknown columns are ignored.
func (o Order) Patched(p Patch) Order {
	for field, v := range p {
		switch field {
		case OrderOrderedAt:
			o.OrderedAt = asTimePtr(v)
		case OrderCustomerName:
			o.CustomerName = asString(v)
		case OrderAddress:
			o.Address = asString(v)
		case OrderProductName:
			o.ProductName = asString(v)
		case OrderProductID:
			o.ProductID = asStringPtr(v)
		case OrderVariationID:
			o.VariationID = asStringPtr(v)
		case OrderProductLink:
			o.ProductLink = asString(v)
		case OrderImageURL:
			o.ImageURL = asString(v)
		case OrderSize:
			o.Size = asString(v)
		case OrderColor:
			o.Color = asString(v)
		case OrderMaterial:
			o.Material = asString(v)
		case OrderQuantity:
			if n := asInt(v); n >= 1 {
				o.Quantity = n
			}
		case OrderPaid:
			o.Paid = asBool(v)
		case OrderShipped:
			o.Shipped = asBool(v)
		case OrderDelivered:
			o.Delivered = asBool(v)
		case OrderMarketplaceCompleted:
			o.MarketplaceCompleted = asBool(v)
		case OrderTrackingAdded:
			o.TrackingAdded = asBool(v)
		case OrderShippedMessageSent:
			o.ShippedMessageSent = asBool(v)
		case OrderDeliveredMessageSent:
			o.DeliveredMessageSent = asBool(v)
		case OrderAcknowledged:
			o.Acknowledged = asBool(v)
		case OrderOutOfStock:
			o.OutOfStock = asBool(v)
		case OrderTrackingCode:
			o.TrackingCode = asString(v)
		case OrderSoldPrice:
			o.SoldPrice = asDecimal(v)
		case OrderFeePercent:
			o.FeePercent = asDecimal(v)
		case OrderSourcingCost:
			o.SourcingCost = asDecimal(v)
		case OrderProfit:
			o.Profit = asDecimal(v)
		case OrderSupplier:
			o.Supplier = asString(v)
		case OrderNotes:
			o.Notes = asString(v)
		case OrderIssue:
			o.Issue = asString(v)
		case OrderResolution:
			o.Resolution = asString(v)
		case OrderInternalNotes:
			o.InternalNotes = asString(v)
		}
	}
	return o
}

// ReferencesProduct reports whether the order links to any of the given products.
func (o Order) ReferencesProduct(productIDs map[string]struct{}) bool {
	if o.ProductID == nil {
		return false
	}
	_, ok := productIDs[*o.ProductID]
	return ok
}
