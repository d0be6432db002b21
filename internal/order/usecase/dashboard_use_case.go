package usecase

import (
	"context"
	"fmt"
	"io"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"opsboard/internal/domain"
	"opsboard/internal/dto"
	apperrors "opsboard/internal/errors"
	"opsboard/internal/finance"
	"opsboard/internal/order/service"
	"opsboard/internal/pricing"
	"opsboard/internal/session"
	"opsboard/internal/writeback"
)

type OrderService interface {
	List(ctx context.Context, storeID string) (*service.Listing, error)
	Reload(ctx context.Context, storeID string) (*service.Listing, error)
	Get(ctx context.Context, storeID, id string) (domain.Order, error)
	Create(ctx context.Context, storeID string) (domain.Order, error)
	Edit(ctx context.Context, storeID, id, field string, value any) (writeback.Outcome[domain.Order], error)
	Toggle(ctx context.Context, storeID string, ids []string, field string, value bool) ([]domain.Order, error)
	Delete(ctx context.Context, storeID string, ids []string) error
	Open(ctx context.Context, storeID, id string) (domain.Order, error)
	Opened(ctx context.Context, storeID string) (domain.Order, bool, error)
	CloseDetail(ctx context.Context, storeID string) error
	AttachImage(ctx context.Context, storeID, id, name string, r io.Reader) (domain.Order, error)
	SelectProduct(ctx context.Context, storeID, id string, productID *string) (domain.Order, error)
	SelectVariation(ctx context.Context, storeID, id string, variationID *string) (domain.Order, error)
}

// DashboardUseCase maps order operations to response documents and applies
// the caller's role to what is shown and what may be edited.
type DashboardUseCase struct {
	service OrderService
	logger  *zap.Logger
}

func NewDashboardUseCase(service OrderService, logger *zap.Logger) *DashboardUseCase {
	return &DashboardUseCase{
		service: service,
		logger:  logger,
	}
}

// List returns the current listing. A FetchError from Reload comes back with
// the stale listing so callers can still render it.
func (uc *DashboardUseCase) List(ctx context.Context, s session.Session) (*dto.ListOrdersResponse, error) {
	listing, err := uc.service.List(ctx, s.StoreID)
	if err != nil {
		return nil, err
	}
	return listResponse(listing, s.Role), nil
}

func (uc *DashboardUseCase) Reload(ctx context.Context, s session.Session) (*dto.ListOrdersResponse, error) {
	listing, err := uc.service.Reload(ctx, s.StoreID)
	if listing == nil {
		return nil, err
	}
	return listResponse(listing, s.Role), err
}

func (uc *DashboardUseCase) Get(ctx context.Context, s session.Session, id string) (*dto.OrderResponse, error) {
	o, err := uc.service.Get(ctx, s.StoreID, id)
	if err != nil {
		return nil, err
	}
	return &dto.OrderResponse{Order: ToOrderDTO(o, s.Role)}, nil
}

func (uc *DashboardUseCase) Create(ctx context.Context, s session.Session) (*dto.OrderResponse, error) {
	o, err := uc.service.Create(ctx, s.StoreID)
	if err != nil {
		return nil, err
	}
	return &dto.OrderResponse{Order: ToOrderDTO(o, s.Role)}, nil
}

func (uc *DashboardUseCase) Edit(ctx context.Context, s session.Session, id string, req dto.EditRequest) (*dto.OrderResponse, error) {
	if err := authorizeField(s.Role, req.Field); err != nil {
		return nil, err
	}
	out, err := uc.service.Edit(ctx, s.StoreID, id, req.Field, req.Value)
	if err != nil {
		return nil, err
	}
	return &dto.OrderResponse{
		Order:   ToOrderDTO(out.Record, s.Role),
		Warning: dto.NewWarning(out.Warning),
	}, nil
}

func (uc *DashboardUseCase) Toggle(ctx context.Context, s session.Session, req dto.ToggleRequest) (*dto.OrdersResponse, error) {
	if err := authorizeField(s.Role, req.Field); err != nil {
		return nil, err
	}
	orders, err := uc.service.Toggle(ctx, s.StoreID, req.IDs, req.Field, req.Value)
	if err != nil {
		return nil, err
	}
	return ordersResponse(orders, s.Role), nil
}

func (uc *DashboardUseCase) Delete(ctx context.Context, s session.Session, ids []string) error {
	return uc.service.Delete(ctx, s.StoreID, ids)
}

func (uc *DashboardUseCase) Open(ctx context.Context, s session.Session, id string) (*dto.OrderResponse, error) {
	o, err := uc.service.Open(ctx, s.StoreID, id)
	if err != nil {
		return nil, err
	}
	return &dto.OrderResponse{Order: ToOrderDTO(o, s.Role)}, nil
}

func (uc *DashboardUseCase) Opened(ctx context.Context, s session.Session) (*dto.OrderResponse, error) {
	o, ok, err := uc.service.Opened(ctx, s.StoreID)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, apperrors.NewNotFoundError("no order is open")
	}
	return &dto.OrderResponse{Order: ToOrderDTO(o, s.Role)}, nil
}

func (uc *DashboardUseCase) CloseDetail(ctx context.Context, s session.Session) error {
	return uc.service.CloseDetail(ctx, s.StoreID)
}

func (uc *DashboardUseCase) AttachImage(ctx context.Context, s session.Session, id, name string, r io.Reader) (*dto.OrderResponse, error) {
	o, err := uc.service.AttachImage(ctx, s.StoreID, id, name, r)
	if err != nil {
		return nil, err
	}
	return &dto.OrderResponse{Order: ToOrderDTO(o, s.Role)}, nil
}

func (uc *DashboardUseCase) SelectProduct(ctx context.Context, s session.Session, id string, req dto.SelectProductRequest) (*dto.OrderResponse, error) {
	if err := authorizeSelection(s.Role); err != nil {
		return nil, err
	}
	o, err := uc.service.SelectProduct(ctx, s.StoreID, id, req.ProductID)
	if err != nil {
		return nil, err
	}
	return &dto.OrderResponse{Order: ToOrderDTO(o, s.Role)}, nil
}

func (uc *DashboardUseCase) SelectVariation(ctx context.Context, s session.Session, id string, req dto.SelectVariationRequest) (*dto.OrderResponse, error) {
	if err := authorizeSelection(s.Role); err != nil {
		return nil, err
	}
	o, err := uc.service.SelectVariation(ctx, s.StoreID, id, req.VariationID)
	if err != nil {
		return nil, err
	}
	return &dto.OrderResponse{Order: ToOrderDTO(o, s.Role)}, nil
}

// authorizeField rejects partner edits of operator-only columns. Unknown
// columns are left to the field registry.
func authorizeField(role domain.Role, field string) error {
	spec, ok := domain.OrderSchema.Field(field)
	if !ok || !spec.OperatorOnly || role.SeesFinancials() {
		return nil
	}
	return apperrors.NewForbiddenError(fmt.Sprintf("%s can only be edited by an operator", field))
}

// authorizeSelection rejects catalog selections by roles that may not edit
// the prices a selection copies onto the order.
func authorizeSelection(role domain.Role) error {
	for _, field := range []string{domain.OrderSoldPrice, domain.OrderSourcingCost} {
		if err := authorizeField(role, field); err != nil {
			return apperrors.NewForbiddenError("selecting a catalog product can only be done by an operator")
		}
	}
	return nil
}

func listResponse(l *service.Listing, role domain.Role) *dto.ListOrdersResponse {
	resp := &dto.ListOrdersResponse{
		Orders: ordersResponse(l.Orders, role).Orders,
		Stale:  l.Stale,
		OpenID: l.OpenID,
	}
	if role.SeesFinancials() {
		resp.Totals = &dto.TotalsDTO{
			Count:        l.Totals.Count,
			Revenue:      finance.Money(l.Totals.Revenue),
			Fees:         finance.Money(l.Totals.Fees),
			SourcingCost: finance.Money(l.Totals.SourcingCost),
			Profit:       finance.Money(l.Totals.Profit),
		}
	}
	return resp
}

func ordersResponse(orders []domain.Order, role domain.Role) *dto.OrdersResponse {
	out := make([]dto.OrderDTO, len(orders))
	for i, o := range orders {
		out[i] = ToOrderDTO(o, role)
	}
	return &dto.OrdersResponse{Orders: out}
}

func ToOrderDTO(o domain.Order, role domain.Role) dto.OrderDTO {
	d := dto.OrderDTO{
		ID:                   o.ID,
		CustomerName:         o.CustomerName,
		Address:              o.Address,
		Region:               string(pricing.DetectRegion(o.Address)),
		ProductName:          o.ProductName,
		ProductID:            o.ProductID,
		VariationID:          o.VariationID,
		ProductLink:          o.ProductLink,
		ImageURL:             o.ImageURL,
		Size:                 o.Size,
		Color:                o.Color,
		Material:             o.Material,
		Quantity:             o.Quantity,
		Paid:                 o.Paid,
		Shipped:              o.Shipped,
		Delivered:            o.Delivered,
		MarketplaceCompleted: o.MarketplaceCompleted,
		TrackingAdded:        o.TrackingAdded,
		ShippedMessageSent:   o.ShippedMessageSent,
		DeliveredMessageSent: o.DeliveredMessageSent,
		Acknowledged:         o.Acknowledged,
		OutOfStock:           o.OutOfStock,
		TrackingCode:         o.TrackingCode,
		Notes:                o.Notes,
		Issue:                o.Issue,
		Resolution:           o.Resolution,
		CreatedAt:            o.CreatedAt,
	}
	if o.OrderedAt != nil {
		date := o.OrderedAt.Format(domain.DateLayout)
		d.OrderedAt = &date
	}
	if !role.SeesFinancials() {
		return d
	}

	d.SoldPrice = ptr(finance.Money(o.SoldPrice))
	d.FeePercent = ptr(o.FeePercent.String())
	d.SourcingCost = ptr(finance.Money(o.SourcingCost))
	d.Profit = ptr(finance.Money(o.Profit))
	d.ProfitSign = string(finance.SignOf(decimal.NewNullDecimal(o.Profit)))
	d.Supplier = ptr(o.Supplier)
	d.InternalNotes = ptr(o.InternalNotes)
	return d
}

func ptr[T any](v T) *T {
	return &v
}
