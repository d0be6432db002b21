package usecase

import (
	"context"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"opsboard/internal/domain"
	"opsboard/internal/dto"
	apperrors "opsboard/internal/errors"
	"opsboard/internal/finance"
	"opsboard/internal/product/service"
	"opsboard/internal/session"
)

type ProductService interface {
	List(ctx context.Context, storeID string) (*service.Catalog, error)
	Create(ctx context.Context, storeID, name string) (service.Entry, error)
	Edit(ctx context.Context, storeID, id, field string, value any) (service.Entry, *apperrors.ValidationError, error)
	Delete(ctx context.Context, storeID string, ids []string) error
	UpsertPricing(ctx context.Context, storeID, productID string, region domain.RegionTag, price decimal.Decimal, leadTime string) (service.Entry, error)
	AddVariation(ctx context.Context, storeID, productID string, nv service.NewVariation) (domain.ProductVariation, error)
	RemoveVariation(ctx context.Context, storeID, productID, variationID string) error
}

type CatalogUseCase struct {
	service ProductService
	logger  *zap.Logger
}

func NewCatalogUseCase(service ProductService, logger *zap.Logger) *CatalogUseCase {
	return &CatalogUseCase{
		service: service,
		logger:  logger,
	}
}

func (uc *CatalogUseCase) List(ctx context.Context, s session.Session) (*dto.ListProductsResponse, error) {
	catalog, err := uc.service.List(ctx, s.StoreID)
	if err != nil {
		return nil, err
	}
	products := make([]dto.ProductDTO, len(catalog.Entries))
	for i, e := range catalog.Entries {
		products[i] = ToProductDTO(e, s.Role)
	}
	return &dto.ListProductsResponse{Products: products, Stale: catalog.Stale}, nil
}

func (uc *CatalogUseCase) Create(ctx context.Context, s session.Session, req dto.CreateProductRequest) (*dto.ProductResponse, error) {
	e, err := uc.service.Create(ctx, s.StoreID, req.Name)
	if err != nil {
		return nil, err
	}
	return &dto.ProductResponse{Product: ToProductDTO(e, s.Role)}, nil
}

func (uc *CatalogUseCase) Edit(ctx context.Context, s session.Session, id string, req dto.EditRequest) (*dto.ProductResponse, error) {
	if spec, ok := domain.ProductSchema.Field(req.Field); ok && spec.OperatorOnly && !s.Role.SeesFinancials() {
		return nil, apperrors.NewForbiddenError(fmt.Sprintf("%s can only be edited by an operator", req.Field))
	}
	e, warning, err := uc.service.Edit(ctx, s.StoreID, id, req.Field, req.Value)
	if err != nil {
		return nil, err
	}
	return &dto.ProductResponse{Product: ToProductDTO(e, s.Role), Warning: dto.NewWarning(warning)}, nil
}

func (uc *CatalogUseCase) Delete(ctx context.Context, s session.Session, ids []string) error {
	return uc.service.Delete(ctx, s.StoreID, ids)
}

func (uc *CatalogUseCase) UpsertPricing(ctx context.Context, s session.Session, productID, region string, req dto.UpsertPricingRequest) (*dto.ProductResponse, error) {
	if !s.Role.SeesFinancials() {
		return nil, apperrors.NewForbiddenError("pricing can only be edited by an operator")
	}
	price, err := parseMoney("price", req.Price)
	if err != nil {
		return nil, err
	}
	e, err := uc.service.UpsertPricing(ctx, s.StoreID, productID, domain.RegionTag(strings.ToLower(region)), price, req.LeadTime)
	if err != nil {
		return nil, err
	}
	return &dto.ProductResponse{Product: ToProductDTO(e, s.Role)}, nil
}

func (uc *CatalogUseCase) AddVariation(ctx context.Context, s session.Session, productID string, req dto.AddVariationRequest) (*dto.VariationResponse, error) {
	nv := service.NewVariation{Name: req.Name, ImageURL: req.ImageURL}
	if req.Price != nil && strings.TrimSpace(*req.Price) != "" {
		if !s.Role.SeesFinancials() {
			return nil, apperrors.NewForbiddenError("variation price can only be set by an operator")
		}
		price, err := parseMoney("price", *req.Price)
		if err != nil {
			return nil, err
		}
		nv.Price = decimal.NewNullDecimal(price)
	}
	v, err := uc.service.AddVariation(ctx, s.StoreID, productID, nv)
	if err != nil {
		return nil, err
	}
	return &dto.VariationResponse{Variation: toVariationDTO(v, s.Role)}, nil
}

func (uc *CatalogUseCase) RemoveVariation(ctx context.Context, s session.Session, productID, variationID string) error {
	return uc.service.RemoveVariation(ctx, s.StoreID, productID, variationID)
}

func parseMoney(field, raw string) (decimal.Decimal, error) {
	d, err := decimal.NewFromString(strings.TrimSpace(raw))
	if err != nil {
		return decimal.Decimal{}, apperrors.NewValidationError("invalid amount", apperrors.ValidationDetail{
			Field:   field,
			Message: fmt.Sprintf("%q is not a number", raw),
		})
	}
	return d.Round(2), nil
}

func ToProductDTO(e service.Entry, role domain.Role) dto.ProductDTO {
	p := e.Product
	d := dto.ProductDTO{
		ID:          p.ID,
		Name:        p.Name,
		Description: p.Description,
		ImageURL:    p.ImageURL,
		Link:        p.Link,
		Status:      string(p.Status),
		Variations:  make([]dto.VariationDTO, len(p.Variations)),
		Pricing:     make([]dto.PricingDTO, len(p.Pricing)),
		CreatedAt:   p.CreatedAt,
	}
	for i, v := range p.Variations {
		d.Variations[i] = toVariationDTO(v, role)
	}
	for i, t := range p.Pricing {
		d.Pricing[i] = dto.PricingDTO{ID: t.ID, Region: string(t.Region), LeadTime: t.LeadTime}
		if role.SeesFinancials() {
			d.Pricing[i].Price = ptr(finance.Money(t.Price))
		}
	}
	if !role.SeesFinancials() {
		return d
	}

	d.ListPrice = nullable(finance.NullMoney(p.ListPrice))
	if p.DiscountPercent.Valid {
		d.DiscountPercent = ptr(p.DiscountPercent.Decimal.String())
	}
	d.SourcingCost = nullable(finance.NullMoney(p.SourcingCost))
	d.Supplier = ptr(p.Supplier)
	d.Projection = &dto.ProjectionDTO{
		AfterDiscount:  finance.NullMoney(e.Projection.AfterDiscount),
		MarketplaceFee: finance.NullMoney(e.Projection.MarketplaceFee),
		AfterFee:       finance.NullMoney(e.Projection.AfterFee),
		Profit:         finance.NullMoney(e.Projection.Profit),
		ProfitPercent:  e.Projection.ProfitPercent,
		Sign:           string(e.Projection.Sign()),
	}
	return d
}

func toVariationDTO(v domain.ProductVariation, role domain.Role) dto.VariationDTO {
	d := dto.VariationDTO{
		ID:       v.ID,
		Name:     v.Name,
		ImageURL: v.ImageURL,
		Position: v.Position,
	}
	if role.SeesFinancials() {
		d.Price = nullable(finance.NullMoney(v.Price))
	}
	return d
}

func ptr[T any](v T) *T {
	return &v
}

func nullable(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
