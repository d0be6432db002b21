package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"opsboard/internal/domain"
	apperrors "opsboard/internal/errors"
	"opsboard/internal/finance"
	"opsboard/internal/workspace"
)

type Workspaces interface {
	Get(ctx context.Context, storeID string) (*workspace.Workspace, error)
}

// Entry is a catalog product with its projected figures.
type Entry struct {
	Product    domain.Product
	Projection finance.Projection
}

type Catalog struct {
	Entries []Entry
	Stale   bool
}

type NewVariation struct {
	Name     string
	ImageURL string
	Price    decimal.NullDecimal
}

type ProductService struct {
	workspaces Workspaces
	logger     *zap.Logger
	now        func() time.Time
}

func NewProductService(workspaces Workspaces, logger *zap.Logger) *ProductService {
	return &ProductService{
		workspaces: workspaces,
		logger:     logger,
		now:        time.Now,
	}
}

func (s *ProductService) workspace(ctx context.Context, storeID string) (*workspace.Workspace, error) {
	ws, err := s.workspaces.Get(ctx, storeID)
	if err != nil {
		if _, ok := apperrors.IsFetchError(err); ok && ws != nil {
			return ws, nil
		}
		return nil, err
	}
	return ws, nil
}

func Project(p domain.Product) Entry {
	return Entry{
		Product:    p,
		Projection: finance.ProjectProduct(p.ListPrice, p.DiscountPercent, p.SourcingCost),
	}
}

func (s *ProductService) List(ctx context.Context, storeID string) (*Catalog, error) {
	ws, err := s.workspace(ctx, storeID)
	if err != nil {
		return nil, err
	}
	products := ws.Products.List()
	entries := make([]Entry, len(products))
	for i, p := range products {
		entries[i] = Project(p)
	}
	return &Catalog{Entries: entries, Stale: ws.Products.Stale()}, nil
}

func (s *ProductService) Create(ctx context.Context, storeID, name string) (Entry, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return Entry{}, apperrors.NewValidationError("name is required", apperrors.ValidationDetail{
			Field:   domain.ProductName,
			Message: "name must not be empty",
		})
	}
	ws, err := s.workspace(ctx, storeID)
	if err != nil {
		return Entry{}, err
	}

	p, err := ws.Products.Create(ctx, domain.NewProduct(uuid.NewString(), storeID, name, s.now().UTC()))
	if err != nil {
		s.logger.Error("product create failed", zap.String("storeId", storeID), zap.Error(err))
		return Entry{}, err
	}
	s.logger.Info("product created", zap.String("storeId", storeID), zap.String("productId", p.ID))
	return Project(p), nil
}

func (s *ProductService) Edit(ctx context.Context, storeID, id, field string, value any) (Entry, *apperrors.ValidationError, error) {
	ws, err := s.workspace(ctx, storeID)
	if err != nil {
		return Entry{}, nil, err
	}
	out, err := ws.ProductEdits.Edit(ctx, id, field, value)
	if err != nil {
		return Entry{}, nil, err
	}
	return Project(out.Record), out.Warning, nil
}

// Delete removes the products. Orders that referenced them keep their copied
// fields and lose only the links, remotely and in the order cache.
func (s *ProductService) Delete(ctx context.Context, storeID string, ids []string) error {
	if len(ids) == 0 {
		return apperrors.NewValidationError("no products selected", apperrors.ValidationDetail{
			Field:   "ids",
			Message: "ids must not be empty",
		})
	}
	ws, err := s.workspace(ctx, storeID)
	if err != nil {
		return err
	}

	// queued catalog selections must land before the links are nulled
	if err := ws.OrderEdits.Sync(ctx); err != nil {
		return fmt.Errorf("waiting for order writes: %w", err)
	}
	if err := ws.Products.Delete(ctx, ids); err != nil {
		s.logger.Error("product delete failed", zap.String("storeId", storeID), zap.Strings("productIds", ids), zap.Error(err))
		return err
	}
	ws.ProductEdits.Forget(ids...)

	drop := make(map[string]struct{}, len(ids))
	for _, id := range ids {
		drop[id] = struct{}{}
	}
	affected := ws.Orders.Filter(func(o domain.Order) bool { return o.ReferencesProduct(drop) })
	for _, o := range affected {
		ws.Orders.Update(o.ID, func(o domain.Order) domain.Order {
			o.ProductID = nil
			o.VariationID = nil
			return o
		})
	}
	s.logger.Info("products deleted", zap.String("storeId", storeID), zap.Int("count", len(ids)), zap.Int("unlinkedOrders", len(affected)))
	return nil
}

// UpsertPricing sets the price tier of one region, keeping the tier's id
// when the region already has one.
func (s *ProductService) UpsertPricing(ctx context.Context, storeID, productID string, region domain.RegionTag, price decimal.Decimal, leadTime string) (Entry, error) {
	if !region.Valid() {
		return Entry{}, apperrors.NewValidationError("unknown region", apperrors.ValidationDetail{
			Field:   "region",
			Message: fmt.Sprintf("%q is not a pricing region", region),
		})
	}
	if price.IsNegative() {
		return Entry{}, apperrors.NewValidationError("invalid price", apperrors.ValidationDetail{
			Field:   "price",
			Message: "price must be non-negative",
		})
	}
	ws, err := s.workspace(ctx, storeID)
	if err != nil {
		return Entry{}, err
	}
	p, ok := ws.Products.Get(productID)
	if !ok {
		return Entry{}, apperrors.NewNotFoundError(fmt.Sprintf("product %s not found", productID))
	}

	tier := domain.ProductPricing{
		ID:        uuid.NewString(),
		ProductID: productID,
		Region:    region,
		Price:     price,
		LeadTime:  strings.TrimSpace(leadTime),
	}
	for _, existing := range p.Pricing {
		if existing.Region == region {
			tier.ID = existing.ID
			break
		}
	}

	if err := ws.ProductRepo.UpsertPricing(ctx, tier); err != nil {
		return Entry{}, remoteError(domain.TableProductPricing, productID, err)
	}
	ws.Products.Update(productID, func(p domain.Product) domain.Product { return p.WithPricing(tier) })

	updated, _ := ws.Products.Get(productID)
	return Project(updated), nil
}

func (s *ProductService) AddVariation(ctx context.Context, storeID, productID string, nv NewVariation) (domain.ProductVariation, error) {
	name := strings.TrimSpace(nv.Name)
	if name == "" {
		return domain.ProductVariation{}, apperrors.NewValidationError("name is required", apperrors.ValidationDetail{
			Field:   "name",
			Message: "variation name must not be empty",
		})
	}
	ws, err := s.workspace(ctx, storeID)
	if err != nil {
		return domain.ProductVariation{}, err
	}
	p, ok := ws.Products.Get(productID)
	if !ok {
		return domain.ProductVariation{}, apperrors.NewNotFoundError(fmt.Sprintf("product %s not found", productID))
	}

	v := domain.ProductVariation{
		ID:        uuid.NewString(),
		ProductID: productID,
		Name:      name,
		ImageURL:  strings.TrimSpace(nv.ImageURL),
		Price:     nv.Price,
		Position:  p.NextVariationPosition(),
	}
	if err := ws.ProductRepo.InsertVariation(ctx, v); err != nil {
		return domain.ProductVariation{}, remoteError(domain.TableProductVariations, productID, err)
	}
	ws.Products.Update(productID, func(p domain.Product) domain.Product { return p.WithVariation(v) })
	return v, nil
}

// RemoveVariation deletes a variation. Orders that picked it fall back to the
// bare product.
func (s *ProductService) RemoveVariation(ctx context.Context, storeID, productID, variationID string) error {
	ws, err := s.workspace(ctx, storeID)
	if err != nil {
		return err
	}
	if err := ws.ProductRepo.DeleteVariation(ctx, productID, variationID); err != nil {
		return remoteError(domain.TableProductVariations, productID, err)
	}
	ws.Products.Update(productID, func(p domain.Product) domain.Product { return p.WithoutVariation(variationID) })

	for _, o := range ws.Orders.Filter(func(o domain.Order) bool {
		return o.VariationID != nil && *o.VariationID == variationID
	}) {
		ws.Orders.Update(o.ID, func(o domain.Order) domain.Order {
			o.VariationID = nil
			return o
		})
	}
	return nil
}

func remoteError(table, id string, err error) error {
	if _, ok := apperrors.IsNotFoundError(err); ok {
		return err
	}
	if _, ok := apperrors.IsValidationError(err); ok {
		return err
	}
	return apperrors.NewWriteError(table, id, nil, err)
}
