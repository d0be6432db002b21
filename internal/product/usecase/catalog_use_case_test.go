package usecase

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"opsboard/internal/domain"
	"opsboard/internal/dto"
	apperrors "opsboard/internal/errors"
	"opsboard/internal/product/service"
	"opsboard/internal/session"
)

type mockProductService struct {
	ListFunc            func(ctx context.Context, storeID string) (*service.Catalog, error)
	CreateFunc          func(ctx context.Context, storeID, name string) (service.Entry, error)
	EditFunc            func(ctx context.Context, storeID, id, field string, value any) (service.Entry, *apperrors.ValidationError, error)
	DeleteFunc          func(ctx context.Context, storeID string, ids []string) error
	UpsertPricingFunc   func(ctx context.Context, storeID, productID string, region domain.RegionTag, price decimal.Decimal, leadTime string) (service.Entry, error)
	AddVariationFunc    func(ctx context.Context, storeID, productID string, nv service.NewVariation) (domain.ProductVariation, error)
	RemoveVariationFunc func(ctx context.Context, storeID, productID, variationID string) error
}

func (m *mockProductService) List(ctx context.Context, storeID string) (*service.Catalog, error) {
	return m.ListFunc(ctx, storeID)
}

func (m *mockProductService) Create(ctx context.Context, storeID, name string) (service.Entry, error) {
	return m.CreateFunc(ctx, storeID, name)
}

func (m *mockProductService) Edit(ctx context.Context, storeID, id, field string, value any) (service.Entry, *apperrors.ValidationError, error) {
	return m.EditFunc(ctx, storeID, id, field, value)
}

func (m *mockProductService) Delete(ctx context.Context, storeID string, ids []string) error {
	return m.DeleteFunc(ctx, storeID, ids)
}

func (m *mockProductService) UpsertPricing(ctx context.Context, storeID, productID string, region domain.RegionTag, price decimal.Decimal, leadTime string) (service.Entry, error) {
	return m.UpsertPricingFunc(ctx, storeID, productID, region, price, leadTime)
}

func (m *mockProductService) AddVariation(ctx context.Context, storeID, productID string, nv service.NewVariation) (domain.ProductVariation, error) {
	return m.AddVariationFunc(ctx, storeID, productID, nv)
}

func (m *mockProductService) RemoveVariation(ctx context.Context, storeID, productID, variationID string) error {
	return m.RemoveVariationFunc(ctx, storeID, productID, variationID)
}

var (
	operator = session.Session{StoreID: "store-1", Role: domain.RoleOperator}
	partner  = session.Session{StoreID: "store-1", Role: domain.RolePartner}
)

func sampleEntry() service.Entry {
	p := domain.NewProduct("p-1", "store-1", "Tote", time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC))
	p.ListPrice = decimal.NewNullDecimal(decimal.NewFromInt(100))
	p.SourcingCost = decimal.NewNullDecimal(decimal.NewFromInt(20))
	p.Supplier = "Acme"
	p.Pricing = []domain.ProductPricing{{ID: "t-1", ProductID: "p-1", Region: domain.RegionUK, Price: decimal.NewFromInt(35), LeadTime: "5 days"}}
	p.Variations = []domain.ProductVariation{{ID: "v-1", ProductID: "p-1", Name: "Sand", Price: decimal.NewNullDecimal(decimal.NewFromInt(40))}}
	return service.Project(p)
}

func TestCatalogUseCase_ListOperator(t *testing.T) {
	uc := NewCatalogUseCase(&mockProductService{
		ListFunc: func(ctx context.Context, storeID string) (*service.Catalog, error) {
			return &service.Catalog{Entries: []service.Entry{sampleEntry()}}, nil
		},
	}, zap.NewNop())

	resp, err := uc.List(context.Background(), operator)

	require.NoError(t, err)
	require.Len(t, resp.Products, 1)
	got := resp.Products[0]
	require.NotNil(t, got.ListPrice)
	assert.Equal(t, "100.00", *got.ListPrice)
	assert.Nil(t, got.DiscountPercent)
	require.NotNil(t, got.Projection)
	assert.Equal(t, "70.00", got.Projection.AfterDiscount)
	assert.Equal(t, "41.60", got.Projection.Profit)
	assert.Equal(t, "positive", got.Projection.Sign)
	require.NotNil(t, got.Pricing[0].Price)
	assert.Equal(t, "35.00", *got.Pricing[0].Price)
	assert.Equal(t, "40.00", *got.Variations[0].Price)
}

func TestCatalogUseCase_ListPartner(t *testing.T) {
	uc := NewCatalogUseCase(&mockProductService{
		ListFunc: func(ctx context.Context, storeID string) (*service.Catalog, error) {
			return &service.Catalog{Entries: []service.Entry{sampleEntry()}, Stale: true}, nil
		},
	}, zap.NewNop())

	resp, err := uc.List(context.Background(), partner)

	require.NoError(t, err)
	assert.True(t, resp.Stale)
	got := resp.Products[0]
	assert.Nil(t, got.ListPrice)
	assert.Nil(t, got.SourcingCost)
	assert.Nil(t, got.Supplier)
	assert.Nil(t, got.Projection)
	assert.Nil(t, got.Pricing[0].Price)
	assert.Equal(t, "uk", got.Pricing[0].Region)
	assert.Nil(t, got.Variations[0].Price)
}

func TestCatalogUseCase_PartnerForbidden(t *testing.T) {
	uc := NewCatalogUseCase(&mockProductService{}, zap.NewNop())
	ctx := context.Background()

	_, err := uc.Edit(ctx, partner, "p-1", dto.EditRequest{Field: domain.ProductListPrice, Value: "10"})
	_, ok := apperrors.IsForbiddenError(err)
	assert.True(t, ok)

	_, err = uc.UpsertPricing(ctx, partner, "p-1", "uk", dto.UpsertPricingRequest{Price: "10"})
	_, ok = apperrors.IsForbiddenError(err)
	assert.True(t, ok)

	price := "12"
	_, err = uc.AddVariation(ctx, partner, "p-1", dto.AddVariationRequest{Name: "Sand", Price: &price})
	_, ok = apperrors.IsForbiddenError(err)
	assert.True(t, ok)
}

func TestCatalogUseCase_UpsertPricingParsesPrice(t *testing.T) {
	uc := NewCatalogUseCase(&mockProductService{
		UpsertPricingFunc: func(ctx context.Context, storeID, productID string, region domain.RegionTag, price decimal.Decimal, leadTime string) (service.Entry, error) {
			assert.Equal(t, domain.RegionUK, region)
			assert.Equal(t, "19.99", price.String())
			assert.Equal(t, "1 week", leadTime)
			return sampleEntry(), nil
		},
	}, zap.NewNop())

	_, err := uc.UpsertPricing(context.Background(), operator, "p-1", "UK", dto.UpsertPricingRequest{Price: " 19.99 ", LeadTime: "1 week"})
	require.NoError(t, err)

	_, err = uc.UpsertPricing(context.Background(), operator, "p-1", "uk", dto.UpsertPricingRequest{Price: "cheap"})
	_, ok := apperrors.IsValidationError(err)
	assert.True(t, ok)
}

func TestCatalogUseCase_PartnerAddsVariationWithoutPrice(t *testing.T) {
	uc := NewCatalogUseCase(&mockProductService{
		AddVariationFunc: func(ctx context.Context, storeID, productID string, nv service.NewVariation) (domain.ProductVariation, error) {
			assert.False(t, nv.Price.Valid)
			return domain.ProductVariation{ID: "v-2", ProductID: productID, Name: nv.Name, Position: 1}, nil
		},
	}, zap.NewNop())

	resp, err := uc.AddVariation(context.Background(), partner, "p-1", dto.AddVariationRequest{Name: "Olive"})

	require.NoError(t, err)
	assert.Equal(t, "Olive", resp.Variation.Name)
	assert.Nil(t, resp.Variation.Price)
}
