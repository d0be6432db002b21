package repository

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"opsboard/internal/domain"
	"opsboard/internal/errors"
	"opsboard/internal/infrastructure/database"
	orderrepo "opsboard/internal/order/repository"
	"opsboard/internal/testutil"
)

// Unit Tests

func TestNewSQLRepository(t *testing.T) {
	db := &database.DB{Dialect: database.Postgres}
	repo := NewSQLRepository(db, zap.NewNop())

	assert.NotNil(t, repo)
	assert.Equal(t, db, repo.db)
}

func TestProductRepository_Update_RejectsUnknownColumn(t *testing.T) {
	repo := NewSQLRepository(&database.DB{Dialect: database.MySQL}, zap.NewNop())

	err := repo.Update(context.Background(), "p-1", domain.Patch{"price": "1"})

	_, ok := errors.IsValidationError(err)
	assert.True(t, ok)
}

// Integration Tests

func newStoredProduct(t *testing.T, repo *SQLRepository, storeID string) domain.Product {
	t.Helper()
	p := domain.NewProduct(uuid.NewString(), storeID, "Linen Tote", time.Now().UTC().Truncate(time.Second))
	p.ListPrice = decimal.NewNullDecimal(decimal.RequireFromString("55.71"))
	stored, err := repo.Insert(context.Background(), p)
	require.NoError(t, err)
	return stored
}

func TestProductRepository_FindByStoreLoadsChildren(t *testing.T) {
	db := testutil.SetupTestDB(t)
	testutil.SetupTestTables(t, db)
	defer testutil.CleanupTestDB(t, db)

	ctx := context.Background()
	repo := NewSQLRepository(db, zap.NewNop())
	storeID := uuid.NewString()
	p := newStoredProduct(t, repo, storeID)

	require.NoError(t, repo.UpsertPricing(ctx, domain.ProductPricing{ID: uuid.NewString(), ProductID: p.ID, Region: domain.RegionDomestic, Price: decimal.RequireFromString("39")}))
	require.NoError(t, repo.UpsertPricing(ctx, domain.ProductPricing{ID: uuid.NewString(), ProductID: p.ID, Region: domain.RegionUK, Price: decimal.RequireFromString("45")}))
	require.NoError(t, repo.UpsertPricing(ctx, domain.ProductPricing{ID: uuid.NewString(), ProductID: p.ID, Region: domain.RegionDomestic, Price: decimal.RequireFromString("41"), LeadTime: "7-10 days"}))
	require.NoError(t, repo.InsertVariation(ctx, domain.ProductVariation{ID: uuid.NewString(), ProductID: p.ID, Name: "Navy", Position: 1}))
	require.NoError(t, repo.InsertVariation(ctx, domain.ProductVariation{ID: uuid.NewString(), ProductID: p.ID, Name: "Sand", Position: 0}))

	products, err := repo.FindByStore(ctx, storeID)
	require.NoError(t, err)
	require.Len(t, products, 1)

	got := products[0]
	assert.Equal(t, domain.ProductStatusActive, got.Status)
	assert.Equal(t, "55.71", got.ListPrice.Decimal.StringFixed(2))
	assert.False(t, got.SourcingCost.Valid)

	require.Len(t, got.Pricing, 2)
	assert.Equal(t, domain.RegionDomestic, got.Pricing[0].Region)
	assert.Equal(t, "41.00", got.Pricing[0].Price.StringFixed(2))
	assert.Equal(t, "7-10 days", got.Pricing[0].LeadTime)

	require.Len(t, got.Variations, 2)
	assert.Equal(t, "Sand", got.Variations[0].Name)
}

func TestProductRepository_DeleteUnlinksOrders(t *testing.T) {
	db := testutil.SetupTestDB(t)
	testutil.SetupTestTables(t, db)
	defer testutil.CleanupTestDB(t, db)

	ctx := context.Background()
	repo := NewSQLRepository(db, zap.NewNop())
	orders := orderrepo.NewSQLOrderRepository(db)
	storeID := uuid.NewString()
	p := newStoredProduct(t, repo, storeID)
	require.NoError(t, repo.UpsertPricing(ctx, domain.ProductPricing{ID: uuid.NewString(), ProductID: p.ID, Region: domain.RegionDomestic, Price: decimal.RequireFromString("39")}))

	o := domain.NewOrder(uuid.NewString(), storeID, time.Now().UTC())
	o.ProductID = &p.ID
	o.ProductName = "Linen Tote"
	_, err := orders.Insert(ctx, o)
	require.NoError(t, err)

	require.NoError(t, repo.Delete(ctx, []string{p.ID}))

	products, err := repo.FindByStore(ctx, storeID)
	require.NoError(t, err)
	assert.Empty(t, products)

	got, err := orders.FindByID(ctx, o.ID)
	require.NoError(t, err)
	assert.Nil(t, got.ProductID)
	assert.Equal(t, "Linen Tote", got.ProductName)
}

func TestProductRepository_Update(t *testing.T) {
	db := testutil.SetupTestDB(t)
	testutil.SetupTestTables(t, db)
	defer testutil.CleanupTestDB(t, db)

	ctx := context.Background()
	repo := NewSQLRepository(db, zap.NewNop())
	storeID := uuid.NewString()
	p := newStoredProduct(t, repo, storeID)

	require.NoError(t, repo.Update(ctx, p.ID, domain.Patch{
		domain.ProductStatusField: string(domain.ProductStatusAwaitingQuote),
		domain.ProductListPrice:   decimal.NullDecimal{},
	}))

	products, err := repo.FindByStore(ctx, storeID)
	require.NoError(t, err)
	require.Len(t, products, 1)
	assert.Equal(t, domain.ProductStatusAwaitingQuote, products[0].Status)
	assert.False(t, products[0].ListPrice.Valid)

	err = repo.Update(ctx, uuid.NewString(), domain.Patch{domain.ProductName: "x"})
	_, ok := errors.IsNotFoundError(err)
	assert.True(t, ok)
}

func TestProductRepository_DeleteVariation(t *testing.T) {
	db := testutil.SetupTestDB(t)
	testutil.SetupTestTables(t, db)
	defer testutil.CleanupTestDB(t, db)

	ctx := context.Background()
	repo := NewSQLRepository(db, zap.NewNop())
	p := newStoredProduct(t, repo, uuid.NewString())
	vid := uuid.NewString()
	require.NoError(t, repo.InsertVariation(ctx, domain.ProductVariation{ID: vid, ProductID: p.ID, Name: "Sand"}))

	require.NoError(t, repo.DeleteVariation(ctx, p.ID, vid))

	err := repo.DeleteVariation(ctx, p.ID, vid)
	_, ok := errors.IsNotFoundError(err)
	assert.True(t, ok)
}
