package memory

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"opsboard/internal/domain"
	"opsboard/internal/errors"
)

func TestOrderRepository_RoundTrip(t *testing.T) {
	ctx := context.Background()
	db := New()
	repo := db.Orders()
	base := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)

	_, err := repo.Insert(ctx, domain.NewOrder("o-1", "s-1", base))
	require.NoError(t, err)
	_, err = repo.Insert(ctx, domain.NewOrder("o-2", "s-1", base.Add(time.Hour)))
	require.NoError(t, err)
	_, err = repo.Insert(ctx, domain.NewOrder("o-3", "s-2", base))
	require.NoError(t, err)

	require.NoError(t, repo.Update(ctx, "o-1", domain.Patch{domain.OrderNotes: "hello"}))

	orders, err := repo.FindByStore(ctx, "s-1")
	require.NoError(t, err)
	require.Len(t, orders, 2)
	assert.Equal(t, "o-2", orders[0].ID)
	assert.Equal(t, "hello", orders[1].Notes)

	require.NoError(t, repo.Delete(ctx, []string{"o-2"}))
	orders, err = repo.FindByStore(ctx, "s-1")
	require.NoError(t, err)
	assert.Len(t, orders, 1)
}

func TestOrderRepository_UpdateMissing(t *testing.T) {
	err := New().Orders().Update(context.Background(), "nope", domain.Patch{domain.OrderNotes: "x"})

	_, ok := errors.IsNotFoundError(err)
	assert.True(t, ok)
}

func TestOrderRepository_InsertDuplicate(t *testing.T) {
	ctx := context.Background()
	repo := New().Orders()
	_, err := repo.Insert(ctx, domain.NewOrder("o-1", "s-1", time.Now()))
	require.NoError(t, err)

	_, err = repo.Insert(ctx, domain.NewOrder("o-1", "s-1", time.Now()))
	assert.Error(t, err)
}

func TestProductRepository_DeleteUnlinksOrders(t *testing.T) {
	ctx := context.Background()
	db := New()
	products := db.Products()
	orders := db.Orders()

	_, err := products.Insert(ctx, domain.NewProduct("p-1", "s-1", "Tote", time.Now()))
	require.NoError(t, err)
	o := domain.NewOrder("o-1", "s-1", time.Now())
	pid, vid := "p-1", "v-1"
	o.ProductID, o.VariationID = &pid, &vid
	o.ProductName = "Tote"
	_, err = orders.Insert(ctx, o)
	require.NoError(t, err)

	require.NoError(t, products.Delete(ctx, []string{"p-1"}))

	list, err := products.FindByStore(ctx, "s-1")
	require.NoError(t, err)
	assert.Empty(t, list)

	remaining, err := orders.FindByStore(ctx, "s-1")
	require.NoError(t, err)
	require.Len(t, remaining, 1)
	assert.Nil(t, remaining[0].ProductID)
	assert.Nil(t, remaining[0].VariationID)
	assert.Equal(t, "Tote", remaining[0].ProductName)
}

func TestProductRepository_PricingAndVariations(t *testing.T) {
	ctx := context.Background()
	repo := New().Products()
	_, err := repo.Insert(ctx, domain.NewProduct("p-1", "s-1", "Tote", time.Now()))
	require.NoError(t, err)

	require.NoError(t, repo.UpsertPricing(ctx, domain.ProductPricing{ID: "t-1", ProductID: "p-1", Region: domain.RegionDomestic, Price: decimal.NewFromInt(39)}))
	require.NoError(t, repo.UpsertPricing(ctx, domain.ProductPricing{ID: "t-1", ProductID: "p-1", Region: domain.RegionDomestic, Price: decimal.NewFromInt(42)}))
	require.NoError(t, repo.InsertVariation(ctx, domain.ProductVariation{ID: "v-1", ProductID: "p-1", Name: "Sand"}))

	list, err := repo.FindByStore(ctx, "s-1")
	require.NoError(t, err)
	require.Len(t, list, 1)
	require.Len(t, list[0].Pricing, 1)
	assert.Equal(t, "42", list[0].Pricing[0].Price.String())
	require.Len(t, list[0].Variations, 1)

	require.NoError(t, repo.DeleteVariation(ctx, "p-1", "v-1"))
	err = repo.DeleteVariation(ctx, "p-1", "v-1")
	_, ok := errors.IsNotFoundError(err)
	assert.True(t, ok)

	err = repo.UpsertPricing(ctx, domain.ProductPricing{ProductID: "missing", Region: domain.RegionUK})
	_, ok = errors.IsNotFoundError(err)
	assert.True(t, ok)
}

func TestStoreRepository(t *testing.T) {
	ctx := context.Background()
	repo := New().Stores()

	_, err := repo.FindByID(ctx, "s-1")
	_, ok := errors.IsNotFoundError(err)
	assert.True(t, ok)

	require.NoError(t, repo.Save(ctx, domain.Store{ID: "s-1", Name: "Paper Moon", DefaultFeePercent: decimal.NewFromInt(6)}))
	store, err := repo.FindByID(ctx, "s-1")
	require.NoError(t, err)
	assert.Equal(t, "Paper Moon", store.Name)
}
