package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"opsboard/internal/config"
	"opsboard/internal/domain"
	apperrors "opsboard/internal/errors"
	"opsboard/internal/infrastructure/memory"
	"opsboard/internal/notify"
	"opsboard/internal/testutil"
	"opsboard/internal/workspace"
)

const storeID = "store-1"

type fixture struct {
	svc     *ProductService
	db      *memory.DB
	manager *workspace.Manager
	clock   *testutil.FakeClock
}

// failingProducts rechaza los deletes cuando DeleteFunc devuelve error.
type failingProducts struct {
	*memory.ProductRepository
	DeleteFunc func(ids []string) error
}

func (f *failingProducts) Delete(ctx context.Context, ids []string) error {
	if f.DeleteFunc != nil {
		if err := f.DeleteFunc(ids); err != nil {
			return err
		}
	}
	return f.ProductRepository.Delete(ctx, ids)
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	return newFixtureWithProducts(t, nil)
}

func newFixtureWithProducts(t *testing.T, wrap func(*memory.ProductRepository) workspace.ProductRepository) *fixture {
	t.Helper()
	db := memory.New()
	clock := testutil.NewFakeClock()
	var products workspace.ProductRepository = db.Products()
	if wrap != nil {
		products = wrap(db.Products())
	}
	manager := workspace.NewManager(workspace.Backend{
		Orders:   db.Orders(),
		Products: products,
		Stores:   db.Stores(),
	}, notify.NewHub(10, zap.NewNop()), config.EditingConfig{
		QuietPeriod:  500 * time.Millisecond,
		WriteTimeout: time.Second,
	}, clock, zap.NewNop())
	t.Cleanup(func() { _ = manager.Close(context.Background()) })

	svc := NewProductService(manager, zap.NewNop())
	svc.now = clock.Now
	return &fixture{svc: svc, db: db, manager: manager, clock: clock}
}

func (f *fixture) workspace(t *testing.T) *workspace.Workspace {
	t.Helper()
	ws, err := f.manager.Get(context.Background(), storeID)
	require.NoError(t, err)
	return ws
}

func money(v int64) decimal.NullDecimal {
	return decimal.NewNullDecimal(decimal.NewFromInt(v))
}

func TestProductService_CreateAndList(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	created, err := f.svc.Create(ctx, storeID, "  Tote  ")
	require.NoError(t, err)
	assert.Equal(t, "Tote", created.Product.Name)
	assert.Equal(t, domain.ProductStatusActive, created.Product.Status)

	catalog, err := f.svc.List(ctx, storeID)
	require.NoError(t, err)
	require.Len(t, catalog.Entries, 1)
	assert.False(t, catalog.Entries[0].Projection.Profit.Valid)
}

func TestProductService_CreateRequiresName(t *testing.T) {
	f := newFixture(t)

	_, err := f.svc.Create(context.Background(), storeID, " ")

	_, ok := apperrors.IsValidationError(err)
	assert.True(t, ok)
}

func TestProductService_EditProjects(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	created, err := f.svc.Create(ctx, storeID, "Tote")
	require.NoError(t, err)

	_, _, err = f.svc.Edit(ctx, storeID, created.Product.ID, domain.ProductListPrice, "100")
	require.NoError(t, err)
	entry, warning, err := f.svc.Edit(ctx, storeID, created.Product.ID, domain.ProductSourcingCost, "20")
	require.NoError(t, err)

	assert.Nil(t, warning)
	require.True(t, entry.Projection.Profit.Valid)
	// 100 * 0.7 = 70, fee 8.40, after fee 61.60, minus 20
	assert.Equal(t, "41.6", entry.Projection.Profit.Decimal.String())
	require.NotNil(t, entry.Projection.ProfitPercent)
	assert.Equal(t, int64(59), *entry.Projection.ProfitPercent)
}

func TestProductService_DeleteUnlinksOrders(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	_, err := f.db.Products().Insert(ctx, domain.NewProduct("p-1", storeID, "Tote", f.clock.Now()))
	require.NoError(t, err)
	o := domain.NewOrder("o-1", storeID, f.clock.Now())
	pid, vid := "p-1", "v-1"
	o.ProductID, o.VariationID = &pid, &vid
	o.ProductName = "Tote"
	_, err = f.db.Orders().Insert(ctx, o)
	require.NoError(t, err)

	require.NoError(t, f.svc.Delete(ctx, storeID, []string{"p-1"}))

	ws := f.workspace(t)
	cached, ok := ws.Orders.Get("o-1")
	require.True(t, ok)
	assert.Nil(t, cached.ProductID)
	assert.Nil(t, cached.VariationID)
	assert.Equal(t, "Tote", cached.ProductName)
	_, ok = ws.Products.Get("p-1")
	assert.False(t, ok)

	remote, err := f.db.Orders().FindByStore(ctx, storeID)
	require.NoError(t, err)
	require.Len(t, remote, 1)
	assert.Nil(t, remote[0].ProductID)
}

func TestProductService_DeleteFailureKeepsPendingEdits(t *testing.T) {
	repo := &failingProducts{DeleteFunc: func(ids []string) error {
		return errors.New("connection reset")
	}}
	f := newFixtureWithProducts(t, func(p *memory.ProductRepository) workspace.ProductRepository {
		repo.ProductRepository = p
		return repo
	})
	ctx := context.Background()
	created, err := f.svc.Create(ctx, storeID, "Tote")
	require.NoError(t, err)
	_, _, err = f.svc.Edit(ctx, storeID, created.Product.ID, domain.ProductDescription, "linen")
	require.NoError(t, err)

	err = f.svc.Delete(ctx, storeID, []string{created.Product.ID})
	require.Error(t, err)

	ws := f.workspace(t)
	assert.Equal(t, 1, ws.ProductEdits.Pending())
	f.clock.Advance(time.Second)
	require.NoError(t, ws.ProductEdits.Sync(ctx))

	remote, err := f.db.Products().FindByStore(ctx, storeID)
	require.NoError(t, err)
	require.Len(t, remote, 1)
	assert.Equal(t, "linen", remote[0].Description)
}

func TestProductService_DeleteWaitsForQueuedSelection(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	_, err := f.db.Products().Insert(ctx, domain.NewProduct("p-1", storeID, "Tote", f.clock.Now()))
	require.NoError(t, err)
	_, err = f.db.Orders().Insert(ctx, domain.NewOrder("o-1", storeID, f.clock.Now()))
	require.NoError(t, err)

	ws := f.workspace(t)
	pid := "p-1"
	_, err = ws.Catalog.SelectProduct(ctx, "o-1", &pid)
	require.NoError(t, err)
	require.NoError(t, f.svc.Delete(ctx, storeID, []string{"p-1"}))
	require.NoError(t, ws.OrderEdits.Sync(ctx))

	remote, err := f.db.Orders().FindByStore(ctx, storeID)
	require.NoError(t, err)
	require.Len(t, remote, 1)
	assert.Nil(t, remote[0].ProductID)
	assert.Equal(t, "Tote", remote[0].ProductName)
	cached, _ := ws.Orders.Get("o-1")
	assert.Nil(t, cached.ProductID)
}

func TestProductService_UpsertPricingKeepsTierID(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	created, err := f.svc.Create(ctx, storeID, "Tote")
	require.NoError(t, err)
	id := created.Product.ID

	first, err := f.svc.UpsertPricing(ctx, storeID, id, domain.RegionUK, decimal.NewFromInt(30), "5 days")
	require.NoError(t, err)
	second, err := f.svc.UpsertPricing(ctx, storeID, id, domain.RegionUK, decimal.NewFromInt(35), "")
	require.NoError(t, err)

	require.Len(t, second.Product.Pricing, 1)
	assert.Equal(t, first.Product.Pricing[0].ID, second.Product.Pricing[0].ID)
	assert.Equal(t, "35", second.Product.Pricing[0].Price.String())

	remote, err := f.db.Products().FindByStore(ctx, storeID)
	require.NoError(t, err)
	require.Len(t, remote[0].Pricing, 1)
	assert.Equal(t, "35", remote[0].Pricing[0].Price.String())
}

func TestProductService_UpsertPricingRejects(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.svc.UpsertPricing(ctx, storeID, "p-1", domain.RegionTag("mars"), decimal.NewFromInt(1), "")
	_, ok := apperrors.IsValidationError(err)
	assert.True(t, ok)

	_, err = f.svc.UpsertPricing(ctx, storeID, "p-1", domain.RegionUK, decimal.NewFromInt(-1), "")
	_, ok = apperrors.IsValidationError(err)
	assert.True(t, ok)

	_, err = f.svc.UpsertPricing(ctx, storeID, "p-1", domain.RegionUK, decimal.NewFromInt(1), "")
	_, ok = apperrors.IsNotFoundError(err)
	assert.True(t, ok)
}

func TestProductService_Variations(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	created, err := f.svc.Create(ctx, storeID, "Tote")
	require.NoError(t, err)
	id := created.Product.ID

	sand, err := f.svc.AddVariation(ctx, storeID, id, NewVariation{Name: "Sand", Price: money(40)})
	require.NoError(t, err)
	olive, err := f.svc.AddVariation(ctx, storeID, id, NewVariation{Name: "Olive"})
	require.NoError(t, err)
	assert.Equal(t, 0, sand.Position)
	assert.Equal(t, 1, olive.Position)

	o := domain.NewOrder("o-1", storeID, f.clock.Now())
	o.ProductID, o.VariationID = &id, &sand.ID
	ws := f.workspace(t)
	ws.Orders.Put(o)

	require.NoError(t, f.svc.RemoveVariation(ctx, storeID, id, sand.ID))

	p, ok := ws.Products.Get(id)
	require.True(t, ok)
	require.Len(t, p.Variations, 1)
	assert.Equal(t, "Olive", p.Variations[0].Name)
	cached, _ := ws.Orders.Get("o-1")
	assert.Nil(t, cached.VariationID)
	require.NotNil(t, cached.ProductID)

	err = f.svc.RemoveVariation(ctx, storeID, id, sand.ID)
	_, ok = apperrors.IsNotFoundError(err)
	assert.True(t, ok)
}
