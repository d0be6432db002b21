package catalog

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"opsboard/internal/domain"
	apperrors "opsboard/internal/errors"
)

type mockProducts struct {
	products map[string]domain.Product
}

func (m *mockProducts) Get(id string) (domain.Product, bool) {
	p, ok := m.products[id]
	return p, ok
}

// fakeOrders applies committed patches to its own map so lookups after a
// commit see the result.
type fakeOrders struct {
	orders     map[string]domain.Order
	commits    []domain.Patch
	CommitFunc func(ctx context.Context, recordID string, patch domain.Patch) error
}

func (f *fakeOrders) Get(id string) (domain.Order, bool) {
	o, ok := f.orders[id]
	return o, ok
}

func (f *fakeOrders) Commit(ctx context.Context, recordID string, patch domain.Patch) error {
	if f.CommitFunc != nil {
		if err := f.CommitFunc(ctx, recordID, patch); err != nil {
			return err
		}
	}
	f.commits = append(f.commits, patch)
	f.orders[recordID] = f.orders[recordID].Patched(patch)
	return nil
}

func newTestService(order domain.Order) (*Service, *fakeOrders) {
	product := testProduct()
	orders := &fakeOrders{orders: map[string]domain.Order{order.ID: order}}
	products := &mockProducts{products: map[string]domain.Product{product.ID: product}}
	return NewService(products, orders, orders, zap.NewNop()), orders
}

func strPtr(s string) *string {
	return &s
}

func TestService_SelectProductThenVariation(t *testing.T) {
	ctx := context.Background()
	svc, orders := newTestService(testOrder(""))

	order, err := svc.SelectProduct(ctx, "o-1", strPtr("p-1"))
	require.NoError(t, err)
	assert.Equal(t, "Linen Tote", order.ProductName)

	order, err = svc.SelectVariation(ctx, "o-1", strPtr("v-1"))
	require.NoError(t, err)
	assert.Equal(t, "Linen Tote – Sand", order.ProductName)

	order, err = svc.SelectVariation(ctx, "o-1", nil)
	require.NoError(t, err)
	assert.Equal(t, "Linen Tote", order.ProductName)
	assert.Nil(t, order.VariationID)

	assert.Len(t, orders.commits, 3)
}

func TestService_SelectProduct_None(t *testing.T) {
	ctx := context.Background()
	svc, _ := newTestService(testOrder(""))

	_, err := svc.SelectProduct(ctx, "o-1", strPtr("p-1"))
	require.NoError(t, err)

	order, err := svc.SelectProduct(ctx, "o-1", nil)
	require.NoError(t, err)
	assert.Nil(t, order.ProductID)
	assert.Equal(t, "Linen Tote", order.ProductName)
}

func TestService_SelectProduct_UnknownOrder(t *testing.T) {
	svc, _ := newTestService(testOrder(""))

	_, err := svc.SelectProduct(context.Background(), "missing", strPtr("p-1"))

	_, ok := apperrors.IsNotFoundError(err)
	assert.True(t, ok)
}

func TestService_SelectProduct_UnknownProduct(t *testing.T) {
	svc, orders := newTestService(testOrder(""))

	_, err := svc.SelectProduct(context.Background(), "o-1", strPtr("p-404"))

	_, ok := apperrors.IsNotFoundError(err)
	assert.True(t, ok)
	assert.Empty(t, orders.commits)
}

func TestService_SelectVariation_WithoutProduct(t *testing.T) {
	svc, _ := newTestService(testOrder(""))

	_, err := svc.SelectVariation(context.Background(), "o-1", strPtr("v-1"))

	_, ok := apperrors.IsValidationError(err)
	assert.True(t, ok)
}

func TestService_SelectVariation_ForeignVariation(t *testing.T) {
	ctx := context.Background()
	svc, _ := newTestService(testOrder(""))
	_, err := svc.SelectProduct(ctx, "o-1", strPtr("p-1"))
	require.NoError(t, err)

	_, err = svc.SelectVariation(ctx, "o-1", strPtr("v-other"))

	_, ok := apperrors.IsValidationError(err)
	assert.True(t, ok)
}

func TestService_SelectProduct_CommitError(t *testing.T) {
	svc, orders := newTestService(testOrder(""))
	orders.CommitFunc = func(ctx context.Context, recordID string, patch domain.Patch) error {
		return errors.New("boom")
	}

	_, err := svc.SelectProduct(context.Background(), "o-1", strPtr("p-1"))

	assert.EqualError(t, err, "boom")
}
