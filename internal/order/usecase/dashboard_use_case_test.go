package usecase

import (
	"context"
	"errors"
	"io"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"opsboard/internal/domain"
	"opsboard/internal/dto"
	apperrors "opsboard/internal/errors"
	"opsboard/internal/finance"
	"opsboard/internal/order/service"
	"opsboard/internal/session"
	"opsboard/internal/writeback"
)

type mockOrderService struct {
	ListFunc            func(ctx context.Context, storeID string) (*service.Listing, error)
	ReloadFunc          func(ctx context.Context, storeID string) (*service.Listing, error)
	GetFunc             func(ctx context.Context, storeID, id string) (domain.Order, error)
	CreateFunc          func(ctx context.Context, storeID string) (domain.Order, error)
	EditFunc            func(ctx context.Context, storeID, id, field string, value any) (writeback.Outcome[domain.Order], error)
	ToggleFunc          func(ctx context.Context, storeID string, ids []string, field string, value bool) ([]domain.Order, error)
	DeleteFunc          func(ctx context.Context, storeID string, ids []string) error
	OpenFunc            func(ctx context.Context, storeID, id string) (domain.Order, error)
	OpenedFunc          func(ctx context.Context, storeID string) (domain.Order, bool, error)
	CloseDetailFunc     func(ctx context.Context, storeID string) error
	AttachImageFunc     func(ctx context.Context, storeID, id, name string, r io.Reader) (domain.Order, error)
	SelectProductFunc   func(ctx context.Context, storeID, id string, productID *string) (domain.Order, error)
	SelectVariationFunc func(ctx context.Context, storeID, id string, variationID *string) (domain.Order, error)
}

func (m *mockOrderService) List(ctx context.Context, storeID string) (*service.Listing, error) {
	return m.ListFunc(ctx, storeID)
}

func (m *mockOrderService) Reload(ctx context.Context, storeID string) (*service.Listing, error) {
	return m.ReloadFunc(ctx, storeID)
}

func (m *mockOrderService) Get(ctx context.Context, storeID, id string) (domain.Order, error) {
	return m.GetFunc(ctx, storeID, id)
}

func (m *mockOrderService) Create(ctx context.Context, storeID string) (domain.Order, error) {
	return m.CreateFunc(ctx, storeID)
}

func (m *mockOrderService) Edit(ctx context.Context, storeID, id, field string, value any) (writeback.Outcome[domain.Order], error) {
	return m.EditFunc(ctx, storeID, id, field, value)
}

func (m *mockOrderService) Toggle(ctx context.Context, storeID string, ids []string, field string, value bool) ([]domain.Order, error) {
	return m.ToggleFunc(ctx, storeID, ids, field, value)
}

func (m *mockOrderService) Delete(ctx context.Context, storeID string, ids []string) error {
	return m.DeleteFunc(ctx, storeID, ids)
}

func (m *mockOrderService) Open(ctx context.Context, storeID, id string) (domain.Order, error) {
	return m.OpenFunc(ctx, storeID, id)
}

func (m *mockOrderService) Opened(ctx context.Context, storeID string) (domain.Order, bool, error) {
	return m.OpenedFunc(ctx, storeID)
}

func (m *mockOrderService) CloseDetail(ctx context.Context, storeID string) error {
	return m.CloseDetailFunc(ctx, storeID)
}

func (m *mockOrderService) AttachImage(ctx context.Context, storeID, id, name string, r io.Reader) (domain.Order, error) {
	return m.AttachImageFunc(ctx, storeID, id, name, r)
}

func (m *mockOrderService) SelectProduct(ctx context.Context, storeID, id string, productID *string) (domain.Order, error) {
	return m.SelectProductFunc(ctx, storeID, id, productID)
}

func (m *mockOrderService) SelectVariation(ctx context.Context, storeID, id string, variationID *string) (domain.Order, error) {
	return m.SelectVariationFunc(ctx, storeID, id, variationID)
}

var (
	operator = session.Session{StoreID: "store-1", Role: domain.RoleOperator}
	partner  = session.Session{StoreID: "store-1", Role: domain.RolePartner}
)

func sampleOrder() domain.Order {
	o := domain.NewOrder("o-1", "store-1", time.Date(2024, 4, 2, 9, 0, 0, 0, time.UTC))
	o.Address = "12 Baker St, London, United Kingdom"
	o.SoldPrice = decimal.NewFromInt(100)
	o.FeePercent = decimal.NewFromInt(10)
	o.SourcingCost = decimal.NewFromInt(30)
	o.Profit = decimal.NewFromInt(60)
	o.Supplier = "Acme"
	o.InternalNotes = "vip"
	return o
}

func sampleListing() *service.Listing {
	o := sampleOrder()
	return &service.Listing{
		Orders: []domain.Order{o},
		Totals: finance.Sum([]finance.Line{{SoldPrice: o.SoldPrice, FeePercent: o.FeePercent, SourcingCost: o.SourcingCost, Profit: o.Profit}}),
		OpenID: "o-1",
	}
}

func TestDashboardUseCase_ListOperator(t *testing.T) {
	uc := NewDashboardUseCase(&mockOrderService{
		ListFunc: func(ctx context.Context, storeID string) (*service.Listing, error) {
			assert.Equal(t, "store-1", storeID)
			return sampleListing(), nil
		},
	}, zap.NewNop())

	resp, err := uc.List(context.Background(), operator)

	require.NoError(t, err)
	require.Len(t, resp.Orders, 1)
	got := resp.Orders[0]
	require.NotNil(t, got.SoldPrice)
	assert.Equal(t, "100.00", *got.SoldPrice)
	assert.Equal(t, "60.00", *got.Profit)
	assert.Equal(t, string(finance.SignPositive), got.ProfitSign)
	assert.Equal(t, string(domain.RegionUK), got.Region)
	require.NotNil(t, resp.Totals)
	assert.Equal(t, "10.00", resp.Totals.Fees)
	assert.Equal(t, "o-1", resp.OpenID)
}

func TestDashboardUseCase_ListPartnerHidesFinancials(t *testing.T) {
	uc := NewDashboardUseCase(&mockOrderService{
		ListFunc: func(ctx context.Context, storeID string) (*service.Listing, error) {
			return sampleListing(), nil
		},
	}, zap.NewNop())

	resp, err := uc.List(context.Background(), partner)

	require.NoError(t, err)
	assert.Nil(t, resp.Totals)
	got := resp.Orders[0]
	assert.Nil(t, got.SoldPrice)
	assert.Nil(t, got.FeePercent)
	assert.Nil(t, got.SourcingCost)
	assert.Nil(t, got.Profit)
	assert.Nil(t, got.Supplier)
	assert.Nil(t, got.InternalNotes)
	assert.Empty(t, got.ProfitSign)
}

func TestDashboardUseCase_ReloadKeepsStaleListing(t *testing.T) {
	fetchErr := apperrors.NewFetchError("orders", "store-1", errors.New("connection refused"))
	uc := NewDashboardUseCase(&mockOrderService{
		ReloadFunc: func(ctx context.Context, storeID string) (*service.Listing, error) {
			l := sampleListing()
			l.Stale = true
			return l, fetchErr
		},
	}, zap.NewNop())

	resp, err := uc.Reload(context.Background(), operator)

	assert.ErrorIs(t, err, fetchErr)
	require.NotNil(t, resp)
	assert.True(t, resp.Stale)
	assert.Len(t, resp.Orders, 1)
}

func TestDashboardUseCase_PartnerCannotEditFinancials(t *testing.T) {
	called := false
	uc := NewDashboardUseCase(&mockOrderService{
		EditFunc: func(ctx context.Context, storeID, id, field string, value any) (writeback.Outcome[domain.Order], error) {
			called = true
			return writeback.Outcome[domain.Order]{}, nil
		},
	}, zap.NewNop())

	_, err := uc.Edit(context.Background(), partner, "o-1", dto.EditRequest{Field: domain.OrderSoldPrice, Value: "10"})

	_, ok := apperrors.IsForbiddenError(err)
	assert.True(t, ok)
	assert.False(t, called)
}

func TestDashboardUseCase_PartnerCannotSelectProduct(t *testing.T) {
	called := false
	mock := &mockOrderService{
		SelectProductFunc: func(ctx context.Context, storeID, id string, productID *string) (domain.Order, error) {
			called = true
			return sampleOrder(), nil
		},
		SelectVariationFunc: func(ctx context.Context, storeID, id string, variationID *string) (domain.Order, error) {
			called = true
			return sampleOrder(), nil
		},
	}
	uc := NewDashboardUseCase(mock, zap.NewNop())
	pid, vid := "p-1", "v-1"

	_, err := uc.SelectProduct(context.Background(), partner, "o-1", dto.SelectProductRequest{ProductID: &pid})
	_, ok := apperrors.IsForbiddenError(err)
	assert.True(t, ok)

	_, err = uc.SelectVariation(context.Background(), partner, "o-1", dto.SelectVariationRequest{VariationID: &vid})
	_, ok = apperrors.IsForbiddenError(err)
	assert.True(t, ok)
	assert.False(t, called)

	resp, err := uc.SelectProduct(context.Background(), operator, "o-1", dto.SelectProductRequest{ProductID: &pid})
	require.NoError(t, err)
	assert.True(t, called)
	assert.NotNil(t, resp.Order.SoldPrice)
}

func TestDashboardUseCase_EditReturnsWarning(t *testing.T) {
	uc := NewDashboardUseCase(&mockOrderService{
		EditFunc: func(ctx context.Context, storeID, id, field string, value any) (writeback.Outcome[domain.Order], error) {
			assert.Equal(t, domain.OrderQuantity, field)
			o := sampleOrder()
			o.Quantity = 0
			return writeback.Outcome[domain.Order]{
				Record:  o,
				Value:   0,
				Warning: apperrors.NewValidationError("not a number", apperrors.ValidationDetail{Field: field, Message: "replaced with 0"}),
			}, nil
		},
	}, zap.NewNop())

	resp, err := uc.Edit(context.Background(), partner, "o-1", dto.EditRequest{Field: domain.OrderQuantity, Value: "lots"})

	require.NoError(t, err)
	require.NotNil(t, resp.Warning)
	assert.Equal(t, "not a number", resp.Warning.Message)
	assert.Equal(t, 0, resp.Order.Quantity)
}

func TestDashboardUseCase_OpenedNone(t *testing.T) {
	uc := NewDashboardUseCase(&mockOrderService{
		OpenedFunc: func(ctx context.Context, storeID string) (domain.Order, bool, error) {
			return domain.Order{}, false, nil
		},
	}, zap.NewNop())

	_, err := uc.Opened(context.Background(), operator)

	_, ok := apperrors.IsNotFoundError(err)
	assert.True(t, ok)
}

func TestToOrderDTO_OrderedAt(t *testing.T) {
	o := sampleOrder()
	at := time.Date(2024, 2, 29, 0, 0, 0, 0, time.UTC)
	o.OrderedAt = &at

	got := ToOrderDTO(o, domain.RoleOperator)

	require.NotNil(t, got.OrderedAt)
	assert.Equal(t, "2024-02-29", *got.OrderedAt)
}
