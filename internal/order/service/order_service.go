package service

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"opsboard/internal/domain"
	apperrors "opsboard/internal/errors"
	"opsboard/internal/finance"
	"opsboard/internal/workspace"
	"opsboard/internal/writeback"
)

type Workspaces interface {
	Get(ctx context.Context, storeID string) (*workspace.Workspace, error)
}

type ImageUploader interface {
	Upload(ctx context.Context, name string, r io.Reader) (string, error)
}

// Listing is the order dashboard as currently cached. Stale is set when the
// last load failed and the records are from an earlier one.
type Listing struct {
	Orders []domain.Order
	Totals finance.Totals
	Stale  bool
	OpenID string
}

type OrderService struct {
	workspaces Workspaces
	uploader   ImageUploader
	logger     *zap.Logger
	now        func() time.Time
}

func NewOrderService(workspaces Workspaces, uploader ImageUploader, logger *zap.Logger) *OrderService {
	return &OrderService{
		workspaces: workspaces,
		uploader:   uploader,
		logger:     logger,
		now:        time.Now,
	}
}

// workspace tolerates a failed load: the cached records are still usable.
func (s *OrderService) workspace(ctx context.Context, storeID string) (*workspace.Workspace, error) {
	ws, err := s.workspaces.Get(ctx, storeID)
	if err != nil {
		if _, ok := apperrors.IsFetchError(err); ok && ws != nil {
			return ws, nil
		}
		return nil, err
	}
	return ws, nil
}

func (s *OrderService) List(ctx context.Context, storeID string) (*Listing, error) {
	ws, err := s.workspace(ctx, storeID)
	if err != nil {
		return nil, err
	}
	return listing(ws), nil
}

// Reload refreshes the store's orders and products. On failure the previous
// listing is returned together with the FetchError.
func (s *OrderService) Reload(ctx context.Context, storeID string) (*Listing, error) {
	ws, err := s.workspace(ctx, storeID)
	if err != nil {
		return nil, err
	}
	err = ws.Reload(ctx)
	return listing(ws), err
}

func listing(ws *workspace.Workspace) *Listing {
	orders := ws.Orders.List()
	lines := make([]finance.Line, len(orders))
	for i, o := range orders {
		lines[i] = finance.Line{
			SoldPrice:    o.SoldPrice,
			FeePercent:   o.FeePercent,
			SourcingCost: o.SourcingCost,
			Profit:       o.Profit,
		}
	}
	return &Listing{
		Orders: orders,
		Totals: finance.Sum(lines),
		Stale:  ws.Orders.Stale(),
		OpenID: ws.Orders.OpenID(),
	}
}

func (s *OrderService) Get(ctx context.Context, storeID, id string) (domain.Order, error) {
	ws, err := s.workspace(ctx, storeID)
	if err != nil {
		return domain.Order{}, err
	}
	o, ok := ws.Orders.Get(id)
	if !ok {
		return domain.Order{}, apperrors.NewNotFoundError(fmt.Sprintf("order %s not found", id))
	}
	return o, nil
}

// Create inserts a blank order with the column defaults and the store's fee
// percent.
func (s *OrderService) Create(ctx context.Context, storeID string) (domain.Order, error) {
	ws, err := s.workspace(ctx, storeID)
	if err != nil {
		return domain.Order{}, err
	}

	o := domain.NewOrder(uuid.NewString(), storeID, s.now().UTC())
	o.FeePercent = ws.DefaultFeePercent(ctx)

	created, err := ws.Orders.Create(ctx, o)
	if err != nil {
		s.logger.Error("order create failed", zap.String("storeId", storeID), zap.Error(err))
		return domain.Order{}, err
	}
	s.logger.Info("order created", zap.String("storeId", storeID), zap.String("orderId", created.ID))
	return created, nil
}

func (s *OrderService) Edit(ctx context.Context, storeID, id, field string, value any) (writeback.Outcome[domain.Order], error) {
	ws, err := s.workspace(ctx, storeID)
	if err != nil {
		return writeback.Outcome[domain.Order]{}, err
	}
	return ws.OrderEdits.Edit(ctx, id, field, value)
}

// Toggle sets a checkbox column on several orders at once. Orders that are no
// longer cached are skipped; it fails only when none of them is.
func (s *OrderService) Toggle(ctx context.Context, storeID string, ids []string, field string, value bool) ([]domain.Order, error) {
	spec, err := domain.OrderSchema.EditableField(field)
	if err != nil {
		return nil, err
	}
	if spec.Kind != domain.KindCheckbox {
		return nil, apperrors.NewValidationError("field is not a checkbox", apperrors.ValidationDetail{
			Field:   "field",
			Message: fmt.Sprintf("%s is a %s column", field, spec.Kind),
		})
	}

	ws, err := s.workspace(ctx, storeID)
	if err != nil {
		return nil, err
	}

	updated := make([]domain.Order, 0, len(ids))
	for _, id := range ids {
		err := ws.OrderEdits.Commit(ctx, id, domain.Patch{field: value})
		if _, ok := apperrors.IsNotFoundError(err); ok {
			continue
		}
		if err != nil {
			return updated, err
		}
		if o, ok := ws.Orders.Get(id); ok {
			updated = append(updated, o)
		}
	}
	if len(updated) == 0 && len(ids) > 0 {
		return nil, apperrors.NewNotFoundError("none of the orders were found")
	}
	s.logger.Info("orders toggled", zap.String("storeId", storeID), zap.String("field", field), zap.Bool("value", value), zap.Int("count", len(updated)))
	return updated, nil
}

func (s *OrderService) Delete(ctx context.Context, storeID string, ids []string) error {
	if len(ids) == 0 {
		return apperrors.NewValidationError("no orders selected", apperrors.ValidationDetail{
			Field:   "ids",
			Message: "ids must not be empty",
		})
	}
	ws, err := s.workspace(ctx, storeID)
	if err != nil {
		return err
	}

	ws.OrderEdits.Forget(ids...)
	if err := ws.Orders.Delete(ctx, ids); err != nil {
		s.logger.Error("order delete failed", zap.String("storeId", storeID), zap.Strings("orderIds", ids), zap.Error(err))
		return err
	}
	return nil
}

func (s *OrderService) Open(ctx context.Context, storeID, id string) (domain.Order, error) {
	ws, err := s.workspace(ctx, storeID)
	if err != nil {
		return domain.Order{}, err
	}
	if !ws.Orders.Open(id) {
		return domain.Order{}, apperrors.NewNotFoundError(fmt.Sprintf("order %s not found", id))
	}
	o, _ := ws.Orders.Opened()
	return o, nil
}

func (s *OrderService) Opened(ctx context.Context, storeID string) (domain.Order, bool, error) {
	ws, err := s.workspace(ctx, storeID)
	if err != nil {
		return domain.Order{}, false, err
	}
	o, ok := ws.Orders.Opened()
	return o, ok, nil
}

// CloseDetail closes the detail panel and writes its pending edits now.
func (s *OrderService) CloseDetail(ctx context.Context, storeID string) error {
	ws, err := s.workspace(ctx, storeID)
	if err != nil {
		return err
	}
	if id := ws.Orders.CloseDetail(); id != "" {
		ws.OrderEdits.FlushRecord(id)
	}
	return nil
}

// AttachImage stores the image and points the order's image_url at it.
func (s *OrderService) AttachImage(ctx context.Context, storeID, id, name string, r io.Reader) (domain.Order, error) {
	ws, err := s.workspace(ctx, storeID)
	if err != nil {
		return domain.Order{}, err
	}
	if _, ok := ws.Orders.Get(id); !ok {
		return domain.Order{}, apperrors.NewNotFoundError(fmt.Sprintf("order %s not found", id))
	}

	url, err := s.uploader.Upload(ctx, name, r)
	if err != nil {
		return domain.Order{}, err
	}
	if err := ws.OrderEdits.Commit(ctx, id, domain.Patch{domain.OrderImageURL: url}); err != nil {
		return domain.Order{}, err
	}

	o, _ := ws.Orders.Get(id)
	return o, nil
}

func (s *OrderService) SelectProduct(ctx context.Context, storeID, id string, productID *string) (domain.Order, error) {
	ws, err := s.workspace(ctx, storeID)
	if err != nil {
		return domain.Order{}, err
	}
	return ws.Catalog.SelectProduct(ctx, id, productID)
}

func (s *OrderService) SelectVariation(ctx context.Context, storeID, id string, variationID *string) (domain.Order, error) {
	ws, err := s.workspace(ctx, storeID)
	if err != nil {
		return domain.Order{}, err
	}
	return ws.Catalog.SelectVariation(ctx, id, variationID)
}
