package catalog

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"opsboard/internal/domain"
	apperrors "opsboard/internal/errors"
)

type ProductLookup interface {
	Get(id string) (domain.Product, bool)
}

type OrderLookup interface {
	Get(id string) (domain.Order, bool)
}

// OrderCommitter applies a discrete multi-field change to an order and writes
// it through without debouncing.
type OrderCommitter interface {
	Commit(ctx context.Context, recordID string, patch domain.Patch) error
}

type Service struct {
	products  ProductLookup
	orders    OrderLookup
	committer OrderCommitter
	logger    *zap.Logger
}

func NewService(products ProductLookup, orders OrderLookup, committer OrderCommitter, logger *zap.Logger) *Service {
	return &Service{
		products:  products,
		orders:    orders,
		committer: committer,
		logger:    logger,
	}
}

// SelectProduct links productID to the order, or unlinks the order when
// productID is nil.
func (s *Service) SelectProduct(ctx context.Context, orderID string, productID *string) (domain.Order, error) {
	order, ok := s.orders.Get(orderID)
	if !ok {
		return domain.Order{}, apperrors.NewNotFoundError(fmt.Sprintf("order %s not found", orderID))
	}

	var product *domain.Product
	if productID != nil {
		p, ok := s.products.Get(*productID)
		if !ok {
			return domain.Order{}, apperrors.NewNotFoundError(fmt.Sprintf("product %s not found", *productID))
		}
		product = &p
	}

	patch := ResolveProduct(order, product)
	if err := s.committer.Commit(ctx, orderID, patch); err != nil {
		return domain.Order{}, err
	}
	s.logger.Debug("product resolved for order", zap.String("orderId", orderID), zap.Strings("fields", patch.Fields()))

	return s.current(orderID, order), nil
}

// SelectVariation picks one of the linked product's variations, or reverts to
// the bare product when variationID is nil.
func (s *Service) SelectVariation(ctx context.Context, orderID string, variationID *string) (domain.Order, error) {
	order, ok := s.orders.Get(orderID)
	if !ok {
		return domain.Order{}, apperrors.NewNotFoundError(fmt.Sprintf("order %s not found", orderID))
	}
	if order.ProductID == nil {
		return domain.Order{}, apperrors.NewValidationError("order has no product", apperrors.ValidationDetail{
			Field:   domain.OrderVariationID,
			Message: "select a product before a variation",
		})
	}

	product, ok := s.products.Get(*order.ProductID)
	if !ok {
		return domain.Order{}, apperrors.NewNotFoundError(fmt.Sprintf("product %s not found", *order.ProductID))
	}

	var variation *domain.ProductVariation
	if variationID != nil {
		v, ok := product.Variation(*variationID)
		if !ok {
			return domain.Order{}, apperrors.NewValidationError("unknown variation", apperrors.ValidationDetail{
				Field:   domain.OrderVariationID,
				Message: fmt.Sprintf("variation %s does not belong to product %s", *variationID, product.ID),
			})
		}
		variation = &v
	}

	patch := ResolveVariation(order, product, variation)
	if err := s.committer.Commit(ctx, orderID, patch); err != nil {
		return domain.Order{}, err
	}
	s.logger.Debug("variation resolved for order", zap.String("orderId", orderID), zap.Strings("fields", patch.Fields()))

	return s.current(orderID, order), nil
}

func (s *Service) current(orderID string, fallback domain.Order) domain.Order {
	if o, ok := s.orders.Get(orderID); ok {
		return o
	}
	return fallback
}
