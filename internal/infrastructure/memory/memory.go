// Package memory is a process-local remote store used for development and
// as the fallback when no database is reachable.
package memory

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"opsboard/internal/domain"
	"opsboard/internal/errors"
)

type DB struct {
	mu       sync.RWMutex
	stores   map[string]domain.Store
	orders   map[string]domain.Order
	products map[string]domain.Product
}

func New() *DB {
	return &DB{
		stores:   make(map[string]domain.Store),
		orders:   make(map[string]domain.Order),
		products: make(map[string]domain.Product),
	}
}

func (db *DB) Orders() *OrderRepository {
	return &OrderRepository{db: db}
}

func (db *DB) Products() *ProductRepository {
	return &ProductRepository{db: db}
}

func (db *DB) Stores() *StoreRepository {
	return &StoreRepository{db: db}
}

type OrderRepository struct {
	db *DB
}

func (r *OrderRepository) FindByStore(ctx context.Context, storeID string) ([]domain.Order, error) {
	r.db.mu.RLock()
	defer r.db.mu.RUnlock()

	var out []domain.Order
	for _, o := range r.db.orders {
		if o.StoreID == storeID {
			out = append(out, o)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].ID < out[j].ID
		}
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	return out, nil
}

func (r *OrderRepository) Insert(ctx context.Context, o domain.Order) (domain.Order, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()

	if _, ok := r.db.orders[o.ID]; ok {
		return domain.Order{}, fmt.Errorf("inserting order: duplicate id %s", o.ID)
	}
	r.db.orders[o.ID] = o
	return o, nil
}

func (r *OrderRepository) Update(ctx context.Context, id string, patch domain.Patch) error {
	if err := domain.OrderSchema.Validate(patch); err != nil {
		return err
	}

	r.db.mu.Lock()
	defer r.db.mu.Unlock()

	o, ok := r.db.orders[id]
	if !ok {
		return errors.NewNotFoundError(fmt.Sprintf("order with id %s not found", id))
	}
	r.db.orders[id] = o.Patched(patch)
	return nil
}

func (r *OrderRepository) Delete(ctx context.Context, ids []string) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()

	for _, id := range ids {
		delete(r.db.orders, id)
	}
	return nil
}

type ProductRepository struct {
	db *DB
}

func (r *ProductRepository) FindByStore(ctx context.Context, storeID string) ([]domain.Product, error) {
	r.db.mu.RLock()
	defer r.db.mu.RUnlock()

	var out []domain.Product
	for _, p := range r.db.products {
		if p.StoreID == storeID {
			out = append(out, cloneProduct(p))
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].ID < out[j].ID
		}
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	return out, nil
}

func (r *ProductRepository) Insert(ctx context.Context, p domain.Product) (domain.Product, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()

	if _, ok := r.db.products[p.ID]; ok {
		return domain.Product{}, fmt.Errorf("inserting product: duplicate id %s", p.ID)
	}
	r.db.products[p.ID] = cloneProduct(p)
	return p, nil
}

func (r *ProductRepository) Update(ctx context.Context, id string, patch domain.Patch) error {
	if err := domain.ProductSchema.Validate(patch); err != nil {
		return err
	}

	r.db.mu.Lock()
	defer r.db.mu.Unlock()

	p, ok := r.db.products[id]
	if !ok {
		return errors.NewNotFoundError(fmt.Sprintf("product with id %s not found", id))
	}
	r.db.products[id] = p.Patched(patch)
	return nil
}

// Delete removes the products and nulls the references of orders that
// pointed at them, all under one lock.
func (r *ProductRepository) Delete(ctx context.Context, ids []string) error {
	drop := make(map[string]struct{}, len(ids))
	for _, id := range ids {
		drop[id] = struct{}{}
	}

	r.db.mu.Lock()
	defer r.db.mu.Unlock()

	for id, o := range r.db.orders {
		if o.ReferencesProduct(drop) {
			o.ProductID = nil
			o.VariationID = nil
			r.db.orders[id] = o
		}
	}
	for _, id := range ids {
		delete(r.db.products, id)
	}
	return nil
}

func (r *ProductRepository) UpsertPricing(ctx context.Context, t domain.ProductPricing) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()

	p, ok := r.db.products[t.ProductID]
	if !ok {
		return errors.NewNotFoundError(fmt.Sprintf("product with id %s not found", t.ProductID))
	}
	r.db.products[t.ProductID] = cloneProduct(p).WithPricing(t)
	return nil
}

func (r *ProductRepository) InsertVariation(ctx context.Context, v domain.ProductVariation) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()

	p, ok := r.db.products[v.ProductID]
	if !ok {
		return errors.NewNotFoundError(fmt.Sprintf("product with id %s not found", v.ProductID))
	}
	r.db.products[v.ProductID] = cloneProduct(p).WithVariation(v)
	return nil
}

func (r *ProductRepository) DeleteVariation(ctx context.Context, productID, variationID string) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()

	p, ok := r.db.products[productID]
	if !ok {
		return errors.NewNotFoundError(fmt.Sprintf("product with id %s not found", productID))
	}
	if _, ok := p.Variation(variationID); !ok {
		return errors.NewNotFoundError(fmt.Sprintf("variation %s of product %s not found", variationID, productID))
	}
	r.db.products[productID] = cloneProduct(p).WithoutVariation(variationID)

	for id, o := range r.db.orders {
		if o.VariationID != nil && *o.VariationID == variationID {
			o.VariationID = nil
			r.db.orders[id] = o
		}
	}
	return nil
}

type StoreRepository struct {
	db *DB
}

func (r *StoreRepository) FindByID(ctx context.Context, id string) (*domain.Store, error) {
	r.db.mu.RLock()
	defer r.db.mu.RUnlock()

	s, ok := r.db.stores[id]
	if !ok {
		return nil, errors.NewNotFoundError(fmt.Sprintf("store %s not found", id))
	}
	return &s, nil
}

func (r *StoreRepository) Save(ctx context.Context, store domain.Store) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()

	r.db.stores[store.ID] = store
	return nil
}

// cloneProduct copies the child slices so callers never share backing arrays
// with the stored value.
func cloneProduct(p domain.Product) domain.Product {
	p.Variations = append([]domain.ProductVariation(nil), p.Variations...)
	p.Pricing = append([]domain.ProductPricing(nil), p.Pricing...)
	return p
}
