// Package workspace owns the per-store working state: the order and product
// caches, their writeback controllers, and the catalog resolver bound to them.
package workspace

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"opsboard/internal/cache"
	"opsboard/internal/catalog"
	"opsboard/internal/config"
	"opsboard/internal/domain"
	apperrors "opsboard/internal/errors"
	"opsboard/internal/finance"
	"opsboard/internal/notify"
	"opsboard/internal/writeback"
)

type ProductRepository interface {
	cache.Repository[domain.Product]
	UpsertPricing(ctx context.Context, t domain.ProductPricing) error
	InsertVariation(ctx context.Context, v domain.ProductVariation) error
	DeleteVariation(ctx context.Context, productID, variationID string) error
}

type StoreRepository interface {
	FindByID(ctx context.Context, id string) (*domain.Store, error)
}

// Backend is the remote store, one repository per table.
type Backend struct {
	Orders   cache.Repository[domain.Order]
	Products ProductRepository
	Stores   StoreRepository
}

type Workspace struct {
	StoreID string

	Orders       *cache.Cache[domain.Order]
	OrderEdits   *writeback.Controller[domain.Order]
	Products     *cache.Cache[domain.Product]
	ProductEdits *writeback.Controller[domain.Product]
	ProductRepo  ProductRepository
	Catalog      *catalog.Service
	Notices      *notify.Scoped

	defaultFee decimal.Decimal
	stores     StoreRepository
	logger     *zap.Logger

	loadMu sync.Mutex
	loaded bool
}

// DefaultFeePercent is the store's configured fee percent, or the service
// default when the store has none.
func (w *Workspace) DefaultFeePercent(ctx context.Context) decimal.Decimal {
	if w.stores == nil {
		return w.defaultFee
	}
	store, err := w.stores.FindByID(ctx, w.StoreID)
	if err != nil {
		if _, ok := apperrors.IsNotFoundError(err); !ok {
			w.logger.Warn("store settings unavailable, using default fee", zap.Error(err))
		}
		return w.defaultFee
	}
	return store.DefaultFeePercent
}

// Reload writes pending edits, then replaces both caches from the remote
// store. A failed table keeps its previous records.
func (w *Workspace) Reload(ctx context.Context) error {
	w.OrderEdits.FlushAll()
	w.ProductEdits.FlushAll()
	if err := w.OrderEdits.Sync(ctx); err != nil {
		return fmt.Errorf("waiting for order writes: %w", err)
	}
	if err := w.ProductEdits.Sync(ctx); err != nil {
		return fmt.Errorf("waiting for product writes: %w", err)
	}
	return w.load(ctx)
}

func (w *Workspace) load(ctx context.Context) error {
	w.loadMu.Lock()
	defer w.loadMu.Unlock()

	_, orderErr := w.Orders.Load(ctx, w.StoreID)
	_, productErr := w.Products.Load(ctx, w.StoreID)
	if err := errors.Join(orderErr, productErr); err != nil {
		w.Notices.Warn("Could not refresh from the server. Showing the last loaded data.")
		return err
	}
	w.loaded = true
	return nil
}

func (w *Workspace) ensureLoaded(ctx context.Context) error {
	w.loadMu.Lock()
	loaded := w.loaded
	w.loadMu.Unlock()
	if loaded {
		return nil
	}
	return w.load(ctx)
}

func (w *Workspace) close(ctx context.Context) error {
	return errors.Join(w.OrderEdits.Close(ctx), w.ProductEdits.Close(ctx))
}

type Manager struct {
	backend Backend
	hub     *notify.Hub
	cfg     config.EditingConfig
	clock   writeback.Clock
	logger  *zap.Logger

	mu     sync.Mutex
	spaces map[string]*Workspace
	closed bool
}

func NewManager(backend Backend, hub *notify.Hub, cfg config.EditingConfig, clock writeback.Clock, logger *zap.Logger) *Manager {
	return &Manager{
		backend: backend,
		hub:     hub,
		cfg:     cfg,
		clock:   clock,
		logger:  logger,
		spaces:  make(map[string]*Workspace),
	}
}

// Get returns the store's workspace, loading it on first use. When loading
// fails the workspace is still returned together with the FetchError, and the
// next Get tries again.
func (m *Manager) Get(ctx context.Context, storeID string) (*Workspace, error) {
	m.mu.Lock()
	if m.closed {
		m.mu.Unlock()
		return nil, apperrors.NewInternalError("workspace manager closed", nil)
	}
	ws, ok := m.spaces[storeID]
	if !ok {
		ws = m.newWorkspace(storeID)
		m.spaces[storeID] = ws
		m.logger.Info("workspace created", zap.String("storeId", storeID))
	}
	m.mu.Unlock()

	return ws, ws.ensureLoaded(ctx)
}

func (m *Manager) newWorkspace(storeID string) *Workspace {
	logger := m.logger.With(zap.String("storeId", storeID))
	notices := m.hub.Scoped(storeID)
	opts := writeback.Options{
		QuietPeriod:  m.cfg.QuietPeriod,
		WriteTimeout: m.cfg.WriteTimeout,
		Clock:        m.clock,
	}

	orders := cache.New[domain.Order](domain.TableOrders, m.backend.Orders, logger)
	products := cache.New[domain.Product](domain.TableProducts, m.backend.Products, logger)
	orderEdits := writeback.NewController(orders, domain.OrderSchema, finance.DeriveOrder, notices, logger, opts)
	productEdits := writeback.NewController[domain.Product](products, domain.ProductSchema, nil, notices, logger, opts)

	return &Workspace{
		StoreID:      storeID,
		Orders:       orders,
		OrderEdits:   orderEdits,
		Products:     products,
		ProductEdits: productEdits,
		ProductRepo:  m.backend.Products,
		Catalog:      catalog.NewService(products, orders, orderEdits, logger),
		Notices:      notices,
		defaultFee:   decimal.NewFromFloat(m.cfg.DefaultFeePercent),
		stores:       m.backend.Stores,
		logger:       logger,
	}
}

// Close flushes and stops every workspace.
func (m *Manager) Close(ctx context.Context) error {
	m.mu.Lock()
	m.closed = true
	spaces := make([]*Workspace, 0, len(m.spaces))
	for _, ws := range m.spaces {
		spaces = append(spaces, ws)
	}
	m.mu.Unlock()

	var errs []error
	for _, ws := range spaces {
		if err := ws.close(ctx); err != nil {
			errs = append(errs, fmt.Errorf("closing workspace %s: %w", ws.StoreID, err))
		}
	}
	m.logger.Info("workspaces closed", zap.Int("count", len(spaces)))
	return errors.Join(errs...)
}
