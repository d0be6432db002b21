// Package cache holds the working copy of a store's records. It is the only
// place record state is read from, and every mutation goes through it.
package cache

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"

	"opsboard/internal/domain"
	apperrors "opsboard/internal/errors"
)

type Entity[T any] interface {
	RecordID() string
	Patched(domain.Patch) T
}

// Repository is the remote store of one table.
type Repository[T any] interface {
	FindByStore(ctx context.Context, storeID string) ([]T, error)
	Insert(ctx context.Context, rec T) (T, error)
	Update(ctx context.Context, id string, patch domain.Patch) error
	Delete(ctx context.Context, ids []string) error
}

type Cache[T Entity[T]] struct {
	table  string
	repo   Repository[T]
	logger *zap.Logger

	mu       sync.RWMutex
	storeID  string
	ids      []string
	records  map[string]T
	openID   string
	stale    bool
	loadedAt time.Time
}

func New[T Entity[T]](table string, repo Repository[T], logger *zap.Logger) *Cache[T] {
	return &Cache[T]{
		table:   table,
		repo:    repo,
		logger:  logger.With(zap.String("table", table)),
		records: make(map[string]T),
	}
}

func (c *Cache[T]) Table() string {
	return c.table
}

// Load replaces the cache with the store's records. On failure the previous
// records stay available and the cache is marked stale.
func (c *Cache[T]) Load(ctx context.Context, storeID string) ([]T, error) {
	recs, err := c.repo.FindByStore(ctx, storeID)
	if err != nil {
		c.mu.Lock()
		c.stale = true
		kept := len(c.ids)
		c.mu.Unlock()
		c.logger.Error("load failed, serving stale records", zap.String("storeId", storeID), zap.Int("kept", kept), zap.Error(err))
		return c.List(), apperrors.NewFetchError(c.table, storeID, err)
	}

	c.mu.Lock()
	c.storeID = storeID
	c.ids = make([]string, 0, len(recs))
	c.records = make(map[string]T, len(recs))
	for _, r := range recs {
		id := r.RecordID()
		if _, dup := c.records[id]; !dup {
			c.ids = append(c.ids, id)
		}
		c.records[id] = r
	}
	if _, ok := c.records[c.openID]; !ok {
		c.openID = ""
	}
	c.stale = false
	c.loadedAt = time.Now()
	c.mu.Unlock()

	c.logger.Info("records loaded", zap.String("storeId", storeID), zap.Int("count", len(recs)))
	return c.List(), nil
}

func (c *Cache[T]) StoreID() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.storeID
}

func (c *Cache[T]) Stale() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.stale
}

func (c *Cache[T]) LoadedAt() time.Time {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.loadedAt
}

// ApplyLocal merges patch into the cached record. It reports false, and does
// nothing, when the record is not cached.
func (c *Cache[T]) ApplyLocal(id string, patch domain.Patch) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	rec, ok := c.records[id]
	if !ok {
		return false
	}
	c.records[id] = rec.Patched(patch)
	return true
}

// Update replaces the cached record with fn's result under the cache lock.
func (c *Cache[T]) Update(id string, fn func(T) T) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	rec, ok := c.records[id]
	if !ok {
		return false
	}
	c.records[id] = fn(rec)
	return true
}

// Put inserts rec at the front or replaces it in place.
func (c *Cache[T]) Put(rec T) {
	c.mu.Lock()
	defer c.mu.Unlock()

	id := rec.RecordID()
	if _, ok := c.records[id]; !ok {
		c.ids = append([]string{id}, c.ids...)
	}
	c.records[id] = rec
}

func (c *Cache[T]) Remove(id string) {
	c.RemoveMany([]string{id})
}

func (c *Cache[T]) RemoveMany(ids []string) {
	if len(ids) == 0 {
		return
	}
	drop := make(map[string]struct{}, len(ids))
	for _, id := range ids {
		drop[id] = struct{}{}
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	kept := c.ids[:0]
	for _, id := range c.ids {
		if _, ok := drop[id]; ok {
			delete(c.records, id)
			continue
		}
		kept = append(kept, id)
	}
	c.ids = kept
	if _, ok := drop[c.openID]; ok {
		c.openID = ""
	}
}

func (c *Cache[T]) Get(id string) (T, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	rec, ok := c.records[id]
	return rec, ok
}

// List returns a snapshot in load order, newest inserts first.
func (c *Cache[T]) List() []T {
	c.mu.RLock()
	defer c.mu.RUnlock()

	out := make([]T, 0, len(c.ids))
	for _, id := range c.ids {
		out = append(out, c.records[id])
	}
	return out
}

func (c *Cache[T]) Filter(keep func(T) bool) []T {
	all := c.List()
	out := all[:0]
	for _, r := range all {
		if keep(r) {
			out = append(out, r)
		}
	}
	return out
}

func (c *Cache[T]) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.ids)
}

// Open marks id as the record shown in the detail panel. The panel reads it
// back through Opened, so it always sees the cached entry.
func (c *Cache[T]) Open(id string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	if _, ok := c.records[id]; !ok {
		return false
	}
	c.openID = id
	return true
}

func (c *Cache[T]) Opened() (T, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	var zero T
	if c.openID == "" {
		return zero, false
	}
	rec, ok := c.records[c.openID]
	return rec, ok
}

func (c *Cache[T]) OpenID() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.openID
}

// CloseDetail clears the open record and returns the id that was open.
func (c *Cache[T]) CloseDetail() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	id := c.openID
	c.openID = ""
	return id
}

// Persist writes patch for id to the remote store. The cache is not touched.
func (c *Cache[T]) Persist(ctx context.Context, id string, patch domain.Patch) error {
	if err := c.repo.Update(ctx, id, patch); err != nil {
		return apperrors.NewWriteError(c.table, id, patch.Fields(), err)
	}
	return nil
}

// Create inserts rec remotely and caches the stored version.
func (c *Cache[T]) Create(ctx context.Context, rec T) (T, error) {
	stored, err := c.repo.Insert(ctx, rec)
	if err != nil {
		var zero T
		return zero, apperrors.NewWriteError(c.table, rec.RecordID(), nil, err)
	}
	c.Put(stored)
	return stored, nil
}

// Delete removes ids remotely, then evicts them. Nothing is evicted on failure.
func (c *Cache[T]) Delete(ctx context.Context, ids []string) error {
	if len(ids) == 0 {
		return nil
	}
	if err := c.repo.Delete(ctx, ids); err != nil {
		return apperrors.NewWriteError(c.table, ids[0], nil, err)
	}
	c.RemoveMany(ids)
	c.logger.Info("records deleted", zap.Int("count", len(ids)))
	return nil
}
