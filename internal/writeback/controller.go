// Package writeback keeps the remote store in step with local edits. Text and
// numeric edits are debounced per record field; toggles and discrete changes
// are written through at once.
package writeback

import (
	"context"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"opsboard/internal/cache"
	"opsboard/internal/domain"
	apperrors "opsboard/internal/errors"
)

const (
	DefaultQuietPeriod  = 500 * time.Millisecond
	DefaultWriteTimeout = 10 * time.Second
)

// Notifier reports write failures to whoever is editing.
type Notifier interface {
	WriteFailed(err *apperrors.WriteError)
}

// Deriver returns the stored fields that follow from a change to rec. rec
// already carries changed.
type Deriver[T any] func(rec T, changed domain.Patch) domain.Patch

type Options struct {
	QuietPeriod  time.Duration
	WriteTimeout time.Duration
	Clock        Clock
}

// Outcome is the result of a single field edit. Warning is set when the input
// had to be coerced; the coerced value was still applied.
type Outcome[T any] struct {
	Record  T
	Value   any
	Warning *apperrors.ValidationError
}

type key struct {
	RecordID string
	Field    string
}

// pendingWrite is the latest value of one field waiting for its quiet period.
// derived holds the computed fields this edit produced; they are written in
// the same patch and belong to the most recent edit that derived them.
type pendingWrite struct {
	value   any
	derived domain.Patch
	seq     uint64
	stop    func() bool
}

func (p *pendingWrite) patch(field string) domain.Patch {
	return domain.Patch{field: p.value}.Merge(p.derived)
}

type write struct {
	recordID string
	patch    domain.Patch
	ack      chan struct{}
}

type Controller[T cache.Entity[T]] struct {
	cache    *cache.Cache[T]
	schema   *domain.Schema
	derive   Deriver[T]
	notifier Notifier
	logger   *zap.Logger

	clock        Clock
	quiet        time.Duration
	writeTimeout time.Duration

	mu      sync.Mutex
	seq     uint64
	pending map[key]*pendingWrite
	queue   []write
	closed  bool
	wake    chan struct{}
	done    chan struct{}
}

func NewController[T cache.Entity[T]](c *cache.Cache[T], schema *domain.Schema, derive Deriver[T], notifier Notifier, logger *zap.Logger, opts Options) *Controller[T] {
	if opts.QuietPeriod <= 0 {
		opts.QuietPeriod = DefaultQuietPeriod
	}
	if opts.WriteTimeout <= 0 {
		opts.WriteTimeout = DefaultWriteTimeout
	}
	if opts.Clock == nil {
		opts.Clock = RealClock()
	}

	ctrl := &Controller[T]{
		cache:        c,
		schema:       schema,
		derive:       derive,
		notifier:     notifier,
		logger:       logger.With(zap.String("table", c.Table())),
		clock:        opts.Clock,
		quiet:        opts.QuietPeriod,
		writeTimeout: opts.WriteTimeout,
		pending:      make(map[key]*pendingWrite),
		wake:         make(chan struct{}, 1),
		done:         make(chan struct{}),
	}
	go ctrl.run()
	return ctrl
}

// Edit applies a user edit of one field to the cached record and schedules
// its write. The cached record changes before Edit returns.
func (c *Controller[T]) Edit(ctx context.Context, recordID, field string, raw any) (Outcome[T], error) {
	spec, err := c.schema.EditableField(field)
	if err != nil {
		return Outcome[T]{}, err
	}

	value, coerceErr := spec.Coerce(raw)
	out := Outcome[T]{Value: value}
	if coerceErr != nil {
		ve, ok := apperrors.IsValidationError(coerceErr)
		if !ok {
			return Outcome[T]{}, coerceErr
		}
		out.Warning = ve
		c.logger.Info("edit value coerced", zap.String("recordId", recordID), zap.String("field", field), zap.Error(coerceErr))
	}

	patch := domain.Patch{field: value}

	// Apply and schedule under one lock: a flush never sees the new value
	// without its pending write.
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return Outcome[T]{}, apperrors.NewInternalError("edit after close", nil)
	}

	rec, derived, ok := c.applyLocked(recordID, patch)
	if !ok {
		c.logger.Debug("edit on missing record ignored", zap.String("recordId", recordID), zap.String("field", field))
		return Outcome[T]{}, apperrors.NewNotFoundError(fmt.Sprintf("%s %s not found", c.cache.Table(), recordID))
	}
	out.Record = rec

	if spec.Kind.IsToggle() {
		full := patch.Merge(derived)
		c.cancelLocked(recordID, full)
		c.enqueueLocked(write{recordID: recordID, patch: full})
		return out, nil
	}

	c.scheduleLocked(key{RecordID: recordID, Field: field}, value, derived)
	return out, nil
}

// Commit applies a discrete multi-field change and writes it through without
// waiting for a quiet period. Pending debounced writes for the same fields are
// dropped in favor of the committed values.
func (c *Controller[T]) Commit(ctx context.Context, recordID string, patch domain.Patch) error {
	if len(patch) == 0 {
		return nil
	}
	if err := c.schema.Validate(patch); err != nil {
		return err
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return apperrors.NewInternalError("commit after close", nil)
	}

	_, derived, ok := c.applyLocked(recordID, patch)
	if !ok {
		return apperrors.NewNotFoundError(fmt.Sprintf("%s %s not found", c.cache.Table(), recordID))
	}
	full := patch.Merge(derived)
	c.cancelLocked(recordID, full)
	c.enqueueLocked(write{recordID: recordID, patch: full})
	return nil
}

// FlushRecord writes every pending value of recordID now.
func (c *Controller[T]) FlushRecord(recordID string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.flushLocked(func(k key) bool { return k.RecordID == recordID })
}

// FlushAll writes every pending value now.
func (c *Controller[T]) FlushAll() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.flushLocked(func(key) bool { return true })
}

// Forget drops pending writes of records that no longer exist.
func (c *Controller[T]) Forget(recordIDs ...string) {
	drop := make(map[string]struct{}, len(recordIDs))
	for _, id := range recordIDs {
		drop[id] = struct{}{}
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	for k, p := range c.pending {
		if _, ok := drop[k.RecordID]; ok {
			p.stop()
			delete(c.pending, k)
		}
	}
}

// Pending returns the number of debounced writes waiting for their timer.
func (c *Controller[T]) Pending() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.pending)
}

// Sync waits until every write queued before the call has been attempted.
func (c *Controller[T]) Sync(ctx context.Context) error {
	ack := make(chan struct{})
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return c.wait(ctx)
	}
	c.enqueueLocked(write{ack: ack})
	c.mu.Unlock()

	select {
	case <-ack:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Close flushes every pending value and waits for the writer to drain.
func (c *Controller[T]) Close(ctx context.Context) error {
	c.mu.Lock()
	if !c.closed {
		c.flushLocked(func(key) bool { return true })
		c.closed = true
		c.signal()
	}
	c.mu.Unlock()
	return c.wait(ctx)
}

func (c *Controller[T]) wait(ctx context.Context) error {
	select {
	case <-c.done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (c *Controller[T]) applyLocked(recordID string, patch domain.Patch) (T, domain.Patch, bool) {
	var (
		after   T
		derived domain.Patch
	)
	ok := c.cache.Update(recordID, func(rec T) T {
		next := rec.Patched(patch)
		if c.derive != nil {
			derived = c.derive(next, patch)
			if len(derived) > 0 {
				next = next.Patched(derived)
			}
		}
		after = next
		return next
	})
	return after, derived, ok
}

func (c *Controller[T]) scheduleLocked(k key, value any, derived domain.Patch) {
	if p, ok := c.pending[k]; ok {
		p.stop()
	}
	c.releaseDerivedLocked(k.RecordID, derived)
	c.seq++
	seq := c.seq
	p := &pendingWrite{value: value, derived: derived, seq: seq}
	p.stop = c.clock.AfterFunc(c.quiet, func() { c.fire(k, seq) })
	c.pending[k] = p
}

// fire runs on the timer's goroutine. A timer that lost the race with a newer
// edit or a flush finds a different sequence, or no entry, and does nothing.
func (c *Controller[T]) fire(k key, seq uint64) {
	c.mu.Lock()
	defer c.mu.Unlock()

	p, ok := c.pending[k]
	if !ok || p.seq != seq {
		return
	}
	delete(c.pending, k)
	c.enqueueLocked(write{recordID: k.RecordID, patch: p.patch(k.Field)})
}

// cancelLocked drops pending values of recordID that patch is about to
// write, including derived fields carried by other pending edits.
func (c *Controller[T]) cancelLocked(recordID string, patch domain.Patch) {
	for f := range patch {
		k := key{RecordID: recordID, Field: f}
		if p, ok := c.pending[k]; ok {
			p.stop()
			delete(c.pending, k)
		}
	}
	c.releaseDerivedLocked(recordID, patch)
}

// releaseDerivedLocked removes fields from the derived values of recordID's
// pending edits. A newer write of those fields supersedes them.
func (c *Controller[T]) releaseDerivedLocked(recordID string, fields domain.Patch) {
	if len(fields) == 0 {
		return
	}
	for k, p := range c.pending {
		if k.RecordID != recordID || len(p.derived) == 0 {
			continue
		}
		kept := make(domain.Patch, len(p.derived))
		for f, v := range p.derived {
			if _, ok := fields[f]; !ok {
				kept[f] = v
			}
		}
		p.derived = kept
	}
}

func (c *Controller[T]) flushLocked(match func(key) bool) {
	byRecord := make(map[string]domain.Patch)
	var order []string
	for k, p := range c.pending {
		if !match(k) {
			continue
		}
		p.stop()
		delete(c.pending, k)
		patch, ok := byRecord[k.RecordID]
		if !ok {
			patch = domain.Patch{}
			byRecord[k.RecordID] = patch
			order = append(order, k.RecordID)
		}
		for f, v := range p.patch(k.Field) {
			patch[f] = v
		}
	}
	for _, id := range order {
		c.enqueueLocked(write{recordID: id, patch: byRecord[id]})
	}
}

func (c *Controller[T]) enqueueLocked(w write) {
	c.queue = append(c.queue, w)
	c.signal()
}

func (c *Controller[T]) signal() {
	select {
	case c.wake <- struct{}{}:
	default:
	}
}

// run is the single writer. Writes are attempted in the order they were
// queued, so two writes of the same field never land out of order.
func (c *Controller[T]) run() {
	defer close(c.done)
	for {
		c.mu.Lock()
		for len(c.queue) == 0 {
			if c.closed {
				c.mu.Unlock()
				return
			}
			c.mu.Unlock()
			<-c.wake
			c.mu.Lock()
		}
		w := c.queue[0]
		c.queue[0] = write{}
		c.queue = c.queue[1:]
		c.mu.Unlock()

		if w.ack != nil {
			close(w.ack)
			continue
		}
		c.persist(w)
	}
}

func (c *Controller[T]) persist(w write) {
	ctx, cancel := context.WithTimeout(context.Background(), c.writeTimeout)
	defer cancel()

	err := c.cache.Persist(ctx, w.recordID, w.patch)
	if err == nil {
		c.logger.Debug("record written", zap.String("recordId", w.recordID), zap.Strings("fields", w.patch.Fields()))
		return
	}

	if _, ok := apperrors.IsNotFoundError(err); ok {
		c.logger.Warn("write skipped, record no longer exists", zap.String("recordId", w.recordID), zap.Strings("fields", w.patch.Fields()))
		return
	}

	c.logger.Error("write failed, keeping local value", zap.String("recordId", w.recordID), zap.Strings("fields", w.patch.Fields()), zap.Error(err))
	we, ok := apperrors.IsWriteError(err)
	if !ok {
		we = apperrors.NewWriteError(c.cache.Table(), w.recordID, w.patch.Fields(), err)
	}
	if c.notifier != nil {
		c.notifier.WriteFailed(we)
	}
}
