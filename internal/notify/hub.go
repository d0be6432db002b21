// Package notify collects transient, user-visible notifications such as
// failed writes.
package notify

import (
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	apperrors "opsboard/internal/errors"
)

const DefaultCapacity = 100

const writeFailedMessage = "Changes could not be saved. The value you entered is kept on screen."

type Level string

const (
	LevelError   Level = "error"
	LevelWarning Level = "warning"
	LevelInfo    Level = "info"
)

type Notification struct {
	ID       string    `json:"id"`
	Level    Level     `json:"level"`
	Message  string    `json:"message"`
	StoreID  string    `json:"storeId,omitempty"`
	Table    string    `json:"table,omitempty"`
	RecordID string    `json:"recordId,omitempty"`
	Fields   []string  `json:"fields,omitempty"`
	At       time.Time `json:"at"`
}

// Hub keeps the most recent notifications in a fixed-size ring.
type Hub struct {
	logger *zap.Logger
	now    func() time.Time

	mu   sync.RWMutex
	ring []Notification
	next int
	full bool
}

func NewHub(capacity int, logger *zap.Logger) *Hub {
	if capacity <= 0 {
		capacity = DefaultCapacity
	}
	return &Hub{
		logger: logger,
		now:    time.Now,
		ring:   make([]Notification, capacity),
	}
}

func (h *Hub) Publish(n Notification) Notification {
	if n.ID == "" {
		n.ID = uuid.NewString()
	}
	if n.At.IsZero() {
		n.At = h.now()
	}
	if n.Level == "" {
		n.Level = LevelInfo
	}

	h.mu.Lock()
	h.ring[h.next] = n
	h.next = (h.next + 1) % len(h.ring)
	if h.next == 0 {
		h.full = true
	}
	h.mu.Unlock()

	h.logger.Info("notification published",
		zap.String("notificationId", n.ID),
		zap.String("level", string(n.Level)),
		zap.String("recordId", n.RecordID),
		zap.String("message", n.Message),
	)
	return n
}

// WriteFailed publishes one error notification for a failed remote write.
func (h *Hub) WriteFailed(err *apperrors.WriteError) {
	h.Scoped("").WriteFailed(err)
}

// Scoped returns a notifier that tags every notification with storeID.
func (h *Hub) Scoped(storeID string) *Scoped {
	return &Scoped{hub: h, storeID: storeID}
}

// Recent returns notifications published after since, oldest first. A zero
// since returns everything retained.
func (h *Hub) Recent(since time.Time) []Notification {
	return h.filter(func(n Notification) bool { return n.At.After(since) })
}

// RecentForStore is Recent limited to one store.
func (h *Hub) RecentForStore(storeID string, since time.Time) []Notification {
	return h.filter(func(n Notification) bool {
		return n.StoreID == storeID && n.At.After(since)
	})
}

func (h *Hub) filter(keep func(Notification) bool) []Notification {
	h.mu.RLock()
	defer h.mu.RUnlock()

	var ordered []Notification
	if h.full {
		ordered = append(ordered, h.ring[h.next:]...)
	}
	ordered = append(ordered, h.ring[:h.next]...)

	out := make([]Notification, 0, len(ordered))
	for _, n := range ordered {
		if keep(n) {
			out = append(out, n)
		}
	}
	return out
}

type Scoped struct {
	hub     *Hub
	storeID string
}

func (s *Scoped) WriteFailed(err *apperrors.WriteError) {
	s.hub.Publish(Notification{
		Level:    LevelError,
		Message:  writeFailedMessage,
		StoreID:  s.storeID,
		Table:    err.Table,
		RecordID: err.RecordID,
		Fields:   err.Fields,
	})
}

// Warn publishes a warning for the store, e.g. a stale reload.
func (s *Scoped) Warn(message string) {
	s.hub.Publish(Notification{Level: LevelWarning, Message: message, StoreID: s.storeID})
}
