// Package session carries the caller's store and role through a request.
package session

import (
	"context"

	"opsboard/internal/domain"
)

type Session struct {
	StoreID string
	Role    domain.Role
}

type ctxKey struct{}

func WithSession(ctx context.Context, s Session) context.Context {
	return context.WithValue(ctx, ctxKey{}, s)
}

// FromContext returns the request's session. ok is false outside a
// tenant-scoped route.
func FromContext(ctx context.Context) (Session, bool) {
	s, ok := ctx.Value(ctxKey{}).(Session)
	return s, ok
}
