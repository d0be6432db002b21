package server

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	"opsboard/internal/domain"
	apperrors "opsboard/internal/errors"
	"opsboard/internal/infrastructure/web"
	"opsboard/internal/session"
)

const (
	TenantHeader = "X-Tenant-ID"
	RoleHeader   = "X-Role"
)

type Routes interface {
	Routes(r chi.Router)
}

type RouterConfig struct {
	Orders        Routes
	Products      Routes
	Notifications http.Handler
	// MediaDir is served read-only under MediaPath when MediaPath is a path.
	MediaDir  string
	MediaPath string
	// Health reports whether the remote store is reachable. Nil means always.
	Health func(ctx context.Context) error
}

func NewRouter(cfg RouterConfig, logger *zap.Logger) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(requestLogger(logger))
	r.Use(middleware.Recoverer)

	r.Get("/healthz", healthHandler(cfg.Health, logger))

	if cfg.MediaDir != "" && strings.HasPrefix(cfg.MediaPath, "/") {
		files := http.StripPrefix(cfg.MediaPath, http.FileServer(http.Dir(cfg.MediaDir)))
		r.Get(cfg.MediaPath+"/*", files.ServeHTTP)
	}

	r.Route("/v1", func(r chi.Router) {
		r.Use(tenant(logger))
		r.Route("/orders", cfg.Orders.Routes)
		r.Route("/products", cfg.Products.Routes)
		if cfg.Notifications != nil {
			r.Get("/notifications", cfg.Notifications.ServeHTTP)
		}
	})
	return r
}

// tenant puts the caller's store and role on the request context.
func tenant(logger *zap.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			storeID := strings.TrimSpace(r.Header.Get(TenantHeader))
			if storeID == "" {
				traceID, log := web.Trace(r, logger)
				web.WriteError(w, log, traceID, apperrors.NewValidationError("missing tenant", apperrors.ValidationDetail{
					Field:   TenantHeader,
					Message: "tenant header is required",
				}))
				return
			}
			s := session.Session{
				StoreID: storeID,
				Role:    domain.ParseRole(strings.ToLower(strings.TrimSpace(r.Header.Get(RoleHeader)))),
			}
			next.ServeHTTP(w, r.WithContext(session.WithSession(r.Context(), s)))
		})
	}
}

func requestLogger(logger *zap.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
			start := time.Now()
			defer func() {
				logger.Info("request",
					zap.String("traceId", middleware.GetReqID(r.Context())),
					zap.String("method", r.Method),
					zap.String("path", r.URL.Path),
					zap.Int("status", ww.Status()),
					zap.Int("bytes", ww.BytesWritten()),
					zap.Duration("duration", time.Since(start)),
				)
			}()
			next.ServeHTTP(ww, r)
		})
	}
}

func healthHandler(check func(ctx context.Context) error, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if check != nil {
			ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
			defer cancel()
			if err := check(ctx); err != nil {
				logger.Warn("health check failed", zap.Error(err))
				web.WriteJSON(w, logger, http.StatusServiceUnavailable, map[string]string{"status": "unavailable"})
				return
			}
		}
		web.WriteJSON(w, logger, http.StatusOK, map[string]string{"status": "ok"})
	}
}
