package controller

import (
	"context"
	"io"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"opsboard/internal/dto"
	apperrors "opsboard/internal/errors"
	"opsboard/internal/infrastructure/web"
	"opsboard/internal/session"
)

const maxBulkIDs = 500

type DashboardUseCase interface {
	List(ctx context.Context, s session.Session) (*dto.ListOrdersResponse, error)
	Reload(ctx context.Context, s session.Session) (*dto.ListOrdersResponse, error)
	Get(ctx context.Context, s session.Session, id string) (*dto.OrderResponse, error)
	Create(ctx context.Context, s session.Session) (*dto.OrderResponse, error)
	Edit(ctx context.Context, s session.Session, id string, req dto.EditRequest) (*dto.OrderResponse, error)
	Toggle(ctx context.Context, s session.Session, req dto.ToggleRequest) (*dto.OrdersResponse, error)
	Delete(ctx context.Context, s session.Session, ids []string) error
	Open(ctx context.Context, s session.Session, id string) (*dto.OrderResponse, error)
	Opened(ctx context.Context, s session.Session) (*dto.OrderResponse, error)
	CloseDetail(ctx context.Context, s session.Session) error
	AttachImage(ctx context.Context, s session.Session, id, name string, r io.Reader) (*dto.OrderResponse, error)
	SelectProduct(ctx context.Context, s session.Session, id string, req dto.SelectProductRequest) (*dto.OrderResponse, error)
	SelectVariation(ctx context.Context, s session.Session, id string, req dto.SelectVariationRequest) (*dto.OrderResponse, error)
}

type OrderController struct {
	useCase  DashboardUseCase
	maxImage int64
	logger   *zap.Logger
}

func NewOrderController(useCase DashboardUseCase, maxImage int64, logger *zap.Logger) *OrderController {
	return &OrderController{
		useCase:  useCase,
		maxImage: maxImage,
		logger:   logger,
	}
}

func (c *OrderController) Routes(r chi.Router) {
	r.Get("/", c.List)
	r.Post("/", c.Create)
	r.Post("/reload", c.Reload)
	r.Post("/delete", c.DeleteMany)
	r.Post("/toggle", c.Toggle)
	r.Get("/open", c.Opened)
	r.Delete("/open", c.CloseDetail)
	r.Route("/{id}", func(r chi.Router) {
		r.Get("/", c.Get)
		r.Patch("/", c.Edit)
		r.Delete("/", c.Delete)
		r.Post("/open", c.Open)
		r.Put("/product", c.SelectProduct)
		r.Put("/variation", c.SelectVariation)
		r.Post("/image", c.AttachImage)
	})
}

// request resolves the trace and session of a call. It writes the error
// response itself and returns ok false when the route has no session.
func (c *OrderController) request(w http.ResponseWriter, r *http.Request) (string, *zap.Logger, session.Session, bool) {
	traceID, logger := web.Trace(r, c.logger)
	s, ok := session.FromContext(r.Context())
	if !ok {
		web.WriteError(w, logger, traceID, apperrors.NewValidationError("missing tenant", apperrors.ValidationDetail{
			Field:   "X-Tenant-ID",
			Message: "tenant header is required",
		}))
		return traceID, logger, s, false
	}
	return traceID, logger.With(zap.String("storeId", s.StoreID)), s, true
}

func (c *OrderController) List(w http.ResponseWriter, r *http.Request) {
	traceID, logger, s, ok := c.request(w, r)
	if !ok {
		return
	}
	resp, err := c.useCase.List(r.Context(), s)
	if err != nil {
		web.WriteError(w, logger, traceID, err)
		return
	}
	web.WriteJSON(w, logger, http.StatusOK, resp)
}

// Reload answers 503 with the stale listing in the body when the remote
// store could not be read.
func (c *OrderController) Reload(w http.ResponseWriter, r *http.Request) {
	traceID, logger, s, ok := c.request(w, r)
	if !ok {
		return
	}
	resp, err := c.useCase.Reload(r.Context(), s)
	if err != nil {
		if _, fetch := apperrors.IsFetchError(err); fetch && resp != nil {
			logger.Warn("reload failed, serving stale orders", zap.Error(err))
			web.WriteJSON(w, logger, http.StatusServiceUnavailable, resp)
			return
		}
		web.WriteError(w, logger, traceID, err)
		return
	}
	web.WriteJSON(w, logger, http.StatusOK, resp)
}

func (c *OrderController) Get(w http.ResponseWriter, r *http.Request) {
	traceID, logger, s, ok := c.request(w, r)
	if !ok {
		return
	}
	resp, err := c.useCase.Get(r.Context(), s, chi.URLParam(r, "id"))
	if err != nil {
		web.WriteError(w, logger, traceID, err)
		return
	}
	web.WriteJSON(w, logger, http.StatusOK, resp)
}

func (c *OrderController) Create(w http.ResponseWriter, r *http.Request) {
	traceID, logger, s, ok := c.request(w, r)
	if !ok {
		return
	}
	resp, err := c.useCase.Create(r.Context(), s)
	if err != nil {
		web.WriteError(w, logger, traceID, err)
		return
	}
	web.WriteJSON(w, logger, http.StatusCreated, resp)
}

func (c *OrderController) Edit(w http.ResponseWriter, r *http.Request) {
	traceID, logger, s, ok := c.request(w, r)
	if !ok {
		return
	}
	var req dto.EditRequest
	if err := web.DecodeJSON(r, &req); err != nil {
		web.WriteError(w, logger, traceID, err)
		return
	}
	if strings.TrimSpace(req.Field) == "" {
		web.WriteError(w, logger, traceID, apperrors.NewValidationError("field is required", apperrors.ValidationDetail{
			Field:   "field",
			Message: "field must not be empty",
		}))
		return
	}

	resp, err := c.useCase.Edit(r.Context(), s, chi.URLParam(r, "id"), req)
	if err != nil {
		web.WriteError(w, logger, traceID, err)
		return
	}
	web.WriteJSON(w, logger, http.StatusOK, resp)
}

func (c *OrderController) Toggle(w http.ResponseWriter, r *http.Request) {
	traceID, logger, s, ok := c.request(w, r)
	if !ok {
		return
	}
	var req dto.ToggleRequest
	if err := web.DecodeJSON(r, &req); err != nil {
		web.WriteError(w, logger, traceID, err)
		return
	}
	if err := validateIDs(req.IDs); err != nil {
		web.WriteError(w, logger, traceID, err)
		return
	}

	resp, err := c.useCase.Toggle(r.Context(), s, req)
	if err != nil {
		web.WriteError(w, logger, traceID, err)
		return
	}
	web.WriteJSON(w, logger, http.StatusOK, resp)
}

func (c *OrderController) Delete(w http.ResponseWriter, r *http.Request) {
	traceID, logger, s, ok := c.request(w, r)
	if !ok {
		return
	}
	if err := c.useCase.Delete(r.Context(), s, []string{chi.URLParam(r, "id")}); err != nil {
		web.WriteError(w, logger, traceID, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (c *OrderController) DeleteMany(w http.ResponseWriter, r *http.Request) {
	traceID, logger, s, ok := c.request(w, r)
	if !ok {
		return
	}
	var req dto.IDsRequest
	if err := web.DecodeJSON(r, &req); err != nil {
		web.WriteError(w, logger, traceID, err)
		return
	}
	if err := validateIDs(req.IDs); err != nil {
		web.WriteError(w, logger, traceID, err)
		return
	}

	if err := c.useCase.Delete(r.Context(), s, req.IDs); err != nil {
		web.WriteError(w, logger, traceID, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (c *OrderController) Open(w http.ResponseWriter, r *http.Request) {
	traceID, logger, s, ok := c.request(w, r)
	if !ok {
		return
	}
	resp, err := c.useCase.Open(r.Context(), s, chi.URLParam(r, "id"))
	if err != nil {
		web.WriteError(w, logger, traceID, err)
		return
	}
	web.WriteJSON(w, logger, http.StatusOK, resp)
}

func (c *OrderController) Opened(w http.ResponseWriter, r *http.Request) {
	traceID, logger, s, ok := c.request(w, r)
	if !ok {
		return
	}
	resp, err := c.useCase.Opened(r.Context(), s)
	if err != nil {
		web.WriteError(w, logger, traceID, err)
		return
	}
	web.WriteJSON(w, logger, http.StatusOK, resp)
}

func (c *OrderController) CloseDetail(w http.ResponseWriter, r *http.Request) {
	traceID, logger, s, ok := c.request(w, r)
	if !ok {
		return
	}
	if err := c.useCase.CloseDetail(r.Context(), s); err != nil {
		web.WriteError(w, logger, traceID, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (c *OrderController) SelectProduct(w http.ResponseWriter, r *http.Request) {
	traceID, logger, s, ok := c.request(w, r)
	if !ok {
		return
	}
	var req dto.SelectProductRequest
	if err := web.DecodeJSON(r, &req); err != nil {
		web.WriteError(w, logger, traceID, err)
		return
	}
	resp, err := c.useCase.SelectProduct(r.Context(), s, chi.URLParam(r, "id"), req)
	if err != nil {
		web.WriteError(w, logger, traceID, err)
		return
	}
	web.WriteJSON(w, logger, http.StatusOK, resp)
}

func (c *OrderController) SelectVariation(w http.ResponseWriter, r *http.Request) {
	traceID, logger, s, ok := c.request(w, r)
	if !ok {
		return
	}
	var req dto.SelectVariationRequest
	if err := web.DecodeJSON(r, &req); err != nil {
		web.WriteError(w, logger, traceID, err)
		return
	}
	resp, err := c.useCase.SelectVariation(r.Context(), s, chi.URLParam(r, "id"), req)
	if err != nil {
		web.WriteError(w, logger, traceID, err)
		return
	}
	web.WriteJSON(w, logger, http.StatusOK, resp)
}

// AttachImage takes a multipart form with the file under "image".
func (c *OrderController) AttachImage(w http.ResponseWriter, r *http.Request) {
	traceID, logger, s, ok := c.request(w, r)
	if !ok {
		return
	}
	r.Body = http.MaxBytesReader(w, r.Body, c.maxImage+(1<<20))
	file, header, err := r.FormFile("image")
	if err != nil {
		logger.Warn("invalid image upload", zap.Error(err))
		web.WriteError(w, logger, traceID, apperrors.NewValidationError("invalid upload", apperrors.ValidationDetail{
			Field:   "image",
			Message: "a multipart file named image is required",
		}))
		return
	}
	defer file.Close()

	resp, err := c.useCase.AttachImage(r.Context(), s, chi.URLParam(r, "id"), header.Filename, file)
	if err != nil {
		web.WriteError(w, logger, traceID, err)
		return
	}
	web.WriteJSON(w, logger, http.StatusOK, resp)
}

func validateIDs(ids []string) error {
	var details []apperrors.ValidationDetail
	if len(ids) == 0 {
		details = append(details, apperrors.ValidationDetail{
			Field:   "ids",
			Message: "ids must not be empty",
		})
	}
	if len(ids) > maxBulkIDs {
		details = append(details, apperrors.ValidationDetail{
			Field:   "ids",
			Message: "ids exceeds maximum of 500",
		})
	}
	for _, id := range ids {
		if strings.TrimSpace(id) == "" {
			details = append(details, apperrors.ValidationDetail{
				Field:   "ids",
				Message: "ids must not contain blanks",
			})
			break
		}
	}
	if len(details) > 0 {
		return apperrors.NewValidationError("validation failed", details...)
	}
	return nil
}
