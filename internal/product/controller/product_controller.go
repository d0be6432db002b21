package controller

import (
	"context"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"opsboard/internal/dto"
	apperrors "opsboard/internal/errors"
	"opsboard/internal/infrastructure/web"
	"opsboard/internal/session"
)

type CatalogUseCase interface {
	List(ctx context.Context, s session.Session) (*dto.ListProductsResponse, error)
	Create(ctx context.Context, s session.Session, req dto.CreateProductRequest) (*dto.ProductResponse, error)
	Edit(ctx context.Context, s session.Session, id string, req dto.EditRequest) (*dto.ProductResponse, error)
	Delete(ctx context.Context, s session.Session, ids []string) error
	UpsertPricing(ctx context.Context, s session.Session, productID, region string, req dto.UpsertPricingRequest) (*dto.ProductResponse, error)
	AddVariation(ctx context.Context, s session.Session, productID string, req dto.AddVariationRequest) (*dto.VariationResponse, error)
	RemoveVariation(ctx context.Context, s session.Session, productID, variationID string) error
}

type ProductController struct {
	useCase CatalogUseCase
	logger  *zap.Logger
}

func NewProductController(useCase CatalogUseCase, logger *zap.Logger) *ProductController {
	return &ProductController{
		useCase: useCase,
		logger:  logger,
	}
}

func (c *ProductController) Routes(r chi.Router) {
	r.Get("/", c.List)
	r.Post("/", c.Create)
	r.Post("/delete", c.Delete)
	r.Route("/{id}", func(r chi.Router) {
		r.Patch("/", c.Edit)
		r.Put("/pricing/{region}", c.UpsertPricing)
		r.Post("/variations", c.AddVariation)
		r.Delete("/variations/{variationId}", c.RemoveVariation)
	})
}

func (c *ProductController) request(w http.ResponseWriter, r *http.Request) (string, *zap.Logger, session.Session, bool) {
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

func (c *ProductController) List(w http.ResponseWriter, r *http.Request) {
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

func (c *ProductController) Create(w http.ResponseWriter, r *http.Request) {
	traceID, logger, s, ok := c.request(w, r)
	if !ok {
		return
	}
	var req dto.CreateProductRequest
	if err := web.DecodeJSON(r, &req); err != nil {
		web.WriteError(w, logger, traceID, err)
		return
	}
	resp, err := c.useCase.Create(r.Context(), s, req)
	if err != nil {
		web.WriteError(w, logger, traceID, err)
		return
	}
	web.WriteJSON(w, logger, http.StatusCreated, resp)
}

func (c *ProductController) Edit(w http.ResponseWriter, r *http.Request) {
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

func (c *ProductController) Delete(w http.ResponseWriter, r *http.Request) {
	traceID, logger, s, ok := c.request(w, r)
	if !ok {
		return
	}
	var req dto.IDsRequest
	if err := web.DecodeJSON(r, &req); err != nil {
		web.WriteError(w, logger, traceID, err)
		return
	}
	if err := c.useCase.Delete(r.Context(), s, req.IDs); err != nil {
		web.WriteError(w, logger, traceID, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (c *ProductController) UpsertPricing(w http.ResponseWriter, r *http.Request) {
	traceID, logger, s, ok := c.request(w, r)
	if !ok {
		return
	}
	var req dto.UpsertPricingRequest
	if err := web.DecodeJSON(r, &req); err != nil {
		web.WriteError(w, logger, traceID, err)
		return
	}
	resp, err := c.useCase.UpsertPricing(r.Context(), s, chi.URLParam(r, "id"), chi.URLParam(r, "region"), req)
	if err != nil {
		web.WriteError(w, logger, traceID, err)
		return
	}
	web.WriteJSON(w, logger, http.StatusOK, resp)
}

func (c *ProductController) AddVariation(w http.ResponseWriter, r *http.Request) {
	traceID, logger, s, ok := c.request(w, r)
	if !ok {
		return
	}
	var req dto.AddVariationRequest
	if err := web.DecodeJSON(r, &req); err != nil {
		web.WriteError(w, logger, traceID, err)
		return
	}
	resp, err := c.useCase.AddVariation(r.Context(), s, chi.URLParam(r, "id"), req)
	if err != nil {
		web.WriteError(w, logger, traceID, err)
		return
	}
	web.WriteJSON(w, logger, http.StatusCreated, resp)
}

func (c *ProductController) RemoveVariation(w http.ResponseWriter, r *http.Request) {
	traceID, logger, s, ok := c.request(w, r)
	if !ok {
		return
	}
	if err := c.useCase.RemoveVariation(r.Context(), s, chi.URLParam(r, "id"), chi.URLParam(r, "variationId")); err != nil {
		web.WriteError(w, logger, traceID, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
