// Package web holds the request and response plumbing shared by the HTTP
// controllers.
package web

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"opsboard/internal/dto"
	apperrors "opsboard/internal/errors"
)

// MaxBodyBytes bounds JSON request bodies.
const MaxBodyBytes = 1 << 20

// Trace returns the request's trace id and a logger carrying it. The id is
// the router's request id when there is one.
func Trace(r *http.Request, logger *zap.Logger) (string, *zap.Logger) {
	traceID := middleware.GetReqID(r.Context())
	if traceID == "" {
		traceID = uuid.New().String()
	}
	return traceID, logger.With(zap.String("traceId", traceID))
}

// DecodeJSON reads a JSON body into dst. Malformed input is a ValidationError.
func DecodeJSON(r *http.Request, dst any) error {
	dec := json.NewDecoder(io.LimitReader(r.Body, MaxBodyBytes))
	if err := dec.Decode(dst); err != nil {
		msg := "request body must be valid JSON"
		if errors.Is(err, io.EOF) {
			msg = "request body is required"
		}
		return apperrors.NewValidationError("invalid JSON body", apperrors.ValidationDetail{
			Field:   "body",
			Message: msg,
		})
	}
	return nil
}

func WriteJSON(w http.ResponseWriter, logger *zap.Logger, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		logger.Error("failed to encode response", zap.Error(err))
	}
}

// WriteError maps err to its status and writes the error document.
func WriteError(w http.ResponseWriter, logger *zap.Logger, traceID string, err error) {
	status, code := apperrors.HTTPStatus(err)
	resp := dto.ErrorResponse{
		TraceID: traceID,
		Error:   code,
		Message: err.Error(),
	}

	switch {
	case status == http.StatusInternalServerError:
		logger.Error("unexpected error", zap.Error(err))
		resp.Message = "an unexpected error occurred"
	case status >= http.StatusInternalServerError:
		logger.Warn("remote store error", zap.Int("status", status), zap.Error(err))
	default:
		logger.Info("request rejected", zap.Int("status", status), zap.Error(err))
	}
	if ve, ok := apperrors.IsValidationError(err); ok {
		resp.Message = ve.Message
		resp.Details = ve.Details
	}

	WriteJSON(w, logger, status, resp)
}
