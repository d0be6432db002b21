package web

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"opsboard/internal/dto"
	apperrors "opsboard/internal/errors"
)

func TestWriteError(t *testing.T) {
	tests := []struct {
		name        string
		err         error
		wantStatus  int
		wantCode    string
		wantMessage string
		wantDetails int
	}{
		{
			name:        "validation",
			err:         apperrors.NewValidationError("bad", apperrors.ValidationDetail{Field: "ids", Message: "empty"}),
			wantStatus:  http.StatusBadRequest,
			wantCode:    "VALIDATION_ERROR",
			wantMessage: "bad",
			wantDetails: 1,
		},
		{
			name:        "forbidden",
			err:         apperrors.NewForbiddenError("operators only"),
			wantStatus:  http.StatusForbidden,
			wantCode:    "FORBIDDEN",
			wantMessage: "operators only",
		},
		{
			name:        "write",
			err:         apperrors.NewWriteError("orders", "o-1", nil, errors.New("timeout")),
			wantStatus:  http.StatusBadGateway,
			wantCode:    "WRITE_FAILED",
			wantMessage: apperrors.NewWriteError("orders", "o-1", nil, errors.New("timeout")).Error(),
		},
		{
			name:        "internal hides cause",
			err:         errors.New("nil pointer somewhere"),
			wantStatus:  http.StatusInternalServerError,
			wantCode:    "INTERNAL_ERROR",
			wantMessage: "an unexpected error occurred",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := httptest.NewRecorder()

			WriteError(rec, zap.NewNop(), "trace-1", tt.err)

			assert.Equal(t, tt.wantStatus, rec.Code)
			var body dto.ErrorResponse
			require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
			assert.Equal(t, "trace-1", body.TraceID)
			assert.Equal(t, tt.wantCode, body.Error)
			assert.Equal(t, tt.wantMessage, body.Message)
			assert.Len(t, body.Details, tt.wantDetails)
		})
	}
}

func TestDecodeJSON(t *testing.T) {
	var out dto.IDsRequest

	err := DecodeJSON(httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"ids":["a"]}`)), &out)
	require.NoError(t, err)
	assert.Equal(t, []string{"a"}, out.IDs)

	err = DecodeJSON(httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{`)), &out)
	ve, ok := apperrors.IsValidationError(err)
	require.True(t, ok)
	assert.Equal(t, "body", ve.Details[0].Field)

	err = DecodeJSON(httptest.NewRequest(http.MethodPost, "/", strings.NewReader(``)), &out)
	ve, ok = apperrors.IsValidationError(err)
	require.True(t, ok)
	assert.Equal(t, "request body is required", ve.Details[0].Message)
}

func TestTraceUsesNewIDWithoutRequestID(t *testing.T) {
	id, logger := Trace(httptest.NewRequest(http.MethodGet, "/", nil), zap.NewNop())

	assert.Len(t, id, 36)
	assert.NotNil(t, logger)
}
