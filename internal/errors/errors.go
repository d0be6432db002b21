package errors

import (
	"errors"
	"fmt"
	"net/http"
)

type ValidationDetail struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

type ValidationError struct {
	Message string
	Details []ValidationDetail
}

func (e *ValidationError) Error() string {
	return e.Message
}

func NewValidationError(message string, details ...ValidationDetail) *ValidationError {
	return &ValidationError{
		Message: message,
		Details: details,
	}
}

func IsValidationError(err error) (*ValidationError, bool) {
	var ve *ValidationError
	if errors.As(err, &ve) {
		return ve, true
	}
	return nil, false
}

type NotFoundError struct {
	Message string
}

func (e *NotFoundError) Error() string {
	return e.Message
}

func NewNotFoundError(message string) *NotFoundError {
	return &NotFoundError{Message: message}
}

func IsNotFoundError(err error) (*NotFoundError, bool) {
	var nfe *NotFoundError
	if errors.As(err, &nfe) {
		return nfe, true
	}
	return nil, false
}

type ForbiddenError struct {
	Message string
}

func (e *ForbiddenError) Error() string {
	return e.Message
}

func NewForbiddenError(message string) *ForbiddenError {
	return &ForbiddenError{Message: message}
}

func IsForbiddenError(err error) (*ForbiddenError, bool) {
	var fe *ForbiddenError
	if errors.As(err, &fe) {
		return fe, true
	}
	return nil, false
}

// FetchError reports a failed load or reload. The cache that produced it keeps
// serving its previous contents.
type FetchError struct {
	StoreID string
	Table   string
	Cause   error
}

func (e *FetchError) Error() string {
	return fmt.Sprintf("fetching %s for store %s: %v", e.Table, e.StoreID, e.Cause)
}

func (e *FetchError) Unwrap() error {
	return e.Cause
}

func NewFetchError(table, storeID string, cause error) *FetchError {
	return &FetchError{Table: table, StoreID: storeID, Cause: cause}
}

func IsFetchError(err error) (*FetchError, bool) {
	var fe *FetchError
	if errors.As(err, &fe) {
		return fe, true
	}
	return nil, false
}

// WriteError reports a failed remote write. The optimistic local value is kept.
type WriteError struct {
	Table    string
	RecordID string
	Fields   []string
	Cause    error
}

func (e *WriteError) Error() string {
	return fmt.Sprintf("writing %s %s %v: %v", e.Table, e.RecordID, e.Fields, e.Cause)
}

func (e *WriteError) Unwrap() error {
	return e.Cause
}

func NewWriteError(table, recordID string, fields []string, cause error) *WriteError {
	return &WriteError{Table: table, RecordID: recordID, Fields: fields, Cause: cause}
}

func IsWriteError(err error) (*WriteError, bool) {
	var we *WriteError
	if errors.As(err, &we) {
		return we, true
	}
	return nil, false
}

type InternalError struct {
	Message string
	Cause   error
}

func (e *InternalError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Cause)
	}
	return e.Message
}

func (e *InternalError) Unwrap() error {
	return e.Cause
}

func NewInternalError(message string, cause error) *InternalError {
	return &InternalError{
		Message: message,
		Cause:   cause,
	}
}

// HTTPStatus maps an error to its response status and code.
func HTTPStatus(err error) (int, string) {
	if _, ok := IsValidationError(err); ok {
		return http.StatusBadRequest, "VALIDATION_ERROR"
	}
	if _, ok := IsForbiddenError(err); ok {
		return http.StatusForbidden, "FORBIDDEN"
	}
	if _, ok := IsNotFoundError(err); ok {
		return http.StatusNotFound, "NOT_FOUND"
	}
	if _, ok := IsFetchError(err); ok {
		return http.StatusServiceUnavailable, "FETCH_FAILED"
	}
	if _, ok := IsWriteError(err); ok {
		return http.StatusBadGateway, "WRITE_FAILED"
	}
	return http.StatusInternalServerError, "INTERNAL_ERROR"
}
