package dto

import (
	apperrors "opsboard/internal/errors"
)

type ErrorResponse struct {
	TraceID string                       `json:"traceId"`
	Error   string                       `json:"error"`
	Message string                       `json:"message"`
	Details []apperrors.ValidationDetail `json:"details,omitempty"`
}

// Warning accompanies an accepted edit whose value had to be coerced.
type Warning struct {
	Message string                       `json:"message"`
	Details []apperrors.ValidationDetail `json:"details,omitempty"`
}

func NewWarning(ve *apperrors.ValidationError) *Warning {
	if ve == nil {
		return nil
	}
	return &Warning{Message: ve.Message, Details: ve.Details}
}

type EditRequest struct {
	Field string `json:"field"`
	Value any    `json:"value"`
}

type IDsRequest struct {
	IDs []string `json:"ids"`
}

type NotificationDTO struct {
	ID       string   `json:"id"`
	Level    string   `json:"level"`
	Message  string   `json:"message"`
	Table    string   `json:"table,omitempty"`
	RecordID string   `json:"recordId,omitempty"`
	Fields   []string `json:"fields,omitempty"`
	At       string   `json:"at"`
}

type NotificationsResponse struct {
	Notifications []NotificationDTO `json:"notifications"`
}
