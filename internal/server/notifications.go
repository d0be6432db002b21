package server

import (
	"net/http"
	"time"

	"go.uber.org/zap"

	"opsboard/internal/dto"
	apperrors "opsboard/internal/errors"
	"opsboard/internal/infrastructure/web"
	"opsboard/internal/notify"
	"opsboard/internal/session"
)

// NotificationsHandler lists the caller's store notifications newer than the
// optional "since" query parameter (RFC 3339).
type NotificationsHandler struct {
	hub    *notify.Hub
	logger *zap.Logger
}

func NewNotificationsHandler(hub *notify.Hub, logger *zap.Logger) *NotificationsHandler {
	return &NotificationsHandler{hub: hub, logger: logger}
}

func (h *NotificationsHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	traceID, logger := web.Trace(r, h.logger)
	s, ok := session.FromContext(r.Context())
	if !ok {
		web.WriteError(w, logger, traceID, apperrors.NewValidationError("missing tenant"))
		return
	}

	var since time.Time
	if raw := r.URL.Query().Get("since"); raw != "" {
		t, err := time.Parse(time.RFC3339Nano, raw)
		if err != nil {
			web.WriteError(w, logger, traceID, apperrors.NewValidationError("invalid since", apperrors.ValidationDetail{
				Field:   "since",
				Message: "since must be an RFC 3339 timestamp",
			}))
			return
		}
		since = t
	}

	recent := h.hub.RecentForStore(s.StoreID, since)
	out := make([]dto.NotificationDTO, len(recent))
	for i, n := range recent {
		out[i] = dto.NotificationDTO{
			ID:       n.ID,
			Level:    string(n.Level),
			Message:  n.Message,
			Table:    n.Table,
			RecordID: n.RecordID,
			Fields:   n.Fields,
			At:       n.At.UTC().Format(time.RFC3339Nano),
		}
	}
	web.WriteJSON(w, logger, http.StatusOK, dto.NotificationsResponse{Notifications: out})
}
