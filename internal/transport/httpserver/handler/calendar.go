package handler

import (
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	calendardomain "trpg-scheduler/internal/domain/calendar"
	"trpg-scheduler/internal/transport/httpserver/middleware"
)

type calendarEventResponse struct {
	ID                     string     `json:"id"`
	ExternalEventID        string     `json:"external_event_id"`
	Title                  string     `json:"title"`
	StartTime              time.Time  `json:"start_time"`
	EndTime                time.Time  `json:"end_time"`
	Description            string     `json:"description,omitempty"`
	IncludedInAvailability bool       `json:"included_in_availability"`
	SyncedAt               *time.Time `json:"synced_at,omitempty"`
	DeletedAt              *time.Time `json:"deleted_at,omitempty"`
}

type setIncludedRequest struct {
	Included bool `json:"included"`
}

func toCalendarEventResponse(event *calendardomain.Event) calendarEventResponse {
	return calendarEventResponse{
		ID:                     event.ID,
		ExternalEventID:        event.ExternalEventID,
		Title:                  event.Title,
		StartTime:              event.StartTime,
		EndTime:                event.EndTime,
		Description:            event.Description,
		IncludedInAvailability: event.IncludedInAvailability,
		SyncedAt:               event.SyncedAt,
		DeletedAt:              event.DeletedAt,
	}
}

func (h *Handlers) SyncCalendar(w http.ResponseWriter, r *http.Request) {
	user, ok := middleware.UserFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "invalid_token", "invalid token")
		return
	}

	result := h.Calendar.Sync(r.Context(), user.ID)
	status := http.StatusOK
	if !result.Success {
		status = http.StatusBadGateway
	}
	writeJSON(w, status, result)
}

func (h *Handlers) ListCalendarEvents(w http.ResponseWriter, r *http.Request) {
	user, ok := middleware.UserFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "invalid_token", "invalid token")
		return
	}

	now := time.Now()
	from, err := parseTimeParam(r, "from", now.AddDate(0, 0, -30))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid_request", "from must be RFC3339")
		return
	}
	to, err := parseTimeParam(r, "to", now.AddDate(1, 0, 0))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid_request", "to must be RFC3339")
		return
	}

	events, err := h.Calendar.ListLocalEvents(r.Context(), user.ID, from, to)
	if err != nil {
		h.log.InternalError("calendar.list: list failed", err, "user_id", user.ID)
		writeError(w, http.StatusInternalServerError, "internal_error", "internal error")
		return
	}

	result := make([]calendarEventResponse, 0, len(events))
	for i := range events {
		result = append(result, toCalendarEventResponse(&events[i]))
	}
	writeJSON(w, http.StatusOK, result)
}

func (h *Handlers) SetCalendarEventIncluded(w http.ResponseWriter, r *http.Request) {
	var req setIncludedRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_json", "invalid json body")
		return
	}

	user, ok := middleware.UserFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "invalid_token", "invalid token")
		return
	}
	eventID := chi.URLParam(r, "event_id")

	if err := h.Calendar.SetIncludedInAvailability(r.Context(), user.ID, eventID, req.Included); err != nil {
		h.writeCalendarError(w, "calendar.include", err, user.ID, eventID)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handlers) SoftDeleteCalendarEvent(w http.ResponseWriter, r *http.Request) {
	user, ok := middleware.UserFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "invalid_token", "invalid token")
		return
	}
	eventID := chi.URLParam(r, "event_id")

	if err := h.Calendar.SoftDelete(r.Context(), user.ID, eventID); err != nil {
		h.writeCalendarError(w, "calendar.delete", err, user.ID, eventID)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handlers) RestoreCalendarEvent(w http.ResponseWriter, r *http.Request) {
	user, ok := middleware.UserFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "invalid_token", "invalid token")
		return
	}
	eventID := chi.URLParam(r, "event_id")

	if err := h.Calendar.Restore(r.Context(), user.ID, eventID); err != nil {
		h.writeCalendarError(w, "calendar.restore", err, user.ID, eventID)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handlers) writeCalendarError(w http.ResponseWriter, op string, err error, userID, eventID string) {
	switch {
	case errors.Is(err, calendardomain.ErrEventNotFound):
		writeError(w, http.StatusNotFound, "event_not_found", "calendar event not found")
	case errors.Is(err, calendardomain.ErrNotConnected):
		h.log.BusinessError(op+": calendar not connected", err, "user_id", userID)
		writeError(w, http.StatusConflict, "not_connected", "no calendar connected for this user")
	default:
		h.log.InternalError(op+": failed", err, "user_id", userID, "event_id", eventID)
		writeError(w, http.StatusInternalServerError, "internal_error", "internal error")
	}
}
