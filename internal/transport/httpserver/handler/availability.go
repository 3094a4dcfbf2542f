package handler

import (
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	availabilitydomain "trpg-scheduler/internal/domain/availability"
	groupdomain "trpg-scheduler/internal/domain/group"
	"trpg-scheduler/internal/transport/httpserver/middleware"
)

type createAvailabilityRequest struct {
	StartTime time.Time `json:"start_time"`
	EndTime   time.Time `json:"end_time"`
}

type availabilityResponse struct {
	ID        string    `json:"id"`
	UserID    string    `json:"user_id"`
	StartTime time.Time `json:"start_time"`
	EndTime   time.Time `json:"end_time"`
	Source    string    `json:"source"`
}

type intervalsResponse struct {
	Intervals []availabilitydomain.Interval `json:"intervals"`
}

func toAvailabilityResponse(a *availabilitydomain.Availability) availabilityResponse {
	return availabilityResponse{
		ID:        a.ID,
		UserID:    a.UserID,
		StartTime: a.StartTime,
		EndTime:   a.EndTime,
		Source:    a.Source,
	}
}

func (h *Handlers) CreateAvailability(w http.ResponseWriter, r *http.Request) {
	var req createAvailabilityRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_json", "invalid json body")
		return
	}

	user, ok := middleware.UserFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "invalid_token", "invalid token")
		return
	}

	record, err := h.Availability.Create(r.Context(), user.ID, req.StartTime, req.EndTime, availabilitydomain.SourceManual)
	if err != nil {
		if errors.Is(err, availabilitydomain.ErrInvalidTimeRange) {
			writeError(w, http.StatusBadRequest, "invalid_time_range", "end must be after start")
			return
		}
		h.log.InternalError("availability.create: create failed", err, "user_id", user.ID)
		writeError(w, http.StatusInternalServerError, "internal_error", "internal error")
		return
	}
	writeJSON(w, http.StatusCreated, toAvailabilityResponse(record))
}

func (h *Handlers) ListAvailabilities(w http.ResponseWriter, r *http.Request) {
	user, ok := middleware.UserFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "invalid_token", "invalid token")
		return
	}

	from, to, ok2 := h.window(w, r)
	if !ok2 {
		return
	}

	records, err := h.Availability.List(r.Context(), user.ID, from, to)
	if err != nil {
		h.log.InternalError("availability.list: list failed", err, "user_id", user.ID)
		writeError(w, http.StatusInternalServerError, "internal_error", "internal error")
		return
	}

	result := make([]availabilityResponse, 0, len(records))
	for i := range records {
		result = append(result, toAvailabilityResponse(&records[i]))
	}
	writeJSON(w, http.StatusOK, result)
}

func (h *Handlers) DeleteAvailability(w http.ResponseWriter, r *http.Request) {
	user, ok := middleware.UserFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "invalid_token", "invalid token")
		return
	}
	availabilityID := chi.URLParam(r, "availability_id")

	if err := h.Availability.Delete(r.Context(), user.ID, availabilityID); err != nil {
		if errors.Is(err, availabilitydomain.ErrNotFound) {
			writeError(w, http.StatusNotFound, "availability_not_found", "availability not found")
			return
		}
		h.log.InternalError("availability.delete: delete failed", err, "user_id", user.ID, "availability_id", availabilityID)
		writeError(w, http.StatusInternalServerError, "internal_error", "internal error")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handlers) BusyIntervals(w http.ResponseWriter, r *http.Request) {
	user, ok := middleware.UserFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "invalid_token", "invalid token")
		return
	}

	from, to, ok2 := h.window(w, r)
	if !ok2 {
		return
	}

	intervals, err := h.Availability.BusyIntervals(r.Context(), user.ID, from, to)
	if err != nil {
		h.log.InternalError("availability.busy: query failed", err, "user_id", user.ID)
		writeError(w, http.StatusInternalServerError, "internal_error", "internal error")
		return
	}
	writeJSON(w, http.StatusOK, intervalsResponse{Intervals: intervals})
}

func (h *Handlers) FreeIntervals(w http.ResponseWriter, r *http.Request) {
	user, ok := middleware.UserFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "invalid_token", "invalid token")
		return
	}

	from, to, ok2 := h.window(w, r)
	if !ok2 {
		return
	}

	intervals, err := h.Availability.FreeIntervals(r.Context(), user.ID, from, to)
	if err != nil {
		h.log.InternalError("availability.free: query failed", err, "user_id", user.ID)
		writeError(w, http.StatusInternalServerError, "internal_error", "internal error")
		return
	}
	writeJSON(w, http.StatusOK, intervalsResponse{Intervals: intervals})
}

func (h *Handlers) GroupFreeIntervals(w http.ResponseWriter, r *http.Request) {
	user, ok := middleware.UserFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "invalid_token", "invalid token")
		return
	}
	groupID := chi.URLParam(r, "group_id")

	isMember, err := h.Groups.IsMember(r.Context(), groupID, user.ID)
	if err != nil {
		if errors.Is(err, groupdomain.ErrGroupNotFound) {
			writeError(w, http.StatusNotFound, "group_not_found", "group not found")
			return
		}
		h.log.InternalError("availability.group_free: membership check failed", err, "group_id", groupID)
		writeError(w, http.StatusInternalServerError, "internal_error", "internal error")
		return
	}
	if !isMember {
		h.log.Warn("availability.group_free: not a member", "user_id", user.ID, "group_id", groupID)
		writeError(w, http.StatusForbidden, "not_a_member", "not a group member")
		return
	}

	var from, to time.Time
	from, err = parseTimeParam(r, "from", time.Time{})
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid_request", "from must be RFC3339")
		return
	}
	to, err = parseTimeParam(r, "to", time.Time{})
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid_request", "to must be RFC3339")
		return
	}
	minDuration, err := parseDurationParam(r, "min_duration", 0)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid_request", "min_duration must be a Go duration")
		return
	}

	intervals, err := h.Availability.GroupFreeIntervals(r.Context(), groupID, from, to, minDuration)
	if err != nil {
		switch {
		case errors.Is(err, availabilitydomain.ErrInvalidWindow):
			writeError(w, http.StatusBadRequest, "invalid_window", "no window given and the group has no planned period")
		case errors.Is(err, groupdomain.ErrGroupNotFound):
			writeError(w, http.StatusNotFound, "group_not_found", "group not found")
		default:
			h.log.InternalError("availability.group_free: query failed", err, "group_id", groupID)
			writeError(w, http.StatusInternalServerError, "internal_error", "internal error")
		}
		return
	}
	writeJSON(w, http.StatusOK, intervalsResponse{Intervals: intervals})
}

// window reads the from/to query params, defaulting to the coming 30
// days, and writes the error response itself on bad input.
func (h *Handlers) window(w http.ResponseWriter, r *http.Request) (time.Time, time.Time, bool) {
	now := time.Now()
	from, err := parseTimeParam(r, "from", now)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid_request", "from must be RFC3339")
		return time.Time{}, time.Time{}, false
	}
	to, err := parseTimeParam(r, "to", now.AddDate(0, 0, 30))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid_request", "to must be RFC3339")
		return time.Time{}, time.Time{}, false
	}
	if !to.After(from) {
		writeError(w, http.StatusBadRequest, "invalid_window", "to must be after from")
		return time.Time{}, time.Time{}, false
	}
	return from, to, true
}
