package handler

import (
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	groupdomain "trpg-scheduler/internal/domain/group"
	pendingdomain "trpg-scheduler/internal/domain/pending"
	"trpg-scheduler/internal/transport/httpserver/middleware"
)

type createPendingEventRequest struct {
	ScenarioID string    `json:"scenario_id"`
	StartTime  time.Time `json:"start_time"`
	EndTime    time.Time `json:"end_time"`
}

type pendingEventResponse struct {
	ID         string    `json:"id"`
	GroupID    string    `json:"group_id"`
	ScenarioID string    `json:"scenario_id"`
	StartTime  time.Time `json:"start_time"`
	EndTime    time.Time `json:"end_time"`
	CreatedAt  time.Time `json:"created_at"`
}

type approvalResponse struct {
	ID          string     `json:"id"`
	UserID      string     `json:"user_id"`
	Approved    bool       `json:"approved"`
	ApprovedAt  *time.Time `json:"approved_at,omitempty"`
	AutoCreated bool       `json:"auto_created"`
}

type confirmedEventResponse struct {
	ID              string    `json:"id"`
	GroupID         string    `json:"group_id"`
	ScenarioID      string    `json:"scenario_id"`
	StartTime       time.Time `json:"start_time"`
	EndTime         time.Time `json:"end_time"`
	ExternalEventID *string   `json:"external_event_id,omitempty"`
	Notes           *string   `json:"notes,omitempty"`
}

type promoteResponse struct {
	Event   confirmedEventResponse       `json:"event"`
	Publish *pendingdomain.PublishResult `json:"publish,omitempty"`
}

func toPendingEventResponse(event *pendingdomain.PendingEvent) pendingEventResponse {
	return pendingEventResponse{
		ID:         event.ID,
		GroupID:    event.GroupID,
		ScenarioID: event.ScenarioID,
		StartTime:  event.StartTime,
		EndTime:    event.EndTime,
		CreatedAt:  event.CreatedAt,
	}
}

func toConfirmedEventResponse(event *pendingdomain.ConfirmedEvent) confirmedEventResponse {
	return confirmedEventResponse{
		ID:              event.ID,
		GroupID:         event.GroupID,
		ScenarioID:      event.ScenarioID,
		StartTime:       event.StartTime,
		EndTime:         event.EndTime,
		ExternalEventID: event.ExternalEventID,
		Notes:           event.Notes,
	}
}

func (h *Handlers) CreatePendingEvent(w http.ResponseWriter, r *http.Request) {
	var req createPendingEventRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_json", "invalid json body")
		return
	}
	if req.ScenarioID == "" {
		writeError(w, http.StatusBadRequest, "invalid_request", "scenario_id is required")
		return
	}

	user, ok := middleware.UserFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "invalid_token", "invalid token")
		return
	}
	groupID := chi.URLParam(r, "group_id")

	event, err := h.Pending.Create(r.Context(), user.ID, groupID, req.ScenarioID, req.StartTime, req.EndTime)
	if err != nil {
		switch {
		case errors.Is(err, pendingdomain.ErrAlreadyPending):
			h.log.BusinessError("pending.create: group already negotiating", err, "group_id", groupID)
			writeError(w, http.StatusConflict, "already_pending", "group already has a pending event")
		case errors.Is(err, pendingdomain.ErrInvalidTimeRange):
			writeError(w, http.StatusBadRequest, "invalid_time_range", "end must be after start")
		case errors.Is(err, groupdomain.ErrScenarioNotFound):
			writeError(w, http.StatusNotFound, "scenario_not_found", "scenario not found")
		default:
			h.writePendingError(w, "pending.create", err, user.ID, groupID)
		}
		return
	}
	writeJSON(w, http.StatusCreated, toPendingEventResponse(event))
}

func (h *Handlers) GetPendingEvent(w http.ResponseWriter, r *http.Request) {
	user, ok := middleware.UserFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "invalid_token", "invalid token")
		return
	}
	groupID := chi.URLParam(r, "group_id")

	event, err := h.Pending.GetByGroup(r.Context(), user.ID, groupID)
	if err != nil {
		h.writePendingError(w, "pending.get", err, user.ID, groupID)
		return
	}
	writeJSON(w, http.StatusOK, toPendingEventResponse(event))
}

func (h *Handlers) ApprovePendingEvent(w http.ResponseWriter, r *http.Request) {
	user, ok := middleware.UserFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "invalid_token", "invalid token")
		return
	}
	eventID := chi.URLParam(r, "event_id")

	approval, err := h.Pending.Approve(r.Context(), user.ID, eventID)
	if err != nil {
		h.writePendingError(w, "pending.approve", err, user.ID, eventID)
		return
	}
	writeJSON(w, http.StatusOK, approvalResponse{
		ID:          approval.ID,
		UserID:      approval.UserID,
		Approved:    approval.Approved,
		ApprovedAt:  approval.ApprovedAt,
		AutoCreated: approval.AutoCreated,
	})
}

func (h *Handlers) PendingEventStatus(w http.ResponseWriter, r *http.Request) {
	user, ok := middleware.UserFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "invalid_token", "invalid token")
		return
	}
	eventID := chi.URLParam(r, "event_id")

	status, err := h.Pending.Status(r.Context(), user.ID, eventID)
	if err != nil {
		h.writePendingError(w, "pending.status", err, user.ID, eventID)
		return
	}
	writeJSON(w, http.StatusOK, status)
}

func (h *Handlers) PromotePendingEvent(w http.ResponseWriter, r *http.Request) {
	user, ok := middleware.UserFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "invalid_token", "invalid token")
		return
	}
	eventID := chi.URLParam(r, "event_id")

	confirmed, publish, err := h.Pending.PromoteAndPublish(r.Context(), user.ID, eventID)
	if err != nil {
		switch {
		case errors.Is(err, pendingdomain.ErrQuorumNotMet):
			h.log.BusinessError("pending.promote: quorum not met", err, "event_id", eventID)
			writeError(w, http.StatusConflict, "quorum_not_met", "not all members have approved")
		case errors.Is(err, pendingdomain.ErrEventConfirmed):
			writeError(w, http.StatusConflict, "event_confirmed", "group already has a confirmed event")
		default:
			h.writePendingError(w, "pending.promote", err, user.ID, eventID)
		}
		return
	}
	writeJSON(w, http.StatusOK, promoteResponse{Event: toConfirmedEventResponse(confirmed), Publish: publish})
}

func (h *Handlers) CancelPendingEvent(w http.ResponseWriter, r *http.Request) {
	user, ok := middleware.UserFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "invalid_token", "invalid token")
		return
	}
	eventID := chi.URLParam(r, "event_id")

	if err := h.Pending.Cancel(r.Context(), user.ID, eventID); err != nil {
		h.writePendingError(w, "pending.cancel", err, user.ID, eventID)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handlers) GetConfirmedEvent(w http.ResponseWriter, r *http.Request) {
	user, ok := middleware.UserFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "invalid_token", "invalid token")
		return
	}
	groupID := chi.URLParam(r, "group_id")

	event, err := h.Pending.GetConfirmedByGroup(r.Context(), user.ID, groupID)
	if err != nil {
		h.writePendingError(w, "confirmed.get", err, user.ID, groupID)
		return
	}
	writeJSON(w, http.StatusOK, toConfirmedEventResponse(event))
}

func (h *Handlers) PublishConfirmedEvent(w http.ResponseWriter, r *http.Request) {
	user, ok := middleware.UserFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "invalid_token", "invalid token")
		return
	}
	eventID := chi.URLParam(r, "event_id")

	result, err := h.Pending.Publish(r.Context(), user.ID, eventID)
	if err != nil {
		h.writePendingError(w, "confirmed.publish", err, user.ID, eventID)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

func (h *Handlers) DeleteConfirmedEvent(w http.ResponseWriter, r *http.Request) {
	user, ok := middleware.UserFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "invalid_token", "invalid token")
		return
	}
	eventID := chi.URLParam(r, "event_id")

	if err := h.Pending.DeleteConfirmed(r.Context(), user.ID, eventID); err != nil {
		h.writePendingError(w, "confirmed.delete", err, user.ID, eventID)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handlers) writePendingError(w http.ResponseWriter, op string, err error, userID, subjectID string) {
	switch {
	case errors.Is(err, pendingdomain.ErrPendingEventNotFound):
		writeError(w, http.StatusNotFound, "pending_event_not_found", "pending event not found")
	case errors.Is(err, pendingdomain.ErrConfirmedEventNotFound):
		writeError(w, http.StatusNotFound, "confirmed_event_not_found", "confirmed event not found")
	case errors.Is(err, pendingdomain.ErrApprovalNotFound):
		writeError(w, http.StatusNotFound, "approval_not_found", "no approval slot for this user")
	case errors.Is(err, pendingdomain.ErrNotGroupMember):
		h.log.BusinessError(op+": not a member", err, "user_id", userID, "subject_id", subjectID)
		writeError(w, http.StatusForbidden, "not_a_member", "not a group member")
	case errors.Is(err, pendingdomain.ErrNotKeeper):
		h.log.BusinessError(op+": keeper required", err, "user_id", userID, "subject_id", subjectID)
		writeError(w, http.StatusForbidden, "not_keeper", "keeper role required")
	case errors.Is(err, groupdomain.ErrGroupNotFound):
		writeError(w, http.StatusNotFound, "group_not_found", "group not found")
	default:
		h.log.InternalError(op+": failed", err, "user_id", userID, "subject_id", subjectID)
		writeError(w, http.StatusInternalServerError, "internal_error", "internal error")
	}
}
