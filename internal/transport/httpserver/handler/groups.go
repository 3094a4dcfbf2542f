package handler

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	groupdomain "trpg-scheduler/internal/domain/group"
	"trpg-scheduler/internal/transport/httpserver/middleware"
)

type createGroupRequest struct {
	Name               string     `json:"name"`
	Intro              string     `json:"intro"`
	PlannedPeriodStart *time.Time `json:"planned_period_start"`
	PlannedPeriodEnd   *time.Time `json:"planned_period_end"`
}

type updateGroupRequest struct {
	Name               *string    `json:"name"`
	Intro              *string    `json:"intro"`
	PlannedPeriodStart *time.Time `json:"planned_period_start"`
	PlannedPeriodEnd   *time.Time `json:"planned_period_end"`
}

type addMemberRequest struct {
	UserID string `json:"user_id"`
	Role   string `json:"role"`
}

type createScenarioRequest struct {
	Name string `json:"name"`
}

type groupResponse struct {
	ID                 string     `json:"id"`
	Name               string     `json:"name"`
	Intro              string     `json:"intro,omitempty"`
	OwnerID            string     `json:"owner_id"`
	PlannedPeriodStart *time.Time `json:"planned_period_start,omitempty"`
	PlannedPeriodEnd   *time.Time `json:"planned_period_end,omitempty"`
}

type memberResponse struct {
	UserID   string    `json:"user_id"`
	Role     string    `json:"role"`
	JoinedAt time.Time `json:"joined_at"`
}

type scenarioResponse struct {
	ID      string `json:"id"`
	GroupID string `json:"group_id"`
	Name    string `json:"name"`
}

func toGroupResponse(grp *groupdomain.Group) groupResponse {
	return groupResponse{
		ID:                 grp.ID,
		Name:               grp.Name,
		Intro:              grp.Intro,
		OwnerID:            grp.OwnerID,
		PlannedPeriodStart: grp.PlannedPeriodStart,
		PlannedPeriodEnd:   grp.PlannedPeriodEnd,
	}
}

func (h *Handlers) ListGroups(w http.ResponseWriter, r *http.Request) {
	user, ok := middleware.UserFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "invalid_token", "invalid token")
		return
	}

	groups, err := h.Groups.ListGroupsByUser(r.Context(), user.ID)
	if err != nil {
		h.log.InternalError("groups.list: list failed", err, "user_id", user.ID)
		writeError(w, http.StatusInternalServerError, "internal_error", "internal error")
		return
	}

	result := make([]groupResponse, 0, len(groups))
	for i := range groups {
		result = append(result, toGroupResponse(&groups[i]))
	}
	writeJSON(w, http.StatusOK, result)
}

func (h *Handlers) CreateGroup(w http.ResponseWriter, r *http.Request) {
	var req createGroupRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_json", "invalid json body")
		return
	}
	if strings.TrimSpace(req.Name) == "" {
		writeError(w, http.StatusBadRequest, "invalid_request", "name is required")
		return
	}

	user, ok := middleware.UserFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "invalid_token", "invalid token")
		return
	}

	grp, err := h.Groups.CreateGroup(r.Context(), user.ID, groupdomain.CreateGroupInput{
		Name:               req.Name,
		Intro:              req.Intro,
		PlannedPeriodStart: req.PlannedPeriodStart,
		PlannedPeriodEnd:   req.PlannedPeriodEnd,
	})
	if err != nil {
		if errors.Is(err, groupdomain.ErrInvalidPlannedPeriod) {
			writeError(w, http.StatusBadRequest, "invalid_planned_period", "planned period end before start")
			return
		}
		h.log.InternalError("groups.create: create failed", err, "user_id", user.ID)
		writeError(w, http.StatusInternalServerError, "internal_error", "internal error")
		return
	}

	writeJSON(w, http.StatusCreated, toGroupResponse(grp))
}

func (h *Handlers) GetGroup(w http.ResponseWriter, r *http.Request) {
	user, ok := middleware.UserFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "invalid_token", "invalid token")
		return
	}
	groupID := chi.URLParam(r, "group_id")

	grp, err := h.Groups.GetGroup(r.Context(), user.ID, groupID)
	if err != nil {
		h.writeGroupError(w, "groups.get", err, user.ID, groupID)
		return
	}
	writeJSON(w, http.StatusOK, toGroupResponse(grp))
}

func (h *Handlers) UpdateGroup(w http.ResponseWriter, r *http.Request) {
	var req updateGroupRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_json", "invalid json body")
		return
	}

	user, ok := middleware.UserFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "invalid_token", "invalid token")
		return
	}
	groupID := chi.URLParam(r, "group_id")

	grp, err := h.Groups.UpdateGroup(r.Context(), user.ID, groupID, groupdomain.UpdateGroupInput{
		Name:               req.Name,
		Intro:              req.Intro,
		PlannedPeriodStart: req.PlannedPeriodStart,
		PlannedPeriodEnd:   req.PlannedPeriodEnd,
	})
	if err != nil {
		if errors.Is(err, groupdomain.ErrInvalidPlannedPeriod) {
			writeError(w, http.StatusBadRequest, "invalid_planned_period", "planned period end before start")
			return
		}
		h.writeGroupError(w, "groups.update", err, user.ID, groupID)
		return
	}
	writeJSON(w, http.StatusOK, toGroupResponse(grp))
}

func (h *Handlers) DeleteGroup(w http.ResponseWriter, r *http.Request) {
	user, ok := middleware.UserFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "invalid_token", "invalid token")
		return
	}
	groupID := chi.URLParam(r, "group_id")

	if err := h.Groups.DeleteGroup(r.Context(), user.ID, groupID); err != nil {
		h.writeGroupError(w, "groups.delete", err, user.ID, groupID)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handlers) ListMembers(w http.ResponseWriter, r *http.Request) {
	user, ok := middleware.UserFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "invalid_token", "invalid token")
		return
	}
	groupID := chi.URLParam(r, "group_id")

	members, err := h.Groups.ListMembers(r.Context(), user.ID, groupID)
	if err != nil {
		h.writeGroupError(w, "groups.members.list", err, user.ID, groupID)
		return
	}

	result := make([]memberResponse, 0, len(members))
	for _, member := range members {
		result = append(result, memberResponse{
			UserID:   member.UserID,
			Role:     member.Role,
			JoinedAt: member.JoinedAt,
		})
	}
	writeJSON(w, http.StatusOK, result)
}

func (h *Handlers) AddMember(w http.ResponseWriter, r *http.Request) {
	var req addMemberRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_json", "invalid json body")
		return
	}
	req.UserID = strings.TrimSpace(req.UserID)
	if req.UserID == "" {
		writeError(w, http.StatusBadRequest, "invalid_request", "user_id is required")
		return
	}
	if req.Role == "" {
		req.Role = groupdomain.RolePlayer
	}

	user, ok := middleware.UserFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "invalid_token", "invalid token")
		return
	}
	groupID := chi.URLParam(r, "group_id")

	member, err := h.Groups.AddMember(r.Context(), user.ID, groupID, req.UserID, req.Role)
	if err != nil {
		switch {
		case errors.Is(err, groupdomain.ErrDuplicateMember):
			h.log.BusinessError("groups.members.add: duplicate member", err, "group_id", groupID, "target", req.UserID)
			writeError(w, http.StatusConflict, "duplicate_member", "user is already a member")
		case errors.Is(err, groupdomain.ErrKeeperExists):
			writeError(w, http.StatusConflict, "keeper_exists", "group already has a keeper")
		default:
			h.writeGroupError(w, "groups.members.add", err, user.ID, groupID)
		}
		return
	}

	writeJSON(w, http.StatusCreated, memberResponse{
		UserID:   member.UserID,
		Role:     member.Role,
		JoinedAt: member.JoinedAt,
	})
}

func (h *Handlers) RemoveMember(w http.ResponseWriter, r *http.Request) {
	user, ok := middleware.UserFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "invalid_token", "invalid token")
		return
	}
	groupID := chi.URLParam(r, "group_id")
	targetID := chi.URLParam(r, "user_id")

	if err := h.Groups.RemoveMember(r.Context(), user.ID, groupID, targetID); err != nil {
		switch {
		case errors.Is(err, groupdomain.ErrCannotRemoveKeeper):
			h.log.BusinessError("groups.members.remove: keeper removal rejected", err, "group_id", groupID)
			writeError(w, http.StatusConflict, "cannot_remove_keeper", "keeper cannot be removed")
		default:
			h.writeGroupError(w, "groups.members.remove", err, user.ID, groupID)
		}
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handlers) LeaveGroup(w http.ResponseWriter, r *http.Request) {
	user, ok := middleware.UserFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "invalid_token", "invalid token")
		return
	}
	groupID := chi.URLParam(r, "group_id")

	if err := h.Groups.Leave(r.Context(), user.ID, groupID); err != nil {
		switch {
		case errors.Is(err, groupdomain.ErrCannotRemoveKeeper):
			h.log.BusinessError("groups.leave: keeper leave rejected", err, "group_id", groupID, "user_id", user.ID)
			writeError(w, http.StatusConflict, "cannot_remove_keeper", "keeper cannot leave the group")
		default:
			h.writeGroupError(w, "groups.leave", err, user.ID, groupID)
		}
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handlers) ListScenarios(w http.ResponseWriter, r *http.Request) {
	user, ok := middleware.UserFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "invalid_token", "invalid token")
		return
	}
	groupID := chi.URLParam(r, "group_id")

	scenarios, err := h.Groups.ListScenarios(r.Context(), user.ID, groupID)
	if err != nil {
		h.writeGroupError(w, "scenarios.list", err, user.ID, groupID)
		return
	}

	result := make([]scenarioResponse, 0, len(scenarios))
	for _, scenario := range scenarios {
		result = append(result, scenarioResponse{ID: scenario.ID, GroupID: scenario.GroupID, Name: scenario.Name})
	}
	writeJSON(w, http.StatusOK, result)
}

func (h *Handlers) CreateScenario(w http.ResponseWriter, r *http.Request) {
	var req createScenarioRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_json", "invalid json body")
		return
	}
	if strings.TrimSpace(req.Name) == "" {
		writeError(w, http.StatusBadRequest, "invalid_request", "name is required")
		return
	}

	user, ok := middleware.UserFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "invalid_token", "invalid token")
		return
	}
	groupID := chi.URLParam(r, "group_id")

	scenario, err := h.Groups.CreateScenario(r.Context(), user.ID, groupID, req.Name)
	if err != nil {
		h.writeGroupError(w, "scenarios.create", err, user.ID, groupID)
		return
	}
	writeJSON(w, http.StatusCreated, scenarioResponse{ID: scenario.ID, GroupID: scenario.GroupID, Name: scenario.Name})
}

func (h *Handlers) DeleteScenario(w http.ResponseWriter, r *http.Request) {
	user, ok := middleware.UserFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "invalid_token", "invalid token")
		return
	}
	scenarioID := chi.URLParam(r, "scenario_id")

	if err := h.Groups.DeleteScenario(r.Context(), user.ID, scenarioID); err != nil {
		switch {
		case errors.Is(err, groupdomain.ErrScenarioInUse):
			h.log.BusinessError("scenarios.delete: scenario in use", err, "scenario_id", scenarioID)
			writeError(w, http.StatusConflict, "scenario_in_use", "scenario referenced by a pending event")
		case errors.Is(err, groupdomain.ErrScenarioNotFound):
			writeError(w, http.StatusNotFound, "scenario_not_found", "scenario not found")
		case errors.Is(err, groupdomain.ErrNotKeeper):
			writeError(w, http.StatusForbidden, "not_keeper", "keeper role required")
		default:
			h.log.InternalError("scenarios.delete: delete failed", err, "scenario_id", scenarioID)
			writeError(w, http.StatusInternalServerError, "internal_error", "internal error")
		}
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handlers) writeGroupError(w http.ResponseWriter, op string, err error, userID, groupID string) {
	switch {
	case errors.Is(err, groupdomain.ErrGroupNotFound):
		writeError(w, http.StatusNotFound, "group_not_found", "group not found")
	case errors.Is(err, groupdomain.ErrScenarioNotFound):
		writeError(w, http.StatusNotFound, "scenario_not_found", "scenario not found")
	case errors.Is(err, groupdomain.ErrMemberNotFound):
		writeError(w, http.StatusNotFound, "member_not_found", "member not found")
	case errors.Is(err, groupdomain.ErrNotAMember):
		h.log.BusinessError(op+": not a member", err, "user_id", userID, "group_id", groupID)
		writeError(w, http.StatusForbidden, "not_a_member", "not a group member")
	case errors.Is(err, groupdomain.ErrNotKeeper):
		h.log.BusinessError(op+": keeper required", err, "user_id", userID, "group_id", groupID)
		writeError(w, http.StatusForbidden, "not_keeper", "keeper role required")
	default:
		h.log.InternalError(op+": failed", err, "user_id", userID, "group_id", groupID)
		writeError(w, http.StatusInternalServerError, "internal_error", "internal error")
	}
}
