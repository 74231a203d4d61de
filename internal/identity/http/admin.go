package http

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/nexusai/careerid/internal/identity/service"
	"github.com/nexusai/careerid/internal/identity/store"
	"github.com/nexusai/careerid/pkg/httpx"
	"github.com/nexusai/careerid/pkg/identsdk"
	"github.com/nexusai/careerid/pkg/slogx"
)

// AdminHandler serves the authenticated admin API: user listing, role
// changes, and the audit trail.
type AdminHandler struct {
	AdminService *service.AdminService
}

// HandleListUsers handles GET /v1/admin/users.
//
//	@Summary		List users
//	@Description	Returns a page of accounts with role and profile. Paginate with the
//	@Description	cursor query parameter from next_cursor.
//	@Tags			Admin
//	@Security		BearerAuth
//	@Produce		json
//	@Param			cursor	query		string	false	"Pagination cursor"
//	@Param			limit	query		int		false	"Page size (default 50)"
//	@Success		200		{object}	identsdk.ListUsersResponse
//	@Failure		401		{object}	identsdk.ErrorResponse	"Invalid or missing access token"
//	@Failure		403		{object}	identsdk.ErrorResponse	"Caller is not an admin"
//	@Failure		500		{object}	identsdk.ErrorResponse	"Internal server error"
//	@Router			/v1/admin/users [get].
func (h *AdminHandler) HandleListUsers(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := slogx.FromContext(ctx)

	actorID := httpx.UserIDFromContext(ctx)
	if actorID == "" {
		identsdk.ErrInvalidToken.WriteError(w)
		return
	}

	filter := store.UserFilter{AfterID: r.URL.Query().Get("cursor")}
	if v := r.URL.Query().Get("limit"); v != "" {
		if limit, err := strconv.Atoi(v); err == nil && limit > 0 && limit <= 200 {
			filter.Limit = limit
		}
	}

	rows, err := h.AdminService.ListUsers(ctx, actorID, filter)
	if err != nil {
		if errors.Is(err, service.ErrNotAdmin) {
			identsdk.ErrAccessDenied.WriteError(w)
			return
		}
		log.Error("list users failed", "err", err)
		identsdk.ErrServerError.WriteError(w)
		return
	}

	resp := identsdk.ListUsersResponse{Users: make([]identsdk.UserSummary, 0, len(rows))}
	for _, row := range rows {
		resp.Users = append(resp.Users, identsdk.UserSummary{
			UserID:         row.User.ID,
			Email:          row.User.Email,
			FullName:       row.Profile.FullName,
			Role:           row.Role,
			EmailConfirmed: row.User.IsEmailConfirmed(),
			MFAEnabled:     row.User.IsMFAEnabled(),
			CreatedAt:      row.User.CreatedAt,
		})
	}
	if n := len(rows); n > 0 && (filter.Limit == 0 || n == filter.Limit) {
		resp.NextCursor = rows[n-1].User.ID
	}

	httpx.WriteJSON(w, http.StatusOK, resp)
}

// HandleSetRole handles PUT /v1/admin/users/{id}/role.
//
//	@Summary		Change a user's role
//	@Description	Sets the target's role and revokes their sessions so old scopes die
//	@Description	immediately. Demoting the last admin is refused.
//	@Tags			Admin
//	@Security		BearerAuth
//	@Accept			json
//	@Produce		json
//	@Param			id		path	string					true	"Target user id (UUID)"
//	@Param			request	body	identsdk.SetRoleRequest	true	"New role"
//	@Success		204		"Role updated"
//	@Failure		400		{object}	identsdk.ErrorResponse	"Invalid user id or role"
//	@Failure		401		{object}	identsdk.ErrorResponse	"Invalid or missing access token"
//	@Failure		403		{object}	identsdk.ErrorResponse	"Caller is not an admin"
//	@Failure		404		{object}	identsdk.ErrorResponse	"Target user not found"
//	@Failure		409		{object}	identsdk.ErrorResponse	"Would remove the last admin"
//	@Failure		500		{object}	identsdk.ErrorResponse	"Internal server error"
//	@Router			/v1/admin/users/{id}/role [put].
func (h *AdminHandler) HandleSetRole(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := slogx.FromContext(ctx)

	actorID := httpx.UserIDFromContext(ctx)
	if actorID == "" {
		identsdk.ErrInvalidToken.WriteError(w)
		return
	}
	targetID := r.PathValue("id")

	var req identsdk.SetRoleRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		identsdk.ErrInvalidRequest.WriteError(w)
		return
	}

	if err := h.AdminService.SetRole(ctx, actorID, targetID, req.Role); err != nil {
		switch {
		case errors.Is(err, service.ErrInvalidUserID), errors.Is(err, service.ErrInvalidRole):
			identsdk.ErrInvalidRequest.WriteError(w)
		case errors.Is(err, service.ErrNotAdmin):
			identsdk.ErrAccessDenied.WriteError(w)
		case errors.Is(err, service.ErrUserNotFound):
			identsdk.ErrNotFound.WriteError(w)
		case errors.Is(err, service.ErrLastAdmin):
			identsdk.NewAPIError(http.StatusConflict, identsdk.ErrorCodeConflict,
				"cannot remove the last admin").WriteError(w)
		default:
			log.Error("set role failed", "err", err)
			identsdk.ErrServerError.WriteError(w)
		}
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// HandleListAuditLog handles GET /v1/admin/audit.
//
//	@Summary		Read the audit trail
//	@Description	Returns administrative action records, newest first. Filterable by
//	@Description	target user; paginate with the cursor from next_cursor.
//	@Tags			Admin
//	@Security		BearerAuth
//	@Produce		json
//	@Param			target_user_id	query		string	false	"Filter by affected user"
//	@Param			cursor			query		string	false	"Pagination cursor"
//	@Param			limit			query		int		false	"Page size (default 50)"
//	@Success		200				{object}	identsdk.ListAuditLogResponse
//	@Failure		401				{object}	identsdk.ErrorResponse	"Invalid or missing access token"
//	@Failure		403				{object}	identsdk.ErrorResponse	"Caller is not an admin"
//	@Failure		500				{object}	identsdk.ErrorResponse	"Internal server error"
//	@Router			/v1/admin/audit [get].
func (h *AdminHandler) HandleListAuditLog(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := slogx.FromContext(ctx)

	actorID := httpx.UserIDFromContext(ctx)
	if actorID == "" {
		identsdk.ErrInvalidToken.WriteError(w)
		return
	}

	filter := store.AuditFilter{
		TargetUserID: r.URL.Query().Get("target_user_id"),
		AfterID:      r.URL.Query().Get("cursor"),
	}
	if v := r.URL.Query().Get("limit"); v != "" {
		if limit, err := strconv.Atoi(v); err == nil && limit > 0 && limit <= 200 {
			filter.Limit = limit
		}
	}

	entries, err := h.AdminService.ListAuditLog(ctx, actorID, filter)
	if err != nil {
		if errors.Is(err, service.ErrNotAdmin) {
			identsdk.ErrAccessDenied.WriteError(w)
			return
		}
		log.Error("list audit log failed", "err", err)
		identsdk.ErrServerError.WriteError(w)
		return
	}

	resp := identsdk.ListAuditLogResponse{Entries: make([]identsdk.AuditLogEntry, 0, len(entries))}
	for _, e := range entries {
		resp.Entries = append(resp.Entries, identsdk.AuditLogEntry{
			ID:           e.ID,
			ActorID:      e.ActorID,
			Action:       e.Action,
			TargetUserID: e.TargetUserID,
			Detail:       e.Detail,
			CreatedAt:    e.CreatedAt,
		})
	}
	if n := len(entries); n > 0 && (filter.Limit == 0 || n == filter.Limit) {
		resp.NextCursor = entries[n-1].ID
	}

	httpx.WriteJSON(w, http.StatusOK, resp)
}
