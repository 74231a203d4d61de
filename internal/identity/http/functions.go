package http

import (
	"encoding/json"
	"errors"
	"net/http"
	"slices"
	"strings"

	"github.com/nexusai/careerid/internal/identity/domain"
	"github.com/nexusai/careerid/internal/identity/service"
	"github.com/nexusai/careerid/pkg/httpx"
	"github.com/nexusai/careerid/pkg/identsdk"
	"github.com/nexusai/careerid/pkg/jwtx"
	"github.com/nexusai/careerid/pkg/slogx"
)

// FunctionsHandler serves the function-style endpoints consumed by the web
// frontend. They keep a flat {"success": true} / {"error": "message"} wire
// contract, so authentication errors are written here rather than by the
// shared bearer middleware.
type FunctionsHandler struct {
	BootstrapService *service.BootstrapService
	AdminService     *service.AdminService
	Verifier         jwtx.Verifier
}

// HandleCreateAdmin handles POST /functions/create-admin.
//
//	@Summary		Create the initial administrator
//	@Description	Open endpoint that creates the first admin account. Refused with 400
//	@Description	once any admin exists, checked atomically with the insert.
//	@Tags			Functions
//	@Accept			json
//	@Produce		json
//	@Param			request	body		identsdk.BootstrapRequest	true	"Admin credentials"
//	@Success		200		{object}	identsdk.BootstrapResponse	"Admin created"
//	@Failure		400		{object}	identsdk.FunctionResponse	"Admin already exists or invalid input"
//	@Failure		500		{object}	identsdk.FunctionResponse	"Internal server error"
//	@Router			/functions/create-admin [post].
func (h *FunctionsHandler) HandleCreateAdmin(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := slogx.FromContext(ctx)

	var req identsdk.BootstrapRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeFunctionError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	adminID, _, err := h.BootstrapService.Bootstrap(ctx, domain.BootstrapData{
		Email:    req.Email,
		Password: req.Password,
		FullName: req.FullName,
	})
	if err != nil {
		switch {
		case errors.Is(err, service.ErrBootstrapAlready):
			writeFunctionError(w, http.StatusBadRequest, "Admin user already exists")
		case errors.Is(err, service.ErrEmailTaken):
			writeFunctionError(w, http.StatusBadRequest, "Email is already registered")
		case errors.Is(err, service.ErrInvalidEmail):
			writeFunctionError(w, http.StatusBadRequest, "A valid email address is required")
		case errors.Is(err, service.ErrWeakPassword):
			writeFunctionError(w, http.StatusBadRequest, "Password must be at least 8 characters")
		default:
			log.Error("create-admin failed", "err", err)
			writeFunctionError(w, http.StatusInternalServerError, "Failed to create admin user")
		}
		return
	}

	httpx.WriteJSON(w, http.StatusOK, identsdk.BootstrapResponse{
		Success: true,
		Message: "Admin user created successfully",
		Email:   strings.ToLower(strings.TrimSpace(req.Email)),
		UserID:  adminID,
	})
}

// HandleDeleteUser handles POST /functions/delete-user.
//
//	@Summary		Delete a user account
//	@Description	Admin-only. Permanently removes the target account and its data and
//	@Description	records the action in the audit trail. Admin accounts cannot be deleted.
//	@Tags			Functions
//	@Security		BearerAuth
//	@Accept			json
//	@Produce		json
//	@Param			request	body		identsdk.DeleteUserRequest	true	"Target user id (UUID)"
//	@Success		200		{object}	identsdk.FunctionResponse	"success: true"
//	@Failure		400		{object}	identsdk.FunctionResponse	"Missing or malformed user id"
//	@Failure		401		{object}	identsdk.FunctionResponse	"Missing or invalid access token"
//	@Failure		403		{object}	identsdk.FunctionResponse	"Caller is not an admin or target is an admin"
//	@Failure		404		{object}	identsdk.FunctionResponse	"Target user not found"
//	@Failure		500		{object}	identsdk.FunctionResponse	"Internal server error"
//	@Router			/functions/delete-user [post].
func (h *FunctionsHandler) HandleDeleteUser(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := slogx.FromContext(ctx)

	claims, ok := h.authenticate(r)
	if !ok {
		writeFunctionError(w, http.StatusUnauthorized, "Unauthorized")
		return
	}
	if !slices.Contains(claims.Scopes, "admin:write") {
		writeFunctionError(w, http.StatusForbidden, "Insufficient permissions to delete users")
		return
	}

	var req identsdk.DeleteUserRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.UserID == "" {
		writeFunctionError(w, http.StatusBadRequest, "User ID is required")
		return
	}

	if err := h.AdminService.DeleteUser(ctx, claims.Subject, req.UserID); err != nil {
		switch {
		case errors.Is(err, service.ErrInvalidUserID):
			writeFunctionError(w, http.StatusBadRequest, "Invalid user ID format")
		case errors.Is(err, service.ErrNotAdmin):
			writeFunctionError(w, http.StatusForbidden, "Insufficient permissions to delete users")
		case errors.Is(err, service.ErrCannotDeleteAdmin):
			writeFunctionError(w, http.StatusForbidden, "Admin accounts cannot be deleted")
		case errors.Is(err, service.ErrUserNotFound):
			writeFunctionError(w, http.StatusNotFound, "User not found")
		default:
			log.Error("delete-user failed", "err", err)
			writeFunctionError(w, http.StatusInternalServerError, "Failed to delete user")
		}
		return
	}

	httpx.WriteJSON(w, http.StatusOK, identsdk.FunctionResponse{Success: true})
}

// authenticate verifies the bearer token without the shared middleware so
// the function endpoints keep their own error shape.
func (h *FunctionsHandler) authenticate(r *http.Request) (jwtx.Claims, bool) {
	authz := r.Header.Get("Authorization")
	if !strings.HasPrefix(authz, "Bearer ") {
		return jwtx.Claims{}, false
	}
	claims, err := h.Verifier.Verify(strings.TrimSpace(strings.TrimPrefix(authz, "Bearer")))
	if err != nil {
		return jwtx.Claims{}, false
	}
	return claims, true
}

func writeFunctionError(w http.ResponseWriter, code int, msg string) {
	httpx.WriteJSON(w, code, identsdk.FunctionResponse{Error: msg})
}
