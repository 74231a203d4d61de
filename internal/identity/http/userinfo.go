package http

import (
	"errors"
	"net/http"

	"github.com/nexusai/careerid/internal/identity/store"
	"github.com/nexusai/careerid/pkg/httpx"
	"github.com/nexusai/careerid/pkg/identsdk"
	"github.com/nexusai/careerid/pkg/slogx"
)

// UserInfoHandler serves the authenticated user's identity summary.
type UserInfoHandler struct {
	Store store.Store
}

// ServeHTTP handles GET /v1/auth/userinfo.
//
//	@Summary		Get user information
//	@Description	Returns the authenticated user's identity: id, email, display name,
//	@Description	role, and MFA state. Requires the 'profile:read' scope.
//	@Tags			Auth
//	@Security		BearerAuth
//	@Produce		json
//	@Success		200	{object}	identsdk.UserInfoResponse
//	@Failure		401	{object}	identsdk.ErrorResponse	"Invalid or missing access token"
//	@Failure		500	{object}	identsdk.ErrorResponse	"Internal server error"
//	@Router			/v1/auth/userinfo [get].
func (h *UserInfoHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := slogx.FromContext(ctx)

	userID := httpx.UserIDFromContext(ctx)
	if userID == "" {
		identsdk.ErrInvalidToken.WriteError(w)
		return
	}

	user, err := h.Store.Users().GetUserByID(ctx, userID)
	if err != nil {
		log.Warn("failed to load user", "user_id", userID, "err", err)
		identsdk.ErrServerError.WriteError(w)
		return
	}

	role, err := h.Store.Roles().GetRole(ctx, userID)
	if err != nil {
		log.Warn("failed to load role", "user_id", userID, "err", err)
		identsdk.ErrServerError.WriteError(w)
		return
	}

	var fullName string
	profile, err := h.Store.Profiles().GetProfile(ctx, userID)
	if err == nil {
		fullName = profile.FullName
	} else if !errors.Is(err, store.ErrNotFound) {
		log.Warn("failed to load profile", "user_id", userID, "err", err)
	}

	httpx.NoCache(w)
	httpx.WriteJSON(w, http.StatusOK, identsdk.UserInfoResponse{
		UserID:     user.ID,
		Email:      user.Email,
		FullName:   fullName,
		Role:       role,
		MFAEnabled: user.IsMFAEnabled(),
	})
}
