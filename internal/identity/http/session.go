package http

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/nexusai/careerid/internal/identity/service"
	"github.com/nexusai/careerid/pkg/httpx"
	"github.com/nexusai/careerid/pkg/identsdk"
	"github.com/nexusai/careerid/pkg/slogx"
)

// SessionHandler handles refresh token rotation and sign out.
type SessionHandler struct {
	AuthService *service.AuthService
}

// HandleRefresh rotates a refresh token.
//
//	@Summary		Refresh the token pair
//	@Description	Exchanges a refresh token for a new pair. The old refresh token is
//	@Description	revoked; scopes are recomputed from the user's current role.
//	@Tags			Auth
//	@Accept			json
//	@Produce		json
//	@Param			request	body		identsdk.RefreshRequest	true	"Refresh token"
//	@Success		200		{object}	identsdk.TokenResponse	"New access and refresh tokens"
//	@Failure		401		{object}	identsdk.ErrorResponse	"Invalid, expired or revoked refresh token"
//	@Failure		500		{object}	identsdk.ErrorResponse	"Internal server error"
//	@Router			/v1/auth/refresh [post].
func (h *SessionHandler) HandleRefresh(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := slogx.FromContext(ctx)

	var req identsdk.RefreshRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.RefreshToken == "" {
		identsdk.ErrInvalidRequest.WriteError(w)
		return
	}

	pair, err := h.AuthService.Refresh(ctx, req.RefreshToken)
	if err != nil {
		if errors.Is(err, service.ErrInvalidRefresh) {
			identsdk.ErrInvalidGrant.WriteError(w)
			return
		}
		log.Error("refresh failed", "err", err)
		identsdk.ErrServerError.WriteError(w)
		return
	}

	writeTokenPair(w, pair)
}

// HandleSignOut revokes a refresh token.
//
//	@Summary		Sign out
//	@Description	Revokes the session's refresh token. Revoking an unknown token is not
//	@Description	an error, so sign out is idempotent.
//	@Tags			Auth
//	@Accept			json
//	@Produce		json
//	@Param			request	body	identsdk.SignOutRequest	true	"Refresh token"
//	@Success		204		"Session revoked"
//	@Failure		400		{object}	identsdk.ErrorResponse	"Malformed request"
//	@Failure		500		{object}	identsdk.ErrorResponse	"Internal server error"
//	@Router			/v1/auth/signout [post].
func (h *SessionHandler) HandleSignOut(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := slogx.FromContext(ctx)

	var req identsdk.SignOutRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.RefreshToken == "" {
		identsdk.ErrInvalidRequest.WriteError(w)
		return
	}

	if err := h.AuthService.SignOut(ctx, req.RefreshToken); err != nil {
		log.Error("signout failed", "err", err)
		identsdk.ErrServerError.WriteError(w)
		return
	}

	httpx.NoCache(w)
	w.WriteHeader(http.StatusNoContent)
}
