package http

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/nexusai/careerid/internal/identity/domain"
	"github.com/nexusai/careerid/internal/identity/service"
	"github.com/nexusai/careerid/pkg/httpx"
	"github.com/nexusai/careerid/pkg/identsdk"
	"github.com/nexusai/careerid/pkg/slogx"
)

// ProfileHandler serves the caller's own profile.
type ProfileHandler struct {
	ProfileService *service.ProfileService
}

// HandleGet handles GET /v1/profile.
//
//	@Summary		Get own profile
//	@Tags			Profile
//	@Security		BearerAuth
//	@Produce		json
//	@Success		200	{object}	identsdk.ProfileResponse
//	@Failure		401	{object}	identsdk.ErrorResponse	"Invalid or missing access token"
//	@Failure		404	{object}	identsdk.ErrorResponse	"Profile not found"
//	@Failure		500	{object}	identsdk.ErrorResponse	"Internal server error"
//	@Router			/v1/profile [get].
func (h *ProfileHandler) HandleGet(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := slogx.FromContext(ctx)

	userID := httpx.UserIDFromContext(ctx)
	if userID == "" {
		identsdk.ErrInvalidToken.WriteError(w)
		return
	}

	p, err := h.ProfileService.GetProfile(ctx, userID)
	if err != nil {
		if errors.Is(err, service.ErrProfileNotFound) {
			identsdk.ErrNotFound.WriteError(w)
			return
		}
		log.Error("get profile failed", "err", err)
		identsdk.ErrServerError.WriteError(w)
		return
	}

	httpx.WriteJSON(w, http.StatusOK, profileResponse(p))
}

// HandleUpdate handles PATCH /v1/profile.
//
//	@Summary		Update own profile
//	@Tags			Profile
//	@Security		BearerAuth
//	@Accept			json
//	@Produce		json
//	@Param			request	body		identsdk.UpdateProfileRequest	true	"Fields to update"
//	@Success		200		{object}	identsdk.ProfileResponse
//	@Failure		400		{object}	identsdk.ErrorResponse	"Malformed request"
//	@Failure		401		{object}	identsdk.ErrorResponse	"Invalid or missing access token"
//	@Failure		404		{object}	identsdk.ErrorResponse	"Profile not found"
//	@Failure		500		{object}	identsdk.ErrorResponse	"Internal server error"
//	@Router			/v1/profile [patch].
func (h *ProfileHandler) HandleUpdate(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := slogx.FromContext(ctx)

	userID := httpx.UserIDFromContext(ctx)
	if userID == "" {
		identsdk.ErrInvalidToken.WriteError(w)
		return
	}

	var req identsdk.UpdateProfileRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		identsdk.ErrInvalidRequest.WriteError(w)
		return
	}

	p, err := h.ProfileService.UpdateProfile(ctx, userID, service.ProfileUpdate{
		FullName:        req.FullName,
		Bio:             req.Bio,
		CareerField:     req.CareerField,
		ExperienceLevel: req.ExperienceLevel,
		AvatarURL:       req.AvatarURL,
	})
	if err != nil {
		if errors.Is(err, service.ErrProfileNotFound) {
			identsdk.ErrNotFound.WriteError(w)
			return
		}
		log.Error("update profile failed", "err", err)
		identsdk.ErrServerError.WriteError(w)
		return
	}

	httpx.WriteJSON(w, http.StatusOK, profileResponse(p))
}

func profileResponse(p domain.Profile) identsdk.ProfileResponse {
	return identsdk.ProfileResponse{
		UserID:          p.UserID,
		Email:           p.Email,
		FullName:        p.FullName,
		Bio:             p.Bio,
		CareerField:     p.CareerField,
		ExperienceLevel: p.ExperienceLevel,
		AvatarURL:       p.AvatarURL,
		CreatedAt:       p.CreatedAt,
		UpdatedAt:       p.UpdatedAt,
	}
}
