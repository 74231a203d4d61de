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

// SignUpHandler handles POST /v1/auth/signup.
type SignUpHandler struct {
	AuthService *service.AuthService
}

// ServeHTTP registers a new account.
//
//	@Summary		Register a new account
//	@Description	Creates a user with the client role and a matching profile. A confirmation
//	@Description	email is sent; sign in is blocked until the address is confirmed.
//	@Tags			Auth
//	@Accept			json
//	@Produce		json
//	@Param			request	body		identsdk.SignUpRequest	true	"Email, password, optional full name"
//	@Success		201		{object}	identsdk.SignUpResponse	"Account created"
//	@Failure		400		{object}	identsdk.ErrorResponse	"Invalid email or weak password"
//	@Failure		409		{object}	identsdk.ErrorResponse	"Email already registered"
//	@Failure		500		{object}	identsdk.ErrorResponse	"Internal server error"
//	@Router			/v1/auth/signup [post].
func (h *SignUpHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := slogx.FromContext(ctx)

	var req identsdk.SignUpRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		identsdk.ErrInvalidRequest.WriteError(w)
		return
	}

	u, err := h.AuthService.SignUp(ctx, req.Email, req.Password, req.FullName)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrInvalidEmail):
			identsdk.NewAPIError(http.StatusBadRequest, identsdk.ErrorCodeInvalidRequest,
				"a valid email address is required").WriteError(w)
		case errors.Is(err, service.ErrWeakPassword):
			identsdk.NewAPIError(http.StatusBadRequest, identsdk.ErrorCodeInvalidRequest,
				"password must be at least 8 characters").WriteError(w)
		case errors.Is(err, service.ErrEmailTaken):
			identsdk.NewAPIError(http.StatusConflict, identsdk.ErrorCodeConflict,
				"an account with this email already exists").WriteError(w)
		default:
			log.Error("signup failed", "err", err)
			identsdk.ErrServerError.WriteError(w)
		}
		return
	}

	httpx.WriteJSON(w, http.StatusCreated, identsdk.SignUpResponse{
		UserID:               u.ID,
		Email:                u.Email,
		ConfirmationRequired: !u.IsEmailConfirmed(),
	})
}
