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

// EmailFlowsHandler handles the emailed-token flows: address confirmation
// and password reset.
type EmailFlowsHandler struct {
	AuthService *service.AuthService
}

// HandleConfirm consumes an email confirmation token.
//
//	@Summary		Confirm an email address
//	@Tags			Auth
//	@Accept			json
//	@Produce		json
//	@Param			request	body	identsdk.ConfirmEmailRequest	true	"Confirmation token"
//	@Success		204		"Address confirmed"
//	@Failure		400		{object}	identsdk.ErrorResponse	"Invalid or expired token"
//	@Failure		500		{object}	identsdk.ErrorResponse	"Internal server error"
//	@Router			/v1/auth/confirm [post].
func (h *EmailFlowsHandler) HandleConfirm(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := slogx.FromContext(ctx)

	var req identsdk.ConfirmEmailRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Token == "" {
		identsdk.ErrInvalidRequest.WriteError(w)
		return
	}

	if err := h.AuthService.ConfirmEmail(ctx, req.Token); err != nil {
		if errors.Is(err, service.ErrInvalidEmailToken) {
			identsdk.NewAPIError(http.StatusBadRequest, identsdk.ErrorCodeInvalidRequest,
				"invalid or expired confirmation token").WriteError(w)
			return
		}
		log.Error("email confirmation failed", "err", err)
		identsdk.ErrServerError.WriteError(w)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// HandleResendConfirmation re-sends the confirmation email.
//
//	@Summary		Resend the confirmation email
//	@Description	Always returns 204 so callers cannot probe which addresses have accounts.
//	@Tags			Auth
//	@Accept			json
//	@Produce		json
//	@Param			request	body	identsdk.ResendConfirmationRequest	true	"Email address"
//	@Success		204		"Resent if the address has an unconfirmed account"
//	@Failure		400		{object}	identsdk.ErrorResponse	"Malformed request"
//	@Failure		500		{object}	identsdk.ErrorResponse	"Internal server error"
//	@Router			/v1/auth/resend-confirmation [post].
func (h *EmailFlowsHandler) HandleResendConfirmation(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := slogx.FromContext(ctx)

	var req identsdk.ResendConfirmationRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Email == "" {
		identsdk.ErrInvalidRequest.WriteError(w)
		return
	}

	if err := h.AuthService.ResendConfirmation(ctx, req.Email); err != nil {
		if errors.Is(err, service.ErrInvalidEmail) {
			identsdk.ErrInvalidRequest.WriteError(w)
			return
		}
		log.Error("resend confirmation failed", "err", err)
		identsdk.ErrServerError.WriteError(w)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// HandleResetRequest starts the password reset flow.
//
//	@Summary		Request a password reset
//	@Description	Always returns 204 so callers cannot probe which addresses have accounts.
//	@Tags			Auth
//	@Accept			json
//	@Produce		json
//	@Param			request	body	identsdk.PasswordResetRequest	true	"Email address"
//	@Success		204		"Reset email sent if the address has an account"
//	@Failure		400		{object}	identsdk.ErrorResponse	"Malformed request"
//	@Failure		500		{object}	identsdk.ErrorResponse	"Internal server error"
//	@Router			/v1/auth/password-reset [post].
func (h *EmailFlowsHandler) HandleResetRequest(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := slogx.FromContext(ctx)

	var req identsdk.PasswordResetRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Email == "" {
		identsdk.ErrInvalidRequest.WriteError(w)
		return
	}

	if err := h.AuthService.RequestPasswordReset(ctx, req.Email); err != nil {
		if errors.Is(err, service.ErrInvalidEmail) {
			identsdk.ErrInvalidRequest.WriteError(w)
			return
		}
		log.Error("password reset request failed", "err", err)
		identsdk.ErrServerError.WriteError(w)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// HandleResetConfirm consumes a reset token and sets the new password.
//
//	@Summary		Complete a password reset
//	@Description	Sets the new password and revokes every session for the user.
//	@Tags			Auth
//	@Accept			json
//	@Produce		json
//	@Param			request	body	identsdk.PasswordResetConfirmRequest	true	"Reset token and new password"
//	@Success		204		"Password replaced"
//	@Failure		400		{object}	identsdk.ErrorResponse	"Invalid token or weak password"
//	@Failure		500		{object}	identsdk.ErrorResponse	"Internal server error"
//	@Router			/v1/auth/password-reset/confirm [post].
func (h *EmailFlowsHandler) HandleResetConfirm(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := slogx.FromContext(ctx)

	var req identsdk.PasswordResetConfirmRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Token == "" {
		identsdk.ErrInvalidRequest.WriteError(w)
		return
	}

	if err := h.AuthService.ResetPassword(ctx, req.Token, req.NewPassword); err != nil {
		switch {
		case errors.Is(err, service.ErrWeakPassword):
			identsdk.NewAPIError(http.StatusBadRequest, identsdk.ErrorCodeInvalidRequest,
				"password must be at least 8 characters").WriteError(w)
		case errors.Is(err, service.ErrInvalidEmailToken):
			identsdk.NewAPIError(http.StatusBadRequest, identsdk.ErrorCodeInvalidRequest,
				"invalid or expired reset token").WriteError(w)
		default:
			log.Error("password reset failed", "err", err)
			identsdk.ErrServerError.WriteError(w)
		}
		return
	}

	httpx.NoCache(w)
	w.WriteHeader(http.StatusNoContent)
}
