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

// MFAHandler handles TOTP enrollment endpoints for authenticated users.
type MFAHandler struct {
	MFAService *service.MFAService
}

// HandleEnroll handles POST /v1/mfa/totp/enroll.
//
//	@Summary		Begin TOTP enrollment
//	@Description	Provisions a TOTP secret and returns it with the otpauth:// URI. The
//	@Description	account's MFA state does not change until the code is verified.
//	@Tags			MFA
//	@Security		BearerAuth
//	@Produce		json
//	@Success		200	{object}	identsdk.EnrollTOTPResponse	"Enrollment id, secret and provisioning URI"
//	@Failure		400	{object}	identsdk.ErrorResponse		"MFA already enabled"
//	@Failure		401	{object}	identsdk.ErrorResponse		"Invalid or missing access token"
//	@Failure		500	{object}	identsdk.ErrorResponse		"Internal server error"
//	@Router			/v1/mfa/totp/enroll [post].
func (h *MFAHandler) HandleEnroll(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := slogx.FromContext(ctx)

	userID := httpx.UserIDFromContext(ctx)
	if userID == "" {
		identsdk.ErrInvalidToken.WriteError(w)
		return
	}

	offer, err := h.MFAService.BeginEnrollment(ctx, userID)
	if err != nil {
		if errors.Is(err, service.ErrMFAAlreadyEnabled) {
			identsdk.NewAPIError(http.StatusBadRequest, "mfa_already_enabled",
				"MFA is already enabled for this user").WriteError(w)
			return
		}
		log.Error("failed to begin TOTP enrollment", "user_id", userID, "err", err)
		identsdk.ErrServerError.WriteError(w)
		return
	}

	httpx.NoCache(w)
	httpx.WriteJSON(w, http.StatusOK, identsdk.EnrollTOTPResponse{
		EnrollmentID: offer.EnrollmentID,
		Secret:       offer.Secret,
		OTPAuthURL:   offer.OTPAuthURL,
	})
}

// HandleVerify handles POST /v1/mfa/totp/verify.
//
//	@Summary		Verify TOTP enrollment and enable MFA
//	@Description	Confirms possession of the enrolled secret. On success MFA is enabled
//	@Description	and the backup codes are returned, shown exactly once.
//	@Tags			MFA
//	@Security		BearerAuth
//	@Accept			json
//	@Produce		json
//	@Param			request	body		identsdk.VerifyEnrollmentRequest	true	"Enrollment id and TOTP code"
//	@Success		200		{object}	identsdk.VerifyEnrollmentResponse	"Backup codes (shown once)"
//	@Failure		400		{object}	identsdk.ErrorResponse				"Invalid code or unknown enrollment"
//	@Failure		401		{object}	identsdk.ErrorResponse				"Invalid or missing access token"
//	@Failure		500		{object}	identsdk.ErrorResponse				"Internal server error"
//	@Router			/v1/mfa/totp/verify [post].
func (h *MFAHandler) HandleVerify(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := slogx.FromContext(ctx)

	userID := httpx.UserIDFromContext(ctx)
	if userID == "" {
		identsdk.ErrInvalidToken.WriteError(w)
		return
	}

	var req identsdk.VerifyEnrollmentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		identsdk.ErrInvalidRequest.WriteError(w)
		return
	}

	backupCodes, err := h.MFAService.VerifyEnrollment(ctx, userID, req.EnrollmentID, req.Code)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrInvalidTOTPCode):
			identsdk.NewAPIError(http.StatusBadRequest, "invalid_code",
				"Invalid TOTP code").WriteError(w)
		case errors.Is(err, service.ErrUnknownEnrollment):
			identsdk.NewAPIError(http.StatusBadRequest, identsdk.ErrorCodeInvalidRequest,
				"Unknown or expired enrollment").WriteError(w)
		case errors.Is(err, service.ErrMFAAlreadyEnabled):
			identsdk.NewAPIError(http.StatusBadRequest, "mfa_already_enabled",
				"MFA is already enabled for this user").WriteError(w)
		default:
			log.Error("failed to verify TOTP enrollment", "user_id", userID, "err", err)
			identsdk.ErrServerError.WriteError(w)
		}
		return
	}

	httpx.NoCache(w)
	httpx.WriteJSON(w, http.StatusOK, identsdk.VerifyEnrollmentResponse{
		BackupCodes: backupCodes,
	})
}

// HandleUnenroll handles POST /v1/mfa/totp/unenroll.
//
//	@Summary		Disable MFA
//	@Description	Disables TOTP after reconfirming the password. Backup codes are destroyed.
//	@Tags			MFA
//	@Security		BearerAuth
//	@Accept			json
//	@Produce		json
//	@Param			request	body	identsdk.UnenrollRequest	true	"Current password"
//	@Success		204		"MFA disabled"
//	@Failure		400		{object}	identsdk.ErrorResponse	"MFA not enabled"
//	@Failure		401		{object}	identsdk.ErrorResponse	"Invalid password or access token"
//	@Failure		500		{object}	identsdk.ErrorResponse	"Internal server error"
//	@Router			/v1/mfa/totp/unenroll [post].
func (h *MFAHandler) HandleUnenroll(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := slogx.FromContext(ctx)

	userID := httpx.UserIDFromContext(ctx)
	if userID == "" {
		identsdk.ErrInvalidToken.WriteError(w)
		return
	}

	var req identsdk.UnenrollRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Password == "" {
		identsdk.ErrInvalidRequest.WriteError(w)
		return
	}

	if err := h.MFAService.Unenroll(ctx, userID, req.Password); err != nil {
		switch {
		case errors.Is(err, service.ErrMFANotEnabled):
			identsdk.NewAPIError(http.StatusBadRequest, "mfa_not_enabled",
				"MFA is not enabled for this user").WriteError(w)
		case errors.Is(err, service.ErrInvalidCredentials):
			identsdk.ErrInvalidGrant.WriteError(w)
		default:
			log.Error("failed to unenroll MFA", "user_id", userID, "err", err)
			identsdk.ErrServerError.WriteError(w)
		}
		return
	}

	w.WriteHeader(http.StatusNoContent)
}
