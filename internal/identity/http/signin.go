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

// SignInHandler handles POST /v1/auth/signin and POST /v1/auth/mfa/verify.
type SignInHandler struct {
	AuthService *service.AuthService
}

// HandleSignIn authenticates with email and password.
//
//	@Summary		Sign in with email and password
//	@Description	Returns a token pair on success. For MFA-enabled accounts the response is
//	@Description	409 with a challenge id; complete it at /v1/auth/mfa/verify.
//	@Tags			Auth
//	@Accept			json
//	@Produce		json
//	@Param			request	body		identsdk.SignInRequest	true	"Credentials"
//	@Success		200		{object}	identsdk.TokenResponse	"Access and refresh tokens"
//	@Failure		401		{object}	identsdk.ErrorResponse	"Invalid credentials"
//	@Failure		403		{object}	identsdk.ErrorResponse	"Email not confirmed"
//	@Failure		409		{object}	identsdk.ErrorResponse	"MFA required (challenge_id, mfa_methods)"
//	@Failure		500		{object}	identsdk.ErrorResponse	"Internal server error"
//	@Router			/v1/auth/signin [post].
func (h *SignInHandler) HandleSignIn(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := slogx.FromContext(ctx)

	var req identsdk.SignInRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		identsdk.ErrInvalidRequest.WriteError(w)
		return
	}

	pair, err := h.AuthService.SignIn(ctx, req.Email, req.Password)
	if err != nil {
		var mfaErr *service.MFARequiredError
		switch {
		case errors.As(err, &mfaErr):
			mfaErr.WriteError(w)
		case errors.Is(err, service.ErrInvalidCredentials):
			identsdk.ErrInvalidGrant.WriteError(w)
		case errors.Is(err, service.ErrEmailNotConfirmed):
			identsdk.ErrEmailNotConfirmed.WriteError(w)
		default:
			log.Error("signin failed", "err", err)
			identsdk.ErrServerError.WriteError(w)
		}
		return
	}

	writeTokenPair(w, pair)
}

// HandleMFAVerify completes a pending sign-in challenge.
//
//	@Summary		Complete an MFA challenge
//	@Description	Verifies a TOTP code or backup code against a pending challenge and
//	@Description	returns the token pair. Challenges are single use and allow at most
//	@Description	five failed attempts.
//	@Tags			Auth
//	@Accept			json
//	@Produce		json
//	@Param			request	body		identsdk.MFAVerifyRequest	true	"Challenge id and code"
//	@Success		200		{object}	identsdk.TokenResponse		"Access and refresh tokens"
//	@Failure		401		{object}	identsdk.ErrorResponse		"Invalid code or unknown challenge"
//	@Failure		429		{object}	identsdk.ErrorResponse		"Too many failed attempts"
//	@Failure		500		{object}	identsdk.ErrorResponse		"Internal server error"
//	@Router			/v1/auth/mfa/verify [post].
func (h *SignInHandler) HandleMFAVerify(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := slogx.FromContext(ctx)

	var req identsdk.MFAVerifyRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		identsdk.ErrInvalidRequest.WriteError(w)
		return
	}
	if req.ChallengeID == "" || req.Code == "" {
		identsdk.ErrInvalidRequest.WriteError(w)
		return
	}

	pair, err := h.AuthService.CompleteMFAChallenge(ctx, req.ChallengeID, req.Code)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrTooManyAttempts):
			identsdk.NewAPIError(http.StatusTooManyRequests, identsdk.ErrorCodeInvalidGrant,
				"too many failed attempts, sign in again").WriteError(w)
		case errors.Is(err, service.ErrInvalidCredentials):
			identsdk.ErrInvalidGrant.WriteError(w)
		default:
			log.Error("mfa verify failed", "err", err)
			identsdk.ErrServerError.WriteError(w)
		}
		return
	}

	writeTokenPair(w, pair)
}

func writeTokenPair(w http.ResponseWriter, pair *domain.TokenPair) {
	httpx.NoCache(w)
	httpx.WriteJSON(w, http.StatusOK, identsdk.TokenResponse{
		AccessToken:  pair.AccessToken,
		RefreshToken: pair.RefreshToken,
		TokenType:    pair.TokenType,
		ExpiresIn:    int(pair.ExpiresIn.Seconds()),
		Scope:        pair.Scope,
	})
}
