package identsdk

import "time"

// ErrorResponse represents a standard error response body. It is used
// internally for parsing HTTP error responses; client code should use the
// APIError type from errors.go instead.
type ErrorResponse struct {
	Error            string `json:"error"`
	ErrorDescription string `json:"error_description"`
}

// TokenResponse is returned from the sign-in, MFA-verification, and refresh
// endpoints on success.
type TokenResponse struct {
	// AccessToken is the JWT access token used to authenticate API requests.
	AccessToken string `json:"access_token"`

	// RefreshToken is the opaque refresh token used to obtain new access tokens.
	RefreshToken string `json:"refresh_token,omitempty"`

	// TokenType is always "Bearer".
	TokenType string `json:"token_type"`

	// ExpiresIn is the lifetime in seconds of the access token.
	ExpiresIn int `json:"expires_in"`

	// Scope is the space-delimited list of scopes granted to this token.
	Scope string `json:"scope,omitempty"`
}

// SignUpRequest registers a new user account.
type SignUpRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`

	// FullName is stored on the user's profile. Optional.
	FullName string `json:"full_name,omitempty"`
}

// SignUpResponse confirms account creation. No tokens are issued until the
// email address has been confirmed.
type SignUpResponse struct {
	UserID string `json:"user_id"`
	Email  string `json:"email"`

	// ConfirmationRequired is true when the account cannot sign in until the
	// emailed confirmation link is followed.
	ConfirmationRequired bool `json:"confirmation_required"`
}

// SignInRequest authenticates with email and password.
type SignInRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// MFAVerifyRequest completes a pending sign-in challenge with a TOTP code or
// backup code.
type MFAVerifyRequest struct {
	ChallengeID string `json:"challenge_id"`
	Code        string `json:"code"`
}

// RefreshRequest exchanges a refresh token for a new token pair.
type RefreshRequest struct {
	RefreshToken string `json:"refresh_token"`
}

// SignOutRequest revokes the session identified by the refresh token.
type SignOutRequest struct {
	RefreshToken string `json:"refresh_token"`
}

// ConfirmEmailRequest consumes an email confirmation token.
type ConfirmEmailRequest struct {
	Token string `json:"token"`
}

// ResendConfirmationRequest re-sends the confirmation email.
type ResendConfirmationRequest struct {
	Email string `json:"email"`
}

// PasswordResetRequest starts the password reset flow for an email address.
type PasswordResetRequest struct {
	Email string `json:"email"`
}

// PasswordResetConfirmRequest consumes a reset token and sets a new password.
type PasswordResetConfirmRequest struct {
	Token       string `json:"token"`
	NewPassword string `json:"new_password"`
}

// EnrollTOTPResponse contains the provisioning material for a new TOTP
// enrollment. The secret is returned exactly once.
type EnrollTOTPResponse struct {
	// EnrollmentID identifies the pending enrollment for verification.
	EnrollmentID string `json:"enrollment_id"`

	// Secret is the base32-encoded TOTP secret.
	Secret string `json:"secret"`

	// OTPAuthURL is the otpauth:// provisioning URI for authenticator apps.
	OTPAuthURL string `json:"otpauth_url"`
}

// VerifyEnrollmentRequest confirms a pending TOTP enrollment with a code
// from the authenticator app.
type VerifyEnrollmentRequest struct {
	EnrollmentID string `json:"enrollment_id"`
	Code         string `json:"code"`
}

// VerifyEnrollmentResponse is returned when enrollment succeeds. The backup
// codes are shown exactly once; only their fingerprints are stored.
type VerifyEnrollmentResponse struct {
	BackupCodes []string `json:"backup_codes"`
}

// UnenrollRequest disables TOTP for the authenticated user. The current
// password is required to reconfirm identity.
type UnenrollRequest struct {
	Password string `json:"password"`
}

// BootstrapRequest creates the initial administrator account. Accepted only
// while no admin exists.
type BootstrapRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
	FullName string `json:"full_name,omitempty"`
}

// BootstrapResponse confirms the initial admin was created.
type BootstrapResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
	Email   string `json:"email"`
	UserID  string `json:"user_id"`
}

// DeleteUserRequest asks for the privileged deletion of a user account.
// The camelCase key is the established wire contract for this endpoint.
type DeleteUserRequest struct {
	UserID string `json:"userId"`
}

// FunctionResponse is the body returned by the function-style endpoints
// (/functions/...). On failure Error carries a human-readable message.
type FunctionResponse struct {
	Success bool   `json:"success,omitempty"`
	Error   string `json:"error,omitempty"`
}

// UserInfoResponse describes the authenticated user.
type UserInfoResponse struct {
	UserID     string `json:"user_id"`
	Email      string `json:"email"`
	FullName   string `json:"full_name,omitempty"`
	Role       string `json:"role"`
	MFAEnabled bool   `json:"mfa_enabled"`
}

// ProfileResponse describes a user profile.
type ProfileResponse struct {
	UserID          string    `json:"user_id"`
	Email           string    `json:"email"`
	FullName        string    `json:"full_name,omitempty"`
	Bio             *string   `json:"bio,omitempty"`
	CareerField     *string   `json:"career_field,omitempty"`
	ExperienceLevel *string   `json:"experience_level,omitempty"`
	AvatarURL       *string   `json:"avatar_url,omitempty"`
	CreatedAt       time.Time `json:"created_at"`
	UpdatedAt       time.Time `json:"updated_at"`
}

// UpdateProfileRequest updates the caller's own profile. Absent fields
// are left untouched; an empty string clears the field.
type UpdateProfileRequest struct {
	FullName        *string `json:"full_name,omitempty"`
	Bio             *string `json:"bio,omitempty"`
	CareerField     *string `json:"career_field,omitempty"`
	ExperienceLevel *string `json:"experience_level,omitempty"`
	AvatarURL       *string `json:"avatar_url,omitempty"`
}

// UserSummary is a row in the admin user listing.
type UserSummary struct {
	UserID         string    `json:"user_id"`
	Email          string    `json:"email"`
	FullName       string    `json:"full_name,omitempty"`
	Role           string    `json:"role"`
	EmailConfirmed bool      `json:"email_confirmed"`
	MFAEnabled     bool      `json:"mfa_enabled"`
	CreatedAt      time.Time `json:"created_at"`
}

// ListUsersResponse is the paginated admin user listing.
type ListUsersResponse struct {
	Users      []UserSummary `json:"users"`
	NextCursor string        `json:"next_cursor,omitempty"`
}

// SetRoleRequest changes a user's role.
type SetRoleRequest struct {
	Role string `json:"role"`
}

// AuditLogEntry is one administrative action record. Entries outlive the
// users they reference, so actor and target are plain ids, not links.
type AuditLogEntry struct {
	ID           string    `json:"id"`
	ActorID      string    `json:"actor_id"`
	Action       string    `json:"action"`
	TargetUserID string    `json:"target_user_id,omitempty"`
	Detail       string    `json:"detail,omitempty"`
	CreatedAt    time.Time `json:"created_at"`
}

// ListAuditLogResponse is the paginated audit trail.
type ListAuditLogResponse struct {
	Entries    []AuditLogEntry `json:"entries"`
	NextCursor string          `json:"next_cursor,omitempty"`
}
