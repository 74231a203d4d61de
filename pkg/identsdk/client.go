package identsdk

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

// Client is a small HTTP client for the identity service. Authenticated
// operations take the bearer access token explicitly; token refresh is the
// caller's responsibility.
type Client struct {
	BaseURL    string
	HTTPClient *http.Client
}

// NewClient creates a client for the identity service at baseURL.
func NewClient(baseURL string) *Client {
	return &Client{
		BaseURL: strings.TrimSuffix(baseURL, "/"),
		HTTPClient: &http.Client{
			Timeout: 10 * time.Second,
		},
	}
}

// SignUp registers a new account.
func (c *Client) SignUp(ctx context.Context, req SignUpRequest) (*SignUpResponse, error) {
	var resp SignUpResponse
	if err := c.do(ctx, http.MethodPost, "/v1/auth/signup", "", req, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// SignIn authenticates with email and password. When the account has MFA
// enabled the returned error is a *MFARequiredError carrying the challenge
// id to pass to VerifyMFA.
func (c *Client) SignIn(ctx context.Context, email, password string) (*TokenResponse, error) {
	var resp TokenResponse
	err := c.do(ctx, http.MethodPost, "/v1/auth/signin", "", SignInRequest{Email: email, Password: password}, &resp)
	if err != nil {
		return nil, err
	}
	return &resp, nil
}

// VerifyMFA completes a pending sign-in challenge.
func (c *Client) VerifyMFA(ctx context.Context, challengeID, code string) (*TokenResponse, error) {
	var resp TokenResponse
	err := c.do(ctx, http.MethodPost, "/v1/auth/mfa/verify", "", MFAVerifyRequest{ChallengeID: challengeID, Code: code}, &resp)
	if err != nil {
		return nil, err
	}
	return &resp, nil
}

// Refresh exchanges a refresh token for a new token pair. The old refresh
// token is revoked.
func (c *Client) Refresh(ctx context.Context, refreshToken string) (*TokenResponse, error) {
	var resp TokenResponse
	err := c.do(ctx, http.MethodPost, "/v1/auth/refresh", "", RefreshRequest{RefreshToken: refreshToken}, &resp)
	if err != nil {
		return nil, err
	}
	return &resp, nil
}

// SignOut revokes the session identified by the refresh token. Revoking an
// unknown token is not an error.
func (c *Client) SignOut(ctx context.Context, refreshToken string) error {
	return c.do(ctx, http.MethodPost, "/v1/auth/signout", "", SignOutRequest{RefreshToken: refreshToken}, nil)
}

// ConfirmEmail consumes an emailed confirmation token.
func (c *Client) ConfirmEmail(ctx context.Context, token string) error {
	return c.do(ctx, http.MethodPost, "/v1/auth/confirm", "", ConfirmEmailRequest{Token: token}, nil)
}

// ResendConfirmation re-sends the confirmation email.
func (c *Client) ResendConfirmation(ctx context.Context, email string) error {
	return c.do(ctx, http.MethodPost, "/v1/auth/resend-confirmation", "", ResendConfirmationRequest{Email: email}, nil)
}

// Bootstrap creates the initial administrator account. Fails once an admin
// exists.
func (c *Client) Bootstrap(ctx context.Context, req BootstrapRequest) (*BootstrapResponse, error) {
	var resp BootstrapResponse
	if err := c.do(ctx, http.MethodPost, "/functions/create-admin", "", req, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// DeleteUser performs a privileged deletion of the target account. Requires
// an admin access token.
func (c *Client) DeleteUser(ctx context.Context, accessToken, userID string) error {
	return c.do(ctx, http.MethodPost, "/functions/delete-user", accessToken, DeleteUserRequest{UserID: userID}, nil)
}

// UserInfo returns the authenticated user's identity summary.
func (c *Client) UserInfo(ctx context.Context, accessToken string) (*UserInfoResponse, error) {
	var resp UserInfoResponse
	if err := c.do(ctx, http.MethodGet, "/v1/auth/userinfo", accessToken, nil, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// EnrollTOTP begins TOTP enrollment for the authenticated user.
func (c *Client) EnrollTOTP(ctx context.Context, accessToken string) (*EnrollTOTPResponse, error) {
	var resp EnrollTOTPResponse
	if err := c.do(ctx, http.MethodPost, "/v1/mfa/totp/enroll", accessToken, nil, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// VerifyTOTPEnrollment activates a pending enrollment and returns the
// one-time backup codes.
func (c *Client) VerifyTOTPEnrollment(ctx context.Context, accessToken, enrollmentID, code string) (*VerifyEnrollmentResponse, error) {
	var resp VerifyEnrollmentResponse
	err := c.do(ctx, http.MethodPost, "/v1/mfa/totp/verify", accessToken,
		VerifyEnrollmentRequest{EnrollmentID: enrollmentID, Code: code}, &resp)
	if err != nil {
		return nil, err
	}
	return &resp, nil
}

// do performs a JSON request and decodes the response into out (when out is
// non-nil). Error responses are decoded into *APIError or *MFARequiredError.
func (c *Client) do(ctx context.Context, method, path, accessToken string, body, out any) error {
	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encode request: %w", err)
		}
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.BaseURL+path, reader)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if accessToken != "" {
		req.Header.Set("Authorization", "Bearer "+accessToken)
	}

	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return fmt.Errorf("do request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		return parseErrorResponse(resp)
	}

	if out != nil {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			return fmt.Errorf("decode response: %w", err)
		}
	}
	return nil
}

// parseErrorResponse converts an HTTP error response into a typed error.
func parseErrorResponse(resp *http.Response) error {
	data, err := io.ReadAll(io.LimitReader(resp.Body, 1<<16))
	if err != nil {
		return fmt.Errorf("read error response: %w", err)
	}

	if resp.StatusCode == http.StatusConflict {
		var mfaErr struct {
			Error       string   `json:"error"`
			ChallengeID string   `json:"challenge_id"`
			Methods     []string `json:"mfa_methods"`
		}
		if json.Unmarshal(data, &mfaErr) == nil && mfaErr.Error == ErrorCodeMFARequired {
			return &MFARequiredError{ChallengeID: mfaErr.ChallengeID, Methods: mfaErr.Methods}
		}
	}

	var body ErrorResponse
	if json.Unmarshal(data, &body) == nil && body.Error != "" {
		return &APIError{
			StatusCode:  resp.StatusCode,
			Code:        body.Error,
			Description: body.ErrorDescription,
		}
	}

	// Function endpoints return {"error": "message"} without a description.
	var fn FunctionResponse
	if json.Unmarshal(data, &fn) == nil && fn.Error != "" {
		return &APIError{
			StatusCode:  resp.StatusCode,
			Code:        ErrorCodeInvalidRequest,
			Description: fn.Error,
		}
	}

	return &APIError{
		StatusCode:  resp.StatusCode,
		Code:        ErrorCodeServerError,
		Description: fmt.Sprintf("unexpected response: %s", http.StatusText(resp.StatusCode)),
	}
}
