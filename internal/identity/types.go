// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package identity

import (
	"errors"
	"fmt"
)

// Error variables for common identity API errors.
var (
	// ErrNotConfigured indicates the API URL or key is not set.
	ErrNotConfigured = errors.New("identity API not configured")

	// ErrNoToken indicates a bearer-token call was attempted without a token.
	ErrNoToken = errors.New("no ID token available")
)

// APIError represents a failure reported by the identity API on a
// non-2xx response. Transport and decode failures stay plain wrapped
// errors; Status is 0 when no HTTP status was received.
type APIError struct {
	Status  int
	Message string
}

// Error implements the error interface.
func (e *APIError) Error() string {
	if e.Status != 0 {
		return fmt.Sprintf("identity API error (HTTP %d): %s", e.Status, e.Message)
	}
	return fmt.Sprintf("identity API error: %s", e.Message)
}

// AsAPIError unwraps err into an *APIError if possible.
func AsAPIError(err error) (*APIError, bool) {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr, true
	}
	return nil, false
}

// errorBody is the JSON error payload returned on non-2xx responses.
type errorBody struct {
	Message string `json:"message"`
}

// =============================================================================
// REQUEST / RESPONSE TYPES
// =============================================================================

// RegisterRequest creates a new user account.
type RegisterRequest struct {
	FullName          string `json:"full_name"`
	Email             string `json:"email"`
	MobilePhoneNumber string `json:"mobile_phone_number"`
}

// RegisterResponse carries the new account's opaque user ID.
type RegisterResponse struct {
	UserID string `json:"user_id"`
}

// ConfirmUserRequest exchanges the emailed temporary password for a
// permanent one.
type ConfirmUserRequest struct {
	Email             string `json:"email"`
	TemporaryPassword string `json:"temporary_password"`
	NewPassword       string `json:"new_password"`
}

// ConfirmUserResponse carries the MFA provisioning URI (otpauth://...)
// used to enroll an authenticator app.
type ConfirmUserResponse struct {
	QRCodeSecretURL string `json:"qr_code_secret_url"`
}

// ConfirmMfaRequest completes MFA enrollment with a first OTP code.
type ConfirmMfaRequest struct {
	Email string `json:"email"`
	OTP   string `json:"otp"`
}

// LoginRequest starts a password login.
type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// LoginResponse carries the opaque handle required to complete the MFA
// challenge.
type LoginResponse struct {
	VerificationSession string `json:"verification_session"`
}

// VerificationTypeSoftwareToken is the only challenge type the API
// issues for authenticator-app logins.
const VerificationTypeSoftwareToken = "SOFTWARE_TOKEN_MFA"

// VerifyMfaRequest answers the MFA challenge issued by Login.
type VerifyMfaRequest struct {
	Email               string `json:"email"`
	VerificationType    string `json:"verification_type"`
	VerificationSession string `json:"verification_session"`
	OTPCode             string `json:"otp_code"`
}

// RefreshRequest exchanges a refresh token for a fresh credential set.
type RefreshRequest struct {
	Email        string `json:"email"`
	RefreshToken string `json:"refresh_token"`
}

// TokenResponse carries a complete credential set. The three tokens are
// always issued together; callers must treat them as one unit.
type TokenResponse struct {
	IDToken      string `json:"id_token"`
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
}
