// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package session

import (
	"context"

	"github.com/jeranaias/authflow-tui/internal/identity"
)

// =============================================================================
// OUTBOUND CALLS
// =============================================================================

// Op identifies an identity API operation issued by the machine.
type Op int

const (
	OpRegister Op = iota
	OpConfirmUser
	OpConfirmMfaEnrollment
	OpLogin
	OpVerifyMfa
	OpRefresh
)

// String returns a human-readable operation name.
func (o Op) String() string {
	switch o {
	case OpRegister:
		return "Register"
	case OpConfirmUser:
		return "ConfirmUser"
	case OpConfirmMfaEnrollment:
		return "ConfirmMfaEnrollment"
	case OpLogin:
		return "Login"
	case OpVerifyMfa:
		return "VerifyMfaChallenge"
	case OpRefresh:
		return "Refresh"
	default:
		return "Unknown"
	}
}

// fallbackMessage is the per-operation error text used when a failure
// carries no server message (transport errors, malformed bodies).
func (o Op) fallbackMessage() string {
	switch o {
	case OpRegister:
		return "Registration failed"
	case OpConfirmUser:
		return "Confirmation failed"
	case OpConfirmMfaEnrollment:
		return "MFA confirmation failed"
	case OpLogin:
		return "Login failed"
	case OpVerifyMfa:
		return "MFA verification failed"
	case OpRefresh:
		return "Token refresh failed"
	default:
		return "Request failed"
	}
}

// Call describes the single outbound identity API call a dispatched
// event requires. The ID ties the eventual Result back to this dispatch;
// a Result whose ID no longer matches the machine's outstanding call is
// discarded.
type Call struct {
	ID     string
	Op     Op
	UserID string

	Register    *identity.RegisterRequest
	ConfirmUser *identity.ConfirmUserRequest
	ConfirmMfa  *identity.ConfirmMfaRequest
	Login       *identity.LoginRequest
	Verify      *identity.VerifyMfaRequest
	Refresh     *identity.RefreshRequest
}

// Result is the resolution of a Call, fed back into the machine. Err is
// nil on success; the payload fields are populated per operation.
type Result struct {
	CallID string
	Op     Op
	Err    error

	UserID              string
	EnrollmentSecretURI string
	VerificationSession string
	Credentials         Credentials
}

// Perform executes a Call against the identity client and packages the
// outcome as a Result. It never panics on a malformed call; unknown
// shapes resolve to a failed Result.
func Perform(ctx context.Context, client *identity.Client, call *Call) Result {
	res := Result{CallID: call.ID, Op: call.Op}

	switch call.Op {
	case OpRegister:
		resp, err := client.Register(ctx, *call.Register)
		if err != nil {
			res.Err = err
			return res
		}
		res.UserID = resp.UserID

	case OpConfirmUser:
		resp, err := client.ConfirmUser(ctx, call.UserID, *call.ConfirmUser)
		if err != nil {
			res.Err = err
			return res
		}
		res.EnrollmentSecretURI = resp.QRCodeSecretURL

	case OpConfirmMfaEnrollment:
		if err := client.ConfirmMfaEnrollment(ctx, call.UserID, *call.ConfirmMfa); err != nil {
			res.Err = err
			return res
		}

	case OpLogin:
		resp, err := client.Login(ctx, *call.Login)
		if err != nil {
			res.Err = err
			return res
		}
		res.VerificationSession = resp.VerificationSession

	case OpVerifyMfa:
		resp, err := client.VerifyMfaChallenge(ctx, *call.Verify)
		if err != nil {
			res.Err = err
			return res
		}
		res.Credentials = Credentials{
			IDToken:      resp.IDToken,
			AccessToken:  resp.AccessToken,
			RefreshToken: resp.RefreshToken,
		}

	case OpRefresh:
		resp, err := client.Refresh(ctx, *call.Refresh)
		if err != nil {
			res.Err = err
			return res
		}
		res.Credentials = Credentials{
			IDToken:      resp.IDToken,
			AccessToken:  resp.AccessToken,
			RefreshToken: resp.RefreshToken,
		}
	}

	return res
}

// errorText extracts the user-facing text for a failed Result: the
// server's message verbatim when one was reported, otherwise the fixed
// per-operation fallback. Transport failures are normalized here.
func errorText(op Op, err error) string {
	if apiErr, ok := identity.AsAPIError(err); ok && apiErr.Message != "" {
		return apiErr.Message
	}
	return op.fallbackMessage()
}
