// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package session

// Event is a user intent dispatched into the state machine. Each event
// is only meaningful in the state its transition table row names; events
// arriving in any other state are ignored.
type Event interface {
	isEvent()
}

// SubmitRegister submits the registration form (Registering).
type SubmitRegister struct {
	FullName string
	Email    string
	Phone    string
}

// SubmitConfirm submits the temporary/new password form (ConfirmingUser).
type SubmitConfirm struct {
	TempPassword string
	NewPassword  string
}

// SubmitEnrollment submits the first OTP code from the freshly enrolled
// authenticator (EnrollingMfa).
type SubmitEnrollment struct {
	OTP string
}

// SubmitLogin submits the email/password form (LoggingIn).
type SubmitLogin struct {
	Email    string
	Password string
}

// SubmitVerify submits the OTP answer to the login challenge
// (VerifyingMfa).
type SubmitVerify struct {
	OTP string
}

// RefreshTokens requests a fresh credential set (Authenticated).
type RefreshTokens struct{}

// Back navigates one step backwards. From Authenticated it behaves as
// Logout. In Registering and LoggingIn there is nowhere to go: no-op.
type Back struct{}

// Logout wipes all session fields and credentials and returns to
// LoggingIn.
type Logout struct{}

// SwitchToLogin moves from the registration form to the login form.
type SwitchToLogin struct{}

// SwitchToRegister moves from the login form to the registration form.
type SwitchToRegister struct{}

func (SubmitRegister) isEvent()   {}
func (SubmitConfirm) isEvent()    {}
func (SubmitEnrollment) isEvent() {}
func (SubmitLogin) isEvent()      {}
func (SubmitVerify) isEvent()     {}
func (RefreshTokens) isEvent()    {}
func (Back) isEvent()             {}
func (Logout) isEvent()           {}
func (SwitchToLogin) isEvent()    {}
func (SwitchToRegister) isEvent() {}
