// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package session

import "sync"

// =============================================================================
// STATES
// =============================================================================

// State identifies where in the identity lifecycle a session is.
type State int

const (
	// StateRegistering is the initial state: collecting account details.
	StateRegistering State = iota

	// StateConfirmingUser exchanges the emailed temporary password for a
	// permanent one.
	StateConfirmingUser

	// StateEnrollingMfa enrolls an authenticator app with the
	// provisioning secret issued at confirmation.
	StateEnrollingMfa

	// StateLoggingIn collects email and password for a returning user.
	StateLoggingIn

	// StateVerifyingMfa answers the OTP challenge issued by login.
	StateVerifyingMfa

	// StateAuthenticated holds a live credential set.
	StateAuthenticated
)

// String returns a human-readable state name.
func (s State) String() string {
	switch s {
	case StateRegistering:
		return "Registering"
	case StateConfirmingUser:
		return "ConfirmingUser"
	case StateEnrollingMfa:
		return "EnrollingMfa"
	case StateLoggingIn:
		return "LoggingIn"
	case StateVerifyingMfa:
		return "VerifyingMfa"
	case StateAuthenticated:
		return "Authenticated"
	default:
		return "Unknown"
	}
}

// =============================================================================
// CREDENTIALS AND TOKEN STORE
// =============================================================================

// Credentials is the bearer token triple issued on successful MFA
// verification or refresh. The three tokens are only ever valid as a
// unit: either all are set or none are.
type Credentials struct {
	IDToken      string
	AccessToken  string
	RefreshToken string
}

// Present reports whether a complete credential set is held.
func (c Credentials) Present() bool {
	return c.IDToken != "" && c.AccessToken != "" && c.RefreshToken != ""
}

// Empty reports whether no credential material is held at all.
func (c Credentials) Empty() bool {
	return c.IDToken == "" && c.AccessToken == "" && c.RefreshToken == ""
}

// TokenStore holds the credential triple for a session. The machine is
// the only writer; readers get snapshot copies and can never observe a
// torn update.
type TokenStore struct {
	mu    sync.RWMutex
	creds Credentials
}

// Replace swaps in a complete credential set atomically.
func (ts *TokenStore) Replace(c Credentials) {
	ts.mu.Lock()
	defer ts.mu.Unlock()
	ts.creds = c
}

// Clear wipes all credential material.
func (ts *TokenStore) Clear() {
	ts.mu.Lock()
	defer ts.mu.Unlock()
	ts.creds = Credentials{}
}

// Snapshot returns a copy of the current credential triple.
func (ts *TokenStore) Snapshot() Credentials {
	ts.mu.RLock()
	defer ts.mu.RUnlock()
	return ts.creds
}

// =============================================================================
// MESSAGES AND SNAPSHOTS
// =============================================================================

// MessageKind distinguishes success from error banners.
type MessageKind int

const (
	MessageNone MessageKind = iota
	MessageSuccess
	MessageError
)

// Message is the single user-facing line produced by a transition.
// Exactly one of success/error is present after each submit; navigation
// clears it.
type Message struct {
	Kind MessageKind
	Text string
}

// successMsg builds a success message.
func successMsg(text string) Message {
	return Message{Kind: MessageSuccess, Text: text}
}

// errorMsg builds an error message.
func errorMsg(text string) Message {
	return Message{Kind: MessageError, Text: text}
}

// Snapshot is an immutable copy of the session handed to observers on
// every transition. Observers never mutate session fields directly; all
// mutation flows through Dispatch/Resolve.
type Snapshot struct {
	State State

	UserID   string
	Email    string
	FullName string

	// VerificationSession is the opaque login challenge handle; set
	// between Login success and VerifyMfaChallenge resolution.
	VerificationSession string

	// EnrollmentSecretURI is the otpauth:// provisioning payload shown
	// during MFA enrollment.
	EnrollmentSecretURI string

	// PendingPassword is the password chosen at confirmation, carried
	// forward to pre-fill the login form.
	PendingPassword string

	Credentials Credentials
	Message     Message
	Busy        bool
}
