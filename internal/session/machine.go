// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package session

import (
	"errors"
	"sync"

	"github.com/google/uuid"

	"github.com/jeranaias/authflow-tui/internal/identity"
)

// ErrBusy is returned when a Submit event arrives while an identity API
// call is already outstanding for the current state. The event is
// dropped, not queued.
var ErrBusy = errors.New("a request is already in flight")

// sessionExpiredText is the generic message surfaced when a Submit event
// is missing a session-scoped precondition (lost user ID, lost
// verification session). The machine also rewinds to the nearest state
// that can regenerate the missing field.
const sessionExpiredText = "Session expired, please start over"

// Success banner texts, one per operation.
const (
	msgRegistered   = "User registered successfully! Check your email for the temporary password."
	msgConfirmed    = "User confirmed! Set up MFA with the enrollment secret below."
	msgMfaEnrolled  = "MFA confirmed successfully! You can now log in."
	msgChallenge    = "Enter the MFA code from your authenticator app"
	msgLoggedIn     = "Login successful!"
	msgRefreshed    = "Tokens refreshed successfully!"
	msgFieldsNeeded = "All fields are required"
)

// Notification is emitted to listeners on every committed transition.
type Notification struct {
	State    State
	Message  Message
	Snapshot Snapshot
}

// Listener observes committed transitions. Listeners must not call back
// into the machine synchronously.
type Listener func(Notification)

// UserInfoFetch instructs the caller to start the best-effort background
// profile fetch that follows entry into Authenticated. It is outside the
// busy guard: its outcome can never influence the state machine.
type UserInfoFetch struct {
	IDToken string
}

// Machine is the authentication session state machine. All fields are
// guarded by mu; every mutation happens inside a single locked reducer
// step, so observers only ever see fully applied transitions.
type Machine struct {
	mu sync.Mutex

	state State

	userID   string
	email    string
	fullName string

	verificationSession string
	enrollmentSecretURI string

	// pendingPassword pre-fills the login form after confirmation;
	// stagedPassword holds the candidate between dispatch and resolve.
	pendingPassword string
	stagedPassword  string

	tokens TokenStore

	message Message

	// busy guard: inFlight carries the ID of the one outstanding call.
	busy     bool
	inFlight string

	listeners []Listener
}

// New creates a machine in the Registering state.
func New() *Machine {
	return &Machine{state: StateRegistering}
}

// Subscribe registers a transition listener.
func (m *Machine) Subscribe(l Listener) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.listeners = append(m.listeners, l)
}

// State returns the current lifecycle state.
func (m *Machine) State() State {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state
}

// Tokens returns a snapshot of the current credential triple.
func (m *Machine) Tokens() Credentials {
	return m.tokens.Snapshot()
}

// Snapshot returns an immutable copy of the whole session.
func (m *Machine) Snapshot() Snapshot {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.snapshotLocked()
}

func (m *Machine) snapshotLocked() Snapshot {
	return Snapshot{
		State:               m.state,
		UserID:              m.userID,
		Email:               m.email,
		FullName:            m.fullName,
		VerificationSession: m.verificationSession,
		EnrollmentSecretURI: m.enrollmentSecretURI,
		PendingPassword:     m.pendingPassword,
		Credentials:         m.tokens.Snapshot(),
		Message:             m.message,
		Busy:                m.busy,
	}
}

// =============================================================================
// EVENT DISPATCH
// =============================================================================

// Dispatch applies a user intent. It returns the at-most-one outbound
// identity call the event requires; the caller performs the call and
// feeds the Result back through Resolve. Submit events dispatched while
// a call is outstanding return ErrBusy and change nothing.
func (m *Machine) Dispatch(ev Event) (*Call, error) {
	m.mu.Lock()
	call, n, err := m.dispatchLocked(ev)
	m.mu.Unlock()

	if n != nil {
		m.emit(*n)
	}
	return call, err
}

func (m *Machine) dispatchLocked(ev Event) (*Call, *Notification, error) {
	switch ev := ev.(type) {
	case SubmitRegister:
		return m.submitRegister(ev)
	case SubmitConfirm:
		return m.submitConfirm(ev)
	case SubmitEnrollment:
		return m.submitEnrollment(ev)
	case SubmitLogin:
		return m.submitLogin(ev)
	case SubmitVerify:
		return m.submitVerify(ev)
	case RefreshTokens:
		return m.refreshTokens()
	case Back:
		return nil, m.back(), nil
	case Logout:
		if m.state != StateAuthenticated {
			return nil, nil, nil
		}
		return nil, m.logoutLocked(), nil
	case SwitchToLogin:
		if m.state != StateRegistering {
			return nil, nil, nil
		}
		m.abortInFlight()
		m.message = Message{}
		m.state = StateLoggingIn
		return nil, m.notification(), nil
	case SwitchToRegister:
		if m.state != StateLoggingIn {
			return nil, nil, nil
		}
		m.abortInFlight()
		m.message = Message{}
		m.state = StateRegistering
		return nil, m.notification(), nil
	}
	return nil, nil, nil
}

func (m *Machine) submitRegister(ev SubmitRegister) (*Call, *Notification, error) {
	if m.state != StateRegistering {
		return nil, nil, nil
	}
	if m.busy {
		return nil, nil, ErrBusy
	}
	if ev.FullName == "" || ev.Email == "" || ev.Phone == "" {
		m.message = errorMsg(msgFieldsNeeded)
		return nil, m.notification(), nil
	}

	m.fullName = ev.FullName
	m.email = ev.Email
	m.message = Message{}

	call := &Call{
		ID: uuid.New().String(),
		Op: OpRegister,
		Register: &identity.RegisterRequest{
			FullName:          ev.FullName,
			Email:             ev.Email,
			MobilePhoneNumber: ev.Phone,
		},
	}
	m.markBusy(call.ID)
	return call, nil, nil
}

func (m *Machine) submitConfirm(ev SubmitConfirm) (*Call, *Notification, error) {
	if m.state != StateConfirmingUser {
		return nil, nil, nil
	}
	if m.busy {
		return nil, nil, ErrBusy
	}
	if m.userID == "" {
		// Lost precondition: rewind to the state that can regenerate it.
		m.message = errorMsg(sessionExpiredText)
		m.state = StateRegistering
		return nil, m.notification(), nil
	}
	if ev.TempPassword == "" || ev.NewPassword == "" {
		m.message = errorMsg(msgFieldsNeeded)
		return nil, m.notification(), nil
	}

	m.stagedPassword = ev.NewPassword
	m.message = Message{}

	call := &Call{
		ID:     uuid.New().String(),
		Op:     OpConfirmUser,
		UserID: m.userID,
		ConfirmUser: &identity.ConfirmUserRequest{
			Email:             m.email,
			TemporaryPassword: ev.TempPassword,
			NewPassword:       ev.NewPassword,
		},
	}
	m.markBusy(call.ID)
	return call, nil, nil
}

func (m *Machine) submitEnrollment(ev SubmitEnrollment) (*Call, *Notification, error) {
	if m.state != StateEnrollingMfa {
		return nil, nil, nil
	}
	if m.busy {
		return nil, nil, ErrBusy
	}
	if m.userID == "" {
		m.message = errorMsg(sessionExpiredText)
		m.state = StateRegistering
		return nil, m.notification(), nil
	}
	if ev.OTP == "" {
		m.message = errorMsg(msgFieldsNeeded)
		return nil, m.notification(), nil
	}

	m.message = Message{}

	call := &Call{
		ID:     uuid.New().String(),
		Op:     OpConfirmMfaEnrollment,
		UserID: m.userID,
		ConfirmMfa: &identity.ConfirmMfaRequest{
			Email: m.email,
			OTP:   ev.OTP,
		},
	}
	m.markBusy(call.ID)
	return call, nil, nil
}

func (m *Machine) submitLogin(ev SubmitLogin) (*Call, *Notification, error) {
	if m.state != StateLoggingIn {
		return nil, nil, nil
	}
	if m.busy {
		return nil, nil, ErrBusy
	}
	if ev.Email == "" || ev.Password == "" {
		m.message = errorMsg(msgFieldsNeeded)
		return nil, m.notification(), nil
	}

	m.email = ev.Email
	m.message = Message{}

	call := &Call{
		ID: uuid.New().String(),
		Op: OpLogin,
		Login: &identity.LoginRequest{
			Email:    ev.Email,
			Password: ev.Password,
		},
	}
	m.markBusy(call.ID)
	return call, nil, nil
}

func (m *Machine) submitVerify(ev SubmitVerify) (*Call, *Notification, error) {
	if m.state != StateVerifyingMfa {
		return nil, nil, nil
	}
	if m.busy {
		return nil, nil, ErrBusy
	}
	if m.verificationSession == "" {
		m.message = errorMsg(sessionExpiredText)
		m.state = StateLoggingIn
		return nil, m.notification(), nil
	}
	if ev.OTP == "" {
		m.message = errorMsg(msgFieldsNeeded)
		return nil, m.notification(), nil
	}

	m.message = Message{}

	call := &Call{
		ID: uuid.New().String(),
		Op: OpVerifyMfa,
		Verify: &identity.VerifyMfaRequest{
			Email:               m.email,
			VerificationType:    identity.VerificationTypeSoftwareToken,
			VerificationSession: m.verificationSession,
			OTPCode:             ev.OTP,
		},
	}
	m.markBusy(call.ID)
	return call, nil, nil
}

func (m *Machine) refreshTokens() (*Call, *Notification, error) {
	if m.state != StateAuthenticated {
		return nil, nil, nil
	}
	if m.busy {
		return nil, nil, ErrBusy
	}
	creds := m.tokens.Snapshot()
	if creds.RefreshToken == "" {
		// Nothing can regenerate a refresh token except a full login.
		n := m.logoutLocked()
		m.message = errorMsg(sessionExpiredText)
		n.Message = m.message
		n.Snapshot = m.snapshotLocked()
		return nil, n, nil
	}

	m.message = Message{}

	call := &Call{
		ID: uuid.New().String(),
		Op: OpRefresh,
		Refresh: &identity.RefreshRequest{
			Email:        m.email,
			RefreshToken: creds.RefreshToken,
		},
	}
	m.markBusy(call.ID)
	return call, nil, nil
}

// back applies the per-state backward navigation, clearing the fields
// the abandoned state owned. Returns nil when there is nowhere to go.
func (m *Machine) back() *Notification {
	switch m.state {
	case StateConfirmingUser:
		m.abortInFlight()
		m.message = Message{}
		m.userID = ""
		m.state = StateRegistering
	case StateEnrollingMfa:
		m.abortInFlight()
		m.message = Message{}
		m.enrollmentSecretURI = ""
		m.state = StateConfirmingUser
	case StateVerifyingMfa:
		m.abortInFlight()
		m.message = Message{}
		m.verificationSession = ""
		m.state = StateLoggingIn
	case StateAuthenticated:
		return m.logoutLocked()
	default:
		// Registering and LoggingIn have no backward edge: no-op,
		// nothing changes and nothing is emitted.
		return nil
	}
	return m.notification()
}

// logoutLocked wipes every session-scoped field and all credentials.
func (m *Machine) logoutLocked() *Notification {
	m.abortInFlight()
	m.tokens.Clear()
	m.userID = ""
	m.email = ""
	m.fullName = ""
	m.verificationSession = ""
	m.enrollmentSecretURI = ""
	m.pendingPassword = ""
	m.stagedPassword = ""
	m.message = Message{}
	m.state = StateLoggingIn
	return m.notification()
}

// =============================================================================
// CALL RESOLUTION
// =============================================================================

// Resolve applies the outcome of a previously dispatched call. Results
// for calls that are no longer outstanding - the originating state was
// abandoned via Back/Logout - are discarded without touching the
// session. The returned UserInfoFetch is non-nil exactly when the
// session entered (or re-confirmed) Authenticated, instructing the
// caller to start the detached profile fetch.
func (m *Machine) Resolve(res Result) *UserInfoFetch {
	m.mu.Lock()
	fetch, n := m.resolveLocked(res)
	m.mu.Unlock()

	if n != nil {
		m.emit(*n)
	}
	return fetch
}

func (m *Machine) resolveLocked(res Result) (*UserInfoFetch, *Notification) {
	if res.CallID == "" || res.CallID != m.inFlight {
		// Stale response for an abandoned call: discard silently.
		return nil, nil
	}
	m.busy = false
	m.inFlight = ""

	if res.Err != nil {
		// Stay in the current state; surface the server's message
		// verbatim, or the per-operation fallback for transport errors.
		m.stagedPassword = ""
		m.message = errorMsg(errorText(res.Op, res.Err))
		return nil, m.notification()
	}

	switch res.Op {
	case OpRegister:
		m.userID = res.UserID
		m.state = StateConfirmingUser
		m.message = successMsg(msgRegistered)

	case OpConfirmUser:
		m.enrollmentSecretURI = res.EnrollmentSecretURI
		m.pendingPassword = m.stagedPassword
		m.stagedPassword = ""
		m.state = StateEnrollingMfa
		m.message = successMsg(msgConfirmed)

	case OpConfirmMfaEnrollment:
		m.enrollmentSecretURI = ""
		m.state = StateLoggingIn
		m.message = successMsg(msgMfaEnrolled)

	case OpLogin:
		m.verificationSession = res.VerificationSession
		m.state = StateVerifyingMfa
		m.message = successMsg(msgChallenge)

	case OpVerifyMfa:
		// Credential triple is replaced as one unit; no observer can
		// see a partial set.
		m.tokens.Replace(res.Credentials)
		m.verificationSession = ""
		m.state = StateAuthenticated
		m.message = successMsg(msgLoggedIn)
		return &UserInfoFetch{IDToken: res.Credentials.IDToken}, m.notification()

	case OpRefresh:
		m.tokens.Replace(res.Credentials)
		m.message = successMsg(msgRefreshed)
		return &UserInfoFetch{IDToken: res.Credentials.IDToken}, m.notification()
	}

	return nil, m.notification()
}

// =============================================================================
// INTERNALS
// =============================================================================

func (m *Machine) markBusy(callID string) {
	m.busy = true
	m.inFlight = callID
}

// abortInFlight invalidates the outstanding call so its eventual result
// is discarded by Resolve.
func (m *Machine) abortInFlight() {
	m.busy = false
	m.inFlight = ""
}

func (m *Machine) notification() *Notification {
	return &Notification{
		State:    m.state,
		Message:  m.message,
		Snapshot: m.snapshotLocked(),
	}
}

// emit invokes listeners outside the state lock.
func (m *Machine) emit(n Notification) {
	m.mu.Lock()
	listeners := make([]Listener, len(m.listeners))
	copy(listeners, m.listeners)
	m.mu.Unlock()

	for _, l := range listeners {
		l(n)
	}
}
