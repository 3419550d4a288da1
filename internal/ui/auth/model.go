// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package auth

import (
	"time"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/jeranaias/authflow-tui/internal/identity"
	"github.com/jeranaias/authflow-tui/internal/session"
	"github.com/jeranaias/authflow-tui/internal/tasks"
	"github.com/jeranaias/authflow-tui/internal/ui/styles"
)

// =============================================================================
// FIELD INDICES
// =============================================================================

// Per-screen field layout. Each state owns its own input ordering.
const (
	regFieldName = iota
	regFieldEmail
	regFieldPhone
)

const (
	confirmFieldTemp = iota
	confirmFieldNew
)

const (
	loginFieldEmail = iota
	loginFieldPassword
)

// =============================================================================
// AUTH MODEL
// =============================================================================

// Model is the Bubble Tea model for the authentication flow.
type Model struct {
	// Collaborators
	machine *session.Machine
	client  *identity.Client
	tasks   *tasks.Manager

	// Styling
	theme *styles.Theme

	// Dimensions
	width  int
	height int

	// Last committed session snapshot; the single source of truth for
	// rendering. Refreshed after every Dispatch/Resolve.
	snap session.Snapshot

	// Form inputs for the current screen
	inputs []textinput.Model
	focus  int

	// UI components
	spinner spinner.Model
	keyMap  KeyMap

	// Profile panel (Authenticated screen)
	profile    map[string]any
	profileErr string

	// Per-call deadline handed to performCmd
	callTimeout time.Duration

	quitting bool
}

// New creates the auth flow model.
func New(machine *session.Machine, client *identity.Client, mgr *tasks.Manager, theme *styles.Theme, callTimeout time.Duration) Model {
	sp := spinner.New()
	sp.Spinner = spinner.Dot
	sp.Style = theme.Spinner

	m := Model{
		machine:     machine,
		client:      client,
		tasks:       mgr,
		theme:       theme,
		spinner:     sp,
		keyMap:      DefaultKeyMap(),
		callTimeout: callTimeout,
		snap:        machine.Snapshot(),
	}
	m.buildInputs()
	return m
}

// Init implements tea.Model.
func (m Model) Init() tea.Cmd {
	return textinput.Blink
}

// refresh re-reads the machine snapshot, rebuilding the form when the
// screen changed underneath it.
func (m *Model) refresh() {
	prev := m.snap.State
	m.snap = m.machine.Snapshot()
	if m.snap.State != prev {
		if m.snap.State != session.StateAuthenticated {
			m.profile = nil
			m.profileErr = ""
		}
		m.buildInputs()
	}
}

// buildInputs constructs the input fields for the current screen,
// pre-filling what the session already knows.
func (m *Model) buildInputs() {
	m.focus = 0

	switch m.snap.State {
	case session.StateRegistering:
		name := newField("Jane Doe", 0)
		email := newField("jane@example.com", 0)
		phone := newField("+15555550100", 0)
		m.inputs = []textinput.Model{name, email, phone}

	case session.StateConfirmingUser:
		temp := newPasswordField("temporary password")
		newPw := newPasswordField("new password")
		m.inputs = []textinput.Model{temp, newPw}

	case session.StateEnrollingMfa, session.StateVerifyingMfa:
		otp := newField("123456", 6)
		m.inputs = []textinput.Model{otp}

	case session.StateLoggingIn:
		email := newField("jane@example.com", 0)
		email.SetValue(m.snap.Email)
		password := newPasswordField("password")
		password.SetValue(m.snap.PendingPassword)
		m.inputs = []textinput.Model{email, password}

	default:
		m.inputs = nil
	}

	if len(m.inputs) > 0 {
		m.inputs[0].Focus()
	}
}

func newField(placeholder string, charLimit int) textinput.Model {
	in := textinput.New()
	in.Placeholder = placeholder
	in.Prompt = "> "
	in.Width = 40
	if charLimit > 0 {
		in.CharLimit = charLimit
	}
	return in
}

func newPasswordField(placeholder string) textinput.Model {
	in := newField(placeholder, 0)
	in.EchoMode = textinput.EchoPassword
	in.EchoCharacter = '*'
	return in
}

// setFocus moves focus to the given field index.
func (m *Model) setFocus(idx int) {
	if len(m.inputs) == 0 {
		return
	}
	if idx < 0 {
		idx = len(m.inputs) - 1
	}
	if idx >= len(m.inputs) {
		idx = 0
	}
	for i := range m.inputs {
		if i == idx {
			m.inputs[i].Focus()
		} else {
			m.inputs[i].Blur()
		}
	}
	m.focus = idx
}

// fieldValue returns the trimmed-free raw value of a field, guarding
// against screens with fewer inputs than expected.
func (m *Model) fieldValue(idx int) string {
	if idx < 0 || idx >= len(m.inputs) {
		return ""
	}
	return m.inputs[idx].Value()
}
