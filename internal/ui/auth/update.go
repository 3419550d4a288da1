// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package auth

import (
	"errors"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/jeranaias/authflow-tui/internal/session"
)

// =============================================================================
// UPDATE LOOP
// =============================================================================

// Update implements tea.Model.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.theme.SetSize(msg.Width, msg.Height)
		return m, nil

	case spinner.TickMsg:
		if !m.snap.Busy {
			return m, nil
		}
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd

	case CallResultMsg:
		fetch := m.machine.Resolve(msg.Result)
		m.refresh()
		if fetch != nil {
			return m, fetchProfileCmd(m.tasks, m.client, fetch.IDToken)
		}
		return m, nil

	case ProfileMsg:
		// The session may have moved on while the fetch ran; the panel
		// only exists on the Authenticated screen.
		if m.snap.State == session.StateAuthenticated {
			if msg.Err != nil {
				m.profileErr = "Profile unavailable"
			} else {
				m.profile = msg.Info
				m.profileErr = ""
			}
		}
		return m, nil

	case tea.KeyMsg:
		return m.handleKey(msg)
	}

	return m.updateFocusedInput(msg)
}

// handleKey routes a key press to navigation, submission, or the
// focused input field.
func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keyMap.Quit):
		m.quitting = true
		m.tasks.CancelAll()
		return m, tea.Quit

	case key.Matches(msg, m.keyMap.Submit):
		return m.submit()

	case key.Matches(msg, m.keyMap.Back):
		return m.dispatch(session.Back{})

	case key.Matches(msg, m.keyMap.Switch):
		switch m.snap.State {
		case session.StateRegistering:
			return m.dispatch(session.SwitchToLogin{})
		case session.StateLoggingIn:
			return m.dispatch(session.SwitchToRegister{})
		}
		return m, nil

	case key.Matches(msg, m.keyMap.Refresh):
		if m.snap.State == session.StateAuthenticated {
			return m.dispatch(session.RefreshTokens{})
		}
		return m, nil

	case key.Matches(msg, m.keyMap.Logout):
		if m.snap.State == session.StateAuthenticated {
			return m.dispatch(session.Logout{})
		}
		return m, nil

	case key.Matches(msg, m.keyMap.NextField):
		m.setFocus(m.focus + 1)
		return m, nil

	case key.Matches(msg, m.keyMap.PrevField):
		m.setFocus(m.focus - 1)
		return m, nil
	}

	return m.updateFocusedInput(msg)
}

// submit turns the current form into a session event and dispatches it.
func (m Model) submit() (tea.Model, tea.Cmd) {
	var ev session.Event

	switch m.snap.State {
	case session.StateRegistering:
		ev = session.SubmitRegister{
			FullName: strings.TrimSpace(m.fieldValue(regFieldName)),
			Email:    strings.TrimSpace(m.fieldValue(regFieldEmail)),
			Phone:    strings.TrimSpace(m.fieldValue(regFieldPhone)),
		}

	case session.StateConfirmingUser:
		ev = session.SubmitConfirm{
			TempPassword: m.fieldValue(confirmFieldTemp),
			NewPassword:  m.fieldValue(confirmFieldNew),
		}

	case session.StateEnrollingMfa:
		ev = session.SubmitEnrollment{OTP: strings.TrimSpace(m.fieldValue(0))}

	case session.StateLoggingIn:
		ev = session.SubmitLogin{
			Email:    strings.TrimSpace(m.fieldValue(loginFieldEmail)),
			Password: m.fieldValue(loginFieldPassword),
		}

	case session.StateVerifyingMfa:
		ev = session.SubmitVerify{OTP: strings.TrimSpace(m.fieldValue(0))}

	default:
		return m, nil
	}

	return m.dispatch(ev)
}

// dispatch feeds an event into the machine and, when it produced an
// outbound call, starts the command that performs it.
func (m Model) dispatch(ev session.Event) (tea.Model, tea.Cmd) {
	call, err := m.machine.Dispatch(ev)
	if errors.Is(err, session.ErrBusy) {
		// A call is outstanding; the submit is dropped, not queued.
		return m, nil
	}

	m.refresh()

	if call != nil {
		return m, tea.Batch(
			performCmd(m.client, call, m.callTimeout),
			m.spinner.Tick,
		)
	}
	return m, nil
}

// updateFocusedInput forwards a message to the focused form field.
func (m Model) updateFocusedInput(msg tea.Msg) (tea.Model, tea.Cmd) {
	if m.focus < 0 || m.focus >= len(m.inputs) {
		return m, nil
	}
	var cmd tea.Cmd
	m.inputs[m.focus], cmd = m.inputs[m.focus].Update(msg)
	return m, cmd
}
