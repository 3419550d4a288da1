// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package auth

import (
	"strings"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/jeranaias/authflow-tui/internal/identity"
	"github.com/jeranaias/authflow-tui/internal/session"
	"github.com/jeranaias/authflow-tui/internal/tasks"
	"github.com/jeranaias/authflow-tui/internal/ui/styles"
)

func newTestModel(t *testing.T) Model {
	t.Helper()
	machine := session.New()
	client := identity.NewClient("http://127.0.0.1:1", "test-key")
	mgr := tasks.NewManager()
	t.Cleanup(mgr.Stop)
	return New(machine, client, mgr, styles.NewTheme("dark"), 5*time.Second)
}

func pressKey(m Model, key tea.KeyMsg) Model {
	updated, _ := m.Update(key)
	return updated.(Model)
}

func TestNewModelStartsOnRegistration(t *testing.T) {
	m := newTestModel(t)

	if m.snap.State != session.StateRegistering {
		t.Fatalf("expected Registering, got %s", m.snap.State)
	}
	if len(m.inputs) != 3 {
		t.Errorf("registration form should have 3 fields, got %d", len(m.inputs))
	}
	if m.focus != 0 {
		t.Errorf("first field should be focused, got %d", m.focus)
	}
}

func TestEmptySubmitShowsFieldError(t *testing.T) {
	m := newTestModel(t)

	m = pressKey(m, tea.KeyMsg{Type: tea.KeyEnter})

	if m.snap.Message.Kind != session.MessageError {
		t.Fatal("empty submit should produce an error banner")
	}
	if !strings.Contains(m.View(), "All fields are required") {
		t.Error("view should show the field error")
	}
}

func TestTabCyclesFocus(t *testing.T) {
	m := newTestModel(t)

	m = pressKey(m, tea.KeyMsg{Type: tea.KeyTab})
	if m.focus != 1 {
		t.Errorf("expected focus 1 after tab, got %d", m.focus)
	}

	m = pressKey(m, tea.KeyMsg{Type: tea.KeyTab})
	m = pressKey(m, tea.KeyMsg{Type: tea.KeyTab})
	if m.focus != 0 {
		t.Errorf("focus should wrap to 0, got %d", m.focus)
	}
}

func TestSwitchBetweenRegisterAndLogin(t *testing.T) {
	m := newTestModel(t)

	m = pressKey(m, tea.KeyMsg{Type: tea.KeyCtrlS})
	if m.snap.State != session.StateLoggingIn {
		t.Fatalf("expected LoggingIn after Ctrl+S, got %s", m.snap.State)
	}
	if len(m.inputs) != 2 {
		t.Errorf("login form should have 2 fields, got %d", len(m.inputs))
	}

	m = pressKey(m, tea.KeyMsg{Type: tea.KeyCtrlS})
	if m.snap.State != session.StateRegistering {
		t.Errorf("expected Registering after second Ctrl+S, got %s", m.snap.State)
	}
}

func TestCallResultAdvancesScreen(t *testing.T) {
	m := newTestModel(t)

	call, err := m.machine.Dispatch(session.SubmitRegister{
		FullName: "Ada Lovelace",
		Email:    "ada@example.com",
		Phone:    "+15555550100",
	})
	if err != nil || call == nil {
		t.Fatalf("dispatch failed: call=%v err=%v", call, err)
	}
	m.refresh()
	if !m.snap.Busy {
		t.Fatal("model should be busy while the call is outstanding")
	}

	updated, _ := m.Update(CallResultMsg{Result: session.Result{
		CallID: call.ID,
		Op:     session.OpRegister,
		UserID: "u-1",
	}})
	m = updated.(Model)

	if m.snap.State != session.StateConfirmingUser {
		t.Fatalf("expected ConfirmingUser, got %s", m.snap.State)
	}
	if len(m.inputs) != 2 {
		t.Errorf("confirmation form should have 2 fields, got %d", len(m.inputs))
	}
	if !strings.Contains(m.View(), "registered successfully") {
		t.Error("view should show the success banner")
	}
}

func TestVerifySuccessStartsProfileFetch(t *testing.T) {
	m := newTestModel(t)
	m.machine.Dispatch(session.SwitchToLogin{})
	m.refresh()

	call, _ := m.machine.Dispatch(session.SubmitLogin{Email: "ada@example.com", Password: "pw"})
	m.refresh()
	updated, _ := m.Update(CallResultMsg{Result: session.Result{
		CallID:              call.ID,
		Op:                  session.OpLogin,
		VerificationSession: "vs-1",
	}})
	m = updated.(Model)

	call, _ = m.machine.Dispatch(session.SubmitVerify{OTP: "123456"})
	m.refresh()
	updated, cmd := m.Update(CallResultMsg{Result: session.Result{
		CallID: call.ID,
		Op:     session.OpVerifyMfa,
		Credentials: session.Credentials{
			IDToken: "id-1", AccessToken: "ac-1", RefreshToken: "rf-1",
		},
	}})
	m = updated.(Model)

	if m.snap.State != session.StateAuthenticated {
		t.Fatalf("expected Authenticated, got %s", m.snap.State)
	}
	if cmd == nil {
		t.Error("entering Authenticated should start the profile fetch command")
	}
}

func TestProfileMsgPopulatesPanel(t *testing.T) {
	m := newTestModel(t)
	m.snap.State = session.StateAuthenticated

	updated, _ := m.Update(ProfileMsg{Info: map[string]any{"email": "ada@example.com"}})
	m = updated.(Model)

	if m.profile == nil {
		t.Fatal("profile should be populated")
	}
	if m.profile["email"] != "ada@example.com" {
		t.Errorf("unexpected profile contents: %v", m.profile)
	}
}

func TestEnrollmentScreenShowsDecodedSecret(t *testing.T) {
	m := newTestModel(t)

	call, _ := m.machine.Dispatch(session.SubmitRegister{
		FullName: "Ada Lovelace", Email: "ada@example.com", Phone: "+1",
	})
	m.refresh()
	updated, _ := m.Update(CallResultMsg{Result: session.Result{
		CallID: call.ID, Op: session.OpRegister, UserID: "u-1",
	}})
	m = updated.(Model)

	call, _ = m.machine.Dispatch(session.SubmitConfirm{TempPassword: "t", NewPassword: "n"})
	m.refresh()
	updated, _ = m.Update(CallResultMsg{Result: session.Result{
		CallID:              call.ID,
		Op:                  session.OpConfirmUser,
		EnrollmentSecretURI: "otpauth://totp/authflow:ada@example.com?secret=JBSWY3DPEHPK3PXP&issuer=authflow",
	}})
	m = updated.(Model)

	view := m.View()
	if !strings.Contains(view, "JBSWY3DPEHPK3PXP") {
		t.Error("enrollment view should show the decoded secret")
	}
	if !strings.Contains(view, "authflow") {
		t.Error("enrollment view should show the issuer")
	}
}
