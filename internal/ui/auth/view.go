// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package auth

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/pquerna/otp"

	"github.com/jeranaias/authflow-tui/internal/session"
	"github.com/jeranaias/authflow-tui/internal/ui/styles"
	"github.com/jeranaias/authflow-tui/internal/util"
)

// =============================================================================
// VIEW
// =============================================================================

// View implements tea.Model.
func (m Model) View() string {
	if m.quitting {
		return ""
	}

	var b strings.Builder

	b.WriteString(m.viewHeader())
	b.WriteString("\n\n")

	switch m.snap.State {
	case session.StateRegistering:
		b.WriteString(m.viewForm("Create account", []string{"Full name", "Email", "Mobile phone"}))
	case session.StateConfirmingUser:
		b.WriteString(m.viewForm("Confirm account", []string{"Temporary password", "New password"}))
	case session.StateEnrollingMfa:
		b.WriteString(m.viewEnrollment())
	case session.StateLoggingIn:
		b.WriteString(m.viewForm("Log in", []string{"Email", "Password"}))
	case session.StateVerifyingMfa:
		b.WriteString(m.viewForm("Verify MFA", []string{"OTP code"}))
	case session.StateAuthenticated:
		b.WriteString(m.viewAuthenticated())
	}

	b.WriteString("\n")
	b.WriteString(m.viewBanner())
	b.WriteString("\n")
	b.WriteString(m.viewStatusBar())

	return m.theme.Container.Render(b.String())
}

// viewHeader renders the application header.
func (m Model) viewHeader() string {
	title := m.theme.HeaderTitle.Render("authflow")
	subtitle := m.theme.HeaderSubtitle.Render(m.snap.State.String())
	return m.theme.Header.Render(title + "  " + subtitle)
}

// viewForm renders a labeled input form for the current screen.
func (m Model) viewForm(title string, labels []string) string {
	var b strings.Builder

	b.WriteString(m.theme.FormTitle.Render(title))
	b.WriteString("\n\n")

	for i, label := range labels {
		if i >= len(m.inputs) {
			break
		}
		rendered := m.theme.FieldLabel.Render(label)
		if i == m.focus {
			rendered = m.theme.FieldFocused.Render(fmt.Sprintf("%-20s", label))
		}
		b.WriteString(rendered)
		b.WriteString(m.inputs[i].View())
		b.WriteString("\n")
	}

	switch m.snap.State {
	case session.StateRegistering:
		b.WriteString("\n")
		b.WriteString(m.theme.FieldHint.Render("Already registered? Press Ctrl+S to log in."))
	case session.StateLoggingIn:
		b.WriteString("\n")
		b.WriteString(m.theme.FieldHint.Render("New here? Press Ctrl+S to create an account."))
	case session.StateConfirmingUser:
		b.WriteString("\n")
		b.WriteString(m.theme.FieldHint.Render("Use the temporary password emailed to " + m.snap.Email + "."))
	}

	return m.theme.FormBox.Render(b.String())
}

// viewEnrollment renders the MFA enrollment screen: the provisioning
// secret plus the OTP confirmation field.
func (m Model) viewEnrollment() string {
	var b strings.Builder

	b.WriteString(m.theme.FormTitle.Render("Enroll authenticator"))
	b.WriteString("\n\n")
	b.WriteString(m.viewProvisioningSecret())
	b.WriteString("\n\n")
	b.WriteString(m.theme.FieldLabel.Render("OTP code"))
	if len(m.inputs) > 0 {
		b.WriteString(m.inputs[0].View())
	}
	b.WriteString("\n\n")
	b.WriteString(m.theme.FieldHint.Render("Add the secret to your authenticator app, then enter the current code."))

	return m.theme.FormBox.Render(b.String())
}

// viewProvisioningSecret decodes the otpauth:// URI into its parts so
// the user can enroll by manual entry. Falls back to showing the raw
// URI when it does not parse.
func (m Model) viewProvisioningSecret() string {
	uri := m.snap.EnrollmentSecretURI
	if uri == "" {
		return m.theme.FieldHint.Render("No provisioning secret available.")
	}

	key, err := otp.NewKeyFromURL(uri)
	if err != nil {
		return m.theme.SecretBox.Render(
			m.theme.SecretLabel.Render("Provisioning URI") + "\n" +
				m.theme.SecretValue.Render(uri),
		)
	}

	var b strings.Builder
	b.WriteString(m.theme.SecretLabel.Render("Issuer   "))
	b.WriteString(m.theme.SecretValue.Render(key.Issuer()))
	b.WriteString("\n")
	b.WriteString(m.theme.SecretLabel.Render("Account  "))
	b.WriteString(m.theme.SecretValue.Render(key.AccountName()))
	b.WriteString("\n")
	b.WriteString(m.theme.SecretLabel.Render("Secret   "))
	b.WriteString(m.theme.SecretValue.Render(key.Secret()))

	return m.theme.SecretBox.Render(b.String())
}

// viewAuthenticated renders the signed-in screen: abbreviated tokens
// and the background-fetched profile.
func (m Model) viewAuthenticated() string {
	var b strings.Builder

	b.WriteString(m.theme.FormTitle.Render("Signed in"))
	b.WriteString("\n\n")

	creds := m.snap.Credentials
	rows := []struct{ label, value string }{
		{"ID token", util.Preview(creds.IDToken, 16)},
		{"Access token", util.Preview(creds.AccessToken, 16)},
		{"Refresh token", util.Preview(creds.RefreshToken, 16)},
	}
	for _, row := range rows {
		b.WriteString(m.theme.TokenLabel.Render(row.label))
		b.WriteString(m.theme.TokenValue.Render(row.value))
		b.WriteString("\n")
	}

	b.WriteString("\n")
	b.WriteString(m.viewProfile())
	b.WriteString("\n\n")
	b.WriteString(m.theme.FieldHint.Render("Ctrl+R refreshes tokens. Ctrl+L or Esc logs out."))

	return m.theme.FormBox.Render(b.String())
}

// viewProfile renders the userinfo panel.
func (m Model) viewProfile() string {
	switch {
	case m.profileErr != "":
		return m.theme.FieldHint.Render(m.profileErr)
	case m.profile == nil:
		return m.theme.FieldHint.Render("Loading profile...")
	}

	pretty, err := json.MarshalIndent(m.profile, "", "  ")
	if err != nil {
		return m.theme.FieldHint.Render("Profile unavailable")
	}
	return m.theme.SecretLabel.Render("Profile") + "\n" + m.theme.TokenValue.Render(string(pretty))
}

// viewBanner renders the one-line outcome banner, or the in-flight
// spinner while a call is outstanding.
func (m Model) viewBanner() string {
	if m.snap.Busy {
		return m.spinner.View() + m.theme.BusyText.Render(" Contacting identity service...")
	}

	switch m.snap.Message.Kind {
	case session.MessageSuccess:
		return styles.RenderSuccess(m.snap.Message.Text)
	case session.MessageError:
		return styles.RenderError(m.snap.Message.Text)
	}
	return ""
}

// viewStatusBar renders the state badge and key hints.
func (m Model) viewStatusBar() string {
	var hints []string
	for _, binding := range m.keyMap.ShortHelp() {
		help := binding.Help()
		hints = append(hints,
			m.theme.ShortcutKey.Render(help.Key)+" "+m.theme.ShortcutDesc.Render(help.Desc))
	}

	badge := m.theme.StateBadge.Render(m.snap.State.String())
	return m.theme.StatusBar.Render(badge + "  " + strings.Join(hints, "  "))
}
