// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package auth provides the Bubble Tea view for the authentication flow.
//
// This file defines the Bubble Tea message types and command creators
// used by the auth screens. All identity API work happens inside
// commands; the update loop only ever sees the resolved outcomes.
package auth

import (
	"context"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/jeranaias/authflow-tui/internal/identity"
	"github.com/jeranaias/authflow-tui/internal/session"
	"github.com/jeranaias/authflow-tui/internal/tasks"
)

// =============================================================================
// MESSAGES
// =============================================================================

// CallResultMsg delivers the resolution of a dispatched identity call.
type CallResultMsg struct {
	Result session.Result
}

// ProfileMsg delivers the outcome of the background profile fetch.
type ProfileMsg struct {
	Info map[string]any
	Err  error
}

// =============================================================================
// COMMAND CREATORS
// =============================================================================

// performCmd creates a command that executes the dispatched call and
// feeds its result back into the update loop.
func performCmd(client *identity.Client, call *session.Call, timeout time.Duration) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), timeout)
		defer cancel()

		return CallResultMsg{Result: session.Perform(ctx, client, call)}
	}
}

// fetchProfileCmd creates a command that fetches the user profile as a
// tracked background task. The task is detached from the session
// machine: its outcome only ever updates the profile panel.
func fetchProfileCmd(mgr *tasks.Manager, client *identity.Client, idToken string) tea.Cmd {
	return func() tea.Msg {
		type outcome struct {
			info map[string]any
			err  error
		}

		ch := make(chan outcome, 1)
		task := mgr.Go("fetch user profile", func(ctx context.Context) error {
			info, err := client.UserInfo(ctx, idToken)
			ch <- outcome{info: info, err: err}
			return err
		})
		if task == nil {
			// Manager stopped: the app is shutting down.
			return nil
		}

		out := <-ch
		return ProfileMsg{Info: out.info, Err: out.err}
	}
}
