// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package tasks runs fire-and-forget background work for the UI, such
// as the profile fetch that follows a successful login. Tasks carry a
// validated status lifecycle (Queued -> Running -> Complete/Failed/
// Canceled) and can be canceled individually or all at once on
// shutdown. Task outcomes never feed back into the session state
// machine.
package tasks
