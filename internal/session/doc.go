// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package session implements the authentication session state machine.
//
// A session moves through six states - Registering, ConfirmingUser,
// EnrollingMfa, LoggingIn, VerifyingMfa, Authenticated - driven by user
// intents (Dispatch) and by resolved identity API calls (Resolve). All
// session fields live behind a single reducer so no observer can ever
// see a partially applied update, and the credential triple is replaced
// atomically through the token store.
//
// Dispatch returns at most one outbound Call per event; while that call
// is outstanding further Submit events are rejected. Navigation events
// (Back, Logout, SwitchTo*) are always accepted and invalidate the
// outstanding call, so a late response can never resurrect an abandoned
// state.
package session
