// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package history persists an audit trail of session transitions to a
// local SQLite database. Only state names, outcomes, and banner text
// are recorded; passwords, OTP codes, and tokens never reach the log.
// Recording is best-effort: a broken history store must never block or
// fail an authentication flow.
package history
