// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package identity implements the client for the remote identity API.
//
// The API drives the full account lifecycle: registration, first-login
// confirmation, MFA enrollment, password login, MFA challenge
// verification, token refresh, and profile lookup. Every request carries
// a static x-api-key credential; the MFA-protected calls additionally
// carry the opaque handles issued by earlier steps.
//
// IDENTITY: Secure logging, error normalization, and response size limits.
package identity
