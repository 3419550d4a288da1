// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package auth provides the Bubble Tea view for the authentication
// flow. Each session state renders as its own form screen; submissions
// are dispatched to the session machine, the resulting identity API
// call runs as a Bubble Tea command, and the resolved outcome flows
// back through the machine before the next render.
package auth
