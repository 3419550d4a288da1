// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package styles provides the visual styling system for the authflow
// TUI. All colors use Lip Gloss AdaptiveColor so the same palette works
// on light and dark terminals, and every status banner pairs its color
// with an ASCII shape indicator for colorblind accessibility.
package styles
