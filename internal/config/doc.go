// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package config provides configuration loading and management for authflow.
//
// Supports both TOML and JSON formats with sensible defaults, environment
// variable overrides, and validation.
//
// Configuration file locations (in order of precedence):
//   - ~/.authflow/config.toml
//   - ~/.authflow/config.json
//   - Built-in defaults
package config
