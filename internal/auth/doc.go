// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package auth keeps the local credential directory and the
// current-session pointer in the persistent key-value store.
//
// Accounts are device-local: there is no remote identity provider.
// Domain failures (bad password, duplicate username) come back as
// user-facing messages, not Go errors, so screens can render them
// inline.
package auth
