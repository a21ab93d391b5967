// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package ui implements the loom terminal interface as a Bubble Tea
// program.
//
// The App model owns the active screen (login, conversation list,
// chat, image generation) and the shared dependencies. Streaming
// responses cross from the API client goroutine into the update loop
// as messages over a channel, so all store mutations happen on the
// program's single logical thread.
package ui
