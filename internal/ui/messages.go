// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package ui

import (
	"github.com/loomchat/loom-tui/internal/auth"
)

// =============================================================================
// NAVIGATION MESSAGES
// =============================================================================

// AuthSuccessMsg signals a completed login/signup or a restored
// session; the conversation store has been activated for the user.
type AuthSuccessMsg struct {
	User auth.User
}

// ShowLoginMsg routes to the login screen.
type ShowLoginMsg struct{}

// OpenChatMsg routes to the chat screen for one conversation.
type OpenChatMsg struct {
	ConversationID string
}

// OpenImageGenMsg routes to the image generation screen.
type OpenImageGenMsg struct{}

// BackToListMsg routes back to the conversation list.
type BackToListMsg struct{}

// LoggedOutMsg signals that the session was cleared.
type LoggedOutMsg struct{}

// =============================================================================
// STREAMING MESSAGES
// =============================================================================

// StreamContentMsg delivers one cumulative content delta from the
// streaming goroutine.
type StreamContentMsg struct {
	ConversationID string
	Content        string
}

// StreamDoneMsg signals that the stream finished, cleanly or not.
type StreamDoneMsg struct {
	ConversationID string
	Err            error
}

// =============================================================================
// IMAGE MESSAGES
// =============================================================================

// ImageDoneMsg reports the outcome of an image generation request.
type ImageDoneMsg struct {
	Path string
	Err  error
}
