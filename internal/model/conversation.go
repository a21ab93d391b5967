// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package model

import (
	"time"

	"github.com/google/uuid"

	"github.com/loomchat/loom-tui/internal/util"
)

// DefaultTitle is the title a conversation carries until one is set or
// auto-derived from its first user message.
const DefaultTitle = "New Chat"

// =============================================================================
// CONVERSATION TYPE
// =============================================================================

// Conversation holds a chat conversation with history and metadata.
type Conversation struct {
	ID        string    `json:"id"`
	Title     string    `json:"title"`
	Messages  []Message `json:"messages"`
	CreatedAt int64     `json:"created_at"` // epoch millis
	UpdatedAt int64     `json:"updated_at"` // epoch millis
}

// NewConversation creates a new conversation with a generated ID and
// an empty message list. An empty title falls back to DefaultTitle.
func NewConversation(title string) *Conversation {
	if title == "" {
		title = DefaultTitle
	}
	now := time.Now().UnixMilli()
	return &Conversation{
		ID:        "conv_" + uuid.NewString(),
		Title:     title,
		Messages:  make([]Message, 0),
		CreatedAt: now,
		UpdatedAt: now,
	}
}

// =============================================================================
// MESSAGE MANAGEMENT
// =============================================================================

// Append adds a message to the conversation and refreshes UpdatedAt.
// When the first assistant reply lands and the title is still the
// default, the title is derived from the first user message.
func (c *Conversation) Append(msg Message) {
	c.Messages = append(c.Messages, msg)
	c.UpdatedAt = time.Now().UnixMilli()
	if msg.Role == RoleAssistant {
		c.autoTitle()
	}
}

// AppendStreaming adds an in-progress assistant message without
// deriving a title: the reply has not completed yet.
func (c *Conversation) AppendStreaming(msg Message) {
	c.Messages = append(c.Messages, msg)
	c.UpdatedAt = time.Now().UnixMilli()
}

// FinalizeTrailing marks the in-progress trailing reply complete:
// refreshes UpdatedAt and derives the title if still the default.
func (c *Conversation) FinalizeTrailing() {
	c.UpdatedAt = time.Now().UnixMilli()
	c.autoTitle()
}

// ReplaceTrailingContent replaces the content of the last message.
// This is the streaming path: each delta carries the full accumulated
// text, so the content is replaced, never concatenated. No-op on an
// empty conversation.
func (c *Conversation) ReplaceTrailingContent(content string) {
	if len(c.Messages) == 0 {
		return
	}
	c.Messages[len(c.Messages)-1].Content = content
}

// LastMessage returns the most recent message, or a zero Message and
// false if the conversation is empty.
func (c *Conversation) LastMessage() (Message, bool) {
	if len(c.Messages) == 0 {
		return Message{}, false
	}
	return c.Messages[len(c.Messages)-1], true
}

// FirstUserMessage returns the first user message, or false if none.
func (c *Conversation) FirstUserMessage() (Message, bool) {
	for _, msg := range c.Messages {
		if msg.Role == RoleUser {
			return msg, true
		}
	}
	return Message{}, false
}

// MessageCount returns the number of messages.
func (c *Conversation) MessageCount() int {
	return len(c.Messages)
}

// IsEmpty returns true if there are no messages.
func (c *Conversation) IsEmpty() bool {
	return len(c.Messages) == 0
}

// =============================================================================
// TITLE MANAGEMENT
// =============================================================================

// autoTitle derives the title from the first user message once an
// assistant reply exists, unless a non-default title was already set.
func (c *Conversation) autoTitle() {
	if c.Title != "" && c.Title != DefaultTitle {
		return
	}
	if first, ok := c.FirstUserMessage(); ok {
		c.Title = util.TruncateString(util.CollapseWhitespace(first.Content), 50)
	}
}

// SetTitle manually sets the conversation title.
func (c *Conversation) SetTitle(title string) {
	c.Title = title
	c.UpdatedAt = time.Now().UnixMilli()
}

// Preview returns a short single-line preview of the conversation.
func (c *Conversation) Preview(maxLen int) string {
	if last, ok := c.LastMessage(); ok {
		return util.TruncateString(util.CollapseWhitespace(last.Content), maxLen)
	}
	return "Empty conversation"
}

// =============================================================================
// COPYING
// =============================================================================

// Clone creates a deep copy of the conversation. Messages are value
// types so copying the slice copies the messages.
func (c *Conversation) Clone() *Conversation {
	clone := *c
	clone.Messages = make([]Message, len(c.Messages))
	copy(clone.Messages, c.Messages)
	return &clone
}
