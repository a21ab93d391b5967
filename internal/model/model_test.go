// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package model

import (
	"strings"
	"testing"
)

// =============================================================================
// MESSAGE ID TESTS
// =============================================================================

func TestGenerateMessageIDUnique(t *testing.T) {
	// Rapid-fire creation lands many ids in the same millisecond; the
	// sequence counter must keep them distinct anyway.
	const n = 10000
	seen := make(map[string]bool, n)
	for i := 0; i < n; i++ {
		id := GenerateMessageID()
		if seen[id] {
			t.Fatalf("duplicate message id %q after %d ids", id, i)
		}
		seen[id] = true
	}
}

func TestGenerateMessageIDFormat(t *testing.T) {
	id := GenerateMessageID()
	if !strings.HasPrefix(id, "msg_") {
		t.Errorf("id should start with msg_, got %q", id)
	}
	if parts := strings.Split(id, "_"); len(parts) != 4 {
		t.Errorf("id should have timestamp, sequence and random parts, got %q", id)
	}
}

// =============================================================================
// MESSAGE TESTS
// =============================================================================

func TestNewMessage(t *testing.T) {
	msg := NewUserMessage("hello")
	if msg.Role != RoleUser {
		t.Errorf("Role = %v, want user", msg.Role)
	}
	if msg.Content != "hello" {
		t.Errorf("Content = %q", msg.Content)
	}
	if msg.Timestamp == 0 {
		t.Error("Timestamp should be set")
	}
	if msg.ID == "" {
		t.Error("ID should be set")
	}
}

func TestRoleDisplayName(t *testing.T) {
	if got := RoleUser.DisplayName(); got != "You" {
		t.Errorf("RoleUser.DisplayName() = %q", got)
	}
	if got := RoleAssistant.DisplayName(); got != "Assistant" {
		t.Errorf("RoleAssistant.DisplayName() = %q", got)
	}
	if got := Role("system").DisplayName(); got != "system" {
		t.Errorf("unknown role should display verbatim, got %q", got)
	}
}

func TestNewImageMessage(t *testing.T) {
	msg := NewImageMessage("a sunset", "aGVsbG8=")
	if msg.Role != RoleAssistant {
		t.Errorf("Role = %v, want assistant", msg.Role)
	}
	if msg.ImageData != "aGVsbG8=" {
		t.Errorf("ImageData = %q", msg.ImageData)
	}
	if msg.IsEmpty() {
		t.Error("image message should not be empty")
	}
}

// =============================================================================
// CONVERSATION TESTS
// =============================================================================

func TestNewConversationDefaults(t *testing.T) {
	conv := NewConversation("")
	if conv.Title != DefaultTitle {
		t.Errorf("Title = %q, want %q", conv.Title, DefaultTitle)
	}
	if !conv.IsEmpty() {
		t.Error("new conversation should be empty")
	}
	if !strings.HasPrefix(conv.ID, "conv_") {
		t.Errorf("ID should start with conv_, got %q", conv.ID)
	}
	if conv.CreatedAt == 0 || conv.UpdatedAt == 0 {
		t.Error("timestamps should be set")
	}
}

func TestAppendRefreshesUpdatedAt(t *testing.T) {
	conv := NewConversation("")
	conv.UpdatedAt = 0
	conv.Append(NewUserMessage("hi"))
	if conv.UpdatedAt == 0 {
		t.Error("Append should refresh UpdatedAt")
	}
	if conv.MessageCount() != 1 {
		t.Errorf("MessageCount = %d, want 1", conv.MessageCount())
	}
}

func TestAutoTitleAfterFirstAssistantReply(t *testing.T) {
	conv := NewConversation("")
	conv.Append(NewUserMessage("what is the capital of France?"))

	// Title stays default until the assistant reply lands.
	if conv.Title != DefaultTitle {
		t.Errorf("Title = %q before assistant reply, want %q", conv.Title, DefaultTitle)
	}

	conv.Append(NewAssistantMessage("Paris."))
	if conv.Title != "what is the capital of France?" {
		t.Errorf("Title = %q after assistant reply", conv.Title)
	}
}

func TestAutoTitleDoesNotOverrideCustom(t *testing.T) {
	conv := NewConversation("my notes")
	conv.Append(NewUserMessage("hello"))
	conv.Append(NewAssistantMessage("hi"))
	if conv.Title != "my notes" {
		t.Errorf("custom title was overridden: %q", conv.Title)
	}
}

func TestReplaceTrailingContent(t *testing.T) {
	conv := NewConversation("")
	conv.Append(NewUserMessage("hi"))
	conv.Append(NewAssistantMessage("He"))

	last, _ := conv.LastMessage()
	id, ts := last.ID, last.Timestamp

	// Cumulative replacement: the new text is the whole content.
	conv.ReplaceTrailingContent("Hello")
	conv.ReplaceTrailingContent("Hello there")

	last, _ = conv.LastMessage()
	if last.Content != "Hello there" {
		t.Errorf("Content = %q, want %q", last.Content, "Hello there")
	}
	if last.ID != id || last.Timestamp != ts {
		t.Error("message identity must be preserved across replacements")
	}
}

func TestReplaceTrailingContentEmptyConversation(t *testing.T) {
	conv := NewConversation("")
	conv.ReplaceTrailingContent("ignored") // must not panic
	if !conv.IsEmpty() {
		t.Error("conversation should remain empty")
	}
}

func TestClone(t *testing.T) {
	conv := NewConversation("")
	conv.Append(NewUserMessage("hi"))

	clone := conv.Clone()
	clone.ReplaceTrailingContent("changed")

	if last, _ := conv.LastMessage(); last.Content != "hi" {
		t.Error("mutating the clone must not touch the original")
	}
}
