// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package model

import (
	"crypto/rand"
	"encoding/hex"
	"strconv"
	"sync/atomic"
	"time"
)

// =============================================================================
// ROLE TYPE
// =============================================================================

// Role represents the sender of a message.
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// String returns the string representation of the role.
func (r Role) String() string {
	return string(r)
}

// DisplayName returns a human-readable name for the role.
func (r Role) DisplayName() string {
	switch r {
	case RoleUser:
		return "You"
	case RoleAssistant:
		return "Assistant"
	default:
		return string(r)
	}
}

// =============================================================================
// MESSAGE TYPE
// =============================================================================

// Message represents a single message in a conversation.
//
// Messages are immutable once appended, with one exception: the
// trailing assistant message of a live stream has its Content replaced
// wholesale on each received delta (each delta carries the full
// accumulated text, not an increment).
type Message struct {
	ID        string `json:"id"`
	Role      Role   `json:"role"`
	Content   string `json:"content"`
	Timestamp int64  `json:"timestamp"` // epoch millis

	// ImageData holds an inline base64 image payload for messages
	// produced by the image generation view.
	ImageData string `json:"image_data,omitempty"`
}

// NewMessage creates a new message with a generated ID and the current
// timestamp.
func NewMessage(role Role, content string) Message {
	return Message{
		ID:        GenerateMessageID(),
		Role:      role,
		Content:   content,
		Timestamp: time.Now().UnixMilli(),
	}
}

// NewUserMessage creates a new user message.
func NewUserMessage(content string) Message {
	return NewMessage(RoleUser, content)
}

// NewAssistantMessage creates a new assistant message.
func NewAssistantMessage(content string) Message {
	return NewMessage(RoleAssistant, content)
}

// NewImageMessage creates an assistant message carrying an inline
// base64 image payload.
func NewImageMessage(caption, b64 string) Message {
	msg := NewMessage(RoleAssistant, caption)
	msg.ImageData = b64
	return msg
}

// IsEmpty returns true if the message has no content or image payload.
func (m Message) IsEmpty() bool {
	return m.Content == "" && m.ImageData == ""
}

// =============================================================================
// ID GENERATION
// =============================================================================

// messageSeq is a process-wide monotonic counter folded into message
// ids so rapid-fire creation within the same millisecond stays unique.
var messageSeq atomic.Uint64

// GenerateMessageID creates a unique message ID from the current
// epoch-millis timestamp, an in-process sequence number, and random
// bits. The timestamp alone is not enough: two messages created in the
// same millisecond must still get distinct ids.
func GenerateMessageID() string {
	seq := messageSeq.Add(1)
	buf := make([]byte, 4)
	rand.Read(buf)
	return "msg_" + strconv.FormatInt(time.Now().UnixMilli(), 10) +
		"_" + strconv.FormatUint(seq, 10) +
		"_" + hex.EncodeToString(buf)
}
