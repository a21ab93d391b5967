// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package storage

import "context"

// =============================================================================
// KEY SCHEME
// =============================================================================

const (
	// KeyUsers holds the credential directory blob.
	KeyUsers = "loom_users"

	// KeySession holds the current-session pointer (the active user id).
	KeySession = "loom_session"

	// conversationKeyPrefix namespaces per-identity conversation sets.
	conversationKeyPrefix = "loom_conversations_"
)

// ConversationKey returns the key holding the conversation set for the
// given identity.
func ConversationKey(userID string) string {
	return conversationKeyPrefix + userID
}

// =============================================================================
// KV INTERFACE
// =============================================================================

// KV is an asynchronous mapping from string keys to string blobs,
// durable across process restarts.
//
// Get returns (value, true, nil) when the key exists and ("", false,
// nil) when it does not; read failures are reported as errors so the
// caller can decide to treat them as absent.
type KV interface {
	Get(ctx context.Context, key string) (string, bool, error)
	Set(ctx context.Context, key, value string) error
	Remove(ctx context.Context, key string) error
	Close() error
}
