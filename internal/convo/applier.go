// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package convo

import (
	"github.com/loomchat/loom-tui/internal/model"
)

// FallbackContent is the single synthesized assistant message shown
// when a stream fails before any content arrived.
const FallbackContent = "Sorry, something went wrong while generating a response. Please try again."

// =============================================================================
// STREAM APPLIER
// =============================================================================

// StreamApplier feeds a live stream's cumulative deltas into one
// conversation's trailing assistant message.
//
// The first non-empty delta creates the assistant message; every later
// delta replaces its content in place, preserving the message's id and
// timestamp. Exactly one persistence write happens per stream, at
// Finish.
type StreamApplier struct {
	store  *Store
	convID string

	started bool

	// onFirst fires once, on the first non-empty delta. The chat view
	// uses it to stop the typing indicator.
	onFirst func()
}

// NewStreamApplier creates an applier for the given conversation.
// onFirst may be nil.
func NewStreamApplier(store *Store, convID string, onFirst func()) *StreamApplier {
	return &StreamApplier{store: store, convID: convID, onFirst: onFirst}
}

// Apply handles one cumulative content delta.
func (a *StreamApplier) Apply(content string) {
	if !a.started {
		if content == "" {
			return
		}
		a.store.BeginStreaming(a.convID, model.NewAssistantMessage(content))
		a.started = true
		if a.onFirst != nil {
			a.onFirst()
		}
		return
	}
	// Cumulative semantics: replace, never concatenate.
	a.store.ReplaceTrailingContent(a.convID, content)
}

// Started reports whether any content has arrived yet.
func (a *StreamApplier) Started() bool {
	return a.started
}

// Finish completes the stream.
//
// If content had started streaming, whatever arrived is committed as
// the final message - even when err is non-nil, a partial answer beats
// a fallback pasted over live content. If the stream failed before any
// content, a single fixed fallback message is appended instead. A
// clean stream with no content persists nothing.
func (a *StreamApplier) Finish(err error) {
	switch {
	case a.started:
		a.store.CommitTrailing(a.convID)
	case err != nil:
		a.store.AppendMessage(a.convID, model.NewAssistantMessage(FallbackContent))
	}
}
