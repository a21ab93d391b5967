// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package convo

import (
	"context"
	"encoding/json"
	"io"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/loomchat/loom-tui/internal/model"
	"github.com/loomchat/loom-tui/internal/storage"
)

// DefaultDebounce is the delay between a mutation and its persistence
// write. Bursts of mutations inside the window coalesce into a single
// write of the then-current state.
const DefaultDebounce = 500 * time.Millisecond

// =============================================================================
// STORE
// =============================================================================

// Options configures a Store.
type Options struct {
	// Debounce overrides DefaultDebounce (useful in tests).
	Debounce time.Duration

	// Logger receives swallowed persistence failures. Defaults to a
	// discard logger so the TUI never gets stray output.
	Logger logrus.FieldLogger
}

// Store holds the conversation set for the active identity,
// newest-created-first.
//
// All public methods are safe for concurrent use. Mutations apply to
// the in-memory set synchronously; persistence is best-effort and
// asynchronous. Persistence failures never surface to callers and
// never roll back in-memory state.
type Store struct {
	mu sync.Mutex

	kv       storage.KV
	log      logrus.FieldLogger
	debounce time.Duration

	// identity is the active identity; empty means none.
	identity string

	// generation increments on every Activate. Async results
	// (loads, debounced writes) carry the generation they were issued
	// under and are discarded if it no longer matches.
	generation uint64

	conversations []*model.Conversation

	// timer is the pending debounced write, nil when none.
	timer *time.Timer
	dirty bool
}

// NewStore creates a conversation store over the given KV backend.
func NewStore(kv storage.KV, opts Options) *Store {
	debounce := opts.Debounce
	if debounce == 0 {
		debounce = DefaultDebounce
	}
	log := opts.Logger
	if log == nil {
		discard := logrus.New()
		discard.SetOutput(io.Discard)
		log = discard
	}
	return &Store{
		kv:       kv,
		log:      log,
		debounce: debounce,
	}
}

// =============================================================================
// IDENTITY ACTIVATION
// =============================================================================

// Activate switches the store to the given identity: any pending write
// for the previous identity is cancelled, the in-memory set is
// discarded, and the persisted set for the new identity is loaded
// (empty if none exists or the load fails).
//
// Concurrent Activate calls never interleave their effects: the most
// recently requested identity wins regardless of which load resolves
// first. A stale load's result is discarded on arrival.
func (s *Store) Activate(ctx context.Context, identity string) {
	s.mu.Lock()
	s.generation++
	gen := s.generation
	s.cancelTimerLocked()
	s.identity = identity
	s.conversations = nil
	s.dirty = false
	s.mu.Unlock()

	if identity == "" {
		return
	}

	value, ok, err := s.kv.Get(ctx, storage.ConversationKey(identity))

	loaded := []*model.Conversation{}
	switch {
	case err != nil:
		s.log.WithError(err).WithField("identity", identity).
			Warn("conversation load failed; starting empty")
	case ok:
		if err := json.Unmarshal([]byte(value), &loaded); err != nil {
			s.log.WithError(err).WithField("identity", identity).
				Warn("conversation set corrupt; starting empty")
			loaded = []*model.Conversation{}
		}
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.generation != gen {
		// A newer Activate superseded this load.
		return
	}
	s.conversations = loaded
}

// ActiveIdentity returns the identity the store currently serves.
func (s *Store) ActiveIdentity() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.identity
}

// =============================================================================
// CONVERSATION OPERATIONS
// =============================================================================

// Create synthesizes a new conversation, prepends it (newest first),
// schedules a write, and returns its id.
func (s *Store) Create(title string) string {
	s.mu.Lock()
	defer s.mu.Unlock()

	conv := model.NewConversation(title)
	s.conversations = append([]*model.Conversation{conv}, s.conversations...)
	s.scheduleWriteLocked()
	return conv.ID
}

// Delete removes the conversation with the given id and schedules a
// write. Deleting an unknown id is a no-op.
func (s *Store) Delete(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for i, conv := range s.conversations {
		if conv.ID == id {
			s.conversations = append(s.conversations[:i], s.conversations[i+1:]...)
			s.scheduleWriteLocked()
			return
		}
	}
}

// Get returns a copy of the conversation with the given id, or false.
// The copy keeps ownership of the live set inside the store.
func (s *Store) Get(id string) (*model.Conversation, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if conv := s.findLocked(id); conv != nil {
		return conv.Clone(), true
	}
	return nil, false
}

// List returns copies of all conversations, newest-created-first.
func (s *Store) List() []*model.Conversation {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]*model.Conversation, len(s.conversations))
	for i, conv := range s.conversations {
		out[i] = conv.Clone()
	}
	return out
}

// AppendMessage appends to the conversation's message list, refreshes
// its UpdatedAt, and schedules a write. Unknown ids are a no-op.
func (s *Store) AppendMessage(id string, msg model.Message) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if conv := s.findLocked(id); conv != nil {
		conv.Append(msg)
		s.scheduleWriteLocked()
	}
}

// Rename updates the conversation title and schedules a write.
func (s *Store) Rename(id, title string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if conv := s.findLocked(id); conv != nil {
		conv.SetTitle(title)
		s.scheduleWriteLocked()
	}
}

// =============================================================================
// STREAMING PATH
// =============================================================================

// BeginStreaming appends an in-progress assistant message in memory
// only. No write is scheduled: per-chunk persistence would amplify a
// stream into hundreds of writes.
func (s *Store) BeginStreaming(id string, msg model.Message) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if conv := s.findLocked(id); conv != nil {
		conv.AppendStreaming(msg)
	}
}

// ReplaceTrailingContent replaces the content of the conversation's
// last message in memory only; the message keeps its id and timestamp.
// Never schedules a write.
func (s *Store) ReplaceTrailingContent(id, content string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if conv := s.findLocked(id); conv != nil {
		conv.ReplaceTrailingContent(content)
	}
}

// CommitTrailing finalizes the in-progress trailing message (title
// derivation, UpdatedAt) and schedules the single write that persists
// the completed stream.
func (s *Store) CommitTrailing(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if conv := s.findLocked(id); conv != nil {
		conv.FinalizeTrailing()
		s.scheduleWriteLocked()
	}
}

// =============================================================================
// PERSISTENCE
// =============================================================================

// FlushNow cancels any pending debounced write and writes the current
// in-memory set immediately. Safe to call with nothing pending.
func (s *Store) FlushNow(ctx context.Context) {
	s.mu.Lock()
	s.cancelTimerLocked()
	if !s.dirty || s.identity == "" {
		s.mu.Unlock()
		return
	}
	identity := s.identity
	payload, err := json.Marshal(s.conversations)
	s.dirty = false
	s.mu.Unlock()

	if err != nil {
		s.log.WithError(err).Error("conversation set marshal failed")
		return
	}
	s.write(ctx, identity, payload)
}

// Close cancels any pending write and flushes outstanding state.
func (s *Store) Close() {
	s.FlushNow(context.Background())
}

// scheduleWriteLocked (re)starts the debounce timer. The timer fires
// with the generation captured here; a fire under a newer generation
// is stale and discarded. Serialization happens at fire time, so a
// burst of edits persists as one write of the final state.
func (s *Store) scheduleWriteLocked() {
	s.dirty = true
	s.cancelTimerLocked()

	gen := s.generation
	s.timer = time.AfterFunc(s.debounce, func() {
		s.flushDebounced(gen)
	})
}

// flushDebounced is the timer body.
func (s *Store) flushDebounced(gen uint64) {
	s.mu.Lock()
	if s.generation != gen || s.identity == "" || !s.dirty {
		s.mu.Unlock()
		return
	}
	identity := s.identity
	payload, err := json.Marshal(s.conversations)
	s.dirty = false
	s.timer = nil
	s.mu.Unlock()

	if err != nil {
		s.log.WithError(err).Error("conversation set marshal failed")
		return
	}
	s.write(context.Background(), identity, payload)
}

// write persists the serialized set. Failures are logged and
// swallowed: the in-memory state stays authoritative for the session.
func (s *Store) write(ctx context.Context, identity string, payload []byte) {
	if err := s.kv.Set(ctx, storage.ConversationKey(identity), string(payload)); err != nil {
		s.log.WithError(err).WithField("identity", identity).
			Warn("conversation persistence failed; keeping in-memory state")
	}
}

func (s *Store) cancelTimerLocked() {
	if s.timer != nil {
		s.timer.Stop()
		s.timer = nil
	}
}

func (s *Store) findLocked(id string) *model.Conversation {
	for _, conv := range s.conversations {
		if conv.ID == id {
			return conv
		}
	}
	return nil
}
