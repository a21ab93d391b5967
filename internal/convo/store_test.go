// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package convo

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/loomchat/loom-tui/internal/model"
	"github.com/loomchat/loom-tui/internal/storage"
)

// =============================================================================
// FAKE KV
// =============================================================================

// fakeKV is an in-memory KV with write counting and per-key read
// gates, for exercising debounce and activation races.
type fakeKV struct {
	mu     sync.Mutex
	data   map[string]string
	sets   int
	failed bool

	// gates block Get for a key until the gate channel is closed.
	gates map[string]chan struct{}
}

func newFakeKV() *fakeKV {
	return &fakeKV{
		data:  make(map[string]string),
		gates: make(map[string]chan struct{}),
	}
}

func (f *fakeKV) gate(key string) chan struct{} {
	f.mu.Lock()
	defer f.mu.Unlock()
	ch := make(chan struct{})
	f.gates[key] = ch
	return ch
}

func (f *fakeKV) Get(ctx context.Context, key string) (string, bool, error) {
	f.mu.Lock()
	gate := f.gates[key]
	f.mu.Unlock()

	if gate != nil {
		<-gate
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	v, ok := f.data[key]
	return v, ok, nil
}

func (f *fakeKV) Set(ctx context.Context, key, value string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.sets++
	if f.failed {
		return errors.New("disk full")
	}
	f.data[key] = value
	return nil
}

func (f *fakeKV) Remove(ctx context.Context, key string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.data, key)
	return nil
}

func (f *fakeKV) Close() error { return nil }

func (f *fakeKV) setCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.sets
}

func (f *fakeKV) stored(t *testing.T, identity string) []*model.Conversation {
	t.Helper()
	f.mu.Lock()
	raw, ok := f.data[storage.ConversationKey(identity)]
	f.mu.Unlock()
	if !ok {
		return nil
	}
	var conversations []*model.Conversation
	if err := json.Unmarshal([]byte(raw), &conversations); err != nil {
		t.Fatalf("stored payload corrupt: %v", err)
	}
	return conversations
}

func newTestStore(kv storage.KV, debounce time.Duration) *Store {
	return NewStore(kv, Options{Debounce: debounce})
}

// =============================================================================
// IN-MEMORY OPERATION TESTS
// =============================================================================

func TestCreateOrdersNewestFirst(t *testing.T) {
	kv := newFakeKV()
	s := newTestStore(kv, time.Hour)
	s.Activate(context.Background(), "u1")

	first := s.Create("")
	second := s.Create("")

	list := s.List()
	if len(list) != 2 {
		t.Fatalf("List len = %d, want 2", len(list))
	}
	if list[0].ID != second || list[1].ID != first {
		t.Error("conversations must be ordered newest-created-first")
	}
}

func TestGetAndDelete(t *testing.T) {
	kv := newFakeKV()
	s := newTestStore(kv, time.Hour)
	s.Activate(context.Background(), "u1")

	id := s.Create("notes")

	conv, ok := s.Get(id)
	if !ok || conv.Title != "notes" {
		t.Fatalf("Get returned %v, %v", conv, ok)
	}

	s.Delete(id)
	if _, ok := s.Get(id); ok {
		t.Error("deleted conversation should be absent")
	}

	s.Delete("nope") // unknown id is a no-op, not an error
}

func TestGetReturnsCopy(t *testing.T) {
	kv := newFakeKV()
	s := newTestStore(kv, time.Hour)
	s.Activate(context.Background(), "u1")

	id := s.Create("")
	s.AppendMessage(id, model.NewUserMessage("hi"))

	conv, _ := s.Get(id)
	conv.ReplaceTrailingContent("mutated")

	fresh, _ := s.Get(id)
	if last, _ := fresh.LastMessage(); last.Content != "hi" {
		t.Error("mutating a Get result must not affect the store")
	}
}

func TestAppendMessageUnknownConversation(t *testing.T) {
	kv := newFakeKV()
	s := newTestStore(kv, time.Millisecond)
	s.Activate(context.Background(), "u1")

	s.AppendMessage("missing", model.NewUserMessage("hi"))
	time.Sleep(20 * time.Millisecond)
	if kv.setCount() != 0 {
		t.Error("append to unknown conversation must not schedule a write")
	}
}

// =============================================================================
// DEBOUNCE TESTS
// =============================================================================

func TestDebounceCoalescesBursts(t *testing.T) {
	kv := newFakeKV()
	s := newTestStore(kv, 30*time.Millisecond)
	s.Activate(context.Background(), "u1")

	id := s.Create("")
	s.AppendMessage(id, model.NewUserMessage("one"))
	s.AppendMessage(id, model.NewUserMessage("two"))
	s.Rename(id, "burst")

	// Nothing may hit the disk inside the debounce window.
	if kv.setCount() != 0 {
		t.Fatalf("write fired before debounce elapsed (%d sets)", kv.setCount())
	}

	time.Sleep(100 * time.Millisecond)

	if got := kv.setCount(); got != 1 {
		t.Errorf("burst of 4 mutations produced %d writes, want 1", got)
	}

	// The write must hold the state at fire time, not a snapshot from
	// scheduling time.
	stored := kv.stored(t, "u1")
	if len(stored) != 1 || stored[0].Title != "burst" || stored[0].MessageCount() != 2 {
		t.Errorf("persisted state stale: %+v", stored)
	}
}

func TestReplaceTrailingContentNeverPersists(t *testing.T) {
	kv := newFakeKV()
	s := newTestStore(kv, 10*time.Millisecond)
	s.Activate(context.Background(), "u1")

	id := s.Create("")
	time.Sleep(50 * time.Millisecond) // drain the Create write
	base := kv.setCount()

	s.BeginStreaming(id, model.NewAssistantMessage("a"))
	for i := 0; i < 50; i++ {
		s.ReplaceTrailingContent(id, "delta")
	}
	time.Sleep(50 * time.Millisecond)

	if got := kv.setCount(); got != base {
		t.Errorf("streaming replacements caused %d extra writes, want 0", got-base)
	}

	// Only the commit persists the stream, as one write.
	s.CommitTrailing(id)
	time.Sleep(50 * time.Millisecond)
	if got := kv.setCount(); got != base+1 {
		t.Errorf("commit produced %d writes, want 1", got-base)
	}
}

func TestFlushNowRoundTrip(t *testing.T) {
	kv := newFakeKV()
	s := newTestStore(kv, time.Hour) // debounce never fires on its own
	s.Activate(context.Background(), "u1")

	id := s.Create("")
	s.AppendMessage(id, model.NewUserMessage("hello"))
	s.FlushNow(context.Background())

	if kv.setCount() != 1 {
		t.Fatalf("FlushNow produced %d writes, want 1", kv.setCount())
	}

	// Save-then-load yields an equal set.
	s2 := newTestStore(kv, time.Hour)
	s2.Activate(context.Background(), "u1")

	want := s.List()
	got := s2.List()
	wantJSON, _ := json.Marshal(want)
	gotJSON, _ := json.Marshal(got)
	if string(wantJSON) != string(gotJSON) {
		t.Errorf("round trip mismatch:\n got %s\nwant %s", gotJSON, wantJSON)
	}
}

func TestFlushNowWithNothingPending(t *testing.T) {
	kv := newFakeKV()
	s := newTestStore(kv, time.Hour)
	s.Activate(context.Background(), "u1")

	s.FlushNow(context.Background())
	if kv.setCount() != 0 {
		t.Error("FlushNow with nothing pending must be a no-op")
	}
}

func TestFlushNowCancelsPendingTimer(t *testing.T) {
	kv := newFakeKV()
	s := newTestStore(kv, 30*time.Millisecond)
	s.Activate(context.Background(), "u1")

	s.Create("")
	s.FlushNow(context.Background())
	time.Sleep(80 * time.Millisecond)

	if got := kv.setCount(); got != 1 {
		t.Errorf("FlushNow + timer produced %d writes, want 1 (timer must be cancelled)", got)
	}
}

func TestPersistenceFailureSwallowed(t *testing.T) {
	kv := newFakeKV()
	kv.failed = true
	s := newTestStore(kv, time.Hour)
	s.Activate(context.Background(), "u1")

	id := s.Create("kept")
	s.FlushNow(context.Background()) // must not panic or surface the error

	if _, ok := s.Get(id); !ok {
		t.Error("in-memory state must survive a failed write")
	}
}

// =============================================================================
// IDENTITY SWITCH TESTS
// =============================================================================

func TestActivateLoadsPersistedSet(t *testing.T) {
	kv := newFakeKV()

	seed := newTestStore(kv, time.Hour)
	seed.Activate(context.Background(), "alice")
	id := seed.Create("alice's chat")
	seed.FlushNow(context.Background())

	s := newTestStore(kv, time.Hour)
	s.Activate(context.Background(), "alice")

	if conv, ok := s.Get(id); !ok || conv.Title != "alice's chat" {
		t.Errorf("persisted conversation not loaded: %v %v", conv, ok)
	}
}

func TestActivateReplacesNeverMerges(t *testing.T) {
	kv := newFakeKV()

	seed := newTestStore(kv, time.Hour)
	seed.Activate(context.Background(), "bob")
	seed.Create("bob's chat")
	seed.FlushNow(context.Background())

	s := newTestStore(kv, time.Hour)
	s.Activate(context.Background(), "alice")
	s.Create("alice's chat")

	s.Activate(context.Background(), "bob")
	list := s.List()
	if len(list) != 1 || list[0].Title != "bob's chat" {
		t.Errorf("switching identity must fully replace the set, got %+v", list)
	}
}

func TestActivateRaceLastRequestedWins(t *testing.T) {
	kv := newFakeKV()

	// Seed both identities.
	seed := newTestStore(kv, time.Hour)
	seed.Activate(context.Background(), "a")
	seed.Create("a's chat")
	seed.FlushNow(context.Background())
	seed.Activate(context.Background(), "b")
	seed.Create("b's chat")
	seed.FlushNow(context.Background())

	s := newTestStore(kv, time.Hour)

	// A's load blocks; B's completes immediately.
	gateA := kv.gate(storage.ConversationKey("a"))

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		s.Activate(context.Background(), "a")
	}()

	// Give the goroutine time to reach the blocked Get.
	time.Sleep(20 * time.Millisecond)
	s.Activate(context.Background(), "b")

	// A's slow load resolves after B already won; its result must be
	// discarded, not installed over B's state.
	close(gateA)
	wg.Wait()

	list := s.List()
	if len(list) != 1 || list[0].Title != "b's chat" {
		t.Errorf("stale load overwrote the newer identity, got %+v", list)
	}
	if s.ActiveIdentity() != "b" {
		t.Errorf("ActiveIdentity = %q, want b", s.ActiveIdentity())
	}
}

func TestActivateCancelsPendingWriteForOldIdentity(t *testing.T) {
	kv := newFakeKV()
	s := newTestStore(kv, 50*time.Millisecond)

	s.Activate(context.Background(), "a")
	s.Create("a's unsaved chat")

	// Switch identities before the debounced write fires.
	s.Activate(context.Background(), "b")
	time.Sleep(120 * time.Millisecond)

	if stored := kv.stored(t, "a"); stored != nil {
		t.Errorf("stale debounced write fired for old identity: %+v", stored)
	}
	if stored := kv.stored(t, "b"); stored != nil {
		t.Errorf("identity b never mutated, nothing should be written: %+v", stored)
	}
}

func TestActivateMissingIdentityStartsEmpty(t *testing.T) {
	kv := newFakeKV()
	s := newTestStore(kv, time.Hour)
	s.Activate(context.Background(), "nobody")

	if list := s.List(); len(list) != 0 {
		t.Errorf("unknown identity should start empty, got %d conversations", len(list))
	}
}

func TestActivateCorruptPayloadStartsEmpty(t *testing.T) {
	kv := newFakeKV()
	kv.data[storage.ConversationKey("u1")] = "{corrupt"

	s := newTestStore(kv, time.Hour)
	s.Activate(context.Background(), "u1")

	if list := s.List(); len(list) != 0 {
		t.Errorf("corrupt payload should load as empty, got %d conversations", len(list))
	}
}
