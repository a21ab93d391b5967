// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package auth

import (
	"context"
	"testing"

	"github.com/loomchat/loom-tui/internal/storage"
)

func newTestService(t *testing.T) *Service {
	t.Helper()
	kv, err := storage.NewFileKV(t.TempDir())
	if err != nil {
		t.Fatalf("NewFileKV: %v", err)
	}
	t.Cleanup(func() { kv.Close() })
	return NewService(kv, nil)
}

// =============================================================================
// SIGNUP TESTS
// =============================================================================

func TestSignupAndLogin(t *testing.T) {
	s := newTestService(t)
	ctx := context.Background()

	created, msg := s.Signup(ctx, "alice", "pass1")
	if msg != "" {
		t.Fatalf("signup failed: %q", msg)
	}
	if created.ID == "" || created.Username != "alice" {
		t.Errorf("unexpected user: %+v", created)
	}

	logged, msg := s.Login(ctx, "alice", "pass1")
	if msg != "" {
		t.Fatalf("login failed: %q", msg)
	}
	if logged.ID != created.ID {
		t.Errorf("login returned id %q, want %q", logged.ID, created.ID)
	}
}

func TestSignupNormalizesUsername(t *testing.T) {
	s := newTestService(t)
	ctx := context.Background()

	created, msg := s.Signup(ctx, "Alice", "pass1")
	if msg != "" {
		t.Fatalf("signup failed: %q", msg)
	}

	// Mixed case and padding resolve to the same account.
	logged, msg := s.Login(ctx, "  alice ", "pass1")
	if msg != "" {
		t.Fatalf("normalized login failed: %q", msg)
	}
	if logged.ID != created.ID {
		t.Errorf("normalized login returned id %q, want %q", logged.ID, created.ID)
	}
}

func TestSignupDuplicateRejected(t *testing.T) {
	s := newTestService(t)
	ctx := context.Background()

	s.Signup(ctx, "bob", "1234")
	_, msg := s.Signup(ctx, "bob", "5678")
	if msg != MsgUserExists {
		t.Fatalf("duplicate signup message = %q, want %q", msg, MsgUserExists)
	}

	// The original credential is unchanged.
	if _, msg := s.Login(ctx, "bob", "1234"); msg != "" {
		t.Errorf("original password stopped working: %q", msg)
	}
	if _, msg := s.Login(ctx, "bob", "5678"); msg != MsgBadCredentials {
		t.Errorf("rejected signup's password works: %q", msg)
	}
}

func TestSignupRequiresFields(t *testing.T) {
	s := newTestService(t)
	ctx := context.Background()

	if _, msg := s.Signup(ctx, "", "pass"); msg != MsgMissingFields {
		t.Errorf("empty username: %q", msg)
	}
	if _, msg := s.Signup(ctx, "carol", ""); msg != MsgMissingFields {
		t.Errorf("empty password: %q", msg)
	}
	if _, msg := s.Signup(ctx, "   ", "pass"); msg != MsgMissingFields {
		t.Errorf("whitespace-only username: %q", msg)
	}
}

// =============================================================================
// LOGIN TESTS
// =============================================================================

func TestLoginFailuresAreUniform(t *testing.T) {
	s := newTestService(t)
	ctx := context.Background()

	s.Signup(ctx, "dave", "right")

	// Unknown user and wrong password yield the same message.
	if _, msg := s.Login(ctx, "nobody", "x"); msg != MsgBadCredentials {
		t.Errorf("unknown user: %q", msg)
	}
	if _, msg := s.Login(ctx, "dave", "wrong"); msg != MsgBadCredentials {
		t.Errorf("wrong password: %q", msg)
	}
}

// =============================================================================
// SESSION TESTS
// =============================================================================

func TestSessionLifecycle(t *testing.T) {
	s := newTestService(t)
	ctx := context.Background()

	if _, ok := s.CurrentUser(ctx); ok {
		t.Fatal("fresh store should have no session")
	}

	created, _ := s.Signup(ctx, "erin", "pw")
	current, ok := s.CurrentUser(ctx)
	if !ok || current.ID != created.ID {
		t.Errorf("signup should establish the session, got %+v %v", current, ok)
	}

	s.Logout(ctx)
	if _, ok := s.CurrentUser(ctx); ok {
		t.Error("logout should clear the session")
	}

	// Login restores it.
	s.Login(ctx, "erin", "pw")
	if current, ok := s.CurrentUser(ctx); !ok || current.Username != "erin" {
		t.Errorf("login should restore the session, got %+v %v", current, ok)
	}
}
