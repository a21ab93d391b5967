// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package auth

import (
	"context"
	"encoding/json"
	"io"
	"strings"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/loomchat/loom-tui/internal/storage"
)

// User-facing failure messages. Screens render these verbatim.
const (
	MsgUserExists     = "username already exists"
	MsgBadCredentials = "invalid username or password"
	MsgMissingFields  = "username and password are required"
	MsgStorageFailed  = "could not save account, please try again"
)

// =============================================================================
// TYPES
// =============================================================================

// User is one entry in the credential directory.
//
// TODO: hash passwords with bcrypt instead of storing them verbatim.
type User struct {
	ID       string `json:"id"`
	Username string `json:"username"` // normalized form
	Password string `json:"password"`
}

// directory maps normalized username to its credential entry.
type directory map[string]User

// Service mediates signup, login, and the session pointer over the
// persistent store.
type Service struct {
	kv  storage.KV
	log logrus.FieldLogger
}

// NewService creates an auth service over the given KV backend. A nil
// logger discards.
func NewService(kv storage.KV, log logrus.FieldLogger) *Service {
	if log == nil {
		discard := logrus.New()
		discard.SetOutput(io.Discard)
		log = discard
	}
	return &Service{kv: kv, log: log}
}

// Normalize canonicalizes a username: surrounding whitespace stripped,
// lowercased. "  Alice " and "alice" are the same account.
func Normalize(username string) string {
	return strings.ToLower(strings.TrimSpace(username))
}

// =============================================================================
// SIGNUP / LOGIN
// =============================================================================

// Signup registers a new account and makes it the current session.
// The second return is a user-facing failure message, empty on
// success.
func (s *Service) Signup(ctx context.Context, username, password string) (User, string) {
	username = Normalize(username)
	if username == "" || password == "" {
		return User{}, MsgMissingFields
	}

	dir := s.loadDirectory(ctx)
	if _, taken := dir[username]; taken {
		return User{}, MsgUserExists
	}

	user := User{
		ID:       "user_" + uuid.NewString(),
		Username: username,
		Password: password,
	}
	dir[username] = user

	if !s.saveDirectory(ctx, dir) {
		return User{}, MsgStorageFailed
	}
	s.setSession(ctx, user.ID)
	return user, ""
}

// Login checks credentials and makes the account the current session.
// The failure message never distinguishes "no such user" from "wrong
// password".
func (s *Service) Login(ctx context.Context, username, password string) (User, string) {
	username = Normalize(username)
	if username == "" || password == "" {
		return User{}, MsgMissingFields
	}

	dir := s.loadDirectory(ctx)
	user, ok := dir[username]
	if !ok || user.Password != password {
		return User{}, MsgBadCredentials
	}

	s.setSession(ctx, user.ID)
	return user, ""
}

// Logout clears the current-session pointer. The credential directory
// is untouched.
func (s *Service) Logout(ctx context.Context) {
	if err := s.kv.Remove(ctx, storage.KeySession); err != nil {
		s.log.WithError(err).Warn("session clear failed")
	}
}

// CurrentUser resolves the session pointer against the directory.
// Returns false when no session is active or the pointed-at account no
// longer exists.
func (s *Service) CurrentUser(ctx context.Context) (User, bool) {
	id, ok, err := s.kv.Get(ctx, storage.KeySession)
	if err != nil || !ok || id == "" {
		return User{}, false
	}

	for _, user := range s.loadDirectory(ctx) {
		if user.ID == id {
			return user, true
		}
	}
	return User{}, false
}

// =============================================================================
// PERSISTENCE
// =============================================================================

// loadDirectory reads the credential directory. Any failure (missing
// key, read error, corrupt payload) yields an empty directory; login
// then fails closed with bad-credentials.
func (s *Service) loadDirectory(ctx context.Context) directory {
	raw, ok, err := s.kv.Get(ctx, storage.KeyUsers)
	if err != nil {
		s.log.WithError(err).Warn("credential directory load failed")
		return directory{}
	}
	if !ok {
		return directory{}
	}

	dir := directory{}
	if err := json.Unmarshal([]byte(raw), &dir); err != nil {
		s.log.WithError(err).Warn("credential directory corrupt")
		return directory{}
	}
	return dir
}

func (s *Service) saveDirectory(ctx context.Context, dir directory) bool {
	payload, err := json.Marshal(dir)
	if err != nil {
		s.log.WithError(err).Error("credential directory marshal failed")
		return false
	}
	if err := s.kv.Set(ctx, storage.KeyUsers, string(payload)); err != nil {
		s.log.WithError(err).Warn("credential directory write failed")
		return false
	}
	return true
}

func (s *Service) setSession(ctx context.Context, userID string) {
	if err := s.kv.Set(ctx, storage.KeySession, userID); err != nil {
		// The login itself succeeded; only restore-on-restart is lost.
		s.log.WithError(err).Warn("session pointer write failed")
	}
}
