// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package model contains the data structures for conversations and
// messages, and the id generation scheme shared by both.
//
// All timestamps are integer epoch-milliseconds so the persisted JSON
// stays byte-compatible across platforms.
package model
