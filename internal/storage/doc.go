// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package storage provides the persistent key-value capability backing
// the credential directory and per-identity conversation sets.
//
// The KV interface is the only surface the rest of the application
// sees; callers pick between the file-backed and SQLite-backed
// implementations at startup. Values are whole JSON blobs: there are
// no partial updates and no multi-key transactions, so the only
// consistency unit is a single key.
package storage
