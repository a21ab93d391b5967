// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package convo owns the in-memory conversation set for the active
// identity and coalesces its persistence.
//
// The Store is the exclusive owner of the set: every mutation goes
// through it, and the persistent key-value store is only a passive
// sink (debounced writes) and source (one load on identity
// activation). The persisted view may lag the in-memory view by up to
// one debounce interval, or until FlushNow.
package convo
