// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package stream turns a chunked event-stream response body into a
// sequence of cumulative content deltas.
//
// The wire format is a line-oriented, server-sent-events-shaped
// protocol: records are newline-delimited, significant records carry a
// "data: " prefix, and the payload is either the "[DONE]" sentinel or
// a small JSON object. Content deltas are cumulative - each one is the
// full accumulated text so far, not an increment.
package stream
