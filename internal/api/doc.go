// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package api provides the HTTP client for the loom backend: the
// streaming chat completion endpoint and the image generation
// endpoint. No retries happen at this layer.
package api
