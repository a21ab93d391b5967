// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package api

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/loomchat/loom-tui/internal/model"
	"github.com/loomchat/loom-tui/internal/stream"
)

// =============================================================================
// ERROR TYPES
// =============================================================================

// ErrorType categorizes client errors for handling.
type ErrorType int

const (
	ErrTypeUnknown ErrorType = iota
	ErrTypeConnection
	ErrTypeTimeout
	ErrTypeInvalidResponse
	ErrTypeServer
)

// ClientError represents an error from the backend client.
type ClientError struct {
	Type    ErrorType
	Message string
	Cause   error
}

func (e *ClientError) Error() string {
	if e.Cause != nil {
		return e.Message + ": " + e.Cause.Error()
	}
	return e.Message
}

func (e *ClientError) Unwrap() error {
	return e.Cause
}

// ErrTimeout is returned when a request deadline expires.
var ErrTimeout = &ClientError{Type: ErrTypeTimeout, Message: "request timed out"}

// =============================================================================
// WIRE TYPES
// =============================================================================

// WireMessage is one conversation turn in the chat request body.
type WireMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// chatRequest is the body for POST /api/chat: the full history, oldest
// first.
type chatRequest struct {
	Messages []WireMessage `json:"messages"`
}

// imageRequest is the body for POST /api/generate-image.
type imageRequest struct {
	Prompt string `json:"prompt"`
}

// imageResponse is the success body of POST /api/generate-image.
type imageResponse struct {
	B64JSON string `json:"b64_json"`
}

// errorEnvelope is the failure body shared by both endpoints.
type errorEnvelope struct {
	Error string `json:"error"`
}

// HistoryToWire converts conversation messages (oldest first) to the
// wire shape, dropping image-only messages that carry no text.
func HistoryToWire(messages []model.Message) []WireMessage {
	out := make([]WireMessage, 0, len(messages))
	for _, msg := range messages {
		if msg.Content == "" {
			continue
		}
		out = append(out, WireMessage{Role: msg.Role.String(), Content: msg.Content})
	}
	return out
}

// =============================================================================
// CLIENT
// =============================================================================

// Config holds configuration options for the backend client.
type Config struct {
	// BaseURL of the loom backend, without a trailing slash.
	BaseURL string

	// Timeout for non-streaming requests (default: 60s). Streaming
	// requests run without a client timeout; the context bounds them.
	Timeout time.Duration
}

// Client talks to the loom backend. Safe for concurrent use.
type Client struct {
	baseURL    string
	httpClient *http.Client
}

// NewClient creates a backend client.
func NewClient(cfg Config) *Client {
	timeout := cfg.Timeout
	if timeout == 0 {
		timeout = 60 * time.Second
	}
	return &Client{
		baseURL: cfg.BaseURL,
		httpClient: &http.Client{
			Timeout: timeout,
		},
	}
}

// =============================================================================
// STREAMING CHAT
// =============================================================================

// ChatStream posts the conversation history and feeds every cumulative
// content delta to callback as it arrives. It returns when the stream
// completes, the server delivers an error frame, or the transport
// fails.
func (c *Client) ChatStream(ctx context.Context, history []WireMessage, callback stream.Callback) error {
	body, err := json.Marshal(chatRequest{Messages: history})
	if err != nil {
		return &ClientError{Type: ErrTypeInvalidResponse, Message: "failed to marshal request", Cause: err}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/api/chat", bytes.NewReader(body))
	if err != nil {
		return &ClientError{Type: ErrTypeConnection, Message: "failed to create request", Cause: err}
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "text/event-stream")

	// A client-level timeout would kill long streams; the context is
	// the only deadline here.
	streamClient := &http.Client{}

	resp, err := streamClient.Do(req)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			return ErrTimeout
		}
		return &ClientError{Type: ErrTypeConnection, Message: "chat request failed", Cause: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		var envelope errorEnvelope
		if err := json.NewDecoder(resp.Body).Decode(&envelope); err == nil && envelope.Error != "" {
			return &ClientError{Type: ErrTypeServer, Message: envelope.Error}
		}
		return &ClientError{Type: ErrTypeInvalidResponse, Message: "chat request failed: " + resp.Status}
	}

	return stream.NewReader(resp.Body).Process(ctx, callback)
}

// =============================================================================
// IMAGE GENERATION
// =============================================================================

// GenerateImage posts a prompt and returns the decoded image bytes.
func (c *Client) GenerateImage(ctx context.Context, prompt string) ([]byte, error) {
	body, err := json.Marshal(imageRequest{Prompt: prompt})
	if err != nil {
		return nil, &ClientError{Type: ErrTypeInvalidResponse, Message: "failed to marshal request", Cause: err}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/api/generate-image", bytes.NewReader(body))
	if err != nil {
		return nil, &ClientError{Type: ErrTypeConnection, Message: "failed to create request", Cause: err}
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			return nil, ErrTimeout
		}
		return nil, &ClientError{Type: ErrTypeConnection, Message: "image request failed", Cause: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		var envelope errorEnvelope
		if err := json.NewDecoder(resp.Body).Decode(&envelope); err == nil && envelope.Error != "" {
			return nil, &ClientError{Type: ErrTypeServer, Message: envelope.Error}
		}
		return nil, &ClientError{Type: ErrTypeInvalidResponse, Message: "image request failed: " + resp.Status}
	}

	var result imageResponse
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, &ClientError{Type: ErrTypeInvalidResponse, Message: "failed to decode response", Cause: err}
	}

	data, err := base64.StdEncoding.DecodeString(result.B64JSON)
	if err != nil {
		return nil, &ClientError{Type: ErrTypeInvalidResponse, Message: "invalid image payload", Cause: err}
	}
	return data, nil
}

// IsServerError checks whether an error is a structured server error
// (an error envelope or an in-stream error frame).
func IsServerError(err error) bool {
	var clientErr *ClientError
	if errors.As(err, &clientErr) {
		return clientErr.Type == ErrTypeServer
	}
	var serverErr *stream.ServerError
	return errors.As(err, &serverErr)
}
