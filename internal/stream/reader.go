// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package stream

import (
	"bufio"
	"context"
	"encoding/json"
	"io"
	"strings"
)

// dataPrefix marks a significant record; anything else on the stream
// is noise (comments, keep-alives, blank lines).
const dataPrefix = "data: "

// doneSentinel terminates a well-formed stream.
const doneSentinel = "[DONE]"

// =============================================================================
// ERRORS
// =============================================================================

// ServerError is an error frame delivered inside the stream body.
type ServerError struct {
	Message string
}

func (e *ServerError) Error() string {
	return "stream error frame: " + e.Message
}

// =============================================================================
// READER
// =============================================================================

// Callback receives each cumulative content delta as it arrives. The
// text is the full accumulated response so far; callers must replace
// previous content, not append.
type Callback func(content string)

// Reader incrementally parses a chunked response body.
//
// bufio handles the carry-over buffering: a record split across chunk
// boundaries (including mid-rune - UTF-8 sequences never contain a
// newline byte) is assembled before it is parsed.
type Reader struct {
	reader *bufio.Reader

	last       string
	gotContent bool
}

// NewReader creates a stream reader over r.
func NewReader(r io.Reader) *Reader {
	return &Reader{reader: bufio.NewReader(r)}
}

// Process consumes the stream, invoking callback for every content
// delta, until the body ends, an error frame arrives, the underlying
// read fails, or the context is cancelled.
//
// Malformed JSON on a data line is treated as noise and skipped. A
// trailing partial line with no terminating newline is discarded when
// the stream ends.
func (r *Reader) Process(ctx context.Context, callback Callback) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		line, err := r.reader.ReadString('\n')
		if err != nil {
			if err == io.EOF {
				// An unterminated final line is dropped, not parsed.
				return nil
			}
			return err
		}

		if err := r.processLine(strings.TrimRight(line, "\r\n"), callback); err != nil {
			return err
		}
	}
}

// processLine handles one complete record.
func (r *Reader) processLine(line string, callback Callback) error {
	payload, ok := strings.CutPrefix(line, dataPrefix)
	if !ok {
		return nil
	}
	if payload == doneSentinel {
		return nil
	}

	var frame struct {
		Content *string `json:"content"`
		Error   *string `json:"error"`
	}
	if err := json.Unmarshal([]byte(payload), &frame); err != nil {
		// Malformed frames are noise; the stream carries on.
		return nil
	}

	if frame.Error != nil {
		return &ServerError{Message: *frame.Error}
	}
	if frame.Content != nil {
		r.last = *frame.Content
		if *frame.Content != "" {
			r.gotContent = true
		}
		callback(*frame.Content)
	}
	return nil
}

// Last returns the most recent cumulative content delta.
func (r *Reader) Last() string {
	return r.last
}

// ContentReceived reports whether any non-empty content arrived.
func (r *Reader) ContentReceived() bool {
	return r.gotContent
}
