// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package storage

import (
	"context"
	"encoding/hex"
	"os"
	"path/filepath"
	"strings"

	"github.com/loomchat/loom-tui/internal/util"
)

// =============================================================================
// FILE-BACKED KV
// =============================================================================

// FileKV stores each key as one file under a base directory.
//
// Keys are hex-escaped where needed so arbitrary key strings cannot
// escape the directory. Writes are atomic (temp + fsync + rename).
type FileKV struct {
	baseDir string
}

// NewFileKV creates a file-backed store rooted at baseDir, creating
// the directory if needed.
func NewFileKV(baseDir string) (*FileKV, error) {
	if err := os.MkdirAll(baseDir, 0755); err != nil {
		return nil, err
	}
	return &FileKV{baseDir: baseDir}, nil
}

// Get reads the value for key. A missing file is absence, not an
// error.
func (s *FileKV) Get(ctx context.Context, key string) (string, bool, error) {
	if err := ctx.Err(); err != nil {
		return "", false, err
	}

	data, err := os.ReadFile(s.path(key))
	if err != nil {
		if os.IsNotExist(err) {
			return "", false, nil
		}
		return "", false, err
	}
	return string(data), true, nil
}

// Set writes the value for key atomically.
func (s *FileKV) Set(ctx context.Context, key, value string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return util.AtomicWriteFile(s.path(key), []byte(value), 0600)
}

// Remove deletes the key. Removing an absent key is a no-op.
func (s *FileKV) Remove(ctx context.Context, key string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	if err := os.Remove(s.path(key)); err != nil && !os.IsNotExist(err) {
		return err
	}
	return nil
}

// Close is a no-op for the file backend.
func (s *FileKV) Close() error {
	return nil
}

// path maps a key to its file. Safe key characters pass through so the
// data directory stays human-readable; anything else is hex-escaped.
func (s *FileKV) path(key string) string {
	var sb strings.Builder
	for _, r := range key {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '_', r == '-':
			sb.WriteRune(r)
		default:
			sb.WriteString("%" + hex.EncodeToString([]byte(string(r))))
		}
	}
	return filepath.Join(s.baseDir, sb.String()+".json")
}
