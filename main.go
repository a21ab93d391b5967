// loom TUI - A terminal client for streaming chat and image generation.
//
// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later
package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/sirupsen/logrus"

	"github.com/loomchat/loom-tui/internal/api"
	"github.com/loomchat/loom-tui/internal/auth"
	"github.com/loomchat/loom-tui/internal/config"
	"github.com/loomchat/loom-tui/internal/convo"
	"github.com/loomchat/loom-tui/internal/storage"
	"github.com/loomchat/loom-tui/internal/ui"
)

// Version information (set at build time)
var (
	Version   = "0.1.0"
	GitCommit = "unknown"
	BuildDate = "unknown"
)

func main() {
	if len(os.Args) > 1 && (os.Args[1] == "--version" || os.Args[1] == "version") {
		fmt.Printf("loom %s (%s, built %s)\n", Version, GitCommit, BuildDate)
		return
	}

	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "loom: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}

	log, logFile, err := setupLogging(cfg)
	if err != nil {
		return err
	}
	if logFile != nil {
		defer logFile.Close()
	}

	kv, err := openStorage(cfg)
	if err != nil {
		return err
	}
	defer kv.Close()

	store := convo.NewStore(kv, convo.Options{
		Debounce: time.Duration(cfg.Chat.DebounceMs) * time.Millisecond,
		Logger:   log,
	})
	defer store.Close()

	imageDir, err := cfg.ImageDir()
	if err != nil {
		return err
	}

	deps := ui.Deps{
		Log:   log,
		Auth:  auth.NewService(kv, log),
		Store: store,
		Client: api.NewClient(api.Config{
			BaseURL: cfg.Server.BaseURL,
			Timeout: time.Duration(cfg.Server.TimeoutSecs) * time.Second,
		}),
		ImageDir: imageDir,
	}

	log.WithFields(logrus.Fields{
		"version": Version,
		"backend": cfg.Storage.Backend,
	}).Info("loom starting")

	program := tea.NewProgram(ui.NewApp(deps), tea.WithAltScreen())
	if _, err := program.Run(); err != nil {
		return fmt.Errorf("TUI error: %w", err)
	}
	return nil
}

// setupLogging sends logrus to a file; the terminal belongs to the TUI.
func setupLogging(cfg *config.Config) (logrus.FieldLogger, *os.File, error) {
	path, err := cfg.LogFile()
	if err != nil {
		return nil, nil, err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, nil, fmt.Errorf("create log directory: %w", err)
	}
	file, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0600)
	if err != nil {
		return nil, nil, fmt.Errorf("open log file: %w", err)
	}

	log := logrus.New()
	log.SetOutput(file)
	if level, err := logrus.ParseLevel(strings.ToLower(cfg.Log.Level)); err == nil {
		log.SetLevel(level)
	}
	return log, file, nil
}

// openStorage builds the configured KV backend.
func openStorage(cfg *config.Config) (storage.KV, error) {
	dataDir, err := cfg.DataDir()
	if err != nil {
		return nil, err
	}
	if err := os.MkdirAll(dataDir, 0700); err != nil {
		return nil, fmt.Errorf("create data directory: %w", err)
	}

	switch strings.ToLower(cfg.Storage.Backend) {
	case config.BackendSQLite:
		return storage.NewSQLiteKV(filepath.Join(dataDir, "loom.db"))
	default:
		return storage.NewFileKV(dataDir)
	}
}
