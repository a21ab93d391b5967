// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package ui

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/loomchat/loom-tui/internal/ui/styles"
	"github.com/loomchat/loom-tui/internal/util"
)

// =============================================================================
// IMAGE GENERATION SCREEN
// =============================================================================

// imagegenModel prompts for a description and saves the generated
// image to disk.
type imagegenModel struct {
	deps  Deps
	theme *styles.Theme
	keys  KeyMap

	prompt  textinput.Model
	spinner spinner.Model

	busy      bool
	savedPath string
	errMsg    string

	width  int
	height int
}

func newImagegenModel(deps Deps, theme *styles.Theme, keys KeyMap) imagegenModel {
	prompt := textinput.New()
	prompt.Placeholder = "Describe the image to generate..."
	prompt.CharLimit = 1000
	prompt.Focus()

	sp := spinner.New()
	sp.Spinner = spinner.Dot
	sp.Style = theme.Typing

	return imagegenModel{
		deps:    deps,
		theme:   theme,
		keys:    keys,
		prompt:  prompt,
		spinner: sp,
	}
}

func (m imagegenModel) resize(width, height int) imagegenModel {
	m.width = width
	m.height = height
	m.prompt.Width = width - 4
	return m
}

func (m imagegenModel) update(msg tea.Msg) (imagegenModel, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch {
		case key.Matches(msg, m.keys.Back):
			return m, func() tea.Msg { return BackToListMsg{} }

		case msg.String() == "enter":
			return m.submit()
		}

	case ImageDoneMsg:
		m.busy = false
		if msg.Err != nil {
			m.errMsg = msg.Err.Error()
			m.deps.Log.WithError(msg.Err).Warn("image generation failed")
		} else {
			m.savedPath = msg.Path
		}
		return m, nil

	case spinner.TickMsg:
		if !m.busy {
			return m, nil
		}
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd
	}

	var cmd tea.Cmd
	m.prompt, cmd = m.prompt.Update(msg)
	return m, cmd
}

// submit requests the image and writes it under the image directory.
func (m imagegenModel) submit() (imagegenModel, tea.Cmd) {
	prompt := strings.TrimSpace(m.prompt.Value())
	if prompt == "" || m.busy {
		return m, nil
	}

	m.busy = true
	m.errMsg = ""
	m.savedPath = ""

	client := m.deps.Client
	dir := m.deps.ImageDir
	generate := func() tea.Msg {
		data, err := client.GenerateImage(context.Background(), prompt)
		if err != nil {
			return ImageDoneMsg{Err: err}
		}
		if err := os.MkdirAll(dir, 0755); err != nil {
			return ImageDoneMsg{Err: fmt.Errorf("create image directory: %w", err)}
		}
		path := filepath.Join(dir, fmt.Sprintf("loom_%d.png", time.Now().UnixMilli()))
		if err := util.AtomicWriteFile(path, data, 0644); err != nil {
			return ImageDoneMsg{Err: fmt.Errorf("save image: %w", err)}
		}
		return ImageDoneMsg{Path: path}
	}
	return m, tea.Batch(m.spinner.Tick, generate)
}

func (m imagegenModel) view() string {
	var b strings.Builder

	b.WriteString(m.theme.Title.Render("Generate image"))
	b.WriteString("\n\n")
	b.WriteString(m.prompt.View())
	b.WriteString("\n\n")

	switch {
	case m.busy:
		b.WriteString(m.theme.Typing.Render(fmt.Sprintf("%s generating...", m.spinner.View())))
		b.WriteString("\n")
	case m.errMsg != "":
		b.WriteString(m.theme.Error.Render(m.errMsg))
		b.WriteString("\n")
	case m.savedPath != "":
		b.WriteString(m.theme.Subtitle.Render("Saved to " + m.savedPath))
		b.WriteString("\n")
	}

	b.WriteString("\n")
	b.WriteString(m.theme.Hint.Render("enter: generate • esc: back • ctrl+c: quit"))
	return b.String()
}
