// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package ui

import (
	"context"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/loomchat/loom-tui/internal/auth"
	"github.com/loomchat/loom-tui/internal/model"
	"github.com/loomchat/loom-tui/internal/ui/styles"
	"github.com/loomchat/loom-tui/internal/util"
)

// =============================================================================
// CONVERSATION LIST SCREEN
// =============================================================================

// convlistModel shows the user's conversations, newest first.
type convlistModel struct {
	deps  Deps
	theme *styles.Theme
	keys  KeyMap
	user  auth.User

	conversations []*model.Conversation
	cursor        int

	width  int
	height int
}

func newConvlistModel(deps Deps, theme *styles.Theme, keys KeyMap, user auth.User) convlistModel {
	m := convlistModel{
		deps:  deps,
		theme: theme,
		keys:  keys,
		user:  user,
	}
	return m.refresh()
}

// refresh re-reads the store, clamping the cursor.
func (m convlistModel) refresh() convlistModel {
	m.conversations = m.deps.Store.List()
	if m.cursor >= len(m.conversations) {
		m.cursor = len(m.conversations) - 1
	}
	if m.cursor < 0 {
		m.cursor = 0
	}
	return m
}

func (m convlistModel) resize(width, height int) convlistModel {
	m.width = width
	m.height = height
	return m
}

func (m convlistModel) update(msg tea.Msg) (convlistModel, tea.Cmd) {
	keyMsg, ok := msg.(tea.KeyMsg)
	if !ok {
		return m, nil
	}

	switch {
	case key.Matches(keyMsg, m.keys.Up):
		if m.cursor > 0 {
			m.cursor--
		}

	case key.Matches(keyMsg, m.keys.Down):
		if m.cursor < len(m.conversations)-1 {
			m.cursor++
		}

	case key.Matches(keyMsg, m.keys.New):
		id := m.deps.Store.Create("")
		return m, func() tea.Msg { return OpenChatMsg{ConversationID: id} }

	case key.Matches(keyMsg, m.keys.Select):
		if len(m.conversations) == 0 {
			return m, nil
		}
		id := m.conversations[m.cursor].ID
		return m, func() tea.Msg { return OpenChatMsg{ConversationID: id} }

	case key.Matches(keyMsg, m.keys.Delete):
		if len(m.conversations) == 0 {
			return m, nil
		}
		m.deps.Store.Delete(m.conversations[m.cursor].ID)
		return m.refresh(), nil

	case key.Matches(keyMsg, m.keys.Image):
		return m, func() tea.Msg { return OpenImageGenMsg{} }

	case key.Matches(keyMsg, m.keys.Logout):
		ctx := context.Background()
		m.deps.Store.FlushNow(ctx)
		m.deps.Store.Activate(ctx, "")
		m.deps.Auth.Logout(ctx)
		return m, func() tea.Msg { return LoggedOutMsg{} }
	}
	return m, nil
}

func (m convlistModel) view() string {
	var b strings.Builder

	b.WriteString(m.theme.Title.Render("loom"))
	b.WriteString(" ")
	b.WriteString(m.theme.Subtitle.Render(fmt.Sprintf("· %s", m.user.Username)))
	b.WriteString("\n\n")

	if len(m.conversations) == 0 {
		b.WriteString(m.theme.Hint.Render("No conversations yet. Press n to start one."))
		b.WriteString("\n")
	}

	previewWidth := m.width - 6
	if previewWidth < 20 {
		previewWidth = 20
	}
	for i, conv := range m.conversations {
		// Width-aware truncation so wide (CJK) titles never overrun
		// the row.
		title := util.TruncateToWidth(conv.Title, previewWidth)
		if i == m.cursor {
			b.WriteString(m.theme.ListSelected.Render("> " + title))
		} else {
			b.WriteString(m.theme.ListItem.Render(title))
		}
		b.WriteString("\n")
		b.WriteString(m.theme.ListPreview.Render(conv.Preview(previewWidth)))
		b.WriteString("\n")
	}

	b.WriteString("\n")
	b.WriteString(m.theme.Hint.Render(
		"enter: open • n: new • d: delete • g: generate image • ctrl+l: log out • ctrl+c: quit"))
	return b.String()
}
