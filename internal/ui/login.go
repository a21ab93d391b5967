// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package ui

import (
	"context"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/loomchat/loom-tui/internal/auth"
	"github.com/loomchat/loom-tui/internal/ui/styles"
)

// loginMode selects which auth operation enter performs.
type loginMode int

const (
	modeLogin loginMode = iota
	modeSignup
)

// =============================================================================
// LOGIN SCREEN
// =============================================================================

// loginModel is the login/signup form.
type loginModel struct {
	deps  Deps
	theme *styles.Theme
	keys  KeyMap

	mode     loginMode
	username textinput.Model
	password textinput.Model
	focused  int // 0 = username, 1 = password

	// errMsg is the inline domain failure, empty when none.
	errMsg string

	width  int
	height int
}

func newLoginModel(deps Deps, theme *styles.Theme, keys KeyMap) loginModel {
	username := textinput.New()
	username.Placeholder = "username"
	username.CharLimit = 64
	username.Focus()

	password := textinput.New()
	password.Placeholder = "password"
	password.CharLimit = 128
	password.EchoMode = textinput.EchoPassword
	password.EchoCharacter = '*'

	return loginModel{
		deps:     deps,
		theme:    theme,
		keys:     keys,
		username: username,
		password: password,
	}
}

func (m loginModel) resize(width, height int) loginModel {
	m.width = width
	m.height = height
	return m
}

func (m loginModel) update(msg tea.Msg) (loginModel, tea.Cmd) {
	if keyMsg, ok := msg.(tea.KeyMsg); ok {
		switch {
		case key.Matches(keyMsg, m.keys.Toggle):
			if m.mode == modeLogin {
				m.mode = modeSignup
			} else {
				m.mode = modeLogin
			}
			m.errMsg = ""
			return m, nil

		case keyMsg.String() == "tab", keyMsg.String() == "shift+tab":
			m = m.toggleFocus()
			return m, nil

		case keyMsg.String() == "enter":
			if m.focused == 0 {
				m = m.toggleFocus()
				return m, nil
			}
			return m.submit()
		}
	}

	var cmd tea.Cmd
	if m.focused == 0 {
		m.username, cmd = m.username.Update(msg)
	} else {
		m.password, cmd = m.password.Update(msg)
	}
	return m, cmd
}

func (m loginModel) toggleFocus() loginModel {
	if m.focused == 0 {
		m.focused = 1
		m.username.Blur()
		m.password.Focus()
	} else {
		m.focused = 0
		m.password.Blur()
		m.username.Focus()
	}
	return m
}

// submit runs the auth operation. The KV backends are local, so this
// is fast enough to do inline rather than as an async command.
func (m loginModel) submit() (loginModel, tea.Cmd) {
	ctx := context.Background()

	var user auth.User
	var failure string
	if m.mode == modeSignup {
		user, failure = m.deps.Auth.Signup(ctx, m.username.Value(), m.password.Value())
	} else {
		user, failure = m.deps.Auth.Login(ctx, m.username.Value(), m.password.Value())
	}
	if failure != "" {
		m.errMsg = failure
		return m, nil
	}

	m.deps.Store.Activate(ctx, user.ID)
	return m, func() tea.Msg { return AuthSuccessMsg{User: user} }
}

func (m loginModel) view() string {
	var b strings.Builder

	action := "Log in"
	toggleHint := "ctrl+t: sign up instead"
	if m.mode == modeSignup {
		action = "Sign up"
		toggleHint = "ctrl+t: log in instead"
	}

	b.WriteString(m.theme.Title.Render("loom"))
	b.WriteString("\n")
	b.WriteString(m.theme.Subtitle.Render(action))
	b.WriteString("\n\n")

	b.WriteString(m.fieldLabel("Username", 0))
	b.WriteString("\n")
	b.WriteString(m.username.View())
	b.WriteString("\n\n")
	b.WriteString(m.fieldLabel("Password", 1))
	b.WriteString("\n")
	b.WriteString(m.password.View())
	b.WriteString("\n\n")

	if m.errMsg != "" {
		b.WriteString(m.theme.Error.Render(m.errMsg))
		b.WriteString("\n\n")
	}

	b.WriteString(m.theme.Hint.Render(fmt.Sprintf("enter: %s • %s • ctrl+c: quit",
		strings.ToLower(action), toggleHint)))
	return b.String()
}

func (m loginModel) fieldLabel(label string, index int) string {
	if m.focused == index {
		return m.theme.ActiveField.Render(label)
	}
	return m.theme.FieldLabel.Render(label)
}
