// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package ui

import (
	"context"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/sirupsen/logrus"

	"github.com/loomchat/loom-tui/internal/api"
	"github.com/loomchat/loom-tui/internal/auth"
	"github.com/loomchat/loom-tui/internal/convo"
	"github.com/loomchat/loom-tui/internal/ui/styles"
)

// screen identifies the active view.
type screen int

const (
	screenLogin screen = iota
	screenList
	screenChat
	screenImage
)

// Deps bundles the services the UI operates on.
type Deps struct {
	Log    logrus.FieldLogger
	Auth   *auth.Service
	Store  *convo.Store
	Client *api.Client

	// ImageDir is where generated images are written.
	ImageDir string
}

// =============================================================================
// APP MODEL
// =============================================================================

// App is the root Bubble Tea model. It routes messages to the active
// screen and handles screen transitions.
type App struct {
	deps  Deps
	theme *styles.Theme
	keys  KeyMap

	screen screen
	user   auth.User

	login loginModel
	list  convlistModel
	chat  chatModel
	image imagegenModel

	width  int
	height int
}

// NewApp creates the root model.
func NewApp(deps Deps) App {
	theme := styles.New()
	keys := DefaultKeyMap()
	return App{
		deps:   deps,
		theme:  theme,
		keys:   keys,
		screen: screenLogin,
		login:  newLoginModel(deps, theme, keys),
	}
}

// Init restores a persisted session if one exists.
func (a App) Init() tea.Cmd {
	return func() tea.Msg {
		ctx := context.Background()
		if user, ok := a.deps.Auth.CurrentUser(ctx); ok {
			a.deps.Store.Activate(ctx, user.ID)
			return AuthSuccessMsg{User: user}
		}
		return ShowLoginMsg{}
	}
}

// Update routes messages to the active screen and handles transitions.
func (a App) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		a.width = msg.Width
		a.height = msg.Height
		// Every screen sees resizes, active or not.
		a.login = a.login.resize(msg.Width, msg.Height)
		a.list = a.list.resize(msg.Width, msg.Height)
		a.chat = a.chat.resize(msg.Width, msg.Height)
		a.image = a.image.resize(msg.Width, msg.Height)
		return a, nil

	case tea.KeyMsg:
		// Quit is global; everything else belongs to the screen.
		if msg.String() == "ctrl+c" {
			return a, tea.Quit
		}

	case AuthSuccessMsg:
		a.user = msg.User
		a.list = newConvlistModel(a.deps, a.theme, a.keys, a.user)
		a.list = a.list.resize(a.width, a.height)
		a.screen = screenList
		return a, nil

	case ShowLoginMsg, LoggedOutMsg:
		a.login = newLoginModel(a.deps, a.theme, a.keys)
		a.login = a.login.resize(a.width, a.height)
		a.screen = screenLogin
		return a, nil

	case OpenChatMsg:
		a.chat = newChatModel(a.deps, a.theme, a.keys, msg.ConversationID)
		a.chat = a.chat.resize(a.width, a.height)
		a.screen = screenChat
		return a, a.chat.initCmd()

	case OpenImageGenMsg:
		a.image = newImagegenModel(a.deps, a.theme, a.keys)
		a.image = a.image.resize(a.width, a.height)
		a.screen = screenImage
		return a, nil

	case BackToListMsg:
		a.list = a.list.refresh()
		a.screen = screenList
		return a, nil
	}

	var cmd tea.Cmd
	switch a.screen {
	case screenLogin:
		a.login, cmd = a.login.update(msg)
	case screenList:
		a.list, cmd = a.list.update(msg)
	case screenChat:
		a.chat, cmd = a.chat.update(msg)
	case screenImage:
		a.image, cmd = a.image.update(msg)
	}
	return a, cmd
}

// View renders the active screen.
func (a App) View() string {
	switch a.screen {
	case screenLogin:
		return a.login.view()
	case screenList:
		return a.list.view()
	case screenChat:
		return a.chat.view()
	case screenImage:
		return a.image.view()
	}
	return ""
}
