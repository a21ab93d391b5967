// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package ui

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textarea"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/glamour"

	"github.com/loomchat/loom-tui/internal/api"
	"github.com/loomchat/loom-tui/internal/convo"
	"github.com/loomchat/loom-tui/internal/model"
	"github.com/loomchat/loom-tui/internal/stream"
	"github.com/loomchat/loom-tui/internal/ui/styles"
)

// =============================================================================
// CHAT SCREEN
// =============================================================================

// chatModel is the streaming chat view for one conversation.
type chatModel struct {
	deps   Deps
	theme  *styles.Theme
	keys   KeyMap
	convID string

	viewport viewport.Model
	input    textarea.Model
	spinner  spinner.Model
	renderer *glamour.TermRenderer

	// applier feeds the live stream into the store's trailing message.
	applier *convo.StreamApplier

	// events carries stream messages from the API goroutine into the
	// update loop. The producer closes it when the stream ends; an
	// abandoned stream is handed to a drain goroutine instead.
	events chan tea.Msg

	streaming bool
	typing    bool
	errMsg    string

	width  int
	height int
}

func newChatModel(deps Deps, theme *styles.Theme, keys KeyMap, convID string) chatModel {
	input := textarea.New()
	input.Placeholder = "Type a message..."
	input.ShowLineNumbers = false
	input.SetHeight(3)
	input.CharLimit = 4000
	input.Focus()

	sp := spinner.New()
	sp.Spinner = spinner.Dot
	sp.Style = theme.Typing

	return chatModel{
		deps:     deps,
		theme:    theme,
		keys:     keys,
		convID:   convID,
		viewport: viewport.New(0, 0),
		input:    input,
		spinner:  sp,
	}
}

func (m chatModel) initCmd() tea.Cmd {
	return textarea.Blink
}

func (m chatModel) resize(width, height int) chatModel {
	m.width = width
	m.height = height

	// The zero value exists before any chat is opened; it has no store
	// to render from. Dimensions are recorded and the real layout
	// happens when the screen is constructed.
	if m.deps.Store == nil {
		return m
	}

	inputHeight := m.input.Height() + 2
	viewportHeight := height - inputHeight - 3
	if viewportHeight < 3 {
		viewportHeight = 3
	}
	m.viewport.Width = width
	m.viewport.Height = viewportHeight
	m.input.SetWidth(width - 4)

	// Word wrap tracks the terminal, so the renderer is rebuilt on
	// resize.
	wrap := width - 4
	if wrap < 20 {
		wrap = 20
	}
	if r, err := glamour.NewTermRenderer(
		glamour.WithAutoStyle(),
		glamour.WithWordWrap(wrap),
	); err == nil {
		m.renderer = r
	}

	return m.refreshViewport()
}

func (m chatModel) update(msg tea.Msg) (chatModel, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch {
		case key.Matches(msg, m.keys.Back):
			// Leaving mid-stream abandons the stream. A drainer keeps
			// consuming so the producer never blocks however long the
			// response runs; the producer's close ends the drain.
			if m.streaming && m.events != nil {
				events := m.events
				go func() {
					for range events {
					}
				}()
				m.events = nil
				m.applier = nil
				m.streaming = false
			}
			return m, func() tea.Msg { return BackToListMsg{} }

		case msg.String() == "enter":
			return m.submit()
		}

	case StreamContentMsg:
		if msg.ConversationID != m.convID || m.applier == nil {
			return m, nil
		}
		m.applier.Apply(msg.Content)
		m.typing = false
		m = m.refreshViewport()
		return m, waitForStream(m.events)

	case StreamDoneMsg:
		if msg.ConversationID != m.convID || m.applier == nil {
			return m, nil
		}
		m.applier.Finish(msg.Err)
		m.applier = nil
		m.streaming = false
		m.typing = false
		if msg.Err != nil {
			m.errMsg = streamErrorText(msg.Err)
			m.deps.Log.WithError(msg.Err).Warn("chat stream failed")
		}
		m = m.refreshViewport()
		return m, nil

	case spinner.TickMsg:
		if !m.typing {
			return m, nil
		}
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd
	}

	var cmds []tea.Cmd
	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	cmds = append(cmds, cmd)
	m.viewport, cmd = m.viewport.Update(msg)
	cmds = append(cmds, cmd)
	return m, tea.Batch(cmds...)
}

// submit sends the user's message and starts the response stream.
func (m chatModel) submit() (chatModel, tea.Cmd) {
	content := strings.TrimSpace(m.input.Value())
	if content == "" || m.streaming {
		return m, nil
	}

	m.deps.Store.AppendMessage(m.convID, model.NewUserMessage(content))
	m.input.Reset()
	m.errMsg = ""

	conv, ok := m.deps.Store.Get(m.convID)
	if !ok {
		return m, nil
	}
	history := api.HistoryToWire(conv.Messages)

	m.applier = convo.NewStreamApplier(m.deps.Store, m.convID, nil)
	m.streaming = true
	m.typing = true

	events := make(chan tea.Msg, 256)
	m.events = events

	convID := m.convID
	client := m.deps.Client
	go func() {
		err := client.ChatStream(context.Background(), history, func(content string) {
			events <- StreamContentMsg{ConversationID: convID, Content: content}
		})
		events <- StreamDoneMsg{ConversationID: convID, Err: err}
		close(events)
	}()

	m = m.refreshViewport()
	return m, tea.Batch(m.spinner.Tick, waitForStream(events))
}

// waitForStream relays the next stream event into the update loop.
func waitForStream(events chan tea.Msg) tea.Cmd {
	return func() tea.Msg {
		return <-events
	}
}

// =============================================================================
// RENDERING
// =============================================================================

// refreshViewport rebuilds the transcript and pins it to the bottom.
func (m chatModel) refreshViewport() chatModel {
	if m.deps.Store == nil {
		return m
	}
	conv, ok := m.deps.Store.Get(m.convID)
	if !ok {
		return m
	}

	var b strings.Builder
	for i, msg := range conv.Messages {
		live := m.streaming && i == len(conv.Messages)-1 && msg.Role == model.RoleAssistant
		b.WriteString(m.renderMessage(msg, live))
		b.WriteString("\n")
	}
	m.viewport.SetContent(b.String())
	m.viewport.GotoBottom()
	return m
}

// renderMessage formats one transcript entry. Completed assistant
// replies go through glamour; the in-flight one stays raw so partial
// markdown does not flicker through the renderer.
func (m chatModel) renderMessage(msg model.Message, live bool) string {
	var b strings.Builder
	switch msg.Role {
	case model.RoleUser:
		b.WriteString(m.theme.UserLabel.Render(msg.Role.DisplayName()))
		b.WriteString("\n")
		b.WriteString(msg.Content)
		b.WriteString("\n")
	case model.RoleAssistant:
		b.WriteString(m.theme.AssistantLabel.Render("loom"))
		b.WriteString("\n")
		if !live && m.renderer != nil {
			if rendered, err := m.renderer.Render(msg.Content); err == nil {
				b.WriteString(strings.TrimRight(rendered, "\n"))
				b.WriteString("\n")
				return b.String()
			}
		}
		b.WriteString(msg.Content)
		b.WriteString("\n")
	}
	return b.String()
}

func (m chatModel) view() string {
	var b strings.Builder

	conv, _ := m.deps.Store.Get(m.convID)
	title := "Chat"
	if conv != nil {
		title = conv.Title
	}
	b.WriteString(m.theme.Title.Render(title))
	b.WriteString("\n")
	b.WriteString(m.viewport.View())
	b.WriteString("\n")

	if m.typing {
		b.WriteString(m.theme.Typing.Render(fmt.Sprintf("%s thinking...", m.spinner.View())))
		b.WriteString("\n")
	}
	if m.errMsg != "" {
		b.WriteString(m.theme.Error.Render(m.errMsg))
		b.WriteString("\n")
	}

	b.WriteString(m.theme.InputBox.Render(m.input.View()))
	b.WriteString("\n")
	b.WriteString(m.theme.Hint.Render("enter: send • esc: back • ctrl+c: quit"))
	return b.String()
}

// streamErrorText maps stream failures to a short inline message.
func streamErrorText(err error) string {
	if errors.Is(err, api.ErrTimeout) {
		return "Request timed out."
	}
	var serverErr *stream.ServerError
	if errors.As(err, &serverErr) {
		return "Server error: " + serverErr.Message
	}
	var clientErr *api.ClientError
	if errors.As(err, &clientErr) {
		return clientErr.Message
	}
	return err.Error()
}
