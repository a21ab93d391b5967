// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package styles provides the visual styling system for the loom TUI.
package styles

import (
	"github.com/charmbracelet/lipgloss"
)

// Palette.
var (
	ColorPrimary = lipgloss.AdaptiveColor{Light: "#5A56E0", Dark: "#7D79F6"}
	ColorMuted   = lipgloss.AdaptiveColor{Light: "#9B9B9B", Dark: "#626262"}
	ColorError   = lipgloss.AdaptiveColor{Light: "#C51E3A", Dark: "#FF5F87"}
	ColorUser    = lipgloss.AdaptiveColor{Light: "#0087AF", Dark: "#5FD7FF"}
	ColorBorder  = lipgloss.AdaptiveColor{Light: "#D9DCCF", Dark: "#383838"}
)

// Theme holds the styled components shared by all screens.
type Theme struct {
	Title    lipgloss.Style
	Subtitle lipgloss.Style
	Error    lipgloss.Style
	Hint     lipgloss.Style

	// Conversation list
	ListItem     lipgloss.Style
	ListSelected lipgloss.Style
	ListPreview  lipgloss.Style

	// Chat view
	UserLabel      lipgloss.Style
	AssistantLabel lipgloss.Style
	Typing         lipgloss.Style
	InputBox       lipgloss.Style

	// Forms
	FieldLabel  lipgloss.Style
	ActiveField lipgloss.Style
}

// New builds the default theme.
func New() *Theme {
	return &Theme{
		Title: lipgloss.NewStyle().
			Bold(true).
			Foreground(ColorPrimary),
		Subtitle: lipgloss.NewStyle().
			Foreground(ColorMuted),
		Error: lipgloss.NewStyle().
			Foreground(ColorError),
		Hint: lipgloss.NewStyle().
			Foreground(ColorMuted).
			Italic(true),

		ListItem: lipgloss.NewStyle().
			PaddingLeft(2),
		ListSelected: lipgloss.NewStyle().
			PaddingLeft(0).
			Bold(true).
			Foreground(ColorPrimary),
		ListPreview: lipgloss.NewStyle().
			PaddingLeft(4).
			Foreground(ColorMuted),

		UserLabel: lipgloss.NewStyle().
			Bold(true).
			Foreground(ColorUser),
		AssistantLabel: lipgloss.NewStyle().
			Bold(true).
			Foreground(ColorPrimary),
		Typing: lipgloss.NewStyle().
			Foreground(ColorMuted).
			Italic(true),
		InputBox: lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(ColorBorder).
			Padding(0, 1),

		FieldLabel: lipgloss.NewStyle().
			Foreground(ColorMuted),
		ActiveField: lipgloss.NewStyle().
			Foreground(ColorPrimary).
			Bold(true),
	}
}
