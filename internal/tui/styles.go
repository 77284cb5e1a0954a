package tui

import (
	"github.com/charmbracelet/lipgloss"
	"github.com/sadopc/fitfeast/internal/diary"
)

// Color palette
var (
	colorPrimary   = lipgloss.Color("#10B981")
	colorMuted     = lipgloss.Color("#666666")
	colorSuccess   = lipgloss.Color("#2ECC71")
	colorWarning   = lipgloss.Color("#F39C12")
	colorError     = lipgloss.Color("#E74C3C")
	colorFg        = lipgloss.Color("#C0CAF5")
	colorSubtle    = lipgloss.Color("#414868")
	colorHighlight = lipgloss.Color("#7AA2F7")
)

var categoryColors = map[diary.Category]lipgloss.Color{
	diary.Proteins:   lipgloss.Color("#E74C3C"),
	diary.Fruits:     lipgloss.Color("#F39C12"),
	diary.Vegetables: lipgloss.Color("#2ECC71"),
	diary.Dairy:      lipgloss.Color("#ECF0F1"),
	diary.Grains:     lipgloss.Color("#D4A373"),
	diary.Snacks:     lipgloss.Color("#9B59B6"),
	diary.Drinks:     lipgloss.Color("#3498DB"),
	diary.Other:      lipgloss.Color("#95A5A6"),
}

func categoryColor(c diary.Category) lipgloss.Color {
	if col, ok := categoryColors[c]; ok {
		return col
	}
	return colorMuted
}

// Styles
var (
	// Tabs
	activeTabStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(colorPrimary).
			Border(lipgloss.NormalBorder(), false, false, true, false).
			BorderForeground(colorPrimary).
			Padding(0, 2)

	inactiveTabStyle = lipgloss.NewStyle().
				Foreground(colorMuted).
				Padding(0, 2)

	// Panels
	panelStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(colorSubtle).
			Padding(1, 2)

	activePanelStyle = lipgloss.NewStyle().
				Border(lipgloss.RoundedBorder()).
				BorderForeground(colorPrimary).
				Padding(1, 2)

	// Summary cards
	cardStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(colorSubtle).
			Padding(0, 1).
			Align(lipgloss.Center)

	overCardStyle = cardStyle.
			BorderForeground(colorError)

	cardValueStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(colorFg)

	// Text
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(colorFg)

	successStyle = lipgloss.NewStyle().
			Foreground(colorSuccess)

	warningStyle = lipgloss.NewStyle().
			Foreground(colorWarning)

	errorStyle = lipgloss.NewStyle().
			Foreground(colorError)

	mutedStyle = lipgloss.NewStyle().
			Foreground(colorMuted)

	highlightStyle = lipgloss.NewStyle().
			Foreground(colorHighlight)

	// Header/footer
	headerStyle = lipgloss.NewStyle().
			Padding(0, 1)

	footerStyle = lipgloss.NewStyle().
			Foreground(colorMuted).
			Padding(0, 1)

	// List items
	selectedItemStyle = lipgloss.NewStyle().
				Foreground(colorPrimary).
				Bold(true)

	normalItemStyle = lipgloss.NewStyle().
			Foreground(colorFg)
)
