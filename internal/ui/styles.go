package ui

import (
	"github.com/charmbracelet/lipgloss"
)

var (
	ColorBlue   = lipgloss.Color("63")
	ColorPurple = lipgloss.Color("141")
	ColorGreen  = lipgloss.Color("42")
	ColorYellow = lipgloss.Color("220")
	ColorRed    = lipgloss.Color("196")
	ColorGray   = lipgloss.Color("240")

	TitleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(ColorPurple)

	StepStyle = lipgloss.NewStyle().
			Foreground(ColorBlue).
			Bold(true)

	SuccessStyle = lipgloss.NewStyle().
			Foreground(ColorGreen).
			Bold(true)

	ErrorStyle = lipgloss.NewStyle().
			Foreground(ColorRed).
			Bold(true)

	WarningStyle = lipgloss.NewStyle().
			Foreground(ColorYellow)

	HelpStyle = lipgloss.NewStyle().
			Foreground(ColorGray)

	IconTool    = "🔧"
	IconSuccess = "✅"
	IconWarning = "⚠️ "
	IconError   = "❌"
	IconRocket  = "🚀"
	IconPackage = "📦"
	IconSearch  = "🔍"
	IconUpload  = "📤"
	IconClock   = "⏱️ "
)
