package console

import "github.com/charmbracelet/lipgloss"

var (
	colorAccent = lipgloss.AdaptiveColor{Light: "#399ee6", Dark: "#59c2ff"}
	colorPass   = lipgloss.AdaptiveColor{Light: "#86b300", Dark: "#c2d94c"}
	colorMuted  = lipgloss.AdaptiveColor{Light: "#828c99", Dark: "#6c7680"}
	colorFail   = lipgloss.AdaptiveColor{Light: "#f07171", Dark: "#f07178"}

	headingStyle  = lipgloss.NewStyle().Bold(true).Foreground(colorAccent)
	selectedStyle = lipgloss.NewStyle().Foreground(colorPass)
	mutedStyle    = lipgloss.NewStyle().Foreground(colorMuted)
	failureStyle  = lipgloss.NewStyle().Foreground(colorFail)
	labelStyle    = lipgloss.NewStyle().Bold(true)
)
