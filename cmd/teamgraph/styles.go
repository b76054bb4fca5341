package main

import "github.com/charmbracelet/lipgloss"

var (
	accentColor = lipgloss.Color("#3498DB")
	mutedColor  = lipgloss.Color("#7B8794")
	errorColor  = lipgloss.Color("#E74C3C")

	speakerStyle = lipgloss.NewStyle().
			Foreground(accentColor).
			Bold(true)

	runStyle = lipgloss.NewStyle().
			Foreground(mutedColor)

	errorStyle = lipgloss.NewStyle().
			Foreground(errorColor).
			Bold(true)

	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Underline(true)
)
